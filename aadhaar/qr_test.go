package aadhaar

import (
	"bytes"
	"compress/gzip"
	"errors"
	"math/big"
	"testing"
)

// buildPayload assembles a delimited V2 buffer: 18 delimited fields, photo
// bytes, then the trailing signature.
func buildPayload(t *testing.T, fields [18]string, photo, signature []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, f := range fields {
		buf.WriteString(f)
		buf.WriteByte(delimiter)
	}
	buf.Write(photo)
	buf.Write(signature)
	return buf.Bytes()
}

func testFields() [18]string {
	var fields [18]string
	fields[fieldVersion-1] = "V2"
	fields[fieldReferenceID-1] = "123420240101120000"
	fields[fieldName-1] = "ANNA MARIA"
	fields[fieldDOB-1] = "12-08-1974"
	fields[fieldGender-1] = "F"
	fields[fieldPinCode-1] = "110001"
	fields[fieldState-1] = "DELHI"
	fields[fieldPhone-1] = "4321"
	return fields
}

func TestParseDelimited(t *testing.T) {
	photo := bytes.Repeat([]byte{0xAB}, 64)
	signature := bytes.Repeat([]byte{0xCD}, signatureBytes)
	buf := buildPayload(t, testFields(), photo, signature)

	doc, err := ParseDelimited(buf)
	if err != nil {
		t.Fatal(err)
	}

	if doc.Name != "ANNA MARIA" {
		t.Errorf("name is %q", doc.Name)
	}
	if doc.DOB != (Date{Day: 12, Month: 8, Year: 1974}) {
		t.Errorf("dob is %+v", doc.DOB)
	}
	if doc.Gender != "F" {
		t.Errorf("gender is %q", doc.Gender)
	}
	if doc.PinCode != "110001" {
		t.Errorf("pin code is %q", doc.PinCode)
	}
	if doc.State != "DELHI" {
		t.Errorf("state is %q", doc.State)
	}
	if doc.LastFourDigits != "1234" {
		t.Errorf("last four digits are %q", doc.LastFourDigits)
	}
	if doc.Timestamp != "20240101120000" {
		t.Errorf("timestamp is %q", doc.Timestamp)
	}
	if doc.PhoneLastDigits != "4321" {
		t.Errorf("phone suffix is %q", doc.PhoneLastDigits)
	}
	if !bytes.Equal(doc.Photo, photo) {
		t.Error("photo bytes mismatch")
	}
	if !bytes.Equal(doc.Signature, signature) {
		t.Error("signature bytes mismatch")
	}
	if !bytes.Equal(doc.SignedPayload, buf[:len(buf)-signatureBytes]) {
		t.Error("signed payload mismatch")
	}
}

func TestParseQRRoundTrip(t *testing.T) {
	photo := bytes.Repeat([]byte{0x01}, 32)
	signature := bytes.Repeat([]byte{0x02}, signatureBytes)
	buf := buildPayload(t, testFields(), photo, signature)

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	scanned := new(big.Int).SetBytes(compressed.Bytes()).String()
	doc, err := ParseQR([]byte(scanned))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "ANNA MARIA" {
		t.Errorf("name is %q", doc.Name)
	}
}

func TestParseDelimitedInsufficientDelimiters(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("V2")
	for i := 0; i < 5; i++ {
		buf.WriteByte(delimiter)
		buf.WriteString("x")
	}
	buf.Write(bytes.Repeat([]byte{0}, signatureBytes))

	if _, err := ParseDelimited(buf.Bytes()); !errors.Is(err, ErrFormat) {
		t.Fatalf("got %v, want ErrFormat", err)
	}
}

func TestParseDelimitedRejectsWrongVersion(t *testing.T) {
	fields := testFields()
	fields[fieldVersion-1] = "V1"
	buf := buildPayload(t, fields, nil, bytes.Repeat([]byte{0}, signatureBytes))

	if _, err := ParseDelimited(buf); !errors.Is(err, ErrFormat) {
		t.Fatalf("got %v, want ErrFormat", err)
	}
}

func TestParseDelimitedTooShort(t *testing.T) {
	if _, err := ParseDelimited(make([]byte, 100)); !errors.Is(err, ErrFormat) {
		t.Fatalf("got %v, want ErrFormat", err)
	}
}

func TestParseQRRejectsNonDecimal(t *testing.T) {
	if _, err := ParseQR([]byte("not-a-number")); !errors.Is(err, ErrFormat) {
		t.Fatalf("got %v, want ErrFormat", err)
	}
}

func TestParseDOB(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"12-08-1974", Date{12, 8, 1974}, false},
		{"01/01/2000", Date{1, 1, 2000}, false},
		{"31-02-1850", Date{}, true},
		{"yesterday", Date{}, true},
	}
	for _, tt := range tests {
		got, err := parseDOB(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
