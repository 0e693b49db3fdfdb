package x509cert

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"testing"
	"time"
)

func newRSACertDER(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(7),
		Subject:               pkix.Name{CommonName: "Test DSC", Country: []string{"UT"}},
		NotBefore:             time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:              time.Date(2034, 1, 1, 0, 0, 0, 0, time.UTC),
		SignatureAlgorithm:    x509.SHA256WithRSA,
		BasicConstraintsValid: true,
		SubjectKeyId:          []byte{1, 2, 3, 4},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	return der, key
}

func newECDSACertDER(t *testing.T) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:       big.NewInt(8),
		Subject:            pkix.Name{CommonName: "Test EC DSC"},
		NotBefore:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:           time.Date(2034, 1, 1, 0, 0, 0, 0, time.UTC),
		SignatureAlgorithm: x509.ECDSAWithSHA256,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	return der
}

func TestParseRSACertificate(t *testing.T) {
	der, key := newRSACertDER(t)
	cert, err := Parse(der)
	if err != nil {
		t.Fatal(err)
	}

	if cert.SignatureFamily != FamilyRSA {
		t.Errorf("family is %q, want rsa", cert.SignatureFamily)
	}
	if cert.HashAlgorithm != "sha256" {
		t.Errorf("hash is %q, want sha256", cert.HashAlgorithm)
	}
	if cert.RSA == nil {
		t.Fatal("no RSA key extracted")
	}
	if cert.RSA.BitLength != 2048 {
		t.Errorf("bit length is %d, want 2048", cert.RSA.BitLength)
	}
	if cert.RSA.Exponent != 65537 {
		t.Errorf("exponent is %d, want 65537", cert.RSA.Exponent)
	}
	if cert.RSA.Modulus.Cmp(key.PublicKey.N) != 0 {
		t.Error("modulus mismatch")
	}
	if cert.SerialNumber.Int64() != 7 {
		t.Errorf("serial is %s", cert.SerialNumber)
	}
	if !bytes.Equal(cert.SubjectKeyID, []byte{1, 2, 3, 4}) {
		t.Errorf("subject key id is %x", cert.SubjectKeyID)
	}

	// The TBS region must be byte-identical to what crypto/x509 reports.
	std, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(cert.TBSBytes, std.RawTBSCertificate) {
		t.Error("TBS bytes differ from crypto/x509")
	}
}

func TestParsePEM(t *testing.T) {
	der, _ := newRSACertDER(t)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	cert, err := Parse(pemBytes)
	if err != nil {
		t.Fatal(err)
	}
	if cert.RSA == nil || cert.RSA.BitLength != 2048 {
		t.Fatal("PEM parse lost the key")
	}
}

func TestParseECDSACertificate(t *testing.T) {
	der := newECDSACertDER(t)
	cert, err := Parse(der)
	if err != nil {
		t.Fatal(err)
	}
	if cert.SignatureFamily != FamilyECDSA {
		t.Errorf("family is %q, want ecdsa", cert.SignatureFamily)
	}
	if cert.ECDSA == nil {
		t.Fatal("no EC key extracted")
	}
	if cert.ECDSA.Curve != "secp256r1" {
		t.Errorf("curve is %q, want secp256r1", cert.ECDSA.Curve)
	}
	if cert.ECDSA.BitLength != 256 {
		t.Errorf("bit length is %d, want 256", cert.ECDSA.BitLength)
	}
}

func TestRawEnricherMatchesStd(t *testing.T) {
	der, _ := newRSACertDER(t)

	std, err := ParseWith(der, StdEnricher{})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := ParseWith(der, RawEnricher{})
	if err != nil {
		t.Fatal(err)
	}

	if std.RSA.Modulus.Cmp(raw.RSA.Modulus) != 0 {
		t.Error("enrichers disagree on the modulus")
	}
	if std.RSA.Exponent != raw.RSA.Exponent {
		t.Error("enrichers disagree on the exponent")
	}

	ecDER := newECDSACertDER(t)
	stdEC, err := ParseWith(ecDER, StdEnricher{})
	if err != nil {
		t.Fatal(err)
	}
	rawEC, err := ParseWith(ecDER, RawEnricher{})
	if err != nil {
		t.Fatal(err)
	}
	if stdEC.ECDSA.X.Cmp(rawEC.ECDSA.X) != 0 || stdEC.ECDSA.Y.Cmp(rawEC.ECDSA.Y) != 0 {
		t.Error("enrichers disagree on the EC point")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not a certificate")); !errors.Is(err, ErrParse) {
		t.Fatalf("got %v, want ErrParse", err)
	}
	der, _ := newRSACertDER(t)
	if _, err := Parse(append(der, 0x00)); !errors.Is(err, ErrParse) {
		t.Fatalf("trailing bytes: got %v, want ErrParse", err)
	}
}

func TestTBSBudget(t *testing.T) {
	tests := []struct {
		name string
		cert Certificate
		want int
	}{
		{"ecdsa", Certificate{SignatureFamily: FamilyECDSA}, 960},
		{"rsa 2048", Certificate{SignatureFamily: FamilyRSA, RSA: &RSAPublicKey{BitLength: 2048}}, 960},
		{"rsa 3072", Certificate{SignatureFamily: FamilyRSA, RSA: &RSAPublicKey{BitLength: 3072}}, 1664},
		{"rsapss 4096", Certificate{SignatureFamily: FamilyRSAPSS, RSA: &RSAPublicKey{BitLength: 4096}}, 1664},
	}
	for _, tt := range tests {
		if got := tt.cert.TBSBudget(); got != tt.want {
			t.Errorf("%s: budget is %d, want %d", tt.name, got, tt.want)
		}
	}
}
