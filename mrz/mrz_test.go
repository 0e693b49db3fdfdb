package mrz

import (
	"errors"
	"strings"
	"testing"
)

// The ICAO 9303 specimen passport zone.
const specimenTD3 = "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<" +
	"L898902C36UTO7408122F1204159ZE184226B<<<<<10"

const specimenTD1 = "I<UTOD231458907<<<<<<<<<<<<<<<" +
	"7408122F1204159UTO<<<<<<<<<<<6" +
	"ERIKSSON<<ANNA<MARIA<<<<<<<<<<"

func TestParseTD3Fields(t *testing.T) {
	zone, err := Parse(specimenTD3)
	if err != nil {
		t.Fatal(err)
	}
	if zone.Format != TD3 {
		t.Fatalf("format is %s, want td3", zone.Format)
	}

	tests := []struct {
		field Field
		want  string
	}{
		{DocumentType, "P<"},
		{IssuingState, "UTO"},
		{Name, "ERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<"},
		{DocumentNumber, "L898902C3"},
		{Nationality, "UTO"},
		{BirthDate, "740812"},
		{Sex, "F"},
		{ExpiryDate, "120415"},
	}
	for _, tt := range tests {
		got, err := zone.Field(tt.field)
		if err != nil {
			t.Errorf("%s: %v", tt.field, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("%s: got %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestParseTD1Fields(t *testing.T) {
	zone, err := Parse(specimenTD1)
	if err != nil {
		t.Fatal(err)
	}
	if zone.Format != TD1 {
		t.Fatalf("format is %s, want td1", zone.Format)
	}

	tests := []struct {
		field Field
		want  string
	}{
		{DocumentNumber, "D23145890"},
		{BirthDate, "740812"},
		{Sex, "F"},
		{ExpiryDate, "120415"},
		{Nationality, "UTO"},
		{Name, "ERIKSSON<<ANNA<MARIA<<<<<<<<<<"},
	}
	for _, tt := range tests {
		got, err := zone.Field(tt.field)
		if err != nil {
			t.Errorf("%s: %v", tt.field, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("%s: got %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestParseStripsLineBreaks(t *testing.T) {
	withBreaks := specimenTD3[:44] + "\n" + specimenTD3[44:]
	zone, err := Parse(withBreaks)
	if err != nil {
		t.Fatal(err)
	}
	if zone.Text() != specimenTD3 {
		t.Fatal("line breaks not stripped")
	}
}

func TestParseRejectsWrongLength(t *testing.T) {
	if _, err := Parse(specimenTD3[:80]); !errors.Is(err, ErrFieldLength) {
		t.Fatalf("got %v, want ErrFieldLength", err)
	}
}

func TestCheckDigit(t *testing.T) {
	tests := []struct {
		data string
		want int
	}{
		{"L898902C3", 6},
		{"740812", 2},
		{"120415", 9},
		{"<<<<<<<<", 0},
	}
	for _, tt := range tests {
		got, err := CheckDigit([]byte(tt.data))
		if err != nil {
			t.Errorf("%q: %v", tt.data, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %d, want %d", tt.data, got, tt.want)
		}
	}
}

func TestCheckDigitRejectsInvalidCharacter(t *testing.T) {
	if _, err := CheckDigit([]byte("abc")); err == nil {
		t.Fatal("expected error for lowercase input")
	}
}

func TestValidate(t *testing.T) {
	for _, text := range []string{specimenTD3, specimenTD1} {
		zone, err := Parse(text)
		if err != nil {
			t.Fatal(err)
		}
		if err := zone.Validate(); err != nil {
			t.Errorf("%s: %v", zone.Format, err)
		}
	}
}

func TestValidateCatchesCorruptedDigit(t *testing.T) {
	// Flip the birth date check digit at offset 63.
	corrupted := specimenTD3[:63] + "3" + specimenTD3[64:]
	zone, err := Parse(corrupted)
	if err != nil {
		t.Fatal(err)
	}
	if err := zone.Validate(); !errors.Is(err, ErrFieldLength) {
		t.Fatalf("got %v, want ErrFieldLength", err)
	}
}

func TestFieldUnknown(t *testing.T) {
	zone, err := Parse(specimenTD3)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := zone.Field(Field("fingerprint")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestZoneLengths(t *testing.T) {
	if len(specimenTD3) != 88 || len(strings.ReplaceAll(specimenTD1, "\n", "")) != 90 {
		t.Fatalf("specimen lengths are %d and %d", len(specimenTD3), len(specimenTD1))
	}
}
