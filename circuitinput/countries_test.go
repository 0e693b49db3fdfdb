package circuitinput

import (
	"testing"
)

func TestPackForbiddenCountriesRoundTrip(t *testing.T) {
	table := NewCountryTable()
	tests := [][]string{
		{},
		{"PRK"},
		{"PRK", "IRN"},
		{"PRK", "IRN", "SYR", "CUB", "RUS"},
		{"AFG", "ALB", "DZA", "AND", "AGO", "ATG", "ARG", "ARM", "AUS", "AUT",
			"AZE", "BHS", "BHR", "BGD", "BRB", "BLR", "BEL", "BLZ", "BEN", "BTN"},
	}

	for _, codes := range tests {
		packed, err := table.PackForbiddenCountries(codes)
		if err != nil {
			t.Fatalf("%v: %v", codes, err)
		}

		got := UnpackForbiddenCountries(packed)
		if len(got) != len(codes) {
			t.Fatalf("%v: unpacked %d codes, want %d: %v", codes, len(got), len(codes), got)
		}
		for i := range codes {
			if got[i] != codes[i] {
				t.Fatalf("%v: code %d is %q, want %q", codes, i, got[i], codes[i])
			}
		}
	}
}

func TestPackForbiddenCountriesGroupCount(t *testing.T) {
	table := NewCountryTable()
	packed, err := table.PackForbiddenCountries([]string{"PRK"})
	if err != nil {
		t.Fatal(err)
	}
	// 120 buffer bytes chunk into ceil(120/31) field elements regardless of
	// how many codes are set.
	if len(packed) != 4 {
		t.Fatalf("got %d field elements, want 4", len(packed))
	}
}

func TestPackForbiddenCountriesRejects(t *testing.T) {
	table := NewCountryTable()

	if _, err := table.PackForbiddenCountries([]string{"XYZ"}); err == nil {
		t.Error("expected error for unknown code")
	}
	if _, err := table.PackForbiddenCountries([]string{"FRAN"}); err == nil {
		t.Error("expected error for overlong code")
	}

	tooMany := make([]string, MaxForbiddenCountries+1)
	for i := range tooMany {
		tooMany[i] = "FRA"
	}
	if _, err := table.PackForbiddenCountries(tooMany); err == nil {
		t.Error("expected error for oversized list")
	}
}

func TestCountryTableValid(t *testing.T) {
	table := NewCountryTable()
	if !table.Valid("FRA") || !table.Valid("fra") {
		t.Error("FRA should be valid in any case")
	}
	if table.Valid("ZZZ") {
		t.Error("ZZZ should be invalid")
	}
}
