package conversion

import (
	"errors"
	"testing"
)

func TestUnits_Order(t *testing.T) {
	want := []Unit{UnitSquareFoot, UnitDismil, UnitKatha, UnitBigha, UnitAcre, UnitHectare, UnitSquareMeter}
	got := Units()

	if len(got) != len(want) {
		t.Fatalf("len(Units()) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Units()[%d] = %s, want %s", i, got[i], want[i])
		}
		if got[i].Label() == "" {
			t.Errorf("unit %s has no label", got[i])
		}
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		input   string
		want    Unit
		wantErr bool
	}{
		{"acre", UnitAcre, false},
		{" SQFT ", UnitSquareFoot, false},
		{"sqmeter", UnitSquareMeter, false},
		{"Square Foot", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUnit(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownUnit) {
					t.Errorf("ParseUnit(%q) error = %v, want ErrUnknownUnit", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseUnit(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseUnit(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRegion(t *testing.T) {
	tests := []struct {
		input   string
		want    Region
		wantErr bool
	}{
		{"", RegionStandard, false},
		{"standard", RegionStandard, false},
		{"BANKA_BIHAR", RegionBankaBihar, false},
		{"bihar", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRegion(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownRegion) {
					t.Errorf("ParseRegion(%q) error = %v, want ErrUnknownRegion", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRegion(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRegion(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestRegion_Note(t *testing.T) {
	if RegionStandard.Note() != "" {
		t.Errorf("standard note = %q, want empty", RegionStandard.Note())
	}
	if RegionBankaBihar.Note() == "" {
		t.Error("banka_bihar note is empty")
	}
}
