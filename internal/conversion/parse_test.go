package conversion

import "testing"

func TestParseLeadingFloat(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"1", 1, true},
		{"  2.5", 2.5, true},
		{"+3", 3, true},
		{"-4.75", -4.75, true},
		{".5", 0.5, true},
		{"5.", 5, true},
		{"1e3", 1000, true},
		{"1E-2", 0.01, true},
		{"5.e2", 500, true},
		{"2e", 2, true},
		{"2e+", 2, true},
		{"12abc", 12, true},
		{"1,000", 1, true},
		{"0x10", 0, true},
		{"\t\n7", 7, true},
		{"\uFEFF8", 8, true},
		{"1e-400", 0, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
		{".", 0, false},
		{"-.", 0, false},
		{"e5", 0, false},
		{"Infinity", 0, false},
		{"NaN", 0, false},
		{"1e400", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseLeadingFloat(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("parseLeadingFloat(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("parseLeadingFloat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
