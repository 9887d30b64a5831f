package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		input  string
		region string
		want   string
	}{
		{"+31 6 12345678", "AE", "+31612345678"},
		{"06 12345678", "NL", "+31612345678"},
		{"  ", "NL", ""},
		{"not a number", "NL", "not a number"},
	}

	for _, tc := range tests {
		if got := NormalizeE164(tc.input, tc.region); got != tc.want {
			t.Errorf("NormalizeE164(%q, %q) = %q, want %q", tc.input, tc.region, got, tc.want)
		}
	}
}
