package cast

import "testing"

func TestNormalizeCountry(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Ukraine", "UA"},
		{"  saudi arabia ", "SA"},
		{"TW", "TW"},
		{"Myanmar", "Myanmar"},
	}
	for _, tc := range cases {
		if got := normalizeCountry(tc.in); got != tc.want {
			t.Fatalf("normalizeCountry(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
