package predmarket

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		question     string
		tracked      bool
		region       string
		deEscalation bool
	}{
		{"Will Russia invade another country in 2026?", true, "europe", false},
		{"Israel-Iran ceasefire by June?", true, "middle_east", true},
		{"Will China impose a military blockade of Taiwan?", true, "asia_pacific", false},
		{"Will there be a new armed conflict in 2026?", true, "global", false},
		{"Will the Fed cut rates in September?", false, "", false},
		{"Russia-Ukraine peace deal signed this year?", true, "europe", true},
	}
	for _, tc := range cases {
		tracked, region, deesc := classify(tc.question)
		if tracked != tc.tracked || region != tc.region || deesc != tc.deEscalation {
			t.Fatalf("classify(%q) = %v/%s/%v, want %v/%s/%v",
				tc.question, tracked, region, deesc, tc.tracked, tc.region, tc.deEscalation)
		}
	}
}
