package utils

import "testing"

func TestParseAmountToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"150", 15000},
		{"150.5", 15050},
		{"150.50", 15050},
		{"150,50", 15050},
		{".99", 99},
		{"1", 100},
	}
	for _, tc := range cases {
		got, err := ParseAmountToCents(tc.in)
		if err != nil {
			t.Errorf("ParseAmountToCents(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseAmountToCents(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseAmountToCentsRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "0", "-5", "1.234", "1,2.3", "abc", "1.2.3"} {
		if _, err := ParseAmountToCents(in); err == nil {
			t.Errorf("ParseAmountToCents(%q) expected error", in)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Annual Gala 2026", "annual-gala-2026"},
		{"  Hope & Light  ", "hope-light"},
		{"Msaada wa Jamii", "msaada-wa-jamii"},
		{"already-slugged", "already-slugged"},
		{"!!!", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
