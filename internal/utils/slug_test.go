package utils

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Thulo Chaur", "thulo-chaur"},
		{"  Kalika   Mandir  ", "kalika-mandir"},
		{"Ward #4 (North)", "ward-4-north"},
		{"UPPER case", "upper-case"},
		{"already-a-slug", "already-a-slug"},
		{"trailing punctuation!!!", "trailing-punctuation"},
		{"---", "entry"},
		{"", "entry"},
		{"१२३", "entry"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugWithSuffix(t *testing.T) {
	if got := SlugWithSuffix("base", 0); got != "base" {
		t.Fatalf("SlugWithSuffix n=0: %q", got)
	}
	if got := SlugWithSuffix("base", 3); got != "base-3" {
		t.Fatalf("SlugWithSuffix n=3: %q", got)
	}
}
