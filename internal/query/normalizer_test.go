package query

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "VEGAN Pizza", "vegan pizza"},
		{"punctuation to space", "gluten-free, pasta!", "gluten free pasta"},
		{"collapse whitespace", "  sushi    rolls  ", "sushi rolls"},
		{"digits kept", "top 10 ramen", "top 10 ramen"},
		{"only punctuation", "!!! ???", ""},
		{"empty", "", ""},
		{"unicode stripped", "crème brûlée", "cr me br l e"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Chicken Tikka-Masala!", "  cheap   EATS ", "pad thai", ""}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("Vegan, pizza  NOW")
	want := []string{"vegan", "pizza", "now"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
	if toks := Tokens("   "); len(toks) != 0 {
		t.Errorf("Tokens on blank input = %v, want empty", toks)
	}
}

func TestTokenSet(t *testing.T) {
	set := TokenSet("pizza pizza pasta")
	if len(set) != 2 || !set["pizza"] || !set["pasta"] {
		t.Errorf("TokenSet = %v", set)
	}
}
