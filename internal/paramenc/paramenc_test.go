package paramenc

import "testing"

func TestEncodeAllowlist(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Canis", "Canis"},
		{"a b", "a%20b"},
		{"a,b*c(d)e!", "a,b*c(d)e!"},
		{"", ""},
		{"100%", "100%25"},
		{"café", "caf%C3%A9"},
	}
	for _, c := range cases {
		got := EncodedValue(c.in)
		if got != c.want {
			t.Errorf("EncodedValue(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEncodeEmptyValue(t *testing.T) {
	if got, want := Encode("taxon_name", ""), "taxon_name="; got != want {
		t.Errorf("Encode with empty value = %q, want %q", got, want)
	}
}

func TestEncodeName(t *testing.T) {
	if got, want := Encode("base_name", "Canis lupus"), "base_name=Canis%20lupus"; got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}
