package identifier

import "testing"

func TestParseBareNumber(t *testing.T) {
	id, err := Parse("41055")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id.Number != 41055 || id.Domain != DomainEmpty || id.Type != TypeEmpty {
		t.Errorf("Parse(41055) = %+v", id)
	}
}

func TestParseDomainAndNumber(t *testing.T) {
	id, err := Parse("pbdb:41055")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id.Domain != DomainPaleo || id.Number != 41055 {
		t.Errorf("Parse(pbdb:41055) = %+v", id)
	}
}

func TestParseFullTriple(t *testing.T) {
	id, err := Parse("neotoma:txn:41055")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id.Domain != DomainQuaternary || id.Type != TypeTaxon || id.Number != 41055 {
		t.Errorf("Parse(neotoma:txn:41055) = %+v", id)
	}
}

func TestParseDomainAliasesCaseInsensitive(t *testing.T) {
	for _, alias := range []string{"PBDB", "Paleo", "p", "PaLeO"} {
		id, err := Parse(alias + ":occ:7")
		if err != nil {
			t.Fatalf("Parse(%s): %v", alias, err)
		}
		if id.Domain != DomainPaleo {
			t.Errorf("alias %q -> domain %q, want paleo", alias, id.Domain)
		}
	}
}

func TestParseUnknownDomain(t *testing.T) {
	if _, err := Parse("martian:occ:1"); err == nil {
		t.Fatal("expected error for unknown domain")
	}
}

func TestParseInvalidNumber(t *testing.T) {
	for _, s := range []string{"0", "-5", "abc", "pbdb:occ:-1", "pbdb:occ:0"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error", s)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse("a:b:c:d"); err == nil {
		t.Fatal("expected error for 4-part identifier")
	}
	if _, err := Parse(""); err == nil {
		t.Fatal("expected error for empty identifier")
	}
}

func TestFormatRoundTrip(t *testing.T) {
	cases := []ID{
		{Domain: DomainPaleo, Type: TypeOccurrence, Number: 41055},
		{Domain: DomainQuaternary, Type: TypeTaxon, Number: 1},
		{Domain: DomainPaleo, Type: TypeUnknown, Number: 99},
	}
	for _, want := range cases {
		s := Format(want.Domain, want.Type, want.Number)
		got, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got != want {
			t.Errorf("round-trip %+v -> %q -> %+v", want, s, got)
		}
	}
}

func TestFormatUsesWireDomain(t *testing.T) {
	if got, want := Format(DomainPaleo, TypeOccurrence, 1), "pbdb:occ:1"; got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
	if got, want := Format(DomainQuaternary, TypeTaxon, 2), "neotoma:txn:2"; got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}
