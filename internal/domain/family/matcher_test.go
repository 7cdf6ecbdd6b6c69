package family

import "testing"

func TestFindMatchIncompleteCandidate(t *testing.T) {
	families := []Family{household("a", "100", CrasCentral, responsible("m1", "Ana", "1990-01-01"))}

	if _, ok := FindMatch(families, Candidate{Name: "", DateOfBirth: "1990-01-01"}, ""); ok {
		t.Fatalf("expected no match without a name")
	}
	if _, ok := FindMatch(families, Candidate{Name: "Ana", DateOfBirth: ""}, ""); ok {
		t.Fatalf("expected no match without a date of birth")
	}
	if _, ok := FindMatch(families, Candidate{Name: "   ", DateOfBirth: "1990-01-01", CPF: "1"}, ""); ok {
		t.Fatalf("expected no match with a blank name")
	}
}

func TestFindMatchNameAndBirth(t *testing.T) {
	families := []Family{household("a", "100", CrasCentral, responsible("m1", "Ana Silva", "1985-03-10"))}

	match, ok := FindMatch(families, Candidate{Name: "  ana SILVA ", DateOfBirth: "1985-03-10"}, "b")
	if !ok {
		t.Fatalf("expected match")
	}
	if match.Rule != MatchByNameAndBirth {
		t.Fatalf("expected rule %s, got %s", MatchByNameAndBirth, match.Rule)
	}
	if match.Family.ID != "a" || match.Member.ID != "m1" || match.MemberIndex != 0 {
		t.Fatalf("unexpected match %+v", match)
	}
}

func TestFindMatchAccentedNames(t *testing.T) {
	families := []Family{household("a", "100", CrasCentral, responsible("m1", "JOSÉ ÁLVARES", "1970-07-07"))}

	// decomposed form of "josé álvares"
	if _, ok := FindMatch(families, Candidate{Name: "jose\u0301 a\u0301lvares", DateOfBirth: "1970-07-07"}, ""); !ok {
		t.Fatalf("expected normalized name match")
	}
}

func TestFindMatchByCPFOnly(t *testing.T) {
	stored := Member{ID: "m1", Name: "Y", CPF: "222", DateOfBirth: "1999-01-01", Active: true}
	families := []Family{household("a", "100", CrasCentral, stored)}

	match, ok := FindMatch(families, Candidate{Name: "X", CPF: "222", DateOfBirth: "2000-01-01"}, "")
	if !ok {
		t.Fatalf("expected cpf match")
	}
	if match.Rule != MatchByCPF {
		t.Fatalf("expected rule %s, got %s", MatchByCPF, match.Rule)
	}
}

func TestFindMatchByNIS(t *testing.T) {
	stored := Member{ID: "m1", Name: "Y", NIS: "555", DateOfBirth: "1999-01-01", Active: true}
	families := []Family{household("a", "100", CrasCentral, stored)}

	match, ok := FindMatch(families, Candidate{Name: "X", NIS: "555", DateOfBirth: "2000-01-01"}, "")
	if !ok || match.Rule != MatchByNIS {
		t.Fatalf("expected nis match, got %+v (%v)", match, ok)
	}
	if _, ok := FindMatch(families, Candidate{Name: "X", DateOfBirth: "2000-01-01"}, ""); ok {
		t.Fatalf("empty nis must not match")
	}
}

func TestFindMatchSkipsInactiveAndExcluded(t *testing.T) {
	inactive := active("m1", "Ana", "1990-01-01")
	inactive.Active = false
	families := []Family{
		household("a", "100", CrasCentral, inactive),
		household("b", "200", CrasCentral, responsible("m2", "Ana", "1990-01-01")),
	}

	if _, ok := FindMatch(families, Candidate{Name: "Ana", DateOfBirth: "1990-01-01"}, "b"); ok {
		t.Fatalf("expected no match: a is inactive and b is excluded")
	}
	match, ok := FindMatch(families, Candidate{Name: "Ana", DateOfBirth: "1990-01-01"}, "")
	if !ok || match.Family.ID != "b" {
		t.Fatalf("expected match in b, got %+v", match)
	}
}

func TestFindMatchFirstFoundWins(t *testing.T) {
	families := []Family{
		household("a", "100", CrasCentral, responsible("a1", "Bruno", "2001-02-02"), Member{ID: "a2", Name: "Outro", CPF: "9", DateOfBirth: "1", Active: true}),
		household("b", "200", CrasCentral, responsible("b1", "Bruno", "2001-02-02")),
	}
	candidate := Candidate{Name: "Bruno", CPF: "9", DateOfBirth: "2001-02-02"}

	first, ok := FindMatch(families, candidate, "")
	if !ok {
		t.Fatalf("expected match")
	}
	if first.Family.ID != "a" || first.Member.ID != "a1" {
		t.Fatalf("expected a/a1, got %s/%s", first.Family.ID, first.Member.ID)
	}
	for i := 0; i < 5; i++ {
		again, _ := FindMatch(families, candidate, "")
		if again.Family.ID != first.Family.ID || again.Member.ID != first.Member.ID || again.Rule != first.Rule {
			t.Fatalf("expected deterministic match, got %+v", again)
		}
	}
}
