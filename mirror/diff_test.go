package mirror

import (
	"testing"
)

func TestDiff(t *testing.T) {
	remote := []string{
		"pubchem/Compound/CURRENT-Full/SDF/Compound_000000001_000500000.sdf.gz",
		"pubchem/Compound/CURRENT-Full/SDF/Compound_000000001_000500000.sdf.gz.md5",
		"pubchem/Compound/CURRENT-Full/SDF/Compound_000500001_001000000.sdf.gz",
		"pubchem/Compound/CURRENT-Full/SDF/Compound_000500001_001000000.sdf.gz.md5",
		"pubchem/Compound/CURRENT-Full/SDF/README",
	}

	local := map[string]struct{}{
		"Compound_000000001_000500000.sdf.gz": {},
	}

	missing := Diff(remote, local, ".gz")
	if len(missing) != 1 {
		t.Fatalf("expected 1 missing archive, received %d: %v", len(missing), missing)
	}
	if missing[0] != "pubchem/Compound/CURRENT-Full/SDF/Compound_000500001_001000000.sdf.gz" {
		t.Errorf("unexpected missing entry %s", missing[0])
	}

	missing = Diff(remote, map[string]struct{}{}, ".md5")
	if len(missing) != 2 {
		t.Errorf("expected 2 missing sidecars, received %d: %v", len(missing), missing)
	}

	// README carries neither extension
	missing = Diff(remote, map[string]struct{}{}, ".gz")
	for _, m := range missing {
		if m == "pubchem/Compound/CURRENT-Full/SDF/README" {
			t.Error("README should never match")
		}
	}
}

func TestDiffComplete(t *testing.T) {
	remote := []string{"a/b.sdf.gz"}
	local := map[string]struct{}{"b.sdf.gz": {}}
	if missing := Diff(remote, local, ".gz"); len(missing) != 0 {
		t.Errorf("expected complete mirror, received %v", missing)
	}
}
