package diff

import "testing"

func TestCompute_CleanInsertShiftsLineMap(t *testing.T) {
	// S1 from the spec: insert a line above an existing connection; the
	// connection's line should shift by exactly the number of inserted
	// lines above it, with no deletions or replacements.
	old := "a\nb\nCONN\nd"
	new := "a\na2\nb\nCONN\nd"

	d, err := Compute(1, old, new)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}

	if len(d.ReplacedRanges) != 0 {
		t.Fatalf("expected no replaced ranges, got %v", d.ReplacedRanges)
	}
	if got, ok := d.MapLine(3); !ok || got != 4 {
		t.Fatalf("expected old line 3 to map to new line 4, got %d ok=%v", got, ok)
	}
	if !d.Added[2] {
		t.Fatalf("expected new line 2 (a2) to be recorded as added")
	}
}

func TestCompute_SimpleDeletion(t *testing.T) {
	old := "line1\nline2\nline3\nline4"
	new := "line1\nline2\nline4"

	d, err := Compute(1, old, new)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if !d.Removed[3] {
		t.Fatalf("expected old line 3 to be removed")
	}
	if got, ok := d.MapLine(4); !ok || got != 3 {
		t.Fatalf("expected old line 4 to map to new line 3, got %d ok=%v", got, ok)
	}
}

func TestCompute_ReplaceProducesReplacedRange(t *testing.T) {
	old := "1\n2\n3\n4\n5"
	new := "1\n2\nX\nY\nZ\n4\n5"

	d, err := Compute(1, old, new)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if len(d.ReplacedRanges) != 1 {
		t.Fatalf("expected 1 replaced range, got %d: %v", len(d.ReplacedRanges), d.ReplacedRanges)
	}
	r := d.ReplacedRanges[0]
	if r.OldLo != 3 || r.OldHi != 3 {
		t.Fatalf("expected old range [3,3], got [%d,%d]", r.OldLo, r.OldHi)
	}
	if r.NewLo != 3 || r.NewHi != 5 {
		t.Fatalf("expected new range [3,5], got [%d,%d]", r.NewLo, r.NewHi)
	}
	if d.Added[3] || d.Added[4] || d.Added[5] {
		t.Fatalf("new-side lines of a replace must not be recorded in Added")
	}
}

func TestCompute_NewFileHasNoLineMap(t *testing.T) {
	d, err := Compute(1, "", "new file content\nline 2")
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if len(d.LineMap) != 0 {
		t.Fatalf("expected empty line_map for a brand-new file, got %v", d.LineMap)
	}
	if !d.Added[1] || !d.Added[2] {
		t.Fatalf("expected both lines of the new file to be added")
	}
}

func TestCompute_DeletedFileRemovesEveryLine(t *testing.T) {
	d, err := Compute(1, "old file content\nline 2", "")
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if !d.Removed[1] || !d.Removed[2] {
		t.Fatalf("expected both old lines to be removed, got %v", d.Removed)
	}
}

func TestCompute_NoChangeIsIdentity(t *testing.T) {
	content := "a\nb\nc"
	d, err := Compute(1, content, content)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	for i := 1; i <= 3; i++ {
		if got, ok := d.MapLine(i); !ok || got != i {
			t.Fatalf("expected identity map at line %d, got %d ok=%v", i, got, ok)
		}
	}
	if len(d.Added) != 0 || len(d.Removed) != 0 || len(d.ReplacedRanges) != 0 {
		t.Fatalf("expected no changes at all, got added=%v removed=%v replaced=%v", d.Added, d.Removed, d.ReplacedRanges)
	}
}
