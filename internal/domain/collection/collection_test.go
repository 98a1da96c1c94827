package collection

import (
	"strings"
	"testing"
)

func TestNew_ValidNames(t *testing.T) {
	for _, name := range []string{"docs", "my-index", "my_index", "Docs2024", "a"} {
		col, err := New(name, 768)
		if err != nil {
			t.Errorf("New(%q) failed: %v", name, err)
			continue
		}
		if col.Name() != name {
			t.Errorf("Name() = %q, want %q", col.Name(), name)
		}
		if col.VectorDim() != 768 {
			t.Errorf("VectorDim() = %d, want 768", col.VectorDim())
		}
		if col.CreatedAt() == 0 {
			t.Error("CreatedAt() not set")
		}
	}
}

func TestNew_InvalidNames(t *testing.T) {
	invalid := []string{
		"",
		"has space",
		"has/slash",
		"has.dot",
		"ümlaut",
		strings.Repeat("x", 65),
	}
	for _, name := range invalid {
		if _, err := New(name, 768); err == nil {
			t.Errorf("New(%q) should fail", name)
		}
	}
}

func TestNew_ReservedNames(t *testing.T) {
	// "collection" would claim the metadata key prefix, "seq" the
	// insertion counter prefix; both must be rejected.
	for _, name := range []string{"collection", "seq"} {
		if _, err := New(name, 768); err == nil {
			t.Errorf("New(%q) should fail", name)
		}
	}
	// Names merely containing a reserved word stay valid.
	for _, name := range []string{"collections", "seq2", "my-collection"} {
		if _, err := New(name, 768); err != nil {
			t.Errorf("New(%q) failed: %v", name, err)
		}
	}
}

func TestNew_InvalidDimension(t *testing.T) {
	for _, dim := range []int{0, -1} {
		if _, err := New("docs", dim); err == nil {
			t.Errorf("New with dim %d should fail", dim)
		}
	}
}

func TestReconstruct(t *testing.T) {
	col := Reconstruct("docs", 1024, 1700000000000)
	if col.Name() != "docs" || col.VectorDim() != 1024 || col.CreatedAt() != 1700000000000 {
		t.Errorf("unexpected reconstruction: %+v", col)
	}
}
