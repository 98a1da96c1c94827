package chunk

import "testing"

func TestNew_Valid(t *testing.T) {
	rec, err := New("some content", []float32{0.1, 0.2}, "docs/readme.md", 42)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if rec.ID() != "" {
		t.Errorf("ID should be empty before storage, got %q", rec.ID())
	}
	if rec.Content() != "some content" {
		t.Errorf("Content() = %q", rec.Content())
	}
	if rec.SourceDocument() != "docs/readme.md" {
		t.Errorf("SourceDocument() = %q", rec.SourceDocument())
	}
	if rec.ChunkOffset() != 42 {
		t.Errorf("ChunkOffset() = %d", rec.ChunkOffset())
	}
}

func TestNew_Invalid(t *testing.T) {
	emb := []float32{0.1}

	cases := []struct {
		name    string
		content string
		emb     []float32
		source  string
		offset  int
	}{
		{"empty content", "", emb, "doc.md", 0},
		{"whitespace content", "  \n ", emb, "doc.md", 0},
		{"nil embedding", "text", nil, "doc.md", 0},
		{"empty source", "text", emb, "", 0},
		{"negative offset", "text", emb, "doc.md", -1},
	}
	for _, tc := range cases {
		if _, err := New(tc.content, tc.emb, tc.source, tc.offset); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestReconstruct(t *testing.T) {
	rec := Reconstruct("id-1", "text", []float32{1, 2}, "doc.md", 7, 99)
	if rec.ID() != "id-1" || rec.Seq() != 99 || rec.ChunkOffset() != 7 {
		t.Errorf("unexpected reconstruction: id=%q seq=%d offset=%d", rec.ID(), rec.Seq(), rec.ChunkOffset())
	}
}
