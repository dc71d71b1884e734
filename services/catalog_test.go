package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/socraticbse/backend/model"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed_concept_graph.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	t.Run("valid seed", func(t *testing.T) {
		path := writeSeedFile(t, `[
			{
				"class": 9,
				"subject": "Mathematics",
				"title": "Addition",
				"questions": [{"question": "What is 2+2?"}]
			}
		]`)

		catalog, err := LoadCatalog(path)
		if err != nil {
			t.Fatalf("LoadCatalog() error = %v", err)
		}
		if catalog.Len() != 1 {
			t.Fatalf("Len() = %d, want 1", catalog.Len())
		}

		concept, err := catalog.Find(9, "mathematics", "addition")
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if concept.Questions[0].Type != model.DefaultQuestionType {
			t.Errorf("question type = %q, want default applied", concept.Questions[0].Type)
		}
	})

	t.Run("missing title fails load", func(t *testing.T) {
		path := writeSeedFile(t, `[
			{"class": 9, "subject": "Mathematics", "questions": [{"question": "Q"}]}
		]`)
		if _, err := LoadCatalog(path); err == nil {
			t.Fatal("LoadCatalog() error = nil, want validation failure")
		}
	})

	t.Run("empty question text fails load", func(t *testing.T) {
		path := writeSeedFile(t, `[
			{"class": 9, "subject": "Mathematics", "title": "Addition", "questions": [{"question": "  "}]}
		]`)
		if _, err := LoadCatalog(path); err == nil {
			t.Fatal("LoadCatalog() error = nil, want validation failure")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Fatal("LoadCatalog() error = nil, want read failure")
		}
	})
}

func TestCatalogFind(t *testing.T) {
	catalog, err := NewCatalog([]model.Concept{
		{Grade: 9, Subject: "Biology", Title: "Photosynthesis", Questions: []model.Question{{Text: "Q"}}},
		{Grade: 10, Subject: "Biology", Title: "Respiration", Questions: []model.Question{{Text: "Q"}}},
	})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	t.Run("case-insensitive subject and title", func(t *testing.T) {
		if _, err := catalog.Find(9, "BIOLOGY", "photosynthesis"); err != nil {
			t.Errorf("Find() error = %v", err)
		}
	})

	t.Run("grade must match exactly", func(t *testing.T) {
		_, err := catalog.Find(8, "Biology", "Photosynthesis")
		if !errors.Is(err, ErrConceptNotFound) {
			t.Errorf("error = %v, want ErrConceptNotFound", err)
		}
	})

	t.Run("unknown title", func(t *testing.T) {
		_, err := catalog.Find(9, "Biology", "Osmosis")
		if !errors.Is(err, ErrConceptNotFound) {
			t.Errorf("error = %v, want ErrConceptNotFound", err)
		}
	})
}

func TestCatalogList(t *testing.T) {
	catalog, err := NewCatalog([]model.Concept{
		{Grade: 9, Subject: "Biology", Title: "Photosynthesis", Prerequisites: []string{"Cells"}, Questions: []model.Question{{Text: "Q"}}},
		{Grade: 9, Subject: "Physics", Title: "Motion", Questions: []model.Question{{Text: "Q"}}},
		{Grade: 10, Subject: "Biology", Title: "Respiration", Questions: []model.Question{{Text: "Q"}}},
	})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	t.Run("no filters", func(t *testing.T) {
		if got := catalog.List(0, ""); len(got) != 3 {
			t.Errorf("List() returned %d items, want 3", len(got))
		}
	})

	t.Run("grade filter", func(t *testing.T) {
		if got := catalog.List(9, ""); len(got) != 2 {
			t.Errorf("List(9) returned %d items, want 2", len(got))
		}
	})

	t.Run("subject filter is case-insensitive", func(t *testing.T) {
		got := catalog.List(0, "biology")
		if len(got) != 2 {
			t.Fatalf("List(biology) returned %d items, want 2", len(got))
		}
		if got[0].Prerequisites == nil {
			t.Error("Prerequisites should never be nil in summaries")
		}
	})

	t.Run("summary id is a stable slug", func(t *testing.T) {
		got := catalog.List(9, "Biology")
		if len(got) != 1 || got[0].ID != "9-biology-photosynthesis" {
			t.Errorf("List() = %+v", got)
		}
	})
}
