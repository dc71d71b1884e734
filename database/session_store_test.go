package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/socraticbse/backend/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T, snapshot *SnapshotStore) (*SessionStore, *gorm.DB) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := NewGORMStore(db).Init(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return NewSessionStore(db, snapshot), db
}

func storeTestConcept() *model.Concept {
	return &model.Concept{
		Grade:   9,
		Subject: "Biology",
		Title:   "Photosynthesis",
		Questions: []model.Question{
			{Text: "Q one?", Type: "elicitation"},
			{Text: "Q two?", Type: "elicitation"},
		},
	}
}

func TestCreateAndGetSession(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()
	concept := storeTestConcept()

	if err := store.CreateSession(ctx, "s1", "u1", concept, "Q one?"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	view, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if view.UserID != "u1" || view.NextQIdx != 1 || view.HintLevel != 0 {
		t.Errorf("view = %+v", view)
	}
	if view.Concept.Title != "Photosynthesis" || len(view.Concept.Questions) != 2 {
		t.Errorf("bound concept = %+v", view.Concept)
	}
	if len(view.Dialogue) != 1 || view.Dialogue[0].Speaker != model.SpeakerAI || view.Dialogue[0].Text != "Q one?" {
		t.Errorf("dialogue = %+v", view.Dialogue)
	}
	if view.Progress.TotalQuestions != 2 || view.Progress.QuestionsAnswered != 0 {
		t.Errorf("progress = %+v", view.Progress)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	store, _ := newTestStore(t, nil)

	_, err := store.GetSession(context.Background(), "missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestRecordAnswer(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()

	if err := store.CreateSession(ctx, "s1", "u1", storeTestConcept(), "Q one?"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := store.UpdateHintLevel(ctx, "s1", 2); err != nil {
		t.Fatalf("UpdateHintLevel() error = %v", err)
	}

	if err := store.RecordAnswer(ctx, "s1", "light and water", 2, "Q two?"); err != nil {
		t.Fatalf("RecordAnswer() error = %v", err)
	}

	view, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if view.NextQIdx != 2 {
		t.Errorf("cursor = %d, want 2", view.NextQIdx)
	}
	if view.HintLevel != 0 {
		t.Errorf("hint level = %d, want reset to 0", view.HintLevel)
	}
	if len(view.Dialogue) != 3 {
		t.Fatalf("dialogue length = %d, want 3", len(view.Dialogue))
	}
	if view.Dialogue[1].Speaker != model.SpeakerUser || view.Dialogue[2].Text != "Q two?" {
		t.Errorf("dialogue = %+v", view.Dialogue)
	}
	if view.Progress.QuestionsAnswered != 1 {
		t.Errorf("answered = %d, want 1", view.Progress.QuestionsAnswered)
	}
}

func TestRecordAnswerBlankNotCounted(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()

	if err := store.CreateSession(ctx, "s1", "u1", storeTestConcept(), "Q one?"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := store.RecordAnswer(ctx, "s1", "  ", 2, "Q two?"); err != nil {
		t.Fatalf("RecordAnswer() error = %v", err)
	}

	view, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if view.Progress.QuestionsAnswered != 0 {
		t.Errorf("answered = %d, want 0 for blank", view.Progress.QuestionsAnswered)
	}
	if len(view.Dialogue) != 3 {
		t.Errorf("dialogue length = %d, blank answer must still be in the ledger", len(view.Dialogue))
	}
}

func TestRecordAnswerUnknownSession(t *testing.T) {
	store, _ := newTestStore(t, nil)

	err := store.RecordAnswer(context.Background(), "missing", "hi", 1, "next")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestAppendQuestion(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()

	if err := store.CreateSession(ctx, "s1", "u1", storeTestConcept(), "Q one?"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	t.Run("without cursor advance", func(t *testing.T) {
		if err := store.AppendQuestion(ctx, "s1", "Let's look again", nil); err != nil {
			t.Fatalf("AppendQuestion() error = %v", err)
		}
		view, _ := store.GetSession(ctx, "s1")
		if view.NextQIdx != 1 {
			t.Errorf("cursor = %d, want unchanged 1", view.NextQIdx)
		}
		if len(view.Dialogue) != 2 {
			t.Errorf("dialogue length = %d, want 2", len(view.Dialogue))
		}
	})

	t.Run("with cursor advance", func(t *testing.T) {
		cursor := 2
		if err := store.AppendQuestion(ctx, "s1", "Q two?", &cursor); err != nil {
			t.Fatalf("AppendQuestion() error = %v", err)
		}
		view, _ := store.GetSession(ctx, "s1")
		if view.NextQIdx != 2 {
			t.Errorf("cursor = %d, want 2", view.NextQIdx)
		}
	})
}

func TestUpdateHintLevelUnknownSession(t *testing.T) {
	store, _ := newTestStore(t, nil)

	err := store.UpdateHintLevel(context.Background(), "missing", 1)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestCountSessions(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()

	count, err := store.CountSessions(ctx)
	if err != nil || count != 0 {
		t.Fatalf("CountSessions() = %d, %v", count, err)
	}

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("s%d", i)
		if err := store.CreateSession(ctx, id, "u1", storeTestConcept(), "Q one?"); err != nil {
			t.Fatalf("CreateSession(%s) error = %v", id, err)
		}
	}

	count, err = store.CountSessions(ctx)
	if err != nil || count != 3 {
		t.Fatalf("CountSessions() = %d, %v, want 3", count, err)
	}
}

func TestDeleteIdleBefore(t *testing.T) {
	snapshot := NewSnapshotStore(filepath.Join(t.TempDir(), "sessions.json"))
	store, db := newTestStore(t, snapshot)
	ctx := context.Background()

	if err := store.CreateSession(ctx, "stale", "u1", storeTestConcept(), "Q one?"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := store.CreateSession(ctx, "fresh", "u1", storeTestConcept(), "Q one?"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if snapshot.Len() != 2 {
		t.Fatalf("snapshot Len() = %d, want 2", snapshot.Len())
	}

	old := time.Now().UTC().Add(-40 * 24 * time.Hour)
	if err := db.Model(&model.Session{}).Where("id = ?", "stale").
		Update("last_activity_at", old).Error; err != nil {
		t.Fatalf("failed to age session: %v", err)
	}

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	ids, err := store.DeleteIdleBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteIdleBefore() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "stale" {
		t.Errorf("ids = %v, want [stale]", ids)
	}

	if _, err := store.GetSession(ctx, "stale"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("stale session still readable: %v", err)
	}
	if _, err := store.GetSession(ctx, "fresh"); err != nil {
		t.Errorf("fresh session lost: %v", err)
	}

	var turnCount int64
	db.Model(&model.Turn{}).Where("session_id = ?", "stale").Count(&turnCount)
	if turnCount != 0 {
		t.Errorf("stale turns remain: %d", turnCount)
	}

	if snapshot.Len() != 1 {
		t.Errorf("snapshot Len() = %d, want 1 after removal", snapshot.Len())
	}

	t.Run("no idle sessions", func(t *testing.T) {
		ids, err := store.DeleteIdleBefore(ctx, cutoff)
		if err != nil {
			t.Fatalf("DeleteIdleBefore() error = %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("ids = %v, want none", ids)
		}
	})
}

func TestSnapshotMirrorTracksMutations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	snapshot := NewSnapshotStore(path)
	store, _ := newTestStore(t, snapshot)
	ctx := context.Background()

	if err := store.CreateSession(ctx, "s1", "u1", storeTestConcept(), "Q one?"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := store.RecordAnswer(ctx, "s1", "light", 2, "Q two?"); err != nil {
		t.Fatalf("RecordAnswer() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read mirror file: %v", err)
	}
	content := string(data)
	for _, want := range []string{`"s1"`, `"next_q_idx": 2`, `"Q two?"`, `"Photosynthesis"`} {
		if !strings.Contains(content, want) {
			t.Errorf("mirror file missing %q", want)
		}
	}
}
