package conversation

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mint-bot/internal/localization"
	"mint-bot/internal/storage"
)

const owner int64 = 42

var cairo = func() *time.Location {
	loc, err := time.LoadLocation("Africa/Cairo")
	if err != nil {
		panic(err)
	}
	return loc
}()

// flakyStore fails the next call of a given operation once.
type flakyStore struct {
	*storage.Storage
	failCreate  int
	failReplace int
	creates     int
}

var errInjected = errors.New("injected failure")

func (f *flakyStore) CreateEvent(ctx context.Context, name, link string) (int64, error) {
	f.creates++
	if f.failCreate > 0 {
		f.failCreate--
		return 0, errInjected
	}
	return f.Storage.CreateEvent(ctx, name, link)
}

func (f *flakyStore) ReplaceStages(ctx context.Context, eventID int64, stages []storage.NewStage) error {
	if f.failReplace > 0 {
		f.failReplace--
		return errInjected
	}
	return f.Storage.ReplaceStages(ctx, eventID, stages)
}

func newTestEngine(t *testing.T) (*Engine, *flakyStore) {
	t.Helper()
	s, err := storage.NewStorage(filepath.Join(t.TempDir(), "mints.db"), cairo)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	localizer, err := localization.NewLocalizer(localization.Files)
	if err != nil {
		t.Fatal(err)
	}
	store := &flakyStore{Storage: s}
	return NewEngine(store, localizer, cairo, "en", 20), store
}

func send(t *testing.T, e *Engine, texts ...string) []Reply {
	t.Helper()
	var last []Reply
	for _, text := range texts {
		last = e.HandleText(context.Background(), owner, text)
	}
	return last
}

func firstText(replies []Reply) string {
	if len(replies) == 0 {
		return ""
	}
	return replies[0].Text
}

func TestEngine_AddEvent(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	replies := send(t, e, "Add Mint", "Alpha", "L1", "2",
		"2025-01-10", "10:00", "5",
		"2025-01-10", "10:30", "7")

	if len(replies) != 1 || !replies[0].MainMenu {
		t.Fatalf("expected a single main menu reply, got %+v", replies)
	}
	if !strings.Contains(replies[0].Text, "Alpha") || !strings.Contains(replies[0].Text, "Stages: 2") {
		t.Errorf("unexpected confirmation %q", replies[0].Text)
	}
	if _, ok := e.State(owner); ok {
		t.Error("expected session to be cleared")
	}

	events, err := store.ListEvents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || len(events[0].Stages) != 2 {
		t.Fatalf("expected one event with two stages, got %+v", events)
	}
	second := events[0].Stages[1]
	want := time.Date(2025, 1, 10, 10, 30, 0, 0, cairo)
	if second.Number != 2 || !second.StartsAt.Equal(want) || second.Price != "7" {
		t.Errorf("unexpected second stage %+v", second)
	}
}

func TestEngine_PromptsAdvance(t *testing.T) {
	e, _ := newTestEngine(t)

	steps := []struct {
		input string
		want  string
	}{
		{"Add Mint", "Send mint name:"},
		{"Alpha", "Send mint link:"},
		{"L1", "How many stages? (number)"},
		{"2", "Send date for stage 1 (YYYY-MM-DD):"},
		{"2025-01-10", "Send time (HH:MM):"},
		{"10:00", "Send price for this stage:"},
		{"5", "Send date for stage 2 (YYYY-MM-DD):"},
	}
	for _, step := range steps {
		if got := firstText(send(t, e, step.input)); got != step.want {
			t.Fatalf("after %q: got %q, want %q", step.input, got, step.want)
		}
	}
}

func TestEngine_InvalidInputKeepsState(t *testing.T) {
	tests := []struct {
		name  string
		setup []string
		input string
		want  string
		step  Step
	}{
		{"empty name", []string{"Add Mint"}, "   ", "Please send a non-empty value.", StepName},
		{"non numeric count", []string{"Add Mint", "A", "L"}, "two", "Please send a valid number.", StepStagesCount},
		{"zero count", []string{"Add Mint", "A", "L"}, "0", "Please send a valid number.", StepStagesCount},
		{"count over cap", []string{"Add Mint", "A", "L"}, "21", "At most 20 stages are supported. Please send a smaller number.", StepStagesCount},
		{"bad date", []string{"Add Mint", "A", "L", "1"}, "10/01/2025", "Wrong date format. Use: YYYY-MM-DD", StepStageDate},
		{"bad time", []string{"Add Mint", "A", "L", "1", "2025-01-10"}, "25:99", "Wrong time format. Use: HH:MM", StepStageTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			send(t, e, tt.setup...)
			before, _ := e.State(owner)

			if got := firstText(send(t, e, tt.input)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			after, ok := e.State(owner)
			if !ok || after.Step != tt.step || after.Step != before.Step {
				t.Errorf("expected step %s to be kept, got %+v", tt.step, after)
			}
		})
	}
}

func TestEngine_ShortcutAbandonsConversation(t *testing.T) {
	e, store := newTestEngine(t)

	send(t, e, "Add Mint", "Alpha", "L1")
	replies := send(t, e, "List Mints")
	if firstText(replies) != "No mints yet." {
		t.Errorf("expected empty list, got %q", firstText(replies))
	}
	if _, ok := e.State(owner); ok {
		t.Error("expected conversation to be abandoned")
	}
	if store.creates != 0 {
		t.Errorf("expected nothing persisted, got %d creates", store.creates)
	}
}

func TestEngine_IgnoresTextWithoutSession(t *testing.T) {
	e, _ := newTestEngine(t)
	if replies := send(t, e, "hello"); replies != nil {
		t.Errorf("expected no reply, got %+v", replies)
	}
}

func TestEngine_Cancel(t *testing.T) {
	e, _ := newTestEngine(t)
	send(t, e, "Add Mint", "Alpha")
	replies := send(t, e, "Cancel")
	if firstText(replies) != "Cancelled. Back to menu." || !replies[0].MainMenu {
		t.Errorf("unexpected cancel reply %+v", replies)
	}
	if _, ok := e.State(owner); ok {
		t.Error("expected session to be cleared")
	}
}

func TestEngine_ListFormatsStages(t *testing.T) {
	e, _ := newTestEngine(t)
	send(t, e, "Add Mint", "Alpha", "L1", "1", "2025-01-10", "9:05", "free")

	text := firstText(send(t, e, "List Mints"))
	for _, want := range []string{"• Alpha\nL1\n", "  - Stage 1: 2025-01-10 09:05 | Price: free\n"} {
		if !strings.Contains(text, want) {
			t.Errorf("list %q missing %q", text, want)
		}
	}
}

func TestEngine_RetryAfterCreateFailure(t *testing.T) {
	e, store := newTestEngine(t)
	store.failCreate = 1

	replies := send(t, e, "Add Mint", "Alpha", "L1", "1", "2025-01-10", "10:00", "5")
	if !strings.HasPrefix(firstText(replies), "❌") {
		t.Fatalf("expected failure reply, got %+v", replies)
	}
	if state, ok := e.State(owner); !ok || state.Step != StepStagePrice {
		t.Fatalf("expected session kept at price step, got %+v", state)
	}

	replies = send(t, e, "5")
	if !replies[0].MainMenu {
		t.Fatalf("expected success on retry, got %+v", replies)
	}
	events, _ := store.ListEvents(context.Background())
	if len(events) != 1 {
		t.Errorf("expected one event, got %d", len(events))
	}
}

func TestEngine_RetryAfterStagesFailureDoesNotDuplicate(t *testing.T) {
	e, store := newTestEngine(t)
	store.failReplace = 1

	send(t, e, "Add Mint", "Alpha", "L1", "1", "2025-01-10", "10:00", "5")
	state, ok := e.State(owner)
	if !ok || state.Draft.CreatedEventID == 0 {
		t.Fatalf("expected created event to be remembered, got %+v", state)
	}

	send(t, e, "5")
	events, _ := store.ListEvents(context.Background())
	if len(events) != 1 || len(events[0].Stages) != 1 {
		t.Fatalf("expected one event with one stage, got %+v", events)
	}
	if store.creates != 1 {
		t.Errorf("expected a single create, got %d", store.creates)
	}
}

func TestSessions_CopiesState(t *testing.T) {
	s := NewSessions()
	state := State{Mode: ModeAdd, Draft: Draft{Stages: []storage.NewStage{{Price: "1"}}}}
	s.Set(1, state)
	state.Draft.Stages[0].Price = "changed"

	got, _ := s.Get(1)
	if got.Draft.Stages[0].Price != "1" {
		t.Error("stored session shares memory with caller")
	}
}
