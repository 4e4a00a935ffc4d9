package conversation

import (
	"context"
	"errors"
	"testing"

	"mint-bot/internal/storage"
)

func addAlpha(t *testing.T, e *Engine) int64 {
	t.Helper()
	send(t, e, "Add Mint", "Alpha", "L1", "2",
		"2025-01-10", "10:00", "5",
		"2025-01-10", "10:30", "7")
	events, err := e.store.ListEvents(context.Background())
	if err != nil || len(events) == 0 {
		t.Fatalf("expected Alpha to be stored: %v", err)
	}
	return events[0].ID
}

func press(e *Engine, choice Choice) []Reply {
	return e.HandleChoice(context.Background(), owner, choice)
}

func TestSelection_DeleteFlow(t *testing.T) {
	e, store := newTestEngine(t)
	id := addAlpha(t, e)

	menu := send(t, e, "Delete Mint")
	if len(menu) != 1 || len(menu[0].Options) != 2 {
		t.Fatalf("expected one event option plus cancel, got %+v", menu)
	}
	if pick, ok := menu[0].Options[0].Choice.(PickForDelete); !ok || pick.EventID != id {
		t.Fatalf("unexpected option %+v", menu[0].Options[0])
	}

	confirm := press(e, PickForDelete{EventID: id})
	if firstText(confirm) != "Are you sure you want to delete Alpha?" || !confirm[0].Replace {
		t.Fatalf("unexpected confirmation %+v", confirm)
	}

	done := press(e, ConfirmDelete{EventID: id})
	if firstText(done) != "✅ Mint deleted." {
		t.Fatalf("unexpected delete reply %+v", done)
	}
	if _, err := store.GetEvent(context.Background(), id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected event to be gone, got %v", err)
	}
	if _, ok := e.State(owner); ok {
		t.Error("expected session to be cleared")
	}
}

func TestSelection_ConfirmWithoutMatchingSessionExpires(t *testing.T) {
	e, store := newTestEngine(t)
	id := addAlpha(t, e)

	replies := press(e, ConfirmDelete{EventID: id})
	if firstText(replies) != "Session expired." {
		t.Fatalf("expected expiry, got %+v", replies)
	}
	if _, err := store.GetEvent(context.Background(), id); err != nil {
		t.Errorf("event must survive a stale confirmation: %v", err)
	}
}

func TestSelection_PickDeletedEventExpires(t *testing.T) {
	e, _ := newTestEngine(t)
	for _, choice := range []Choice{PickForDelete{EventID: 999}, PickForEdit{EventID: 999}} {
		if got := firstText(press(e, choice)); got != "Session expired." {
			t.Errorf("%T: got %q, want expiry", choice, got)
		}
	}
}

func TestSelection_EditName(t *testing.T) {
	e, store := newTestEngine(t)
	id := addAlpha(t, e)

	fields := press(e, PickForEdit{EventID: id})
	if len(fields) != 1 || len(fields[0].Options) != 4 {
		t.Fatalf("expected field menu, got %+v", fields)
	}
	if got := firstText(press(e, EditField{Field: FieldName})); got != "Send new name:" {
		t.Fatalf("unexpected prompt %q", got)
	}
	if got := firstText(send(t, e, "Beta")); got != "✅ Name updated." {
		t.Fatalf("unexpected reply %q", got)
	}

	event, err := store.GetEvent(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if event.Name != "Beta" || event.Link != "L1" || len(event.Stages) != 2 {
		t.Errorf("only the name should change, got %+v", event)
	}
}

func TestSelection_EditAfterConcurrentDelete(t *testing.T) {
	e, store := newTestEngine(t)
	id := addAlpha(t, e)

	press(e, PickForEdit{EventID: id})
	press(e, EditField{Field: FieldLink})
	if err := store.DeleteEvent(context.Background(), id); err != nil {
		t.Fatal(err)
	}

	if got := firstText(send(t, e, "L2")); got != "Session expired." {
		t.Errorf("expected expiry, got %q", got)
	}
	if _, ok := e.State(owner); ok {
		t.Error("expected session to be cleared")
	}
}

func TestSelection_EditStagesReplacesAll(t *testing.T) {
	e, store := newTestEngine(t)
	id := addAlpha(t, e)

	press(e, PickForEdit{EventID: id})
	press(e, EditField{Field: FieldStages})
	replies := send(t, e, "1", "2025-02-01", "12:00", "9")
	if firstText(replies) != "✅ Stages updated successfully!\n🗂️ New stages count: 1\n\nCheck the result in: List Mints" {
		t.Fatalf("unexpected reply %+v", replies)
	}

	event, err := store.GetEvent(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if len(event.Stages) != 1 || event.Stages[0].Number != 1 || event.Stages[0].Price != "9" {
		t.Errorf("expected stages to be replaced, got %+v", event.Stages)
	}
}

func TestSelection_TextDuringChoiceIsIgnored(t *testing.T) {
	e, _ := newTestEngine(t)
	id := addAlpha(t, e)

	press(e, PickForEdit{EventID: id})
	if replies := send(t, e, "random"); replies != nil {
		t.Errorf("expected no reply while waiting for a field, got %+v", replies)
	}
	if state, ok := e.State(owner); !ok || state.Step != StepPickField {
		t.Errorf("expected pick field step to be kept, got %+v", state)
	}
}

func TestSelection_CancelButton(t *testing.T) {
	e, _ := newTestEngine(t)
	id := addAlpha(t, e)

	press(e, PickForDelete{EventID: id})
	replies := press(e, Cancel{})
	if len(replies) != 2 || replies[0].Text != "Cancelled." || !replies[0].Replace || !replies[1].MainMenu {
		t.Errorf("unexpected cancel replies %+v", replies)
	}
}

func TestSelection_EmptyMenus(t *testing.T) {
	e, _ := newTestEngine(t)
	if got := firstText(send(t, e, "Edit Mint")); got != "No mints to edit." {
		t.Errorf("got %q", got)
	}
	if got := firstText(send(t, e, "Delete Mint")); got != "No mints to delete." {
		t.Errorf("got %q", got)
	}
}

func TestSelection_StaleFieldButtonExpires(t *testing.T) {
	e, _ := newTestEngine(t)
	id := addAlpha(t, e)

	press(e, PickForEdit{EventID: id})
	press(e, EditField{Field: FieldStages})
	send(t, e, "2", "2025-02-01", "12:00", "9")

	replies := press(e, EditField{Field: FieldName})
	if firstText(replies) != "Session expired." {
		t.Fatalf("expected expiry for a stale field button, got %+v", replies)
	}
	if _, ok := e.State(owner); ok {
		t.Error("expected session to be cleared")
	}
}
