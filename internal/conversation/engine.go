// Package conversation turns a user's text messages and button presses into
// stored events. It knows nothing about the chat transport: every handler
// returns Replies that the transport renders.
package conversation

import (
	"context"
	"log"
	"strings"
	"time"

	"mint-bot/internal/localization"
	"mint-bot/internal/storage"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type Store interface {
	CreateEvent(ctx context.Context, name, link string) (int64, error)
	UpdateEventName(ctx context.Context, id int64, name string) error
	UpdateEventLink(ctx context.Context, id int64, link string) error
	DeleteEvent(ctx context.Context, id int64) error
	GetEvent(ctx context.Context, id int64) (*storage.Event, error)
	ListEvents(ctx context.Context) ([]storage.Event, error)
	ReplaceStages(ctx context.Context, eventID int64, stages []storage.NewStage) error
}

// Reply is one outbound message. Replace asks the transport to edit the message
// that carried the pressed button instead of sending a new one.
type Reply struct {
	Text     string
	MainMenu bool
	Options  []Option
	Replace  bool
}

type Option struct {
	Label  string
	Choice Choice
}

// Shortcut is a fixed menu action, recognized at any step. Every shortcut
// abandons the running conversation.
type Shortcut int

const (
	ShortcutNone Shortcut = iota
	ShortcutStart
	ShortcutAdd
	ShortcutList
	ShortcutEdit
	ShortcutDelete
	ShortcutTest
	ShortcutCancel
)

type Engine struct {
	store     Store
	sessions  *Sessions
	localizer *localization.Localizer
	loc       *time.Location
	lang      string
	maxStages int
}

func NewEngine(store Store, localizer *localization.Localizer, loc *time.Location, lang string, maxStages int) *Engine {
	return &Engine{
		store:     store,
		sessions:  NewSessions(),
		localizer: localizer,
		loc:       loc,
		lang:      lang,
		maxStages: maxStages,
	}
}

func (e *Engine) msg(key string, args ...any) string {
	if len(args) == 0 {
		return e.localizer.GetMessage(e.lang, key)
	}
	return e.localizer.Format(e.lang, key, args...)
}

// MenuLabels is the layout of the persistent main menu.
func (e *Engine) MenuLabels() [][]string {
	return [][]string{
		{e.msg("btn_add"), e.msg("btn_list")},
		{e.msg("btn_edit"), e.msg("btn_delete")},
		{e.msg("btn_test"), e.msg("btn_cancel")},
	}
}

func (e *Engine) Shortcut(text string) Shortcut {
	switch strings.TrimSpace(text) {
	case "/start":
		return ShortcutStart
	case "/cancel", e.msg("btn_cancel"):
		return ShortcutCancel
	case e.msg("btn_add"):
		return ShortcutAdd
	case e.msg("btn_list"):
		return ShortcutList
	case e.msg("btn_edit"):
		return ShortcutEdit
	case e.msg("btn_delete"):
		return ShortcutDelete
	case e.msg("btn_test"):
		return ShortcutTest
	}
	return ShortcutNone
}

// State exposes a copy of the user's conversation, mostly for tests and diagnostics.
func (e *Engine) State(userID int64) (State, bool) {
	return e.sessions.Get(userID)
}

// HandleText routes free text: shortcuts first, then the active step. Text from a
// user with no active conversation is ignored.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) []Reply {
	text = strings.TrimSpace(text)
	if sc := e.Shortcut(text); sc != ShortcutNone {
		return e.HandleShortcut(ctx, userID, sc)
	}
	state, ok := e.sessions.Get(userID)
	if !ok {
		return nil
	}
	return e.advance(ctx, userID, state, text)
}

// HandleShortcut restarts the user's conversation at the shortcut's entry state.
// ShortcutTest only clears state; delivering the test message is the transport's job.
func (e *Engine) HandleShortcut(ctx context.Context, userID int64, sc Shortcut) []Reply {
	e.sessions.Clear(userID)
	switch sc {
	case ShortcutStart:
		return []Reply{{Text: e.msg("welcome"), MainMenu: true}}
	case ShortcutAdd:
		e.sessions.Set(userID, State{Mode: ModeAdd, Step: StepName})
		return []Reply{{Text: e.msg("ask_name")}}
	case ShortcutList:
		return e.listEvents(ctx)
	case ShortcutEdit:
		return e.pickMenu(ctx, ModeEdit)
	case ShortcutDelete:
		return e.pickMenu(ctx, ModeDelete)
	case ShortcutCancel:
		return []Reply{{Text: e.msg("cancelled_back"), MainMenu: true}}
	}
	return nil
}

func (e *Engine) listEvents(ctx context.Context) []Reply {
	events, err := e.store.ListEvents(ctx)
	if err != nil {
		log.Printf("Failed to list events: %v", err)
		return []Reply{{Text: e.msg("action_failed"), MainMenu: true}}
	}
	if len(events) == 0 {
		return []Reply{{Text: e.msg("no_events"), MainMenu: true}}
	}

	var builder strings.Builder
	builder.WriteString(e.msg("events_title"))
	for _, event := range events {
		builder.WriteString(e.msg("event_list_item", event.Name, event.Link))
		for _, stage := range event.Stages {
			starts := stage.StartsAt.In(e.loc).Format(dateLayout + " " + timeLayout)
			builder.WriteString(e.msg("stage_list_item", stage.Number, starts, stage.Price))
		}
		builder.WriteString("\n")
	}
	return []Reply{{Text: builder.String(), MainMenu: true}}
}

func (e *Engine) pickMenu(ctx context.Context, mode Mode) []Reply {
	emptyKey, promptKey := "no_events_to_edit", "choose_edit"
	if mode == ModeDelete {
		emptyKey, promptKey = "no_events_to_delete", "choose_delete"
	}

	events, err := e.store.ListEvents(ctx)
	if err != nil {
		log.Printf("Failed to list events for %s menu: %v", mode, err)
		return []Reply{{Text: e.msg("action_failed"), MainMenu: true}}
	}
	if len(events) == 0 {
		return []Reply{{Text: e.msg(emptyKey), MainMenu: true}}
	}

	options := make([]Option, 0, len(events)+1)
	for _, event := range events {
		var choice Choice = PickForEdit{EventID: event.ID}
		if mode == ModeDelete {
			choice = PickForDelete{EventID: event.ID}
		}
		options = append(options, Option{Label: event.Name, Choice: choice})
	}
	options = append(options, Option{Label: e.msg("btn_cancel"), Choice: Cancel{}})
	return []Reply{{Text: e.msg(promptKey), Options: options}}
}

func (e *Engine) expired(userID int64, replace bool) []Reply {
	e.sessions.Clear(userID)
	if replace {
		return []Reply{
			{Text: e.msg("session_expired"), Replace: true},
			{Text: e.msg("back_to_menu"), MainMenu: true},
		}
	}
	return []Reply{{Text: e.msg("session_expired"), MainMenu: true}}
}

// failed reports a persistence error. The session is left untouched so the user can retry.
func (e *Engine) failed(action string, err error) []Reply {
	log.Printf("Failed to %s: %v", action, err)
	return []Reply{{Text: e.msg("action_failed")}}
}
