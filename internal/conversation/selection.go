package conversation

import (
	"context"
	"errors"

	"mint-bot/internal/storage"
)

// HandleChoice applies a button press. Picks start a fresh session, while
// ConfirmDelete and EditField must match the session the pick created and
// still be waiting for that press.
func (e *Engine) HandleChoice(ctx context.Context, userID int64, choice Choice) []Reply {
	switch c := choice.(type) {
	case Cancel:
		e.sessions.Clear(userID)
		return []Reply{
			{Text: e.msg("cancelled"), Replace: true},
			{Text: e.msg("back_to_menu"), MainMenu: true},
		}

	case PickForDelete:
		event, err := e.store.GetEvent(ctx, c.EventID)
		if err != nil {
			return e.choiceLookupFailed(userID, err)
		}
		e.sessions.Set(userID, State{Mode: ModeDelete, Step: StepConfirmDelete, EventID: event.ID})
		return []Reply{{
			Text:    e.msg("confirm_delete", event.Name),
			Replace: true,
			Options: []Option{
				{Label: e.msg("btn_yes"), Choice: ConfirmDelete{EventID: event.ID}},
				{Label: e.msg("btn_no"), Choice: Cancel{}},
			},
		}}

	case ConfirmDelete:
		state, ok := e.sessions.Get(userID)
		if !ok || state.Mode != ModeDelete || state.EventID != c.EventID {
			return e.expired(userID, true)
		}
		if err := e.store.DeleteEvent(ctx, c.EventID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return e.expired(userID, true)
			}
			return e.failed("delete event", err)
		}
		e.sessions.Clear(userID)
		return []Reply{
			{Text: e.msg("event_deleted"), Replace: true},
			{Text: e.msg("back_to_menu"), MainMenu: true},
		}

	case PickForEdit:
		event, err := e.store.GetEvent(ctx, c.EventID)
		if err != nil {
			return e.choiceLookupFailed(userID, err)
		}
		e.sessions.Set(userID, State{Mode: ModeEdit, Step: StepPickField, EventID: event.ID})
		return []Reply{{
			Text:    e.msg("choose_field"),
			Replace: true,
			Options: []Option{
				{Label: e.msg("btn_edit_name"), Choice: EditField{Field: FieldName}},
				{Label: e.msg("btn_edit_link"), Choice: EditField{Field: FieldLink}},
				{Label: e.msg("btn_edit_stages"), Choice: EditField{Field: FieldStages}},
				{Label: e.msg("btn_cancel"), Choice: Cancel{}},
			},
		}}

	case EditField:
		state, ok := e.sessions.Get(userID)
		if !ok || state.Mode != ModeEdit || state.Step != StepPickField || state.EventID == 0 {
			return e.expired(userID, true)
		}
		if _, err := e.store.GetEvent(ctx, state.EventID); err != nil {
			return e.choiceLookupFailed(userID, err)
		}

		next := State{Mode: ModeEdit, EventID: state.EventID}
		var prompt string
		switch c.Field {
		case FieldName:
			next.Step, prompt = StepEditName, e.msg("ask_new_name")
		case FieldLink:
			next.Step, prompt = StepEditLink, e.msg("ask_new_link")
		case FieldStages:
			next.Step, prompt = StepStagesCount, e.msg("ask_stages_count")
		default:
			return nil
		}
		e.sessions.Set(userID, next)
		return []Reply{{Text: prompt, Replace: true}}
	}
	return nil
}

func (e *Engine) choiceLookupFailed(userID int64, err error) []Reply {
	if errors.Is(err, storage.ErrNotFound) {
		return e.expired(userID, true)
	}
	return e.failed("load event", err)
}
