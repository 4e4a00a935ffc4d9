package conversation

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"time"

	"mint-bot/internal/storage"
)

// advance feeds text into the current step. Invalid input re-prompts without
// touching the session. Steps that wait for a button press ignore text.
func (e *Engine) advance(ctx context.Context, userID int64, state State, text string) []Reply {
	switch state.Step {
	case StepName:
		if text == "" {
			return []Reply{{Text: e.msg("invalid_empty")}}
		}
		state.Draft.Name = text
		state.Step = StepLink
		e.sessions.Set(userID, state)
		return []Reply{{Text: e.msg("ask_link")}}

	case StepLink:
		if text == "" {
			return []Reply{{Text: e.msg("invalid_empty")}}
		}
		state.Draft.Link = text
		state.Step = StepStagesCount
		e.sessions.Set(userID, state)
		return []Reply{{Text: e.msg("ask_stages_count")}}

	case StepStagesCount:
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 {
			return []Reply{{Text: e.msg("invalid_number")}}
		}
		if n > e.maxStages {
			return []Reply{{Text: e.msg("invalid_stage_count_too_large", e.maxStages)}}
		}
		state.Draft.Count = n
		state.Draft.Stages = nil
		state.Step = StepStageDate
		e.sessions.Set(userID, state)
		return []Reply{{Text: e.msg("ask_stage_date", 1)}}

	case StepStageDate:
		date, err := time.ParseInLocation(dateLayout, text, e.loc)
		if err != nil {
			return []Reply{{Text: e.msg("invalid_date")}}
		}
		state.Draft.Date = date
		state.Step = StepStageTime
		e.sessions.Set(userID, state)
		return []Reply{{Text: e.msg("ask_stage_time")}}

	case StepStageTime:
		clock, err := time.Parse(timeLayout, text)
		if err != nil {
			return []Reply{{Text: e.msg("invalid_time")}}
		}
		d := state.Draft.Date
		state.Draft.Start = time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, e.loc)
		state.Step = StepStagePrice
		e.sessions.Set(userID, state)
		return []Reply{{Text: e.msg("ask_stage_price")}}

	case StepStagePrice:
		stages := append(slices.Clone(state.Draft.Stages), storage.NewStage{
			StartsAt: state.Draft.Start,
			Price:    text,
		})
		if len(stages) < state.Draft.Count {
			state.Draft.Stages = stages
			state.Step = StepStageDate
			e.sessions.Set(userID, state)
			return []Reply{{Text: e.msg("ask_stage_date", len(stages)+1)}}
		}
		return e.commitStages(ctx, userID, state, stages)

	case StepEditName:
		return e.commitField(ctx, userID, state, FieldName, text)

	case StepEditLink:
		return e.commitField(ctx, userID, state, FieldLink, text)
	}
	return nil
}

func (e *Engine) commitStages(ctx context.Context, userID int64, state State, stages []storage.NewStage) []Reply {
	switch state.Mode {
	case ModeAdd:
		eventID := state.Draft.CreatedEventID
		if eventID == 0 {
			id, err := e.store.CreateEvent(ctx, state.Draft.Name, state.Draft.Link)
			if err != nil {
				return e.failed("create event", err)
			}
			eventID = id
			state.Draft.CreatedEventID = id
			e.sessions.Set(userID, state)
		}
		if err := e.store.ReplaceStages(ctx, eventID, stages); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return e.expired(userID, false)
			}
			return e.failed("save stages", err)
		}
		e.sessions.Clear(userID)
		return []Reply{{Text: e.msg("event_saved", state.Draft.Name, len(stages)), MainMenu: true}}

	case ModeEdit:
		if err := e.store.ReplaceStages(ctx, state.EventID, stages); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return e.expired(userID, false)
			}
			return e.failed("replace stages", err)
		}
		e.sessions.Clear(userID)
		return []Reply{{Text: e.msg("stages_updated", len(stages)), MainMenu: true}}
	}
	return e.expired(userID, false)
}

func (e *Engine) commitField(ctx context.Context, userID int64, state State, field Field, value string) []Reply {
	if value == "" {
		return []Reply{{Text: e.msg("invalid_empty")}}
	}

	var err error
	doneKey := "name_updated"
	if field == FieldLink {
		err = e.store.UpdateEventLink(ctx, state.EventID, value)
		doneKey = "link_updated"
	} else {
		err = e.store.UpdateEventName(ctx, state.EventID, value)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return e.expired(userID, false)
		}
		return e.failed("update event "+string(field), err)
	}

	e.sessions.Clear(userID)
	return []Reply{{Text: e.msg(doneKey), MainMenu: true}}
}
