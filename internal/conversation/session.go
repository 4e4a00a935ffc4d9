package conversation

import (
	"slices"
	"sync"
	"time"

	"mint-bot/internal/storage"
)

type Mode string

const (
	ModeAdd    Mode = "add"
	ModeEdit   Mode = "edit"
	ModeDelete Mode = "delete"
)

type Step string

const (
	StepName          Step = "name"
	StepLink          Step = "link"
	StepStagesCount   Step = "stages_count"
	StepStageDate     Step = "stage_date"
	StepStageTime     Step = "stage_time"
	StepStagePrice    Step = "stage_price"
	StepEditName      Step = "edit_name"
	StepEditLink      Step = "edit_link"
	StepPickField     Step = "pick_field"
	StepConfirmDelete Step = "confirm_delete"
)

// Draft accumulates what the user has typed so far.
type Draft struct {
	Name   string
	Link   string
	Count  int
	Stages []storage.NewStage
	Date   time.Time
	Start  time.Time
	// CreatedEventID is set when an add commit created the event but failed on its stages,
	// so the retry fills that event instead of creating a second one.
	CreatedEventID int64
}

type State struct {
	Mode    Mode
	Step    Step
	EventID int64
	Draft   Draft
}

func (s State) clone() State {
	s.Draft.Stages = slices.Clone(s.Draft.Stages)
	return s
}

// Sessions holds one in-memory conversation per user. Values are copied in and out,
// so a caller can only change a session through Set.
type Sessions struct {
	mu     sync.Mutex
	states map[int64]State
}

func NewSessions() *Sessions {
	return &Sessions{states: make(map[int64]State)}
}

func (s *Sessions) Get(userID int64) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[userID]
	if !ok {
		return State{}, false
	}
	return state.clone(), true
}

func (s *Sessions) Set(userID int64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = state.clone()
}

func (s *Sessions) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}
