package engine

import "fmt"

// Kind classifies why a move was rejected.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindStateConflict Kind = "state_conflict"
	KindValidation    Kind = "validation"
)

// RejectError is returned by Validate. Reason is safe to show to the
// submitting client.
type RejectError struct {
	Kind   Kind
	Reason string
}

func (e *RejectError) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return e.Reason
}

// Is matches on Kind, and on Reason when the target carries one, so both
// errors.Is(err, ErrUnauthorized) and errors.Is(err, ErrWrongTurn) work.
func (e *RejectError) Is(target error) bool {
	t, ok := target.(*RejectError)
	if !ok || t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

func reject(kind Kind, format string, args ...any) error {
	return &RejectError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

var (
	ErrUnauthorized  = &RejectError{Kind: KindAuthorization}
	ErrStateConflict = &RejectError{Kind: KindStateConflict}
	ErrInvalidMove   = &RejectError{Kind: KindValidation}
)

var (
	ErrNoRole      = &RejectError{Kind: KindAuthorization, Reason: "unauthorized: no role specified"}
	ErrSpectator   = &RejectError{Kind: KindAuthorization, Reason: "spectators cannot perform actions"}
	ErrRefereeOnly = &RejectError{Kind: KindAuthorization, Reason: "only the referee can manage game state"}
	ErrWrongTurn   = &RejectError{Kind: KindAuthorization, Reason: "not your turn"}
	ErrNoSide      = &RejectError{Kind: KindAuthorization, Reason: "you are not assigned a side"}
	ErrWrongSide   = &RejectError{Kind: KindAuthorization, Reason: "wrong side"}

	ErrAlreadyStarted = &RejectError{Kind: KindStateConflict, Reason: "game already started"}
	ErrSidesNotSet    = &RejectError{Kind: KindStateConflict, Reason: "sides not selected yet"}
	ErrPriorityNotSet = &RejectError{Kind: KindStateConflict, Reason: "priority team not selected yet"}
	ErrNotReady       = &RejectError{Kind: KindStateConflict, Reason: "both teams must be ready to start"}
	ErrNotPaused      = &RejectError{Kind: KindStateConflict, Reason: "game is not paused"}
	ErrAlreadyPaused  = &RejectError{Kind: KindStateConflict, Reason: "game is already paused"}
	ErrGameNotOver    = &RejectError{Kind: KindStateConflict, Reason: "game is not finished"}
	ErrSeriesOver     = &RejectError{Kind: KindStateConflict, Reason: "series is over"}
	ErrDraftFinished  = &RejectError{Kind: KindStateConflict, Reason: "draft finished"}

	ErrInvalidAction = &RejectError{Kind: KindValidation, Reason: "invalid action"}
	ErrMissingItem   = &RejectError{Kind: KindValidation, Reason: "item id required"}
	ErrItemUsed      = &RejectError{Kind: KindValidation, Reason: "item already used in this game"}
	ErrFearlessItem  = &RejectError{Kind: KindValidation, Reason: "item unavailable in fearless mode (picked in a previous game)"}
	ErrBadSwap       = &RejectError{Kind: KindValidation, Reason: "invalid swap indices"}
	ErrBadSide       = &RejectError{Kind: KindValidation, Reason: "side must be BLUE or RED"}
	ErrBadTeam       = &RejectError{Kind: KindValidation, Reason: "team must be TEAM_A or TEAM_B"}
)
