package storage

import (
	"encoding/json"
	"fmt"

	"github.com/DoyleJ11/draft-room/internal/engine"
)

// SchemaVersion is written into every encoded snapshot. Snapshots without a
// version are the legacy layout and are upgraded on decode.
const SchemaVersion = 1

type envelope struct {
	SchemaVersion *int            `json:"schemaVersion"`
	State         json.RawMessage `json:"state"`
}

// EncodeState wraps s in a versioned envelope.
func EncodeState(s engine.State) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	v := SchemaVersion
	return json.Marshal(envelope{SchemaVersion: &v, State: raw})
}

// DecodeState reads any known snapshot layout and returns a fully defaulted
// state.
func DecodeState(data []byte) (engine.State, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return engine.State{}, fmt.Errorf("decode snapshot: %w", err)
	}

	switch {
	case env.SchemaVersion == nil:
		var legacy legacyState
		if err := json.Unmarshal(data, &legacy); err != nil {
			return engine.State{}, fmt.Errorf("decode legacy snapshot: %w", err)
		}
		return Upgrade(legacy.upgrade()), nil

	case *env.SchemaVersion == SchemaVersion:
		var s engine.State
		if err := json.Unmarshal(env.State, &s); err != nil {
			return engine.State{}, fmt.Errorf("decode snapshot v%d: %w", SchemaVersion, err)
		}
		return Upgrade(s), nil

	default:
		return engine.State{}, fmt.Errorf("unsupported snapshot schema version %d", *env.SchemaVersion)
	}
}

func EncodeAction(a engine.DraftAction) ([]byte, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode action: %w", err)
	}
	return b, nil
}

// DecodeAction accepts both the current and the legacy action layout.
func DecodeAction(data []byte) (engine.DraftAction, error) {
	var la legacyAction
	if err := json.Unmarshal(data, &la); err != nil {
		return engine.DraftAction{}, fmt.Errorf("decode action: %w", err)
	}
	return la.upgrade(), nil
}

// Upgrade fills every field a partial or older snapshot may have left empty
// so the in-memory state never carries nil lists or unknown modes.
func Upgrade(s engine.State) engine.State {
	fresh := engine.NewState(engine.MatchConfig{})

	if s.MatchTitle == "" {
		s.MatchTitle = fresh.MatchTitle
	}
	if s.SeriesMode.BestOf() == 0 {
		s.SeriesMode = fresh.SeriesMode
	}
	if !s.DraftMode.Valid() {
		s.DraftMode = fresh.DraftMode
	}
	if s.TimeLimit < 0 {
		s.TimeLimit = fresh.TimeLimit
	}
	if s.TeamA.Name == "" {
		s.TeamA.Name = fresh.TeamA.Name
	}
	if s.TeamB.Name == "" {
		s.TeamB.Name = fresh.TeamB.Name
	}
	if s.CurrentGame < 1 {
		s.CurrentGame = 1
	}
	if s.Status == "" {
		s.Status = fresh.Status
	}
	if s.Phase == "" {
		s.Phase = fresh.Phase
	}
	if !s.PrioritySeparate {
		s.PriorityTeam = engine.TeamNone
	}

	s = s.Clone()
	if s.SeriesHistory == nil {
		s.SeriesHistory = []engine.GameResultSnapshot{}
	}
	for i := range s.SeriesHistory {
		g := &s.SeriesHistory[i]
		for _, list := range []*[]string{&g.BlueBans, &g.RedBans, &g.BluePicks, &g.RedPicks} {
			if *list == nil {
				*list = []string{}
			}
		}
	}
	for _, a := range s.History {
		if a.Seq > s.LastActionSeq {
			s.LastActionSeq = a.Seq
		}
	}
	return s
}

// legacyState is the unversioned snapshot layout. Field names that changed
// are mapped here; the rest match engine.State.
type legacyState struct {
	LastActionSeq int `json:"lastActionSeq"`

	MatchTitle             string            `json:"matchTitle"`
	SeriesMode             engine.SeriesMode `json:"seriesMode"`
	DraftMode              engine.DraftMode  `json:"draftMode"`
	TimeLimit              *int              `json:"timeLimit"`
	SeparateSideAndBpOrder bool              `json:"separateSideAndBpOrder"`
	BpFirstTeam            engine.TeamID     `json:"bpFirstTeam"`

	TeamA            engine.TeamInfo `json:"teamA"`
	TeamB            engine.TeamInfo `json:"teamB"`
	CurrentGameIdx   int             `json:"currentGameIdx"`
	Sides            engine.Sides    `json:"sides"`
	NextSideSelector *engine.Role    `json:"nextSideSelector"`
	SeriesHistory    []legacyGame    `json:"seriesHistory"`

	Status         engine.Status  `json:"status"`
	Phase          engine.Phase   `json:"phase"`
	StepIndex      int            `json:"stepIndex"`
	DraftStepIndex int            `json:"draftStepIndex"`
	BlueBans       []string       `json:"blueBans"`
	RedBans        []string       `json:"redBans"`
	BluePicks      []string       `json:"bluePicks"`
	RedPicks       []string       `json:"redPicks"`
	BlueReady      bool           `json:"blueReady"`
	RedReady       bool           `json:"redReady"`
	Paused         bool           `json:"paused"`
	PauseReason    string         `json:"pauseReason"`
	PausedAt       int64          `json:"pausedAt"`
	StepEndsAt     int64          `json:"stepEndsAt"`
	History        []legacyAction `json:"history"`
}

type legacyGame struct {
	GameIdx      int           `json:"gameIdx"`
	Winner       engine.TeamID `json:"winner"`
	BlueSideTeam engine.TeamID `json:"blueSideTeam"`
	RedSideTeam  engine.TeamID `json:"redSideTeam"`
	BlueBans     []string      `json:"blueBans"`
	RedBans      []string      `json:"redBans"`
	BluePicks    []string      `json:"bluePicks"`
	RedPicks     []string      `json:"redPicks"`
}

type legacySwap struct {
	FromIndex int `json:"fromIndex"`
	ToIndex   int `json:"toIndex"`
}

// legacyIntent reads both generations of intent payloads.
type legacyIntent struct {
	engine.Intent
	HeroID      string        `json:"heroId"`
	SwapData    *legacySwap   `json:"swapData"`
	BpFirstTeam engine.TeamID `json:"bpFirstTeam"`
}

func (li legacyIntent) upgrade() engine.Intent {
	in := li.Intent
	if in.ItemID == "" {
		in.ItemID = li.HeroID
	}
	if in.Swap == nil && li.SwapData != nil {
		in.Swap = &engine.SwapData{From: li.SwapData.FromIndex, To: li.SwapData.ToIndex}
	}
	if in.PriorityTeam == engine.TeamNone {
		in.PriorityTeam = li.BpFirstTeam
	}
	return in
}

// legacyAction reads both generations of logged actions.
type legacyAction struct {
	Seq       int               `json:"seq"`
	StepIndex int               `json:"stepIndex"`
	Type      engine.ActionType `json:"type"`
	Side      engine.Side       `json:"side"`
	ItemID    string            `json:"itemId"`
	HeroID    string            `json:"heroId"`
	Swap      *engine.SwapData  `json:"swap"`
	SwapData  *legacySwap       `json:"swapData"`
	ActorRole engine.Role       `json:"actorRole"`
	Reason    string            `json:"reason"`
	Payload   *legacyIntent     `json:"payload"`
}

func (la legacyAction) upgrade() engine.DraftAction {
	a := engine.DraftAction{
		Seq:       la.Seq,
		StepIndex: la.StepIndex,
		Type:      la.Type,
		Side:      la.Side,
		ItemID:    la.ItemID,
		Swap:      la.Swap,
		ActorRole: la.ActorRole,
		Reason:    la.Reason,
	}
	if a.ItemID == "" {
		a.ItemID = la.HeroID
	}
	if a.Swap == nil && la.SwapData != nil {
		a.Swap = &engine.SwapData{From: la.SwapData.FromIndex, To: la.SwapData.ToIndex}
	}
	if la.Payload != nil {
		in := la.Payload.upgrade()
		a.Payload = &in
	}
	return a
}

func (ls legacyState) upgrade() engine.State {
	s := engine.State{
		LastActionSeq:    ls.LastActionSeq,
		MatchTitle:       ls.MatchTitle,
		SeriesMode:       ls.SeriesMode,
		DraftMode:        ls.DraftMode,
		TimeLimit:        engine.DefaultTimeLimit,
		PrioritySeparate: ls.SeparateSideAndBpOrder,
		PriorityTeam:     ls.BpFirstTeam,
		TeamA:            ls.TeamA,
		TeamB:            ls.TeamB,
		CurrentGame:      ls.CurrentGameIdx,
		Sides:            ls.Sides,
		NextSideSelector: engine.RoleReferee,
		Status:           ls.Status,
		Phase:            ls.Phase,
		StepIndex:        ls.StepIndex,
		DraftStepIndex:   ls.DraftStepIndex,
		BlueBans:         ls.BlueBans,
		RedBans:          ls.RedBans,
		BluePicks:        ls.BluePicks,
		RedPicks:         ls.RedPicks,
		BlueReady:        ls.BlueReady,
		RedReady:         ls.RedReady,
		Paused:           ls.Paused,
		PauseReason:      ls.PauseReason,
		PausedAt:         ls.PausedAt,
		StepEndsAt:       ls.StepEndsAt,
	}
	if ls.TimeLimit != nil {
		s.TimeLimit = *ls.TimeLimit
	}
	s.SeriesHistory = make([]engine.GameResultSnapshot, 0, len(ls.SeriesHistory))
	for _, g := range ls.SeriesHistory {
		s.SeriesHistory = append(s.SeriesHistory, engine.GameResultSnapshot{
			GameIndex: g.GameIdx,
			Winner:    g.Winner,
			BlueTeam:  g.BlueSideTeam,
			RedTeam:   g.RedSideTeam,
			BlueBans:  g.BlueBans,
			RedBans:   g.RedBans,
			BluePicks: g.BluePicks,
			RedPicks:  g.RedPicks,
		})
	}
	s.History = make([]engine.DraftAction, 0, len(ls.History))
	for _, a := range ls.History {
		s.History = append(s.History, a.upgrade())
	}

	switch {
	case ls.NextSideSelector != nil:
		s.NextSideSelector = *ls.NextSideSelector
	case engine.SeriesDecided(s):
		s.NextSideSelector = engine.RoleNone
	}
	return s
}
