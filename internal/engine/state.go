package engine

import "fmt"

const (
	DefaultMatchTitle = "Exhibition Match"
	DefaultTimeLimit  = 30
	DefaultTeamAName  = "Team A"
	DefaultTeamBName  = "Team B"
)

// Validate checks a creation config. Empty fields are allowed and get defaults.
func (c MatchConfig) Validate() error {
	if c.SeriesMode != "" && c.SeriesMode.BestOf() == 0 {
		return fmt.Errorf("unknown series mode %q", c.SeriesMode)
	}
	if c.DraftMode != "" && !c.DraftMode.Valid() {
		return fmt.Errorf("unknown draft mode %q", c.DraftMode)
	}
	if c.TimeLimit != nil && *c.TimeLimit < 0 {
		return fmt.Errorf("time limit must not be negative")
	}
	return nil
}

// NewState builds the state of a fresh room: game 1, nothing drafted, the
// referee choosing sides.
func NewState(cfg MatchConfig) State {
	s := State{
		MatchTitle:       DefaultMatchTitle,
		SeriesMode:       SeriesBO1,
		DraftMode:        DraftStandard,
		TimeLimit:        DefaultTimeLimit,
		PrioritySeparate: cfg.PrioritySeparate,
		TeamA:            TeamInfo{Name: DefaultTeamAName},
		TeamB:            TeamInfo{Name: DefaultTeamBName},
		CurrentGame:      1,
		NextSideSelector: RoleReferee,
		SeriesHistory:    []GameResultSnapshot{},
		Status:           StatusNotStarted,
		Phase:            PhaseDraft,
		BlueBans:         []string{},
		RedBans:          []string{},
		BluePicks:        []string{},
		RedPicks:         []string{},
		History:          []DraftAction{},
	}
	if cfg.MatchTitle != "" {
		s.MatchTitle = cfg.MatchTitle
	}
	if cfg.SeriesMode.BestOf() > 0 {
		s.SeriesMode = cfg.SeriesMode
	}
	if cfg.DraftMode.Valid() {
		s.DraftMode = cfg.DraftMode
	}
	if cfg.TimeLimit != nil && *cfg.TimeLimit >= 0 {
		s.TimeLimit = *cfg.TimeLimit
	}
	if cfg.TeamA != "" {
		s.TeamA.Name = cfg.TeamA
	}
	if cfg.TeamB != "" {
		s.TeamB.Name = cfg.TeamB
	}
	return s
}

// ConfigOf extracts the series-level configuration of s.
func ConfigOf(s State) MatchConfig {
	limit := s.TimeLimit
	return MatchConfig{
		MatchTitle:       s.MatchTitle,
		SeriesMode:       s.SeriesMode,
		DraftMode:        s.DraftMode,
		TimeLimit:        &limit,
		PrioritySeparate: s.PrioritySeparate,
		TeamA:            s.TeamA.Name,
		TeamB:            s.TeamB.Name,
	}
}

// Heal re-zeroes per-game progress of a game that has not started. A crash
// between writes can leave a NOT_STARTED snapshot with partial draft data.
func Heal(s State) State {
	next := s.clone()
	if next.Status != StatusNotStarted {
		return next
	}
	next.DraftStepIndex = 0
	next.StepIndex = 0
	next.BlueBans = []string{}
	next.RedBans = []string{}
	next.BluePicks = []string{}
	next.RedPicks = []string{}
	next.StepEndsAt = 0
	return next
}

// SeriesDecided reports whether the series has produced its final result.
// BO2 always ends after its second game.
func SeriesDecided(s State) bool {
	if s.SeriesMode == SeriesBO2 {
		return len(s.SeriesHistory) >= 2
	}
	need := (s.SeriesMode.BestOf() + 1) / 2
	if need < 1 {
		need = 1
	}
	return s.TeamA.Wins >= need || s.TeamB.Wins >= need
}

// FearlessItems returns every item picked in an earlier game of the series.
// It is empty outside FEARLESS mode.
func FearlessItems(s State) map[string]struct{} {
	set := map[string]struct{}{}
	if s.DraftMode != DraftFearless {
		return set
	}
	for _, g := range s.SeriesHistory {
		for _, id := range g.BluePicks {
			set[id] = struct{}{}
		}
		for _, id := range g.RedPicks {
			set[id] = struct{}{}
		}
	}
	return set
}

// UsedItems returns every item banned or picked in the current game.
func UsedItems(s State) map[string]struct{} {
	set := map[string]struct{}{}
	for _, list := range [][]string{s.BlueBans, s.RedBans, s.BluePicks, s.RedPicks} {
		for _, id := range list {
			if !isSentinel(id) {
				set[id] = struct{}{}
			}
		}
	}
	return set
}

// SideOf returns the side the role plays this game.
func SideOf(s State, role Role) Side {
	return s.Sides.Of(role.Team())
}

func (s State) picksOf(side Side) []string {
	if side == SideBlue {
		return s.BluePicks
	}
	return s.RedPicks
}

// clone copies every list so the result shares no backing storage with s.
func (s State) clone() State {
	next := s
	next.BlueBans = cloneStrings(s.BlueBans)
	next.RedBans = cloneStrings(s.RedBans)
	next.BluePicks = cloneStrings(s.BluePicks)
	next.RedPicks = cloneStrings(s.RedPicks)
	next.SeriesHistory = make([]GameResultSnapshot, len(s.SeriesHistory))
	for i, g := range s.SeriesHistory {
		next.SeriesHistory[i] = g.clone()
	}
	next.History = cloneActions(s.History)
	return next
}

// Clone returns a deep copy of s.
func (s State) Clone() State { return s.clone() }

func (g GameResultSnapshot) clone() GameResultSnapshot {
	g.BlueBans = cloneStrings(g.BlueBans)
	g.RedBans = cloneStrings(g.RedBans)
	g.BluePicks = cloneStrings(g.BluePicks)
	g.RedPicks = cloneStrings(g.RedPicks)
	return g
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneActions(in []DraftAction) []DraftAction {
	out := make([]DraftAction, len(in))
	copy(out, in)
	return out
}
