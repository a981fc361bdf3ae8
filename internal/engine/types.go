package engine

import "encoding/json"

type Side string

const (
	SideNone Side = ""
	SideBlue Side = "BLUE"
	SideRed  Side = "RED"
)

func (s Side) Valid() bool { return s == SideBlue || s == SideRed }

// Opposite returns the other color. SideNone stays SideNone.
func (s Side) Opposite() Side {
	switch s {
	case SideBlue:
		return SideRed
	case SideRed:
		return SideBlue
	default:
		return SideNone
	}
}

func (s Side) MarshalJSON() ([]byte, error)     { return marshalNullable(string(s)) }
func (s *Side) UnmarshalJSON(data []byte) error { return unmarshalNullable(data, (*string)(s)) }

type TeamID string

const (
	TeamNone TeamID = ""
	TeamA    TeamID = "TEAM_A"
	TeamB    TeamID = "TEAM_B"
)

func (t TeamID) Valid() bool { return t == TeamA || t == TeamB }

func (t TeamID) Other() TeamID {
	if t == TeamA {
		return TeamB
	}
	if t == TeamB {
		return TeamA
	}
	return TeamNone
}

func (t TeamID) MarshalJSON() ([]byte, error)     { return marshalNullable(string(t)) }
func (t *TeamID) UnmarshalJSON(data []byte) error { return unmarshalNullable(data, (*string)(t)) }

// Role is the identity an actor claims when submitting an action.
type Role string

const (
	RoleNone      Role = ""
	RoleReferee   Role = "REFEREE"
	RoleTeamA     Role = "TEAM_A"
	RoleTeamB     Role = "TEAM_B"
	RoleSpectator Role = "SPECTATOR"
)

// Seated reports whether the role can hold a session binding in a room.
func (r Role) Seated() bool { return r == RoleReferee || r == RoleTeamA || r == RoleTeamB }

// Team maps a team role to its TeamID.
func (r Role) Team() TeamID {
	switch r {
	case RoleTeamA:
		return TeamA
	case RoleTeamB:
		return TeamB
	default:
		return TeamNone
	}
}

func (r Role) MarshalJSON() ([]byte, error)     { return marshalNullable(string(r)) }
func (r *Role) UnmarshalJSON(data []byte) error { return unmarshalNullable(data, (*string)(r)) }

type ActionType string

const (
	ActionBan          ActionType = "BAN"
	ActionPick         ActionType = "PICK"
	ActionSwap         ActionType = "SWAP"
	ActionFinishSwap   ActionType = "FINISH_SWAP"
	ActionStartGame    ActionType = "START_GAME"
	ActionResetGame    ActionType = "RESET_GAME"
	ActionToggleReady  ActionType = "TOGGLE_READY"
	ActionPauseGame    ActionType = "PAUSE_GAME"
	ActionResumeGame   ActionType = "RESUME_GAME"
	ActionSetSides     ActionType = "SET_SIDES"
	ActionReportResult ActionType = "REPORT_RESULT"
)

// isManagement lists the referee-only lifecycle actions.
func isManagement(t ActionType) bool {
	switch t {
	case ActionStartGame, ActionResetGame, ActionPauseGame, ActionResumeGame, ActionReportResult:
		return true
	}
	return false
}

// isMeta lists the actions that are recorded as submitted, without
// resolving them against the current draft step.
func isMeta(t ActionType) bool {
	return isManagement(t) || t == ActionToggleReady || t == ActionSetSides
}

type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusRunning    Status = "RUNNING"
	StatusFinished   Status = "FINISHED"
)

type Phase string

const (
	PhaseDraft    Phase = "DRAFT"
	PhaseSwap     Phase = "SWAP"
	PhaseFinished Phase = "FINISHED"
)

type SeriesMode string

const (
	SeriesBO1 SeriesMode = "BO1"
	SeriesBO2 SeriesMode = "BO2"
	SeriesBO3 SeriesMode = "BO3"
	SeriesBO5 SeriesMode = "BO5"
)

// BestOf returns the number of games in the series, 0 for unknown modes.
func (m SeriesMode) BestOf() int {
	switch m {
	case SeriesBO1:
		return 1
	case SeriesBO2:
		return 2
	case SeriesBO3:
		return 3
	case SeriesBO5:
		return 5
	default:
		return 0
	}
}

type DraftMode string

const (
	DraftStandard DraftMode = "STANDARD"
	DraftFearless DraftMode = "FEARLESS"
)

func (m DraftMode) Valid() bool { return m == DraftStandard || m == DraftFearless }

// Sentinel item ids accepted in place of a catalog id.
const (
	ItemNone   = "special_none"
	ItemRandom = "special_random"
)

func isSentinel(id string) bool { return id == ItemNone || id == ItemRandom }

type DraftStep struct {
	Index int        `json:"index"`
	Side  Side       `json:"side"`
	Kind  ActionType `json:"kind"`
}

type SwapData struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Intent is what a caller asks for. The engine turns it into a DraftAction.
type Intent struct {
	Type         ActionType `json:"type,omitempty"`
	ActorRole    Role       `json:"actorRole,omitempty"`
	Side         Side       `json:"side,omitempty"`
	ItemID       string     `json:"itemId,omitempty"`
	Swap         *SwapData  `json:"swap,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	SideForA     Side       `json:"sideForA,omitempty"`
	PriorityTeam TeamID     `json:"priorityTeam,omitempty"`
	Winner       TeamID     `json:"winner,omitempty"`
}

func (in Intent) clone() *Intent {
	out := in
	if in.Swap != nil {
		sw := *in.Swap
		out.Swap = &sw
	}
	return &out
}

// DraftAction is one committed entry of a room's append-only log.
type DraftAction struct {
	Seq       int        `json:"seq"`
	StepIndex int        `json:"stepIndex"`
	Type      ActionType `json:"type"`
	Side      Side       `json:"side,omitempty"`
	ItemID    string     `json:"itemId,omitempty"`
	Swap      *SwapData  `json:"swap,omitempty"`
	ActorRole Role       `json:"actorRole"`
	Reason    string     `json:"reason,omitempty"`
	Payload   *Intent    `json:"payload,omitempty"`
}

func (a DraftAction) payload() Intent {
	if a.Payload == nil {
		return Intent{}
	}
	return *a.Payload
}

// GameResultSnapshot records one completed game of the series.
type GameResultSnapshot struct {
	GameIndex int      `json:"gameIndex"`
	Winner    TeamID   `json:"winner"`
	BlueTeam  TeamID   `json:"blueTeam"`
	RedTeam   TeamID   `json:"redTeam"`
	BlueBans  []string `json:"blueBans"`
	RedBans   []string `json:"redBans"`
	BluePicks []string `json:"bluePicks"`
	RedPicks  []string `json:"redPicks"`
}

type TeamInfo struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

type Sides struct {
	TeamA Side `json:"TEAM_A"`
	TeamB Side `json:"TEAM_B"`
}

func (s Sides) Of(team TeamID) Side {
	switch team {
	case TeamA:
		return s.TeamA
	case TeamB:
		return s.TeamB
	default:
		return SideNone
	}
}

// TeamOn returns the team currently playing the given side.
func (s Sides) TeamOn(side Side) TeamID {
	if side == SideNone {
		return TeamNone
	}
	if s.TeamA == side {
		return TeamA
	}
	if s.TeamB == side {
		return TeamB
	}
	return TeamNone
}

func (s Sides) Assigned() bool { return s.TeamA.Valid() && s.TeamB.Valid() }

// State is the authoritative snapshot of one room.
type State struct {
	LastActionSeq int `json:"lastActionSeq"`

	MatchTitle       string     `json:"matchTitle"`
	SeriesMode       SeriesMode `json:"seriesMode"`
	DraftMode        DraftMode  `json:"draftMode"`
	TimeLimit        int        `json:"timeLimit"` // seconds per turn, 0 is unlimited
	PrioritySeparate bool       `json:"prioritySeparate"`
	PriorityTeam     TeamID     `json:"priorityTeam"`

	TeamA            TeamInfo             `json:"teamA"`
	TeamB            TeamInfo             `json:"teamB"`
	CurrentGame      int                  `json:"currentGameIdx"`
	Sides            Sides                `json:"sides"`
	NextSideSelector Role                 `json:"nextSideSelector"`
	SeriesHistory    []GameResultSnapshot `json:"seriesHistory"`

	Status         Status   `json:"status"`
	Phase          Phase    `json:"phase"`
	StepIndex      int      `json:"stepIndex"`
	DraftStepIndex int      `json:"draftStepIndex"`
	BlueBans       []string `json:"blueBans"`
	RedBans        []string `json:"redBans"`
	BluePicks      []string `json:"bluePicks"`
	RedPicks       []string `json:"redPicks"`
	BlueReady      bool     `json:"blueReady"`
	RedReady       bool     `json:"redReady"`
	Paused         bool     `json:"paused"`
	PauseReason    string   `json:"pauseReason,omitempty"`
	PausedAt       int64    `json:"pausedAt,omitempty"` // unix ms
	StepEndsAt     int64    `json:"stepEndsAt"`         // unix ms, 0 means no deadline

	History []DraftAction `json:"history"`
}

// MatchConfig is the series-level configuration chosen at room creation.
// It is also the part of State that cannot be recovered from the log.
type MatchConfig struct {
	MatchTitle       string     `json:"matchTitle,omitempty"`
	SeriesMode       SeriesMode `json:"seriesMode,omitempty"`
	DraftMode        DraftMode  `json:"draftMode,omitempty"`
	TimeLimit        *int       `json:"timeLimit,omitempty"`
	PrioritySeparate bool       `json:"prioritySeparate,omitempty"`
	TeamA            string     `json:"teamA,omitempty"`
	TeamB            string     `json:"teamB,omitempty"`
}

func marshalNullable(s string) ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(s)
}

func unmarshalNullable(data []byte, dst *string) error {
	if string(data) == "null" {
		*dst = ""
		return nil
	}
	return json.Unmarshal(data, dst)
}
