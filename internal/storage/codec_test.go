package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/draft-room/internal/engine"
)

func TestEncodeStateWritesVersion(t *testing.T) {
	b, err := EncodeState(engine.NewState(engine.MatchConfig{}))
	require.NoError(t, err)

	var probe map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &probe))
	assert.JSONEq(t, `1`, string(probe["schemaVersion"]))
	assert.Contains(t, probe, "state")

	got, err := DecodeState(b)
	require.NoError(t, err)
	assert.Equal(t, engine.NewState(engine.MatchConfig{}), got)
}

func TestDecodeStateRejectsUnknownVersion(t *testing.T) {
	_, err := DecodeState([]byte(`{"schemaVersion":9,"state":{}}`))
	require.Error(t, err)
}

func TestDecodeLegacySnapshot(t *testing.T) {
	legacy := `{
		"lastActionSeq": 2,
		"matchTitle": "Old Cup",
		"seriesMode": "BO3",
		"draftMode": "FEARLESS",
		"teamA": {"name": "Foxes", "wins": 1},
		"teamB": {"name": "Owls", "wins": 0},
		"currentGameIdx": 2,
		"sides": {"TEAM_A": "RED", "TEAM_B": "BLUE"},
		"separateSideAndBpOrder": true,
		"bpFirstTeam": "TEAM_B",
		"seriesHistory": [{
			"gameIdx": 1, "winner": "TEAM_A", "blueSideTeam": "TEAM_A", "redSideTeam": "TEAM_B",
			"blueBans": [], "redBans": [], "bluePicks": ["ahri"], "redPicks": ["zed"]
		}],
		"status": "RUNNING",
		"phase": "DRAFT",
		"stepIndex": 1,
		"draftStepIndex": 1,
		"blueBans": ["yasuo"],
		"history": [
			{"seq": 1, "stepIndex": 0, "type": "START_GAME", "actorRole": "REFEREE"},
			{"seq": 2, "stepIndex": 1, "type": "BAN", "side": "BLUE", "heroId": "yasuo", "actorRole": "TEAM_B"},
			{"seq": 3, "stepIndex": 2, "type": "SWAP", "side": "RED", "swapData": {"fromIndex": 0, "toIndex": 3}, "actorRole": "TEAM_A"}
		],
		"stepEndsAt": 0
	}`

	s, err := DecodeState([]byte(legacy))
	require.NoError(t, err)

	assert.Equal(t, "Old Cup", s.MatchTitle)
	assert.True(t, s.PrioritySeparate)
	assert.Equal(t, engine.TeamB, s.PriorityTeam)
	assert.Equal(t, engine.DefaultTimeLimit, s.TimeLimit, "missing time limit gets the default")
	assert.Equal(t, engine.RoleReferee, s.NextSideSelector)
	assert.Equal(t, 2, s.CurrentGame)
	assert.Equal(t, engine.Sides{TeamA: engine.SideRed, TeamB: engine.SideBlue}, s.Sides)

	require.Len(t, s.SeriesHistory, 1)
	assert.Equal(t, 1, s.SeriesHistory[0].GameIndex)
	assert.Equal(t, engine.TeamA, s.SeriesHistory[0].BlueTeam)
	assert.Equal(t, []string{"ahri"}, s.SeriesHistory[0].BluePicks)

	require.Len(t, s.History, 3)
	assert.Equal(t, "yasuo", s.History[1].ItemID)
	assert.Equal(t, &engine.SwapData{From: 0, To: 3}, s.History[2].Swap)
	assert.Equal(t, 3, s.LastActionSeq, "seq is raised to the newest logged action")

	assert.NotNil(t, s.RedBans)
	assert.NotNil(t, s.BluePicks)
	assert.Equal(t, []string{"yasuo"}, s.BlueBans)
}

func TestDecodeLegacyDecidedSeriesClearsSelector(t *testing.T) {
	legacy := `{"seriesMode":"BO1","status":"FINISHED","phase":"FINISHED","teamA":{"name":"A","wins":1},"teamB":{"name":"B","wins":0},"nextSideSelector":null}`
	s, err := DecodeState([]byte(legacy))
	require.NoError(t, err)
	assert.Equal(t, engine.RoleNone, s.NextSideSelector)
}

func TestUpgradeFillsDefaults(t *testing.T) {
	s := Upgrade(engine.State{TimeLimit: -5, PriorityTeam: engine.TeamA})
	assert.Equal(t, engine.DefaultMatchTitle, s.MatchTitle)
	assert.Equal(t, engine.SeriesBO1, s.SeriesMode)
	assert.Equal(t, engine.DraftStandard, s.DraftMode)
	assert.Equal(t, engine.DefaultTimeLimit, s.TimeLimit)
	assert.Equal(t, engine.DefaultTeamAName, s.TeamA.Name)
	assert.Equal(t, 1, s.CurrentGame)
	assert.Equal(t, engine.StatusNotStarted, s.Status)
	assert.Equal(t, engine.PhaseDraft, s.Phase)
	assert.Equal(t, engine.TeamNone, s.PriorityTeam, "priority only applies with separation on")
	assert.NotNil(t, s.BlueBans)
	assert.NotNil(t, s.SeriesHistory)
	assert.NotNil(t, s.History)
}

func TestDecodeActionLegacyPayload(t *testing.T) {
	a, err := DecodeAction([]byte(`{"seq":4,"type":"SET_SIDES","actorRole":"TEAM_B","payload":{"type":"SET_SIDES","sideForA":"RED","bpFirstTeam":"TEAM_A"}}`))
	require.NoError(t, err)
	require.NotNil(t, a.Payload)
	assert.Equal(t, engine.SideRed, a.Payload.SideForA)
	assert.Equal(t, engine.TeamA, a.Payload.PriorityTeam)

	b, err := EncodeAction(a)
	require.NoError(t, err)
	back, err := DecodeAction(b)
	require.NoError(t, err)
	assert.Equal(t, a, back)
}
