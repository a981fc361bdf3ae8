package engine

// Reduce is the pure transition table: it returns the state after a. It
// does not touch timer fields beyond what a transition itself implies and
// does not append to History; Apply and Replay own those.
func Reduce(s State, a DraftAction) State {
	next := s.clone()
	next.LastActionSeq = a.Seq
	p := a.payload()

	switch a.Type {
	case ActionSetSides:
		sideA := p.SideForA
		next.Sides = Sides{TeamA: sideA, TeamB: sideA.Opposite()}
		next.PriorityTeam = TeamNone
		if next.PrioritySeparate && p.PriorityTeam.Valid() {
			next.PriorityTeam = p.PriorityTeam
		}
		next.BlueReady = false
		next.RedReady = false

	case ActionToggleReady:
		switch a.Side {
		case SideBlue:
			next.BlueReady = !next.BlueReady
		case SideRed:
			next.RedReady = !next.RedReady
		}

	case ActionStartGame:
		next.Status = StatusRunning

	case ActionReportResult:
		reportResult(s, &next, p.Winner)

	case ActionResetGame:
		fresh := NewState(ConfigOf(s))
		fresh.LastActionSeq = a.Seq
		return fresh

	case ActionPauseGame:
		next.Paused = true
		next.PauseReason = a.Reason

	case ActionResumeGame:
		next.Paused = false
		next.PauseReason = ""

	case ActionBan:
		if a.Side == SideBlue {
			next.BlueBans = append(next.BlueBans, a.ItemID)
		} else {
			next.RedBans = append(next.RedBans, a.ItemID)
		}
		next.DraftStepIndex++

	case ActionPick:
		if a.Side == SideBlue {
			next.BluePicks = append(next.BluePicks, a.ItemID)
		} else {
			next.RedPicks = append(next.RedPicks, a.ItemID)
		}
		next.DraftStepIndex++

	case ActionSwap:
		if a.Swap != nil {
			list := next.RedPicks
			if a.Side == SideBlue {
				list = next.BluePicks
			}
			if inRange(a.Swap.From, len(list)) && inRange(a.Swap.To, len(list)) {
				list[a.Swap.From], list[a.Swap.To] = list[a.Swap.To], list[a.Swap.From]
			}
		}

	case ActionFinishSwap:
		next.Phase = PhaseFinished
		next.Status = StatusFinished
		next.StepEndsAt = 0
	}

	if next.Status == StatusRunning && next.Phase == PhaseDraft && next.DraftStepIndex >= len(DraftSequence) {
		next.Phase = PhaseSwap
	}

	next.StepIndex = a.StepIndex + 1
	return next
}

// reportResult records the finished game and either opens the next game or
// freezes the series.
func reportResult(prev State, next *State, winner TeamID) {
	if winner == TeamA {
		next.TeamA.Wins++
	} else {
		next.TeamB.Wins++
	}

	record := GameResultSnapshot{
		GameIndex: prev.CurrentGame,
		Winner:    winner,
		BlueTeam:  prev.Sides.TeamOn(SideBlue),
		RedTeam:   prev.Sides.TeamOn(SideRed),
		BlueBans:  cloneStrings(prev.BlueBans),
		RedBans:   cloneStrings(prev.RedBans),
		BluePicks: cloneStrings(prev.BluePicks),
		RedPicks:  cloneStrings(prev.RedPicks),
	}
	next.SeriesHistory = append(next.SeriesHistory, record)

	if SeriesDecided(*next) {
		next.NextSideSelector = RoleNone
		return
	}

	next.CurrentGame++
	next.Status = StatusNotStarted
	next.Phase = PhaseDraft
	next.DraftStepIndex = 0
	next.BlueBans = []string{}
	next.RedBans = []string{}
	next.BluePicks = []string{}
	next.RedPicks = []string{}
	next.BlueReady = false
	next.RedReady = false
	next.StepEndsAt = 0
	next.PriorityTeam = TeamNone
	next.Sides = Sides{}
	next.NextSideSelector = Role(winner.Other())
}
