package engine

// DraftSequence is the fixed 20-step order, written for a game where the
// BLUE side holds draft priority.
var DraftSequence = []DraftStep{
	// Ban Phase 1
	{Index: 0, Side: SideBlue, Kind: ActionBan},
	{Index: 1, Side: SideRed, Kind: ActionBan},
	{Index: 2, Side: SideBlue, Kind: ActionBan},
	{Index: 3, Side: SideRed, Kind: ActionBan},
	{Index: 4, Side: SideBlue, Kind: ActionBan},
	{Index: 5, Side: SideRed, Kind: ActionBan},
	// Pick Phase 1
	{Index: 6, Side: SideBlue, Kind: ActionPick},
	{Index: 7, Side: SideRed, Kind: ActionPick},
	{Index: 8, Side: SideRed, Kind: ActionPick},
	{Index: 9, Side: SideBlue, Kind: ActionPick},
	{Index: 10, Side: SideBlue, Kind: ActionPick},
	{Index: 11, Side: SideRed, Kind: ActionPick},
	// Ban Phase 2
	{Index: 12, Side: SideRed, Kind: ActionBan},
	{Index: 13, Side: SideBlue, Kind: ActionBan},
	{Index: 14, Side: SideRed, Kind: ActionBan},
	{Index: 15, Side: SideBlue, Kind: ActionBan},
	// Pick Phase 2
	{Index: 16, Side: SideRed, Kind: ActionPick},
	{Index: 17, Side: SideBlue, Kind: ActionPick},
	{Index: 18, Side: SideBlue, Kind: ActionPick},
	{Index: 19, Side: SideRed, Kind: ActionPick},
}

// prioritySide is the color that occupies the BLUE slots of DraftSequence.
func prioritySide(s State) Side {
	if !s.PrioritySeparate || s.PriorityTeam == TeamNone {
		return SideBlue
	}
	if side := s.Sides.Of(s.PriorityTeam); side != SideNone {
		return side
	}
	return SideBlue
}

// CurrentStep returns the step to be played next. ok is false once the
// draft is exhausted.
func CurrentStep(s State) (step DraftStep, ok bool) {
	if s.DraftStepIndex < 0 || s.DraftStepIndex >= len(DraftSequence) {
		return DraftStep{}, false
	}
	step = DraftSequence[s.DraftStepIndex]
	if prioritySide(s) == SideRed {
		step.Side = step.Side.Opposite()
	}
	return step, true
}
