package engine

// Validate reports whether in may be applied to s. It never mutates s.
func Validate(s State, in Intent) error {
	switch in.ActorRole {
	case RoleNone:
		return ErrNoRole
	case RoleSpectator:
		return ErrSpectator
	case RoleReferee, RoleTeamA, RoleTeamB:
	default:
		return reject(KindAuthorization, "unknown role %q", in.ActorRole)
	}

	if isManagement(in.Type) {
		if in.ActorRole != RoleReferee {
			return ErrRefereeOnly
		}
		return validateManagement(s, in)
	}

	switch in.Type {
	case ActionSetSides:
		return validateSetSides(s, in)
	case ActionToggleReady:
		return validateToggleReady(s, in)
	}

	if s.Paused {
		return reject(KindStateConflict, "game is paused (%s)", s.PauseReason)
	}
	if s.Status != StatusRunning {
		return reject(KindStateConflict, "game is %s", s.Status)
	}

	switch s.Phase {
	case PhaseDraft:
		return validateDraftMove(s, in)
	case PhaseSwap:
		return validateSwapMove(s, in)
	}
	return ErrInvalidAction
}

func validateManagement(s State, in Intent) error {
	switch in.Type {
	case ActionStartGame:
		if s.Status != StatusNotStarted {
			return ErrAlreadyStarted
		}
		if !s.Sides.Assigned() {
			return ErrSidesNotSet
		}
		if s.PrioritySeparate && !s.PriorityTeam.Valid() {
			return ErrPriorityNotSet
		}
		if !s.BlueReady || !s.RedReady {
			return ErrNotReady
		}
	case ActionPauseGame:
		if s.Status != StatusRunning {
			return reject(KindStateConflict, "game is %s", s.Status)
		}
		if s.Paused {
			return ErrAlreadyPaused
		}
	case ActionResumeGame:
		if !s.Paused {
			return ErrNotPaused
		}
	case ActionReportResult:
		if !in.Winner.Valid() {
			return ErrBadTeam
		}
		if SeriesDecided(s) {
			return ErrSeriesOver
		}
		if s.Status != StatusFinished {
			return ErrGameNotOver
		}
	}
	return nil
}

func validateSetSides(s State, in Intent) error {
	if s.Status != StatusNotStarted {
		return reject(KindStateConflict, "cannot set sides after game started")
	}
	selector := s.NextSideSelector
	if selector == RoleNone {
		selector = RoleReferee
	}
	if in.ActorRole != selector && in.ActorRole != RoleReferee {
		return reject(KindAuthorization, "waiting for %s to select sides", selector)
	}
	if !in.SideForA.Valid() {
		return ErrBadSide
	}
	if s.PrioritySeparate && !in.PriorityTeam.Valid() {
		return ErrPriorityNotSet
	}
	return nil
}

func validateToggleReady(s State, in Intent) error {
	if s.Status != StatusNotStarted {
		return reject(KindStateConflict, "cannot toggle ready after game started")
	}
	if !s.Sides.Assigned() {
		return ErrSidesNotSet
	}
	if s.PrioritySeparate && !s.PriorityTeam.Valid() {
		return ErrPriorityNotSet
	}
	if !in.Side.Valid() {
		return ErrBadSide
	}
	if in.ActorRole != RoleReferee && SideOf(s, in.ActorRole) != in.Side {
		return ErrWrongSide
	}
	return nil
}

func validateDraftMove(s State, in Intent) error {
	switch in.Type {
	case "", ActionBan, ActionPick:
	default:
		return ErrInvalidAction
	}
	step, ok := CurrentStep(s)
	if !ok {
		return ErrDraftFinished
	}
	if in.ActorRole != RoleReferee {
		side := SideOf(s, in.ActorRole)
		if side == SideNone {
			return ErrNoSide
		}
		if step.Side != side {
			return ErrWrongTurn
		}
	}
	return validateItem(s, in.ItemID)
}

// validateItem applies to every actor: the referee skips turn order, not
// item integrity. A fearless item is refused for bans as well as picks.
func validateItem(s State, id string) error {
	if id == "" {
		return ErrMissingItem
	}
	if isSentinel(id) {
		return nil
	}
	if _, ok := FearlessItems(s)[id]; ok {
		return ErrFearlessItem
	}
	if _, ok := UsedItems(s)[id]; ok {
		return ErrItemUsed
	}
	return nil
}

func validateSwapMove(s State, in Intent) error {
	switch in.Type {
	case ActionSwap:
		if in.ActorRole != RoleReferee {
			side := SideOf(s, in.ActorRole)
			if side == SideNone {
				return ErrNoSide
			}
			if in.Side != side {
				return ErrWrongSide
			}
		}
		if !in.Side.Valid() {
			return ErrBadSide
		}
		picks := s.picksOf(in.Side)
		if in.Swap == nil || !inRange(in.Swap.From, len(picks)) || !inRange(in.Swap.To, len(picks)) {
			return ErrBadSwap
		}
		return nil
	case ActionFinishSwap:
		if in.ActorRole != RoleReferee {
			return ErrInvalidAction
		}
		return nil
	}
	return ErrInvalidAction
}

func inRange(i, n int) bool { return i >= 0 && i < n }
