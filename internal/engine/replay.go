package engine

import "time"

// Replay rebuilds a state by folding Reduce over history, starting from a
// fresh state built from seed. Draft lists, scores and series history come
// out identical to the live state; the turn clock restarts at now.
func Replay(history []DraftAction, now time.Time, seed MatchConfig) State {
	s := NewState(seed)
	for _, a := range history {
		s = Reduce(s, a)
	}
	s.History = cloneActions(history)

	nowMs := now.UnixMilli()
	s.PausedAt = 0
	switch {
	case s.Status == StatusRunning && s.Phase != PhaseFinished:
		s.StepEndsAt = deadline(s.TimeLimit, nowMs)
		if s.Paused {
			// The pause instant is not in the log; freeze a full turn from now.
			s.PausedAt = nowMs
		}
	default:
		s.StepEndsAt = 0
	}
	return s
}
