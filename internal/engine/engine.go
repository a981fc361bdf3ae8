package engine

import (
	"math/rand/v2"
	"sync"
	"time"
)

type Outcome int

const (
	// Ignored means no legal action could be built from the intent.
	Ignored Outcome = iota
	// Committed means Result.Action was appended and Result.State is new.
	Committed
	// Rejected means validation failed; Result.Err says why.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Rejected:
		return "rejected"
	default:
		return "ignored"
	}
}

// Result is what Apply and Submit return. State is always usable: on
// Ignored or Rejected it is the input state.
type Result struct {
	Outcome Outcome
	State   State
	Action  DraftAction
	Err     error
}

// Engine resolves intents into committed actions. It holds the item catalog
// and the random source used for "random" picks; everything else is pure.
type Engine struct {
	catalog []string

	mu  sync.Mutex
	rng *rand.Rand
}

// New returns an engine over catalog. A nil src gets a time-seeded source.
func New(catalog []string, src rand.Source) *Engine {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &Engine{
		catalog: cloneStrings(catalog),
		rng:     rand.New(src),
	}
}

// NewSeeded returns an engine whose random choices are reproducible.
func NewSeeded(catalog []string, seed uint64) *Engine {
	return New(catalog, rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (e *Engine) Catalog() []string { return cloneStrings(e.catalog) }

// Submit validates in and applies it.
func (e *Engine) Submit(s State, in Intent, now time.Time) Result {
	if err := Validate(s, in); err != nil {
		return Result{Outcome: Rejected, State: s, Err: err}
	}
	return e.Apply(s, in, now)
}

// Apply builds the canonical action for in and commits it. Callers are
// expected to have run Validate; Apply only refuses what it cannot build.
func (e *Engine) Apply(s State, in Intent, now time.Time) Result {
	action, ok := e.buildAction(s, in)
	if !ok {
		return Result{Outcome: Ignored, State: s}
	}

	next := Reduce(s, action)
	nowMs := now.UnixMilli()

	switch {
	case action.Type == ActionPauseGame:
		if s.Paused {
			next.PausedAt = s.PausedAt
		} else {
			next.PausedAt = nowMs
		}
	case action.Type == ActionResumeGame:
		if s.PausedAt != 0 {
			if s.StepEndsAt > 0 {
				next.StepEndsAt = s.StepEndsAt + (nowMs - s.PausedAt)
			}
			next.PausedAt = 0
		}
	case next.Status == StatusRunning && next.Phase != PhaseFinished && !next.Paused:
		if opensTurn(action.Type) {
			next.StepEndsAt = deadline(s.TimeLimit, nowMs)
		} else {
			next.StepEndsAt = s.StepEndsAt
		}
	case next.Phase == PhaseFinished:
		next.StepEndsAt = 0
	}

	next.History = append(cloneActions(s.History), action)
	return Result{Outcome: Committed, State: next, Action: action}
}

// opensTurn lists the actions after which a new turn clock starts. The last
// pick of the draft also opens the SWAP window.
func opensTurn(t ActionType) bool {
	return t == ActionStartGame || t == ActionBan || t == ActionPick
}

func deadline(limitSec int, nowMs int64) int64 {
	if limitSec <= 0 {
		return 0
	}
	return nowMs + int64(limitSec)*1000
}

func (e *Engine) buildAction(s State, in Intent) (DraftAction, bool) {
	base := DraftAction{
		Seq:       s.LastActionSeq + 1,
		StepIndex: s.StepIndex,
		ActorRole: in.ActorRole,
	}

	if isMeta(in.Type) {
		base.Type = in.Type
		base.Side = in.Side
		base.Reason = in.Reason
		base.Payload = in.clone()
		return base, true
	}

	if s.Status != StatusRunning || s.Paused {
		return DraftAction{}, false
	}

	switch s.Phase {
	case PhaseDraft:
		step, ok := CurrentStep(s)
		if !ok || in.ItemID == "" {
			return DraftAction{}, false
		}
		if in.Type != "" && in.Type != ActionBan && in.Type != ActionPick {
			return DraftAction{}, false
		}
		item := in.ItemID
		if item == ItemRandom {
			item = e.randomItem(s)
		}
		base.Type = step.Kind
		base.Side = step.Side
		base.ItemID = item
		return base, true

	case PhaseSwap:
		switch in.Type {
		case ActionSwap:
			if in.Swap == nil {
				return DraftAction{}, false
			}
			sw := *in.Swap
			base.Type = ActionSwap
			base.Side = in.Side
			base.Swap = &sw
			return base, true
		case ActionFinishSwap:
			base.Type = ActionFinishSwap
			return base, true
		}
	}
	return DraftAction{}, false
}

// randomItem samples uniformly from the catalog minus items used this game
// and fearless-locked items. An exhausted pool yields ItemNone.
func (e *Engine) randomItem(s State) string {
	used := UsedItems(s)
	locked := FearlessItems(s)
	pool := make([]string, 0, len(e.catalog))
	for _, id := range e.catalog {
		if _, ok := used[id]; ok {
			continue
		}
		if _, ok := locked[id]; ok {
			continue
		}
		pool = append(pool, id)
	}
	if len(pool) == 0 {
		return ItemNone
	}
	e.mu.Lock()
	i := e.rng.IntN(len(pool))
	e.mu.Unlock()
	return pool[i]
}
