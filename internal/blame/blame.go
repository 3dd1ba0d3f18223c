// Package blame implements the party mode's turn-rotation sub-state-machine:
// who currently points the finger, at whom, and the append-only record of
// every blame in the game.
package blame

import (
	"fmt"
	"sort"
	"time"

	"github.com/mgerste/blamewheel/internal/engine"
)

// MinPlayers is the floor for this mode. With three players a freshly blamed
// player still has at least two valid targets, so the game can never force a
// self-blame or degenerate into two-player ping-pong.
const MinPlayers = 3

// Stage is the sub-state within the play phase.
type Stage string

const (
	StageSelecting Stage = "selecting" // awaiting the active player's target choice
	StageReveal    Stage = "reveal"    // target chosen, awaiting acknowledgement
)

// Player identity is stable for the session. Score and Streak mutate as
// blames land.
type Player struct {
	ID     string
	Name   string
	Score  int
	Streak int
}

// LogEntry records one successful blame. The log is append-only; entries are
// never mutated or deleted.
type LogEntry struct {
	From     string
	To       string
	Question string
	At       time.Time
}

// Engine tracks the active-player pointer, the blame log and the blame stage.
// The roster is frozen into a stable player order at construction and its
// membership and order never change mid-game. All mutation happens through
// SelectTarget and AdvanceTurn.
type Engine struct {
	order    []Player
	indexOf  map[string]int
	active   int
	stage    Stage
	log      []LogEntry
	stats    map[string]int
	blamer   string
	blamed   string
	question string

	now func() time.Time
}

// NewEngine freezes the roster and starts in the selecting stage with the
// first player active. Fewer than MinPlayers fails with
// ErrInsufficientPlayers.
func NewEngine(roster []Player) (*Engine, error) {
	if len(roster) < MinPlayers {
		return nil, fmt.Errorf("%w: have %d, need %d", engine.ErrInsufficientPlayers, len(roster), MinPlayers)
	}
	order := make([]Player, len(roster))
	copy(order, roster)
	indexOf := make(map[string]int, len(order))
	for i, p := range order {
		indexOf[p.ID] = i
	}
	return &Engine{
		order:   order,
		indexOf: indexOf,
		stage:   StageSelecting,
		stats:   make(map[string]int),
		now:     time.Now,
	}, nil
}

func (e *Engine) Stage() Stage { return e.stage }

// ActivePlayer returns the player whose turn it is to blame.
func (e *Engine) ActivePlayer() Player { return e.order[e.active] }

// Players returns a copy of the stable player order snapshot.
func (e *Engine) Players() []Player {
	out := make([]Player, len(e.order))
	copy(out, e.order)
	return out
}

// CurrentBlame reports the recorded blamer, blamed and question while in the
// reveal stage.
func (e *Engine) CurrentBlame() (from, to, question string) {
	return e.blamer, e.blamed, e.question
}

// SelectTarget records the active player blaming targetID over question. The
// active player can never be their own target; that and out-of-roster ids
// fail with ErrInvalidTarget, state unchanged.
func (e *Engine) SelectTarget(targetID, question string) error {
	idx, ok := e.indexOf[targetID]
	if !ok {
		return fmt.Errorf("%w: %q is not in the game", engine.ErrInvalidTarget, targetID)
	}
	if idx == e.active {
		return fmt.Errorf("%w: cannot blame yourself", engine.ErrInvalidTarget)
	}

	active := e.order[e.active]
	e.log = append(e.log, LogEntry{
		From:     active.ID,
		To:       targetID,
		Question: question,
		At:       e.now(),
	})
	e.stats[targetID]++
	e.bumpScore(idx)

	e.blamer = active.ID
	e.blamed = targetID
	e.question = question
	e.stage = StageReveal
	return nil
}

// AdvanceTurn hands the turn to whoever was just blamed and clears the blame
// context. The rotation is content-driven rather than round-robin: the blamed
// player points next.
func (e *Engine) AdvanceTurn() Player {
	e.active = e.indexOf[e.blamed]
	e.blamer, e.blamed, e.question = "", "", ""
	e.stage = StageSelecting
	return e.order[e.active]
}

// bumpScore credits a received blame and keeps the streak counters: the
// target's run of consecutive received blames grows, everyone else's resets.
func (e *Engine) bumpScore(idx int) {
	for i := range e.order {
		if i == idx {
			e.order[i].Score++
			e.order[i].Streak++
		} else {
			e.order[i].Streak = 0
		}
	}
}

// Log returns a copy of the blame log in append order.
func (e *Engine) Log() []LogEntry {
	out := make([]LogEntry, len(e.log))
	copy(out, e.log)
	return out
}

// Stats returns a copy of the target -> received-blame counts.
func (e *Engine) Stats() map[string]int {
	out := make(map[string]int, len(e.stats))
	for id, n := range e.stats {
		out[id] = n
	}
	return out
}

// MostBlamed returns every player id tied for the maximum received-blame
// count, sorted for determinism. Empty before the first blame.
func (e *Engine) MostBlamed() []string {
	max := 0
	for _, n := range e.stats {
		if n > max {
			max = n
		}
	}
	if max == 0 {
		return nil
	}
	var out []string
	for id, n := range e.stats {
		if n == max {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
