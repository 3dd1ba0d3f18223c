package engine

import "context"

// Result of a controller transition: stay in the current phase, go to another
// declared phase, or signal module completion to the host.
type ResultKind int

const (
	ResultStay ResultKind = iota
	ResultGoto
	ResultComplete
)

type Result struct {
	Kind ResultKind
	Next string
}

func Stay() Result          { return Result{Kind: ResultStay} }
func Goto(id string) Result { return Result{Kind: ResultGoto, Next: id} }
func Complete() Result      { return Result{Kind: ResultComplete} }

// Controller holds the per-phase transition function.
type Controller interface {
	Transition(action Action, payload Payload, ctx *Context) (Result, error)
}

// EnterHook is implemented by controllers that want an entry hook when their
// phase becomes current.
type EnterHook interface {
	OnEnter(ctx *Context)
}

// Context is the bundle handed to controllers and domain engines: the config,
// the dispatch function (assigned once during wiring), the event bus and the
// session identifiers. Everything but Dispatch is immutable.
type Context struct {
	Config   Config
	Dispatch func(Action, Payload) error
	Bus      *Bus
	PlayerID string
	RoomID   string
}

// Module declares ordered phases, screen bindings, a controllers map covering
// every phase id, and an async content bootstrap.
type Module interface {
	Config() Config
	Controllers() map[string]Controller
	Init(ctx context.Context) error
}

// maxHops bounds the synchronous transition chain a single external dispatch
// may trigger through re-entrant controller dispatches.
const maxHops = 10

// Dispatcher is the orchestration state machine. States are the declared
// phase ids in config order and the first declared phase is the initial
// state; there is no implicit terminal state.
type Dispatcher struct {
	config      Config
	controllers map[string]Controller
	bus         *Bus
	current     string
	depth       int
}

// NewDispatcher validates the config against the controllers map and starts
// at the initial phase.
func NewDispatcher(cfg Config, controllers map[string]Controller, bus *Bus) (*Dispatcher, error) {
	if err := cfg.Validate(controllers); err != nil {
		return nil, err
	}
	return &Dispatcher{
		config:      cfg,
		controllers: controllers,
		bus:         bus,
		current:     cfg.InitialPhase(),
	}, nil
}

// Current returns the current phase id.
func (d *Dispatcher) Current() string { return d.current }

// CurrentPhase returns the full current phase declaration.
func (d *Dispatcher) CurrentPhase() Phase {
	p, _ := d.config.phase(d.current)
	return p
}

// Dispatch resolves the controller for the current phase and applies its
// transition. An action outside the phase's allowed set never reaches the
// controller: it is a no-op that publishes exactly one ActionRejected event
// and returns normally, so a stray double-click cannot crash a session.
//
// Controllers may call ctx.Dispatch synchronously from their own Transition
// or OnEnter (auto-advance); the chain is bounded at maxHops per external
// call and overflows as ConfigError rather than looping forever.
func (d *Dispatcher) Dispatch(action Action, payload Payload, ctx *Context) error {
	if d.depth >= maxHops {
		return configErrorf("transition chain exceeded %d hops at phase %q", maxHops, d.current)
	}
	d.depth++
	defer func() { d.depth-- }()

	phase := d.CurrentPhase()
	if !phase.Allows(action) {
		d.bus.Publish(ActionRejected{Phase: d.current, Action: action})
		return nil
	}

	res, err := d.controllers[d.current].Transition(action, payload, ctx)
	if err != nil {
		return err
	}

	switch res.Kind {
	case ResultStay:
		return nil

	case ResultGoto:
		if _, ok := d.config.phase(res.Next); !ok {
			return configErrorf("transition from %q targets undeclared phase %q", d.current, res.Next)
		}
		d.bus.Publish(PhaseExited{Phase: d.current})
		d.current = res.Next
		if hook, ok := d.controllers[res.Next].(EnterHook); ok {
			hook.OnEnter(ctx)
		}
		d.bus.Publish(PhaseEntered{Phase: res.Next})
		return nil

	case ResultComplete:
		// Phase id stays put; handing control onward is the host's call.
		d.bus.Publish(ModuleCompleted{})
		return nil
	}
	return nil
}
