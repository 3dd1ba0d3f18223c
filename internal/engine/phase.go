package engine

// Action is a discrete named intent dispatched into the engine by the UI
// layer. The vocabulary is closed.
type Action string

const (
	ActionAdvance      Action = "ADVANCE"
	ActionBack         Action = "BACK"
	ActionSelectTarget Action = "SELECT_TARGET"
	ActionReveal       Action = "REVEAL"
	ActionRestart      Action = "RESTART"
	ActionCustom       Action = "CUSTOM"
)

// Payload carries action arguments. SELECT_TARGET requires Target; CUSTOM may
// carry arbitrary data.
type Payload struct {
	Target string
	Data   map[string]any
}

// Phase binds one orchestration state to a renderable screen key and the set
// of actions permitted while it is current.
type Phase struct {
	ID             string
	ScreenID       string
	AllowedActions []Action
}

func (p Phase) Allows(a Action) bool {
	for _, allowed := range p.AllowedActions {
		if allowed == a {
			return true
		}
	}
	return false
}

// ContentConfig describes where the module's content sequence comes from.
type ContentConfig struct {
	Type    string // "file" or "ai"
	Source  string
	Shuffle bool
	Seed    int64 // 0 means time-seeded
}

// GameplayConfig holds mode settings read by the domain layer.
type GameplayConfig struct {
	MinPlayers int
}

// Config is created once at module load and immutable for the process
// lifetime. Screens maps opaque screen keys to renderer-owned values;
// rendering itself is out of scope here.
type Config struct {
	Phases   []Phase
	Screens  map[string]string
	Content  ContentConfig
	Gameplay GameplayConfig
}

// InitialPhase is the first declared phase. Valid only after Validate.
func (c Config) InitialPhase() string {
	return c.Phases[0].ID
}

func (c Config) phase(id string) (Phase, bool) {
	for _, p := range c.Phases {
		if p.ID == id {
			return p, true
		}
	}
	return Phase{}, false
}

// Validate checks the construction-time invariants: a non-empty phase list,
// unique phase ids, a screen binding for every phase, and full controller
// coverage. Violations surface as ConfigError here so they can never show up
// at dispatch time.
func (c Config) Validate(controllers map[string]Controller) error {
	if len(c.Phases) == 0 {
		return configErrorf("no phases declared")
	}
	seen := make(map[string]bool, len(c.Phases))
	for _, p := range c.Phases {
		if p.ID == "" {
			return configErrorf("phase with empty id")
		}
		if seen[p.ID] {
			return configErrorf("duplicate phase id %q", p.ID)
		}
		seen[p.ID] = true
		if p.ScreenID == "" {
			return configErrorf("phase %q has no screen binding", p.ID)
		}
		if _, ok := c.Screens[p.ScreenID]; !ok {
			return configErrorf("phase %q bound to unknown screen %q", p.ID, p.ScreenID)
		}
		if _, ok := controllers[p.ID]; !ok {
			return configErrorf("phase %q has no controller", p.ID)
		}
	}
	return nil
}
