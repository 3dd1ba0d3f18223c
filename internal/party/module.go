// Package party wires the blame game into the orchestration engine: four
// declared phases, a controller per phase, and a question pool loaded during
// the async bootstrap.
package party

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mgerste/blamewheel/internal/blame"
	"github.com/mgerste/blamewheel/internal/content"
	"github.com/mgerste/blamewheel/internal/engine"
)

const (
	PhaseIntro   = "intro"
	PhaseSetup   = "setup"
	PhasePlay    = "play"
	PhaseSummary = "summary"
)

var ErrGameInProgress = errors.New("game already started")

// NewConfig declares the module's phases, screen bindings and per-phase
// allowed actions around the given content and gameplay settings.
func NewConfig(contentCfg engine.ContentConfig, gameplay engine.GameplayConfig) engine.Config {
	if gameplay.MinPlayers < blame.MinPlayers {
		gameplay.MinPlayers = blame.MinPlayers
	}
	return engine.Config{
		Phases: []engine.Phase{
			{ID: PhaseIntro, ScreenID: "intro", AllowedActions: []engine.Action{engine.ActionAdvance}},
			{ID: PhaseSetup, ScreenID: "setup", AllowedActions: []engine.Action{engine.ActionAdvance, engine.ActionBack}},
			{ID: PhasePlay, ScreenID: "game", AllowedActions: []engine.Action{engine.ActionSelectTarget, engine.ActionAdvance, engine.ActionRestart}},
			{ID: PhaseSummary, ScreenID: "summary", AllowedActions: []engine.Action{engine.ActionRestart, engine.ActionAdvance}},
		},
		Screens: map[string]string{
			"intro":   "IntroScreen",
			"setup":   "PlayerSetupScreen",
			"game":    "BlameScreen",
			"summary": "SummaryScreen",
		},
		Content:  contentCfg,
		Gameplay: gameplay,
	}
}

// Module is the blame party game. All mutable state is owned by the session
// that holds the module and is only touched inside its dispatch path, so the
// module itself carries no locking.
type Module struct {
	cfg      engine.Config
	source   Source
	provider *content.Provider[Question]
	chain    *blame.Engine
	roster   []blame.Player
}

func NewModule(cfg engine.Config, source Source) *Module {
	return &Module{cfg: cfg, source: source}
}

func (m *Module) Config() engine.Config { return m.cfg }

func (m *Module) Controllers() map[string]engine.Controller {
	return map[string]engine.Controller{
		PhaseIntro:   introController{m},
		PhaseSetup:   setupController{m},
		PhasePlay:    playController{m},
		PhaseSummary: summaryController{m},
	}
}

// Init loads the question pool and builds the content sequence. Loading is
// all-or-nothing; on error no provider exists and dispatches keep failing
// with ErrNotReady.
func (m *Module) Init(ctx context.Context) error {
	questions, err := m.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	m.provider = content.New(questions, content.Options{
		Shuffle: m.cfg.Content.Shuffle,
		Seed:    m.cfg.Content.Seed,
	})
	return nil
}

// Ready reports whether Init has resolved.
func (m *Module) Ready() bool { return m.provider != nil }

func (m *Module) started() bool { return m.chain != nil }

// AddPlayer registers a player before game start. Identity is stable for the
// session.
func (m *Module) AddPlayer(name string) (blame.Player, error) {
	if m.started() {
		return blame.Player{}, ErrGameInProgress
	}
	p := blame.Player{ID: uuid.NewString(), Name: name}
	m.roster = append(m.roster, p)
	return p, nil
}

// RemovePlayer drops a player from the roster. Removal is only possible
// before game start; once the stable order is frozen membership never
// changes.
func (m *Module) RemovePlayer(id string) error {
	if m.started() {
		return ErrGameInProgress
	}
	for i, p := range m.roster {
		if p.ID == id {
			m.roster = append(m.roster[:i:i], m.roster[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("player %q not in roster", id)
}

// Players returns the frozen order once the game is running, the editable
// roster before that.
func (m *Module) Players() []blame.Player {
	if m.started() {
		return m.chain.Players()
	}
	out := make([]blame.Player, len(m.roster))
	copy(out, m.roster)
	return out
}

// Chain exposes the running blame engine, nil before start.
func (m *Module) Chain() *blame.Engine { return m.chain }

// Provider exposes the content sequence, nil until Init resolves.
func (m *Module) Provider() *content.Provider[Question] { return m.provider }

// start freezes the roster into the blame engine. The configured floor may
// sit above the mode's hard minimum of three.
func (m *Module) start() error {
	if need := m.cfg.Gameplay.MinPlayers; len(m.roster) < need {
		return fmt.Errorf("%w: have %d, need %d", engine.ErrInsufficientPlayers, len(m.roster), need)
	}
	chain, err := blame.NewEngine(m.roster)
	if err != nil {
		return err
	}
	m.chain = chain
	return nil
}

// restart discards the running game but keeps the roster editable for the
// next one. The cursor rewinds without reshuffling.
func (m *Module) restart() {
	m.chain = nil
	if m.provider != nil {
		m.provider.Reset()
	}
}
