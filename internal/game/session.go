package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mgerste/blamewheel/internal/blame"
	"github.com/mgerste/blamewheel/internal/engine"
	"github.com/mgerste/blamewheel/internal/party"
)

// Session owns one active module: the current phase id, the module context
// and the blame state all live here, and every external dispatch is
// serialized under the session mutex. Switching modules means building a
// fresh session; nothing is shared between two of them.
type Session struct {
	Code      string
	CreatedAt time.Time
	HostToken string

	mu         sync.Mutex
	module     *party.Module
	bus        *engine.Bus
	dispatcher *engine.Dispatcher
	mctx       *engine.Context

	playersByToken map[string]string // playerToken -> playerID

	initCh  chan struct{}
	initErr error
	ready   bool
}

// NewSession wires module, bus and dispatcher together. Config problems
// surface here as ConfigError, at registration time.
func NewSession(code string, mod *party.Module) (*Session, error) {
	bus := engine.NewBus()
	dispatcher, err := engine.NewDispatcher(mod.Config(), mod.Controllers(), bus)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Code:           code,
		CreatedAt:      time.Now().UTC(),
		HostToken:      uuid.NewString(),
		module:         mod,
		bus:            bus,
		dispatcher:     dispatcher,
		playersByToken: make(map[string]string),
	}
	s.mctx = &engine.Context{
		Config: mod.Config(),
		Bus:    bus,
		RoomID: code,
	}
	// Re-entrant dispatches from controllers run inside the already-held
	// session lock, so they go straight to the dispatcher.
	s.mctx.Dispatch = func(a engine.Action, p engine.Payload) error {
		return s.dispatcher.Dispatch(a, p, s.mctx)
	}
	return s, nil
}

// Init runs the module's content bootstrap. Overlapping calls collapse into
// the single in-flight load and all of them return its outcome. The load is
// all-or-nothing; nothing is cancellable mid-flight.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.initCh == nil {
		s.initCh = make(chan struct{})
		go s.runInit(ctx)
	}
	ch := s.initCh
	s.mu.Unlock()

	<-ch
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initErr
}

func (s *Session) runInit(ctx context.Context) {
	err := s.module.Init(ctx)
	s.mu.Lock()
	s.initErr = err
	s.ready = err == nil
	ch := s.initCh
	s.mu.Unlock()
	close(ch)
}

// Dispatch feeds one UI action into the engine. Before Init resolves it fails
// deterministically with ErrNotReady instead of being dropped.
func (s *Session) Dispatch(action engine.Action, payload engine.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return engine.ErrNotReady
	}
	return s.dispatcher.Dispatch(action, payload, s.mctx)
}

// Subscribe registers a renderer-side handler on the session bus.
func (s *Session) Subscribe(kind engine.EventKind, fn func(engine.Event)) func() {
	return s.bus.Subscribe(kind, fn)
}

// Join adds a player to the roster and hands back their identity plus the
// reconnection token. Joining a running game fails.
func (s *Session) Join(name string) (playerID, playerToken string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.module.AddPlayer(name)
	if err != nil {
		return "", "", err
	}
	token := uuid.NewString()
	s.playersByToken[token] = p.ID
	return p.ID, token, nil
}

// Leave removes a player; only possible before game start.
func (s *Session) Leave(playerToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.playersByToken[playerToken]
	if !ok {
		return nil
	}
	if err := s.module.RemovePlayer(id); err != nil {
		return err
	}
	delete(s.playersByToken, playerToken)
	return nil
}

// PlayerIDByToken resolves a reconnection token, empty if unknown.
func (s *Session) PlayerIDByToken(token string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playersByToken[token]
}

// PlayerView is the renderer-facing projection of a player.
type PlayerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Streak int    `json:"streak"`
}

// View is the renderer-facing snapshot. Renderers re-derive state from here
// after every event instead of reaching into engine internals.
type View struct {
	SessionCode string          `json:"sessionCode"`
	Ready       bool            `json:"ready"`
	Phase       string          `json:"phase"`
	Screen      string          `json:"screen"`
	Players     []PlayerView    `json:"players"`
	Stage       string          `json:"stage,omitempty"`
	ActiveID    string          `json:"activePlayerId,omitempty"`
	BlamerID    string          `json:"blamerId,omitempty"`
	BlamedID    string          `json:"blamedId,omitempty"`
	Question    *party.Question `json:"question,omitempty"`
	Index       int             `json:"questionIndex"`
	Total       int             `json:"questionTotal"`
	MostBlamed  []string        `json:"mostBlamed,omitempty"`
}

// View snapshots the session for fanout.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		SessionCode: s.Code,
		Ready:       s.ready,
		Phase:       s.dispatcher.Current(),
		Screen:      s.dispatcher.CurrentPhase().ScreenID,
	}
	for _, p := range s.module.Players() {
		v.Players = append(v.Players, PlayerView{ID: p.ID, Name: p.Name, Score: p.Score, Streak: p.Streak})
	}
	if chain := s.module.Chain(); chain != nil {
		v.Stage = string(chain.Stage())
		v.ActiveID = chain.ActivePlayer().ID
		from, to, _ := chain.CurrentBlame()
		v.BlamerID = from
		v.BlamedID = to
		v.MostBlamed = chain.MostBlamed()
	}
	if prov := s.module.Provider(); prov != nil {
		if q, ok := prov.Current(); ok && v.Phase == party.PhasePlay {
			question := q
			v.Question = &question
		}
		v.Index, v.Total = prov.Progress()
	}
	return v
}

// Phase returns the current phase id.
func (s *Session) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatcher.Current()
}

// BlameLog returns a copy of the append-only blame log, empty before start.
func (s *Session) BlameLog() []blame.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chain := s.module.Chain(); chain != nil {
		return chain.Log()
	}
	return nil
}

// MostBlamed returns the full name set tied for the blame maximum.
func (s *Session) MostBlamed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chain := s.module.Chain(); chain != nil {
		return chain.MostBlamed()
	}
	return nil
}
