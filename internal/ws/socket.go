package ws

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/mgerste/blamewheel/internal/config"
	"github.com/mgerste/blamewheel/internal/engine"
	"github.com/mgerste/blamewheel/internal/game"
	"github.com/mgerste/blamewheel/internal/party"
)

type ConnCtx struct {
	Code  string
	Token string
	Role  string // "host" | "player"
}

type Server struct {
	RM     *game.RoomManager
	io     *socketio.Server
	config config.Config

	mu      sync.RWMutex
	members map[string]map[string]socketio.Conn // sessionCode -> socketID -> Conn
}

func New(rm *game.RoomManager, cfg config.Config) *Server {
	return &Server{RM: rm, members: make(map[string]map[string]socketio.Conn), config: cfg}
}

// Mount attaches Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)
	srv.io = io

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	// game:create
	io.OnEvent("/", "game:create", func(s socketio.Conn) map[string]any {
		sess, err := srv.RM.CreateSession()
		if err != nil {
			return srv.err(s, "config_error", err.Error())
		}
		s.SetContext(&ConnCtx{Code: sess.Code, Token: sess.HostToken, Role: "host"})
		s.Join(sess.Code)
		srv.addMember(sess.Code, s)
		srv.watch(sess)
		log.Info().Str("sid", s.ID()).Str("code", sess.Code).Msg("game:create")
		srv.emitStateTo(sess.Code)
		return map[string]any{"sessionCode": sess.Code, "hostToken": sess.HostToken}
	})

	// game:join
	io.OnEvent("/", "game:join", func(s socketio.Conn, payload struct {
		SessionCode string `json:"sessionCode"`
		Name        string `json:"name"`
	}) map[string]any {
		sess, err := srv.RM.Get(payload.SessionCode)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found")
		}
		playerID, playerToken, err := sess.Join(payload.Name)
		if err != nil {
			return srv.err(s, "game_in_progress", err.Error())
		}
		s.SetContext(&ConnCtx{Code: payload.SessionCode, Token: playerToken, Role: "player"})
		s.Join(payload.SessionCode)
		srv.addMember(payload.SessionCode, s)
		log.Info().Str("sid", s.ID()).Str("code", payload.SessionCode).Str("playerId", playerID).Msg("game:join")
		srv.emitStateTo(payload.SessionCode)
		return map[string]any{"playerToken": playerToken, "playerId": playerID}
	})

	// game:resume (reconnection)
	io.OnEvent("/", "game:resume", func(s socketio.Conn, payload struct {
		SessionCode string `json:"sessionCode"`
		Role        string `json:"role"`
		Token       string `json:"token"`
	}) map[string]any {
		sess, err := srv.RM.Get(payload.SessionCode)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found")
		}
		if payload.Role == "host" {
			if payload.Token != sess.HostToken {
				return srv.err(s, "unauthorized", "Invalid host token")
			}
		} else if sess.PlayerIDByToken(payload.Token) == "" {
			return srv.err(s, "unauthorized", "Invalid player token")
		}
		s.SetContext(&ConnCtx{Code: payload.SessionCode, Token: payload.Token, Role: payload.Role})
		s.Join(payload.SessionCode)
		srv.addMember(payload.SessionCode, s)
		log.Info().Str("sid", s.ID()).Str("code", payload.SessionCode).Str("role", payload.Role).Msg("game:resume")
		s.Emit("game:state", srv.statePayload(sess, s))
		srv.emitStateTo(payload.SessionCode)
		return map[string]any{"ok": true}
	})

	// game:leave (only possible before game start)
	io.OnEvent("/", "game:leave", func(s socketio.Conn) map[string]any {
		ctx := s.Context().(*ConnCtx)
		sess, err := srv.RM.Get(ctx.Code)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found")
		}
		if err := sess.Leave(ctx.Token); err != nil {
			return srv.err(s, "game_in_progress", err.Error())
		}
		srv.emitStateTo(ctx.Code)
		return map[string]any{"ok": true}
	})

	// game:action - the single dispatch entry point for the UI layer
	io.OnEvent("/", "game:action", func(s socketio.Conn, payload struct {
		Action string         `json:"action"`
		Target string         `json:"target,omitempty"`
		Data   map[string]any `json:"data,omitempty"`
	}) map[string]any {
		ctx := s.Context().(*ConnCtx)
		sess, err := srv.RM.Get(ctx.Code)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found")
		}
		action, ok := parseAction(payload.Action)
		if !ok {
			return srv.err(s, "bad_request", "Unknown action")
		}

		before := sess.Phase()
		dispatchErr := sess.Dispatch(action, engine.Payload{Target: payload.Target, Data: payload.Data})
		if dispatchErr != nil {
			return srv.dispatchErr(s, dispatchErr)
		}
		after := sess.Phase()
		if before != after {
			log.Info().Str("code", ctx.Code).Str("from", before).Str("to", after).Msg("phase transition")
		}

		// Export results when a game reaches its summary.
		if after == party.PhaseSummary && before != party.PhaseSummary && srv.config.Export.Enabled {
			if exportErr := game.ExportSession(sess, srv.config.Export.File); exportErr != nil {
				log.Error().Err(exportErr).Str("code", ctx.Code).Msg("failed to export game data")
			} else {
				log.Info().Str("code", ctx.Code).Str("file", srv.config.Export.File).Msg("exported game data")
			}
		}

		srv.emitStateTo(ctx.Code)
		return map[string]any{"ok": true}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.Code != "" {
			srv.removeMember(ctx.Code, s)
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// Watch forwards engine lifecycle events for sess to its room. Exposed so the
// HTTP create path can register fanout too.
func (srv *Server) Watch(sess *game.Session) { srv.watch(sess) }

func (srv *Server) watch(sess *game.Session) {
	for _, kind := range []engine.EventKind{
		engine.KindPhaseEntered,
		engine.KindPhaseExited,
		engine.KindActionRejected,
		engine.KindModuleCompleted,
		engine.KindContentAdvanced,
	} {
		sess.Subscribe(kind, func(ev engine.Event) {
			srv.io.BroadcastToRoom("/", sess.Code, "game:event", eventPayload(ev))
		})
	}
}

func eventPayload(ev engine.Event) map[string]any {
	out := map[string]any{"kind": string(ev.EventKind())}
	switch e := ev.(type) {
	case engine.PhaseEntered:
		out["phase"] = e.Phase
	case engine.PhaseExited:
		out["phase"] = e.Phase
	case engine.ActionRejected:
		out["phase"] = e.Phase
		out["action"] = string(e.Action)
	case engine.ContentAdvanced:
		out["index"] = e.Index
	}
	return out
}

func parseAction(raw string) (engine.Action, bool) {
	switch a := engine.Action(raw); a {
	case engine.ActionAdvance, engine.ActionBack, engine.ActionSelectTarget,
		engine.ActionReveal, engine.ActionRestart, engine.ActionCustom:
		return a, true
	default:
		return "", false
	}
}

func (srv *Server) dispatchErr(s socketio.Conn, err error) map[string]any {
	var cfgErr *engine.ConfigError
	switch {
	case errors.Is(err, engine.ErrNotReady):
		return srv.err(s, "not_ready", "Content is still loading")
	case errors.Is(err, engine.ErrInvalidTarget):
		return srv.err(s, "invalid_target", err.Error())
	case errors.Is(err, engine.ErrInsufficientPlayers):
		return srv.err(s, "not_enough_players", err.Error())
	case errors.As(err, &cfgErr):
		return srv.err(s, "config_error", err.Error())
	default:
		return srv.err(s, "bad_request", err.Error())
	}
}

// Connection handlers run on per-connection goroutines, so the members map
// needs the same RWMutex guard the room manager uses.
func (srv *Server) addMember(code string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[code] == nil {
		srv.members[code] = make(map[string]socketio.Conn)
	}
	srv.members[code][c.ID()] = c
}

func (srv *Server) removeMember(code string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.members[code]; m != nil {
		delete(m, c.ID())
	}
}

func (srv *Server) roomMembers(code string) []socketio.Conn {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	out := make([]socketio.Conn, 0, len(srv.members[code]))
	for _, c := range srv.members[code] {
		out = append(out, c)
	}
	return out
}

func (srv *Server) emitStateTo(code string) {
	sess, err := srv.RM.Get(code)
	if err != nil {
		return
	}
	for _, c := range srv.roomMembers(code) {
		c.Emit("game:state", srv.statePayload(sess, c))
	}
}

func (srv *Server) statePayload(sess *game.Session, c socketio.Conn) map[string]any {
	ctx, _ := c.Context().(*ConnCtx)
	you := map[string]any{}
	if ctx != nil {
		you["role"] = ctx.Role
		if ctx.Role == "player" {
			if id := sess.PlayerIDByToken(ctx.Token); id != "" {
				you["playerId"] = id
			}
		}
	}
	return map[string]any{"state": sess.View(), "you": you}
}

func (srv *Server) err(s socketio.Conn, code, message string) map[string]any {
	s.Emit("error", map[string]any{"code": code, "message": message})
	return map[string]any{"error": message}
}
