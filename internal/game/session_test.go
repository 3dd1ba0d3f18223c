package game

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mgerste/blamewheel/internal/engine"
	"github.com/mgerste/blamewheel/internal/party"
)

func writePool(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pool.json")
	data := "["
	for i := 0; i < n; i++ {
		if i > 0 {
			data += ","
		}
		data += `{"id":"q` + string(rune('0'+i)) + `","text":"question"}`
	}
	data += "]"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write pool: %v", err)
	}
	return path
}

func testModule(t *testing.T, questions int) *party.Module {
	t.Helper()
	cfg := party.NewConfig(engine.ContentConfig{}, engine.GameplayConfig{})
	return party.NewModule(cfg, party.FileSource{Path: writePool(t, questions)})
}

func readySession(t *testing.T, questions int, players ...string) (*Session, map[string]string) {
	t.Helper()
	sess, err := NewSession("TESTX", testModule(t, questions))
	if err != nil {
		t.Fatalf("should be able to create session: %v", err)
	}
	if err := sess.Init(context.Background()); err != nil {
		t.Fatalf("init should resolve: %v", err)
	}
	tokens := make(map[string]string)
	for _, name := range players {
		id, token, err := sess.Join(name)
		if err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
		tokens[name] = token
		if sess.PlayerIDByToken(token) != id {
			t.Fatal("token should resolve to player id")
		}
	}
	return sess, tokens
}

func TestDispatchBeforeInitFailsNotReady(t *testing.T) {
	sess, err := NewSession("TESTX", testModule(t, 3))
	if err != nil {
		t.Fatalf("should be able to create session: %v", err)
	}

	err = sess.Dispatch(engine.ActionAdvance, engine.Payload{})
	if !errors.Is(err, engine.ErrNotReady) {
		t.Fatalf("expected ErrNotReady before init, got %v", err)
	}
}

func TestOverlappingInitCollapses(t *testing.T) {
	loads := 0
	mod := party.NewModule(
		party.NewConfig(engine.ContentConfig{}, engine.GameplayConfig{}),
		countingSource{loads: &loads},
	)
	sess, err := NewSession("TESTX", mod)
	if err != nil {
		t.Fatalf("should be able to create session: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sess.Init(context.Background()); err != nil {
				t.Errorf("init: %v", err)
			}
		}()
	}
	wg.Wait()

	if loads != 1 {
		t.Fatalf("overlapping init calls must collapse into one load, got %d", loads)
	}
}

type countingSource struct{ loads *int }

func (s countingSource) Load(context.Context) ([]party.Question, error) {
	*s.loads++ // Init single-flights, so no race here
	return []party.Question{{ID: "q1", Text: "question"}}, nil
}

func TestFullGameThroughSession(t *testing.T) {
	sess, _ := readySession(t, 2, "alice", "bob", "carol")

	steps := []engine.Action{engine.ActionAdvance, engine.ActionAdvance} // intro -> setup -> play
	for _, a := range steps {
		if err := sess.Dispatch(a, engine.Payload{}); err != nil {
			t.Fatalf("dispatch %s: %v", a, err)
		}
	}
	if sess.Phase() != party.PhasePlay {
		t.Fatalf("expected play, got %q", sess.Phase())
	}

	view := sess.View()
	if view.Stage != "selecting" {
		t.Fatalf("expected selecting stage, got %q", view.Stage)
	}
	if view.Question == nil {
		t.Fatal("play view must carry the current question")
	}
	if view.Total != 2 {
		t.Fatalf("expected 2 questions, got %d", view.Total)
	}

	// two blame cycles exhaust the pool
	for cycle := 0; cycle < 2; cycle++ {
		view = sess.View()
		target := ""
		for _, p := range view.Players {
			if p.ID != view.ActiveID {
				target = p.ID
				break
			}
		}
		if err := sess.Dispatch(engine.ActionSelectTarget, engine.Payload{Target: target}); err != nil {
			t.Fatalf("cycle %d select: %v", cycle, err)
		}
		if err := sess.Dispatch(engine.ActionAdvance, engine.Payload{}); err != nil {
			t.Fatalf("cycle %d advance: %v", cycle, err)
		}
	}

	if sess.Phase() != party.PhaseSummary {
		t.Fatalf("expected summary after pool exhaustion, got %q", sess.Phase())
	}
	if len(sess.BlameLog()) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(sess.BlameLog()))
	}
	if len(sess.MostBlamed()) == 0 {
		t.Fatal("summary must expose the most blamed set")
	}
}

func TestSessionEventsReachSubscribers(t *testing.T) {
	sess, _ := readySession(t, 2, "alice", "bob", "carol")

	var entered []string
	sess.Subscribe(engine.KindPhaseEntered, func(ev engine.Event) {
		entered = append(entered, ev.(engine.PhaseEntered).Phase)
	})

	if err := sess.Dispatch(engine.ActionAdvance, engine.Payload{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(entered) != 1 || entered[0] != party.PhaseSetup {
		t.Fatalf("expected [setup], got %v", entered)
	}
}

func TestLeaveOnlyBeforeStart(t *testing.T) {
	sess, tokens := readySession(t, 2, "alice", "bob", "carol")

	if err := sess.Leave(tokens["carol"]); err != nil {
		t.Fatalf("leaving before start should work: %v", err)
	}
	if len(sess.View().Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(sess.View().Players))
	}

	// refill and start
	if _, _, err := sess.Join("carol"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	_ = sess.Dispatch(engine.ActionAdvance, engine.Payload{})
	_ = sess.Dispatch(engine.ActionAdvance, engine.Payload{})

	if err := sess.Leave(tokens["alice"]); err == nil {
		t.Fatal("leaving a running game must fail")
	}
	if _, _, err := sess.Join("late"); err == nil {
		t.Fatal("joining a running game must fail")
	}
}

func TestRoomManager(t *testing.T) {
	rm := NewRoomManager(func() *party.Module {
		return party.NewModule(
			party.NewConfig(engine.ContentConfig{}, engine.GameplayConfig{}),
			party.FileSource{},
		)
	})

	sess, err := rm.CreateSession()
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.Code == "" || sess.HostToken == "" {
		t.Fatal("session must carry join code and host token")
	}

	got, err := rm.Get(sess.Code)
	if err != nil || got != sess {
		t.Fatalf("expected stored session, got %v (%v)", got, err)
	}

	code, active := rm.Active()
	if code != sess.Code || active != sess {
		t.Fatal("created session should be active")
	}

	if _, err := rm.Get("NOPE!"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	rm.Remove(sess.Code)
	if _, err := rm.Get(sess.Code); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("removed session must be gone")
	}
	if code, _ := rm.Active(); code != "" {
		t.Fatal("removing the active session must clear it")
	}
}

func TestExportSession(t *testing.T) {
	sess, _ := readySession(t, 1, "alice", "bob", "carol")
	_ = sess.Dispatch(engine.ActionAdvance, engine.Payload{})
	_ = sess.Dispatch(engine.ActionAdvance, engine.Payload{})

	view := sess.View()
	target := ""
	for _, p := range view.Players {
		if p.ID != view.ActiveID {
			target = p.ID
			break
		}
	}
	_ = sess.Dispatch(engine.ActionSelectTarget, engine.Payload{Target: target})
	_ = sess.Dispatch(engine.ActionAdvance, engine.Payload{})
	if sess.Phase() != party.PhaseSummary {
		t.Fatalf("expected summary, got %q", sess.Phase())
	}

	file := filepath.Join(t.TempDir(), "results", "out.txt")
	if err := ExportSession(sess, file); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	text := string(data)
	for _, want := range []string{"Session TESTX", "alice", "Most blamed:"} {
		if !strings.Contains(text, want) {
			t.Fatalf("export missing %q:\n%s", want, text)
		}
	}
}
