package ws

import (
	"fmt"
	"sync"
	"testing"

	socketio "github.com/googollee/go-socket.io"

	"github.com/mgerste/blamewheel/internal/config"
)

// fakeConn stubs the connection surface the membership bookkeeping touches.
type fakeConn struct {
	socketio.Conn
	id string
}

func (c fakeConn) ID() string { return c.id }

func TestConcurrentMembershipChurn(t *testing.T) {
	srv := New(nil, config.Config{})
	const rooms = 4
	const perRoom = 25

	var wg sync.WaitGroup
	for r := 0; r < rooms; r++ {
		code := fmt.Sprintf("ROOM%d", r)
		for i := 0; i < perRoom; i++ {
			wg.Add(1)
			go func(code string, i int) {
				defer wg.Done()
				c := fakeConn{id: fmt.Sprintf("%s-sid-%d", code, i)}
				srv.addMember(code, c)
				srv.roomMembers(code)
				if i%2 == 1 {
					srv.removeMember(code, c)
				}
			}(code, i)
		}
	}
	wg.Wait()

	for r := 0; r < rooms; r++ {
		code := fmt.Sprintf("ROOM%d", r)
		if got := len(srv.roomMembers(code)); got != perRoom/2+1 {
			t.Fatalf("room %s: expected %d members, got %d", code, perRoom/2+1, got)
		}
	}
}

func TestRemoveMemberUnknownRoomIsNoop(t *testing.T) {
	srv := New(nil, config.Config{})
	srv.removeMember("NOPE", fakeConn{id: "sid"})
	if got := len(srv.roomMembers("NOPE")); got != 0 {
		t.Fatalf("expected empty room, got %d members", got)
	}
}
