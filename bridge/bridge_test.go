package bridge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gogpu/plotcore"
	"github.com/gogpu/plotcore/region"
)

type identityTransform struct{}

func (identityTransform) ToPixel(x, y float64) (float64, float64)  { return x, y }
func (identityTransform) ToData(px, py float64) (float64, float64) { return px, py }

// relay is a one-connection test server. Received envelopes surface on
// inbound; anything pushed to outbound is written to the client.
type relay struct {
	srv      *httptest.Server
	inbound  chan envelope
	outbound chan envelope
}

func newRelay(t *testing.T) *relay {
	t.Helper()
	rl := &relay{
		inbound:  make(chan envelope, 16),
		outbound: make(chan envelope, 16),
	}
	upgrader := websocket.Upgrader{}
	rl.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		go func() {
			for env := range rl.outbound {
				if err := conn.WriteJSON(env); err != nil {
					return
				}
			}
		}()
		for {
			var env envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			rl.inbound <- env
		}
	}))
	t.Cleanup(rl.srv.Close)
	return rl
}

func (rl *relay) url() string {
	return "ws" + strings.TrimPrefix(rl.srv.URL, "http")
}

// gesture commits one drag on the band so the controller emits Finalized.
func gesture(c *region.Controller) {
	c.PointerDown(5, 0)
	c.PointerUp()
}

// TestPublishOnFinalize verifies every committed record goes to the wire,
// tagged with the bridge's client id.
func TestPublishOnFinalize(t *testing.T) {
	rl := newRelay(t)
	ctrl := region.NewController(identityTransform{})
	band := ctrl.CreateRange(0, 10)

	b, err := Dial(rl.url(), ctrl)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer b.Close()

	gesture(ctrl)

	select {
	case env := <-rl.inbound:
		if env.Record.ID != band.ID() {
			t.Errorf("published record = %s, want %s", env.Record.ID, band.ID())
		}
		if env.Record.Version != 1 {
			t.Errorf("published version = %d, want 1", env.Record.Version)
		}
		if env.ClientID == "" {
			t.Error("envelope must carry the client id")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no record reached the relay")
	}
}

// TestDrainAppliesForeignAndSkipsEchoes verifies incoming records apply
// through the version gate on Drain, and that fanned-back echoes of our own
// publishes are discarded even when they would pass the gate.
func TestDrainAppliesForeignAndSkipsEchoes(t *testing.T) {
	rl := newRelay(t)
	ctrl := region.NewController(identityTransform{})
	band := ctrl.CreateRange(0, 10)

	b, err := Dial(rl.url(), ctrl)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer b.Close()

	// Publish once so the relay learns our client id.
	gesture(ctrl)
	var own envelope
	select {
	case own = <-rl.inbound:
	case <-time.After(2 * time.Second):
		t.Fatal("no record reached the relay")
	}

	// An echo that would pass the version gate if it were applied.
	echo := own
	echo.Record.Version = 99
	echo.Record.Domain = plotcore.NewBounds(500, 600, 0, 0).Domain()
	rl.outbound <- echo

	// A genuinely foreign record.
	rl.outbound <- envelope{
		ClientID: "peer",
		Record: region.Record{
			ID:      "remote",
			Type:    region.KindRange,
			Version: 1,
			Domain:  plotcore.NewBounds(40, 50, 0, 0).Domain(),
		},
	}

	// The read loop is asynchronous; drain until the foreign record lands.
	deadline := time.Now().Add(2 * time.Second)
	applied := 0
	for {
		applied += b.Drain()
		if _, ok := ctrl.Get("remote"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("foreign record never applied")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if applied != 1 {
		t.Errorf("applied = %d, want only the foreign record", applied)
	}

	// The echo arrived first on the same queue, so by now it has been
	// drained and must have been dropped, not applied.
	if v := band.Version(); v != 1 {
		t.Errorf("band version = %d, an echo must never apply", v)
	}
	if bo := band.Bounds(); bo.X1 != 0 || bo.X2 != 10 {
		t.Errorf("band bounds = %+v, an echo must never move a region", bo)
	}
}

// TestCloseStopsReadLoop verifies Close ends the read loop and detaches
// from the controller.
func TestCloseStopsReadLoop(t *testing.T) {
	rl := newRelay(t)
	ctrl := region.NewController(identityTransform{})
	ctrl.CreateRange(0, 10)

	b, err := Dial(rl.url(), ctrl)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	select {
	case <-b.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not stop after Close")
	}

	// Gestures after Close publish nothing.
	gesture(ctrl)
	select {
	case env := <-rl.inbound:
		t.Errorf("record %s published after Close", env.Record.ID)
	case <-time.After(100 * time.Millisecond):
	}
}
