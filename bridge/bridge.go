// Package bridge connects a region controller to other writers over a
// websocket, carrying the serialized record protocol in both directions.
//
// Every committed (finalized) record is published to the wire; every record
// received from the wire is handed to the controller's version gate, which
// resolves conflicts last-writer-wins by version number. The bridge is the
// transport only — the conflict rule lives in the controller.
//
// plotcore's core is single-threaded, so the bridge never applies records
// from its read goroutine. Incoming records queue in an inbox and the
// owning goroutine applies them by calling Drain on its own schedule,
// typically once per frame.
package bridge

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gogpu/plotcore"
	"github.com/gogpu/plotcore/region"
)

// envelope is the wire frame. The client id lets a bridge drop echoes of
// its own records when the server fans messages back out.
type envelope struct {
	ClientID string        `json:"clientId"`
	Record   region.Record `json:"record"`
}

const inboxSize = 256

// Bridge ties one controller to one websocket connection.
type Bridge struct {
	conn     *websocket.Conn
	ctrl     *region.Controller
	clientID string

	inbox chan envelope
	done  chan struct{}

	cancelFinalized func()
	closed          bool
}

// Dial connects to a record relay at url and returns a running bridge.
func Dial(url string, ctrl *region.Controller) (*Bridge, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %s: %w", url, err)
	}
	plotcore.Logger().Info("bridge connected", "url", url)
	return New(conn, ctrl), nil
}

// New wraps an established connection. The bridge takes ownership of the
// connection and starts its read loop; the caller's goroutine remains the
// only one that touches the controller.
func New(conn *websocket.Conn, ctrl *region.Controller) *Bridge {
	b := &Bridge{
		conn:     conn,
		ctrl:     ctrl,
		clientID: uuid.NewString(),
		inbox:    make(chan envelope, inboxSize),
		done:     make(chan struct{}),
	}
	b.cancelFinalized = ctrl.OnFinalized(b.publish)
	go b.readLoop()
	return b
}

// publish runs synchronously inside the controller's Finalized emit, on the
// owning goroutine.
func (b *Bridge) publish(rec region.Record) {
	if b.closed {
		return
	}
	env := envelope{ClientID: b.clientID, Record: rec}
	if err := b.conn.WriteJSON(env); err != nil {
		plotcore.Logger().Warn("bridge write failed", "region", rec.ID, "error", err)
		return
	}
	recordsSent.Inc()
}

func (b *Bridge) readLoop() {
	defer close(b.done)
	for {
		var env envelope
		if err := b.conn.ReadJSON(&env); err != nil {
			plotcore.Logger().Info("bridge read loop ended", "error", err)
			return
		}
		recordsReceived.Inc()
		select {
		case b.inbox <- env:
		default:
			// A consumer that never drains loses oldest-first; dropping
			// the newcomer keeps the queue consistent and the warning
			// makes the stall visible.
			recordsDropped.Inc()
			plotcore.Logger().Warn("bridge inbox full, record dropped", "region", env.Record.ID)
		}
	}
}

// Drain applies queued incoming records through the controller's version
// gate and returns how many were accepted. Call it from the goroutine that
// owns the controller; rejected (stale) records are counted and discarded
// silently, as the protocol intends.
func (b *Bridge) Drain() (applied int) {
	for {
		select {
		case env := <-b.inbox:
			if env.ClientID == b.clientID {
				continue // echo of our own publish
			}
			if b.ctrl.ApplyExternalUpdate(env.Record) {
				recordsApplied.Inc()
				applied++
			} else {
				recordsRejected.Inc()
			}
		default:
			return applied
		}
	}
}

// Done is closed when the read loop exits (connection closed or failed).
func (b *Bridge) Done() <-chan struct{} { return b.done }

// Close detaches from the controller and closes the connection. Records
// still queued in the inbox are discarded.
func (b *Bridge) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.cancelFinalized()
	return b.conn.Close()
}
