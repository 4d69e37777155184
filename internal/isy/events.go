package isy

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/elaw611/isy-bridge/internal/infrastructure/logging"
)

// Event stream constants.
const (
	// subscribeSubprotocol is the WebSocket subprotocol the controller
	// requires for /rest/subscribe.
	subscribeSubprotocol = "ISYSUB"

	// subscribeOrigin is the Origin header value the controller expects.
	subscribeOrigin = "com.universal-devices.websockets.isy"

	// HeartbeatControl is the control code of the periodic heartbeat
	// the controller sends (roughly every 30 seconds).
	HeartbeatControl = "_0"

	// readDeadline bounds the wait for the next event. The controller
	// heartbeats well inside this window; a silent connection is dead.
	readDeadline = 90 * time.Second

	// handshakeTimeout bounds the WebSocket dial.
	handshakeTimeout = 10 * time.Second

	reconnectInitialDelay = time.Second
	reconnectMaxDelay     = time.Minute
)

// Event is one message from the controller event stream.
//
// Control is the event code: "ST" for state, "_0" for heartbeat, other
// underscore-prefixed codes for controller housekeeping, and device
// control codes ("DON", "OL", "CLITEMP", ...) for everything a device
// reports beyond plain state.
type Event struct {
	Seq     int64
	Control string
	Action  string
	Node    string
	Info    string
}

// EventHandler receives events sequentially from the stream's single
// reader goroutine. Handlers must not block for long; a slow handler
// stalls event delivery.
type EventHandler func(Event)

// EventStream maintains the WebSocket subscription to the controller.
//
// The stream reconnects with exponential backoff until Stop() is called.
// Events are delivered in arrival order on one goroutine, which keeps
// per-node ordering intact without any locking in handlers that only
// touch per-node state.
type EventStream struct {
	client  *Client
	handler EventHandler
	logger  *logging.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc

	stopOnce sync.Once
	done     chan struct{}
}

// NewEventStream creates an event stream for an opened client.
//
// Parameters:
//   - client: Opened controller client (for URL, credentials, TLS)
//   - handler: Callback invoked for every event
//   - logger: Structured logger (may be nil)
//
// Returns:
//   - *EventStream: Stream ready for Start()
//   - error: ErrNotConnected if the client has not opened,
//     or a validation error for a missing handler
func NewEventStream(client *Client, handler EventHandler, logger *logging.Logger) (*EventStream, error) {
	if client == nil || !client.Connected() {
		return nil, ErrNotConnected
	}
	if handler == nil {
		return nil, fmt.Errorf("isy: event handler is required")
	}

	return &EventStream{
		client:  client,
		handler: handler,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Start dials the subscription and launches the reader goroutine.
//
// The initial dial happens synchronously so setup fails loudly when the
// controller refuses the subscription; later disconnects are handled by
// the reconnect loop instead.
func (s *EventStream) Start(ctx context.Context) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to event stream: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.conn = conn
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(runCtx, conn)

	s.logInfo("event stream started")
	return nil
}

// Stop closes the stream and waits for the reader goroutine to exit.
// Safe to call more than once.
func (s *EventStream) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
		}
		if s.conn != nil {
			s.conn.Close() //nolint:errcheck // Best effort on shutdown
		}
		s.mu.Unlock()

		<-s.done
		s.logInfo("event stream stopped")
	})
}

// dial opens the WebSocket subscription.
func (s *EventStream) dial(ctx context.Context) (*websocket.Conn, error) {
	user, pass := s.client.Credentials()
	header := http.Header{}
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(user+":"+pass)))
	header.Set("Origin", subscribeOrigin)

	dialer := websocket.Dialer{
		Subprotocols:     []string{subscribeSubprotocol},
		HandshakeTimeout: handshakeTimeout,
		TLSClientConfig:  s.client.TLSConfig(),
	}

	conn, resp, err := dialer.DialContext(ctx, s.client.WebSocketURL()+"/rest/subscribe", header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
		}
		return nil, err
	}
	return conn, nil
}

// run reads events until the context is cancelled, reconnecting on
// failure with exponential backoff.
func (s *EventStream) run(ctx context.Context, conn *websocket.Conn) {
	defer close(s.done)

	delay := reconnectInitialDelay
	for {
		err := s.readLoop(ctx, conn)
		if ctx.Err() != nil {
			return
		}
		s.logWarn("event stream disconnected", "error", err, "retry_in", delay.String())

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}

			next, dialErr := s.dial(ctx)
			if dialErr == nil {
				conn = next
				s.mu.Lock()
				s.conn = conn
				s.mu.Unlock()
				delay = reconnectInitialDelay
				s.logInfo("event stream reconnected")
				break
			}

			s.logWarn("event stream reconnect failed", "error", dialErr, "retry_in", delay.String())
			delay *= 2
			if delay > reconnectMaxDelay {
				delay = reconnectMaxDelay
			}
		}
	}
}

// readLoop reads and dispatches events until the connection fails.
func (s *EventStream) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
			return err
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ErrEventStreamClosed
			}
			return err
		}

		var raw eventXML
		if err := xml.Unmarshal(payload, &raw); err != nil {
			// Subscription acknowledgements and other non-Event frames
			// share the socket; skip anything that isn't an Event.
			s.logDebug("skipping non-event frame", "bytes", len(payload))
			continue
		}

		event := Event{
			Seq:     raw.Seq,
			Control: raw.Control,
			Action:  raw.Action,
			Node:    raw.Node,
			Info:    raw.Info,
		}

		if event.Control == HeartbeatControl {
			s.logDebug("heartbeat", "seq", event.Seq)
			continue
		}

		s.handler(event)
	}
}

func (s *EventStream) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *EventStream) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *EventStream) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// eventXML mirrors one Event frame from the subscription socket.
type eventXML struct {
	XMLName xml.Name `xml:"Event"`
	Seq     int64    `xml:"seqnum,attr"`
	SID     string   `xml:"sid,attr"`
	Control string   `xml:"control"`
	Action  string   `xml:"action"`
	Node    string   `xml:"node"`
	Info    string   `xml:"eventInfo"`
}
