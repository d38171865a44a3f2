package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/landarea-core/internal/infrastructure/config"
	"github.com/nerrad567/landarea-core/internal/session"
)

// WebSocket message types.
const (
	// Client to server.
	WSTypeUpdate      = "update"
	WSTypeSwap        = "swap"
	WSTypeReset       = "reset"
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"

	// Server to client.
	WSTypeState    = "state"
	WSTypePong     = "pong"
	WSTypeEvent    = "event"
	WSTypeResponse = "response"
	WSTypeError    = "error"
)

// wsSendBufferSize is how many outbound messages a client may lag behind
// before further messages to it are dropped.
const wsSendBufferSize = 64

// WSMessage is the envelope of every message in both directions.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// wsRequest is an incoming WSMessage with the payload left undecoded.
type wsRequest struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// decode unmarshals the payload into v. A missing payload decodes as null,
// leaving v at its zero value.
func (r wsRequest) decode(v any) error {
	if len(r.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(r.Payload, v)
}

// WSSubscribePayload is the payload for subscribe/unsubscribe messages.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// WSStatePayload is the payload of a "state" message.
type WSStatePayload struct {
	SessionID string        `json:"session_id"`
	State     session.State `json:"state"`
}

// upgrader builds the WebSocket upgrader. Browsers do not apply CORS to
// WebSocket handshakes, so the origin allow-list is enforced here.
func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts requests without an Origin header, same-origin
// requests, and origins on the configured allow-list.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return s.originAllowed(origin)
}

// WSClient is one connected converter panel driving a single session.
type WSClient struct {
	hub     *Hub
	conn    *websocket.Conn
	session *session.Session

	sendMu sync.Mutex
	send   chan []byte
	closed bool

	subMu         sync.RWMutex
	subscriptions map[string]struct{}

	// onChange runs after every successful edit. Optional.
	onChange func(session.State)
	// onClose runs once after the connection ends. Optional.
	onClose func()
}

func newWSClient(hub *Hub, conn *websocket.Conn, sess *session.Session) *WSClient {
	return &WSClient{
		hub:           hub,
		conn:          conn,
		session:       sess,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
}

// handleWebSocket upgrades the connection and binds it to a session.
//
// With ?session={id} the connection drives an existing session, which
// outlives the connection. Otherwise a new session is created and deleted
// when the connection closes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, owned, err := s.bindSession(r.URL.Query().Get("session"))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		s.logger.Warn("websocket upgrade failed", "error", err)
		if owned {
			s.sessions.Delete(sess.ID()) //nolint:errcheck // created above
		}
		return
	}

	release := sess.Attach()
	client := newWSClient(s.hub, conn, sess)
	client.onChange = func(st session.State) {
		s.recordConversion(surfaceWebSocket, st.Request(), stateValid(st))
	}
	client.onClose = func() {
		release()
		if owned {
			s.sessions.Delete(sess.ID()) //nolint:errcheck // may already be deleted over REST
		}
	}

	s.hub.Register(client)
	client.sendState("", sess.State())

	timing := newWSTiming(s.wsCfg)
	go client.writeLoop(timing)
	go client.readLoop(timing, int64(s.wsCfg.MaxMessageSize))
}

// bindSession returns the session named by id, or a fresh owned session
// when id is empty.
func (s *Server) bindSession(id string) (sess *session.Session, owned bool, err error) {
	if id != "" {
		sess, err = s.sessions.Get(id)
		return sess, false, err
	}
	sess, err = s.sessions.Create()
	return sess, true, err
}

// wsTiming holds the keepalive intervals derived from config.
type wsTiming struct {
	ping     time.Duration
	write    time.Duration
	readIdle time.Duration
}

func newWSTiming(cfg config.WebSocketConfig) wsTiming {
	ping, pong := cfg.PingPeriod(), cfg.PongWait()
	return wsTiming{ping: ping, write: pong, readIdle: ping + pong}
}

// readLoop handles client messages until the connection fails, then
// unregisters the client.
func (c *WSClient) readLoop(timing wsTiming, limit int64) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close() //nolint:errcheck // already finished
		if c.onClose != nil {
			c.onClose()
		}
	}()

	c.conn.SetReadLimit(limit)
	extend := func() error {
		return c.conn.SetReadDeadline(time.Now().Add(timing.readIdle))
	}
	extend() //nolint:errcheck // a failed deadline surfaces as a read error
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		extend() //nolint:errcheck // a failed deadline surfaces as a read error
		c.handle(data)
	}
}

// writeLoop drains the outbound queue and keeps the connection alive with
// pings. It exits when the queue is closed or a write fails.
func (c *WSClient) writeLoop(timing wsTiming) {
	ticker := time.NewTicker(timing.ping)
	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck // already finished
	}()

	write := func(kind int, data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(timing.write)) //nolint:errcheck // surfaces as a write error
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				write(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if write(websocket.TextMessage, data) != nil {
				return
			}
		case <-ticker.C:
			if write(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

// handle dispatches one client message.
func (c *WSClient) handle(data []byte) {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("", "invalid JSON message")
		return
	}

	switch req.Type {
	case WSTypeUpdate:
		var patch session.Patch
		if err := req.decode(&patch); err != nil {
			c.sendError(req.ID, "invalid update payload")
			return
		}
		c.edit(req.ID, func(s *session.Session) (session.State, error) { return s.Apply(patch) })
	case WSTypeSwap:
		c.edit(req.ID, func(s *session.Session) (session.State, error) { return s.Swap(), nil })
	case WSTypeReset:
		c.edit(req.ID, func(s *session.Session) (session.State, error) { return s.Reset(), nil })
	case WSTypeSubscribe, WSTypeUnsubscribe:
		var sub WSSubscribePayload
		if err := req.decode(&sub); err != nil {
			c.sendError(req.ID, "invalid subscribe payload")
			return
		}
		on := req.Type == WSTypeSubscribe
		c.setSubscriptions(on, sub.Channels...)
		key := "unsubscribed"
		if on {
			key = "subscribed"
		}
		c.reply(req.ID, WSTypeResponse, map[string]any{key: sub.Channels})
	case WSTypePing:
		c.reply(req.ID, WSTypePong, nil)
	default:
		c.sendError(req.ID, "unknown message type: "+req.Type)
	}
}

// edit runs fn against the client's session and replies with the new state.
func (c *WSClient) edit(id string, fn func(*session.Session) (session.State, error)) {
	if c.session == nil {
		c.sendError(id, "no session bound to connection")
		return
	}

	state, err := fn(c.session)
	if err != nil {
		c.sendError(id, err.Error())
		return
	}
	if c.onChange != nil {
		c.onChange(state)
	}
	c.sendState(id, state)
}

func (c *WSClient) setSubscriptions(on bool, channels ...string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range channels {
		if on {
			c.subscriptions[ch] = struct{}{}
		} else {
			delete(c.subscriptions, ch)
		}
	}
}

func (c *WSClient) subscribed(channel string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

// enqueue queues data without blocking. It reports false when the client
// is gone or too far behind.
func (c *WSClient) enqueue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound queue once, ending writeLoop.
func (c *WSClient) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *WSClient) sendState(id string, state session.State) {
	payload := WSStatePayload{State: state}
	if c.session != nil {
		payload.SessionID = c.session.ID()
	}
	c.reply(id, WSTypeState, payload)
}

func (c *WSClient) reply(id, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: timestamp(),
		Payload:   payload,
	})
	if err != nil {
		c.hub.logger.Error("encoding websocket reply failed", "type", msgType, "error", err)
		return
	}
	c.enqueue(data)
}

func (c *WSClient) sendError(id, message string) {
	c.reply(id, WSTypeError, map[string]string{"message": message})
}
