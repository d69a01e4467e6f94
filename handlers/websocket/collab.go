package websocket

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"time"

	"collab-server/core"
	"collab-server/pkg/metrics"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// defaultWriteTimeout bounds the fire-and-forget store writes issued after a
// broadcast. Peers have already received the update by then; a timed-out
// write is logged and dropped.
const defaultWriteTimeout = 10 * time.Second

// Collab owns the socket.io server and the room occupancy map. Room
// membership itself lives in socket.io; the map only mirrors user counts for
// the rooms listing.
type Collab struct {
	srv          *socketio.Server
	documents    core.DocumentStore
	whiteboards  core.WhiteboardStore
	writeTimeout time.Duration

	mu        sync.RWMutex
	occupancy map[string]int
}

var localhostOrigin = regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)

// session is the slice of a connected socket the event handlers need: its id
// and the ability to broadcast to a room excluding itself.
type session interface {
	Id() socketio.SocketId
	BroadcastTo(roomID, event string, data any) error
}

// socketSession adapts a live socket.io connection to the session interface.
// Broadcast().To(room) delivers to every member of the room except the
// sending socket.
type socketSession struct {
	socket *socketio.Socket
}

func (s socketSession) Id() socketio.SocketId {
	return s.socket.Id()
}

func (s socketSession) BroadcastTo(roomID, event string, data any) error {
	return s.socket.Broadcast().To(socketio.Room(roomID)).Emit(event, data)
}

// New builds the socket.io server and registers the session event handlers.
func New(documents core.DocumentStore, whiteboards core.WhiteboardStore, frontendURL string) *Collab {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin: []any{
			frontendURL,
			localhostOrigin,
		},
		Credentials: true,
	})

	c := &Collab{
		srv:          socketio.NewServer(nil, opts),
		documents:    documents,
		whiteboards:  whiteboards,
		writeTimeout: defaultWriteTimeout,
		occupancy:    make(map[string]int),
	}

	c.srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		c.handleConnection(socket)
	})

	return c
}

func (c *Collab) Server() *socketio.Server {
	return c.srv
}

func (c *Collab) Close() {
	c.srv.Close(nil)
}

// ToRoom delivers an event to every session in the room, sender included.
// Used by the HTTP layer for deletion notices.
func (c *Collab) ToRoom(roomID, event string, payload any) error {
	metrics.BroadcastsTotal.WithLabelValues(event).Inc()
	return c.srv.To(socketio.Room(roomID)).Emit(event, payload)
}

// Rooms returns the rooms that currently have at least one session, busiest
// first.
func (c *Collab) Rooms() []core.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]core.Room, 0, len(c.occupancy))
	for id, users := range c.occupancy {
		rooms = append(rooms, core.Room{ID: id, Users: users})
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Users == rooms[j].Users {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].Users > rooms[j].Users
	})
	return rooms
}

func (c *Collab) handleConnection(socket *socketio.Socket) {
	me := socket.Id()
	sess := socketSession{socket: socket}
	logrus.WithField("socket_id", me).Info("New client connected")

	socket.On("join-room", func(datas ...any) {
		roomID, ok := firstString(datas)
		if !ok || roomID == "" {
			logrus.WithField("socket_id", me).Warn("join-room without a room id")
			return
		}
		c.handleJoinRoom(socket, roomID)
	})

	socket.On("doc-change", func(datas ...any) {
		c.handleDocChange(sess, datas)
	})

	socket.On("wb-change", func(datas ...any) {
		c.handleWBChange(sess, datas)
	})

	socket.On("cursor-position", func(datas ...any) {
		c.handleCursorPosition(sess, datas)
	})

	socket.On("disconnecting", func(datas ...any) {
		c.handleDisconnecting(socket)
	})

	socket.On("disconnect", func(datas ...any) {
		logrus.WithField("socket_id", me).Info("Client disconnected")
	})
}

// handleJoinRoom associates the session with the room's delivery group.
// Rooms are implicit: any id can be joined, the first join creates the group.
// Joining twice is a no-op.
func (c *Collab) handleJoinRoom(socket *socketio.Socket, roomID string) {
	room := socketio.Room(roomID)
	for _, joined := range socket.Rooms().Keys() {
		if joined == room {
			return
		}
	}
	socket.Join(room)
	c.addToRoom(roomID)
	logrus.WithFields(logrus.Fields{
		"socket_id": socket.Id(),
		"room":      roomID,
	}).Info("User joined room")
}

// handleDocChange relays the new content to the rest of the room, then
// persists it in the background. The broadcast never waits on the store;
// a failed write leaves peers with state the store never saw, which is the
// accepted trade-off here.
func (c *Collab) handleDocChange(sess session, datas []any) {
	payload, ok := eventPayload(datas)
	if !ok {
		logrus.WithField("socket_id", sess.Id()).Warn("doc-change with malformed payload")
		return
	}
	roomID := stringField(payload, "roomId")
	if roomID == "" {
		logrus.WithField("socket_id", sess.Id()).Warn("doc-change without a room id")
		return
	}
	content, ok := payload["content"].(map[string]any)
	if !ok {
		logrus.WithField("socket_id", sess.Id()).Warn("doc-change with non-object content")
		return
	}

	metrics.BroadcastsTotal.WithLabelValues("doc-update").Inc()
	if err := sess.BroadcastTo(roomID, "doc-update", content); err != nil {
		logrus.WithField("room", roomID).WithError(err).Warn("Failed to broadcast doc-update")
	}

	go c.persistDocument(roomID, content)
}

func (c *Collab) handleWBChange(sess session, datas []any) {
	payload, ok := eventPayload(datas)
	if !ok {
		logrus.WithField("socket_id", sess.Id()).Warn("wb-change with malformed payload")
		return
	}
	roomID := stringField(payload, "roomId")
	if roomID == "" {
		logrus.WithField("socket_id", sess.Id()).Warn("wb-change without a room id")
		return
	}
	elements, ok := payload["elements"].([]any)
	if !ok {
		logrus.WithField("socket_id", sess.Id()).Warn("wb-change with non-array elements")
		return
	}

	metrics.BroadcastsTotal.WithLabelValues("wb-update").Inc()
	if err := sess.BroadcastTo(roomID, "wb-update", elements); err != nil {
		logrus.WithField("room", roomID).WithError(err).Warn("Failed to broadcast wb-update")
	}

	go c.persistWhiteboard(roomID, elements)
}

// handleCursorPosition relays presence only; cursors are never persisted and
// never expired server-side. A disconnected peer's last cursor stays in other
// clients' views until they reload.
func (c *Collab) handleCursorPosition(sess session, datas []any) {
	payload, ok := eventPayload(datas)
	if !ok {
		return
	}
	roomID := stringField(payload, "roomId")
	if roomID == "" {
		return
	}

	metrics.BroadcastsTotal.WithLabelValues("user-cursor").Inc()
	cursor := map[string]any{
		"position": payload["position"],
		"user":     payload["user"],
		"id":       sess.Id(),
	}
	if err := sess.BroadcastTo(roomID, "user-cursor", cursor); err != nil {
		logrus.WithField("room", roomID).WithError(err).Warn("Failed to broadcast user-cursor")
	}
}

func (c *Collab) handleDisconnecting(socket *socketio.Socket) {
	me := socket.Id()
	for _, room := range socket.Rooms().Keys() {
		roomID := string(room)
		if roomID == string(me) {
			// every socket sits in a room named after its own id
			continue
		}
		c.removeFromRoom(roomID)
		logrus.WithFields(logrus.Fields{
			"socket_id": me,
			"room":      roomID,
		}).Debug("Session leaving room")
	}
}

// persistDocument is the fire-and-forget half of doc-change. Failures are
// logged and counted, never propagated back to the sender or the room.
func (c *Collab) persistDocument(roomID string, content map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), c.writeTimeout)
	defer cancel()

	if _, err := c.documents.UpdateContent(ctx, roomID, content); err != nil {
		metrics.PersistFailures.WithLabelValues("document").Inc()
		logrus.WithField("room", roomID).WithError(err).Warn("Document update failed after broadcast")
	}
}

func (c *Collab) persistWhiteboard(roomID string, elements []any) {
	ctx, cancel := context.WithTimeout(context.Background(), c.writeTimeout)
	defer cancel()

	if _, err := c.whiteboards.UpdateElements(ctx, roomID, elements); err != nil {
		metrics.PersistFailures.WithLabelValues("whiteboard").Inc()
		logrus.WithField("room", roomID).WithError(err).Warn("Whiteboard update failed after broadcast")
	}
}

func (c *Collab) addToRoom(roomID string) {
	c.mu.Lock()
	c.occupancy[roomID]++
	c.mu.Unlock()
}

func (c *Collab) removeFromRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.occupancy[roomID]; ok {
		if n <= 1 {
			delete(c.occupancy, roomID)
		} else {
			c.occupancy[roomID] = n - 1
		}
	}
}

// eventPayload returns the first event argument as a JSON object.
func eventPayload(datas []any) (map[string]any, bool) {
	if len(datas) == 0 {
		return nil, false
	}
	payload, ok := datas[0].(map[string]any)
	return payload, ok
}

func firstString(datas []any) (string, bool) {
	if len(datas) == 0 {
		return "", false
	}
	s, ok := datas[0].(string)
	return s, ok
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
