package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"nhooyr.io/websocket"

	"github.com/srujan4705/Code-Battle/internal/arena"
	"github.com/srujan4705/Code-Battle/internal/game"
	"github.com/srujan4705/Code-Battle/internal/grading"
	"github.com/srujan4705/Code-Battle/internal/ratelimit"
)

// lobbyTopic reaches every connection. Room ids are never empty.
const lobbyTopic = ""

const (
	outboxSize   = 64
	readLimit    = 1 << 20
	writeTimeout = 5 * time.Second
)

// Grader runs a player's code against the room's challenge.
type Grader interface {
	Grade(ctx context.Context, req grading.Request) (grading.Outcome, error)
}

type GatewayOptions struct {
	// OriginPatterns restricts cross-origin upgrades. Empty allows any origin.
	OriginPatterns []string
	// GradeConcurrency bounds in-flight run/submit requests per connection.
	GradeConcurrency int
}

// Gateway is the WebSocket endpoint. It turns inbound intents into registry
// operations and fans the resulting events out through the broker.
type Gateway struct {
	logger   *slog.Logger
	registry *game.Registry
	grader   Grader
	limiter  ratelimit.Limiter
	broker   *Broker
	opts     GatewayOptions
}

func NewGateway(logger *slog.Logger, registry *game.Registry, grader Grader, limiter ratelimit.Limiter, broker *Broker, opts GatewayOptions) *Gateway {
	if opts.GradeConcurrency <= 0 {
		opts.GradeConcurrency = 2
	}
	return &Gateway{
		logger:   logger,
		registry: registry,
		grader:   grader,
		limiter:  limiter,
		broker:   broker,
		opts:     opts,
	}
}

type client struct {
	id       string
	username string
	out      chan []byte
	grades   errgroup.Group
	logger   *slog.Logger
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func encode(typ string, data any) []byte {
	b, _ := json.Marshal(envelope{Type: typ, Data: data})
	return b
}

// send queues a direct message, dropping it if the connection is not
// keeping up.
func (c *client) send(typ string, data any) {
	select {
	case c.out <- encode(typ, data):
	default:
		c.logger.Warn("dropping message for slow connection", "type", typ)
	}
}

type ackMessage struct {
	Ref   string          `json:"ref,omitempty"`
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Room  *game.RoomState `json:"room,omitempty"`
}

type errorMessage struct {
	Ref   string `json:"ref,omitempty"`
	Error string `json:"error"`
}

type resultsMessage struct {
	Ref     string            `json:"ref,omitempty"`
	RoomID  string            `json:"roomId"`
	Report  arena.GradeReport `json:"report"`
	Awarded int               `json:"awarded"`
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     g.opts.OriginPatterns,
		InsecureSkipVerify: len(g.opts.OriginPatterns) == 0,
	})
	if err != nil {
		g.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(readLimit)

	c := &client{
		id:       uuid.NewString(),
		username: r.URL.Query().Get("username"),
		out:      make(chan []byte, outboxSize),
	}
	c.logger = g.logger.With("conn", c.id)
	c.grades.SetLimit(g.opts.GradeConcurrency)
	c.logger.Info("client connected", "username", c.username)
	c.send(msgConnected, map[string]string{"connectionId": c.id})
	g.broker.Subscribe(lobbyTopic, c.id, c.out)

	eg, ctx := errgroup.WithContext(r.Context())
	eg.Go(func() error { return g.writeLoop(ctx, conn, c) })
	eg.Go(func() error { return g.readLoop(ctx, conn, c) })
	err = eg.Wait()

	g.disconnect(c)
	if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
		c.logger.Debug("connection ended", "error", err)
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (g *Gateway) writeLoop(ctx context.Context, conn *websocket.Conn, c *client) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-c.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, c *client) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			c.send(msgError, errorMessage{Error: "expected a text message"})
			continue
		}
		g.handle(ctx, c, data)
	}
}

// disconnect leaves every room the connection was in.
func (g *Gateway) disconnect(c *client) {
	g.broker.UnsubscribeAll(c.id)
	g.publish(g.registry.Disconnect(c.id))
	if g.limiter != nil {
		g.limiter.Forget(c.id)
	}
	c.logger.Info("client disconnected")
}

// publish fans events out to their room. A removed room has no members
// left, so its removal goes to the lobby instead.
func (g *Gateway) publish(events []game.Event) {
	for _, e := range events {
		data := encode(e.Kind(), e)
		if e.Kind() == game.KindRoomRemoved {
			g.broker.Broadcast(lobbyTopic, data)
			continue
		}
		g.broker.Publish(e.RoomID(), e.Kind(), e.Sequence(), data)
	}
}

func (g *Gateway) handle(ctx context.Context, c *client, data []byte) {
	ref, intent, err := decodeIntent(data)
	if err != nil {
		c.send(msgError, errorMessage{Ref: ref, Error: err.Error()})
		return
	}

	switch in := intent.(type) {
	case *JoinRoomIntent:
		g.join(c, ref, in)
	case *LeaveRoomIntent:
		g.broker.Unsubscribe(in.RoomID, c.id)
		events := g.registry.Leave(in.RoomID, c.id)
		c.send(msgAck, ackMessage{Ref: ref, OK: true})
		g.publish(events)
	case *CodeChangeIntent:
		g.publish(g.registry.UpdateCode(in.RoomID, c.id, in.Code))
	case *StartMatchIntent:
		events, err := g.registry.StartMatch(ctx, in.RoomID, c.id)
		g.matchReply(c, ref, events, err)
	case *StopMatchIntent:
		events, err := g.registry.StopMatch(in.RoomID, c.id)
		g.matchReply(c, ref, events, err)
	case *GradeIntent:
		g.grade(ctx, c, ref, in)
	}
}

func (g *Gateway) join(c *client, ref string, in *JoinRoomIntent) {
	username := in.Username
	if username == "" {
		username = c.username
	}

	// Subscribe first so no snapshot published after the join is missed.
	g.broker.Subscribe(in.RoomID, c.id, c.out)
	state, events, err := g.registry.Enter(in.RoomID, c.id, username, arena.Difficulty(in.Difficulty))
	if err != nil {
		if !slices.Contains(g.registry.Rooms(c.id), in.RoomID) {
			g.broker.Unsubscribe(in.RoomID, c.id)
		}
		c.send(msgAck, ackMessage{Ref: ref, Error: err.Error()})
		return
	}
	c.logger.Info("joined room", "room", in.RoomID, "players", len(state.Players))
	c.send(msgAck, ackMessage{Ref: ref, OK: true, Room: &state})
	g.publish(events)
}

func (g *Gateway) matchReply(c *client, ref string, events []game.Event, err error) {
	if err != nil {
		c.send(msgMatchError, errorMessage{Ref: ref, Error: err.Error()})
		return
	}
	c.send(msgAck, ackMessage{Ref: ref, OK: true})
	g.publish(events)
}

func (g *Gateway) grade(ctx context.Context, c *client, ref string, in *GradeIntent) {
	if g.limiter != nil {
		ok, err := g.limiter.Allow(ctx, c.id)
		if err != nil {
			c.logger.Warn("rate limiter unavailable", "error", err)
		}
		if !ok {
			c.send(msgError, errorMessage{Ref: ref, Error: "rate limit exceeded, slow down"})
			return
		}
	}

	req := grading.Request{
		RoomID:     in.RoomID,
		ConnID:     c.id,
		Language:   in.Language,
		SourceCode: in.SourceCode,
		Submission: in.Submission,
	}
	// In-flight grading is not cancelled when the socket closes.
	gctx := context.WithoutCancel(ctx)
	started := c.grades.TryGo(func() error {
		out, err := g.grader.Grade(gctx, req)
		if err != nil {
			c.send(msgError, errorMessage{Ref: ref, Error: err.Error()})
			return nil
		}
		typ := msgTestResults
		if req.Submission {
			typ = msgSubmission
		}
		c.send(typ, resultsMessage{Ref: ref, RoomID: req.RoomID, Report: out.Report, Awarded: out.Awarded})
		g.publish(out.Events)
		return nil
	})
	if !started {
		c.send(msgError, errorMessage{Ref: ref, Error: "too many runs in progress"})
	}
}
