package game

import (
	"encoding/json"
	"math"
	"time"

	"arrow-arena/config"

	log "github.com/sirupsen/logrus"
)

// Arena owns every piece of mutable game state. Only the Run goroutine
// touches it; everybody else talks to it through the inbox.
type Arena struct {
	registry    *Registry
	match       Match
	projectiles []*Projectile
	clients     map[string]*Client

	inbox chan any
	quit  chan struct{}

	world        World
	tickInterval time.Duration
	arrowSpeed   float64
	clampMoves   bool
	sendBuffer   int
	previousTime time.Time

	observer Observer
	metrics  *Metrics
}

type World struct {
	Width  float64
	Height float64
}

func (w World) contains(x, y float64) bool {
	return x >= 0 && x <= w.Width && y >= 0 && y <= w.Height
}

func (w World) centre() (float64, float64) {
	return w.Width / 2, w.Height / 2
}

type connectCmd struct {
	client *Client
	done   chan struct{}
}

type disconnectCmd struct {
	client *Client
}

type ClientMessage struct {
	Client  *Client
	Message []byte
}

type lobbyQuery struct {
	reply chan LobbySnapshot
}

func NewArena(conf config.Config, observer Observer) *Arena {
	if observer == nil {
		observer = NopObserver{}
	}

	return &Arena{
		registry:     NewRegistry(),
		clients:      make(map[string]*Client),
		inbox:        make(chan any, 256),
		quit:         make(chan struct{}),
		world:        World{Width: conf.WorldWidth, Height: conf.WorldHeight},
		tickInterval: time.Second / time.Duration(conf.TickRate),
		arrowSpeed:   ArrowSpeedPerTick * float64(conf.TickRate),
		clampMoves:   conf.ClampMoves,
		sendBuffer:   conf.SendBuffer,
		previousTime: time.Now(),
		observer:     observer,
		metrics:      &Metrics{},
	}
}

func (a *Arena) Metrics() *Metrics {
	return a.metrics
}

func (a *Arena) Stop() {
	close(a.quit)
}

func (a *Arena) Run() {
	ticker := time.NewTicker(a.tickInterval)
	defer ticker.Stop()

	a.previousTime = time.Now()
	log.WithField("interval", a.tickInterval).Info("Arena started")

	for {
		select {
		case <-a.quit:
			a.closeClients()
			log.Info("Arena stopped")
			return
		case cmd := <-a.inbox:
			a.handleCommand(cmd)
		case t := <-ticker.C:
			a.tick(t)
		}
	}
}

// Connect registers a client and returns once the arena has seen it, so
// messages read afterwards are guaranteed to find it. It returns false if
// the arena has already stopped.
func (a *Arena) Connect(c *Client) bool {
	done := make(chan struct{})
	select {
	case a.inbox <- connectCmd{client: c, done: done}:
	case <-a.quit:
		return false
	}
	select {
	case <-done:
		return true
	case <-a.quit:
		return false
	}
}

func (a *Arena) Disconnect(c *Client) {
	select {
	case a.inbox <- disconnectCmd{client: c}:
	case <-a.quit:
	}
}

func (a *Arena) Receive(c *Client, message []byte) {
	select {
	case a.inbox <- ClientMessage{Client: c, Message: message}:
	case <-a.quit:
	}
}

// Lobby returns the current lobby snapshot as seen by the Run goroutine.
func (a *Arena) Lobby() (LobbySnapshot, bool) {
	reply := make(chan LobbySnapshot, 1)
	select {
	case a.inbox <- lobbyQuery{reply: reply}:
	case <-a.quit:
		return LobbySnapshot{}, false
	}
	select {
	case snapshot := <-reply:
		return snapshot, true
	case <-a.quit:
		return LobbySnapshot{}, false
	}
}

func (a *Arena) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case connectCmd:
		a.clients[c.client.id] = c.client
		log.WithField("client", c.client.id).Info("Client connected")
		close(c.done)
	case disconnectCmd:
		if current, ok := a.clients[c.client.id]; ok && current == c.client {
			a.disconnect(c.client.id)
		}
	case ClientMessage:
		if _, ok := a.clients[c.Client.id]; !ok {
			return
		}
		a.handleMessage(c.Client.id, c.Message)
	case lobbyQuery:
		c.reply <- a.lobbySnapshot()
	}
}

func (a *Arena) tick(t time.Time) {
	dt := t.Sub(a.previousTime).Seconds()
	a.previousTime = t

	start := time.Now()
	a.step(dt)
	a.metrics.AddTick(time.Since(start))
}

func (a *Arena) disconnect(id string) {
	if c, ok := a.clients[id]; ok {
		delete(a.clients, id)
		c.close()
	}

	p, ok := a.registry.Remove(id)
	if !ok {
		log.WithField("client", id).Info("Client disconnected before joining")
		return
	}

	log.WithFields(log.Fields{"client": id, "name": p.Name, "inGame": p.InGame}).Info("Player disconnected")

	a.discardProjectileOf(id)
	a.broadcast(MsgRemove, id)
	if !p.InGame {
		a.broadcastLobby()
	}
	a.releaseAbandonedMatch()
}

func (a *Arena) closeClients() {
	for id, c := range a.clients {
		c.close()
		delete(a.clients, id)
	}
}

func (a *Arena) handleMessage(id string, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		a.malformed(id, "", err)
		return
	}

	switch msg.Type {
	case MsgJoin:
		var name string
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &name); err != nil {
				a.malformed(id, msg.Type, err)
				return
			}
		}
		a.join(id, name)
	case MsgReady:
		ready, err := decodeData[bool](msg)
		if err != nil {
			a.malformed(id, msg.Type, err)
			return
		}
		a.setReady(id, ready)
	case MsgStartBattle:
		a.requestStart(id)
	case MsgMove:
		move, err := decodeData[MoveMessage](msg)
		if err != nil {
			a.malformed(id, msg.Type, err)
			return
		}
		if !finite(move.X, move.Y) {
			a.malformed(id, msg.Type, errNotFinite)
			return
		}
		a.move(id, move.X, move.Y)
	case MsgShoot:
		shot, err := decodeData[ShootMessage](msg)
		if err != nil {
			a.malformed(id, msg.Type, err)
			return
		}
		if !finite(shot.X, shot.Y, shot.Angle) {
			a.malformed(id, msg.Type, errNotFinite)
			return
		}
		a.shoot(id, shot.X, shot.Y, shot.Angle)
	case MsgBackToLobby:
		a.returnToLobby(id)
	default:
		a.malformed(id, msg.Type, errUnknownType)
	}
}

func (a *Arena) malformed(id, msgType string, err error) {
	a.metrics.IncMalformed()
	log.WithFields(log.Fields{"client": id, "type": msgType}).WithError(err).Debug("Dropping malformed message")
}

func (a *Arena) reject(id, command, reason string) {
	a.metrics.IncRejected()
	log.WithFields(log.Fields{"client": id, "command": command, "reason": reason}).Debug("Command rejected")
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
