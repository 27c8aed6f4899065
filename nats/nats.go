package nats

import (
	"encoding/json"
	"time"

	"arrow-arena/circuitbreaker"
	"arrow-arena/game"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// Publisher forwards match events to NATS. Without a connection every
// method is a no-op, so it can always be plugged into the arena.
type Publisher struct {
	conn    *nats.Conn
	prefix  string
	breaker *gobreaker.CircuitBreaker[any]
}

type matchStartedEvent struct {
	Participants []string  `json:"participants"`
	At           time.Time `json:"at"`
}

type playerHitEvent struct {
	VictimID  string `json:"victimId"`
	ShooterID string `json:"shooterId"`
	HP        int    `json:"hp"`
}

type playerDiedEvent struct {
	VictimID  string `json:"victimId"`
	ShooterID string `json:"shooterId"`
}

type matchOverEvent struct {
	WinnerID     string   `json:"winnerId"`
	WinnerName   string   `json:"winnerName"`
	Participants []string `json:"participants"`
	DurationMs   int64    `json:"durationMs"`
}

func Connect(natsURL, prefix string) (*Publisher, error) {
	p := &Publisher{
		prefix:  prefix,
		breaker: circuitbreaker.New("nats", 5*time.Second),
	}

	if natsURL == "" {
		log.Info("No nats server configured")
		return p, nil
	}

	c, err := nats.Connect(natsURL,
		nats.Name("arrow-arena"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("Disconnected from nats")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("Reconnected to nats at ", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return p, err
	}

	log.Info("Connected to nats at ", natsURL)
	p.conn = c
	return p, nil
}

func (p *Publisher) Subject(event string) string {
	return p.prefix + "." + event
}

func (p *Publisher) Publish(event string, payload any) {
	if p.conn == nil || circuitbreaker.Open(p.breaker) {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("Failed to marshal nats event")
		return
	}

	_, err = p.breaker.Execute(func() (any, error) {
		return nil, p.conn.Publish(p.Subject(event), data)
	})
	if err != nil {
		log.WithError(err).WithField("event", event).Debug("Failed to publish message")
	}
}

func (p *Publisher) MatchStarted(participants []string) {
	p.Publish("match.started", matchStartedEvent{Participants: participants, At: time.Now()})
}

func (p *Publisher) PlayerHit(victimID, shooterID string, hp int) {
	p.Publish("player.hit", playerHitEvent{VictimID: victimID, ShooterID: shooterID, HP: hp})
}

func (p *Publisher) PlayerDied(victimID, shooterID string) {
	p.Publish("player.died", playerDiedEvent{VictimID: victimID, ShooterID: shooterID})
}

func (p *Publisher) MatchOver(result game.MatchResult) {
	p.Publish("match.over", matchOverEvent{
		WinnerID:     result.WinnerID,
		WinnerName:   result.WinnerName,
		Participants: result.Participants,
		DurationMs:   result.EndedAt.Sub(result.StartedAt).Milliseconds(),
	})
}

// Close flushes pending messages before disconnecting.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		log.WithError(err).Warn("Failed to drain nats connection")
	}
}

var _ game.Observer = (*Publisher)(nil)
