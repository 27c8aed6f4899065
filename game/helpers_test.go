package game

import (
	"encoding/json"
	"testing"

	"arrow-arena/config"

	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		TickRate:        20,
		WorldWidth:      800,
		WorldHeight:     600,
		SendBuffer:      512,
		LeaderboardSize: 10,
	}
}

type recorder struct {
	NopObserver
	started [][]string
	hits    []int
	died    []string
	over    []MatchResult
}

func (r *recorder) MatchStarted(participants []string) { r.started = append(r.started, participants) }
func (r *recorder) PlayerHit(_, _ string, hp int) { r.hits = append(r.hits, hp) }
func (r *recorder) PlayerDied(victim, _ string) { r.died = append(r.died, victim) }
func (r *recorder) MatchOver(result MatchResult) { r.over = append(r.over, result) }

func newTestArena(t *testing.T) (*Arena, *recorder) {
	t.Helper()
	rec := &recorder{}
	return NewArena(testConfig(), rec), rec
}

// attach registers a client without a network connection, the way Run does on connect.
func (a *Arena) attach(id string) *Client {
	c := newClient(id, a, nil, a.sendBuffer)
	a.clients[id] = c
	return c
}

func drain(t *testing.T, c *Client) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case b, ok := <-c.send:
			if !ok {
				return out
			}
			var msg Message
			require.NoError(t, json.Unmarshal(b, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func ofType(msgs []Message, msgType string) []Message {
	var out []Message
	for _, m := range msgs {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func types(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

func payload[T any](t *testing.T, msg Message) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(msg.Data, &out))
	return out
}

// joinReady joins every id with its name and readies it; clients are drained afterwards.
func joinReady(t *testing.T, a *Arena, names map[string]string, order ...string) map[string]*Client {
	t.Helper()
	clients := make(map[string]*Client)
	for _, id := range order {
		clients[id] = a.attach(id)
		a.join(id, names[id])
	}
	for _, id := range order {
		a.setReady(id, true)
	}
	for _, c := range clients {
		drain(t, c)
	}
	return clients
}

func startDuel(t *testing.T, a *Arena) map[string]*Client {
	t.Helper()
	clients := joinReady(t, a, map[string]string{"a": "A", "b": "B"}, "a", "b")
	a.requestStart("a")
	require.True(t, a.match.Active)
	for _, c := range clients {
		drain(t, c)
	}
	return clients
}
