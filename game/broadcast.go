package game

import (
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var (
	errNotFinite   = errors.New("coordinates must be finite numbers")
	errUnknownType = errors.New("unknown message type")
	errEmptyData   = errors.New("missing data")
)

func encode(msgType string, data any) ([]byte, error) {
	msg := Message{Type: msgType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", msgType, err)
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}

func decodeData[T any](msg Message) (T, error) {
	var out T
	if len(msg.Data) == 0 {
		return out, errEmptyData
	}
	err := json.Unmarshal(msg.Data, &out)
	return out, err
}

func (a *Arena) broadcast(msgType string, data any) {
	a.broadcastExcept(msgType, data, "")
}

func (a *Arena) broadcastExcept(msgType string, data any, except string) {
	bytes, err := encode(msgType, data)
	if err != nil {
		log.WithError(err).Error("Error marshalling message")
		return
	}

	for id, c := range a.clients {
		if id == except {
			continue
		}
		a.deliver(c, msgType, bytes)
	}
}

func (a *Arena) sendTo(id string, msgType string, data any) {
	c, ok := a.clients[id]
	if !ok {
		return
	}

	bytes, err := encode(msgType, data)
	if err != nil {
		log.WithError(err).Error("Error marshalling message")
		return
	}
	a.deliver(c, msgType, bytes)
}

// deliver never blocks: a client whose queue is full loses the message.
func (a *Arena) deliver(c *Client, msgType string, bytes []byte) {
	if c.Enqueue(bytes) {
		return
	}
	a.metrics.IncDropped()
	log.WithFields(log.Fields{"client": c.id, "type": msgType}).Warn("Send queue full, dropping message")
}

func (a *Arena) broadcastLobby() {
	a.broadcast(MsgLobbyUpdate, a.lobbySnapshot())
}

func (a *Arena) playerViews(players []*Player) map[string]PlayerView {
	views := make(map[string]PlayerView, len(players))
	for _, p := range players {
		views[p.ID] = p.view()
	}
	return views
}

func (a *Arena) arrowStates() []ArrowState {
	arrows := make([]ArrowState, 0, len(a.projectiles))
	for _, pr := range a.projectiles {
		arrows = append(arrows, ArrowState{
			OwnerID: pr.OwnerID,
			X:       pr.X,
			Y:       pr.Y,
			VX:      pr.VX,
			VY:      pr.VY,
		})
	}
	return arrows
}
