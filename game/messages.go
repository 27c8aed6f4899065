package game

import (
	"bytes"
	"encoding/json"
)

// Message is the envelope used in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client -> server
const (
	MsgJoin        = "join"
	MsgReady       = "ready"
	MsgStartBattle = "startBattle"
	MsgMove        = "move"
	MsgShoot       = "shootArrowNew"
	MsgBackToLobby = "backToLobby"
)

// Server -> client
const (
	MsgInit         = "init"
	MsgUpdate       = "update"
	MsgRemove       = "remove"
	MsgLobbyUpdate  = "lobbyUpdate"
	MsgGameStart    = "gameStart"
	MsgSpawnArrow   = "spawnArrow"
	MsgUpdateArrows = "updateArrows"
	MsgPlayerHit    = "playerHit"
	MsgGameOver     = "gameOver"
)

type MoveMessage struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ShootMessage struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

type PlayerView struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Name   string  `json:"name"`
	Colour int     `json:"colour"`
	HP     int     `json:"hp"`
	Dead   bool    `json:"dead"`
}

type InitMessage struct {
	Players map[string]PlayerView `json:"players"`
	MyID    string                `json:"myId"`
}

type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Name   string  `json:"name"`
	Colour int     `json:"colour"`
}

type UpdateMessage struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
}

type GameStartMessage struct {
	Players map[string]PlayerView `json:"players"`
}

type SpawnArrowMessage struct {
	OwnerID string  `json:"ownerId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
	Angle   float64 `json:"angle"`
}

type ArrowState struct {
	OwnerID string  `json:"ownerId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
}

type PlayerHitMessage struct {
	PlayerID string `json:"playerId"`
	HP       int    `json:"hp"`
}

type GameOverMessage struct {
	WinnerID   string `json:"winnerId"`
	WinnerName string `json:"winnerName"`
	Colour     int    `json:"colour"`
}

type LobbyEntry struct {
	ID    string `json:"-"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// LobbyEntries encodes as an object keyed by player id, keys kept in slice order.
type LobbyEntries []LobbyEntry

func (l LobbyEntries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l *LobbyEntries) UnmarshalJSON(b []byte) error {
	var m map[string]LobbyEntry
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*l = (*l)[:0]
	for id, e := range m {
		e.ID = id
		*l = append(*l, e)
	}
	return nil
}

type LobbySnapshot struct {
	Players  LobbyEntries `json:"players"`
	AllReady bool         `json:"allReady"`
}
