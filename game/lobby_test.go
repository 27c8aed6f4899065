package game

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	long := strings.Repeat("x", 40)

	cases := map[string]struct {
		raw, want string
	}{
		"kept":             {"Robin", "Robin"},
		"trimmed":          {"  Robin \t", "Robin"},
		"control stripped": {"Ro\x00bin\n", "Robin"},
		"truncated":        {long, long[:MaxNameLength]},
		"multibyte":        {strings.Repeat("é", 40), strings.Repeat("é", MaxNameLength)},
		"empty":            {"", "Player3f2a"},
		"only spaces":      {"   ", "Player3f2a"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitizeName(tc.raw, "3f2a9c10-aaaa"))
		})
	}
}

func TestJoinSendsInitUpdateAndLobby(t *testing.T) {
	a, _ := newTestArena(t)
	ca := a.attach("a")
	a.join("a", "Alice")
	cb := a.attach("b")
	a.join("b", "Bob")

	msgsA := drain(t, ca)
	msgsB := drain(t, cb)

	assert.Equal(t, []string{MsgInit, MsgLobbyUpdate, MsgUpdate, MsgLobbyUpdate}, types(msgsA))
	assert.Equal(t, []string{MsgInit, MsgLobbyUpdate}, types(msgsB))

	welcome := payload[InitMessage](t, msgsB[0])
	assert.Equal(t, "b", welcome.MyID)
	require.Len(t, welcome.Players, 2)
	assert.Equal(t, "Alice", welcome.Players["a"].Name)
	assert.Equal(t, MaxHP, welcome.Players["b"].HP)
	assert.Equal(t, 400.0, welcome.Players["b"].X)
	assert.Equal(t, 300.0, welcome.Players["b"].Y)

	upd := payload[UpdateMessage](t, msgsA[2])
	assert.Equal(t, "b", upd.ID)
	assert.Equal(t, "Bob", upd.Position.Name)
	assert.Equal(t, Palette[1], upd.Position.Colour)

	p, _ := a.registry.Get("b")
	assert.False(t, p.Ready)
	assert.False(t, p.InGame)
	assert.False(t, p.Dead)
}

func TestJoinAgainOnlyRenames(t *testing.T) {
	a, _ := newTestArena(t)
	c := a.attach("a")
	a.join("a", "Alice")
	p, _ := a.registry.Get("a")
	p.X, p.Y = 123, 456
	drain(t, c)

	a.join("a", "Alicia")

	msgs := drain(t, c)
	assert.Equal(t, []string{MsgUpdate, MsgLobbyUpdate}, types(msgs))
	upd := payload[UpdateMessage](t, msgs[0])
	assert.Equal(t, "Alicia", upd.Position.Name)
	assert.Equal(t, 123.0, upd.Position.X)

	assert.Equal(t, 1, a.registry.Len())
	assert.Equal(t, uint64(0), p.JoinOrder)
}

func TestColourFollowsJoinSequence(t *testing.T) {
	a, _ := newTestArena(t)
	for i := 0; i <= len(Palette); i++ {
		id := string(rune('a' + i))
		a.join(id, id)
	}
	// churn must not make the next player reuse a live colour index
	a.disconnect("b")
	a.join("late", "late")

	all := a.registry.All()
	for i, p := range all[:len(Palette)] {
		assert.Equal(t, colourFor(p.JoinOrder), p.Colour, "player %d", i)
	}
	first, _ := a.registry.Get("a")
	wrapped, _ := a.registry.Get(string(rune('a' + len(Palette))))
	assert.Equal(t, first.Colour, wrapped.Colour)

	late, _ := a.registry.Get("late")
	assert.Equal(t, Palette[(len(Palette)+1)%len(Palette)], late.Colour)
}

func TestSetReady(t *testing.T) {
	a, _ := newTestArena(t)
	c := a.attach("a")
	a.join("a", "Alice")
	drain(t, c)

	a.setReady("a", true)
	a.setReady("a", true)

	msgs := drain(t, c)
	require.Equal(t, []string{MsgLobbyUpdate, MsgLobbyUpdate}, types(msgs))
	snap := payload[LobbySnapshot](t, msgs[1])
	require.Len(t, snap.Players, 1)
	assert.True(t, snap.Players[0].Ready)
	assert.True(t, snap.AllReady)

	a.setReady("ghost", true)
	assert.Empty(t, drain(t, c))
}

func TestLobbySnapshotSortedAndFiltered(t *testing.T) {
	a, _ := newTestArena(t)
	a.join("c", "Carol")
	a.join("a", "Alice")
	a.join("b", "Bob")
	a.join("x", "Xavier")
	a.setReady("a", true)
	a.setReady("b", true)

	x, _ := a.registry.Get("x")
	x.InGame = true

	snap := a.lobbySnapshot()
	var names []string
	for _, e := range snap.Players {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, names)
	assert.False(t, snap.AllReady)

	a.setReady("c", true)
	assert.True(t, a.lobbySnapshot().AllReady)

	raw, err := json.Marshal(a.lobbySnapshot())
	require.NoError(t, err)
	body := string(raw)
	assert.Less(t, strings.Index(body, `"a":`), strings.Index(body, `"b":`))
	assert.Less(t, strings.Index(body, `"b":`), strings.Index(body, `"c":`))
	assert.NotContains(t, body, `"x":`)
	assert.Contains(t, body, `"allReady":true`)
}

func TestLobbySnapshotEmptyIsNotReady(t *testing.T) {
	a, _ := newTestArena(t)

	snap := a.lobbySnapshot()
	assert.Empty(t, snap.Players)
	assert.False(t, snap.AllReady)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"players":{},"allReady":false}`, string(raw))
}

func TestRequestStartNeedsEveryoneReady(t *testing.T) {
	a, rec := newTestArena(t)
	clients := joinReady(t, a, map[string]string{"a": "A", "b": "B"}, "a", "b")
	a.setReady("b", false)
	drain(t, clients["a"])

	a.requestStart("a")

	msgs := drain(t, clients["a"])
	assert.Empty(t, ofType(msgs, MsgStartBattle))
	assert.Empty(t, ofType(msgs, MsgGameStart))
	assert.False(t, a.match.Active)
	assert.Empty(t, rec.started)

	for _, p := range a.registry.All() {
		assert.False(t, p.InGame)
		assert.Equal(t, 400.0, p.X)
		assert.Equal(t, 300.0, p.Y)
	}
}

func TestRequestStartWithEmptyLobby(t *testing.T) {
	a, _ := newTestArena(t)
	watcher := a.attach("watcher")

	a.requestStart("watcher")

	assert.Empty(t, drain(t, watcher))
	assert.False(t, a.match.Active)
	assert.Equal(t, int64(1), a.metrics.commandsRejected.Load())
}

func TestRequestStartBeginsDuel(t *testing.T) {
	a, rec := newTestArena(t)
	clients := joinReady(t, a, map[string]string{"a": "A", "b": "B"}, "a", "b")
	a.registry.players["b"].HP = 2

	a.requestStart("a")

	msgs := drain(t, clients["b"])
	require.Equal(t, []string{MsgStartBattle, MsgGameStart, MsgLobbyUpdate}, types(msgs))

	start := payload[GameStartMessage](t, msgs[1])
	require.Len(t, start.Players, 2)
	assert.Equal(t, PlayerView{X: 60, Y: 300, Name: "A", Colour: Palette[0], HP: MaxHP}, start.Players["a"])
	assert.Equal(t, PlayerView{X: 740, Y: 300, Name: "B", Colour: Palette[1], HP: MaxHP}, start.Players["b"])

	lobby := payload[LobbySnapshot](t, msgs[2])
	assert.Empty(t, lobby.Players)

	assert.True(t, a.match.Active)
	assert.Equal(t, []string{"a", "b"}, a.match.Participants)
	for _, p := range a.registry.All() {
		assert.True(t, p.InGame)
		assert.Equal(t, MaxHP, p.HP)
	}
	assert.Equal(t, [][]string{{"A", "B"}}, rec.started)
}

func TestRequestStartRejectedWhileMatchRuns(t *testing.T) {
	a, _ := newTestArena(t)
	startDuel(t, a)
	late := a.attach("c")
	a.join("c", "C")
	a.setReady("c", true)
	drain(t, late)

	a.requestStart("c")

	assert.Empty(t, ofType(drain(t, late), MsgGameStart))
	c, _ := a.registry.Get("c")
	assert.False(t, c.InGame)
	assert.Equal(t, []string{"a", "b"}, a.match.Participants)
}

func TestReturnToLobby(t *testing.T) {
	a, rec := newTestArena(t)
	clients := startDuel(t, a)

	a.returnToLobby("a")

	p, _ := a.registry.Get("a")
	assert.False(t, p.InGame)
	assert.False(t, p.Ready)
	msgs := drain(t, clients["b"])
	require.Equal(t, []string{MsgLobbyUpdate}, types(msgs))
	lobby := payload[LobbySnapshot](t, msgs[0])
	require.Len(t, lobby.Players, 1)
	assert.Equal(t, "A", lobby.Players[0].Name)
	assert.True(t, a.match.Active, "b is still in the match")

	a.returnToLobby("b")
	assert.False(t, a.match.Active, "nobody left in the match")
	assert.Empty(t, rec.over)
	assert.Empty(t, ofType(drain(t, clients["b"]), MsgGameOver))
}

func TestSecondMatchResetsHealth(t *testing.T) {
	a, _ := newTestArena(t)
	startDuel(t, a)
	a.registry.players["b"].HP = 1
	a.registry.players["b"].X, a.registry.players["b"].Y = 300, 300
	a.shoot("a", 290, 300, 0)
	a.step(0.01)
	require.False(t, a.match.Active)

	a.returnToLobby("a")
	a.returnToLobby("b")
	a.setReady("a", true)
	a.setReady("b", true)
	a.requestStart("b")

	require.True(t, a.match.Active)
	b, _ := a.registry.Get("b")
	assert.Equal(t, MaxHP, b.HP)
	assert.False(t, b.Dead)
}
