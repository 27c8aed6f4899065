package game

import (
	"sort"
	"strings"
	"unicode"

	log "github.com/sirupsen/logrus"
)

func sanitizeName(raw, id string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, raw)
	name = strings.TrimSpace(name)

	if runes := []rune(name); len(runes) > MaxNameLength {
		name = strings.TrimSpace(string(runes[:MaxNameLength]))
	}

	if name == "" {
		short := id
		if len(short) > 4 {
			short = short[:4]
		}
		name = "Player" + short
	}
	return name
}

func (a *Arena) join(id, rawName string) {
	name := sanitizeName(rawName, id)

	p, created := a.registry.Create(id)
	p.Name = name

	if !created {
		log.WithFields(log.Fields{"client": id, "name": name}).Info("Player renamed")
		a.broadcast(MsgUpdate, UpdateMessage{ID: id, Position: p.position()})
		a.broadcastLobby()
		return
	}

	p.Colour = colourFor(p.JoinOrder)
	p.X, p.Y = a.world.centre()
	p.HP = MaxHP
	log.WithFields(log.Fields{"client": id, "name": name, "joinOrder": p.JoinOrder}).Info("Player joined")

	a.sendTo(id, MsgInit, InitMessage{
		Players: a.playerViews(a.registry.All()),
		MyID:    id,
	})
	a.broadcastExcept(MsgUpdate, UpdateMessage{ID: id, Position: p.position()}, id)
	a.broadcastLobby()
}

func (a *Arena) setReady(id string, ready bool) {
	p, ok := a.registry.Get(id)
	if !ok {
		a.reject(id, MsgReady, "unknown player")
		return
	}

	p.Ready = ready
	a.broadcastLobby()
}

// eligible returns every player outside the match, in join order.
func (a *Arena) eligible() []*Player {
	var out []*Player
	for _, p := range a.registry.All() {
		if !p.InGame {
			out = append(out, p)
		}
	}
	return out
}

func (a *Arena) requestStart(id string) {
	if a.match.Active {
		a.reject(id, MsgStartBattle, "match already running")
		return
	}

	players := a.eligible()
	if len(players) == 0 {
		a.reject(id, MsgStartBattle, "nobody in lobby")
		return
	}
	for _, p := range players {
		if !p.Ready {
			a.reject(id, MsgStartBattle, "not everyone is ready")
			return
		}
	}

	spawns := SpawnPositions(len(players), a.world.Width, a.world.Height, SpawnMargin)
	participants := make([]string, len(players))
	for i, p := range players {
		p.X, p.Y = spawns[i].X, spawns[i].Y
		p.HP = MaxHP
		p.Dead = false
		p.InGame = true
		participants[i] = p.ID
	}

	a.match = newMatch(participants)
	a.projectiles = nil
	a.metrics.IncMatchesStarted()
	log.WithFields(log.Fields{"requestedBy": id, "participants": len(participants)}).Info("Match started")

	a.broadcast(MsgStartBattle, nil)
	a.broadcast(MsgGameStart, GameStartMessage{Players: a.playerViews(players)})
	a.broadcastLobby()

	a.observer.MatchStarted(a.namesOf(participants))
}

func (a *Arena) returnToLobby(id string) {
	p, ok := a.registry.Get(id)
	if !ok {
		a.reject(id, MsgBackToLobby, "unknown player")
		return
	}

	p.InGame = false
	p.Ready = false
	a.discardProjectileOf(id)
	a.broadcastLobby()
	a.releaseAbandonedMatch()
}

func (a *Arena) lobbySnapshot() LobbySnapshot {
	entries := LobbyEntries{}
	order := make(map[string]uint64)
	for _, p := range a.registry.All() {
		if p.InGame {
			continue
		}
		entries = append(entries, LobbyEntry{ID: p.ID, Name: p.Name, Ready: p.Ready})
		order[p.ID] = p.JoinOrder
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return order[entries[i].ID] < order[entries[j].ID]
	})

	allReady := len(entries) > 0
	for _, e := range entries {
		if !e.Ready {
			allReady = false
			break
		}
	}

	return LobbySnapshot{Players: entries, AllReady: allReady}
}

func (a *Arena) namesOf(ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if p, ok := a.registry.Get(id); ok {
			names = append(names, p.Name)
		}
	}
	return names
}
