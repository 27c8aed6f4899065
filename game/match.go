package game

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"
)

type Match struct {
	Active       bool
	Participants []string
	StartedAt    time.Time

	enrolled map[string]bool
}

func newMatch(participants []string) Match {
	enrolled := make(map[string]bool, len(participants))
	for _, id := range participants {
		enrolled[id] = true
	}
	return Match{
		Active:       true,
		Participants: participants,
		StartedAt:    time.Now(),
		enrolled:     enrolled,
	}
}

// Enrolled reports whether id was placed in the running match when it started.
func (m Match) Enrolled(id string) bool {
	return m.Active && m.enrolled[id]
}

type Projectile struct {
	OwnerID string
	X, Y    float64
	VX, VY  float64
	Angle   float64

	dead bool
}

// step advances the simulation by dt seconds of wall-clock time.
//
// Collisions are checked against participants in join order and a
// projectile stops at the first player it touches.
func (a *Arena) step(dt float64) {
	for _, pr := range a.projectiles {
		a.isolate(pr, func() {
			pr.X += pr.VX * dt
			pr.Y += pr.VY * dt
			if !finite(pr.X, pr.Y) || !a.world.contains(pr.X, pr.Y) {
				pr.dead = true
			}
		})
	}

	targets := a.registry.All()
	for _, pr := range a.projectiles {
		// a finished match discards everything still in the air
		if !a.match.Active {
			break
		}
		if pr.dead {
			continue
		}
		a.isolate(pr, func() {
			a.collide(pr, targets)
		})
	}

	a.sweepProjectiles()
	a.broadcast(MsgUpdateArrows, a.arrowStates())
}

func (a *Arena) isolate(pr *Projectile, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			pr.dead = true
			log.WithField("owner", pr.OwnerID).Errorf("Projectile update failed: %v", r)
		}
	}()
	fn()
}

func (a *Arena) collide(pr *Projectile, targets []*Player) {
	reach := (ProjectileRadius + PlayerRadius) * (ProjectileRadius + PlayerRadius)

	for _, p := range targets {
		if !p.InGame || p.Dead || p.ID == pr.OwnerID || !a.match.Enrolled(p.ID) {
			continue
		}

		dx := pr.X - p.X
		dy := pr.Y - p.Y
		if dx*dx+dy*dy >= reach {
			continue
		}

		pr.dead = true
		a.hit(p, pr.OwnerID)
		return
	}
}

func (a *Arena) hit(p *Player, shooterID string) {
	p.HP--
	a.metrics.IncHits()
	log.WithFields(log.Fields{"victim": p.ID, "shooter": shooterID, "hp": p.HP}).Debug("Player hit")

	a.broadcast(MsgPlayerHit, PlayerHitMessage{PlayerID: p.ID, HP: p.HP})
	a.observer.PlayerHit(p.ID, shooterID, p.HP)

	if p.HP > 0 {
		return
	}

	p.Dead = true
	log.WithFields(log.Fields{"victim": p.ID, "shooter": shooterID}).Info("Player died")
	a.observer.PlayerDied(p.ID, shooterID)
	a.checkWinner()
}

func (a *Arena) checkWinner() {
	if !a.match.Active {
		return
	}

	var alive []*Player
	for _, id := range a.match.Participants {
		p, ok := a.registry.Get(id)
		if ok && p.InGame && !p.Dead {
			alive = append(alive, p)
		}
	}
	if len(alive) != 1 {
		return
	}

	winner := alive[0]
	result := MatchResult{
		WinnerID:     winner.ID,
		WinnerName:   winner.Name,
		Participants: a.namesOf(a.match.Participants),
		StartedAt:    a.match.StartedAt,
		EndedAt:      time.Now(),
	}
	a.endMatch()
	a.metrics.IncMatchesFinished()
	log.WithFields(log.Fields{"winner": winner.ID, "name": winner.Name}).Info("Match over")

	a.broadcast(MsgGameOver, GameOverMessage{
		WinnerID:   winner.ID,
		WinnerName: winner.Name,
		Colour:     winner.Colour,
	})
	a.observer.MatchOver(result)
}

func (a *Arena) endMatch() {
	a.match.Active = false
	a.projectiles = nil
}

// releaseAbandonedMatch frees the match slot once no participant is left in it.
func (a *Arena) releaseAbandonedMatch() {
	if !a.match.Active {
		return
	}
	for _, id := range a.match.Participants {
		if p, ok := a.registry.Get(id); ok && p.InGame {
			return
		}
	}

	log.Info("Every participant left, ending match without a winner")
	a.endMatch()
}

func (a *Arena) sweepProjectiles() {
	live := a.projectiles[:0]
	for _, pr := range a.projectiles {
		if !pr.dead {
			live = append(live, pr)
		}
	}
	for i := len(live); i < len(a.projectiles); i++ {
		a.projectiles[i] = nil
	}
	a.projectiles = live
}

func (a *Arena) projectileOf(id string) *Projectile {
	for _, pr := range a.projectiles {
		if pr.OwnerID == id && !pr.dead {
			return pr
		}
	}
	return nil
}

func (a *Arena) discardProjectileOf(id string) {
	if pr := a.projectileOf(id); pr != nil {
		pr.dead = true
		a.sweepProjectiles()
	}
}

func (a *Arena) shoot(id string, x, y, angle float64) {
	p, ok := a.registry.Get(id)
	switch {
	case !ok:
		a.reject(id, MsgShoot, "unknown player")
		return
	case !p.InGame:
		a.reject(id, MsgShoot, "not in game")
		return
	case p.Dead:
		a.reject(id, MsgShoot, "dead")
		return
	case !a.match.Active:
		a.reject(id, MsgShoot, "match over")
		return
	case !a.match.Enrolled(id):
		a.reject(id, MsgShoot, "not in this match")
		return
	case a.projectileOf(id) != nil:
		a.reject(id, MsgShoot, "arrow already in flight")
		return
	}

	rad := angle * math.Pi / 180
	pr := &Projectile{
		OwnerID: id,
		X:       x,
		Y:       y,
		VX:      math.Cos(rad) * a.arrowSpeed,
		VY:      math.Sin(rad) * a.arrowSpeed,
		Angle:   angle,
	}
	a.projectiles = append(a.projectiles, pr)
	a.metrics.IncArrowsFired()

	a.broadcast(MsgSpawnArrow, SpawnArrowMessage{
		OwnerID: id,
		X:       pr.X,
		Y:       pr.Y,
		VX:      pr.VX,
		VY:      pr.VY,
		Angle:   angle,
	})
}

// move trusts the reported position unless clamping is switched on.
func (a *Arena) move(id string, x, y float64) {
	p, ok := a.registry.Get(id)
	if !ok {
		a.reject(id, MsgMove, "unknown player")
		return
	}

	if a.clampMoves {
		x = math.Max(0, math.Min(x, a.world.Width))
		y = math.Max(0, math.Min(y, a.world.Height))
	}

	p.X, p.Y = x, y
	a.broadcast(MsgUpdate, UpdateMessage{ID: id, Position: p.position()})
}
