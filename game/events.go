package game

import "time"

// Observer is told about match events after the arena has applied them.
// Implementations are called from the simulation goroutine and must not block.
type Observer interface {
	MatchStarted(participants []string)
	PlayerHit(victimID, shooterID string, hp int)
	PlayerDied(victimID, shooterID string)
	MatchOver(result MatchResult)
}

type MatchResult struct {
	WinnerID     string
	WinnerName   string
	Participants []string
	StartedAt    time.Time
	EndedAt      time.Time
}

// NopObserver ignores everything; embed it to implement only some events.
type NopObserver struct{}

func (NopObserver) MatchStarted([]string) {}
func (NopObserver) PlayerHit(string, string, int) {}
func (NopObserver) PlayerDied(string, string) {}
func (NopObserver) MatchOver(MatchResult) {}

// Observers fans every event out to each of its members in order.
type Observers []Observer

func (o Observers) MatchStarted(participants []string) {
	for _, obs := range o {
		obs.MatchStarted(participants)
	}
}

func (o Observers) PlayerHit(victimID, shooterID string, hp int) {
	for _, obs := range o {
		obs.PlayerHit(victimID, shooterID, hp)
	}
}

func (o Observers) PlayerDied(victimID, shooterID string) {
	for _, obs := range o {
		obs.PlayerDied(victimID, shooterID)
	}
}

func (o Observers) MatchOver(result MatchResult) {
	for _, obs := range o {
		obs.MatchOver(result)
	}
}
