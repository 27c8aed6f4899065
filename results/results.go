// Package results keeps a win leaderboard and a short history of finished
// matches in Redis. Live game state is never stored here.
package results

import (
	"context"
	"fmt"
	"time"

	"arrow-arena/circuitbreaker"
	"arrow-arena/game"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	winsKey    = "arena:wins"
	matchesKey = "arena:matches"

	historyLength = 100
	writeTimeout  = 2 * time.Second
)

type Record struct {
	WinnerID     string    `msgpack:"winner_id" json:"winnerId"`
	WinnerName   string    `msgpack:"winner_name" json:"winnerName"`
	Participants []string  `msgpack:"participants" json:"participants"`
	StartedAt    time.Time `msgpack:"started_at" json:"startedAt"`
	EndedAt      time.Time `msgpack:"ended_at" json:"endedAt"`
}

type Standing struct {
	Name string `json:"name"`
	Wins int64  `json:"wins"`
}

type Store struct {
	game.NopObserver

	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[any]
	size    int
}

// Open connects to redisURL, which may be a redis:// URL or a host:port.
// An empty URL yields a disabled store.
func Open(ctx context.Context, redisURL string, size int) *Store {
	s := &Store{
		breaker: circuitbreaker.New("redis", 5*time.Second),
		size:    size,
	}
	if redisURL == "" {
		log.Info("No redis server configured, leaderboard disabled")
		return s
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	s.client = redis.NewClient(opts)

	if err := s.client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Error("Failed to connect to Redis")
	} else {
		log.Info("Connected to Redis at ", opts.Addr)
	}
	return s
}

func (s *Store) Enabled() bool {
	return s.client != nil
}

// MatchOver records the result in the background; the simulation must not wait on Redis.
func (s *Store) MatchOver(result game.MatchResult) {
	if !s.Enabled() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := s.Record(ctx, FromResult(result)); err != nil {
			log.WithError(err).Error("Failed to record match result")
		}
	}()
}

func FromResult(result game.MatchResult) Record {
	return Record{
		WinnerID:     result.WinnerID,
		WinnerName:   result.WinnerName,
		Participants: result.Participants,
		StartedAt:    result.StartedAt,
		EndedAt:      result.EndedAt,
	}
}

func Encode(r Record) ([]byte, error) {
	return msgpack.Marshal(&r)
}

func Decode(data []byte) (Record, error) {
	var r Record
	err := msgpack.Unmarshal(data, &r)
	return r, err
}

func (s *Store) Record(ctx context.Context, r Record) error {
	if !s.Enabled() {
		return nil
	}

	data, err := Encode(r)
	if err != nil {
		return fmt.Errorf("encoding match record: %w", err)
	}

	_, err = s.breaker.Execute(func() (any, error) {
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZIncrBy(ctx, winsKey, 1, r.WinnerName)
			pipe.LPush(ctx, matchesKey, data)
			pipe.LTrim(ctx, matchesKey, 0, historyLength-1)
			return nil
		})
		return nil, err
	})
	return err
}

func (s *Store) Leaderboard(ctx context.Context) ([]Standing, error) {
	standings := []Standing{}
	if !s.Enabled() {
		return standings, nil
	}

	res, err := s.breaker.Execute(func() (any, error) {
		return s.client.ZRevRangeWithScores(ctx, winsKey, 0, int64(s.size-1)).Result()
	})
	if err != nil {
		return nil, err
	}

	for _, z := range res.([]redis.Z) {
		name, _ := z.Member.(string)
		standings = append(standings, Standing{Name: name, Wins: int64(z.Score)})
	}
	return standings, nil
}

func (s *Store) RecentMatches(ctx context.Context, n int) ([]Record, error) {
	records := []Record{}
	if !s.Enabled() || n <= 0 {
		return records, nil
	}

	res, err := s.breaker.Execute(func() (any, error) {
		return s.client.LRange(ctx, matchesKey, 0, int64(n-1)).Result()
	})
	if err != nil {
		return nil, err
	}

	for _, raw := range res.([]string) {
		r, err := Decode([]byte(raw))
		if err != nil {
			log.WithError(err).Warn("Skipping undecodable match record")
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Close()
}

var _ game.Observer = (*Store)(nil)
