package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort  string `env:"ARENA_HTTP_PORT" envDefault:"3000"`
	GRPCPort  string `env:"ARENA_GRPC_PORT" envDefault:"3001"`
	StaticDir string `env:"ARENA_STATIC_DIR" envDefault:"public"`

	LogJSON  bool   `env:"ARENA_LOG_JSON" envDefault:"false"`
	LogLevel string `env:"ARENA_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"ARENA_LOG_FILE"`

	TickRate    int     `env:"ARENA_TICK_RATE" envDefault:"20"`
	WorldWidth  float64 `env:"ARENA_WORLD_WIDTH" envDefault:"800"`
	WorldHeight float64 `env:"ARENA_WORLD_HEIGHT" envDefault:"600"`
	ClampMoves  bool    `env:"ARENA_CLAMP_MOVES" envDefault:"false"`
	SendBuffer  int     `env:"ARENA_SEND_BUFFER" envDefault:"64"`

	NatsURL    string `env:"ARENA_NATS_URL"`
	NatsPrefix string `env:"ARENA_NATS_PREFIX" envDefault:"arena"`

	RedisURL        string `env:"ARENA_REDIS_URL"`
	LeaderboardSize int    `env:"ARENA_LEADERBOARD_SIZE" envDefault:"10"`
}

const maxTickRate = 1000

// spawnMargin mirrors game.SpawnMargin; the world has to leave room for it on both sides.
const spawnMargin = 60

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.TickRate <= 0 || c.TickRate > maxTickRate {
		return fmt.Errorf("ARENA_TICK_RATE must be between 1 and %d, got %d", maxTickRate, c.TickRate)
	}
	if c.WorldWidth <= 2*spawnMargin || c.WorldHeight <= 2*spawnMargin {
		return fmt.Errorf("world %gx%g is too small for spawn margin %d", c.WorldWidth, c.WorldHeight, spawnMargin)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("ARENA_SEND_BUFFER must be positive, got %d", c.SendBuffer)
	}
	if c.LeaderboardSize <= 0 {
		return fmt.Errorf("ARENA_LEADERBOARD_SIZE must be positive, got %d", c.LeaderboardSize)
	}
	return nil
}

// Init is Load for main: it exits the process on a bad configuration.
func Init() Config {
	c, err := Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	return c
}
