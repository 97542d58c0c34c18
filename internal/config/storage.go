package config

import (
	"fmt"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

const (
	JournalBolt  = "bolt"
	JournalRedis = "redis"
)

type StorageConfig struct {
	// DBPath is the path to the BoltDB file for pools and the bolt journal.
	// Default: "./data/route-executor.db"
	DBPath string

	// PersistenceEnabled controls whether pools are persisted to disk.
	// Default: true
	PersistenceEnabled bool

	// PersistInterval is how often changed pools are batch-saved (in seconds).
	// Default: 30
	PersistInterval int

	// Journal selects the execution journal backend: "bolt" or "redis".
	// Default: "bolt"
	Journal string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JournalTTL is how long redis keeps a report (in seconds). Zero keeps it forever.
	// Default: 86400
	JournalTTL int
}

func (c *StorageConfig) Key() string {
	return STORAGE_CONFIG_KEY
}

func (c *StorageConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("STORAGE_DB_PATH", "./data/route-executor.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("STORAGE_PERSISTENCE_ENABLED", "true") == "true"
	c.PersistInterval = common.GetEnvOrDefaultInt("STORAGE_PERSIST_INTERVAL", 30)
	c.Journal = common.GetEnvOrDefault("STORAGE_JOURNAL", JournalBolt)
	c.RedisAddr = common.GetEnvOrDefault("REDIS_ADDR", "localhost:6379")
	c.RedisPassword = common.GetEnvOrDefault("REDIS_PASSWORD", "")
	c.RedisDB = common.GetEnvOrDefaultInt("REDIS_DB", 0)
	c.JournalTTL = common.GetEnvOrDefaultInt("JOURNAL_TTL", 86400)
	return c.Validate()
}

func (c *StorageConfig) Validate() error {
	switch c.Journal {
	case JournalBolt:
		if !c.PersistenceEnabled {
			return fmt.Errorf("bolt journal requires STORAGE_PERSISTENCE_ENABLED=true")
		}
	case JournalRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis journal requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("invalid STORAGE_JOURNAL: %q", c.Journal)
	}
	if c.PersistInterval <= 0 {
		return fmt.Errorf("invalid STORAGE_PERSIST_INTERVAL: %d", c.PersistInterval)
	}
	if c.JournalTTL < 0 {
		return fmt.Errorf("invalid JOURNAL_TTL: %d", c.JournalTTL)
	}
	return nil
}

func (c *StorageConfig) JournalTTLDuration() time.Duration {
	return time.Duration(c.JournalTTL) * time.Second
}
