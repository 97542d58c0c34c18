package config

import (
	"testing"

	"github.com/hxuan190/route-executor/internal/domain"
)

func TestParseVenueList(t *testing.T) {
	tests := []struct {
		input   string
		want    []domain.Venue
		wantErr bool
	}{
		{"", nil, false},
		{"ALL", domain.AllVenues(), false},
		{"RaydiumSwap, whirlpool,", []domain.Venue{domain.VenueRaydiumSwap, domain.VenueWhirlpool}, false},
		{"RaydiumSwap,Nope", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVenueList(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVenueList() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseVenueList() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("venue %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExecutorConfigLoad(t *testing.T) {
	t.Setenv("EXECUTOR_MAX_HOPS", "5")
	t.Setenv("EXECUTOR_PARALLEL_ROUTES", "true")
	t.Setenv("EXECUTOR_SIM_VENUES", "Whirlpool")

	var c ExecutorConfig
	if err := c.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.MaxHops != 5 || !c.ParallelRoutes || c.ExecuteTimeoutMS != 2000 {
		t.Errorf("config = %+v", c)
	}
	if len(c.SimVenues) != 1 || c.SimVenues[0] != domain.VenueWhirlpool {
		t.Errorf("SimVenues = %v", c.SimVenues)
	}
}

func TestExecutorConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       ExecutorConfig
		wantErr bool
	}{
		{"defaults", ExecutorConfig{MaxHops: 3, ExecuteTimeoutMS: 2000}, false},
		{"no hop cap", ExecutorConfig{MaxHops: 0, ExecuteTimeoutMS: 1}, false},
		{"negative hops", ExecutorConfig{MaxHops: -1, ExecuteTimeoutMS: 1}, true},
		{"zero timeout", ExecutorConfig{MaxHops: 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStorageConfigValidate(t *testing.T) {
	valid := StorageConfig{
		PersistenceEnabled: true,
		PersistInterval:    30,
		Journal:            JournalBolt,
		RedisAddr:          "localhost:6379",
		JournalTTL:         60,
	}

	tests := []struct {
		name    string
		mutate  func(c *StorageConfig)
		wantErr bool
	}{
		{"bolt", func(c *StorageConfig) {}, false},
		{"redis without persistence", func(c *StorageConfig) {
			c.Journal = JournalRedis
			c.PersistenceEnabled = false
		}, false},
		{"bolt without persistence", func(c *StorageConfig) { c.PersistenceEnabled = false }, true},
		{"redis without address", func(c *StorageConfig) {
			c.Journal = JournalRedis
			c.RedisAddr = ""
		}, true},
		{"unknown journal", func(c *StorageConfig) { c.Journal = "sqlite" }, true},
		{"zero interval", func(c *StorageConfig) { c.PersistInterval = 0 }, true},
		{"negative ttl", func(c *StorageConfig) { c.JournalTTL = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if got := valid.JournalTTLDuration().Seconds(); got != 60 {
		t.Errorf("JournalTTLDuration() = %vs, want 60s", got)
	}
}

func TestGeneralConfigValidate(t *testing.T) {
	c := GeneralConfig{HTTPPort: "8080", HTTPHost: "localhost", Env: DevEnv, RateLimit: 10, RateBurst: 20}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
	c.RateBurst = 0
	if err := c.Validate(); err == nil {
		t.Error("zero burst accepted")
	}
}
