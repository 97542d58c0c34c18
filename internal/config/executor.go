package config

import (
	"fmt"
	"strings"

	"github.com/andrew-solarstorm/go-packages/common"

	"github.com/hxuan190/route-executor/internal/domain"
)

type ExecutorConfig struct {
	// MaxHops caps the hops of each route. Zero disables the cap.
	// Default: 3
	MaxHops int

	// ParallelRoutes runs the routes of one spec concurrently.
	// Default: false
	ParallelRoutes bool

	// SimVenues are the venue tags served by the simulated market.
	// Default: every venue
	SimVenues []domain.Venue

	// ExecuteTimeoutMS bounds one execution, in milliseconds.
	// Default: 2000
	ExecuteTimeoutMS int
}

func (c *ExecutorConfig) Key() string {
	return EXECUTOR_CONFIG_KEY
}

func (c *ExecutorConfig) Load() error {
	c.MaxHops = common.GetEnvOrDefaultInt("EXECUTOR_MAX_HOPS", domain.DefaultMaxHops)
	c.ParallelRoutes = common.GetEnvOrDefault("EXECUTOR_PARALLEL_ROUTES", "false") == "true"
	c.ExecuteTimeoutMS = common.GetEnvOrDefaultInt("EXECUTOR_TIMEOUT_MS", 2000)

	venues, err := ParseVenueList(common.GetEnvOrDefault("EXECUTOR_SIM_VENUES", "all"))
	if err != nil {
		return err
	}
	c.SimVenues = venues
	return c.Validate()
}

func (c *ExecutorConfig) Validate() error {
	if c.MaxHops < 0 {
		return fmt.Errorf("invalid EXECUTOR_MAX_HOPS: %d", c.MaxHops)
	}
	if c.ExecuteTimeoutMS <= 0 {
		return fmt.Errorf("invalid EXECUTOR_TIMEOUT_MS: %d", c.ExecuteTimeoutMS)
	}
	return nil
}

// ParseVenueList parses a comma-separated list of venue names. "all" selects
// every venue and an empty string selects none.
func ParseVenueList(s string) ([]domain.Venue, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.EqualFold(s, "all") {
		return domain.AllVenues(), nil
	}

	parts := strings.Split(s, ",")
	venues := make([]domain.Venue, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := domain.ParseVenue(p)
		if err != nil {
			return nil, fmt.Errorf("invalid EXECUTOR_SIM_VENUES: %w", err)
		}
		venues = append(venues, v)
	}
	return venues, nil
}
