package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/route-executor/internal/aggregator"
	"github.com/hxuan190/route-executor/internal/common"
	"github.com/hxuan190/route-executor/internal/config"
	"github.com/hxuan190/route-executor/internal/http"
	"github.com/hxuan190/route-executor/internal/services/simulator"
)

// @title Route Executor API
// @version 1.0
// @description Validates, encodes and executes split/multi-hop route specs.
// @description
// @description ## - Features
// @description - **Validation**: route count, amount conservation, slippage bound, hop structure and weight sums
// @description - **Wire Encoding**: binary route spec encoding matching the router program arguments
// @description - **Dry-run Execution**: all-or-nothing execution against a simulated constant-product market
// @description - **Execution Journal**: reports per order id in BoltDB or Redis
// @description
// @description ## - Usage Tips
// @description - Amounts are u64 smallest token units
// @description - Weights per hop are percentages summing to 100; the last non-zero weight takes the rounding residual
// @description - Rate Limit: 10 requests/second (burst: 20) by default
// @BasePath /
// @schemes https http
// @tag.name route
// @tag.description Validate, encode, build and execute route specs
// @tag.name pools
// @tag.description Inspect and seed the simulated market

func main() {
	// load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file, using process environment")
	}

	general := &config.GeneralConfig{}
	if err := general.Load(); err != nil {
		log.Error().Err(err).Msg("invalid general config")
		return
	}
	common.InitLogger(general.LogLevel, general.Env)
	common.InitRuntime()

	// di container config
	conf := container.NewConf(
		general,
		&config.ExecutorConfig{},
		&config.StorageConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&simulator.Service{},
		&aggregator.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
