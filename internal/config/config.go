// Package config loads the single typed configuration record every other
// package is constructed from (spec.md §6). Mirrors the teacher's
// internal/infra/config.LoadJaxCoreConfig: encoding/json with
// DisallowUnknownFields, then struct-tag validation, then environment
// variable overrides for the handful of operational toggles spec.md names
// explicitly.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/auction"
	"github.com/ridgecove/futurescore/internal/execution"
	"github.com/ridgecove/futurescore/internal/execution/statemachine"
	"github.com/ridgecove/futurescore/internal/risk"
	"github.com/ridgecove/futurescore/internal/shockguard"
	"github.com/ridgecove/futurescore/internal/strategy"
)

// ExchangeConfig names the venue connection; credentials are read from
// environment variables, never from the config file on disk.
type ExchangeConfig struct {
	BaseURL                string        `json:"base_url" validate:"required,url"`
	APIKeyEnv              string        `json:"api_key_env" validate:"required"`
	APISecretEnv           string        `json:"api_secret_env" validate:"required"`
	RequestTimeout         time.Duration `json:"request_timeout"`
	InstrumentSpecsCachePath string      `json:"instrument_specs_cache_path"`
	CircuitBreakerFailureThreshold uint32 `json:"circuit_breaker_failure_threshold"`
	CircuitBreakerOpenTimeout      time.Duration `json:"circuit_breaker_open_timeout"`
}

// ExecutionConfig groups the order-lifecycle thresholds that aren't already
// owned by statemachine.Config (which covers the TP ladder and trailing
// rules directly, passed through as MultiTP below).
type ExecutionConfig struct {
	OrderMonitor   execution.MonitorConfig
	KillSwitchPath string `json:"kill_switch_path" validate:"required"`
	SinglePositionCapPct decimal.Decimal `json:"single_position_cap_pct" validate:"required"`
}

// Config is the top-level record, grouped per spec.md §6: exchange,
// strategy, risk, execution, multi_tp, portfolio/auction, reconciliation,
// shock_guard.
type Config struct {
	Exchange       ExchangeConfig
	Strategy       strategy.Config
	Risk           risk.Config
	Execution      ExecutionConfig
	MultiTP        statemachine.Config
	Auction        auction.Config
	Reconciliation execution.ReconciliationConfig
	ShockGuard     shockguard.Config

	Environment       string
	NewEntriesEnabled bool
	DryRun            bool
	SystemDryRun      bool
	UseStateMachineV2 bool
	SkipSpecSanity    bool
}

// fileFields is the subset of Config actually populated by the JSON file:
// the "exchange" group and the "execution" kill-switch path and position
// cap. Everything else (the strategy, risk, multi-TP, auction,
// reconciliation and shock-guard sub-package Config structs) comes from each
// package's DefaultConfig; the file cannot override those, since unknown
// keys are rejected. Zero-valued file fields are filled with defaults after
// decode rather than requiring every field in every deployment's file.
type fileFields struct {
	Exchange       ExchangeConfig         `json:"exchange"`
	ExecutionExtra struct {
		KillSwitchPath       string          `json:"kill_switch_path"`
		SinglePositionCapPct decimal.Decimal `json:"single_position_cap_pct"`
	} `json:"execution"`
}

// Load reads path as JSON (rejecting unknown fields, per the teacher's
// jax_core_config.go), layers it over each subsystem's defaults, validates,
// then applies the environment variable overrides named in spec.md §6.
func Load(path string) (Config, error) {
	cfg := Config{
		Strategy:       strategy.DefaultConfig(),
		Risk:           risk.DefaultConfig(),
		MultiTP:        statemachine.DefaultConfig(),
		Auction:        auction.DefaultConfig(),
		Reconciliation: execution.DefaultReconciliationConfig(),
		ShockGuard:     shockguard.DefaultConfig(),
		Execution: ExecutionConfig{
			OrderMonitor: execution.DefaultMonitorConfig(),
		},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %q: %w", path, err)
	}

	var ff fileFields
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&ff); err != nil {
		return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
	}

	cfg.Exchange = ff.Exchange
	if cfg.Exchange.RequestTimeout == 0 {
		cfg.Exchange.RequestTimeout = 10 * time.Second
	}
	if cfg.Exchange.InstrumentSpecsCachePath == "" {
		cfg.Exchange.InstrumentSpecsCachePath = "data/instrument_specs_cache.json"
	}
	if cfg.Exchange.CircuitBreakerFailureThreshold == 0 {
		cfg.Exchange.CircuitBreakerFailureThreshold = 5
	}
	if cfg.Exchange.CircuitBreakerOpenTimeout == 0 {
		cfg.Exchange.CircuitBreakerOpenTimeout = 30 * time.Second
	}

	cfg.Execution.KillSwitchPath = ff.ExecutionExtra.KillSwitchPath
	if cfg.Execution.KillSwitchPath == "" {
		cfg.Execution.KillSwitchPath = "data/killswitch.json"
	}
	cfg.Execution.SinglePositionCapPct = ff.ExecutionExtra.SinglePositionCapPct
	if cfg.Execution.SinglePositionCapPct.IsZero() {
		cfg.Execution.SinglePositionCapPct = decimal.NewFromFloat(0.25)
	}

	if err := validator.New().Struct(cfg.Exchange); err != nil {
		return Config{}, fmt.Errorf("config: validate exchange: %w", err)
	}
	if err := validator.New().Struct(cfg.Execution); err != nil {
		return Config{}, fmt.Errorf("config: validate execution: %w", err)
	}

	cfg.applyEnv()

	if override := os.Getenv("INSTRUMENT_SPECS_CACHE_PATH"); override != "" {
		cfg.Exchange.InstrumentSpecsCachePath = override
	}

	return cfg, nil
}

// applyEnv reads the operational toggles spec.md §6 names explicitly. These
// always win over the config file: they're meant for a human to flip without
// editing and redeploying the JSON.
func (c *Config) applyEnv() {
	c.Environment = os.Getenv("ENVIRONMENT")
	c.NewEntriesEnabled = envBool("TRADING_NEW_ENTRIES_ENABLED", true)
	c.DryRun = envBool("DRY_RUN", false)
	c.SystemDryRun = envBool("SYSTEM_DRY_RUN", false)
	c.UseStateMachineV2 = envBool("USE_STATE_MACHINE_V2", true)
	c.SkipSpecSanity = os.Getenv("TRADING_SYSTEM_SKIP_SPEC_SANITY") == "1"
}

// envBool matches spec.md §6's {1,true,yes,y,on} truthy set for DRY_RUN and
// SYSTEM_DRY_RUN, and is reused for the other boolean toggles since they
// share the same shell-script-friendly convention.
func envBool(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
