package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ridgecove/futurescore/internal/adapters/exchange"
	"github.com/ridgecove/futurescore/internal/adapters/postgres"
	"github.com/ridgecove/futurescore/internal/adapters/rediscache"
	"github.com/ridgecove/futurescore/internal/config"
	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/execution"
	"github.com/ridgecove/futurescore/internal/killswitch"
	"github.com/ridgecove/futurescore/internal/shockguard"
	"github.com/ridgecove/futurescore/internal/trace"
)

var (
	version   = "0.1.0"
	buildTime = "unknown"
	startTime = time.Now()
)

// app bundles every long-lived dependency the cycle, reconciliation, order
// monitor, and position management loops share. Nothing here is rebuilt
// per cycle.
type app struct {
	cfg config.Config

	exch  *exchange.Client
	store *postgres.Store
	cache *rediscache.Cache

	specs     *execution.SpecRegistry
	intents   *execution.IntentStore
	killsw    *killswitch.Switch
	traces    *trace.Recorder
	shock     *shockguard.Guard
	blocklist execution.Blocklist
	pending   *pendingEntries

	mu        sync.RWMutex
	positions map[string]domain.ManagedPosition // by normalized symbol
	symbols   []string
}

func main() {
	configPath := flag.String("config", "config/trader.json", "path to the trading config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	log.Printf("starting futurescore trader v%s (built: %s) environment=%s dry_run=%v",
		version, buildTime, cfg.Environment, cfg.DryRun)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := bootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer a.store.Close()
	defer a.cache.Close()

	go a.runCycleLoop(ctx, 20*time.Second)
	go a.runPositionManagementLoop(ctx, 10*time.Second)
	go a.runReconciliationLoop(ctx, 15*time.Second)
	go a.runOrderMonitorLoop(ctx, 5*time.Second)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.handleHealth)
	mux.HandleFunc("/metrics", a.handleMetrics)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8100"
	}
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("shutdown signal received, gracefully stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	log.Println("futurescore trader stopped")
}

// bootstrap wires every adapter and loads startup state: instrument specs
// (disk cache first, falling back to a live fetch), the kill switch, and
// the active position set from persistence.
func bootstrap(ctx context.Context, cfg config.Config) (*app, error) {
	exch := exchange.New(exchange.Config{
		BaseURL:     cfg.Exchange.BaseURL,
		APIKey:      os.Getenv(cfg.Exchange.APIKeyEnv),
		APISecret:   os.Getenv(cfg.Exchange.APISecretEnv),
		Timeout:     cfg.Exchange.RequestTimeout,
		BreakerName: "exchange",
		MaxFailures: cfg.Exchange.CircuitBreakerFailureThreshold,
		OpenTimeout: cfg.Exchange.CircuitBreakerOpenTimeout,
	})

	store, err := postgres.Connect(ctx, postgres.Config{
		DSN: os.Getenv("DATABASE_URL"),
	})
	if err != nil {
		return nil, err
	}

	cache := rediscache.New(rediscache.Config{Addr: os.Getenv("REDIS_ADDR")})
	if err := cache.Ping(ctx); err != nil {
		log.Printf("rediscache: ping failed, continuing without a warm cache: %v", err)
	}

	killsw, err := killswitch.Load(cfg.Execution.KillSwitchPath)
	if err != nil {
		return nil, err
	}

	specs := execution.NewSpecRegistry(cfg.Exchange.InstrumentSpecsCachePath)
	loaded, err := specs.LoadFromDiskCache(time.Now())
	if err != nil {
		log.Printf("execution: spec cache load failed, will fetch live: %v", err)
	}
	if !loaded {
		raw, err := exch.GetFuturesInstruments(ctx)
		if err != nil {
			return nil, err
		}
		specSlice := make([]domain.InstrumentSpec, 0, len(raw))
		for _, r := range raw {
			specSlice = append(specSlice, exchange.SpecFromRaw(r))
		}
		if err := specs.ReplaceAll(specSlice, time.Now()); err != nil {
			log.Printf("execution: spec cache write failed: %v", err)
		}
	}

	intents := execution.NewIntentStore()
	recent, err := store.LoadRecentIntentHashes(ctx, 24*time.Hour)
	if err != nil {
		log.Printf("execution: failed to load recent intent hashes: %v", err)
	} else {
		intents.LoadRecent(recent)
	}

	activePositions, err := store.GetActivePositions(ctx)
	if err != nil {
		return nil, err
	}
	positions := make(map[string]domain.ManagedPosition, len(activePositions))
	symbolSet := make(map[string]bool, len(activePositions))
	for _, p := range activePositions {
		positions[p.Symbol] = p
		symbolSet[p.Symbol] = true
	}
	for _, s := range watchlistSymbols() {
		symbolSet[s] = true
	}
	symbolList := make([]string, 0, len(symbolSet))
	for s := range symbolSet {
		symbolList = append(symbolList, s)
	}

	a := &app{
		cfg:       cfg,
		exch:      exch,
		store:     store,
		cache:     cache,
		specs:     specs,
		intents:   intents,
		killsw:    killsw,
		traces:    trace.New(store),
		shock:     shockguard.New(cfg.ShockGuard),
		blocklist: execution.Blocklist{ConfiguredBases: blockedBases()},
		pending:   newPendingEntries(),
		positions: positions,
		symbols:   symbolList,
	}

	log.Printf("bootstrap complete: %d active positions, %d watched symbols", len(positions), len(symbolList))
	return a, nil
}

// watchlistSymbols reads the comma-separated WATCHLIST_SYMBOLS env var; the
// live symbol universe is operator-configured rather than discovered here.
func watchlistSymbols() []string {
	raw := os.Getenv("WATCHLIST_SYMBOLS")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func blockedBases() map[string]bool {
	raw := os.Getenv("BLOCKED_BASES")
	out := make(map[string]bool)
	if raw == "" {
		return out
	}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			out[p] = true
		}
	}
	return out
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := a.cache.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{"service": "futurescore-trader", "status": "degraded", "error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"service": "futurescore-trader",
		"version": version,
		"status":  "healthy",
		"uptime":  time.Since(startTime).String(),
	})
}

func (a *app) handleMetrics(w http.ResponseWriter, r *http.Request) {
	a.mu.RLock()
	openPositions := len(a.positions)
	a.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"service":          "futurescore-trader",
		"version":          version,
		"uptime_seconds":   time.Since(startTime).Seconds(),
		"open_positions":   openPositions,
		"kill_switch":      a.killsw.Active(),
		"shock_guard_paused": a.shock.Active(),
	})
}
