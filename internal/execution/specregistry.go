// Package execution implements the execution core: instrument spec
// resolution, size/leverage helpers, price conversion, idempotent order
// placement, protective orders, and reconciliation (spec.md §4.5).
package execution

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

const specCacheTTL = 12 * time.Hour

// SpecRegistry is the single source of truth for InstrumentSpecs, backed by
// a disk cache written atomically (write-temp-then-rename), per spec.md
// §4.5.1.
type SpecRegistry struct {
	mu       sync.RWMutex
	specs    map[string]domain.InstrumentSpec
	loadedAt time.Time
	cachePath string
}

type specCacheFile struct {
	LoadedAt int64                    `json:"loaded_at"`
	Specs    []domain.InstrumentSpec `json:"specs"`
}

func NewSpecRegistry(cachePath string) *SpecRegistry {
	return &SpecRegistry{specs: make(map[string]domain.InstrumentSpec), cachePath: cachePath}
}

// LoadFromDiskCache populates the registry from the cache file if it exists
// and is not past its TTL. Returns false (without error) when the cache is
// absent or stale, signaling the caller to fetch from the exchange instead.
func (r *SpecRegistry) LoadFromDiskCache(now time.Time) (bool, error) {
	data, err := os.ReadFile(r.cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("execution: read spec cache %q: %w", r.cachePath, err)
	}
	var cache specCacheFile
	if err := json.Unmarshal(data, &cache); err != nil {
		return false, fmt.Errorf("execution: parse spec cache %q: %w", r.cachePath, err)
	}
	age := now.Sub(time.Unix(cache.LoadedAt, 0))
	if age > specCacheTTL {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs = make(map[string]domain.InstrumentSpec, len(cache.Specs))
	for _, s := range cache.Specs {
		r.specs[s.SymbolRaw] = s
	}
	r.loadedAt = time.Unix(cache.LoadedAt, 0)
	return true, nil
}

// ReplaceAll installs a freshly fetched spec set (from the exchange) and
// writes it to the disk cache atomically: write to a temp file, then
// rename, so a crash mid-write never corrupts the cache (spec.md §5).
func (r *SpecRegistry) ReplaceAll(specs []domain.InstrumentSpec, now time.Time) error {
	for _, s := range specs {
		if err := SanityCheck(s); err != nil {
			log.Printf("execution: spec sanity check failed for %s: %v", s.SymbolRaw, err)
		}
	}

	r.mu.Lock()
	r.specs = make(map[string]domain.InstrumentSpec, len(specs))
	for _, s := range specs {
		r.specs[s.SymbolRaw] = s
	}
	r.loadedAt = now
	r.mu.Unlock()

	if r.cachePath == "" {
		return nil
	}
	payload := specCacheFile{LoadedAt: now.Unix(), Specs: specs}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("execution: marshal spec cache: %w", err)
	}
	tmp := r.cachePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("execution: write spec cache temp file: %w", err)
	}
	if err := os.Rename(tmp, r.cachePath); err != nil {
		return fmt.Errorf("execution: rename spec cache into place: %w", err)
	}
	return nil
}

func (r *SpecRegistry) Get(symbolRaw string) (domain.InstrumentSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[symbolRaw]
	if !ok {
		return domain.InstrumentSpec{}, fmt.Errorf("%w: %s", domain.ErrSpecNotFound, symbolRaw)
	}
	return spec, nil
}

// SanityCheck logs min_size and size_step (no precision value is logged) and
// returns an error if their
// ratio suggests a precision-parsing bug (spec.md §4.5.1).
func SanityCheck(spec domain.InstrumentSpec) error {
	log.Printf("execution: spec %s min_size=%s size_step=%s", spec.SymbolRaw, spec.MinSize, spec.SizeStep)
	if spec.MinSize.IsZero() {
		return nil
	}
	ratio := spec.SizeStep.Div(spec.MinSize)
	ten := decimal.NewFromInt(10)
	if ratio.GreaterThan(ten) {
		return fmt.Errorf("execution: %s size_step/min_size ratio %s exceeds 10, likely a precision parsing bug", spec.SymbolRaw, ratio)
	}
	if ratio.GreaterThan(decimal.NewFromInt(2)) {
		log.Printf("execution: WARNING %s size_step/min_size ratio %s exceeds 2", spec.SymbolRaw, ratio)
	}
	return nil
}
