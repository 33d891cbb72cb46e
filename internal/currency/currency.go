// Package currency localizes prices. Rates are USD-relative multipliers
// fetched from an external provider, cached for 24 hours, with a compiled-in
// fallback so checkout never blocks on a cold or failing cache.
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tunegift/checkout-api/internal/storage"
)

const (
	cacheTTL      = 24 * time.Hour
	redisCacheKey = "currency:rates"
)

// Fallback multipliers, refreshed by hand when they drift too far. Good
// enough to price a checkout when the rate provider is down.
var fallbackRates = map[string]float64{
	"USD": 1.0,
	"INR": 83.20,
	"EUR": 0.92,
	"GBP": 0.79,
	"CAD": 1.36,
	"AUD": 1.52,
	"SGD": 1.34,
	"AED": 3.67,
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// rateCache is the optional cross-process warm cache. *storage.RedisClient
// satisfies it.
type rateCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// cachedRates is the redis payload. FetchedAt is the original provider fetch
// time, so a process restart cannot re-bless an aging table with a fresh TTL.
type cachedRates struct {
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
}

type Service struct {
	providerURL string
	client      *http.Client
	cache       rateCache

	mu        sync.RWMutex
	rates     map[string]float64
	fetchedAt time.Time

	now func() time.Time
}

func NewService(providerURL string, redis *storage.RedisClient) *Service {
	s := &Service{
		providerURL: providerURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		now:         time.Now,
	}
	if redis != nil {
		s.cache = redis
	}
	return s
}

// Rates returns the current multiplier table. Serves the in-process cache
// while fresh; otherwise fetches, falling back to a stale cache and finally
// to the static table. Never returns an empty table.
func (s *Service) Rates(ctx context.Context) map[string]float64 {
	s.mu.RLock()
	if s.rates != nil && s.now().Sub(s.fetchedAt) < cacheTTL {
		rates := s.rates
		s.mu.RUnlock()
		return rates
	}
	s.mu.RUnlock()

	// Warm from redis first, so fresh processes skip the provider. The
	// cached entry keeps its original fetch time across restarts.
	cached, cachedAt, haveCached := s.fromCache(ctx)
	if haveCached && s.now().Sub(cachedAt) < cacheTTL {
		s.mu.Lock()
		s.rates = cached
		s.fetchedAt = cachedAt
		s.mu.Unlock()
		return cached
	}

	fetched, err := s.fetchFromProvider(ctx)
	if err != nil {
		log.Printf("exchange rate fetch failed: %v", err)

		s.mu.RLock()
		stale := s.rates
		s.mu.RUnlock()
		if stale != nil {
			return stale
		}
		if haveCached {
			return cached
		}
		return fallbackRates
	}

	fetchedAt := s.now()
	s.mu.Lock()
	s.rates = fetched
	s.fetchedAt = fetchedAt
	s.mu.Unlock()

	if s.cache != nil {
		if data, err := json.Marshal(cachedRates{Rates: fetched, FetchedAt: fetchedAt}); err == nil {
			s.cache.Set(ctx, redisCacheKey, data, cacheTTL)
		}
	}

	return fetched
}

func (s *Service) fromCache(ctx context.Context) (map[string]float64, time.Time, bool) {
	if s.cache == nil {
		return nil, time.Time{}, false
	}

	data, err := s.cache.Get(ctx, redisCacheKey)
	if err != nil {
		if !storage.IsNil(err) {
			log.Printf("rate cache read failed: %v", err)
		}
		return nil, time.Time{}, false
	}

	var entry cachedRates
	if err := json.Unmarshal([]byte(data), &entry); err != nil || len(entry.Rates) == 0 {
		return nil, time.Time{}, false
	}

	return entry.Rates, entry.FetchedAt, true
}

func (s *Service) fetchFromProvider(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.providerURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned %d", resp.StatusCode)
	}

	var parsed ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	if len(parsed.Rates) == 0 {
		return nil, errors.New("rate provider returned no rates")
	}

	return parsed.Rates, nil
}

var ErrUnknownCurrency = errors.New("unknown currency code")

// Convert translates an amount between two currencies through their
// USD-relative multipliers.
func (s *Service) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	rates := s.Rates(ctx)

	fromRate, ok := rates[strings.ToUpper(from)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	toRate, ok := rates[strings.ToUpper(to)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}

	return amount / fromRate * toRate, nil
}
