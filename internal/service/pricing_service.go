package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/pkg/circuitbreaker"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

const (
	priceSourceCache    = "cache"
	priceSourceFeed     = "feed"
	priceSourceSettings = "settings"
)

// PricingService quotes crypto prices from cache, the configured feed, or settings
type PricingService struct {
	cfg      config.PricingConfig
	cache    Cache
	settings Settings
	client   *http.Client
	breaker  *circuitbreaker.CircuitBreaker
	logger   *zap.Logger
	now      Clock
}

// NewPricingService creates a new pricing service. cache may be nil.
func NewPricingService(cfg config.PricingConfig, cache Cache, settings Settings, logger *zap.Logger) *PricingService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PricingService{
		cfg:      cfg,
		cache:    cache,
		settings: settings,
		client:   &http.Client{Timeout: timeout},
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:        "price-feed",
			MaxFailures: 3,
			Cooldown:    30 * time.Second,
			Probes:      1,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				logger.Info("price feed circuit breaker state changed",
					zap.String("circuit_breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
		logger: logger,
		now:    utcNow,
	}
}

type feedQuote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// Quote returns the current USD price of asset
func (s *PricingService) Quote(ctx context.Context, asset string) (*domain.Quote, error) {
	asset = strings.ToUpper(asset)

	if s.cache != nil {
		var cached domain.Quote
		hit, err := s.cache.Get(ctx, asset, &cached)
		if err != nil {
			s.logger.Warn("price cache read failed", zap.String("asset", asset), zap.Error(err))
		}
		if hit && cached.Price.IsPositive() {
			cached.Source = priceSourceCache
			return &cached, nil
		}
	}

	if s.cfg.FeedURL != "" {
		price, err := circuitbreaker.ExecuteWithResult(s.breaker, ctx, func() (decimal.Decimal, error) {
			return s.fetch(ctx, asset)
		})
		if err == nil && !domain.Price(price).IsPositive() {
			err = fmt.Errorf("feed price for %s rounds to zero", asset)
		}
		if err == nil {
			q := &domain.Quote{Asset: asset, Price: domain.Price(price), Source: priceSourceFeed, AsOf: s.now()}
			if s.cache != nil {
				if err := s.cache.Set(ctx, asset, q); err != nil {
					s.logger.Warn("price cache write failed", zap.String("asset", asset), zap.Error(err))
				}
			}
			return q, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.Warn("price feed unavailable, using settings price",
			zap.String("asset", asset),
			zap.Error(err),
		)
	}

	price := domain.Price(s.settings.Decimal(ctx, domain.SettingCryptoPricePrefix+asset))
	if !price.IsPositive() {
		return nil, apperrors.Unavailable("no price available for " + asset)
	}
	return &domain.Quote{Asset: asset, Price: price, Source: priceSourceSettings, AsOf: s.now()}, nil
}

func (s *PricingService) fetch(ctx context.Context, asset string) (decimal.Decimal, error) {
	u, err := url.Parse(s.cfg.FeedURL)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price feed url: %w", err)
	}
	q := u.Query()
	q.Set("symbol", asset)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var fq feedQuote
	if err := json.NewDecoder(resp.Body).Decode(&fq); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode price feed response: %w", err)
	}
	if !fq.Price.IsPositive() {
		return decimal.Zero, fmt.Errorf("price feed returned non-positive price for %s", asset)
	}
	return fq.Price, nil
}
