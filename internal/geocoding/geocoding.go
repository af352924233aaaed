// Package geocoding ищет координаты по адресу через Nominatim-совместимый сервис.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// MaxCandidates - сколько вариантов показывается пользователю
const MaxCandidates = 5

var (
	ErrEmptyQuery = errors.New("search query is empty")
	ErrNoResults  = errors.New("no location found for query")
)

// Candidate - найденный адрес
type Candidate struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
}

// Cache хранит результаты поиска
type Cache interface {
	GetGeocode(ctx context.Context, query string) ([]Candidate, error)
	SetGeocode(ctx context.Context, query string, candidates []Candidate, ttl time.Duration) error
}

// Options - параметры клиента
type Options struct {
	BaseURL   string
	UserAgent string
	Suffix    string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// Client - клиент геокодера
type Client struct {
	opts       Options
	httpClient *http.Client
	cache      Cache
	logger     *logrus.Logger
	group      singleflight.Group
}

// NewClient создает клиент. cache может быть nil.
func NewClient(opts Options, cache Cache, logger *logrus.Logger) *Client {
	return &Client{
		opts:  opts,
		cache: cache,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: logger,
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search возвращает до пяти кандидатов для запроса. К запросу добавляется
// суффикс города.
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	full := query
	if c.opts.Suffix != "" {
		full = query + ", " + c.opts.Suffix
	}
	key := strings.ToLower(full)
	log := c.logger.WithFields(logrus.Fields{
		"component": "geocoding",
		"query":     query,
	})

	if c.cache != nil {
		cached, err := c.cache.GetGeocode(ctx, key)
		if err != nil {
			log.WithError(err).Warn("Failed to read geocode cache")
		} else if len(cached) > 0 {
			log.Debug("Geocode cache hit")
			return cached, nil
		}
	}

	// общий запрос не должен обрываться из-за отмены одного из ожидающих;
	// его ограничивает таймаут http-клиента
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fetch(fetchCtx, full)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	candidates := res.Val.([]Candidate)
	shared := res.Shared
	log.WithFields(logrus.Fields{"count": len(candidates), "shared": shared}).Info("Geocode lookup completed")

	if len(candidates) == 0 {
		return nil, ErrNoResults
	}
	if c.cache != nil && !shared {
		if err := c.cache.SetGeocode(ctx, key, candidates, c.opts.CacheTTL); err != nil {
			log.WithError(err).Warn("Failed to write geocode cache")
		}
	}
	return candidates, nil
}

func (c *Client) fetch(ctx context.Context, q string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(MaxCandidates))
	params.Set("q", q)
	endpoint := strings.TrimRight(c.opts.BaseURL, "/") + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geocode request failed with status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			continue
		}
		candidates = append(candidates, Candidate{Latitude: lat, Longitude: lon, DisplayName: r.DisplayName})
		if len(candidates) == MaxCandidates {
			break
		}
	}
	return candidates, nil
}
