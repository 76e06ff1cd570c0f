// Package weather fetches current conditions for the dashboard widget. The
// API key is only ever used server-side.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/andresuchdata/storeadmin/internal/cache"
	"github.com/andresuchdata/storeadmin/internal/config"
	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/rs/zerolog/log"
)

// Unavailable is the widget text shown when no reading can be produced.
const Unavailable = "Weather unavailable"

// ErrDisabled is returned when the widget is switched off or has no key.
var ErrDisabled = errors.New("weather disabled")

type Client struct {
	baseURL    string
	apiKey     string
	city       string
	units      string
	enabled    bool
	cache      cache.WeatherCache
	httpClient *http.Client
}

// currentResponse is the subset of the current-conditions payload we read.
type currentResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Message string `json:"message"`
}

func NewClient(cfg config.WeatherConfig, c cache.WeatherCache) *Client {
	if c == nil {
		c = cache.NewNoopWeatherCache()
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		city:       cfg.City,
		units:      cfg.Units,
		enabled:    cfg.Enabled && cfg.APIKey != "",
		cache:      c,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether the widget should try to fetch at all.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Current returns the reading for the configured city, served from cache
// when fresh.
func (c *Client) Current(ctx context.Context) (*domain.Weather, error) {
	if !c.enabled {
		return nil, ErrDisabled
	}

	if w, ok, err := c.cache.Get(ctx, c.city, c.units); err != nil {
		log.Warn().Err(err).Msg("weather cache read failed")
	} else if ok {
		return w, nil
	}

	w, err := c.fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Str("city", c.city).Msg("weather fetch failed")
		return nil, err
	}

	if err := c.cache.Set(ctx, c.city, c.units, w); err != nil {
		log.Warn().Err(err).Msg("weather cache write failed")
	}
	return w, nil
}

func (c *Client) fetch(ctx context.Context) (*domain.Weather, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse weather url: %w", err)
	}
	q := u.Query()
	q.Set("q", c.city)
	q.Set("units", c.units)
	q.Set("appid", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error prints the full URL, appid included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("weather request to %s%s: %w", u.Host, u.Path, err)
	}
	defer resp.Body.Close()

	var body currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather api status %d: %s", resp.StatusCode, body.Message)
	}

	w := &domain.Weather{
		City:        body.Name,
		Temperature: body.Main.Temp,
		FeelsLike:   body.Main.FeelsLike,
		Humidity:    body.Main.Humidity,
		Units:       c.units,
	}
	if w.City == "" {
		w.City = c.city
	}
	if len(body.Weather) > 0 {
		w.Condition = body.Weather[0].Main
		w.Description = body.Weather[0].Description
		w.Icon = body.Weather[0].Icon
	}
	return w, nil
}
