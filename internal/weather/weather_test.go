package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andresuchdata/storeadmin/internal/config"
	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
	"cod": 200,
	"name": "Copenhagen",
	"weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
	"main": {"temp": 15.5, "feels_like": 14.8, "humidity": 72}
}`

type memoryCache struct {
	entries map[string]*domain.Weather
}

func (m *memoryCache) Get(ctx context.Context, city, units string) (*domain.Weather, bool, error) {
	w, ok := m.entries[city+":"+units]
	return w, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, city, units string, w *domain.Weather) error {
	m.entries[city+":"+units] = w
	return nil
}

func testConfig(baseURL string) config.WeatherConfig {
	return config.WeatherConfig{
		Enabled: true,
		APIKey:  "secret",
		BaseURL: baseURL,
		City:    "Copenhagen",
		Units:   "metric",
	}
}

func TestCurrent_FetchesAndCaches(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "Copenhagen", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), &memoryCache{entries: map[string]*domain.Weather{}})

	w, err := c.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Copenhagen", w.City)
	assert.Equal(t, 15.5, w.Temperature)
	assert.Equal(t, 72, w.Humidity)
	assert.Equal(t, "Rain", w.Condition)
	assert.Equal(t, "10d", w.Icon)

	_, err = c.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCurrent_Disabled(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.APIKey = ""
	c := NewClient(cfg, nil)

	assert.False(t, c.Enabled())
	_, err := c.Current(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestCurrent_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod": 401, "message": "Invalid API key"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	_, err := c.Current(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestCurrent_TransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	c := NewClient(testConfig(baseURL), nil)
	_, err := c.Current(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weather request to")
	assert.NotContains(t, err.Error(), "secret")
	assert.NotContains(t, err.Error(), "appid")
}
