// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/securecrop/securecrop/internal/breaker"
	"github.com/securecrop/securecrop/internal/cache"
	"github.com/securecrop/securecrop/internal/config"
	"github.com/securecrop/securecrop/internal/metrics"
)

const (
	breakerName = "weather-api"

	// maxResponseSize bounds upstream response bodies.
	maxResponseSize = 1 << 20

	// pointsPerDay is the 3-hourly forecast resolution.
	pointsPerDay = 8
)

// ErrNoAPIKey is returned when no OpenWeatherMap credential is set.
var ErrNoAPIKey = errors.New("weather api key not configured")

// Client talks to OpenWeatherMap. Responses are cached for the
// configured TTL; outbound calls are rate limited and guarded by a
// circuit breaker. No retries: a failure surfaces immediately.
type Client struct {
	cfg     config.WeatherConfig
	httpC   *http.Client
	breaker *breaker.Breaker
	limiter *rate.Limiter
	cache   *cache.Cache
}

// NewClient creates a weather client.
func NewClient(cfg config.WeatherConfig) *Client {
	return &Client{
		cfg:     cfg,
		httpC:   &http.Client{Timeout: cfg.Timeout},
		breaker: breaker.New(breakerName),
		limiter: rate.NewLimiter(rate.Limit(1), 5),
		cache:   cache.New("weather", cfg.CacheTTL),
	}
}

// Close stops the response cache's cleanup goroutine.
func (c *Client) Close() {
	c.cache.Stop()
}

// Current fetches current conditions for a coordinate.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Current, error) {
	key := cache.GenerateKey("current", lat, lon)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*Current), nil
	}

	body, err := c.fetchAt(ctx, "/weather", lat, lon, url.Values{})
	if err != nil {
		return nil, err
	}

	var raw owmCurrent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse current weather: %w", err)
	}
	cur := normalizeCurrent(&raw)

	c.cache.Set(key, cur)
	return cur, nil
}

// Forecast fetches the aggregated daily forecast. Days outside 1-5 are
// clamped; the upstream 3-hourly feed covers five days.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, days int) ([]DailyForecast, error) {
	if days < 1 {
		days = 1
	}
	if days > 5 {
		days = 5
	}

	key := cache.GenerateKey("forecast", lat, lon, days)
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]DailyForecast), nil
	}

	params := url.Values{}
	params.Set("cnt", strconv.Itoa(days*pointsPerDay))
	body, err := c.fetchAt(ctx, "/forecast", lat, lon, params)
	if err != nil {
		return nil, err
	}

	var raw owmForecast
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse forecast: %w", err)
	}
	forecast := aggregateForecast(&raw, days)

	c.cache.Set(key, forecast)
	return forecast, nil
}

// fetchAt performs one rate-limited GET through the circuit breaker.
func (c *Client) fetchAt(ctx context.Context, endpoint string, lat, lon float64, params url.Values) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", c.cfg.APIKey)
	params.Set("units", "metric")

	reqURL := c.cfg.BaseURL + endpoint + "?" + params.Encode()

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := c.httpC.Do(req)
		if err != nil {
			return nil, fmt.Errorf("weather request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("weather api returned status %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	})
	metrics.RecordExternalRequest("weather", time.Since(start), err)
	return body, err
}

// OpenWeatherMap wire formats.

type owmCurrent struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Rain *struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Visibility int `json:"visibility"`
	Sys        struct {
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
		Country string `json:"country"`
	} `json:"sys"`
	Name string `json:"name"`
	Dt   int64  `json:"dt"`
}

type owmForecast struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			TempMin  float64 `json:"temp_min"`
			TempMax  float64 `json:"temp_max"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Pop float64 `json:"pop"`
	} `json:"list"`
}

// normalizeCurrent converts the wire response to the domain report:
// wind to km/h, visibility to km, rain probability derived from rain
// volume when reported and cloud cover otherwise.
func normalizeCurrent(raw *owmCurrent) *Current {
	cur := &Current{
		Temperature:   raw.Main.Temp,
		FeelsLike:     raw.Main.FeelsLike,
		Humidity:      raw.Main.Humidity,
		Pressure:      raw.Main.Pressure,
		WindSpeed:     math.Round(raw.Wind.Speed*3.6*10) / 10,
		WindDirection: raw.Wind.Deg,
		Visibility:    float64(raw.Visibility) / 1000,
		Clouds:        raw.Clouds.All,
		Sunrise:       raw.Sys.Sunrise,
		Sunset:        raw.Sys.Sunset,
		City:          raw.Name,
		Country:       raw.Sys.Country,
		Timestamp:     raw.Dt,
	}
	if len(raw.Weather) > 0 {
		cur.Description = raw.Weather[0].Description
		cur.Icon = raw.Weather[0].Icon
		cur.Main = raw.Weather[0].Main
	}
	cur.RainProbability = rainProbability(raw)
	return cur
}

func rainProbability(raw *owmCurrent) int {
	var prob float64
	switch {
	case raw.Rain != nil:
		prob = math.Min(100, raw.Rain.OneHour*10)
	case raw.Clouds.All > 80:
		prob = 60
	case raw.Clouds.All > 50:
		prob = 30
	default:
		prob = float64(raw.Clouds.All) * 0.3
	}
	return int(math.Round(prob))
}

// aggregateForecast groups the 3-hourly points into days, widening the
// temperature range and keeping the first-seen values for the rest.
func aggregateForecast(raw *owmForecast, days int) []DailyForecast {
	byDate := make(map[string]*DailyForecast)
	var order []string

	for _, item := range raw.List {
		date := time.Unix(item.Dt, 0).UTC().Format("2006-01-02")
		day, exists := byDate[date]
		if !exists {
			day = &DailyForecast{
				Date:            date,
				TemperatureMin:  item.Main.TempMin,
				TemperatureMax:  item.Main.TempMax,
				Humidity:        item.Main.Humidity,
				WindSpeed:       item.Wind.Speed,
				RainProbability: item.Pop * 100,
			}
			if len(item.Weather) > 0 {
				day.Condition = item.Weather[0].Description
				day.ConditionIcon = item.Weather[0].Icon
			}
			byDate[date] = day
			order = append(order, date)
			continue
		}
		day.TemperatureMin = math.Min(day.TemperatureMin, item.Main.TempMin)
		day.TemperatureMax = math.Max(day.TemperatureMax, item.Main.TempMax)
	}

	sort.Strings(order)
	if len(order) > days {
		order = order[:days]
	}

	forecast := make([]DailyForecast, 0, len(order))
	for _, date := range order {
		forecast = append(forecast, *byDate[date])
	}
	return forecast
}
