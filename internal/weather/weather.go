package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Sample is a normalized current-conditions reading at a coordinate.
type Sample struct {
	Temperature   float64   `json:"temperature"`   // °C
	Precipitation float64   `json:"precipitation"` // mm
	WindSpeed     float64   `json:"windSpeed"`     // km/h
	Humidity      float64   `json:"humidity"`      // percent
	Time          time.Time `json:"time"`
}

// Summary formats the sample for notification text.
func (s Sample) Summary() string {
	msg := fmt.Sprintf("%.0f°C", s.Temperature)
	if s.Precipitation > 0 {
		msg += fmt.Sprintf(", %.1fmm rain - bring umbrella!", s.Precipitation)
	}
	return msg
}

// Source fetches current weather for a coordinate. Implemented by Client;
// tests substitute fakes.
type Source interface {
	Current(ctx context.Context, lat, lon float64) (Sample, error)
}

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
)

// BackoffConfig controls retry behaviour for the weather client.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Client fetches current conditions from the Open-Meteo forecast API with
// retries and a circuit breaker around the upstream.
type Client struct {
	baseURL string
	http    *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

// NewClient creates a weather client. timeout bounds each upstream call so a
// slow vendor cannot stall the scheduler.
func NewClient(baseURL string, timeout time.Duration) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		circuit: cb,
	}
}

// Current implements Source against Open-Meteo's current-conditions endpoint.
func (c *Client) Current(ctx context.Context, lat, lon float64) (Sample, error) {
	u := fmt.Sprintf(
		"%s?latitude=%f&longitude=%f&current=temperature_2m,relative_humidity_2m,precipitation,wind_speed_10m",
		c.baseURL, lat, lon,
	)

	var payload struct {
		Current struct {
			Time             string  `json:"time"`
			Temperature      float64 `json:"temperature_2m"`
			RelativeHumidity float64 `json:"relative_humidity_2m"`
			Precipitation    float64 `json:"precipitation"`
			WindSpeed        float64 `json:"wind_speed_10m"`
		} `json:"current"`
	}

	if err := c.getJSON(ctx, u, &payload); err != nil {
		return Sample{}, fmt.Errorf("weather fetch failed: %w", err)
	}

	ts, err := time.Parse("2006-01-02T15:04", payload.Current.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	return Sample{
		Temperature:   payload.Current.Temperature,
		Precipitation: payload.Current.Precipitation,
		WindSpeed:     payload.Current.WindSpeed,
		Humidity:      payload.Current.RelativeHumidity,
		Time:          ts,
	}, nil
}

// getJSON executes the request with exponential backoff behind the circuit
// breaker and decodes the response body into out.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			resp, err := c.http.Do(req)
			if err != nil {
				return nil, err
			}
			switch {
			case resp.StatusCode == http.StatusOK:
				return resp, nil
			case resp.StatusCode == http.StatusTooManyRequests:
				resp.Body.Close()
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				resp.Body.Close()
				return nil, errServerError
			default:
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
		})

		if err == nil {
			resp := result.(*http.Response)
			defer resp.Body.Close()
			return decodeJSON(resp, out)
		}

		lastErr = err
		// Retry only transient failures; breaker-open and 4xx fail fast.
		if !errors.Is(err, errRateLimited) && !errors.Is(err, errServerError) {
			return err
		}
		if attempt >= c.backoff.MaxRetries {
			return fmt.Errorf("retries exhausted: %w", lastErr)
		}

		wait := time.Duration(float64(c.backoff.InitialInterval) * math.Pow(2, float64(attempt)))
		if wait > c.backoff.MaxInterval {
			wait = c.backoff.MaxInterval
		}
		attempt++

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func decodeJSON(resp *http.Response, out interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
