package geocode

import (
	"log"
	"sync"

	"github.com/kelvins/geocoder"
)

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Geocoder resolves a free-text address. A nil result with nil error means
// the address could not be resolved; callers fall back to home coordinates.
type Geocoder interface {
	Geocode(address string) (*Coordinates, error)
}

// GoogleGeocoder resolves addresses through the Google geocoding API.
type GoogleGeocoder struct {
	apiKey string
	once   sync.Once
}

// NewGoogleGeocoder creates a geocoder. An empty API key disables lookups;
// every call then returns nil coordinates.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey}
}

// Geocode resolves address text to coordinates. Failures are returned to the
// caller, which logs and falls back rather than propagating.
func (g *GoogleGeocoder) Geocode(address string) (*Coordinates, error) {
	if g.apiKey == "" || address == "" {
		return nil, nil
	}
	g.once.Do(func() {
		geocoder.ApiKey = g.apiKey
	})

	loc, err := geocoder.Geocoding(geocoder.Address{Street: address})
	if err != nil {
		log.Printf("[Geocode] lookup failed for %q: %v", address, err)
		return nil, err
	}

	return &Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude}, nil
}
