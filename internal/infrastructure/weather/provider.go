// Package weather looks up observing conditions for an observatory location.
package weather

import (
	"context"
	"fmt"
)

// Sample is one normalized weather reading.
type Sample struct {
	TemperatureKelvin     float64 `json:"temperature_in_kelvins"`
	CloudinessPercent     float64 `json:"cloudiness_percentage"`
	BackgroundLightVolume float64 `json:"background_light_volume"`
}

// DefaultSample is returned by the mock provider and used as the fallback
// whenever a real lookup fails or times out.
var DefaultSample = Sample{
	TemperatureKelvin:     253.15,
	CloudinessPercent:     0,
	BackgroundLightVolume: 10.5,
}

// Location is a point on the ground in decimal degrees.
type Location struct {
	Latitude  float64
	Longitude float64
}

func (l Location) String() string {
	return fmt.Sprintf("%.4f,%.4f", l.Latitude, l.Longitude)
}

// Provider abstracts a weather data source.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Sample, error)
}

// MockProvider always returns DefaultSample.
type MockProvider struct{}

func (MockProvider) Name() string { return "mock" }

func (MockProvider) Fetch(context.Context, Location) (Sample, error) {
	return DefaultSample, nil
}
