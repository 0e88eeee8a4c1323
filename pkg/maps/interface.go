package maps

import (
	"context"
	"errors"
	"time"
)

var ErrNoResults = errors.New("no geocoding results")

// Geocoder resolves street addresses and estimates travel times between points.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*GeocodeResult, error)
	TravelTime(ctx context.Context, origin, destination Location) (*TravelEstimate, error)
}

type GeocodeResult struct {
	PlaceID     string   `json:"place_id"`
	Address     string   `json:"formatted_address"`
	Coordinates Location `json:"coordinates"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type TravelEstimate struct {
	DistanceMeters int           `json:"distance_meters"`
	Duration       time.Duration `json:"duration"`
}
