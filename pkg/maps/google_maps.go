package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client *maps.Client
}

func NewGoogleMapsProvider(apiKey string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client: client,
	}, nil
}

func (g *GoogleMapsProvider) Geocode(ctx context.Context, address string) (*GeocodeResult, error) {
	resp, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("geocoding failed: %w", err)
	}
	if len(resp) == 0 {
		return nil, ErrNoResults
	}

	first := resp[0]
	return &GeocodeResult{
		PlaceID: first.PlaceID,
		Address: first.FormattedAddress,
		Coordinates: Location{
			Latitude:  first.Geometry.Location.Lat,
			Longitude: first.Geometry.Location.Lng,
		},
	}, nil
}

func (g *GoogleMapsProvider) TravelTime(ctx context.Context, origin, destination Location) (*TravelEstimate, error) {
	req := &maps.DistanceMatrixRequest{
		Origins:      []string{fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude)},
		Destinations: []string{fmt.Sprintf("%f,%f", destination.Latitude, destination.Longitude)},
		Mode:         maps.TravelModeDriving,
	}

	resp, err := g.client.DistanceMatrix(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("distance matrix failed: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return nil, ErrNoResults
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return nil, fmt.Errorf("distance matrix element status: %s", element.Status)
	}

	return &TravelEstimate{
		DistanceMeters: element.Distance.Meters,
		Duration:       element.Duration,
	}, nil
}
