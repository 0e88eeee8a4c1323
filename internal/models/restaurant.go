package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Restaurant struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID              primitive.ObjectID `json:"owner_id" bson:"owner_id"`
	Name                 string             `json:"name" bson:"name"`
	Description          string             `json:"description" bson:"description"`
	Cuisine              []string           `json:"cuisine" bson:"cuisine"`
	Phone                string             `json:"phone" bson:"phone"`
	Email                string             `json:"email" bson:"email"`
	Address              Address            `json:"address" bson:"address"`
	Location             GeoPoint           `json:"location" bson:"location"`
	OperatingHours       []OperatingHours   `json:"operating_hours" bson:"operating_hours"`
	DeliveryFee          float64            `json:"delivery_fee" bson:"delivery_fee"`
	MinimumOrder         float64            `json:"minimum_order" bson:"minimum_order"`
	EstimatedPrepMinutes int                `json:"estimated_prep_minutes" bson:"estimated_prep_minutes"`
	Timezone             string             `json:"timezone" bson:"timezone"`
	ImageURL             string             `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Rating               Rating             `json:"rating" bson:"rating"`
	IsActive             bool               `json:"is_active" bson:"is_active"`
	CreatedAt            time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" bson:"updated_at"`
}

type Address struct {
	Street     string `json:"street" bson:"street"`
	City       string `json:"city" bson:"city"`
	State      string `json:"state" bson:"state"`
	PostalCode string `json:"postal_code" bson:"postal_code"`
	Country    string `json:"country" bson:"country"`
}

func (a Address) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

func NewGeoPoint(latitude, longitude float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

func (p GeoPoint) IsZero() bool {
	return len(p.Coordinates) != 2
}

func (p GeoPoint) Latitude() float64 {
	if p.IsZero() {
		return 0
	}
	return p.Coordinates[1]
}

func (p GeoPoint) Longitude() float64 {
	if p.IsZero() {
		return 0
	}
	return p.Coordinates[0]
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%f,%f", p.Latitude(), p.Longitude())
}

// OperatingHours holds one weekday's window. Close earlier than Open means the
// window runs past midnight.
type OperatingHours struct {
	Day      string `json:"day" bson:"day"`
	Open     string `json:"open" bson:"open"`
	Close    string `json:"close" bson:"close"`
	IsClosed bool   `json:"is_closed" bson:"is_closed"`
}

type Rating struct {
	Average float64 `json:"average" bson:"average"`
	Count   int     `json:"count" bson:"count"`
}
