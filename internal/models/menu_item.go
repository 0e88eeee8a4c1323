package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StockMode string

const (
	StockModeAdd    StockMode = "add"
	StockModeRemove StockMode = "remove"
	StockModeSet    StockMode = "set"
)

func (m StockMode) IsValid() bool {
	switch m {
	case StockModeAdd, StockModeRemove, StockModeSet:
		return true
	}
	return false
}

// MenuItem lives in its own collection keyed by restaurant_id.
type MenuItem struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RestaurantID primitive.ObjectID `json:"restaurant_id" bson:"restaurant_id"`
	Name         string             `json:"name" bson:"name"`
	Description  string             `json:"description" bson:"description"`
	Category     string             `json:"category" bson:"category"`
	Price        float64            `json:"price" bson:"price"`
	ImageURL     string             `json:"image_url,omitempty" bson:"image_url,omitempty"`
	ImageKey     string             `json:"-" bson:"image_key,omitempty"`
	Options      []MenuOption       `json:"options,omitempty" bson:"options"`
	IsAvailable  bool               `json:"is_available" bson:"is_available"`
	Inventory    Inventory          `json:"inventory" bson:"inventory"`
	Version      int64              `json:"version" bson:"version"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

type MenuOption struct {
	Name  string  `json:"name" bson:"name"`
	Price float64 `json:"price" bson:"price"`
}

func (m *MenuItem) Option(name string) (MenuOption, bool) {
	for _, opt := range m.Options {
		if opt.Name == name {
			return opt, true
		}
	}
	return MenuOption{}, false
}

// Inventory keeps only the most recent stock movements inline; the full log is
// in the stock_movements collection.
type Inventory struct {
	CurrentStock      int             `json:"current_stock" bson:"current_stock"`
	LowStockThreshold int             `json:"low_stock_threshold" bson:"low_stock_threshold"`
	ReorderPoint      int             `json:"reorder_point" bson:"reorder_point"`
	CostPerUnit       float64         `json:"cost_per_unit" bson:"cost_per_unit"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty" bson:"expiry_date,omitempty"`
	StockHistory      []StockMovement `json:"stock_history,omitempty" bson:"stock_history"`
	AppliedRefs       []string        `json:"-" bson:"applied_refs"`
}

func (inv *Inventory) HasApplied(ref string) bool {
	if ref == "" {
		return false
	}
	for _, r := range inv.AppliedRefs {
		if r == ref {
			return true
		}
	}
	return false
}

type StockMovement struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ItemID        primitive.ObjectID `json:"item_id" bson:"item_id"`
	RestaurantID  primitive.ObjectID `json:"restaurant_id" bson:"restaurant_id"`
	Date          time.Time          `json:"date" bson:"date"`
	Type          StockMode          `json:"type" bson:"type"`
	Quantity      int                `json:"quantity" bson:"quantity"`
	PreviousStock int                `json:"previous_stock" bson:"previous_stock"`
	NewStock      int                `json:"new_stock" bson:"new_stock"`
	Reason        string             `json:"reason" bson:"reason"`
	Reference     string             `json:"reference,omitempty" bson:"reference,omitempty"`
	UpdatedBy     primitive.ObjectID `json:"updated_by" bson:"updated_by"`
}
