package validators

import (
	"fmt"
	"strings"
)

type OperatingHoursRequest struct {
	Day      string `json:"day" validate:"required,weekday"`
	Open     string `json:"open" validate:"required_unless=IsClosed true,hhmm"`
	Close    string `json:"close" validate:"required_unless=IsClosed true,hhmm"`
	IsClosed bool   `json:"is_closed"`
}

type RestaurantCreateRequest struct {
	OwnerID              string                  `json:"owner_id" validate:"required,object_id"`
	Name                 string                  `json:"name" validate:"required,min=2,max=100"`
	Description          string                  `json:"description" validate:"omitempty,max=1000"`
	Cuisine              []string                `json:"cuisine" validate:"required,min=1,max=10,dive,required,max=50"`
	Phone                string                  `json:"phone" validate:"required,phone_number"`
	Email                string                  `json:"email" validate:"omitempty,email"`
	Address              AddressRequest          `json:"address"`
	Location             []float64               `json:"location" validate:"omitempty,coordinates"`
	OperatingHours       []OperatingHoursRequest `json:"operating_hours" validate:"omitempty,max=7,dive"`
	DeliveryFee          float64                 `json:"delivery_fee" validate:"gte=0"`
	MinimumOrder         float64                 `json:"minimum_order" validate:"gte=0"`
	EstimatedPrepMinutes int                     `json:"estimated_prep_minutes" validate:"gte=0,lte=240"`
	Timezone             string                  `json:"timezone" validate:"omitempty,timezone"`
}

type RestaurantUpdateRequest struct {
	Name                 *string                 `json:"name" validate:"omitempty,min=2,max=100"`
	Description          *string                 `json:"description" validate:"omitempty,max=1000"`
	Cuisine              []string                `json:"cuisine" validate:"omitempty,max=10,dive,required,max=50"`
	Phone                *string                 `json:"phone" validate:"omitempty,phone_number"`
	Email                *string                 `json:"email" validate:"omitempty,email"`
	Address              *AddressRequest         `json:"address" validate:"omitempty"`
	Location             []float64               `json:"location" validate:"omitempty,coordinates"`
	OperatingHours       []OperatingHoursRequest `json:"operating_hours" validate:"omitempty,max=7,dive"`
	DeliveryFee          *float64                `json:"delivery_fee" validate:"omitempty,gte=0"`
	MinimumOrder         *float64                `json:"minimum_order" validate:"omitempty,gte=0"`
	EstimatedPrepMinutes *int                    `json:"estimated_prep_minutes" validate:"omitempty,gte=0,lte=240"`
	Timezone             *string                 `json:"timezone" validate:"omitempty,timezone"`
}

type MenuOptionRequest struct {
	Name  string  `json:"name" validate:"required,max=100"`
	Price float64 `json:"price" validate:"gte=0"`
}

type MenuItemRequest struct {
	Name              string              `json:"name" validate:"required,min=1,max=100"`
	Description       string              `json:"description" validate:"omitempty,max=500"`
	Category          string              `json:"category" validate:"required,max=50"`
	Price             float64             `json:"price" validate:"gte=0"`
	Options           []MenuOptionRequest `json:"options" validate:"omitempty,max=20,dive"`
	IsAvailable       *bool               `json:"is_available"`
	CurrentStock      int                 `json:"current_stock" validate:"gte=0"`
	LowStockThreshold int                 `json:"low_stock_threshold" validate:"gte=0"`
	ReorderPoint      int                 `json:"reorder_point" validate:"gte=0"`
	CostPerUnit       float64             `json:"cost_per_unit" validate:"gte=0"`
}

type MenuItemUpdateRequest struct {
	Name              *string             `json:"name" validate:"omitempty,min=1,max=100"`
	Description       *string             `json:"description" validate:"omitempty,max=500"`
	Category          *string             `json:"category" validate:"omitempty,max=50"`
	Price             *float64            `json:"price" validate:"omitempty,gte=0"`
	Options           []MenuOptionRequest `json:"options" validate:"omitempty,max=20,dive"`
	IsAvailable       *bool               `json:"is_available"`
	LowStockThreshold *int                `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	ReorderPoint      *int                `json:"reorder_point" validate:"omitempty,gte=0"`
	CostPerUnit       *float64            `json:"cost_per_unit" validate:"omitempty,gte=0"`
}

type StockAdjustRequest struct {
	Delta  int    `json:"delta" validate:"gte=0"`
	Mode   string `json:"mode" validate:"required,stock_mode"`
	Reason string `json:"reason" validate:"required,max=200"`
}

func ValidateRestaurantCreate(req *RestaurantCreateRequest) ValidationErrors {
	errors := ValidateStruct(req)
	errors = append(errors, validateHours(req.OperatingHours)...)
	return errors
}

func ValidateRestaurantUpdate(req *RestaurantUpdateRequest) ValidationErrors {
	errors := ValidateStruct(req)
	errors = append(errors, validateHours(req.OperatingHours)...)
	return errors
}

func ValidateMenuItem(req *MenuItemRequest) ValidationErrors {
	errors := ValidateStruct(req)
	errors = append(errors, validateOptions(req.Options)...)
	return errors
}

func ValidateMenuItemUpdate(req *MenuItemUpdateRequest) ValidationErrors {
	errors := ValidateStruct(req)
	errors = append(errors, validateOptions(req.Options)...)
	return errors
}

func validateHours(hours []OperatingHoursRequest) ValidationErrors {
	var errors ValidationErrors
	seen := make(map[string]bool, len(hours))
	for i, h := range hours {
		day := strings.ToLower(h.Day)
		if seen[day] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("operating_hours[%d].day", i),
				Message: "Each day may appear only once",
			})
		}
		seen[day] = true
		if !h.IsClosed && h.Open != "" && h.Open == h.Close {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("operating_hours[%d].close", i),
				Message: "Closing time must differ from opening time",
			})
		}
	}
	return errors
}

func validateOptions(options []MenuOptionRequest) ValidationErrors {
	var errors ValidationErrors
	seen := make(map[string]bool, len(options))
	for i, opt := range options {
		if seen[opt.Name] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("options[%d].name", i),
				Message: "Option names must be unique",
			})
		}
		seen[opt.Name] = true
	}
	return errors
}
