package validators

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"fooddash/internal/models"
	"fooddash/internal/utils"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

var (
	phoneRegex      = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	couponCodeRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)
)

func init() {
	validate = validator.New()

	// Report json names in field errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("phone_number", validatePhoneNumber)
	validate.RegisterValidation("coordinates", validateCoordinates)
	validate.RegisterValidation("rating_value", validateRatingValue)
	validate.RegisterValidation("coupon_code", validateCouponCode)
	validate.RegisterValidation("order_status", validateOrderStatus)
	validate.RegisterValidation("discount_type", validateDiscountType)
	validate.RegisterValidation("stock_mode", validateStockMode)
	validate.RegisterValidation("weekday", validateWeekday)
	validate.RegisterValidation("hhmm", validateHHMM)
}

// Common validation errors
var (
	ErrInvalidObjectID    = errors.New("invalid object ID format")
	ErrInvalidPhoneNumber = errors.New("invalid phone number format")
	ErrInvalidCoordinates = errors.New("invalid GPS coordinates")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
)

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// AsError converts field errors into a validation AppError carrying them as
// details, or nil when there are none.
func (v ValidationErrors) AsError() error {
	if len(v) == 0 {
		return nil
	}
	details := make(map[string]string, len(v))
	for _, err := range v {
		if _, seen := details[err.Field]; !seen {
			details[err.Field] = err.Message
		}
	}
	return utils.NewValidationError(utils.ErrValidationFailed, details)
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return ValidationErrors{{Field: "body", Message: err.Error()}}
		}
		for _, err := range fieldErrors {
			validationErrors = append(validationErrors, ValidationError{
				Field:   err.Field(),
				Tag:     err.Tag(),
				Value:   fmt.Sprintf("%v", err.Value()),
				Message: getErrorMessage(err),
			})
		}
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	case "object_id":
		return "Invalid ID format"
	case "phone_number":
		return "Invalid phone number format"
	case "coordinates":
		return "Invalid GPS coordinates"
	case "rating_value":
		return "Rating must be between 1 and 5"
	case "coupon_code":
		return "Coupon code must be 3-32 letters, digits, dashes or underscores"
	case "order_status":
		return "Invalid order status"
	case "discount_type":
		return "Discount type must be percentage or fixed"
	case "stock_mode":
		return "Mode must be add, remove or set"
	case "weekday":
		return "Invalid day of week"
	case "hhmm":
		return "Time must be in HH:MM format"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

// Custom validation functions
func validateObjectID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let required tag handle empty values
	}
	_, err := primitive.ObjectIDFromHex(value)
	return err == nil
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return true
	}
	return phoneRegex.MatchString(phone)
}

func validateCoordinates(fl validator.FieldLevel) bool {
	coords, ok := fl.Field().Interface().([]float64)
	if !ok || len(coords) != 2 {
		return false
	}

	lng, lat := coords[0], coords[1]
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

func validateRatingValue(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return field.Int() >= 1 && field.Int() <= 5
	case reflect.Float32, reflect.Float64:
		return field.Float() >= 1.0 && field.Float() <= 5.0
	}
	return false
}

func validateCouponCode(fl validator.FieldLevel) bool {
	return couponCodeRegex.MatchString(fl.Field().String())
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	return models.OrderStatus(fl.Field().String()).IsValid()
}

func validateDiscountType(fl validator.FieldLevel) bool {
	return models.DiscountType(fl.Field().String()).IsValid()
}

func validateStockMode(fl validator.FieldLevel) bool {
	return models.StockMode(fl.Field().String()).IsValid()
}

func validateWeekday(fl validator.FieldLevel) bool {
	return contains(weekdays, strings.ToLower(fl.Field().String()))
}

func validateHHMM(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := utils.ParseHHMM(value)
	return err == nil
}

// ParseObjectID converts a validated hex ID, returning ErrInvalidID otherwise.
func ParseObjectID(value string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, utils.ErrInvalidID
	}
	return id, nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
