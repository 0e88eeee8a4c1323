package utils

import "time"

const (
	AppName = "fooddash"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// File Upload
	MaxImageSize = 5 * 1024 * 1024 // 5MB

	// Orders
	OrderNumberPrefix       = "FD"
	OrderNumberSuffixLength = 6

	// Cache TTLs
	UnreadCountTTL = 5 * time.Minute
	RestaurantTTL  = 10 * time.Minute
)

// Error Messages
const (
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "authentication required"
	ErrForbidden        = "you are not allowed to perform this action"
	ErrValidationFailed = "validation failed"
)

// Cache Keys
const (
	CacheRestaurantPrefix  = "restaurant:"
	CacheUnreadCountPrefix = "notifications:unread:"
)

var AllowedImageTypes = []string{"jpg", "jpeg", "png"}
