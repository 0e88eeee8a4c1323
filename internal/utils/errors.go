package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindState
	KindConflict
	KindInternal
)

// AppError is the error type services return to handlers. Handlers translate
// it into the JSON envelope through HandleError.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithMessage returns a copy carrying a more specific message. errors.Is still
// matches the original sentinel.
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{Kind: e.Kind, Code: e.Code, Message: message, Details: e.Details, Err: e}
}

func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindState:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func NewValidationError(message string, details map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message, Details: details}
}

func NewStateError(code, message string) *AppError {
	return &AppError{Kind: KindState, Code: code, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Code: "FORBIDDEN", Message: message}
}

func NewInternalError(err error) *AppError {
	return &AppError{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: ErrInternalServer, Err: err}
}

var (
	ErrUnauthenticated = &AppError{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: ErrUnauthorized}
	ErrNotPermitted    = &AppError{Kind: KindForbidden, Code: "FORBIDDEN", Message: ErrForbidden}
	ErrInvalidID       = &AppError{Kind: KindValidation, Code: "INVALID_ID", Message: "invalid id format"}
	ErrConcurrentWrite = &AppError{Kind: KindConflict, Code: "CONCURRENT_UPDATE", Message: "the resource was modified concurrently, retry the request"}

	ErrUserNotFound       = &AppError{Kind: KindNotFound, Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrRestaurantNotFound = &AppError{Kind: KindNotFound, Code: "RESTAURANT_NOT_FOUND", Message: "restaurant not found"}
	ErrMenuItemNotFound   = &AppError{Kind: KindNotFound, Code: "MENU_ITEM_NOT_FOUND", Message: "menu item not found"}
	ErrRestaurantInactive = &AppError{Kind: KindState, Code: "RESTAURANT_INACTIVE", Message: "restaurant is not accepting orders"}
	ErrRestaurantClosed   = &AppError{Kind: KindState, Code: "RESTAURANT_CLOSED", Message: "restaurant is closed at this time"}
	ErrItemUnavailable    = &AppError{Kind: KindState, Code: "ITEM_UNAVAILABLE", Message: "menu item is not available"}
	ErrInsufficientStock  = &AppError{Kind: KindState, Code: "INSUFFICIENT_STOCK", Message: "not enough stock for menu item"}
	ErrGeocodingFailed    = &AppError{Kind: KindValidation, Code: "GEOCODING_FAILED", Message: "address could not be located"}

	ErrOrderNotFound     = &AppError{Kind: KindNotFound, Code: "ORDER_NOT_FOUND", Message: "order not found"}
	ErrInvalidTransition = &AppError{Kind: KindState, Code: "INVALID_TRANSITION", Message: "order cannot move to the requested status"}
	ErrMissingReason     = &AppError{Kind: KindValidation, Code: "MISSING_REASON", Message: "a reason is required"}
	ErrDisputeNotAllowed = &AppError{Kind: KindState, Code: "DISPUTE_NOT_ALLOWED", Message: "a dispute cannot be opened or resolved for this order"}

	ErrCouponNotFound     = &AppError{Kind: KindNotFound, Code: "COUPON_NOT_FOUND", Message: "coupon not found"}
	ErrCouponInactive     = &AppError{Kind: KindState, Code: "COUPON_INACTIVE", Message: "coupon is not active"}
	ErrCouponNotStarted   = &AppError{Kind: KindState, Code: "COUPON_NOT_STARTED", Message: "coupon is not valid yet"}
	ErrCouponExpired      = &AppError{Kind: KindState, Code: "COUPON_EXPIRED", Message: "coupon has expired"}
	ErrCouponExhausted    = &AppError{Kind: KindState, Code: "COUPON_EXHAUSTED", Message: "coupon usage limit reached"}
	ErrCouponUserLimit    = &AppError{Kind: KindState, Code: "COUPON_USER_LIMIT", Message: "you have already used this coupon the maximum number of times"}
	ErrCouponNewUsersOnly = &AppError{Kind: KindState, Code: "COUPON_NEW_USERS_ONLY", Message: "coupon is only valid for new customers"}
	ErrCouponMinOrder     = &AppError{Kind: KindState, Code: "COUPON_MIN_ORDER", Message: "order value is below the coupon minimum"}
	ErrCouponRestaurant   = &AppError{Kind: KindState, Code: "COUPON_NOT_APPLICABLE", Message: "coupon is not valid for this restaurant"}
	ErrCouponCodeTaken    = &AppError{Kind: KindConflict, Code: "COUPON_CODE_TAKEN", Message: "a coupon with this code already exists"}

	ErrAlreadyEarned      = &AppError{Kind: KindState, Code: "POINTS_ALREADY_EARNED", Message: "points were already earned for this order"}
	ErrInsufficientPoints = &AppError{Kind: KindState, Code: "INSUFFICIENT_POINTS", Message: "not enough loyalty points"}
	ErrRewardNotFound     = &AppError{Kind: KindNotFound, Code: "REWARD_NOT_FOUND", Message: "reward not found"}

	ErrReviewNotFound    = &AppError{Kind: KindNotFound, Code: "REVIEW_NOT_FOUND", Message: "review not found"}
	ErrReviewExists      = &AppError{Kind: KindConflict, Code: "REVIEW_EXISTS", Message: "this order has already been reviewed"}
	ErrReviewNotEligible = &AppError{Kind: KindState, Code: "REVIEW_NOT_ELIGIBLE", Message: "order is not eligible for review"}

	ErrNotificationNotFound = &AppError{Kind: KindNotFound, Code: "NOTIFICATION_NOT_FOUND", Message: "notification not found"}
)

// HandleError writes err as an error envelope. Anything that is not an
// AppError is reported as an internal error and attached to the gin context
// for the request logger.
func HandleError(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternalError(err)
	}

	if appErr.Kind == KindInternal {
		_ = c.Error(err)
		ErrorResponse(c, http.StatusInternalServerError, appErr.Code, ErrInternalServer)
		return
	}

	ErrorResponseWithDetails(c, appErr.StatusCode(), appErr.Code, appErr.Message, appErr.Details)
}
