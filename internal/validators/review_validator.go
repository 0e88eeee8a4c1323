package validators

import (
	"strings"

	"fooddash/internal/models"
)

type ReviewRatingsRequest struct {
	Food     int `json:"food" validate:"required,rating_value"`
	Delivery int `json:"delivery" validate:"required,rating_value"`
	Service  int `json:"service" validate:"required,rating_value"`
	Overall  int `json:"overall" validate:"required,rating_value"`
}

func (r *ReviewRatingsRequest) ToModel() models.ReviewRatings {
	return models.ReviewRatings{Food: r.Food, Delivery: r.Delivery, Service: r.Service, Overall: r.Overall}
}

type ReviewCreateRequest struct {
	OrderID string               `json:"order_id" validate:"required,object_id"`
	Ratings ReviewRatingsRequest `json:"ratings"`
	Comment string               `json:"comment" validate:"omitempty,max=1000"`
}

type ReviewUpdateRequest struct {
	Ratings *ReviewRatingsRequest `json:"ratings" validate:"omitempty"`
	Comment *string               `json:"comment" validate:"omitempty,max=1000"`
}

type ReviewFlagRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=255"`
}

type ReviewModerateRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected hidden"`
	Note   string `json:"note" validate:"omitempty,max=500"`
}

func ValidateReviewCreate(req *ReviewCreateRequest) ValidationErrors {
	errors := ValidateStruct(req)
	req.Comment = strings.TrimSpace(req.Comment)
	return errors
}

func ValidateReviewUpdate(req *ReviewUpdateRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if req.Ratings == nil && req.Comment == nil {
		errors = append(errors, ValidationError{
			Field:   "body",
			Message: "Nothing to update",
		})
	}

	return errors
}
