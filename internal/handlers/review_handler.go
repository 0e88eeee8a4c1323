package handlers

import (
	"strings"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/services"
	"fooddash/internal/utils"
	"fooddash/internal/validators"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req validators.ReviewCreateRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateReviewCreate(&req)) {
		return
	}
	orderID, _ := validators.ParseObjectID(req.OrderID)

	review, err := h.reviewService.CreateReview(c.Request.Context(), actor, orderID, req.Ratings.ToModel(), req.Comment)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Review submitted successfully", review)
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.ReviewUpdateRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateReviewUpdate(&req)) {
		return
	}
	var ratings *models.ReviewRatings
	if req.Ratings != nil {
		r := req.Ratings.ToModel()
		ratings = &r
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), actor, id, ratings, req.Comment)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Review updated successfully", review)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), actor, id); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Review deleted successfully", nil)
}

func (h *ReviewHandler) FlagReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.ReviewFlagRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateStruct(&req)) {
		return
	}

	review, err := h.reviewService.FlagReview(c.Request.Context(), actor, id, strings.TrimSpace(req.Reason))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Review flagged for moderation", review)
}

func (h *ReviewHandler) ModerateReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.ReviewModerateRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateStruct(&req)) {
		return
	}

	review, err := h.reviewService.ModerateReview(c.Request.Context(), actor, id, models.ModerationStatus(req.Status), strings.TrimSpace(req.Note))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Review moderated successfully", review)
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	review, err := h.reviewService.GetReview(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Review retrieved successfully", review)
}

// RestaurantReviews lists the publicly visible reviews of one restaurant.
func (h *ReviewHandler) RestaurantReviews(c *gin.Context) {
	restaurantID, ok := pathID(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c, "created_at", "ratings.overall")
	reviews, total, err := h.reviewService.ListRestaurantReviews(c.Request.Context(), restaurantID, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Reviews retrieved successfully", reviews, params, total)
}

// ListReviews applies query filters; the service narrows them to the
// caller's own scope for non-admins.
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	restaurantID, ok := optionalQueryID(c, "restaurant_id")
	if !ok {
		return
	}
	userID, ok := optionalQueryID(c, "user_id")
	if !ok {
		return
	}
	status := models.ModerationStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		utils.HandleError(c, utils.NewValidationError(utils.ErrValidationFailed, map[string]string{
			"status": "Unknown moderation status",
		}))
		return
	}

	filter := interfaces.ReviewFilter{
		RestaurantID:     restaurantID,
		UserID:           userID,
		ModerationStatus: status,
		FlaggedOnly:      c.Query("flagged") == "true",
	}

	params := utils.GetPaginationParams(c, "created_at", "ratings.overall")
	reviews, total, err := h.reviewService.ListReviews(c.Request.Context(), actor, filter, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Reviews retrieved successfully", reviews, params, total)
}
