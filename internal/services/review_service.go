package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
	"fooddash/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewService interface {
	CreateReview(ctx context.Context, actor models.Actor, orderID primitive.ObjectID, ratings models.ReviewRatings, comment string) (*models.Review, error)
	UpdateReview(ctx context.Context, actor models.Actor, reviewID primitive.ObjectID, ratings *models.ReviewRatings, comment *string) (*models.Review, error)
	FlagReview(ctx context.Context, actor models.Actor, reviewID primitive.ObjectID, reason string) (*models.Review, error)
	ModerateReview(ctx context.Context, actor models.Actor, reviewID primitive.ObjectID, status models.ModerationStatus, note string) (*models.Review, error)
	DeleteReview(ctx context.Context, actor models.Actor, reviewID primitive.ObjectID) error

	GetReview(ctx context.Context, reviewID primitive.ObjectID) (*models.Review, error)
	ListRestaurantReviews(ctx context.Context, restaurantID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Review, int64, error)
	ListReviews(ctx context.Context, actor models.Actor, filter interfaces.ReviewFilter, params *utils.PaginationParams) ([]*models.Review, int64, error)
}

type reviewService struct {
	reviewRepo     interfaces.ReviewRepository
	orderRepo      interfaces.OrderRepository
	restaurantRepo interfaces.RestaurantRepository
	notifications  NotificationService
	logger         *logger.Logger
}

func NewReviewService(
	reviewRepo interfaces.ReviewRepository,
	orderRepo interfaces.OrderRepository,
	restaurantRepo interfaces.RestaurantRepository,
	notifications NotificationService,
	log *logger.Logger,
) ReviewService {
	if log == nil {
		log = logger.NewNop()
	}
	return &reviewService{
		reviewRepo:     reviewRepo,
		orderRepo:      orderRepo,
		restaurantRepo: restaurantRepo,
		notifications:  notifications,
		logger:         log,
	}
}

func (s *reviewService) CreateReview(ctx context.Context, actor models.Actor, orderID primitive.ObjectID, ratings models.ReviewRatings, comment string) (*models.Review, error) {
	if !actor.IsCustomer() {
		return nil, utils.ErrNotPermitted
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != actor.ID {
		return nil, utils.ErrNotPermitted
	}
	if !order.ReviewEligible {
		return nil, utils.ErrReviewNotEligible
	}

	exists, err := s.reviewRepo.ExistsForOrder(ctx, actor.ID, orderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, utils.ErrReviewExists
	}

	review := &models.Review{
		UserID:           actor.ID,
		RestaurantID:     order.RestaurantID,
		OrderID:          order.ID,
		Ratings:          ratings,
		Comment:          strings.TrimSpace(comment),
		ModerationStatus: models.ModerationStatusPending,
	}
	// The unique (user_id, order_id) index settles a race the pre-check lost.
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	if err := s.restaurantRepo.AddRating(ctx, order.RestaurantID, float64(ratings.Overall)); err != nil {
		s.logger.WithError(err).WithField("restaurant_id", order.RestaurantID.Hex()).Error("Failed to update restaurant rating")
	}
	s.notifyOwner(ctx, order, review)

	s.logger.LogUserAction(actor.ID, "review_created", map[string]interface{}{
		"review_id": review.ID.Hex(),
		"order_id":  order.ID.Hex(),
		"overall":   ratings.Overall,
	})
	return review, nil
}

func (s *reviewService) notifyOwner(ctx context.Context, order *models.Order, review *models.Review) {
	if s.notifications == nil {
		return
	}
	restaurant, err := s.restaurantRepo.GetByID(ctx, order.RestaurantID)
	if err != nil {
		return
	}
	_, err = s.notifications.Send(ctx, &models.NotificationPayload{
		UserID:  restaurant.OwnerID,
		Type:    models.NotificationTypeReview,
		Title:   "New review",
		Message: fmt.Sprintf("Order %s was rated %d/5", order.OrderNumber, review.Ratings.Overall),
		Data: map[string]string{
			"review_id": review.ID.Hex(),
			"order_id":  order.ID.Hex(),
		},
	})
	if err != nil {
		s.logger.WithError(err).WithField("review_id", review.ID.Hex()).Warn("Failed to notify restaurant of review")
	}
}

func (s *reviewService) UpdateReview(ctx context.Context, actor models.Actor, reviewID primitive.ObjectID, ratings *models.ReviewRatings, comment *string) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != actor.ID {
		return nil, utils.ErrNotPermitted
	}
	if ratings == nil && comment == nil {
		return nil, utils.NewValidationError("nothing to update", nil)
	}

	set := map[string]interface{}{}
	if ratings != nil {
		set["ratings"] = *ratings
	}
	if comment != nil {
		set["comment"] = strings.TrimSpace(*comment)
	}
	// An edited review goes back into the moderation queue.
	set["moderation_status"] = models.ModerationStatusPending

	updated, err := s.reviewRepo.Update(ctx, reviewID, set, &models.ReviewEdit{
		Comment:  review.Comment,
		Ratings:  review.Ratings,
		EditedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	scoreChanged := ratings != nil && ratings.Overall != review.Ratings.Overall
	visibilityChanged := countsTowardsRating(review.ModerationStatus) != countsTowardsRating(models.ModerationStatusPending)
	if scoreChanged || visibilityChanged {
		s.recomputeRating(ctx, review.RestaurantID)
	}
	return updated, nil
}

func (s *reviewService) FlagReview(ctx context.Context, actor models.Actor, reviewID primitive.ObjectID, reason string) (*models.Review, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, utils.ErrMissingReason
	}
	review, err := s.reviewRepo.AddFlag(ctx, reviewID, models.ReviewFlag{
		UserID:    actor.ID,
		Reason:    reason,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.LogUserAction(actor.ID, "review_flagged", map[string]interface{}{"review_id": reviewID.Hex()})
	return review, nil
}

func (s *reviewService) ModerateReview(ctx context.Context, actor models.Actor, reviewID primitive.ObjectID, status models.ModerationStatus, note string) (*models.Review, error) {
	if !actor.IsAdmin() {
		return nil, utils.ErrNotPermitted
	}
	if !status.IsValid() || status == models.ModerationStatusPending {
		return nil, utils.NewValidationError(utils.ErrValidationFailed, map[string]string{
			"status": "Status must be approved, rejected or hidden",
		})
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	updated, err := s.reviewRepo.Update(ctx, reviewID, map[string]interface{}{
		"moderation_status": status,
		"moderation_note":   strings.TrimSpace(note),
	}, nil)
	if err != nil {
		return nil, err
	}

	if countsTowardsRating(review.ModerationStatus) != countsTowardsRating(status) {
		s.recomputeRating(ctx, review.RestaurantID)
	}
	s.logger.LogUserAction(actor.ID, "review_moderated", map[string]interface{}{
		"review_id": reviewID.Hex(),
		"status":    string(status),
	})
	return updated, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, actor models.Actor, reviewID primitive.ObjectID) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && review.UserID != actor.ID {
		return utils.ErrNotPermitted
	}
	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return err
	}

	s.recomputeRating(ctx, review.RestaurantID)
	s.logger.LogUserAction(actor.ID, "review_deleted", map[string]interface{}{"review_id": reviewID.Hex()})
	return nil
}

func (s *reviewService) GetReview(ctx context.Context, reviewID primitive.ObjectID) (*models.Review, error) {
	return s.reviewRepo.GetByID(ctx, reviewID)
}

func (s *reviewService) ListRestaurantReviews(ctx context.Context, restaurantID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Review, int64, error) {
	return s.reviewRepo.List(ctx, interfaces.ReviewFilter{RestaurantID: &restaurantID, VisibleOnly: true}, params)
}

// ListReviews is the moderation listing; customers only see their own.
func (s *reviewService) ListReviews(ctx context.Context, actor models.Actor, filter interfaces.ReviewFilter, params *utils.PaginationParams) ([]*models.Review, int64, error) {
	if !actor.IsAdmin() {
		filter.UserID = &actor.ID
	}
	return s.reviewRepo.List(ctx, filter, params)
}

// recomputeRating rebuilds the running average from the stored reviews. A
// failure leaves a stale average, which the next recompute repairs.
func (s *reviewService) recomputeRating(ctx context.Context, restaurantID primitive.ObjectID) {
	rating, err := s.reviewRepo.RatingFor(ctx, restaurantID)
	if err == nil {
		err = s.restaurantRepo.SetRating(ctx, restaurantID, rating)
	}
	if err != nil {
		s.logger.WithError(err).WithField("restaurant_id", restaurantID.Hex()).Error("Failed to recompute restaurant rating")
	}
}

func countsTowardsRating(status models.ModerationStatus) bool {
	return status != models.ModerationStatusHidden && status != models.ModerationStatusRejected
}
