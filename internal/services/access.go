package services

import (
	"context"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// loadManagedRestaurant returns the restaurant when the actor may manage it:
// admins manage every restaurant, restaurant users only their own.
func loadManagedRestaurant(ctx context.Context, repo interfaces.RestaurantRepository, actor models.Actor, restaurantID primitive.ObjectID) (*models.Restaurant, error) {
	if !actor.IsAdmin() && !actor.IsRestaurant() {
		return nil, utils.ErrNotPermitted
	}

	restaurant, err := repo.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if actor.IsRestaurant() && restaurant.OwnerID != actor.ID {
		return nil, utils.ErrNotPermitted
	}
	return restaurant, nil
}
