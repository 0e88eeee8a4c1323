package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ModerationStatus string

const (
	ModerationStatusPending  ModerationStatus = "pending"
	ModerationStatusApproved ModerationStatus = "approved"
	ModerationStatusRejected ModerationStatus = "rejected"
	ModerationStatusHidden   ModerationStatus = "hidden"
)

func (m ModerationStatus) IsValid() bool {
	switch m {
	case ModerationStatusPending, ModerationStatusApproved, ModerationStatusRejected, ModerationStatusHidden:
		return true
	}
	return false
}

type Review struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID           primitive.ObjectID `json:"user_id" bson:"user_id"`
	RestaurantID     primitive.ObjectID `json:"restaurant_id" bson:"restaurant_id"`
	OrderID          primitive.ObjectID `json:"order_id" bson:"order_id"`
	Ratings          ReviewRatings      `json:"ratings" bson:"ratings"`
	Comment          string             `json:"comment" bson:"comment"`
	ModerationStatus ModerationStatus   `json:"moderation_status" bson:"moderation_status"`
	ModerationNote   string             `json:"moderation_note,omitempty" bson:"moderation_note,omitempty"`
	Flags            []ReviewFlag       `json:"flags,omitempty" bson:"flags"`
	EditHistory      []ReviewEdit       `json:"edit_history,omitempty" bson:"edit_history"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

type ReviewRatings struct {
	Food     int `json:"food" bson:"food"`
	Delivery int `json:"delivery" bson:"delivery"`
	Service  int `json:"service" bson:"service"`
	Overall  int `json:"overall" bson:"overall"`
}

type ReviewFlag struct {
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Reason    string             `json:"reason" bson:"reason"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

type ReviewEdit struct {
	Comment  string        `json:"comment" bson:"comment"`
	Ratings  ReviewRatings `json:"ratings" bson:"ratings"`
	EditedAt time.Time     `json:"edited_at" bson:"edited_at"`
}
