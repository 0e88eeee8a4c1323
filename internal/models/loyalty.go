package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LoyaltyTransactionType string
type LoyaltyLevel string
type RewardType string

const (
	LoyaltyTransactionEarned   LoyaltyTransactionType = "earned"
	LoyaltyTransactionRedeemed LoyaltyTransactionType = "redeemed"
	LoyaltyTransactionExpired  LoyaltyTransactionType = "expired"

	LoyaltyLevelMember   LoyaltyLevel = "Member"
	LoyaltyLevelBronze   LoyaltyLevel = "Bronze"
	LoyaltyLevelSilver   LoyaltyLevel = "Silver"
	LoyaltyLevelGold     LoyaltyLevel = "Gold"
	LoyaltyLevelPlatinum LoyaltyLevel = "Platinum"

	RewardTypeDiscount     RewardType = "discount"
	RewardTypeFreeDelivery RewardType = "free_delivery"
)

type LoyaltyTransaction struct {
	ID              primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	UserID          primitive.ObjectID     `json:"user_id" bson:"user_id"`
	OrderID         *primitive.ObjectID    `json:"order_id,omitempty" bson:"order_id,omitempty"`
	Type            LoyaltyTransactionType `json:"type" bson:"type"`
	Points          int                    `json:"points" bson:"points"`
	Description     string                 `json:"description" bson:"description"`
	ExpiresAt       *time.Time             `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	ExpiryProcessed bool                   `json:"-" bson:"expiry_processed"`
	Metadata        map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"created_at" bson:"created_at"`
}

type LoyaltyTier struct {
	Level      LoyaltyLevel `json:"level"`
	MinPoints  int          `json:"min_points"`
	Multiplier float64      `json:"multiplier"`
}

type Reward struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	PointsRequired int        `json:"points_required"`
	Value          float64    `json:"value"`
	Type           RewardType `json:"type"`
}

type EarnResult struct {
	PointsEarned int          `json:"points_earned"`
	TotalPoints  int          `json:"total_points"`
	Level        LoyaltyLevel `json:"level"`
}

type RedeemResult struct {
	Reward          Reward `json:"reward"`
	RemainingPoints int    `json:"remaining_points"`
}

type LoyaltySummary struct {
	Points             int                   `json:"points"`
	LifetimePoints     int                   `json:"lifetime_points"`
	Level              LoyaltyLevel          `json:"level"`
	Multiplier         float64               `json:"multiplier"`
	NextLevel          *LoyaltyLevel         `json:"next_level,omitempty"`
	PointsToNextLevel  int                   `json:"points_to_next_level"`
	RecentTransactions []*LoyaltyTransaction `json:"recent_transactions"`
}
