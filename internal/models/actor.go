package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleRestaurant Role = "restaurant"
	RoleAdmin      Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleRestaurant, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller. Every service operation that checks
// permissions receives one explicitly.
type Actor struct {
	ID   primitive.ObjectID `json:"id" bson:"id"`
	Role Role               `json:"role" bson:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsCustomer() bool {
	return a.Role == RoleCustomer
}

func (a Actor) IsRestaurant() bool {
	return a.Role == RoleRestaurant
}

// SystemActor is used for transitions and adjustments made by background work.
var SystemActor = Actor{Role: RoleAdmin}
