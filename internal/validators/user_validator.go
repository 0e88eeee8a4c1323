package validators

type DeviceTokenRequest struct {
	Token    string `json:"token" validate:"required,min=10,max=4096"`
	Platform string `json:"platform" validate:"required,oneof=android ios web"`
}

type RedeemRewardRequest struct {
	RewardID string `json:"reward_id" validate:"required,max=64"`
}

type NearbyQuery struct {
	Latitude  float64 `form:"lat" validate:"gte=-90,lte=90"`
	Longitude float64 `form:"lng" validate:"gte=-180,lte=180"`
	RadiusKM  float64 `form:"radius_km" validate:"omitempty,gt=0,lte=50"`
	Limit     int     `form:"limit" validate:"omitempty,min=1,max=100"`
}
