package models

// AwardXPRequest credits experience points. Staff may target another user.
type AwardXPRequest struct {
	Amount int    `json:"amount" validate:"gte=0,lte=100000"`
	UserID string `json:"userId" validate:"omitempty,max=64"`
	Reason string `json:"reason" validate:"omitempty,max=120"`
}
