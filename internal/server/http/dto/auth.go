package dto

import "github.com/polkiloo/fooddispatch/internal/domain/model"

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Name                string `json:"name" binding:"required"`
	Email               string `json:"email" binding:"required"`
	Password            string `json:"password" binding:"required"`
	Role                string `json:"role" binding:"required"`
	AverageDeliveryTime *int   `json:"averageDeliveryTime"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string         `json:"token"`
	User  model.UserView `json:"user"`
}
