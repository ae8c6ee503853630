package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
)

// RegisterRequest captures the payload for creating a customer account.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Phone     *string `json:"phone,omitempty"`
}

// LoginRequest captures the customer credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`

	// CartID optionally attaches the shopper's anonymous cart to the account.
	CartID *uuid.UUID `json:"cart_id,omitempty"`
}

// CustomerDTO is the wire shape for a customer profile.
type CustomerDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse contains the token and customer produced by a successful login.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	Customer    *CustomerDTO `json:"customer"`
}

// FromModel maps a customer record onto its DTO.
func FromModel(customer *models.Customer) *CustomerDTO {
	if customer == nil {
		return nil
	}
	return &CustomerDTO{
		ID:        customer.ID,
		Email:     customer.Email,
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		Phone:     customer.Phone,
		CreatedAt: customer.CreatedAt,
	}
}
