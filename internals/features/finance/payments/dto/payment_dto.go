// file: internals/features/finance/payments/dto/payment_dto.go
package dto

import (
	"strings"

	"lms_backend/internals/features/finance/payments/service"
)

// CheckoutRequest: semua field opsional, kosong → diambil dari data murid
type CheckoutRequest struct {
	FirstName string `json:"first_name" validate:"omitempty,max=60"`
	LastName  string `json:"last_name" validate:"omitempty,max=60"`
	Email     string `json:"email" validate:"omitempty,email,max=160"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
	Address   string `json:"address" validate:"omitempty,max=200"`
	City      string `json:"city" validate:"omitempty,max=80"`
	Postcode  string `json:"postcode" validate:"omitempty,max=10"`
}

func (r CheckoutRequest) ToCustomer() service.CustomerInput {
	return service.CustomerInput{
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Email:     strings.TrimSpace(r.Email),
		Phone:     strings.TrimSpace(r.Phone),
		Address:   strings.TrimSpace(r.Address),
		City:      strings.TrimSpace(r.City),
		Postcode:  strings.TrimSpace(r.Postcode),
	}
}
