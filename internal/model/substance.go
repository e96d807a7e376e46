package model

import "time"

// Substance is a substance a user can select before taking the ASSIST instrument.
type Substance struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateSubstanceRequest is the payload for creating a substance.
type CreateSubstanceRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

// UpdateSubstanceRequest is the payload for updating a substance.
type UpdateSubstanceRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}
