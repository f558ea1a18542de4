package dto

import "github.com/google/uuid"

type ReviewDraftRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Rating    int       `json:"rating" validate:"min=0,max=5"`
	Comment   string    `json:"comment" validate:"max=2000"`
}

// SubmitReviewRequest updates the review with ID when set, otherwise creates one.
type SubmitReviewRequest struct {
	ID        *uuid.UUID `json:"id"`
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	Rating    int        `json:"rating" validate:"required,min=1,max=5"`
	Comment   string     `json:"comment" validate:"max=2000"`
}
