package models

import (
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "reglens/pkg/domain-errors"
)

var validate = validator.New()

// PredictRequest is the POST /api/predict body. Older clients send the query
// under "substance"; both spellings are accepted.
type PredictRequest struct {
	Prompt    string `json:"prompt"`
	Substance string `json:"substance"`
}

// Normalize trims incidental whitespace from both fields.
func (r *PredictRequest) Normalize() {
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.Substance = strings.TrimSpace(r.Substance)
}

// Query returns the effective user query, preferring the modern field.
func (r *PredictRequest) Query() string {
	if r.Prompt != "" {
		return r.Prompt
	}
	return r.Substance
}

// Validate requires a non-empty query under either field.
func (r *PredictRequest) Validate() error {
	if r.Query() == "" {
		return dErrors.New(dErrors.CodeValidation, "prompt is required")
	}
	return nil
}

// RefreshRequest is the POST /api/refresh body.
type RefreshRequest struct {
	Substances []string `json:"substances" validate:"required,min=1,dive,min=1"`
}

// Normalize trims each listed substance and drops empties.
func (r *RefreshRequest) Normalize() {
	cleaned := r.Substances[:0]
	for _, s := range r.Substances {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	r.Substances = cleaned
}

// Validate requires at least one non-empty substance.
func (r *RefreshRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return dErrors.New(dErrors.CodeValidation, "substances must be a non-empty list")
	}
	return nil
}
