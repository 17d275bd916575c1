package assess

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/sitescout/internal/types"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
)

var (
	// ErrInvalidPayload marks a remote response that is not a complete,
	// in-range assessment.
	ErrInvalidPayload = errors.New("invalid assessment payload")

	// ErrEmptyResponse marks a remote response without any content.
	ErrEmptyResponse = errors.New("empty response from assessment provider")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// payload mirrors types.Assessment with pointer fields so that a missing
// field can be told apart from a zero value.
type payload struct {
	TrafficScore       *float64 `json:"trafficScore" validate:"required,gte=0,lte=100"`
	AccessibilityScore *float64 `json:"accessibilityScore" validate:"required,gte=0,lte=100"`
	ResidentialDensity *float64 `json:"residentialDensity" validate:"required,gte=0,lte=100"`
	CommercialValue    *float64 `json:"commercialValue" validate:"required,gte=0,lte=100"`
	InfluenceRadius    *float64 `json:"influenceRadius" validate:"required,gt=0"`
	Description        *string  `json:"description" validate:"required,min=1"`
}

// DecodeAssessment parses and validates a six-field assessment JSON object.
// Every failure wraps ErrInvalidPayload.
func DecodeAssessment(data []byte, source types.AssessmentSource) (types.Assessment, error) {
	if len(data) == 0 {
		return types.Assessment{}, fmt.Errorf("%w: %w", ErrInvalidPayload, ErrEmptyResponse)
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return types.Assessment{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if err := validate.Struct(p); err != nil {
		return types.Assessment{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return types.Assessment{
		TrafficScore:       *p.TrafficScore,
		AccessibilityScore: *p.AccessibilityScore,
		ResidentialDensity: *p.ResidentialDensity,
		CommercialValue:    *p.CommercialValue,
		InfluenceRadius:    *p.InfluenceRadius,
		Description:        *p.Description,
		Source:             source,
	}, nil
}

// ValidateAssessment checks the ranges of an assembled assessment.
func ValidateAssessment(a types.Assessment) error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return nil
}
