// Package orbit estimates positions of an object on a hyperbolic trajectory
// from a handful of orbital parameters. It is a fallback for objects the
// ephemeris source does not list, not a Kepler solver.
package orbit

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrMissingParameters signals that the estimator was called without a
// complete set of orbital parameters.
var ErrMissingParameters = errors.New("orbital parameters missing or incomplete")

// DateLayout is the calendar date format used for perihelion and position dates
const DateLayout = "2006-01-02"

// OrbitalParameters describes one object's hyperbolic trajectory
type OrbitalParameters struct {
	Eccentricity         float64   `json:"eccentricity" yaml:"eccentricity" validate:"required,gt=1"`
	InclinationDegrees   float64   `json:"inclinationDegrees" yaml:"inclination_degrees" validate:"gte=0,lte=180"`
	PerihelionDate       time.Time `json:"perihelionDate" yaml:"perihelion_date" validate:"required"`
	PerihelionDistanceAU float64   `json:"perihelionDistanceAU" yaml:"perihelion_distance_au" validate:"required,gt=0"`
}

var validate = validator.New()

// Validate checks that params is present and complete. Every failure wraps
// ErrMissingParameters.
func Validate(params *OrbitalParameters) error {
	if params == nil {
		return ErrMissingParameters
	}
	if err := validate.Struct(params); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingParameters, err)
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}
