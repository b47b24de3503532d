package orbit

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	daysPerYear = 365.25
	day         = 24 * time.Hour
)

// MaxOffsetDays bounds how far from perihelion, in either direction, the
// estimator will go. A century keeps dates and point counts well inside int
// and time.Duration range.
const MaxOffsetDays = 36525

var (
	// ErrInvalidWindow is returned for an empty trajectory window or a non-positive step
	ErrInvalidWindow = errors.New("invalid trajectory window")
	// ErrOutOfRange is returned for a date or offset beyond MaxOffsetDays
	ErrOutOfRange = errors.New("outside estimator range")
)

// Position is a heliocentric position in AU on a calendar date
type Position struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
	Date string  `json:"date"`
}

// Distance returns the distance from the Sun in AU
func (p Position) Distance() float64 {
	return r3.Norm(r3.Vec{X: p.X, Y: p.Y, Z: p.Z})
}

// TrajectoryPoint is a Position tagged with its whole-day offset from perihelion
type TrajectoryPoint struct {
	Position
	DayOffset int `json:"dayOffset"`
}

// Window is an inclusive range of day offsets around perihelion
type Window struct {
	StartDays int `json:"start"`
	EndDays   int `json:"end"`
}

// EstimatePosition returns the approximate position of the object on asOf.
//
// Distance from the Sun grows linearly with the time since perihelion,
// r = q * (1 + e*|d|/365.25), while the in-plane angle sweeps from the
// reference X axis towards the asymptotic true anomaly acos(-1/e). The
// orbital plane is then tilted about X by the inclination. Neither angular
// momentum nor vis-viva energy is conserved.
func EstimatePosition(params *OrbitalParameters, asOf time.Time) (Position, error) {
	if err := Validate(params); err != nil {
		return Position{}, err
	}
	perihelion := params.PerihelionDate
	if asOf.Before(perihelion.AddDate(0, 0, -MaxOffsetDays)) || asOf.After(perihelion.AddDate(0, 0, MaxOffsetDays)) {
		return Position{}, fmt.Errorf("%w: %s is more than %d days from perihelion %s",
			ErrOutOfRange, asOf.UTC().Format(DateLayout), MaxOffsetDays, perihelion.Format(DateLayout))
	}
	offset := float64(asOf.Sub(perihelion)) / float64(day)
	return newCurve(params).at(offset, asOf), nil
}

// EstimateTrajectory returns the points from w.StartDays to w.EndDays, both
// inclusive, every stepDays days.
func EstimateTrajectory(params *OrbitalParameters, w Window, stepDays int) ([]TrajectoryPoint, error) {
	seq, err := Points(params, w, stepDays)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

// Points is EstimateTrajectory as a sequence. The sequence can be ranged
// over any number of times and yields the same points each time.
func Points(params *OrbitalParameters, w Window, stepDays int) (iter.Seq[TrajectoryPoint], error) {
	if err := Validate(params); err != nil {
		return nil, err
	}
	if _, err := CountPoints(w, stepDays); err != nil {
		return nil, err
	}

	c := newCurve(params)
	perihelion := params.PerihelionDate
	return func(yield func(TrajectoryPoint) bool) {
		for d := w.StartDays; ; d += stepDays {
			date := perihelion.AddDate(0, 0, d)
			if !yield(TrajectoryPoint{Position: c.at(float64(d), date), DayOffset: d}) {
				return
			}
			// d+stepDays may not fit in an int; EndDays-stepDays always does
			if d > w.EndDays-stepDays {
				return
			}
		}
	}, nil
}

// CountPoints returns how many points Points yields for w and stepDays,
// after checking that the window is well formed and within MaxOffsetDays.
func CountPoints(w Window, stepDays int) (int, error) {
	if stepDays <= 0 || w.EndDays < w.StartDays {
		return 0, fmt.Errorf("%w: start=%d end=%d step=%d", ErrInvalidWindow, w.StartDays, w.EndDays, stepDays)
	}
	if w.StartDays < -MaxOffsetDays || w.EndDays > MaxOffsetDays {
		return 0, fmt.Errorf("%w: start=%d end=%d: %w", ErrInvalidWindow, w.StartDays, w.EndDays, ErrOutOfRange)
	}
	return (w.EndDays-w.StartDays)/stepDays + 1, nil
}

// curve holds the per-call constants derived from one parameter set
type curve struct {
	q           float64
	e           float64
	thetaInf    float64
	inclination float64
}

func newCurve(p *OrbitalParameters) curve {
	return curve{
		q:           p.PerihelionDistanceAU,
		e:           p.Eccentricity,
		thetaInf:    math.Acos(-1 / p.Eccentricity),
		inclination: p.InclinationDegrees * math.Pi / 180,
	}
}

func (c curve) at(offsetDays float64, date time.Time) Position {
	s := c.e * offsetDays / daysPerYear
	r := c.q * (1 + math.Abs(s))
	theta := c.thetaInf * math.Tanh(s)

	inPlane := r3.Vec{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
	v := r3.Rotate(inPlane, c.inclination, r3.Vec{X: 1})

	return Position{
		X:    v.X,
		Y:    v.Y,
		Z:    v.Z,
		Date: date.UTC().Format(DateLayout),
	}
}
