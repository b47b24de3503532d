// Package positions assembles heliocentric positions for the dashboard map:
// Earth and Mars from the ephemeris source, the tracked object from the
// ephemeris source when it is listed there and from the estimator otherwise.
package positions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atlaswatch/api/pkg/cache"
	"github.com/atlaswatch/api/pkg/config"
	"github.com/atlaswatch/api/pkg/designation"
	"github.com/atlaswatch/api/pkg/horizons"
	"github.com/atlaswatch/api/pkg/logging"
	"github.com/atlaswatch/api/pkg/metrics"
	"github.com/atlaswatch/api/pkg/orbit"
	"github.com/atlaswatch/api/pkg/upstream"
)

const (
	EarthName = "Earth"
	MarsName  = "Mars"

	// EstimatorSource marks data that came from the estimator alone
	EstimatorSource = "estimator"
)

// Ephemeris returns the position of a Horizons command on start
type Ephemeris interface {
	Position(ctx context.Context, command string, start, stop time.Time) (orbit.Position, error)
}

// Snapshot is the set of positions for one day
type Snapshot struct {
	Source    string                    `json:"source"`
	Timestamp time.Time                 `json:"timestamp"`
	Date      string                    `json:"date"`
	Positions map[string]orbit.Position `json:"positions"`
	// Estimated lists objects whose position came from the estimator
	Estimated []string `json:"estimated,omitempty"`
	Cached    bool     `json:"cached"`
}

// Trajectory is the estimated polyline of the tracked object
type Trajectory struct {
	Object string                  `json:"object"`
	Source string                  `json:"source"`
	Window orbit.Window            `json:"window"`
	Step   int                     `json:"step"`
	Points []orbit.TrajectoryPoint `json:"points"`
	Cached bool                    `json:"cached"`
}

// Service builds snapshots and trajectories through the response cache
type Service struct {
	cache     *cache.ResponseCache
	ephemeris Ephemeris
	resolver  *designation.Resolver
	object    config.TrackedObject
	now       func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces the wall clock used to pick the snapshot date
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service for the tracked object
func NewService(c *cache.ResponseCache, ephemeris Ephemeris, resolver *designation.Resolver, object config.TrackedObject, opts ...Option) *Service {
	s := &Service{
		cache:     c,
		ephemeris: ephemeris,
		resolver:  resolver,
		object:    object,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Object returns the tracked object
func (s *Service) Object() config.TrackedObject {
	return s.object
}

// SnapshotKey is the cache key for the snapshot of date
func SnapshotKey(date string) string {
	return "positions:" + date
}

// Snapshot returns today's positions. A failure fetching Earth or Mars fails
// the call; the tracked object falls back to the estimator instead.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	date := start.Format(orbit.DateLayout)

	data, hit, err := s.cache.GetOrCompute(ctx, SnapshotKey(date), func(ctx context.Context) ([]byte, error) {
		snap, err := s.buildSnapshot(ctx, start)
		if err != nil {
			return nil, err
		}
		return json.Marshal(snap)
	})
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	snap.Cached = hit
	return &snap, nil
}

func (s *Service) buildSnapshot(ctx context.Context, start time.Time) (*Snapshot, error) {
	stop := start.AddDate(0, 0, 1)
	date := start.Format(orbit.DateLayout)

	var earth, mars, tracked orbit.Position
	var estimated bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pos, err := s.ephemeris.Position(gctx, horizons.Earth, start, stop)
		if err != nil {
			return planetError(EarthName, horizons.Earth, err)
		}
		earth = pos
		return nil
	})
	g.Go(func() error {
		pos, err := s.ephemeris.Position(gctx, horizons.Mars, start, stop)
		if err != nil {
			return planetError(MarsName, horizons.Mars, err)
		}
		mars = pos
		return nil
	})
	g.Go(func() error {
		pos, fromEstimator, err := s.trackedPosition(gctx, start, stop)
		if err != nil {
			return err
		}
		tracked, estimated = pos, fromEstimator
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Source:    horizons.SourceName,
		Timestamp: s.now().UTC(),
		Date:      date,
		Positions: map[string]orbit.Position{
			EarthName:     earth,
			MarsName:      mars,
			s.object.Name: tracked,
		},
	}
	if estimated {
		snap.Estimated = []string{s.object.Name}
	}
	return snap, nil
}

// planetError reports a planet the ephemeris source did not list as the
// source being unreachable: Earth and Mars are always listed, so a miss
// means the source is broken.
func planetError(name, command string, err error) error {
	if errors.Is(err, upstream.ErrMiss) {
		err = upstream.Unreachable(horizons.SourceName, command, err)
	}
	return fmt.Errorf("fetching %s: %w", name, err)
}

// trackedPosition resolves the tracked object through its Horizons
// candidates and estimates it when none are listed.
func (s *Service) trackedPosition(ctx context.Context, start, stop time.Time) (orbit.Position, bool, error) {
	date := start.Format(orbit.DateLayout)
	res, err := s.resolver.Resolve(ctx, designation.Lookup{
		Scope:      horizons.SourceName,
		Qualifier:  date,
		Candidates: s.object.HorizonsCandidates,
	}, func(ctx context.Context, candidate string) ([]byte, error) {
		pos, err := s.ephemeris.Position(ctx, candidate, start, stop)
		if err != nil {
			return nil, err
		}
		return json.Marshal(pos)
	})
	if err == nil {
		var pos orbit.Position
		if err := json.Unmarshal(res.Value, &pos); err == nil {
			return pos, false, nil
		}
	}

	// A cancelled request should fail rather than silently estimate
	if ctx.Err() != nil {
		return orbit.Position{}, false, ctx.Err()
	}

	logging.Logger.Info("Tracked object not listed by ephemeris source, estimating",
		zap.String("object", s.object.Name),
		zap.String("date", date),
		zap.NamedError("lookup_error", err))

	pos, err := orbit.EstimatePosition(&s.object.Orbit, start)
	if err != nil {
		return orbit.Position{}, false, err
	}
	metrics.IncFallbackEstimate()
	return pos, true, nil
}

// TrajectoryKey is the cache key for an estimated trajectory
func TrajectoryKey(object string, w orbit.Window, step int) string {
	return fmt.Sprintf("trajectory:%s:%d:%d:%d", object, w.StartDays, w.EndDays, step)
}

// Trajectory returns the estimated polyline of the tracked object for w
func (s *Service) Trajectory(ctx context.Context, w orbit.Window, step int) (*Trajectory, error) {
	data, hit, err := s.cache.GetOrCompute(ctx, TrajectoryKey(s.object.Name, w, step), func(context.Context) ([]byte, error) {
		points, err := orbit.EstimateTrajectory(&s.object.Orbit, w, step)
		if err != nil {
			return nil, err
		}
		return json.Marshal(&Trajectory{
			Object: s.object.Name,
			Source: EstimatorSource,
			Window: w,
			Step:   step,
			Points: points,
		})
	})
	if err != nil {
		return nil, err
	}

	var t Trajectory
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding cached trajectory: %w", err)
	}
	t.Cached = hit
	return &t, nil
}

// Estimate returns the estimated position of the tracked object on asOf.
// It is cheap and deterministic, so it bypasses the cache.
func (s *Service) Estimate(asOf time.Time) (orbit.Position, error) {
	return orbit.EstimatePosition(&s.object.Orbit, asOf)
}
