package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/atlaswatch/api/pkg/orbit"
)

// TrackedObject is one object the dashboard can follow
type TrackedObject struct {
	Name string
	// HorizonsCandidates are tried in order as the Horizons COMMAND
	HorizonsCandidates []string
	// MPCDesignations are tried in order against the observation registry
	MPCDesignations []string
	Orbit           orbit.OrbitalParameters
}

// Catalog is the set of known objects and the one being tracked
type Catalog struct {
	Objects []TrackedObject
	tracked int
}

type catalogFile struct {
	Tracked string        `yaml:"tracked"`
	Objects []objectEntry `yaml:"objects"`
}

type objectEntry struct {
	Name     string     `yaml:"name"`
	Horizons []string   `yaml:"horizons"`
	MPC      []string   `yaml:"mpc"`
	Orbit    orbitEntry `yaml:"orbit"`
}

// orbitEntry uses pointers so an omitted key is told apart from a zero value
type orbitEntry struct {
	Eccentricity         *float64 `yaml:"eccentricity"`
	InclinationDegrees   *float64 `yaml:"inclination_degrees"`
	PerihelionDate       *string  `yaml:"perihelion_date"`
	PerihelionDistanceAU *float64 `yaml:"perihelion_distance_au"`
}

// DefaultCatalog holds 3I/ATLAS with its published orbital elements
func DefaultCatalog() *Catalog {
	return &Catalog{
		Objects: []TrackedObject{{
			Name:               "3I/ATLAS",
			HorizonsCandidates: []string{"DES=3I;", "3I", "3I/ATLAS", "C/2025 N1", "C/2025N1"},
			MPCDesignations:    []string{"3I", "3I/ATLAS", "C/2025 N1", "C/2025N1"},
			Orbit: orbit.OrbitalParameters{
				Eccentricity:         6.14,
				InclinationDegrees:   175.1,
				PerihelionDate:       mustDate("2025-10-29"),
				PerihelionDistanceAU: 1.36,
			},
		}},
	}
}

// LoadCatalog reads a YAML catalog. An empty path returns DefaultCatalog.
// tracked selects the object to follow by name; empty selects the file's
// own tracked entry, or the first object.
func LoadCatalog(path, tracked string) (*Catalog, error) {
	if path == "" {
		cat := DefaultCatalog()
		if tracked != "" {
			if err := cat.Track(tracked); err != nil {
				return nil, err
			}
		}
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if len(file.Objects) == 0 {
		return nil, fmt.Errorf("catalog %s lists no objects", path)
	}

	cat := &Catalog{}
	for _, e := range file.Objects {
		obj, err := e.toObject()
		if err != nil {
			return nil, fmt.Errorf("catalog object %q: %w", e.Name, err)
		}
		cat.Objects = append(cat.Objects, obj)
	}

	if tracked == "" {
		tracked = file.Tracked
	}
	if tracked != "" {
		if err := cat.Track(tracked); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// Tracked returns the object being followed
func (c *Catalog) Tracked() TrackedObject {
	return c.Objects[c.tracked]
}

// Find returns the object with the given name
func (c *Catalog) Find(name string) (TrackedObject, bool) {
	for _, o := range c.Objects {
		if o.Name == name {
			return o, true
		}
	}
	return TrackedObject{}, false
}

// Track selects the object to follow
func (c *Catalog) Track(name string) error {
	for i, o := range c.Objects {
		if o.Name == name {
			c.tracked = i
			return nil
		}
	}
	return fmt.Errorf("object %q not in catalog", name)
}

func (e objectEntry) toObject() (TrackedObject, error) {
	if e.Name == "" {
		return TrackedObject{}, fmt.Errorf("name is required")
	}

	params, err := e.Orbit.toParameters()
	if err != nil {
		return TrackedObject{}, err
	}
	if err := orbit.Validate(&params); err != nil {
		return TrackedObject{}, err
	}

	horizons := e.Horizons
	if len(horizons) == 0 {
		horizons = []string{e.Name}
	}
	mpc := e.MPC
	if len(mpc) == 0 {
		mpc = []string{e.Name}
	}

	return TrackedObject{
		Name:               e.Name,
		HorizonsCandidates: horizons,
		MPCDesignations:    mpc,
		Orbit:              params,
	}, nil
}

// toParameters refuses an entry with any of the four elements left out
func (o orbitEntry) toParameters() (orbit.OrbitalParameters, error) {
	var missing []string
	if o.Eccentricity == nil {
		missing = append(missing, "eccentricity")
	}
	if o.InclinationDegrees == nil {
		missing = append(missing, "inclination_degrees")
	}
	if o.PerihelionDate == nil {
		missing = append(missing, "perihelion_date")
	}
	if o.PerihelionDistanceAU == nil {
		missing = append(missing, "perihelion_distance_au")
	}
	if len(missing) > 0 {
		return orbit.OrbitalParameters{}, fmt.Errorf("%w: orbit is missing %s", orbit.ErrMissingParameters, strings.Join(missing, ", "))
	}

	date, err := orbit.ParseDate(*o.PerihelionDate)
	if err != nil {
		return orbit.OrbitalParameters{}, fmt.Errorf("%w: perihelion_date: %v", orbit.ErrMissingParameters, err)
	}
	return orbit.OrbitalParameters{
		Eccentricity:         *o.Eccentricity,
		InclinationDegrees:   *o.InclinationDegrees,
		PerihelionDate:       date,
		PerihelionDistanceAU: *o.PerihelionDistanceAU,
	}, nil
}

func mustDate(s string) time.Time {
	t, err := orbit.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}
