package horizons

import (
	"strconv"
	"strings"

	"github.com/atlaswatch/api/pkg/orbit"
)

const (
	startMarker = "$$SOE"
	endMarker   = "$$EOE"
	// JDTDB, calendar date, X, Y, Z at minimum
	minFields = 5
)

// Result is either Found or Miss
type Result interface {
	isResult()
}

// Found carries a parsed position
type Found struct {
	Position orbit.Position
}

// Miss explains why no position could be read
type Miss struct {
	Reason string
}

func (Found) isResult() {}
func (Miss) isResult()  {}

// ParseVectors reads the first vector row of a Horizons text response.
// date is stamped onto the position as Horizons' calendar column is verbose.
func ParseVectors(text, date string) Result {
	start := strings.Index(text, startMarker)
	end := strings.Index(text, endMarker)
	if start == -1 || end == -1 || end < start {
		return Miss{Reason: "no ephemeris markers in response"}
	}

	block := strings.TrimSpace(text[start+len(startMarker) : end])
	if block == "" {
		return Miss{Reason: "empty ephemeris block"}
	}

	row := strings.TrimSpace(strings.SplitN(block, "\n", 2)[0])
	parts := strings.Split(row, ",")
	if len(parts) < minFields {
		return Miss{Reason: "vector row has fewer than 5 fields"}
	}

	var xyz [3]float64
	for i := range xyz {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[2+i]), 64)
		if err != nil {
			return Miss{Reason: "unparsable coordinate " + strconv.Quote(strings.TrimSpace(parts[2+i]))}
		}
		xyz[i] = v
	}

	return Found{Position: orbit.Position{X: xyz[0], Y: xyz[1], Z: xyz[2], Date: date}}
}
