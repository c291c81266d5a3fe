// Package sensor defines the position samples produced by the motion tracker
// and the error taxonomy shared by the calibration and tracking stages.
package sensor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidSample is returned for lines that do not describe a position
// sample. Callers at the sensor boundary drop such lines.
var ErrInvalidSample = errors.New("invalid sensor sample")

// Role is the logical marker a physical sensor has been assigned to.
type Role int

const (
	// Pivot is the marker fixed at the joint's rotation centre.
	Pivot Role = 0
	// Tip is the marker on the rotating arm's free end.
	Tip Role = 1
)

// NumRoles is the number of logical markers in a joint.
const NumRoles = 2

func (r Role) String() string {
	switch r {
	case Pivot:
		return "pivot"
	case Tip:
		return "tip"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Sample is a single position report from one physical sensor. Planar
// trackers leave Position.Z at zero.
type Sample struct {
	SensorID int
	Position r3.Vec
	Time     time.Time
}

// ParseLine parses one line of tracker output of the form
//
//	<sensor> <x> <y> [<z>]
//
// with fields separated by whitespace or commas. The sample is stamped with
// the receipt time at, since the tracker's own clock is not synchronised with
// ours.
func ParseLine(line string, at time.Time) (Sample, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	if len(fields) != 3 && len(fields) != 4 {
		return Sample{}, fmt.Errorf("%w: expected 3 or 4 fields, got %d in %q", ErrInvalidSample, len(fields), line)
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return Sample{}, fmt.Errorf("%w: failed to parse sensor id: %v", ErrInvalidSample, err)
	}
	if id < 0 {
		return Sample{}, fmt.Errorf("%w: negative sensor id %d", ErrInvalidSample, id)
	}

	var coords [3]float64
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Sample{}, fmt.Errorf("%w: failed to parse coordinate %d: %v", ErrInvalidSample, i, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Sample{}, fmt.Errorf("%w: non-finite coordinate %d", ErrInvalidSample, i)
		}
		coords[i] = v
	}

	return Sample{
		SensorID: id,
		Position: r3.Vec{X: coords[0], Y: coords[1], Z: coords[2]},
		Time:     at,
	}, nil
}
