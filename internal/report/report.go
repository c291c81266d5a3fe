// Package report renders post-trial plots of the joint angle history and
// the ball trajectory: static PNGs with gonum/plot and an interactive HTML
// page with go-echarts.
package report

import (
	"time"

	"github.com/banshee-data/skittles/internal/joint"
	"github.com/banshee-data/skittles/internal/skittles"
	"github.com/banshee-data/skittles/internal/trial"
)

// Series is the plottable part of a trial.
type Series struct {
	TrialID    string
	Start      time.Time
	Joint      []joint.Entry
	Trajectory []skittles.TrajectoryPoint
	Success    *bool
}

// FromReport extracts the series of a finished session.
func FromReport(r trial.Report) Series {
	return Series{
		TrialID:    r.ID,
		Start:      r.StartedAt,
		Joint:      r.Joint,
		Trajectory: r.Trajectory,
		Success:    r.Result.Success,
	}
}

// outcome labels the trial result for titles.
func (s Series) outcome() string {
	switch {
	case s.Success == nil:
		return "no outcome"
	case *s.Success:
		return "hit"
	default:
		return "miss"
	}
}

// seconds returns the joint sample time relative to the first sample.
func (s Series) seconds(e joint.Entry) float64 {
	start := s.Start
	if len(s.Joint) > 0 {
		start = s.Joint[0].Time
	}
	return e.Time.Sub(start).Seconds()
}
