package trial

import (
	"time"

	"github.com/banshee-data/skittles/internal/joint"
	"github.com/banshee-data/skittles/internal/sensor"
	"github.com/banshee-data/skittles/internal/skittles"
)

// Report is a snapshot of a trial for storage and plotting.
type Report struct {
	ID        string
	StartedAt time.Time
	MarkerMap map[int]sensor.Role
	Result    skittles.Result
	Release   *skittles.ReleaseRecord

	Joint        []joint.Entry
	PaddleAngles []float64
	PaddleTimes  []time.Time
	Trajectory   []skittles.TrajectoryPoint

	// Dropped counts tracker lines that could not be parsed.
	Dropped int
}

// Report returns a snapshot of the session.
func (s *Session) Report() Report {
	r := Report{
		ID:         s.id,
		StartedAt:  s.startedAt,
		Result:     s.sim.Result(),
		Release:    s.sim.ReleaseRecord(),
		Joint:      s.tracker.History(),
		Trajectory: s.sim.Trajectory(),
		Dropped:    s.dropped,
	}
	if m, ok := s.router.MarkerMap(); ok {
		r.MarkerMap = m.Entries()
	}
	r.PaddleAngles, r.PaddleTimes = s.sim.PaddleHistory()
	return r
}
