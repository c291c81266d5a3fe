package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/skittles/internal/joint"
	"github.com/banshee-data/skittles/internal/sensor"
	"github.com/banshee-data/skittles/internal/skittles"
	"github.com/banshee-data/skittles/internal/trial"
)

// ErrTrialNotFound is returned when no trial has the requested id.
var ErrTrialNotFound = errors.New("trial not found")

// TrialSummary is one row of the trials table.
type TrialSummary struct {
	ID                     string     `json:"id"`
	StartedAt              time.Time  `json:"started_at"`
	ReleasedAt             *time.Time `json:"released_at,omitempty"`
	ReleaseAngle           float64    `json:"release_angle"`
	ReleaseAngularVelocity float64    `json:"release_angular_velocity"`
	Success                *bool      `json:"success"`
	PivotSensor            *int       `json:"pivot_sensor,omitempty"`
	TipSensor              *int       `json:"tip_sensor,omitempty"`
	Amplitude              *r2.Vec    `json:"amplitude,omitempty"`
	Phase                  *r2.Vec    `json:"phase,omitempty"`
	DroppedLines           int        `json:"dropped_lines"`
}

// RecordTrial stores a trial report with its joint, paddle and ball
// histories in a single transaction.
func (db *DB) RecordTrial(r trial.Report) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var (
		releasedAt                      sql.NullInt64
		releaseAngle, releaseVelocity   sql.NullFloat64
		energyX, energyY                sql.NullFloat64
		amplitudeX, amplitudeY          sql.NullFloat64
		phaseX, phaseY                  sql.NullFloat64
		success, pivotSensor, tipSensor sql.NullInt64
	)
	if rec := r.Release; rec != nil {
		releasedAt = sql.NullInt64{Int64: rec.Time.UnixNano(), Valid: true}
		releaseAngle = sql.NullFloat64{Float64: r.Result.ReleaseAngle, Valid: true}
		releaseVelocity = sql.NullFloat64{Float64: r.Result.ReleaseAngularVelocity, Valid: true}
		energyX = sql.NullFloat64{Float64: rec.Energy.X, Valid: true}
		energyY = sql.NullFloat64{Float64: rec.Energy.Y, Valid: true}
		amplitudeX = sql.NullFloat64{Float64: rec.Amplitude.X, Valid: true}
		amplitudeY = sql.NullFloat64{Float64: rec.Amplitude.Y, Valid: true}
		phaseX = sql.NullFloat64{Float64: rec.Phase.X, Valid: true}
		phaseY = sql.NullFloat64{Float64: rec.Phase.Y, Valid: true}
	}
	if r.Result.Success != nil {
		v := int64(0)
		if *r.Result.Success {
			v = 1
		}
		success = sql.NullInt64{Int64: v, Valid: true}
	}
	for physical, role := range r.MarkerMap {
		switch role {
		case sensor.Pivot:
			pivotSensor = sql.NullInt64{Int64: int64(physical), Valid: true}
		case sensor.Tip:
			tipSensor = sql.NullInt64{Int64: int64(physical), Valid: true}
		}
	}

	_, err = tx.Exec(`INSERT INTO trials (
			trial_id, started_at_ns, released_at_ns, release_angle, release_angular_velocity,
			success, pivot_sensor, tip_sensor, dropped_lines,
			energy_x, energy_y, amplitude_x, amplitude_y, phase_x, phase_y
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UnixNano(), releasedAt, releaseAngle, releaseVelocity,
		success, pivotSensor, tipSensor, r.Dropped,
		energyX, energyY, amplitudeX, amplitudeY, phaseX, phaseY,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trial: %w", err)
	}

	jointStmt, err := tx.Prepare(`INSERT INTO joint_samples (trial_id, seq, t_ns, angle, radius) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer jointStmt.Close()
	for i, e := range r.Joint {
		if _, err := jointStmt.Exec(r.ID, i, e.Time.UnixNano(), e.Angle, e.Radius); err != nil {
			return fmt.Errorf("failed to insert joint sample %d: %w", i, err)
		}
	}

	paddleStmt, err := tx.Prepare(`INSERT INTO paddle_samples (trial_id, seq, t_ns, angle) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer paddleStmt.Close()
	for i := range r.PaddleAngles {
		if _, err := paddleStmt.Exec(r.ID, i, r.PaddleTimes[i].UnixNano(), r.PaddleAngles[i]); err != nil {
			return fmt.Errorf("failed to insert paddle sample %d: %w", i, err)
		}
	}

	ballStmt, err := tx.Prepare(`INSERT INTO ball_positions (trial_id, seq, elapsed_ns, x, y) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ballStmt.Close()
	for i, p := range r.Trajectory {
		if _, err := ballStmt.Exec(r.ID, i, int64(p.Elapsed), p.Position.X, p.Position.Y); err != nil {
			return fmt.Errorf("failed to insert ball position %d: %w", i, err)
		}
	}

	return tx.Commit()
}

const trialColumns = `trial_id, started_at_ns, released_at_ns, release_angle, release_angular_velocity,
	success, pivot_sensor, tip_sensor, amplitude_x, amplitude_y, phase_x, phase_y, dropped_lines`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrial(row scanner) (TrialSummary, error) {
	var (
		t                      TrialSummary
		startedAt              int64
		releasedAt             sql.NullInt64
		angle, velocity        sql.NullFloat64
		success, pivot, tip    sql.NullInt64
		amplitudeX, amplitudeY sql.NullFloat64
		phaseX, phaseY         sql.NullFloat64
	)
	if err := row.Scan(&t.ID, &startedAt, &releasedAt, &angle, &velocity,
		&success, &pivot, &tip, &amplitudeX, &amplitudeY, &phaseX, &phaseY, &t.DroppedLines); err != nil {
		return t, err
	}

	t.StartedAt = time.Unix(0, startedAt).UTC()
	if releasedAt.Valid {
		ts := time.Unix(0, releasedAt.Int64).UTC()
		t.ReleasedAt = &ts
	}
	t.ReleaseAngle = angle.Float64
	t.ReleaseAngularVelocity = velocity.Float64
	if success.Valid {
		ok := success.Int64 == 1
		t.Success = &ok
	}
	if pivot.Valid {
		id := int(pivot.Int64)
		t.PivotSensor = &id
	}
	if tip.Valid {
		id := int(tip.Int64)
		t.TipSensor = &id
	}
	if amplitudeX.Valid && amplitudeY.Valid {
		t.Amplitude = &r2.Vec{X: amplitudeX.Float64, Y: amplitudeY.Float64}
	}
	if phaseX.Valid && phaseY.Valid {
		t.Phase = &r2.Vec{X: phaseX.Float64, Y: phaseY.Float64}
	}
	return t, nil
}

// Trials returns the most recent trials, newest first.
func (db *DB) Trials(limit int) ([]TrialSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`SELECT `+trialColumns+` FROM trials ORDER BY started_at_ns DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trials []TrialSummary
	for rows.Next() {
		t, err := scanTrial(rows)
		if err != nil {
			return nil, err
		}
		trials = append(trials, t)
	}
	return trials, rows.Err()
}

// Trial returns a single trial by id.
func (db *DB) Trial(id string) (TrialSummary, error) {
	t, err := scanTrial(db.QueryRow(`SELECT `+trialColumns+` FROM trials WHERE trial_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("%w: %s", ErrTrialNotFound, id)
	}
	return t, err
}

// JointHistory returns the stored joint angle history of a trial in order.
func (db *DB) JointHistory(id string) ([]joint.Entry, error) {
	rows, err := db.Query(`SELECT t_ns, angle, radius FROM joint_samples WHERE trial_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []joint.Entry
	for rows.Next() {
		var (
			ns int64
			e  joint.Entry
		)
		if err := rows.Scan(&ns, &e.Angle, &e.Radius); err != nil {
			return nil, err
		}
		e.Time = time.Unix(0, ns).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Trajectory returns the stored post-release ball trajectory of a trial.
func (db *DB) Trajectory(id string) ([]skittles.TrajectoryPoint, error) {
	rows, err := db.Query(`SELECT elapsed_ns, x, y FROM ball_positions WHERE trial_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []skittles.TrajectoryPoint
	for rows.Next() {
		var (
			ns int64
			p  skittles.TrajectoryPoint
		)
		if err := rows.Scan(&ns, &p.Position.X, &p.Position.Y); err != nil {
			return nil, err
		}
		p.Elapsed = time.Duration(ns)
		points = append(points, p)
	}
	return points, rows.Err()
}
