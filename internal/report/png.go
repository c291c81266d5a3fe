package report

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when a series has nothing to plot.
var ErrNoData = errors.New("no data to plot")

// WritePNGs saves joint_angle.png and trajectory.png for s into dir and
// returns the paths written. The trajectory plot is skipped when the ball
// was never released.
func WritePNGs(s Series, dir string) ([]string, error) {
	if len(s.Joint) == 0 {
		return nil, ErrNoData
	}
	var paths []string

	pAngle := plot.New()
	pAngle.Title.Text = fmt.Sprintf("Trial %s - Joint Angle (%s)", s.TrialID, s.outcome())
	pAngle.X.Label.Text = "Time (s)"
	pAngle.Y.Label.Text = "Angle (rad)"

	pts := make(plotter.XYs, 0, len(s.Joint))
	for _, e := range s.Joint {
		pts = append(pts, plotter.XY{X: s.seconds(e), Y: e.Angle})
	}
	angleLine, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create angle line: %w", err)
	}
	angleLine.Width = vg.Points(1)
	angleLine.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	pAngle.Add(angleLine, plotter.NewGrid())

	anglePath := filepath.Join(dir, "joint_angle.png")
	if err := pAngle.Save(10*vg.Inch, 4*vg.Inch, anglePath); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", anglePath, err)
	}
	paths = append(paths, anglePath)

	if len(s.Trajectory) == 0 {
		return paths, nil
	}

	pBall := plot.New()
	pBall.Title.Text = fmt.Sprintf("Trial %s - Ball Trajectory", s.TrialID)
	pBall.X.Label.Text = "X (px)"
	pBall.Y.Label.Text = "Y (px)"

	ballPts := make(plotter.XYs, 0, len(s.Trajectory))
	for _, p := range s.Trajectory {
		ballPts = append(ballPts, plotter.XY{X: p.Position.X, Y: p.Position.Y})
	}
	ballLine, ballScatter, err := plotter.NewLinePoints(ballPts)
	if err != nil {
		return nil, fmt.Errorf("failed to create trajectory line: %w", err)
	}
	ballLine.Width = vg.Points(1)
	ballScatter.GlyphStyle.Radius = vg.Points(1.5)
	pBall.Add(ballLine, ballScatter, plotter.NewGrid())

	ballPath := filepath.Join(dir, "trajectory.png")
	if err := pBall.Save(6*vg.Inch, 6*vg.Inch, ballPath); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", ballPath, err)
	}
	return append(paths, ballPath), nil
}
