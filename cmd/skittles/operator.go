package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/banshee-data/skittles/internal/release"
	"github.com/banshee-data/skittles/internal/report"
	"github.com/banshee-data/skittles/internal/trial"
)

// scriptedButtons repeats press, hold, release, gap until ctx is done. A
// press outside the tolerance is rejected by the controller and a release
// while idle is ignored, so the loop simply retries.
func scriptedButtons(ctx context.Context, out chan<- release.ButtonEvent, hold, gap time.Duration) {
	send := func(kind release.ButtonKind, wait time.Duration) bool {
		select {
		case out <- release.ButtonEvent{Kind: kind}:
		case <-ctx.Done():
			return false
		}
		select {
		case <-time.After(wait):
			return true
		case <-ctx.Done():
			return false
		}
	}
	for send(release.ButtonPress, hold) && send(release.ButtonRelease, gap) {
	}
}

// drawStatus writes a single line at the top of the screen.
func drawStatus(screen tcell.Screen, text string) {
	screen.Clear()
	style := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	for i, r := range []rune(text) {
		screen.SetContent(i, 0, r, nil, style)
	}
	screen.Show()
}

// redirectLog sends log output to path while the terminal belongs to the
// screen. The returned func restores stderr.
func redirectLog(path string) func() {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("failed to open log file %s: %v", path, err)
		return func() {}
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}
}

func describeResult(r trial.Report) string {
	res := r.Result
	switch {
	case res.Success == nil:
		return "no release"
	case *res.Success:
		return fmt.Sprintf("🎯 target hit, release angle %.4f rad at %.4f rad/s", res.ReleaseAngle, res.ReleaseAngularVelocity)
	default:
		return fmt.Sprintf("post hit, release angle %.4f rad at %.4f rad/s", res.ReleaseAngle, res.ReleaseAngularVelocity)
	}
}

// exportPlots writes the PNG plots and an HTML page for r into
// dir/<trial id>/.
func exportPlots(dir string, r trial.Report) ([]string, error) {
	out := filepath.Join(dir, r.ID)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", out, err)
	}
	s := report.FromReport(r)
	paths, err := report.WritePNGs(s, out)
	if err != nil {
		return paths, err
	}

	htmlPath := filepath.Join(out, "trial.html")
	f, err := os.Create(htmlPath)
	if err != nil {
		return paths, fmt.Errorf("failed to create %s: %w", htmlPath, err)
	}
	defer f.Close()
	if err := report.RenderHTML(f, s); err != nil {
		return paths, fmt.Errorf("failed to render %s: %w", htmlPath, err)
	}
	return append(paths, htmlPath), nil
}
