// Package input turns terminal mouse events into the left-button edges the
// release controller consumes.
package input

import (
	"context"
	"errors"

	"github.com/gdamore/tcell/v2"

	"github.com/banshee-data/skittles/internal/release"
)

// ErrQuit is returned by Run when the operator presses Esc or Ctrl-C.
var ErrQuit = errors.New("operator quit")

// Translator tracks the left button state across mouse events. tcell
// reports button masks rather than edges, so a press is a transition from
// up to down and a release the reverse. Other buttons are ignored.
type Translator struct {
	down bool
}

// Translate returns the button edge carried by ev, if any.
func (t *Translator) Translate(ev tcell.Event) (release.ButtonEvent, bool, error) {
	switch ev := ev.(type) {
	case *tcell.EventMouse:
		left := ev.Buttons()&tcell.Button1 != 0
		if left == t.down {
			return release.ButtonEvent{}, false, nil
		}
		t.down = left
		if left {
			return release.ButtonEvent{Kind: release.ButtonPress}, true, nil
		}
		return release.ButtonEvent{Kind: release.ButtonRelease}, true, nil

	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return release.ButtonEvent{}, false, ErrQuit
		}
	}
	return release.ButtonEvent{}, false, nil
}

// Run polls screen for events and sends left-button edges to out until ctx
// is cancelled, the screen is finalised, or the operator quits.
func Run(ctx context.Context, screen tcell.Screen, out chan<- release.ButtonEvent) error {
	screen.EnableMouse()
	defer screen.DisableMouse()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			// wake PollEvent
			screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-stop:
		}
	}()

	var tr Translator
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		b, ok, err := tr.Translate(ev)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		select {
		case out <- b:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
