package skittles

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/skittles/internal/config"
)

// Config holds the immutable parameters of one trial. Angles are radians,
// times seconds and lengths screen pixels.
type Config struct {
	ScreenSize     r2.Vec
	PaddleLength   float64
	InitialAngle   float64
	BallRadius     float64
	PostSize       float64
	TargetPosition r2.Vec // offset from the screen centre
	TargetSize     float64

	BallMass       float64
	SpringConstant float64
	Frequency      float64
	RelaxationTime float64

	// LookbackSamples is the number of paddle history entries the release
	// velocity is differenced over.
	LookbackSamples int
}

// ConfigFromExperiment derives the simulator config from a validated
// experiment config.
func ConfigFromExperiment(cfg *config.ExperimentConfig) Config {
	screen := cfg.GetScreenSize()
	target := cfg.GetTargetPosition()
	return Config{
		ScreenSize:      r2.Vec{X: screen[0], Y: screen[1]},
		PaddleLength:    cfg.GetPaddleLength(),
		InitialAngle:    cfg.GetInitialPaddleAngle(),
		BallRadius:      cfg.GetBallRadius(),
		PostSize:        cfg.GetPostSize(),
		TargetPosition:  r2.Vec{X: target[0], Y: target[1]},
		TargetSize:      cfg.GetTargetSize(),
		BallMass:        cfg.GetBallMass(),
		SpringConstant:  cfg.GetSpringConstant(),
		Frequency:       cfg.GetFrequency(),
		RelaxationTime:  cfg.GetRelaxationTime(),
		LookbackSamples: cfg.GetLookbackSamples(),
	}
}

// Center returns the screen centre, which is also the oscillator rest
// position and the centre post.
func (c Config) Center() r2.Vec {
	return r2.Scale(0.5, c.ScreenSize)
}

// Pivot returns the point the paddle rotates about: the bottom centre of
// the screen.
func (c Config) Pivot() r2.Vec {
	return r2.Vec{X: c.ScreenSize.X / 2}
}

// Target returns the absolute target centre.
func (c Config) Target() r2.Vec {
	return r2.Add(c.Center(), c.TargetPosition)
}
