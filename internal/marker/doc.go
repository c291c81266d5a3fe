// Package marker maps raw tracker sensor ids onto the joint's logical
// markers.
//
// Samples pass through a two-state Router. While Calibrating, the Calibrator
// records the latest sample per physical sensor until both sensors have been
// seen; the lower physical id becomes the pivot and the higher the tip. The
// resulting MarkerMap is immutable, and in the Tracking state every sample is
// looked up in it and forwarded to a Sink with its logical role.
package marker
