package gpx

import "errors"

// Sentinel kinds for GPX parsing errors.
var (
	// ErrUnparseable marks bytes that are not a GPX document.
	ErrUnparseable = errors.New("unparseable gpx")

	// ErrNoTrack marks a GPX document without any track points.
	ErrNoTrack = errors.New("gpx has no track points")

	// ErrTooFewPoints marks a track too short to build a profile from.
	ErrTooFewPoints = errors.New("gpx has too few track points")
)
