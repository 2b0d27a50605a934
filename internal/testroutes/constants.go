package testroutes

import "time"

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusAccepted = 202
	StatusNotFound = 404
	StatusConflict = 409
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	AnalysisPollInterval = 200 * time.Millisecond
	AnalysisPollTimeout  = 30 * time.Second
	PercentageMultiplier = 100
)
