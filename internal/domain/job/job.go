// Package job defines the unit of work flowing through the analysis queue.
package job

import (
	"time"

	"github.com/grimpeur/ascent/internal/domain/detect"
)

// AnalysisJob is one unit of work flowing from the upload endpoint through
// the queue to the worker pool: the raw GPX bytes plus the detection
// settings chosen for this upload.
type AnalysisJob struct {
	RouteID     string
	Name        string
	GPX         []byte
	Fingerprint string
	Detection   detect.Config
	SubmittedAt time.Time
}
