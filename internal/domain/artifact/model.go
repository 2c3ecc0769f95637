package artifact

import "time"

type Kind string

const (
	KindPrediction Kind = "prediction"
	KindAnalysis   Kind = "analysis"
)

// Artifact is a derived output produced by a downstream AI workflow for one
// fixture. The scheduler never creates artifacts; it only inspects their
// existence and creation time to decide whether a phase is done, due for a
// retry, or stale enough to regenerate.
type Artifact struct {
	ID        string
	FixtureID string
	Kind      Kind
	Model     string
	CreatedAt time.Time
}
