package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	// This Run is reading its dataset from the upstream store.
	Ingesting RunStatus = "ingesting"

	// This Run is checking the dataset against the schema.
	Validating RunStatus = "validating"

	// This Run is fitting the transformer and deriving feature matrices.
	Transforming RunStatus = "transforming"

	// This Run is fitting and evaluating the classifier.
	Training RunStatus = "training"

	// This Run is writing its artifacts.
	Persisting RunStatus = "persisting"

	// This Run has been done, successfully. Its artifacts are frozen.
	Done RunStatus = "done"

	// This Run stopped with error. Its partial artifacts are retained, never reused.
	Failed RunStatus = "failed"
)

func (rs RunStatus) String() string {
	return string(rs)
}

func AsRunStatus(status string) (RunStatus, error) {
	switch status {
	case string(Ingesting):
		return Ingesting, nil
	case string(Validating):
		return Validating, nil
	case string(Transforming):
		return Transforming, nil
	case string(Training):
		return Training, nil
	case string(Persisting):
		return Persisting, nil
	case string(Done):
		return Done, nil
	case string(Failed):
		return Failed, nil
	default:
		return "", fmt.Errorf("'%s' is not RunStatus", status)
	}
}

// Finished reports whether the status is terminal.
func (rs RunStatus) Finished() bool {
	switch rs {
	case Done, Failed:
		return true
	default:
		return false
	}
}

// CanTransitTo reports whether moving to next is a legal step.
//
// Stages go strictly downstream; Failed is reachable from any non-terminal
// status, and terminal statuses go nowhere.
func (rs RunStatus) CanTransitTo(next RunStatus) bool {
	if rs.Finished() {
		return false
	}
	if next == Failed {
		return true
	}

	order := []RunStatus{Ingesting, Validating, Transforming, Training, Persisting, Done}
	for nth, s := range order[:len(order)-1] {
		if s == rs {
			return order[nth+1] == next
		}
	}
	return false
}

// RunExit records why a Run reached its terminal status.
type RunExit struct {
	// Stage names where the run ended ("train", "validate", ...).
	Stage string `json:"stage"`

	Message string `json:"message"`
}

// Run is one timestamped execution of the training pipeline.
//
// A Run owns all artifacts it produces; artifacts from different Runs
// never intermix.
type Run struct {
	Id        string         `json:"runId"`
	Status    RunStatus      `json:"status"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Exit      *RunExit       `json:"exit,omitempty"`
	Metrics   *MetricsReport `json:"metrics,omitempty"`
}

// NewRunId mints a run identity from a timestamp.
//
// The prefix is a millisecond UTC timestamp, so lexicographic order of
// run ids is chronological. The suffix keeps concurrently started runs
// distinct.
func NewRunId(t time.Time) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return t.UTC().Format("20060102T150405.000Z") + "-" + suffix
}
