package stage

import (
	"context"

	"chunkenc/internal/job"
	"chunkenc/internal/jobstate"
)

// Handler is one ordered phase of the pipeline.
type Handler interface {
	// Stage is the persisted state reached when Execute succeeds.
	Stage() jobstate.Stage
	// Execute performs the stage. It must be safe to repeat after a crash.
	Execute(context.Context, *job.Job) error
	// Verify checks the stage's postcondition when its completion is
	// already recorded and Execute is skipped.
	Verify(context.Context, *job.Job) error
	HealthCheck(context.Context) Health
}

// Health summarizes the readiness of a stage.
type Health struct {
	Stage  jobstate.Stage
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(s jobstate.Stage) Health {
	return Health{Stage: s, Ready: true}
}

// Unhealthy constructs a Health record explaining why s cannot run.
func Unhealthy(s jobstate.Stage, detail string) Health {
	return Health{Stage: s, Detail: detail}
}

// Name returns the stage name used in logs and errors.
func Name(h Handler) string {
	if h == nil {
		return ""
	}
	return h.Stage().String()
}
