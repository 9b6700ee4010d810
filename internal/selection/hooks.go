package selection

import (
	"context"

	"modelhub/internal/core"
)

// BeforeFunc may rewrite the criteria before filtering runs, e.g. to force
// weights based on caller identity. Returning nil leaves the criteria
// unchanged. Errors propagate as selection failures.
type BeforeFunc func(ctx context.Context, c core.Criteria) (*core.Criteria, error)

// AfterFunc may substitute the chosen entry for a different one already
// present in the snapshot, typically to pin a cohort to a specific model
// variant. Returning nil leaves the choice unchanged. Errors propagate as
// selection failures.
type AfterFunc func(ctx context.Context, e core.Entry) (*core.Entry, error)

// BeforeHook is a named before-selection interception point.
type BeforeHook struct {
	Name string
	Fn   BeforeFunc
}

// AfterHook is a named after-selection interception point.
type AfterHook struct {
	Name string
	Fn   AfterFunc
}
