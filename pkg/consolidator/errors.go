package consolidator

import "errors"

// ErrUnknownJobType is returned when RunOnce is asked for a job_type
// outside the ent schema's {identity, handoffs, decisions, all} enum.
var ErrUnknownJobType = errors.New("consolidator: unknown job_type")
