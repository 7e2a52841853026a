package metrics

// Common metric attribute keys to keep telemetry consistent/searchable.
const (
	AttrMethod  = "method"
	AttrPath    = "path"
	AttrStatus  = "status"
	AttrOp      = "op"
	AttrOutcome = "outcome"
	AttrEvent   = "event"
)

// OutcomeOK labels operations that returned no error; failures use the error code.
const OutcomeOK = "ok"
