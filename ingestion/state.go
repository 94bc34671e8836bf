package ingestion

// State is the phase of an ingestion run.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateBatching
	StateParallelProcessing
	StateAggregating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateBatching:
		return "batching"
	case StateParallelProcessing:
		return "parallel_processing"
	case StateAggregating:
		return "aggregating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions happen within the run.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
