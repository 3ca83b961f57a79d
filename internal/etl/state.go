package etl

// State is the pipeline stage a run is in. A run moves forward through the
// states in declaration order; Failed is reachable from any of them.
type State int

const (
	StateIdle State = iota
	StateSchemaRebuilding
	StateReading
	StateCleaning
	StateTransforming
	StateDimensionBuilding
	StateMetricsGenerating
	StateLoading
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:              "idle",
	StateSchemaRebuilding:  "schema_rebuilding",
	StateReading:           "reading",
	StateCleaning:          "cleaning",
	StateTransforming:      "transforming",
	StateDimensionBuilding: "dimension_building",
	StateMetricsGenerating: "metrics_generating",
	StateLoading:           "loading",
	StateDone:              "done",
	StateFailed:            "failed",
}

// String returns the snake_case stage name used in logs and metrics.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }
