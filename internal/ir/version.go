package ir

const (
	// PlanVersion is the compiled plan schema version.
	PlanVersion = "1"

	// EngineVersion is the tickflow engine version.
	EngineVersion = "0.1.0"
)
