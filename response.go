package memory_console

import "time"

// Runtime states of an IfMemory instance.
const (
	StateIdle     = "IDLE"     // enabled, no cycle completed yet
	StateRunning  = "RUNNING"  // last cycle evaluated and committed
	StateDegraded = "DEGRADED" // last cycle failed to resolve or commit
	StateDisabled = "DISABLED"
)

// InstanceStatus is the current runtime snapshot of one IfMemory.
type InstanceStatus struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	State               string     `json:"state"`                   // IDLE | RUNNING | DEGRADED | DISABLED
	ActiveBranch        *int       `json:"active_branch,omitempty"` // nil when the default value is selected
	Held                bool       `json:"held,omitempty"`          // active branch kept by hysteresis
	LastOutput          *float64   `json:"last_output,omitempty"`   // last value delivered to the destination
	LastCycleAt         *time.Time `json:"last_cycle_at,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	Warnings            []string   `json:"warnings,omitempty"` // branch conditions that failed to evaluate
	Cycles              uint64     `json:"cycles"`
	ConsecutiveFailures int        `json:"consecutive_failures,omitempty"`
}

// TestConditionResult is the answer of a dry-run condition evaluation.
type TestConditionResult struct {
	Valid  bool           `json:"valid"`
	Result bool           `json:"result"`
	Stage  string         `json:"stage,omitempty"` // "resolve" or "evaluate" when Valid is false
	Error  string         `json:"error,omitempty"`
	Values map[string]any `json:"values,omitempty"` // resolved alias values
}

// BranchResult is one branch line of a preview.
type BranchResult struct {
	Order     int    `json:"order"`
	Name      string `json:"name,omitempty"`
	Condition string `json:"condition"`
	Result    bool   `json:"result"`
	Error     string `json:"error,omitempty"`
}

// PreviewResult is one stateless evaluation of a whole definition, without commit.
type PreviewResult struct {
	Branch   *int           `json:"branch,omitempty"` // nil when the default value is selected
	Value    float64        `json:"value"`
	Output   any            `json:"output"` // value as it would be written (bool for Digital)
	Branches []BranchResult `json:"branches"`
	Values   map[string]any `json:"values"`
}
