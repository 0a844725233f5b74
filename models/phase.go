package models

// Phase 客户端会话阶段
type Phase string

const (
	PhaseInit       Phase = "init"
	PhaseConnecting Phase = "connecting"
	PhaseJoining    Phase = "joining"
	PhasePlaying    Phase = "playing"
	PhaseDead       Phase = "dead"
	PhaseError      Phase = "error"
)

// Terminal reports whether the control loop stops in this phase.
func (p Phase) Terminal() bool {
	return p == PhaseError
}
