package orchestrator

import (
	"github.com/routa-ai/routa/pkg/coordination"
)

// Phase names the pipeline stages in execution order.
type Phase string

const (
	PhasePlan     Phase = "PLAN"
	PhaseDispatch Phase = "DISPATCH"
	PhaseCraft    Phase = "CRAFT"
	PhaseVerify   Phase = "VERIFY"
	PhaseDone     Phase = "DONE"
)

// Outcome tags how a run ended.
type Outcome string

const (
	OutcomeSuccess   Outcome = "SUCCESS"
	OutcomeNoTasks   Outcome = "NO_TASKS"
	OutcomeFailure   Outcome = "FAILURE"
	OutcomeCancelled Outcome = "CANCELLED"
)

// Result is the terminal state of one orchestrator run.
type Result struct {
	Outcome Outcome

	// Verdict is the gate's decision, APPROVED or REJECTED, with its raw
	// text preserved in VerdictText.
	Verdict     string
	VerdictText string

	// Tasks in parse order; ids never change after parse time.
	Tasks []*coordination.Task

	// CrafterOutputs keyed by task id.
	CrafterOutputs map[string]string

	// Reason describes a failure; ReachedPhase marks where cancellation
	// landed.
	Reason       string
	ReachedPhase Phase
}

func (r *Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}
