package request

import "time"

// StepStatus is the decision state of one approval step.
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepApproved StepStatus = "approved"
	StepRejected StepStatus = "rejected"
)

// Step is one gate in a request's sign-off sequence, materialised from the
// department chain at submit time. Steps are immutable snapshot records
// except for their decision fields.
type Step struct {
	StepOrder  int        `json:"stepOrder"`
	ApproverID string     `json:"approverId"`
	Approver   string     `json:"approver,omitempty"`
	Notify     bool       `json:"notify,omitempty"`
	Status     StepStatus `json:"status"`
	Comment    string     `json:"comment,omitempty"`
	DecidedAt  *time.Time `json:"decidedAt,omitempty"`
}

// DecideStep records a decision on the owned step with the given order and
// returns it, or nil when no such pending step exists.
func (r *Request) DecideStep(order int, status StepStatus, comment string, at time.Time) *Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, step := range r.Steps {
		if step.StepOrder == order && step.Status == StepPending {
			step.Status = status
			step.Comment = comment
			decided := at
			step.DecidedAt = &decided
			return step
		}
	}
	return nil
}

// Decided reports whether the step carries a decision.
func (s *Step) Decided() bool {
	return s.Status != StepPending
}

// Clone returns a copy of the step.
func (s *Step) Clone() *Step {
	if s == nil {
		return nil
	}
	out := *s
	out.DecidedAt = cloneTime(s.DecidedAt)
	return &out
}
