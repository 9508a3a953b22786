package approval

import (
	"context"
	"errors"
	"time"

	"github.com/viant/changegate/model/chain"
	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/model/types"
	"github.com/viant/changegate/service/dao"
)

// Service resolves department chains into step snapshots and gates
// decisions so that only the active step's approver may act.
type Service struct {
	chains dao.Service[string, chain.Chain]
}

// New creates an evaluator backed by the supplied chain store.
func New(chains dao.Service[string, chain.Chain]) *Service {
	return &Service{chains: chains}
}

// Snapshot materialises one pending step per active chain entry of the
// department, preserving the configured step order. An unknown department or
// a chain with no active entries fails with ValidationError: nobody is
// configured to approve, so the request must not enter review.
func (s *Service) Snapshot(ctx context.Context, department string) ([]*request.Step, error) {
	if department == "" {
		return nil, types.NewValidationError("applicant has no department")
	}
	aChain, err := s.chains.Load(ctx, department)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, types.NewValidationError("no approval chain configured for department %q", department)
		}
		return nil, err
	}
	entries := aChain.ActiveEntries()
	if len(entries) == 0 {
		return nil, types.NewValidationError("approval chain for department %q has no active approvers", department)
	}
	steps := make([]*request.Step, 0, len(entries))
	for _, entry := range entries {
		steps = append(steps, &request.Step{
			StepOrder:  entry.StepOrder,
			ApproverID: entry.ApproverID,
			Approver:   entry.Approver,
			Notify:     entry.Notify,
			Status:     request.StepPending,
		})
	}
	return steps, nil
}

// IsTurn reports whether the actor owns the currently active step.
func IsTurn(r *request.Request, actor *types.Actor) bool {
	active := r.ActiveStep()
	return active != nil && actor != nil && active.ApproverID == actor.ID
}

// Decision is the outcome of applying an approve/reject call.
type Decision struct {
	Step      *request.Step
	Completed bool // true when the decided step was the last pending one
}

// Decide applies an approve or reject decision by actor to the request's
// active step. Calls from any approver whose step is not active fail with
// AuthorizationError and never mutate step state, even when that approver
// owns a pending step further down the chain.
func (s *Service) Decide(r *request.Request, actor *types.Actor, approve bool, comment string, now time.Time) (*Decision, error) {
	active := r.ActiveStep()
	if active == nil {
		return nil, types.NewConflictError("request %s has no active approval step", r.FormID)
	}
	if actor == nil || active.ApproverID != actor.ID {
		return nil, types.NewAuthorizationError("not the active approver for request %s", r.FormID)
	}
	status := request.StepApproved
	if !approve {
		if comment == "" {
			return nil, types.NewValidationError("a rejection requires a comment")
		}
		status = request.StepRejected
	}
	step := r.DecideStep(active.StepOrder, status, comment, now)
	if step == nil {
		// Raced with another decision on the same step; the caller retries
		// against the refreshed state.
		return nil, types.NewConflictError("approval step %d of request %s already decided", active.StepOrder, r.FormID)
	}
	return &Decision{Step: step, Completed: approve && r.PendingSteps() == 0}, nil
}
