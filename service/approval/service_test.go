package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/changegate/model/chain"
	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/model/types"
	chainmem "github.com/viant/changegate/service/dao/chain/memory"
)

var decidedAt = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, chains ...*chain.Chain) *Service {
	store := chainmem.New()
	ctx := context.Background()
	for _, c := range chains {
		assert.Nil(t, store.Save(ctx, c))
	}
	return New(store)
}

func financeChain() *chain.Chain {
	return &chain.Chain{
		Department: "finance",
		Entries: []*chain.Entry{
			{StepOrder: 2, ApproverID: "u2002", Approver: "F. Manager", Active: true},
			{StepOrder: 1, ApproverID: "u2001", Approver: "F. Lead", Active: true, Notify: true},
			{StepOrder: 3, ApproverID: "u2003", Approver: "Retired", Active: false},
		},
	}
}

func TestService_Snapshot(t *testing.T) {
	service := newService(t, financeChain())
	ctx := context.Background()

	steps, err := service.Snapshot(ctx, "finance")
	assert.Nil(t, err)
	if assert.Len(t, steps, 2) {
		assert.Equal(t, "u2001", steps[0].ApproverID)
		assert.True(t, steps[0].Notify)
		assert.Equal(t, "u2002", steps[1].ApproverID)
		assert.Equal(t, request.StepPending, steps[0].Status)
		assert.Equal(t, request.StepPending, steps[1].Status)
	}
}

func TestService_Snapshot_Errors(t *testing.T) {
	service := newService(t, financeChain(), &chain.Chain{
		Department: "hr",
		Entries:    []*chain.Entry{{StepOrder: 1, ApproverID: "u9", Active: false}},
	})
	ctx := context.Background()

	testCases := []struct {
		description string
		department  string
	}{
		{description: "empty department", department: ""},
		{description: "unknown department", department: "marketing"},
		{description: "chain with no active approvers", department: "hr"},
	}
	for _, testCase := range testCases {
		_, err := service.Snapshot(ctx, testCase.department)
		var validation *types.ValidationError
		assert.ErrorAs(t, err, &validation, testCase.description)
	}
}

func reviewingRequest(t *testing.T, service *Service) *request.Request {
	r := request.New("r-1", "FL202503100001", request.ProgramForm, decidedAt)
	r.ApplicantID = "u1001"
	r.Department = "finance"
	steps, err := service.Snapshot(context.Background(), "finance")
	assert.Nil(t, err)
	r.ReplaceSteps(steps)
	r.SetStatus(request.StatusReviewing, decidedAt)
	return r
}

func TestService_Decide(t *testing.T) {
	service := newService(t, financeChain())
	r := reviewingRequest(t, service)
	lead := &types.Actor{ID: "u2001", Name: "F. Lead"}
	manager := &types.Actor{ID: "u2002", Name: "F. Manager"}

	decision, err := service.Decide(r, lead, true, "fine", decidedAt)
	assert.Nil(t, err)
	if assert.NotNil(t, decision) {
		assert.False(t, decision.Completed)
		assert.Equal(t, request.StepApproved, decision.Step.Status)
	}

	decision, err = service.Decide(r, manager, true, "", decidedAt)
	assert.Nil(t, err)
	if assert.NotNil(t, decision) {
		assert.True(t, decision.Completed)
	}
}

func TestService_Decide_OutOfOrder(t *testing.T) {
	service := newService(t, financeChain())
	r := reviewingRequest(t, service)
	manager := &types.Actor{ID: "u2002", Name: "F. Manager"}

	// the manager owns step two, but step one is still pending
	_, err := service.Decide(r, manager, true, "", decidedAt)
	var authz *types.AuthorizationError
	assert.ErrorAs(t, err, &authz)
	assert.Equal(t, request.StepPending, r.Steps[1].Status)
}

func TestService_Decide_Stranger(t *testing.T) {
	service := newService(t, financeChain())
	r := reviewingRequest(t, service)

	_, err := service.Decide(r, &types.Actor{ID: "u9999"}, true, "", decidedAt)
	var authz *types.AuthorizationError
	assert.ErrorAs(t, err, &authz)
}

func TestService_Decide_RejectNeedsComment(t *testing.T) {
	service := newService(t, financeChain())
	r := reviewingRequest(t, service)
	lead := &types.Actor{ID: "u2001"}

	_, err := service.Decide(r, lead, false, "", decidedAt)
	var validation *types.ValidationError
	assert.ErrorAs(t, err, &validation)

	decision, err := service.Decide(r, lead, false, "needs rework", decidedAt)
	assert.Nil(t, err)
	if assert.NotNil(t, decision) {
		assert.Equal(t, request.StepRejected, decision.Step.Status)
		assert.False(t, decision.Completed)
	}
	assert.Nil(t, r.ActiveStep())
}

func TestService_Decide_NoActiveStep(t *testing.T) {
	service := newService(t, financeChain())
	r := request.New("r-2", "FL202503100002", request.ProgramForm, decidedAt)

	_, err := service.Decide(r, &types.Actor{ID: "u2001"}, true, "", decidedAt)
	var conflict *types.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestIsTurn(t *testing.T) {
	service := newService(t, financeChain())
	r := reviewingRequest(t, service)

	assert.True(t, IsTurn(r, &types.Actor{ID: "u2001"}))
	assert.False(t, IsTurn(r, &types.Actor{ID: "u2002"}))
	assert.False(t, IsTurn(r, nil))
}
