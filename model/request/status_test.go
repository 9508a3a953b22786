package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Allows(t *testing.T) {
	testCases := []struct {
		description string
		status      Status
		action      Action
		expect      bool
	}{
		{description: "submit from draft", status: StatusDraft, action: ActionSubmit, expect: true},
		{description: "submit after manager rejection", status: StatusManagerRejected, action: ActionSubmit, expect: true},
		{description: "submit after dba rejection", status: StatusDBARejected, action: ActionSubmit, expect: true},
		{description: "submit while reviewing", status: StatusReviewing, action: ActionSubmit, expect: false},
		{description: "submit when online", status: StatusOnline, action: ActionSubmit, expect: false},
		{description: "approve while reviewing", status: StatusReviewing, action: ActionApprove, expect: true},
		{description: "approve a draft", status: StatusDraft, action: ActionApprove, expect: false},
		{description: "approve an approved request", status: StatusApproved, action: ActionApprove, expect: false},
		{description: "reject while reviewing", status: StatusReviewing, action: ActionReject, expect: true},
		{description: "dba reject after approval", status: StatusApproved, action: ActionReject, expect: true},
		{description: "reject a draft", status: StatusDraft, action: ActionReject, expect: false},
		{description: "online from approved", status: StatusApproved, action: ActionOnline, expect: true},
		{description: "online while reviewing", status: StatusReviewing, action: ActionOnline, expect: false},
		{description: "void a draft", status: StatusDraft, action: ActionVoid, expect: true},
		{description: "void while reviewing", status: StatusReviewing, action: ActionVoid, expect: false},
		{description: "void an online request", status: StatusOnline, action: ActionVoid, expect: false},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, testCase.status.Allows(testCase.action), testCase.description)
	}
}

func TestStatus_Editable(t *testing.T) {
	editable := []Status{StatusDraft, StatusManagerRejected, StatusDBARejected}
	for _, status := range editable {
		assert.True(t, status.Editable(), string(status))
	}
	frozen := []Status{StatusReviewing, StatusApproved, StatusOnline, StatusVoid}
	for _, status := range frozen {
		assert.False(t, status.Editable(), string(status))
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusOnline.Terminal())
	assert.True(t, StatusVoid.Terminal())
	assert.False(t, StatusApproved.Terminal())
	assert.False(t, StatusDBARejected.Terminal())
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, StatusReviewing.Valid())
	assert.False(t, Status("").Valid())
	assert.False(t, Status("archived").Valid())
}

func TestProgramType_Compilable(t *testing.T) {
	assert.True(t, ProgramForm.Compilable())
	assert.True(t, ProgramLibrary.Compilable())
	assert.False(t, ProgramReport.Compilable())
	assert.False(t, ProgramSQL.Compilable())
	assert.False(t, ProgramDBObject.Compilable())
	assert.False(t, ProgramTerminalAccess.Compilable())
}
