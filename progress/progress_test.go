package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/changegate/model/request"
)

func TestOf(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	r := request.New("r-1", "FL202503100001", request.ProgramForm, now)
	r.SetStatus(request.StatusApproved, now)
	r.ReplaceSteps([]*request.Step{
		{StepOrder: 1, ApproverID: "a", Status: request.StepApproved},
		{StepOrder: 2, ApproverID: "b", Status: request.StepApproved},
		{StepOrder: 3, ApproverID: "c", Status: request.StepPending},
	})

	backedUp := &request.FileArtifact{ID: "f1", OriginalName: "PKG_FL.sql", FileVersion: request.VersionUpdate}
	backedUp.MarkBackup("backups/PKG_FL.sql", now)
	compiled := &request.FileArtifact{ID: "f2", OriginalName: "FLASSIGN02.fmb"}
	compiled.MarkCompiled(request.ResultSuccess, now)
	compiled.MarkDeployed(request.ResultSuccess, now)
	failed := &request.FileArtifact{ID: "f3", OriginalName: "FLBAD.fmb"}
	failed.MarkCompiled(request.ResultFailure, now)
	r.AddFile(backedUp)
	r.AddFile(compiled)
	r.AddFile(failed)

	p := Of(r.Clone())
	if !assert.NotNil(t, p) {
		return
	}
	assert.Equal(t, "r-1", p.RequestID)
	assert.Equal(t, request.StatusApproved, p.Status)
	assert.Equal(t, 3, p.StepsTotal)
	assert.Equal(t, 2, p.StepsApproved)
	assert.Equal(t, 1, p.StepsPending)
	assert.Equal(t, 0, p.StepsRejected)
	assert.Equal(t, 3, p.FilesTotal)
	assert.Equal(t, 1, p.FilesBackedUp)
	assert.Equal(t, 1, p.FilesCompiled)
	assert.Equal(t, 1, p.FilesDeployed)
}

func TestOf_Nil(t *testing.T) {
	assert.Nil(t, Of(nil))
}
