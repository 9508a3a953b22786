package fs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/service/dao"
)

func newRequest(id, formID string, now time.Time) *request.Request {
	r := request.New(id, formID, request.ProgramForm, now)
	r.ApplicantID = "u1001"
	r.AddFile(&request.FileArtifact{ID: "f1", OriginalName: "FLASSIGN02.fmb", FileVersion: request.VersionNew})
	return r
}

func TestService_RoundTrip(t *testing.T) {
	service, err := New(t.TempDir())
	assert.Nil(t, err)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	r := newRequest("r-1", "FL202503100001", now)
	r.ReplaceSteps([]*request.Step{{StepOrder: 1, ApproverID: "u2001", Status: request.StepPending}})
	assert.Nil(t, service.Save(ctx, r))

	loaded, err := service.Load(ctx, "r-1")
	assert.Nil(t, err)
	assert.Equal(t, "FL202503100001", loaded.FormID)
	assert.Equal(t, request.StatusDraft, loaded.GetStatus())
	if assert.Len(t, loaded.Files, 1) {
		assert.Equal(t, "FLASSIGN02.fmb", loaded.Files[0].OriginalName)
	}
	assert.Len(t, loaded.Steps, 1)

	_, err = service.Load(ctx, "r-9")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestService_List(t *testing.T) {
	service, err := New(t.TempDir())
	assert.Nil(t, err)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	draft := newRequest("r-1", "FL202503100001", now)
	online := newRequest("r-2", "FL202503100002", now)
	online.SetStatus(request.StatusOnline, now)
	assert.Nil(t, service.Save(ctx, draft))
	assert.Nil(t, service.Save(ctx, online))

	all, err := service.List(ctx)
	assert.Nil(t, err)
	assert.Len(t, all, 2)

	filtered, err := service.List(ctx, dao.NewParameter("Status", string(request.StatusOnline)))
	assert.Nil(t, err)
	if assert.Len(t, filtered, 1) {
		assert.Equal(t, "r-2", filtered[0].ID)
	}
}

func TestService_Delete(t *testing.T) {
	service, err := New(t.TempDir())
	assert.Nil(t, err)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Nil(t, service.Save(ctx, newRequest("r-1", "FL202503100001", now)))
	assert.Nil(t, service.Delete(ctx, "r-1"))
	assert.ErrorIs(t, service.Delete(ctx, "r-1"), dao.ErrNotFound)
	_, err = service.Load(ctx, "r-1")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}
