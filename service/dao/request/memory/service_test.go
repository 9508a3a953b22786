package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/service/dao"
)

func TestService_CRUD(t *testing.T) {
	service := New()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	r := request.New("r-1", "FL202503100001", request.ProgramForm, now)
	assert.Nil(t, service.Save(ctx, r))

	loaded, err := service.Load(ctx, "r-1")
	assert.Nil(t, err)
	assert.Same(t, r, loaded)

	_, err = service.Load(ctx, "r-9")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	_, err = service.Load(ctx, "")
	assert.ErrorIs(t, err, dao.ErrInvalidID)
	assert.ErrorIs(t, service.Save(ctx, nil), dao.ErrNilEntity)

	assert.Nil(t, service.Delete(ctx, "r-1"))
	assert.ErrorIs(t, service.Delete(ctx, "r-1"), dao.ErrNotFound)
}

func TestService_Save_MergesCanonical(t *testing.T) {
	service := New()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	r := request.New("r-1", "FL202503100001", request.ProgramForm, now)
	assert.Nil(t, service.Save(ctx, r))

	// saving a detached clone updates the canonical instance in place
	clone := r.Clone()
	clone.SetStatus(request.StatusReviewing, now.Add(time.Minute))
	assert.Nil(t, service.Save(ctx, clone))

	loaded, err := service.Load(ctx, "r-1")
	assert.Nil(t, err)
	assert.Same(t, r, loaded)
	assert.Equal(t, request.StatusReviewing, loaded.GetStatus())
}

func TestService_List(t *testing.T) {
	service := New()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	draft := request.New("r-1", "FL202503100001", request.ProgramForm, now)
	reviewing := request.New("r-2", "FL202503100002", request.ProgramForm, now)
	reviewing.SetStatus(request.StatusReviewing, now)
	assert.Nil(t, service.Save(ctx, draft))
	assert.Nil(t, service.Save(ctx, reviewing))

	all, err := service.List(ctx)
	assert.Nil(t, err)
	assert.Len(t, all, 2)

	filtered, err := service.List(ctx, dao.NewParameter("Status", string(request.StatusReviewing)))
	assert.Nil(t, err)
	if assert.Len(t, filtered, 1) {
		assert.Equal(t, "r-2", filtered[0].ID)
	}
}
