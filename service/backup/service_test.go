package backup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/model/types"
)

type fakeDDL struct {
	ddl string
	err error
}

func (d *fakeDDL) ExtractDDL(ctx context.Context, schema, object, objectType string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	return d.ddl, nil
}

func backupRequest(file *request.FileArtifact) *request.Request {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	r := request.New("r-1", "FL202503100001", request.ProgramDBObject, now)
	r.AddFile(file)
	return r
}

func TestService_Auto(t *testing.T) {
	baseURL := fmt.Sprintf("mem://localhost/%s/backups", t.Name())
	service := New(&fakeDDL{ddl: "CREATE OR REPLACE PACKAGE pkg_fl AS END;"}, baseURL)
	file := &request.FileArtifact{
		ID: "f1", OriginalName: "PKG_FL.sql", FileVersion: request.VersionUpdate,
		DBSchemaName: "ERP", DBObjectName: "PKG_FL", DBObjectType: "PACKAGE",
	}

	result, err := service.Auto(context.Background(), backupRequest(file), file)
	assert.Nil(t, err)
	if !assert.NotNil(t, result) {
		return
	}
	assert.Contains(t, result.Ref, "r-1")
	assert.Contains(t, result.Ref, "ERP_PKG_FL.sql")
	assert.NotEmpty(t, result.Log)

	data, err := afs.New().DownloadWithURL(context.Background(), result.Ref)
	assert.Nil(t, err)
	assert.Equal(t, "CREATE OR REPLACE PACKAGE pkg_fl AS END;", string(data))
}

func TestService_Auto_IncompleteCoordinates(t *testing.T) {
	service := New(&fakeDDL{ddl: "x"}, "mem://localhost/backups")
	file := &request.FileArtifact{ID: "f1", OriginalName: "PKG_FL.sql", DBObjectName: "PKG_FL"}

	_, err := service.Auto(context.Background(), backupRequest(file), file)
	var validation *types.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestService_Auto_ExtractionFailure(t *testing.T) {
	service := New(&fakeDDL{err: fmt.Errorf("ORA-31603: object not found")}, "mem://localhost/backups")
	file := &request.FileArtifact{
		ID: "f1", OriginalName: "PKG_FL.sql",
		DBSchemaName: "ERP", DBObjectName: "PKG_FL", DBObjectType: "PACKAGE",
	}

	_, err := service.Auto(context.Background(), backupRequest(file), file)
	var remoteErr *types.RemoteOperationError
	if assert.ErrorAs(t, err, &remoteErr) {
		assert.Equal(t, "backup", remoteErr.Op)
		assert.NotEmpty(t, remoteErr.Log)
	}
}

func TestService_Manual(t *testing.T) {
	baseURL := fmt.Sprintf("mem://localhost/%s/backups", t.Name())
	service := New(nil, baseURL)
	file := &request.FileArtifact{ID: "f1", OriginalName: "fix.sql"}

	result, err := service.Manual(context.Background(), backupRequest(file), file, "fix_before.sql", []byte("-- snapshot"))
	assert.Nil(t, err)
	assert.Contains(t, result.Ref, "fix_before.sql")

	// empty content is rejected
	_, err = service.Manual(context.Background(), backupRequest(file), file, "x", nil)
	var validation *types.ValidationError
	assert.ErrorAs(t, err, &validation)
}
