package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/model/types"
	"github.com/viant/changegate/oplog"
	"github.com/viant/changegate/remote"
)

type fakeCompiler struct {
	jobs []*remote.CompileJob
	fail map[string]bool // file name -> compile failure
	err  error
}

func (c *fakeCompiler) Compile(ctx context.Context, job *remote.CompileJob, log *oplog.Log) (bool, error) {
	c.jobs = append(c.jobs, job)
	if c.err != nil {
		return false, c.err
	}
	log.Infof("compiling %s", job.FileName)
	return !c.fail[job.FileName], nil
}

type fakeUploader struct {
	jobs []*remote.UploadJob
	fail map[string]bool // file name -> deploy failure
	err  error
}

func (u *fakeUploader) Upload(ctx context.Context, job *remote.UploadJob, log *oplog.Log) (bool, error) {
	u.jobs = append(u.jobs, job)
	if u.err != nil {
		return false, u.err
	}
	log.Successf("deployed %s", job.FileName)
	return !u.fail[job.FileName], nil
}

func testConfig(t *testing.T) *Config {
	return &Config{
		HostURL:  fmt.Sprintf("mem://localhost/%s/host", t.Name()),
		StageDir: "stage",
		Paths: Paths{
			Form:    "/erp/forms/*",
			Report:  "/erp/reports",
			SQL:     "/erp/sql",
			Library: "/erp/lib",
		},
	}
}

func pipelineRequest(t *testing.T, programType request.ProgramType, names ...string) *request.Request {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	r := request.New("r-1", "FL202503100001", programType, now)
	r.ApplicantID = "u1001"
	r.PathCode = "fl"
	fs := afs.New()
	for i, name := range names {
		location := fmt.Sprintf("mem://localhost/%s/uploads/%s", t.Name(), name)
		err := fs.Upload(context.Background(), location, 0o644, bytes.NewReader([]byte("content of "+name)))
		assert.Nil(t, err)
		r.AddFile(&request.FileArtifact{
			ID:           fmt.Sprintf("f%d", i+1),
			Sequence:     i + 1,
			OriginalName: name,
			Location:     location,
			FileVersion:  request.VersionNew,
		})
	}
	return r
}

func TestService_Compile(t *testing.T) {
	compiler := &fakeCompiler{}
	service := New(compiler, &fakeUploader{}, testConfig(t))
	r := pipelineRequest(t, request.ProgramForm, "FLASSIGN02.fmb", "notes.txt")

	result, err := service.Compile(context.Background(), r, nil)
	assert.Nil(t, err)
	if !assert.NotNil(t, result) {
		return
	}
	assert.True(t, result.Success)
	// the .txt attachment is skipped, only the .fmb compiles
	if assert.Len(t, result.Files, 1) {
		assert.Equal(t, "f1", result.Files[0].FileID)
		assert.Equal(t, request.ResultSuccess, result.Files[0].Result)
	}
	if assert.Len(t, compiler.jobs, 1) {
		job := compiler.jobs[0]
		assert.Equal(t, "FLASSIGN02.fmb", job.FileName)
		assert.False(t, job.Library)
		assert.Equal(t, "stage/FL202503100001", job.SourceDir)
		assert.Equal(t, "/erp/forms/fl", job.TargetDir)
	}
}

func TestService_Compile_Library(t *testing.T) {
	compiler := &fakeCompiler{}
	service := New(compiler, &fakeUploader{}, testConfig(t))
	r := pipelineRequest(t, request.ProgramLibrary, "FLLIB01.pll")

	result, err := service.Compile(context.Background(), r, nil)
	assert.Nil(t, err)
	assert.True(t, result.Success)
	if assert.Len(t, compiler.jobs, 1) {
		assert.True(t, compiler.jobs[0].Library)
		assert.Empty(t, compiler.jobs[0].TargetDir)
	}
}

func TestService_Compile_Failure(t *testing.T) {
	compiler := &fakeCompiler{fail: map[string]bool{"FLBAD.fmb": true}}
	service := New(compiler, &fakeUploader{}, testConfig(t))
	r := pipelineRequest(t, request.ProgramForm, "FLASSIGN02.fmb", "FLBAD.fmb")

	result, err := service.Compile(context.Background(), r, nil)
	assert.Nil(t, err)
	assert.False(t, result.Success)
	if assert.Len(t, result.Files, 2) {
		assert.Equal(t, request.ResultSuccess, result.Files[0].Result)
		assert.Equal(t, request.ResultFailure, result.Files[1].Result)
	}
}

func TestService_Compile_NothingToCompile(t *testing.T) {
	service := New(&fakeCompiler{}, &fakeUploader{}, testConfig(t))
	r := pipelineRequest(t, request.ProgramForm, "readme.txt")

	result, err := service.Compile(context.Background(), r, nil)
	assert.Nil(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Files)
	if assert.NotEmpty(t, result.Log) {
		assert.Equal(t, oplog.SeverityWarning, result.Log[0].Severity)
	}
}

func TestService_Compile_NotCompilable(t *testing.T) {
	service := New(&fakeCompiler{}, &fakeUploader{}, testConfig(t))
	r := pipelineRequest(t, request.ProgramSQL, "fix.sql")

	_, err := service.Compile(context.Background(), r, nil)
	var validation *types.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestService_Compile_InfrastructureError(t *testing.T) {
	compiler := &fakeCompiler{err: fmt.Errorf("connection reset")}
	service := New(compiler, &fakeUploader{}, testConfig(t))
	r := pipelineRequest(t, request.ProgramForm, "FLASSIGN02.fmb")

	_, err := service.Compile(context.Background(), r, nil)
	var remoteErr *types.RemoteOperationError
	if assert.ErrorAs(t, err, &remoteErr) {
		assert.Equal(t, "compile", remoteErr.Op)
	}
}

func TestService_Deploy(t *testing.T) {
	uploader := &fakeUploader{}
	service := New(&fakeCompiler{}, uploader, testConfig(t))
	r := pipelineRequest(t, request.ProgramForm, "FLASSIGN02.fmb")

	result, err := service.Deploy(context.Background(), r, nil)
	assert.Nil(t, err)
	assert.True(t, result.Success)
	if assert.Len(t, uploader.jobs, 1) {
		job := uploader.jobs[0]
		assert.Equal(t, "FLASSIGN02.fmb", job.FileName)
		assert.Contains(t, job.DestDir, "/erp/forms/fl")
		assert.Equal(t, "FLASSIGN02_BK_BY_FL202503100001_u1001.fmb", job.BackupName)
	}
}

func TestService_Deploy_PartialFailure(t *testing.T) {
	uploader := &fakeUploader{fail: map[string]bool{"two.sql": true}}
	service := New(&fakeCompiler{}, uploader, testConfig(t))
	r := pipelineRequest(t, request.ProgramSQL, "one.sql", "two.sql", "three.sql")

	result, err := service.Deploy(context.Background(), r, nil)
	assert.Nil(t, err)
	assert.False(t, result.Success)
	if assert.Len(t, result.Files, 3) {
		assert.Equal(t, request.ResultSuccess, result.Files[0].Result)
		assert.Equal(t, request.ResultFailure, result.Files[1].Result)
		assert.Equal(t, request.ResultSuccess, result.Files[2].Result)
	}
}

func TestService_Deploy_UnresolvableDestination(t *testing.T) {
	uploader := &fakeUploader{}
	service := New(&fakeCompiler{}, uploader, testConfig(t))
	// terminal access has no path of its own and .docx no fallback
	r := pipelineRequest(t, request.ProgramTerminalAccess, "grant.docx")

	result, err := service.Deploy(context.Background(), r, nil)
	assert.Nil(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, uploader.jobs)
	if assert.Len(t, result.Files, 1) {
		assert.Equal(t, request.ResultFailure, result.Files[0].Result)
	}
}

func TestService_Deploy_Selection(t *testing.T) {
	uploader := &fakeUploader{}
	service := New(&fakeCompiler{}, uploader, testConfig(t))
	r := pipelineRequest(t, request.ProgramSQL, "one.sql", "two.sql")

	result, err := service.Deploy(context.Background(), r, []string{"f2"})
	assert.Nil(t, err)
	if assert.Len(t, result.Files, 1) {
		assert.Equal(t, "f2", result.Files[0].FileID)
	}

	_, err = service.Deploy(context.Background(), r, []string{"f9"})
	var notFound *types.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

// blockedUploader only returns once the deadline fires.
type blockedUploader struct{}

func (u *blockedUploader) Upload(ctx context.Context, job *remote.UploadJob, log *oplog.Log) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestService_Deploy_Timeout(t *testing.T) {
	config := testConfig(t)
	config.TimeoutMs = 5
	service := New(&fakeCompiler{}, &blockedUploader{}, config)
	r := pipelineRequest(t, request.ProgramSQL, "one.sql")

	_, err := service.Deploy(context.Background(), r, nil)
	var remoteErr *types.RemoteOperationError
	if assert.ErrorAs(t, err, &remoteErr) {
		assert.Equal(t, "deploy", remoteErr.Op)
	}
}

func TestService_Deploy_NoFiles(t *testing.T) {
	service := New(&fakeCompiler{}, &fakeUploader{}, testConfig(t))
	r := pipelineRequest(t, request.ProgramSQL)

	_, err := service.Deploy(context.Background(), r, nil)
	var validation *types.ValidationError
	assert.ErrorAs(t, err, &validation)
}
