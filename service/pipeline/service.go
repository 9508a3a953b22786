// Package pipeline runs the per-file compile and deploy steps of an
// approved request against the legacy host. Both steps are re-runnable and
// advisory with respect to the request lifecycle: a failure is reported in
// the result, never by mutating the request status.
package pipeline

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/model/types"
	"github.com/viant/changegate/oplog"
	"github.com/viant/changegate/remote"
)

// FileOutcome is the result of one pipeline step for one file.
type FileOutcome struct {
	FileID string             `json:"fileId"`
	Name   string             `json:"name"`
	Result request.StepResult `json:"result"`
}

// Result aggregates a compile or deploy run. Success holds only when every
// processed file succeeded; partial failure is reported per file.
type Result struct {
	Success bool           `json:"success"`
	Files   []*FileOutcome `json:"files"`
	Log     []oplog.Entry  `json:"log"`
}

// Config locates the working directories on the target host. HostURL is the
// afs base URL of the host (e.g. "scp://erp-host/"), StageDir the shell path
// artifacts are staged to before compiling, both addressing the same tree.
// TimeoutMs bounds one deploy run end to end; zero means no bound.
type Config struct {
	HostURL   string `yaml:"hostURL" json:"hostURL"`
	StageDir  string `yaml:"stageDir" json:"stageDir"`
	TimeoutMs int    `yaml:"timeoutMs" json:"timeoutMs"`
	Paths     Paths  `yaml:"paths" json:"paths"`
}

// Service drives compile and deploy over the remote contracts.
type Service struct {
	fs       afs.Service
	compiler remote.Compiler
	uploader remote.Uploader
	config   *Config
}

// New creates a pipeline service.
func New(compiler remote.Compiler, uploader remote.Uploader, config *Config) *Service {
	return &Service{fs: afs.New(), compiler: compiler, uploader: uploader, config: config}
}

// compileExt maps a compilable program type to the source extension it
// accepts; anything else attached to the request is skipped.
func compileExt(programType request.ProgramType) string {
	if programType == request.ProgramLibrary {
		return ".pll"
	}
	return ".fmb"
}

// Compile stages the selected artifacts to the host work directory and
// compiles each one. Only Form and Library requests compile; the selection
// is narrowed to .fmb respectively .pll files and an empty selection after
// narrowing is a success with a warning, since compile is advisory.
func (s *Service) Compile(ctx context.Context, r *request.Request, fileIDs []string) (*Result, error) {
	if !r.ProgramType.Compilable() {
		return nil, types.NewValidationError("program type %q has no compile step", r.ProgramType)
	}
	files, err := s.selectFiles(r, fileIDs)
	if err != nil {
		return nil, err
	}

	log := oplog.New()
	wantExt := compileExt(r.ProgramType)
	var selected []*request.FileArtifact
	for _, file := range files {
		if file.Ext() == wantExt {
			selected = append(selected, file)
		}
	}
	if len(selected) == 0 {
		log.Warningf("no %s files to compile", wantExt)
		return &Result{Success: true, Log: log.Entries()}, nil
	}

	stageDir := path.Join(s.config.StageDir, r.FormID)
	stageURL := url.Join(s.config.HostURL, stageDir)
	targetDir := ""
	if r.ProgramType == request.ProgramForm {
		dir, ok := s.config.Paths.Resolve(r.ProgramType, r.PathCode, wantExt)
		if !ok {
			return nil, types.NewValidationError("no form directory configured for path code %q", r.PathCode)
		}
		targetDir = dir
	}

	result := &Result{Success: true}
	for _, file := range selected {
		outcome := &FileOutcome{FileID: file.ID, Name: file.OriginalName, Result: request.ResultFailure}
		result.Files = append(result.Files, outcome)

		if err = s.stage(ctx, file, stageURL, log); err != nil {
			result.Log = log.Entries()
			return result, types.NewRemoteOperationError("compile", result.Log, err)
		}
		job := &remote.CompileJob{
			FileName:  file.OriginalName,
			Library:   r.ProgramType == request.ProgramLibrary,
			SourceDir: stageDir,
			TargetDir: targetDir,
		}
		ok, cErr := s.compiler.Compile(ctx, job, log)
		if cErr != nil {
			result.Log = log.Entries()
			return result, types.NewRemoteOperationError("compile", result.Log, cErr)
		}
		if ok {
			outcome.Result = request.ResultSuccess
		} else {
			result.Success = false
		}
	}
	result.Log = log.Entries()
	return result, nil
}

// Deploy publishes each selected artifact to its resolved destination. A
// file with no resolvable destination is recorded as failed and skipped; an
// infrastructure error aborts the run with the partial result.
func (s *Service) Deploy(ctx context.Context, r *request.Request, fileIDs []string) (*Result, error) {
	files, err := s.selectFiles(r, fileIDs)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, types.NewValidationError("request %s has no files to deploy", r.FormID)
	}
	if s.config.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.config.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	log := oplog.New()
	result := &Result{Success: true}
	for _, file := range files {
		outcome := &FileOutcome{FileID: file.ID, Name: file.OriginalName, Result: request.ResultFailure}
		result.Files = append(result.Files, outcome)

		destDir, ok := s.config.Paths.Resolve(r.ProgramType, r.PathCode, file.Ext())
		if !ok {
			log.Errorf("no destination for %s (type %s, path code %q), skipping", file.OriginalName, r.ProgramType, r.PathCode)
			result.Success = false
			continue
		}
		job := &remote.UploadJob{
			SourceURL:  file.Location,
			DestDir:    url.Join(s.config.HostURL, destDir),
			FileName:   file.OriginalName,
			BackupName: backupName(file.OriginalName, r.FormID, r.ApplicantID),
		}
		uploaded, uErr := s.uploader.Upload(ctx, job, log)
		if uErr != nil {
			result.Log = log.Entries()
			return result, types.NewRemoteOperationError("deploy", result.Log, uErr)
		}
		if uploaded {
			outcome.Result = request.ResultSuccess
		} else {
			result.Success = false
		}
	}
	result.Log = log.Entries()
	return result, nil
}

// stage copies the stored artifact content next to the compiler.
func (s *Service) stage(ctx context.Context, file *request.FileArtifact, stageURL string, log *oplog.Log) error {
	if file.Location == "" {
		return fmt.Errorf("file %s has no stored content", file.OriginalName)
	}
	destURL := url.Join(stageURL, file.OriginalName)
	log.Infof("staging %s", file.OriginalName)
	if err := s.fs.Copy(ctx, file.Location, destURL); err != nil {
		return fmt.Errorf("failed to stage %s: %w", file.OriginalName, err)
	}
	return nil
}

// selectFiles resolves the id selection against the request's artifacts; an
// empty selection means every file.
func (s *Service) selectFiles(r *request.Request, fileIDs []string) ([]*request.FileArtifact, error) {
	if len(fileIDs) == 0 {
		return r.Files, nil
	}
	var out []*request.FileArtifact
	for _, id := range fileIDs {
		file := r.FileByID(id)
		if file == nil {
			return nil, types.NewNotFoundError("file", id)
		}
		out = append(out, file)
	}
	return out, nil
}

// backupName builds the name an existing remote copy is renamed to before
// being overwritten, e.g. FLASSIGN02_BK_BY_FL202601150001_u1001.fmb.
func backupName(fileName, formID, applicantID string) string {
	ext := path.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	return fmt.Sprintf("%s_BK_BY_%s_%s%s", base, formID, applicantID, ext)
}
