package changegate

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/viant/changegate/internal/clock"
	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/model/types"
	"github.com/viant/changegate/service/backup"
	"github.com/viant/changegate/service/pipeline"
	"github.com/viant/changegate/tracing"
)

// The remote phases below run against a deep copy with no lock held, so a
// slow host never blocks other operations on the request. Before persisting
// the outcome the request is re-validated under its lock; a request that
// moved on in the meantime rejects the stale result with a ConflictError.

// RunBackup extracts the current definition of the artifact's database
// object and records it as the pre-change backup.
func (s *Service) RunBackup(ctx context.Context, id, fileID string, actor *types.Actor) (*backup.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "backup.extract", "CLIENT")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if err = allowed(ctx, "backup.extract"); err != nil {
		return nil, err
	}
	snapshot, err := s.backupSnapshot(ctx, id, fileID, actor)
	if err != nil {
		return nil, err
	}
	if s.ddl == nil {
		err = types.NewValidationError("no database connection configured for backups")
		return nil, err
	}
	result, err := s.backups.Auto(ctx, snapshot, snapshot.FileByID(fileID))
	if err != nil {
		return nil, err
	}
	if err = s.recordBackup(ctx, id, fileID, result); err != nil {
		return nil, err
	}
	return result, nil
}

// UploadBackup stores applicant-supplied backup content for an artifact the
// database cannot render, such as data fixes snapshotted out of band.
func (s *Service) UploadBackup(ctx context.Context, id, fileID, name string, content []byte, actor *types.Actor) (*backup.Result, error) {
	snapshot, err := s.backupSnapshot(ctx, id, fileID, actor)
	if err != nil {
		return nil, err
	}
	result, err := s.backups.Manual(ctx, snapshot, snapshot.FileByID(fileID), name, content)
	if err != nil {
		return nil, err
	}
	if err = s.recordBackup(ctx, id, fileID, result); err != nil {
		return nil, err
	}
	return result, nil
}

// backupSnapshot validates a backup call and returns a deep copy to run the
// remote phase against.
func (s *Service) backupSnapshot(ctx context.Context, id, fileID string, actor *types.Actor) (*request.Request, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(r, actor) {
		return nil, types.NewAuthorizationError("only the applicant may capture backups for request %s", r.FormID)
	}
	if status := r.GetStatus(); !status.Editable() {
		return nil, types.NewConflictError("backups are captured before submission, request %s is %s", r.FormID, status)
	}
	snapshot := r.Clone()
	if snapshot.FileByID(fileID) == nil {
		return nil, types.NewNotFoundError("file", fileID)
	}
	return snapshot, nil
}

// recordBackup persists a captured backup, re-validating that the request
// stayed editable and still owns the file.
func (s *Service) recordBackup(ctx context.Context, id, fileID string, result *backup.Result) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if status := r.GetStatus(); !status.Editable() {
		return types.NewConflictError("request %s left its editable state while the backup ran", r.FormID)
	}
	ok := r.MutateFile(fileID, func(f *request.FileArtifact) {
		f.MarkBackup(result.Ref, result.At)
	})
	if !ok {
		return types.NewNotFoundError("file", fileID)
	}
	r.Touch(clock.Now())
	return s.requests.Save(ctx, r)
}

// RunCompile compiles the selected artifacts of an approved request. The
// outcome is advisory: failures are reported per file and never change the
// request status. Re-running overwrites the previous per-file outcome.
func (s *Service) RunCompile(ctx context.Context, id string, fileIDs []string, actor *types.Actor) (*pipeline.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.compile", "CLIENT")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if err = allowed(ctx, "pipeline.compile"); err != nil {
		return nil, err
	}
	if s.compiler == nil {
		err = types.NewValidationError("no compiler configured")
		return nil, err
	}
	snapshot, err := s.pipelineSnapshot(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	result, remoteErr := s.pipeline.Compile(ctx, snapshot, fileIDs)
	// a remote failure still carries the per-file outcomes collected so far,
	// including the failed file; persist them so a stale success never survives
	if result != nil {
		if rErr := s.recordOutcomes(ctx, id, result, func(f *request.FileArtifact, outcome request.StepResult, now time.Time) {
			f.MarkCompiled(outcome, now)
		}); rErr != nil && remoteErr == nil {
			remoteErr = rErr
		}
	}
	if err = remoteErr; err != nil {
		return nil, err
	}
	return result, nil
}

// RunDeploy publishes the selected artifacts of an approved request to
// their destination directories, renaming any existing remote copy aside
// first. Success holds only when every selected file deployed.
func (s *Service) RunDeploy(ctx context.Context, id string, fileIDs []string, actor *types.Actor) (*pipeline.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.deploy", "CLIENT")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if err = allowed(ctx, "pipeline.deploy"); err != nil {
		return nil, err
	}
	snapshot, err := s.pipelineSnapshot(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	result, remoteErr := s.pipeline.Deploy(ctx, snapshot, fileIDs)
	if result != nil {
		if rErr := s.recordOutcomes(ctx, id, result, func(f *request.FileArtifact, outcome request.StepResult, now time.Time) {
			f.MarkDeployed(outcome, now)
		}); rErr != nil && remoteErr == nil {
			remoteErr = rErr
		}
	}
	if err = remoteErr; err != nil {
		return nil, err
	}
	return result, nil
}

// pipelineSnapshot validates a compile/deploy call and returns a deep copy
// to run the remote phase against. Both operations are DBA actions on
// approved requests.
func (s *Service) pipelineSnapshot(ctx context.Context, id string, actor *types.Actor) (*request.Request, error) {
	if actor == nil || !actor.IsDBA() {
		return nil, types.NewAuthorizationError("only a DBA may run the deployment pipeline")
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if status := r.GetStatus(); status != request.StatusApproved {
		return nil, types.NewConflictError("pipeline runs on approved requests only, request %s is %s", r.FormID, status)
	}
	return r.Clone(), nil
}

// recordOutcomes stamps per-file pipeline results under the request lock,
// discarding them with a ConflictError when the request is no longer
// approved.
func (s *Service) recordOutcomes(ctx context.Context, id string, result *pipeline.Result, mark func(*request.FileArtifact, request.StepResult, time.Time)) error {
	if len(result.Files) == 0 {
		return nil
	}
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if status := r.GetStatus(); status != request.StatusApproved {
		return types.NewConflictError("request %s moved to %s while the pipeline ran, outcome discarded", r.FormID, status)
	}
	now := clock.Now()
	for _, outcome := range result.Files {
		if !r.MutateFile(outcome.FileID, func(f *request.FileArtifact) {
			mark(f, outcome.Result, now)
		}) {
			return types.NewNotFoundError("file", outcome.FileID)
		}
	}
	r.Touch(now)
	return s.requests.Save(ctx, r)
}

// upload stores raw content at the given afs URL.
func (s *Service) upload(ctx context.Context, destURL string, content []byte) error {
	if err := s.fs.Upload(ctx, destURL, 0o644, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("failed to store %s: %w", destURL, err)
	}
	return nil
}
