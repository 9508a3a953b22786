package changegate

import (
	"context"
	"errors"
	"log"

	"github.com/viant/afs"
	"github.com/viant/changegate/internal/clock"
	"github.com/viant/changegate/internal/formid"
	"github.com/viant/changegate/internal/idgen"
	"github.com/viant/changegate/internal/mux"
	"github.com/viant/changegate/model/chain"
	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/model/types"
	"github.com/viant/changegate/policy"
	"github.com/viant/changegate/progress"
	"github.com/viant/changegate/remote"
	"github.com/viant/changegate/remote/compile"
	"github.com/viant/changegate/remote/dbmeta"
	"github.com/viant/changegate/remote/shell"
	"github.com/viant/changegate/remote/transfer"
	"github.com/viant/changegate/service/approval"
	"github.com/viant/changegate/service/backup"
	"github.com/viant/changegate/service/dao"
	chainmem "github.com/viant/changegate/service/dao/chain/memory"
	requestfs "github.com/viant/changegate/service/dao/request/fs"
	requestmem "github.com/viant/changegate/service/dao/request/memory"
	"github.com/viant/changegate/service/event"
	"github.com/viant/changegate/service/pipeline"
	"github.com/viant/changegate/tracing"
	"github.com/viant/scy/cred/secret"
	"github.com/viant/structology/conv"

	"github.com/viant/afs/url"
)

// Service is the engine façade. Every lifecycle mutation of one request is
// serialised through a per-request lock; operations on distinct requests
// proceed in parallel and reads work on deep copies.
type Service struct {
	config    *Config
	requests  dao.Service[string, request.Request]
	chains    dao.Service[string, chain.Chain]
	approvals *approval.Service
	backups   *backup.Service
	pipeline  *pipeline.Service
	events    *event.Service
	shell     *shell.Service
	compiler  remote.Compiler
	uploader  remote.Uploader
	ddl       remote.DDLSource
	locks     *mux.Keyed
	converter *conv.Converter
	fs        afs.Service
}

// New creates the engine from config, wiring defaults for every component
// an option did not supply. Remote credentials named in config are resolved
// eagerly so a misconfigured secret fails at startup rather than mid-action.
func New(ctx context.Context, config *Config, opts ...Option) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		config:    config,
		locks:     mux.NewKeyed(),
		converter: newConverter(),
		fs:        afs.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) init(ctx context.Context) error {
	if s.requests == nil {
		if s.config.StoreURL != "" {
			store, err := requestfs.New(url.Join(s.config.StoreURL, "requests"))
			if err != nil {
				return err
			}
			s.requests = store
		} else {
			s.requests = requestmem.New()
		}
	}
	if s.chains == nil {
		s.chains = chainmem.New()
	}
	if s.approvals == nil {
		s.approvals = approval.New(s.chains)
	}
	if s.shell == nil {
		s.shell = shell.New()
	}
	if s.uploader == nil {
		s.uploader = transfer.New()
	}
	runner := s.shell.Runner(&s.config.Host)
	if s.compiler == nil && s.config.Compile.Credentials != "" {
		user, password, err := s.basicCredentials(ctx, s.config.Compile.Credentials)
		if err != nil {
			return err
		}
		s.compiler = compile.New(runner, user, password, s.config.Compile.TimeoutMs)
	}
	if s.ddl == nil && s.config.Database.Credentials != "" {
		user, password, err := s.basicCredentials(ctx, s.config.Database.Credentials)
		if err != nil {
			return err
		}
		s.ddl = dbmeta.New(runner, user, password, s.config.Database.Connect, s.config.Database.TimeoutMs)
	}
	if s.pipeline == nil {
		s.pipeline = pipeline.New(s.compiler, s.uploader, &s.config.Pipeline)
	}
	if s.backups == nil {
		s.backups = backup.New(s.ddl, s.config.BackupURL)
	}
	if s.events == nil {
		switch s.config.Events.Vendor {
		case "fs":
			events, err := event.NewFS(s.config.Events.BaseURL)
			if err != nil {
				return err
			}
			s.events = events
		default:
			s.events = event.NewMemory()
		}
	}
	return nil
}

// basicCredentials resolves a scy secret resource into a user/password pair.
func (s *Service) basicCredentials(ctx context.Context, resource string) (string, string, error) {
	generic, err := secret.New().GetCredentials(ctx, resource)
	if err != nil {
		return "", "", err
	}
	return generic.Username, generic.Password, nil
}

// Events exposes the lifecycle event service for listeners.
func (s *Service) Events() *event.Service {
	return s.events
}

// Close releases remote sessions.
func (s *Service) Close() error {
	return s.shell.Close()
}

// load fetches the canonical request, translating the store sentinel into
// the typed not-found error.
func (s *Service) load(ctx context.Context, id string) (*request.Request, error) {
	r, err := s.requests.Load(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) || errors.Is(err, dao.ErrInvalidID) {
			return nil, types.NewNotFoundError("request", id)
		}
		return nil, err
	}
	return r, nil
}

// allowed checks the optional context policy for the action.
func allowed(ctx context.Context, action string) error {
	if !policy.FromContext(ctx).IsAllowed(action) {
		return types.NewAuthorizationError("action %s is blocked by policy", action)
	}
	return nil
}

// canEdit reports whether the actor owns the request or is an admin.
func canEdit(r *request.Request, actor *types.Actor) bool {
	return actor != nil && (actor.ID == r.ApplicantID || actor.IsAdmin())
}

// publish emits a lifecycle event; delivery failure is logged, never
// surfaced, since the transition has already been persisted.
func (s *Service) publish(ctx context.Context, r *request.Request, action request.Action, from, to request.Status, actor *types.Actor, comment string) {
	ev := &event.Event{
		RequestID: r.ID,
		FormID:    r.FormID,
		Action:    action,
		From:      from,
		To:        to,
		Comment:   comment,
	}
	if actor != nil {
		ev.ActorID = actor.ID
		ev.ActorName = actor.Name
	}
	if active := r.ActiveStep(); active != nil && active.Notify {
		ev.NextApproverID = active.ApproverID
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Printf("failed to publish %v event for request %s: %v", action, r.FormID, err)
	}
}

// Create opens a new draft request for the actor. The human-readable form id
// is derived from the highest id already issued for the module this year.
func (s *Service) Create(ctx context.Context, input *NewRequestInput, actor *types.Actor) (*request.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.create", "INTERNAL")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if actor == nil {
		err = types.NewAuthorizationError("an applicant is required")
		return nil, err
	}
	if input == nil || !input.ProgramType.Valid() {
		err = types.NewValidationError("a valid program type is required")
		return nil, err
	}
	now := clock.Now()
	formID, err := s.nextFormID(ctx, input.ModuleCode, input.ProgramType)
	if err != nil {
		return nil, err
	}
	r := request.New(idgen.New(), formID, input.ProgramType, now)
	r.ModuleCode = input.ModuleCode
	r.PathCode = input.PathCode
	r.Description = input.Description
	r.HasTested = input.HasTested
	r.ApplicantID = actor.ID
	r.ApplicantName = actor.Name
	r.Department = actor.Department
	if err = s.requests.Save(ctx, r); err != nil {
		return nil, err
	}
	span.WithAttributes(map[string]string{"request.id": r.ID, "request.formId": formID})
	return r.Clone(), nil
}

func (s *Service) nextFormID(ctx context.Context, moduleCode string, programType request.ProgramType) (string, error) {
	if moduleCode == "" && programType == request.ProgramTerminalAccess {
		moduleCode = formid.TerminalCode
	}
	now := clock.Now()
	prefix := formid.YearPrefix(moduleCode, now)
	all, err := s.requests.List(ctx)
	if err != nil {
		return "", err
	}
	var last string
	for _, r := range all {
		if formid.Matches(r.FormID, prefix) && r.FormID > last {
			last = r.FormID
		}
	}
	return formid.Next(moduleCode, now, last)
}

// Update replaces the editable header fields of a draft or rejected request.
func (s *Service) Update(ctx context.Context, id string, input *UpdateRequestInput, actor *types.Actor) (*request.Request, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(r, actor) {
		return nil, types.NewAuthorizationError("only the applicant may edit request %s", r.FormID)
	}
	if !r.GetStatus().Editable() {
		return nil, types.NewConflictError("request %s is not editable in status %s", r.FormID, r.GetStatus())
	}
	if input == nil || !input.ProgramType.Valid() {
		return nil, types.NewValidationError("a valid program type is required")
	}
	r.UpdateDetails(input.ModuleCode, input.PathCode, input.ProgramType, input.Description, input.HasTested, clock.Now())
	if err = s.requests.Save(ctx, r); err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

// Delete physically removes a request and its stored attachment content.
// Only drafts may be deleted; anything that entered review is history.
func (s *Service) Delete(ctx context.Context, id string, actor *types.Actor) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canEdit(r, actor) {
		return types.NewAuthorizationError("only the applicant may delete request %s", r.FormID)
	}
	if r.GetStatus() != request.StatusDraft {
		return types.NewConflictError("only draft requests may be deleted, request %s is %s", r.FormID, r.GetStatus())
	}
	if err = s.requests.Delete(ctx, id); err != nil {
		return err
	}
	if s.config.AttachmentURL != "" {
		attachments := url.Join(s.config.AttachmentURL, id)
		if ok, _ := s.fs.Exists(ctx, attachments); ok {
			if dErr := s.fs.Delete(ctx, attachments); dErr != nil {
				log.Printf("failed to delete attachments of request %s: %v", r.FormID, dErr)
			}
		}
	}
	return nil
}

// AttachFile adds an artifact to an editable request, storing its content
// when supplied.
func (s *Service) AttachFile(ctx context.Context, id string, input *FileInput, actor *types.Actor) (*request.FileArtifact, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(r, actor) {
		return nil, types.NewAuthorizationError("only the applicant may attach files to request %s", r.FormID)
	}
	if !r.GetStatus().Editable() {
		return nil, types.NewConflictError("request %s is not editable in status %s", r.FormID, r.GetStatus())
	}
	if input == nil || input.Name == "" {
		return nil, types.NewValidationError("a file name is required")
	}
	now := clock.Now()
	artifact := &request.FileArtifact{
		ID:           idgen.New(),
		Sequence:     len(r.Files) + 1,
		OriginalName: input.Name,
		Description:  input.Description,
		FileVersion:  input.FileVersion,
		DBObjectType: input.DBObjectType,
		DBObjectName: input.DBObjectName,
		DBSchemaName: input.DBSchemaName,
		UploadedAt:   now,
	}
	if artifact.FileVersion == "" {
		artifact.FileVersion = request.VersionNew
	}
	if len(input.Content) > 0 {
		if s.config.AttachmentURL == "" {
			return nil, types.NewValidationError("no attachment storage configured")
		}
		artifact.Location = url.Join(s.config.AttachmentURL, id, input.Name)
		if err = s.upload(ctx, artifact.Location, input.Content); err != nil {
			return nil, err
		}
	}
	r.AddFile(artifact)
	r.Touch(now)
	if err = s.requests.Save(ctx, r); err != nil {
		return nil, err
	}
	return artifact.Clone(), nil
}

// UpdateFile replaces the editable metadata of an attached artifact.
func (s *Service) UpdateFile(ctx context.Context, id, fileID string, input *FileUpdateInput, actor *types.Actor) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canEdit(r, actor) {
		return types.NewAuthorizationError("only the applicant may edit files of request %s", r.FormID)
	}
	if !r.GetStatus().Editable() {
		return types.NewConflictError("request %s is not editable in status %s", r.FormID, r.GetStatus())
	}
	if input == nil {
		return types.NewValidationError("file update payload is required")
	}
	ok := r.MutateFile(fileID, func(f *request.FileArtifact) {
		if input.Sequence > 0 {
			f.Sequence = input.Sequence
		}
		f.Description = input.Description
		if input.FileVersion != "" {
			f.FileVersion = input.FileVersion
		}
		f.DBObjectType = input.DBObjectType
		f.DBObjectName = input.DBObjectName
		f.DBSchemaName = input.DBSchemaName
	})
	if !ok {
		return types.NewNotFoundError("file", fileID)
	}
	r.Touch(clock.Now())
	return s.requests.Save(ctx, r)
}

// RemoveFile detaches an artifact from an editable request.
func (s *Service) RemoveFile(ctx context.Context, id, fileID string, actor *types.Actor) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canEdit(r, actor) {
		return types.NewAuthorizationError("only the applicant may remove files of request %s", r.FormID)
	}
	if !r.GetStatus().Editable() {
		return types.NewConflictError("request %s is not editable in status %s", r.FormID, r.GetStatus())
	}
	if !r.RemoveFile(fileID) {
		return types.NewNotFoundError("file", fileID)
	}
	r.Touch(clock.Now())
	return s.requests.Save(ctx, r)
}

// SetManualBackup flips the manual backup claim on an artifact. Claiming
// stamps the backup time; retracting clears it.
func (s *Service) SetManualBackup(ctx context.Context, id, fileID string, claimed bool, actor *types.Actor) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canEdit(r, actor) {
		return types.NewAuthorizationError("only the applicant may change backups of request %s", r.FormID)
	}
	if !r.GetStatus().Editable() {
		return types.NewConflictError("request %s is not editable in status %s", r.FormID, r.GetStatus())
	}
	now := clock.Now()
	ok := r.MutateFile(fileID, func(f *request.FileArtifact) {
		if claimed {
			if !f.IsBackup {
				f.MarkBackup("manual", now)
			}
		} else {
			f.ClearBackup()
		}
	})
	if !ok {
		return types.NewNotFoundError("file", fileID)
	}
	r.Touch(now)
	return s.requests.Save(ctx, r)
}

// Submit moves a draft or rejected request into review. The change must be
// tested, every updated DB object must carry a backup and the applicant's
// department must have an approval chain; the chain is snapshotted onto the
// request so later chain edits do not affect it.
func (s *Service) Submit(ctx context.Context, id string, actor *types.Actor) (*request.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.submit", "INTERNAL")
	var err error
	defer func() { tracing.EndSpan(span, err) }()
	if err = allowed(ctx, "request.submit"); err != nil {
		return nil, err
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(r, actor) {
		err = types.NewAuthorizationError("only the applicant may submit request %s", r.FormID)
		return nil, err
	}
	from := r.GetStatus()
	if !from.Allows(request.ActionSubmit) {
		err = types.NewConflictError("cannot submit request %s from status %s", r.FormID, from)
		return nil, err
	}
	if !r.HasTested {
		err = types.NewValidationError("request %s has not been tested", r.FormID)
		return nil, err
	}
	if err = backup.CheckPolicy(r); err != nil {
		return nil, err
	}
	steps, err := s.approvals.Snapshot(ctx, r.Department)
	if err != nil {
		return nil, err
	}
	r.ReplaceSteps(steps)
	r.SetStatus(request.StatusReviewing, clock.Now())
	if err = s.requests.Save(ctx, r); err != nil {
		return nil, err
	}
	s.publish(ctx, r, request.ActionSubmit, from, request.StatusReviewing, actor, "")
	return r.Clone(), nil
}

// Approve records the active approver's sign-off; the last approval moves
// the request to approved.
func (s *Service) Approve(ctx context.Context, id string, actor *types.Actor, comment string) (*request.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.approve", "INTERNAL")
	var err error
	defer func() { tracing.EndSpan(span, err) }()
	if err = allowed(ctx, "request.approve"); err != nil {
		return nil, err
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	from := r.GetStatus()
	if !from.Allows(request.ActionApprove) {
		err = types.NewConflictError("cannot approve request %s from status %s", r.FormID, from)
		return nil, err
	}
	now := clock.Now()
	decision, err := s.approvals.Decide(r, actor, true, comment, now)
	if err != nil {
		return nil, err
	}
	to := from
	if decision.Completed {
		to = request.StatusApproved
		r.SetStatus(to, now)
	} else {
		r.Touch(now)
	}
	if err = s.requests.Save(ctx, r); err != nil {
		return nil, err
	}
	s.publish(ctx, r, request.ActionApprove, from, to, actor, comment)
	return r.Clone(), nil
}

// Reject turns the request back to its applicant. While in review the
// active approver rejects; once approved only a DBA may, and the comment is
// kept on the request.
func (s *Service) Reject(ctx context.Context, id string, actor *types.Actor, comment string) (*request.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.reject", "INTERNAL")
	var err error
	defer func() { tracing.EndSpan(span, err) }()
	if err = allowed(ctx, "request.reject"); err != nil {
		return nil, err
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	from := r.GetStatus()
	if !from.Allows(request.ActionReject) {
		err = types.NewConflictError("cannot reject request %s from status %s", r.FormID, from)
		return nil, err
	}
	now := clock.Now()
	var to request.Status
	if from == request.StatusApproved {
		if actor == nil || !actor.IsDBA() {
			err = types.NewAuthorizationError("only a DBA may reject an approved request")
			return nil, err
		}
		if comment == "" {
			err = types.NewValidationError("a rejection requires a comment")
			return nil, err
		}
		r.SetDBAComment(comment)
		to = request.StatusDBARejected
	} else {
		if _, err = s.approvals.Decide(r, actor, false, comment, now); err != nil {
			return nil, err
		}
		to = request.StatusManagerRejected
	}
	r.SetStatus(to, now)
	if err = s.requests.Save(ctx, r); err != nil {
		return nil, err
	}
	s.publish(ctx, r, request.ActionReject, from, to, actor, comment)
	return r.Clone(), nil
}

// Online closes an approved request as rolled out. DBA only; the comment is
// kept on the request.
func (s *Service) Online(ctx context.Context, id string, actor *types.Actor, comment string) (*request.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.online", "INTERNAL")
	var err error
	defer func() { tracing.EndSpan(span, err) }()
	if err = allowed(ctx, "request.online"); err != nil {
		return nil, err
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	from := r.GetStatus()
	if !from.Allows(request.ActionOnline) {
		err = types.NewConflictError("cannot set request %s online from status %s", r.FormID, from)
		return nil, err
	}
	if actor == nil || !actor.IsDBA() {
		err = types.NewAuthorizationError("only a DBA may set a request online")
		return nil, err
	}
	if comment == "" {
		err = types.NewValidationError("setting a request online requires a comment")
		return nil, err
	}
	r.SetDBAComment(comment)
	r.SetStatus(request.StatusOnline, clock.Now())
	if err = s.requests.Save(ctx, r); err != nil {
		return nil, err
	}
	s.publish(ctx, r, request.ActionOnline, from, request.StatusOnline, actor, comment)
	return r.Clone(), nil
}

// Void withdraws a draft for good.
func (s *Service) Void(ctx context.Context, id string, actor *types.Actor) (*request.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.void", "INTERNAL")
	var err error
	defer func() { tracing.EndSpan(span, err) }()
	if err = allowed(ctx, "request.void"); err != nil {
		return nil, err
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(r, actor) {
		err = types.NewAuthorizationError("only the applicant may void request %s", r.FormID)
		return nil, err
	}
	from := r.GetStatus()
	if !from.Allows(request.ActionVoid) {
		err = types.NewConflictError("cannot void request %s from status %s", r.FormID, from)
		return nil, err
	}
	r.SetStatus(request.StatusVoid, clock.Now())
	if err = s.requests.Save(ctx, r); err != nil {
		return nil, err
	}
	s.publish(ctx, r, request.ActionVoid, from, request.StatusVoid, actor, "")
	return r.Clone(), nil
}

// Request returns a deep copy of the request.
func (s *Service) Request(ctx context.Context, id string) (*request.Request, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

// List returns deep copies of all requests, optionally narrowed to the
// supplied statuses.
func (s *Service) List(ctx context.Context, statuses ...request.Status) ([]*request.Request, error) {
	var parameters []*dao.Parameter
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, status := range statuses {
			values = append(values, string(status))
		}
		parameters = append(parameters, dao.NewParameter("Status", values...))
	}
	all, err := s.requests.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	out := make([]*request.Request, 0, len(all))
	for _, r := range all {
		out = append(out, r.Clone())
	}
	return out, nil
}

// ActiveStep returns a copy of the step currently awaiting a decision, or
// nil when none is.
func (s *Service) ActiveStep(ctx context.Context, id string) (*request.Step, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.ActiveStep().Clone(), nil
}

// IsMyTurn reports whether the actor owns the currently active step.
func (s *Service) IsMyTurn(ctx context.Context, id string, actor *types.Actor) (bool, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	return approval.IsTurn(r, actor), nil
}

// Progress returns aggregated step and pipeline counters for the request.
func (s *Service) Progress(ctx context.Context, id string) (*progress.Progress, error) {
	r, err := s.Request(ctx, id)
	if err != nil {
		return nil, err
	}
	return progress.Of(r), nil
}

// SaveChain installs or replaces a department's approval chain. Requests
// already in review keep their snapshot.
func (s *Service) SaveChain(ctx context.Context, c *chain.Chain) error {
	return s.chains.Save(ctx, c)
}

// Chain returns a copy of a department's approval chain.
func (s *Service) Chain(ctx context.Context, department string) (*chain.Chain, error) {
	c, err := s.chains.Load(ctx, department)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, types.NewNotFoundError("chain", department)
		}
		return nil, err
	}
	return c, nil
}
