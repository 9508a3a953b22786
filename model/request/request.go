package request

import (
	"sync"
	"time"
)

// Request is one change-control record moving through approval and
// deployment. It exclusively owns its approval-step snapshot and its file
// artifacts; the department chain it was snapshotted from is never
// referenced back.
type Request struct {
	ID          string      `json:"id"`
	FormID      string      `json:"formId"`
	ModuleCode  string      `json:"moduleCode,omitempty"`
	PathCode    string      `json:"pathCode,omitempty"` // overrides ModuleCode when resolving deploy paths
	ProgramType ProgramType `json:"programType"`
	Description string      `json:"description,omitempty"`
	HasTested   bool        `json:"hasTested"`
	Status      Status      `json:"status"`

	ApplicantID   string `json:"applicantId"`
	ApplicantName string `json:"applicantName,omitempty"`
	Department    string `json:"department,omitempty"`
	DBAComment    string `json:"dbaComment,omitempty"`

	Files []*FileArtifact `json:"files,omitempty"`
	Steps []*Step         `json:"steps,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`

	mu sync.RWMutex
}

// New creates a draft request.
func New(id, formID string, programType ProgramType, now time.Time) *Request {
	return &Request{
		ID:          id,
		FormID:      formID,
		ProgramType: programType,
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// GetStatus returns the current lifecycle status.
func (r *Request) GetStatus() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Status
}

// SetStatus updates the lifecycle status and stamps UpdatedAt; terminal
// states additionally stamp FinishedAt.
func (r *Request) SetStatus(status Status, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.UpdatedAt = now
	if status.Terminal() {
		finished := now
		r.FinishedAt = &finished
	}
}

// Touch stamps UpdatedAt.
func (r *Request) Touch(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpdatedAt = now
}

// SetDBAComment records the comment accompanying a DBA action.
func (r *Request) SetDBAComment(comment string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DBAComment = comment
}

// UpdateDetails replaces the editable header fields.
func (r *Request) UpdateDetails(moduleCode, pathCode string, programType ProgramType, description string, hasTested bool, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ModuleCode = moduleCode
	r.PathCode = pathCode
	r.ProgramType = programType
	r.Description = description
	r.HasTested = hasTested
	r.UpdatedAt = now
}

// MutateFile runs fn on the owned artifact with the given id under the
// aggregate lock and reports whether the artifact exists.
func (r *Request) MutateFile(id string, fn func(*FileArtifact)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.Files {
		if f.ID == id {
			fn(f)
			return true
		}
	}
	return false
}

// ActiveStep derives the single actionable step: the lowest StepOrder among
// pending steps, provided no step with a lower order is undecided or
// rejected. It returns nil when all steps are approved or any step has been
// rejected. The active step is always derived, never stored.
func (r *Request) ActiveStep() *Step {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return activeStep(r.Steps)
}

func activeStep(steps []*Step) *Step {
	var active *Step
	for _, step := range steps {
		switch step.Status {
		case StepRejected:
			return nil
		case StepPending:
			if active == nil || step.StepOrder < active.StepOrder {
				active = step
			}
		}
	}
	return active
}

// PendingSteps counts steps without a decision.
func (r *Request) PendingSteps() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, step := range r.Steps {
		if step.Status == StepPending {
			n++
		}
	}
	return n
}

// ReplaceSteps discards the current approval snapshot and installs a fresh
// one; resubmission after a rejection restarts the chain from step one.
func (r *Request) ReplaceSteps(steps []*Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Steps = steps
}

// AddFile attaches an artifact.
func (r *Request) AddFile(file *FileArtifact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Files = append(r.Files, file)
}

// FileByID returns the owned artifact with the given id, or nil.
func (r *Request) FileByID(id string) *FileArtifact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.Files {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// RemoveFile detaches the artifact with the given id and reports whether it
// was present.
func (r *Request) RemoveFile(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	files := r.Files[:0]
	removed := false
	for _, f := range r.Files {
		if f.ID == id {
			removed = true
			continue
		}
		files = append(files, f)
	}
	r.Files = files
	return removed
}

// Clone returns a deep copy safe for lock-free reads outside the store. The
// mutex itself is intentionally not copied.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := &Request{
		ID:            r.ID,
		FormID:        r.FormID,
		ModuleCode:    r.ModuleCode,
		PathCode:      r.PathCode,
		ProgramType:   r.ProgramType,
		Description:   r.Description,
		HasTested:     r.HasTested,
		Status:        r.Status,
		ApplicantID:   r.ApplicantID,
		ApplicantName: r.ApplicantName,
		Department:    r.Department,
		DBAComment:    r.DBAComment,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		FinishedAt:    cloneTime(r.FinishedAt),
	}
	if len(r.Files) > 0 {
		out.Files = make([]*FileArtifact, len(r.Files))
		for i, f := range r.Files {
			out.Files[i] = f.Clone()
		}
	}
	if len(r.Steps) > 0 {
		out.Steps = make([]*Step, len(r.Steps))
		for i, s := range r.Steps {
			out.Steps[i] = s.Clone()
		}
	}
	return out
}

// CopyFrom updates mutable fields from src, keeping the receiver's mutex
// intact. Used by stores that keep one canonical instance per id.
func (r *Request) CopyFrom(src *Request) {
	if src == nil || r == src {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ModuleCode = src.ModuleCode
	r.PathCode = src.PathCode
	r.ProgramType = src.ProgramType
	r.Description = src.Description
	r.HasTested = src.HasTested
	r.Status = src.Status
	r.DBAComment = src.DBAComment
	r.Files = src.Files
	r.Steps = src.Steps
	r.UpdatedAt = src.UpdatedAt
	r.FinishedAt = src.FinishedAt
}
