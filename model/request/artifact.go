package request

import (
	"path"
	"strings"
	"time"
)

// FileVersion tells whether an artifact introduces a new object or updates
// an existing one. Updates to DB objects require a captured backup before
// the request may leave an editable state.
type FileVersion string

const (
	VersionNew    FileVersion = "new"
	VersionUpdate FileVersion = "update"
)

// StepResult records the outcome of a per-file pipeline step. The zero
// value means the step has not run yet.
type StepResult string

const (
	ResultNone    StepResult = ""
	ResultSuccess StepResult = "success"
	ResultFailure StepResult = "failure"
)

// FileArtifact is one file attached to a change request, together with its
// backup and pipeline status. Artifacts are owned by exactly one request.
type FileArtifact struct {
	ID           string      `json:"id"`
	Sequence     int         `json:"sequence"`
	OriginalName string      `json:"originalName"`
	Description  string      `json:"description,omitempty"`
	Location     string      `json:"location,omitempty"` // afs URL of the uploaded content
	FileVersion  FileVersion `json:"fileVersion"`

	// DB object coordinates, required only for ProgramDBObject requests.
	DBObjectType string `json:"dbObjectType,omitempty"`
	DBObjectName string `json:"dbObjectName,omitempty"`
	DBSchemaName string `json:"dbSchemaName,omitempty"`

	IsBackup  bool       `json:"isBackup"`
	BackupRef string     `json:"backupRef,omitempty"`
	BackupAt  *time.Time `json:"backupAt,omitempty"`

	CompileStatus StepResult `json:"compileStatus,omitempty"`
	CompiledAt    *time.Time `json:"compiledAt,omitempty"`
	DeployStatus  StepResult `json:"deployStatus,omitempty"`
	DeployedAt    *time.Time `json:"deployedAt,omitempty"`

	UploadedAt time.Time `json:"uploadedAt"`
}

// Ext returns the lower-cased file extension including the leading dot.
func (f *FileArtifact) Ext() string {
	return strings.ToLower(path.Ext(f.OriginalName))
}

// NeedsBackup reports whether the artifact updates an object in place and
// has no captured backup yet.
func (f *FileArtifact) NeedsBackup() bool {
	return f.FileVersion == VersionUpdate && !f.IsBackup
}

// MarkBackup records a captured backup reference.
func (f *FileArtifact) MarkBackup(ref string, at time.Time) {
	f.IsBackup = true
	f.BackupRef = ref
	f.BackupAt = &at
}

// ClearBackup drops the backup marker, e.g. when the user retracts a manual
// backup claim while the request is still editable.
func (f *FileArtifact) ClearBackup() {
	f.IsBackup = false
	f.BackupRef = ""
	f.BackupAt = nil
}

// MarkCompiled overwrites the compile outcome with the latest result.
func (f *FileArtifact) MarkCompiled(result StepResult, at time.Time) {
	f.CompileStatus = result
	f.CompiledAt = &at
}

// MarkDeployed overwrites the deploy outcome with the latest result.
func (f *FileArtifact) MarkDeployed(result StepResult, at time.Time) {
	f.DeployStatus = result
	f.DeployedAt = &at
}

// Clone returns a deep copy of the artifact.
func (f *FileArtifact) Clone() *FileArtifact {
	if f == nil {
		return nil
	}
	out := *f
	out.BackupAt = cloneTime(f.BackupAt)
	out.CompiledAt = cloneTime(f.CompiledAt)
	out.DeployedAt = cloneTime(f.DeployedAt)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
