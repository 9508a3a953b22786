// Package remote defines the narrow contracts through which the engine
// reaches the legacy host: compiling artifacts, publishing files and
// extracting database object definitions. Every operation reports through a
// structured operation log; transports behind the contracts are opaque.
package remote

import (
	"context"

	"github.com/viant/changegate/oplog"
)

// CompileJob describes one artifact to compile on the legacy host.
type CompileJob struct {
	FileName  string // artifact file name, e.g. FLASSIGN02.fmb
	Library   bool   // true for .pll libraries, false for .fmb forms
	SourceDir string // directory holding the source on the remote host
	TargetDir string // directory compiled forms are moved to
}

// Compiler compiles one artifact remotely. The boolean reports whether the
// artifact compiled and verified; a non-nil error signals an infrastructure
// failure (connection, timeout) that aborts the whole operation.
type Compiler interface {
	Compile(ctx context.Context, job *CompileJob, log *oplog.Log) (bool, error)
}

// UploadJob describes one artifact to publish.
type UploadJob struct {
	SourceURL  string // afs URL of the locally stored artifact content
	DestDir    string // destination directory URL on the target host
	FileName   string // destination file name
	BackupName string // name the existing remote copy is renamed to first
}

// Uploader publishes one artifact, renaming any existing remote copy to the
// backup name beforehand. Same error semantics as Compiler.
type Uploader interface {
	Upload(ctx context.Context, job *UploadJob, log *oplog.Log) (bool, error)
}

// DDLSource extracts the current definition of a database object by its
// schema, name and type.
type DDLSource interface {
	ExtractDDL(ctx context.Context, schema, object, objectType string) (string, error)
}

// Runner executes a shell command on the legacy host and returns combined
// stdout, the exit status and any transport error.
type Runner interface {
	Run(ctx context.Context, command string, timeoutMs int) (string, int, error)
}
