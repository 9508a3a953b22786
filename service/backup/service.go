// Package backup captures pre-change snapshots of database objects about to
// be updated. A snapshot is either extracted live from the database or
// supplied by the applicant; either way the stored reference satisfies the
// backup gate checked on submit.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/changegate/internal/clock"
	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/model/types"
	"github.com/viant/changegate/oplog"
	"github.com/viant/changegate/remote"
)

// Result describes a captured backup.
type Result struct {
	Ref string        `json:"ref"`
	At  time.Time     `json:"at"`
	Log []oplog.Entry `json:"log"`
}

// Service captures and stores object backups.
type Service struct {
	fs      afs.Service
	ddl     remote.DDLSource
	baseURL string
}

// New creates a backup service storing snapshots under baseURL.
func New(ddl remote.DDLSource, baseURL string) *Service {
	return &Service{fs: afs.New(), ddl: ddl, baseURL: baseURL}
}

// Auto extracts the current definition of the file's database object and
// stores it as the backup. The file must carry complete object coordinates.
func (s *Service) Auto(ctx context.Context, r *request.Request, file *request.FileArtifact) (*Result, error) {
	log := oplog.New()
	if file.DBSchemaName == "" || file.DBObjectName == "" || file.DBObjectType == "" {
		return nil, types.NewValidationError("file %q has incomplete object coordinates, need schema, object and type", file.OriginalName)
	}
	log.Infof("extracting DDL for %s.%s (%s)", file.DBSchemaName, file.DBObjectName, file.DBObjectType)
	ddl, err := s.ddl.ExtractDDL(ctx, file.DBSchemaName, file.DBObjectName, file.DBObjectType)
	if err != nil {
		log.Errorf("extraction failed: %v", err)
		return nil, types.NewRemoteOperationError("backup", log.Entries(), err)
	}
	log.Successf("extracted %d bytes", len(ddl))

	now := clock.Now()
	name := fmt.Sprintf("%s_%s_%s.sql", now.Format("20060102150405"), file.DBSchemaName, file.DBObjectName)
	ref := url.Join(s.baseURL, r.ID, name)
	if err = s.fs.Upload(ctx, ref, 0o644, bytes.NewReader([]byte(ddl))); err != nil {
		log.Errorf("failed to store backup: %v", err)
		return nil, types.NewRemoteOperationError("backup", log.Entries(), err)
	}
	log.Successf("backup stored at %s", ref)
	return &Result{Ref: ref, At: now, Log: log.Entries()}, nil
}

// Manual stores applicant-supplied backup content, for objects the metadata
// API cannot extract or that were snapshotted out of band.
func (s *Service) Manual(ctx context.Context, r *request.Request, file *request.FileArtifact, name string, content []byte) (*Result, error) {
	log := oplog.New()
	if len(content) == 0 {
		return nil, types.NewValidationError("manual backup for file %q has no content", file.OriginalName)
	}
	if name == "" {
		name = file.OriginalName + ".bak"
	}
	now := clock.Now()
	ref := url.Join(s.baseURL, r.ID, fmt.Sprintf("%s_%s", now.Format("20060102150405"), name))
	if err := s.fs.Upload(ctx, ref, 0o644, bytes.NewReader(content)); err != nil {
		log.Errorf("failed to store backup: %v", err)
		return nil, types.NewRemoteOperationError("backup", log.Entries(), err)
	}
	log.Successf("manual backup stored at %s", ref)
	return &Result{Ref: ref, At: now, Log: log.Entries()}, nil
}
