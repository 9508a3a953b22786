// Package transfer publishes artifacts to their destination directories
// through afs, so the same code serves file, scp or sftp destinations. A
// remote copy about to be overwritten is renamed aside first.
package transfer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/changegate/oplog"
	"github.com/viant/changegate/remote"
)

// Uploader publishes artifact content via afs.
type Uploader struct {
	fs afs.Service
}

var _ remote.Uploader = (*Uploader)(nil)

// New creates an Uploader.
func New() *Uploader {
	return &Uploader{fs: afs.New()}
}

// Upload copies the job's source to its destination. When the destination
// already holds a file it is renamed to the backup name first; an existing
// backup of that name is preserved and only the main file is overwritten.
// A false return means this file failed but the operation may continue with
// the remaining files.
func (u *Uploader) Upload(ctx context.Context, job *remote.UploadJob, log *oplog.Log) (bool, error) {
	destURL := url.Join(job.DestDir, job.FileName)

	exists, err := u.fs.Exists(ctx, destURL)
	if err != nil {
		return false, fmt.Errorf("failed to probe %s: %w", destURL, err)
	}
	if exists {
		backupURL := url.Join(job.DestDir, job.BackupName)
		log.Warningf("file exists, backing up to %s", job.BackupName)
		backupExists, bErr := u.fs.Exists(ctx, backupURL)
		switch {
		case bErr != nil:
			log.Errorf("backup probe failed for %s: %v", job.FileName, bErr)
		case backupExists:
			log.Warningf("backup %s already exists, preserving it", job.BackupName)
		default:
			if mErr := u.fs.Move(ctx, destURL, backupURL); mErr != nil {
				log.Errorf("backup failed for %s: %v", job.FileName, mErr)
			}
		}
	}

	log.Infof("uploading %s -> %s", job.FileName, destURL)
	data, err := u.fs.DownloadWithURL(ctx, job.SourceURL)
	if err != nil {
		log.Errorf("failed to read %s: %v", job.SourceURL, err)
		return false, nil
	}
	if err = u.fs.Upload(ctx, destURL, 0o644, bytes.NewReader(data)); err != nil {
		log.Errorf("failed to upload %s: %v", job.FileName, err)
		return false, nil
	}
	log.Successf("uploaded %s", job.FileName)
	return true, nil
}
