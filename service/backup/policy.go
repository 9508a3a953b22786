package backup

import (
	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/model/types"
)

// CheckPolicy enforces the backup-before-update invariant: a DB Object
// request may not leave an editable state while any of its update-version
// artifacts lacks a captured backup. The gate runs on every submit, so an
// update file attached after a rejection blocks resubmission until it is
// backed up too. Other program types pass unconditionally.
func CheckPolicy(r *request.Request) error {
	if r.ProgramType != request.ProgramDBObject {
		return nil
	}
	for _, f := range r.Files {
		if f.NeedsBackup() {
			return types.NewValidationError("file %q updates %s.%s without a backup; capture one before submitting",
				f.OriginalName, f.DBSchemaName, f.DBObjectName)
		}
	}
	return nil
}
