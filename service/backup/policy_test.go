package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/model/types"
)

func TestCheckPolicy(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	dbRequest := func(files ...*request.FileArtifact) *request.Request {
		r := request.New("r-1", "FL202503100001", request.ProgramDBObject, now)
		for _, f := range files {
			r.AddFile(f)
		}
		return r
	}

	t.Run("update without backup blocks", func(t *testing.T) {
		r := dbRequest(&request.FileArtifact{
			ID: "f1", OriginalName: "PKG_FL.sql", FileVersion: request.VersionUpdate,
			DBSchemaName: "ERP", DBObjectName: "PKG_FL",
		})
		err := CheckPolicy(r)
		var validation *types.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("backed up update passes", func(t *testing.T) {
		f := &request.FileArtifact{ID: "f1", OriginalName: "PKG_FL.sql", FileVersion: request.VersionUpdate}
		f.MarkBackup("backups/PKG_FL.sql", now)
		assert.Nil(t, CheckPolicy(dbRequest(f)))
	})

	t.Run("new objects need no backup", func(t *testing.T) {
		assert.Nil(t, CheckPolicy(dbRequest(&request.FileArtifact{
			ID: "f1", OriginalName: "NEW_TBL.sql", FileVersion: request.VersionNew,
		})))
	})

	t.Run("non db object requests pass", func(t *testing.T) {
		r := request.New("r-2", "FL202503100002", request.ProgramForm, now)
		r.AddFile(&request.FileArtifact{ID: "f1", OriginalName: "FLASSIGN02.fmb", FileVersion: request.VersionUpdate})
		assert.Nil(t, CheckPolicy(r))
	})
}
