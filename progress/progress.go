// Package progress summarises how far a change request has travelled:
// aggregated approval-step and artifact-pipeline counters computed from a
// request snapshot, cheap enough for list views and dashboards.
package progress

import (
	"github.com/viant/changegate/model/request"
)

// Progress holds aggregated counters for one request.
type Progress struct {
	RequestID string         `json:"requestId"`
	FormID    string         `json:"formId"`
	Status    request.Status `json:"status"`

	StepsTotal    int `json:"stepsTotal"`
	StepsApproved int `json:"stepsApproved"`
	StepsPending  int `json:"stepsPending"`
	StepsRejected int `json:"stepsRejected"`

	FilesTotal    int `json:"filesTotal"`
	FilesBackedUp int `json:"filesBackedUp"`
	FilesCompiled int `json:"filesCompiled"`
	FilesDeployed int `json:"filesDeployed"`
}

// Of computes the counters from a request snapshot; pass a clone, the
// request is read without locking.
func Of(r *request.Request) *Progress {
	if r == nil {
		return nil
	}
	p := &Progress{
		RequestID: r.ID,
		FormID:    r.FormID,
		Status:    r.Status,
	}
	for _, step := range r.Steps {
		p.StepsTotal++
		switch step.Status {
		case request.StepApproved:
			p.StepsApproved++
		case request.StepRejected:
			p.StepsRejected++
		default:
			p.StepsPending++
		}
	}
	for _, f := range r.Files {
		p.FilesTotal++
		if f.IsBackup {
			p.FilesBackedUp++
		}
		if f.CompileStatus == request.ResultSuccess {
			p.FilesCompiled++
		}
		if f.DeployStatus == request.ResultSuccess {
			p.FilesDeployed++
		}
	}
	return p
}
