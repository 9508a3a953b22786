// Package event publishes request lifecycle transitions to a queue so
// external listeners (mail notifiers, audit sinks) can react without being
// wired into the engine. Delivery is at-least-once; listeners are external
// and mail rendering stays out of scope.
package event

import (
	"time"

	"github.com/viant/changegate/model/request"
)

// Event records one lifecycle transition of a change request.
type Event struct {
	RequestID string         `json:"requestId"`
	FormID    string         `json:"formId"`
	Action    request.Action `json:"action"`
	From      request.Status `json:"from"`
	To        request.Status `json:"to"`
	ActorID   string         `json:"actorId"`
	ActorName string         `json:"actorName"`
	Comment   string         `json:"comment,omitempty"`

	// NextApproverID names the approver whose turn the transition opened,
	// set only when that chain entry carries the notify flag.
	NextApproverID string `json:"nextApproverId,omitempty"`

	At time.Time `json:"at"`
}
