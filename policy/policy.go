package policy

import (
	"context"
	"strings"
)

// Policy narrows which engine actions a deployment permits, regardless of
// role checks. A nil *Policy allows everything and is the zero-cost default.
//
// Actions are fully qualified names such as "request.submit" or
// "pipeline.deploy"; both lists match case-insensitively and BlockList wins.
type Policy struct {
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// IsAllowed evaluates AllowList and BlockList for the action.
func (p *Policy) IsAllowed(action string) bool {
	if p == nil {
		return true
	}
	normalized := strings.ToLower(action)
	for _, b := range p.BlockList {
		if normalized == strings.ToLower(b) {
			return false
		}
	}
	if len(p.AllowList) == 0 {
		return true
	}
	for _, a := range p.AllowList {
		if normalized == strings.ToLower(a) {
			return true
		}
	}
	return false
}

type policyKey struct{}

// WithPolicy attaches the policy to the context.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, policyKey{}, p)
}

// FromContext returns the policy attached to the context, or nil.
func FromContext(ctx context.Context) *Policy {
	p, _ := ctx.Value(policyKey{}).(*Policy)
	return p
}
