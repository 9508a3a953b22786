// Package chain holds the per-department approval chain configuration. A
// chain is read-many/rarely-written configuration with a lifecycle of its
// own: editing a chain never touches requests that already snapshotted it.
package chain

import "sort"

// Entry assigns one approver to one ordered position of a department chain.
type Entry struct {
	StepOrder  int    `json:"stepOrder"`
	ApproverID string `json:"approverId"`
	Approver   string `json:"approver,omitempty"`
	Notify     bool   `json:"notify"`
	Active     bool   `json:"active"`
}

// Chain is the ordered approver list of one department.
type Chain struct {
	Department string   `json:"department"`
	Entries    []*Entry `json:"entries,omitempty"`
}

// ActiveEntries returns the active entries ordered by StepOrder. Inactive
// assignments are configuration leftovers and never materialise into steps.
func (c *Chain) ActiveEntries() []*Entry {
	if c == nil {
		return nil
	}
	out := make([]*Entry, 0, len(c.Entries))
	for _, e := range c.Entries {
		if e.Active {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StepOrder < out[j].StepOrder
	})
	return out
}

// Clone returns a deep copy of the chain.
func (c *Chain) Clone() *Chain {
	if c == nil {
		return nil
	}
	out := &Chain{Department: c.Department}
	if len(c.Entries) > 0 {
		out.Entries = make([]*Entry, len(c.Entries))
		for i, e := range c.Entries {
			entry := *e
			out.Entries[i] = &entry
		}
	}
	return out
}
