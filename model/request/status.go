package request

// Status is the closed set of lifecycle states a change request moves
// through. The zero value is not a valid status; requests are born in
// StatusDraft.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusReviewing       Status = "reviewing"
	StatusManagerRejected Status = "manager_rejected"
	StatusApproved        Status = "approved"
	StatusDBARejected     Status = "dba_rejected"
	StatusOnline          Status = "online"
	StatusVoid            Status = "void"
)

// Action is a lifecycle-mutating verb.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionOnline  Action = "online"
	ActionVoid    Action = "void"
)

// allowed enumerates, per action, the statuses the action may be invoked
// from. Anything outside this table is a conflict, never silently ignored.
var allowed = map[Action]map[Status]bool{
	ActionSubmit: {
		StatusDraft:           true,
		StatusManagerRejected: true,
		StatusDBARejected:     true,
	},
	ActionApprove: {
		StatusReviewing: true,
	},
	ActionReject: {
		StatusReviewing: true,
		StatusApproved:  true,
	},
	ActionOnline: {
		StatusApproved: true,
	},
	ActionVoid: {
		StatusDraft: true,
	},
}

// Allows reports whether action may be attempted while in status s.
func (s Status) Allows(action Action) bool {
	return allowed[action][s]
}

// Editable reports whether request fields and artifacts may still be
// mutated: drafts and rejected requests are re-editable.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusManagerRejected || s == StatusDBARejected
}

// Terminal reports whether no further lifecycle action is defined.
func (s Status) Terminal() bool {
	return s == StatusVoid || s == StatusOnline
}

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReviewing, StatusManagerRejected, StatusApproved,
		StatusDBARejected, StatusOnline, StatusVoid:
		return true
	}
	return false
}

// ProgramType categorises the artifact kind a request changes.
type ProgramType string

const (
	ProgramForm           ProgramType = "Form"
	ProgramReport         ProgramType = "Report"
	ProgramSQL            ProgramType = "SQL"
	ProgramLibrary        ProgramType = "Library"
	ProgramDBObject       ProgramType = "DB Object"
	ProgramTerminalAccess ProgramType = "Terminal Access"
)

// Compilable reports whether the program type has a remote compile step.
func (p ProgramType) Compilable() bool {
	return p == ProgramForm || p == ProgramLibrary
}

// Valid reports whether p is a member of the closed program type set.
func (p ProgramType) Valid() bool {
	switch p {
	case ProgramForm, ProgramReport, ProgramSQL, ProgramLibrary,
		ProgramDBObject, ProgramTerminalAccess:
		return true
	}
	return false
}
