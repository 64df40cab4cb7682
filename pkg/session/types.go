package session

// Status represents the session lifecycle state.
type Status string

const (
	// StatusPending means the session awaits operator consent.
	StatusPending Status = "pending"
	// StatusActive means the operator currently holds control.
	StatusActive Status = "active"
	// StatusEnded is the terminal state of a completed session.
	StatusEnded Status = "ended"
	// StatusFailed is the terminal state of a refused or broken session.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	return s == StatusEnded || s == StatusFailed
}

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusEnded, StatusFailed:
		return true
	}
	return false
}

// Operator identifies the caller requesting control. Identity is
// supplied by the upstream authentication layer, not derived here.
type Operator struct {
	UserID string
	Name   string
	Role   string
}

// NetworkContext carries the request network metadata stored with the
// session for audit purposes.
type NetworkContext struct {
	IPAddress string
	UserAgent string
}

// ListFilter narrows List results. Zero fields are ignored.
type ListFilter struct {
	AssetID        string
	OperatorUserID string
	Status         Status
}

// Permissions granted to every session token. Clipboard and file
// transfer are added when the policy snapshot allows them.
const (
	PermissionView         = "view"
	PermissionInput        = "input"
	PermissionClipboard    = "clipboard"
	PermissionFileTransfer = "file_transfer"
)
