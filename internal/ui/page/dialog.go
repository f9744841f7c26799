package page

import "strings"

// DialogState is the confirmation step the site shows after a management action.
type DialogState int

const (
	// DialogAwaiting means the page has not settled enough to tell.
	DialogAwaiting DialogState = iota
	// DialogPIN asks for the profile PIN.
	DialogPIN
	// DialogPassword asks for the account password.
	DialogPassword
	// DialogNone means no confirmation is required.
	DialogNone
)

func (s DialogState) String() string {
	switch s {
	case DialogAwaiting:
		return "awaiting-dialog"
	case DialogPIN:
		return "pin-required"
	case DialogPassword:
		return "password-required"
	case DialogNone:
		return "none"
	default:
		return "unknown"
	}
}

// Dialog headings shown by the site.
const (
	HeadingPIN      = "Pro správu zadejte PIN profilu"
	HeadingPassword = "Pro správu profilu zadejte heslo k účtu"
)

// Snapshot is the DOM state read in a single query.
type Snapshot struct {
	Ready    bool     `json:"ready"`
	Headings []string `json:"headings"`
}

// ClassifyDialog maps a snapshot to a dialog state. A PIN heading wins over a
// password heading; a page that is still loading or has no headings yet is awaiting.
func ClassifyDialog(s Snapshot) DialogState {
	if !s.Ready || len(s.Headings) == 0 {
		return DialogAwaiting
	}
	password := false
	for _, h := range s.Headings {
		switch {
		case strings.Contains(h, HeadingPIN):
			return DialogPIN
		case strings.Contains(h, HeadingPassword):
			password = true
		}
	}
	if password {
		return DialogPassword
	}
	return DialogNone
}
