package pageindex

import (
	"errors"
	"fmt"
)

// ErrUnreadable matches any UnreadableError via errors.Is.
var ErrUnreadable = errors.New("unreadable pdf")

// UnreadableError reports a PDF whose text cannot be extracted: encrypted
// without a usable password, corrupt, or without a text layer.
type UnreadableError struct {
	Reason    string
	Encrypted bool
	Err       error
}

func (e *UnreadableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unreadable pdf: %s: %v", e.Reason, e.Err)
	}
	return "unreadable pdf: " + e.Reason
}

func (e *UnreadableError) Unwrap() error { return e.Err }

func (e *UnreadableError) Is(target error) bool { return target == ErrUnreadable }
