package editor

import (
	"errors"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Level is the severity of a notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a user-facing message raised by an editor action.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

const (
	MsgCreateFailed   = "Error creating new question. Please check console and try again."
	MsgSaveFailed     = "Error saving changes. Please check console and try again."
	MsgDeleteFailed   = "Error deleting question. Please check console and try again."
	MsgStartProtected = "Cannot delete the start node. Add real questions to replace it."
	MsgLoadFailed     = "Error loading questions. Showing a temporary start node."
	MsgLayoutFailed   = "Some node positions could not be saved."
	MsgFlowSaved      = "Flow is automatically saved as you make changes!"
	MsgMissingTenant  = "No partner selected. Select a partner before editing the flow."
)

// noticeFor maps an operation error to the message shown to the user. fallback
// is used for remote and unexpected failures.
func noticeFor(err error, fallback string) Notice {
	n := Notice{Level: LevelError, Err: err, Message: fallback}
	switch {
	case errors.Is(err, domain.ErrMissingContext):
		n.Message = MsgMissingTenant
	case errors.Is(err, domain.ErrStartNodeProtected), errors.Is(err, domain.ErrTemporaryNode):
		n.Message = MsgStartProtected
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrSelfRoute):
		n.Message = err.Error()
	}
	return n
}
