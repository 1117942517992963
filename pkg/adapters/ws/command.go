package ws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/lifecycle"
)

// Command ops accepted from clients.
const (
	OpCreate  = "create"
	OpDelete  = "delete"
	OpLayout  = "layout"
	OpRefresh = "refresh"
	OpSave    = "save"
	OpStatus  = "status"
)

// Command is a frame received from a client.
type Command struct {
	Op       string           `json:"op"`
	Kind     domain.NodeKind  `json:"kind,omitempty"`
	Parent   string           `json:"parent,omitempty"`
	NodeID   string           `json:"nodeId,omitempty"`
	Position *domain.Position `json:"position,omitempty"`
	Text     string           `json:"text,omitempty"`
}

var errNoEditor = errors.New("no editor attached")

// apply runs cmd against the attached editor and returns the reply frame.
// Resulting graph events reach every client through the hooks.
func (h *Hub) apply(ctx context.Context, cmd Command) Message {
	ed := h.attached()
	if ed == nil {
		return Message{Type: TypeError, Op: cmd.Op, Error: errNoEditor.Error()}
	}

	var err error
	switch cmd.Op {
	case OpCreate:
		_, err = ed.CreateNode(ctx, cmd.Kind, cmd.Position, cmd.Parent)
	case OpDelete:
		err = ed.Delete(ctx, cmd.NodeID)
	case OpLayout:
		err = ed.AutoLayout(ctx)
	case OpRefresh:
		err = ed.Refresh(ctx)
	case OpSave:
		_, err = ed.SaveNode(ctx, cmd.NodeID, func(d *lifecycle.Draft) {
			d.Text = cmd.Text
		})
	case OpStatus:
		return Message{Type: TypeAck, Op: cmd.Op, Status: h.status()}
	default:
		err = fmt.Errorf("unknown op %q", cmd.Op)
	}

	if err != nil {
		msg := Message{Type: TypeError, Op: cmd.Op, Error: err.Error()}
		for _, n := range ed.Notices() {
			msg.Notice = &n
		}
		return msg
	}
	return Message{Type: TypeAck, Op: cmd.Op, Status: h.status()}
}
