package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/graph"
	"github.com/aretw0/flowcanvas/pkg/lifecycle"
	"github.com/aretw0/flowcanvas/pkg/viewport"
)

// ChildOffset places a node created from a node's menu relative to that node.
var ChildOffset = domain.Position{X: 150, Y: 50}

// NodeHalfWidth is the half width used when framing the graph.
const NodeHalfWidth = 140

// Hint is the static help text of the status bar.
const Hint = "Click & drag background to pan • Right-click to add nodes • Double-click to edit"

// Editor is the interaction state of the canvas: selection, the open
// creation menu, the node editor overlay and pending notices. It translates
// gestures into lifecycle operations and never mutates the graph directly.
type Editor struct {
	mgr    *lifecycle.Manager
	view   *viewport.Viewport
	logger *slog.Logger
	notify func(Notice)

	mu       sync.Mutex
	selected string
	menu     *Menu
	draft    *lifecycle.Draft
	notices  []Notice
}

// Option configures the Editor.
type Option func(*Editor)

// WithLogger configures a logger for the Editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithNoticeHandler is called for every notice as it is raised.
func WithNoticeHandler(fn func(Notice)) Option {
	return func(e *Editor) {
		e.notify = fn
	}
}

// WithViewport replaces the default viewport, which has no listener host.
func WithViewport(v *viewport.Viewport) Option {
	return func(e *Editor) {
		e.view = v
	}
}

// New creates an Editor over mgr.
func New(mgr *lifecycle.Manager, opts ...Option) *Editor {
	e := &Editor{
		mgr:    mgr,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.view == nil {
		e.view = viewport.New(nil)
	}
	return e
}

// Viewport returns the pan/zoom state.
func (e *Editor) Viewport() *viewport.Viewport {
	return e.view
}

// Manager returns the lifecycle manager.
func (e *Editor) Manager() *lifecycle.Manager {
	return e.mgr
}

// Open loads the graph. A load failure raises a notice; the fallback graph is
// shown regardless.
func (e *Editor) Open(ctx context.Context) error {
	err := e.mgr.Load(ctx)
	if err != nil {
		e.raise(noticeFor(err, MsgLoadFailed))
	}
	return err
}

// Refresh reloads the graph from the store.
func (e *Editor) Refresh(ctx context.Context) error {
	return e.Open(ctx)
}

// PointerDown starts a pan when the pointer is over the background.
func (e *Editor) PointerDown(pointer domain.Position, nodeID string) bool {
	return e.view.BeginPan(pointer, nodeID != "")
}

// PointerMove forwards a pointer move to an active pan.
func (e *Editor) PointerMove(pointer domain.Position) {
	e.view.Move(pointer)
}

// PointerUp ends an active pan.
func (e *Editor) PointerUp(pointer domain.Position) {
	e.view.End(pointer)
}

// Click selects nodeID, or clears the selection when the background is
// clicked outside a pan. Either way the menu closes.
func (e *Editor) Click(nodeID string) {
	if nodeID == "" && e.view.Panning() {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if nodeID != "" {
		if _, ok := e.mgr.Graph().Node(nodeID); !ok {
			return
		}
	}
	e.selected = nodeID
	e.menu = nil
}

// DoubleClick opens the node editor overlay on nodeID.
func (e *Editor) DoubleClick(nodeID string) error {
	d, err := e.mgr.Edit(nodeID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = d
	e.menu = nil
	return nil
}

// RightClick opens the creation menu. screen and origin are the pointer and
// container positions in screen space. On a node the new node is placed at a
// fixed offset from it and becomes its child; on the background it is placed
// under the pointer.
func (e *Editor) RightClick(screen, origin domain.Position, nodeID string) (Menu, error) {
	m := Menu{Screen: domain.Position{X: screen.X - origin.X, Y: screen.Y - origin.Y}}
	if nodeID != "" {
		n, ok := e.mgr.Graph().Node(nodeID)
		if !ok {
			return Menu{}, domain.ErrNodeNotFound
		}
		m.Parent = nodeID
		m.Canvas = domain.Position{X: n.Position.X + ChildOffset.X, Y: n.Position.Y + ChildOffset.Y}
	} else {
		m.Canvas = e.view.ScreenToCanvas(screen, origin)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.menu = &m
	return m, nil
}

// Search filters the open menu.
func (e *Editor) Search(query string) []MenuItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.menu == nil {
		return nil
	}
	e.menu.Query = query
	return e.menu.Items()
}

// Menu returns the open creation menu.
func (e *Editor) Menu() (Menu, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.menu == nil {
		return Menu{}, false
	}
	return *e.menu, true
}

// Choose creates a node of kind from the open menu and closes it.
func (e *Editor) Choose(ctx context.Context, kind domain.NodeKind) (domain.Node, error) {
	e.mu.Lock()
	m := e.menu
	e.menu = nil
	e.mu.Unlock()
	if m == nil {
		return domain.Node{}, errors.New("no menu is open")
	}

	n, err := e.mgr.Create(ctx, kind, &m.Canvas, m.Parent)
	if err != nil {
		e.logger.Error("failed to create node", "kind", kind, "parent", m.Parent, "err", err)
		e.raise(noticeFor(err, MsgCreateFailed))
		return n, err
	}
	return n, nil
}

// CreateNode creates a node outside the menu flow, for callers that supply
// the position and parent themselves.
func (e *Editor) CreateNode(ctx context.Context, kind domain.NodeKind, pos *domain.Position, parentID string) (domain.Node, error) {
	n, err := e.mgr.Create(ctx, kind, pos, parentID)
	if err != nil {
		e.logger.Error("failed to create node", "kind", kind, "parent", parentID, "err", err)
		e.raise(noticeFor(err, MsgCreateFailed))
		return n, err
	}
	return n, nil
}

// SaveNode edits a private copy of nodeID with fn and saves it. The overlay
// is left untouched, so concurrent callers never share a draft.
func (e *Editor) SaveNode(ctx context.Context, nodeID string, fn func(*lifecycle.Draft)) (domain.Node, error) {
	d, err := e.mgr.Edit(nodeID)
	if err != nil {
		e.raise(noticeFor(err, MsgSaveFailed))
		return domain.Node{}, err
	}
	fn(d)
	n, err := e.mgr.Save(ctx, d)
	if err != nil {
		e.logger.Error("failed to save node", "node_id", nodeID, "err", err)
		e.raise(noticeFor(err, MsgSaveFailed))
		return domain.Node{}, err
	}
	e.mu.Lock()
	if e.selected == nodeID {
		e.selected = n.ID
	}
	e.mu.Unlock()
	return n, nil
}

// Draft returns the node editor overlay, if open.
func (e *Editor) Draft() (*lifecycle.Draft, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft, e.draft != nil
}

// SaveDraft saves the open overlay and closes it on success.
func (e *Editor) SaveDraft(ctx context.Context) (domain.Node, error) {
	e.mu.Lock()
	d := e.draft
	e.mu.Unlock()
	if d == nil {
		return domain.Node{}, errors.New("no node is being edited")
	}
	n, err := e.mgr.Save(ctx, d)
	if err != nil {
		e.logger.Error("failed to save node", "node_id", d.ID, "err", err)
		e.raise(noticeFor(err, MsgSaveFailed))
		return domain.Node{}, err
	}
	e.mu.Lock()
	if e.draft == d {
		e.draft = nil
	}
	if e.selected == d.ID {
		e.selected = n.ID
	}
	e.mu.Unlock()
	return n, nil
}

// Escape closes the overlay and the menu.
func (e *Editor) Escape() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = nil
	e.menu = nil
}

// Delete removes nodeID and clears the selection.
func (e *Editor) Delete(ctx context.Context, nodeID string) error {
	if err := e.mgr.Delete(ctx, nodeID); err != nil {
		if !errors.Is(err, domain.ErrStartNodeProtected) && !errors.Is(err, domain.ErrTemporaryNode) {
			e.logger.Error("failed to delete node", "node_id", nodeID, "err", err)
		}
		e.raise(noticeFor(err, MsgDeleteFailed))
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = ""
	e.menu = nil
	if e.draft != nil && e.draft.ID == nodeID {
		e.draft = nil
	}
	return nil
}

// AutoLayout re-levels the graph and stores the new positions.
func (e *Editor) AutoLayout(ctx context.Context) error {
	err := e.mgr.AutoLayout(ctx)
	if err != nil {
		e.raise(noticeFor(err, MsgLayoutFailed))
	}
	return err
}

// SaveFlow reports that every change is already persisted.
func (e *Editor) SaveFlow() Notice {
	s := e.mgr.Graph().Stats()
	e.logger.Info("flow state", "nodes", s.Nodes, "connections", s.Connections)
	n := Notice{Level: LevelInfo, Message: MsgFlowSaved}
	e.raise(n)
	return n
}

// ZoomIn applies one zoom step.
func (e *Editor) ZoomIn() viewport.Transform { return e.view.ZoomIn() }

// ZoomOut applies one zoom-out step.
func (e *Editor) ZoomOut() viewport.Transform { return e.view.ZoomOut() }

// ResetView returns the viewport to identity.
func (e *Editor) ResetView() { e.view.Reset() }

// FitView frames every node inside a viewport of the given size.
func (e *Editor) FitView(size viewport.Size, padding float64) viewport.Transform {
	b, ok := graph.Extent(e.mgr.Graph().Nodes(), NodeHalfWidth)
	if !ok {
		e.view.Reset()
		return e.view.Transform()
	}
	e.view.SetTransform(viewport.Fit(b.Min, b.Max, size, padding))
	return e.view.Transform()
}

// Selected returns the selected node.
func (e *Editor) Selected() (domain.Node, bool) {
	e.mu.Lock()
	id := e.selected
	e.mu.Unlock()
	if id == "" {
		return domain.Node{}, false
	}
	return e.mgr.Graph().Node(id)
}

// Notices drains the pending notices.
func (e *Editor) Notices() []Notice {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.notices
	e.notices = nil
	return out
}

// Status returns the current status bar.
func (e *Editor) Status() StatusBar {
	s := e.mgr.Graph().Stats()
	t := e.view.Transform()
	bar := StatusBar{
		Tenant:      e.mgr.Controller().Tenant(),
		Nodes:       s.Nodes,
		Connections: s.Connections,
		Position:    domain.Position{X: t.X, Y: t.Y},
		Zoom:        t.Percent(),
	}
	if n, ok := e.Selected(); ok {
		bar.Selected = n.Content.Text
	}
	return bar
}

func (e *Editor) raise(n Notice) {
	e.mu.Lock()
	e.notices = append(e.notices, n)
	fn := e.notify
	e.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

// StatusBar is the one-line summary shown under the canvas.
type StatusBar struct {
	Tenant      string          `json:"tenant"`
	Nodes       int             `json:"nodes"`
	Connections int             `json:"connections"`
	Position    domain.Position `json:"position"`
	Zoom        int             `json:"zoom"`
	Selected    string          `json:"selected,omitempty"`
}

// String renders the bar the way the canvas footer shows it.
func (s StatusBar) String() string {
	out := fmt.Sprintf("🏢 %s  %d nodes  %d connections  Position: %.0f, %.0f  Zoom: %d%%",
		s.Tenant, s.Nodes, s.Connections, s.Position.X, s.Position.Y, s.Zoom)
	if s.Selected != "" {
		out += "  • " + truncate(s.Selected, 30) + "..."
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
