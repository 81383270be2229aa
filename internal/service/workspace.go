package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emrgen/notebook/internal/csvimport"
	"github.com/emrgen/notebook/internal/doc"
	"github.com/emrgen/notebook/internal/docsync"
	"github.com/sirupsen/logrus"
)

// Session is an open project: its live document and the controller that
// keeps derived data in step with it.
type Session struct {
	*docsync.Controller
	ProjectID string
	Editor    *doc.Editor

	lastUsed atomic.Int64
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

// LastUsed is when the session was last handed out.
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// ReplaceContent replaces the whole document with parsed HTML.
func (s *Session) ReplaceContent(markup string) error {
	root, err := doc.ParseHTML(markup)
	if err != nil {
		return err
	}
	return s.Editor.Chain().SetContent(root).Run()
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*Workspace)

// WithSessionReconciler sets the reconciler every session reports to.
func WithSessionReconciler(r docsync.Reconciler) WorkspaceOption {
	return func(w *Workspace) { w.reconciler = r }
}

// WithSessionListener registers fn to receive the snapshots of every
// session opened afterwards.
func WithSessionListener(fn func(docsync.Snapshot)) WorkspaceOption {
	return func(w *Workspace) { w.listener = fn }
}

// WithTableRowLimit caps the rows of tables created by imports.
func WithTableRowLimit(n int) WorkspaceOption {
	return func(w *Workspace) { w.maxTableRows = n }
}

// Workspace holds one session per open project.
type Workspace struct {
	projects     *ProjectService
	reconciler   docsync.Reconciler
	listener     func(docsync.Snapshot)
	maxTableRows int

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewWorkspace(projects *ProjectService, opts ...WorkspaceOption) *Workspace {
	w := &Workspace{
		projects:     projects,
		maxTableRows: csvimport.MaxTableRows,
		sessions:     make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open returns the session of a project, loading the project when it is not
// open yet.
func (w *Workspace) Open(ctx context.Context, projectID string) (*Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if s, ok := w.sessions[projectID]; ok {
		s.touch()
		return s, nil
	}

	p, err := w.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	root := doc.New(doc.TypeDoc, nil, doc.Paragraph(""))
	if p.Content != "" {
		parsed, err := doc.ParseHTML(p.Content)
		if err != nil {
			return nil, err
		}
		if len(parsed.Content) > 0 {
			root = parsed
		}
	}

	editor := doc.NewEditor(root)
	opts := []docsync.Option{
		docsync.WithSaver(w.projects),
		docsync.WithMaxTableRows(w.maxTableRows),
	}
	if w.reconciler != nil {
		opts = append(opts, docsync.WithReconciler(w.reconciler))
	}

	s := &Session{
		Controller: docsync.New(p.ID, editor, opts...),
		ProjectID:  p.ID,
		Editor:     editor,
	}
	if w.listener != nil {
		s.Subscribe(w.listener)
	}
	s.Attach()
	s.Sync(ctx)
	s.touch()

	w.sessions[p.ID] = s
	logrus.Infof("opened session for project %s", p.ID)
	return s, nil
}

// Get returns the session of a project if it is open.
func (w *Workspace) Get(projectID string) (*Session, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.sessions[projectID]
	return s, ok
}

// Close detaches and forgets the session of a project.
func (w *Workspace) Close(projectID string) bool {
	w.mu.Lock()
	s, ok := w.sessions[projectID]
	delete(w.sessions, projectID)
	w.mu.Unlock()

	if ok {
		s.Detach()
		logrus.Infof("closed session for project %s", projectID)
	}
	return ok
}

// CloseIdle closes the sessions unused for longer than maxIdle and returns
// how many were closed.
func (w *Workspace) CloseIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	w.mu.Lock()
	var idle []string
	for id, s := range w.sessions {
		if s.LastUsed().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	w.mu.Unlock()

	closed := 0
	for _, id := range idle {
		if w.Close(id) {
			closed++
		}
	}
	return closed
}

// Len is the number of open sessions.
func (w *Workspace) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sessions)
}
