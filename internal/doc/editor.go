package doc

import (
	"sync"
)

// Event names an editor notification.
type Event string

const (
	EventUpdate          Event = "update"
	EventSelectionUpdate Event = "selectionUpdate"
	EventTransaction     Event = "transaction"
)

// Selection is a position range in the document. A collapsed selection is
// a cursor.
type Selection struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Transaction describes one applied command chain.
type Transaction struct {
	Version          uint64
	DocChanged       bool
	SelectionChanged bool
	Selection        Selection
}

// Listener receives editor notifications.
type Listener func(tr Transaction)

type listener struct {
	id int
	fn Listener
}

// Editor is the in-memory editing surface of one document. Mutations are
// serialized; listeners run synchronously after each applied transaction,
// outside the editor lock, in registration order.
type Editor struct {
	mu      sync.RWMutex
	root    *Node
	sel     Selection
	version uint64
	focused bool

	lmu       sync.Mutex
	nextID    int
	listeners map[Event][]listener
}

// NewEditor creates an editor over content. A nil content starts empty.
func NewEditor(content *Node) *Editor {
	if content == nil {
		content = Empty()
	}
	return &Editor{
		root:      content.Clone(),
		listeners: make(map[Event][]listener),
	}
}

// Doc returns a snapshot of the current document.
func (e *Editor) Doc() *Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.root.Clone()
}

// View runs fn against the live document under the read lock. fn must not
// retain or modify the tree.
func (e *Editor) View(fn func(root *Node)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.root)
}

// Version counts applied document changes.
func (e *Editor) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// Selection returns the current selection.
func (e *Editor) Selection() Selection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sel
}

// Focused reports whether the editor holds focus.
func (e *Editor) Focused() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.focused
}

// On registers fn for event and returns a function that removes it.
func (e *Editor) On(event Event, fn Listener) (off func()) {
	e.lmu.Lock()
	defer e.lmu.Unlock()
	e.nextID++
	id := e.nextID
	e.listeners[event] = append(e.listeners[event], listener{id: id, fn: fn})

	return func() {
		e.lmu.Lock()
		defer e.lmu.Unlock()
		ls := e.listeners[event]
		for i, l := range ls {
			if l.id == id {
				e.listeners[event] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

func (e *Editor) emit(event Event, tr Transaction) {
	e.lmu.Lock()
	ls := make([]listener, len(e.listeners[event]))
	copy(ls, e.listeners[event])
	e.lmu.Unlock()

	for _, l := range ls {
		l.fn(tr)
	}
}

// SetContent replaces the whole document.
func (e *Editor) SetContent(root *Node) error {
	return e.Chain().SetContent(root).Run()
}

// InsertContentAt inserts nodes at pos.
func (e *Editor) InsertContentAt(pos int, nodes ...*Node) error {
	return e.Chain().InsertContentAt(pos, nodes...).Run()
}

// UpdateAttributes merges attrs into the node of type typ at pos.
func (e *Editor) UpdateAttributes(pos int, typ NodeType, attrs Attrs) error {
	return e.Chain().UpdateAttributes(pos, typ, attrs).Run()
}

// DeleteNode removes the node starting at pos.
func (e *Editor) DeleteNode(pos int) error {
	return e.Chain().DeleteNode(pos).Run()
}

// SetSelection moves the selection.
func (e *Editor) SetSelection(from, to int) error {
	return e.Chain().SetSelection(from, to).Run()
}

// SetComment applies a comment mark with commentID to the text in [from, to).
func (e *Editor) SetComment(from, to int, commentID string) error {
	return e.Chain().SetMark(from, to, CommentMark(commentID)).Run()
}

// UnsetComment removes the comment commentID wherever it is applied.
func (e *Editor) UnsetComment(commentID string) error {
	return e.Chain().UnsetComment(commentID).Run()
}

// Focus gives the editor focus.
func (e *Editor) Focus() error {
	return e.Chain().Focus().Run()
}

type step func(st *state) error

type state struct {
	root       *Node
	sel        Selection
	focused    bool
	docChanged bool
}

// Chain collects commands that are applied as one transaction by Run.
type Chain struct {
	e     *Editor
	steps []step
}

// Chain starts a command chain.
func (e *Editor) Chain() *Chain {
	return &Chain{e: e}
}

func (c *Chain) Focus() *Chain {
	c.steps = append(c.steps, func(st *state) error {
		st.focused = true
		return nil
	})
	return c
}

func (c *Chain) SetContent(root *Node) *Chain {
	c.steps = append(c.steps, func(st *state) error {
		if root == nil {
			root = Empty()
		}
		st.root = root.Clone()
		st.sel = Selection{}
		st.docChanged = true
		return nil
	})
	return c
}

func (c *Chain) InsertContentAt(pos int, nodes ...*Node) *Chain {
	c.steps = append(c.steps, func(st *state) error {
		clones := make([]*Node, len(nodes))
		size := 0
		for i, n := range nodes {
			clones[i] = n.Clone()
			size += n.NodeSize()
		}
		if err := InsertAt(st.root, pos, clones...); err != nil {
			return err
		}
		st.sel = Selection{From: pos + size, To: pos + size}
		st.docChanged = true
		return nil
	})
	return c
}

func (c *Chain) UpdateAttributes(pos int, typ NodeType, attrs Attrs) *Chain {
	c.steps = append(c.steps, func(st *state) error {
		if err := UpdateAttrs(st.root, pos, typ, attrs); err != nil {
			return err
		}
		st.docChanged = true
		return nil
	})
	return c
}

func (c *Chain) DeleteNode(pos int) *Chain {
	c.steps = append(c.steps, func(st *state) error {
		if _, err := DeleteAt(st.root, pos); err != nil {
			return err
		}
		size := st.root.ContentSize()
		st.sel = Selection{From: min(st.sel.From, size), To: min(st.sel.To, size)}
		st.docChanged = true
		return nil
	})
	return c
}

func (c *Chain) SetMark(from, to int, m Mark) *Chain {
	c.steps = append(c.steps, func(st *state) error {
		if err := AddMark(st.root, from, to, m); err != nil {
			return err
		}
		st.docChanged = true
		return nil
	})
	return c
}

func (c *Chain) UnsetMark(from, to int, typ string) *Chain {
	c.steps = append(c.steps, func(st *state) error {
		if err := RemoveMark(st.root, from, to, typ); err != nil {
			return err
		}
		st.docChanged = true
		return nil
	})
	return c
}

func (c *Chain) UnsetComment(commentID string) *Chain {
	c.steps = append(c.steps, func(st *state) error {
		removed := RemoveMarkWhere(st.root, func(m Mark) bool {
			return m.Type == MarkComment && m.Attrs.String("commentId") == commentID
		})
		if !removed {
			return ErrMarkNotFound
		}
		st.docChanged = true
		return nil
	})
	return c
}

func (c *Chain) SetSelection(from, to int) *Chain {
	c.steps = append(c.steps, func(st *state) error {
		size := st.root.ContentSize()
		if from < 0 || to < 0 || from > size || to > size {
			return ErrInvalidPosition
		}
		if from > to {
			from, to = to, from
		}
		st.sel = Selection{From: from, To: to}
		return nil
	})
	return c
}

// Run applies the chain atomically. When any command fails nothing is
// applied and no notification is sent.
func (c *Chain) Run() error {
	e := c.e
	e.mu.Lock()
	st := &state{root: e.root, sel: e.sel, focused: e.focused}
	if len(c.steps) > 0 {
		st.root = e.root.Clone()
	}
	for _, s := range c.steps {
		if err := s(st); err != nil {
			e.mu.Unlock()
			return err
		}
	}

	tr := Transaction{
		DocChanged:       st.docChanged,
		SelectionChanged: st.sel != e.sel,
		Selection:        st.sel,
	}
	e.root = st.root
	e.sel = st.sel
	e.focused = st.focused
	if st.docChanged {
		e.version++
	}
	tr.Version = e.version
	e.mu.Unlock()

	e.emit(EventTransaction, tr)
	if tr.DocChanged {
		e.emit(EventUpdate, tr)
	}
	if tr.SelectionChanged {
		e.emit(EventSelectionUpdate, tr)
	}
	return nil
}
