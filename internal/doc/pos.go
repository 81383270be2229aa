package doc

// Positions follow the ProseMirror convention: 0 is the start of the
// document content, a text node spans one position per rune, a leaf spans
// one position and every other node spans its content plus an opening and
// a closing token.

// Visitor is called for each descendant with the position just before it,
// its parent and its index in the parent. Returning false skips the
// node's children.
type Visitor func(n *Node, pos int, parent *Node, index int) bool

// Descendants walks every node below root in document order.
func Descendants(root *Node, fn Visitor) {
	descend(root, 0, fn)
}

func descend(parent *Node, start int, fn Visitor) {
	pos := start
	for i, c := range parent.Content {
		if fn(c, pos, parent, i) && !c.IsLeaf() {
			descend(c, pos+1, fn)
		}
		pos += c.NodeSize()
	}
}

// Ancestor is a node enclosing a position together with the position just
// before it.
type Ancestor struct {
	Node *Node
	Pos  int
}

// Ancestors returns the nodes whose content encloses pos, outermost first.
// The root is not included.
func Ancestors(root *Node, pos int) []Ancestor {
	var path []Ancestor
	parent, start := root, 0
	for {
		offset := start
		var next *Node
		for _, c := range parent.Content {
			end := offset + c.NodeSize()
			if !c.IsLeaf() && offset < pos && pos < end {
				next = c
				break
			}
			offset = end
		}
		if next == nil {
			return path
		}
		path = append(path, Ancestor{Node: next, Pos: offset})
		parent, start = next, offset+1
	}
}

// FindAncestor returns the innermost node of type typ enclosing pos.
func FindAncestor(root *Node, pos int, typ NodeType) (Ancestor, bool) {
	path := Ancestors(root, pos)
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].Node.Type == typ {
			return path[i], true
		}
	}
	return Ancestor{}, false
}

// NodeAt returns the node that starts exactly at pos, preferring the
// outermost one.
func NodeAt(root *Node, pos int) (*Node, bool) {
	parent, index, ok := locate(root, pos)
	if !ok || index >= len(parent.Content) {
		return nil, false
	}
	return parent.Content[index], true
}

// PosOf returns the position just before target, matched by identity.
func PosOf(root *Node, target *Node) (int, bool) {
	found := -1
	Descendants(root, func(n *Node, pos int, _ *Node, _ int) bool {
		if found >= 0 {
			return false
		}
		if n == target {
			found = pos
			return false
		}
		return true
	})
	return found, found >= 0
}

// locate finds the parent whose content has a child boundary at pos and
// the index of the child starting there (len(Content) for the end).
func locate(root *Node, pos int) (*Node, int, bool) {
	if pos < 0 || pos > root.ContentSize() {
		return nil, 0, false
	}
	parent, start := root, 0
	for {
		offset := start
		descended := false
		for i, c := range parent.Content {
			if pos == offset {
				return parent, i, true
			}
			end := offset + c.NodeSize()
			if pos < end {
				if c.IsLeaf() {
					return nil, 0, false
				}
				parent, start = c, offset+1
				descended = true
				break
			}
			offset = end
		}
		if !descended {
			if pos == offset {
				return parent, len(parent.Content), true
			}
			return nil, 0, false
		}
	}
}

// InsertAt inserts nodes at pos. A position inside a text node splits it.
func InsertAt(root *Node, pos int, nodes ...*Node) error {
	if pos < 0 || pos > root.ContentSize() {
		return ErrInvalidPosition
	}
	parent, start := root, 0
	for {
		offset := start
		var inner *Node
		for i, c := range parent.Content {
			if pos == offset {
				return insertChildren(parent, i, nodes)
			}
			end := offset + c.NodeSize()
			if pos < end {
				if c.IsText() {
					return splitInsert(parent, i, pos-offset, nodes)
				}
				if c.IsLeaf() {
					return ErrInvalidPosition
				}
				inner = c
				break
			}
			offset = end
		}
		if inner == nil {
			if pos == offset {
				return insertChildren(parent, len(parent.Content), nodes)
			}
			return ErrInvalidPosition
		}
		parent, start = inner, offset+1
	}
}

func insertChildren(parent *Node, index int, nodes []*Node) error {
	for _, n := range nodes {
		if !CanContain(parent.Type, n.Type) {
			return ErrSchemaViolation
		}
	}
	content := make([]*Node, 0, len(parent.Content)+len(nodes))
	content = append(content, parent.Content[:index]...)
	content = append(content, nodes...)
	content = append(content, parent.Content[index:]...)
	parent.Content = content
	return nil
}

func splitInsert(parent *Node, index, at int, nodes []*Node) error {
	for _, n := range nodes {
		if !CanContain(parent.Type, n.Type) {
			return ErrSchemaViolation
		}
	}
	text := parent.Content[index]
	runes := []rune(text.Text)
	left := &Node{Type: TypeText, Text: string(runes[:at]), Marks: text.Marks}
	right := &Node{Type: TypeText, Text: string(runes[at:]), Marks: text.Marks}

	content := make([]*Node, 0, len(parent.Content)+len(nodes)+1)
	content = append(content, parent.Content[:index]...)
	content = append(content, left)
	content = append(content, nodes...)
	content = append(content, right)
	content = append(content, parent.Content[index+1:]...)
	parent.Content = content
	return nil
}

// DeleteAt removes the node starting at pos and returns it.
func DeleteAt(root *Node, pos int) (*Node, error) {
	parent, index, ok := locate(root, pos)
	if !ok || index >= len(parent.Content) {
		return nil, ErrInvalidPosition
	}
	removed := parent.Content[index]
	parent.Content = append(parent.Content[:index:index], parent.Content[index+1:]...)
	return removed, nil
}

// UpdateAttrs merges attrs into the node of type typ starting at pos, or
// into the innermost such node enclosing pos.
func UpdateAttrs(root *Node, pos int, typ NodeType, attrs Attrs) error {
	target, ok := NodeAt(root, pos)
	if !ok || target.Type != typ {
		anc, found := FindAncestor(root, pos, typ)
		if !found {
			return ErrNodeNotFound
		}
		target = anc.Node
	}
	for k, v := range attrs {
		target.SetAttr(k, v)
	}
	return nil
}

// BlockEnd maps a position inside a top-level block to the position right
// after that block. Positions on block boundaries are returned unchanged
// and out-of-range positions are clamped.
func BlockEnd(root *Node, pos int) int {
	if pos < 0 {
		return 0
	}
	size := root.ContentSize()
	if pos > size {
		return size
	}
	offset := 0
	for _, c := range root.Content {
		end := offset + c.NodeSize()
		if offset < pos && pos < end {
			return end
		}
		offset = end
	}
	return pos
}
