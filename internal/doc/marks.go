package doc

// AddMark applies m to the text in [from, to). Text nodes crossing the
// range edges are split. A mark of the same type already on the text is
// replaced.
func AddMark(root *Node, from, to int, m Mark) error {
	return mapMarks(root, from, to, func(marks []Mark) []Mark {
		return append(withoutType(marks, m.Type), m)
	})
}

// RemoveMark strips marks of type typ from the text in [from, to).
func RemoveMark(root *Node, from, to int, typ string) error {
	return mapMarks(root, from, to, func(marks []Mark) []Mark {
		return withoutType(marks, typ)
	})
}

// RemoveMarkWhere strips every mark matching fn from the whole document
// and reports whether any was removed.
func RemoveMarkWhere(root *Node, fn func(m Mark) bool) bool {
	removed := false
	var visit func(parent *Node)
	visit = func(parent *Node) {
		touched := false
		for _, c := range parent.Content {
			if !c.IsText() {
				if !c.IsLeaf() {
					visit(c)
				}
				continue
			}
			kept := c.Marks[:0:0]
			for _, m := range c.Marks {
				if fn(m) {
					touched = true
					continue
				}
				kept = append(kept, m)
			}
			if len(kept) != len(c.Marks) {
				c.Marks = kept
				if len(kept) == 0 {
					c.Marks = nil
				}
			}
		}
		if touched {
			removed = true
			parent.Content = mergeText(parent.Content)
		}
	}
	visit(root)
	return removed
}

func mapMarks(root *Node, from, to int, fn func([]Mark) []Mark) error {
	if from > to {
		from, to = to, from
	}
	if from < 0 || to > root.ContentSize() {
		return ErrInvalidPosition
	}
	if from == to || !markText(root, 0, from, to, fn) {
		return ErrNodeNotFound
	}
	return nil
}

// markText rewrites the marks of the text in [from, to) below parent, whose
// content starts at start.
func markText(parent *Node, start, from, to int, fn func([]Mark) []Mark) bool {
	changed := false
	content := make([]*Node, 0, len(parent.Content))
	pos := start
	for _, c := range parent.Content {
		end := pos + c.NodeSize()
		overlaps := pos < to && end > from
		switch {
		case overlaps && c.IsText():
			runes := []rune(c.Text)
			lo, hi := max(from-pos, 0), min(to-pos, len(runes))
			if lo > 0 {
				content = append(content, &Node{Type: TypeText, Text: string(runes[:lo]), Marks: c.Marks})
			}
			content = append(content, &Node{Type: TypeText, Text: string(runes[lo:hi]), Marks: fn(c.Marks)})
			if hi < len(runes) {
				content = append(content, &Node{Type: TypeText, Text: string(runes[hi:]), Marks: c.Marks})
			}
			changed = true
		case overlaps && !c.IsLeaf():
			if markText(c, pos+1, from, to, fn) {
				changed = true
			}
			content = append(content, c)
		default:
			content = append(content, c)
		}
		pos = end
	}
	if changed {
		parent.Content = mergeText(content)
	}
	return changed
}

func withoutType(marks []Mark, typ string) []Mark {
	out := make([]Mark, 0, len(marks)+1)
	for _, m := range marks {
		if m.Type != typ {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
