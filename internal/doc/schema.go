package doc

// IsBlock reports whether nodes of this type live at block level.
func IsBlock(t NodeType) bool {
	switch t {
	case TypeParagraph, TypeHeading, TypeBlockquote, TypeBulletList, TypeOrderedList,
		TypeCodeBlock, TypeHorizontalRule, TypeTable, TypeImage, TypeGraphBlock, TypeSmartSummary:
		return true
	}
	return false
}

// IsInline reports whether nodes of this type live inside text blocks.
func IsInline(t NodeType) bool {
	switch t {
	case TypeText, TypeHardBreak, TypePdfChip:
		return true
	}
	return false
}

// CanContain reports whether a parent of type parent accepts a child of type child.
func CanContain(parent, child NodeType) bool {
	switch parent {
	case TypeDoc, TypeBlockquote, TypeListItem, TypeTableCell, TypeTableHeader:
		return IsBlock(child)
	case TypeParagraph, TypeHeading:
		return IsInline(child)
	case TypeCodeBlock:
		return child == TypeText
	case TypeBulletList, TypeOrderedList:
		return child == TypeListItem
	case TypeTable:
		return child == TypeTableRow
	case TypeTableRow:
		return child == TypeTableCell || child == TypeTableHeader
	}
	return false
}
