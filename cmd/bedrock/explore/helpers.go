package explore

import "bedrock/internal/types"

// visibleRow is one line of the tree listing.
type visibleRow struct {
	node  *types.Node
	depth int
}

// visibleNodes flattens the tree into display order, descending only into
// expanded nodes. The root is always visible.
func visibleNodes(root *types.Node) []visibleRow {
	if root == nil {
		return nil
	}
	var rows []visibleRow
	var walk func(n *types.Node, depth int)
	walk = func(n *types.Node, depth int) {
		rows = append(rows, visibleRow{node: n, depth: depth})
		if !n.IsExpanded {
			return
		}
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	walk(root, 0)
	return rows
}

// currentNode returns the node under the cursor, or nil before a tree exists.
func (m Model) currentNode() *types.Node {
	rows := visibleNodes(m.root)
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil
	}
	return rows[m.cursor].node
}

// clampCursor keeps the cursor inside the visible rows after a mutation
// collapses part of the tree.
func (m *Model) clampCursor() {
	rows := visibleNodes(m.root)
	if len(rows) == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= len(rows) {
		m.cursor = len(rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// cursorTo moves the cursor to the row holding nodeID, if it is visible.
func (m *Model) cursorTo(nodeID string) {
	for i, row := range visibleNodes(m.root) {
		if row.node.ID == nodeID {
			m.cursor = i
			return
		}
	}
}
