// Package tree implements the pure mutation engine for the decomposition tree.
//
// The tree is a persistent value: every mutation rebuilds only the path from
// the root to the changed node and returns a new root. Untouched subtrees are
// shared by reference, so prior roots stay valid and readers always observe a
// fully formed tree.
package tree

import (
	"bedrock/internal/types"
)

// UpdateFunc derives a new node value from an existing one. Implementations
// must not mutate the input; Clone it and change the copy.
type UpdateFunc func(*types.Node) *types.Node

// UpdateNode returns a new tree in which the node with targetID has been
// replaced by fn(node). Only the nodes on the path from root to the target are
// rebuilt; all other subtrees are returned unchanged by reference.
//
// If targetID is absent the input root is returned as-is. That is not an
// error: ids are unique, a miss just means the caller raced a discarded tree.
// fn is invoked at most once per call.
func UpdateNode(root *types.Node, targetID string, fn UpdateFunc) *types.Node {
	if root == nil {
		return nil
	}
	updated, _ := updateNode(root, targetID, fn)
	return updated
}

func updateNode(n *types.Node, targetID string, fn UpdateFunc) (*types.Node, bool) {
	if n.ID == targetID {
		return fn(n), true
	}
	if len(n.Children) == 0 {
		return n, false
	}

	// Rebuild children lazily: allocate a new slice only when some child
	// actually changed, so a miss preserves every original reference.
	var children []*types.Node
	hit := false
	for i, child := range n.Children {
		newChild, ok := updateNode(child, targetID, fn)
		if ok && children == nil {
			children = make([]*types.Node, len(n.Children))
			copy(children, n.Children[:i])
		}
		if children != nil {
			children[i] = newChild
		}
		hit = hit || ok
	}
	if !hit {
		return n, false
	}
	clone := n.Clone()
	clone.Children = children
	return clone, true
}

// Find returns the node with the given id, or nil when absent.
func Find(root *types.Node, id string) *types.Node {
	if root == nil {
		return nil
	}
	if root.ID == id {
		return root
	}
	for _, child := range root.Children {
		if found := Find(child, id); found != nil {
			return found
		}
	}
	return nil
}

// Count returns the total number of nodes in the tree.
func Count(root *types.Node) int {
	if root == nil {
		return 0
	}
	n := 1
	for _, child := range root.Children {
		n += Count(child)
	}
	return n
}

// Walk visits every node in depth-first pre-order. Returning false from visit
// stops the walk.
func Walk(root *types.Node, visit func(*types.Node) bool) {
	if root == nil {
		return
	}
	walk(root, visit)
}

func walk(n *types.Node, visit func(*types.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for _, child := range n.Children {
		if !walk(child, visit) {
			return false
		}
	}
	return true
}

// Progress summarizes mastery over the current tree.
type Progress struct {
	Total        int
	Mastered     int
	Fundamentals int
}

// Measure walks the tree once and tallies mastery counts for the status bar.
func Measure(root *types.Node) Progress {
	var p Progress
	Walk(root, func(n *types.Node) bool {
		p.Total++
		if n.IsMastered {
			p.Mastered++
		}
		if n.Type == types.NodeTypeFundamental {
			p.Fundamentals++
		}
		return true
	})
	return p
}

// AttachChildren builds child nodes from cleaned components and returns an
// UpdateFunc that installs them on the target node, merges newly discovered
// assumptions (append-only), stores enrichment, and clears the loading flag.
//
// Existing assumptions are never replaced; duplicates are skipped so repeated
// expansions stay idempotent.
func AttachChildren(components []types.RawComponent, result *types.DecompositionResult) UpdateFunc {
	return func(n *types.Node) *types.Node {
		clone := n.Clone()

		children := make([]*types.Node, 0, len(components))
		for _, c := range components {
			nodeType := types.NodeTypeComponent
			if c.IsFundamental {
				nodeType = types.NodeTypeFundamental
			}
			children = append(children, &types.Node{
				ID:          types.NewID(),
				Name:        c.Name,
				Description: c.Description,
				Type:        nodeType,
				Level:       n.Level + 1,
				Reasoning:   c.Reasoning,
			})
		}
		clone.Children = children

		clone.Assumptions = mergeAssumptions(n.Assumptions, result.Assumptions)
		if result.CoreConcept != "" {
			clone.CoreConcept = result.CoreConcept
		}
		if result.Analogy != "" {
			clone.Analogy = result.Analogy
		}
		if result.WhyImportant != "" {
			clone.WhyImportant = result.WhyImportant
		}
		if len(result.Sources) > 0 {
			clone.Sources = result.Sources
		}

		clone.IsLoading = false
		clone.IsExpanded = true
		return clone
	}
}

func mergeAssumptions(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		seen[a] = struct{}{}
	}
	merged := existing
	for _, a := range incoming {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		merged = append(merged[:len(merged):len(merged)], a)
	}
	return merged
}

// NewRoot creates the depth-0 node for a fresh search session.
func NewRoot(name, description string) *types.Node {
	return &types.Node{
		ID:          types.NewID(),
		Name:        name,
		Description: description,
		Type:        types.NodeTypeRoot,
		Level:       0,
	}
}
