package entities

// TreeNode is a node with its children resolved, for rendering a
// project's research history as a forest.
type TreeNode struct {
	Node     *Node
	Children []*TreeNode
}

// BuildForest arranges a flat node list into parent/child trees.
// Nodes whose parent is missing from the list are promoted to roots,
// so a partially loaded history still renders. Sibling order follows
// the input order.
func BuildForest(nodes []*Node) []*TreeNode {
	byID := make(map[string]*TreeNode, len(nodes))
	ordered := make([]*TreeNode, 0, len(nodes))
	for _, n := range nodes {
		tn := &TreeNode{Node: n}
		byID[n.ID().String()] = tn
		ordered = append(ordered, tn)
	}

	var roots []*TreeNode
	for _, tn := range ordered {
		parentID := tn.Node.ParentID()
		if parentID == nil {
			roots = append(roots, tn)
			continue
		}
		parent, ok := byID[parentID.String()]
		if !ok {
			// Orphaned subtree; surface it at the top level.
			roots = append(roots, tn)
			continue
		}
		parent.Children = append(parent.Children, tn)
	}
	return roots
}

// CountNodes returns the total number of nodes in a forest.
func CountNodes(roots []*TreeNode) int {
	count := 0
	for _, root := range roots {
		count += 1 + CountNodes(root.Children)
	}
	return count
}
