package queries

import "loupe-backend/domain/core/entities"

// ProjectDetailsResult is a project together with its chat history.
type ProjectDetailsResult struct {
	Project     *entities.Project
	ChatHistory []entities.ChatEntry
}

// ProjectNodesResult is a project's research history as a flat list in
// creation order. Each node carries its parent reference; callers
// rebuild the tree with entities.BuildForest.
type ProjectNodesResult struct {
	Nodes []*entities.Node
	Total int
}
