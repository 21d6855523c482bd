// Package memory implements all persistence ports in process memory.
// It backs local development without a database and the test suites,
// and mirrors the similarity semantics of the PostgreSQL store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"loupe-backend/application/ports"
	"loupe-backend/domain/core/entities"
	"loupe-backend/domain/core/valueobjects"
	"loupe-backend/pkg/errors"
)

// exactMatchSimilarity mirrors the near-zero distance cutoff the
// database store uses for a threshold of 1.0.
const exactMatchSimilarity = 1 - 1e-6

type sourceRecord struct {
	source *entities.Source
	order  int
}

// Store holds projects, nodes, sources, and chat history in memory.
// The repository ports are exposed through the Projects, Nodes, and
// Sources views; Store itself is the similarity searcher.
type Store struct {
	mu          sync.RWMutex
	projects    map[string]*entities.Project
	nodes       map[string]*entities.Node
	sources     map[string][]*sourceRecord // keyed by node ID
	chatHistory map[string][]entities.ChatEntry

	projectOrder []string
	nodeOrder    []string
	nextOrder    int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		projects:    make(map[string]*entities.Project),
		nodes:       make(map[string]*entities.Node),
		sources:     make(map[string][]*sourceRecord),
		chatHistory: make(map[string][]entities.ChatEntry),
	}
}

// Projects returns the project repository view.
func (s *Store) Projects() ports.ProjectRepository { return &projectStore{s} }

// Nodes returns the node repository view.
func (s *Store) Nodes() ports.NodeRepository { return &nodeStore{s} }

// Sources returns the source repository view.
func (s *Store) Sources() ports.SourceRepository { return &sourceStore{s} }

var _ ports.SimilaritySearcher = (*Store)(nil)

type projectStore struct{ s *Store }
type nodeStore struct{ s *Store }
type sourceStore struct{ s *Store }

var (
	_ ports.ProjectRepository = (*projectStore)(nil)
	_ ports.NodeRepository    = (*nodeStore)(nil)
	_ ports.SourceRepository  = (*sourceStore)(nil)
)

func (p *projectStore) Save(ctx context.Context, project *entities.Project) error {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()

	id := project.ID().String()
	if _, exists := s.projects[id]; exists {
		return errors.NewConflictError("project already exists")
	}
	s.projects[id] = project
	s.projectOrder = append(s.projectOrder, id)
	return nil
}

func (p *projectStore) GetByID(ctx context.Context, id valueobjects.ProjectID, ownerID string) (*entities.Project, error) {
	s := p.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, exists := s.projects[id.String()]
	if !exists || !project.IsOwnedBy(ownerID) {
		return nil, errors.NewNotFoundError("project")
	}
	return project, nil
}

func (p *projectStore) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Project, error) {
	s := p.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var projects []*entities.Project
	// Insertion order is creation order; walk backwards for newest first.
	for i := len(s.projectOrder) - 1; i >= 0; i-- {
		project := s.projects[s.projectOrder[i]]
		if project != nil && project.IsOwnedBy(ownerID) {
			projects = append(projects, project)
		}
	}
	return projects, nil
}

func (p *projectStore) Delete(ctx context.Context, id valueobjects.ProjectID, ownerID string) error {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	project, exists := s.projects[key]
	if !exists || !project.IsOwnedBy(ownerID) {
		return errors.NewNotFoundError("project")
	}

	delete(s.projects, key)
	delete(s.chatHistory, key)
	for nodeID, node := range s.nodes {
		if node.ProjectID().Equals(id) {
			delete(s.nodes, nodeID)
			delete(s.sources, nodeID)
		}
	}
	return nil
}

func (p *projectStore) AppendChatEntry(ctx context.Context, id valueobjects.ProjectID, entry entities.ChatEntry) error {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	project, exists := s.projects[key]
	if !exists {
		return errors.NewNotFoundError("project")
	}
	s.chatHistory[key] = append(s.chatHistory[key], entry)
	project.Touch()
	return nil
}

func (p *projectStore) GetChatHistory(ctx context.Context, id valueobjects.ProjectID) ([]entities.ChatEntry, error) {
	s := p.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.chatHistory[id.String()]
	out := make([]entities.ChatEntry, len(history))
	copy(out, history)
	return out, nil
}

func (n *nodeStore) Save(ctx context.Context, node *entities.Node) error {
	s := n.s
	s.mu.Lock()
	defer s.mu.Unlock()

	id := node.ID().String()
	if _, exists := s.nodes[id]; exists {
		return errors.NewConflictError("node already exists")
	}
	s.nodes[id] = node
	s.nodeOrder = append(s.nodeOrder, id)
	return nil
}

func (n *nodeStore) GetByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	s := n.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, exists := s.nodes[id.String()]
	if !exists {
		return nil, errors.NewNotFoundError("node")
	}
	return node, nil
}

func (n *nodeStore) ListByProject(ctx context.Context, projectID valueobjects.ProjectID) ([]*entities.Node, error) {
	s := n.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var nodes []*entities.Node
	for _, id := range s.nodeOrder {
		node := s.nodes[id]
		if node != nil && node.ProjectID().Equals(projectID) {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

func (n *nodeStore) UpdateAnswerEmbedding(ctx context.Context, id valueobjects.NodeID, embedding valueobjects.Embedding, status entities.EmbeddingStatus) error {
	s := n.s
	s.mu.Lock()
	defer s.mu.Unlock()

	node, exists := s.nodes[id.String()]
	if !exists {
		return errors.NewNotFoundError("node")
	}
	if status == entities.EmbeddingDone {
		return node.AttachAnswerEmbedding(embedding)
	}
	node.MarkEmbeddingFailed()
	return nil
}

func (src *sourceStore) Save(ctx context.Context, source *entities.Source) error {
	s := src.s
	s.mu.Lock()
	defer s.mu.Unlock()

	nodeKey := source.NodeID().String()
	for _, rec := range s.sources[nodeKey] {
		if rec.source.URL() == source.URL() {
			rec.source = source
			return nil
		}
	}
	s.nextOrder++
	s.sources[nodeKey] = append(s.sources[nodeKey], &sourceRecord{
		source: source,
		order:  s.nextOrder,
	})
	return nil
}

func (src *sourceStore) GetEmbedding(ctx context.Context, nodeID valueobjects.NodeID, url string) (valueobjects.Embedding, error) {
	s := src.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.sources[nodeID.String()] {
		if rec.source.URL() == url {
			return rec.source.Embedding(), nil
		}
	}
	return valueobjects.Embedding{}, errors.NewNotFoundError("source")
}

func (src *sourceStore) ListByURLs(ctx context.Context, ownerID string, urls []string) ([]ports.SourceData, error) {
	s := src.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(urls))
	for _, url := range urls {
		wanted[strings.TrimSpace(url)] = true
	}

	seen := make(map[string]bool)
	var out []ports.SourceData
	for _, records := range s.sources {
		for _, rec := range records {
			source := rec.source
			if !wanted[source.URL()] || seen[source.URL()] {
				continue
			}
			project, exists := s.projects[source.ProjectID().String()]
			if !exists || !project.IsOwnedBy(ownerID) {
				continue
			}
			seen[source.URL()] = true
			out = append(out, ports.SourceData{
				Title:   source.Title(),
				URL:     source.URL(),
				Content: source.Content(),
			})
		}
	}
	return out, nil
}

// FindSimilarSources brute-forces cosine similarity over the project's
// sources. The threshold is exclusive; ties keep insertion order.
func (s *Store) FindSimilarSources(ctx context.Context, projectID valueobjects.ProjectID, query valueobjects.Embedding, limit int, minSimilarity float64) ([]ports.SimilarSource, error) {
	if query.IsZero() {
		return nil, nil
	}
	if limit < 1 {
		limit = 1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		match ports.SimilarSource
		order int
	}
	var candidates []scored
	for nodeKey, records := range s.sources {
		node := s.nodes[nodeKey]
		if node == nil || !node.ProjectID().Equals(projectID) {
			continue
		}
		for _, rec := range records {
			source := rec.source
			if source.Embedding().IsZero() {
				continue
			}
			similarity := query.CosineSimilarity(source.Embedding())
			if !clearsThreshold(similarity, minSimilarity) {
				continue
			}
			candidates = append(candidates, scored{
				match: ports.SimilarSource{
					NodeID:      node.ID(),
					Query:       node.Query(),
					SourceTitle: source.Title(),
					SourceURL:   source.URL(),
					Similarity:  similarity,
				},
				order: rec.order,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].match.Similarity != candidates[j].match.Similarity {
			return candidates[i].match.Similarity > candidates[j].match.Similarity
		}
		return candidates[i].order < candidates[j].order
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	matches := make([]ports.SimilarSource, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, c.match)
	}
	return matches, nil
}

// FindSimilarAnswers returns the single closest prior answer across the
// owner's projects, or nothing when the closest falls below threshold.
func (s *Store) FindSimilarAnswers(ctx context.Context, ownerID string, excludeNodeID valueobjects.NodeID, query valueobjects.Embedding, minSimilarity float64) ([]ports.SimilarAnswer, error) {
	if query.IsZero() {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best      *ports.SimilarAnswer
		bestScore float64
	)
	for _, id := range s.nodeOrder {
		node := s.nodes[id]
		if node == nil || node.ID().Equals(excludeNodeID) || node.AnswerEmbedding().IsZero() {
			continue
		}
		project, exists := s.projects[node.ProjectID().String()]
		if !exists || !project.IsOwnedBy(ownerID) {
			continue
		}

		similarity := query.CosineSimilarity(node.AnswerEmbedding())
		if best != nil && similarity <= bestScore {
			continue
		}
		best = &ports.SimilarAnswer{
			NodeID:        node.ID(),
			Query:         node.Query(),
			ProjectID:     project.ID(),
			ProjectName:   project.Name(),
			AnswerSnippet: snippet(node.Answer(), 100),
			Similarity:    similarity,
		}
		bestScore = similarity
	}

	if best == nil || best.Similarity < minSimilarity {
		return nil, nil
	}
	return []ports.SimilarAnswer{*best}, nil
}

// FindSimilarGuides brute-forces cosine similarity over every source in
// the owner's projects. The threshold is exclusive; ties keep insertion
// order.
func (s *Store) FindSimilarGuides(ctx context.Context, ownerID string, query valueobjects.Embedding, limit int, minSimilarity float64) ([]ports.SimilarGuide, error) {
	if query.IsZero() {
		return nil, nil
	}
	if limit < 1 {
		limit = 1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		match ports.SimilarGuide
		order int
	}
	var candidates []scored
	for nodeKey, records := range s.sources {
		node := s.nodes[nodeKey]
		if node == nil {
			continue
		}
		project, exists := s.projects[node.ProjectID().String()]
		if !exists || !project.IsOwnedBy(ownerID) {
			continue
		}
		for _, rec := range records {
			source := rec.source
			if source.Embedding().IsZero() {
				continue
			}
			similarity := query.CosineSimilarity(source.Embedding())
			if !clearsThreshold(similarity, minSimilarity) {
				continue
			}
			candidates = append(candidates, scored{
				match: ports.SimilarGuide{
					Title:      source.Title(),
					URL:        source.URL(),
					Content:    source.Content(),
					Similarity: similarity,
				},
				order: rec.order,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].match.Similarity != candidates[j].match.Similarity {
			return candidates[i].match.Similarity > candidates[j].match.Similarity
		}
		return candidates[i].order < candidates[j].order
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	matches := make([]ports.SimilarGuide, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, c.match)
	}
	return matches, nil
}

// clearsThreshold applies the source similarity bound: exclusive in the
// open interval, no bound at or below zero, near-exact at one or above.
func clearsThreshold(similarity, minSimilarity float64) bool {
	if minSimilarity <= 0 {
		return true
	}
	if minSimilarity >= 1 {
		return similarity > exactMatchSimilarity
	}
	return similarity > minSimilarity
}

func snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
