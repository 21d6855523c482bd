// Package handlers contains command handlers for state-changing operations.
package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"loupe-backend/application/commands"
	"loupe-backend/application/ports"
	"loupe-backend/domain/core/entities"
	"loupe-backend/domain/core/valueobjects"
	"loupe-backend/pkg/errors"
)

// Logger interface for flexible logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// DeriveNodeOrchestrator runs the full research pipeline for one query.
// It breaks the pipeline into focused stages: resolve the project, run
// the web search, generate follow-ups, persist the node (the commit
// point), then store sources and embeddings around it. Stages after the
// commit point degrade instead of failing the request.
type DeriveNodeOrchestrator struct {
	projectRepo ports.ProjectRepository
	nodeRepo    ports.NodeRepository
	sourceRepo  ports.SourceRepository
	searcher    ports.WebSearcher
	generator   ports.TextGenerator
	embedder    ports.Embedder
	logger      Logger
}

// NewDeriveNodeOrchestrator creates a new orchestrator instance
func NewDeriveNodeOrchestrator(
	projectRepo ports.ProjectRepository,
	nodeRepo ports.NodeRepository,
	sourceRepo ports.SourceRepository,
	searcher ports.WebSearcher,
	generator ports.TextGenerator,
	embedder ports.Embedder,
	logger Logger,
) *DeriveNodeOrchestrator {
	return &DeriveNodeOrchestrator{
		projectRepo: projectRepo,
		nodeRepo:    nodeRepo,
		sourceRepo:  sourceRepo,
		searcher:    searcher,
		generator:   generator,
		embedder:    embedder,
		logger:      logger,
	}
}

// Handle orchestrates one research step end to end.
func (o *DeriveNodeOrchestrator) Handle(ctx context.Context, cmd commands.DeriveNodeCommand) (*commands.DeriveNodeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	// Step 1: Resolve the target project, creating one when the request
	// names none.
	project, created, err := o.resolveProject(ctx, cmd)
	if err != nil {
		return nil, err
	}

	parentID, err := o.resolveParent(ctx, cmd, project)
	if err != nil {
		return nil, err
	}

	// Step 2: Web search. A failure here aborts the whole step; nothing
	// has been persisted yet besides a possibly new empty project.
	searchResp, err := o.searcher.Search(ctx, cmd.Query)
	if err != nil {
		return nil, errors.NewExternalError("web search", err).WithCode("SEARCH_FAILED")
	}

	// Step 3: Follow-up generation. Also pre-commit, also fatal.
	followups, err := o.generator.GenerateFollowups(ctx, cmd.Query, searchResp.Answer)
	if err != nil {
		return nil, errors.NewExternalError("follow-up generation", err).WithCode("FOLLOWUP_FAILED")
	}

	// Step 4: Persist the node. This is the commit point: from here on
	// the research step exists and later failures only degrade it.
	node, err := entities.NewNode(
		project.ID(),
		parentID,
		cmd.Query,
		searchResp.Answer,
		searchResp.Results,
		searchResp.Images,
		followups.Questions,
		followups.Concepts,
	)
	if err != nil {
		return nil, err
	}
	if err := o.nodeRepo.Save(ctx, node); err != nil {
		return nil, err
	}

	// Step 5: Embed and store the sources concurrently. A failed
	// embedding still stores the source so a backfill can retry it.
	o.storeSources(ctx, node, searchResp.Results)

	// Step 6: Append the exchange to the project's chat history.
	// Best effort; the node is already committed.
	entry := entities.ChatEntry{
		NodeID:    node.ID(),
		Question:  cmd.Query,
		Answer:    searchResp.Answer,
		Timestamp: time.Now(),
	}
	if err := o.projectRepo.AppendChatEntry(ctx, project.ID(), entry); err != nil {
		o.logger.Error("Failed to append chat entry",
			"error", err,
			"projectID", project.ID().String(),
			"nodeID", node.ID().String(),
		)
	}

	// Step 7: Embed the answer and record it on the node.
	o.embedAnswer(ctx, node)

	o.logger.Info("Research node derived",
		"nodeID", node.ID().String(),
		"projectID", project.ID().String(),
		"projectCreated", created,
		"sourceCount", len(searchResp.Results),
	)

	return &commands.DeriveNodeResult{
		Node:           node,
		Project:        project,
		ProjectCreated: created,
	}, nil
}

// resolveProject loads the named project with an ownership check, or
// creates a new one named after the query.
func (o *DeriveNodeOrchestrator) resolveProject(ctx context.Context, cmd commands.DeriveNodeCommand) (*entities.Project, bool, error) {
	if cmd.ProjectID != "" {
		projectID, err := valueobjects.ParseProjectID(cmd.ProjectID)
		if err != nil {
			return nil, false, errors.NewValidationError("invalid project ID format")
		}
		project, err := o.projectRepo.GetByID(ctx, projectID, cmd.OwnerID)
		if err != nil {
			return nil, false, err
		}
		return project, false, nil
	}

	project, err := entities.NewProject(cmd.OwnerID, entities.NameFromQuery(cmd.Query))
	if err != nil {
		return nil, false, err
	}
	if err := o.projectRepo.Save(ctx, project); err != nil {
		return nil, false, fmt.Errorf("failed to create project: %w", err)
	}

	o.logger.Debug("Created project for query",
		"projectID", project.ID().String(),
		"name", project.Name(),
	)
	return project, true, nil
}

// resolveParent verifies the parent node exists and belongs to the
// target project.
func (o *DeriveNodeOrchestrator) resolveParent(ctx context.Context, cmd commands.DeriveNodeCommand, project *entities.Project) (*valueobjects.NodeID, error) {
	if cmd.ParentID == "" {
		return nil, nil
	}

	parentID, err := valueobjects.ParseNodeID(cmd.ParentID)
	if err != nil {
		return nil, errors.NewValidationError("invalid parent node ID format")
	}

	parent, err := o.nodeRepo.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if !parent.ProjectID().Equals(project.ID()) {
		return nil, errors.NewValidationError("parent node belongs to a different project")
	}

	return &parentID, nil
}

// storeSources embeds and persists search results concurrently.
// Failures are isolated per source.
func (o *DeriveNodeOrchestrator) storeSources(ctx context.Context, node *entities.Node, results []entities.SearchResult) {
	var wg sync.WaitGroup
	for _, result := range results {
		wg.Add(1)
		go func(result entities.SearchResult) {
			defer wg.Done()
			o.storeSource(ctx, node, result)
		}(result)
	}
	wg.Wait()
}

func (o *DeriveNodeOrchestrator) storeSource(ctx context.Context, node *entities.Node, result entities.SearchResult) {
	embedding, err := o.embedder.Embed(ctx, result.Content)
	if err != nil {
		o.logger.Warn("Failed to embed source content",
			"error", err,
			"nodeID", node.ID().String(),
			"url", result.URL,
		)
		embedding = valueobjects.Embedding{}
	}

	source, err := entities.NewSource(node.ID(), node.ProjectID(), result.Title, result.URL, result.Content, embedding)
	if err != nil {
		o.logger.Error("Failed to construct source",
			"error", err,
			"nodeID", node.ID().String(),
			"url", result.URL,
		)
		return
	}
	if embedding.IsZero() {
		source.MarkEmbeddingFailed()
	}

	if err := o.sourceRepo.Save(ctx, source); err != nil {
		o.logger.Error("Failed to save source",
			"error", err,
			"nodeID", node.ID().String(),
			"url", result.URL,
		)
	}
}

// embedAnswer computes the answer embedding after the node is committed
// and records the outcome either way.
func (o *DeriveNodeOrchestrator) embedAnswer(ctx context.Context, node *entities.Node) {
	embedding, err := o.embedder.Embed(ctx, node.Answer())
	if err != nil {
		o.logger.Warn("Failed to embed answer",
			"error", err,
			"nodeID", node.ID().String(),
		)
		node.MarkEmbeddingFailed()
		if updateErr := o.nodeRepo.UpdateAnswerEmbedding(ctx, node.ID(), valueobjects.Embedding{}, entities.EmbeddingFailed); updateErr != nil {
			o.logger.Error("Failed to record embedding failure",
				"error", updateErr,
				"nodeID", node.ID().String(),
			)
		}
		return
	}

	if err := node.AttachAnswerEmbedding(embedding); err != nil {
		o.logger.Error("Failed to attach answer embedding",
			"error", err,
			"nodeID", node.ID().String(),
		)
		return
	}
	if err := o.nodeRepo.UpdateAnswerEmbedding(ctx, node.ID(), embedding, entities.EmbeddingDone); err != nil {
		o.logger.Error("Failed to persist answer embedding",
			"error", err,
			"nodeID", node.ID().String(),
		)
	}
}
