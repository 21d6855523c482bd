// Package di wires the application together.
package di

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"loupe-backend/application/commands"
	cmdbus "loupe-backend/application/commands/bus"
	cmdhandlers "loupe-backend/application/commands/handlers"
	"loupe-backend/application/ports"
	"loupe-backend/application/queries"
	qrybus "loupe-backend/application/queries/bus"
	qryhandlers "loupe-backend/application/queries/handlers"
	"loupe-backend/application/services"
	"loupe-backend/infrastructure/adapters/gemini"
	"loupe-backend/infrastructure/adapters/tavily"
	"loupe-backend/infrastructure/config"
	"loupe-backend/infrastructure/persistence/memory"
	"loupe-backend/infrastructure/persistence/postgres"
	"loupe-backend/pkg/auth"
)

// Container holds all wired application components.
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	CommandBus   *cmdbus.CommandBus
	QueryBus     *qrybus.QueryBus
	Orchestrator *cmdhandlers.DeriveNodeOrchestrator
	Projects     *cmdhandlers.CreateProjectHandler
	Reports      *services.ReportService
	JWTValidator *auth.JWTValidator

	pool *pgxpool.Pool
}

// NewContainer builds the full dependency graph from configuration.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	projectRepo, nodeRepo, sourceRepo, searcher, err := c.buildPersistence(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	geminiClient, err := gemini.NewClient(gemini.Config{
		APIKey:          cfg.GeminiAPIKey,
		BaseURL:         cfg.GeminiBaseURL,
		EmbeddingModel:  cfg.GeminiEmbeddingModel,
		GenerationModel: cfg.GeminiGenerationModel,
		Timeout:         cfg.ExternalTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	tavilyClient, err := tavily.NewClient(tavily.Config{
		APIKey:     cfg.TavilyAPIKey,
		BaseURL:    cfg.TavilyBaseURL,
		MaxResults: cfg.MaxSearchResults,
		Timeout:    cfg.ExternalTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create tavily client: %w", err)
	}

	sugar := &sugaredLogger{logger.Sugar()}

	c.Orchestrator = cmdhandlers.NewDeriveNodeOrchestrator(
		projectRepo, nodeRepo, sourceRepo,
		tavilyClient, geminiClient, geminiClient,
		sugar,
	)
	c.Projects = cmdhandlers.NewCreateProjectHandler(projectRepo, sugar)
	c.Reports = services.NewReportService(sourceRepo, geminiClient)

	c.JWTValidator, err = auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT validator: %w", err)
	}

	if err := c.buildBuses(projectRepo, nodeRepo, sourceRepo, searcher, geminiClient, sugar); err != nil {
		return nil, err
	}

	return c, nil
}

// buildPersistence selects PostgreSQL when a DSN is configured and the
// in-memory store otherwise.
func (c *Container) buildPersistence(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.ProjectRepository, ports.NodeRepository, ports.SourceRepository, ports.SimilaritySearcher, error) {
	if cfg.DatabaseDSN == "" {
		logger.Warn("No database DSN configured, using in-memory store")
		store := memory.NewStore()
		return store.Projects(), store.Nodes(), store.Sources(), store, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	c.pool = pool

	return postgres.NewProjectRepository(pool),
		postgres.NewNodeRepository(pool),
		postgres.NewSourceRepository(pool),
		postgres.NewSimilaritySearcher(pool, logger),
		nil
}

func (c *Container) buildBuses(
	projectRepo ports.ProjectRepository,
	nodeRepo ports.NodeRepository,
	sourceRepo ports.SourceRepository,
	searcher ports.SimilaritySearcher,
	embedder ports.Embedder,
	sugar *sugaredLogger,
) error {
	commandBus := cmdbus.NewCommandBus()
	pipeline := cmdbus.NewPipeline(cmdbus.LoggingMiddleware(sugar))
	if err := commandBus.Register(commands.CreateProjectCommand{}, pipeline.Execute(c.Projects)); err != nil {
		return err
	}
	if err := commandBus.Register(commands.DeleteProjectCommand{}, pipeline.Execute(cmdhandlers.NewDeleteProjectHandler(projectRepo, sugar))); err != nil {
		return err
	}
	c.CommandBus = commandBus

	queryBus := qrybus.NewQueryBus()
	registrations := []struct {
		query   qrybus.Query
		handler qrybus.QueryHandler
	}{
		{queries.ListProjectsQuery{}, qryhandlers.NewListProjectsHandler(projectRepo)},
		{queries.GetProjectDetailsQuery{}, qryhandlers.NewGetProjectDetailsHandler(projectRepo)},
		{queries.GetProjectNodesQuery{}, qryhandlers.NewGetProjectNodesHandler(projectRepo, nodeRepo)},
		{queries.FindSimilarSourcesQuery{}, qryhandlers.NewFindSimilarSourcesHandler(projectRepo, nodeRepo, sourceRepo, searcher, sugar)},
		{queries.FindSimilarAnswersQuery{}, qryhandlers.NewFindSimilarAnswersHandler(projectRepo, nodeRepo, searcher, sugar)},
		{queries.FindSimilarGuidesQuery{}, qryhandlers.NewFindSimilarGuidesHandler(embedder, searcher, sugar)},
	}
	for _, reg := range registrations {
		if err := queryBus.Register(reg.query, reg.handler); err != nil {
			return err
		}
	}
	c.QueryBus = queryBus

	return nil
}

// Ready reports whether the backing store is reachable.
func (c *Container) Ready(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	return c.pool.Ping(ctx)
}

// Shutdown releases held resources.
func (c *Container) Shutdown() {
	if c.pool != nil {
		c.pool.Close()
	}
	_ = c.Logger.Sync()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// sugaredLogger adapts zap's sugared logger to the keysAndValues logger
// interfaces used by the handlers.
type sugaredLogger struct {
	s *zap.SugaredLogger
}

func (l *sugaredLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l *sugaredLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l *sugaredLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}

func (l *sugaredLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}
