package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loupe-backend/application/ports"
	"loupe-backend/domain/core/entities"
	"loupe-backend/domain/core/valueobjects"
)

type fakeSourceRepo struct {
	sources       []ports.SourceData
	err           error
	requestedURLs []string
}

func (f *fakeSourceRepo) Save(ctx context.Context, source *entities.Source) error { return nil }

func (f *fakeSourceRepo) GetEmbedding(ctx context.Context, nodeID valueobjects.NodeID, url string) (valueobjects.Embedding, error) {
	return valueobjects.Embedding{}, nil
}

func (f *fakeSourceRepo) ListByURLs(ctx context.Context, ownerID string, urls []string) ([]ports.SourceData, error) {
	f.requestedURLs = urls
	return f.sources, f.err
}

type fakeTextGenerator struct {
	output       string
	err          error
	systemPrompt string
	userPrompt   string
}

func (f *fakeTextGenerator) GenerateFollowups(ctx context.Context, query, answer string) (*ports.FollowupSet, error) {
	return nil, errors.New("not used")
}

func (f *fakeTextGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.systemPrompt = systemPrompt
	f.userPrompt = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func TestGenerateReport(t *testing.T) {
	repo := &fakeSourceRepo{sources: []ports.SourceData{
		{Title: "Paper", URL: "https://a.example/paper", Content: "findings"},
	}}
	gen := &fakeTextGenerator{output: "the report"}
	svc := NewReportService(repo, gen)

	report, err := svc.GenerateReport(context.Background(), "user-1", "glacier formation", []string{
		"https://a.example/paper-0",
		"https://a.example/paper-1",
		"https://b.example/other-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "the report", report)

	// Keys collapse to deduplicated URLs, index stripped at the last hyphen.
	assert.Equal(t, []string{"https://a.example/paper", "https://b.example/other"}, repo.requestedURLs)

	// The prompt carries the topic and numbered source blocks.
	assert.Contains(t, gen.userPrompt, "glacier formation")
	assert.Contains(t, gen.userPrompt, "Source 1:")
	assert.Contains(t, gen.userPrompt, "https://a.example/paper")

	// All five mandatory sections are demanded of the model.
	for _, section := range []string{"Abstract", "Introduction", "Analysis and Findings", "Conclusion", "References"} {
		assert.Contains(t, gen.systemPrompt, section)
	}
}

func TestGenerateReport_Validation(t *testing.T) {
	svc := NewReportService(&fakeSourceRepo{}, &fakeTextGenerator{})
	ctx := context.Background()

	_, err := svc.GenerateReport(ctx, "", "topic", []string{"https://a.example-0"})
	assert.Error(t, err, "missing owner")

	_, err = svc.GenerateReport(ctx, "user-1", "  ", []string{"https://a.example-0"})
	assert.Error(t, err, "blank query")

	_, err = svc.GenerateReport(ctx, "user-1", "topic", nil)
	assert.Error(t, err, "no selection")

	_, err = svc.GenerateReport(ctx, "user-1", "topic", []string{"nohyphen"})
	assert.Error(t, err, "malformed keys only")
}

func TestGenerateReport_NoMatchingSources(t *testing.T) {
	svc := NewReportService(&fakeSourceRepo{}, &fakeTextGenerator{output: "unused"})

	_, err := svc.GenerateReport(context.Background(), "user-1", "topic", []string{"https://a.example-0"})
	assert.Error(t, err)
}

func TestGenerateReport_GeneratorFailure(t *testing.T) {
	repo := &fakeSourceRepo{sources: []ports.SourceData{{Title: "t", URL: "u", Content: "c"}}}
	svc := NewReportService(repo, &fakeTextGenerator{err: errors.New("model down")})

	_, err := svc.GenerateReport(context.Background(), "user-1", "topic", []string{"https://a.example-0"})
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	gen := &fakeTextGenerator{output: "short version"}
	svc := NewReportService(&fakeSourceRepo{}, gen)

	summary, err := svc.Summarize(context.Background(), "a very long text")
	require.NoError(t, err)
	assert.Equal(t, "short version", summary)
	assert.Contains(t, gen.userPrompt, "a very long text")

	_, err = svc.Summarize(context.Background(), "   ")
	assert.Error(t, err)
}

func TestURLsFromKeys(t *testing.T) {
	urls := urlsFromKeys([]string{
		"https://a.example/x-0",
		"https://a.example/x-12",
		"bad",
		"-leading",
		"https://b.example-3",
	})
	assert.Equal(t, []string{"https://a.example/x", "https://b.example"}, urls)
}
