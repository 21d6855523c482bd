// Package services contains application services that do not fit the
// command/query split.
package services

import (
	"context"
	"fmt"
	"strings"

	"loupe-backend/application/ports"
	"loupe-backend/pkg/errors"
)

const reportSystemPrompt = `You are a research assistant that writes structured reports.
Write a comprehensive research report on the given topic using only the provided sources.
The report must contain exactly these sections, in order:
1. Abstract
2. Introduction
3. Analysis and Findings
4. Conclusion
5. References

Cite sources by their number (e.g. [Source 2]) in the body and list them
under References with title and URL. Do not invent sources.`

const summarySystemPrompt = `You are a research assistant. Summarize the provided content
concisely, preserving the key facts and figures. Respond with the summary only.`

// ReportService synthesizes research reports and summaries from stored
// sources.
type ReportService struct {
	sourceRepo ports.SourceRepository
	generator  ports.TextGenerator
}

// NewReportService creates a new report service
func NewReportService(sourceRepo ports.SourceRepository, generator ports.TextGenerator) *ReportService {
	return &ReportService{
		sourceRepo: sourceRepo,
		generator:  generator,
	}
}

// GenerateReport writes a structured report on the query from the
// sources selected by the client. Selected keys have the form
// "<url>-<index>"; the index after the last hyphen is discarded and
// URLs are deduplicated in selection order.
func (s *ReportService) GenerateReport(ctx context.Context, ownerID, query string, selectedKeys []string) (string, error) {
	if ownerID == "" {
		return "", errors.NewValidationError("owner ID is required")
	}
	if strings.TrimSpace(query) == "" {
		return "", errors.NewValidationError("query cannot be empty")
	}
	if len(selectedKeys) == 0 {
		return "", errors.NewValidationError("at least one source must be selected")
	}

	urls := urlsFromKeys(selectedKeys)
	if len(urls) == 0 {
		return "", errors.NewValidationError("no valid source keys provided")
	}

	sources, err := s.sourceRepo.ListByURLs(ctx, ownerID, urls)
	if err != nil {
		return "", err
	}
	if len(sources) == 0 {
		return "", errors.NewNotFoundError("matching sources")
	}

	userPrompt := buildReportPrompt(query, sources)
	report, err := s.generator.GenerateText(ctx, reportSystemPrompt, userPrompt)
	if err != nil {
		return "", errors.NewExternalError("report generation", err).WithCode("REPORT_FAILED")
	}
	return report, nil
}

// Summarize condenses arbitrary content into a short summary.
func (s *ReportService) Summarize(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", errors.NewValidationError("content cannot be empty")
	}

	summary, err := s.generator.GenerateText(ctx, summarySystemPrompt, content)
	if err != nil {
		return "", errors.NewExternalError("summarization", err).WithCode("SUMMARY_FAILED")
	}
	return summary, nil
}

// urlsFromKeys strips the trailing "-<index>" from each selection key
// and deduplicates the resulting URLs, preserving order. Keys without a
// hyphen are skipped.
func urlsFromKeys(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	var urls []string
	for _, key := range keys {
		idx := strings.LastIndex(key, "-")
		if idx <= 0 {
			continue
		}
		url := key[:idx]
		if seen[url] {
			continue
		}
		seen[url] = true
		urls = append(urls, url)
	}
	return urls
}

func buildReportPrompt(query string, sources []ports.SourceData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research topic: %s\n\nSources:\n\n", query)
	for i, src := range sources {
		fmt.Fprintf(&b, "Source %d:\nTitle: %s\nURL: %s\nContent: %s\n\n", i+1, src.Title, src.URL, src.Content)
	}
	return b.String()
}
