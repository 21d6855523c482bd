// Package tavily implements the web search port against the Tavily API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"loupe-backend/application/ports"
	"loupe-backend/domain/core/entities"
)

const (
	// DefaultBaseURL is the Tavily API endpoint.
	DefaultBaseURL = "https://api.tavily.com"

	// DefaultMaxResults bounds results per search. It is also the hard
	// cap; every search result fans out into an embedding call.
	DefaultMaxResults = 3

	// fallbackAnswer is used when the provider returns no answer.
	fallbackAnswer = "No answer available"
)

// Config holds Tavily client configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Timeout    time.Duration
}

// Client searches the web through Tavily with advanced answer synthesis
// and image descriptions enabled.
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient creates a Tavily client.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("tavily API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.MaxResults <= 0 || config.MaxResults > DefaultMaxResults {
		config.MaxResults = DefaultMaxResults
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "tavily",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		breaker:    breaker,
		logger:     logger,
	}, nil
}

type searchRequest struct {
	APIKey                   string `json:"api_key"`
	Query                    string `json:"query"`
	MaxResults               int    `json:"max_results"`
	IncludeAnswer            string `json:"include_answer"`
	IncludeImages            bool   `json:"include_images"`
	IncludeImageDescriptions bool   `json:"include_image_descriptions"`
}

type searchResponse struct {
	Answer string `json:"answer"`
	Images []struct {
		URL         string `json:"url"`
		Description string `json:"description"`
	} `json:"images"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search runs a web search and returns the synthesized answer with
// supporting results and images.
func (c *Client) Search(ctx context.Context, query string) (*ports.SearchResponse, error) {
	req := searchRequest{
		APIKey:                   c.config.APIKey,
		Query:                    query,
		MaxResults:               c.config.MaxResults,
		IncludeAnswer:            "advanced",
		IncludeImages:            true,
		IncludeImageDescriptions: true,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/search", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("tavily search returned status %d", resp.StatusCode)
		}

		var parsed searchResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode search response: %w", err)
		}
		return &parsed, nil
	})
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	parsed := result.(*searchResponse)

	answer := parsed.Answer
	if answer == "" {
		answer = fallbackAnswer
	}

	images := make([]entities.ImageResult, 0, len(parsed.Images))
	for _, img := range parsed.Images {
		images = append(images, entities.ImageResult{
			URL:         img.URL,
			Description: img.Description,
		})
	}

	results := make([]entities.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, entities.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
		})
	}

	return &ports.SearchResponse{
		Answer:  answer,
		Images:  images,
		Results: results,
	}, nil
}
