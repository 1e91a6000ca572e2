// internal/services/insights_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/licensehub/licensehub-backend/internal/models"
	"github.com/licensehub/licensehub-backend/internal/utils"
)

// TextGenerator produces free-form text from a prompt. The insights service
// treats the generator as opaque; swapping the backing model is a config
// change, not a code change.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// InsightsService builds cost-optimization summaries: it snapshots the
// inventory and request patterns, asks the generator for recommendations,
// and persists the result. Generation failures surface to the caller and
// are never retried.
type InsightsService struct {
	db        *gorm.DB
	requests  *RequestService
	inventory *InventoryService
	generator TextGenerator
}

func NewInsightsService(db *gorm.DB, requests *RequestService, inventory *InventoryService, generator TextGenerator) *InsightsService {
	return &InsightsService{
		db:        db,
		requests:  requests,
		inventory: inventory,
		generator: generator,
	}
}

// Run generates and stores a new recommendation.
func (s *InsightsService) Run(ctx context.Context, actor *Actor) (*models.AIRecommendation, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may run optimization analysis", ErrForbidden)
	}
	if s.generator == nil {
		return nil, fmt.Errorf("%w: text generation is not configured", ErrInvalidState)
	}

	stats, err := s.requests.Stats()
	if err != nil {
		return nil, err
	}
	software, _, err := s.inventory.ListSoftware(utils.PaginationParams{
		Page:  1,
		Limit: 100,
		Sort:  "monthly_cost",
		Order: "desc",
	})
	if err != nil {
		return nil, err
	}

	prompt := buildOptimizationPrompt(stats, software)
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate recommendations: %w", err)
	}

	recommendation := &models.AIRecommendation{
		RecommendationsText: text,
		TotalRequests:       stats.Total,
		PendingRequests:     stats.Pending,
		ApprovedRequests:    stats.Approved,
		RejectedRequests:    stats.Rejected,
		FlaggedSoftware:     stats.RevokeRequested,
	}
	if err := s.db.Create(recommendation).Error; err != nil {
		return nil, fmt.Errorf("failed to store recommendation: %w", err)
	}
	return recommendation, nil
}

// Latest returns the most recent recommendations, newest first.
func (s *InsightsService) Latest(actor *Actor, limit int) ([]models.AIRecommendation, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may view recommendations", ErrForbidden)
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var recommendations []models.AIRecommendation
	err := s.db.Order("created_at DESC").Limit(limit).Find(&recommendations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recommendations: %w", err)
	}
	return recommendations, nil
}

func buildOptimizationPrompt(stats *RequestStats, software []models.SoftwareApplication) string {
	var b strings.Builder
	b.WriteString("You are a SaaS license cost-optimization analyst. ")
	b.WriteString("Given the inventory and request activity below, recommend concrete cost savings: ")
	b.WriteString("unused licenses to reclaim, redundant tools to consolidate, and renewals to renegotiate.\n\n")

	b.WriteString("Inventory:\n")
	for _, s := range software {
		fmt.Fprintf(&b, "- %s (%s, %s): %d licenses, $%s/month, renews %s\n",
			s.Name, s.Vendor, s.Category, s.TotalLicenses,
			s.MonthlyCost.StringFixed(2), s.RenewalDate.Format("2006-01-02"))
	}

	fmt.Fprintf(&b, "\nRequests: %d total (%d pending, %d approved, %d rejected)\n",
		stats.Total, stats.Pending, stats.Approved, stats.Rejected)
	if len(stats.MostRequested) > 0 {
		fmt.Fprintf(&b, "Most requested: %s\n", strings.Join(stats.MostRequested, ", "))
	}
	if len(stats.RevokeRequested) > 0 {
		fmt.Fprintf(&b, "Revocations requested for: %s\n", strings.Join(stats.RevokeRequested, ", "))
	}

	return b.String()
}

// CompletionClient is the HTTP TextGenerator. It posts to an
// OpenAI-compatible chat completions endpoint.
type CompletionClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewCompletionClient(baseURL, apiKey, model string) *CompletionClient {
	return &CompletionClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

type completionRequest struct {
	Model    string              `json:"model"`
	Messages []completionMessage `json:"messages"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *CompletionClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("completion api key is not configured")
	}

	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []completionMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	var parsed completionResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("completion endpoint returned %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("completion response contained no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
