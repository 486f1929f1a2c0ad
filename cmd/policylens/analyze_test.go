package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policylens/internal/core/domain"
)

type stubPolicyService struct {
	requests []domain.AnalyzeRequest
}

func (s *stubPolicyService) Analyze(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	s.requests = append(s.requests, req)
	return &domain.AnalyzeResponse{Policy: &domain.PolicyRecord{ID: "pol-1", URL: req.URL}}, nil
}

func (s *stubPolicyService) AnalyzeBatch(ctx context.Context, reqs []domain.AnalyzeRequest) []domain.BatchResult {
	s.requests = append(s.requests, reqs...)
	results := make([]domain.BatchResult, len(reqs))
	for i, r := range reqs {
		results[i] = domain.BatchResult{URL: r.URL}
		if r.URL == "not-a-url" {
			results[i].Error = "url must use http or https"
		}
	}
	return results
}

func (s *stubPolicyService) Get(ctx context.Context, id string) (*domain.PolicyRecord, error) {
	return nil, domain.ErrNotFound
}

func (s *stubPolicyService) GetByURL(ctx context.Context, url string) (*domain.PolicyRecord, error) {
	return nil, domain.ErrNotFound
}

func (s *stubPolicyService) GetHistory(ctx context.Context, id string) ([]*domain.PolicyHistoryEntry, error) {
	return nil, domain.ErrNotFound
}

func (s *stubPolicyService) Classify(ctx context.Context, req domain.ClassifyRequest) (*domain.Classification, error) {
	return nil, errors.New("not implemented")
}

func TestRunAnalyze_Single(t *testing.T) {
	svc := &stubPolicyService{}
	a := &app{policyService: svc}

	var out bytes.Buffer
	err := runAnalyze(context.Background(), a, []string{"https://example.com/privacy"}, true, &out)
	require.NoError(t, err)

	var resp domain.AnalyzeResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "pol-1", resp.Policy.ID)

	require.Len(t, svc.requests, 1)
	assert.True(t, svc.requests[0].ForceFresh)
	assert.Equal(t, cliUserAgent, svc.requests[0].UserAgent)
}

func TestRunAnalyze_BatchReportsFailures(t *testing.T) {
	svc := &stubPolicyService{}
	a := &app{policyService: svc}

	var out bytes.Buffer
	err := runAnalyze(context.Background(), a, []string{"https://a.test/privacy", "not-a-url"}, false, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 urls failed")

	var results []domain.BatchResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "https://a.test/privacy", results[0].URL)
	assert.NotEmpty(t, results[1].Error)
}

func TestCommandTree(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["analyze"])
	assert.True(t, names["classify"])

	assert.Error(t, analyzeCmd.Args(analyzeCmd, nil))
	assert.Error(t, classifyCmd.Args(classifyCmd, []string{"a", "b"}))
}
