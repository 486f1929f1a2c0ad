package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// DefaultFreshnessWindow is how long a stored record is served without re-analysis
const DefaultFreshnessWindow = 7 * 24 * time.Hour

// PolicyRecord is one analyzed snapshot of a privacy policy document.
// The analysis payload is immutable once stored; a content change produces a new version.
type PolicyRecord struct {
	ID               string         `json:"id"`
	URL              string         `json:"url"`
	Domain           string         `json:"domain"`
	Version          int            `json:"version"`
	Title            string         `json:"title"`
	Company          string         `json:"company,omitempty"`
	LastUpdated      *time.Time     `json:"lastUpdated,omitempty"`
	RawText          string         `json:"rawText"`
	ContentHash      string         `json:"contentHash"`
	ExtractionMethod FetchMethod    `json:"extractionMethod"`
	Analysis         AnalysisResult `json:"analysis"`
	CreatedAt        time.Time      `json:"createdAt"`
	LastChecked      time.Time      `json:"lastChecked"`
}

// IsFresh reports whether the record was confirmed within the window
func (p *PolicyRecord) IsFresh(window time.Duration, now time.Time) bool {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	return now.Sub(p.LastChecked) < window
}

// StoredHash returns the content hash, deriving it from RawText for rows written without one
func (p *PolicyRecord) StoredHash() string {
	if p.ContentHash != "" {
		return p.ContentHash
	}
	return ContentHash(p.RawText)
}

// PolicyHistoryEntry is a past version of a policy for the same URL.
// Created once per detected content change, never mutated.
type PolicyHistoryEntry struct {
	ID              string    `json:"id"`
	PolicyID        string    `json:"policyId"`
	SupersededBy    string    `json:"supersededBy,omitempty"`
	Version         int       `json:"version"`
	SnapshotDate    time.Time `json:"snapshotDate"`
	RawText         string    `json:"rawText"`
	Summary         []string  `json:"summary"`
	Score           Score     `json:"score"`
	ChangesDetected bool      `json:"changesDetected"`
}

// PolicyData is the extracted input handed to the analyzer and the store
type PolicyData struct {
	URL              string      `json:"url"`
	Title            string      `json:"title"`
	Text             string      `json:"text"`
	Company          string      `json:"company,omitempty"`
	LastUpdated      *time.Time  `json:"lastUpdated,omitempty"`
	ExtractionMethod FetchMethod `json:"extractionMethod,omitempty"`
}

// PolicyMetadata is the best-effort metadata derived from a policy page
type PolicyMetadata struct {
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// SaveResult reports the outcome of persisting an analysis
type SaveResult struct {
	PolicyID string `json:"policyId"`
	IsNew    bool   `json:"isNew"`

	// Record is the stored version after the save
	Record *PolicyRecord `json:"-"`
}

// AnalyzeRequest is the inbound analyze-policy call
type AnalyzeRequest struct {
	URL        string `json:"url"`
	ForceFresh bool   `json:"forceFresh,omitempty"`

	// Request attribution, recorded in the request log only
	UserID    *string `json:"-"`
	UserAgent string  `json:"-"`
	IPAddress string  `json:"-"`
}

// AnalyzeResponse is returned by the analyze-policy use case
type AnalyzeResponse struct {
	Policy   *PolicyRecord `json:"policy"`
	Cached   bool          `json:"cached"`
	IsNew    *bool         `json:"isNew,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

// ContentHash returns the hex SHA-256 of the normalized policy text
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

// ParsePolicyURL validates an absolute http(s) URL
func ParsePolicyURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, NewValidationError(raw, "url is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, NewValidationError(raw, "url is not valid")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, NewValidationError(raw, "url must use http or https")
	}
	if u.Host == "" || u.Hostname() == "" {
		return nil, NewValidationError(raw, "url must be absolute")
	}

	return u, nil
}

// DomainOf returns the lowercased host of a URL without a leading www.
func DomainOf(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
