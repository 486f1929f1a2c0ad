package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/policylens/internal/core/domain"
)

func TestPipelineFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name: "pipeline",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			s := &scenario{t: t}
			s.register(sc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("pipeline feature scenarios failed")
	}
}

// scenario holds the state of one feature scenario.
// The pipeline is built on first use so Given steps can still add options.
type scenario struct {
	t    *testing.T
	opts []pipelineOption
	p    *pipeline
	resp *domain.AnalyzeResponse
	err  error
}

func (s *scenario) register(sc *godog.ScenarioContext) {
	sc.Step(`^"([^"]*)" is a complex domain$`, s.complexDomain)
	sc.Step(`^the page "([^"]*)" serves a privacy policy$`, s.pageServesPolicy)
	sc.Step(`^the page "([^"]*)" serves "([^"]*)"$`, s.pageServes)
	sc.Step(`^the rendered page "([^"]*)" serves a privacy policy$`, s.renderedPageServesPolicy)
	sc.Step(`^the page "([^"]*)" changes$`, s.pageChanges)
	sc.Step(`^the primary provider is rate limited$`, s.primaryRateLimited)
	sc.Step(`^(\d+) days pass$`, s.daysPass)
	sc.Step(`^I analyze "([^"]*)"$`, s.analyze)
	sc.Step(`^I force a fresh analysis of "([^"]*)"$`, s.forceAnalyze)
	sc.Step(`^the response is cached$`, s.responseCached)
	sc.Step(`^the response is not cached$`, s.responseNotCached)
	sc.Step(`^the response is a new version$`, s.responseIsNew)
	sc.Step(`^the response is not a new version$`, s.responseIsNotNew)
	sc.Step(`^the store holds (\d+) versions? for "([^"]*)"$`, s.storeHolds)
	sc.Step(`^the stored record was created when it was last checked$`, s.createdWhenChecked)
	sc.Step(`^the history for "([^"]*)" has (\d+) entr(?:y|ies)$`, s.historyHas)
	sc.Step(`^the page was fetched (\d+) times?$`, s.fetchedTimes)
	sc.Step(`^the page was rendered (\d+) times?$`, s.renderedTimes)
	sc.Step(`^the primary provider was called (\d+) times?$`, s.primaryCalled)
	sc.Step(`^the analysis came from "([^"]*)"$`, s.analysisFrom)
	sc.Step(`^the analysis for "([^"]*)" is cached$`, s.analysisCached)
	sc.Step(`^the request fails with an extraction error$`, s.failsWithExtraction)
}

func (s *scenario) pipe() *pipeline {
	if s.p == nil {
		opts := append([]pipelineOption{withEnvironment(domain.EnvironmentProduction)}, s.opts...)
		s.p = newPipeline(s.t, opts...)
	}
	return s.p
}

func (s *scenario) complexDomain(host string) error {
	if s.p != nil {
		return errors.New("complex domains must be declared before the pipeline is used")
	}
	s.opts = append(s.opts, withComplexDomains(host))
	return nil
}

func (s *scenario) pageServesPolicy(url string) error {
	s.pipe().http.SetPage(url, policyPage())
	return nil
}

func (s *scenario) pageServes(url, html string) error {
	s.pipe().http.SetPage(url, html)
	return nil
}

func (s *scenario) renderedPageServesPolicy(url string) error {
	s.pipe().heavy.SetPage(url, policyPage())
	return nil
}

func (s *scenario) pageChanges(url string) error {
	p := s.pipe()
	p.http.SetPage(url, policyPage("We now share precise location data with advertising partners."))
	return p.cache.Delete(context.Background(), domain.CacheKey(domain.CacheNamespaceHTML, url))
}

func (s *scenario) primaryRateLimited() error {
	s.pipe().primary.SetError(fmt.Errorf("openai: %w", domain.ErrRateLimited))
	return nil
}

func (s *scenario) daysPass(days int) error {
	s.pipe().clock.Advance(time.Duration(days) * 24 * time.Hour)
	return nil
}

func (s *scenario) analyze(url string) error {
	s.resp, s.err = s.pipe().svc.Analyze(context.Background(), domain.AnalyzeRequest{URL: url})
	return nil
}

func (s *scenario) forceAnalyze(url string) error {
	s.resp, s.err = s.pipe().svc.Analyze(context.Background(), domain.AnalyzeRequest{URL: url, ForceFresh: true})
	return nil
}

func (s *scenario) response() (*domain.AnalyzeResponse, error) {
	if s.err != nil {
		return nil, fmt.Errorf("analyze failed: %w", s.err)
	}
	if s.resp == nil {
		return nil, errors.New("no analysis was requested")
	}
	return s.resp, nil
}

func (s *scenario) responseCached() error {
	resp, err := s.response()
	if err != nil {
		return err
	}
	if !resp.Cached {
		return errors.New("expected a cached response")
	}
	return nil
}

func (s *scenario) responseNotCached() error {
	resp, err := s.response()
	if err != nil {
		return err
	}
	if resp.Cached {
		return errors.New("expected a fresh response")
	}
	return nil
}

func (s *scenario) responseIsNew() error {
	resp, err := s.response()
	if err != nil {
		return err
	}
	if resp.IsNew == nil || !*resp.IsNew {
		return errors.New("expected isNew=true")
	}
	return nil
}

func (s *scenario) responseIsNotNew() error {
	resp, err := s.response()
	if err != nil {
		return err
	}
	if resp.IsNew == nil || *resp.IsNew {
		return errors.New("expected isNew=false")
	}
	return nil
}

func (s *scenario) storeHolds(count int, url string) error {
	versions, err := s.pipe().store.ListVersions(context.Background(), url)
	if err != nil {
		return err
	}
	if len(versions) != count {
		return fmt.Errorf("expected %d versions, got %d", count, len(versions))
	}
	return nil
}

func (s *scenario) createdWhenChecked() error {
	resp, err := s.response()
	if err != nil {
		return err
	}
	if !resp.Policy.CreatedAt.Equal(resp.Policy.LastChecked) {
		return fmt.Errorf("createdAt %s differs from lastChecked %s", resp.Policy.CreatedAt, resp.Policy.LastChecked)
	}
	return nil
}

func (s *scenario) historyHas(url string, count int) error {
	if got := s.pipe().store.HistoryCount(url); got != count {
		return fmt.Errorf("expected %d history entries, got %d", count, got)
	}
	return nil
}

func (s *scenario) fetchedTimes(count int) error {
	if got := s.pipe().http.Calls(); got != count {
		return fmt.Errorf("expected %d HTTP fetches, got %d", count, got)
	}
	return nil
}

func (s *scenario) renderedTimes(count int) error {
	if got := s.pipe().heavy.Calls(); got != count {
		return fmt.Errorf("expected %d renders, got %d", count, got)
	}
	return nil
}

func (s *scenario) primaryCalled(count int) error {
	if got := s.pipe().primary.Calls(); got != count {
		return fmt.Errorf("expected %d primary provider calls, got %d", count, got)
	}
	return nil
}

func (s *scenario) analysisFrom(provider string) error {
	resp, err := s.response()
	if err != nil {
		return err
	}
	if resp.Policy.Analysis.Provider != provider {
		return fmt.Errorf("expected provider %q, got %q", provider, resp.Policy.Analysis.Provider)
	}
	return nil
}

func (s *scenario) analysisCached(url string) error {
	if !s.pipe().cache.Has(domain.CacheKey(domain.CacheNamespaceAnalysis, url)) {
		return errors.New("expected the analysis to be cached")
	}
	return nil
}

func (s *scenario) failsWithExtraction() error {
	if !errors.Is(s.err, domain.ErrExtraction) {
		return fmt.Errorf("expected an extraction error, got %v", s.err)
	}
	return nil
}
