package parser

import (
	"context"
	"fmt"
	"log/slog"

	"NewsAgent/internal/config"
	"NewsAgent/internal/domain"
	"NewsAgent/internal/ports"
	"NewsAgent/internal/scanner"
)

const listingLimit = 10

// StrategySource implements ArticleSource by trying configured sites in
// order until one of them yields articles.
type StrategySource struct {
	registry       *scanner.Registry
	sites          []config.SiteConfig
	sampleFallback bool
	logger         *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, sampleFallback bool, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry:       reg,
		sites:          sites,
		sampleFallback: sampleFallback,
		logger:         log,
	}
}

// FetchLatest returns up to ten headlines. A non-empty url is tried first
// with the selector strategy. When every source fails the sample set is
// returned if enabled.
func (s *StrategySource) FetchLatest(ctx context.Context, url string) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	sites := s.sites
	if url != "" {
		sites = append([]config.SiteConfig{{
			Name:       "requested",
			Scanner:    "selectors",
			Categories: []config.CategoryConfig{{Name: "latest", URL: url}},
		}}, withoutURL(s.sites, url)...)
	}
	s.debug("fetch latest", "sites", len(sites))

	var lastErr error
	for _, site := range sites {
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			lastErr = fmt.Errorf("site %s: %w", site.Name, err)
			s.warn("skip site", "site", site.Name, "error", err)
			continue
		}

		results, err := strategy.Scan(ctx, scanner.Request{
			SiteName:   site.Name,
			Options:    site.Options,
			Categories: toScannerCategories(site.Categories),
			Limit:      perSourceLimit,
		})
		if err != nil {
			lastErr = fmt.Errorf("scan site %s: %w", site.Name, err)
			s.warn("site scan failed", "site", site.Name, "error", err)
			continue
		}
		if len(results) == 0 {
			s.debug("site produced no articles", "site", site.Name)
			continue
		}

		s.debug("site produced articles", "site", site.Name, "count", len(results))
		if len(results) > listingLimit {
			results = results[:listingLimit]
		}
		return results, nil
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("fetch latest: %w", ctx.Err())
	}
	if s.sampleFallback {
		s.warn("all sources failed, returning sample articles")
		return domain.SampleArticles(), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no source returned articles")
	}
	return nil, lastErr
}

func withoutURL(sites []config.SiteConfig, url string) []config.SiteConfig {
	out := make([]config.SiteConfig, 0, len(sites))
	for _, site := range sites {
		if len(site.Categories) == 1 && site.Categories[0].URL == url {
			continue
		}
		out = append(out, site)
	}
	return out
}

func toScannerCategories(cfg []config.CategoryConfig) []scanner.Category {
	categories := make([]scanner.Category, 0, len(cfg))
	for _, cat := range cfg {
		categories = append(categories, scanner.Category{
			Name: cat.Name,
			URL:  cat.URL,
		})
	}
	return categories
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
