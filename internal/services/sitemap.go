package services

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
	"github.com/fernsky/delivery-admin-sub005/internal/logger"
	"github.com/fernsky/delivery-admin-sub005/internal/repos"
)

// SitemapEntry is one URL the crawler should visit. The front end
// turns these into sitemap XML; this service only decides what exists.
type SitemapEntry struct {
	URL        string  `json:"url" yaml:"-"`
	Path       string  `json:"-" yaml:"path"`
	ChangeFreq string  `json:"changefreq,omitempty" yaml:"changefreq"`
	Priority   float64 `json:"priority,omitempty" yaml:"priority"`
}

type sitemapRoutes struct {
	BaseURL    string                    `yaml:"base_url"`
	Locales    []string                  `yaml:"locales"`
	Categories map[string][]SitemapEntry `yaml:"categories"`
}

const demographicsCategory = "demographics"

type SitemapService interface {
	Entries(ctx context.Context, locale, category string) ([]SitemapEntry, error)
	Categories() []string
}

type sitemapService struct {
	log      *logger.Logger
	wardRepo repos.WardRepo
	routes   sitemapRoutes
	locales  map[string]bool
}

// NewSitemapService loads the static route list once at startup; a
// broken routes file is a deployment error, not a per-request one.
func NewSitemapService(baseLog *logger.Logger, wardRepo repos.WardRepo) (SitemapService, error) {
	serviceLog := baseLog.With("service", "SitemapService")

	routesPath := strings.TrimSpace(os.Getenv("SITEMAP_ROUTES_PATH"))
	if routesPath == "" {
		routesPath = "config/sitemap_routes.yaml"
	}
	raw, err := os.ReadFile(routesPath)
	if err != nil {
		return nil, fmt.Errorf("could not read sitemap routes file %q: %w", routesPath, err)
	}
	var routes sitemapRoutes
	if err := yaml.Unmarshal(raw, &routes); err != nil {
		return nil, fmt.Errorf("could not parse sitemap routes file %q: %w", routesPath, err)
	}
	if routes.BaseURL == "" {
		return nil, fmt.Errorf("sitemap routes file %q is missing base_url", routesPath)
	}
	if len(routes.Locales) == 0 {
		routes.Locales = []string{"en"}
	}

	locales := make(map[string]bool, len(routes.Locales))
	for _, l := range routes.Locales {
		locales[l] = true
	}
	serviceLog.Info("Sitemap routes loaded", "path", routesPath, "categories", len(routes.Categories))

	return &sitemapService{
		log:      serviceLog,
		wardRepo: wardRepo,
		routes:   routes,
		locales:  locales,
	}, nil
}

func (s *sitemapService) Categories() []string {
	out := make([]string, 0, len(s.routes.Categories))
	for name := range s.routes.Categories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *sitemapService) Entries(ctx context.Context, locale, category string) ([]SitemapEntry, error) {
	if !s.locales[locale] {
		return nil, apperr.NotFound("unknown sitemap locale %q", locale)
	}
	static, ok := s.routes.Categories[category]
	if !ok {
		return nil, apperr.NotFound("unknown sitemap category %q", category)
	}

	base := strings.TrimSuffix(s.routes.BaseURL, "/")
	entries := make([]SitemapEntry, 0, len(static))
	for _, e := range static {
		entries = append(entries, SitemapEntry{
			URL:        fmt.Sprintf("%s/%s%s", base, locale, e.Path),
			ChangeFreq: e.ChangeFreq,
			Priority:   e.Priority,
		})
	}

	// Demographics pages exist per ward, so that category also lists
	// one URL for every ward on record.
	if category == demographicsCategory {
		wards, err := s.wardRepo.List(ctx, nil)
		if err != nil {
			s.log.Error("ward list for sitemap failed", "error", err)
			return nil, apperr.Internal(err)
		}
		for _, w := range wards {
			entries = append(entries, SitemapEntry{
				URL:        fmt.Sprintf("%s/%s/profile/demographics/ward/%d", base, locale, w.WardNumber),
				ChangeFreq: "monthly",
				Priority:   0.6,
			})
		}
	}
	return entries, nil
}
