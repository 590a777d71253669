// Package dashboard builds the home page overview.
package dashboard

import (
	"context"
	"errors"
	"html/template"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/charts"
	"github.com/source-impact/admin-dashboard/internal/platform/cache"
	"github.com/source-impact/admin-dashboard/internal/rbac"
)

const recentLimit = 5

// Gateway is the slice of the backend client read by the home page.
type Gateway interface {
	Stats(ctx context.Context, token string) (backend.Stats, error)
	ListUsers(ctx context.Context, token string, params backend.ListParams) (backend.Page[backend.User], error)
	ListDisputes(ctx context.Context, token string, params backend.ListParams) (backend.Page[backend.Dispute], error)
}

// CacheObserver is told about stats cache hits and misses.
type CacheObserver interface {
	ObserveCache(cache string, hit bool)
}

// Overview is everything the home page shows. A section the principal
// may not see, or whose load failed, is left empty with its error set.
type Overview struct {
	Stats        *backend.Stats
	Chart        template.HTML
	RecentUsers  []backend.User
	OpenDisputes []backend.Dispute
	StatsError   string
	UsersError   string
	DisputeError string
}

// Service assembles the overview.
type Service struct {
	gateway  Gateway
	cache    *cache.JSONCache
	observer CacheObserver
	logger   *slog.Logger
}

// NewService builds Service instance. cache and observer may be nil.
func NewService(gateway Gateway, c *cache.JSONCache, observer CacheObserver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, cache: c, observer: observer, logger: logger}
}

// Overview loads the sections the principal may see in parallel. Only an
// unauthorized backend response is returned as an error; other failures
// are reported per section.
func (s *Service) Overview(ctx context.Context, p rbac.Principal, token string) (Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)

	if p.Can(rbac.ViewAnalytics) {
		g.Go(func() error {
			stats, err := s.stats(gctx, token)
			if err != nil {
				out.StatsError = s.sectionError("stats", err)
				return unauthorized(err)
			}
			out.Stats = &stats
			out.Chart = activityChart(stats)
			return nil
		})
	}
	if p.Can(rbac.ViewUsers) {
		g.Go(func() error {
			page, err := s.gateway.ListUsers(gctx, token, backend.ListParams{Page: 1, PerPage: recentLimit})
			if err != nil {
				out.UsersError = s.sectionError("recent users", err)
				return unauthorized(err)
			}
			out.RecentUsers = head(page.Items, recentLimit)
			return nil
		})
	}
	if p.Can(rbac.ManageSupport) {
		g.Go(func() error {
			page, err := s.gateway.ListDisputes(gctx, token, backend.ListParams{Status: "open", Page: 1, PerPage: recentLimit})
			if err != nil {
				out.DisputeError = s.sectionError("open disputes", err)
				return unauthorized(err)
			}
			out.OpenDisputes = head(page.Items, recentLimit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return out, nil
}

// stats reads through the shared cache. Concurrent misses issue a single
// backend call.
func (s *Service) stats(ctx context.Context, token string) (backend.Stats, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "stats")
	if err != nil {
		s.logger.Warn("stats cache key", slog.Any("error", err))
		return s.gateway.Stats(ctx, token)
	}
	loaded := false
	var stats backend.Stats
	err = s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (any, error) {
		loaded = true
		return s.gateway.Stats(ctx, token)
	})
	if err != nil {
		if !loaded {
			var be *backend.Error
			if !errors.As(err, &be) {
				s.logger.Warn("stats cache read", slog.Any("error", err))
				return s.gateway.Stats(ctx, token)
			}
		}
		return backend.Stats{}, err
	}
	if s.observer != nil {
		s.observer.ObserveCache("stats", !loaded)
	}
	return stats, nil
}

// Refresh drops every cached overview value.
func (s *Service) Refresh(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) sectionError(section string, err error) string {
	s.logger.Warn("overview section failed", slog.String("section", section), slog.Any("error", err))
	return backend.Message(err)
}

func unauthorized(err error) error {
	if errors.Is(err, backend.ErrUnauthorized) {
		return err
	}
	return nil
}

func activityChart(stats backend.Stats) template.HTML {
	if len(stats.Monthly) == 0 {
		return ""
	}
	labels := make([]string, len(stats.Monthly))
	signups := make([]float64, len(stats.Monthly))
	deals := make([]float64, len(stats.Monthly))
	for i, m := range stats.Monthly {
		labels[i] = m.Month
		signups[i] = m.Signups.Float()
		deals[i] = m.Deals.Float()
	}
	chart, err := charts.Bars(0, 0, []charts.Series{
		{Label: "Signups", Values: signups},
		{Label: "Deals", Values: deals},
	}, labels, charts.BarOpts{Title: "Monthly activity", Description: "Signups and deals per month"})
	if err != nil {
		return ""
	}
	return chart
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
