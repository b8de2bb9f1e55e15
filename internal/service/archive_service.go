package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
	"github.com/SlugMacro/wm-fe-sub000/internal/metrics"
)

// ArchiveService periodically moves trades older than the retention window
// from PostgreSQL to object storage.
type ArchiveService struct {
	archiver  domain.Archiver
	retention time.Duration
	metrics   *metrics.Metrics
	now       func() time.Time
	logger    *slog.Logger
}

// NewArchiveService creates an ArchiveService.
func NewArchiveService(archiver domain.Archiver, retention time.Duration, m *metrics.Metrics, logger *slog.Logger) *ArchiveService {
	return &ArchiveService{
		archiver:  archiver,
		retention: retention,
		metrics:   m,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "archive_service")),
	}
}

// RunOnce archives everything older than now minus the retention window.
func (s *ArchiveService) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.archiver.ArchiveTrades(ctx, cutoff)
	if err != nil {
		return n, fmt.Errorf("archive_service: archive before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "archive_service: archived trades",
			slog.Int64("count", n),
			slog.Time("before", cutoff),
		)
	}
	return n, nil
}

// Run calls RunOnce every interval until ctx is cancelled.
func (s *ArchiveService) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.metrics.SideEffectFailed("archive")
				s.logger.WarnContext(ctx, "archive_service: run failed", slog.String("error", err.Error()))
			}
		}
	}
}
