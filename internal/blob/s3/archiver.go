package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

const (
	jsonlContentType = "application/x-ndjson"

	// DefaultBatchLimit caps the rows moved by one ArchiveTrades call.
	DefaultBatchLimit = 50000

	multipartThreshold = minPartSize
)

// TradeTape is the slice of domain.TradeStore the archiver needs.
type TradeTape interface {
	ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.Trade, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ObjectIndex answers key and listing queries against the archive bucket.
type ObjectIndex interface {
	Exists(ctx context.Context, path string) (bool, error)
	List(ctx context.Context, prefix string) ([]domain.BlobInfo, error)
}

// TradeArchiver implements domain.Archiver. Trades older than the cutoff are
// written as one JSONL object and then removed from the tape.
type TradeArchiver struct {
	writer domain.BlobWriter
	index  ObjectIndex
	tape   TradeTape
	prefix string
	limit  int
	logger *slog.Logger
}

// NewArchiver creates a TradeArchiver. index may be nil, in which case keys
// are assumed free and nothing is listed.
func NewArchiver(writer domain.BlobWriter, index ObjectIndex, tape TradeTape, prefix string, logger *slog.Logger) *TradeArchiver {
	return &TradeArchiver{
		writer: writer,
		index:  index,
		tape:   tape,
		prefix: prefix,
		limit:  DefaultBatchLimit,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveTrades uploads trades created before the cutoff and deletes them
// from the tape, returning the number archived. When more rows exist than the
// batch limit, the cutoff is pulled back to the newest listed timestamp so
// every deleted row is present in the upload; the rest go on the next call.
func (a *TradeArchiver) ArchiveTrades(ctx context.Context, before time.Time) (int64, error) {
	trades, err := a.tape.ListBefore(ctx, before, a.limit)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trades query: %w", err)
	}

	cutoff := before
	if len(trades) >= a.limit && a.limit > 0 {
		cutoff = trades[len(trades)-1].CreatedAt
		trades = trimFrom(trades, cutoff)
	}
	if len(trades) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(trades)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trades marshal: %w", err)
	}

	key, err := a.freeKey(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if int64(len(buf)) > multipartThreshold {
		err = a.writer.PutMultipart(ctx, key, bytes.NewReader(buf), minPartSize)
	} else {
		err = a.writer.Put(ctx, key, bytes.NewReader(buf), jsonlContentType)
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trades upload: %w", err)
	}

	deleted, err := a.tape.DeleteBefore(ctx, cutoff)
	if err != nil {
		return int64(len(trades)), fmt.Errorf("s3blob: archive trades delete: %w", err)
	}

	a.logger.Info("s3blob: archived trades",
		slog.String("path", key),
		slog.Int("count", len(trades)),
		slog.Int64("deleted", deleted),
		slog.Time("before", cutoff),
	)
	return int64(len(trades)), nil
}

// ListArchives returns the objects archived under the given UTC day.
func (a *TradeArchiver) ListArchives(ctx context.Context, day time.Time) ([]domain.BlobInfo, error) {
	if a.index == nil {
		return nil, nil
	}
	prefix := dayPrefix(a.prefix, day) + "/"
	objects, err := a.index.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("s3blob: list archives %s: %w", day.UTC().Format(time.DateOnly), err)
	}
	return objects, nil
}

// freeKey returns the first unused key for the cutoff, adding a numeric
// suffix when an earlier archive already claimed the name.
func (a *TradeArchiver) freeKey(ctx context.Context, cutoff time.Time) (string, error) {
	base := archivePath(a.prefix, cutoff)
	if a.index == nil {
		return base + ".jsonl", nil
	}
	for i := 0; ; i++ {
		key := base + ".jsonl"
		if i > 0 {
			key = fmt.Sprintf("%s-%d.jsonl", base, i)
		}
		exists, err := a.index.Exists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("s3blob: archive trades key: %w", err)
		}
		if !exists {
			return key, nil
		}
	}
}

// trimFrom drops the trailing rows stamped at or after cutoff. Input is
// ordered oldest first.
func trimFrom(trades []domain.Trade, cutoff time.Time) []domain.Trade {
	n := len(trades)
	for n > 0 && !trades[n-1].CreatedAt.Before(cutoff) {
		n--
	}
	return trades[:n]
}

// archivePath builds the key stem, partitioned by day:
//
//	archive/trades/2026-10-19/20261019T120000Z
func archivePath(prefix string, cutoff time.Time) string {
	return path.Join(dayPrefix(prefix, cutoff), cutoff.UTC().Format("20060102T150405Z"))
}

func dayPrefix(prefix string, day time.Time) string {
	return path.Join(prefix, "archive", "trades", day.UTC().Format(time.DateOnly))
}

// marshalJSONL encodes records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*TradeArchiver)(nil)
