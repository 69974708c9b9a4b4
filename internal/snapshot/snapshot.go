// Package snapshot exports the friendship edge set as JSON lines.
package snapshot

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/friendgraph/backend/internal/logging"
	"github.com/friendgraph/backend/internal/models"
)

// Source streams every stored friendship edge.
type Source interface {
	EachFriendship(ctx context.Context, fn func(models.Friendship) error) error
}

// Sink persists a named object and returns where it was stored.
type Sink interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Result describes a completed export.
type Result struct {
	Location string
	Edges    int
}

// Exporter copies the edge set from a Source into a Sink.
type Exporter struct {
	source Source
	sink   Sink
	now    func() time.Time
}

// NewExporter constructs an Exporter.
func NewExporter(source Source, sink Sink) (*Exporter, error) {
	if source == nil {
		return nil, errors.New("snapshot source is required")
	}
	if sink == nil {
		return nil, errors.New("snapshot sink is required")
	}
	return &Exporter{source: source, sink: sink, now: func() time.Time { return time.Now().UTC() }}, nil
}

// DefaultName returns a timestamped object name for an export taken at t.
func DefaultName(t time.Time) string {
	return fmt.Sprintf("friendships-%s.jsonl", t.UTC().Format("20060102T150405Z"))
}

// Export writes one JSON object per edge to name. An empty name selects DefaultName.
func (e *Exporter) Export(ctx context.Context, name string) (Result, error) {
	if name == "" {
		name = DefaultName(e.now())
	}

	ctx, span := logging.StartSpan(ctx, "snapshot.export", slog.String("name", name))

	pr, pw := io.Pipe()
	var result Result

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		count, err := writeEdges(gctx, e.source, pw)
		result.Edges = count
		pw.CloseWithError(err)
		return err
	})
	group.Go(func() error {
		location, err := e.sink.Save(gctx, name, pr)
		// A writer still blocked here means the sink stopped reading early.
		pr.CloseWithError(err)
		result.Location = location
		return err
	})

	err := group.Wait()
	span.Finish(err)
	if err != nil {
		return Result{}, fmt.Errorf("export snapshot %s: %w", name, err)
	}

	logging.FromContext(ctx).Info("snapshot exported",
		slog.String("location", result.Location),
		slog.Int("edges", result.Edges),
	)
	return result, nil
}

func writeEdges(ctx context.Context, source Source, w io.Writer) (int, error) {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)

	count := 0
	err := source.EachFriendship(ctx, func(edge models.Friendship) error {
		if err := enc.Encode(edge); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("read friendships: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return count, fmt.Errorf("flush snapshot: %w", err)
	}
	return count, nil
}
