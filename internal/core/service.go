package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/reqtrace/internal/logging"
	"github.com/JonMunkholm/reqtrace/internal/normalize"
	"github.com/JonMunkholm/reqtrace/internal/record"
	"github.com/JonMunkholm/reqtrace/internal/schema"
	"github.com/JonMunkholm/reqtrace/internal/trace"
)

// Service runs normalization over configured inputs.
type Service struct {
	registry *schema.Registry
	source   Source
}

// NewService creates a Service over an immutable registry and a row source.
func NewService(registry *schema.Registry, source Source) *Service {
	return &Service{
		registry: registry,
		source:   source,
	}
}

// Registry returns the schema registry the service resolves doc types with.
func (s *Service) Registry() *schema.Registry {
	return s.registry
}

// Run processes inputs sequentially in the order given and returns the
// unified record table.
//
// A failing input (unknown doc type, unreadable file, missing required
// columns) is logged and recorded in Result.Failures; the run continues with
// the next input. After every input has been normalized, trace tokens are
// reconciled against the final alias map and Combined_Text is re-rendered.
//
// The only error returned is context cancellation; the partial result is
// returned with it.
func (s *Service) Run(ctx context.Context, inputs []Input) (*Result, error) {
	res := &Result{
		RunID:         uuid.New(),
		SchemaVersion: s.registry.Version(),
		StartedAt:     time.Now(),
	}
	ctx = logging.WithRunID(ctx, res.RunID.String())
	logger := logging.FromContext(ctx)
	harvester := trace.NewHarvester()

	logger.Info("run started",
		"inputs", len(inputs),
		"schema_version", res.SchemaVersion,
	)

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(res.StartedAt)
			return res, fmt.Errorf("run cancelled: %w", err)
		}

		docLogger := logging.WithFields(ctx,
			"doc_name", in.DocName,
			"doc_type", in.DocType,
			"path", in.Path,
		)

		summary, records, err := s.runInput(ctx, docLogger, harvester, in)
		if err != nil {
			msg := MapError(err)
			docLogger.Error("input skipped", "code", msg.Code, "error", err)
			res.Failures = append(res.Failures, Failure{Input: in, Code: msg.Code, Err: err})
			continue
		}

		res.Records = append(res.Records, records...)
		res.Documents = append(res.Documents, summary)
	}

	s.reconcile(logger, harvester, res)

	res.Duration = time.Since(res.StartedAt)
	logger.Info("run complete",
		"records", len(res.Records),
		"documents", len(res.Documents),
		"failures", len(res.Failures),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (s *Service) runInput(ctx context.Context, logger *slog.Logger, harvester *trace.Harvester, in Input) (DocumentSummary, []record.Record, error) {
	spec, err := s.registry.Resolve(in.DocType)
	if err != nil {
		return DocumentSummary{}, nil, err
	}

	docName := in.DocName
	if docName == "" {
		docName = spec.DocType
	}

	frame, err := s.source.Read(ctx, in, spec)
	if err != nil {
		return DocumentSummary{}, nil, fmt.Errorf("read %s: %w", docName, err)
	}

	if err := ValidateColumns(frame, spec, docName); err != nil {
		return DocumentSummary{}, nil, err
	}

	doc := normalize.Document{
		Name:            docName,
		Type:            spec.DocType,
		Level:           in.Level,
		SkipObjectTypes: in.SkipObjectTypes,
	}
	env := normalize.Env{
		Harvester: harvester,
		Logger:    logger.With("normalizer", string(spec.Normalizer)),
	}

	records, stats := normalize.For(spec.Normalizer).Normalize(env, frame, spec, doc)
	return DocumentSummary{Input: in, DocName: docName, DocType: spec.DocType, Stats: stats}, records, nil
}

// reconcile runs the trace sweep over the unified table and re-renders
// Combined_Text so trace lines show resolved IDs.
func (s *Service) reconcile(logger *slog.Logger, harvester *trace.Harvester, res *Result) {
	rep := harvester.Reconcile(res.Records)
	for i := range res.Records {
		res.Records[i].Render()
	}

	res.Rewritten = rep.Rewritten
	res.Dangling = rep.Dangling

	for _, d := range rep.Dangling {
		logger.Debug("dangling trace reference",
			"code", trace.CodeDangling,
			"from", d.From,
			"doc_name", d.DocName,
			"direction", string(d.Direction),
			"token", d.Token,
		)
	}
	logger.Info("trace reconciliation complete",
		"aliases", harvester.Len(),
		"rewritten", rep.Rewritten,
		"dangling", len(rep.Dangling),
	)
}
