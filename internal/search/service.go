// Package search interprets a free-text query and runs it against the
// record store. One request in, one Result out; no error escapes Search.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"snow-search/internal/common/config"
	apperrors "snow-search/internal/common/errors"
	"snow-search/internal/common/logger"
	"snow-search/internal/common/metrics"
	"snow-search/internal/common/observability"
	"snow-search/internal/common/servicenow"
	"snow-search/internal/extract"
	"snow-search/internal/snowquery"
	"snow-search/pkg/registry"
)

type Service struct {
	registry    *registry.RecordTypeRegistry
	resolver    *extract.Resolver
	identifiers map[string]*extract.IdentifierExtractor
	dates       *extract.DateExtractor
	builder     *snowquery.Builder
	store       Store
	opts        Options
	logger      logger.Logger
	errHandler  *apperrors.ErrorHandler
	obs         *observability.Observability
}

// NewService wires the pipeline. reg is read-only from here on; obs may be nil.
func NewService(reg *registry.RecordTypeRegistry, store Store, opts Options, log logger.Logger, obs *observability.Observability) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if opts.DefaultMaxResults <= 0 {
		opts.DefaultMaxResults = config.DefaultMaxResults
	}
	if opts.InvalidDatePolicy == "" {
		opts.InvalidDatePolicy = config.InvalidDateFallback
	}

	identifiers := make(map[string]*extract.IdentifierExtractor, len(reg.RecordTypes))
	for _, rt := range reg.RecordTypes {
		identifiers[rt.Table] = extract.NewIdentifierExtractor(rt.IdentifierPrefixes)
	}

	return &Service{
		registry:    reg,
		resolver:    extract.NewResolver(reg),
		identifiers: identifiers,
		dates:       extract.NewDateExtractor(extract.StopWordMode(opts.StopWords)),
		builder:     snowquery.NewBuilder(opts.CreatedField),
		store:       store,
		opts:        opts,
		logger:      log,
		errHandler:  apperrors.NewErrorHandler(log),
		obs:         obs,
	}
}

// Search runs req end to end. Every failure, including a panic further down,
// comes back as a Result with Success false.
func (s *Service) Search(ctx context.Context, req Request) (result *Result) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "search", attribute.Int("maxResults", req.MaxResults))
	defer span.End()

	log := s.logger.WithFields(map[string]interface{}{
		"query":      req.Query,
		"maxResults": req.MaxResults,
		"traceId":    observability.TraceID(ctx),
	})
	log.Info("search received", nil)

	var (
		plan *Plan
		code apperrors.ErrorCode
	)

	fail := func(stdErr *apperrors.StandardError) *Result {
		code = stdErr.Code
		fields := map[string]interface{}{"query": req.Query}
		if plan != nil {
			fields["table"] = plan.Query.Table
			fields["mode"] = string(plan.Mode)
		}
		s.errHandler.Handle(stdErr, fields)
		span.SetStatus(codes.Error, string(stdErr.Code))
		return &Result{Success: false, Error: stdErr.Message}
	}

	defer func() {
		if r := recover(); r != nil {
			result = fail(apperrors.NewInternalError(fmt.Errorf("search panicked: %v", r)))
		}

		table, mode := "", "none"
		if plan != nil {
			table, mode = plan.Query.Table, string(plan.Mode)
		}
		outcome := "success"
		if code != "" {
			outcome = strings.ToLower(string(code))
		}
		metrics.SearchRequests.WithLabelValues(table, mode, outcome).Inc()
		metrics.SearchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
		s.obs.RecordSearch(ctx, table, mode, outcome)
	}()

	var stdErr *apperrors.StandardError
	plan, stdErr = s.plan(req, log)
	if stdErr != nil {
		return fail(stdErr)
	}
	span.SetAttributes(
		attribute.String("table", plan.Query.Table),
		attribute.String("mode", string(plan.Mode)),
	)

	records, err := s.store.Query(ctx, plan.Query.Table, plan.Params)
	if err != nil {
		return fail(classifyStoreError(err))
	}

	log.Info("search completed", map[string]interface{}{
		"table":      plan.Query.Table,
		"mode":       string(plan.Mode),
		"count":      len(records),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return &Result{Success: true, Data: records}
}

// Explain interprets req exactly like Search but stops before the remote call.
func (s *Service) Explain(req Request) (*Plan, error) {
	plan, stdErr := s.plan(req, s.logger)
	if stdErr != nil {
		return nil, stdErr
	}
	return plan, nil
}

// plan resolves the record type and picks identifier, date or default mode,
// in that order.
func (s *Service) plan(req Request, log logger.Logger) (*Plan, *apperrors.StandardError) {
	maxResults := req.MaxResults
	if maxResults < 0 {
		return nil, apperrors.NewInvalidRequestError(fmt.Sprintf("max_results must not be negative, got %d", maxResults))
	}
	if maxResults == 0 {
		maxResults = s.opts.DefaultMaxResults
	}

	rt := s.resolver.Resolve(req.Query)
	if rt == nil {
		return nil, apperrors.NewTypeUnresolvedError(s.registry.GuidanceMessage())
	}

	plan := &Plan{RecordType: rt.Table}
	spec := snowquery.Spec{
		Mode:       snowquery.ModeDefault,
		RecordType: rt,
		MaxResults: maxResults,
	}

	if id, ok := s.identifiers[rt.Table].Extract(req.Query); ok {
		spec.Mode = snowquery.ModeIdentifier
		spec.Identifier = id
		plan.Identifier = id
	} else {
		date, ok, err := s.dates.Extract(req.Query)
		switch {
		case err != nil && s.opts.InvalidDatePolicy == config.InvalidDateReject:
			return nil, apperrors.NewInvalidDateError(err)
		case err != nil:
			log.Warn("ignoring invalid date", map[string]interface{}{"error": err.Error()})
			plan.DateWarning = err.Error()
		case ok:
			spec.Mode = snowquery.ModeDate
			spec.Date = date
			plan.Date = date.String()
		}
	}

	q, err := s.builder.Build(spec)
	if err != nil {
		return nil, apperrors.NewQueryBuildFailedError(err)
	}

	plan.Mode = q.Mode
	plan.Query = q
	plan.Params = q.Params()
	return plan, nil
}

func classifyStoreError(err error) *apperrors.StandardError {
	var remote *servicenow.RemoteError
	if errors.As(err, &remote) {
		return apperrors.NewRemoteError(remote.StatusCode, remote.Body, err)
	}
	if stdErr := apperrors.Normalize(err); stdErr.Code != apperrors.ErrCodeInternal {
		return stdErr
	}
	return apperrors.NewTransportFailureError(err)
}
