package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"

	"github.com/alen-hh/arxiv-query-proxy/arxiv"
	"github.com/alen-hh/arxiv-query-proxy/config"
	"github.com/alen-hh/arxiv-query-proxy/logger"
	"github.com/alen-hh/arxiv-query-proxy/types"
)

// TraceHeader carries a caller-supplied trace ID
const TraceHeader = "X-Trace-Id"

const (
	msgMethodNotAllowed = "Method not allowed"
	msgMissingQuery     = "search_query parameter is required"
	msgFetchFailed      = "Failed to fetch ArXiv data"
	msgUnknownError     = "Unknown error"
)

// Searcher fetches the raw arXiv feed for a query
type Searcher interface {
	Query(ctx context.Context, params types.QueryParams) (string, error)
}

// Handler serves arXiv queries from API Gateway proxy events
type Handler struct {
	searcher     Searcher
	defaults     config.QueryDefaults
	logger       *logger.Logger
	errorHandler *logger.ErrorHandler
	translate    func(feed string) *arxiv.TranslateResult
}

// New creates a handler that forwards to searcher and fills omitted
// optional parameters from defaults.
func New(searcher Searcher, defaults config.QueryDefaults, log *logger.Logger) *Handler {
	return &Handler{
		searcher:     searcher,
		defaults:     defaults,
		logger:       log,
		errorHandler: logger.NewErrorHandler(log),
		translate:    arxiv.Translate,
	}
}

// Handle processes one request. Every outcome, failures included, is
// returned as a JSON response; the returned error is always nil.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
	defer func() {
		if recoveredErr := h.errorHandler.Recovered("arxiv query handler", recover()); recoveredErr != nil {
			resp = errorResponse(recoveredErr)
			err = nil
		}
	}()

	start := time.Now()
	contextLogger := h.requestLogger(ctx, req)
	contextLogger.Debug("Received request", map[string]interface{}{
		"method":       req.HTTPMethod,
		"path":         req.Path,
		"query":        req.QueryStringParameters,
		"multi_query":  req.MultiValueQueryStringParameters,
		"header_count": len(req.Headers),
	})

	result, procErr := h.process(ctx, req, contextLogger)
	if procErr != nil {
		handled := h.errorHandler.Handle(procErr, "arxiv query")
		resp = errorResponse(handled)
		contextLogger.InfoWithDuration("Request failed", time.Since(start), map[string]interface{}{
			"status_code": resp.StatusCode,
		})
		return resp, nil
	}

	contextLogger.InfoWithCount("Entries returned", result.TotalResults)
	contextLogger.InfoWithDuration("Request completed", time.Since(start))
	return jsonResponse(http.StatusOK, result), nil
}

// process runs validation, the upstream fetch and feed translation
func (h *Handler) process(ctx context.Context, req events.APIGatewayProxyRequest, contextLogger *logger.Logger) (*types.SearchResponse, error) {
	if req.HTTPMethod != http.MethodGet {
		return nil, logger.NewAppErrorWithMetadata(logger.ErrorTypeMethod, msgMethodNotAllowed, nil, map[string]interface{}{
			"method": req.HTTPMethod,
		})
	}

	params := h.parseParams(req)
	if params.SearchQuery == "" {
		return nil, logger.NewAppError(logger.ErrorTypeValidation, msgMissingQuery, nil)
	}

	contextLogger.Info("Querying arXiv", map[string]interface{}{
		"search_query": params.SearchQuery,
		"sort_by":      params.SortBy,
		"sort_order":   params.SortOrder,
		"start":        params.Start,
		"max_results":  params.MaxResults,
	})

	fetchStart := time.Now()
	feed, err := h.searcher.Query(ctx, params)
	if err != nil {
		var code string
		var upstreamErr *arxiv.UpstreamError
		if errors.As(err, &upstreamErr) {
			code = strconv.Itoa(upstreamErr.StatusCode)
		}
		return nil, logger.NewAppErrorWithCode(logger.ErrorTypeUpstream, "arXiv query failed", code, err)
	}
	contextLogger.InfoWithDuration("arXiv responded", time.Since(fetchStart), map[string]interface{}{
		"bytes": len(feed),
	})

	translated := h.translate(feed)
	for _, failure := range translated.Failures {
		parseErr := logger.NewAppError(logger.ErrorTypeParse, "skipped unparseable entry", failure)
		contextLogger.Warn("Skipped unparseable entry", map[string]interface{}{
			"index":      failure.Index,
			"error_type": string(parseErr.Type),
			"error":      parseErr.Error(),
		})
	}

	return &types.SearchResponse{
		Success:      true,
		TotalResults: len(translated.Entries),
		Entries:      translated.Entries,
	}, nil
}

// parseParams reads query parameters, applying defaults for the optional ones
func (h *Handler) parseParams(req events.APIGatewayProxyRequest) types.QueryParams {
	return types.QueryParams{
		SearchQuery: queryValue(req, "search_query"),
		SortBy:      valueOr(queryValue(req, "sortBy"), h.defaults.SortBy),
		SortOrder:   valueOr(queryValue(req, "sortOrder"), h.defaults.SortOrder),
		Start:       valueOr(queryValue(req, "start"), strconv.Itoa(h.defaults.Start)),
		MaxResults:  valueOr(queryValue(req, "max_results"), strconv.Itoa(h.defaults.MaxResults)),
	}
}

func (h *Handler) requestLogger(ctx context.Context, req events.APIGatewayProxyRequest) *logger.Logger {
	traceID := headerValue(req.Headers, TraceHeader)
	if traceID == "" {
		traceID = uuid.NewString()
	}

	contextLogger := h.logger.WithContext(ctx).WithTraceID(traceID)
	if _, ok := lambdacontext.FromContext(ctx); !ok && req.RequestContext.RequestID != "" {
		contextLogger = contextLogger.WithRequestID(req.RequestContext.RequestID)
	}
	return contextLogger
}

// queryValue prefers the single-value map and falls back to the first
// multi-value entry. Empty values count as absent.
func queryValue(req events.APIGatewayProxyRequest, name string) string {
	if v := req.QueryStringParameters[name]; v != "" {
		return v
	}
	if values := req.MultiValueQueryStringParameters[name]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
