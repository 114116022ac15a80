package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	eventbus "github.com/lazygraph/lazygraph/internal/eventbus"
	events "github.com/lazygraph/lazygraph/internal/events"
	executor "github.com/lazygraph/lazygraph/internal/executor"
	language "github.com/lazygraph/lazygraph/internal/language"
	promise "github.com/lazygraph/lazygraph/internal/promise"
	reqid "github.com/lazygraph/lazygraph/internal/reqid"
	schema "github.com/lazygraph/lazygraph/internal/schema"
)

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses and validates requests, runs the executor, drains the returned
// future, and formats responses per GraphQL spec.
type Handler struct {
	exec *executor.Executor
	// ast is the gqlparser schema used for request validation; nil skips
	// validation (tests that build schema structs directly).
	ast *language.Schema
	opt Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

func WithGraphiQL(enable bool) Option { return func(o *Options) { o.GraphiQL = enable } }

// New creates a new GraphQL HTTP handler for the given schema. astSchema may
// be nil to disable request validation.
func New(s *schema.Schema, astSchema *language.Schema, opts ...Option) (*Handler, error) {
	op := Options{Timeout: 10 * time.Second, GraphiQL: true}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{exec: executor.NewExecutor(s), ast: astSchema, opt: op}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, _ = reqid.NewContext(ctx)
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse(&language.Error{Message: "method not allowed"}), h.opt.Pretty)
		return
	}

	// Serve GraphiQL IDE when enabled and the client expects HTML.
	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse(berr), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch != nil {
		op := make([]any, len(batch))
		for i := range batch {
			res, derr := h.executeOne(ctx, batch[i])
			if derr != nil {
				status = http.StatusInternalServerError
				writeJSON(w, status, errorResponse(&language.Error{Message: "internal error"}), h.opt.Pretty)
				return
			}
			op[i] = res
		}
		writeJSON(w, status, op, h.opt.Pretty)
		return
	}

	res, derr := h.executeOne(ctx, req)
	if derr != nil {
		status = http.StatusInternalServerError
		writeJSON(w, status, errorResponse(&language.Error{Message: "internal error"}), h.opt.Pretty)
		return
	}
	writeJSON(w, status, res, h.opt.Pretty)
}

// executeOne runs a single request through parse, validate, execute and
// drain. The returned error is non-nil only for the deadlock condition, an
// internal-consistency failure that must not surface as a GraphQL error.
func (h *Handler) executeOne(ctx context.Context, req GraphQLRequest) (*executor.ExecutionResult, error) {
	// Parse (syntax validation); a parse failure short-circuits with the
	// offending token's location.
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return resultFromErrors(language.AsError(err)), nil
	}

	// Request validation against the SDL schema, when one is attached.
	if h.ast != nil {
		if errs := language.Validate(h.ast, doc); len(errs) > 0 {
			return resultFromErrors(errs...), nil
		}
	}

	opDef := doc.Operations.ForName(req.OperationName)
	if opDef == nil && len(doc.Operations) == 1 {
		opDef = doc.Operations[0]
	}
	opType := ""
	if opDef != nil {
		opType = string(opDef.Operation)
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})

	future := h.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, nil)
	synchronous := future.IsSettled()

	eventbus.Publish(ctx, events.DrainStart{OperationName: req.OperationName, Synchronous: synchronous})
	value, werr := future.Wait()
	eventbus.Publish(ctx, events.DrainFinish{
		OperationName: req.OperationName,
		Reactions:     future.Adapter().ReactionsRun(),
		Deadlock:      errors.Is(werr, promise.ErrDeadlock),
		Duration:      time.Since(start),
	})
	if werr != nil {
		// The executor's future is never rejected; this is the deadlock
		// condition.
		return nil, werr
	}
	result := value.(*executor.ExecutionResult)

	errs := make([]error, len(result.Errors))
	for i := range result.Errors {
		errs[i] = result.Errors[i]
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Synchronous:   synchronous,
		Errors:        errs,
		Duration:      time.Since(start),
	})
	return result, nil
}

// ------------------ Request parsing ------------------

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

func parseRequest(r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, *language.Error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return GraphQLRequest{}, nil, &language.Error{Message: "missing 'query'"}
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return GraphQLRequest{}, nil, &language.Error{Message: "invalid 'variables' JSON"}
			}
		}
		op := r.URL.Query().Get("operationName")
		return GraphQLRequest{Query: q, Variables: vars, OperationName: op}, nil, nil
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct == "" || ct == "application/json" || strings.HasPrefix(ct, "application/json;") {
		reader := io.Reader(r.Body)
		if maxBody > 0 {
			reader = io.LimitReader(r.Body, maxBody+1)
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			return GraphQLRequest{}, nil, &language.Error{Message: "failed to read body"}
		}
		defer r.Body.Close()
		if maxBody > 0 && int64(len(body)) > maxBody {
			return GraphQLRequest{}, nil, &language.Error{Message: errBodyTooLargeMessage}
		}

		// Try array (batch)
		if len(body) > 0 && body[0] == '[' {
			var arr []GraphQLRequest
			if err := json.Unmarshal(body, &arr); err != nil {
				return GraphQLRequest{}, nil, &language.Error{Message: "invalid JSON"}
			}
			if len(arr) == 0 {
				return GraphQLRequest{}, nil, &language.Error{Message: "empty batch"}
			}
			return GraphQLRequest{}, arr, nil
		}
		// Single
		var req GraphQLRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return GraphQLRequest{}, nil, &language.Error{Message: "invalid JSON"}
		}
		if req.Query == "" {
			return GraphQLRequest{}, nil, &language.Error{Message: "missing 'query'"}
		}
		if req.Variables == nil {
			req.Variables = map[string]any{}
		}
		return req, nil, nil
	}

	return GraphQLRequest{}, nil, &language.Error{Message: "unsupported Content-Type"}
}

// ------------------ Response formatting ------------------

// resultFromErrors shapes pre-execution (parse/validation) errors into a
// result with no data key.
func resultFromErrors(errs ...*language.Error) *executor.ExecutionResult {
	out := &executor.ExecutionResult{}
	for _, e := range errs {
		ge := executor.GraphQLError{Message: e.Message}
		for _, loc := range e.Locations {
			ge.Locations = append(ge.Locations, executor.Location{Line: loc.Line, Column: loc.Column})
		}
		out.Errors = append(out.Errors, ge)
	}
	return out
}

func errorResponse(err *language.Error) *executor.ExecutionResult {
	return resultFromErrors(err)
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

const errBodyTooLargeMessage = "body too large"

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func acceptsHTML(accept string) bool {
	if accept == "" {
		return false
	}
	for _, p := range strings.Split(accept, ",") {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "text/html") || p == "*/*" {
			return true
		}
	}
	return false
}
