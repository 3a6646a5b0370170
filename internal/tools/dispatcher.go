package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wearforce/convo-core/internal/apperr"
	"github.com/wearforce/convo-core/internal/observability"
)

// Dispatcher executes registered ToolDefinitions against remote business
// APIs: rate limiting, schema validation, result caching, bounded
// concurrency, retries and execution history are all owned here, under the
// dispatcher's own locks, per the single-writer rule for these collaborators.
type Dispatcher struct {
	registry *Registry
	client   *http.Client
	limits   *limiterSet
	cache    *resultCache
	sem      chan struct{}
	history  *historyRing
	baseURL  string
}

// DispatcherConfig carries the process-wide knobs the dispatcher needs that
// aren't per-tool (global concurrency cap, base URL for relative endpoints).
type DispatcherConfig struct {
	MaxConcurrentRequests int
	BaseURL               string
	CacheCapacity         int
	HistoryCapacity       int
}

func NewDispatcher(registry *Registry, cfg DispatcherConfig) *Dispatcher {
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = 16
	}
	return &Dispatcher{
		registry: registry,
		client:   observability.NewHTTPClient(&http.Client{Timeout: 30 * time.Second}),
		limits:   newLimiterSet(),
		cache:    newResultCache(cfg.CacheCapacity),
		sem:      make(chan struct{}, cfg.MaxConcurrentRequests),
		history:  newHistoryRing(cfg.HistoryCapacity),
		baseURL:  cfg.BaseURL,
	}
}

// ExecutionContext carries caller-provided context (conversation id).
// Execute accepts it but does not pass it to request construction; nil is
// valid.
type ExecutionContext struct {
	ConversationID string
}

// Execute runs the nine-step dispatch pipeline described for execute_tool:
// lookup, rate limit, validate, cache lookup, acquire concurrency slot,
// build+send the HTTP request with retries, cache the result, record
// history.
func (d *Dispatcher) Execute(ctx context.Context, name string, params map[string]any, _ *ExecutionContext) (any, error) {
	start := time.Now()
	rec := ToolExecutionRecord{
		ExecutionID: uuid.NewString(),
		ToolName:    name,
		Parameters:  params,
		Timestamp:   start,
	}

	result, err := d.execute(ctx, rec.ExecutionID, name, params)
	rec.ExecutionTime = time.Since(start)
	if err != nil {
		rec.Error = err.Error()
	} else {
		rec.Success = true
		rec.Result = result
	}
	d.history.append(rec)
	return result, err
}

func (d *Dispatcher) execute(ctx context.Context, executionID, name string, params map[string]any) (any, error) {
	def, schema, ok := d.registry.lookup(name)
	if !ok {
		return nil, apperr.New(component, apperr.NotFound, fmt.Sprintf("unknown tool %q", name))
	}

	if !d.limits.allow(name, def.RateLimitPerMinute) {
		return nil, apperr.New(component, apperr.RateLimited, fmt.Sprintf("rate limit exceeded for %q", name))
	}

	if err := validateParams(schema, params); err != nil {
		return nil, apperr.Wrap(component, apperr.Validation, fmt.Sprintf("invalid parameters for %q", name), err)
	}

	key := cacheKey(name, params)
	if def.CacheTTL > 0 {
		if v, ok := d.cache.get(key); ok {
			return v, nil
		}
	}

	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, apperr.Wrap(component, apperr.Cancelled, "waiting for execution slot", ctx.Err())
	}
	defer func() { <-d.sem }()

	result, err := d.executeHTTP(ctx, executionID, def, params)
	if err != nil {
		return nil, err
	}

	if def.CacheTTL > 0 {
		d.cache.set(key, result, def.CacheTTL)
	}
	return result, nil
}

func (d *Dispatcher) executeHTTP(ctx context.Context, executionID string, def ToolDefinition, params map[string]any) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= def.RetryCount; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, apperr.Wrap(component, apperr.Cancelled, "retry backoff", ctx.Err())
			}
		}

		result, done, err := d.doAttempt(ctx, executionID, def, params, attempt)
		if done {
			return result, err
		}
		lastErr = err
	}
	return nil, apperr.Wrap(component, apperr.Upstream, fmt.Sprintf("%s exhausted retries", def.Name), lastErr)
}

// doAttempt runs one HTTP attempt. done is true when executeHTTP should
// return immediately (success or a non-retryable error); otherwise err (if
// any) becomes the attempt's lastErr and the caller retries.
func (d *Dispatcher) doAttempt(ctx context.Context, executionID string, def ToolDefinition, params map[string]any, attempt int) (any, bool, error) {
	req, cancel, err := d.buildRequest(ctx, executionID, def, params)
	if err != nil {
		return nil, true, apperr.Wrap(component, apperr.Validation, "build request", err)
	}
	defer cancel()

	resp, err := d.client.Do(req)
	if err != nil {
		observability.LoggerWithTrace(ctx).Warn().Err(err).Str("tool", def.Name).Int("attempt", attempt).Msg("tool request transport error")
		return nil, false, err
	}

	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, false, readErr
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return parseBody(body), true, nil
	case resp.StatusCode >= 500:
		return nil, false, fmt.Errorf("upstream status %d", resp.StatusCode)
	default:
		return nil, true, apperr.New(component, apperr.Upstream, fmt.Sprintf("%s returned status %d: %s", def.Name, resp.StatusCode, string(body)))
	}
}

func (d *Dispatcher) buildRequest(ctx context.Context, executionID string, def ToolDefinition, params map[string]any) (*http.Request, context.CancelFunc, error) {
	endpoint := def.Endpoint
	remaining := make(map[string]any, len(params))
	for k, v := range params {
		remaining[k] = v
	}
	for field := range def.ParameterSchema {
		placeholder := "{" + field + "}"
		if strings.Contains(endpoint, placeholder) {
			if v, ok := remaining[field]; ok {
				endpoint = strings.ReplaceAll(endpoint, placeholder, fmt.Sprintf("%v", v))
				delete(remaining, field)
			}
		}
	}

	fullURL := endpoint
	if d.baseURL != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		fullURL = strings.TrimRight(d.baseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	}

	method := strings.ToUpper(def.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if method == http.MethodGet || method == http.MethodDelete {
		u, err := url.Parse(fullURL)
		if err != nil {
			return nil, nil, err
		}
		q := u.Query()
		for k, v := range remaining {
			q.Set(k, fmt.Sprintf("%v", v))
		}
		u.RawQuery = q.Encode()
		fullURL = u.String()
	} else {
		b, err := json.Marshal(remaining)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewReader(b)
	}

	tctx := ctx
	cancel := func() {}
	if def.Timeout > 0 {
		tctx, cancel = context.WithTimeout(ctx, def.Timeout)
	}

	req, err := http.NewRequestWithContext(tctx, method, fullURL, body)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Execution-ID", executionID)
	req.Header.Set("X-Tool-Name", def.Name)
	if method != http.MethodGet {
		req.Header.Set("X-Idempotency-Key", executionID)
	}
	applyAuth(req, def.Auth)
	return req, cancel, nil
}

func applyAuth(req *http.Request, auth *AuthSpec) {
	if auth == nil {
		return
	}
	switch auth.Scheme {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+auth.Value)
	case "api_key":
		header := auth.Header
		if header == "" {
			header = "X-API-Key"
		}
		req.Header.Set(header, auth.Value)
	}
}

func parseBody(body []byte) any {
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		return v
	}
	return string(body)
}

// History returns a snapshot of the execution record ring.
func (d *Dispatcher) History() []ToolExecutionRecord { return d.history.snapshot() }

// HealthCheck probes each distinct host among registered tools' endpoints at
// "/health" with a short timeout; the dispatcher is healthy if any responds.
func (d *Dispatcher) HealthCheck(ctx context.Context) bool {
	seen := map[string]struct{}{}
	hctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	for _, def := range d.registry.List() {
		u, err := url.Parse(def.Endpoint)
		if err != nil || u.Host == "" {
			continue
		}
		host := u.Scheme + "://" + u.Host
		if _, ok := seen[host]; ok {
			continue
		}
		seen[host] = struct{}{}
		req, err := http.NewRequestWithContext(hctx, http.MethodGet, host+"/health", nil)
		if err != nil {
			continue
		}
		resp, err := d.client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode < 500 {
			return true
		}
	}
	return len(seen) == 0
}

func validateParams(schema interface{ Validate(any) error }, params map[string]any) error {
	if params == nil {
		params = map[string]any{}
	}
	b, err := json.Marshal(params)
	if err != nil {
		return err
	}
	var decoded any
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}
	return schema.Validate(decoded)
}
