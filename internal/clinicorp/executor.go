package clinicorp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vitalcred/clinic-platform/internal/observability/metrics"
	"github.com/vitalcred/clinic-platform/pkg/logging"
)

var executorTracer = otel.Tracer("vitalcred/clinicorp-executor")

const (
	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 1
	defaultRetryDelay = 2 * time.Second

	genericUpstreamMessage = "upstream request failed"
)

// Visibility controls what a gateway failure does besides being returned.
// The default keeps upstream noise out of user-facing surfaces; callers
// that need visibility opt in.
type Visibility int

const (
	// Silent suppresses even log output.
	Silent Visibility = iota
	// Logged emits a warn-level record per failed attempt. Default.
	Logged
	// Surfaced additionally marks failures for caller-facing display.
	Surfaced
)

func (v Visibility) String() string {
	switch v {
	case Silent:
		return "silent"
	case Surfaced:
		return "surfaced"
	default:
		return "logged"
	}
}

// RetryPolicy decides the pause before a retry attempt. attempt is
// zero-based (the attempt that just failed).
type RetryPolicy interface {
	Delay(attempt int) time.Duration
}

// FixedDelay retries with a constant pause. Fixed rather than exponential
// keeps the worst-case latency of a request chain predictable.
type FixedDelay struct {
	Interval time.Duration
}

func (f FixedDelay) Delay(int) time.Duration { return f.Interval }

// SessionValidator checks that the calling user still holds a live
// platform session. This is orthogonal to the upstream Credential.
type SessionValidator interface {
	Validate(ctx context.Context) error
}

// OutboundRequest is the canonical outbound envelope, constructed fresh per
// call and never shared.
type OutboundRequest struct {
	Path       string
	Method     string
	Query      map[string]string
	Body       any
	Credential *Credential
	// Timeout bounds each attempt. Zero means the executor's default.
	Timeout time.Duration
	// MaxRetries is the number of attempts after the first. Zero means
	// the executor's default; negative disables retries.
	MaxRetries int
}

// Executor is the resilient gateway every upstream call goes through.
type Executor struct {
	proxy      ProxyClient
	sessions   SessionValidator
	retry      RetryPolicy
	logger     *logging.Logger
	metrics    *metrics.UpstreamMetrics
	visible    Visibility
	timeout    time.Duration
	maxRetries int

	sleep func(ctx context.Context, d time.Duration) error
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	Proxy    ProxyClient
	Sessions SessionValidator
	// Retry defaults to FixedDelay{2s}.
	Retry   RetryPolicy
	Logger  *logging.Logger
	Metrics *metrics.UpstreamMetrics
	// Visibility defaults to Logged.
	Visibility *Visibility
	// Timeout is the per-attempt deadline applied when a request does not
	// set its own. Zero means 15s.
	Timeout time.Duration
	// MaxRetries is the retry budget applied when a request does not set
	// its own. Zero means 1.
	MaxRetries int
}

// NewExecutor creates a request executor with sane defaults.
func NewExecutor(cfg ExecutorConfig) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	retry := cfg.Retry
	if retry == nil {
		retry = FixedDelay{Interval: defaultRetryDelay}
	}
	visible := Logged
	if cfg.Visibility != nil {
		visible = *cfg.Visibility
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Executor{
		proxy:      cfg.Proxy,
		sessions:   cfg.Sessions,
		retry:      retry,
		logger:     logger,
		metrics:    cfg.Metrics,
		visible:    visible,
		timeout:    timeout,
		maxRetries: maxRetries,
		sleep:      sleepContext,
	}
}

// Visibility returns the executor's configured failure visibility.
func (e *Executor) Visibility() Visibility { return e.visible }

// Execute runs one upstream request through the proxy. On failure the
// returned error is always a *Failure; the data is never partially
// populated.
//
// Validation failures (path, session, credential) return synchronously
// with zero network calls and are never retried. Transient failures are
// retried up to MaxRetries extra attempts with the configured delay.
func (e *Executor) Execute(ctx context.Context, req OutboundRequest) (json.RawMessage, error) {
	path, ok := normalizePath(req.Path)
	if !ok {
		return nil, e.fail(newFailure(KindInvalidPath, "path must start with a single leading slash: "+req.Path, nil))
	}
	if e.sessions != nil {
		if err := e.sessions.Validate(ctx); err != nil {
			return nil, e.fail(newFailure(KindSessionExpired, "no live session for caller", err))
		}
	}
	if !req.Credential.valid() {
		return nil, e.fail(newFailure(KindCredentialsMissing, "no resolved credential for clinic", nil))
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
	case "":
		method = http.MethodGet
	default:
		return nil, e.fail(newFailure(KindInvalidPath, "unsupported method "+req.Method, nil))
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.timeout
	}
	maxRetries := req.MaxRetries
	if maxRetries == 0 {
		maxRetries = e.maxRetries
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	envelope := ProxyRequest{
		Path:     path,
		Method:   method,
		Query:    req.Query,
		Body:     req.Body,
		ClinicID: req.Credential.ClinicID,
		Credentials: ProxyCredentials{
			SubscriberID: req.Credential.SubscriberID,
			AccessToken:  req.Credential.AccessToken,
			BaseURL:      req.Credential.BaseURL,
		},
	}

	ctx, span := executorTracer.Start(ctx, "clinicorp.execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinicorp.path", path),
		attribute.String("clinicorp.method", method),
	)

	started := time.Now()
	defer func() {
		e.metrics.ObserveLatency(path, time.Since(started).Seconds())
	}()

	var last *Failure
	for attempt := 0; attempt <= maxRetries; attempt++ {
		data, failure := e.attempt(ctx, envelope, timeout)
		if failure == nil {
			e.metrics.ObserveAttempt(path, "success")
			span.SetAttributes(attribute.Int("clinicorp.attempts", attempt+1))
			return data, nil
		}
		e.metrics.ObserveAttempt(path, string(failure.Kind))
		last = failure

		if !retryable(failure.Kind) || attempt == maxRetries {
			break
		}
		if e.visible != Silent {
			e.logger.Warn("clinicorp request retry",
				"path", path,
				"attempt", attempt+1,
				"kind", string(failure.Kind),
				"error", failure.Message,
			)
		}
		if err := e.sleep(ctx, e.retry.Delay(attempt)); err != nil {
			return nil, e.fail(newFailure(KindUpstreamTimeout, "cancelled while waiting to retry", err))
		}
	}

	e.metrics.ObserveFailure(string(last.Kind))
	span.SetAttributes(attribute.String("clinicorp.failure", string(last.Kind)))
	return nil, e.fail(last)
}

// attempt performs a single proxy round trip under its own deadline.
func (e *Executor) attempt(ctx context.Context, envelope ProxyRequest, timeout time.Duration) (json.RawMessage, *Failure) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := e.proxy.Do(attemptCtx, envelope)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() != nil {
			return nil, newFailure(KindUpstreamTimeout, "upstream call exceeded deadline", err)
		}
		return nil, newFailure(KindTransportError, err.Error(), err)
	}
	if !resp.Success {
		return nil, newFailure(KindUpstreamError, upstreamMessage(resp), nil)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil, newFailure(KindEmptyResponse, "upstream reply carried no data", nil)
	}
	return resp.Data, nil
}

// fail applies the visibility policy to a terminal failure.
func (e *Executor) fail(f *Failure) error {
	if e.visible != Silent {
		e.logger.Warn("clinicorp request failed", "kind", string(f.Kind), "error", f.Message)
	}
	return f
}

// upstreamMessage picks the most specific message the proxy reply offers.
func upstreamMessage(resp *ProxyResponse) string {
	if msg := strings.TrimSpace(resp.Error); msg != "" {
		return msg
	}
	var body struct {
		Message      string `json:"message"`
		MessageUpper string `json:"Message"`
		Err          string `json:"error"`
	}
	if len(resp.Data) > 0 && json.Unmarshal(resp.Data, &body) == nil {
		for _, msg := range []string{body.Message, body.MessageUpper, body.Err} {
			if s := strings.TrimSpace(msg); s != "" {
				return s
			}
		}
	}
	return genericUpstreamMessage
}

// normalizePath enforces a single leading slash and collapses doubled
// slashes. Paths without a leading slash are rejected rather than patched,
// so malformed callers surface early.
func normalizePath(path string) (string, bool) {
	p := strings.TrimSpace(path)
	if p == "" || !strings.HasPrefix(p, "/") {
		return "", false
	}
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p, true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
