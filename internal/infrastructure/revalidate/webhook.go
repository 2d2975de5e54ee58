package revalidate

import (
	"context"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/career-coach/internal/platform/logging"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const secretHeader = "X-Revalidate-Secret"

type WebhookConfig struct {
	URL     string
	Secret  string
	Timeout time.Duration
}

// Webhook asks the frontend to drop its cached render of a path.
type Webhook struct {
	client  *fasthttp.Client
	url     string
	secret  string
	timeout time.Duration
	logger  *logging.Logger
}

func NewWebhook(cfg WebhookConfig, logger *logging.Logger) (*Webhook, error) {
	target := strings.TrimSpace(cfg.URL)
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, crerr.Wrapf(err, "parse revalidate url %q", target)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, crerr.Newf("revalidate url %q uses unsupported scheme=%q", target, parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, crerr.Newf("revalidate url %q has empty host", target)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Webhook{
		client: &fasthttp.Client{
			Name:                "career-coach-revalidate",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		url:     target,
		secret:  strings.TrimSpace(cfg.Secret),
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (w *Webhook) RevalidatePath(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return crerr.Wrap(err, "revalidate canceled")
	}

	body, err := sonic.Marshal(map[string]string{"path": path})
	if err != nil {
		return crerr.Wrap(err, "marshal revalidate payload")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(w.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if w.secret != "" {
		req.Header.Set(secretHeader, w.secret)
	}
	req.SetBody(body)

	deadline := time.Now().Add(w.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.String("revalidate.path", path))
	}

	if err := w.client.DoDeadline(req, resp, deadline); err != nil {
		w.logger.WarnContext(ctx, "revalidate request failed", "path", path, "error", err)
		return crerr.Wrapf(err, "revalidate path %q", path)
	}

	status := resp.StatusCode()
	if span.IsRecording() {
		span.SetAttributes(attribute.Int("revalidate.status", status))
	}
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		w.logger.WarnContext(ctx, "revalidate rejected", "path", path, "status", status, "body", truncate(string(resp.Body()), 256))
		return crerr.Newf("revalidate path %q: unexpected status %d", path, status)
	}

	w.logger.DebugContext(ctx, "path revalidated", "path", path)
	return nil
}

func truncate(v string, limit int) string {
	if len(v) <= limit {
		return v
	}
	return v[:limit] + "..."
}
