package checks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/smokecheck/resilience"
)

// Client defaults.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "smokecheck"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 1 << 20
)

const instrumentationName = "github.com/jonwraymond/smokecheck/checks"

// ClientConfig configures a Client. Zero fields take defaults.
type ClientConfig struct {
	// HTTPClient performs the requests. Defaults to a client with no
	// timeout of its own; Timeout bounds each call instead.
	HTTPClient *http.Client

	// Timeout bounds each call, including reading the body.
	Timeout time.Duration

	// Tracer records one client span per call. Defaults to the global
	// tracer provider.
	Tracer trace.Tracer

	// UserAgent is sent with every request.
	UserAgent string
}

// Client issues bounded JSON calls against the service.
type Client struct {
	config     ClientConfig
	propagator propagation.TextMapPropagator
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NewClient creates a client.
func NewClient(config ClientConfig) *Client {
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer(instrumentationName)
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	return &Client{config: config, propagator: propagation.TraceContext{}}
}

// Timeout returns the per-call bound.
func (c *Client) Timeout() time.Duration {
	return c.config.Timeout
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string) (Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil)
}

// Post issues a POST request with body encoded as JSON.
func (c *Client) Post(ctx context.Context, url string, body any) (Response, error) {
	return c.Do(ctx, http.MethodPost, url, body)
}

// Do issues one request and reads the whole response within the timeout.
// Any status code is returned as a Response; only transport failures and
// the timeout are errors.
func (c *Client) Do(ctx context.Context, method, url string, body any) (Response, error) {
	ctx, span := c.config.Tracer.Start(ctx, "HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(method),
			semconv.URLFull(url),
		),
	)
	defer span.End()

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Response{}, fmt.Errorf("encode request: %w", err)
		}
	}

	var resp Response
	err := resilience.ExecuteWithTimeout(ctx, c.config.Timeout, func(ctx context.Context) error {
		r, err := c.roundTrip(ctx, method, url, payload)
		resp = r
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Response{}, err
	}

	span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))
	if !resp.OK() {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, method, url string, payload []byte) (Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	res, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return Response{}, err
	}
	return Response{StatusCode: res.StatusCode, Body: data}, nil
}
