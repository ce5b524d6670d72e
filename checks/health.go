package checks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jonwraymond/smokecheck/endpoint"
	"github.com/jonwraymond/smokecheck/health"
)

// HealthCheck defaults.
const (
	DefaultHealthPath = "/"
	DefaultSentinel   = "Hello World"
)

// HealthConfig configures a HealthCheck. Zero fields take defaults.
type HealthConfig struct {
	// Path is joined onto the endpoint. "/" targets the root.
	Path string
	// Sentinel is the exact message the root endpoint must return.
	Sentinel string
}

// HealthCheck calls the root endpoint and verifies the sentinel message.
// It is the only check that decides the overall verdict.
type HealthCheck struct {
	endpoint endpoint.Endpoint
	client   *Client
	config   HealthConfig
}

var _ health.Checker = (*HealthCheck)(nil)

// NewHealthCheck creates a health check against ep.
func NewHealthCheck(ep endpoint.Endpoint, client *Client, config HealthConfig) *HealthCheck {
	if config.Path == "" {
		config.Path = DefaultHealthPath
	}
	if config.Sentinel == "" {
		config.Sentinel = DefaultSentinel
	}
	return &HealthCheck{endpoint: ep, client: client, config: config}
}

// ID returns health.CheckHealth.
func (c *HealthCheck) ID() health.CheckID {
	return health.CheckHealth
}

// Check performs one GET and compares the decoded message to the sentinel.
func (c *HealthCheck) Check(ctx context.Context) health.Outcome {
	start := time.Now()
	return c.check(ctx).WithDuration(time.Since(start))
}

func (c *HealthCheck) check(ctx context.Context) health.Outcome {
	url := c.endpoint.URL(c.config.Path)

	resp, err := c.client.Get(ctx, url)
	if err != nil {
		kind, detail := classifyTransport(err, c.client.Timeout())
		return health.Fail(health.CheckHealth, kind, detail, err)
	}

	if !resp.OK() {
		return health.Fail(health.CheckHealth, health.KindProtocol,
			health.KindProtocol.Detailf("unexpected status %d", resp.StatusCode), nil).
			WithPayload(resp.Body)
	}

	var root RootResponse
	if err := json.Unmarshal(resp.Body, &root); err != nil {
		return health.Fail(health.CheckHealth, health.KindProtocol,
			health.KindProtocol.Detailf("malformed body: %v", err), err).
			WithPayload(resp.Body)
	}

	if root.Message != c.config.Sentinel {
		return health.Fail(health.CheckHealth, health.KindProtocol,
			health.KindProtocol.Detailf("message %q, want %q", root.Message, c.config.Sentinel), nil).
			WithPayload(resp.Body)
	}

	return health.Pass(health.CheckHealth, "message "+quote(root.Message)).WithPayload(resp.Body)
}

// classifyTransport returns the kind and detail of a Client error.
func classifyTransport(err error, timeout time.Duration) (health.Kind, string) {
	kind := health.Classify(err)
	switch kind {
	case health.KindTimeout:
		return kind, kind.Detailf("no response within %s", timeout)
	case health.KindCanceled:
		return kind, kind.Detailf("run interrupted before a response")
	}
	return kind, kind.Detailf("%v", err)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
