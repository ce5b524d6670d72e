package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonwraymond/smokecheck/endpoint"
	"github.com/jonwraymond/smokecheck/health"
)

// CrudCheck defaults.
const (
	DefaultStatusPath = "/status"
	DefaultClientName = "workout_timer_test"
)

// CrudConfig configures a CrudCheck. Zero fields take defaults.
type CrudConfig struct {
	// Path is the status collection, joined onto the endpoint.
	Path string
	// ClientName is submitted as the new record's client_name.
	ClientName string
}

// CrudCheck creates one status record and lists the collection.
// Both halves always run; the outcome succeeds only if both do.
type CrudCheck struct {
	endpoint endpoint.Endpoint
	client   *Client
	config   CrudConfig
}

var _ health.Checker = (*CrudCheck)(nil)

// NewCrudCheck creates a CRUD round-trip check against ep.
func NewCrudCheck(ep endpoint.Endpoint, client *Client, config CrudConfig) *CrudCheck {
	if config.Path == "" {
		config.Path = DefaultStatusPath
	}
	if config.ClientName == "" {
		config.ClientName = DefaultClientName
	}
	return &CrudCheck{endpoint: ep, client: client, config: config}
}

// ID returns health.CheckCrudRoundTrip.
func (c *CrudCheck) ID() health.CheckID {
	return health.CheckCrudRoundTrip
}

// step is the result of one half of the round trip.
type step struct {
	ok      bool
	kind    health.Kind
	detail  string
	err     error
	payload []byte
}

func (s step) String() string {
	if s.ok {
		return "ok" + s.detail
	}
	return "failed (" + s.detail + ")"
}

func failedStep(kind health.Kind, err error, detail string) step {
	if err == nil {
		err = kind.Err()
	}
	return step{kind: kind, err: err, detail: detail}
}

func (c *CrudCheck) transportStep(err error) step {
	kind, detail := classifyTransport(err, c.client.Timeout())
	return failedStep(kind, err, detail)
}

// Check runs create then read, each independently bounded and classified.
func (c *CrudCheck) Check(ctx context.Context) health.Outcome {
	start := time.Now()
	url := c.endpoint.URL(c.config.Path)

	create := c.create(ctx, url)
	read := c.read(ctx, url)

	detail := fmt.Sprintf("create: %s; read: %s", create, read)

	var outcome health.Outcome
	switch {
	case !create.ok:
		outcome = health.Fail(health.CheckCrudRoundTrip, create.kind, detail, create.err)
	case !read.ok:
		outcome = health.Fail(health.CheckCrudRoundTrip, read.kind, detail, read.err)
	default:
		outcome = health.Pass(health.CheckCrudRoundTrip, detail)
	}

	return outcome.WithPayload(create.payload).WithDuration(time.Since(start))
}

func (c *CrudCheck) create(ctx context.Context, url string) step {
	resp, err := c.client.Post(ctx, url, StatusCreate{ClientName: c.config.ClientName})
	if err != nil {
		return c.transportStep(err)
	}

	if !resp.OK() {
		detail := health.KindProtocol.Detailf("unexpected status %d", resp.StatusCode)
		if body := snippet(resp.Body); body != "" {
			detail += ": " + body
		}
		s := failedStep(health.KindProtocol, nil, detail)
		s.payload = resp.Body
		return s
	}

	s := step{ok: true, payload: resp.Body}
	var record StatusRecord
	if err := json.Unmarshal(resp.Body, &record); err == nil && record.ID != "" {
		s.detail = fmt.Sprintf(" (id %s, client_name %s)", record.ID, quote(record.ClientName))
	} else if body := snippet(resp.Body); body != "" {
		s.detail = " (body: " + body + ")"
	}
	return s
}

func (c *CrudCheck) read(ctx context.Context, url string) step {
	resp, err := c.client.Get(ctx, url)
	if err != nil {
		return c.transportStep(err)
	}

	if !resp.OK() {
		return failedStep(health.KindProtocol, nil, health.KindProtocol.Detailf("unexpected status %d", resp.StatusCode))
	}

	// Records are counted, not validated.
	var records []json.RawMessage
	if err := json.Unmarshal(resp.Body, &records); err != nil {
		return failedStep(health.KindProtocol, err, health.KindProtocol.Detailf("expected a list of status records: %v", err))
	}
	if records == nil {
		return failedStep(health.KindProtocol, nil, health.KindProtocol.Detailf("expected a list of status records, got null"))
	}

	return step{ok: true, detail: fmt.Sprintf(" (%d records)", len(records))}
}

// snippetLen caps how much of a response body goes into a detail.
const snippetLen = 120

// snippet returns body on one line, truncated to snippetLen runes.
func snippet(body []byte) string {
	text := strings.Join(strings.Fields(string(body)), " ")
	if utf8.RuneCountInString(text) <= snippetLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:snippetLen]) + "..."
}
