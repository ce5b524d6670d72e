package endpoint

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonwraymond/smokecheck/observe"
)

// Defaults matching the layout of the deployed service.
const (
	DefaultSource   = "/app/frontend/.env"
	DefaultKey      = "EXPO_PUBLIC_BACKEND_URL"
	DefaultFallback = "http://localhost:8001"
	DefaultSuffix   = "/api"
)

// Endpoint is the immutable base URL every HTTP check is issued against.
type Endpoint struct {
	base string
}

// New creates an Endpoint from an already-complete base URL.
func New(base string) Endpoint {
	return Endpoint{base: strings.TrimRight(base, "/")}
}

// String returns the base URL.
func (e Endpoint) String() string {
	return e.base
}

// URL joins path onto the base URL. The root path "/" yields base + "/".
func (e Endpoint) URL(path string) string {
	if path == "" {
		return e.base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return e.base + path
}

// Config configures a Resolver. Zero fields take the package defaults.
type Config struct {
	// Source is the path of the dotenv file holding the address.
	Source string
	// Key is the variable holding the externally reachable address.
	Key string
	// Fallback is used when Source is unreadable or lacks Key.
	Fallback string
	// Suffix is appended to the address, e.g. "/api".
	Suffix string
}

// Resolver derives the Endpoint from configuration.
type Resolver struct {
	config Config
	logger observe.Logger
}

// NewResolver creates a resolver. A nil logger discards log output.
func NewResolver(config Config, logger observe.Logger) *Resolver {
	if config.Source == "" {
		config.Source = DefaultSource
	}
	if config.Key == "" {
		config.Key = DefaultKey
	}
	if config.Fallback == "" {
		config.Fallback = DefaultFallback
	}
	if config.Suffix == "" {
		config.Suffix = DefaultSuffix
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Resolver{config: config, logger: logger}
}

// Resolve returns the Endpoint. It never fails: any problem reading the
// source falls back to the configured default address.
func (r *Resolver) Resolve() Endpoint {
	ctx := context.Background()

	f, err := os.Open(r.config.Source)
	if err != nil {
		return r.unreadable(ctx, err)
	}
	defer f.Close()

	value, ok, err := Lookup(f, r.config.Key)
	if err != nil {
		return r.unreadable(ctx, err)
	}
	if !ok {
		r.logger.Warn(ctx, "endpoint key not found, using fallback",
			observe.Field{Key: "source", Value: r.config.Source},
			observe.Field{Key: "key", Value: r.config.Key},
		)
		return r.join(r.config.Fallback)
	}

	r.logger.Debug(ctx, "endpoint resolved from source",
		observe.Field{Key: "source", Value: r.config.Source},
		observe.Field{Key: "key", Value: r.config.Key},
	)
	return r.join(value)
}

func (r *Resolver) unreadable(ctx context.Context, err error) Endpoint {
	r.logger.Warn(ctx, "endpoint source unreadable, using fallback",
		observe.Field{Key: "source", Value: r.config.Source},
		observe.Field{Key: "error", Value: err.Error()},
	)
	return r.join(r.config.Fallback)
}

func (r *Resolver) join(address string) Endpoint {
	return New(strings.TrimRight(address, "/") + r.config.Suffix)
}

// Lookup scans KEY=value lines in order and returns the value of the first
// line whose key matches. Surrounding whitespace and one layer of matching
// quotes are stripped. Blank lines, comments and an "export " prefix are
// tolerated. An empty value counts as absent.
//
// A read error before the key is found, including a line longer than
// bufio.MaxScanTokenSize, is returned rather than reported as absence.
func Lookup(r io.Reader, key string) (string, bool, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		k, v, found := strings.Cut(line, "=")
		if !found || strings.TrimSpace(k) != key {
			continue
		}

		value := Unquote(strings.TrimSpace(v))
		if value == "" {
			return "", false, nil
		}
		return value, true, nil
	}
	if err := scanner.Err(); err != nil {
		return "", false, fmt.Errorf("endpoint: scan: %w", err)
	}
	return "", false, nil
}

// Unquote removes one layer of matching single or double quotes and the
// whitespace just inside them.
func Unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
