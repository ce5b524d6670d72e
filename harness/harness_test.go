package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/smokecheck/health"
	"github.com/jonwraymond/smokecheck/settings"
)

// service is a minimal fake of the service under test.
type service struct {
	rootDelay time.Duration
	rootBody  string
	crudCode  int
}

func (s *service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/":
		if s.rootDelay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(s.rootDelay):
			}
		}
		body := s.rootBody
		if body == "" {
			body = `{"message":"Hello World"}`
		}
		_, _ = w.Write([]byte(body))
	case r.URL.Path == "/api/status":
		if s.crudCode != 0 {
			w.WriteHeader(s.crudCode)
			return
		}
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"id":"1","client_name":"workout_timer_test","timestamp":"2026-10-19T09:00:00"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":"1","client_name":"workout_timer_test","timestamp":"2026-10-19T09:00:00"}]`))
	default:
		http.NotFound(w, r)
	}
}

type fixture struct {
	settings settings.Settings
	dir      string
}

// newFixture writes both .env files and points every source at them.
func newFixture(t *testing.T, baseURL string) *fixture {
	t.Helper()
	dir := t.TempDir()

	frontend := filepath.Join(dir, "frontend.env")
	backend := filepath.Join(dir, "backend.env")
	writeFile(t, frontend, "EXPO_PUBLIC_BACKEND_URL=\""+baseURL+"\"\n")
	writeFile(t, backend, "MONGO_URL=\"mongodb://localhost:27017\"\nDB_NAME=\"test_database\"\n")

	s := settings.Default()
	s.Endpoint.Source = frontend
	s.Config.Source = backend
	s.Supervisor.Command = []string{"sh", "-c", `echo "$0                          RUNNING   pid 42, uptime 0:05:00"`}
	s.Timeouts.HTTP = 200 * time.Millisecond
	s.Timeouts.Supervisor = 2 * time.Second

	return &fixture{settings: s, dir: dir}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func startService(t *testing.T, svc *service) string {
	t.Helper()
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, opts Options) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	opts.Stdout = &stdout
	opts.Stderr = &stderr
	code := Run(context.Background(), opts)
	return code, stdout.String(), stderr.String()
}

func TestRun_AllChecksPass(t *testing.T) {
	base := startService(t, &service{})
	fx := newFixture(t, base)

	code, stdout, _ := run(t, Options{Settings: fx.settings})

	if code != health.ExitOK {
		t.Fatalf("exit code = %d, want 0\n%s", code, stdout)
	}
	if !strings.Contains(stdout, "Smoke test against "+base+"/api") {
		t.Errorf("report should name the resolved endpoint:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Overall: 4/4 checks passed") {
		t.Errorf("expected 4/4:\n%s", stdout)
	}
	for _, title := range []string{"Service Running", "Health Check", "Database Config", "Status Endpoints"} {
		if !strings.Contains(stdout, title) {
			t.Errorf("report missing %q:\n%s", title, stdout)
		}
	}
}

func TestRun_ChecksRunInOrder(t *testing.T) {
	base := startService(t, &service{})
	fx := newFixture(t, base)

	_, stdout, _ := run(t, Options{Settings: fx.settings})

	order := []string{"Service Running", "Health Check", "Database Config", "Status Endpoints"}
	last := -1
	for _, title := range order {
		i := strings.Index(stdout, title)
		if i <= last {
			t.Fatalf("%q out of order in:\n%s", title, stdout)
		}
		last = i
	}
}

func TestRun_RootTimeoutFailsOverall(t *testing.T) {
	base := startService(t, &service{rootDelay: 2 * time.Second})
	fx := newFixture(t, base)

	code, stdout, _ := run(t, Options{Settings: fx.settings})

	if code != health.ExitFailed {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stdout, "timeout: no response within 200ms") {
		t.Errorf("expected timeout detail:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Overall: 3/4 checks passed") {
		t.Errorf("liveness, config and crud should still report:\n%s", stdout)
	}
	if !strings.Contains(stdout, "health check failed") {
		t.Errorf("expected failing verdict:\n%s", stdout)
	}
}

func TestRun_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	base := "http://" + ln.Addr().String()
	ln.Close()

	fx := newFixture(t, base)
	code, stdout, _ := run(t, Options{Settings: fx.settings})

	if code != health.ExitFailed {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stdout, "connection: ") {
		t.Errorf("expected connection detail:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Database Config") || !strings.Contains(stdout, "Overall: 2/4") {
		t.Errorf("liveness and config should still pass:\n%s", stdout)
	}
}

func TestRun_OnlyHealthGates(t *testing.T) {
	base := startService(t, &service{crudCode: http.StatusInternalServerError})
	fx := newFixture(t, base)
	fx.settings.Config.Source = filepath.Join(fx.dir, "absent.env")
	fx.settings.Supervisor.Command = []string{"/nonexistent/supervisorctl", "status"}

	code, stdout, _ := run(t, Options{Settings: fx.settings})

	if code != health.ExitOK {
		t.Fatalf("exit code = %d, want 0 with only the health check passing\n%s", code, stdout)
	}
	if !strings.Contains(stdout, "Overall: 1/4 checks passed") {
		t.Errorf("expected 1/4:\n%s", stdout)
	}
	for _, detail := range []string{"supervision-unavailable:", "config-missing:", "create: failed (protocol: unexpected status 500)"} {
		if !strings.Contains(stdout, detail) {
			t.Errorf("report missing %q:\n%s", detail, stdout)
		}
	}
}

func TestRun_SentinelMismatch(t *testing.T) {
	base := startService(t, &service{rootBody: `{"message":"Goodbye"}`})
	fx := newFixture(t, base)

	code, stdout, _ := run(t, Options{Settings: fx.settings})
	if code != health.ExitFailed {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stdout, `protocol: message "Goodbye", want "Hello World"`) {
		t.Errorf("expected mismatch detail:\n%s", stdout)
	}
}

func TestRun_FallbackEndpoint(t *testing.T) {
	fx := newFixture(t, "unused")
	fx.settings.Endpoint.Source = filepath.Join(fx.dir, "absent.env")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := &http.Server{Handler: &service{}}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Close() })

	fx.settings.Endpoint.Fallback = "http://" + ln.Addr().String() + "/"

	code, stdout, stderr := run(t, Options{Settings: fx.settings})
	if code != health.ExitOK {
		t.Fatalf("exit code = %d\n%s", code, stdout)
	}
	if !strings.Contains(stdout, "Smoke test against http://"+ln.Addr().String()+"/api\n") {
		t.Errorf("expected fallback target:\n%s", stdout)
	}
	if !strings.Contains(stderr, "using fallback") {
		t.Errorf("expected fallback warning in logs:\n%s", stderr)
	}
}

func TestRun_JSONReport(t *testing.T) {
	base := startService(t, &service{})
	fx := newFixture(t, base)
	fx.settings.Report.Format = settings.FormatJSON

	code, stdout, _ := run(t, Options{Settings: fx.settings})
	if code != health.ExitOK {
		t.Fatalf("exit code = %d", code)
	}

	var report health.ReportResponse
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, stdout)
	}
	if report.Status != "pass" || report.Passed != 4 || report.Total != 4 {
		t.Errorf("report = %+v", report)
	}
	if report.Target != base+"/api" {
		t.Errorf("target = %q", report.Target)
	}
	if report.Checks[1].Check != "health" || report.Checks[1].Payload != `{"message":"Hello World"}` {
		t.Errorf("health entry = %+v", report.Checks[1])
	}
}

func TestRun_LogsToStderrOnly(t *testing.T) {
	base := startService(t, &service{})
	fx := newFixture(t, base)

	_, stdout, stderr := run(t, Options{
		Settings:    fx.settings,
		SettingsErr: errors.New("settings: parse: yaml: line 3: did not find expected key"),
	})

	if strings.Contains(stdout, `"level"`) {
		t.Errorf("log lines leaked into the report:\n%s", stdout)
	}

	var sawWarning, sawCheck bool
	for _, line := range strings.Split(strings.TrimSpace(stderr), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("stderr line is not JSON: %q", line)
		}
		if entry["msg"] == "settings unusable, using defaults" && entry["level"] == "warn" {
			sawWarning = true
		}
		if entry["check.id"] == "crud_round_trip" {
			sawCheck = true
		}
	}
	if !sawWarning {
		t.Errorf("expected settings warning:\n%s", stderr)
	}
	if !sawCheck {
		t.Errorf("expected per-check log line:\n%s", stderr)
	}
}

func TestRun_PrometheusTextfile(t *testing.T) {
	base := startService(t, &service{})
	fx := newFixture(t, base)
	textfile := filepath.Join(fx.dir, "smokecheck.prom")
	fx.settings.Telemetry.Metrics.Exporter = "prometheus"
	fx.settings.Telemetry.Metrics.Textfile = textfile

	if code, stdout, _ := run(t, Options{Settings: fx.settings}); code != health.ExitOK {
		t.Fatalf("exit code = %d\n%s", code, stdout)
	}

	data, err := os.ReadFile(textfile)
	if err != nil {
		t.Fatalf("textfile not written: %v", err)
	}
	if !strings.Contains(string(data), "smoke_check_total") {
		t.Errorf("textfile lacks smoke_check_total:\n%s", data)
	}
}

func TestRun_TelemetryErrorDoesNotAbort(t *testing.T) {
	base := startService(t, &service{})
	fx := newFixture(t, base)
	fx.settings.Telemetry.Tracing.Exporter = "otlp" // no endpoint

	code, _, stderr := run(t, Options{Settings: fx.settings})
	if code != health.ExitOK {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stderr, "telemetry export disabled") {
		t.Errorf("expected telemetry warning:\n%s", stderr)
	}
}
