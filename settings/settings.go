package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/smokecheck/checks"
	"github.com/jonwraymond/smokecheck/endpoint"
	"github.com/jonwraymond/smokecheck/observe"
	"github.com/jonwraymond/smokecheck/supervisor"
)

// DefaultPath is where the CLI looks for the settings file.
const DefaultPath = "/etc/smokecheck/smokecheck.yaml"

// Supervisor runners.
const (
	RunnerCommand = "command"
	RunnerSSH     = "ssh"
)

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Settings is the complete harness configuration.
type Settings struct {
	Endpoint   EndpointSettings   `yaml:"endpoint"`
	Timeouts   TimeoutSettings    `yaml:"timeouts"`
	Supervisor SupervisorSettings `yaml:"supervisor"`
	Health     HealthSettings     `yaml:"health"`
	Config     ConfigSettings     `yaml:"config"`
	Crud       CrudSettings       `yaml:"crud"`
	Telemetry  TelemetrySettings  `yaml:"telemetry"`
	Report     ReportSettings     `yaml:"report"`
}

// EndpointSettings locate the service's externally reachable address.
type EndpointSettings struct {
	Source   string `yaml:"source"`
	Key      string `yaml:"key"`
	Fallback string `yaml:"fallback"`
	Suffix   string `yaml:"suffix"`
}

// TimeoutSettings bound each network or supervisor call.
type TimeoutSettings struct {
	HTTP       time.Duration `yaml:"http"`
	Supervisor time.Duration `yaml:"supervisor"`
}

// SupervisorSettings configure the liveness probe.
type SupervisorSettings struct {
	Runner  string      `yaml:"runner"`
	Service string      `yaml:"service"`
	Marker  string      `yaml:"marker"`
	Command []string    `yaml:"command"`
	SSH     SSHSettings `yaml:"ssh"`
}

// SSHSettings configure the ssh runner.
type SSHSettings struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	KeyFile        string `yaml:"key_file"`
	Passphrase     string `yaml:"passphrase"`
	KnownHostsFile string `yaml:"known_hosts_file"`
}

// HealthSettings configure the health check.
type HealthSettings struct {
	Path     string `yaml:"path"`
	Sentinel string `yaml:"sentinel"`
}

// ConfigSettings configure the configuration check.
type ConfigSettings struct {
	Source       string   `yaml:"source"`
	RequiredKeys []string `yaml:"required_keys"`
}

// CrudSettings configure the CRUD round-trip check.
type CrudSettings struct {
	Path       string `yaml:"path"`
	ClientName string `yaml:"client_name"`
}

// TelemetrySettings configure logging, tracing and metrics.
type TelemetrySettings struct {
	Logging LoggingSettings `yaml:"logging"`
	Tracing TracingSettings `yaml:"tracing"`
	Metrics MetricsSettings `yaml:"metrics"`
}

// LoggingSettings configure the structured logger.
type LoggingSettings struct {
	Level string `yaml:"level"`
}

// TracingSettings configure span export.
type TracingSettings struct {
	Exporter  string  `yaml:"exporter"`
	Endpoint  string  `yaml:"endpoint"`
	Insecure  bool    `yaml:"insecure"`
	SamplePct float64 `yaml:"sample_pct"`
}

// MetricsSettings configure metric export.
type MetricsSettings struct {
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
	Textfile string `yaml:"textfile"`
}

// ReportSettings select the report format.
type ReportSettings struct {
	Format string `yaml:"format"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Endpoint: EndpointSettings{
			Source:   endpoint.DefaultSource,
			Key:      endpoint.DefaultKey,
			Fallback: endpoint.DefaultFallback,
			Suffix:   endpoint.DefaultSuffix,
		},
		Timeouts: TimeoutSettings{
			HTTP:       checks.DefaultTimeout,
			Supervisor: supervisor.DefaultTimeout,
		},
		Supervisor: SupervisorSettings{
			Runner:  RunnerCommand,
			Service: supervisor.DefaultService,
			Marker:  supervisor.DefaultMarker,
			Command: append([]string(nil), supervisor.DefaultCommand...),
		},
		Health: HealthSettings{
			Path:     checks.DefaultHealthPath,
			Sentinel: checks.DefaultSentinel,
		},
		Config: ConfigSettings{
			Source:       checks.DefaultConfigSource,
			RequiredKeys: append([]string(nil), checks.DefaultRequiredKeys...),
		},
		Crud: CrudSettings{
			Path:       checks.DefaultStatusPath,
			ClientName: checks.DefaultClientName,
		},
		Telemetry: TelemetrySettings{
			Logging: LoggingSettings{Level: "info"},
			Tracing: TracingSettings{Exporter: "none", SamplePct: 1.0},
			Metrics: MetricsSettings{Exporter: "none"},
		},
		Report: ReportSettings{Format: FormatText},
	}
}

// Load reads the settings file at path on top of Default.
//
// A missing file is not an error. On any other error the returned settings
// are the defaults, so callers may log the error and carry on.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("settings: read %s: %w", path, err)
	}

	s, err := Parse(data)
	if err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (Settings, error) {
	s := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Default(), fmt.Errorf("settings: parse: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Default(), err
	}
	return s, nil
}

// Validate checks value ranges and enumerations.
func (s Settings) Validate() error {
	if s.Timeouts.HTTP <= 0 {
		return fmt.Errorf("%w: timeouts.http=%s", ErrInvalidTimeout, s.Timeouts.HTTP)
	}
	if s.Timeouts.Supervisor <= 0 {
		return fmt.Errorf("%w: timeouts.supervisor=%s", ErrInvalidTimeout, s.Timeouts.Supervisor)
	}

	switch s.Supervisor.Runner {
	case RunnerCommand:
	case RunnerSSH:
		if s.Supervisor.SSH.Host == "" {
			return ErrMissingSSHHost
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRunner, s.Supervisor.Runner)
	}

	switch s.Report.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, s.Report.Format)
	}

	cfg := s.ObserveConfig("", nil)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTelemetry, err)
	}
	return nil
}

func enabled(exporter string) bool {
	return exporter != "" && exporter != "none"
}

// ObserveConfig converts the telemetry section. Logs go to logOutput.
func (s Settings) ObserveConfig(version string, logOutput io.Writer) observe.Config {
	t := s.Telemetry
	return observe.Config{
		ServiceName: "smokecheck",
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   enabled(t.Tracing.Exporter),
			Exporter:  t.Tracing.Exporter,
			Endpoint:  t.Tracing.Endpoint,
			Insecure:  t.Tracing.Insecure,
			SamplePct: t.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:      enabled(t.Metrics.Exporter),
			Exporter:     t.Metrics.Exporter,
			Endpoint:     t.Metrics.Endpoint,
			Insecure:     t.Metrics.Insecure,
			TextfilePath: t.Metrics.Textfile,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   t.Logging.Level,
			Output:  logOutput,
		},
	}
}

// EndpointConfig converts the endpoint section.
func (s Settings) EndpointConfig() endpoint.Config {
	return endpoint.Config{
		Source:   s.Endpoint.Source,
		Key:      s.Endpoint.Key,
		Fallback: s.Endpoint.Fallback,
		Suffix:   s.Endpoint.Suffix,
	}
}

// Runner builds the configured supervisor runner.
func (s Settings) Runner() supervisor.Runner {
	if s.Supervisor.Runner == RunnerSSH {
		ssh := s.Supervisor.SSH
		return supervisor.NewSSHRunner(supervisor.SSHConfig{
			Host:           ssh.Host,
			Port:           ssh.Port,
			User:           ssh.User,
			Password:       ssh.Password,
			KeyFile:        ssh.KeyFile,
			Passphrase:     ssh.Passphrase,
			KnownHostsFile: ssh.KnownHostsFile,
			Command:        s.Supervisor.Command,
		})
	}
	return supervisor.NewCommandRunner(s.Supervisor.Command...)
}

// ProbeConfig converts the supervisor section.
func (s Settings) ProbeConfig() supervisor.ProbeConfig {
	return supervisor.ProbeConfig{
		Service: s.Supervisor.Service,
		Marker:  s.Supervisor.Marker,
		Timeout: s.Timeouts.Supervisor,
	}
}

// ClientConfig converts the HTTP timeout. The tracer is left to the caller.
func (s Settings) ClientConfig() checks.ClientConfig {
	return checks.ClientConfig{Timeout: s.Timeouts.HTTP}
}

// HealthConfig converts the health section.
func (s Settings) HealthConfig() checks.HealthConfig {
	return checks.HealthConfig{Path: s.Health.Path, Sentinel: s.Health.Sentinel}
}

// ConfigCheckConfig converts the config section.
func (s Settings) ConfigCheckConfig() checks.ConfigCheckConfig {
	return checks.ConfigCheckConfig{Source: s.Config.Source, RequiredKeys: s.Config.RequiredKeys}
}

// CrudConfig converts the crud section.
func (s Settings) CrudConfig() checks.CrudConfig {
	return checks.CrudConfig{Path: s.Crud.Path, ClientName: s.Crud.ClientName}
}
