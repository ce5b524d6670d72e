package checks

import (
	"bytes"
	"context"
	"os"
	"strings"
	"time"

	"github.com/jonwraymond/smokecheck/health"
)

// ConfigCheck defaults.
const DefaultConfigSource = "/app/backend/.env"

// DefaultRequiredKeys are the substrings the service configuration must contain.
var DefaultRequiredKeys = []string{"MONGO_URL=", "DB_NAME="}

// ConfigCheckConfig configures a ConfigCheck. Zero fields take defaults.
type ConfigCheckConfig struct {
	// Source is the service's configuration file.
	Source string
	// RequiredKeys must each occur somewhere in Source.
	RequiredKeys []string
}

// ConfigCheck verifies the service's configuration file names its data store.
// It never connects to the data store.
type ConfigCheck struct {
	config ConfigCheckConfig
}

var _ health.Checker = (*ConfigCheck)(nil)

// NewConfigCheck creates a configuration check.
func NewConfigCheck(config ConfigCheckConfig) *ConfigCheck {
	if config.Source == "" {
		config.Source = DefaultConfigSource
	}
	if len(config.RequiredKeys) == 0 {
		config.RequiredKeys = DefaultRequiredKeys
	}
	return &ConfigCheck{config: config}
}

// ID returns health.CheckConfig.
func (c *ConfigCheck) ID() health.CheckID {
	return health.CheckConfig
}

// Check reads the source and reports which required keys are absent.
func (c *ConfigCheck) Check(_ context.Context) health.Outcome {
	start := time.Now()
	return c.check().WithDuration(time.Since(start))
}

func (c *ConfigCheck) check() health.Outcome {
	content, err := os.ReadFile(c.config.Source)
	if err != nil {
		return health.Fail(health.CheckConfig, health.KindConfigMissing,
			health.KindConfigMissing.Detailf("%s unreadable: %v", c.config.Source, err), err)
	}

	var present, missing []string
	for _, key := range c.config.RequiredKeys {
		name := strings.TrimSuffix(key, "=")
		if bytes.Contains(content, []byte(key)) {
			present = append(present, name)
		} else {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return health.Fail(health.CheckConfig, health.KindConfigMissing,
			health.KindConfigMissing.Detailf("%s lacks %s", c.config.Source, strings.Join(missing, ", ")), nil)
	}

	return health.Pass(health.CheckConfig, strings.Join(present, ", ")+" present in "+c.config.Source)
}
