package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/imamik/stackpilot/internal/platform/awsconfig"
)

// Roles a server can run in.
const (
	RoleOrchestrator = "orchestrator"
	RoleOnboarding   = "onboarding"
	RoleProvisioning = "provisioning"
)

// Defaults applied after the environment overlay.
const (
	DefaultListenAddr = ":8080"
	DefaultLogLevel   = "info"
)

// Environment variables read by ApplyEnv.
const (
	EnvRegion          = "AWS_REGION"
	EnvEndpoint        = "STACKPILOT_AWS_ENDPOINT"
	EnvOnboardingARN   = "ONBOARDING_AGENT_ARN"
	EnvProvisioningARN = "PROVISIONING_AGENT_ARN"
	EnvOrchestratorARN = "ORCHESTRATOR_AGENT_ARN"
	EnvTemplateBucket  = "STACKPILOT_TEMPLATE_BUCKET"
	EnvListenAddr      = "STACKPILOT_LISTEN_ADDR"
	EnvLogLevel        = "STACKPILOT_LOG_LEVEL"
	EnvRole            = "STACKPILOT_ROLE"
)

var regionPattern = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d+$`)

// Config is the complete runtime configuration.
type Config struct {
	Region         string      `yaml:"region,omitempty"`
	Endpoint       string      `yaml:"endpoint,omitempty"`
	Role           string      `yaml:"role,omitempty"`
	ListenAddr     string      `yaml:"listen_addr,omitempty"`
	LogLevel       string      `yaml:"log_level,omitempty"`
	TemplateBucket string      `yaml:"template_bucket,omitempty"`
	Agents         Agents      `yaml:"agents,omitempty"`
	Credentials    Credentials `yaml:"credentials,omitempty"`
}

// Agents holds the ARNs of the collaborating agent runtimes.
type Agents struct {
	OnboardingARN   string `yaml:"onboarding_arn,omitempty"`
	ProvisioningARN string `yaml:"provisioning_arn,omitempty"`
	OrchestratorARN string `yaml:"orchestrator_arn,omitempty"`
}

// Credentials are optional static AWS keys. Without them the default
// credential chain is used.
type Credentials struct {
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	SessionToken    string `yaml:"session_token,omitempty"`
}

// Runtime is one configured agent runtime.
type Runtime struct {
	Name string
	Env  string
	ARN  string
}

// Runtimes lists the agent runtimes in a fixed order, configured or not.
func (c *Config) Runtimes() []Runtime {
	return []Runtime{
		{Name: "Orchestrator", Env: EnvOrchestratorARN, ARN: c.Agents.OrchestratorARN},
		{Name: "Onboarding", Env: EnvOnboardingARN, ARN: c.Agents.OnboardingARN},
		{Name: "Provisioning", Env: EnvProvisioningARN, ARN: c.Agents.ProvisioningARN},
	}
}

// AWSSettings returns the settings the AWS clients are built from.
func (c *Config) AWSSettings() awsconfig.Settings {
	return awsconfig.Settings{
		Region:          c.Region,
		Endpoint:        c.Endpoint,
		AccessKeyID:     c.Credentials.AccessKeyID,
		SecretAccessKey: c.Credentials.SecretAccessKey,
		SessionToken:    c.Credentials.SessionToken,
	}
}

// ApplyEnv overlays non-empty environment values read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	overlay := []struct {
		env    string
		target *string
	}{
		{EnvRegion, &c.Region},
		{EnvEndpoint, &c.Endpoint},
		{EnvOnboardingARN, &c.Agents.OnboardingARN},
		{EnvProvisioningARN, &c.Agents.ProvisioningARN},
		{EnvOrchestratorARN, &c.Agents.OrchestratorARN},
		{EnvTemplateBucket, &c.TemplateBucket},
		{EnvListenAddr, &c.ListenAddr},
		{EnvLogLevel, &c.LogLevel},
		{EnvRole, &c.Role},
	}
	for _, o := range overlay {
		if v := strings.TrimSpace(getenv(o.env)); v != "" {
			*o.target = v
		}
	}
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Region == "" {
		c.Region = awsconfig.DefaultRegion
	}
	if c.Role == "" {
		c.Role = RoleOrchestrator
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Role = strings.ToLower(c.Role)
}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	var errs []error

	if !regionPattern.MatchString(c.Region) {
		errs = append(errs, fmt.Errorf("invalid region %q", c.Region))
	}

	switch c.Role {
	case RoleOrchestrator, RoleOnboarding, RoleProvisioning:
	default:
		errs = append(errs, fmt.Errorf("invalid role %q (expected %s, %s or %s)",
			c.Role, RoleOrchestrator, RoleOnboarding, RoleProvisioning))
	}

	for _, rt := range c.Runtimes() {
		if rt.ARN != "" && !strings.HasPrefix(rt.ARN, "arn:") {
			errs = append(errs, fmt.Errorf("%s is not an ARN: %q", rt.Env, rt.ARN))
		}
	}

	if (c.Credentials.AccessKeyID == "") != (c.Credentials.SecretAccessKey == "") {
		errs = append(errs, errors.New("credentials need both access_key_id and secret_access_key"))
	}

	return errors.Join(errs...)
}
