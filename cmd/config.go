package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ideas"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage ideas configuration.

Running bare 'ideas config' is the same as 'ideas config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# ideas configuration
# See: ideas config show (for effective values and sources)

# State/data directory (default: ~/.config/ideas)
# state_dir: {{ .StateDir }}

# SQLite database path, or a libsql:// URL (default: ~/.config/ideas/ideas.db)
# db_path: {{ .DBPath }}

# Log level for operational logs on stderr: debug, info, warn, error
log:
  level: "{{ .LogLevel }}"

# Text generation
llm:
  # Provider: anthropic or gemini
  provider: "{{ .Provider }}"
  # Attempts per prompt on transient failures
  max_attempts: {{ .MaxAttempts }}
  # Delay between transient attempts
  retry_delay: "{{ .RetryDelay }}"
  # Timeout for a single attempt
  request_timeout: "{{ .RequestTimeout }}"
  # Wait after a rate limit when the provider gives no retry-after
  rate_limit_delay: "{{ .RateLimitDelay }}"
  # Minimum ASCII share before a reply is re-requested in English
  ascii_threshold: {{ .ASCIIThreshold }}

anthropic:
  # Keys are rotated on rate limits; ANTHROPIC_API_KEY is added when set
  api_keys: []
  model: "{{ .AnthropicModel }}"

gemini:
  # GEMINI_API_KEY is added when set
  api_keys: []
  model: "{{ .GeminiModel }}"

# Background deep dive generation
lifecycle:
  workers: {{ .Workers }}
  task_timeout: "{{ .TaskTimeout }}"

# Optional NATS server for shared events and the idea list cache
events:
  nats_url: "{{ .NATSURL }}"
cache:
  nats_bucket: "{{ .CacheBucket }}"
  ttl: "{{ .CacheTTL }}"

# HTTP API port for 'ideas serve'
port: {{ .Port }}
`

type configTemplateData struct {
	StateDir       string
	DBPath         string
	LogLevel       string
	Provider       string
	MaxAttempts    int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
	RateLimitDelay time.Duration
	ASCIIThreshold float64
	AnthropicModel string
	GeminiModel    string
	Workers        int
	TaskTimeout    time.Duration
	NATSURL        string
	CacheBucket    string
	CacheTTL       time.Duration
	Port           int
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		StateDir:       viper.GetString("state_dir"),
		DBPath:         viper.GetString("db_path"),
		LogLevel:       viper.GetString("log.level"),
		Provider:       viper.GetString("llm.provider"),
		MaxAttempts:    viper.GetInt("llm.max_attempts"),
		RetryDelay:     viper.GetDuration("llm.retry_delay"),
		RequestTimeout: viper.GetDuration("llm.request_timeout"),
		RateLimitDelay: viper.GetDuration("llm.rate_limit_delay"),
		ASCIIThreshold: viper.GetFloat64("llm.ascii_threshold"),
		AnthropicModel: viper.GetString("anthropic.model"),
		GeminiModel:    viper.GetString("gemini.model"),
		Workers:        viper.GetInt("lifecycle.workers"),
		TaskTimeout:    viper.GetDuration("lifecycle.task_timeout"),
		NATSURL:        viper.GetString("events.nats_url"),
		CacheBucket:    viper.GetString("cache.nats_bucket"),
		CacheTTL:       viper.GetDuration("cache.ttl"),
		Port:           viper.GetInt("port"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
}

var configKeys = []configKeyInfo{
	configKey("state_dir"),
	configKey("db_path"),
	configKey("log.level"),
	configKey("llm.provider"),
	configKey("llm.profile"),
	configKey("llm.max_attempts"),
	configKey("llm.retry_delay"),
	configKey("llm.request_timeout"),
	configKey("llm.rate_limit_delay"),
	configKey("llm.max_rate_limit_wait"),
	configKey("llm.ascii_threshold"),
	configKey("llm.max_tokens"),
	configKey("anthropic.api_keys"),
	configKey("anthropic.model"),
	configKey("gemini.api_keys"),
	configKey("gemini.model"),
	configKey("lifecycle.workers"),
	configKey("lifecycle.task_timeout"),
	configKey("pitch.max_attempts"),
	configKey("pitch.retry_delay"),
	configKey("events.nats_url"),
	configKey("cache.nats_bucket"),
	configKey("cache.ttl"),
	configKey("port"),
}

// configKey derives the environment variable viper binds for key.
func configKey(key string) configKeyInfo {
	return configKeyInfo{Key: key, EnvVar: "IDEAS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		if strings.HasSuffix(k.Key, "api_keys") {
			val = fmt.Sprintf("%d configured", len(viper.GetStringSlice(k.Key)))
		}
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-26s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set: set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'ideas config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
