package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fivetwenty-io/fulfil-client/internal/constants"
	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
	"github.com/fivetwenty-io/fulfil-client/pkg/fulfilclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	MerchantID string `json:"merchant_id"           yaml:"merchant_id"`
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty"`
	BaseURL    string `json:"base_url,omitempty"    yaml:"base_url,omitempty"`
	Token      string `json:"token,omitempty"       yaml:"token,omitempty"`
	TokenType  string `json:"token_type,omitempty"  yaml:"token_type,omitempty"`
	RetryMax   int    `json:"retry_max,omitempty"   yaml:"retry_max,omitempty"`

	// 3PL API
	TPLToken string `json:"tpl_token,omitempty" yaml:"tpl_token,omitempty"`

	// Shared count cache: none, memory or nats
	Cache      string `json:"cache,omitempty"       yaml:"cache,omitempty"`
	NATSURL    string `json:"nats_url,omitempty"    yaml:"nats_url,omitempty"`
	NATSBucket string `json:"nats_bucket,omitempty" yaml:"nats_bucket,omitempty"`

	Output string `json:"output" yaml:"output"`
}

// configKeys lists the keys accepted by 'config set'.
var configKeys = map[string]func(*Config, string) error{
	"merchant_id": func(c *Config, v string) error { c.MerchantID = v; return nil },
	"api_version": func(c *Config, v string) error { c.APIVersion = v; return nil },
	"base_url":    func(c *Config, v string) error { c.BaseURL = v; return nil },
	"token":       func(c *Config, v string) error { c.Token = v; return nil },
	"token_type": func(c *Config, v string) error {
		switch fulfil.TokenType(strings.ToLower(v)) {
		case fulfil.TokenTypePersonal, fulfil.TokenTypeOAuth:
			c.TokenType = strings.ToLower(v)

			return nil
		default:
			return fmt.Errorf("%w: %q", constants.ErrInvalidTokenType, v)
		}
	},
	"retry_max": func(c *Config, v string) error {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("invalid retry_max %q: %w", v, err)
		}

		c.RetryMax = n

		return nil
	},
	"tpl_token":   func(c *Config, v string) error { c.TPLToken = v; return nil },
	"cache":       func(c *Config, v string) error { c.Cache = v; return nil },
	"nats_url":    func(c *Config, v string) error { c.NATSURL = v; return nil },
	"nats_bucket": func(c *Config, v string) error { c.NATSBucket = v; return nil },
	"output": func(c *Config, v string) error {
		switch v {
		case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
			c.Output = v

			return nil
		default:
			return fmt.Errorf("%w: %q", constants.ErrInvalidOutput, v)
		}
	},
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in the Fulfil CLI configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.Token = maskSecret(config.Token)
			config.TPLToken = maskSecret(config.TPLToken)

			return renderConfig(cmd.OutOrStdout(), viper.GetString("output"), config)
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value and write it to the configuration file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			apply, ok := configKeys[args[0]]
			if !ok {
				return fmt.Errorf("%w: %s (valid keys: %s)", constants.ErrUnknownConfigKey, args[0], strings.Join(sortedConfigKeys(), ", "))
			}

			config := loadConfig()

			err := apply(config, args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for key := range configKeys {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func loadConfig() *Config {
	output := viper.GetString("output")
	if output == "" {
		output = constants.FormatTable
	}

	return &Config{
		MerchantID: viper.GetString("merchant_id"),
		APIVersion: viper.GetString("api_version"),
		BaseURL:    viper.GetString("base_url"),
		Token:      viper.GetString("token"),
		TokenType:  viper.GetString("token_type"),
		RetryMax:   viper.GetInt("retry_max"),
		TPLToken:   viper.GetString("tpl_token"),
		Cache:      viper.GetString("cache"),
		NATSURL:    viper.GetString("nats_url"),
		NATSBucket: viper.GetString("nats_bucket"),
		Output:     output,
	}
}

// clientConfig maps the CLI configuration onto a fulfil.Config.
func clientConfig(config *Config, verbose bool, stderr io.Writer) *fulfil.Config {
	clientCfg := &fulfil.Config{
		MerchantID:  config.MerchantID,
		APIVersion:  config.APIVersion,
		BaseURL:     config.BaseURL,
		AccessToken: config.Token,
		TokenType:   fulfil.TokenType(strings.ToLower(config.TokenType)),
		RetryMax:    config.RetryMax,
	}

	if verbose {
		handler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		clientCfg.Logger = fulfil.NewSlogLogger(slog.New(handler))
		clientCfg.Debug = true
	}

	if config.TPLToken != "" {
		clientCfg.TPL = &fulfil.TPLConfig{AuthToken: config.TPLToken}
	}

	switch fulfil.CacheType(config.Cache) {
	case fulfil.CacheTypeMemory:
		clientCfg.Cache = fulfil.DefaultCacheConfig()
	case fulfil.CacheTypeNATS:
		clientCfg.Cache = &fulfil.CacheConfig{
			Type: fulfil.CacheTypeNATS,
			NATS: &fulfil.NATSKVConfig{URL: config.NATSURL, Bucket: config.NATSBucket},
		}
	case fulfil.CacheTypeNone:
	}

	return clientCfg
}

// newClient builds a Fulfil client from the current configuration.
func newClient(cmd *cobra.Command) (*fulfil.Client, error) {
	config := loadConfig()

	cli, err := fulfilclient.New(clientConfig(config, viper.GetBool("verbose"), cmd.ErrOrStderr()))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return cli, nil
}

func maskSecret(secret string) string {
	const visible = 4

	if secret == "" {
		return ""
	}

	if len(secret) <= visible {
		return strings.Repeat("*", len(secret))
	}

	return strings.Repeat("*", len(secret)-visible) + secret[len(secret)-visible:]
}

func renderConfig(out io.Writer, format string, config *Config) error {
	switch format {
	case constants.FormatJSON:
		return encodeJSON(out, config)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)

		return encoder.Encode(config)
	default:
		table := tablewriter.NewWriter(out)
		table.Header("Setting", "Value")

		_ = table.Append("merchant_id", config.MerchantID)
		_ = table.Append("api_version", config.APIVersion)
		_ = table.Append("base_url", config.BaseURL)
		_ = table.Append("token", config.Token)
		_ = table.Append("token_type", config.TokenType)
		_ = table.Append("retry_max", cast.ToString(config.RetryMax))
		_ = table.Append("tpl_token", config.TPLToken)
		_ = table.Append("cache", config.Cache)

		if config.Cache == string(fulfil.CacheTypeNATS) {
			_ = table.Append("nats_url", config.NATSURL)
			_ = table.Append("nats_bucket", config.NATSBucket)
		}

		_ = table.Append("output", config.Output)

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}

	return nil
}

// saveConfigStruct writes the configuration to the active config file,
// defaulting to ~/.fulfil/config.yml.
func saveConfigStruct(config *Config) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}

		configDir := filepath.Join(home, ".fulfil")

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		configFile = filepath.Join(configDir, "config.yml")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
