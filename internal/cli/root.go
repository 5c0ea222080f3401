// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pkcs8.
//
// go-pkcs8 is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.


package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeremyhahn/go-pkcs8/internal/config"
	"github.com/jeremyhahn/go-pkcs8/pkg/correlation"
	"github.com/jeremyhahn/go-pkcs8/pkg/logging"
	"github.com/jeremyhahn/go-pkcs8/pkg/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the CLI reads
const EnvPrefix = "PKCS8"

// viper keys for the settings that can come from a flag or the environment
const (
	keyConfig          = "config"
	keyCorrelationID   = "correlation-id"
	keyOutput          = "output"
	keyVerbose         = "verbose"
	keyKeystoreBackend = "keystore.backend"
	keyKeystorePath    = "keystore.path"
	keyLogLevel        = "log.level"
	keyLogFormat       = "log.format"
	keyMetricsEnabled  = "metrics.enabled"
	keyMetricsTextfile = "metrics.textfile"
)

// Execute runs the root command against the process arguments
func Execute() error {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

// run executes one CLI invocation. Errors are printed to stderr in the
// selected output format and returned.
func run(args []string, stdout, stderr io.Writer) error {
	cfg := NewConfig()
	cmd := newRootCmd(cfg)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(context.Background())
	if werr := cfg.writeMetrics(); werr != nil && err == nil {
		err = werr
	}
	if err != nil {
		handleError(cfg, stderr, err)
	}
	return err
}

// newRootCmd builds the command tree around cfg. Every call returns an
// independent tree with its own viper instance.
func newRootCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "pkcs8",
		Short: "pkcs8 - strict PKCS#8 / OneAsymmetricKey tool",
		Long: `pkcs8 decodes, validates and re-encodes PKCS#8 private key containers
(RFC 5208 PrivateKeyInfo and RFC 5958 OneAsymmetricKey).

Every input is validated against the DER grammar; malformed fields and
trailing data are rejected. Output is always the canonical encoding, with
the version derived from whether a public key is present.

Inputs and outputs are raw DER files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.load(v, cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.ConfigFile, "config", "",
		"config file (YAML)")
	flags.StringVarP(&cfg.OutputFormat, "output", "o", string(OutputFormatText),
		"output format (text, json, table)")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false,
		"verbose output")
	flags.String("keystore-backend", "",
		"keystore backend (memory, file)")
	flags.String("keystore-path", "",
		"directory for the file keystore backend")
	flags.String("log-level", "",
		"log level (debug, info, warn, error)")
	flags.String("log-format", "",
		"log format (text, json)")
	flags.String("metrics-textfile", "",
		"write Prometheus metrics to this file after each command")
	flags.String("correlation-id", "",
		"ID added to every log record (default: random UUID)")

	for key, name := range map[string]string{
		keyConfig:          "config",
		keyCorrelationID:   "correlation-id",
		keyOutput:          "output",
		keyVerbose:         "verbose",
		keyKeystoreBackend: "keystore-backend",
		keyKeystorePath:    "keystore-path",
		keyLogLevel:        "log-level",
		keyLogFormat:       "log-format",
		keyMetricsTextfile: "metrics-textfile",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
	_ = v.BindEnv(keyMetricsEnabled)

	rootCmd.AddCommand(newInspectCmd(cfg))
	rootCmd.AddCommand(newNormalizeCmd(cfg))
	rootCmd.AddCommand(newCombineCmd(cfg))
	rootCmd.AddCommand(newCompareCmd(cfg))
	rootCmd.AddCommand(newHashCmd(cfg))
	rootCmd.AddCommand(newDecryptCmd(cfg))
	rootCmd.AddCommand(newEncryptCmd(cfg))
	rootCmd.AddCommand(newKeysCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd(cfg))

	return rootCmd
}

// load merges the config file, the environment and the flags into
// cfg.Settings and builds the logger. Flags win over the environment,
// which wins over the file.
func (c *Config) load(v *viper.Viper, cmd *cobra.Command) error {
	// validated once below, after the flags are applied
	settings := config.Environ()
	if path := v.GetString(keyConfig); path != "" {
		c.ConfigFile = path
		var err error
		if settings, err = config.Read(path); err != nil {
			return err
		}
	}

	for key, dst := range map[string]*string{
		keyKeystoreBackend: &settings.Keystore.Backend,
		keyKeystorePath:    &settings.Keystore.Path,
		keyLogLevel:        &settings.Logging.Level,
		keyLogFormat:       &settings.Logging.Format,
		keyMetricsTextfile: &settings.Metrics.Textfile,
	} {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	if v.IsSet(keyMetricsEnabled) {
		settings.Metrics.Enabled = v.GetBool(keyMetricsEnabled)
	}

	c.Verbose = v.GetBool(keyVerbose)
	if c.Verbose {
		settings.Logging.Level = "debug"
	}
	c.OutputFormat = v.GetString(keyOutput)
	switch OutputFormat(c.OutputFormat) {
	case OutputFormatText, OutputFormatJSON, OutputFormatTable:
	default:
		return fmt.Errorf("invalid output format: %s (must be text, json, or table)", c.OutputFormat)
	}

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  settings.Logging.Level,
		Format: settings.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	ctx, id := correlation.Ensure(cmd.Context(), v.GetString(keyCorrelationID))
	cmd.SetContext(ctx)
	c.CorrelationID = id
	logger = logger.With("correlation_id", id)

	if settings.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	c.Settings = settings
	c.Logger = logger
	logger.Debug("configuration loaded",
		"config_file", c.ConfigFile,
		"keystore_backend", settings.Keystore.Backend,
		"metrics", settings.Metrics.Enabled)
	return nil
}

// writeMetrics dumps the metrics registry when a textfile is configured
func (c *Config) writeMetrics() error {
	if c.Settings == nil || !c.Settings.Metrics.Enabled || c.Settings.Metrics.Textfile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(c.Settings.Metrics.Textfile); err != nil {
		return err
	}
	c.Logger.Debug("metrics written", "path", c.Settings.Metrics.Textfile)
	return nil
}

// handleError prints an error in the selected output format
func handleError(cfg *Config, w io.Writer, err error) {
	printer := NewPrinter(cfg.OutputFormat, w)
	_ = printer.PrintError(err) // Error printing to stderr is best-effort
}

// printer returns a Printer on the command's stdout
func (c *Config) printer(cmd *cobra.Command) *Printer {
	return NewPrinter(c.OutputFormat, cmd.OutOrStdout())
}
