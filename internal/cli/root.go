package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/honhon-app/honhon-cli/internal/api"
	"github.com/honhon-app/honhon-cli/internal/config"
	"github.com/honhon-app/honhon-cli/internal/ctxlog"
)

var (
	// Version information
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"

	// Configuration
	cfgFile string
	verbose bool
	noColor bool

	// Colors
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)

	// For testing - allows redirecting output
	colorOutput io.Writer = os.Stdout
	errorOutput io.Writer = os.Stderr
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "honhon",
	Short: "honhon - create and sign in to Hon-Hon accounts",
	Long: `honhon is the terminal client for the Hon-Hon app. It walks you through
the account registration form, checks every field before anything is sent,
and signs you in once the account exists.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || !colorEnabled() {
			color.NoColor = true
		}
	},
	SilenceUsage: true,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// SetVersion sets the version information
func SetVersion(v, c, b string) {
	version = v
	commit = c
	buildDate = b
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./honhon.yaml, .yml or .json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().String("api-url", "", "registration service URL (default "+api.DefaultBaseURL+")")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format (table, json, yaml)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))
	_ = viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.SetDefault("color", true)

	// Add commands
	rootCmd.AddCommand(
		newRegisterCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
	)
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if found, err := config.FindProjectFile(config.SettingsOptions(".")); err == nil {
		viper.SetConfigFile(found.Path)
		viper.SetConfigType(found.Format)
	}

	viper.SetEnvPrefix("HONHON")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(errorOutput, infoColor.Sprint("Using config file:"), viper.ConfigFileUsed())
		}
	}
}

// colorEnabled combines the color setting with the user preference
func colorEnabled() bool {
	if !viper.GetBool("color") {
		return false
	}
	if cfg, err := config.Load(); err == nil {
		return cfg.Preferences.ColorOutput
	}
	return true
}

// newLogger builds the diagnostic logger. Verbose mode logs at debug
// level; otherwise only warnings and errors reach stderr.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if IsVerbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(errorOutput, &slog.HandlerOptions{Level: level}))
}

// commandContext returns the command context carrying the diagnostic logger
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctxlog.WithLogger(ctx, newLogger())
}

// resolveAPIURL picks the service address from flags/env, then the user
// config, then the built-in default
func resolveAPIURL() string {
	if url := viper.GetString("api_url"); url != "" {
		return url
	}
	if cfg, err := config.Load(); err == nil {
		if url := cfg.GetAPIBaseURL(); url != "" {
			return url
		}
	}
	return api.DefaultBaseURL
}

// userAgent identifies the CLI to the service
func userAgent() string {
	return "honhon-cli/" + version
}

// Helper functions for consistent output

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Fprintln(colorOutput, successColor.Sprintf("✓ "+format, args...))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Fprintln(errorOutput, errorColor.Sprintf("✗ "+format, args...))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Fprintln(colorOutput, infoColor.Sprintf("ℹ "+format, args...))
}

// Warn prints a warning message
func Warn(format string, args ...interface{}) {
	fmt.Fprintln(errorOutput, warnColor.Sprintf("⚠ "+format, args...))
}

// Debug prints a debug message if verbose mode is enabled
func Debug(format string, args ...interface{}) {
	if IsVerbose() {
		fmt.Fprintln(errorOutput, color.New(color.FgMagenta).Sprintf("» "+format, args...))
	}
}

// IsVerbose returns true if verbose mode is enabled
func IsVerbose() bool {
	return viper.GetBool("verbose")
}
