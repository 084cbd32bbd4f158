package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bimmerbailey/logreason/internal/config"
	"github.com/bimmerbailey/logreason/internal/output"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "logreason",
	Short: "Group unstructured logs into ranked failure patterns",
	Long: `Logreason reads unstructured log files, extracts timestamps, levels
and messages, and clusters similar lines into patterns ranked by how
often they occur.

Examples:
  logreason analyze /var/log/app.log
  logreason analyze --errors-only --top 10 "logs/*.log"
  logreason analyze --format json --since 1h app.log
  logreason stats /var/log/nginx/access.log`,
	SilenceUsage: true,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.logreason.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, yaml, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))
}

func initConfig() {
	// A missing .env is fine; real environment variables take precedence.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".logreason")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LOGREASON")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func setDefaults() {
	viper.SetDefault("format", "text")
	viper.SetDefault("verbose", false)
	viper.SetDefault("no_color", false)
	viper.SetDefault("top", 5)
	viper.SetDefault("min_count", 1)

	viper.SetDefault("embedding.provider", "ollama")
	viper.SetDefault("embedding.ollama.host", "")
	viper.SetDefault("embedding.ollama.model", "nomic-embed-text")
	viper.SetDefault("embedding.ollama.keep_alive", "")

	viper.SetDefault("watch.debounce", "500ms")

	viper.SetDefault("redaction.enabled", false)
	viper.SetDefault("redaction.patterns", []string{})
}

// loadConfig unmarshals the merged viper settings.
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// newLogger returns the stderr logger shared by a command run.
// LOGREASON_DEBUG enables debug output regardless of --verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelInfo
	}
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func colorMode() output.ColorMode {
	if viper.GetBool("no_color") {
		return output.ColorNever
	}
	return output.ColorAuto
}

// intSetting returns the flag value when it was set on the command line,
// then the configured value, then the flag default.
func intSetting(cmd *cobra.Command, flag, key string) int {
	v, _ := cmd.Flags().GetInt(flag)
	if cmd.Flags().Changed(flag) || !viper.IsSet(key) {
		return v
	}
	return viper.GetInt(key)
}
