package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/varnis/lockdown/internal/observability"
)

var (
	Version = "dev"
	DryRun  bool
	Verbose bool

	flushLog = func() {}
)

var rootCmd = &cobra.Command{
	Use:     "lockdown",
	Short:   "One-time hardening for a fresh Ubuntu 24.04 server",
	Long:    "Lockdown walks a freshly provisioned Ubuntu 24.04 host through first-boot hardening:\npackage updates, SSH on a custom port with key-only root login, UFW, fail2ban, and IPv6 off.",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		flushLog = observability.Setup(loadSettings())
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVar(&DryRun, "dry-run", false, "skip OS/root checks and don't apply changes (for testing)")
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "echo the log to stderr")
}

// loadSettings layers tool settings from /etc/lockdown/lockdown.yaml and
// LOCKDOWN_* environment variables over the built-in defaults. These are
// settings of the tool itself (where to log, how loud), not the hardening
// profile — that lives in internal/profile.
func loadSettings() observability.Config {
	def := observability.DefaultConfig()

	v := viper.New()
	v.SetConfigName("lockdown")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/lockdown")
	v.SetEnvPrefix("LOCKDOWN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", def.Level)
	v.SetDefault("log.file", def.File)
	v.SetDefault("log.max_size_mb", def.MaxSizeMB)
	v.SetDefault("log.max_backups", def.MaxBackups)

	_ = v.ReadInConfig() // missing settings file is fine

	cfg := observability.Config{
		Level:      v.GetString("log.level"),
		File:       v.GetString("log.file"),
		MaxSizeMB:  v.GetInt("log.max_size_mb"),
		MaxBackups: v.GetInt("log.max_backups"),
		Verbose:    Verbose,
	}
	if DryRun {
		// Dry runs shouldn't need write access to /var/log.
		cfg.File = ""
	}
	return cfg
}

func Execute() error {
	err := rootCmd.Execute()
	flushLog()
	return err
}

var exitFunc = os.Exit

// fail terminates with a non-zero status after flushing the log file;
// a bare os.Exit would drop buffered log output.
func fail() {
	flushLog()
	exitFunc(1)
}
