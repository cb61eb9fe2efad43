package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"evalgo.org/dockboard/internal/config"
	"evalgo.org/dockboard/internal/logging"
	"evalgo.org/dockboard/internal/version"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dockboard",
	Short: "Dashboard for containers across Docker hosts",
	Long: `Dockboard shows the live state of containers running on one or more
Docker engines. Hosts are reached over the local socket, plain or
TLS-verified TCP, or an SSH tunnel, and unreachable hosts never hide
the ones that answer.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command. Build info is read here because main sets
// it after package initialization.
func Execute() error {
	rootCmd.Version = version.Version
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, text)")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(hostsCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "%s" .Version}}
`)
}

// initConfig loads the configuration and installs the logger. Flags win
// over every other source.
func initConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if logLevel != "" {
		loaded.Logging.Level = logLevel
	}
	if logFormat != "" {
		loaded.Logging.Format = logFormat
	}

	l, err := logging.Setup(os.Stderr, loaded.Logging.Level, loaded.Logging.Format)
	if err != nil {
		return err
	}

	cfg, logger = loaded, l
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		out := cmd.OutOrStdout()

		verbose, _ := cmd.Flags().GetBool("verbose")
		if !verbose {
			_, err := fmt.Fprintln(out, info.String())
			return err
		}
		return render(out, outputFormat(cmd), info, func() error {
			fmt.Fprintf(out, "Version:    %s\n", info.Version)
			fmt.Fprintf(out, "Git Commit: %s\n", info.GitCommit)
			fmt.Fprintf(out, "Built:      %s\n", info.BuildTime)
			fmt.Fprintf(out, "Go Version: %s\n", info.GoVersion)
			fmt.Fprintf(out, "Platform:   %s\n", info.Platform)
			return nil
		})
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "verbose version output")
	addOutputFlag(versionCmd)
}
