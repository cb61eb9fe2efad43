package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runShowConfig,
}

var initConfigCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	RunE:  runInitConfig,
}

func init() {
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(initConfigCmd)
	initConfigCmd.Flags().StringP("file", "f", "config.yaml", "path of the file to write")
	initConfigCmd.Flags().Bool("force", false, "overwrite an existing file")
}

func runShowConfig(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

const defaultConfig = `# Dockboard Configuration

server:
  host: 0.0.0.0
  port: 8080
  read_timeout: 30s
  write_timeout: 60s
  shutdown_timeout: 10s
  debug: false

storage:
  hosts_file: docker_hosts.json
  apps_db: data/self_hosted_apps.db

dashboard:
  base_url: ""
  enable_stats: false
  skip_initial_stats: true
  fast_initial_load: true
  env_sample_size: 10

engine:
  call_timeout: 5s
  pass_timeout: 15s
  detail_workers: 4
  test_timeout: 10s
  ssh:
    config_file: ""
    known_hosts_file: ""
    identity_file: ""
    insecure_ignore_host_key: false
    dial_timeout: 10s

logging:
  level: info
  format: text

security:
  rate_limit: 100
  allowed_origins:
    - "*"
`

func runInitConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	force, _ := cmd.Flags().GetBool("force")

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", path)
	return nil
}
