package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/tunnelz/tunnels/internal/infrastructure/config"
	"github.com/tunnelz/tunnels/internal/infrastructure/logging"
)

const defaultConfigPath = "configs/tunnels.yaml"

// commandContext loads configuration once per invocation.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newRootCommand() *cobra.Command {
	var configPath string
	ctx := &commandContext{configFlag: &configPath}

	root := &cobra.Command{
		Use:           "tunnels",
		Short:         "Tunnels show control",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $TUNNELS_CONFIG or "+defaultConfigPath+")")

	root.AddCommand(newRunCommand(ctx))
	root.AddCommand(newPortsCommand(ctx))
	root.AddCommand(newDevicesCommand(ctx))
	root.AddCommand(newPublishCommand(ctx))

	return root
}

// configPath resolves the flag, then TUNNELS_CONFIG, then the default.
// explicit reports whether the user named the file.
func (c *commandContext) configPath() (path string, explicit bool) {
	if c.configFlag != nil {
		if p := strings.TrimSpace(*c.configFlag); p != "" {
			return p, true
		}
	}
	if p := os.Getenv("TUNNELS_CONFIG"); p != "" {
		return p, true
	}
	return defaultConfigPath, false
}

// ensureConfig loads the config file. A missing default file yields the
// built-in defaults with environment overrides; a missing explicit file
// is an error.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path, explicit := c.configPath()
		cfg, err := config.LoadOrDefault(path, explicit)
		if err != nil {
			c.configErr = fmt.Errorf("loading config %s: %w", path, err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger builds a logger writing to stderr so stdout stays free for tables.
func (c *commandContext) logger(cfg *config.Config) *logging.Logger {
	return logging.NewWithWriter(cfg.Logging, version, os.Stderr)
}
