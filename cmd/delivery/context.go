package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"delivery/internal/config"
	"delivery/internal/media"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// resolution parses the flag value, falling back to the configured policy.
func (c *commandContext) resolution(flag string) (media.Resolution, error) {
	value := strings.TrimSpace(flag)
	if value == "" && c.config != nil {
		value = c.config.Encoding.Resolution
	}
	policy, err := media.ParseResolution(value)
	if err != nil {
		return media.Resolution{}, fmt.Errorf("--resolution: %w", err)
	}
	return policy, nil
}

// outputDir expands the flag value, falling back to the configured directory.
func (c *commandContext) outputDir(flag string) (string, error) {
	value := strings.TrimSpace(flag)
	if value == "" {
		if c.config == nil {
			return "", fmt.Errorf("output directory not set")
		}
		return c.config.Paths.OutputDir, nil
	}
	return config.ExpandPath(value)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func passFail(value bool) string {
	if value {
		return "ok"
	}
	return "FAIL"
}
