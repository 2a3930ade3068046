package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"vidstudio/internal/config"
	"vidstudio/internal/history"
	"vidstudio/internal/logging"
	"vidstudio/internal/session"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
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
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger. Console format only makes sense
// on a terminal; piped output falls back to JSON lines.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		if cfg.Logging.Format == "console" && !isTerminal(os.Stdout) {
			adjusted := *cfg
			adjusted.Logging.Format = "json"
			cfg = &adjusted
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// openRegistry builds a registry over the on-disk session tree and restores
// it. Pass withJournal for commands that record operations.
func (c *commandContext) openRegistry(withJournal bool) (*session.Registry, *history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	var journal *history.Store
	if withJournal {
		journal, err = history.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
	}
	registry := session.NewRegistry(cfg, journal, logger)
	if _, err := registry.RestoreAll(); err != nil {
		if journal != nil {
			_ = journal.Close()
		}
		return nil, nil, err
	}
	return registry, journal, nil
}
