package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"recallhub/internal/commander"
	"recallhub/internal/config"
	"recallhub/internal/logging"
	"recallhub/internal/match"
	"recallhub/internal/recalls"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
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

// withStore opens the recall store for the duration of one command.
func (c *commandContext) withStore(fn func(*config.Config, *recalls.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := recalls.Open(cfg)
	if err != nil {
		return fmt.Errorf("open recall store: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

// newCommander assembles the lookup workflow over an open store.
func newCommander(cfg *config.Config, store *recalls.Store) *commander.Commander {
	engine := match.NewEngine(store, cfg, logging.NewNop())
	router := commander.NewRegistryRouter(logging.NewNop())
	router.Register(commander.CapabilityRecallLookup, commander.NewRecallLookupExecutor(engine))
	return commander.New(commander.NewBuiltinPlanner(), router, store, logging.NewNop())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
