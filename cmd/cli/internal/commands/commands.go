package commands

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/horizonetudes/authclient/internal/api"
	"github.com/horizonetudes/authclient/internal/logger"
	"github.com/horizonetudes/authclient/internal/session"
	"github.com/horizonetudes/authclient/internal/store"
)

type Globals struct {
	Debug   bool
	Version string
}

// fileConfig is the optional YAML client configuration.
type fileConfig struct {
	Server  string `yaml:"server"`
	Timeout int    `yaml:"timeout"`
	Debug   bool   `yaml:"debug"`
}

// connectionFlags is embedded by every command that talks to the API.
type connectionFlags struct {
	Server   string `help:"Account API server URL" default:"https://api.horizon-etudes.com" env:"HORIZON_SERVER"`
	Config   string `help:"YAML client config file path" type:"path"`
	StateDir string `help:"Directory for persisted session state" env:"HORIZON_STATE_DIR"`
}

// manager wires the client, the session store and the session manager from
// the flags plus the optional config file.
func (c *connectionFlags) manager(globals *Globals) (*session.Manager, error) {
	cfg := api.Config{
		ServerURL: c.Server,
		Timeout:   15 * time.Second,
		Debug:     globals.Debug,
	}

	if c.Config != "" {
		data, err := os.ReadFile(c.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if fc.Server != "" {
			cfg.ServerURL = fc.Server
		}
		if fc.Timeout > 0 {
			cfg.Timeout = time.Duration(fc.Timeout) * time.Second
		}
		if fc.Debug {
			cfg.Debug = true
		}
	}

	log := logger.Setup(globals.Debug || cfg.Debug)

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.NewStore(c.StateDir)
	if err != nil {
		return nil, err
	}

	mgr := session.NewManager(client, st, session.DefaultConfig(), log)
	mgr.OnSessionExpired(func(reason string) {
		fmt.Printf("Session ended (%s). Please log in again at %s\n", reason, session.LoginPath)
	})

	return mgr, nil
}
