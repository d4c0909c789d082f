package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mcoot/codebreak-go/internal/factory"
	"github.com/mcoot/codebreak-go/internal/supervisor"
)

type config struct {
	bind            string
	port            int
	storage         string
	redisURL        string
	graceTicks      int
	tickInterval    time.Duration
	dissolveOnLeave bool
	preserveChat    bool
	verbose         bool
}

func (c *config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.storage != factory.StorageTypeMemory && c.storage != factory.StorageTypeRedis {
		return fmt.Errorf("invalid storage type (must be %q or %q): %s",
			factory.StorageTypeMemory, factory.StorageTypeRedis, c.storage)
	}
	if c.storage == factory.StorageTypeRedis && c.redisURL == "" {
		return fmt.Errorf("--redis-url is required when --storage is %s", factory.StorageTypeRedis)
	}
	if c.graceTicks < 1 {
		return fmt.Errorf("invalid grace-ticks (must be positive): %d", c.graceTicks)
	}
	return nil
}

func newCmd(cfg *config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CODEBREAK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "codebreak-server",
		Short:         "Server for a two-player code-breaking deduction game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: CODEBREAK_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: CODEBREAK_PORT)")
	fs.StringVar(&cfg.storage, "storage", factory.StorageTypeMemory, "stats backend, memory or redis (env: CODEBREAK_STORAGE)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "redis connection URL for the stats backend (env: CODEBREAK_REDIS_URL)")
	fs.IntVar(&cfg.graceTicks, "grace-ticks", supervisor.DefaultTicks, "disconnect grace period in ticks (env: CODEBREAK_GRACE_TICKS)")
	fs.DurationVar(&cfg.tickInterval, "tick-interval", supervisor.DefaultInterval, "grace countdown tick interval (env: CODEBREAK_TICK_INTERVAL)")
	fs.BoolVar(&cfg.dissolveOnLeave, "dissolve-on-leave", true, "close the room when a player leaves mid-session (env: CODEBREAK_DISSOLVE_ON_LEAVE)")
	fs.BoolVar(&cfg.preserveChat, "preserve-chat", false, "keep chat history across rematches (env: CODEBREAK_PRESERVE_CHAT)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display debug output (env: CODEBREAK_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}
