// internal/config/config.go
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every flag name to form its environment variable.
const EnvPrefix = "TRIVIA"

// Config is the server configuration, filled from flags, TRIVIA_* env vars, and .env.
type Config struct {
	Bind          string
	Port          int
	GameRoot      string
	PublicURL     string
	AutoplayDelay time.Duration
	RedisAddr     string
	RedisDB       int
	RedisQueue    string
	DatabaseURL   string
	Verbose       bool
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.GameRoot == "" {
		return errors.New("--game-root must not be empty")
	}
	if c.AutoplayDelay < 0 {
		return fmt.Errorf("invalid autoplay delay: %s", c.AutoplayDelay)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("invalid redis db: %d", c.RedisDB)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	if strings.Contains(c.Bind, ":") {
		return fmt.Sprintf("[%s]:%d", c.Bind, c.Port)
	}
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// NewCommand builds the root command. run is called with the validated config.
func NewCommand(cfg *Config, version string, run func(ctx context.Context, cfg *Config) error) *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:     "trivia",
		Short:   "Live multi-role trivia game server.",
		Args:    cobra.ExactArgs(0),
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return run(ctx, cfg)
		},
	}

	fs := cmd.Flags()
	normalize(fs)

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: TRIVIA_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: TRIVIA_PORT)")
	fs.StringVar(&cfg.GameRoot, "game-root", "games", "directory holding <content-id>.json game files (env: TRIVIA_GAME_ROOT)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "externally reachable base URL for join links (env: TRIVIA_PUBLIC_URL)")
	fs.DurationVar(&cfg.AutoplayDelay, "autoplay-delay", 10*time.Second, "hostless buzzer open/close delay, 0 disables (env: TRIVIA_AUTOPLAY_DELAY)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "", "redis address for the action log, empty disables (env: TRIVIA_REDIS_ADDR)")
	fs.IntVar(&cfg.RedisDB, "redis-db", 0, "redis database index (env: TRIVIA_REDIS_DB)")
	fs.StringVar(&cfg.RedisQueue, "redis-queue", "trivia_actions", "redis list receiving action records (env: TRIVIA_REDIS_QUEUE)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "postgres URL for game results, empty disables (env: TRIVIA_DATABASE_URL)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display debug output (env: TRIVIA_VERBOSE)")

	bindEnv(v, fs)
	finish(cmd, "trivia")
	return cmd
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func normalize(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

// bindEnv fills every flag not given on the command line from its environment variable.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func finish(cmd *cobra.Command, name string) {
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate(name + " v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
}
