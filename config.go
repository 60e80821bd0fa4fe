package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	avatarBackground string
	avatarRate       float64
	avatarStyle      string
	avatarTimeout    time.Duration
	avatarURL        string
	bind             string
	envFile          string
	noRemoteAvatars  bool
	port             int
	prefix           string
	profile          bool
	reconnectDelay   time.Duration
	secure           bool
	server           string
	tlsCert          string
	tlsKey           string
	username         string
	verbose          bool
	version          bool

	logger zerolog.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 0 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 0-65535 inclusive): %d", c.port)
	}
	if strings.TrimSpace(c.server) == "" {
		return errors.New("--server must not be empty")
	}
	if strings.Contains(c.server, "/") {
		return fmt.Errorf("invalid server (expected host[:port]): %q", c.server)
	}
	if c.reconnectDelay <= 0 {
		return fmt.Errorf("invalid reconnect delay (must be positive): %s", c.reconnectDelay)
	}
	if c.avatarRate <= 0 {
		return fmt.Errorf("invalid avatar rate (must be positive): %v", c.avatarRate)
	}
	if c.avatarTimeout <= 0 {
		return fmt.Errorf("invalid avatar timeout (must be positive): %s", c.avatarTimeout)
	}
	u, err := url.Parse(c.avatarURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid avatar url: %q", c.avatarURL)
	}
	return nil
}

// scheme is the scheme of the local view server.
func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// lobbyScheme mirrors the lobby page's own scheme onto the websocket.
func (c *Config) lobbyScheme() (page, socket string) {
	if c.secure {
		return "https", "wss"
	}
	return "http", "ws"
}

// applyEnv copies environment values onto every flag the user did not set.
func applyEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LOBBYBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "lobbybox",
		Short:         "A headless lobby client with a live player roster.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.envFile == "" {
				return nil
			}
			if err := godotenv.Load(cfg.envFile); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}
			applyEnv(v, cmd.Flags())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			cfg.logger = newLogger(cmd.ErrOrStderr(), cfg.verbose)
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.avatarBackground, "avatar-background", defaultAvatarBackground, "comma-separated hex background colors for remote avatars (env: LOBBYBOX_AVATAR_BACKGROUND)")
	fs.Float64Var(&cfg.avatarRate, "avatar-rate", 5, "maximum remote avatar requests per second (env: LOBBYBOX_AVATAR_RATE)")
	fs.StringVar(&cfg.avatarStyle, "avatar-style", defaultAvatarStyle, "remote avatar style (env: LOBBYBOX_AVATAR_STYLE)")
	fs.DurationVar(&cfg.avatarTimeout, "avatar-timeout", timeout, "timeout for a single remote avatar request (env: LOBBYBOX_AVATAR_TIMEOUT)")
	fs.StringVar(&cfg.avatarURL, "avatar-url", defaultAvatarURL, "base url of the remote avatar service (env: LOBBYBOX_AVATAR_URL)")
	fs.StringVarP(&cfg.bind, "bind", "b", "127.0.0.1", "address to bind the view server to (env: LOBBYBOX_BIND)")
	fs.StringVar(&cfg.envFile, "env-file", "", "load environment variables from this file (env: LOBBYBOX_ENV_FILE)")
	fs.BoolVar(&cfg.noRemoteAvatars, "no-remote-avatars", false, "only use locally rendered avatars (env: LOBBYBOX_NO_REMOTE_AVATARS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port for the view server, 0 to disable (env: LOBBYBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all view server URLs, for use behind reverse proxy (env: LOBBYBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: LOBBYBOX_PROFILE)")
	fs.DurationVar(&cfg.reconnectDelay, "reconnect-delay", defaultReconnectDelay, "delay before reconnecting after a disconnect (env: LOBBYBOX_RECONNECT_DELAY)")
	fs.BoolVar(&cfg.secure, "secure", false, "connect to the lobby over wss (env: LOBBYBOX_SECURE)")
	fs.StringVarP(&cfg.server, "server", "s", "localhost:80", "lobby server host[:port] (env: LOBBYBOX_SERVER)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate for the view server (env: LOBBYBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile for the view server (env: LOBBYBOX_TLS_KEY)")
	fs.StringVarP(&cfg.username, "username", "u", "", "display name to use instead of a generated one (env: LOBBYBOX_USERNAME)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: LOBBYBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: LOBBYBOX_VERSION)")

	applyEnv(v, fs)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("lobbybox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
