// Package app wires configuration, session storage, the API client and the
// interaction cache for CLI commands.
package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mediahub/internal/client/api"
	"mediahub/internal/client/session"
	"mediahub/internal/config"
	"mediahub/internal/interaction"
	"mediahub/pkg/logger"
	"mediahub/pkg/models"
)

// Viper keys shared by the root command's persistent flags
const (
	KeyConfig  = "config"
	KeyServer  = "server"
	KeySession = "session"
	KeyJSON    = "json"
	KeyVerbose = "verbose"
)

// Loader builds an App from flags, environment and the config file
type Loader struct {
	v *viper.Viper
}

// NewLoader wraps a viper instance the root command has bound its flags to
func NewLoader(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Config loads the config file and applies flag and environment overrides
func (l *Loader) Config() (*config.Config, error) {
	cfg, err := config.Load(l.v.GetString(KeyConfig))
	if err != nil {
		return nil, err
	}
	if url := strings.TrimSpace(l.v.GetString(KeyServer)); url != "" {
		cfg.Server.BaseURL = url
	}
	if path := strings.TrimSpace(l.v.GetString(KeySession)); path != "" {
		cfg.Session.Path = path
	}
	if l.v.GetBool(KeyVerbose) {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// ConfigPath is the file config commands read and write
func (l *Loader) ConfigPath() string {
	if p := l.v.GetString(KeyConfig); p != "" {
		return p
	}
	return config.DefaultPath()
}

// App is everything a command needs to talk to the backend
type App struct {
	Config  *config.Config
	Session *session.BoltStore
	Client  *api.Client
	Service *interaction.Service

	json bool
	out  io.Writer
}

// Open builds the App for cmd. Callers must Close it.
func (l *Loader) Open(cmd *cobra.Command) (*App, error) {
	cfg, err := l.Config()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Logging)

	store, err := session.OpenBolt(cfg.Session.Path)
	if err != nil {
		return nil, err
	}

	errOut := cmd.ErrOrStderr()
	client := api.NewClient(cfg.Server.BaseURL,
		api.WithTokenStore(store),
		api.WithLogger(logger.Component("api")),
		api.WithRequestTimeout(cfg.Client.RequestTimeout),
		api.WithRetry(cfg.Client.MaxAttempts, cfg.Client.BackoffInitial, cfg.Client.BackoffMax),
		api.WithRateLimit(cfg.Client.RequestsPerSecond, cfg.Client.Burst),
		api.WithTokenRefreshSkew(cfg.Client.TokenRefreshSkew),
		api.WithSessionExpiredHook(func() {
			fmt.Fprintln(errOut, "Session expired. Run 'mediahub auth login' to sign in again.")
		}),
	)

	svc := interaction.NewService(interaction.NewStore(), client,
		interaction.WithGuardWindow(cfg.Cache.GuardWindow),
		interaction.WithCommentPageSize(cfg.Cache.CommentPageSize),
		interaction.WithLogger(logger.Component("interaction")),
	)

	return &App{
		Config:  cfg,
		Session: store,
		Client:  client,
		Service: svc,
		json:    l.v.GetBool(KeyJSON),
		out:     cmd.OutOrStdout(),
	}, nil
}

// Close releases the session database
func (a *App) Close() error {
	return a.Session.Close()
}

// Print writes v as indented JSON when --json is set, otherwise calls text
func (a *App) Print(v interface{}, text func(w io.Writer)) error {
	if a.json {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(a.out)
	return nil
}

// ParseKey turns a "{type}:{id}" or bare id argument into a content key.
// typeFlag fills in the type of a bare id.
func ParseKey(arg, typeFlag string) (models.ContentKey, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return models.ContentKey{}, fmt.Errorf("%w: content id is required", models.ErrInvalidInput)
	}

	key := models.ParseContentKey(arg)
	if !key.IsCanonical() && typeFlag != "" {
		key.Type = models.ContentType(typeFlag)
	}
	if key.Type != "" {
		t, ok := models.ParseContentType(string(key.Type))
		if !ok {
			return models.ContentKey{}, fmt.Errorf("%w: unknown content type %q", models.ErrInvalidInput, key.Type)
		}
		key.Type = t
	}
	if key.ID == "" {
		return models.ContentKey{}, fmt.Errorf("%w: content id is required", models.ErrInvalidInput)
	}
	return key, nil
}

// TokenExpiry reads the exp claim of a JWT without verifying it
func TokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
