package cli

import (
	"bufio"
	"context"
	"database/sql"
	"os"

	"github.com/somtik/somtik-client/internal/client/backend"
	"github.com/somtik/somtik-client/internal/client/config"
	"github.com/somtik/somtik-client/internal/client/repositories/kvstore"
	"github.com/somtik/somtik-client/internal/client/services"
	"github.com/somtik/somtik-client/internal/client/session"
	"github.com/somtik/somtik-client/internal/logging"

	_ "modernc.org/sqlite"
)

// App wires configuration, local storage, the backend client, and the
// application services behind the interactive REPL.
type App struct {
	config   *config.Config
	db       *sql.DB
	client   backend.Client
	sessions *session.Store
	auth     services.AuthService
	profiles services.ProfileService
	logger   logging.Logger
	reader   *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()
	logger := logging.NewDefault()

	db, err := kvstore.Open(ctx, c.LocalDBPath)
	if err != nil {
		logger.Error(ctx, "failed to initialize local database", "error", err)
		return nil, err
	}

	kv := kvstore.NewSQLiteRepository(db)
	apiClient := backend.NewHTTPClient(c.APIBaseURL, c.APIKey, kv, logger)

	sessions, err := session.NewStore(apiClient, logger)
	if err != nil {
		_ = apiClient.Close()
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(apiClient, sessions, c.ResendCooldown, logger)
	ps := services.NewProfileService(apiClient, logger)

	return &App{
		config:   c,
		db:       db,
		client:   apiClient,
		sessions: sessions,
		auth:     as,
		profiles: ps,
		logger:   logger,
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

// Run restores any persisted session, bootstraps the profile for a restored
// user, and enters the REPL. It blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	if err := a.client.RestoreSession(ctx); err != nil {
		a.logger.Warn(ctx, "session restore failed, starting signed out", "error", err)
	}

	if sess := a.sessions.Current(); sess != nil {
		if _, err := a.profiles.EnsureProfile(ctx, sess); err != nil {
			a.logger.Warn(ctx, "profile bootstrap failed", "user_id", sess.UserID, "error", err)
		}
	}

	go a.StartResendCooldownWatcher(ctx)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

func (a *App) Close() {
	a.sessions.Close()
	if err := a.client.Close(); err != nil {
		a.logger.Warn(context.Background(), "failed to close backend client", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn(context.Background(), "failed to close local database", "error", err)
	}
}

func (a *App) state() services.State {
	return a.auth.State()
}

func (a *App) getStatus() string {
	if a.sessions.Loading() {
		return "loading"
	}
	switch a.auth.State() {
	case services.StateAuthenticated:
		if p := a.profiles.Current(); p != nil {
			return "@" + p.Username
		}
		if s := a.sessions.Current(); s != nil {
			return s.Email
		}
		return "signed in"
	case services.StatePendingVerification:
		return a.auth.PendingEmail() + " (unverified)"
	default:
		return "signed out"
	}
}
