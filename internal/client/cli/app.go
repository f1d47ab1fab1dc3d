package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/dmitrijs2005/feedbackkit/internal/client/client"
	"github.com/dmitrijs2005/feedbackkit/internal/client/config"
	"github.com/dmitrijs2005/feedbackkit/internal/client/datamanager"
	"github.com/dmitrijs2005/feedbackkit/internal/client/models"
	"github.com/dmitrijs2005/feedbackkit/internal/client/observers"
	"github.com/dmitrijs2005/feedbackkit/internal/client/services"
	"github.com/dmitrijs2005/feedbackkit/internal/client/storage"
	"github.com/dmitrijs2005/feedbackkit/internal/common"
	"github.com/dmitrijs2005/feedbackkit/internal/logging"
	"github.com/dmitrijs2005/feedbackkit/internal/netx"
)

var errRoadmapNotLoaded = errors.New("roadmap is not loaded, run 'tickets' first")

// App holds the wired client for one CLI session.
type App struct {
	cfg  *config.Config
	log  logging.Logger
	out  io.Writer
	auth services.AuthService
	api  services.FeedbackAPI

	changelog *observers.ChangelogObserver
	roadmap   *observers.RoadmapObserver

	// releases caches full release details for the session.
	releases *storage.Module[models.AppRelease]

	closers []func() error
}

// NewApp opens local storage under cfg.StorageDir and wires the auth
// service, resource server and feedback API on top of it. When
// cfg.AccessToken is empty the token is read from in.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger, in *bufio.Reader, out io.Writer) (*App, error) {
	if err := os.MkdirAll(cfg.StorageDir, 0o700); err != nil {
		return nil, common.FileSystem(cfg.StorageDir, err.Error())
	}

	keychain, err := storage.OpenSQLiteMedium(ctx, filepath.Join(cfg.StorageDir, "keychain.db"))
	if err != nil {
		return nil, err
	}
	closeAll := func() { _ = keychain.Close() }

	secrets, err := storage.NewFileSystemMedium(cfg.StorageDir, "secrets")
	if err != nil {
		closeAll()
		return nil, err
	}
	settings, err := storage.NewFileSystemMedium(cfg.StorageDir, "settings")
	if err != nil {
		closeAll()
		return nil, err
	}

	keys := storage.NewKeyStore(keychain, cfg.StoragePassphrase)
	dm := datamanager.New(storage.NewEncryptedFileSystemMedium(secrets, keys), settings, log)

	provider := func(ctx context.Context) (string, error) {
		if cfg.AccessToken != "" {
			return cfg.AccessToken, nil
		}
		return GetSecret(in, "Access token", out, int(os.Stdin.Fd()))
	}
	auth := services.NewAuthService(provider, dm, log)

	server, err := client.NewServer(client.ServerConfig{
		APIRoot:       cfg.APIRoot,
		TenantID:      cfg.TenantID,
		ApplicationID: cfg.ApplicationID,
		CacheTTL:      cfg.CacheTTL,
		Locale:        cfg.Locale,
		Debug:         cfg.Debug,
	}, netx.NewHTTPTransport(nil, cfg.RequestTimeout), auth,
		client.WithDeviceIdentity(dm),
		client.WithLogger(log),
	)
	if err != nil {
		closeAll()
		return nil, err
	}

	app, err := newApp(cfg, log, auth, services.NewFeedbackAPI(server, log), out)
	if err != nil {
		closeAll()
		return nil, err
	}
	app.closers = append(app.closers, keychain.Close)
	return app, nil
}

func newApp(cfg *config.Config, log logging.Logger, auth services.AuthService, api services.FeedbackAPI, out io.Writer) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}

	changelog, err := observers.NewChangelogObserver(api, nil,
		observers.WithPageSize(cfg.PageSize),
		observers.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		out:       out,
		auth:      auth,
		api:       api,
		changelog: changelog,
		releases:  storage.NewModule[models.AppRelease](storage.NewMemoryMedium(), "releases", storage.StoreSeparately(), storage.WithModuleLogger(log)),
	}, nil
}

// Close releases local storage.
func (a *App) Close() error {
	var errs []error
	for _, c := range slices.Backward(a.closers) {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) status() string {
	if a.roadmap == nil {
		return ""
	}
	return "(" + a.roadmap.Content().SelectedTab + ")"
}

// report prints err for the user and returns it.
func (a *App) report(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	a.log.Debug(ctx, "command failed", "error", err)

	msg := common.UserMessage(err)
	if common.KindOf(err) == common.KindSystem {
		msg = err.Error()
	}
	fmt.Fprintln(a.out, "Error:", msg)
	return err
}

func (a *App) Releases(ctx context.Context) error {
	if !a.changelog.LoadInitial(ctx) {
		a.log.Debug(ctx, "releases already loaded")
	}
	content := a.changelog.Content()
	if err := content.Releases.Err; err != nil {
		return a.report(ctx, err)
	}
	printReleases(a.out, content)
	return nil
}

func (a *App) More(ctx context.Context) error {
	st := a.changelog.Content().Releases
	if len(st.Items) == 0 {
		return a.Releases(ctx)
	}
	if !a.changelog.LoadMore(ctx, len(st.Items)-1) {
		fmt.Fprintln(a.out, "No more releases.")
		return nil
	}
	content := a.changelog.Content()
	if err := content.Releases.Err; err != nil {
		return a.report(ctx, err)
	}
	printReleases(a.out, content)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	a.changelog.Refresh(ctx)
	content := a.changelog.Content()
	if err := content.Releases.Err; err != nil {
		return a.report(ctx, err)
	}
	printReleases(a.out, content)
	return nil
}

// Release prints one release with its sections, fetching it once per
// session.
func (a *App) Release(ctx context.Context, id string) error {
	rel, ok := a.releases.Read(ctx, id)
	if !ok {
		var err error
		rel, err = a.changelog.Release(ctx, id)
		if err != nil {
			return a.report(ctx, err)
		}
		if err := a.releases.Write(ctx, id, rel); err != nil {
			a.log.Warn(ctx, "caching release failed", "release_id", id, "error", err)
		}
	}
	printRelease(a.out, rel)
	return nil
}

// Tickets prints the roadmap tickets for filter, or for the current tab
// when filter is empty.
func (a *App) Tickets(ctx context.Context, filter string) error {
	if a.roadmap == nil {
		roadmap, err := a.api.GetRoadmap(ctx)
		if err != nil {
			return a.report(ctx, err)
		}
		r, err := observers.NewRoadmapObserver(a.api, roadmap, filter, nil,
			observers.WithPageSize(a.cfg.PageSize),
			observers.WithLogger(a.log),
		)
		if err != nil {
			return a.report(ctx, err)
		}
		a.roadmap = r
		a.roadmap.LoadInitial(ctx)
	} else if filter != "" {
		if err := a.roadmap.SelectTab(ctx, filter); err != nil {
			return a.report(ctx, err)
		}
	}

	content := a.roadmap.Content()
	if err := content.Tickets.Err; err != nil {
		return a.report(ctx, err)
	}
	printTickets(a.out, content)
	return nil
}

func (a *App) Vote(ctx context.Context, id string) error {
	return a.setVote(ctx, id, true)
}

func (a *App) Unvote(ctx context.Context, id string) error {
	return a.setVote(ctx, id, false)
}

func (a *App) setVote(ctx context.Context, id string, voted bool) error {
	if a.roadmap == nil {
		return a.report(ctx, errRoadmapNotLoaded)
	}

	items := a.roadmap.Content().Tickets.Items
	i := slices.IndexFunc(items, func(t observers.TicketContent) bool { return t.ID == id })
	if i < 0 {
		return a.report(ctx, observers.ErrTicketNotFound)
	}
	if items[i].Voted == voted {
		fmt.Fprintln(a.out, "Nothing to change.")
		return nil
	}

	if err := a.roadmap.ToggleVote(ctx, id); err != nil {
		return a.report(ctx, err)
	}

	t := a.roadmap.Content().Tickets.Items[i]
	fmt.Fprintf(a.out, "%s: %d vote(s)\n", t.Title, t.VoteCount)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return a.report(ctx, err)
	}
	if err := a.releases.Clear(ctx); err != nil {
		a.log.Warn(ctx, "clearing release cache failed", "error", err)
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
