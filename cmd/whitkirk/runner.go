package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"

	"whitkirk-services/internal/airtable"
	"whitkirk-services/internal/cache"
	"whitkirk-services/internal/config"
	"whitkirk-services/internal/service"
	"whitkirk-services/internal/store"
	"whitkirk-services/internal/tasks"
	"whitkirk-services/internal/thumbnail"
	"whitkirk-services/internal/wordpress"
	"whitkirk-services/internal/youtube"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *config.Config
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	getenv     func(string) string
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *config.Config
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	Getenv     func(string) string
}

// NewRunner creates a new Runner. A nil Config is loaded by Setup.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = config.NewLogger(nil, false)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	return &Runner{
		config:     opts.Config,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		getenv:     opts.Getenv,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		oosCommand, podcastsCommand, thumbnailsCommand, youtubeCommand, listCommand, authCommand, ledgerCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Setup loads the configuration named by --config and applies the environment.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		r.logger.SetLevel(log.DebugLevel)
	}
	if r.config != nil {
		return ctx, nil
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	if err := cfg.ApplyEnv(r.getenv); err != nil {
		return ctx, err
	}
	r.config = cfg
	return ctx, nil
}

func (r *Runner) engine() (*service.Engine, error) {
	return service.NewEngine(service.Settings{
		Overrides:         r.config.Overrides(),
		DefaultPlaylistID: r.config.YouTube.DefaultPlaylistID,
		ThumbnailDir:      r.config.Paths.DefaultThumbnailDir,
		ServiceImageDir:   r.config.Paths.ServiceImageDir,
		BaseID:            r.config.Airtable.BaseID,
		TableID:           r.config.Airtable.ServicesTableID,
	})
}

func (r *Runner) records() (*airtable.Client, error) {
	if err := r.config.ValidateAirtable(); err != nil {
		return nil, err
	}
	return airtable.NewClient(airtable.Options{
		APIKey:            r.config.Airtable.APIKey,
		BaseID:            r.config.Airtable.BaseID,
		TableID:           r.config.Airtable.ServicesTableID,
		HTTPClient:        r.httpClient,
		RequestsPerSecond: r.config.Airtable.RequestsPerSecond,
		Logger:            r.logger,
	}), nil
}

func (r *Runner) cms() (*wordpress.Client, error) {
	if err := r.config.ValidateWordPress(); err != nil {
		return nil, err
	}
	return wordpress.NewClient(wordpress.Options{
		BaseURL:           r.config.WordPress.BaseURL,
		User:              r.config.WordPress.User,
		Password:          r.config.WordPress.ApplicationPassword,
		HTTPClient:        r.httpClient,
		RequestsPerSecond: r.config.WordPress.RequestsPerSecond,
		Logger:            r.logger,
	}), nil
}

// secrets opens the store holding OAuth credentials: GCS when a bucket is
// configured, otherwise a local directory.
func (r *Runner) secrets(ctx context.Context) (store.Store, func() error, error) {
	if bucket := r.config.Storage.GCSBucket; bucket != "" {
		s, err := store.NewGCS(ctx, bucket, r.config.Storage.GCSPrefix)
		if err != nil {
			return nil, nil, err
		}
		r.logger.Debug("secret store", "gcs_bucket", bucket)
		return s, s.Close, nil
	}
	s, err := store.NewLocal(r.config.Storage.LocalDir)
	if err != nil {
		return nil, nil, err
	}
	r.logger.Debug("secret store", "dir", r.config.Storage.LocalDir)
	return s, func() error { return nil }, nil
}

// videos builds an authorised YouTube client and a playlist index backed by
// the disk cache.
func (r *Runner) videos(ctx context.Context) (*youtube.Client, *youtube.PlaylistIndex, func() error, error) {
	if err := r.config.ValidateYouTube(); err != nil {
		return nil, nil, nil, err
	}
	secrets, closeSecrets, err := r.secrets(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	fail := func(err error) (*youtube.Client, *youtube.PlaylistIndex, func() error, error) {
		closeSecrets()
		return nil, nil, nil, err
	}

	oauthConfig, err := youtube.LoadOAuthConfig(ctx, secrets)
	if err != nil {
		return fail(err)
	}
	tok, err := youtube.LoadToken(ctx, secrets)
	if err != nil {
		return fail(fmt.Errorf("%w: run `whitkirk auth` first", err))
	}

	client, err := youtube.NewClient(ctx, r.logger,
		option.WithTokenSource(youtube.TokenSource(ctx, oauthConfig, secrets, tok)))
	if err != nil {
		return fail(err)
	}

	disk, err := cache.New[[]string](filepath.Join(r.config.Paths.CacheDir, "playlists"), r.config.YouTube.PlaylistCacheTTL)
	if err != nil {
		return fail(err)
	}
	return client, youtube.NewPlaylistIndex(client, disk), closeSecrets, nil
}

func (r *Runner) thumbnails() *thumbnail.Generator {
	return &thumbnail.Generator{
		Dir:      r.config.Paths.GeneratedThumbnailDir,
		Renderer: thumbnail.ChromeRenderer{ExecPath: r.config.Chrome.ExecPath},
	}
}

// tasksRunner builds the batch runner around the given collaborators.
func (r *Runner) tasksRunner(records tasks.Records) (*tasks.Runner, error) {
	engine, err := r.engine()
	if err != nil {
		return nil, err
	}
	return &tasks.Runner{
		Engine:                 engine,
		Records:                records,
		Downloader:             service.HTTPDownloader{Client: r.httpClient},
		Logger:                 r.logger,
		DefaultFeaturedImageID: r.config.WordPress.DefaultFeaturedImageID,
	}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
