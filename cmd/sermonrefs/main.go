// Command sermonrefs extracts scripture references from text, merges verse
// lists, manages the local verse store and serves the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
	"github.com/FocuswithJustin/sermonrefs/core/scripture"
	"github.com/FocuswithJustin/sermonrefs/internal/config"
	"github.com/FocuswithJustin/sermonrefs/internal/store"
	"github.com/FocuswithJustin/sermonrefs/internal/validation"
)

const version = "0.1.0"

// Globals are the flags shared by every command. Set flags override the
// config file and environment.
type Globals struct {
	Config    string `help:"YAML config file" type:"path" env:"SERMONREFS_CONFIG"`
	DB        string `name:"db" help:"SQLite verse database (default sermonrefs.db)" type:"path"`
	LogLevel  string `help:"Log level: debug, info, warn, error"`
	LogFormat string `help:"Log format: json or text"`
}

// CLI defines the command-line interface for sermonrefs.
type CLI struct {
	Globals

	Refs    RefsGroup   `cmd:"" help:"Scripture reference operations (extract, parse, wrap)"`
	Verses  VersesGroup `cmd:"" help:"Verse operations (merge, import, resolve, dedupe, export, restore)"`
	Books   BooksCmd    `cmd:"" help:"List books in canonical order"`
	Serve   ServeCmd    `cmd:"" help:"Start the HTTP and WebSocket API server"`
	Version VersionCmd  `cmd:"" help:"Print version information"`
}

// App carries the resolved configuration and shared resources into
// command Run methods.
type App struct {
	ctx   context.Context
	cfg   config.Config
	in    io.Reader
	out   io.Writer
	canon *scripture.Canon
	store *store.Store
}

// newApp loads configuration, applies g on top and initialises logging.
func newApp(ctx context.Context, g Globals, in io.Reader, out io.Writer) (*App, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.DB != "" {
		cfg.Database = g.DB
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.LogFormat = g.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	cfg.InitLogging()

	return &App{
		ctx:   ctx,
		cfg:   cfg,
		in:    in,
		out:   out,
		canon: scripture.DefaultCanon(),
	}, nil
}

// Store opens the verse database on first use.
func (a *App) Store() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(a.ctx, a.cfg.Database)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

// Close releases the verse database if it was opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// readInput returns the text in path, or in standard input when path is
// empty or "-".
func (a *App) readInput(path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		path = "stdin"
		if data, err = io.ReadAll(a.in); err != nil {
			return nil, errors.NewIO("read", path, err)
		}
	} else {
		if err := validation.ValidatePath(path); err != nil {
			return nil, err
		}
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.NewIO("read", path, err)
		}
	}
	if err := validation.ValidateText(path, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("sermonrefs"),
		kong.Description("Scripture reference extraction and verse merging"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cli.Globals, os.Stdin, os.Stdout)
	kctx.FatalIfErrorf(err)

	err = kctx.Run(app)
	if cerr := app.Close(); err == nil {
		err = cerr
	}
	kctx.FatalIfErrorf(err)
}
