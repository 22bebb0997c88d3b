package main

import (
	"github.com/FocuswithJustin/sermonrefs/core/sqlite"
	"github.com/FocuswithJustin/sermonrefs/internal/api"
)

// BooksCmd lists books in canonical order.
type BooksCmd struct {
	Extra bool `help:"Include deuterocanonical and other extra-canonical books"`
	JSON  bool `help:"Print books as JSON"`
}

func (c *BooksCmd) Run(app *App) error {
	var books []api.BookInfo
	for i, b := range app.canon.Books() {
		if b.Canonical || c.Extra {
			books = append(books, api.BookInfo{Book: b, Order: i})
		}
	}
	if c.JSON {
		return app.printJSON(books)
	}

	app.printf("%-5s %-24s %-10s %s\n", "ORDER", "NAME", "ABBREV", "OSIS")
	for _, b := range books {
		app.printf("%-5d %-24s %-10s %s\n", b.Order+1, b.Name, b.Abbrev, b.OSIS)
	}
	return nil
}

// ServeCmd starts the API server.
type ServeCmd struct {
	Port int `help:"HTTP server port (default from config, 8080)"`
}

func (c *ServeCmd) Run(app *App) error {
	port := app.cfg.Port
	if c.Port > 0 {
		port = c.Port
	}

	s, err := app.Store()
	if err != nil {
		return err
	}
	srv := api.New(api.Config{
		Port:              port,
		Translation:       app.cfg.Translation,
		MergeOrder:        app.cfg.Order(),
		RateLimitRequests: app.cfg.RateLimit.RequestsPerMinute,
		RateLimitBurst:    app.cfg.RateLimit.Burst,
		AllowedOrigins:    app.cfg.AllowedOrigins,
		Version:           version,
	}, s)
	return srv.ListenAndServe(app.ctx)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	app.printf("sermonrefs version %s (sqlite driver %s)\n", version, sqlite.DriverName())
	return nil
}
