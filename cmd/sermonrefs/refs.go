package main

import (
	"strings"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
	"github.com/FocuswithJustin/sermonrefs/core/extract"
	"github.com/FocuswithJustin/sermonrefs/core/scripture"
)

// RefsGroup contains reference operations.
type RefsGroup struct {
	Extract RefsExtractCmd `cmd:"" help:"Print the references found in text"`
	Parse   RefsParseCmd   `cmd:"" help:"Parse a single reference"`
	Wrap    RefsWrapCmd    `cmd:"" help:"Mark up each reference in text"`
}

// RefsExtractCmd prints references found in a file or stdin.
type RefsExtractCmd struct {
	Path  string `arg:"" optional:"" help:"Text file to scan (default stdin)"`
	JSON  bool   `help:"Print references as JSON"`
	Spans bool   `help:"Include byte offsets (implies --json)"`
}

func (c *RefsExtractCmd) Run(app *App) error {
	data, err := app.readInput(c.Path)
	if err != nil {
		return err
	}
	e := extract.New(app.canon)
	text := string(data)

	if c.Spans {
		matches := e.Annotate(text)
		if matches == nil {
			matches = []extract.Match{}
		}
		return app.printJSON(matches)
	}

	refs := e.Extract(text)
	if c.JSON {
		if refs == nil {
			refs = []scripture.Reference{}
		}
		return app.printJSON(refs)
	}
	for _, r := range refs {
		app.printf("%s\n", r.Reference)
	}
	return nil
}

// RefsParseCmd parses one reference string.
type RefsParseCmd struct {
	Reference []string `arg:"" help:"Reference, e.g. \"1 Cor 13:4-7\""`
	JSON      bool     `help:"Print the parsed reference as JSON"`
}

func (c *RefsParseCmd) Run(app *App) error {
	ref, err := app.canon.ParseReference(strings.Join(c.Reference, " "))
	if err != nil {
		return err
	}
	if c.JSON {
		return app.printJSON(ref)
	}
	app.printf("%s\n", ref.Reference)
	return nil
}

// RefsWrapCmd rewrites text with each reference marked up.
type RefsWrapCmd struct {
	Path     string `arg:"" optional:"" help:"Text file to rewrite (default stdin)"`
	Format   string `help:"Markup: html or markdown" enum:"html,markdown" default:"html"`
	LinkBase string `help:"Prefix for Markdown link targets"`
}

func (c *RefsWrapCmd) Run(app *App) error {
	data, err := app.readInput(c.Path)
	if err != nil {
		return err
	}
	e := extract.New(app.canon)

	var out string
	switch c.Format {
	case "html":
		out = e.WrapHTML(string(data))
	case "markdown":
		out = e.Wrap(string(data), extract.MarkdownLink(c.LinkBase))
	default:
		return errors.NewValidation("format", "must be html or markdown")
	}
	app.printf("%s", out)
	return nil
}
