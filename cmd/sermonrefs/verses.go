package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
	"github.com/FocuswithJustin/sermonrefs/core/extract"
	"github.com/FocuswithJustin/sermonrefs/core/merge"
	"github.com/FocuswithJustin/sermonrefs/core/scripture"
	"github.com/FocuswithJustin/sermonrefs/internal/importer"
	"github.com/FocuswithJustin/sermonrefs/internal/resolver"
	"github.com/FocuswithJustin/sermonrefs/internal/validation"
)

// VersesGroup contains verse list and verse store operations.
type VersesGroup struct {
	Merge   VersesMergeCmd   `cmd:"" help:"Merge a JSON array of verses into ranges"`
	Import  VersesImportCmd  `cmd:"" help:"Import a Bible text into the verse store"`
	Resolve VersesResolveCmd `cmd:"" help:"Extract references from text and print their verses"`
	Dedupe  VersesDedupeCmd  `cmd:"" help:"Remove duplicate verses from the store"`
	Export  VersesExportCmd  `cmd:"" help:"Write the verse store to a compressed archive"`
	Restore VersesRestoreCmd `cmd:"" help:"Load verses from a compressed archive"`
}

// order resolves an --order flag, falling back to the configured order.
func (a *App) order(name string) (merge.Order, error) {
	if strings.TrimSpace(name) == "" {
		return a.cfg.Order(), nil
	}
	return merge.ParseOrder(name)
}

// VersesMergeCmd merges verse records read from JSON.
type VersesMergeCmd struct {
	Path  string `arg:"" optional:"" help:"JSON file holding an array of verses (default stdin)"`
	Order string `help:"Output order: canonical, lexical or preserve"`
}

func (c *VersesMergeCmd) Run(app *App) error {
	data, err := app.readInput(c.Path)
	if err != nil {
		return err
	}
	var verses []scripture.Verse
	if err := json.Unmarshal(data, &verses); err != nil {
		return &errors.ParseError{Format: "json", Path: c.Path, Message: err.Error(), Err: err}
	}
	order, err := app.order(c.Order)
	if err != nil {
		return err
	}

	merged := merge.Merge(verses, merge.WithOrder(order), merge.WithCanon(app.canon))
	if merged == nil {
		merged = []scripture.Verse{}
	}
	return app.printJSON(merged)
}

// VersesImportCmd imports a Bible text into the store.
type VersesImportCmd struct {
	Format      string `arg:"" help:"Input format: lines, osis, zefania or auto" enum:"auto,lines,osis,zefania"`
	Path        string `arg:"" help:"File to import (- for stdin)"`
	Translation string `short:"t" help:"Translation name (default: from the document, then the configured translation)"`
}

func (c *VersesImportCmd) Run(app *App) error {
	name := c.Format
	if name == "auto" {
		name = ""
	}
	format, err := importer.ParseFormat(name)
	if err != nil {
		return err
	}
	data, err := app.readInput(c.Path)
	if err != nil {
		return err
	}

	res, err := importer.New(app.canon).Import(app.ctx, format, bytes.NewReader(data), c.Translation)
	if err != nil {
		return err
	}
	if res.Translation == "" {
		res.Translation = app.cfg.Translation
	}

	s, err := app.Store()
	if err != nil {
		return err
	}
	n, err := s.Put(app.ctx, res.Translation, res.Verses)
	if err != nil {
		return err
	}
	app.printf("Imported %d of %d verses into %s (%s, %d skipped)\n",
		n, len(res.Verses), res.Translation, res.Format, res.Skipped)
	return nil
}

// VersesResolveCmd extracts references and prints their stored verses.
type VersesResolveCmd struct {
	Path        string `arg:"" optional:"" help:"Text file to scan (default stdin)"`
	Translation string `short:"t" help:"Translation to look up (default: configured translation)"`
	Order       string `help:"Output order: canonical, lexical or preserve"`
	JSON        bool   `help:"Print the full result as JSON"`
}

func (c *VersesResolveCmd) Run(app *App) error {
	data, err := app.readInput(c.Path)
	if err != nil {
		return err
	}
	order, err := app.order(c.Order)
	if err != nil {
		return err
	}
	translation := c.Translation
	if translation == "" {
		translation = app.cfg.Translation
	}
	s, err := app.Store()
	if err != nil {
		return err
	}

	res, err := resolver.New(s,
		resolver.WithExtractor(extract.New(app.canon)),
		resolver.WithMergeOptions(merge.WithOrder(order), merge.WithCanon(app.canon)),
	).Resolve(app.ctx, string(data), translation)
	if err != nil {
		return err
	}

	if c.JSON {
		return app.printJSON(res)
	}
	for _, v := range res.Verses {
		app.printf("%s (%s)\n  %s\n", v.Reference, v.Translation, v.Text)
	}
	for _, ref := range res.Missing {
		app.printf("not found: %s\n", ref.Reference)
	}
	return nil
}

// VersesDedupeCmd removes duplicate rows by content hash.
type VersesDedupeCmd struct{}

func (c *VersesDedupeCmd) Run(app *App) error {
	s, err := app.Store()
	if err != nil {
		return err
	}
	n, err := s.Dedupe(app.ctx)
	if err != nil {
		return err
	}
	app.printf("Removed %d duplicate verses\n", n)
	return nil
}

// VersesExportCmd writes the store to an archive.
type VersesExportCmd struct {
	Out string `arg:"" help:"Archive to write (e.g. verses.tar.xz)" type:"path"`
}

func (c *VersesExportCmd) Run(app *App) error {
	if err := validation.ValidatePath(c.Out); err != nil {
		return err
	}
	s, err := app.Store()
	if err != nil {
		return err
	}
	f, err := os.Create(c.Out)
	if err != nil {
		return errors.NewIO("create", c.Out, err)
	}
	n, err := s.Export(app.ctx, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.NewIO("close", c.Out, cerr)
	}
	if err != nil {
		os.Remove(c.Out)
		return err
	}
	app.printf("Exported %d verses to %s\n", n, c.Out)
	return nil
}

// VersesRestoreCmd loads an archive written by export.
type VersesRestoreCmd struct {
	Path string `arg:"" help:"Archive to read" type:"existingfile"`
}

func (c *VersesRestoreCmd) Run(app *App) error {
	s, err := app.Store()
	if err != nil {
		return err
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return errors.NewIO("open", c.Path, err)
	}
	defer f.Close()

	n, err := s.Restore(app.ctx, f)
	if err != nil {
		return err
	}
	app.printf("Restored %d verses from %s\n", n, c.Path)
	return nil
}
