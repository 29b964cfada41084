package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/tocsplit/internal/config"
	"github.com/dgallion1/tocsplit/internal/doctree"
	"github.com/dgallion1/tocsplit/internal/extract"
	"github.com/dgallion1/tocsplit/internal/pageindex"
	"github.com/dgallion1/tocsplit/internal/render"
	"github.com/dgallion1/tocsplit/internal/toc"
)

// Options configures every stage of a conversion.
type Options struct {
	PDF     pageindex.Options
	TOC     toc.Options
	Extract extract.Options

	// Defaults applied when a request leaves them unset.
	PageOffset *int
	Password   string
}

// OptionsFromConfig maps service configuration and heuristics onto stage
// options.
func OptionsFromConfig(cfg config.Config, h config.Heuristics) Options {
	return Options{
		PDF: pageindex.Options{
			Layout: pageindex.LayoutOptions{
				RowTolerance: h.RowTolerance,
				ColumnGap:    h.ColumnGap,
			},
			FallbackPdftotext: cfg.PDFFallbackPdftotext,
		},
		TOC: toc.Options{
			ScanPages:    h.TOCScanPages,
			MatchRatio:   h.TOCMatchRatio,
			MinEntries:   h.TOCMinEntries,
			IndentStep:   h.IndentStep,
			SkipCaptions: h.SkipCaptionEntries,
		},
		Extract: extract.Options{
			BoilerplateRatio:    h.BoilerplateRatio,
			SamplePages:         h.BoilerplateSamplePages,
			MinPages:            h.BoilerplateMinPages,
			EdgeLines:           h.BoilerplateEdgeLines,
			Denylist:            h.BoilerplateDenylist,
			IncludeRootPreamble: h.IncludeRootPreamble,
		},
		PageOffset: cfg.PageOffset,
		Password:   cfg.PDFPassword,
	}
}

// Request is one document to convert.
type Request struct {
	Data       []byte
	Filename   string
	Password   string // empty: use the configured default
	PageOffset *int   // nil: use the configured default, else detect
}

// Result is a finished conversion. The JSON is complete; nothing is
// written to disk.
type Result struct {
	Filename string // <name>.json
	JSON     []byte
	Root     *doctree.SectionNode
	Progress Progress
	Warnings []doctree.AmbiguousSpanWarning
}

// ProgressFunc observes stage transitions. It may be nil.
type ProgressFunc func(JobStatus, Progress)

// Converter runs the PDF to JSON pipeline. Every call builds its own page
// index and tree; the Converter itself holds only configuration.
type Converter struct {
	opts Options
	pdf  *pageindex.Extractor
	log  *slog.Logger
}

func NewConverter(opts Options, log *slog.Logger) *Converter {
	return &Converter{
		opts: opts,
		pdf:  pageindex.NewExtractor(opts.PDF, log),
		log:  log,
	}
}

// Convert indexes the PDF and runs the remaining stages. The context is
// checked between stages; a cancelled conversion returns no output.
func (c *Converter) Convert(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(JobStatus, Progress) {}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	progress(StatusIndexing, Progress{})

	password := req.Password
	if password == "" {
		password = c.opts.Password
	}
	ix, err := c.pdf.Extract(req.Data, password)
	if err != nil {
		return nil, fmt.Errorf("index pdf: %w", err)
	}
	return c.ConvertIndex(ctx, ix, req, progress)
}

// ConvertIndex runs the pipeline on an existing page index.
func (c *Converter) ConvertIndex(ctx context.Context, ix *pageindex.Index, req Request, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(JobStatus, Progress) {}
	}
	log := c.log.With("filename", req.Filename)
	p := Progress{Pages: ix.NumPages()}
	log.Info("indexed pages", "pages", p.Pages)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	progress(StatusLocatingTOC, p)
	contents, err := toc.LocateAndParse(ix, c.opts.TOC)
	if err != nil {
		return nil, fmt.Errorf("locate toc: %w", err)
	}
	p.TOCPages = contents.Pages
	p.Entries = len(contents.Entries)
	log.Info("parsed table of contents", "toc_pages", contents.Pages, "entries", p.Entries)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	progress(StatusBuilding, p)
	root := doctree.Build(DocumentTitle(req.Filename), contents.Entries)
	offset := req.PageOffset
	if offset == nil {
		offset = c.opts.PageOffset
	}
	warnings := doctree.Resolve(root, ix, doctree.SpanOptions{
		BodyStart:  contents.LastPage() + 1,
		PageOffset: offset,
	})
	p.Nodes = root.Count()
	for _, w := range warnings {
		log.Warn("ambiguous span", "title", w.Title, "page", w.Page, "reason", w.Reason)
		p.Warnings = append(p.Warnings, w.Error())
	}
	log.Info("built section tree", "nodes", p.Nodes, "warnings", len(warnings))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	progress(StatusExtracting, p)
	ex, err := extract.New(ix, c.opts.Extract)
	if err != nil {
		return nil, fmt.Errorf("content extractor: %w", err)
	}
	ex.Fill(root)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	progress(StatusSerializing, p)
	data, err := render.JSON(root)
	if err != nil {
		return nil, err
	}
	log.Info("serialized document", "bytes", len(data))

	return &Result{
		Filename: OutputName(req.Filename),
		JSON:     data,
		Root:     root,
		Progress: p,
		Warnings: warnings,
	}, nil
}

// DocumentTitle is the root title: the upload name without directory or
// extension.
func DocumentTitle(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" {
		return "document"
	}
	if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" {
		return name
	}
	return "document"
}

// OutputName returns <original-name-without-ext>.json.
func OutputName(filename string) string {
	return DocumentTitle(filename) + ".json"
}
