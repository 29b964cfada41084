package pageindex

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Options configures PDF text extraction.
type Options struct {
	Layout LayoutOptions

	// FallbackPdftotext retries with the pdftotext binary when the Go
	// reader cannot parse the file or finds no text.
	FallbackPdftotext bool
}

// Extractor turns raw PDF bytes into an Index. It holds no per-document
// state and is safe for concurrent use.
type Extractor struct {
	opts Options
	log  *slog.Logger
}

func NewExtractor(opts Options, log *slog.Logger) *Extractor {
	opts.Layout = opts.Layout.withDefaults()
	return &Extractor{opts: opts, log: log}
}

// Extract reads every page of the PDF. An empty password means none was
// supplied.
func (e *Extractor) Extract(data []byte, password string) (*Index, error) {
	reader, err := openReader(data, password)
	if err != nil {
		uerr := classifyOpenError(data, password, err)
		if !uerr.Encrypted && e.opts.FallbackPdftotext {
			if ix, ferr := e.extractPdftotext(data); ferr == nil && ix.TextLength() > 0 {
				e.log.Warn("go pdf reader failed, used pdftotext", "error", err)
				return ix, nil
			}
		}
		return nil, uerr
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, &UnreadableError{Reason: "document has no pages"}
	}

	pages := make([]PageText, 0, numPages)
	ambiguous := 0
	for i := 1; i <= numPages; i++ {
		pt := PageText{Number: i, Columns: 1}
		page := reader.Page(i)
		if !page.V.IsNull() {
			texts, err := pageGlyphs(page)
			if err != nil {
				e.log.Warn("page text extraction failed", "page", i, "error", err)
			} else {
				pt.Lines, pt.Columns = layoutLines(texts, e.opts.Layout)
			}
		}
		if pt.Columns == 0 {
			ambiguous++
		}
		pages = append(pages, pt)
	}
	if ambiguous > 0 {
		e.log.Warn("ambiguous multi-column layout, kept stream order", "pages", ambiguous)
	}

	ix := New(pages)
	if ix.TextLength() > 0 {
		return ix, nil
	}

	if e.opts.FallbackPdftotext {
		if fix, ferr := e.extractPdftotext(data); ferr == nil && fix.TextLength() > 0 {
			e.log.Warn("go pdf reader found no text, used pdftotext")
			return fix, nil
		}
	}
	reason := "no extractable text layer"
	if hasImageStreams(data) {
		reason = "no extractable text layer (scanned image pages)"
	}
	return nil, &UnreadableError{Reason: reason}
}

func openReader(data []byte, password string) (r *pdflib.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()
	var pw func() string
	if password != "" {
		tried := false
		pw = func() string {
			if tried {
				return ""
			}
			tried = true
			return password
		}
	}
	return pdflib.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), pw)
}

func pageGlyphs(page pdflib.Page) (texts []pdflib.Text, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			texts, err = nil, fmt.Errorf("content stream: %v", rec)
		}
	}()
	return page.Content().Text, nil
}

func classifyOpenError(data []byte, password string, err error) *UnreadableError {
	encrypted := errors.Is(err, pdflib.ErrInvalidPassword) || bytes.Contains(data, []byte("/Encrypt"))
	switch {
	case encrypted && password == "":
		return &UnreadableError{Reason: "encrypted document requires a password", Encrypted: true, Err: err}
	case encrypted:
		return &UnreadableError{Reason: "encrypted document could not be opened with the supplied password", Encrypted: true, Err: err}
	default:
		return &UnreadableError{Reason: "corrupt or unsupported pdf", Err: err}
	}
}

// extractPdftotext shells out to poppler's pdftotext. The temp file is
// removed before returning.
func (e *Extractor) extractPdftotext(data []byte) (*Index, error) {
	tmp, err := os.CreateTemp("", "tocsplit-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmpPath, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	pages := strings.Split(strings.TrimSuffix(string(out), "\f"), "\f")
	return FromText(pages...), nil
}
