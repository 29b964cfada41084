package api

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/dgallion1/tocsplit/internal/render"
)

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>tocsplit</title>
</head>
<body>
<h1>Split a PDF by its table of contents</h1>
<form action="/upload" method="post" enctype="multipart/form-data">
<p><input type="file" name="pdf_file" accept=".pdf,application/pdf" required></p>
<p><label>Password <input type="password" name="password" autocomplete="off"></label></p>
<p><label>Page offset <input type="number" name="page_offset"></label></p>
<p><button type="submit">Convert</button></p>
</form>
<p>Uploads are limited to {{.MaxMB}} MB.</p>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTmpl.Execute(w, struct{ MaxMB int64 }{MaxMB: s.cfg.MaxUploadBytes >> 20})
	if err != nil {
		s.log.Error("render index", "error", err)
	}
}

// handleUpload backs the form on the index page.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	s.convert(w, r, "pdf_file")
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	s.convert(w, r, "file")
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request, field string) {
	up, ok := s.readUpload(w, r, field)
	if !ok {
		return
	}
	res, err := s.orchestrator.Convert(r.Context(), up.request())
	if err != nil {
		s.conversionError(w, up.Filename, err)
		return
	}
	w.Header().Set("X-Span-Warnings", strconv.Itoa(len(res.Warnings)))
	writeAttachment(w, res.Filename, res.JSON)
}

// handlePreview renders the converted tree as a sanitized HTML page.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r, "file")
	if !ok {
		return
	}
	res, err := s.orchestrator.Convert(r.Context(), up.request())
	if err != nil {
		s.conversionError(w, up.Filename, err)
		return
	}
	page, err := s.html.Page(render.FromTree(res.Root))
	if err != nil {
		s.log.Error("render preview", "filename", up.Filename, "error", err)
		jsonError(w, "failed to render preview", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Span-Warnings", strconv.Itoa(len(res.Warnings)))
	w.Write(page)
}
