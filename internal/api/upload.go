package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/tocsplit/internal/pageindex"
	"github.com/dgallion1/tocsplit/internal/pipeline"
	"github.com/dgallion1/tocsplit/internal/toc"
)

// upload is a validated multipart PDF submission.
type upload struct {
	Filename   string
	Data       []byte
	Password   string
	PageOffset *int
}

func (u upload) request() pipeline.Request {
	return pipeline.Request{
		Data:       u.Data,
		Filename:   u.Filename,
		Password:   u.Password,
		PageOffset: u.PageOffset,
	}
}

// readUpload parses a multipart form carrying a PDF under field. On failure
// it writes the error response and returns false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) (upload, bool) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("upload exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return upload{}, false
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(field)
	if err != nil {
		jsonError(w, field+" is required", http.StatusBadRequest)
		return upload{}, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		jsonError(w, fmt.Sprintf("unsupported file type %q: only .pdf files are accepted", filepath.Ext(filename)), http.StatusBadRequest)
		return upload{}, false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return upload{}, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return upload{}, false
	}
	if len(data) == 0 {
		jsonError(w, "file is empty", http.StatusBadRequest)
		return upload{}, false
	}

	u := upload{Filename: filename, Data: data, Password: r.FormValue("password")}
	if v := strings.TrimSpace(r.FormValue("page_offset")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "page_offset must be an integer", http.StatusBadRequest)
			return upload{}, false
		}
		u.PageOffset = &n
	}
	return u, true
}

// conversionStatus maps a pipeline error onto an HTTP status.
func conversionStatus(err error) int {
	switch {
	case errors.Is(err, pageindex.ErrUnreadable), errors.Is(err, toc.ErrNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrQueueFull), errors.Is(err, pipeline.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) conversionError(w http.ResponseWriter, filename string, err error) {
	code := conversionStatus(err)
	if code == http.StatusInternalServerError {
		s.log.Error("conversion failed", "filename", filename, "error", err)
	} else {
		s.log.Warn("conversion rejected", "filename", filename, "status", code, "error", err)
	}
	jsonError(w, err.Error(), code)
}

// writeAttachment sends data as a JSON file download.
func writeAttachment(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Browsers on Windows may send the full client path.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '"' {
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." || name == "/" {
		name = "unnamed"
	}
	return name
}
