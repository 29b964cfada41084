package api

import (
	"fmt"
	"net/http"

	"github.com/dgallion1/tocsplit/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r, "file")
	if !ok {
		return
	}

	job := pipeline.NewJob(up.Filename, up.Data, up.Password, up.PageOffset)
	if err := s.orchestrator.Submit(job); err != nil {
		s.conversionError(w, up.Filename, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":     job.ID,
		"status":     pipeline.StatusQueued,
		"poll_url":   fmt.Sprintf("/api/jobs/%s", job.ID),
		"result_url": fmt.Sprintf("/api/jobs/%s/result", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleJobResult hands out the JSON exactly once.
func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	name, data, ok, gone := job.TakeResult()
	switch {
	case ok:
		writeAttachment(w, name, data)
	case gone:
		jsonError(w, "result already downloaded", http.StatusGone)
	default:
		snap := job.Snapshot()
		if snap.Status == pipeline.StatusFailed {
			jsonError(w, "job failed in phase "+snap.Phase, http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, "result not ready: "+string(snap.Status), http.StatusConflict)
	}
}
