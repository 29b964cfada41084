package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of a conversion job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusIndexing    JobStatus = "indexing"
	StatusLocatingTOC JobStatus = "locating_toc"
	StatusBuilding    JobStatus = "building_tree"
	StatusExtracting  JobStatus = "extracting"
	StatusSerializing JobStatus = "serializing"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
)

// Job tracks the state of a single asynchronous conversion.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData   []byte
	password   string
	pageOffset *int
	resultName string
	result     []byte
	downloaded bool
	errors     []string
}

// Progress reports what the pipeline has produced so far.
type Progress struct {
	Pages    int      `json:"pages"`
	TOCPages []int    `json:"toc_pages"`
	Entries  int      `json:"entries"`
	Nodes    int      `json:"nodes"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// NewJob creates a queued job for an uploaded PDF.
func NewJob(filename string, data []byte, password string, pageOffset *int) *Job {
	now := time.Now()
	return &Job{
		ID:          generateULID(),
		Status:      StatusQueued,
		Phase:       string(StatusQueued),
		Filename:    filename,
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
		password:    password,
		pageOffset:  pageOffset,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Fail marks the job failed, keeping the phase it failed in.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err.Error())
	j.Progress.Errors = j.errors
	j.Status = StatusFailed
	j.UpdatedAt = time.Now()
}

// SetProgress replaces the progress counters, keeping recorded errors.
func (j *Job) SetProgress(p Progress) {
	j.mu.Lock()
	defer j.mu.Unlock()
	p.Errors = j.errors
	j.Progress = p
	j.UpdatedAt = time.Now()
}

// Request returns the conversion input and clears the job's reference to
// the uploaded bytes.
func (j *Job) Request() Request {
	j.mu.Lock()
	defer j.mu.Unlock()
	req := Request{
		Data:       j.fileData,
		Filename:   j.Filename,
		Password:   j.password,
		PageOffset: j.pageOffset,
	}
	j.fileData = nil
	j.password = ""
	return req
}

// HasFileData reports whether the upload is still held in memory.
func (j *Job) HasFileData() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData != nil
}

// SetResult stores the finished JSON document.
func (j *Job) SetResult(name string, data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.resultName = name
	j.result = data
	j.UpdatedAt = time.Now()
}

// TakeResult hands out the finished document once. ok is false when the
// job has not completed; gone is true when it was already downloaded.
func (j *Job) TakeResult() (name string, data []byte, ok, gone bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.downloaded {
		return "", nil, false, true
	}
	if j.Status != StatusCompleted || j.result == nil {
		return "", nil, false, false
	}
	name, data = j.resultName, j.result
	j.result = nil
	j.downloaded = true
	j.UpdatedAt = time.Now()
	return name, data, true, false
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
	ResultReady bool      `json:"result_ready"`
	Downloaded  bool      `json:"downloaded"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	p := j.Progress
	p.TOCPages = append([]int{}, p.TOCPages...)
	p.Warnings = append([]string{}, p.Warnings...)
	p.Errors = append([]string{}, j.errors...)
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		ContentHash: j.ContentHash,
		Progress:    p,
		ResultReady: j.result != nil,
		Downloaded:  j.downloaded,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
