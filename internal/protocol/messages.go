package protocol

import "time"

// Failure describes a per-document error for the presentation layer.
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NarrateRequest asks for one document to be narrated (request/reply).
// RatePct uses the UI scale 50-200 (100 = normal); VolumePct is 0-100.
type NarrateRequest struct {
	Title            string  `json:"title"`
	Text             string  `json:"text"`
	Voice            string  `json:"voice"`
	Style            string  `json:"style,omitempty"`
	RatePct          int     `json:"rate_pct"`
	VolumePct        int     `json:"volume_pct"`
	Background       []byte  `json:"background,omitempty"`
	BackgroundGainDB float64 `json:"background_gain_db,omitempty"`
}

// NarrateReply carries the packaged artifact or the failure.
type NarrateReply struct {
	Name  string   `json:"name,omitempty"`
	Audio []byte   `json:"audio,omitempty"`
	Error *Failure `json:"error,omitempty"`
}

// Document is one batch input: identifier plus decoded text.
type Document struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// BatchRequest runs a whole batch with shared settings (request/reply).
type BatchRequest struct {
	Documents        []Document `json:"documents"`
	Voice            string     `json:"voice"`
	Style            string     `json:"style,omitempty"`
	RatePct          int        `json:"rate_pct"`
	VolumePct        int        `json:"volume_pct"`
	Background       []byte     `json:"background,omitempty"`
	BackgroundGainDB float64    `json:"background_gain_db,omitempty"`
}

// BatchItemResult mirrors one batch.Result on the wire, in input order.
type BatchItemResult struct {
	Name  string   `json:"name"`
	File  string   `json:"file,omitempty"`
	Audio []byte   `json:"audio,omitempty"`
	Error *Failure `json:"error,omitempty"`
}

// BatchReply is the full ordered outcome of a batch run.
type BatchReply struct {
	RunID   string            `json:"run_id"`
	Results []BatchItemResult `json:"results"`
	Error   *Failure          `json:"error,omitempty"`
}

// BatchStatus is published per item as the run progresses.
type BatchStatus struct {
	RunID     string    `json:"run_id"`
	Name      string    `json:"name"`
	Completed bool      `json:"completed"`
	Error     *Failure  `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectNarrate     = "narra.narrate"
	SubjectBatch       = "narra.batch"
	SubjectBatchStatus = "narra.batch.status"
)
