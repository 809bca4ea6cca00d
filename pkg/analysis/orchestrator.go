package analysis

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/dashetica/wealthsync/pkg/api"
)

// ErrEmptySubmission is returned when neither files nor a transcript were
// provided. The upload surface normally prevents this before Submit runs.
var ErrEmptySubmission = errors.New("nothing to analyze: no files and no transcript")

// Result is a completed submission. Token identifies which issued request
// produced it; a caller applies the document only while the orchestrator
// still considers that token the latest, so responses that arrive after the
// user has moved on are discarded silently.
type Result struct {
	Doc   *Document
	Token uint64
}

// Orchestrator runs the analysis submission protocol: fresh analysis,
// augmentation of an existing profile, or transcript-only. A submission is
// all-or-nothing; partial per-file outcomes are never exposed.
type Orchestrator struct {
	client *api.Client
	seq    atomic.Uint64
	busy   atomic.Bool
}

// NewOrchestrator creates an orchestrator over the given API client.
func NewOrchestrator(client *api.Client) *Orchestrator {
	return &Orchestrator{client: client}
}

// Busy reports whether a submission is in flight. This is advisory only:
// starting a second submission is not guarded, the busy flag exists so the
// UI can discourage double-submission.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Latest reports whether token is the most recently issued submission token.
func (o *Orchestrator) Latest(token uint64) bool {
	return token == o.seq.Load()
}

// Submit sends files and/or a transcript for analysis. A non-nil
// targetProfileID marks the submission as an augmentation: the backend merges
// the new evidence into that profile's stored analysis and returns the merged
// document. Errors of every backend shape are normalized to a single message
// by the transport layer before they reach here.
func (o *Orchestrator) Submit(ctx context.Context, files []api.Attachment, transcript string, targetProfileID *int64) (Result, error) {
	token := o.seq.Add(1)

	if len(files) == 0 && transcript == "" {
		return Result{Token: token}, ErrEmptySubmission
	}

	o.busy.Store(true)
	defer o.busy.Store(false)

	slog.Info("Submitting analysis",
		"files", len(files),
		"transcriptLen", len(transcript),
		"augmenting", targetProfileID != nil)

	raw, err := o.client.Analyze(ctx, files, transcript, targetProfileID)
	if err != nil {
		return Result{Token: token}, err
	}

	doc, err := Parse(raw)
	if err != nil {
		return Result{Token: token}, err
	}

	slog.Info("Analysis complete", "client", doc.ClientName(), "token", token)
	return Result{Doc: doc, Token: token}, nil
}
