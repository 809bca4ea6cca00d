// Package models abstracts the inference backend that turns client evidence
// into analysis documents and answers conversational questions about them.
package models

import (
	"context"
	"encoding/json"
)

// File is one uploaded evidence file.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// AnalyzeRequest is one analysis submission. When ExistingData is non-empty
// the provider merges the new evidence into that prior analysis instead of
// starting fresh.
type AnalyzeRequest struct {
	Files        []File
	Transcript   string
	ExistingData []byte
}

// ChatRequest is one conversational turn about a client.
type ChatRequest struct {
	// ProfileData is the analysis document the conversation is scoped to,
	// either loaded from storage or supplied inline by the client.
	ProfileData []byte
	Message     string
	// Model is the display identifier selected in the client; providers map
	// it to a concrete model of their own.
	Model string
}

// Provider produces analysis documents and chat replies.
type Provider interface {
	// Analyze runs the multimodal analysis and returns the document as
	// strict JSON.
	Analyze(ctx context.Context, req AnalyzeRequest) (json.RawMessage, error)

	// Chat answers one question scoped to a client's analysis.
	Chat(ctx context.Context, req ChatRequest) (string, error)
}
