// Package gemini implements the inference provider on the Google Gemini API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/dashetica/wealthsync/pkg/models"
)

const (
	analyzeModel     = "gemini-3-flash-preview"
	defaultChatModel = "gemini-3-pro-preview"
)

// modelAliases maps the client's display identifiers to Gemini model names.
// Non-Gemini identifiers in the catalog fall back to the default chat model;
// the selector is a product surface, not a multi-provider router.
var modelAliases = map[string]string{
	"Gemini 3.1 Pro (Latest)": "gemini-3-pro-preview",
	"Gemini 3 Flash":          "gemini-3-flash-preview",
	"Gemini 2.5 Pro":          "gemini-2.5-pro",
	"Gemini 2.5 Flash":        "gemini-2.5-flash",
}

// Provider implements models.Provider using the Gemini API.
type Provider struct {
	client *genai.Client
}

// New creates a Gemini provider.
func New(ctx context.Context, apiKey string) (*Provider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Provider{client: client}, nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Analyze builds a multimodal prompt from the uploaded files, transcript,
// and any existing profile context, and asks the model for the strict-JSON
// analysis document.
func (p *Provider) Analyze(ctx context.Context, req models.AnalyzeRequest) (json.RawMessage, error) {
	parts := []genai.Part{genai.Text(analyzePrompt(req))}

	for _, f := range req.Files {
		part, err := p.filePart(ctx, f)
		if err != nil {
			return nil, err
		}
		if part != nil {
			parts = append(parts, part)
		}
	}

	if req.Transcript != "" {
		parts = append(parts, genai.Text("\n\nMEETING TRANSCRIPT:\n"+req.Transcript+"\n"))
	}

	gm := p.client.GenerativeModel(analyzeModel)
	gm.GenerationConfig.ResponseMIMEType = "application/json"

	resp, err := gm.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("generate analysis: %w", err)
	}

	text := responseText(resp)
	raw := json.RawMessage(StripCodeFences(text))
	if !json.Valid(raw) {
		return nil, fmt.Errorf("model returned invalid JSON")
	}
	return raw, nil
}

// Chat answers one question scoped to the client's analysis document, using
// the Gemini model the selected identifier resolves to.
func (p *Provider) Chat(ctx context.Context, req models.ChatRequest) (string, error) {
	name := ResolveModel(req.Model)
	gm := p.client.GenerativeModel(name)

	var prompt strings.Builder
	prompt.WriteString("You are WealthSync, an assistant for wealth relationship managers. ")
	prompt.WriteString("Answer the manager's question using only the client analysis below. ")
	prompt.WriteString("Be concise and concrete.\n\nCLIENT ANALYSIS:\n")
	prompt.Write(req.ProfileData)
	prompt.WriteString("\n\nQUESTION:\n")
	prompt.WriteString(req.Message)

	resp, err := gm.GenerateContent(ctx, genai.Text(prompt.String()))
	if err != nil {
		return "", fmt.Errorf("generate chat reply: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("model returned an empty reply")
	}
	return text, nil
}

// filePart converts one uploaded file into a prompt part. Images travel
// inline; PDFs, audio, and video go through the File API; anything else that
// looks like text is inlined as text, and undecodable files are skipped.
func (p *Provider) filePart(ctx context.Context, f models.File) (genai.Part, error) {
	switch {
	case strings.HasPrefix(f.ContentType, "image/"):
		format := strings.TrimPrefix(f.ContentType, "image/")
		return genai.ImageData(format, f.Data), nil

	case f.ContentType == "application/pdf",
		strings.HasPrefix(f.ContentType, "audio/"),
		strings.HasPrefix(f.ContentType, "video/"):
		uploaded, err := p.client.UploadFile(ctx, uuid.New().String(), bytes.NewReader(f.Data), &genai.UploadFileOptions{
			DisplayName: f.Name,
			MIMEType:    f.ContentType,
		})
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", f.Name, err)
		}
		return genai.FileData{MIMEType: uploaded.MIMEType, URI: uploaded.URI}, nil

	default:
		if !utf8.Valid(f.Data) {
			slog.Warn("Skipping undecodable file", "name", f.Name, "contentType", f.ContentType)
			return nil, nil
		}
		return genai.Text(fmt.Sprintf("\nContent from %s:\n%s\n", f.Name, f.Data)), nil
	}
}

// ResolveModel maps a display identifier to a Gemini model name.
func ResolveModel(display string) string {
	if name, ok := modelAliases[display]; ok {
		return name
	}
	return defaultChatModel
}

// StripCodeFences removes a surrounding markdown code fence, which models
// sometimes emit even when asked for bare JSON.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}
	return s
}

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
	}
	return sb.String()
}

func analyzePrompt(req models.AnalyzeRequest) string {
	var sb strings.Builder
	sb.WriteString(`You are an elite Wealth Manager. Analyze the attached client documents, whiteboard photos, audio, and meeting transcript.
`)
	if len(req.ExistingData) > 0 {
		sb.WriteString("Incorporate the new details into the existing client profile provided below.\n")
	} else {
		sb.WriteString("Create a new comprehensive financial analysis.\n")
	}
	sb.WriteString(`
Output a comprehensive financial analysis in strict JSON format.
You must detect specific assets like Mutual Funds, Jewellery, Properties, and SIPs if mentioned.
You must also calculate a 'potential_rank' (1-10) based on net worth, assets, and investable surplus.

REQUIRED JSON STRUCTURE:
{
  "client_profile": { "name": "String", "risk_tolerance": "Conservative/Moderate/Aggressive", "life_stage": "String", "potential_rank": number },
  "financial_snapshot": { "net_worth": "String", "monthly_burn": "String", "savings_rate": "String", "total_assets_value": "String" },
  "assets_detail": [
    { "type": "Mutual Fund/Property/Jewellery/SIP", "value": "String", "description": "String" }
  ],
  "category_totals": [
    { "type": "String", "total_value": "String" }
  ],
  "note_on_totals": "For SIPs, total_value should be the SUM of monthly amounts (e.g., '50,000/month'). Do NOT multiply monthly amounts by assumed tenures to create large 'Lakh' values unless explicitly stated in documents.",
  "goals_detected": [
    { "goal": "String", "timeline": "String", "feasibility": "High/Medium/Low" }
  ],
  "key_risks": ["Risk 1", "Risk 2"],
  "strategic_roadmap": [
    { "step": "1", "action": "String", "reasoning": "String" }
  ],
  "portfolio_allocation": [
    { "category": "String", "percentage": number }
  ],
  "insurance_analysis": {
    "life_insurance": { "status": "Detected/Not Found", "coverage_amount": "String", "is_sufficient": boolean, "gap_details": "String" },
    "health_insurance": { "status": "Detected/Not Found", "coverage_amount": "String", "is_sufficient": boolean, "gap_details": "String" },
    "rm_suggestion": "String"
  },
  "personal_details": { "key": "value pairs of biographical details actually present in the evidence" }
}

If a meeting transcript is supplied, also include:
  "meeting_analysis": { "summary": "String", "action_items": ["String"], "sentiment": "String" }
`)
	if len(req.ExistingData) > 0 {
		sb.WriteString("\nEXISTING CLIENT DATA (CONTEXT):\n")
		sb.Write(req.ExistingData)
		sb.WriteString("\n")
	}
	sb.WriteString("\n\nNEW DATA extracted from files:\n")
	return sb.String()
}
