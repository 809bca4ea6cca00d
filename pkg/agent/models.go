package agent

// Models is the selectable model catalog, in menu order. The identifier is
// sent verbatim with each chat request; the backend maps it to a concrete
// provider model.
var Models = []string{
	"Gemini 3.1 Pro (Latest)",
	"Gemini 3 Flash",
	"Gemini 2.5 Pro",
	"Gemini 2.5 Flash",
	"o3-mini (OpenAI Reasoning)",
	"o1 (High Logic)",
	"GPT-4o (Standard)",
	"Claude 3.5 Sonnet",
	"Qwen Max",
}

// DefaultModel is selected when a conversation opens.
const DefaultModel = "Gemini 3.1 Pro (Latest)"
