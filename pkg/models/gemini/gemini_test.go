package gemini

import "testing"

func TestResolveModel(t *testing.T) {
	tests := []struct {
		display string
		want    string
	}{
		{"Gemini 3.1 Pro (Latest)", "gemini-3-pro-preview"},
		{"Gemini 3 Flash", "gemini-3-flash-preview"},
		{"Gemini 2.5 Pro", "gemini-2.5-pro"},
		{"Gemini 2.5 Flash", "gemini-2.5-flash"},
		{"Claude 3.5 Sonnet", defaultChatModel},
		{"GPT-4o (Standard)", defaultChatModel},
		{"", defaultChatModel},
	}

	for _, tt := range tests {
		if got := ResolveModel(tt.display); got != tt.want {
			t.Errorf("ResolveModel(%q) = %q, want %q", tt.display, got, tt.want)
		}
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fence with preamble", "Here you go:\n```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  {\"a\": 1}\n", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.in); got != tt.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
