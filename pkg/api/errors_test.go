package api

import "testing"

func TestDecodeDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "plain string",
			body: `{"detail": "Profile not found"}`,
			want: "Profile not found",
		},
		{
			name: "validation list with msg fields",
			body: `{"detail": [{"loc": ["body", "name"], "msg": "field required"}, {"msg": "value too long"}]}`,
			want: "field required, value too long",
		},
		{
			name: "list of strings",
			body: `{"detail": ["first", "second"]}`,
			want: "first, second",
		},
		{
			name: "structured object",
			body: `{"detail": {"code": 7, "reason": "quota"}}`,
			want: `{"code":7,"reason":"quota"}`,
		},
		{
			name: "empty list falls back",
			body: `{"detail": []}`,
			want: "fallback",
		},
		{
			name: "no detail field falls back",
			body: `{"error": "nope"}`,
			want: "fallback",
		},
		{
			name: "not json falls back",
			body: `<html>502</html>`,
			want: "fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeDetail([]byte(tt.body), "fallback")
			if got != tt.want {
				t.Errorf("decodeDetail(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}
