package ratelimit

import (
	"net/http"
	"testing"
)

func TestClientIdentityPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "forwarded for single",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4"},
			want:    "1.2.3.4",
		},
		{
			name:    "forwarded for takes first hop",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.6.6"},
			want:    "1.2.3.4",
		},
		{
			name:    "forwarded for wins over real ip",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "9.9.9.9"},
			want:    "1.2.3.4",
		},
		{
			name:    "real ip",
			headers: map[string]string{"X-Real-IP": "9.9.9.9"},
			want:    "9.9.9.9",
		},
		{
			name:    "cf connecting ip",
			headers: map[string]string{"CF-Connecting-IP": "7.7.7.7"},
			want:    "7.7.7.7",
		},
		{
			name:    "real ip wins over cf",
			headers: map[string]string{"X-Real-IP": "9.9.9.9", "CF-Connecting-IP": "7.7.7.7"},
			want:    "9.9.9.9",
		},
		{
			name:    "no headers",
			headers: nil,
			want:    AnonymousIdentity,
		},
		{
			name:    "empty forwarded for falls through",
			headers: map[string]string{"X-Forwarded-For": "  ", "X-Real-IP": "9.9.9.9"},
			want:    "9.9.9.9",
		},
		{
			name:    "empty first hop falls through",
			headers: map[string]string{"X-Forwarded-For": " , 5.6.6.6", "X-Real-IP": "9.9.9.9"},
			want:    "9.9.9.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for name, value := range tt.headers {
				h.Set(name, value)
			}
			if got := ClientIdentity(h); got != tt.want {
				t.Fatalf("expected identity %q, got %q", tt.want, got)
			}
		})
	}
}
