package logging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecretAlwaysRedacts(t *testing.T) {
	s := Secret("sk-super-secret")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))
	assert.NotContains(t, fmt.Sprintf("key=%s", s), "sk-super-secret")
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		secrets []string
		want    string
	}{
		{
			name:    "single secret",
			input:   "stored value sk-abc123 under key",
			secrets: []string{"sk-abc123"},
			want:    "stored value [REDACTED] under key",
		},
		{
			name:    "multiple occurrences",
			input:   "sk-abc123 then sk-abc123 again",
			secrets: []string{"sk-abc123"},
			want:    "[REDACTED] then [REDACTED] again",
		},
		{
			name:    "trivial secrets left alone",
			input:   "code ab is fine",
			secrets: []string{"ab"},
			want:    "code ab is fine",
		},
		{
			name:    "empty secret list",
			input:   "nothing to do",
			secrets: nil,
			want:    "nothing to do",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Redact(tt.input, tt.secrets))
		})
	}
}
