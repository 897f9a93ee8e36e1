package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateChatMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{"valid", "What is your return policy?", false},
		{"empty", "", true},
		{"whitespace only", "  \n\t  ", true},
		{"exactly at limit", strings.Repeat("a", MaxMessageChars), false},
		{"one over limit", strings.Repeat("a", MaxMessageChars+1), true},
		{"multibyte at limit", strings.Repeat("é", MaxMessageChars), false},
		{"invalid utf-8", "hello\xff", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChatMessage(tt.message)
			if tt.wantErr {
				require.NotNil(t, err)
				assert.NotEmpty(t, err.Reason)
				assert.NotEmpty(t, err.Reply)
			} else {
				assert.Nil(t, err)
			}
		})
	}
}

func TestValidateChatMessage_OversizedMatchesEmptyShape(t *testing.T) {
	empty := ValidateChatMessage("")
	oversized := ValidateChatMessage(strings.Repeat("a", MaxMessageChars+1))

	require.NotNil(t, empty)
	require.NotNil(t, oversized)
	// Both rejections carry a diagnostic and a user-facing reply; only the
	// wording differs.
	assert.NotEqual(t, empty.Reason, oversized.Reason)
}

func TestValidateSessionID(t *testing.T) {
	assert.Nil(t, ValidateSessionID("any-opaque-token"))
	assert.NotNil(t, ValidateSessionID(""))
	assert.NotNil(t, ValidateSessionID("   "))
}
