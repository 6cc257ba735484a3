package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPascalCase(t *testing.T) {
	tests := map[string]string{
		"user_profile": "UserProfile",
		"userProfile":  "UserProfile",
		"user":         "User",
		"HTTPServer":   "HTTPServer",
		"api_key":      "ApiKey",
		"ID":           "ID",
		"2fa_config":   "_2faConfig",
	}
	for in, want := range tests {
		assert.Equal(t, want, PascalCase(in), "PascalCase(%q)", in)
	}
}

func TestCamelCase(t *testing.T) {
	tests := map[string]string{
		"user_profile": "userProfile",
		"UserProfile":  "userProfile",
		"HTTPServer":   "HTTPServer",
		"user":         "user",
	}
	for in, want := range tests {
		assert.Equal(t, want, CamelCase(in), "CamelCase(%q)", in)
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"UserProfile": "user_profile",
		"userID":      "user_ID",
		"HTTPServer":  "HTTP_server",
		"user":        "user",
		"2Fast":       "_2_fast",
	}
	for in, want := range tests {
		assert.Equal(t, want, SnakeCase(in), "SnakeCase(%q)", in)
	}
}
