package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplexDomains_IsComplex(t *testing.T) {
	r := NewComplexDomains("Example-SPA.io")

	tests := []struct {
		host string
		want bool
	}{
		{"facebook.com", true},
		{"www.facebook.com", true},
		{"m.facebook.com", true},
		{"LINKEDIN.COM", true},
		{"x.com", true},
		{"example-spa.io", true},
		{"docs.example-spa.io", true},
		{"notfacebook.com", false},
		{"facebook.com.evil.test", false},
		{"example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, r.IsComplex(tt.host))
		})
	}
}

func TestComplexDomains_Domains(t *testing.T) {
	r := NewComplexDomains("www.extra.test", " ")

	domains := r.Domains()

	assert.Contains(t, domains, "extra.test")
	assert.Contains(t, domains, "facebook.com")
	assert.NotContains(t, domains, "")
	assert.IsNonDecreasing(t, domains)
}

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		blocked bool
	}{
		{"forbidden", 403, "<html>nope</html>", true},
		{"rate limited", 429, "", true},
		{"unavailable", 503, "", true},
		{"not found", 404, "<html>missing</html>", false},
		{"ok", 200, "<html><title>Privacy Policy</title></html>", false},
		{"cloudflare challenge", 200, "<html><head><title>Just a moment...</title></head></html>", true},
		{"captcha", 0, `<script src="https://ct.captcha-delivery.com/c.js"></script>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DetectBlock(tt.status, tt.body)
			assert.Equal(t, tt.blocked, err != nil, "err = %v", err)
		})
	}
}

func TestDetectBlock_IgnoresMarkersInLargePages(t *testing.T) {
	body := make([]byte, maxChallengeBodySize+1)
	for i := range body {
		body[i] = 'a'
	}
	page := string(body) + "verify you are human"

	assert.NoError(t, DetectBlock(200, page))
}
