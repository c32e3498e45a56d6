package clientinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"192.168.1.47", "192.168.1.0"},
		{"127.0.0.1", "127.0.0.0"},
		{"::ffff:10.1.2.3", "10.1.2.0"},
		{"2001:db8:85a3::8a2e:370:7334", "2001:db8:85a3::"},
		{"", Unknown},
		{"not-an-ip", "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, AnonymizeIP(tt.input))
		})
	}
}

func TestDescribeUserAgent(t *testing.T) {
	firefox := "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"
	assert.Equal(t, "Firefox on Linux x86_64", DescribeUserAgent(firefox))
	assert.Equal(t, Unknown, DescribeUserAgent("  "))
}

func TestSummary(t *testing.T) {
	assert.Empty(t, Summary("", ""))
	assert.Contains(t, Summary("10.0.0.9", ""), "from 10.0.0.0")
}
