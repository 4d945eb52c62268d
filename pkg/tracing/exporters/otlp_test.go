package exporters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{name: "empty", raw: "", want: map[string]string{}},
		{name: "single", raw: "authorization=Bearer abc", want: map[string]string{"authorization": "Bearer abc"}},
		{name: "several with spaces", raw: " a = 1 , b=2", want: map[string]string{"a": "1", "b": "2"}},
		{name: "missing key skipped", raw: "=x,c=3", want: map[string]string{"c": "3"}},
		{name: "value may contain equals", raw: "sig=a=b", want: map[string]string{"sig": "a=b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseHeaders(tt.raw))
		})
	}
}

func TestNewOTLPExporter_UnsupportedProtocol(t *testing.T) {
	exp, err := NewOTLPExporter(context.Background(), OTLPConfig{Endpoint: "localhost:4317", Protocol: "udp"})
	require.Error(t, err)
	assert.Nil(t, exp)
	assert.Contains(t, err.Error(), `"udp"`)
}
