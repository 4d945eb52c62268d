package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestClient_Classify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		want    Classification
		wantErr bool
	}{
		{
			name:   "blacklisted skill",
			status: http.StatusOK,
			body:   Classification{Qualifier: "Hacking", Category: "Security", Blacklisted: true},
			want:   Classification{Qualifier: "Hacking", Category: "Security", Blacklisted: true},
		},
		{
			name:   "known skill",
			status: http.StatusOK,
			body:   Classification{Qualifier: "Go", Qualifiers: []string{"Languages"}, Category: "Programming"},
			want:   Classification{Qualifier: "Go", Qualifiers: []string{"Languages"}, Category: "Programming"},
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    map[string]string{"error": "boom"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQualifier, gotMethod, gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.Path
				gotQualifier = r.URL.Query().Get("qualifier")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer srv.Close()

			c := NewClient(Config{URL: srv.URL + "/", Timeout: time.Second}, testLogger())
			got, err := c.Classify(context.Background(), "C++ & Go")

			assert.Equal(t, http.MethodPost, gotMethod)
			assert.Equal(t, "/skill", gotPath)
			assert.Equal(t, "C++ & Go", gotQualifier)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_ClassifyWithoutURL(t *testing.T) {
	c := NewClient(Config{}, testLogger())
	_, err := c.Classify(context.Background(), "Go")
	assert.Error(t, err)
}

type stubSource struct {
	calls  int
	result Classification
	err    error
}

func (s *stubSource) Classify(_ context.Context, _ string) (Classification, error) {
	s.calls++
	return s.result, s.err
}

type mapCache struct {
	values map[string]Classification
}

func (m *mapCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	v, ok := m.values[key]
	if !ok {
		return false, nil
	}
	*(dest.(*Classification)) = v
	return true, nil
}

func (m *mapCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	m.values[key] = value.(Classification)
	return nil
}

func TestResilient_Classify(t *testing.T) {
	ctx := context.Background()

	t.Run("falls back when the source fails", func(t *testing.T) {
		src := &stubSource{err: errors.New("connection refused")}
		r := NewResilient(src, nil, time.Minute, testLogger())

		got := r.Classify(ctx, "Go")
		assert.Equal(t, Fallback(), got)
		assert.False(t, got.Blacklisted)
		assert.Equal(t, FallbackQualifier, got.Qualifier)
	})

	t.Run("falls back without a source", func(t *testing.T) {
		r := NewResilient(nil, nil, time.Minute, testLogger())
		assert.Equal(t, Fallback(), r.Classify(ctx, "Go"))
	})

	t.Run("caches successful answers by lower-cased name", func(t *testing.T) {
		src := &stubSource{result: Classification{Qualifier: "Go", Blacklisted: true}}
		cache := &mapCache{values: map[string]Classification{}}
		r := NewResilient(src, cache, time.Minute, testLogger())

		first := r.Classify(ctx, "Go")
		second := r.Classify(ctx, " go ")

		assert.True(t, first.Blacklisted)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, src.calls)
		assert.Contains(t, cache.values, "classifier:go")
	})

	t.Run("failures are not cached", func(t *testing.T) {
		src := &stubSource{err: errors.New("timeout")}
		cache := &mapCache{values: map[string]Classification{}}
		r := NewResilient(src, cache, time.Minute, testLogger())

		r.Classify(ctx, "Go")
		assert.Empty(t, cache.values)
	})
}
