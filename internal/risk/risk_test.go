package risk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssessReturnsAdvice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash:generateContent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Address looks fine, proceed with care."}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	advice := c.Assess(context.Background(), "0xabc", "10")
	assert.Equal(t, "Address looks fine, proceed with care.", advice)
}

func TestAssessWithoutAPIKey(t *testing.T) {
	c := NewClient("http://unused.invalid", "")
	assert.Equal(t, AdviceUnavailable, c.Assess(context.Background(), "0xabc", "10"))
}

func TestAssessDegradesOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	assert.Equal(t, AdviceUnavailable, c.Assess(context.Background(), "0xabc", "10"))
}

func TestAssessDegradesOnBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	assert.Equal(t, AdviceUnavailable, c.Assess(context.Background(), "0xabc", "10"))
}

func TestAssessDegradesOnEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	assert.Equal(t, AdviceUnavailable, c.Assess(context.Background(), "0xabc", "10"))
}

func TestAssessDegradesWhenUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "test-key")
	assert.Equal(t, AdviceUnavailable, c.Assess(context.Background(), "0xabc", "10"))
}
