package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fadilmartias/mentor-match/internal/config"
	"github.com/fadilmartias/mentor-match/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, classifierURL, matchEngineURL string, timeout time.Duration) *ScoringService {
	t.Helper()
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	cfg := &config.ScoringConfig{
		ClassifierURL:  classifierURL,
		MatchEngineURL: matchEngineURL,
		Timeout:        timeout,
	}
	return NewScoringService(cfg, logger.NewTestLogger(t))
}

func TestClassify_Success(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"subject_breakdown": [
				{"subject": "DataStructures", "percentage": 80},
				{"subject": "Algorithms", "percentage": 60}
			]
		}`))
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL, "", 0)
	breakdown, err := s.Classify(context.Background(), "How do binary search trees work?")
	require.NoError(t, err)

	assert.Equal(t, "How do binary search trees work?", gotBody["text"])
	assert.Equal(t, map[string]float64{"DataStructures": 80, "Algorithms": 60}, breakdown)
}

func TestClassify_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`{"subject_breakdown": []}`))
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL, "", 50*time.Millisecond)
	_, err := s.Classify(context.Background(), "slow doubt")
	assert.ErrorIs(t, err, ErrScoringUnavailable)
}

func TestClassify_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL, "", 0)
	_, err := s.Classify(context.Background(), "doubt")
	assert.ErrorIs(t, err, ErrScoringUnavailable)
}

func TestClassify_MalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "definitely not json"},
		{"missing breakdown", `{"something": "else"}`},
		{"empty breakdown", `{"subject_breakdown": []}`},
		{"entries without subjects", `{"subject_breakdown": [{"percentage": 50}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s := newTestService(t, srv.URL, "", 0)
			_, err := s.Classify(context.Background(), "doubt")
			assert.ErrorIs(t, err, ErrScoringInvalidResponse)
		})
	}
}

func TestFindMatch_Success(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"match": {"mentor_id": "M7", "compatibility_score": 92}}`))
	}))
	defer srv.Close()

	s := newTestService(t, "", srv.URL, 0)
	result, err := s.FindMatch(context.Background(), "R1", map[string]float64{"DataStructures": 80})
	require.NoError(t, err)

	assert.Equal(t, "M7", result.MentorID)
	assert.Equal(t, float64(92), result.Score)
	assert.Equal(t, "R1", gotBody["requester_id"])
	assert.Len(t, gotBody["subject_breakdown"], 1)
}

func TestFindMatch_NoMatchIsNotAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"match": null}`))
	}))
	defer srv.Close()

	s := newTestService(t, "", srv.URL, 0)
	result, err := s.FindMatch(context.Background(), "R1", map[string]float64{"Math": 100})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.NotErrorIs(t, err, ErrScoringUnavailable)
	assert.NotErrorIs(t, err, ErrScoringInvalidResponse)
}

func TestFindMatch_MalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing match field", `{"ok": true}`},
		{"match without mentor_id", `{"match": {"compatibility_score": 50}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s := newTestService(t, "", srv.URL, 0)
			_, err := s.FindMatch(context.Background(), "R1", map[string]float64{"Math": 100})
			assert.ErrorIs(t, err, ErrScoringInvalidResponse)
		})
	}
}

func TestFindMatch_Unreachable(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	s := newTestService(t, "", url, 0)
	_, err := s.FindMatch(context.Background(), "R1", map[string]float64{"Math": 100})
	assert.ErrorIs(t, err, ErrScoringUnavailable)
}

func TestFindMatch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`{"match": null}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newTestService(t, "", srv.URL, 0)
	_, err := s.FindMatch(ctx, "R1", map[string]float64{"Math": 100})
	assert.ErrorIs(t, err, ErrScoringUnavailable)
}
