package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fadilmartias/mentor-match/internal/config"
	"github.com/fadilmartias/mentor-match/internal/logger"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

var (
	// ErrScoringUnavailable covers transport failures, timeouts and non-2xx
	// answers from either scoring capability.
	ErrScoringUnavailable = errors.New("scoring service unavailable")
	// ErrScoringInvalidResponse means the capability answered but the payload
	// could not be parsed into the expected shape.
	ErrScoringInvalidResponse = errors.New("scoring service returned invalid response")
	// ErrNoMatch is a valid outcome of FindMatch, not a failure: no mentor met
	// the engine's compatibility threshold.
	ErrNoMatch = errors.New("no matching mentor")
)

// MatchResult is the mentor candidate selected by the match engine.
// Score is a 0-100 compatibility percentage.
type MatchResult struct {
	MentorID string
	Score    float64
}

type ScoringServiceInterface interface {
	Classify(ctx context.Context, doubtText string) (map[string]float64, error)
	FindMatch(ctx context.Context, requesterID string, breakdown map[string]float64) (*MatchResult, error)
}

// ScoringService talks to the two external scoring capabilities: the doubt
// classifier and the match engine. Both are plain HTTP collaborators.
type ScoringService struct {
	client *resty.Client
	cfg    *config.ScoringConfig
	log    logger.Logger
}

func NewScoringService(cfg *config.ScoringConfig, log logger.Logger) *ScoringService {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	return &ScoringService{
		client: client,
		cfg:    cfg,
		log:    log.WithFields(map[string]interface{}{"component": "scoring"}),
	}
}

// Classify maps free doubt text to a subject -> percentage (0-100) breakdown.
func (s *ScoringService) Classify(ctx context.Context, doubtText string) (map[string]float64, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"text": doubtText}).
		Post(s.cfg.ClassifierURL)
	if err != nil {
		return nil, fmt.Errorf("%w: classifier call failed: %v", ErrScoringUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: classifier returned %s", ErrScoringUnavailable, resp.Status())
	}

	body := resp.String()
	items := gjson.Get(body, "subject_breakdown")
	if !items.IsArray() {
		return nil, fmt.Errorf("%w: missing subject_breakdown array", ErrScoringInvalidResponse)
	}

	breakdown := make(map[string]float64)
	for _, item := range items.Array() {
		subject := item.Get("subject").String()
		if subject == "" {
			continue
		}
		breakdown[subject] = item.Get("percentage").Float()
	}
	if len(breakdown) == 0 {
		return nil, fmt.Errorf("%w: empty subject_breakdown", ErrScoringInvalidResponse)
	}
	return breakdown, nil
}

// FindMatch asks the match engine for the best mentor given a breakdown.
// A null match in the response means ErrNoMatch.
func (s *ScoringService) FindMatch(ctx context.Context, requesterID string, breakdown map[string]float64) (*MatchResult, error) {
	subjects := make([]map[string]any, 0, len(breakdown))
	for subject, percentage := range breakdown {
		subjects = append(subjects, map[string]any{
			"subject":    subject,
			"percentage": percentage,
		})
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"requester_id":      requesterID,
			"subject_breakdown": subjects,
		}).
		Post(s.cfg.MatchEngineURL)
	if err != nil {
		return nil, fmt.Errorf("%w: match engine call failed: %v", ErrScoringUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: match engine returned %s", ErrScoringUnavailable, resp.Status())
	}

	body := resp.String()
	match := gjson.Get(body, "match")
	if !match.Exists() {
		return nil, fmt.Errorf("%w: missing match field", ErrScoringInvalidResponse)
	}
	if match.Type == gjson.Null {
		return nil, ErrNoMatch
	}

	mentorID := match.Get("mentor_id").String()
	if mentorID == "" {
		return nil, fmt.Errorf("%w: match without mentor_id", ErrScoringInvalidResponse)
	}
	return &MatchResult{
		MentorID: mentorID,
		Score:    match.Get("compatibility_score").Float(),
	}, nil
}
