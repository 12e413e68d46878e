package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fadilmartias/mentor-match/internal/cache"
	"github.com/fadilmartias/mentor-match/internal/dto"
	"github.com/fadilmartias/mentor-match/internal/logger"
	"github.com/fadilmartias/mentor-match/internal/model"
	"github.com/fadilmartias/mentor-match/internal/repository"
	"github.com/fadilmartias/mentor-match/internal/service"
	"github.com/google/uuid"
)

type MatchRequestRepositoryInterface interface {
	Create(req *model.MatchRequest) error
	FindByID(id string) (*model.MatchRequest, error)
	FindLatestByRequester(requesterID string) (*model.MatchRequest, error)
	UpdateFields(id string, fields map[string]any) (*model.MatchRequest, error)
	Close(id string) (*model.MatchRequest, error)
}

type MentorRepositoryInterface interface {
	FindByID(id string) (*model.Mentor, error)
	FindOnline() ([]model.Mentor, error)
}

// MatchingUsecase drives a match request through classification and matching.
// Submit persists the record and returns; the rest of the workflow runs in a
// goroutine per request and reports progress only through the request store.
type MatchingUsecase struct {
	requestRepo MatchRequestRepositoryInterface
	mentorRepo  MentorRepositoryInterface
	scoring     service.ScoringServiceInterface
	cache       *cache.MatchCache
	callTimeout time.Duration
	log         logger.Logger
}

func NewMatchingUsecase(
	requestRepo MatchRequestRepositoryInterface,
	mentorRepo MentorRepositoryInterface,
	scoring service.ScoringServiceInterface,
	matchCache *cache.MatchCache,
	callTimeout time.Duration,
	log logger.Logger,
) *MatchingUsecase {
	return &MatchingUsecase{
		requestRepo: requestRepo,
		mentorRepo:  mentorRepo,
		scoring:     scoring,
		cache:       matchCache,
		callTimeout: callTimeout,
		log:         log.WithFields(map[string]interface{}{"component": "matching"}),
	}
}

// Submit creates the request in processing state and kicks off the background
// workflow. It blocks only for the store write; scoring latency never reaches
// the submitter.
func (uc *MatchingUsecase) Submit(requesterID, doubtText string) (*model.MatchRequest, error) {
	if requesterID == "" {
		requesterID = fmt.Sprintf("guest_%d", time.Now().UnixMilli())
	}
	now := time.Now()
	req := &model.MatchRequest{
		ID:               uuid.New(),
		RequesterID:      requesterID,
		DoubtText:        doubtText,
		Status:           model.StatusProcessing,
		SubjectBreakdown: "{}",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.requestRepo.Create(req); err != nil {
		return nil, err
	}

	go uc.processRequest(req.ID.String(), requesterID, doubtText)

	return req, nil
}

// Rematch re-runs the workflow for a request that is still searching, e.g.
// after the match engine returned no candidate. Terminal requests are refused.
func (uc *MatchingUsecase) Rematch(id string) (*model.MatchRequest, error) {
	req, err := uc.requestRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if model.IsTerminalStatus(req.Status) {
		return nil, fmt.Errorf("%w: request is already %s", repository.ErrValidation, req.Status)
	}

	go uc.processRequest(req.ID.String(), req.RequesterID, req.DoubtText)

	return req, nil
}

func (uc *MatchingUsecase) processRequest(id, requesterID, doubtText string) {
	log := uc.log.WithFields(map[string]interface{}{
		"request_id":   id,
		"requester_id": requesterID,
	})

	classifyCtx, cancel := context.WithTimeout(context.Background(), uc.callTimeout)
	breakdown, err := uc.scoring.Classify(classifyCtx, doubtText)
	cancel()
	if err != nil {
		uc.failRequest(id, requesterID, "classification failed", err, log)
		return
	}

	raw, err := json.Marshal(breakdown)
	if err != nil {
		uc.failRequest(id, requesterID, "classification failed", err, log)
		return
	}
	// The breakdown write must land before any mentor assignment.
	if _, err := uc.requestRepo.UpdateFields(id, map[string]any{
		"subject_breakdown": string(raw),
	}); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			log.Warn("breakdown dropped, request already terminal", nil)
			return
		}
		log.WithError(err).Error("failed to persist subject breakdown", nil)
		return
	}

	matchCtx, cancel := context.WithTimeout(context.Background(), uc.callTimeout)
	result, err := uc.scoring.FindMatch(matchCtx, requesterID, breakdown)
	cancel()
	if errors.Is(err, service.ErrNoMatch) {
		// Not a failure: the request keeps searching and the poller keeps
		// seeing processing until a rematch or close.
		log.Info("no compatible mentor found yet", nil)
		return
	}
	if err != nil {
		uc.failRequest(id, requesterID, "matching failed", err, log)
		return
	}

	if _, err := uc.requestRepo.UpdateFields(id, map[string]any{
		"matched_mentor_id":   result.MentorID,
		"compatibility_score": result.Score,
		"status":              model.StatusAnswered,
	}); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			log.Warn("late match result dropped, request already terminal", nil)
			return
		}
		log.WithError(err).Error("failed to persist match result", nil)
		return
	}
	uc.cache.Invalidate(requesterID)

	log.Info("request answered", map[string]interface{}{
		"mentor_id": result.MentorID,
		"score":     result.Score,
	})
}

func (uc *MatchingUsecase) failRequest(id, requesterID, msg string, cause error, log logger.Logger) {
	if errors.Is(cause, service.ErrScoringInvalidResponse) {
		log.WithError(cause).Error("scoring service returned malformed payload", nil)
	} else {
		log.WithError(cause).Warn(msg, nil)
	}

	if _, err := uc.requestRepo.UpdateFields(id, map[string]any{
		"status":        model.StatusError,
		"error_message": fmt.Sprintf("%s: %v", msg, cause),
	}); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			log.Warn("error state dropped, request already terminal", nil)
			return
		}
		log.WithError(err).Error("failed to persist error state", nil)
		return
	}
	uc.cache.Invalidate(requesterID)
}

// GetStatus returns the request plus the matched mentor's directory entry
// when one is assigned. A mentor missing from the directory is not an error,
// the directory is an external collaborator.
func (uc *MatchingUsecase) GetStatus(id string) (*model.MatchRequest, *model.Mentor, error) {
	req, err := uc.requestRepo.FindByID(id)
	if err != nil {
		return nil, nil, err
	}
	return req, uc.lookupMentor(req), nil
}

// LatestForRequester is the status lookup used when the client only knows who
// it is, not which request it last created.
func (uc *MatchingUsecase) LatestForRequester(requesterID string) (*model.MatchRequest, *model.Mentor, error) {
	req, err := uc.requestRepo.FindLatestByRequester(requesterID)
	if err != nil {
		return nil, nil, err
	}
	return req, uc.lookupMentor(req), nil
}

func (uc *MatchingUsecase) lookupMentor(req *model.MatchRequest) *model.Mentor {
	if req.MatchedMentorID == nil {
		return nil
	}
	mentor, err := uc.mentorRepo.FindByID(*req.MatchedMentorID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			uc.log.WithError(err).Warn("mentor lookup failed", map[string]interface{}{
				"mentor_id": *req.MatchedMentorID,
			})
		}
		return nil
	}
	return mentor
}

// GetCachedMatches serves the dashboard poll. It never blocks: a cold or
// expired entry triggers a single background compute and reports in progress.
func (uc *MatchingUsecase) GetCachedMatches(requesterID string) ([]dto.CandidateMatch, bool) {
	return uc.cache.GetOrCompute(requesterID, func() ([]dto.CandidateMatch, error) {
		return uc.computeMatches(requesterID)
	})
}

func (uc *MatchingUsecase) computeMatches(requesterID string) ([]dto.CandidateMatch, error) {
	req, err := uc.requestRepo.FindLatestByRequester(requesterID)
	if errors.Is(err, repository.ErrNotFound) {
		// No request yet: cache the empty answer so polling converges instead
		// of re-querying the store forever.
		return []dto.CandidateMatch{}, nil
	}
	if err != nil {
		return nil, err
	}

	var breakdown map[string]float64
	if req.SubjectBreakdown != "" {
		if err := json.Unmarshal([]byte(req.SubjectBreakdown), &breakdown); err != nil {
			return nil, err
		}
	}
	if len(breakdown) == 0 {
		// Classification has not landed yet, nothing to match against.
		return []dto.CandidateMatch{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), uc.callTimeout)
	defer cancel()
	result, err := uc.scoring.FindMatch(ctx, requesterID, breakdown)
	if errors.Is(err, service.ErrNoMatch) {
		return []dto.CandidateMatch{}, nil
	}
	if err != nil {
		return nil, err
	}

	match := dto.CandidateMatch{
		MentorID:           result.MentorID,
		CompatibilityScore: result.Score,
	}
	if mentor, err := uc.mentorRepo.FindByID(result.MentorID); err == nil {
		match.Name = mentor.Name
		match.Skills = []string(mentor.Skills)
		match.Rating = mentor.Rating
		match.IsOnline = mentor.IsOnline
	}
	return []dto.CandidateMatch{match}, nil
}

// CloseRequest is the external terminal transition, allowed from any state.
func (uc *MatchingUsecase) CloseRequest(id string) (*model.MatchRequest, error) {
	req, err := uc.requestRepo.Close(id)
	if err != nil {
		return nil, err
	}
	uc.cache.Invalidate(req.RequesterID)
	return req, nil
}
