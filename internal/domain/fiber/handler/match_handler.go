package handler

import (
	"errors"
	"time"

	"github.com/fadilmartias/mentor-match/internal/dto"
	"github.com/fadilmartias/mentor-match/internal/middleware"
	"github.com/fadilmartias/mentor-match/internal/model"
	"github.com/fadilmartias/mentor-match/internal/repository"
	"github.com/fadilmartias/mentor-match/internal/response"
	"github.com/fadilmartias/mentor-match/internal/usecase"
	"github.com/fadilmartias/mentor-match/internal/util"
	"github.com/gofiber/fiber/v2"
)

// MentorDirectory is the read-only directory surface the handler exposes.
type MentorDirectory interface {
	FindOnline() ([]model.Mentor, error)
	List(page, pageSize int) ([]model.Mentor, int64, error)
}

type MatchHandler struct {
	uc         *usecase.MatchingUsecase
	mentorRepo MentorDirectory
}

func NewMatchHandler(uc *usecase.MatchingUsecase, mentorRepo MentorDirectory) *MatchHandler {
	return &MatchHandler{uc: uc, mentorRepo: mentorRepo}
}

func (h *MatchHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/find-mentor", middleware.RateLimiter(1, 4*time.Second), h.Submit)
	app.Get("/match-status/:id", h.Status)
	app.Get("/mentor-match-results", h.LatestResult)
	app.Post("/match-request/:id/close", h.Close)
	app.Post("/match-request/:id/rematch", h.Rematch)
	app.Get("/api/matches/:requesterId", h.CachedMatches)
	app.Get("/api/mentors", h.Mentors)
}

type submitDoubtRequest struct {
	RequesterID string `json:"requester_id"`
	Doubt       string `json:"doubt"`
}

// Submit acknowledges immediately; the matching workflow runs in the
// background and is observed via the poll endpoints.
func (h *MatchHandler) Submit(c *fiber.Ctx) error {
	var body submitDoubtRequest
	if err := c.BodyParser(&body); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	req, err := h.uc.Submit(body.RequesterID, body.Doubt)
	if err != nil {
		if errors.Is(err, repository.ErrValidation) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusBadRequest,
				Message: err.Error(),
			})
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to submit doubt",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Doubt submitted",
		Data: fiber.Map{
			"id":           req.ID,
			"requester_id": req.RequesterID,
			"status":       req.Status,
			"redirect_url": "/matching_interface?request=" + req.ID.String(),
		},
	})
}

func (h *MatchHandler) Status(c *fiber.Ctx) error {
	req, mentor, err := h.uc.GetStatus(c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusNotFound,
				Message: "match request not found",
			})
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to get match status",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Match status",
		Data:    toMatchRequestDTO(req, mentor),
	})
}

// LatestResult serves pollers that only know their requester id, returning
// the most recently created request for it.
func (h *MatchHandler) LatestResult(c *fiber.Ctx) error {
	requesterID := c.Query("requester_id")
	if requesterID == "" {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "requester_id is required",
		})
	}

	req, mentor, err := h.uc.LatestForRequester(requesterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusNotFound,
				Message: "no match request for requester",
			})
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to get match results",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Latest match result",
		Data:    toMatchRequestDTO(req, mentor),
	})
}

func (h *MatchHandler) Close(c *fiber.Ctx) error {
	req, err := h.uc.CloseRequest(c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusNotFound,
				Message: "match request not found",
			})
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to close match request",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Match request closed",
		Data:    toMatchRequestDTO(req, nil),
	})
}

func (h *MatchHandler) Rematch(c *fiber.Ctx) error {
	req, err := h.uc.Rematch(c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusNotFound,
				Message: "match request not found",
			})
		}
		if errors.Is(err, repository.ErrValidation) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusConflict,
				Message: err.Error(),
			})
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to rematch",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Rematch started",
		Data:    toMatchRequestDTO(req, nil),
	})
}

// CachedMatches never blocks: a cold cache returns an empty list with
// in_progress true while the compute runs in the background.
func (h *MatchHandler) CachedMatches(c *fiber.Ctx) error {
	matches, inProgress := h.uc.GetCachedMatches(c.Params("requesterId"))
	if matches == nil {
		matches = []dto.CandidateMatch{}
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Cached matches",
		Data: fiber.Map{
			"matches":     matches,
			"in_progress": inProgress,
		},
	})
}

func (h *MatchHandler) Mentors(c *fiber.Ctx) error {
	if c.QueryBool("online") {
		mentors, err := h.mentorRepo.FindOnline()
		if err != nil {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Message: "failed to list online mentors",
			}, err)
		}
		return util.SuccessResponse(c, util.SuccessResponseFormat{
			Message: "Online mentors",
			Data:    toMentorSummaries(mentors),
		})
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	mentors, total, err := h.mentorRepo.List(page, pageSize)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list mentors",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Mentors",
		Data:       toMentorSummaries(mentors),
		Pagination: response.NewPagination(page, pageSize, total, len(mentors)),
	})
}

func toMatchRequestDTO(req *model.MatchRequest, mentor *model.Mentor) dto.MatchRequestDTO {
	out := dto.MatchRequestDTO{
		ID:                 req.ID,
		RequesterID:        req.RequesterID,
		Status:             req.Status,
		SubjectBreakdown:   req.SubjectBreakdown,
		MatchedMentorID:    req.MatchedMentorID,
		CompatibilityScore: req.CompatibilityScore,
		ErrorMessage:       req.ErrorMessage,
		CreatedAt:          req.CreatedAt,
		UpdatedAt:          req.UpdatedAt,
	}
	if mentor != nil {
		summary := toMentorSummary(mentor)
		out.MatchedMentor = &summary
	}
	return out
}

func toMentorSummary(m *model.Mentor) dto.MentorSummaryDTO {
	return dto.MentorSummaryDTO{
		ID:        m.ID,
		Name:      m.Name,
		Skills:    []string(m.Skills),
		Expertise: []string(m.Expertise),
		Rating:    m.Rating,
		IsOnline:  m.IsOnline,
	}
}

func toMentorSummaries(mentors []model.Mentor) []dto.MentorSummaryDTO {
	out := make([]dto.MentorSummaryDTO, 0, len(mentors))
	for i := range mentors {
		out = append(out, toMentorSummary(&mentors[i]))
	}
	return out
}
