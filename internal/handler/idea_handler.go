package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ideasplace/internal/errors"
	"ideasplace/internal/model"
	"ideasplace/internal/service"
)

// IdeaHandler handles idea endpoints.
type IdeaHandler struct {
	ideas service.IdeaService
	likes service.LikeService
}

// NewIdeaHandler creates a new idea handler.
func NewIdeaHandler(ideas service.IdeaService, likes service.LikeService) *IdeaHandler {
	return &IdeaHandler{ideas: ideas, likes: likes}
}

// IdeaRequest holds idea fields; omitted fields are left as they are.
type IdeaRequest struct {
	Title *string `json:"i_title"`
	Text  *string `json:"i_text"`
}

// NewIdeaEnvelope wraps an idea creation request.
type NewIdeaEnvelope struct {
	NewIdea *IdeaRequest `json:"new_idea"`
}

// UpdatedIdeaEnvelope wraps an idea update request.
type UpdatedIdeaEnvelope struct {
	UpdatedIdea *IdeaRequest `json:"updated_idea"`
}

// IdeaSummary is one entry of the idea list.
type IdeaSummary struct {
	URL           string    `json:"url"`
	Title         string    `json:"i_title"`
	Author        *string   `json:"author"`
	DatePublished time.Time `json:"date_published"`
}

// IdeaListResponse wraps every idea.
type IdeaListResponse struct {
	AllIdeas []IdeaSummary `json:"all_ideas"`
}

// IdeaDetail is an idea with the requester's like status.
type IdeaDetail struct {
	Title         string            `json:"i_title"`
	Text          string            `json:"i_text"`
	Author        *string           `json:"author"`
	DatePublished time.Time         `json:"date_published"`
	LikesStatus   model.LikeSummary `json:"likes_status"`
}

// IdeaResponse wraps an idea detail.
type IdeaResponse struct {
	Idea IdeaDetail `json:"idea"`
}

// List godoc
// @Summary List all ideas
// @Tags ideas
// @Produce json
// @Security BearerAuth
// @Success 200 {object} IdeaListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /ideas/ [get]
func (h *IdeaHandler) List(c echo.Context) error {
	if _, err := currentUserID(c); err != nil {
		return err
	}

	ideas, err := h.ideas.List(c.Request().Context())
	if err != nil {
		return respondError(err)
	}

	summaries := make([]IdeaSummary, 0, len(ideas))
	for _, idea := range ideas {
		summaries = append(summaries, IdeaSummary{
			URL:           IdeaURL(c, idea.ID),
			Title:         idea.Title,
			Author:        authorURL(c, idea.AuthorID),
			DatePublished: idea.DatePublished,
		})
	}
	return c.JSON(http.StatusOK, IdeaListResponse{AllIdeas: summaries})
}

// Get godoc
// @Summary Get an idea with like totals
// @Tags ideas
// @Produce json
// @Security BearerAuth
// @Param id path int true "Idea ID"
// @Success 200 {object} IdeaResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /ideas/{id}/ [get]
func (h *IdeaHandler) Get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id", errors.ErrIdeaNotFound)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	idea, err := h.ideas.Get(ctx, id)
	if err != nil {
		return respondError(err)
	}
	summary, err := h.likes.Summary(ctx, idea.ID, userID)
	if err != nil {
		return respondError(err)
	}

	return c.JSON(http.StatusOK, IdeaResponse{Idea: IdeaDetail{
		Title:         idea.Title,
		Text:          idea.Text,
		Author:        authorURL(c, idea.AuthorID),
		DatePublished: idea.DatePublished,
		LikesStatus:   summary,
	}})
}

// Create godoc
// @Summary Publish an idea
// @Tags ideas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NewIdeaEnvelope true "Idea"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errors.ErrorResponse
// @Router /ideas/ [post]
func (h *IdeaHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var env NewIdeaEnvelope
	if err := c.Bind(&env); err != nil {
		return err
	}
	if env.NewIdea == nil {
		return noDataError()
	}

	idea, err := h.ideas.Create(c.Request().Context(), userID, service.IdeaInput{
		Title: env.NewIdea.Title,
		Text:  env.NewIdea.Text,
	})
	if err != nil {
		return respondError(err)
	}

	return success(c, http.StatusCreated, "The Idea %s saved", idea.Title)
}

// Update godoc
// @Summary Update your idea
// @Tags ideas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Idea ID"
// @Param request body UpdatedIdeaEnvelope true "Fields to change"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /ideas/{id}/ [put]
func (h *IdeaHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id", errors.ErrIdeaNotFound)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.ideas.Authorize(ctx, id, userID); err != nil {
		return respondError(err)
	}

	var env UpdatedIdeaEnvelope
	if err := c.Bind(&env); err != nil {
		return err
	}
	var in *service.IdeaInput
	if env.UpdatedIdea != nil {
		in = &service.IdeaInput{Title: env.UpdatedIdea.Title, Text: env.UpdatedIdea.Text}
	}

	idea, err := h.ideas.Update(ctx, id, userID, in)
	if err != nil {
		return respondError(err)
	}

	return success(c, http.StatusOK, "The Idea %s updated successfully", idea.Title)
}

// Delete godoc
// @Summary Delete your idea and its likes
// @Tags ideas
// @Produce json
// @Security BearerAuth
// @Param id path int true "Idea ID"
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /ideas/{id}/ [delete]
func (h *IdeaHandler) Delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id", errors.ErrIdeaNotFound)
	if err != nil {
		return err
	}

	if err := h.ideas.Delete(c.Request().Context(), id, userID); err != nil {
		return respondError(err)
	}

	return success(c, http.StatusOK, "The Idea with id=%d disappeared", id)
}
