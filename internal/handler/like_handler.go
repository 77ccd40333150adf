package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ideasplace/internal/errors"
	"ideasplace/internal/service"
)

// LikeHandler handles the like/unlike endpoint.
type LikeHandler struct {
	likes service.LikeService
}

// NewLikeHandler creates a new like handler.
func NewLikeHandler(likes service.LikeService) *LikeHandler {
	return &LikeHandler{likes: likes}
}

// LikesStatusRequest holds the flags to set. Omitted flags keep their value.
type LikesStatusRequest struct {
	IsLike   *bool `json:"is_like"`
	IsUnlike *bool `json:"is_unlike"`
}

// LikesStatusEnvelope wraps a like status request.
type LikesStatusEnvelope struct {
	LikesStatus *LikesStatusRequest `json:"likes_status"`
}

// AddLikes godoc
// @Summary Set your like/unlike status on an idea
// @Tags ideas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Idea ID"
// @Param request body LikesStatusEnvelope true "Like flags"
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /ideas/{id}/add-likes/ [post]
func (h *LikeHandler) AddLikes(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id", errors.ErrIdeaNotFound)
	if err != nil {
		return err
	}

	var env LikesStatusEnvelope
	if err := c.Bind(&env); err != nil {
		return err
	}
	in := service.LikeInput{}
	if env.LikesStatus != nil {
		in.IsLike = env.LikesStatus.IsLike
		in.IsUnlike = env.LikesStatus.IsUnlike
	}

	if _, err := h.likes.SetStatus(c.Request().Context(), id, userID, in); err != nil {
		return respondError(err)
	}

	return success(c, http.StatusOK, "Likes status for idea`s id=%d saved", id)
}
