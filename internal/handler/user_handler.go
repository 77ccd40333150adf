package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ideasplace/internal/errors"
	"ideasplace/internal/service"
)

// UserHandler handles registration, activation and profile endpoints.
type UserHandler struct {
	users      service.UserService
	activation service.ActivationService
}

// NewUserHandler creates a user handler.
func NewUserHandler(users service.UserService, activation service.ActivationService) *UserHandler {
	return &UserHandler{users: users, activation: activation}
}

// SignupRequest holds the registration fields.
type SignupRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
}

// SignupEnvelope wraps a registration request.
type SignupEnvelope struct {
	NewUser *SignupRequest `json:"new_user"`
}

// ActivationRequest holds an activation link's parameters.
type ActivationRequest struct {
	UID   string `json:"uid" validate:"required"`
	Token string `json:"token" validate:"required"`
}

// ActivationEnvelope wraps an activation request.
type ActivationEnvelope struct {
	Activation *ActivationRequest `json:"activation"`
}

// AuthorProfile is a user's hyperlinked profile.
type AuthorProfile struct {
	Username string   `json:"username"`
	Email    *string  `json:"email,omitempty"`
	Ideas    []string `json:"ideas"`
}

// ProfileResponse wraps a profile.
type ProfileResponse struct {
	Author AuthorProfile `json:"author"`
}

// Signup godoc
// @Summary Register a new user
// @Description The account stays inactive until the emailed link is followed.
// @Tags users
// @Accept json
// @Produce json
// @Param request body SignupEnvelope true "Registration data"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} map[string][]string
// @Router /users/signup/ [post]
func (h *UserHandler) Signup(c echo.Context) error {
	var env SignupEnvelope
	if err := c.Bind(&env); err != nil {
		return err
	}
	if env.NewUser == nil {
		return noDataError()
	}

	user, err := h.users.Signup(c.Request().Context(), service.SignupInput{
		Username:  env.NewUser.Username,
		Email:     env.NewUser.Email,
		Password:  env.NewUser.Password,
		FirstName: env.NewUser.FirstName,
		LastName:  env.NewUser.LastName,
	})
	if err != nil {
		return respondError(err)
	}

	return success(c, http.StatusCreated, "User %s created successfully.", user.Username)
}

// Activate godoc
// @Summary Activate an account
// @Tags users
// @Accept json
// @Produce json
// @Param request body ActivationEnvelope true "uid and token from the activation link"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} map[string][]string
// @Failure 403 {object} errors.ErrorResponse
// @Router /users/activate/ [post]
func (h *UserHandler) Activate(c echo.Context) error {
	var env ActivationEnvelope
	if err := c.Bind(&env); err != nil {
		return err
	}
	if env.Activation == nil {
		return noDataError()
	}
	if err := c.Validate(env.Activation); err != nil {
		return respondError(fieldErrors(err))
	}

	user, err := h.activation.Activate(c.Request().Context(), env.Activation.UID, env.Activation.Token)
	if err != nil {
		return respondError(err)
	}

	return success(c, http.StatusOK, "User %s successfully activated", user.Username)
}

// GetUser godoc
// @Summary Get a user's profile
// @Description Email is included only when requesting your own profile.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/ [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	requesterID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id", errors.ErrUserNotFound)
	if err != nil {
		return err
	}

	profile, err := h.users.Profile(c.Request().Context(), id, requesterID)
	if err != nil {
		return respondError(err)
	}

	ideas := make([]string, 0, len(profile.IdeaIDs))
	for _, ideaID := range profile.IdeaIDs {
		ideas = append(ideas, IdeaURL(c, ideaID))
	}

	return c.JSON(http.StatusOK, ProfileResponse{Author: AuthorProfile{
		Username: profile.Username,
		Email:    profile.Email,
		Ideas:    ideas,
	}})
}
