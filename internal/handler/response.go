package handler

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"ideasplace/internal/auth"
	"ideasplace/internal/errors"
)

// APIPrefix is where the JSON API is mounted.
const APIPrefix = "/api/v1"

const msgNoData = "No data provided"

// SuccessResponse is the body of successful write operations.
type SuccessResponse struct {
	Success string `json:"success"`
}

// respondError converts a service error into an echo error carrying the
// mapped status and body.
func respondError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.Body).SetInternal(err)
}

func noDataError() error {
	return respondError(errors.NewValidationError(errors.NonFieldErrors, msgNoData))
}

// bindAndValidate binds the request body into req and runs struct validation.
// Validation failures are reported per field.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return respondError(fieldErrors(err))
	}
	return nil
}

func fieldErrors(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewValidationError(errors.NonFieldErrors, err.Error())
	}

	verr := &errors.ValidationError{}
	for _, fe := range validationErrs {
		switch fe.Tag() {
		case "required":
			verr.Add(fe.Field(), "This field is required.")
		case "max":
			verr.Add(fe.Field(), fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param()))
		default:
			verr.Add(fe.Field(), "Invalid value.")
		}
	}
	return verr
}

// parseID reads a positive numeric path parameter. Anything else is treated
// as an unknown resource.
func parseID(c echo.Context, name string, notFound error) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, respondError(notFound)
	}
	return uint(id), nil
}

// currentUserID returns the id of the authenticated caller.
func currentUserID(c echo.Context) (uint, error) {
	claims, ok := c.Get("user").(*auth.Claims)
	if !ok || claims == nil {
		return 0, respondError(errors.ErrUnauthorized)
	}
	return claims.UserID, nil
}

func absoluteURL(c echo.Context, path string) string {
	return c.Scheme() + "://" + c.Request().Host + path
}

// UserURL is the absolute hyperlink of a user resource.
func UserURL(c echo.Context, id uint) string {
	return absoluteURL(c, fmt.Sprintf("%s/users/%d/", APIPrefix, id))
}

// IdeaURL is the absolute hyperlink of an idea resource.
func IdeaURL(c echo.Context, id uint) string {
	return absoluteURL(c, fmt.Sprintf("%s/ideas/%d/", APIPrefix, id))
}

// authorURL renders a cleared author as null.
func authorURL(c echo.Context, authorID *uint) *string {
	if authorID == nil {
		return nil
	}
	url := UserURL(c, *authorID)
	return &url
}

func success(c echo.Context, status int, format string, args ...interface{}) error {
	return c.JSON(status, SuccessResponse{Success: fmt.Sprintf(format, args...)})
}
