package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"ideasplace/internal/errors"
	"ideasplace/internal/service"
)

//go:embed templates/activation.html
var templateFS embed.FS

var (
	uidPattern   = regexp.MustCompile(`^[0-9A-Za-z_\-]+$`)
	tokenPattern = regexp.MustCompile(`^[0-9A-Za-z]{1,13}-[0-9A-Za-z]{1,20}$`)

	activationPage = template.Must(template.ParseFS(templateFS, "templates/activation.html"))
)

// ActivationPageHandler renders the page behind emailed activation links.
type ActivationPageHandler struct {
	activation service.ActivationService
	logger     *slog.Logger
}

// NewActivationPageHandler creates the activation page handler.
func NewActivationPageHandler(activation service.ActivationService, logger *slog.Logger) *ActivationPageHandler {
	return &ActivationPageHandler{activation: activation, logger: logger}
}

// Show activates the account named by the link and renders the outcome.
func (h *ActivationPageHandler) Show(c echo.Context) error {
	uid, token := c.Param("uid"), c.Param("token")
	if !uidPattern.MatchString(uid) || !tokenPattern.MatchString(token) {
		return echo.NewHTTPError(http.StatusNotFound, "Not found.")
	}

	var message string
	user, err := h.activation.Activate(c.Request().Context(), uid, token)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		if httpErr.StatusCode >= http.StatusInternalServerError {
			h.logger.Error("activation page failed", slog.String("error", err.Error()))
		}
		message = errors.Message(httpErr)
	} else {
		message = "User " + user.Username + " successfully activated"
	}

	var buf bytes.Buffer
	if err := activationPage.Execute(&buf, struct{ Message string }{message}); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
