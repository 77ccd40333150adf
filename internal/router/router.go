package router

import (
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"ideasplace/internal/auth"
	"ideasplace/internal/errors"
	"ideasplace/internal/handler"
	appmw "ideasplace/internal/middleware"
)

const (
	detailInvalidToken = "Given token not valid for any token type"
	bearerScheme       = "bearer"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	logger *slog.Logger,
	tokens auth.TokenIssuer,
	userHandler *handler.UserHandler,
	authHandler *handler.AuthHandler,
	ideaHandler *handler.IdeaHandler,
	likeHandler *handler.LikeHandler,
	pageHandler *handler.ActivationPageHandler,
) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(logger)
	e.Validator = NewValidator()

	e.Use(middleware.RequestID())
	e.Use(appmw.RequestLogger(logger))
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/activation/:uid/:token/", pageHandler.Show)

	api := e.Group(handler.APIPrefix)

	// Public routes
	api.POST("/users/signup/", userHandler.Signup)
	api.POST("/users/activate/", userHandler.Activate)
	api.POST("/token/", authHandler.Login)
	api.POST("/token/refresh/", authHandler.Refresh)
	api.POST("/token/logout/", authHandler.Logout)

	// Secured routes (require an access token)
	secured := api.Group("", JWTMiddleware(tokens))

	secured.GET("/users/:id/", userHandler.GetUser)

	secured.GET("/ideas/", ideaHandler.List)
	secured.POST("/ideas/", ideaHandler.Create)
	secured.GET("/ideas/:id/", ideaHandler.Get)
	secured.PUT("/ideas/:id/", ideaHandler.Update)
	secured.DELETE("/ideas/:id/", ideaHandler.Delete)
	secured.POST("/ideas/:id/add-likes/", likeHandler.AddLikes)
}

// JWTMiddleware authenticates requests with bearer access tokens. The
// validated *auth.Claims are stored under the "user" context key.
func JWTMiddleware(tokens auth.TokenIssuer) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookupFuncs: []middleware.ValuesExtractor{bearerToken},
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := tokens.ValidateToken(token)
			if err != nil {
				return nil, err
			}
			if claims.TokenType != auth.TokenTypeAccess {
				return nil, errors.ErrUnauthorized
			}
			return claims, nil
		},
		SuccessHandler: func(c echo.Context) {
			if claims, ok := c.Get("user").(*auth.Claims); ok {
				c.Set(appmw.UserIDKey, claims.UserID)
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Detail: "Authentication credentials were not provided.",
					Code:   "NOT_AUTHENTICATED",
				}).SetInternal(err)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Detail: detailInvalidToken,
				Code:   "TOKEN_NOT_VALID",
			}).SetInternal(err)
		},
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>",
// tolerating extra whitespace and any casing of the scheme.
func bearerToken(c echo.Context) ([]string, error) {
	fields := strings.Fields(c.Request().Header.Get(echo.HeaderAuthorization))
	if len(fields) != 2 || strings.ToLower(fields[0]) != bearerScheme {
		return nil, echojwt.ErrJWTMissing
	}
	return []string{fields[1]}, nil
}

// NewHTTPErrorHandler renders every error as a JSON body: string messages
// become {"detail": ...}, structured bodies are written as they are.
func NewHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			httpErr := errors.MapErrorToHTTP(err)
			he = echo.NewHTTPError(httpErr.StatusCode, httpErr.Body).SetInternal(err)
		}

		if he.Code >= http.StatusInternalServerError {
			cause := err
			if he.Internal != nil {
				cause = he.Internal
			}
			logger.Error("request error",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.String("error", cause.Error()),
			)
		}

		var body interface{}
		switch msg := he.Message.(type) {
		case string:
			body = errors.ErrorResponse{Detail: msg}
		case error:
			body = errors.ErrorResponse{Detail: msg.Error()}
		default:
			body = msg
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(he.Code)
		} else {
			writeErr = c.JSON(he.Code, body)
		}
		if writeErr != nil {
			logger.Error("write error response", slog.String("error", writeErr.Error()))
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a validator that reports fields by their JSON name.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
