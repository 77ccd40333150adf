// Package middleware holds the structured logger and the echo request logger.
package middleware

import (
	"log/slog"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// UserIDKey is the echo context key holding the authenticated user id.
const UserIDKey = "userID"

// NewLogger builds a JSON logger writing to stdout at the given level.
// Unknown levels fall back to info.
func NewLogger(level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// ParseLevel maps a textual level to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestLogger logs one line per request through logger.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURIPath:   true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []any{
				slog.Int("status", v.Status),
				slog.String("method", v.Method),
				slog.String("path", v.URIPath),
				slog.String("ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
				slog.String("user_agent", v.UserAgent),
			}

			if v.RequestID != "" {
				fields = append(fields, slog.String("request_id", v.RequestID))
			}
			if uid := c.Get(UserIDKey); uid != nil {
				fields = append(fields, slog.Any("user_id", uid))
			}

			if v.Error != nil {
				fields = append(fields, slog.String("error", v.Error.Error()))
				logger.Error("request failed", fields...)
			} else {
				logger.Info("request processed", fields...)
			}
			return nil
		},
	})
}
