package service

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"ideasplace/internal/auth"
	"ideasplace/internal/cache"
	"ideasplace/internal/email"
	"ideasplace/internal/errors"
	"ideasplace/internal/metrics"
	"ideasplace/internal/model"
	"ideasplace/internal/repository"
)

// ActivationService gates account usability behind email confirmation.
type ActivationService interface {
	Issue(user *model.User) string
	SendActivation(ctx context.Context, user *model.User) error
	Verify(ctx context.Context, uid, token string) (*model.User, error)
	Activate(ctx context.Context, uid, token string) (*model.User, error)
}

type activationService struct {
	repo    repository.UserRepository
	tokens  auth.ActivationTokens
	mailer  email.Mailer
	cache   *cache.Client
	siteURL string
	logger  *slog.Logger
}

// NewActivationService creates a new activation service. Links in outgoing
// mail are rooted at siteURL.
func NewActivationService(
	repo repository.UserRepository,
	tokens auth.ActivationTokens,
	mailer email.Mailer,
	cache *cache.Client,
	siteURL string,
	logger *slog.Logger,
) ActivationService {
	return &activationService{
		repo:    repo,
		tokens:  tokens,
		mailer:  mailer,
		cache:   cache,
		siteURL: siteURL,
		logger:  logger,
	}
}

func (s *activationService) Issue(user *model.User) string {
	return s.tokens.Make(user)
}

// SendActivation mails the confirmation link to the user's address.
func (s *activationService) SendActivation(ctx context.Context, user *model.User) error {
	msg, err := email.NewActivationMessage(s.siteURL, user.Username, user.Email, auth.EncodeUID(user.ID), s.Issue(user))
	if err != nil {
		return fmt.Errorf("compose activation mail: %w", err)
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		metrics.ActivationMailsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		s.logger.Error("activation mail failed", slog.Uint64("user_id", uint64(user.ID)), slog.String("error", err.Error()))
		return fmt.Errorf("send activation mail: %w", err)
	}

	metrics.ActivationMailsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return nil
}

// Verify resolves uid to a user and checks token against it. An already
// active user is reported before the token is looked at, so a replayed link
// is distinguishable from a forged one.
func (s *activationService) Verify(ctx context.Context, uid, token string) (*model.User, error) {
	id, err := auth.DecodeUID(uid)
	if err != nil {
		return nil, errors.ErrInvalidUID
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrInvalidUID
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if user.IsActive {
		return nil, errors.ErrAlreadyActive
	}
	if !s.tokens.Check(user, token) {
		return nil, errors.ErrInvalidToken
	}
	return user, nil
}

// Activate verifies the pair and marks the user active.
func (s *activationService) Activate(ctx context.Context, uid, token string) (*model.User, error) {
	user, err := s.Verify(ctx, uid, token)
	if err != nil {
		metrics.ActivationsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, err
	}

	activated, err := s.repo.Activate(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("activate user: %w", err)
	}
	if !activated {
		// lost a race with a concurrent activation
		metrics.ActivationsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, errors.ErrAlreadyActive
	}

	user.IsActive = true
	_ = s.cache.Delete(ctx, userCacheKey(user.ID))
	metrics.ActivationsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("user activated", slog.Uint64("user_id", uint64(user.ID)))
	return user, nil
}
