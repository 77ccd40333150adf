package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"ideasplace/internal/errors"
	"ideasplace/internal/metrics"
	"ideasplace/internal/model"
	"ideasplace/internal/repository"
)

const (
	maxTitleLength = 255
	msgNoData      = "No data provided"
)

// IdeaInput carries idea fields. Nil means the field was not supplied.
type IdeaInput struct {
	Title *string
	Text  *string
}

// IdeaService handles idea CRUD with author-only writes.
type IdeaService interface {
	Create(ctx context.Context, authorID uint, in IdeaInput) (*model.Idea, error)
	Get(ctx context.Context, id uint) (*model.Idea, error)
	List(ctx context.Context) ([]model.Idea, error)
	Update(ctx context.Context, id, requesterID uint, in *IdeaInput) (*model.Idea, error)
	// Authorize returns the idea when requesterID may change it.
	Authorize(ctx context.Context, id, requesterID uint) (*model.Idea, error)
	Delete(ctx context.Context, id, requesterID uint) error
}

type ideaService struct {
	repo   repository.IdeaRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewIdeaService creates a new idea service.
func NewIdeaService(repo repository.IdeaRepository, logger *slog.Logger) IdeaService {
	return &ideaService{repo: repo, logger: logger, now: time.Now}
}

// Create stores a new idea by authorID. Omitted fields get the defaults.
func (s *ideaService) Create(ctx context.Context, authorID uint, in IdeaInput) (*model.Idea, error) {
	if err := validateIdea(in); err != nil {
		return nil, err
	}

	idea := &model.Idea{
		Title:         model.DefaultIdeaTitle,
		Text:          model.DefaultIdeaText,
		AuthorID:      &authorID,
		DatePublished: s.now(),
	}
	if in.Title != nil {
		idea.Title = *in.Title
	}
	if in.Text != nil {
		idea.Text = *in.Text
	}

	if err := s.repo.Create(ctx, idea); err != nil {
		return nil, fmt.Errorf("create idea: %w", err)
	}

	metrics.IdeaOperationsTotal.WithLabelValues("create").Inc()
	s.logger.Info("idea created", slog.Uint64("idea_id", uint64(idea.ID)), slog.Uint64("author_id", uint64(authorID)))
	return idea, nil
}

func (s *ideaService) Get(ctx context.Context, id uint) (*model.Idea, error) {
	idea, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrIdeaNotFound
		}
		return nil, fmt.Errorf("find idea: %w", err)
	}
	return idea, nil
}

func (s *ideaService) List(ctx context.Context) ([]model.Idea, error) {
	ideas, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	return ideas, nil
}

// Update applies the supplied fields when requesterID is the author. A nil
// input is rejected once ownership is established.
func (s *ideaService) Update(ctx context.Context, id, requesterID uint, in *IdeaInput) (*model.Idea, error) {
	idea, err := s.Authorize(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, errors.NewValidationError(errors.NonFieldErrors, msgNoData)
	}
	if err := validateIdea(*in); err != nil {
		return nil, err
	}

	if in.Title != nil {
		idea.Title = *in.Title
	}
	if in.Text != nil {
		idea.Text = *in.Text
	}

	if err := s.repo.UpdateContent(ctx, idea); err != nil {
		return nil, fmt.Errorf("update idea: %w", err)
	}

	metrics.IdeaOperationsTotal.WithLabelValues("update").Inc()
	return idea, nil
}

// Delete removes the idea and its likes when requesterID is the author.
func (s *ideaService) Delete(ctx context.Context, id, requesterID uint) error {
	if _, err := s.Authorize(ctx, id, requesterID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrIdeaNotFound
		}
		return fmt.Errorf("delete idea: %w", err)
	}

	metrics.IdeaOperationsTotal.WithLabelValues("delete").Inc()
	s.logger.Info("idea deleted", slog.Uint64("idea_id", uint64(id)), slog.Uint64("author_id", uint64(requesterID)))
	return nil
}

func (s *ideaService) Authorize(ctx context.Context, id, requesterID uint) (*model.Idea, error) {
	idea, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !idea.IsAuthoredBy(requesterID) {
		return nil, errors.ErrForbidden
	}
	return idea, nil
}

func validateIdea(in IdeaInput) error {
	verr := &errors.ValidationError{}
	if in.Title != nil {
		switch {
		case strings.TrimSpace(*in.Title) == "":
			verr.Add("i_title", msgBlank)
		case len([]rune(*in.Title)) > maxTitleLength:
			verr.Add("i_title", fmt.Sprintf("Ensure this field has no more than %d characters.", maxTitleLength))
		}
	}
	if in.Text != nil && strings.TrimSpace(*in.Text) == "" {
		verr.Add("i_text", msgBlank)
	}
	return verr.OrNil()
}
