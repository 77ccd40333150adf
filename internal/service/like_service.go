package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"ideasplace/internal/errors"
	"ideasplace/internal/metrics"
	"ideasplace/internal/model"
	"ideasplace/internal/repository"
)

// LikeInput carries the like flags. Nil means the flag was not supplied.
type LikeInput struct {
	IsLike   *bool
	IsUnlike *bool
}

// LikeService records like/unlike state and aggregates it per idea.
type LikeService interface {
	SetStatus(ctx context.Context, ideaID, userID uint, in LikeInput) (*model.Like, error)
	StatusFor(ctx context.Context, ideaID, userID uint) (*model.Like, error)
	Aggregate(ctx context.Context, ideaID uint) (model.LikeTotals, error)
	Summary(ctx context.Context, ideaID, userID uint) (model.LikeSummary, error)
}

type likeService struct {
	likes repository.LikeRepository
	ideas repository.IdeaRepository
}

// NewLikeService creates a new like service.
func NewLikeService(likes repository.LikeRepository, ideas repository.IdeaRepository) LikeService {
	return &likeService{likes: likes, ideas: ideas}
}

// SetStatus upserts the (idea, user) record. A new record takes false for
// absent flags; an existing one only changes the supplied flags.
func (s *likeService) SetStatus(ctx context.Context, ideaID, userID uint, in LikeInput) (*model.Like, error) {
	if _, err := s.ideas.FindByID(ctx, ideaID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrIdeaNotFound
		}
		return nil, fmt.Errorf("find idea: %w", err)
	}

	like := &model.Like{IdeaID: ideaID, UserID: &userID}
	var columns []string
	if in.IsLike != nil {
		like.IsLike = *in.IsLike
		columns = append(columns, "is_like")
	}
	if in.IsUnlike != nil {
		like.IsUnlike = *in.IsUnlike
		columns = append(columns, "is_unlike")
	}

	if err := s.likes.Upsert(ctx, like, columns); err != nil {
		return nil, fmt.Errorf("upsert like: %w", err)
	}

	stored, err := s.likes.FindByIdeaAndUser(ctx, ideaID, userID)
	if err != nil {
		return nil, fmt.Errorf("reload like: %w", err)
	}

	metrics.LikeUpdatesTotal.Inc()
	return stored, nil
}

// StatusFor returns the user's record, or an unsaved false/false record when
// the user never reacted to the idea.
func (s *likeService) StatusFor(ctx context.Context, ideaID, userID uint) (*model.Like, error) {
	like, err := s.likes.FindByIdeaAndUser(ctx, ideaID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.Like{IdeaID: ideaID, UserID: &userID}, nil
		}
		return nil, fmt.Errorf("find like: %w", err)
	}
	return like, nil
}

func (s *likeService) Aggregate(ctx context.Context, ideaID uint) (model.LikeTotals, error) {
	totals, err := s.likes.Totals(ctx, ideaID)
	if err != nil {
		return model.LikeTotals{}, fmt.Errorf("aggregate likes: %w", err)
	}
	return totals, nil
}

// Summary combines the requester's status with the idea totals.
func (s *likeService) Summary(ctx context.Context, ideaID, userID uint) (model.LikeSummary, error) {
	status, err := s.StatusFor(ctx, ideaID, userID)
	if err != nil {
		return model.LikeSummary{}, err
	}
	totals, err := s.Aggregate(ctx, ideaID)
	if err != nil {
		return model.LikeSummary{}, err
	}
	return model.LikeSummary{
		IsLike:         status.IsLike,
		IsUnlike:       status.IsUnlike,
		OverallLikes:   totals.OverallLikes,
		OverallUnlikes: totals.OverallUnlikes,
	}, nil
}
