package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ideasplace/internal/model"
)

// LikeRepository defines like persistence operations.
type LikeRepository interface {
	// Upsert inserts like, or on an existing (idea, user) pair overwrites only
	// the listed columns. An empty column list leaves an existing row untouched.
	Upsert(ctx context.Context, like *model.Like, columns []string) error
	FindByIdeaAndUser(ctx context.Context, ideaID, userID uint) (*model.Like, error)
	Totals(ctx context.Context, ideaID uint) (model.LikeTotals, error)
	CountByIdea(ctx context.Context, ideaID uint) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Upsert(ctx context.Context, like *model.Like, columns []string) error {
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "idea_id"}, {Name: "user_id"}},
	}
	if len(columns) == 0 {
		onConflict.DoNothing = true
	} else {
		updates := make([]string, 0, len(columns)+1)
		updates = append(updates, columns...)
		updates = append(updates, "updated_at")
		onConflict.DoUpdates = clause.AssignmentColumns(updates)
	}
	return r.db.WithContext(ctx).Clauses(onConflict).Create(like).Error
}

func (r *likeRepository) FindByIdeaAndUser(ctx context.Context, ideaID, userID uint) (*model.Like, error) {
	var like model.Like
	if err := r.db.WithContext(ctx).
		Where("idea_id = ? AND user_id = ?", ideaID, userID).
		First(&like).Error; err != nil {
		return nil, err
	}
	return &like, nil
}

// Totals counts like and unlike flags of an idea independently.
func (r *likeRepository) Totals(ctx context.Context, ideaID uint) (model.LikeTotals, error) {
	var totals model.LikeTotals
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Select(
			"COALESCE(SUM(CASE WHEN is_like = ? THEN 1 ELSE 0 END), 0) AS overall_likes, "+
				"COALESCE(SUM(CASE WHEN is_unlike = ? THEN 1 ELSE 0 END), 0) AS overall_unlikes",
			true, true,
		).
		Where("idea_id = ?", ideaID).
		Scan(&totals).Error
	return totals, err
}

// CountByIdea returns the number of like records attached to an idea.
func (r *likeRepository) CountByIdea(ctx context.Context, ideaID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).Where("idea_id = ?", ideaID).Count(&n).Error
	return n, err
}
