package repository

import (
	"context"

	"gorm.io/gorm"

	"ideasplace/internal/model"
)

// IdeaRepository defines idea persistence operations.
type IdeaRepository interface {
	Create(ctx context.Context, idea *model.Idea) error
	FindByID(ctx context.Context, id uint) (*model.Idea, error)
	List(ctx context.Context) ([]model.Idea, error)
	ListIDsByAuthor(ctx context.Context, authorID uint) ([]uint, error)
	UpdateContent(ctx context.Context, idea *model.Idea) error
	// Delete removes the idea together with its likes.
	Delete(ctx context.Context, id uint) error
}

type ideaRepository struct {
	db *gorm.DB
}

// NewIdeaRepository creates a new idea repository.
func NewIdeaRepository(db *gorm.DB) IdeaRepository {
	return &ideaRepository{db: db}
}

// Create creates a new idea.
func (r *ideaRepository) Create(ctx context.Context, idea *model.Idea) error {
	return r.db.WithContext(ctx).Create(idea).Error
}

// FindByID finds an idea by ID.
func (r *ideaRepository) FindByID(ctx context.Context, id uint) (*model.Idea, error) {
	var idea model.Idea
	if err := r.db.WithContext(ctx).First(&idea, id).Error; err != nil {
		return nil, err
	}
	return &idea, nil
}

// List returns every idea in insertion order.
func (r *ideaRepository) List(ctx context.Context) ([]model.Idea, error) {
	var ideas []model.Idea
	if err := r.db.WithContext(ctx).Order("id").Find(&ideas).Error; err != nil {
		return nil, err
	}
	return ideas, nil
}

// ListIDsByAuthor returns the ids of ideas written by authorID.
func (r *ideaRepository) ListIDsByAuthor(ctx context.Context, authorID uint) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).Model(&model.Idea{}).
		Where("author_id = ?", authorID).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateContent persists the title and text of an idea. Author and publish
// date are never written.
func (r *ideaRepository) UpdateContent(ctx context.Context, idea *model.Idea) error {
	return r.db.WithContext(ctx).Model(idea).
		Select("i_title", "i_text").
		Updates(idea).Error
}

// Delete removes the idea and its likes in one transaction.
func (r *ideaRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("idea_id = ?", id).Delete(&model.Like{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Idea{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
