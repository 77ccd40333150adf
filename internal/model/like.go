package model

import "time"

// Like holds one user's like/unlike state for an idea. The two flags are
// independent; a record may carry both or neither.
// The combination of IdeaID and UserID is unique.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	IdeaID    uint      `json:"idea_id" gorm:"not null;uniqueIndex:idx_likes_idea_user"`
	UserID    *uint     `json:"user_id" gorm:"uniqueIndex:idx_likes_idea_user"`
	IsLike    bool      `json:"is_like" gorm:"not null"`
	IsUnlike  bool      `json:"is_unlike" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

// LikeTotals aggregates the like records of a single idea.
type LikeTotals struct {
	OverallLikes   int64 `json:"overall_likes"`
	OverallUnlikes int64 `json:"overall_unlikes"`
}

// LikeSummary is the per-requester view embedded in idea details.
type LikeSummary struct {
	IsLike         bool  `json:"is_like"`
	IsUnlike       bool  `json:"is_unlike"`
	OverallLikes   int64 `json:"overall_likes"`
	OverallUnlikes int64 `json:"overall_unlikes"`
}
