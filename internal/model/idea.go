package model

import "time"

const (
	// DefaultIdeaTitle is stored when an idea is created without a title.
	DefaultIdeaTitle = "My New Ideas TITLE"
	// DefaultIdeaText is stored when an idea is created without a body.
	DefaultIdeaText = "My New Idea about ..."
)

// Idea is a titled text authored by a user. The author reference is cleared by
// the database when the user is removed.
type Idea struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Title         string    `json:"i_title" gorm:"column:i_title;size:255;not null"`
	Text          string    `json:"i_text" gorm:"column:i_text;type:text;not null"`
	AuthorID      *uint     `json:"author_id" gorm:"index"`
	DatePublished time.Time `json:"date_published" gorm:"not null"`

	// Relations
	Author *User  `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL"`
	Likes  []Like `json:"-" gorm:"foreignKey:IdeaID;constraint:OnDelete:CASCADE"`
}

// IsAuthoredBy reports whether userID is the stored author of the idea.
func (i *Idea) IsAuthoredBy(userID uint) bool {
	return i.AuthorID != nil && *i.AuthorID == userID
}
