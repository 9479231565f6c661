package models

import "time"

// Post is a text entry written by a single author. PubDate is set once on
// insert and AuthorID never changes after creation.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"autoCreateTime;index;<-:create" json:"pub_date"`
	AuthorID uint      `gorm:"not null;index;<-:create" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID  *uint     `gorm:"index" json:"group_id,omitempty"`
	Group    *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	Image    string    `gorm:"size:255;not null;default:''" json:"image,omitempty"`
	// CommentsCount is computed at query time.
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
}
