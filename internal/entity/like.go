package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReferencePost    = "post"
	ReferenceComment = "comment"
)

// Like is one member of the liking-users set of a post or a comment.
type Like struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_likes_unique,priority:1" json:"user_id"`
	User          User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ReferenceID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_likes_unique,priority:2;index:idx_likes_lookup,priority:1" json:"reference_id"`
	ReferenceType string    `gorm:"size:20;not null;uniqueIndex:idx_likes_unique,priority:3;index:idx_likes_lookup,priority:2" json:"reference_type"` // 'post', 'comment'
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (l *Like) TableName() string {
	return "likes"
}

func (l *Like) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}
