package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationFollow  = "follow"
	NotificationComment = "comment"

	MessageStartedFollowing = "started following you"
	MessageAddedComment     = "added comment to your post"
)

type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_notifications_user,priority:1" json:"user_id"` // recipient
	ActorID   uuid.UUID  `gorm:"type:uuid;not null" json:"actor_id"`
	PostID    *uuid.UUID `gorm:"type:uuid" json:"post_id,omitempty"`
	CommentID *uuid.UUID `gorm:"type:uuid" json:"comment_id,omitempty"`
	Type      string     `gorm:"size:20;not null" json:"type"`
	Message   string     `gorm:"size:255;not null" json:"message"`
	IsRead    bool       `gorm:"default:false;index:idx_notifications_user,priority:2" json:"is_read"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`

	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Actor   *User    `gorm:"foreignKey:ActorID;constraint:OnDelete:CASCADE" json:"actor,omitempty"`
	Post    *Post    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Comment *Comment `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
