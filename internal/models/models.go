package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Kind string

const (
	KindVideoLike    Kind = "video_like"
	KindCommentLike  Kind = "comment_like"
	KindTweetLike    Kind = "tweet_like"
	KindSubscription Kind = "subscription"
)

func (k Kind) Valid() bool {
	switch k {
	case KindVideoLike, KindCommentLike, KindTweetLike, KindSubscription:
		return true
	}
	return false
}

type Account struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey"               json:"id"`
	Username         string      `gorm:"uniqueIndex;not null"               json:"username"`
	Email            string      `gorm:"uniqueIndex;not null"               json:"email"`
	FullName         string      `gorm:"not null"                           json:"full_name"`
	PasswordHash     string      `gorm:"not null"                           json:"-"`
	RefreshTokenHash *string     `gorm:"index"                              json:"-"`
	WatchHistory     []uuid.UUID `gorm:"serializer:json;type:text"          json:"watch_history"`
	CreatedAt        time.Time   `                                          json:"created_at"`
	UpdatedAt        time.Time   `                                          json:"updated_at"`
}

func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Relation exists while its toggle is on.
type Relation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                          json:"id"`
	ActorID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_relation_key,priority:1" json:"actor_id"`
	TargetID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_relation_key,priority:2;index:idx_relation_target,priority:1" json:"target_id"`
	Kind      Kind      `gorm:"type:varchar(32);not null;uniqueIndex:idx_relation_key,priority:3;index:idx_relation_target,priority:2" json:"kind"`
	CreatedAt time.Time `                                                     json:"created_at"`
}

func (r *Relation) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
