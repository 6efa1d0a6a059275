package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Poll struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	Question  string         `gorm:"not null" json:"question"`
	Options   pq.StringArray `gorm:"type:text[];not null" json:"options"`
	IsActive  bool           `gorm:"not null" json:"is_active"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (p *Poll) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PollVote tracks a single user's choice on a poll. Re-voting overwrites the
// row for the (poll, user) pair.
type PollVote struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PollID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_poll_vote_pair" json:"poll_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_poll_vote_pair;index" json:"user_id"`
	OptionIndex int       `gorm:"not null" json:"option_index"`
	VotedAt     time.Time `gorm:"not null" json:"voted_at"`
}

func (v *PollVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

type CreatePollRequest struct {
	Question string   `json:"question" binding:"required,notblank"`
	Options  []string `json:"options" binding:"required,min=2,dive,notblank"`
}

type VotePollRequest struct {
	PollID      uuid.UUID `json:"poll_id" binding:"required"`
	OptionIndex *int      `json:"option_index" binding:"required"`
}

type PollIDRequest struct {
	PollID uuid.UUID `json:"poll_id" binding:"required"`
}

type OptionResult struct {
	Option string `json:"option"`
	Count  int    `json:"count"`
}

// PollView is a poll with its tallies as returned by the list endpoint.
type PollView struct {
	Poll
	CreatedByName  string         `json:"created_by_name"`
	Results        []OptionResult `json:"results"`
	TotalVotes     int            `json:"total_votes"`
	UserVotedIndex int            `json:"user_voted_index"`
}
