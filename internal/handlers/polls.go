package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/societyvoice/backend/internal/models"
)

type PollHandler struct {
	db *gorm.DB
}

func NewPollHandler(db *gorm.DB) *PollHandler {
	return &PollHandler{db: db}
}

// optionTally is one row of the grouped vote count.
type optionTally struct {
	PollID      uuid.UUID
	OptionIndex int
	Count       int
}

func (h *PollHandler) CreatePoll(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.CreatePollRequest
	if !bindJSON(c, &input) {
		return
	}

	question := strings.TrimSpace(input.Question)
	options := make([]string, 0, len(input.Options))
	for _, option := range input.Options {
		options = append(options, strings.TrimSpace(option))
	}

	poll := models.Poll{
		UserID:   user.ID,
		Question: question,
		Options:  options,
		IsActive: true,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&poll).Error; err != nil {
		respondError(c, err, "Create poll error")
		return
	}

	log.Printf("✅ New poll created with ID: %s", poll.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Poll created successfully",
		"id":      poll.ID,
		"poll":    poll,
	})
}

// GetPolls returns every poll, newest first, with per-option tallies and the
// caller's current choice (-1 when they have not voted).
func (h *PollHandler) GetPolls(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var polls []models.Poll
	if err := db.Preload("User").Order("created_at desc").Find(&polls).Error; err != nil {
		respondError(c, err, "Get polls error")
		return
	}

	responses := make([]models.PollView, 0, len(polls))
	if len(polls) == 0 {
		c.JSON(http.StatusOK, responses)
		return
	}

	ids := make([]uuid.UUID, len(polls))
	for i, poll := range polls {
		ids[i] = poll.ID
	}

	var tallies []optionTally
	err := db.Model(&models.PollVote{}).
		Select("poll_id, option_index, count(*) AS count").
		Where("poll_id IN ?", ids).
		Group("poll_id, option_index").
		Scan(&tallies).Error
	if err != nil {
		respondError(c, err, "Get polls error")
		return
	}

	counts := make(map[uuid.UUID]map[int]int, len(polls))
	for _, t := range tallies {
		if counts[t.PollID] == nil {
			counts[t.PollID] = map[int]int{}
		}
		counts[t.PollID][t.OptionIndex] = t.Count
	}

	var myVotes []models.PollVote
	if err := db.Where("user_id = ? AND poll_id IN ?", user.ID, ids).Find(&myVotes).Error; err != nil {
		respondError(c, err, "Get polls error")
		return
	}
	voted := make(map[uuid.UUID]int, len(myVotes))
	for _, v := range myVotes {
		voted[v.PollID] = v.OptionIndex
	}

	for _, poll := range polls {
		view := models.PollView{
			Poll:           poll,
			CreatedByName:  poll.User.Name,
			Results:        make([]models.OptionResult, len(poll.Options)),
			UserVotedIndex: -1,
		}
		for i, option := range poll.Options {
			count := counts[poll.ID][i]
			view.Results[i] = models.OptionResult{Option: option, Count: count}
			view.TotalVotes += count
		}
		if idx, ok := voted[poll.ID]; ok {
			view.UserVotedIndex = idx
		}
		responses = append(responses, view)
	}

	c.JSON(http.StatusOK, responses)
}

// VotePoll records the caller's choice. Voting again replaces the earlier vote.
func (h *PollHandler) VotePoll(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.VotePollRequest
	if !bindJSON(c, &input) {
		return
	}
	optionIndex := *input.OptionIndex

	var poll models.Poll
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		// Held until commit so close_poll cannot interleave with the vote.
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).First(&poll, "id = ?", input.PollID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Poll not found")
		}
		if err != nil {
			return err
		}

		if !poll.IsActive {
			return conflict("Poll is closed")
		}
		if optionIndex < 0 || optionIndex >= len(poll.Options) {
			return badRequest("Invalid option index")
		}

		vote := models.PollVote{
			PollID:      poll.ID,
			UserID:      user.ID,
			OptionIndex: optionIndex,
			VotedAt:     time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "poll_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"option_index", "voted_at"}),
		}).Create(&vote).Error
	})
	if err != nil {
		respondError(c, err, "Vote poll error")
		return
	}

	log.Printf("✅ User %s voted on poll %s with option %d", user.ID, poll.ID, optionIndex)
	c.JSON(http.StatusOK, gin.H{
		"message":        "Vote recorded successfully",
		"new_vote_index": optionIndex,
	})
}

// ClosePoll stops a poll from accepting further votes.
func (h *PollHandler) ClosePoll(c *gin.Context) {
	var input models.PollIDRequest
	if !bindJSON(c, &input) {
		return
	}

	result := h.db.WithContext(c.Request.Context()).
		Model(&models.Poll{}).
		Where("id = ?", input.PollID).
		Update("is_active", false)
	if result.Error != nil {
		respondError(c, result.Error, "Close poll error")
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Poll not found"})
		return
	}

	log.Printf("✅ Poll ID %s closed by admin", input.PollID)
	c.JSON(http.StatusOK, gin.H{"message": "Poll closed successfully"})
}

// DeletePoll removes a poll and all of its votes.
func (h *PollHandler) DeletePoll(c *gin.Context) {
	var input models.PollIDRequest
	if !bindJSON(c, &input) {
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("poll_id = ?", input.PollID).Delete(&models.PollVote{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Poll{}, "id = ?", input.PollID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return notFound("Poll not found")
		}
		return nil
	})
	if err != nil {
		respondError(c, err, "Delete poll error")
		return
	}

	log.Printf("✅ Poll ID %s and associated votes deleted by admin", input.PollID)
	c.JSON(http.StatusOK, gin.H{"message": "Poll deleted successfully"})
}
