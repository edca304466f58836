package services

import (
	"errors"
	"log"

	"quliao-chat-system/game"
	"quliao-chat-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MatchService exposes match creation and the leaderboard over REST and
// implements game.MatchStore for the lifecycle manager.
type MatchService struct {
	DB  *gorm.DB
	Dir *game.Directory
}

func NewMatchService(db *gorm.DB) *MatchService {
	return &MatchService{DB: db}
}

// AttachDirectory closes the construction cycle: the directory needs the
// store, the REST surface needs the directory.
func (s *MatchService) AttachDirectory(dir *game.Directory) {
	s.Dir = dir
}

// CreateMatch handles POST /api/snake/create.
func (s *MatchService) CreateMatch(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	var body struct {
		Type string `json:"type"`
	}
	if err := c.BodyParser(&body); err != nil || body.Type == "" {
		body.Type = game.MatchTypeDuel
	}

	sess, err := s.Dir.CreateMatch(body.Type, userID)
	if err != nil {
		if errors.Is(err, game.ErrUnknownMatchType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "unknown match type"})
		}
		log.Printf("[MATCH] create failed for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to create match"})
	}

	return c.JSON(fiber.Map{"success": true, "room_code": sess.Code(), "type": sess.MatchType()})
}

// Leaderboard handles GET /api/snake/leaderboard: top 10 scores descending.
func (s *MatchService) Leaderboard(c *fiber.Ctx) error {
	var scores []models.Score
	if err := s.DB.Preload("User").Order("score DESC").Limit(10).Find(&scores).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "leaderboard query failed"})
	}

	type entry struct {
		Username string `json:"username"`
		Score    int    `json:"score"`
		Avatar   string `json:"avatar"`
		Date     string `json:"date"`
	}
	data := make([]entry, 0, len(scores))
	for _, sc := range scores {
		e := entry{Score: sc.Score, Date: sc.CreatedAt.Format("2006-01-02")}
		e.Avatar = "/static/images/default_avatar.svg"
		if sc.User != nil {
			e.Username = sc.User.DisplayName()
			if sc.User.Avatar != "" {
				e.Avatar = sc.User.Avatar
			}
		}
		data = append(data, e)
	}
	return c.JSON(fiber.Map{"success": true, "data": data})
}

// game.MatchStore implementation.

func (s *MatchService) CodeInUse(code string) (bool, error) {
	var count int64
	if err := s.DB.Model(&models.Match{}).Where("room_code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *MatchService) CreateMatchRecord(code, matchType string, ownerID int64) error {
	return s.DB.Create(&models.Match{
		ID:        uuid.NewString(),
		RoomCode:  code,
		MatchType: matchType,
		Status:    game.StatusWaiting,
		OwnerID:   ownerID,
	}).Error
}

func (s *MatchService) UpdateMatchStatus(code, status string) error {
	return s.DB.Model(&models.Match{}).Where("room_code = ?", code).Update("status", status).Error
}

func (s *MatchService) CreateScoreRecord(userID int64, score int, matchType string) error {
	return s.DB.Create(&models.Score{
		ID:        uuid.NewString(),
		UserID:    userID,
		Score:     score,
		MatchType: matchType,
	}).Error
}
