package services

import (
	"fmt"
	"log"
	"math/rand"

	"quliao-chat-system/game"
	"quliao-chat-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ChatService owns persisted chat rooms and their message history, and fans
// chat traffic out to room members through the shared hub.
type ChatService struct {
	DB  *gorm.DB
	Hub *game.Hub
}

func NewChatService(db *gorm.DB, hub *game.Hub) *ChatService {
	return &ChatService{DB: db, Hub: hub}
}

// CreateRoom handles POST /api/rooms. The creator becomes owner and first
// member; the name yields a URL-safe search handle.
func (s *ChatService) CreateRoom(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil || body.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "room name required"})
	}

	room := models.Room{
		Name:    body.Name,
		Slug:    slug.Make(body.Name),
		Code:    s.generateRoomCode(),
		OwnerID: userID,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		return tx.Create(&models.RoomMember{UserID: userID, RoomID: room.ID}).Error
	})
	if err != nil {
		log.Printf("[CHAT] room create failed for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to create room"})
	}
	return c.JSON(fiber.Map{"success": true, "room": room})
}

// ListRooms handles GET /api/rooms: rooms the caller is a member of.
func (s *ChatService) ListRooms(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	var rooms []models.Room
	err := s.DB.Joins("JOIN room_members ON room_members.room_id = rooms.id").
		Where("room_members.user_id = ? AND rooms.is_banned = false", userID).
		Find(&rooms).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "room query failed"})
	}
	return c.JSON(fiber.Map{"success": true, "data": rooms})
}

// JoinRoom handles POST /api/rooms/:id/join.
func (s *ChatService) JoinRoom(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)
	roomID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "bad room id"})
	}

	var room models.Room
	if err := s.DB.First(&room, roomID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "room not found"})
	}
	if room.IsBanned {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "room unavailable"})
	}

	member := models.RoomMember{UserID: userID, RoomID: room.ID}
	if err := s.DB.Where(&member).FirstOrCreate(&member).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "join failed"})
	}
	return c.JSON(fiber.Map{"success": true, "room": room})
}

// History handles GET /api/rooms/:id/messages.
func (s *ChatService) History(c *fiber.Ctx) error {
	roomID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "bad room id"})
	}
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var messages []models.Message
	if err := s.DB.Preload("User").Where("room_id = ?", roomID).
		Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "history query failed"})
	}
	return c.JSON(fiber.Map{"success": true, "data": messages})
}

// Deliver persists one chat message and fans it out to the room's members
// over the hub. Called from the websocket dispatch loop.
func (s *ChatService) Deliver(roomID, userID int64, displayName, content string) error {
	var count int64
	if err := s.DB.Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("user %d is not a member of room %d", userID, roomID)
	}

	msg := models.Message{
		ID:      uuid.NewString(),
		RoomID:  roomID,
		UserID:  &userID,
		MsgType: models.MsgTypeText,
		Content: content,
	}
	if err := s.DB.Create(&msg).Error; err != nil {
		return err
	}

	var memberIDs []int64
	if err := s.DB.Model(&models.RoomMember{}).Where("room_id = ?", roomID).
		Pluck("user_id", &memberIDs).Error; err != nil {
		return err
	}
	members := make(map[int64]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}

	s.Hub.BroadcastSubset(func(ident game.Identity) bool {
		_, ok := members[ident.UserID]
		return ok
	}, game.ChatPayload(displayName, content))
	return nil
}

func (s *ChatService) generateRoomCode() string {
	for {
		code := fmt.Sprintf("%06d", rand.Intn(1000000))
		var count int64
		if err := s.DB.Model(&models.Room{}).Where("code = ?", code).Count(&count).Error; err == nil && count == 0 {
			return code
		}
	}
}
