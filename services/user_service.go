package services

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"quliao-chat-system/game"
	"quliao-chat-system/models"
	"quliao-chat-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrSessionInvalid = errors.New("session invalid or expired")

// UserService owns accounts, login sessions, and avatar storage. It doubles
// as the identity collaborator of the realtime core.
type UserService struct {
	DB         *gorm.DB
	SessionTTL time.Duration
}

func NewUserService(db *gorm.DB) *UserService {
	ttl := 72 * time.Hour
	if hours := os.Getenv("SESSION_TTL_HOURS"); hours != "" {
		if parsed, err := strconv.Atoi(hours); err == nil && parsed > 0 {
			ttl = time.Duration(parsed) * time.Hour
		}
	}
	return &UserService{DB: db, SessionTTL: ttl}
}

// Register handles POST /api/auth/register.
func (s *UserService) Register(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Nickname string `json:"nickname"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil || body.Username == "" || body.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "username and password required"})
	}

	user := models.User{
		Username: body.Username,
		Nickname: body.Nickname,
		UserCode: s.generateUserCode(),
	}
	if err := user.SetPassword(body.Password); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to hash password"})
	}
	if err := s.DB.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "username taken"})
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// Login handles POST /api/auth/login and issues a session token.
func (s *UserService) Login(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "bad request"})
	}

	var user models.User
	if err := s.DB.Where("username = ?", body.Username).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "invalid credentials"})
	}
	if !user.CheckPassword(body.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "invalid credentials"})
	}
	if user.IsBanned {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "account banned"})
	}

	sess := models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.SessionTTL),
	}
	if err := s.DB.Create(&sess).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to create session"})
	}
	return c.JSON(fiber.Map{"success": true, "token": sess.Token, "user": user})
}

// Logout handles POST /api/auth/logout.
func (s *UserService) Logout(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token != "" {
		s.DB.Delete(&models.Session{}, "token = ?", token)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Me handles GET /api/users/me.
func (s *UserService) Me(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "user not found"})
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// UploadAvatar handles POST /api/users/me/avatar: multipart image to R2,
// URL stored on the user.
func (s *UserService) UploadAvatar(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	file, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "avatar file is required"})
	}
	if file.Size > 5*1024*1024 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "avatar too large (max 5MB)"})
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".png"
	}
	key := "avatars/" + uuid.NewString() + ext
	url, err := utils.UploadToR2(file, key)
	if err != nil {
		log.Printf("[USER] avatar upload for user %d failed: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "avatar upload failed"})
	}

	if err := s.DB.Model(&models.User{}).Where("id = ?", userID).Update("avatar", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to save avatar"})
	}
	return c.JSON(fiber.Map{"success": true, "avatar": url})
}

// ValidateSession resolves a login token to its user. Expired sessions are
// deleted on sight.
func (s *UserService) ValidateSession(token string) (*models.User, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}
	var sess models.Session
	if err := s.DB.First(&sess, "token = ?", token).Error; err != nil {
		return nil, ErrSessionInvalid
	}
	if time.Now().After(sess.ExpiresAt) {
		s.DB.Delete(&models.Session{}, "token = ?", token)
		return nil, ErrSessionInvalid
	}
	var user models.User
	if err := s.DB.First(&user, sess.UserID).Error; err != nil {
		return nil, ErrSessionInvalid
	}
	if user.IsBanned {
		return nil, ErrSessionInvalid
	}
	return &user, nil
}

// ResolveIdentity implements game.IdentityResolver.
func (s *UserService) ResolveIdentity(userID int64) (game.Identity, error) {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		return game.Identity{}, fmt.Errorf("identity lookup for user %d: %w", userID, err)
	}
	avatar := user.Avatar
	if avatar == "" {
		avatar = "/static/images/default_avatar.svg"
	}
	return game.Identity{UserID: user.ID, Nickname: user.DisplayName(), Avatar: avatar}, nil
}

// generateUserCode picks a unique 8-digit friend-search handle.
func (s *UserService) generateUserCode() string {
	for {
		code := fmt.Sprintf("%08d", rand.Intn(100000000))
		var count int64
		if err := s.DB.Model(&models.User{}).Where("user_code = ?", code).Count(&count).Error; err == nil && count == 0 {
			return code
		}
	}
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	if auth != "" {
		return auth
	}
	return c.Query("token")
}
