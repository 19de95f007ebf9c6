package handlers

import (
	"context"
	"strconv"

	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/service"

	"github.com/gin-gonic/gin"
)

type TapHistory interface {
	GetByUser(ctx context.Context, userID int64, limit int) ([]*domain.TapEvent, error)
}

type AuditReader interface {
	GetRecent(ctx context.Context, category string, limit int) ([]*domain.AuditLog, error)
}

// Handler serves the player facing API.
type Handler struct {
	Users        service.UserStore
	Taps         TapHistory
	Audit        AuditReader
	AuthService  *service.AuthService
	GameService  *service.GameService
	ShopService  *service.ShopService
	QuestService *service.QuestService
	AdminService *service.AdminService
}

// getUserID reads the user id stored by middleware.JWT.
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// queryInt returns the positive integer query param, or def.
func queryInt(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
