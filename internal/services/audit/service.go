package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/indusops/opsdesk/internal/database"
	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/session"
	"github.com/indusops/opsdesk/internal/websocket"
	"gorm.io/datatypes"
)

// Entry describes one mutation
type Entry struct {
	Action     string // e.g. rate_query.responded
	EntityType string
	EntityID   int64
	Payload    interface{}
	Err        error
}

// Recorder is what services call after a mutation
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Broadcaster pushes live events to dashboards
type Broadcaster interface {
	Broadcast(ev websocket.Event)
}

// Service stores activity logs and forwards successful mutations to the hub
type Service struct {
	db  *database.DB
	hub Broadcaster
}

func NewService(db *database.DB, hub Broadcaster) *Service {
	return &Service{db: db, hub: hub}
}

// Record persists e. Failures to write the log are logged, never returned,
// so an audit problem cannot undo a mutation that already happened upstream.
func (s *Service) Record(ctx context.Context, e Entry) {
	row := models.ActivityLog{
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   strconv.FormatInt(e.EntityID, 10),
		Status:     "success",
		UserName:   session.Actor(ctx),
	}
	if u, ok := session.UserFrom(ctx); ok {
		row.UserID = u.ID
		row.IPAddress = u.IP
	}
	if e.Payload != nil {
		if b, err := json.Marshal(e.Payload); err == nil {
			row.Payload = datatypes.JSON(b)
		}
	}
	if e.Err != nil {
		row.Status = "failed"
		row.ErrorMessage = e.Err.Error()
	}

	if s.db != nil {
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			log.Printf("⚠️  Failed to write activity log for %s: %v", e.Action, err)
		}
	}

	if s.hub != nil && e.Err == nil {
		s.hub.Broadcast(websocket.Event{
			Type:       e.Action,
			EntityType: e.EntityType,
			EntityID:   row.EntityID,
			Actor:      row.UserName,
			Data:       e.Payload,
		})
	}
}

// Filter narrows List
type Filter struct {
	EntityType string
	UserID     string
	Limit      int
}

// List returns recent activity, newest first
func (s *Service) List(ctx context.Context, f Filter) ([]models.ActivityLog, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(f.Limit)
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}

	var logs []models.ActivityLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return logs, nil
}

// Nop discards entries
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}
