package services

import (
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
)

// NotificationService writes in-app notification rows. Callers fire
// and forget; failures are logged, never surfaced.
type NotificationService struct {
	db *sql.DB
}

func NewNotificationService(db *sql.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) Notify(profileID, notificationType, title, message string) {
	_, err := s.db.Exec(`
		INSERT INTO notifications (id, profile_id, type, title, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), profileID, notificationType, title, message, time.Now())
	if err != nil {
		log.Printf("[NOTIFY] Failed to create %s notification for %s: %v", notificationType, profileID, err)
	}
}
