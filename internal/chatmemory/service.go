package chatmemory

import (
	"context"
	"fmt"
	"time"

	"coaching-assistant-api/internal/lifecycle"
	"coaching-assistant-api/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service persists chat sessions and messages. The vector-store ID it
// records against a session is a durable copy for display and startup
// reconciliation; the lifecycle manager's binding table stays
// authoritative for lifecycle decisions.
type Service struct {
	db *gorm.DB
}

// NewService wraps a gorm connection.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateSession creates a new chat session and returns it.
func (s *Service) CreateSession(userID, folderPath, title string) (*models.ChatSession, error) {
	if title == "" {
		title = fmt.Sprintf("Chat Session %s", time.Now().Format("2006-01-02 15:04"))
	}
	session := models.ChatSession{
		SessionID:  uuid.NewString(),
		UserID:     userID,
		Title:      title,
		FolderPath: folderPath,
		IsActive:   true,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession fetches a session by its session ID.
func (s *Service) GetSession(sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := s.db.Where("session_id = ?", sessionID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// UserSessions returns a user's active sessions, most recent first.
func (s *Service) UserSessions(userID string, limit int) ([]models.ChatSession, error) {
	if limit < 1 {
		limit = 50
	}
	var sessions []models.ChatSession
	err := s.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at desc").Limit(limit).Find(&sessions).Error
	return sessions, err
}

// SetVectorStoreID persists the currently bound resource for display/audit.
func (s *Service) SetVectorStoreID(sessionID, vectorStoreID string) error {
	return s.db.Model(&models.ChatSession{}).
		Where("session_id = ?", sessionID).
		Update("vector_store_id", vectorStoreID).Error
}

// AddMessage appends a message to a session and bumps the session's
// updated_at so idle-session cleanup sees the activity.
func (s *Service) AddMessage(sessionID string, role models.MessageRole, content string, msgType models.MessageType, tokensUsed int) (*models.ChatMessage, error) {
	message := models.ChatMessage{
		SessionID:   sessionID,
		Role:        role,
		Content:     content,
		MessageType: msgType,
		TokensUsed:  tokensUsed,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.ChatSession{}).
		Where("session_id = ?", sessionID).
		Update("updated_at", time.Now()).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// ChatHistory returns a session's messages in chronological order,
// excluding generated reports.
func (s *Service) ChatHistory(sessionID string, limit int) ([]models.ChatMessage, error) {
	if limit < 1 {
		limit = 50
	}
	var messages []models.ChatMessage
	err := s.db.Where("session_id = ? AND message_type <> ?", sessionID, models.TypeReport).
		Order("created_at asc").Limit(limit).Find(&messages).Error
	return messages, err
}

// RecentMessages returns the newest messages in chronological order,
// for building model context.
func (s *Service) RecentMessages(sessionID string, limit int) ([]models.ChatMessage, error) {
	if limit < 1 {
		limit = 10
	}
	var messages []models.ChatMessage
	err := s.db.Where("session_id = ? AND message_type = ?", sessionID, models.TypeChat).
		Order("created_at desc").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// SessionReports returns all report messages for a session.
func (s *Service) SessionReports(sessionID string) ([]models.ChatMessage, error) {
	var reports []models.ChatMessage
	err := s.db.Where("session_id = ? AND message_type = ? AND role = ?",
		sessionID, models.TypeReport, models.RoleAssistant).
		Order("created_at asc").Find(&reports).Error
	return reports, err
}

// UpdateSessionTitle renames a session.
func (s *Service) UpdateSessionTitle(sessionID, title string) error {
	result := s.db.Model(&models.ChatSession{}).
		Where("session_id = ?", sessionID).
		Update("title", title)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeactivateSession soft-ends a session without deleting history.
func (s *Service) DeactivateSession(sessionID string) error {
	result := s.db.Model(&models.ChatSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteSession permanently removes a session and its messages.
func (s *Service) DeleteSession(sessionID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("session_id = ?", sessionID).
			Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Where("session_id = ?", sessionID).
			Delete(&models.ChatSession{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// SessionStats summarizes one session for listing views.
type SessionStats struct {
	SessionID     string    `json:"sessionId"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	MessageCount  int64     `json:"messageCount"`
	TotalTokens   int64     `json:"totalTokens"`
	VectorStoreID string    `json:"vectorStoreId"`
}

// Stats returns per-session message and token totals.
func (s *Service) Stats(sessionID string) (*SessionStats, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	var count int64
	if err := s.db.Model(&models.ChatMessage{}).
		Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return nil, err
	}
	var tokens int64
	if err := s.db.Model(&models.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(SUM(tokens_used), 0)").Scan(&tokens).Error; err != nil {
		return nil, err
	}
	return &SessionStats{
		SessionID:     session.SessionID,
		Title:         session.Title,
		CreatedAt:     session.CreatedAt,
		UpdatedAt:     session.UpdatedAt,
		MessageCount:  count,
		TotalTokens:   tokens,
		VectorStoreID: session.VectorStoreID,
	}, nil
}

// SessionsWithResources implements lifecycle.DurableSessions: every
// session with a recorded vector store, for startup reconciliation.
func (s *Service) SessionsWithResources(ctx context.Context) ([]lifecycle.SessionRecord, error) {
	var sessions []models.ChatSession
	if err := s.db.WithContext(ctx).
		Where("vector_store_id <> ''").Find(&sessions).Error; err != nil {
		return nil, err
	}
	records := make([]lifecycle.SessionRecord, 0, len(sessions))
	for _, sess := range sessions {
		records = append(records, lifecycle.SessionRecord{
			ScopeID:        sess.SessionID,
			ResourceID:     sess.VectorStoreID,
			LastActivityAt: sess.UpdatedAt,
			Active:         sess.IsActive,
		})
	}
	return records, nil
}
