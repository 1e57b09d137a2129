package models

import (
	"gorm.io/gorm"
)

// ChatSession represents a coaching chat session. The VectorStoreID column
// is a durable copy for display and startup reconciliation only; the live
// lifecycle manager's binding table is authoritative.
type ChatSession struct {
	SessionID     string `json:"sessionId" gorm:"column:session_id;unique;not null;index"`
	UserID        string `json:"userId" gorm:"column:user_id;index"`
	Title         string `json:"title"`
	FolderPath    string `json:"folderPath" gorm:"column:folder_path"`
	VectorStoreID string `json:"vectorStoreId" gorm:"column:vector_store_id"`
	IsActive      bool   `json:"isActive" gorm:"column:is_active;default:true"`
	gorm.Model
}

// TableName specifies the table name for the ChatSession model
func (ChatSession) TableName() string {
	return "chat_sessions"
}
