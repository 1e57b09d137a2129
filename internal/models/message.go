package models

import (
	"gorm.io/gorm"
)

// MessageRole identifies who authored a chat message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// MessageType distinguishes ordinary chat turns from generated reports
type MessageType string

const (
	TypeChat   MessageType = "chat"
	TypeReport MessageType = "report"
	TypeSystem MessageType = "system"
)

// ChatMessage represents a single message within a chat session
type ChatMessage struct {
	SessionID   string      `json:"sessionId" gorm:"column:session_id;not null;index"`
	Role        MessageRole `json:"role" gorm:"not null"`
	Content     string      `json:"content" gorm:"type:text;not null"`
	MessageType MessageType `json:"messageType" gorm:"column:message_type;default:'chat'"`
	TokensUsed  int         `json:"tokensUsed" gorm:"column:tokens_used"`
	gorm.Model
}

// TableName specifies the table name for the ChatMessage model
func (ChatMessage) TableName() string {
	return "chat_messages"
}
