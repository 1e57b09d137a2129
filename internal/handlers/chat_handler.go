package handlers

import (
	"net/http"

	"coaching-assistant-api/internal/assistant"
	"coaching-assistant-api/internal/models"

	"github.com/gin-gonic/gin"
)

// ChatRequest represents a chat turn payload
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ReportRequest represents a report generation payload
type ReportRequest struct {
	Language string `json:"language"`
}

// sessionResource returns the vector store bound to the session,
// re-provisioning from the session's folder when the binding was lost
// (a restart, or idle reclamation). The rebind is transparent to the
// caller beyond latency.
func (a *API) sessionResource(c *gin.Context, session *models.ChatSession) (string, bool) {
	if id, ok := a.Lifecycle.ResourceFor(session.SessionID); ok {
		a.Lifecycle.Touch(session.SessionID)
		return id, true
	}

	files, err := a.Storage.List(session.FolderPath)
	if err != nil {
		c.JSON(storageStatus(err), gin.H{"error": "Session folder is no longer available"})
		return "", false
	}
	fingerprint := assistant.Fingerprint(session.FolderPath, files)
	id, err := a.Lifecycle.Acquire(c.Request.Context(), session.SessionID, fingerprint)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to prepare session documents"})
		return "", false
	}
	if err := a.Memory.SetVectorStoreID(session.SessionID, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record session resources"})
		return "", false
	}
	return id, true
}

// Chat handles POST /api/sessions/:id/chat
func (a *API) Chat(c *gin.Context) {
	session, ok := a.ownedSession(c)
	if !ok {
		return
	}
	if !session.IsActive {
		c.JSON(http.StatusConflict, gin.H{"error": "Session has ended"})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	vectorStoreID, ok := a.sessionResource(c, session)
	if !ok {
		return
	}

	recent, err := a.Memory.RecentMessages(session.SessionID, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversation"})
		return
	}
	history := make([]assistant.Turn, 0, len(recent))
	for _, m := range recent {
		history = append(history, assistant.Turn{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	reply, tokens, err := a.Responder.Respond(c.Request.Context(),
		assistant.ChatSystemPrompt(), history, req.Message, vectorStoreID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Assistant is unavailable"})
		return
	}

	if _, err := a.Memory.AddMessage(session.SessionID, models.RoleUser, req.Message, models.TypeChat, 0); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}
	if _, err := a.Memory.AddMessage(session.SessionID, models.RoleAssistant, reply, models.TypeChat, tokens); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}
	a.Router.OnSessionMutation(session.SessionID)

	a.Hub.Notify(session.UserID, "chat_message", session.SessionID, gin.H{
		"tokensUsed": tokens,
	})

	c.JSON(http.StatusOK, gin.H{
		"sessionId":  session.SessionID,
		"reply":      reply,
		"tokensUsed": tokens,
	})
}

// Report handles POST /api/sessions/:id/report
// The generated report is persisted as a report-type message so it
// shows up in the session's report list, not its chat history.
func (a *API) Report(c *gin.Context) {
	session, ok := a.ownedSession(c)
	if !ok {
		return
	}
	if !session.IsActive {
		c.JSON(http.StatusConflict, gin.H{"error": "Session has ended"})
		return
	}

	var req ReportRequest
	_ = c.ShouldBindJSON(&req)

	vectorStoreID, ok := a.sessionResource(c, session)
	if !ok {
		return
	}

	system, query := assistant.ReportPrompt(req.Language)
	report, tokens, err := a.Responder.Respond(c.Request.Context(), system, nil, query, vectorStoreID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Report generation failed"})
		return
	}

	if _, err := a.Memory.AddMessage(session.SessionID, models.RoleAssistant, report, models.TypeReport, tokens); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save report"})
		return
	}
	a.Router.OnSessionMutation(session.SessionID)

	a.Hub.Notify(session.UserID, "report_ready", session.SessionID, nil)

	c.JSON(http.StatusOK, gin.H{
		"sessionId":  session.SessionID,
		"report":     report,
		"tokensUsed": tokens,
	})
}
