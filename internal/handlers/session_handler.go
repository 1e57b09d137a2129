package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"coaching-assistant-api/internal/assistant"
	"coaching-assistant-api/internal/cache"
	"coaching-assistant-api/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StartSessionRequest represents the session creation payload
type StartSessionRequest struct {
	FolderPath string `json:"folderPath" binding:"required"`
	Title      string `json:"title"`
}

// UpdateSessionRequest represents a session rename payload
type UpdateSessionRequest struct {
	Title string `json:"title" binding:"required"`
}

// ownedSession loads the session named in the route and verifies it
// belongs to the authenticated user. On failure it has already written
// the response.
func (a *API) ownedSession(c *gin.Context) (*models.ChatSession, bool) {
	sessionID := c.Param("id")
	session, err := a.Memory.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		}
		return nil, false
	}
	if session.UserID != c.GetString("user_id") {
		// Do not reveal the session's existence to other users.
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return session, true
}

// StartSession handles POST /api/sessions
// Creates the session record, then provisions (or reuses) the vector
// store for the folder's current content. The durable record is cleaned
// up if provisioning fails so no half-started session lingers.
func (a *API) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Folder path is required"})
		return
	}
	userID := c.GetString("user_id")

	files, err := a.Storage.List(req.FolderPath)
	if err != nil {
		c.JSON(storageStatus(err), gin.H{"error": "Folder not found"})
		return
	}

	session, err := a.Memory.CreateSession(userID, req.FolderPath, req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	fingerprint := assistant.Fingerprint(req.FolderPath, files)
	vectorStoreID, err := a.Lifecycle.Acquire(c.Request.Context(), session.SessionID, fingerprint)
	if err != nil {
		if delErr := a.Memory.DeleteSession(session.SessionID); delErr != nil {
			log.Printf("handlers: removing session %s after failed provisioning: %v", session.SessionID, delErr)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to prepare session documents"})
		return
	}
	if err := a.Memory.SetVectorStoreID(session.SessionID, vectorStoreID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record session resources"})
		return
	}
	session.VectorStoreID = vectorStoreID

	a.Hub.Notify(userID, "session_started", session.SessionID, gin.H{
		"folderPath": session.FolderPath,
	})

	c.JSON(http.StatusCreated, session)
}

// GetSessions handles GET /api/sessions
func (a *API) GetSessions(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	sessions, err := a.Memory.UserSessions(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sessions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession handles GET /api/sessions/:id
func (a *API) GetSession(c *gin.Context) {
	session, ok := a.ownedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetHistory handles GET /api/sessions/:id/history
func (a *API) GetHistory(c *gin.Context) {
	session, ok := a.ownedSession(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	key := cache.SessionKey(session.SessionID, fmt.Sprintf("history:%d", limit))
	if cached, ok := a.Cache.Get(key); ok {
		c.JSON(http.StatusOK, gin.H{"messages": cached, "cached": true})
		return
	}

	messages, err := a.Memory.ChatHistory(session.SessionID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	a.Cache.Set(key, messages, cache.SessionTTL)
	c.JSON(http.StatusOK, gin.H{"messages": messages, "cached": false})
}

// GetReports handles GET /api/sessions/:id/reports
func (a *API) GetReports(c *gin.Context) {
	session, ok := a.ownedSession(c)
	if !ok {
		return
	}

	key := cache.SessionKey(session.SessionID, "reports")
	if cached, ok := a.Cache.Get(key); ok {
		c.JSON(http.StatusOK, gin.H{"reports": cached, "cached": true})
		return
	}

	reports, err := a.Memory.SessionReports(session.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}

	a.Cache.Set(key, reports, cache.SessionTTL)
	c.JSON(http.StatusOK, gin.H{"reports": reports, "cached": false})
}

// GetSessionStats handles GET /api/sessions/:id/stats
func (a *API) GetSessionStats(c *gin.Context) {
	session, ok := a.ownedSession(c)
	if !ok {
		return
	}

	stats, err := a.Memory.Stats(session.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute session stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UpdateSession handles PUT /api/sessions/:id
func (a *API) UpdateSession(c *gin.Context) {
	session, ok := a.ownedSession(c)
	if !ok {
		return
	}
	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	if err := a.Memory.UpdateSessionTitle(session.SessionID, req.Title); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update session"})
		return
	}
	a.Router.OnSessionMutation(session.SessionID)

	c.JSON(http.StatusOK, gin.H{"message": "Session updated", "title": req.Title})
}

// EndSession handles POST /api/sessions/:id/end
// The vector store is released in the background; history survives.
func (a *API) EndSession(c *gin.Context) {
	session, ok := a.ownedSession(c)
	if !ok {
		return
	}

	a.Lifecycle.Release(session.SessionID)
	if err := a.Memory.DeactivateSession(session.SessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end session"})
		return
	}
	a.Router.OnSessionMutation(session.SessionID)

	a.Hub.Notify(session.UserID, "session_ended", session.SessionID, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Session ended", "sessionId": session.SessionID})
}

// DeleteSession handles DELETE /api/sessions/:id
// Permanent: the session, its messages, and its vector store all go.
func (a *API) DeleteSession(c *gin.Context) {
	session, ok := a.ownedSession(c)
	if !ok {
		return
	}

	a.Lifecycle.Release(session.SessionID)
	if err := a.Memory.DeleteSession(session.SessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
		return
	}
	a.Router.OnSessionMutation(session.SessionID)

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted", "sessionId": session.SessionID})
}
