package chatmemory

import (
	"context"
	"testing"

	"coaching-assistant-api/internal/models"
	"coaching-assistant-api/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) *Service {
	t.Helper()
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	return NewService(db)
}

func TestCreateSession_Defaults(t *testing.T) {
	s := newService(t)

	session, err := s.CreateSession("u-1", "clients/alice", "")
	require.NoError(t, err)
	require.NotEmpty(t, session.SessionID)
	require.Contains(t, session.Title, "Chat Session")
	require.True(t, session.IsActive)

	named, err := s.CreateSession("u-1", "clients/alice", "Intake review")
	require.NoError(t, err)
	require.Equal(t, "Intake review", named.Title)
}

func TestChatHistory_ExcludesReports(t *testing.T) {
	s := newService(t)
	session, err := s.CreateSession("u-1", "clients/alice", "")
	require.NoError(t, err)

	_, err = s.AddMessage(session.SessionID, models.RoleUser, "question", models.TypeChat, 0)
	require.NoError(t, err)
	_, err = s.AddMessage(session.SessionID, models.RoleAssistant, "answer", models.TypeChat, 12)
	require.NoError(t, err)
	_, err = s.AddMessage(session.SessionID, models.RoleAssistant, "**Summary**", models.TypeReport, 200)
	require.NoError(t, err)

	history, err := s.ChatHistory(session.SessionID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "question", history[0].Content)
	require.Equal(t, "answer", history[1].Content)

	reports, err := s.SessionReports(session.SessionID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Equal(t, "**Summary**", reports[0].Content)
}

func TestRecentMessages_ChronologicalWindow(t *testing.T) {
	s := newService(t)
	session, err := s.CreateSession("u-1", "clients/alice", "")
	require.NoError(t, err)

	for _, content := range []string{"one", "two", "three", "four"} {
		_, err := s.AddMessage(session.SessionID, models.RoleUser, content, models.TypeChat, 0)
		require.NoError(t, err)
	}

	recent, err := s.RecentMessages(session.SessionID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// Newest two, oldest first.
	require.Equal(t, "three", recent[0].Content)
	require.Equal(t, "four", recent[1].Content)
}

func TestDeactivateSession(t *testing.T) {
	s := newService(t)
	session, err := s.CreateSession("u-1", "clients/alice", "")
	require.NoError(t, err)

	require.NoError(t, s.DeactivateSession(session.SessionID))

	stored, err := s.GetSession(session.SessionID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)

	// Inactive sessions drop out of the user's listing.
	sessions, err := s.UserSessions("u-1", 10)
	require.NoError(t, err)
	require.Len(t, sessions, 0)

	require.ErrorIs(t, s.DeactivateSession("no-such-session"), gorm.ErrRecordNotFound)
}

func TestDeleteSession_RemovesMessages(t *testing.T) {
	s := newService(t)
	session, err := s.CreateSession("u-1", "clients/alice", "")
	require.NoError(t, err)
	_, err = s.AddMessage(session.SessionID, models.RoleUser, "question", models.TypeChat, 0)
	require.NoError(t, err)

	require.NoError(t, s.DeleteSession(session.SessionID))

	_, err = s.GetSession(session.SessionID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, s.db.Model(&models.ChatMessage{}).
		Where("session_id = ?", session.SessionID).Count(&count).Error)
	require.Zero(t, count)
}

func TestStats_SumsTokens(t *testing.T) {
	s := newService(t)
	session, err := s.CreateSession("u-1", "clients/alice", "Totals")
	require.NoError(t, err)

	_, err = s.AddMessage(session.SessionID, models.RoleUser, "q", models.TypeChat, 0)
	require.NoError(t, err)
	_, err = s.AddMessage(session.SessionID, models.RoleAssistant, "a", models.TypeChat, 30)
	require.NoError(t, err)
	_, err = s.AddMessage(session.SessionID, models.RoleAssistant, "r", models.TypeReport, 70)
	require.NoError(t, err)

	stats, err := s.Stats(session.SessionID)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.MessageCount)
	require.Equal(t, int64(100), stats.TotalTokens)
	require.Equal(t, "Totals", stats.Title)
}

func TestSessionsWithResources(t *testing.T) {
	s := newService(t)

	bound, err := s.CreateSession("u-1", "clients/alice", "")
	require.NoError(t, err)
	require.NoError(t, s.SetVectorStoreID(bound.SessionID, "vs-1"))

	unbound, err := s.CreateSession("u-1", "clients/bob", "")
	require.NoError(t, err)

	records, err := s.SessionsWithResources(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, bound.SessionID, records[0].ScopeID)
	require.Equal(t, "vs-1", records[0].ResourceID)
	require.True(t, records[0].Active)
	require.NotEqual(t, unbound.SessionID, records[0].ScopeID)
}
