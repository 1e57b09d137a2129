package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CacheStats handles GET /api/ops/cache/stats
func (a *API) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, a.Cache.Stats())
}

// ClearCache handles DELETE /api/ops/cache
func (a *API) ClearCache(c *gin.Context) {
	removed := a.Cache.Clear()
	c.JSON(http.StatusOK, gin.H{"message": "Cache cleared", "removed": removed})
}

// VectorStoreBindings handles GET /api/ops/vector-stores
// Exposes the live binding table for operators.
func (a *API) VectorStoreBindings(c *gin.Context) {
	bindings := a.Lifecycle.Bindings()
	c.JSON(http.StatusOK, gin.H{
		"bindings": bindings,
		"count":    len(bindings),
	})
}

// DestroyVectorStore handles DELETE /api/ops/vector-stores/:id
// Manual cleanup of a store that slipped past normal lifecycle, e.g.
// one recorded by a crashed process. The retry machinery applies.
func (a *API) DestroyVectorStore(c *gin.Context) {
	resourceID := c.Param("id")
	if resourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vector store ID is required"})
		return
	}

	a.Lifecycle.TrackDestroy("manual", resourceID)
	c.JSON(http.StatusAccepted, gin.H{
		"message":    "Destruction scheduled",
		"resourceId": resourceID,
	})
}
