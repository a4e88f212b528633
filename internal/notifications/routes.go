package notifications

import "github.com/gin-gonic/gin"

// RegisterRoutes registers notification routes on an authenticated group
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("", handler.List)
	r.POST("/:id/read", handler.MarkRead)
	r.GET("/ws", handler.Connect)
}
