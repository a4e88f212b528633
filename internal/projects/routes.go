package projects

import "github.com/gin-gonic/gin"

// RegisterRoutes registers project routes on an authenticated group
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("", handler.Create)
	r.GET("", handler.List)
	r.GET("/:id", handler.Get)
	r.POST("/:id/quotes", handler.CreateQuote)
}

// RegisterQuoteRoutes registers quote routes on their own group
func RegisterQuoteRoutes(r *gin.RouterGroup, handler *Handler) {
	r.PUT("/:quoteID/status", handler.UpdateQuoteStatus)
}
