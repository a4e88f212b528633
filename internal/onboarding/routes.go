package onboarding

import "github.com/gin-gonic/gin"

// RegisterRoutes registers onboarding routes on an authenticated group
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("", handler.Overview)
	r.GET("/:projectID", handler.Snapshot)
	r.PUT("/:projectID/state", handler.UpdateState)
	r.POST("/:projectID/validate/:stepID", handler.ValidateStep)
	r.POST("/:projectID/advance", handler.Advance)
	r.POST("/:projectID/retreat", handler.Retreat)
	r.POST("/:projectID/finalize", handler.Finalize)
	r.POST("/:projectID/edit", handler.Edit)
	r.DELETE("/:projectID/session", handler.CloseSession)
}
