package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Публичные маршруты
	api.POST("/auth/login", h.login)
	api.GET("/system/health", h.healthCheck)

	// Все остальное требует токен сессии
	secured := api.Group("", SessionAuthMiddleware(h.issuer, h.logger))

	alerts := secured.Group("/alerts")
	{
		alerts.GET("", h.listAlerts)
		alerts.DELETE("/:id", h.deleteAlert)
	}
	secured.GET("/categories", h.listCategories)

	// Мастер создания алерта
	secured.POST("/reports", h.startReport)
	report := secured.Group("/reports/current")
	{
		report.GET("", h.currentReport)
		report.DELETE("", h.cancelReport)
		report.POST("/location/request", h.requestLocation)
		report.POST("/location", h.resolveLocation)
		report.POST("/location/search", h.searchReportLocation)
		report.POST("/location/confirm", h.confirmLocation)
		report.POST("/photo", h.attachPhoto)
		report.POST("/photo/skip", h.skipPhoto)
		report.POST("/category", h.chooseCategory)
		report.PUT("/details", h.setDetails)
		report.POST("/submit", h.submitReport)
	}

	notifications := secured.Group("/notifications")
	{
		notifications.GET("", h.listNotifications)
		notifications.POST("/read-all", h.markAllNotificationsRead)
		notifications.POST("/:id/read", h.markNotificationRead)
		notifications.DELETE("/:id", h.deleteNotification)
	}

	secured.GET("/profile", h.getProfile)
	secured.GET("/achievements", h.listAchievements)
	secured.POST("/premium/purchase", h.purchasePremium)

	secured.GET("/themes", h.listThemes)
	secured.PUT("/settings/theme", h.selectTheme)
	secured.GET("/settings", h.getSettings)
	secured.PUT("/settings", h.updateSettings)
	secured.GET("/map/config", h.getMapConfig)
	secured.POST("/search", h.search)

	fuel := secured.Group("/fuel")
	{
		fuel.GET("/options", h.listFuelOptions)
		fuel.POST("/quote", h.quoteFuel)
		fuel.POST("/orders", h.orderFuel)
	}

	// Резервные копии
	secured.POST("/backup", h.backup)
	secured.POST("/restore", h.restore)
	secured.GET("/backup/export", h.exportState)
	secured.POST("/backup/import", h.importState)
}
