package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"av-maintenance-backend/config"
	"av-maintenance-backend/internal/mw"
	"av-maintenance-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), int(cfg.RateLimitPerSec), cfg.RequestIPHeader)

	handler := NewHandler(s, cacheStore)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		facilities := api.Group("/facilities")
		{
			facilities.GET("", caching, handler.ListFacilities)
			facilities.POST("", handler.CreateFacility)
			facilities.GET("/:id", handler.GetFacility)
			facilities.PUT("/:id", handler.UpdateFacility)
			facilities.DELETE("/:id", handler.DeactivateFacility)
			facilities.GET("/:id/equipment", caching, handler.ListFacilityEquipment)
			facilities.GET("/:id/stats", handler.GetFacilityStats)
		}

		equipment := api.Group("/equipment")
		{
			equipment.GET("", caching, handler.ListEquipment)
			equipment.POST("", handler.CreateEquipment)
			equipment.GET("/categories", handler.GetEquipmentCategories)
			equipment.GET("/maintenance-due", handler.ListMaintenanceDue)
			equipment.GET("/stats", handler.GetEquipmentStats)
			equipment.GET("/:id", handler.GetEquipment)
			equipment.PUT("/:id", handler.UpdateEquipment)
			equipment.DELETE("/:id", handler.DeactivateEquipment)
			equipment.PUT("/:id/usage", handler.UpdateEquipmentUsage)
		}

		maintenance := api.Group("/maintenance")
		{
			maintenance.GET("/tasks", caching, handler.ListTasks)
			maintenance.POST("/tasks", handler.CreateTask)
			maintenance.GET("/history", handler.ListMaintenanceHistory)
			maintenance.GET("/schedules", handler.ListSchedules)
			maintenance.POST("/schedules", handler.CreateSchedule)
			maintenance.GET("/schedules/overdue", handler.ListOverdueSchedules)
			maintenance.GET("/schedules/stats", handler.GetMaintenanceStats)
			maintenance.GET("/schedules/:id", handler.GetSchedule)
			maintenance.PUT("/schedules/:id", handler.UpdateSchedule)
		}

		alerts := api.Group("/alerts")
		{
			alerts.GET("", handler.ListAlerts)
			alerts.POST("", handler.CreateAlert)
			alerts.GET("/types", handler.GetAlertTypes)
			alerts.GET("/stats", handler.GetAlertStats)
			alerts.POST("/bulk-read", handler.BulkMarkRead)
			alerts.POST("/bulk-resolve", handler.BulkResolve)
			alerts.POST("/generate-maintenance", handler.GenerateMaintenanceAlerts)
			alerts.GET("/:id", handler.GetAlert)
			alerts.PUT("/:id", handler.UpdateAlert)
			alerts.DELETE("/:id", handler.DeleteAlert)
		}

		reports := api.Group("/reports")
		{
			reports.GET("/equipment-status", caching, handler.EquipmentStatusReport)
			reports.GET("/maintenance-summary", caching, handler.MaintenanceSummaryReport)
			reports.GET("/monthly-summary", caching, handler.MonthlySummaryReport)
		}
	}

	return r
}
