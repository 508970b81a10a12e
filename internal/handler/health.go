package handler

import (
	"context"
	"net/http"
	"time"

	"agrosnab/internal/infra"
	"agrosnab/internal/repository"
	"agrosnab/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks the local store and Redis; reports the sheets circuit state and the
// product cache age without making a remote call.
func Health(db *gorm.DB, rdb *redis.Client, cb *infra.SheetsBreaker, products repository.ProductRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		var deadAlerts int64
		if redisStatus == "connected" {
			deadAlerts, _ = worker.DeadAlertCount(ctx, rdb)
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		resp := gin.H{
			"ok":          status == http.StatusOK,
			"db":          dbStatus,
			"redis":       redisStatus,
			"dead_alerts": deadAlerts,
		}
		if cb != nil {
			resp["sheets_circuit"] = cb.State().String()
		}
		if age := products.CacheAge(); age < time.Hour*24*365 {
			resp["product_cache_age_seconds"] = age.Seconds()
		}
		c.JSON(status, resp)
	}
}
