package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"relief-ops-backend/config"
	"relief-ops-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, handler *Handler, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", mw.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(mw.RequestID(), mw.RequestLogger(log.Named("http")))

	// Read-heavy lists are cached and flushed by any successful write.
	ttl := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)
	if handler.escalation != nil {
		// Tiers raised by the background monitor bypass FlushOnWrite.
		handler.escalation.OnEscalate(cacheStore.Flush)
	}

	r.GET("/health", handler.Health)

	api := r.Group("/api")
	api.Use(mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst))
	api.Use(mw.FlushOnWrite(cacheStore))
	{
		disasters := api.Group("/disasters")
		disasters.GET("", caching, handler.ListDisasters)
		disasters.POST("", handler.CreateDisaster)
		disasters.GET("/:id", handler.GetDisaster)
		disasters.PUT("/:id", handler.UpdateDisaster)
		disasters.DELETE("/:id", handler.DeleteDisaster)
		disasters.GET("/:id/assignments", handler.ListDisasterAssignments)

		api.GET("/map/disasters", caching, handler.GetDisasterMap)

		shelters := api.Group("/shelters")
		shelters.GET("", caching, handler.ListShelters)
		shelters.POST("", handler.CreateShelter)
		shelters.GET("/:id", handler.GetShelter)
		shelters.PUT("/:id", handler.UpdateShelter)
		shelters.DELETE("/:id", handler.DeleteShelter)
		shelters.POST("/:id/occupancy", handler.AdjustOccupancy)

		volunteers := api.Group("/volunteers")
		volunteers.GET("", caching, handler.ListVolunteers)
		volunteers.POST("", handler.CreateVolunteer)
		volunteers.GET("/:id", handler.GetVolunteer)
		volunteers.PUT("/:id", handler.UpdateVolunteer)
		volunteers.DELETE("/:id", handler.DeleteVolunteer)
		volunteers.GET("/:id/assignments", handler.ListVolunteerAssignments)
		volunteers.POST("/:id/assignments", handler.AssignVolunteer)

		api.PUT("/assignments/:id/status", handler.EndAssignment)

		supplies := api.Group("/supplies")
		supplies.GET("", caching, handler.ListSupplies)
		supplies.POST("", handler.CreateSupply)
		supplies.GET("/:id", handler.GetSupply)
		supplies.PUT("/:id", handler.UpdateSupply)
		supplies.DELETE("/:id", handler.DeleteSupply)
		supplies.POST("/:id/allocate", handler.AllocateSupply)

		agencies := api.Group("/agencies")
		agencies.GET("", caching, handler.ListAgencies)
		agencies.POST("", handler.CreateAgency)
		agencies.GET("/:id", handler.GetAgency)
		agencies.PUT("/:id", handler.UpdateAgency)
		agencies.DELETE("/:id", handler.DeleteAgency)
		agencies.GET("/:id/resources", handler.ListAgencyResources)
		agencies.POST("/:id/resources", handler.CreateAgencyResource)
		agencies.DELETE("/:id/resources/:resourceId", handler.DeleteAgencyResource)
		agencies.GET("/:id/activations", handler.ListAgencyActivations)
		agencies.POST("/:id/activations", handler.ActivateAgency)

		api.PUT("/activations/:id/stand-down", handler.StandDownActivation)

		tiers := api.Group("/tiers")
		tiers.GET("/thresholds", handler.GetTierThresholds)
		tiers.GET("/disasters/:id", handler.GetDisasterTier)
		tiers.POST("/disasters/:id/evaluate", handler.EvaluateDisasterTier)
		tiers.PUT("/disasters/:id", handler.OverrideDisasterTier)

		intel := api.Group("/resource-intelligence")
		intel.GET("/summary", handler.GetResourceSummary)
		intel.GET("/disasters/:id", handler.GetResourceIntel)

		reports := api.Group("/reports")
		reports.GET("", caching, handler.ListReports)
		reports.POST("", handler.CreateReport)
		reports.GET("/track/:trackingId", handler.TrackReport)
		reports.GET("/:id", handler.GetReport)
		reports.PUT("/:id", handler.UpdateReport)
		reports.DELETE("/:id", handler.DeleteReport)
		reports.PUT("/:id/review", handler.ReviewReport)

		api.GET("/weather/:city", handler.GetWeather)
		api.GET("/locations/search", handler.SearchLocations)
		api.GET("/locations/reverse", handler.ReverseGeocode)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
