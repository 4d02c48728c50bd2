package httpgin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/elisaschroeder/eventease/internal/domain"
	redisrepo "github.com/elisaschroeder/eventease/internal/repository/redis"
	"github.com/elisaschroeder/eventease/internal/service"
	"github.com/elisaschroeder/eventease/internal/service/attendance"
	"github.com/elisaschroeder/eventease/internal/service/catalog"
	"github.com/elisaschroeder/eventease/internal/service/health"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), ClientIDMiddleware(), LoggingMiddleware(logger), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", handleHealth(svcs))
	r.GET("/healthz/:name", handleHealthCheck(svcs))
	r.GET("/settings", handleSettings(svcs))

	events := r.Group("/events")
	{
		events.GET("", handleListEvents(svcs))
		events.GET("/:id", handleGetEvent(svcs))
		events.POST("/:id/registrations", handleRegister(svcs, idem, logger))
		events.GET("/:id/registrations", handleListRegistrations(svcs))
		events.GET("/:id/attendees", handleEventAttendees(svcs))
		events.GET("/:id/attendees/vip", handleVIPAttendees(svcs))
		events.POST("/:id/attendees/check-in", handleBulkCheckIn(svcs))
		events.GET("/:id/attendance", handleAttendanceStats(svcs))
	}

	attendees := r.Group("/attendees")
	{
		attendees.GET("", handleFindAttendees(svcs))
		attendees.POST("", handleCreateAttendee(svcs))
		attendees.GET("/:id", handleGetAttendee(svcs))
		attendees.PUT("/:id", handleUpdateAttendee(svcs))
		attendees.DELETE("/:id", handleDeleteAttendee(svcs))
		attendees.POST("/:id/check-in", handleCheckIn(svcs))
		attendees.POST("/:id/check-out", handleCheckOut(svcs))
		attendees.POST("/:id/no-show", handleMarkNoShow(svcs))
		attendees.POST("/:id/cancel", handleCancelAttendee(svcs))
	}

	r.GET("/attendance/report", handleAttendanceReport(svcs))
	r.GET("/attendance/dashboard", handleAttendanceDashboard(svcs))

	sess := r.Group("/session")
	{
		sess.GET("", handleGetSession(svcs))
		sess.DELETE("", handleClearSession(svcs))
		sess.POST("/extend", handleExtendSession(svcs))
		sess.GET("/analytics", handleSessionAnalytics(svcs))
		sess.GET("/events", handleSessionEvents(svcs))
		sess.GET("/changes", handleSessionChanges(svcs))
		sess.POST("/page-views", handleTrackPageView(svcs))
		sess.POST("/search", handleTrackSearch(svcs))
		sess.PUT("/category", handleSetCategory(svcs))
		sess.POST("/cart", handleAddToCart(svcs))
		sess.DELETE("/cart", handleClearCart(svcs))
		sess.DELETE("/cart/:event_id", handleRemoveFromCart(svcs))
		sess.PUT("/preferences", handleUpdatePreferences(svcs))
		sess.GET("/data/:key", handleGetValue(svcs))
		sess.PUT("/data/:key", handleSetValue(svcs))
	}

	return r
}

// @Summary  Overall health
// @Success  200  {object}  health.Report
// @Failure  503  {object}  health.Report
// @Router   /healthz [get]
func handleHealth(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := svcs.Health.Status(c.Request.Context())

		status := http.StatusOK
		if report.Status == health.StatusCritical {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, report)
	}
}

// @Summary  Single health check
// @Param    name  path  string  true  "Check name"
// @Success  200  {object}  health.CheckResult
// @Router   /healthz/{name} [get]
func handleHealthCheck(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := svcs.Health.Check(c.Request.Context(), c.Param("name"))

		status := http.StatusOK
		switch res.Status {
		case health.StatusUnknown:
			status = http.StatusNotFound
		case health.StatusCritical:
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, res)
	}
}

// @Summary  Application settings
// @Success  200  {object}  map[string]any
// @Router   /settings [get]
func handleSettings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !svcs.Settings.Bool("Features.EnableDiagnostics", true) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "diagnostics disabled"})
			return
		}

		c.JSON(http.StatusOK, svcs.Settings.Snapshot())
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var rl catalog.RateLimitedError
	var verr catalog.ValidationError

	switch {
	// catalog service
	case errors.As(err, &rl):
		c.Header("Retry-After", strconv.Itoa(max(1, int(rl.RetryAfter.Round(time.Second)/time.Second))))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid registration", Fields: verr.Fields})
	case errors.Is(err, catalog.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, catalog.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "event is full or closed"})
	// attendance service
	case errors.Is(err, attendance.ErrAttendeeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "attendee not found"})
	case errors.Is(err, attendance.ErrInvalidRating):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "rating must be between 1 and 5"})
	case errors.Is(err, attendance.ErrInvalidAttendee):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid attendee"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func parseEventQuery(c *gin.Context) (catalog.Query, bool) {
	q := catalog.Query{
		PageRequest: domain.PageRequest{
			Page:       parseIntDefault(c.Query("page"), 1),
			PageSize:   parseIntDefault(c.Query("page_size"), domain.DefaultPageSize),
			SearchTerm: c.Query("search"),
			SortBy:     domain.ParseSortField(c.Query("sort")),
			Descending: c.Query("desc") == "true",
		},
		ActiveOnly: c.Query("active_only") == "true",
	}

	switch c.Query("category") {
	case "":
	case "corporate":
		q.Categories = domain.CorporateTypes
	case "social":
		q.Categories = domain.SocialTypes
	default:
		badRequest(c, "invalid category")
		return q, false
	}

	for _, raw := range c.QueryArray("type") {
		t, ok := domain.ParseEventType(raw)
		if !ok {
			badRequest(c, "invalid type "+raw)
			return q, false
		}
		q.Categories = append(q.Categories, t)
	}

	return q, true
}

func parseDateRange(c *gin.Context) (*domain.DateRange, bool) {
	start, end := c.Query("start"), c.Query("end")
	if start == "" && end == "" {
		return nil, true
	}

	s, err1 := time.Parse(time.RFC3339, start)
	e, err2 := time.Parse(time.RFC3339, end)
	if err1 != nil || err2 != nil {
		badRequest(c, "start and end must both be RFC3339")
		return nil, false
	}

	return &domain.DateRange{Start: s, End: e}, true
}
