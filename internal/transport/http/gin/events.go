package httpgin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elisaschroeder/eventease/internal/domain"
	redisrepo "github.com/elisaschroeder/eventease/internal/repository/redis"
	"github.com/elisaschroeder/eventease/internal/service"
	"github.com/elisaschroeder/eventease/internal/service/state"
	"github.com/gin-gonic/gin"
)

const idemLockTTL = 60 * time.Second

// @Summary  List events (paged)
// @Param    page         query  int     false  "1-based page"
// @Param    page_size    query  int     false  "page size, at most 100"
// @Param    search       query  string  false  "name, description, location or tag"
// @Param    sort         query  string  false  "date, name or price"
// @Param    desc         query  bool    false  "descending order"
// @Param    category     query  string  false  "corporate or social"
// @Param    type         query  string  false  "event type, repeatable"
// @Param    active_only  query  bool    false  "hide inactive events"
// @Success  200  {object}  EventPage
// @Failure  400  {object}  ErrorResponse
// @Router   /events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, ok := parseEventQuery(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()

		var res domain.PagedResult[domain.Event]
		err := svcs.Visitors.Do(ctx, clientID(c), func(s *state.Store) error {
			var err error
			res, err = s.Query(ctx, q)
			return err
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, newEventPage(res))
	}
}

// @Summary  Get event
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  domain.Event
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		ctx := c.Request.Context()

		e, err := svcs.Catalog.GetEvent(ctx, eventID)
		if err != nil {
			respondErr(c, err)
			return
		}

		_ = svcs.Visitors.Do(ctx, clientID(c), func(s *state.Store) error {
			s.Select(ctx, *e)
			return nil
		})

		// revalidate every time so views keep being tracked
		writeJSONWithCache(c, http.StatusOK, e, "no-cache")
	}
}

// @Summary  Register for an event (idempotent with Idempotency-Key)
// @Param    id   path  int                  true  "Event ID"
// @Param    req  body  RegistrationRequest  true  "registrant"
// @Header   201  {string}  Idempotency-Key  "echo"
// @Success  201  {object}  domain.Registration
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "full, closed or idempotency key in progress"
// @Failure  429  {object}  ErrorResponse  "rate limited"
// @Router   /events/{id}/registrations [post]
func handleRegister(svcs *service.Services, idem *redisrepo.IdempotencyStore, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req RegistrationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		ctx := c.Request.Context()

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemRegistration(eventID, idemKey)

			st, payload, err := idem.Begin(ctx, idemStorageKey, idemLockTTL)
			if err != nil {
				respondErr(c, err)
				return
			}
			switch st {
			case redisrepo.IdemCompleted:
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			case redisrepo.IdemInProgress:
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		var out *domain.Registration
		err := svcs.Visitors.Do(ctx, clientID(c), func(s *state.Store) error {
			var err error
			out, err = s.Register(ctx, req.toDomain(eventID), "ip:"+c.ClientIP())
			return err
		})
		if err != nil {
			if idemStorageKey != "" {
				if rerr := idem.Release(ctx, idemStorageKey); rerr != nil {
					logger.Warn("release idempotency key", "key", idemStorageKey, "error", rerr)
				}
			}
			respondErr(c, err)
			return
		}

		if idemStorageKey != "" {
			saveIdempotent(ctx, idem, idemStorageKey, out, logger)
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, out)
	}
}

type idempotentResults interface {
	SaveResult(ctx context.Context, key, jsonPayload string) error
	Release(ctx context.Context, key string) error
}

// saveIdempotent stores v as the replay for key. When v cannot be encoded
// the key is released instead, so a retry runs again rather than replaying
// an empty body.
func saveIdempotent(ctx context.Context, store idempotentResults, key string, v any, logger *slog.Logger) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Warn("encode idempotent result", "key", key, "error", err)
		if rerr := store.Release(ctx, key); rerr != nil {
			logger.Warn("release idempotency key", "key", key, "error", rerr)
		}
		return
	}

	if err := store.SaveResult(ctx, key, string(b)); err != nil {
		logger.Warn("save idempotent result", "key", key, "error", err)
	}
}

// @Summary  List registrations of an event
// @Param    id  path  int  true  "Event ID"
// @Success  200  {array}  domain.Registration
// @Router   /events/{id}/registrations [get]
func handleListRegistrations(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		regs, err := svcs.Catalog.Registrations(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}

		if regs == nil {
			regs = []domain.Registration{}
		}
		c.JSON(http.StatusOK, regs)
	}
}
