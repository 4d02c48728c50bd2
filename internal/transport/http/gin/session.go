package httpgin

import (
	"io"
	"net/http"

	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/service"
	"github.com/elisaschroeder/eventease/internal/service/state"
	"github.com/gin-gonic/gin"
)

// withStore runs fn against the calling visitor's store and writes the
// result as JSON. fn returning a nil value yields 204.
func withStore(c *gin.Context, svcs *service.Services, fn func(s *state.Store) (any, error)) {
	ctx := c.Request.Context()

	var out any
	err := svcs.Visitors.Do(ctx, clientID(c), func(s *state.Store) error {
		var err error
		out, err = fn(s)
		return err
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	if out == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary  Current view of the calling visitor
// @Success  200  {object}  state.View
// @Router   /session [get]
func handleGetSession(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		withStore(c, svcs, func(s *state.Store) (any, error) {
			return s.Snapshot(c.Request.Context()), nil
		})
	}
}

// @Summary  End the session
// @Success  204
// @Router   /session [delete]
func handleClearSession(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		withStore(c, svcs, func(s *state.Store) (any, error) {
			s.Tracker().Clear(c.Request.Context())
			return nil, nil
		})
	}
}

// @Summary  Keep the session alive
// @Success  200  {object}  domain.UserSession
// @Router   /session/extend [post]
func handleExtendSession(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		withStore(c, svcs, func(s *state.Store) (any, error) {
			ctx := c.Request.Context()
			s.Tracker().Extend(ctx)
			return s.Tracker().Current(ctx), nil
		})
	}
}

// @Summary  Session analytics
// @Success  200  {object}  domain.SessionAnalytics
// @Router   /session/analytics [get]
func handleSessionAnalytics(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		withStore(c, svcs, func(s *state.Store) (any, error) {
			return s.Tracker().Analytics(c.Request.Context()), nil
		})
	}
}

// @Summary  Events tracked in the session
// @Success  200  {array}  domain.SessionEvent
// @Router   /session/events [get]
func handleSessionEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		withStore(c, svcs, func(s *state.Store) (any, error) {
			events := s.Tracker().Events(c.Request.Context())
			if events == nil {
				events = []domain.SessionEvent{}
			}
			return events, nil
		})
	}
}

// @Summary  Stream view changes as server-sent events
// @Produce  text/event-stream
// @Router   /session/changes [get]
func handleSessionChanges(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var (
			changes <-chan state.Change
			cancel  func()
		)
		err := svcs.Visitors.Do(ctx, clientID(c), func(s *state.Store) error {
			changes, cancel = s.Subscribe()
			return nil
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		defer cancel()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-ctx.Done():
				return false
			case ch, ok := <-changes:
				if !ok {
					return false
				}
				c.SSEvent(ch.Field, ch.Value)
				return true
			}
		})
	}
}

// @Summary  Record a page view
// @Param    req  body  PageViewRequest  true  "page"
// @Success  204
// @Router   /session/page-views [post]
func handleTrackPageView(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PageViewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		withStore(c, svcs, func(s *state.Store) (any, error) {
			s.Tracker().TrackPageView(c.Request.Context(), req.Page)
			return nil, nil
		})
	}
}

// @Summary  Set the search term
// @Param    req  body  SearchRequest  true  "term"
// @Success  200  {object}  state.View
// @Router   /session/search [post]
func handleTrackSearch(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		withStore(c, svcs, func(s *state.Store) (any, error) {
			ctx := c.Request.Context()
			s.SetSearchTerm(ctx, req.Term)
			return s.Snapshot(ctx), nil
		})
	}
}

// @Summary  Set the category filter
// @Param    req  body  CategoryRequest  true  "category"
// @Success  200  {object}  state.View
// @Router   /session/category [put]
func handleSetCategory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		withStore(c, svcs, func(s *state.Store) (any, error) {
			ctx := c.Request.Context()
			s.SetCategory(ctx, req.Category)
			return s.Snapshot(ctx), nil
		})
	}
}

// @Summary  Add an event to the cart
// @Param    req  body  CartRequest  true  "event"
// @Success  200  {object}  domain.ShoppingCart
// @Failure  404  {object}  ErrorResponse
// @Router   /session/cart [post]
func handleAddToCart(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		e, err := svcs.Catalog.GetEvent(c.Request.Context(), req.EventID)
		if err != nil {
			respondErr(c, err)
			return
		}

		withStore(c, svcs, func(s *state.Store) (any, error) {
			ctx := c.Request.Context()
			s.AddToCart(ctx, *e)
			return s.Tracker().Current(ctx).Cart, nil
		})
	}
}

// @Summary  Remove an event from the cart
// @Param    event_id  path  int  true  "Event ID"
// @Success  200  {object}  domain.ShoppingCart
// @Router   /session/cart/{event_id} [delete]
func handleRemoveFromCart(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "event_id")
		if !ok {
			return
		}

		withStore(c, svcs, func(s *state.Store) (any, error) {
			ctx := c.Request.Context()
			s.RemoveFromCart(ctx, eventID)
			return s.Tracker().Current(ctx).Cart, nil
		})
	}
}

// @Summary  Empty the cart
// @Success  200  {object}  domain.ShoppingCart
// @Router   /session/cart [delete]
func handleClearCart(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		withStore(c, svcs, func(s *state.Store) (any, error) {
			ctx := c.Request.Context()
			s.ClearCart(ctx)
			return s.Tracker().Current(ctx).Cart, nil
		})
	}
}

// @Summary  Replace preferences
// @Param    req  body  domain.UserPreferences  true  "preferences"
// @Success  200  {object}  domain.UserPreferences
// @Router   /session/preferences [put]
func handleUpdatePreferences(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p domain.UserPreferences
		if err := c.ShouldBindJSON(&p); err != nil {
			badRequest(c, err.Error())
			return
		}

		withStore(c, svcs, func(s *state.Store) (any, error) {
			ctx := c.Request.Context()
			s.UpdatePreferences(ctx, p)
			return s.Tracker().Current(ctx).Preferences, nil
		})
	}
}

// @Summary  Read a session value
// @Param    key  path  string  true  "Key"
// @Success  200  {object}  ValueRequest
// @Failure  404  {object}  ErrorResponse
// @Router   /session/data/{key} [get]
func handleGetValue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")

		var (
			v     any
			found bool
		)
		err := svcs.Visitors.Do(c.Request.Context(), clientID(c), func(s *state.Store) error {
			v, found = s.Preference(c.Request.Context(), key)
			return nil
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		if !found {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no value for " + key})
			return
		}
		c.JSON(http.StatusOK, ValueRequest{Value: v})
	}
}

// @Summary  Store a session value
// @Param    key  path  string        true  "Key"
// @Param    req  body  ValueRequest  true  "value"
// @Success  204
// @Router   /session/data/{key} [put]
func handleSetValue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ValueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		withStore(c, svcs, func(s *state.Store) (any, error) {
			s.SavePreference(c.Request.Context(), c.Param("key"), req.Value)
			return nil, nil
		})
	}
}
