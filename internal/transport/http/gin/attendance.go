package httpgin

import (
	"net/http"

	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/service"
	"github.com/gin-gonic/gin"
)

// @Summary  Attendees of an event, by name
// @Param    id  path  int  true  "Event ID"
// @Success  200  {array}  domain.Attendee
// @Router   /events/{id}/attendees [get]
func handleEventAttendees(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		list, err := svcs.Attendance.EventAttendees(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  VIP attendees of an event
// @Param    id  path  int  true  "Event ID"
// @Success  200  {array}  domain.Attendee
// @Router   /events/{id}/attendees/vip [get]
func handleVIPAttendees(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		list, err := svcs.Attendance.VIPAttendees(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Check in every listed attendee still registered for the event
// @Param    id   path  int                 true  "Event ID"
// @Param    req  body  BulkCheckInRequest  true  "attendees"
// @Success  200  {object}  UpdatedResponse
// @Router   /events/{id}/attendees/check-in [post]
func handleBulkCheckIn(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req BulkCheckInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		updated, err := svcs.Attendance.BulkCheckIn(c.Request.Context(), req.AttendeeIDs, eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, UpdatedResponse{Updated: updated})
	}
}

// @Summary  Attendance statistics of an event
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  domain.AttendanceStats
// @Router   /events/{id}/attendance [get]
func handleAttendanceStats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		st, err := svcs.Attendance.Stats(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"stats":           st,
			"attendance_rate": st.AttendanceRate(),
			"completion_rate": st.CompletionRate(),
		})
	}
}

// @Summary  Find attendees by status or search term
// @Param    status  query  string  false  "Registered, CheckedIn, CheckedOut, NoShow or Cancelled"
// @Param    search  query  string  false  "name, email, company or job title"
// @Success  200  {array}  domain.Attendee
// @Failure  400  {object}  ErrorResponse
// @Router   /attendees [get]
func handleFindAttendees(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var (
			list []domain.Attendee
			err  error
		)

		if raw := c.Query("status"); raw != "" {
			status, ok := domain.ParseAttendanceStatus(raw)
			if !ok {
				badRequest(c, "invalid status")
				return
			}
			list, err = svcs.Attendance.ByStatus(ctx, status)
		} else {
			list, err = svcs.Attendance.Search(ctx, c.Query("search"))
		}
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Register an attendee
// @Param    req  body  AttendeeRequest  true  "attendee"
// @Success  201  {object}  domain.Attendee
// @Failure  400  {object}  ErrorResponse
// @Router   /attendees [post]
func handleCreateAttendee(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AttendeeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		a, err := svcs.Attendance.Register(c.Request.Context(), req.toDomain())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, a)
	}
}

// @Summary  Get attendee
// @Param    id  path  int  true  "Attendee ID"
// @Success  200  {object}  domain.Attendee
// @Failure  404  {object}  ErrorResponse
// @Router   /attendees/{id} [get]
func handleGetAttendee(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		a, err := svcs.Attendance.Attendee(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

// @Summary  Replace attendee
// @Param    id   path  int              true  "Attendee ID"
// @Param    req  body  domain.Attendee  true  "attendee"
// @Success  200  {object}  domain.Attendee
// @Failure  404  {object}  ErrorResponse
// @Router   /attendees/{id} [put]
func handleUpdateAttendee(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var a domain.Attendee
		if err := c.ShouldBindJSON(&a); err != nil {
			badRequest(c, err.Error())
			return
		}
		a.ID = id

		out, err := svcs.Attendance.Update(c.Request.Context(), a)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Delete attendee
// @Param    id  path  int  true  "Attendee ID"
// @Success  204
// @Failure  404  {object}  ErrorResponse
// @Router   /attendees/{id} [delete]
func handleDeleteAttendee(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		respondErr(c, svcs.Attendance.Delete(c.Request.Context(), id))
	}
}

// @Summary  Check in
// @Param    id   path  int             true  "Attendee ID"
// @Param    req  body  CheckInRequest  true  "event and optional time"
// @Success  200  {object}  domain.Attendee
// @Failure  404  {object}  ErrorResponse
// @Router   /attendees/{id}/check-in [post]
func handleCheckIn(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req CheckInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		a, err := svcs.Attendance.CheckIn(c.Request.Context(), domain.CheckInRequest{
			AttendeeID:  id,
			EventID:     req.EventID,
			CheckInTime: timeOrZero(req.CheckInTime),
			Notes:       req.Notes,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

// @Summary  Check out
// @Param    id   path  int              true  "Attendee ID"
// @Param    req  body  CheckOutRequest  true  "event, feedback and rating"
// @Success  200  {object}  domain.Attendee
// @Failure  400  {object}  ErrorResponse  "rating outside 1..5"
// @Failure  404  {object}  ErrorResponse
// @Router   /attendees/{id}/check-out [post]
func handleCheckOut(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req CheckOutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		a, err := svcs.Attendance.CheckOut(c.Request.Context(), domain.CheckOutRequest{
			AttendeeID:   id,
			EventID:      req.EventID,
			CheckOutTime: timeOrZero(req.CheckOutTime),
			Feedback:     req.Feedback,
			Rating:       req.Rating,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

// @Summary  Mark a registered attendee as no-show
// @Param    id  path  int  true  "Attendee ID"
// @Success  200  {object}  UpdatedResponse
// @Router   /attendees/{id}/no-show [post]
func handleMarkNoShow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		updated, err := svcs.Attendance.MarkNoShow(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, UpdatedResponse{Updated: updated})
	}
}

// @Summary  Cancel a registered attendee
// @Param    id  path  int  true  "Attendee ID"
// @Success  200  {object}  UpdatedResponse
// @Router   /attendees/{id}/cancel [post]
func handleCancelAttendee(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		updated, err := svcs.Attendance.Cancel(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, UpdatedResponse{Updated: updated})
	}
}

// @Summary  Attendance report
// @Param    start  query  string  false  "RFC3339, defaults to a month ago"
// @Param    end    query  string  false  "RFC3339, defaults to now"
// @Success  200  {object}  domain.AttendanceReport
// @Router   /attendance/report [get]
func handleAttendanceReport(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		period, ok := parseDateRange(c)
		if !ok {
			return
		}

		r, err := svcs.Attendance.Report(c.Request.Context(), period)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

// @Summary  Attendance dashboard
// @Success  200  {object}  domain.AttendanceDashboard
// @Router   /attendance/dashboard [get]
func handleAttendanceDashboard(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := svcs.Attendance.Dashboard(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}
