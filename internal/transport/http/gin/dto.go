package httpgin

import (
	"time"

	"github.com/elisaschroeder/eventease/internal/domain"
)

type RegistrationRequest struct {
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Phone           string `json:"phone"`
	Company         string `json:"company"`
	Position        string `json:"position"`
	SpecialRequests string `json:"special_requests"`
}

func (r RegistrationRequest) toDomain(eventID int64) domain.Registration {
	return domain.Registration{
		EventID:         eventID,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		Phone:           r.Phone,
		Company:         r.Company,
		Position:        r.Position,
		SpecialRequests: r.SpecialRequests,
	}
}

type AttendeeRequest struct {
	EventID             int64  `json:"event_id" binding:"required"`
	Name                string `json:"name" binding:"required"`
	Email               string `json:"email" binding:"required"`
	Phone               string `json:"phone"`
	Company             string `json:"company"`
	JobTitle            string `json:"job_title"`
	IsVIP               bool   `json:"is_vip"`
	SpecialRequirements string `json:"special_requirements"`
	Notes               string `json:"notes"`
}

func (r AttendeeRequest) toDomain() domain.Attendee {
	return domain.Attendee{
		EventID:             r.EventID,
		Name:                r.Name,
		Email:               r.Email,
		Phone:               r.Phone,
		Company:             r.Company,
		JobTitle:            r.JobTitle,
		IsVIP:               r.IsVIP,
		SpecialRequirements: r.SpecialRequirements,
		Notes:               r.Notes,
	}
}

type CheckInRequest struct {
	EventID     int64      `json:"event_id" binding:"required"`
	CheckInTime *time.Time `json:"check_in_time"`
	Notes       string     `json:"notes"`
}

type CheckOutRequest struct {
	EventID      int64      `json:"event_id" binding:"required"`
	CheckOutTime *time.Time `json:"check_out_time"`
	Feedback     string     `json:"feedback"`
	Rating       *int       `json:"rating"`
}

type BulkCheckInRequest struct {
	AttendeeIDs []int64 `json:"attendee_ids" binding:"required,min=1"`
}

type PageViewRequest struct {
	Page string `json:"page" binding:"required"`
}

type SearchRequest struct {
	Term string `json:"term"`
}

type CategoryRequest struct {
	Category string `json:"category"`
}

type CartRequest struct {
	EventID int64 `json:"event_id" binding:"required"`
}

type ValueRequest struct {
	Value any `json:"value"`
}

type ErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

type EventPage struct {
	Items      []domain.Event  `json:"items"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	Info       domain.PageInfo `json:"info"`
}

func newEventPage(res domain.PagedResult[domain.Event]) EventPage {
	return EventPage{
		Items:      res.Items,
		TotalCount: res.TotalCount,
		Page:       res.Page,
		PageSize:   res.PageSize,
		Info:       res.Info(),
	}
}

type UpdatedResponse struct {
	Updated bool `json:"updated"`
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
