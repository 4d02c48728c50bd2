package domain

import "time"

type AttendanceStatus string

const (
	StatusRegistered AttendanceStatus = "Registered"
	StatusCheckedIn  AttendanceStatus = "CheckedIn"
	StatusCheckedOut AttendanceStatus = "CheckedOut"
	StatusNoShow     AttendanceStatus = "NoShow"
	StatusCancelled  AttendanceStatus = "Cancelled"
)

func ParseAttendanceStatus(s string) (AttendanceStatus, bool) {
	switch AttendanceStatus(s) {
	case StatusRegistered, StatusCheckedIn, StatusCheckedOut, StatusNoShow, StatusCancelled:
		return AttendanceStatus(s), true
	}
	return "", false
}

type Attendee struct {
	ID                  int64            `json:"id"`
	EventID             int64            `json:"event_id" validate:"required"`
	Name                string           `json:"name" validate:"required,max=100"`
	Email               string           `json:"email" validate:"required,email,max=150"`
	Phone               string           `json:"phone" validate:"max=50"`
	Company             string           `json:"company" validate:"max=100"`
	JobTitle            string           `json:"job_title" validate:"max=100"`
	RegisteredAt        time.Time        `json:"registered_at"`
	CheckInTime         *time.Time       `json:"check_in_time,omitempty"`
	CheckOutTime        *time.Time       `json:"check_out_time,omitempty"`
	Status              AttendanceStatus `json:"status"`
	IsVIP               bool             `json:"is_vip"`
	SpecialRequirements string           `json:"special_requirements,omitempty"`
	Notes               string           `json:"notes,omitempty"`
}

// Attended reports whether the attendee has arrived, whether or not they
// have left since.
func (a *Attendee) Attended() bool {
	return a.Status == StatusCheckedIn || a.Status == StatusCheckedOut
}

type CheckInRequest struct {
	AttendeeID  int64
	EventID     int64
	CheckInTime time.Time
	Notes       string
}

type CheckOutRequest struct {
	AttendeeID   int64
	EventID      int64
	CheckOutTime time.Time
	Feedback     string
	Rating       *int
}

type AttendanceStats struct {
	EventID             int64          `json:"event_id"`
	EventName           string         `json:"event_name"`
	TotalRegistered     int            `json:"total_registered"`
	CheckedIn           int            `json:"checked_in"`
	CheckedOut          int            `json:"checked_out"`
	NoShows             int            `json:"no_shows"`
	Cancelled           int            `json:"cancelled"`
	AverageStayDuration *time.Duration `json:"average_stay_duration,omitempty"`
}

// AttendanceRate is the percentage of registered attendees that showed up.
func (s AttendanceStats) AttendanceRate() float64 {
	if s.TotalRegistered == 0 {
		return 0
	}
	return float64(s.CheckedIn) / float64(s.TotalRegistered) * 100
}

// CompletionRate is the percentage of arrivals that also checked out.
func (s AttendanceStats) CompletionRate() float64 {
	if s.CheckedIn == 0 {
		return 0
	}
	return float64(s.CheckedOut) / float64(s.CheckedIn) * 100
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

type CompanyCount struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

type AttendanceReport struct {
	GeneratedAt           time.Time            `json:"generated_at"`
	Period                DateRange            `json:"period"`
	EventStats            []AttendanceStats    `json:"event_stats"`
	TotalEvents           int                  `json:"total_events"`
	TotalAttendees        int                  `json:"total_attendees"`
	OverallAttendanceRate float64              `json:"overall_attendance_rate"`
	TopAttendees          []Attendee           `json:"top_attendees"`
	AttendanceByCompany   []CompanyCount       `json:"attendance_by_company"`
	AttendanceByDayOfWeek map[time.Weekday]int `json:"attendance_by_day_of_week"`
}

type AttendanceDashboard struct {
	TotalAttendees        int        `json:"total_attendees"`
	TodayCheckIns         int        `json:"today_check_ins"`
	WeeklyCheckIns        int        `json:"weekly_check_ins"`
	MonthlyCheckIns       int        `json:"monthly_check_ins"`
	AverageAttendanceRate float64    `json:"average_attendance_rate"`
	UpcomingEvents        int        `json:"upcoming_events"`
	VIPAttendees          int        `json:"vip_attendees"`
	RecentCheckIns        []Attendee `json:"recent_check_ins"`
}
