package httpgin

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elisaschroeder/eventease/internal/config"
	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/logging"
	"github.com/elisaschroeder/eventease/internal/repository/memory"
	"github.com/elisaschroeder/eventease/internal/service"
	"github.com/elisaschroeder/eventease/internal/service/state"
	"github.com/elisaschroeder/eventease/internal/storage"
	"github.com/gin-gonic/gin"
)

const visitor = "6f1c1d1e-8a51-4d0e-9b8f-2d6c7a0f4b11"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.DiscardHandler)
	day := time.Now().AddDate(0, 0, 3)

	events := []domain.Event{
		{ID: 1, Name: "Winter Gala", Date: day, Price: 150, Capacity: 1, Type: domain.EventGala, IsActive: true},
		{ID: 2, Name: "Go Workshop", Date: day.AddDate(0, 0, 1), Price: 40, Capacity: 20, Type: domain.EventWorkshop, IsActive: true},
	}
	attendees := []domain.Attendee{
		{ID: 1, EventID: 2, Name: "Ana Diaz", Email: "ana@example.com", Status: domain.StatusRegistered, RegisteredAt: day.AddDate(0, 0, -7)},
	}

	svcs := service.NewServices(service.Deps{
		Events:    memory.NewEventRepo(events),
		Attendees: memory.NewAttendeeRepo(attendees),
		Visitors:  storage.NewMemory(),
		Settings:  config.DefaultSettings(),
		Audit:     logging.NewAudit(logger, false),
	}, logger)

	return NewRouter(svcs, nil, logger)
}

func do(r http.Handler, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(clientIDHeader, visitor)
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListEvents(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/events?sort=name&page_size=1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body)
	}

	var page EventPage
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.TotalCount != 2 || len(page.Items) != 1 || page.Items[0].Name != "Go Workshop" {
		t.Errorf("page = %+v, want Go Workshop first of 2", page)
	}
	if !page.Info.HasNext {
		t.Errorf("Info.HasNext = false, want true")
	}

	if got := w.Header().Get(clientIDHeader); got != visitor {
		t.Errorf("%s = %q, want %q", clientIDHeader, got, visitor)
	}
}

func TestListEventsBadQuery(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		path string
	}{
		{"unknown category", "/events?category=outdoor"},
		{"unknown type", "/events?type=Picnic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(r, http.MethodGet, tt.path, nil, nil); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestClientIDIssued(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(clientIDHeader, "not-a-uuid")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	got := w.Header().Get(clientIDHeader)
	if got == "" || got == "not-a-uuid" {
		t.Errorf("%s = %q, want a freshly issued id", clientIDHeader, got)
	}
}

func TestGetEvent(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/events/1", http.StatusOK},
		{"missing", "/events/99", http.StatusNotFound},
		{"bad id", "/events/abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(r, http.MethodGet, tt.path, nil, nil); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestGetEventNotModified(t *testing.T) {
	r := newTestRouter(t)

	first := do(r, http.MethodGet, "/events/2", nil, nil)
	tag := first.Header().Get("ETag")
	if tag == "" {
		t.Fatal("ETag missing")
	}

	second := do(r, http.MethodGet, "/events/2", nil, map[string]string{"If-None-Match": tag})
	if second.Code != http.StatusNotModified {
		t.Errorf("status = %d, want %d", second.Code, http.StatusNotModified)
	}
}

func TestRegister(t *testing.T) {
	r := newTestRouter(t)

	valid := RegistrationRequest{FirstName: "Jo", LastName: "Park", Email: "jo@example.com"}

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"created", "/events/1/registrations", valid, http.StatusCreated},
		{"event full", "/events/1/registrations", valid, http.StatusConflict},
		{"unknown event", "/events/99/registrations", valid, http.StatusNotFound},
		{"missing name", "/events/2/registrations", RegistrationRequest{Email: "x@example.com"}, http.StatusBadRequest},
		{"bad email", "/events/2/registrations", RegistrationRequest{FirstName: "A", LastName: "B", Email: "nope"}, http.StatusBadRequest},
	}

	// order matters: the first registration fills event 1
	for _, tt := range tests {
		w := do(r, http.MethodPost, tt.path, tt.body, nil)
		if w.Code != tt.want {
			t.Errorf("%s: status = %d, want %d: %s", tt.name, w.Code, tt.want, w.Body)
		}
	}

	w := do(r, http.MethodGet, "/events/1/registrations", nil, nil)
	var regs []domain.Registration
	if err := json.Unmarshal(w.Body.Bytes(), &regs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(regs) != 1 || regs[0].Email != "jo@example.com" {
		t.Errorf("registrations = %+v, want jo@example.com only", regs)
	}
}

func TestAttendeeLifecycle(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/attendees/1/check-in", CheckInRequest{EventID: 2, Notes: "front desk"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("check-in status = %d: %s", w.Code, w.Body)
	}

	rating := 7
	w = do(r, http.MethodPost, "/attendees/1/check-out", CheckOutRequest{EventID: 2, Rating: &rating}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("check-out with rating 7 status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	rating = 5
	w = do(r, http.MethodPost, "/attendees/1/check-out", CheckOutRequest{EventID: 2, Feedback: "Great", Rating: &rating}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("check-out status = %d: %s", w.Code, w.Body)
	}

	var a domain.Attendee
	if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Status != domain.StatusCheckedOut {
		t.Errorf("Status = %s, want %s", a.Status, domain.StatusCheckedOut)
	}
	if want := "front desk\nFeedback: Great (Rating: 5/5)"; a.Notes != want {
		t.Errorf("Notes = %q, want %q", a.Notes, want)
	}

	w = do(r, http.MethodGet, "/attendees?status=CheckedOut", nil, nil)
	var list []domain.Attendee
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 1 {
		t.Errorf("CheckedOut attendees = %d, want 1", len(list))
	}

	if w := do(r, http.MethodGet, "/attendees?status=Lost", nil, nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown status code = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if w := do(r, http.MethodPost, "/attendees/42/check-in", CheckInRequest{EventID: 2}, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing attendee check-in = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w := do(r, http.MethodDelete, "/attendees/1", nil, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestSessionCart(t *testing.T) {
	r := newTestRouter(t)

	if w := do(r, http.MethodPost, "/session/cart", CartRequest{EventID: 2}, nil); w.Code != http.StatusOK {
		t.Fatalf("add status = %d: %s", w.Code, w.Body)
	}
	if w := do(r, http.MethodPost, "/session/cart", CartRequest{EventID: 99}, nil); w.Code != http.StatusNotFound {
		t.Errorf("add missing event = %d, want %d", w.Code, http.StatusNotFound)
	}

	w := do(r, http.MethodGet, "/session", nil, nil)
	var view state.View
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}

	items := view.Session.Cart.Items
	if len(items) != 1 || items[0].EventID != 2 || items[0].Quantity != 1 {
		t.Errorf("cart = %+v, want one Go Workshop", items)
	}

	w = do(r, http.MethodDelete, "/session/cart/2", nil, nil)
	var cart domain.ShoppingCart
	_ = json.Unmarshal(w.Body.Bytes(), &cart)
	if len(cart.Items) != 0 {
		t.Errorf("cart after remove = %+v, want empty", cart.Items)
	}
}

func TestSessionValues(t *testing.T) {
	r := newTestRouter(t)

	if w := do(r, http.MethodGet, "/session/data/theme", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing value = %d, want %d", w.Code, http.StatusNotFound)
	}

	if w := do(r, http.MethodPut, "/session/data/theme", ValueRequest{Value: "dark"}, nil); w.Code != http.StatusNoContent {
		t.Fatalf("set value = %d, want %d", w.Code, http.StatusNoContent)
	}

	w := do(r, http.MethodGet, "/session/data/theme", nil, nil)
	var got ValueRequest
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Value != "dark" {
		t.Errorf("value = %v, want dark", got.Value)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", http.StatusOK},
		{"/healthz/eventservice", http.StatusOK},
		{"/healthz/nope", http.StatusNotFound},
		{"/settings", http.StatusOK},
	}

	for _, tt := range tests {
		if w := do(r, http.MethodGet, tt.path, nil, nil); w.Code != tt.want {
			t.Errorf("GET %s = %d, want %d: %s", tt.path, w.Code, tt.want, w.Body)
		}
	}
}

type recordingResults struct {
	saved    map[string]string
	released []string
}

func (r *recordingResults) SaveResult(_ context.Context, key, payload string) error {
	if r.saved == nil {
		r.saved = map[string]string{}
	}
	r.saved[key] = payload
	return nil
}

func (r *recordingResults) Release(_ context.Context, key string) error {
	r.released = append(r.released, key)
	return nil
}

func TestSaveIdempotent(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	tests := []struct {
		name         string
		value        any
		wantSaved    string
		wantReleased bool
	}{
		{"encodable result is stored", domain.Registration{ID: 7, EventID: 1}, `"id":7`, false},
		{"unencodable result releases the key", func() {}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingResults{}
			saveIdempotent(context.Background(), rec, "k", tt.value, logger)

			got, saved := rec.saved["k"]
			if tt.wantSaved == "" && saved {
				t.Errorf("stored %q, want nothing", got)
			}
			if tt.wantSaved != "" && !strings.Contains(got, tt.wantSaved) {
				t.Errorf("stored %q, want it to contain %s", got, tt.wantSaved)
			}
			if released := len(rec.released) == 1; released != tt.wantReleased {
				t.Errorf("released = %v, want %v", released, tt.wantReleased)
			}
		})
	}
}
