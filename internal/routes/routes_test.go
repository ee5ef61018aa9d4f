package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/config"
	"github.com/BruksfildServices01/barber-agenda/internal/infra/memory"
	"github.com/BruksfildServices01/barber-agenda/internal/lock"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
)

type fixture struct {
	t     *testing.T
	r     *gin.Engine
	store *memory.Store
	day   time.Time
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:            "test-secret",
		JWTTTL:               time.Hour,
		Timezone:             "UTC",
		BusinessHours:        domain.DefaultBusinessHours(),
		EnforceBookingPolicy: true,
		RateLimitRPS:         1000,
		RateLimitBurst:       1000,
	}
}

// nextMonday is a bookable day a few days out, at midnight UTC.
func nextMonday() time.Time {
	d := time.Now().UTC().AddDate(0, 0, 2)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func newFixture(t *testing.T, cfg *config.Config, uploader interface {
	Upload(ctx context.Context, barberID string, r io.Reader) (string, error)
}) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	r := gin.New()

	deps := Deps{
		Config:      cfg,
		Store:       store,
		Locker:      lock.NewLocal(),
		AuditReader: store,
	}
	if uploader != nil {
		deps.Uploader = uploader
	}
	RegisterRoutes(r, deps)

	return &fixture{t: t, r: r, store: store, day: nextMonday()}
}

func (f *fixture) at(hour, minute int) int64 {
	return f.day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute).UnixMilli()
}

func (f *fixture) do(method, path string, body any, header ...string) *httptest.ResponseRecorder {
	f.t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			f.t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func (f *fixture) createBarber(name string) models.Barber {
	f.t.Helper()
	w := f.do(http.MethodPost, "/barbers", map[string]any{"name": name, "serviceIds": []string{}})
	if w.Code != http.StatusCreated {
		f.t.Fatalf("create barber: %d %s", w.Code, w.Body.String())
	}
	return decode[struct{ Barber models.Barber }](f.t, w).Barber
}

// ======================================================
// BARBERS
// ======================================================

func TestBarberCRUD(t *testing.T) {
	f := newFixture(t, testConfig(), nil)

	w := f.do(http.MethodPost, "/barbers", map[string]any{"name": "Joe", "specialties": []string{"Fade"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	b := decode[struct{ Barber models.Barber }](t, w).Barber
	if b.BarberID == "" || b.PhotoURL != models.DefaultPhotoURL || b.Rating != 0 || len(b.ServiceIDs) != 1 {
		t.Fatalf("defaults not applied: %+v", b)
	}

	w = f.do(http.MethodPut, "/barbers/"+b.BarberID, map[string]any{"rating": 4.5})
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	if got := decode[struct{ Barber models.Barber }](t, w).Barber; got.Rating != 4.5 || got.Name != "Joe" {
		t.Fatalf("merge failed: %+v", got)
	}

	w = f.do(http.MethodPut, "/barbers/"+b.BarberID, map[string]any{"unknown": true})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "no_valid_fields") {
		t.Fatalf("empty update: %d %s", w.Code, w.Body.String())
	}

	w = f.do(http.MethodGet, "/barbers", nil)
	if got := decode[struct{ Barbers []models.Barber }](t, w).Barbers; len(got) != 1 {
		t.Fatalf("list = %+v", got)
	}

	if w = f.do(http.MethodDelete, "/barbers/"+b.BarberID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	if w = f.do(http.MethodGet, "/barbers/"+b.BarberID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", w.Code)
	}
}

func TestInvalidBarberIsNotListed(t *testing.T) {
	f := newFixture(t, testConfig(), nil)

	for _, body := range []map[string]any{
		{"serviceIds": []string{"s1"}},
		{"name": "NoServices"},
		{"name": "  ", "serviceIds": []string{}},
	} {
		if w := f.do(http.MethodPost, "/barbers", body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %v: status %d", body, w.Code)
		}
	}

	w := f.do(http.MethodGet, "/barbers", nil)
	if w.Body.String() != `{"barbers":[]}` {
		t.Fatalf("list = %s", w.Body.String())
	}
}

// ======================================================
// APPOINTMENTS
// ======================================================

func TestAppointmentConflicts(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	b := f.createBarber("Joe")
	base := "/barbers/" + b.BarberID + "/appointments"

	w := f.do(http.MethodPost, base, map[string]any{
		"customerName": "Ann", "startTime": f.at(10, 0), "endTime": f.at(10, 30),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	first := decode[struct{ Appointment models.Appointment }](t, w).Appointment
	if first.Service != "Haircut" || first.Status != "scheduled" || first.CustomerPhone != "" {
		t.Fatalf("defaults: %+v", first)
	}

	w = f.do(http.MethodPost, base, map[string]any{
		"customerName": "Bob", "startTime": f.at(10, 15), "endTime": f.at(10, 45),
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("overlap: %d %s", w.Code, w.Body.String())
	}
	if e := decode[map[string]string](t, w); e["error_code"] != "time_conflict" {
		t.Fatalf("error body = %v", e)
	}

	w = f.do(http.MethodPost, base, map[string]any{
		"customerName": "Cid", "startTime": f.at(10, 30), "endTime": f.at(11, 0),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("adjacent: %d %s", w.Code, w.Body.String())
	}

	// cancel the first, then its slot is free again
	w = f.do(http.MethodPut, base+"/"+first.AppointmentID, map[string]any{"status": "cancelled"})
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: %d %s", w.Code, w.Body.String())
	}
	w = f.do(http.MethodPost, base, map[string]any{
		"customerName": "Dee", "startTime": f.at(10, 0), "endTime": f.at(10, 30),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("rebook cancelled slot: %d %s", w.Code, w.Body.String())
	}

	w = f.do(http.MethodGet, base, nil)
	list := decode[struct{ Appointments []models.Appointment }](t, w).Appointments
	if len(list) != 3 {
		t.Fatalf("list len = %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].StartTime > list[i].StartTime {
			t.Fatalf("list not sorted: %+v", list)
		}
	}

	w = f.do(http.MethodGet, fmt.Sprintf("%s?startDate=%d&endDate=%d", base, f.at(10, 30), f.at(10, 30)), nil)
	if got := decode[struct{ Appointments []models.Appointment }](t, w).Appointments; len(got) != 1 {
		t.Fatalf("window = %+v", got)
	}

	if w = f.do(http.MethodGet, base+"?startDate=yesterday", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad startDate: %d", w.Code)
	}
}

func TestAppointmentValidation(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	b := f.createBarber("Joe")
	base := "/barbers/" + b.BarberID + "/appointments"

	cases := []struct {
		name   string
		path   string
		body   map[string]any
		status int
		code   string
	}{
		{"missing name", base, map[string]any{"startTime": f.at(9, 0), "endTime": f.at(9, 30)}, 400, "validation_failed"},
		{"end before start", base, map[string]any{"customerName": "A", "startTime": f.at(9, 30), "endTime": f.at(9, 0)}, 400, "invalid_time_range"},
		{"past", base, map[string]any{"customerName": "A", "startTime": time.Now().Add(-48 * time.Hour).UnixMilli(), "endTime": time.Now().Add(-47 * time.Hour).UnixMilli()}, 400, "appointment_in_past"},
		{"unknown barber", "/barbers/nope/appointments", map[string]any{"customerName": "A", "startTime": f.at(9, 0), "endTime": f.at(9, 30)}, 404, "barber_not_found"},
		{"bad phone", base, map[string]any{"customerName": "A", "customerPhone": "12", "startTime": f.at(9, 0), "endTime": f.at(9, 30)}, 400, "invalid_request"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(http.MethodPost, tc.path, tc.body)
			if w.Code != tc.status {
				t.Fatalf("status = %d %s", w.Code, w.Body.String())
			}
			if e := decode[map[string]string](t, w); e["error_code"] != tc.code {
				t.Fatalf("error_code = %s", e["error_code"])
			}
		})
	}

	if w := f.do(http.MethodGet, base+"/missing", nil); w.Code != http.StatusNotFound {
		t.Fatalf("get missing: %d", w.Code)
	}
	if w := f.do(http.MethodDelete, base+"/missing", nil); w.Code != http.StatusNotFound {
		t.Fatalf("delete missing: %d", w.Code)
	}
}

// ======================================================
// AVAILABILITY
// ======================================================

func TestAvailability(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	b := f.createBarber("Joe")

	w := f.do(http.MethodPost, "/services", map[string]any{"title": "Fade", "duration": 60})
	if w.Code != http.StatusCreated {
		t.Fatalf("create service: %d %s", w.Code, w.Body.String())
	}
	svc := decode[models.Service](t, w)

	w = f.do(http.MethodPost, "/barbers/"+b.BarberID+"/appointments", map[string]any{
		"customerName": "Ann", "serviceId": svc.ServiceID, "startTime": f.at(9, 0),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("book: %d %s", w.Code, w.Body.String())
	}
	if ap := decode[struct{ Appointment models.Appointment }](t, w).Appointment; ap.EndTime != f.at(10, 0) || ap.Service != "Fade" {
		t.Fatalf("service not applied: %+v", ap)
	}

	date := f.day.Format("2006-01-02")
	w = f.do(http.MethodGet, "/barbers/"+b.BarberID+"/availability?date="+date+"&serviceId="+svc.ServiceID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("availability: %d %s", w.Code, w.Body.String())
	}
	got := decode[struct {
		Bookable bool
		Slots    []string
	}](t, w)

	if !got.Bookable || len(got.Slots) == 0 || got.Slots[0] != "10:00" || got.Slots[len(got.Slots)-1] != "16:30" {
		t.Fatalf("slots = %+v", got)
	}

	sunday := f.day.AddDate(0, 0, -1).Format("2006-01-02")
	w = f.do(http.MethodGet, "/barbers/"+b.BarberID+"/availability?date="+sunday, nil)
	if body := w.Body.String(); !strings.Contains(body, `"bookable":false`) || !strings.Contains(body, `"slots":[]`) {
		t.Fatalf("sunday = %s", body)
	}

	if w = f.do(http.MethodGet, "/barbers/"+b.BarberID+"/availability", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing date: %d", w.Code)
	}
}

func TestBusinessHours(t *testing.T) {
	f := newFixture(t, testConfig(), nil)

	w := f.do(http.MethodGet, "/business-hours", nil)
	got := decode[struct {
		StartHour int
		Slots     []string
		OpenDays  []int
	}](t, w)

	if got.StartHour != 9 || len(got.Slots) != 16 || len(got.OpenDays) != 6 {
		t.Fatalf("business hours = %+v", got)
	}
}

// ======================================================
// SERVICES
// ======================================================

func TestServices(t *testing.T) {
	f := newFixture(t, testConfig(), nil)

	if w := f.do(http.MethodGet, "/services", nil); w.Body.String() != "[]" {
		t.Fatalf("empty list = %s", w.Body.String())
	}

	if w := f.do(http.MethodPost, "/services", map[string]any{"name": "Shave"}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing duration: %d", w.Code)
	}

	w := f.do(http.MethodPost, "/services", map[string]any{"name": "Shave", "durationMinutes": 20, "price": 15})
	svc := decode[models.Service](t, w)

	w = f.do(http.MethodPut, "/services/"+svc.ServiceID, map[string]any{"durationMinutes": 25})
	if got := decode[models.Service](t, w); got.DurationMinutes != 25 || got.Name != "Shave" {
		t.Fatalf("update = %+v", got)
	}

	if w = f.do(http.MethodDelete, "/services/"+svc.ServiceID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	if w = f.do(http.MethodGet, "/services/"+svc.ServiceID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get deleted: %d", w.Code)
	}
}

// ======================================================
// AUTH
// ======================================================

func TestAuthFlow(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	ctx := context.Background()

	// plain-text record as found in older resource files
	if err := f.store.CreateUser(ctx, &models.User{Username: "admin", PasswordHash: "admin", Role: "admin"}); err != nil {
		t.Fatal(err)
	}

	if w := f.do(http.MethodPost, "/auth/login", map[string]any{"username": "admin", "password": "nope"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: %d", w.Code)
	}

	w := f.do(http.MethodPost, "/auth/login", map[string]any{"username": "admin", "password": "admin"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("password leaked: %s", w.Body.String())
	}
	token := decode[struct{ Token string }](t, w).Token

	u, _ := f.store.GetUser(ctx, "admin")
	if !auth.IsHashed(u.PasswordHash) {
		t.Fatal("plain-text password was not upgraded")
	}

	w = f.do(http.MethodGet, "/auth/me", nil, "Authorization", "Bearer "+token)
	if got := decode[struct{ User models.User }](t, w).User; got.Username != "admin" {
		t.Fatalf("me = %s", w.Body.String())
	}

	if w = f.do(http.MethodGet, "/auth/me?username=ghost", nil); w.Code != http.StatusNotFound {
		t.Fatalf("me ghost: %d", w.Code)
	}

	reg := map[string]any{"username": "ann", "password": "pw", "email": "ann@example.com", "role": "admin"}
	w = f.do(http.MethodPost, "/auth/register", reg)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	if got := decode[struct{ User models.User }](t, w).User; got.Role != "user" {
		t.Fatalf("anonymous caller got role %s", got.Role)
	}

	if w = f.do(http.MethodPost, "/auth/register", reg); w.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", w.Code)
	}
}

func TestAuthRequiredGatesWrites(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRequired = true
	f := newFixture(t, cfg, nil)

	if w := f.do(http.MethodPost, "/barbers", map[string]any{"name": "Joe", "serviceIds": []string{}}); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous write: %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/barbers", nil); w.Code != http.StatusOK {
		t.Fatalf("anonymous read: %d", w.Code)
	}

	token, err := auth.NewTokens(cfg.JWTSecret, time.Hour).Issue(&models.User{Username: "admin", Role: "admin"})
	if err != nil {
		t.Fatal(err)
	}
	w := f.do(http.MethodPost, "/barbers", map[string]any{"name": "Joe", "serviceIds": []string{}}, "Authorization", "Bearer "+token)
	if w.Code != http.StatusCreated {
		t.Fatalf("authorized write: %d %s", w.Code, w.Body.String())
	}
}

// ======================================================
// PHOTOS
// ======================================================

type stubUploader struct{ calls int }

func (s *stubUploader) Upload(ctx context.Context, barberID string, r io.Reader) (string, error) {
	s.calls++
	_, _ = io.Copy(io.Discard, r)
	return "https://cdn.example.com/barbers/" + barberID + "/x.webp", nil
}

func TestPhotoUpload(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	b := f.createBarber("Joe")

	if w := f.do(http.MethodPost, "/barbers/"+b.BarberID+"/photo", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("disabled uploads: %d", w.Code)
	}

	up := &stubUploader{}
	f = newFixture(t, testConfig(), up)
	b = f.createBarber("Joe")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("photo", "me.png")
	_, _ = part.Write([]byte("fake"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/barbers/"+b.BarberID+"/photo", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || up.calls != 1 {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	if got := decode[struct{ Barber models.Barber }](t, w).Barber; !strings.HasSuffix(got.PhotoURL, "/x.webp") {
		t.Fatalf("photoUrl = %s", got.PhotoURL)
	}
}

func TestCORSPreflightOnAnyRoute(t *testing.T) {
	f := newFixture(t, testConfig(), nil)

	w := f.do(http.MethodOptions, "/barbers/x/appointments", nil, "Origin", "http://localhost:3000")
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("preflight: %d %v", w.Code, w.Header())
	}
}

// ======================================================
// AUDIT
// ======================================================

func TestAuditLogsAdminOnly(t *testing.T) {
	cfg := testConfig()
	f := newFixture(t, cfg, nil)

	ctx := context.Background()
	for _, action := range []string{"barber_created", "appointment_created", "appointment_created"} {
		if err := f.store.WriteAuditLog(ctx, &models.AuditLog{ID: action + fmt.Sprint(time.Now().UnixNano()), Action: action}); err != nil {
			t.Fatal(err)
		}
	}

	if w := f.do(http.MethodGet, "/audit-logs", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: %d", w.Code)
	}

	tokens := auth.NewTokens(cfg.JWTSecret, time.Hour)
	userToken, _ := tokens.Issue(&models.User{Username: "bob", Role: "user"})
	if w := f.do(http.MethodGet, "/audit-logs", nil, "Authorization", "Bearer "+userToken); w.Code != http.StatusForbidden {
		t.Fatalf("non-admin: %d", w.Code)
	}

	adminToken, _ := tokens.Issue(&models.User{Username: "admin", Role: "admin"})
	w := f.do(http.MethodGet, "/audit-logs?action=appointment_created&limit=1", nil, "Authorization", "Bearer "+adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("admin: %d %s", w.Code, w.Body.String())
	}

	got := decode[struct {
		Total int64
		Limit int
		Logs  []models.AuditLog
	}](t, w)
	if got.Total != 2 || got.Limit != 1 || len(got.Logs) != 1 || got.Logs[0].Action != "appointment_created" {
		t.Fatalf("got %+v", got)
	}

	if w := f.do(http.MethodGet, "/audit-logs?from=yesterday", nil, "Authorization", "Bearer "+adminToken); w.Code != http.StatusBadRequest {
		t.Fatalf("bad date: %d", w.Code)
	}
}
