package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hyperwatch/threat-monitor/internal/aggregate"
	"github.com/hyperwatch/threat-monitor/internal/drafter"
	"github.com/hyperwatch/threat-monitor/internal/escalate"
	"github.com/hyperwatch/threat-monitor/internal/models"
	"github.com/hyperwatch/threat-monitor/internal/monitor"
	"github.com/hyperwatch/threat-monitor/internal/notify"
	"github.com/hyperwatch/threat-monitor/internal/roster"
	"github.com/hyperwatch/threat-monitor/internal/sources"
	"github.com/hyperwatch/threat-monitor/internal/tracker"
)

// mockStore implements roster.Store for testing
type mockStore struct {
	recipients []models.Recipient
	nextID     int
}

func (m *mockStore) List(ctx context.Context) ([]models.Recipient, error) {
	return m.recipients, nil
}

func (m *mockStore) Get(ctx context.Context, id string) (models.Recipient, error) {
	for _, r := range m.recipients {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Recipient{}, roster.ErrNotFound
}

func (m *mockStore) Create(ctx context.Context, r models.Recipient) (models.Recipient, error) {
	m.nextID++
	r.ID = fmt.Sprintf("r%d", m.nextID)
	m.recipients = append(m.recipients, r)
	return r, nil
}

func (m *mockStore) Update(ctx context.Context, id string, u roster.Update) (models.Recipient, error) {
	for i, r := range m.recipients {
		if r.ID == id {
			if u.IsActive != nil {
				r.IsActive = *u.IsActive
			}
			if u.Email != nil {
				r.Email = *u.Email
			}
			m.recipients[i] = r
			return r, nil
		}
	}
	return models.Recipient{}, roster.ErrNotFound
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	for i, r := range m.recipients {
		if r.ID == id {
			m.recipients = append(m.recipients[:i], m.recipients[i+1:]...)
			return nil
		}
	}
	return roster.ErrNotFound
}

func (m *mockStore) Close() error { return nil }

// erroringStore fails every read, like a locked or corrupt database.
type erroringStore struct {
	mockStore
}

func (e *erroringStore) List(ctx context.Context) ([]models.Recipient, error) {
	return nil, errors.New("database is locked")
}

// fakeTransport implements notify.Transport
type fakeTransport struct {
	channel models.Channel
}

func (f *fakeTransport) Channel() models.Channel { return f.channel }
func (f *fakeTransport) Configured() bool        { return true }

func (f *fakeTransport) Send(ctx context.Context, r models.Recipient, msg notify.Message) error {
	return nil
}

// stubAdapter implements sources.Adapter with fixed output
type stubAdapter struct {
	source  models.Source
	threats []models.Threat
}

func (s *stubAdapter) Source() models.Source { return s.source }

func (s *stubAdapter) Fetch(ctx context.Context, region string) ([]models.Threat, error) {
	return s.threats, nil
}

func setupTestRouter(store roster.Store, adapters ...sources.Adapter) *gin.Engine {
	gin.SetMode(gin.TestMode)

	agg := aggregate.New(adapters...)
	svc := drafter.NewService(nil)
	dispatcher := notify.NewDispatcher(
		&fakeTransport{channel: models.ChannelEmail},
		&fakeTransport{channel: models.ChannelSMS},
	)
	coordinator := escalate.New(tracker.New(), svc, dispatcher, store, false)
	mon := monitor.New(agg, coordinator, nil, "CA", 0)

	router := gin.New()
	handler := NewHandler(agg, store, svc, dispatcher, coordinator, mon, "CA")
	handler.RegisterRoutes(router)
	return router
}

func weatherStub() *stubAdapter {
	return &stubAdapter{
		source: models.SourceWeather,
		threats: []models.Threat{
			{ID: "w1", Source: models.SourceWeather, Type: "Flood Warning", Severity: models.SeverityWarning,
				Location: models.Location{Lat: 36.7, Lng: -119.4, AreaDesc: "Fresno, CA"}},
			{ID: "w2", Source: models.SourceWeather, Type: "Heat Advisory", Severity: models.SeverityAdvisory},
		},
	}
}

func TestGetThreats(t *testing.T) {
	router := setupTestRouter(&mockStore{}, weatherStub())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/threats", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected Cache-Control no-store, got %q", cc)
	}

	var resp struct {
		Threats []models.Threat `json:"threats"`
		Errors  []string        `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Threats) != 2 {
		t.Fatalf("expected 2 threats, got %d", len(resp.Threats))
	}
	if resp.Threats[0].ID != "w1" {
		t.Errorf("expected warning ranked before advisory, got %s first", resp.Threats[0].ID)
	}
}

func TestGetThreats_UnknownSourceIgnored(t *testing.T) {
	router := setupTestRouter(&mockStore{}, weatherStub())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/threats?sources=volcano,weather", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Threats []models.Threat `json:"threats"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Threats) != 2 {
		t.Errorf("expected weather threats with unknown source ignored, got %d", len(resp.Threats))
	}
}

func TestGetThreatsGeoJSON_SkipsUnmapped(t *testing.T) {
	router := setupTestRouter(&mockStore{}, weatherStub())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/threats/geojson", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/geo+json") {
		t.Errorf("expected content-type application/geo+json, got %s", ct)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected type FeatureCollection, got %s", fc.Type)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 mapped feature, got %d", len(fc.Features))
	}
	if fc.Features[0].Properties["id"] != "w1" {
		t.Errorf("expected mapped threat w1, got %v", fc.Features[0].Properties["id"])
	}
}

func TestCreateDraft_Fallback(t *testing.T) {
	router := setupTestRouter(&mockStore{})

	body := `{"threat": {"id": "q1", "source": "seismic", "type": "Earthquake", "severity": "critical", "magnitude": 6.4}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/draft", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Message   string           `json:"message"`
		Audiences []string         `json:"audiences"`
		Channels  []models.Channel `json:"channels"`
		Fallback  bool             `json:"fallback"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Fallback {
		t.Error("expected fallback draft with no remote configured")
	}
	if resp.Message == "" || len(resp.Audiences) == 0 || len(resp.Channels) == 0 {
		t.Errorf("incomplete draft response: %+v", resp)
	}
}

func TestSendNotification(t *testing.T) {
	store := &mockStore{recipients: []models.Recipient{
		{ID: "r1", FullName: "Dana", Email: "dana@example.com", IsActive: true},
	}}
	router := setupTestRouter(store)

	body := `{"message": "test", "channels": ["email"]}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/notify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result notify.Result
	json.Unmarshal(w.Body.Bytes(), &result)
	if result.Email.Attempted != 1 || result.Email.Succeeded != 1 {
		t.Errorf("unexpected email tally: %+v", result.Email)
	}
}

func TestSendNotification_NoChannels(t *testing.T) {
	store := &mockStore{recipients: []models.Recipient{
		{ID: "r1", Email: "dana@example.com", IsActive: true},
	}}
	router := setupTestRouter(store)

	body := `{"message": "test", "channels": []}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/notify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestSendNotification_NoActiveRecipients(t *testing.T) {
	router := setupTestRouter(&mockStore{})

	body := `{"message": "test", "channels": ["email"]}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/notify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestSendNotification_StoreFailureDegradesToEmptyRoster(t *testing.T) {
	router := setupTestRouter(&erroringStore{})

	body := `{"message": "test", "channels": ["email"]}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/notify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	// The unreadable roster reads as empty, so the dispatcher rejects the
	// send for missing recipients instead of the store error surfacing.
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), notify.ErrNoRecipients.Error()) {
		t.Errorf("expected no-recipients error, got %s", w.Body.String())
	}
}

func TestListRecipients_StoreFailureDegradesToEmptyRoster(t *testing.T) {
	router := setupTestRouter(&erroringStore{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/recipients", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Recipients []models.Recipient `json:"recipients"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Recipients) != 0 {
		t.Errorf("expected empty roster, got %+v", resp.Recipients)
	}
}

func TestRecipientCRUD(t *testing.T) {
	router := setupTestRouter(&mockStore{})

	// Create without contact info rejected
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/recipients", strings.NewReader(`{"fullName": "Nobody"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for missing contact info, got %d", w.Code)
	}

	// Create
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/recipients", strings.NewReader(`{"fullName": "Dana", "email": "dana@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Recipient
	json.Unmarshal(w.Body.Bytes(), &created)
	if !created.IsActive {
		t.Error("expected new recipient active by default")
	}

	// Patch
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("PATCH", "/api/recipients/"+created.ID, strings.NewReader(`{"isActive": false}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var updated models.Recipient
	json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.IsActive {
		t.Error("expected recipient deactivated")
	}

	// Patch missing
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("PATCH", "/api/recipients/missing", strings.NewReader(`{"isActive": false}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}

	// Delete
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/api/recipients/"+created.ID, nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}

	// Double delete
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/api/recipients/"+created.ID, nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestSimulateAndAcknowledge(t *testing.T) {
	router := setupTestRouter(&mockStore{}, weatherStub())

	// Pin a simulated critical outage
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/debug/simulate-threat", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	// Status reflects the unacknowledged critical
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/alerts/status", nil)
	router.ServeHTTP(w, req)
	var status struct {
		State tracker.State `json:"state"`
	}
	json.Unmarshal(w.Body.Bytes(), &status)
	if status.State != tracker.StateUnacknowledged {
		t.Errorf("expected unacknowledged, got %s", status.State)
	}

	// Acknowledge
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/alerts/acknowledge", nil)
	router.ServeHTTP(w, req)
	var ack struct {
		State tracker.State `json:"state"`
	}
	json.Unmarshal(w.Body.Bytes(), &ack)
	if ack.State != tracker.StateAcknowledged {
		t.Errorf("expected acknowledged, got %s", ack.State)
	}

	// Clear the simulation; tracker returns to quiescent
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/api/debug/simulate-threat", nil)
	router.ServeHTTP(w, req)
	var cleared struct {
		Cleared int `json:"cleared"`
	}
	json.Unmarshal(w.Body.Bytes(), &cleared)
	if cleared.Cleared != 1 {
		t.Errorf("expected 1 cleared, got %d", cleared.Cleared)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/alerts/status", nil)
	router.ServeHTTP(w, req)
	json.Unmarshal(w.Body.Bytes(), &status)
	if status.State != tracker.StateQuiescent {
		t.Errorf("expected quiescent after clear, got %s", status.State)
	}
}

func TestHealth(t *testing.T) {
	router := setupTestRouter(&mockStore{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}
