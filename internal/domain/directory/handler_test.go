package directory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHandler(t *testing.T, count int) (*Handler, *echo.Echo, []*Doctor) {
	t.Helper()
	svc, seeded := newTestService(t, count)
	return NewHandler(svc, zerolog.Nop()), echo.New(), seeded
}

func TestHandler_ListDoctors(t *testing.T) {
	h, e, _ := newTestHandler(t, 4)

	req := httptest.NewRequest(http.MethodGet, "/doctors/all?limit=3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListDoctors(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Success bool      `json:"success"`
		Count   int       `json:"count"`
		Total   int       `json:"total"`
		HasMore bool      `json:"hasMore"`
		Doctors []*Doctor `json:"doctors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Success || body.Count != 3 || body.Total != 4 || !body.HasMore || len(body.Doctors) != 3 {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_GetDoctor(t *testing.T) {
	h, e, seeded := newTestHandler(t, 2)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(seeded[0].ID.String())

	if err := h.GetDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetDoctor_NotFound(t *testing.T) {
	h, e, _ := newTestHandler(t, 1)

	for _, id := range []string{"not-a-uuid", uuid.NewString()} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(id)

		if err := h.GetDoctor(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("id %q: expected 404, got %d", id, rec.Code)
		}
	}
}
