package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bunnyfocus/internal/auth"
	"bunnyfocus/internal/catalog"
	"bunnyfocus/internal/models"
	"bunnyfocus/internal/random"
	"bunnyfocus/internal/repo"
	"bunnyfocus/internal/service"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stubChat struct {
	reply string
	err   error
}

func (s stubChat) Ask(context.Context, string, []catalog.Item) (string, error) {
	return s.reply, s.err
}

func newTestAPI(t *testing.T, store repo.Store) *API {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	svc := service.New(store, cat, random.New(3))
	svc.Clock = fixedClock{now: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
	svc.Location = time.UTC
	return &API{Service: svc, ProfileID: "default", Origins: []string{"http://app.test"}}
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	decodeBody(t, rec, &resp)
	return resp.Error.Code
}

func TestHealth(t *testing.T) {
	h := newTestAPI(t, repo.NewMemory()).Router()
	rec := doRequest(t, h, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDashboardDefaults(t *testing.T) {
	h := newTestAPI(t, repo.NewMemory()).Router()
	rec := doRequest(t, h, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var dash service.Dashboard
	decodeBody(t, rec, &dash)
	if dash.CompletedSessions != 0 || dash.Streak != 0 || dash.FocusQuote == "" || dash.BreakQuote == "" {
		t.Fatalf("unexpected dashboard %+v", dash)
	}
}

func TestCompleteClaimSelectFlow(t *testing.T) {
	h := newTestAPI(t, repo.NewMemory()).Router()

	rec := doRequest(t, h, http.MethodPost, "/claim", `{"item_id":"bunny_apple"}`, nil)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "NO_OFFER_TODAY" {
		t.Fatalf("claim before completion: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodPost, "/complete", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d: %s", rec.Code, rec.Body.String())
	}
	var done service.Completion
	decodeBody(t, rec, &done)
	if !done.NewOptions || done.Profile.Streak != 1 || len(done.Offer.Items) == 0 {
		t.Fatalf("unexpected completion %+v", done)
	}
	itemID := done.Offer.Items[0].ID

	rec = doRequest(t, h, http.MethodGet, "/options", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), itemID) {
		t.Fatalf("options: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodPost, "/select", `{"item_id":"`+itemID+`"}`, nil)
	if rec.Code != http.StatusForbidden || errorCode(t, rec) != "ITEM_NOT_OWNED" {
		t.Fatalf("select before claim: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodPost, "/claim", `{"item_id":"bunny_unknown"}`, nil)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "OPTION_NOT_OFFERED" {
		t.Fatalf("claim not offered: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodPost, "/claim", `{"item_id":"`+itemID+`"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("claim status = %d: %s", rec.Code, rec.Body.String())
	}
	var p models.Profile
	decodeBody(t, rec, &p)
	if !p.Owns(itemID) || !p.OptionsClaimed {
		t.Fatalf("claim not applied: %+v", p)
	}

	rec = doRequest(t, h, http.MethodPost, "/claim", `{"item_id":"`+itemID+`"}`, nil)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "ALREADY_CLAIMED" {
		t.Fatalf("second claim: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodPost, "/select", `{"item_id":"`+itemID+`"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("select status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodGet, "/catalog", "", nil)
	var view struct {
		Items []struct {
			ID       string `json:"id"`
			Owned    bool   `json:"owned"`
			Selected bool   `json:"selected"`
		} `json:"items"`
	}
	decodeBody(t, rec, &view)
	found := false
	for _, entry := range view.Items {
		if entry.ID == itemID {
			found = entry.Owned && entry.Selected
		}
	}
	if !found {
		t.Fatalf("catalog does not show %s as owned and selected: %s", itemID, rec.Body.String())
	}
}

func TestClaimValidation(t *testing.T) {
	h := newTestAPI(t, repo.NewMemory()).Router()
	rec := doRequest(t, h, http.MethodPost, "/claim", `{"item_id":`, nil)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "INVALID_JSON" {
		t.Fatalf("bad json: %d %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, h, http.MethodPost, "/claim", `{"item_id":"  "}`, nil)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "VALIDATION_ERROR" {
		t.Fatalf("empty item: %d %s", rec.Code, rec.Body.String())
	}
}

func TestSettings(t *testing.T) {
	h := newTestAPI(t, repo.NewMemory()).Router()

	rec := doRequest(t, h, http.MethodPut, "/settings", `{}`, nil)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "VALIDATION_ERROR" {
		t.Fatalf("empty settings: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodPut, "/settings", `{"theme":"dark"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodGet, "/settings", "", nil)
	var settings models.Settings
	decodeBody(t, rec, &settings)
	if settings.Theme != "dark" || settings.AccentColor != models.DefaultAccentColor {
		t.Fatalf("settings = %+v", settings)
	}
}

func TestCorruptProfile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "default.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	h := newTestAPI(t, repo.NewFile(dir)).Router()
	rec := doRequest(t, h, http.MethodGet, "/profile", "", nil)
	if rec.Code != http.StatusInternalServerError || errorCode(t, rec) != "CORRUPT_PROFILE" {
		t.Fatalf("corrupt profile: %d %s", rec.Code, rec.Body.String())
	}
}

func TestChatEndpoint(t *testing.T) {
	api := newTestAPI(t, repo.NewMemory())
	h := api.Router()

	rec := doRequest(t, h, http.MethodPost, "/chat", `{"message":"hi"}`, nil)
	if rec.Code != http.StatusServiceUnavailable || errorCode(t, rec) != "CHAT_DISABLED" {
		t.Fatalf("disabled chat: %d %s", rec.Code, rec.Body.String())
	}

	api.Service.Assistant = stubChat{reply: "You can do it!"}
	rec = doRequest(t, h, http.MethodPost, "/chat", `{"message":"hi"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp chatResponse
	decodeBody(t, rec, &resp)
	if resp.Reply != "You can do it!" {
		t.Fatalf("reply = %q", resp.Reply)
	}

	api.Service.Assistant = stubChat{err: errors.New("upstream down")}
	rec = doRequest(t, h, http.MethodPost, "/chat", `{"message":"hi"}`, nil)
	if rec.Code != http.StatusBadGateway || errorCode(t, rec) != "CHAT_FAILED" {
		t.Fatalf("failing chat: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthEnabled(t *testing.T) {
	hash, err := auth.HashPassword("carrots")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	api := newTestAPI(t, repo.NewMemory())
	api.Auth = auth.NewManager("secret", hash, time.Hour)
	api.Service.Auth = api.Auth
	h := api.Router()

	rec := doRequest(t, h, http.MethodGet, "/profile", "", nil)
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "UNAUTHORIZED" {
		t.Fatalf("no token: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodPost, "/auth/login", `{"password":"lettuce"}`, nil)
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "INVALID_CREDENTIALS" {
		t.Fatalf("bad password: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodPost, "/auth/login", `{"password":"carrots"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var login loginResponse
	decodeBody(t, rec, &login)

	rec = doRequest(t, h, http.MethodGet, "/profile", "", http.Header{"Authorization": {"Bearer " + login.AccessToken}})
	if rec.Code != http.StatusOK {
		t.Fatalf("profile with token: %d %s", rec.Code, rec.Body.String())
	}

	expired, _, err := api.Auth.GenerateToken("default", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	rec = doRequest(t, h, http.MethodGet, "/profile", "", http.Header{"Authorization": {"Bearer " + expired}})
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "TOKEN_EXPIRED" {
		t.Fatalf("expired token: %d %s", rec.Code, rec.Body.String())
	}
}

func TestLoginDisabled(t *testing.T) {
	h := newTestAPI(t, repo.NewMemory()).Router()
	rec := doRequest(t, h, http.MethodPost, "/auth/login", `{"password":"x"}`, nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "AUTH_DISABLED" {
		t.Fatalf("login disabled: %d %s", rec.Code, rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestAPI(t, repo.NewMemory()).Router()
	rec := doRequest(t, h, http.MethodOptions, "/complete", "", http.Header{"Origin": {"http://app.test"}})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Fatalf("allow origin = %q", got)
	}

	rec = doRequest(t, h, http.MethodOptions, "/complete", "", http.Header{"Origin": {"http://evil.test"}})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
