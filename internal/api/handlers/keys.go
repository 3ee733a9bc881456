package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/odiadev/tts-gateway/internal/auth"
	"github.com/odiadev/tts-gateway/internal/usage"
)

// AdminHandler serves key issuance and usage reporting behind the admin
// bearer token. It is only mounted when the gateway runs in database auth
// mode.
type AdminHandler struct {
	keys       *auth.StoreValidator
	usageSvc   *usage.Service
	adminToken string
}

func NewAdminHandler(keys *auth.StoreValidator, usageSvc *usage.Service, adminToken string) *AdminHandler {
	return &AdminHandler{
		keys:       keys,
		usageSvc:   usageSvc,
		adminToken: adminToken,
	}
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	if h.adminToken == "" {
		return false
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) == 1
}

type createKeyRequest struct {
	Name  string `json:"name"`
	Quota int64  `json:"quota"`
}

// CreateKey handles POST /admin/keys. The raw key appears in the response
// exactly once.
func (h *AdminHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Unauthorized"})
		return
	}

	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		req.Name = "API Key"
	}

	raw, ak, err := h.keys.CreateKey(r.Context(), req.Name, req.Quota)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "key creation failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      ak.ID,
		"name":    ak.Name,
		"api_key": raw,
		"quota":   ak.Quota,
		"message": "Save this key securely!",
	})
}

// Usage handles GET /admin/usage?since=RFC3339.
func (h *AdminHandler) Usage(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Unauthorized"})
		return
	}

	var since *time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid since timestamp"})
			return
		}
		since = &t
	}

	summaries, err := h.usageSvc.GetSummary(r.Context(), since)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "usage query failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"usage": summaries})
}
