package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/callgenie/saathi-backend/pkg/postgres"
)

func onboardRequest(body string) *http.Request {
	req := httptest.NewRequest("POST", "/api/auth/onboard", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestOnboard_AssignsNumber(t *testing.T) {
	h, deps := newTestHandler(t)
	deps.store.addUser("user-1", "Asha", "")

	c, w := newTestContext(t)
	c.Request = onboardRequest(`{"user_id":"user-1"}`)
	h.Onboard(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if body["phone_number"] == "" || body["phone_number"] == nil {
		t.Errorf("phone_number missing in response: %v", body)
	}
}

func TestOnboard_IdempotentForAssignedUser(t *testing.T) {
	h, deps := newTestHandler(t)
	deps.store.addUser("user-1", "Asha", "+919999999999")

	c, w := newTestContext(t)
	c.Request = onboardRequest(`{"user_id":"user-1"}`)
	h.Onboard(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["phone_number"] != "+919999999999" {
		t.Errorf("phone_number = %v, want existing assignment back", body["phone_number"])
	}
}

func TestOnboard_MissingUserID(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, body := range []string{`{}`, `not json`} {
		c, w := newTestContext(t)
		c.Request = onboardRequest(body)
		h.Onboard(c)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
		resp := decodeBody(t, w)
		if resp["error"] != "Missing user_id" {
			t.Errorf("body %q: error = %v", body, resp["error"])
		}
	}
}

func TestOnboard_UnknownUser(t *testing.T) {
	h, _ := newTestHandler(t)

	c, w := newTestContext(t)
	c.Request = onboardRequest(`{"user_id":"nobody"}`)
	h.Onboard(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "User not found" {
		t.Errorf("error = %v, want %q", body["error"], "User not found")
	}
}

func TestOnboard_EmptyPool(t *testing.T) {
	h, deps := newTestHandler(t)
	deps.store.addUser("user-1", "Asha", "")
	deps.store.assignErr = postgres.ErrNoFreeNumbers

	c, w := newTestContext(t)
	c.Request = onboardRequest(`{"user_id":"user-1"}`)
	h.Onboard(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "No available phone numbers" {
		t.Errorf("error = %v, want %q", body["error"], "No available phone numbers")
	}
}

func TestOnboard_TokenSubjectMismatch(t *testing.T) {
	h, deps := newTestHandler(t)
	deps.store.addUser("user-1", "Asha", "")

	c, w := newTestContext(t)
	c.Request = onboardRequest(`{"user_id":"user-1"}`)
	c.Set("auth_user_id", "someone-else")
	h.Onboard(c)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestGetPhoneNumber(t *testing.T) {
	h, deps := newTestHandler(t)
	deps.store.addUser("assigned", "Asha", "+919999999999")
	deps.store.addUser("fresh", "Ravi", "")

	tests := []struct {
		name       string
		userID     string
		wantStatus int
		wantPhone  interface{}
	}{
		{"assigned user", "assigned", http.StatusOK, "+919999999999"},
		{"user without number", "fresh", http.StatusOK, nil},
		{"unknown user", "missing", http.StatusNotFound, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(t)
			c.Request = httptest.NewRequest("GET", "/api/auth/phone/"+tt.userID, nil)
			c.Params = []gin.Param{{Key: "user_id", Value: tt.userID}}
			h.GetPhoneNumber(c)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			body := decodeBody(t, w)
			if body["phone_number"] != tt.wantPhone {
				t.Errorf("phone_number = %v, want %v", body["phone_number"], tt.wantPhone)
			}
		})
	}
}
