package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meishi-backend/application/services"
	"meishi-backend/application/workflow"
	"meishi-backend/infrastructure/ocr"
	"meishi-backend/infrastructure/persistence/memory"
	"meishi-backend/interfaces/http/rest"
	"meishi-backend/interfaces/http/rest/handlers"
	"meishi-backend/pkg/auth"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "password123"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	jwtCfg := auth.JWTConfig{
		SecretKey: "integration-test-secret",
		Issuer:    "meishi-backend",
		Audience:  []string{"meishi-api"},
	}
	validator, err := auth.NewJWTValidator(jwtCfg)
	require.NoError(t, err)
	generator, err := auth.NewJWTGenerator(jwtCfg)
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := memory.NewCardRepository()
	cards := services.NewCardService(repo, nil, nil, logger)
	store := memory.NewSessionStore(time.Hour)
	engine := ocr.NewSimulatedEngine(0, logger)
	manager := workflow.NewManager(store, cards, engine, nil, logger)

	router := rest.NewRouter(cards, manager, validator, generator, handlers.Credentials{
		Email:    testEmail,
		Password: testPassword,
		Name:     "管理者 太郎",
	}, false, logger)

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var env envelope
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()

	resp, env := doJSON(t, "POST", srv.URL+"/auth/login", "", map[string]string{
		"email":    testEmail,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.NotEmpty(t, payload.Token)
	return payload.Token
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, "POST", srv.URL+"/auth/login", "", map[string]string{
		"email":    testEmail,
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestAPI_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, "GET", srv.URL+"/api/v1/cards", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCardCRUDOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	// Create
	resp, env := doJSON(t, "POST", srv.URL+"/api/v1/cards", token, map[string]interface{}{
		"fields": map[string]string{
			"companyName": "Acme",
			"personName":  "Taro Yamada",
			"email":       "taro@acme.com",
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "unverified", created.Status)

	// Get
	resp, _ = doJSON(t, "GET", srv.URL+"/api/v1/cards/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Update: verify the record
	resp, env = doJSON(t, "PUT", srv.URL+"/api/v1/cards/"+created.ID, token, map[string]string{
		"status": "verified",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "verified", updated.Status)

	// List with status filter
	resp, env = doJSON(t, "GET", srv.URL+"/api/v1/cards?status=verified", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Items      []json.RawMessage `json:"items"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	assert.Equal(t, 1, listing.Pagination.Total)

	// Delete twice: first true, second false
	resp, env = doJSON(t, "DELETE", srv.URL+"/api/v1/cards/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var del struct {
		Deleted bool `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &del))
	assert.True(t, del.Deleted)

	resp, env = doJSON(t, "DELETE", srv.URL+"/api/v1/cards/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &del))
	assert.False(t, del.Deleted)
}

func TestList_MalformedPaginationIsRejected(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	resp, env := doJSON(t, "GET", srv.URL+"/api/v1/cards?page=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION", env.Error.Code)

	resp, _ = doJSON(t, "GET", srv.URL+"/api/v1/cards?page_size=500", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadWorkflowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	// Start a session
	resp, env := doJSON(t, "POST", srv.URL+"/api/v1/uploads", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.Equal(t, "select", session.State)

	base := srv.URL + "/api/v1/uploads/" + session.ID

	// Attach an image
	resp, _ = doJSON(t, "POST", base+"/image", token, map[string]string{"imageRef": "uploads/card.png"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Kick off OCR
	resp, _ = doJSON(t, "POST", base+"/ocr", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Poll until the session reaches review
	require.Eventually(t, func() bool {
		_, env := doJSON(t, "GET", base, token, nil)
		var s struct {
			State string `json:"state"`
		}
		if err := json.Unmarshal(env.Data, &s); err != nil {
			return false
		}
		return s.State == "review"
	}, 2*time.Second, 20*time.Millisecond)

	// Correct a field
	resp, _ = doJSON(t, "PUT", base+"/fields", token, map[string]string{"position": "部長"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Save; the repository is empty, so no duplicates are possible
	resp, env = doJSON(t, "POST", base+"/save", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var done struct {
		State     string `json:"state"`
		SavedCard *struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Fields struct {
				Position string `json:"position"`
			} `json:"fields"`
		} `json:"savedCard"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &done))
	assert.Equal(t, "complete", done.State)
	require.NotNil(t, done.SavedCard)
	assert.Equal(t, "unverified", done.SavedCard.Status)
	assert.Equal(t, "部長", done.SavedCard.Fields.Position)

	// The record is now visible in the listing
	_, env = doJSON(t, "GET", srv.URL+"/api/v1/cards", token, nil)
	var listing struct {
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	assert.Equal(t, 1, listing.Pagination.Total)
}

func TestDuplicateResolutionOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	// Ingest once to seed a record
	first := runUploadToComplete(t, srv, token)

	// A second upload of the same card surfaces the duplicate
	resp, env := doJSON(t, "POST", srv.URL+"/api/v1/uploads", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var session struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	base := srv.URL + "/api/v1/uploads/" + session.ID

	resp, _ = doJSON(t, "POST", base+"/image", token, map[string]string{"imageRef": "uploads/again.png"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, "POST", base+"/ocr", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		_, env := doJSON(t, "GET", base, token, nil)
		var s struct {
			State string `json:"state"`
		}
		if err := json.Unmarshal(env.Data, &s); err != nil {
			return false
		}
		return s.State == "review"
	}, 2*time.Second, 20*time.Millisecond)

	// Force the draft email to collide with the seeded record
	resp, _ = doJSON(t, "PUT", base+"/fields", token, map[string]string{"email": first.Email})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = doJSON(t, "POST", base+"/save", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dup struct {
		State      string `json:"state"`
		Duplicates []struct {
			Similarity    float64  `json:"similarity"`
			MatchedFields []string `json:"matchedFields"`
		} `json:"duplicates"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dup))
	require.Equal(t, "duplicate", dup.State)
	require.Len(t, dup.Duplicates, 1)
	assert.Equal(t, 0.8, dup.Duplicates[0].Similarity)
	assert.Equal(t, []string{"email"}, dup.Duplicates[0].MatchedFields)

	// Update the existing record instead of creating a new one
	resp, env = doJSON(t, "POST", base+"/resolve", token, map[string]string{
		"action": "update",
		"cardId": first.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var resolved struct {
		State string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resolved))
	assert.Equal(t, "complete", resolved.State)

	// Still exactly one record
	_, env = doJSON(t, "GET", srv.URL+"/api/v1/cards", token, nil)
	var listing struct {
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	assert.Equal(t, 1, listing.Pagination.Total)
}

type seededCard struct {
	ID    string
	Email string
}

// runUploadToComplete drives one upload through the workflow and returns the
// resulting record
func runUploadToComplete(t *testing.T, srv *httptest.Server, token string) seededCard {
	t.Helper()

	resp, env := doJSON(t, "POST", srv.URL+"/api/v1/uploads", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var session struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	base := srv.URL + "/api/v1/uploads/" + session.ID

	resp, _ = doJSON(t, "POST", base+"/image", token, map[string]string{"imageRef": "uploads/card.png"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, "POST", base+"/ocr", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		_, env := doJSON(t, "GET", base, token, nil)
		var s struct {
			State string `json:"state"`
		}
		if err := json.Unmarshal(env.Data, &s); err != nil {
			return false
		}
		return s.State == "review"
	}, 2*time.Second, 20*time.Millisecond)

	resp, env = doJSON(t, "POST", base+"/save", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var done struct {
		State     string `json:"state"`
		SavedCard struct {
			ID     string `json:"id"`
			Fields struct {
				Email string `json:"email"`
			} `json:"fields"`
		} `json:"savedCard"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &done))
	require.Equal(t, "complete", done.State, "unexpected state: %s", done.State)

	return seededCard{ID: done.SavedCard.ID, Email: done.SavedCard.Fields.Email}
}

func TestExportOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	req, err := http.NewRequest("GET", srv.URL+"/api/v1/cards/export", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "cards.csv")
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, fmt.Sprintf("path %s", path))
	}
}
