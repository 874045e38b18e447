package handler

import (
	"net/http"
	"strconv"
	"testing"

	"go.uber.org/zap"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/middleware"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/repository"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/service"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/testutil"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/shared/mailer"
)

func setupProcessTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	testutil.SeedTestOrgs(t, db)

	repos := repository.NewRepositories(db)
	services := service.New(service.Deps{
		Repos:    repos,
		Mail:     mailer.New("", 0, "", "", "sbo@test.mil"),
		Log:      zap.NewNop(),
		BaseURL:  "https://sbo.test",
		PageSize: 10,
	})
	h := NewHandlers(services)

	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/processes", h.Process.List)
	api.POST("/processes", h.Process.Create)
	api.POST("/processes/filter", h.Process.Filter)
	api.GET("/processes/:id", h.Process.Get)
	api.PUT("/processes/:id", h.Process.Update)
	api.DELETE("/processes/:id", middleware.RequireRole("sbp"), h.Process.Delete)
	api.POST("/processes/:id/transition", h.Process.Transition)
	api.GET("/processes/:id/targets", h.Process.Targets)
	api.GET("/processes/:id/notes", h.Note.List)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func createProcess(t *testing.T, env *testutil.TestEnv, token string) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/processes", testutil.ValidProcess(), token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	return resp["data"].(map[string]interface{})
}

func TestProcessCreateAndGet(t *testing.T) {
	env := setupProcessTest(t)
	token := testutil.DefaultTestToken()

	data := createProcess(t, env, token)
	if data["current_stage"] != string(entity.StageBuyerReview) {
		t.Errorf("Expected Buyer Review, got %v", data["current_stage"])
	}
	if data["etag"] == "" || data["etag"] == nil {
		t.Error("Expected an etag on the created process")
	}

	id := data["id"].(float64)
	w := testutil.DoRequest(env.Router, "GET", "/api/v1/processes/"+itoa(id), nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if got["solicitation_number"] != "FA8601-24-R-0001" {
		t.Errorf("Expected solicitation number, got %v", got["solicitation_number"])
	}
}

func TestProcessCreateValidationFailure(t *testing.T) {
	env := setupProcessTest(t)
	token := testutil.DefaultTestToken()

	p := testutil.ValidProcess()
	p.SolicitationNumber = "RFP#123"
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/processes", p, token)
	if w.Code != 422 {
		t.Fatalf("Expected 422, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 42200 {
		t.Errorf("Expected code 42200, got %v", resp["code"])
	}
	fields := resp["data"].(map[string]interface{})["fields"].(map[string]interface{})
	if fields["solicitation_number"] == nil {
		t.Error("Expected a solicitation_number field message")
	}
}

func TestProcessListAndFilter(t *testing.T) {
	env := setupProcessTest(t)
	token := testutil.DefaultTestToken()

	createProcess(t, env, token)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/processes", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 process, got %d", len(items))
	}

	// A filter that matches nothing resets to an empty page 1.
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/processes/filter",
		map[string]interface{}{"field": "parent_org", "value": entity.ParentOrgUSSF}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if items := data["items"].([]interface{}); len(items) != 0 {
		t.Errorf("Expected no matches, got %d", len(items))
	}
	if data["page"].(float64) != 1 {
		t.Errorf("Expected page reset to 1, got %v", data["page"])
	}
}

func TestProcessTransitionFlow(t *testing.T) {
	env := setupProcessTest(t)
	token := testutil.DefaultTestToken()

	data := createProcess(t, env, token)
	id := itoa(data["id"].(float64))
	etag := data["etag"].(string)

	// Send: Buyer Review -> CO Initial Review.
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/processes/"+id+"/transition",
		map[string]interface{}{"action": "send", "etag": etag, "note": "Complete package."}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	result := testutil.ParseResponse(w)["data"].(map[string]interface{})
	proc := result["process"].(map[string]interface{})
	if proc["current_stage"] != string(entity.StageCOInitialReview) {
		t.Errorf("Expected CO Initial Review, got %v", proc["current_stage"])
	}
	if proc["etag"] == etag {
		t.Error("Expected the etag to rotate")
	}

	// The transition note is visible.
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/processes/"+id+"/notes", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	notes := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	if len(notes) != 1 {
		t.Fatalf("Expected 1 note, got %d", len(notes))
	}

	// Replaying with the old etag conflicts.
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/processes/"+id+"/transition",
		map[string]interface{}{"action": "send", "etag": etag}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if code := testutil.ParseResponse(w)["code"].(float64); code != 40900 {
		t.Errorf("Expected code 40900, got %v", code)
	}
}

func TestProcessReworkRequiresReasonAndNote(t *testing.T) {
	env := setupProcessTest(t)
	token := testutil.DefaultTestToken()

	data := createProcess(t, env, token)
	id := itoa(data["id"].(float64))
	etag := data["etag"].(string)

	// Move to CO Initial Review first.
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/processes/"+id+"/transition",
		map[string]interface{}{"action": "send", "etag": etag}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	proc := testutil.ParseResponse(w)["data"].(map[string]interface{})["process"].(map[string]interface{})
	etag = proc["etag"].(string)

	// Rework without a reason is rejected up front.
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/processes/"+id+"/transition",
		map[string]interface{}{"action": "rework", "etag": etag, "note": "Fix it."}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// With reason and note it lands back at Buyer Review.
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/processes/"+id+"/transition",
		map[string]interface{}{
			"action":        "rework",
			"etag":          etag,
			"rework_reason": "Incomplete Documentation",
			"note":          "Missing attachments.",
		}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	proc = testutil.ParseResponse(w)["data"].(map[string]interface{})["process"].(map[string]interface{})
	if proc["current_stage"] != string(entity.StageBuyerReview) {
		t.Errorf("Expected Buyer Review, got %v", proc["current_stage"])
	}
}

func TestProcessTargets(t *testing.T) {
	env := setupProcessTest(t)
	token := testutil.DefaultTestToken()

	data := createProcess(t, env, token)
	id := itoa(data["id"].(float64))

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/processes/"+id+"/targets", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	payload := testutil.ParseResponse(w)["data"].(map[string]interface{})
	sends := payload["send"].([]interface{})
	if len(sends) != 1 {
		t.Fatalf("Expected 1 send target from Buyer Review, got %d", len(sends))
	}
	first := sends[0].(map[string]interface{})
	if first["stage"] != string(entity.StageCOInitialReview) {
		t.Errorf("Expected CO Initial Review target, got %v", first["stage"])
	}
	if payload["rework"] != nil {
		t.Error("Buyer Review should have no rework target")
	}
}

func TestProcessDelete(t *testing.T) {
	env := setupProcessTest(t)
	token := testutil.DefaultTestToken()

	data := createProcess(t, env, token)
	id := itoa(data["id"].(float64))

	w := testutil.DoRequest(env.Router, "DELETE", "/api/v1/processes/"+id, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/processes/"+id, nil, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 after delete, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProcessDeleteRequiresRole(t *testing.T) {
	env := setupProcessTest(t)
	admin := testutil.DefaultTestToken()

	data := createProcess(t, env, admin)
	id := itoa(data["id"].(float64))

	// A plain buyer cannot delete.
	buyer := testutil.GenerateTestToken(2, "Test Buyer", "buyer@test.mil", []string{"buyer"})
	w := testutil.DoRequest(env.Router, "DELETE", "/api/v1/processes/"+id, nil, buyer)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d: %s", w.Code, w.Body.String())
	}

	// The SBP role can.
	sbp := testutil.GenerateTestToken(3, "Test SBP", "sbp@test.mil", []string{"sbp"})
	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/processes/"+id, nil, sbp)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProcessRequiresAuth(t *testing.T) {
	env := setupProcessTest(t)
	w := testutil.DoRequest(env.Router, "GET", "/api/v1/processes", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func itoa(f float64) string {
	return strconv.FormatInt(int64(f), 10)
}
