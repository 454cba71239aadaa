package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sandeepkv93/focusd/internal/config"
	"github.com/sandeepkv93/focusd/internal/storage"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "server-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := storage.MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	repo, err := storage.NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(repo, config.DefaultConfig().Timer, logger)
}

func doRequest(t *testing.T, srv *Server, method, path, owner string, body any) (int, map[string]any) {
	t.Helper()

	var buf *bytes.Buffer
	switch v := body.(type) {
	case nil:
		buf = bytes.NewBuffer(nil)
	case string:
		buf = bytes.NewBufferString(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("parse response %q: %v", w.Body.String(), err)
		}
	}
	return w.Code, resp
}

func dataMap(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	data, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data object: %v", resp)
	}
	return data
}

func dataIDs(t *testing.T, resp map[string]any) []string {
	t.Helper()
	raw, ok := resp["data"].([]any)
	if !ok {
		t.Fatalf("response has no data array: %v", resp)
	}
	ids := make([]string, 0, len(raw))
	for _, entry := range raw {
		ids = append(ids, entry.(map[string]any)["id"].(string))
	}
	return ids
}

func createList(t *testing.T, srv *Server, owner, name string) string {
	t.Helper()
	code, resp := doRequest(t, srv, http.MethodPost, "/api/v1/lists", owner, map[string]any{"name": name})
	if code != http.StatusCreated {
		t.Fatalf("create list %q: status %d (%v)", name, code, resp)
	}
	return dataMap(t, resp)["id"].(string)
}

func createTask(t *testing.T, srv *Server, owner, listID string, body map[string]any) map[string]any {
	t.Helper()
	code, resp := doRequest(t, srv, http.MethodPost, "/api/v1/lists/"+listID+"/tasks", owner, body)
	if code != http.StatusCreated {
		t.Fatalf("create task %v: status %d (%v)", body, code, resp)
	}
	return dataMap(t, resp)
}

func TestOwnerHeaderRequired(t *testing.T) {
	srv := setupServer(t)

	code, resp := doRequest(t, srv, http.MethodGet, "/api/v1/lists", "", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without owner header, got %d", code)
	}
	if resp["success"] != false {
		t.Fatalf("expected success false, got %v", resp)
	}

	code, _ = doRequest(t, srv, http.MethodPost, "/api/v1/timer/start", "", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on timer without owner header, got %d", code)
	}
}

func TestListEndpoints(t *testing.T) {
	srv := setupServer(t)

	code, resp := doRequest(t, srv, http.MethodPost, "/api/v1/lists", "owner-1", map[string]any{
		"name":        "errands",
		"description": "around town",
	})
	if code != http.StatusCreated {
		t.Fatalf("create list: status %d (%v)", code, resp)
	}
	first := dataMap(t, resp)
	if first["name"] != "errands" || first["active"] != true {
		t.Fatalf("first list must be active: %v", first)
	}
	if first["session_seconds"].(float64) != 1500 {
		t.Fatalf("configured durations not applied: %v", first)
	}

	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/lists", "owner-1", map[string]any{"name": "work"})
	if code != http.StatusCreated {
		t.Fatalf("create second list: status %d (%v)", code, resp)
	}
	second := dataMap(t, resp)
	if second["active"] != false {
		t.Fatalf("second list must not steal activation: %v", second)
	}

	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/lists", "owner-1", map[string]any{"name": "errands"})
	if code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate name, got %d (%v)", code, resp)
	}

	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/lists", "owner-1", map[string]any{"name": "  "})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d (%v)", code, resp)
	}

	code, resp = doRequest(t, srv, http.MethodGet, "/api/v1/lists", "owner-1", nil)
	if code != http.StatusOK || resp["count"].(float64) != 2 {
		t.Fatalf("list lists: status %d (%v)", code, resp)
	}
	if ids := dataIDs(t, resp); ids[0] != first["id"] {
		t.Fatalf("lists must order by name: %v", ids)
	}

	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/lists/"+second["id"].(string)+"/select", "owner-1", nil)
	if code != http.StatusOK {
		t.Fatalf("select list: status %d (%v)", code, resp)
	}
	_, resp = doRequest(t, srv, http.MethodGet, "/api/v1/lists", "owner-1", nil)
	for _, entry := range resp["data"].([]any) {
		list := entry.(map[string]any)
		wantActive := list["id"] == second["id"]
		if list["active"] != wantActive {
			t.Fatalf("activation did not switch: %v", resp["data"])
		}
	}

	// deleting the active list promotes the survivor
	code, resp = doRequest(t, srv, http.MethodDelete, "/api/v1/lists/"+second["id"].(string), "owner-1", nil)
	if code != http.StatusOK {
		t.Fatalf("delete list: status %d (%v)", code, resp)
	}
	_, resp = doRequest(t, srv, http.MethodGet, "/api/v1/lists", "owner-1", nil)
	survivors := resp["data"].([]any)
	if len(survivors) != 1 || survivors[0].(map[string]any)["active"] != true {
		t.Fatalf("survivor must be active: %v", survivors)
	}

	code, resp = doRequest(t, srv, http.MethodDelete, "/api/v1/lists/ghost", "owner-1", nil)
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown list, got %d (%v)", code, resp)
	}

	// other owners see nothing
	code, resp = doRequest(t, srv, http.MethodGet, "/api/v1/lists", "owner-2", nil)
	if code != http.StatusOK || resp["count"].(float64) != 0 {
		t.Fatalf("owner scoping leak: %d (%v)", code, resp)
	}
}

func TestTaskEndpoints(t *testing.T) {
	srv := setupServer(t)
	listID := createList(t, srv, "owner-1", "errands")

	a := createTask(t, srv, "owner-1", listID, map[string]any{"content": "alpha"})
	if a["path"] != a["id"] || a["level"].(float64) != 0 || a["position"].(float64) != 0 {
		t.Fatalf("unexpected root task: %v", a)
	}
	b := createTask(t, srv, "owner-1", listID, map[string]any{"content": "beta"})
	if b["position"].(float64) != 1 {
		t.Fatalf("append must take the next slot: %v", b)
	}
	c := createTask(t, srv, "owner-1", listID, map[string]any{"content": "gamma", "parent_id": a["id"]})
	if c["parent_id"] != a["id"] || c["level"].(float64) != 1 {
		t.Fatalf("unexpected child task: %v", c)
	}
	if c["path"] != a["path"].(string)+"/"+c["id"].(string) {
		t.Fatalf("child path must extend the parent's: %v", c)
	}
	d := createTask(t, srv, "owner-1", listID, map[string]any{"content": "delta", "after_id": ""})
	if d["position"].(float64) != 0 {
		t.Fatalf("empty after_id must claim the first slot: %v", d)
	}

	code, resp := doRequest(t, srv, http.MethodGet, "/api/v1/lists/"+listID+"/tasks", "owner-1", nil)
	if code != http.StatusOK || resp["count"].(float64) != 4 {
		t.Fatalf("hierarchy: status %d (%v)", code, resp)
	}
	want := []string{d["id"].(string), a["id"].(string), c["id"].(string), b["id"].(string)}
	got := dataIDs(t, resp)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("hierarchy order: got %v want %v", got, want)
		}
	}

	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/lists/"+listID+"/tasks/reorder", "owner-1", map[string]any{
		"ids": []string{a["id"].(string), d["id"].(string), b["id"].(string)},
	})
	if code != http.StatusOK {
		t.Fatalf("reorder: status %d (%v)", code, resp)
	}
	_, resp = doRequest(t, srv, http.MethodGet, "/api/v1/lists/"+listID+"/tasks", "owner-1", nil)
	got = dataIDs(t, resp)
	want = []string{a["id"].(string), c["id"].(string), d["id"].(string), b["id"].(string)}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("post-reorder order: got %v want %v", got, want)
		}
	}

	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/lists/"+listID+"/tasks/reorder", "owner-1", map[string]any{"ids": []string{}})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty reorder, got %d (%v)", code, resp)
	}

	code, resp = doRequest(t, srv, http.MethodPatch, "/api/v1/tasks/"+a["id"].(string), "owner-1", map[string]any{"done": true})
	if code != http.StatusOK || dataMap(t, resp)["done"] != true {
		t.Fatalf("patch done: status %d (%v)", code, resp)
	}
	code, resp = doRequest(t, srv, http.MethodPatch, "/api/v1/tasks/"+c["id"].(string), "owner-1", map[string]any{"labels": []string{"home", "home", "work"}})
	if code != http.StatusOK {
		t.Fatalf("patch labels: status %d (%v)", code, resp)
	}
	labels := dataMap(t, resp)["labels"].([]any)
	if len(labels) != 2 || labels[0] != "home" || labels[1] != "work" {
		t.Fatalf("labels must deduplicate in order: %v", labels)
	}

	code, resp = doRequest(t, srv, http.MethodPatch, "/api/v1/tasks/"+a["id"].(string), "owner-1", map[string]any{})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty patch, got %d (%v)", code, resp)
	}
	code, resp = doRequest(t, srv, http.MethodPatch, "/api/v1/tasks/"+b["id"].(string), "owner-1", map[string]any{"content": "  "})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank content, got %d (%v)", code, resp)
	}

	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/tasks/"+b["id"].(string)+"/move", "owner-1", map[string]any{"parent_id": c["id"]})
	if code != http.StatusOK {
		t.Fatalf("move: status %d (%v)", code, resp)
	}
	moved := dataMap(t, resp)
	if moved["path"] != c["path"].(string)+"/"+b["id"].(string) || moved["level"].(float64) != 2 {
		t.Fatalf("move must rebase the path: %v", moved)
	}

	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/tasks/"+c["id"].(string)+"/move", "owner-1", map[string]any{"parent_id": b["id"]})
	if code != http.StatusConflict {
		t.Fatalf("expected 409 for a cycle, got %d (%v)", code, resp)
	}
	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/tasks/ghost/move", "owner-1", map[string]any{"parent_id": nil})
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown task, got %d (%v)", code, resp)
	}

	otherList := createList(t, srv, "owner-1", "work")
	e := createTask(t, srv, "owner-1", otherList, map[string]any{"content": "epsilon"})
	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/tasks/"+e["id"].(string)+"/move", "owner-1", map[string]any{"parent_id": a["id"]})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for cross-list parent, got %d (%v)", code, resp)
	}

	// deleting a root removes its whole subtree
	code, resp = doRequest(t, srv, http.MethodDelete, "/api/v1/tasks/"+a["id"].(string), "owner-1", nil)
	if code != http.StatusOK {
		t.Fatalf("delete task: status %d (%v)", code, resp)
	}
	_, resp = doRequest(t, srv, http.MethodGet, "/api/v1/lists/"+listID+"/tasks", "owner-1", nil)
	got = dataIDs(t, resp)
	if len(got) != 1 || got[0] != d["id"] {
		t.Fatalf("cascade delete left: %v", got)
	}
	code, _ = doRequest(t, srv, http.MethodDelete, "/api/v1/tasks/"+a["id"].(string), "owner-1", nil)
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting twice, got %d", code)
	}

	// foreign owners cannot see the tasks
	code, resp = doRequest(t, srv, http.MethodGet, "/api/v1/lists/"+listID+"/tasks", "owner-2", nil)
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign hierarchy, got %d (%v)", code, resp)
	}
}

func TestTimerEndpoints(t *testing.T) {
	srv := setupServer(t)

	code, resp := doRequest(t, srv, http.MethodGet, "/api/v1/timer", "owner-1", nil)
	if code != http.StatusConflict {
		t.Fatalf("expected 409 with no active list, got %d (%v)", code, resp)
	}

	createList(t, srv, "owner-1", "errands")

	code, resp = doRequest(t, srv, http.MethodGet, "/api/v1/timer", "owner-1", nil)
	if code != http.StatusOK || dataMap(t, resp)["phase"] != "idle" {
		t.Fatalf("fresh timer: status %d (%v)", code, resp)
	}

	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/timer/pause", "owner-1", nil)
	if code != http.StatusConflict {
		t.Fatalf("expected 409 pausing an idle timer, got %d (%v)", code, resp)
	}

	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/timer/start", "owner-1", nil)
	if code != http.StatusOK {
		t.Fatalf("start: status %d (%v)", code, resp)
	}
	snap := dataMap(t, resp)
	if snap["phase"] != "session" || snap["remaining_seconds"].(float64) != 1500 {
		t.Fatalf("unexpected start snapshot: %v", snap)
	}
	if snap["started_at"] == nil {
		t.Fatalf("running snapshot must carry started_at: %v", snap)
	}

	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/timer/pause", "owner-1", nil)
	if code != http.StatusOK {
		t.Fatalf("pause: status %d (%v)", code, resp)
	}
	snap = dataMap(t, resp)
	if snap["phase"] != "paused" || snap["current_phase"] != "session" {
		t.Fatalf("unexpected pause snapshot: %v", snap)
	}

	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/timer/skip", "owner-1", nil)
	if code != http.StatusOK {
		t.Fatalf("skip: status %d (%v)", code, resp)
	}
	snap = dataMap(t, resp)
	if snap["phase"] != "short_break" || snap["completed_sessions"].(float64) != 1 {
		t.Fatalf("unexpected skip snapshot: %v", snap)
	}

	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/timer/reset", "owner-1", nil)
	if code != http.StatusOK {
		t.Fatalf("reset: status %d (%v)", code, resp)
	}
	snap = dataMap(t, resp)
	if snap["phase"] != "paused" || snap["remaining_seconds"].(float64) != 300 {
		t.Fatalf("reset must restore the full break: %v", snap)
	}

	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/timer/reset-sets", "owner-1", nil)
	if code != http.StatusOK {
		t.Fatalf("reset-sets: status %d (%v)", code, resp)
	}
	snap = dataMap(t, resp)
	if snap["current_phase"] != "session" || snap["completed_sessions"].(float64) != 0 || snap["remaining_seconds"].(float64) != 1500 {
		t.Fatalf("reset-sets must restart the cycle: %v", snap)
	}

	// the timer follows the caller's own active list
	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/timer/start", "owner-2", nil)
	if code != http.StatusConflict {
		t.Fatalf("expected 409 for an owner with no lists, got %d (%v)", code, resp)
	}
}

func TestInvalidJSONBodies(t *testing.T) {
	srv := setupServer(t)
	listID := createList(t, srv, "owner-1", "errands")

	code, resp := doRequest(t, srv, http.MethodPost, "/api/v1/lists", "owner-1", "not json")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid list body, got %d (%v)", code, resp)
	}
	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/lists/"+listID+"/tasks", "owner-1", "not json")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid task body, got %d (%v)", code, resp)
	}
	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/lists/"+listID+"/tasks", "owner-1", map[string]any{"content": ""})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty content, got %d (%v)", code, resp)
	}
	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/lists/"+listID+"/tasks", "owner-1", map[string]any{
		"content": "x",
		"labels":  []string{"a,b"},
	})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a comma label, got %d (%v)", code, resp)
	}

	huge := strings.Repeat("x", maxContentSize+1)
	code, resp = doRequest(t, srv, http.MethodPost, "/api/v1/lists/"+listID+"/tasks", "owner-1", map[string]any{"content": huge})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized content, got %d (%v)", code, resp)
	}
	task := createTask(t, srv, "owner-1", listID, map[string]any{"content": "small"})
	code, resp = doRequest(t, srv, http.MethodPatch, "/api/v1/tasks/"+task["id"].(string), "owner-1", map[string]any{"content": huge})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized patch content, got %d (%v)", code, resp)
	}
}
