package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kjelstad/chorebank/internal/engine"
	"github.com/kjelstad/chorebank/internal/model"
)

func newTestStore(t *testing.T) *engine.Store {
	t.Helper()
	return engine.New(nil, nil, nil)
}

func doJSON(t *testing.T, h http.HandlerFunc, method, target, body string, pathValues map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestChildCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	h := NewChildHandler(store)

	rec := doJSON(t, h.Create, http.MethodPost, "/api/children", `{"name":"Nora"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}

	var child model.Child
	if err := json.Unmarshal(rec.Body.Bytes(), &child); err != nil {
		t.Fatal(err)
	}
	if child.Name != "Nora" || child.ID == "" {
		t.Fatalf("created child: %+v", child)
	}

	rec = doJSON(t, h.Get, http.MethodGet, "/api/children/"+child.ID, "", map[string]string{"id": child.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
}

func TestChildCreateValidationReturns400(t *testing.T) {
	h := NewChildHandler(newTestStore(t))

	rec := doJSON(t, h.Create, http.MethodPost, "/api/children", `{"name":"  "}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h.Create, http.MethodPost, "/api/children", `{broken`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status for bad JSON = %d, want 400", rec.Code)
	}
}

func TestMissingEntityReturns404(t *testing.T) {
	h := NewChildHandler(newTestStore(t))
	rec := doJSON(t, h.Get, http.MethodGet, "/api/children/nope", "", map[string]string{"id": "nope"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	store := newTestStore(t)
	childH := NewChildHandler(store)
	taskH := NewTaskHandler(store)

	rec := doJSON(t, childH.Create, http.MethodPost, "/api/children", `{"name":"Nora"}`, nil)
	var child model.Child
	json.Unmarshal(rec.Body.Bytes(), &child)

	rec = doJSON(t, taskH.Create, http.MethodPost, "/api/tasks",
		`{"title":"Dishes","points":10,"assigned_to":"`+child.ID+`"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task = %d, body %s", rec.Code, rec.Body)
	}
	var task model.Task
	json.Unmarshal(rec.Body.Bytes(), &task)

	// Approving an assigned task is a conflict, not a server error.
	rec = doJSON(t, taskH.Approve, http.MethodPost, "/t", "", map[string]string{"id": task.ID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("premature approve = %d, want 409", rec.Code)
	}

	rec = doJSON(t, taskH.SetStatus, http.MethodPost, "/t",
		`{"status":"awaiting_approval","child_id":"`+child.ID+`"}`, map[string]string{"id": task.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("set status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, taskH.Approve, http.MethodPost, "/t", "", map[string]string{"id": task.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve = %d, body %s", rec.Code, rec.Body)
	}
	var approved model.Task
	json.Unmarshal(rec.Body.Bytes(), &approved)
	if approved.Status != model.StatusApproved {
		t.Fatalf("status = %s, want approved", approved.Status)
	}

	rec = doJSON(t, childH.Get, http.MethodGet, "/c", "", map[string]string{"id": child.ID})
	var paid model.Child
	json.Unmarshal(rec.Body.Bytes(), &paid)
	if paid.Points != 10 {
		t.Fatalf("points = %d, want 10", paid.Points)
	}
}

func TestFastestWinsLoserGets409(t *testing.T) {
	store := newTestStore(t)
	a, _ := store.AddChild("Ada")
	b, _ := store.AddChild("Ben")
	task, _ := store.AddTask(engine.TaskDraft{Title: "Race", Points: 5, FastestWins: true})

	taskH := NewTaskHandler(store)

	rec := doJSON(t, taskH.SetStatus, http.MethodPost, "/t",
		`{"status":"awaiting_approval","child_id":"`+a.ID+`"}`, map[string]string{"id": task.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("winner = %d", rec.Code)
	}

	rec = doJSON(t, taskH.SetStatus, http.MethodPost, "/t",
		`{"status":"awaiting_approval","child_id":"`+b.ID+`"}`, map[string]string{"id": task.ID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("loser = %d, want 409", rec.Code)
	}
}

func TestBuyErrors(t *testing.T) {
	store := newTestStore(t)
	child, _ := store.AddChild("Nora")
	item, _ := store.AddShopItem(engine.ShopItemDraft{Title: "Candy", Price: 10, Active: true})

	shopH := NewShopHandler(store)

	rec := doJSON(t, shopH.Buy, http.MethodPost, "/b",
		`{"child_id":"`+child.ID+`"}`, map[string]string{"id": item.ID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("broke buy = %d, want 409", rec.Code)
	}

	store.AddPoints(child.ID, 50)
	rec = doJSON(t, shopH.Buy, http.MethodPost, "/b",
		`{"child_id":"`+child.ID+`"}`, map[string]string{"id": item.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy = %d, body %s", rec.Code, rec.Body)
	}

	var purchase model.Purchase
	json.Unmarshal(rec.Body.Bytes(), &purchase)
	if purchase.Title != "Candy" || purchase.Price != 10 {
		t.Fatalf("purchase snapshot: %+v", purchase)
	}
}

func TestPINSetAndVerify(t *testing.T) {
	store := newTestStore(t)
	child, _ := store.AddChild("Nora")
	h := NewChildHandler(store)

	rec := doJSON(t, h.SetPIN, http.MethodPost, "/p", `{"pin":"1234"}`, map[string]string{"id": child.ID})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set pin = %d", rec.Code)
	}

	rec = doJSON(t, h.VerifyPIN, http.MethodPost, "/p", `{"pin":"1234"}`, map[string]string{"id": child.ID})
	var res map[string]bool
	json.Unmarshal(rec.Body.Bytes(), &res)
	if !res["valid"] {
		t.Fatal("correct pin rejected")
	}

	rec = doJSON(t, h.VerifyPIN, http.MethodPost, "/p", `{"pin":"9999"}`, map[string]string{"id": child.ID})
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res["valid"] {
		t.Fatal("wrong pin accepted")
	}
}

func TestCategoryCRUD(t *testing.T) {
	store := newTestStore(t)
	h := NewCategoryHandler(store)

	rec := doJSON(t, h.Create, http.MethodPost, "/api/categories", `{"name":"Kitchen","color":"#f00"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d", rec.Code)
	}
	var cat model.Category
	json.Unmarshal(rec.Body.Bytes(), &cat)

	rec = doJSON(t, h.Update, http.MethodPut, "/c", `{"name":"Cuisine"}`, map[string]string{"id": cat.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d", rec.Code)
	}
	var updated model.Category
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Name != "Cuisine" || updated.Color != "#f00" {
		t.Fatalf("updated category: %+v", updated)
	}

	rec = doJSON(t, h.Delete, http.MethodDelete, "/c", "", map[string]string{"id": cat.ID})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
}
