package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/approval-flow/internal/application/service"
	"github.com/garyjia/approval-flow/internal/domain/engine"
	"github.com/garyjia/approval-flow/internal/domain/entity"
	"github.com/garyjia/approval-flow/internal/domain/workflow"
	"github.com/garyjia/approval-flow/internal/presenter"
	"github.com/garyjia/approval-flow/internal/report"
)

type noopLogger struct{}

func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}

// mockApprovalService implements service.ApprovalService with overridable funcs
type mockApprovalService struct {
	createFn  func(ctx context.Context, input service.CreateItemInput) (*entity.Item, error)
	getFn     func(ctx context.Context, id string) (*entity.Item, error)
	listFn    func(ctx context.Context, limit, offset int) ([]*entity.Item, int, error)
	listAllFn func(ctx context.Context) ([]*entity.Item, error)
	historyFn func(ctx context.Context, itemID string) ([]*entity.DecisionRecord, error)
	submitFn  func(ctx context.Context, id, actorID string) (*entity.Item, error)
	approveFn func(ctx context.Context, id, actorID, comments string) (*entity.Item, error)
	rejectFn  func(ctx context.Context, id, actorID, reason, comments string) (*entity.Item, error)
	summaryFn func(ctx context.Context) (presenter.Summary, error)
}

func (m *mockApprovalService) Create(ctx context.Context, input service.CreateItemInput) (*entity.Item, error) {
	return m.createFn(ctx, input)
}

func (m *mockApprovalService) Get(ctx context.Context, id string) (*entity.Item, error) {
	return m.getFn(ctx, id)
}

func (m *mockApprovalService) List(ctx context.Context, limit, offset int) ([]*entity.Item, int, error) {
	return m.listFn(ctx, limit, offset)
}

func (m *mockApprovalService) ListAll(ctx context.Context) ([]*entity.Item, error) {
	return m.listAllFn(ctx)
}

func (m *mockApprovalService) History(ctx context.Context, itemID string) ([]*entity.DecisionRecord, error) {
	return m.historyFn(ctx, itemID)
}

func (m *mockApprovalService) Submit(ctx context.Context, id, actorID string) (*entity.Item, error) {
	return m.submitFn(ctx, id, actorID)
}

func (m *mockApprovalService) Approve(ctx context.Context, id, actorID, comments string) (*entity.Item, error) {
	return m.approveFn(ctx, id, actorID, comments)
}

func (m *mockApprovalService) Reject(ctx context.Context, id, actorID, reason, comments string) (*entity.Item, error) {
	return m.rejectFn(ctx, id, actorID, reason, comments)
}

func (m *mockApprovalService) Summary(ctx context.Context) (presenter.Summary, error) {
	return m.summaryFn(ctx)
}

func (m *mockApprovalService) Reasons() entity.ReasonList {
	return entity.DefaultRejectionReasons()
}

func newTestServer(svc service.ApprovalService) *Server {
	return NewServer(DefaultServerConfig(), svc, report.NewExporter(zap.NewNop()), noopLogger{})
}

func perform(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return resp
}

func sampleItem(status workflow.State) *entity.Item {
	amount := decimal.NewFromInt(150)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return &entity.Item{
		ID:          "item-1",
		Title:       "Office supplies",
		Kind:        "EXPENSE_CLAIM",
		Amount:      &amount,
		SubmittedBy: "u-100",
		SubmittedAt: now,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(&mockApprovalService{})

	rec := perform(t, srv, http.MethodGet, "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Error("expected success response")
	}
}

func TestCreateItem(t *testing.T) {
	svc := &mockApprovalService{
		createFn: func(ctx context.Context, input service.CreateItemInput) (*entity.Item, error) {
			if input.Amount == nil || !input.Amount.Equal(decimal.NewFromInt(150)) {
				t.Errorf("unexpected amount: %v", input.Amount)
			}
			return sampleItem(workflow.StateDraft), nil
		},
	}
	srv := newTestServer(svc)

	rec := perform(t, srv, http.MethodPost, "/api/items", map[string]interface{}{
		"title":        "Office supplies",
		"kind":         "EXPENSE_CLAIM",
		"amount":       "150",
		"submitted_by": "u-100",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateItemInvalidBody(t *testing.T) {
	srv := newTestServer(&mockApprovalService{})

	rec := perform(t, srv, http.MethodPost, "/api/items", map[string]interface{}{
		"kind": "EXPENSE_CLAIM",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateItemInvalidAmount(t *testing.T) {
	srv := newTestServer(&mockApprovalService{})

	rec := perform(t, srv, http.MethodPost, "/api/items", map[string]interface{}{
		"title":        "Office supplies",
		"kind":         "EXPENSE_CLAIM",
		"amount":       "not-a-number",
		"submitted_by": "u-100",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetItemNotFound(t *testing.T) {
	svc := &mockApprovalService{
		getFn: func(ctx context.Context, id string) (*entity.Item, error) {
			return nil, fmt.Errorf("%w: %s", service.ErrNotFound, id)
		},
	}
	srv := newTestServer(svc)

	rec := perform(t, srv, http.MethodGet, "/api/items/missing", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Success {
		t.Error("expected failure response")
	}
}

func TestApproveItem(t *testing.T) {
	svc := &mockApprovalService{
		approveFn: func(ctx context.Context, id, actorID, comments string) (*entity.Item, error) {
			if id != "item-1" || actorID != "mgr-1" {
				t.Errorf("unexpected args: %s %s", id, actorID)
			}
			return sampleItem(workflow.StateApproved), nil
		},
	}
	srv := newTestServer(svc)

	rec := perform(t, srv, http.MethodPost, "/api/items/item-1/approve", map[string]interface{}{
		"actor_id": "mgr-1",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestApproveItemInvalidTransition(t *testing.T) {
	svc := &mockApprovalService{
		approveFn: func(ctx context.Context, id, actorID, comments string) (*entity.Item, error) {
			return nil, fmt.Errorf("approve item %s: %w", id, workflow.ErrInvalidTransition)
		},
	}
	srv := newTestServer(svc)

	rec := perform(t, srv, http.MethodPost, "/api/items/item-1/approve", map[string]interface{}{
		"actor_id": "mgr-1",
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRejectItemMissingReason(t *testing.T) {
	svc := &mockApprovalService{
		rejectFn: func(ctx context.Context, id, actorID, reason, comments string) (*entity.Item, error) {
			return nil, engine.ErrMissingReason
		},
	}
	srv := newTestServer(svc)

	rec := perform(t, srv, http.MethodPost, "/api/items/item-1/reject", map[string]interface{}{
		"actor_id": "mgr-1",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDecisionMissingActor(t *testing.T) {
	srv := newTestServer(&mockApprovalService{})

	rec := perform(t, srv, http.MethodPost, "/api/items/item-1/submit", map[string]interface{}{})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListItems(t *testing.T) {
	svc := &mockApprovalService{
		listFn: func(ctx context.Context, limit, offset int) ([]*entity.Item, int, error) {
			if limit != 5 || offset != 5 {
				t.Errorf("unexpected pagination: limit=%d offset=%d", limit, offset)
			}
			return []*entity.Item{sampleItem(workflow.StateDraft)}, 11, nil
		},
	}
	srv := newTestServer(svc)

	rec := perform(t, srv, http.MethodGet, "/api/items?page=2&limit=5", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Success bool              `json:"success"`
		Data    ListItemsResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Data.Total != 11 {
		t.Errorf("expected total 11, got %d", resp.Data.Total)
	}
	if len(resp.Data.Items) != 1 {
		t.Errorf("expected 1 item, got %d", len(resp.Data.Items))
	}
}

func TestGetSummary(t *testing.T) {
	svc := &mockApprovalService{
		summaryFn: func(ctx context.Context) (presenter.Summary, error) {
			return presenter.Summarize([]*entity.Item{
				sampleItem(workflow.StateApproved),
				sampleItem(workflow.StatePendingApproval),
			}), nil
		},
	}
	srv := newTestServer(svc)

	rec := perform(t, srv, http.MethodGet, "/api/summary", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data struct {
			TotalItems int `json:"total_items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Data.TotalItems != 2 {
		t.Errorf("expected 2 total items, got %d", resp.Data.TotalItems)
	}
}

func TestListReasons(t *testing.T) {
	srv := newTestServer(&mockApprovalService{})

	rec := perform(t, srv, http.MethodGet, "/api/reasons", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Data) != len(entity.DefaultRejectionReasons()) {
		t.Errorf("expected %d reasons, got %d", len(entity.DefaultRejectionReasons()), len(resp.Data))
	}
}

func TestExportItems(t *testing.T) {
	svc := &mockApprovalService{
		listAllFn: func(ctx context.Context) ([]*entity.Item, error) {
			return []*entity.Item{sampleItem(workflow.StateApproved)}, nil
		},
	}
	srv := newTestServer(svc)

	rec := perform(t, srv, http.MethodGet, "/api/items/export", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type: %s", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected non-empty export body")
	}
}
