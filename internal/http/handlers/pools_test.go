package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rjenterprise/poolhub/internal/domain/account"
	"github.com/rjenterprise/poolhub/internal/domain/bid"
	"github.com/rjenterprise/poolhub/internal/domain/pool"
	"github.com/rjenterprise/poolhub/internal/http/handlers"
	"github.com/rjenterprise/poolhub/internal/http/middlewares"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newObjectID() string {
	return primitive.NewObjectID().Hex()
}

// Fake implementation of handlers.PoolService

type fakePoolService struct {
	createFn func(ctx context.Context, creatorID string, req pool.CreateRequest) (pool.Pool, error)
	listFn   func(ctx context.Context, search string) ([]pool.Pool, error)
	getFn    func(ctx context.Context, id string) (pool.Pool, error)
	joinFn   func(ctx context.Context, poolID string, who account.Account) (pool.Pool, error)
	bidFn    func(ctx context.Context, poolID string, supplier account.Account, amount float64) (bid.Bid, error)
}

func (f *fakePoolService) Create(ctx context.Context, creatorID string, req pool.CreateRequest) (pool.Pool, error) {
	if f.createFn != nil {
		return f.createFn(ctx, creatorID, req)
	}
	return pool.Pool{}, nil
}

func (f *fakePoolService) List(ctx context.Context, search string) ([]pool.Pool, error) {
	if f.listFn != nil {
		return f.listFn(ctx, search)
	}
	return []pool.Pool{}, nil
}

func (f *fakePoolService) Get(ctx context.Context, id string) (pool.Pool, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return pool.Pool{}, nil
}

func (f *fakePoolService) Join(ctx context.Context, poolID string, who account.Account) (pool.Pool, error) {
	if f.joinFn != nil {
		return f.joinFn(ctx, poolID, who)
	}
	return pool.Pool{}, nil
}

func (f *fakePoolService) SubmitBid(ctx context.Context, poolID string, supplier account.Account, amount float64) (bid.Bid, error) {
	if f.bidFn != nil {
		return f.bidFn(ctx, poolID, supplier, amount)
	}
	return bid.Bid{}, nil
}

// setupRouter mounts one handler. A non-nil caller is placed where RequireAuth would put it.
func setupRouter(method, path string, caller *account.Account, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	chain := []gin.HandlerFunc{}
	if caller != nil {
		a := *caller
		chain = append(chain, func(c *gin.Context) {
			c.Set(middlewares.CtxAccount, a)
			c.Next()
		})
	}
	chain = append(chain, h)

	r.Handle(method, path, chain...)
	return r
}

func doJSON(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Message string `json:"message"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode error body: %v body=%s", err, w.Body.String())
	}
	return env
}

func TestCreatePoolHandler(t *testing.T) {
	caller := &account.Account{ID: newObjectID(), Role: account.RoleUser}
	n := int64(7)

	tests := []struct {
		name           string
		caller         *account.Account
		body           string
		svcSetUp       func(*fakePoolService)
		wantStatusCode int
		wantCode       string
	}{
		{
			name:   "success",
			caller: caller,
			body:   `{"title":"Rice","description":"50kg","amount":120,"closingDate":"2099-01-01","location":"Lagos"}`,
			svcSetUp: func(f *fakePoolService) {
				f.createFn = func(ctx context.Context, creatorID string, req pool.CreateRequest) (pool.Pool, error) {
					if creatorID != caller.ID {
						return pool.Pool{}, errors.New("wrong creator")
					}
					return pool.Pool{ID: newObjectID(), Title: req.Title, Creator: creatorID, PoolNumber: &n}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:   "missing_fields",
			caller: caller,
			body:   `{"title":"Rice"}`,
			svcSetUp: func(f *fakePoolService) {
				f.createFn = func(ctx context.Context, creatorID string, req pool.CreateRequest) (pool.Pool, error) {
					return pool.Pool{}, pool.ErrMissingFields
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "missing_fields",
		},
		{
			name:           "malformed_json",
			caller:         caller,
			body:           `{"title":`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "invalid_request",
		},
		{
			name:           "no_caller",
			body:           `{"title":"Rice"}`,
			wantStatusCode: http.StatusUnauthorized,
			wantCode:       "unauthorized",
		},
		{
			name:   "store_error",
			caller: caller,
			body:   `{"title":"Rice","description":"50kg","amount":120,"closingDate":"2099-01-01","location":"Lagos"}`,
			svcSetUp: func(f *fakePoolService) {
				f.createFn = func(ctx context.Context, creatorID string, req pool.CreateRequest) (pool.Pool, error) {
					return pool.Pool{}, errors.New("db down")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			wantCode:       "internal_error",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePoolService{}
			if tt.svcSetUp != nil {
				tt.svcSetUp(svc)
			}

			h := handlers.NewPoolsHandler(svc)
			r := setupRouter(http.MethodPost, "/pools", tt.caller, h.Create)

			w := doJSON(r, http.MethodPost, "/pools", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if tt.wantCode != "" {
				if env := decodeEnvelope(t, w); env.Error.Code != tt.wantCode {
					t.Fatalf("got code %q, want %q", env.Error.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestListPoolsHandler_PassesSearchAndSetsETag(t *testing.T) {
	var gotSearch string
	n1, n2 := int64(1), int64(2)
	closing := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	listed := []pool.Pool{
		{ID: newObjectID(), Title: "Beans", PoolNumber: &n2, ClosingDate: closing},
		{ID: newObjectID(), Title: "Rice", PoolNumber: &n1, ClosingDate: closing},
	}

	svc := &fakePoolService{
		listFn: func(ctx context.Context, search string) ([]pool.Pool, error) {
			gotSearch = search
			return listed, nil
		},
	}

	h := handlers.NewPoolsHandler(svc)
	r := setupRouter(http.MethodGet, "/pools", nil, h.List)

	w := doJSON(r, http.MethodGet, "/pools?search=rice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if gotSearch != "rice" {
		t.Fatalf("search = %q, want rice", gotSearch)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected an ETag header")
	}

	var items []pool.Pool
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || *items[0].PoolNumber != 2 {
		t.Fatalf("unexpected items %+v", items)
	}

	req := httptest.NewRequest(http.MethodGet, "/pools?search=rice", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want 304", w.Code)
	}
}

func TestGetPoolHandler(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatusCode int
		wantMessage    string
	}{
		{name: "found", wantStatusCode: http.StatusOK},
		{name: "not_found", err: pool.ErrNotFound, wantStatusCode: http.StatusNotFound, wantMessage: "Pool not found"},
		{name: "invalid_id", err: pool.ErrInvalidID, wantStatusCode: http.StatusBadRequest, wantMessage: "Invalid pool id"},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePoolService{
				getFn: func(ctx context.Context, id string) (pool.Pool, error) {
					if tt.err != nil {
						return pool.Pool{}, tt.err
					}
					return pool.Pool{ID: id, Title: "Rice"}, nil
				},
			}

			h := handlers.NewPoolsHandler(svc)
			r := setupRouter(http.MethodGet, "/pools/:id", nil, h.Get)

			w := doJSON(r, http.MethodGet, "/pools/"+newObjectID(), "")
			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if tt.wantMessage != "" {
				if env := decodeEnvelope(t, w); env.Message != tt.wantMessage {
					t.Fatalf("got message %q, want %q", env.Message, tt.wantMessage)
				}
			}
		})
	}
}

func TestJoinPoolHandler(t *testing.T) {
	caller := &account.Account{ID: newObjectID(), Email: "ada@example.com"}

	tests := []struct {
		name           string
		err            error
		wantStatusCode int
		wantCode       string
	}{
		{name: "joined", wantStatusCode: http.StatusOK},
		{name: "already_member", err: pool.ErrAlreadyMember, wantStatusCode: http.StatusBadRequest, wantCode: "already_member"},
		{name: "not_found", err: pool.ErrNotFound, wantStatusCode: http.StatusNotFound, wantCode: "not_found"},
		{name: "invalid_id", err: pool.ErrInvalidID, wantStatusCode: http.StatusBadRequest, wantCode: "invalid_id"},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePoolService{
				joinFn: func(ctx context.Context, poolID string, who account.Account) (pool.Pool, error) {
					if tt.err != nil {
						return pool.Pool{}, tt.err
					}
					return pool.Pool{ID: poolID, Members: []string{who.ID}}, nil
				},
			}

			h := handlers.NewPoolsHandler(svc)
			r := setupRouter(http.MethodPost, "/pools/:id/join", caller, h.Join)

			w := doJSON(r, http.MethodPost, "/pools/"+newObjectID()+"/join", "")
			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if tt.wantCode != "" {
				if env := decodeEnvelope(t, w); env.Error.Code != tt.wantCode {
					t.Fatalf("got code %q, want %q", env.Error.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestSubmitBidHandler(t *testing.T) {
	supplier := &account.Account{ID: newObjectID(), Role: account.RoleSupplier}

	tests := []struct {
		name           string
		body           string
		wantStatusCode int
	}{
		{name: "created", body: `{"amount": 99.5}`, wantStatusCode: http.StatusCreated},
		{name: "zero_amount", body: `{"amount": 0}`, wantStatusCode: http.StatusBadRequest},
		{name: "negative_amount", body: `{"amount": -1}`, wantStatusCode: http.StatusBadRequest},
		{name: "wrong_type", body: `{"amount": "lots"}`, wantStatusCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePoolService{
				bidFn: func(ctx context.Context, poolID string, s account.Account, amount float64) (bid.Bid, error) {
					return bid.Bid{ID: newObjectID(), Pool: poolID, Supplier: s.ID, Amount: amount, Status: bid.StatusSubmitted}, nil
				},
			}

			h := handlers.NewPoolsHandler(svc)
			r := setupRouter(http.MethodPost, "/pools/:id/bids", supplier, h.SubmitBid)

			w := doJSON(r, http.MethodPost, "/pools/"+newObjectID()+"/bids", tt.body)
			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
