package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"

	"lumicart-io/api/internal/auth"
	"lumicart-io/api/pkg/models"
)

func TestLoadDecodesUpstreamCart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/user/u1/cart" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode([]models.LineItem{testItem("i1"), testItem("i2")})
	}))
	defer server.Close()

	client := NewSyncClient(server.URL, time.Second)
	items, err := client.Load(context.Background(), auth.Identity{UserID: "u1"})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
}

func TestPersistSendsFullItemState(t *testing.T) {
	var got models.LineItemPatch
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/user/u1/cart/i1" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode persist body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	item := testItem("i1")
	item.Quantity = 4
	item.OptionsPricing = map[string]float64{"a": 10}
	item.Attachments = &models.Attachments{Note: "note", Images: []string{"u1"}}

	client := NewSyncClient(server.URL, time.Second)
	if err := client.Persist(context.Background(), auth.Identity{UserID: "u1"}, item); err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}

	// the body must carry every mutable field, not just the changed one
	if got.Quantity != 4 {
		t.Fatalf("quantity missing from persist payload: %+v", got)
	}
	if got.SelectedOptions["a"] != "1" || got.SelectedOptions["b"] != "2" {
		t.Fatalf("selected options missing from persist payload: %+v", got.SelectedOptions)
	}
	if got.OptionsPricing["a"] != 10 {
		t.Fatalf("options pricing missing from persist payload: %+v", got.OptionsPricing)
	}
	if got.Attachments == nil || got.Attachments.Note != "note" || len(got.Attachments.Images) != 1 {
		t.Fatalf("attachments missing from persist payload: %+v", got.Attachments)
	}
}

func TestGuestAddUsesGuestEndpointShape(t *testing.T) {
	var got models.GuestCartItemRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/cart" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode guest add body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "srv-9"})
	}))
	defer server.Close()

	item := testItem("tmp")
	item.UnitPrice = 19.9
	item.Quantity = 2

	client := NewSyncClient(server.URL, time.Second)
	serverID, err := client.AddItem(context.Background(), auth.Identity{UserID: "g1", Guest: true}, item)
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if serverID != "srv-9" {
		t.Fatalf("expected server id srv-9, got %q", serverID)
	}
	if got.UserID != "guest" {
		t.Fatalf("guest payload must carry userId=guest, got %q", got.UserID)
	}
	if got.ProductID != "p-tmp" || got.Quantity != 2 || got.Price != 19.9 {
		t.Fatalf("unexpected guest payload: %+v", got)
	}
}

func TestServerErrorsClassifiedAsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewSyncClient(server.URL, time.Second)
	err := client.Persist(context.Background(), auth.Identity{UserID: "u1"}, testItem("i1"))
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable for 5xx, got %v", err)
	}
	if !IsRecoverable(err) {
		t.Fatal("5xx failures must be recoverable")
	}
}

func TestRejectionsClassifiedAsValidationFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid option value", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewSyncClient(server.URL, time.Second)
	err := client.Persist(context.Background(), auth.Identity{UserID: "u1"}, testItem("i1"))
	if !errors.Is(err, ErrUpstreamRejected) {
		t.Fatalf("expected ErrUpstreamRejected for 4xx, got %v", err)
	}
	if IsRecoverable(err) {
		t.Fatal("validation rejections are not recoverable by retry")
	}
}

func TestConnectionFailureClassifiedAsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens anymore

	client := NewSyncClient(server.URL, 200*time.Millisecond)
	_, err := client.Load(context.Background(), auth.Identity{UserID: "u1"})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable for refused connection, got %v", err)
	}
}
