package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/Wrivard/demenagementboreal-sub000/internal/quote"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key", "Boréal <soumission@example.com>", "owner@example.com", zap.NewNop())
	c.baseURL = srv.URL
	return c
}

func decodeSend(t *testing.T, r *http.Request) sendRequest {
	t.Helper()
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("decode send request: %v", err)
	}
	return req
}

func TestSendPair_BothSucceed(t *testing.T) {
	var sends int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeSend(t, r)
		atomic.AddInt32(&sends, 1)
		id := "id-user"
		if req.To[0] == "owner@example.com" {
			id = "id-owner"
		}
		json.NewEncoder(w).Encode(map[string]string{"id": id})
	})

	ids, err := c.SendPair(context.Background(),
		Email{To: "client@example.com", Subject: "s", HTML: "<p>hi</p>"},
		Email{To: "owner@example.com", Subject: "s", HTML: "<p>hi</p>"},
	)
	if err != nil {
		t.Fatalf("SendPair: %v", err)
	}
	if ids.User != "id-user" || ids.Owner != "id-owner" {
		t.Errorf("ids = %+v", ids)
	}
	if n := atomic.LoadInt32(&sends); n != 2 {
		t.Errorf("sends = %d, want 2", n)
	}
}

func TestSendPair_OneFailureStillSucceeds(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeSend(t, r)
		if req.To[0] == "owner@example.com" {
			http.Error(w, "provider down", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "id-user"})
	})

	ids, err := c.SendPair(context.Background(),
		Email{To: "client@example.com"},
		Email{To: "owner@example.com"},
	)
	if err != nil {
		t.Fatalf("SendPair with one failure: %v", err)
	}
	if ids.User != "id-user" {
		t.Errorf("User id = %q", ids.User)
	}
	if ids.Owner != "" {
		t.Errorf("Owner id = %q, want empty for failed send", ids.Owner)
	}
}

func TestSendPair_TotalFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "provider down", http.StatusInternalServerError)
	})

	_, err := c.SendPair(context.Background(),
		Email{To: "client@example.com"},
		Email{To: "owner@example.com"},
	)
	if err == nil {
		t.Fatal("want error when both sends fail")
	}
}

func TestSendPair_NoCredential(t *testing.T) {
	c := NewClient("", "from@example.com", "owner@example.com", zap.NewNop())
	_, err := c.SendPair(context.Background(), Email{}, Email{})
	if !errors.Is(err, ErrNoCredential) {
		t.Errorf("want ErrNoCredential, got %v", err)
	}
}

func TestSendQuoteEmails_PayloadShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeSend(t, r)
		if req.From == "" || len(req.To) != 1 {
			t.Errorf("bad envelope: %+v", req)
		}
		if req.To[0] == "client@example.com" && len(req.Attachments) != 1 {
			t.Errorf("customer email missing PDF attachment")
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "x"})
	})

	_, err := c.SendQuoteEmails(context.Background(), QuoteMessage{
		Name:    "Lucie",
		Email:   "client@example.com",
		Phone:   "514-555-0000",
		Choices: []string{"Type de service: residential"},
		Pricing: quote.PriceRange{Min: 750, Max: 1250},
		PDF:     []byte("%PDF-fake"),
	})
	if err != nil {
		t.Fatalf("SendQuoteEmails: %v", err)
	}
}
