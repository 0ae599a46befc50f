package inventory

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Stealz-com/order/internal/order/application"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), srv.URL, 2*time.Second)
}

func TestCheckStock(t *testing.T) {
	var gotSKUs []string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/inventory" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotSKUs = r.URL.Query()["skuCode"]
		_ = json.NewEncoder(w).Encode([]stockStatus{
			{SKUCode: "SKU-1", InStock: true},
			{SKUCode: "SKU-2", InStock: false},
		})
	})

	stock, err := c.CheckStock(context.Background(), []string{"SKU-1", "SKU-2"})
	if err != nil {
		t.Fatalf("CheckStock: %v", err)
	}
	if len(gotSKUs) != 2 || gotSKUs[0] != "SKU-1" || gotSKUs[1] != "SKU-2" {
		t.Errorf("query skus = %v", gotSKUs)
	}
	if !stock["SKU-1"] || stock["SKU-2"] {
		t.Errorf("stock = %v", stock)
	}
	// A sku the service never mentioned reads as out of stock.
	if stock["SKU-3"] {
		t.Error("unknown sku must read as out of stock")
	}
}

func TestCheckStockErrorStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if _, err := c.CheckStock(context.Background(), []string{"SKU-1"}); err == nil {
		t.Fatal("expected an error on non-200")
	}
}

func TestDeductStock(t *testing.T) {
	var got []application.StockDeduction
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/inventory/deduct" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusOK)
	})

	deductions := []application.StockDeduction{{SKUCode: "SKU-1", Quantity: 2}, {SKUCode: "SKU-2", Quantity: 1}}
	if err := c.DeductStock(context.Background(), deductions); err != nil {
		t.Fatalf("DeductStock: %v", err)
	}
	if len(got) != 2 || got[0] != deductions[0] || got[1] != deductions[1] {
		t.Errorf("body = %v", got)
	}
}

func TestDeductStockRejected(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	if err := c.DeductStock(context.Background(), []application.StockDeduction{{SKUCode: "SKU-1", Quantity: 1}}); err == nil {
		t.Fatal("a non-success deduct response must surface as an error")
	}
}

func TestCheckStockTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})
	c := NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), srv.URL, 50*time.Millisecond)

	if _, err := c.CheckStock(context.Background(), []string{"SKU-1"}); err == nil {
		t.Fatal("expected a timeout error")
	}
}
