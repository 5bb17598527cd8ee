package sui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// rpcServer answers every request with handler(method, params).
func rpcServer(t *testing.T, handler func(method string, params []interface{}) interface{}) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handler(req.Method, req.Params),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestHTTPClient_GetObjectType(t *testing.T) {
	server := rpcServer(t, func(method string, params []interface{}) interface{} {
		if method != "sui_getObject" {
			t.Errorf("expected sui_getObject, got %s", method)
		}
		opts, _ := params[1].(map[string]interface{})
		if opts["showType"] != true {
			t.Errorf("expected showType option, got %v", params[1])
		}
		return map[string]interface{}{
			"data": map[string]interface{}{
				"objectId": params[0],
				"type":     "0xamm::amm_swap::Pool<0xA::m::M>",
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	typ, err := client.GetObjectType(context.Background(), "0xpool")
	if err != nil {
		t.Fatalf("GetObjectType: %v", err)
	}
	if typ != "0xamm::amm_swap::Pool<0xA::m::M>" {
		t.Errorf("unexpected type %s", typ)
	}
}

func TestHTTPClient_GetObjectType_NotExists(t *testing.T) {
	server := rpcServer(t, func(method string, params []interface{}) interface{} {
		return map[string]interface{}{
			"error": map[string]interface{}{"code": "notExists", "object_id": params[0]},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.GetObjectType(context.Background(), "0xmissing")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestHTTPClient_GetCoinMetadata(t *testing.T) {
	server := rpcServer(t, func(method string, params []interface{}) interface{} {
		if method != "suix_getCoinMetadata" {
			t.Errorf("expected suix_getCoinMetadata, got %s", method)
		}
		return map[string]interface{}{
			"decimals":    6,
			"name":        "Meme",
			"symbol":      "MEME",
			"description": "a meme",
			"iconUrl":     nil,
			"id":          "0xmeta",
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	meta, err := client.GetCoinMetadata(context.Background(), "0xA::m::M")
	if err != nil {
		t.Fatalf("GetCoinMetadata: %v", err)
	}
	if meta.Symbol != "MEME" || meta.Decimals != 6 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.IconURL != nil {
		t.Errorf("expected nil icon url, got %v", *meta.IconURL)
	}
	if meta.ID == nil || *meta.ID != "0xmeta" {
		t.Errorf("unexpected id %v", meta.ID)
	}
}

func TestHTTPClient_GetCoinMetadata_Null(t *testing.T) {
	server := rpcServer(t, func(string, []interface{}) interface{} { return nil })
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.GetCoinMetadata(context.Background(), "0xA::m::M")
	if !errors.Is(err, ErrMetadataNotFound) {
		t.Fatalf("expected ErrMetadataNotFound, got %v", err)
	}
}

func TestHTTPClient_GetTotalSupplyAndBalance(t *testing.T) {
	server := rpcServer(t, func(method string, params []interface{}) interface{} {
		switch method {
		case "suix_getTotalSupply":
			return map[string]string{"value": "1000000000"}
		case "suix_getBalance":
			if len(params) != 2 || params[0] != "0xowner" {
				t.Errorf("unexpected params %v", params)
			}
			return map[string]interface{}{
				"coinType":        params[1],
				"coinObjectCount": 2,
				"totalBalance":    "4200",
			}
		}
		t.Errorf("unexpected method %s", method)
		return nil
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	supply, err := client.GetTotalSupply(ctx, "0xA::m::M")
	if err != nil {
		t.Fatalf("GetTotalSupply: %v", err)
	}
	if supply != 1000000000 {
		t.Errorf("expected supply 1000000000, got %d", supply)
	}

	balance, err := client.GetBalance(ctx, "0xowner", "0xA::m::M")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 4200 {
		t.Errorf("expected balance 4200, got %d", balance)
	}
}

func TestHTTPClient_RPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32000, "message": "boom"},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
	_, err := client.GetTotalSupply(context.Background(), "x")

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestHTTPClient_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]string{"value": "7"},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithRetryDelay(time.Millisecond),
		WithMaxDelay(5*time.Millisecond),
	)
	supply, err := client.GetTotalSupply(context.Background(), "x")
	if err != nil {
		t.Fatalf("GetTotalSupply: %v", err)
	}
	if supply != 7 {
		t.Errorf("expected 7, got %d", supply)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestHTTPClient_MaxRetriesExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(2),
		WithRetryDelay(time.Millisecond),
	)
	_, err := client.GetBalance(context.Background(), "o", "c")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLookupNetwork(t *testing.T) {
	ep, ok := LookupNetwork("Mainnet")
	if !ok {
		t.Fatal("expected mainnet")
	}
	if ep.RPC != "https://fullnode.mainnet.sui.io:443" || ep.WS != "wss://fullnode.mainnet.sui.io:443" {
		t.Errorf("unexpected endpoints %+v", ep)
	}

	if _, ok := LookupNetwork("https://my.node"); ok {
		t.Error("URL should not resolve as a network alias")
	}
}
