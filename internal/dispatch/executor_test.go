package dispatch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"multigofer/internal/jsonrpc"
	"multigofer/internal/upstream"
)

// stubSelector hands out endpoints in order, honoring the exclude map
type stubSelector struct {
	endpoints []*upstream.Endpoint
}

func (s *stubSelector) Next(exclude map[string]bool) *upstream.Endpoint {
	for _, ep := range s.endpoints {
		if exclude == nil || !exclude[ep.Name()] {
			return ep
		}
	}
	return nil
}

func serveJSON(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func serveStatus(t *testing.T, code int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "failure", code)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestEndpoint(name, url string) *upstream.Endpoint {
	return upstream.NewEndpoint(upstream.EndpointConfig{
		Name:           name,
		RPCURL:         url,
		Weight:         1,
		Role:           upstream.RoleMain,
		RequestTimeout: 5 * time.Second,
		Logger:         zerolog.Nop(),
	})
}

func TestExecutor_Execute(t *testing.T) {
	srv := serveJSON(t, `{"jsonrpc":"2.0","result":"0x1","id":1}`)
	selector := &stubSelector{endpoints: []*upstream.Endpoint{newTestEndpoint("a", srv.URL)}}
	exec := NewExecutorWithLimiter(selector, RetryConfig{Enabled: true, MaxAttempts: 3}, NewLimiter(4), zerolog.Nop())

	req, _ := jsonrpc.NewRequest("eth_chainId", []interface{}{}, jsonrpc.NewIDInt(1))
	resp, err := exec.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var result string
	resp.GetResultAs(&result)
	if result != "0x1" {
		t.Errorf("result = %s, want 0x1", result)
	}
}

func TestExecutor_Execute_FailsOver(t *testing.T) {
	bad := serveStatus(t, http.StatusInternalServerError)
	good := serveJSON(t, `{"jsonrpc":"2.0","result":"0x1","id":1}`)

	selector := &stubSelector{endpoints: []*upstream.Endpoint{
		newTestEndpoint("bad", bad.URL),
		newTestEndpoint("good", good.URL),
	}}
	exec := NewExecutorWithLimiter(selector, RetryConfig{Enabled: true, MaxAttempts: 3}, NewLimiter(4), zerolog.Nop())

	req, _ := jsonrpc.NewRequest("eth_call", []interface{}{}, jsonrpc.NewIDInt(1))
	resp, err := exec.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.HasError() {
		t.Errorf("unexpected RPC error: %v", resp.Error)
	}
}

func TestExecutor_Execute_RetryDisabled(t *testing.T) {
	bad := serveStatus(t, http.StatusInternalServerError)
	good := serveJSON(t, `{"jsonrpc":"2.0","result":"0x1","id":1}`)

	selector := &stubSelector{endpoints: []*upstream.Endpoint{
		newTestEndpoint("bad", bad.URL),
		newTestEndpoint("good", good.URL),
	}}
	exec := NewExecutorWithLimiter(selector, RetryConfig{Enabled: false}, NewLimiter(4), zerolog.Nop())

	req, _ := jsonrpc.NewRequest("eth_call", []interface{}{}, jsonrpc.NewIDInt(1))
	if _, err := exec.Execute(context.Background(), req); err == nil {
		t.Error("Execute succeeded, want first-endpoint failure with retry disabled")
	}
}

func TestExecutor_Execute_AllEndpointsFail(t *testing.T) {
	bad := serveStatus(t, http.StatusInternalServerError)
	selector := &stubSelector{endpoints: []*upstream.Endpoint{newTestEndpoint("bad", bad.URL)}}
	exec := NewExecutorWithLimiter(selector, RetryConfig{Enabled: true, MaxAttempts: 3}, NewLimiter(4), zerolog.Nop())

	req, _ := jsonrpc.NewRequest("eth_call", []interface{}{}, jsonrpc.NewIDInt(1))
	_, err := exec.Execute(context.Background(), req)
	if err == nil {
		t.Fatal("Execute succeeded, want error")
	}
	if kind, ok := upstream.KindOf(err); !ok || kind != upstream.KindServerError {
		t.Errorf("kind = %v/%v, want KindServerError", kind, ok)
	}
}

func TestExecutor_Execute_NoEndpoints(t *testing.T) {
	exec := NewExecutorWithLimiter(&stubSelector{}, RetryConfig{Enabled: true, MaxAttempts: 3}, NewLimiter(4), zerolog.Nop())

	req, _ := jsonrpc.NewRequest("eth_call", []interface{}{}, jsonrpc.NewIDInt(1))
	_, err := exec.Execute(context.Background(), req)
	if !errors.Is(err, ErrNoEndpointsAvailable) {
		t.Errorf("err = %v, want ErrNoEndpointsAvailable", err)
	}
}

func TestExecutor_Execute_NodeErrorReturnedInResponse(t *testing.T) {
	srv := serveJSON(t, `{"jsonrpc":"2.0","error":{"code":-32000,"message":"execution reverted"},"id":1}`)
	selector := &stubSelector{endpoints: []*upstream.Endpoint{newTestEndpoint("a", srv.URL)}}
	exec := NewExecutorWithLimiter(selector, RetryConfig{Enabled: true, MaxAttempts: 3}, NewLimiter(4), zerolog.Nop())

	req, _ := jsonrpc.NewRequest("eth_call", []interface{}{}, jsonrpc.NewIDInt(1))
	resp, err := exec.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.HasError() || resp.Error.Message != "execution reverted" {
		t.Errorf("response = %+v, want node error passed through", resp)
	}
}
