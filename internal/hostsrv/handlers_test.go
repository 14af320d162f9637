package hostsrv

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/dialogrun/diavolo/internal/dialogue/runner"
)

const fixtureScript = `
nodes:
  main:
    - message: hi
    - exit: 0
`

func doMsgpack(t *testing.T, srv *Server, method, path string, reqBody any, respBody any) *http.Response {
	t.Helper()
	var body bytes.Buffer
	if reqBody != nil {
		b, err := msgpack.Marshal(reqBody)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		body.Write(b)
	}

	req := httptest.NewRequest(method, path, &body)
	rec := httptest.NewRecorder()
	srv.httpSrv.Handler.ServeHTTP(rec, req)
	resp := rec.Result()

	if respBody != nil {
		if err := msgpack.Unmarshal(rec.Body.Bytes(), respBody); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
	}
	return resp
}

func TestHandlers_HealthReportsZeroSessions(t *testing.T) {
	srv := New(Config{Addr: ":0"})

	var got map[string]any
	resp := doMsgpack(t, srv, http.MethodGet, "/health", nil, &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if n := fmt.Sprint(got["dialogues"]); n != "0" {
		t.Fatalf("dialogues = %s, want 0", n)
	}
}

func TestHandlers_CreateViewAndAction(t *testing.T) {
	srv := New(Config{Addr: ":0"})

	var created CreateResponse
	resp := doMsgpack(t, srv, http.MethodPost, "/dialogues", CreateRequest{
		Script: fixtureScript,
		Actors: 1,
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if created.ID == "" {
		t.Fatal("expected non-empty session ID")
	}
	if created.View.Kind != runner.KindMessage {
		t.Fatalf("expected message view, got %v", created.View.Kind)
	}

	var fetched runner.View
	resp = doMsgpack(t, srv, http.MethodGet, "/dialogues/"+created.ID, nil, &fetched)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}

	var afterSkip ActionResponse
	resp = doMsgpack(t, srv, http.MethodPost, "/dialogues/"+created.ID+"/actions", ActionRequest{
		Kind: actionKindSkip,
	}, &afterSkip)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("action status = %d", resp.StatusCode)
	}
	if !afterSkip.Accepted {
		t.Fatal("expected skip action to be accepted")
	}

	var afterAdvance ActionResponse
	resp = doMsgpack(t, srv, http.MethodPost, "/dialogues/"+created.ID+"/actions", ActionRequest{
		Kind: actionKindAdvance,
	}, &afterAdvance)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("advance status = %d", resp.StatusCode)
	}
	if afterAdvance.View.Kind != runner.KindTerminated {
		t.Fatalf("expected terminated view, got %v", afterAdvance.View.Kind)
	}
}

func TestHandlers_GetViewNotFound(t *testing.T) {
	srv := New(Config{Addr: ":0"})

	var errBody ErrorResponse
	resp := doMsgpack(t, srv, http.MethodGet, "/dialogues/nonexistent", nil, &errBody)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if errBody.Error == "" {
		t.Fatal("expected an error message")
	}
}

func TestHandlers_CreateRejectsInvalidScript(t *testing.T) {
	srv := New(Config{Addr: ":0"})

	var errBody ErrorResponse
	resp := doMsgpack(t, srv, http.MethodPost, "/dialogues", CreateRequest{
		Script: "not: [valid, dialogue",
		Actors: 1,
	}, &errBody)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
