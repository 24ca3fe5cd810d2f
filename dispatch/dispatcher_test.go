package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ochinchina/wlreplay/faults"
	"github.com/ochinchina/wlreplay/internal/orderstub"
	"github.com/ochinchina/wlreplay/workload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *orderstub.Server) {
	stub := orderstub.NewServer()
	ts := httptest.NewServer(stub)
	t.Cleanup(ts.Close)
	return NewDispatcher(NewOrderServiceRegistry(), NewClient(ts.URL)), stub
}

func dispatchLine(t *testing.T, d *Dispatcher, line string) Result {
	cmd, ok := workload.Tokenize(line)
	require.True(t, ok, line)
	return d.Dispatch(context.Background(), cmd)
}

func TestUserCreatePayload(t *testing.T) {
	d, stub := newTestDispatcher(t)
	r := dispatchLine(t, d, "user create 1 alice a@x.com pw")
	assert.Equal(t, Success, r.Kind)
	assert.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, "Successful: "+r.Body, r.Message())

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "POST", calls[0].Method)
	assert.Equal(t, "/user", calls[0].Path)
	assert.JSONEq(t, `{"command":"create","id":1,"username":"alice","email":"a@x.com","password":"pw"}`, string(calls[0].Body))
}

func TestUserUpdateKeyValues(t *testing.T) {
	d, stub := newTestDispatcher(t)
	dispatchLine(t, d, "user update 7 email:new@x.com status:active")

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, `{"command":"update","id":7,"email":"new@x.com","status":"active"}`, string(calls[0].Body))
}

func TestUpdateValueKeepsColons(t *testing.T) {
	req, err := update("product update", "/product")([]string{"3", "description:a:b"})
	require.NoError(t, err)
	v, _ := req.Payload.Get("description")
	assert.Equal(t, "a:b", v)
}

func TestProductRequests(t *testing.T) {
	d, stub := newTestDispatcher(t)
	assert.Equal(t, Success, dispatchLine(t, d, "PRODUCT CREATE 5 pen blue 1.25 10").Kind)
	assert.Equal(t, Success, dispatchLine(t, d, "product info 5").Kind)
	assert.Equal(t, Success, dispatchLine(t, d, "product delete 5 pen 1.25 10").Kind)

	calls := stub.Calls()
	require.Len(t, calls, 3)
	assert.JSONEq(t, `{"command":"create","id":5,"name":"pen","description":"blue","price":1.25,"quantity":10}`, string(calls[0].Body))
	assert.Equal(t, "GET", calls[1].Method)
	assert.Equal(t, "/product/5", calls[1].Path)
	assert.Empty(t, calls[1].Body)
	assert.JSONEq(t, `{"command":"delete","id":5,"name":"pen","price":1.25,"quantity":10}`, string(calls[2].Body))
}

func TestOrderPlacePayload(t *testing.T) {
	d, stub := newTestDispatcher(t)
	r := dispatchLine(t, d, "order place 10 20 3")
	// nothing exists yet, the stub refuses the order
	assert.Equal(t, Failure, r.Kind)
	assert.Equal(t, "Failed: "+r.Body, r.Message())

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"command":"place order","product_id":10,"user_id":20,"quantity":3}`, string(calls[0].Body))
}

func TestNonOKIsFailure(t *testing.T) {
	d, _ := newTestDispatcher(t)
	r := dispatchLine(t, d, "user get 42")
	assert.Equal(t, Failure, r.Kind)
	assert.Equal(t, http.StatusNotFound, r.Status)
	assert.NoError(t, r.Err)
	assert.Contains(t, r.Message(), "Failed: ")
	assert.Contains(t, r.Message(), "Not Found")
}

func TestBadArgumentsKeepDetail(t *testing.T) {
	d, stub := newTestDispatcher(t)

	r := dispatchLine(t, d, "user create abc alice a@x.com pw")
	assert.Equal(t, Failure, r.Kind)
	assert.ErrorIs(t, r.Err, faults.ErrCommand)
	assert.Equal(t, `Failed: command error: user create: id "abc" is not an integer`, r.Message())

	r = dispatchLine(t, d, "user delete 1 alice")
	assert.Equal(t, Failure, r.Kind)
	assert.Contains(t, r.Message(), "expected 4 arguments, got 2")

	r = dispatchLine(t, d, "product update 1 nocolon")
	assert.Equal(t, Failure, r.Kind)
	assert.Contains(t, r.Message(), `"nocolon" is not a key:value pair`)

	assert.Empty(t, stub.Calls())
}

func TestOrderPlaceFailureBody(t *testing.T) {
	d, stub := newTestDispatcher(t)
	r := dispatchLine(t, d, "order place 10 twenty 3")
	assert.Equal(t, Failure, r.Kind)
	assert.Equal(t, `Failed: {"status":"Invalid Request"}`, r.Message())
	assert.Empty(t, stub.Calls())
}

func TestUnknownActionSkipped(t *testing.T) {
	d, stub := newTestDispatcher(t)
	r := dispatchLine(t, d, "user explode 1")
	assert.Equal(t, Skipped, r.Kind)
	assert.Equal(t, "", r.Message())

	r = dispatchLine(t, d, "order")
	assert.Equal(t, Skipped, r.Kind)
	assert.Empty(t, stub.Calls())
}

func TestNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	d := NewDispatcher(NewOrderServiceRegistry(), NewClient(url))
	r := dispatchLine(t, d, "user get 1")
	assert.Equal(t, Failure, r.Kind)
	assert.ErrorIs(t, r.Err, faults.ErrNetwork)
	assert.Equal(t, 0, r.Status)
}

func TestClientTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	c.SetTimeout(20 * time.Millisecond)
	_, _, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/user/1"})
	assert.ErrorIs(t, err, faults.ErrNetwork)
}

func TestClientContentType(t *testing.T) {
	var contentType, method string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		contentType = req.Header.Get("Content-Type")
		method = req.Method
		w.Write([]byte("{}"))
	}))
	defer ts.Close()

	c := NewClient(ts.URL + "/")
	status, body, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/order", Payload: NewPayload().Set("a", 1)})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "{}", string(body))
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, http.MethodPost, method)
}

func TestPlan(t *testing.T) {
	d := NewDispatcher(NewOrderServiceRegistry(), NewClient("http://127.0.0.1:1"))
	cmd, _ := workload.Tokenize("user get 9")
	req, ok, err := d.Plan(cmd)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, Request{Method: http.MethodGet, Path: "/user/9"}, req)

	cmd, _ = workload.Tokenize("user dance")
	_, ok, _ = d.Plan(cmd)
	assert.False(t, ok)
}

func TestRegistryRoutes(t *testing.T) {
	routes := NewOrderServiceRegistry().Routes()
	require.Len(t, routes, 9)
	assert.Equal(t, workload.Order, routes[0].Service)
	assert.Equal(t, "place", routes[0].Action)
}

func TestPayloadOrderAndOverwrite(t *testing.T) {
	p := NewPayload().Set("command", "update").Set("id", 7).Set("email", "a").Set("id", "9")
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"command":"update","id":"9","email":"a"}`, string(b))
	assert.Equal(t, []string{"command", "id", "email"}, p.Keys())
}
