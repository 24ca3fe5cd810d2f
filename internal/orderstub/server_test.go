package orderstub

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, url string, body string) (int, string) {
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func get(t *testing.T, url string) int {
	resp, err := http.Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestUserLifecycle(t *testing.T) {
	stub := NewServer()
	ts := httptest.NewServer(stub)
	defer ts.Close()

	status, _ := post(t, ts.URL+"/user", `{"command":"create","id":1,"username":"alice","email":"a@x.com","password":"pw"}`)
	assert.Equal(t, http.StatusOK, status)
	status, _ = post(t, ts.URL+"/user", `{"command":"create","id":1,"username":"alice","email":"a@x.com","password":"pw"}`)
	assert.Equal(t, http.StatusConflict, status)

	assert.Equal(t, http.StatusOK, get(t, ts.URL+"/user/1"))
	assert.Equal(t, http.StatusNotFound, get(t, ts.URL+"/user/2"))

	status, body := post(t, ts.URL+"/user", `{"command":"update","id":1,"email":"new@x.com"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "new@x.com")

	status, _ = post(t, ts.URL+"/user", `{"command":"delete","id":1}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, http.StatusNotFound, get(t, ts.URL+"/user/1"))

	calls := stub.Calls()
	require.Len(t, calls, 7)
	assert.Equal(t, "GET", calls[2].Method)
	assert.Equal(t, "/user/1", calls[2].Path)
	p, err := calls[0].Payload()
	require.NoError(t, err)
	assert.Equal(t, "create", p["command"])
}

func TestPlaceOrder(t *testing.T) {
	stub := NewServer()
	ts := httptest.NewServer(stub)
	defer ts.Close()

	post(t, ts.URL+"/user", `{"command":"create","id":20,"username":"bob","email":"b@x.com","password":"pw"}`)
	post(t, ts.URL+"/product", `{"command":"create","id":10,"name":"pen","description":"blue","price":1.5,"quantity":5}`)

	status, _ := post(t, ts.URL+"/order", `{"command":"place order","product_id":10,"user_id":20,"quantity":3}`)
	assert.Equal(t, http.StatusOK, status)
	status, body := post(t, ts.URL+"/order", `{"command":"place order","product_id":10,"user_id":20,"quantity":3}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "Exceeded quantity limit")

	status, _ = post(t, ts.URL+"/order", `{"command":"place order","product_id":99,"user_id":20,"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = post(t, ts.URL+"/order", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestReset(t *testing.T) {
	stub := NewServer()
	ts := httptest.NewServer(stub)
	defer ts.Close()

	post(t, ts.URL+"/product", `{"command":"create","id":1,"name":"pen","description":"d","price":1,"quantity":1}`)
	stub.Reset()
	assert.Empty(t, stub.Calls())
	assert.Equal(t, http.StatusNotFound, get(t, ts.URL+"/product/1"))
}
