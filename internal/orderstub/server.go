// Package orderstub is an in-memory stand-in for the order service. It
// answers the user, product and order routes the replay driver calls, and
// records every request it receives.
package orderstub

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Call is one request received by the stub
type Call struct {
	Method string
	Path   string
	Body   []byte
}

// Payload decodes the JSON body of the call, numbers kept as json.Number
func (c Call) Payload() (map[string]interface{}, error) {
	var m map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(c.Body))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

type record map[string]interface{}

// Server is the stub order service
type Server struct {
	sync.Mutex
	router   *mux.Router
	calls    []Call
	users    map[string]record
	products map[string]record
	orders   int
}

// NewServer creates the stub with empty tables
func NewServer() *Server {
	s := &Server{router: mux.NewRouter()}
	s.Reset()
	s.router.HandleFunc("/user", s.postEntity("user", func() map[string]record { return s.users })).Methods("POST")
	s.router.HandleFunc("/user/{id}", s.getEntity(func() map[string]record { return s.users })).Methods("GET")
	s.router.HandleFunc("/product", s.postEntity("product", func() map[string]record { return s.products })).Methods("POST")
	s.router.HandleFunc("/product/{id}", s.getEntity(func() map[string]record { return s.products })).Methods("GET")
	s.router.HandleFunc("/order", s.placeOrder).Methods("POST")
	return s
}

// Reset drops all stored entities and recorded calls
func (s *Server) Reset() {
	s.Lock()
	defer s.Unlock()
	s.calls = make([]Call, 0)
	s.users = make(map[string]record)
	s.products = make(map[string]record)
	s.orders = 0
}

// Calls returns the recorded requests in arrival order
func (s *Server) Calls() []Call {
	s.Lock()
	defer s.Unlock()
	return append([]Call(nil), s.calls...)
}

// ServeHTTP records the request then routes it
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		writeStatus(w, http.StatusBadRequest, "Invalid Request")
		return
	}
	s.Lock()
	s.calls = append(s.calls, Call{Method: req.Method, Path: req.URL.Path, Body: body})
	s.Unlock()

	log.WithFields(log.Fields{"method": req.Method, "path": req.URL.Path}).Debug("stub received request")
	req.Body = io.NopCloser(bytes.NewReader(body))
	s.router.ServeHTTP(w, req)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, status int, text string) {
	writeJSON(w, status, map[string]string{"status": text})
}

func decode(req *http.Request) (record, bool) {
	var m record
	dec := json.NewDecoder(req.Body)
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, false
	}
	return m, true
}

func idOf(m record, key string) (string, bool) {
	n, ok := m[key].(json.Number)
	if !ok {
		return "", false
	}
	if _, err := n.Int64(); err != nil {
		return "", false
	}
	return n.String(), true
}

// update commands carry their values as strings
func intOf(v interface{}) int {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = t
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func (s *Server) getEntity(table func() map[string]record) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		s.Lock()
		defer s.Unlock()
		id := mux.Vars(req)["id"]
		if e, ok := table()[id]; ok {
			writeJSON(w, http.StatusOK, e)
			return
		}
		writeStatus(w, http.StatusNotFound, "Not Found")
	}
}

// handles the create, update and delete commands of users and products
func (s *Server) postEntity(kind string, table func() map[string]record) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		m, ok := decode(req)
		if !ok {
			writeStatus(w, http.StatusBadRequest, "Invalid Request")
			return
		}
		id, ok := idOf(m, "id")
		if !ok {
			writeStatus(w, http.StatusBadRequest, "Invalid Request")
			return
		}
		command, _ := m["command"].(string)
		delete(m, "command")

		s.Lock()
		defer s.Unlock()
		entities := table()
		existing, exists := entities[id]
		switch command {
		case "create":
			if exists {
				writeStatus(w, http.StatusConflict, "Duplicate "+kind)
				return
			}
			entities[id] = m
			writeJSON(w, http.StatusOK, m)
		case "update":
			if !exists {
				writeStatus(w, http.StatusNotFound, "Not Found")
				return
			}
			for k, v := range m {
				existing[k] = v
			}
			writeJSON(w, http.StatusOK, existing)
		case "delete":
			if !exists {
				writeStatus(w, http.StatusNotFound, "Not Found")
				return
			}
			delete(entities, id)
			writeJSON(w, http.StatusOK, map[string]string{})
		default:
			writeStatus(w, http.StatusBadRequest, "Invalid Request")
		}
	}
}

func (s *Server) placeOrder(w http.ResponseWriter, req *http.Request) {
	m, ok := decode(req)
	if !ok || m["command"] != "place order" {
		writeStatus(w, http.StatusBadRequest, "Invalid Request")
		return
	}
	productID, ok1 := idOf(m, "product_id")
	userID, ok2 := idOf(m, "user_id")
	quantity, ok3 := idOf(m, "quantity")
	if !ok1 || !ok2 || !ok3 {
		writeStatus(w, http.StatusBadRequest, "Invalid Request")
		return
	}
	want, _ := strconv.Atoi(quantity)

	s.Lock()
	defer s.Unlock()
	product, okp := s.products[productID]
	_, oku := s.users[userID]
	if !okp || !oku || want <= 0 {
		writeStatus(w, http.StatusNotFound, "Invalid Request")
		return
	}
	stock := intOf(product["quantity"])
	if want > stock {
		writeStatus(w, http.StatusBadRequest, "Exceeded quantity limit")
		return
	}
	product["quantity"] = json.Number(strconv.Itoa(stock - want))
	s.orders++
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":         s.orders,
		"product_id": json.Number(productID),
		"user_id":    json.Number(userID),
		"quantity":   want,
		"status":     "Success",
	})
}
