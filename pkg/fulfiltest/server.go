// Package fulfiltest provides an in-memory fake of the Fulfil API for tests
// and examples.
//
// The fake understands the model endpoints used by the fulfil package:
// search_read, search_count, record updates, creation and the customer
// shipment hold/unhold actions. Records are kept flat: a linked record is its
// id under the relation name and sub-fields are stored under dotted keys,
// exactly as search_read reports them.
package fulfiltest

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/riandyrn/otelchi"
	"github.com/rs/cors"

	"github.com/fivetwenty-io/fulfil-client/internal/constants"
	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
)

// DefaultToken is accepted by every Server.
const DefaultToken = "fulfiltest-token"

// RecordedRequest is a request seen by the server.
type RecordedRequest struct {
	Method string
	Path   string
	Body   interface{}
}

type failure struct {
	suffix  string
	status  int
	body    string
	headers map[string]string
	times   int
}

// Server is a fake Fulfil API.
type Server struct {
	mutex    sync.Mutex
	server   *httptest.Server
	records  map[string][]map[string]interface{}
	nextID   map[string]int64
	failures []*failure
	requests []RecordedRequest
}

// NewServer starts a fake API server. Call Close when done.
func NewServer() *Server {
	s := &Server{
		records: map[string][]map[string]interface{}{},
		nextID:  map[string]int64{},
	}

	s.server = httptest.NewServer(s.Handler())

	return s
}

// URL returns the base URL of the server.
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.server.Close()
}

// Config returns a client configuration pointing at the server.
func (s *Server) Config() *fulfil.Config {
	return &fulfil.Config{
		MerchantID:  "fulfiltest",
		BaseURL:     s.server.URL,
		AccessToken: DefaultToken,
		TPL: &fulfil.TPLConfig{
			AuthToken: DefaultToken,
		},
	}
}

// Handler returns the router. It can be mounted in another server, including
// one serving browser clients.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	}).Handler)
	r.Use(otelchi.Middleware("fulfiltest", otelchi.WithChiRoutes(r)))
	r.Use(s.record, s.authenticate, s.injectFailures)

	r.Route("/api/{version}/model/{model}", func(r chi.Router) {
		r.Post("/", s.create)
		r.Put("/search_read", s.searchRead)
		r.Put("/search_count", s.searchCount)
		r.Put("/hold", s.hold(true))
		r.Put("/unhold", s.hold(false))
		r.Put("/{id:[0-9]+}", s.update)
	})

	r.HandleFunc("/services/3pl/{version}/*", s.echo)

	return r
}

// Seed stores rows for model. Rows without an id get the next free one.
func (s *Server) Seed(model string, rows ...map[string]interface{}) []int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ids := make([]int64, 0, len(rows))

	for _, row := range rows {
		ids = append(ids, s.insert(model, normalize(row)))
	}

	return ids
}

// SeedN stores n rows built by build for model.
func (s *Server) SeedN(model string, n int, build func(i int) map[string]interface{}) []int64 {
	rows := make([]map[string]interface{}, 0, n)
	for i := range n {
		rows = append(rows, build(i))
	}

	return s.Seed(model, rows...)
}

// Record returns a copy of a stored row, or nil.
func (s *Server) Record(model string, id int64) map[string]interface{} {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	row := s.find(model, id)
	if row == nil {
		return nil
	}

	copied := make(map[string]interface{}, len(row))
	for key, value := range row {
		copied[key] = value
	}

	return copied
}

// FailNext makes the next times requests whose path ends with suffix answer
// with status and body. An empty suffix matches every request.
func (s *Server) FailNext(suffix string, times, status int, body string) {
	s.FailNextWithHeaders(suffix, times, status, body, nil)
}

// FailNextWithHeaders is FailNext with extra response headers, such as
// Retry-After.
func (s *Server) FailNextWithHeaders(suffix string, times, status int, body string, headers map[string]string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.failures = append(s.failures, &failure{
		suffix:  suffix,
		status:  status,
		body:    body,
		headers: headers,
		times:   times,
	})
}

// Requests returns every request seen so far.
func (s *Server) Requests() []RecordedRequest {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return slices.Clone(s.requests)
}

// RequestCount returns how many requests had a path ending with suffix.
func (s *Server) RequestCount(suffix string) int {
	count := 0

	for _, req := range s.Requests() {
		if strings.HasSuffix(req.Path, suffix) {
			count++
		}
	}

	return count
}

// Reset forgets recorded requests and pending failures.
func (s *Server) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.requests = nil
	s.failures = nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()

		var body interface{}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &body)
		}

		s.mutex.Lock()
		s.requests = append(s.requests, RecordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
		s.mutex.Unlock()

		r.Body = io.NopCloser(strings.NewReader(string(data)))

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(constants.HeaderAPIKey)
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get(constants.HeaderAuthorization), "Bearer ")
		}

		if token != DefaultToken {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"code":        http.StatusUnauthorized,
				"name":        "Unauthorized",
				"description": "The server could not verify that you are authorized to access the URL requested.",
			})

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f := s.takeFailure(r.URL.Path); f != nil {
			for name, value := range f.headers {
				w.Header().Set(name, value)
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) takeFailure(path string) *failure {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, f := range s.failures {
		if !strings.HasSuffix(path, f.suffix) {
			continue
		}

		f.times--
		if f.times <= 0 {
			s.failures = slices.Delete(s.failures, i, i+1)
		}

		return f
	}

	return nil
}

type searchBody struct {
	Filters []interface{} `json:"filters"`
	Fields  []string      `json:"fields"`
	Limit   *int          `json:"limit"`
	Offset  *int          `json:"offset"`
}

func (s *Server) searchRead(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if !decodeBody(w, r, &body) {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	matched, err := s.filter(chi.URLParam(r, "model"), body.Filters)
	if err != nil {
		writeUserError(w, err.Error())

		return
	}

	start := 0
	if body.Offset != nil {
		start = min(max(*body.Offset, 0), len(matched))
	}

	end := len(matched)
	if body.Limit != nil && *body.Limit >= 0 {
		end = min(start+*body.Limit, len(matched))
	}

	rows := make([]map[string]interface{}, 0, end-start)
	for _, row := range matched[start:end] {
		rows = append(rows, project(row, body.Fields))
	}

	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) searchCount(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if !decodeBody(w, r, &body) {
		return
	}

	s.mutex.Lock()
	matched, err := s.filter(chi.URLParam(r, "model"), body.Filters)
	s.mutex.Unlock()

	if err != nil {
		writeUserError(w, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, len(matched))
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	var body map[string]interface{}
	if !decodeBody(w, r, &body) {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	row := s.find(model, id)
	if row == nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"message": fmt.Sprintf("%s %d does not exist", model, id),
		})

		return
	}

	for key, value := range flatten("", body) {
		if key == "id" {
			continue
		}

		row[key] = value
	}

	writeJSON(w, http.StatusOK, row)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")

	var body []map[string]interface{}
	if !decodeBody(w, r, &body) {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	ids := make([]int64, 0, len(body))
	for _, row := range body {
		delete(row, "id")
		ids = append(ids, s.insert(model, flatten("", row)))
	}

	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) hold(onHold bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model := chi.URLParam(r, "model")

		var body []interface{}
		if !decodeBody(w, r, &body) {
			return
		}

		if len(body) == 0 {
			writeUserError(w, "record ids are required")

			return
		}

		ids, _ := body[0].([]interface{})
		options := map[string]interface{}{}

		if len(body) > 1 {
			options, _ = body[1].(map[string]interface{})
		}

		s.mutex.Lock()
		defer s.mutex.Unlock()

		for _, rawID := range ids {
			id, ok := fulfil.RelationID(rawID)
			if !ok {
				continue
			}

			row := s.find(model, id)
			if row == nil {
				continue
			}

			row["on_hold"] = onHold
			if note, ok := options["note"]; ok {
				row["hold_note"] = note
			}

			if reason, ok := options["hold_reason"]; ok {
				row["hold_reason"] = reason
			}
		}

		writeJSON(w, http.StatusOK, nil)
	}
}

func (s *Server) echo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"method": r.Method,
		"path":   chi.URLParam(r, "*"),
		"query":  r.URL.Query(),
	})
}

func (s *Server) insert(model string, row map[string]interface{}) int64 {
	id, ok := fulfil.RelationID(row["id"])
	if !ok {
		s.nextID[model]++
		id = s.nextID[model]
	} else if id > s.nextID[model] {
		s.nextID[model] = id
	}

	row["id"] = float64(id)
	s.records[model] = append(s.records[model], row)

	slices.SortFunc(s.records[model], func(a, b map[string]interface{}) int {
		idA, _ := fulfil.RelationID(a["id"])
		idB, _ := fulfil.RelationID(b["id"])

		return cmp.Compare(idA, idB)
	})

	return id
}

func (s *Server) find(model string, id int64) map[string]interface{} {
	for _, row := range s.records[model] {
		if rowID, _ := fulfil.RelationID(row["id"]); rowID == id {
			return row
		}
	}

	return nil
}

func (s *Server) filter(model string, filters []interface{}) ([]map[string]interface{}, error) {
	matched := make([]map[string]interface{}, 0, len(s.records[model]))

	for _, row := range s.records[model] {
		ok, err := matchAll(row, filters)
		if err != nil {
			return nil, err
		}

		if ok {
			matched = append(matched, row)
		}
	}

	return matched, nil
}

func project(row map[string]interface{}, fields []string) map[string]interface{} {
	projected := map[string]interface{}{"id": row["id"]}

	for _, field := range fields {
		if value, ok := row[field]; ok {
			projected[field] = value
		}
	}

	return projected
}

// flatten turns a nested attribute tree into the flat search_read layout.
func flatten(prefix string, tree map[string]interface{}) map[string]interface{} {
	flat := map[string]interface{}{}

	for key, value := range tree {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}

		nested, ok := value.(map[string]interface{})
		if _, tagged := nested[constants.DiscriminatorKey]; !ok || tagged {
			flat[name] = value

			continue
		}

		for nestedKey, nestedValue := range flatten(name, nested) {
			if nestedKey == name+".id" {
				flat[name] = nestedValue

				continue
			}

			flat[nestedKey] = nestedValue
		}
	}

	return flat
}

// normalize gives seeded rows the same value types as decoded requests.
func normalize(row map[string]interface{}) map[string]interface{} {
	data, err := json.Marshal(row)
	if err != nil {
		return row
	}

	var normalized map[string]interface{}
	if err := json.Unmarshal(data, &normalized); err != nil {
		return row
	}

	return normalized
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeUserError(w, err.Error())

		return false
	}

	if len(data) == 0 {
		return true
	}

	if err := json.Unmarshal(data, out); err != nil {
		writeUserError(w, "malformed request body: "+err.Error())

		return false
	}

	return true
}

func writeUserError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"type":    "UserError",
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
