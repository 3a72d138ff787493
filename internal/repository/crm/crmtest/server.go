// Package crmtest runs an in-memory CRM that speaks the REST dialect the
// crm client expects. It is meant for tests only.
package crmtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

const (
	apiPrefix = "/crm/v8"
	tokenPath = "/oauth/v2/token"
)

// Request is one call seen by the server.
type Request struct {
	Method string
	Module string
	ID     string
	Query  string
	Body   []byte
}

// Server is a fake CRM backed by maps of decoded JSON records.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	modules  map[string][]map[string]any
	seq      int
	tokens   map[string]bool
	grants   int
	requests []Request
	failWith int
	delay    time.Duration
}

// New starts a server and closes it when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		modules: make(map[string][]map[string]any),
		tokens:  make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+tokenPath, s.handleToken)
	mux.HandleFunc("GET "+apiPrefix+"/{module}", s.authed(s.handleList))
	mux.HandleFunc("GET "+apiPrefix+"/{module}/search", s.authed(s.handleSearch))
	mux.HandleFunc("GET "+apiPrefix+"/{module}/{id}", s.authed(s.handleGet))
	mux.HandleFunc("POST "+apiPrefix+"/{module}", s.authed(s.handleCreate))
	mux.HandleFunc("PUT "+apiPrefix+"/{module}/{id}", s.authed(s.handleUpdate))
	mux.HandleFunc("DELETE "+apiPrefix+"/{module}/{id}", s.authed(s.handleDelete))

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) APIURL() string  { return s.URL + apiPrefix }
func (s *Server) AuthURL() string { return s.URL + tokenPath }

// Seed stores records (structs or maps) in module. Records without an id get one.
func (s *Server) Seed(module string, records ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		raw, err := json.Marshal(r)
		if err != nil {
			panic(err)
		}
		rec := decodeRecord(raw)
		if id, _ := rec["id"].(string); id == "" {
			rec["id"] = s.nextID()
		}
		s.modules[module] = append(s.modules[module], rec)
	}
}

// Record returns a copy of the stored record, or nil.
func (s *Server) Record(module, id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, rec := s.find(module, id); rec != nil {
		out := make(map[string]any, len(rec))
		for k, v := range rec {
			out[k] = v
		}
		return out
	}
	return nil
}

// Count returns the number of records stored in module.
func (s *Server) Count(module string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.modules[module])
}

// Requests returns every CRM call made so far, token grants excluded.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Writes returns the POST, PUT and DELETE calls made so far.
func (s *Server) Writes() []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method != http.MethodGet {
			out = append(out, r)
		}
	}
	return out
}

// Grants returns how many refresh-token grants were served.
func (s *Server) Grants() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grants
}

// RevokeTokens invalidates every access token issued so far.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok := range s.tokens {
		s.tokens[tok] = false
	}
}

// Fail makes every module call answer status; 0 restores normal behaviour.
func (s *Server) Fail(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = status
}

// Delay holds every module call for d before answering.
func (s *Server) Delay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "refresh_token" {
		writeJSON(w, http.StatusOK, map[string]any{"error": "invalid_code"})
		return
	}
	if r.PostForm.Get("refresh_token") == "" {
		writeJSON(w, http.StatusOK, map[string]any{"error": "invalid_code"})
		return
	}

	s.mu.Lock()
	s.grants++
	tok := fmt.Sprintf("tok-%d", s.grants)
	s.tokens[tok] = true
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": tok,
		"expires_in":   3600,
		"token_type":   "Bearer",
	})
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			buf := new(bytes.Buffer)
			_, _ = buf.ReadFrom(r.Body)
			body = buf.Bytes()
			r.Body.Close()
			r.Body = readCloser{bytes.NewReader(body)}
		}

		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Zoho-oauthtoken ")

		s.mu.Lock()
		valid := s.tokens[tok]
		fail := s.failWith
		delay := s.delay
		if valid {
			s.requests = append(s.requests, Request{
				Method: r.Method,
				Module: r.PathValue("module"),
				ID:     r.PathValue("id"),
				Query:  r.URL.RawQuery,
				Body:   body,
			})
		}
		s.mu.Unlock()

		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"code": "INVALID_TOKEN", "message": "invalid oauth token", "status": "error"})
			return
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if fail != 0 {
			writeJSON(w, fail, map[string]any{"code": "INTERNAL_ERROR", "message": "injected failure", "status": "error"})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	// Records are mutable maps, so they are rendered under the lock.
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writePage(w, r, s.modules[r.PathValue("module")])
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria, word := q.Get("criteria"), q.Get("word")
	if criteria == "" && word == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": "REQUIRED_PARAM_MISSING", "message": "criteria or word is required", "status": "error"})
		return
	}

	var match func(map[string]any) bool
	if criteria != "" {
		field, op, value, err := parseCriteria(criteria)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"code": "INVALID_QUERY", "message": err.Error(), "status": "error"})
			return
		}
		match = func(rec map[string]any) bool {
			v := fieldString(rec[field])
			switch op {
			case "equals":
				return v == value
			case "starts_with":
				return strings.HasPrefix(v, value)
			}
			return false
		}
	} else {
		needle := strings.ToLower(word)
		match = func(rec map[string]any) bool {
			for _, v := range rec {
				if str, ok := v.(string); ok && strings.Contains(strings.ToLower(str), needle) {
					return true
				}
			}
			return false
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var hits []map[string]any
	for _, rec := range s.modules[r.PathValue("module")] {
		if match(rec) {
			hits = append(hits, rec)
		}
	}
	s.writePage(w, r, hits)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rec := s.find(r.PathValue("module"), r.PathValue("id"))
	if rec == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": []any{project(rec, r.URL.Query().Get("fields"))}})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	rec, ok := firstRecord(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	id := s.nextID()
	rec["id"] = id
	module := r.PathValue("module")
	s.modules[module] = append(s.modules[module], rec)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, writeResult("SUCCESS", "record added", id))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	patch, ok := firstRecord(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	s.mu.Lock()
	_, rec := s.find(r.PathValue("module"), id)
	if rec != nil {
		for k, v := range patch {
			if k != "id" {
				rec[k] = v
			}
		}
	}
	s.mu.Unlock()

	if rec == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": "INVALID_DATA", "message": "the id given seems to be invalid", "status": "error"})
		return
	}
	writeJSON(w, http.StatusOK, writeResult("SUCCESS", "record updated", id))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	module, id := r.PathValue("module"), r.PathValue("id")

	s.mu.Lock()
	idx, rec := s.find(module, id)
	if rec != nil {
		s.modules[module] = append(s.modules[module][:idx], s.modules[module][idx+1:]...)
	}
	s.mu.Unlock()

	if rec == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": "INVALID_DATA", "message": "the id given seems to be invalid", "status": "error"})
		return
	}
	writeJSON(w, http.StatusOK, writeResult("SUCCESS", "record deleted", id))
}

// writePage must be called with s.mu held.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, records []map[string]any) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 {
		perPage = 200
	}

	start := (page - 1) * perPage
	if start >= len(records) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	end := start + perPage
	if end > len(records) {
		end = len(records)
	}

	data := make([]any, 0, end-start)
	for _, rec := range records[start:end] {
		data = append(data, project(rec, q.Get("fields")))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": data,
		"info": map[string]any{
			"page":         page,
			"per_page":     perPage,
			"count":        len(data),
			"more_records": end < len(records),
		},
	})
}

func (s *Server) find(module, id string) (int, map[string]any) {
	for i, rec := range s.modules[module] {
		if rec["id"] == id {
			return i, rec
		}
	}
	return -1, nil
}

func (s *Server) nextID() string {
	s.seq++
	return strconv.Itoa(5_000_000_000 + s.seq)
}

func firstRecord(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": "INVALID_DATA", "message": "body must carry data[0]", "status": "error"})
		return nil, false
	}
	return decodeRecord(body.Data[0]), true
}

func writeResult(code, message, id string) map[string]any {
	return map[string]any{"data": []any{map[string]any{
		"code":    code,
		"status":  "success",
		"message": message,
		"details": map[string]any{"id": id},
	}}}
}

// project keeps the requested fields plus id. An empty list keeps everything.
func project(rec map[string]any, fields string) map[string]any {
	if fields == "" {
		return rec
	}
	out := map[string]any{"id": rec["id"]}
	for _, f := range strings.Split(fields, ",") {
		f = strings.TrimSpace(f)
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}

// parseCriteria understands a single "(Field:op:value)" clause.
func parseCriteria(c string) (field, op, value string, err error) {
	c = strings.TrimSpace(c)
	if !strings.HasPrefix(c, "(") || !strings.HasSuffix(c, ")") {
		return "", "", "", fmt.Errorf("criteria %q must be parenthesized", c)
	}
	parts := strings.SplitN(c[1:len(c)-1], ":", 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("criteria %q must be field:op:value", c)
	}
	value = strings.NewReplacer(`\(`, `(`, `\)`, `)`, `\,`, `,`, `\\`, `\`).Replace(parts[2])
	return parts[0], parts[1], value, nil
}

// fieldString renders a stored value for comparison; lookups compare by id.
func fieldString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case map[string]any:
		id, _ := t["id"].(string)
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func decodeRecord(raw []byte) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	rec := map[string]any{}
	if err := dec.Decode(&rec); err != nil {
		panic(err)
	}
	return rec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type readCloser struct{ *bytes.Reader }

func (readCloser) Close() error { return nil }
