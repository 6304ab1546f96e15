// Package testutil provides an in-memory stand-in for the OKR persistence and
// suggestion services.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

type KeyResult struct {
	Id          string  `json:"id"`
	Description string  `json:"description"`
	Progress    float64 `json:"progress"`
	Target      float64 `json:"target"`
	Metric      string  `json:"metric"`
}

type Objective struct {
	Id         string      `json:"id"`
	Title      string      `json:"title"`
	KeyResults []KeyResult `json:"keyResults"`
}

// Failure makes matching requests answer with Status. Match is
// "METHOD /path-prefix". The first Skip matches pass through; Times <= 0
// means every later match fails.
type Failure struct {
	Match  string
	Status int
	Times  int
	Skip   int
}

type FakeService struct {
	*httptest.Server

	mu         sync.Mutex
	nextId     int
	objectives []*Objective
	failures   []*Failure
	requests   []string

	// Generated is the raw body answered on POST /ai/generate-okr.
	Generated string
	// Block, when set, is received from before any request is answered.
	Block chan struct{}
}

func NewFakeService() *FakeService {
	f := &FakeService{nextId: 1, objectives: []*Objective{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

func (f *FakeService) Fail(failure Failure) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fc := failure
	f.failures = append(f.failures, &fc)
}

func (f *FakeService) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Objectives returns a copy of the stored collection.
func (f *FakeService) Objectives() []Objective {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Objective, 0, len(f.objectives))
	for _, o := range f.objectives {
		c := *o
		c.KeyResults = append([]KeyResult{}, o.KeyResults...)
		out = append(out, c)
	}
	return out
}

// Seed stores an objective directly, bypassing the HTTP surface.
func (f *FakeService) Seed(title string, keyResults ...KeyResult) Objective {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := &Objective{Id: f.id(), Title: title, KeyResults: []KeyResult{}}
	for _, kr := range keyResults {
		kr.Id = f.id()
		o.KeyResults = append(o.KeyResults, kr)
	}
	f.objectives = append(f.objectives, o)
	c := *o
	c.KeyResults = append([]KeyResult{}, o.KeyResults...)
	return c
}

func (f *FakeService) id() string {
	id := strconv.Itoa(f.nextId)
	f.nextId++
	return id
}

func (f *FakeService) serve(w http.ResponseWriter, r *http.Request) {
	if f.Block != nil {
		<-f.Block
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	line := r.Method + " " + r.URL.Path
	f.requests = append(f.requests, line)

	for i, failure := range f.failures {
		if !strings.HasPrefix(line, failure.Match) {
			continue
		}
		if failure.Skip > 0 {
			failure.Skip--
			continue
		}
		if failure.Times > 0 {
			failure.Times--
			if failure.Times == 0 {
				f.failures = append(f.failures[:i], f.failures[i+1:]...)
			}
		}
		http.Error(w, `{"message":"injected failure"}`, failure.Status)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/ai/generate-okr":
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.Generated))
	case parts[0] != "objectives":
		http.NotFound(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, f.objectives)
	case len(parts) == 1 && r.Method == http.MethodPost:
		var body struct {
			Title string `json:"title"`
		}
		if !decode(w, r, &body) {
			return
		}
		o := &Objective{Id: f.id(), Title: body.Title, KeyResults: []KeyResult{}}
		f.objectives = append(f.objectives, o)
		writeJSON(w, http.StatusCreated, o)
	case len(parts) == 2:
		f.serveObjective(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "key-results" && r.Method == http.MethodPost:
		o := f.find(parts[1])
		if o == nil {
			http.NotFound(w, r)
			return
		}
		var kr KeyResult
		if !decode(w, r, &kr) {
			return
		}
		kr.Id = f.id()
		o.KeyResults = append(o.KeyResults, kr)
		writeJSON(w, http.StatusCreated, kr)
	case len(parts) == 4 && parts[2] == "key-results":
		f.serveKeyResult(w, r, parts[1], parts[3])
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeService) serveObjective(w http.ResponseWriter, r *http.Request, id string) {
	o := f.find(id)
	if o == nil {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var body struct {
			Title string `json:"title"`
		}
		if !decode(w, r, &body) {
			return
		}
		o.Title = body.Title
		writeJSON(w, http.StatusOK, o)
	case http.MethodDelete:
		for i, existing := range f.objectives {
			if existing.Id == id {
				f.objectives = append(f.objectives[:i], f.objectives[i+1:]...)
				break
			}
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *FakeService) serveKeyResult(w http.ResponseWriter, r *http.Request, objectiveId, id string) {
	o := f.find(objectiveId)
	if o == nil {
		http.NotFound(w, r)
		return
	}
	idx := -1
	for i, kr := range o.KeyResults {
		if kr.Id == id {
			idx = i
		}
	}
	if idx < 0 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var body struct {
			Progress float64 `json:"progress"`
		}
		if !decode(w, r, &body) {
			return
		}
		o.KeyResults[idx].Progress = body.Progress
		writeJSON(w, http.StatusOK, o.KeyResults[idx])
	case http.MethodDelete:
		o.KeyResults = append(o.KeyResults[:idx], o.KeyResults[idx+1:]...)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *FakeService) find(id string) *Objective {
	for _, o := range f.objectives {
		if o.Id == id {
			return o
		}
	}
	return nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
