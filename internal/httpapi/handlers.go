package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dreamware/kronos/internal/config"
	"github.com/dreamware/kronos/internal/ktime"
	"github.com/dreamware/kronos/internal/storage"
)

// handleNamespaceRoute dispatches every request under /namespaces/. Path
// parsing mirrors the teacher's manual prefix/index splitting rather than
// a routing library — no example repo in the pack pulls one in for a
// facade this small.
//
// Recognized paths:
//
//	GET    /namespaces/{ns}/streams                  -> list stream names
//	POST   /namespaces/{ns}/streams/{name}/events     -> insert
//	GET    /namespaces/{ns}/streams/{name}/events     -> retrieve
//	DELETE /namespaces/{ns}/streams/{name}/events     -> delete
func (s *Server) handleNamespaceRoute(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/namespaces/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] != "streams" {
		http.NotFound(w, r)
		return
	}
	namespace := parts[0]

	switch {
	case len(parts) == 2:
		s.handleListStreams(w, r, namespace)
	case len(parts) == 4 && parts[3] == "events":
		stream := parts[2]
		switch r.Method {
		case http.MethodPost:
			s.handleInsert(w, r, namespace, stream)
		case http.MethodGet:
			s.handleRetrieve(w, r, namespace, stream)
		case http.MethodDelete:
			s.handleDelete(w, r, namespace, stream)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleListStreams(w http.ResponseWriter, r *http.Request, namespace string) {
	names, err := s.core.Streams(r.Context(), namespace)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"streams": names})
}

type insertRequest struct {
	Events []json.RawMessage `json:"events"`
	Config map[string]int    `json:"config"`
}

type insertOutcomeWire struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request, namespace, streamName string) {
	var req insertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	cfg, err := config.ParseStreamConfig(req.Config)
	if err != nil {
		writeError(w, err)
		return
	}

	events := make([]storage.Event, len(req.Events))
	for i, raw := range req.Events {
		events[i] = storage.Event{Payload: raw}
	}

	result, err := s.core.Insert(r.Context(), namespace, streamName, events, cfg)
	if err != nil {
		writeError(w, err)
		return
	}

	failures := make([]insertOutcomeWire, len(result.Failures))
	for i, f := range result.Failures {
		failures[i] = insertOutcomeWire{Index: f.Index, Error: f.Err.Error()}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"inserted": result.Inserted,
		"failures": failures,
	})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request, namespace, streamName string) {
	q := r.URL.Query()

	startID, err := ktime.ParseEventID(q.Get("start_id"))
	if err != nil {
		http.Error(w, "invalid start_id: "+err.Error(), http.StatusBadRequest)
		return
	}
	endSeconds, err := strconv.ParseFloat(q.Get("end_time"), 64)
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}
	endTime, err := ktime.SecondsToKronosTime(endSeconds)
	if err != nil {
		http.Error(w, "end_time out of range", http.StatusBadRequest)
		return
	}

	order := storage.Ascending
	if strings.EqualFold(q.Get("order"), "DESC") {
		order = storage.Descending
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
	}

	cfg, err := parseStreamConfigQuery(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	it, err := s.core.Retrieve(r.Context(), namespace, streamName, startID, endTime, order, limit, cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() {
		if err := it.Close(); err != nil {
			s.log.Error().Err(err).Msg("retrieve stream close")
		}
	}()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	for {
		ev, ok, err := it.Next(r.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("retrieve stream interrupted")
			return
		}
		if !ok {
			return
		}
		_ = enc.Encode(map[string]interface{}{
			"id":      ev.Id.String(),
			"payload": json.RawMessage(ev.Payload),
		})
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, namespace, streamName string) {
	q := r.URL.Query()

	startID, err := ktime.ParseEventID(q.Get("start_id"))
	if err != nil {
		http.Error(w, "invalid start_id: "+err.Error(), http.StatusBadRequest)
		return
	}
	endSeconds, err := strconv.ParseFloat(q.Get("end_time"), 64)
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}
	endTime, err := ktime.SecondsToKronosTime(endSeconds)
	if err != nil {
		http.Error(w, "end_time out of range", http.StatusBadRequest)
		return
	}
	cfg, err := parseStreamConfigQuery(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.core.Delete(r.Context(), namespace, streamName, startID, endTime, cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tombstones_written": result.TombstonesWritten})
}

// parseStreamConfigQuery builds the map[string]int config.ParseStreamConfig
// expects, from whichever of the two recognized query keys were present.
// Every other query parameter (start_id, end_time, order, limit, or any
// unrecognized key) is left out of the map, so it is neither passed to nor
// rejected by the validator.
func parseStreamConfigQuery(q map[string][]string) (storage.StreamConfig, error) {
	m := make(map[string]int)
	for _, key := range []string{"timewidth_seconds", "shards_per_bucket"} {
		raw := first(q, key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return storage.StreamConfig{}, &storage.ConfigError{Key: key, Reason: "not an integer"}
		}
		m[key] = n
	}
	return config.ParseStreamConfig(m)
}

func first(q map[string][]string, key string) string {
	if v, ok := q[key]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
