package server

import (
	"fmt"
	"net/http"
	"time"
)

// cacheInfoResponse describes the cache configuration for the inspect
// endpoint. TTLs are reported in milliseconds.
type cacheInfoResponse struct {
	Enabled    bool             `json:"enabled"`
	Type       string           `json:"type"`
	DefaultTTL int64            `json:"defaultTTL"`
	MaxSize    int              `json:"maxSize"`
	Endpoints  map[string]int64 `json:"endpoints"`

	// Populated only for ?action=stats.
	TotalKeys *int     `json:"totalKeys,omitempty"`
	HitRate   *float64 `json:"hitRate,omitempty"`
	MissRate  *float64 `json:"missRate,omitempty"`
	TotalSize *int64   `json:"totalSize,omitempty"`
}

type clearResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Pattern   string `json:"pattern,omitempty"`
	ClearedAt string `json:"clearedAt"`
}

// handleCache is the cache control surface: inspect, stats, clear, and
// pattern invalidation. It is a pass-through to the cache façade and adds
// no semantics of its own.
func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		switch r.URL.Query().Get("action") {
		case "", "stats":
			s.handleCacheInfo(w, r)
		case "clear":
			s.handleCacheClear(w)
		default:
			s.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("unknown action %q", r.URL.Query().Get("action")))
		}
	case http.MethodDelete:
		s.handleCacheDelete(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed,
			fmt.Sprintf("method %s not allowed", r.Method))
	}
}

func (s *Server) handleCacheInfo(w http.ResponseWriter, r *http.Request) {
	endpoints := make(map[string]int64, len(s.cfg.Endpoints.TTLs))
	for ns, ttl := range s.cfg.Endpoints.TTLs {
		endpoints[ns] = ttl.Milliseconds()
	}

	resp := cacheInfoResponse{
		Enabled:    s.cfg.Cache.Enabled,
		Type:       "in-memory",
		DefaultTTL: s.cfg.Endpoints.Default.Milliseconds(),
		MaxSize:    s.cfg.Cache.Capacity,
		Endpoints:  endpoints,
	}

	if r.URL.Query().Get("action") == "stats" {
		snap := s.cache.Stats()
		resp.TotalKeys = &snap.TotalKeys
		resp.HitRate = &snap.HitRate
		resp.MissRate = &snap.MissRate
		resp.TotalSize = &snap.TotalSize
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCacheClear(w http.ResponseWriter) {
	cleared := s.cache.Clear()
	s.logger.Info("cache cleared", "entries", cleared)

	s.writeJSON(w, http.StatusOK, clearResponse{
		Success:   true,
		Message:   fmt.Sprintf("%d entries cleared", cleared),
		ClearedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCacheDelete(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		s.writeError(w, http.StatusBadRequest, "Pattern parameter required")
		return
	}

	removed, err := s.cache.Delete(pattern)
	if err != nil {
		s.writeError(w, s.mapErrorToHTTPStatus(err), s.sanitizeError(err))
		return
	}
	s.logger.Info("cache entries invalidated", "pattern", pattern, "entries", removed)

	s.writeJSON(w, http.StatusOK, clearResponse{
		Success:   true,
		Message:   fmt.Sprintf("%d entries cleared for pattern %s", removed, pattern),
		Pattern:   pattern,
		ClearedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
