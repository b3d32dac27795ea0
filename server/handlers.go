package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mumair738/airdrop-checker-sub011/chain"
	"github.com/mumair738/airdrop-checker-sub011/errors"
)

// cachedJSON is the cache-aside path every lookup handler goes through:
// consult the shared cache, on a miss run fetch and store the result with
// the namespace TTL. The X-Cache header reports which path served the
// request.
func (s *Server) cachedJSON(w http.ResponseWriter, r *http.Request, namespace, key string,
	fetch func(ctx context.Context) (json.RawMessage, error)) {

	if value, ok := s.cache.Get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		s.writeRawJSON(w, http.StatusOK, value)
		return
	}

	value, err := fetch(r.Context())
	if err != nil {
		s.logger.Error("upstream fetch failed", "key", key, "error", err)
		s.writeError(w, s.mapErrorToHTTPStatus(err), s.sanitizeError(err))
		return
	}

	if err := s.cache.Set(key, value, s.cfg.Endpoints.TTLFor(namespace)); err != nil {
		// A failed store never fails the request; the value was fetched.
		s.logger.Warn("cache store failed", "key", key, "error", err)
	}

	w.Header().Set("X-Cache", "MISS")
	s.writeRawJSON(w, http.StatusOK, value)
}

// requireAddress validates and normalizes the address query parameter,
// writing a 400 response on failure.
func (s *Server) requireAddress(w http.ResponseWriter, r *http.Request) (string, bool) {
	address := r.URL.Query().Get("address")
	if address == "" {
		s.writeError(w, http.StatusBadRequest, "Address parameter required")
		return "", false
	}
	if err := chain.ValidateAddress(address); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid address format")
		return "", false
	}
	return chain.NormalizeAddress(address), true
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	address, ok := s.requireAddress(w, r)
	if !ok {
		return
	}

	s.cachedJSON(w, r, "portfolio", "portfolio:"+address,
		func(ctx context.Context) (json.RawMessage, error) {
			balance, err := s.rpc.Balance(ctx, address)
			if err != nil {
				return nil, err
			}
			tokens, err := s.indexer.TokenBalances(ctx, address)
			if err != nil {
				return nil, err
			}
			return json.Marshal(map[string]any{
				"address":    address,
				"balanceWei": balance,
				"tokens":     tokens,
			})
		})
}

func (s *Server) handleAirdropCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	address, ok := s.requireAddress(w, r)
	if !ok {
		return
	}

	s.cachedJSON(w, r, "airdrop-check", "airdrop-check:"+address,
		func(ctx context.Context) (json.RawMessage, error) {
			return s.indexer.AirdropEligibility(ctx, address)
		})
}

func (s *Server) handleTokenPrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "Symbol parameter required")
		return
	}
	if err := chain.ValidateSymbol(symbol); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid symbol format")
		return
	}

	s.cachedJSON(w, r, "token-price", "token-price:"+symbol,
		func(ctx context.Context) (json.RawMessage, error) {
			return s.indexer.TokenPrice(ctx, symbol)
		})
}

// mapErrorToHTTPStatus maps classified errors to HTTP status codes.
func (s *Server) mapErrorToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusInternalServerError
	}

	if errors.IsNotFound(err) {
		return http.StatusNotFound
	}
	if errors.IsInvalid(err) {
		return http.StatusBadRequest
	}
	if errors.IsTransient(err) {
		if strings.Contains(err.Error(), "timeout") {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// sanitizeError returns a safe error message for external clients.
// Internal details stay in the logs, not the response.
func (s *Server) sanitizeError(err error) string {
	if err == nil {
		return "internal server error"
	}

	if errors.IsNotFound(err) {
		return "resource not found"
	}
	if errors.IsInvalid(err) {
		return "invalid request"
	}
	if errors.IsTransient(err) {
		if strings.Contains(err.Error(), "timeout") {
			return "request timeout"
		}
		return "upstream service unavailable"
	}
	return "internal server error"
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeRawJSON(w, statusCode, data)
}

func (s *Server) writeRawJSON(w http.ResponseWriter, statusCode int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":  message,
		"status": statusCode,
	}
	data, _ := json.Marshal(response)
	w.Write(data)
}
