package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akarpov/weatherbot/internal/config"
	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/quota"
	"github.com/akarpov/weatherbot/internal/spamguard"
)

// Server is the operations REST endpoint: quota and abuse-tracking
// state for monitoring, plus an unblock action. It is read-mostly and
// token-protected; the Telegram admin commands remain the primary
// admin surface.
type Server struct {
	config       *config.Config
	logger       *logger.Logger
	service      ServiceInterface
	httpServer   *http.Server
	authProvider *AuthProvider
	running      bool
	stopWatcher  chan struct{}
}

// ServiceInterface is the slice of the service layer the endpoint needs
type ServiceInterface interface {
	QuotaStatus() (quota.Status, error)
	Stats() spamguard.Overview
	UserInfo(userID int64) domain.UserStats
	UnblockUser(userID int64) bool
}

// QuotaResponse is the JSON shape of the quota status endpoint
type QuotaResponse struct {
	Limit     int     `json:"limit"`
	Used      int     `json:"used"`
	Remaining int     `json:"remaining"`
	Ratio     float64 `json:"ratio"`
	ResetAt   string  `json:"reset_at,omitempty"`
}

// SpamUserResponse is the JSON shape of one user's abuse record
type SpamUserResponse struct {
	UserID        int64  `json:"user_id"`
	RequestsToday int    `json:"requests_today"`
	IsBlocked     bool   `json:"is_blocked"`
	BlockCount    int    `json:"block_count"`
	BlockedUntil  string `json:"blocked_until,omitempty"`
}

// SpamOverviewResponse is the JSON shape of the abuse overview endpoint
type SpamOverviewResponse struct {
	TrackedUsers int                `json:"tracked_users"`
	BlockedUsers int                `json:"blocked_users"`
	Top          []SpamUserResponse `json:"top"`
}

// UnblockRequest is the JSON payload of the unblock action
type UnblockRequest struct {
	UserID int64 `json:"user_id"`
}

// ErrorResponse represents the JSON response for errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// New creates the operations endpoint server
func New(cfg *config.Config, svc ServiceInterface, log *logger.Logger) (*Server, error) {
	if err := cfg.LoadAuthTokens(); err != nil {
		return nil, fmt.Errorf("failed to load auth tokens: %w", err)
	}

	authProvider := NewAuthProvider(cfg.API.AuthTokens)
	if !authProvider.HasTokens() {
		log.Warn("Operations endpoint has no auth tokens configured, all requests will be rejected")
	}

	mux := http.NewServeMux()

	server := &Server{
		config:       cfg,
		logger:       log,
		service:      svc,
		authProvider: authProvider,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.API.Port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/api/health", server.handleHealth)
	mux.HandleFunc("/api/v1/quota", server.handleQuota)
	mux.HandleFunc("/api/v1/spam", server.handleSpamOverview)
	mux.HandleFunc("/api/v1/spam/user", server.handleSpamUser)
	mux.HandleFunc("/api/v1/spam/unblock", server.handleUnblock)
	mux.HandleFunc("/api/reload-tokens", server.handleReloadTokens)

	return server, nil
}

// Start starts the endpoint server
func (s *Server) Start() error {
	if s.running {
		return errors.New("server is already running")
	}

	if !s.config.API.Enabled {
		s.logger.Info("Operations endpoint is disabled in configuration")
		return nil
	}

	s.running = true
	s.logger.Info("Starting operations endpoint", "port", s.config.API.Port)

	s.stopWatcher = make(chan struct{})
	go s.watchTokensFile()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Operations endpoint error", "error", err)
		}
	}()

	return nil
}

// Stop stops the endpoint server
func (s *Server) Stop() error {
	if !s.running {
		return nil
	}

	s.logger.Info("Stopping operations endpoint")

	if s.stopWatcher != nil {
		close(s.stopWatcher)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	s.running = false
	return nil
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// authenticate extracts and validates the bearer token, writing the
// error response itself on failure.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) bool {
	apiKey := r.Header.Get("Authorization")
	if len(apiKey) > 7 && strings.HasPrefix(strings.ToLower(apiKey), "bearer ") {
		apiKey = apiKey[7:]
	}

	if !s.authProvider.Authenticate(apiKey) {
		s.writeErrorResponse(w, "Unauthorized", http.StatusUnauthorized, "Invalid or missing authentication token")
		return false
	}
	return true
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleQuota reports the external weather API budget state
func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	if !s.authenticate(w, r) {
		return
	}

	status, err := s.service.QuotaStatus()
	if err != nil {
		s.logger.Error("Error reading quota status", "error", err)
		s.writeErrorResponse(w, "Internal server error", http.StatusInternalServerError, "Error reading quota status")
		return
	}

	response := QuotaResponse{
		Limit:     status.Limit,
		Used:      status.Used,
		Remaining: status.Remaining,
		Ratio:     status.Ratio,
	}
	if status.ResetAt != nil {
		response.ResetAt = status.ResetAt.UTC().Format(time.RFC3339)
	}
	s.writeJSONResponse(w, response, http.StatusOK)
}

// handleSpamOverview reports the abuse-tracking population overview
func (s *Server) handleSpamOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	if !s.authenticate(w, r) {
		return
	}

	overview := s.service.Stats()
	response := SpamOverviewResponse{
		TrackedUsers: overview.TrackedUsers,
		BlockedUsers: overview.BlockedUsers,
		Top:          make([]SpamUserResponse, 0, len(overview.Top)),
	}
	for _, activity := range overview.Top {
		response.Top = append(response.Top, SpamUserResponse{
			UserID:        activity.UserID,
			RequestsToday: activity.RequestsToday,
			IsBlocked:     activity.IsBlocked,
		})
	}
	s.writeJSONResponse(w, response, http.StatusOK)
}

// handleSpamUser reports one user's abuse record, selected by ?id=
func (s *Server) handleSpamUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	if !s.authenticate(w, r) {
		return
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest, "Query parameter id must be a numeric user id")
		return
	}

	stats := s.service.UserInfo(userID)
	response := SpamUserResponse{
		UserID:        userID,
		RequestsToday: stats.RequestsToday,
		IsBlocked:     stats.IsBlocked,
		BlockCount:    stats.BlockCount,
	}
	if stats.BlockedUntil != nil {
		response.BlockedUntil = stats.BlockedUntil.UTC().Format(time.RFC3339)
	}
	s.writeJSONResponse(w, response, http.StatusOK)
}

// handleUnblock lifts an active block on the posted user id
func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		s.writeErrorResponse(w, "Invalid Content-Type", http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	if !s.authenticate(w, r) {
		return
	}

	var req UnblockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.UserID == 0 {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest, "user_id must be set")
		return
	}

	unblocked := s.service.UnblockUser(req.UserID)
	if unblocked {
		s.logger.Info("User unblocked via API", "user_id", req.UserID)
	}
	s.writeJSONResponse(w, map[string]any{
		"user_id":   req.UserID,
		"unblocked": unblocked,
	}, http.StatusOK)
}

// handleReloadTokens handles the manual token reload endpoint
func (s *Server) handleReloadTokens(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}
	if !s.authenticate(w, r) {
		return
	}

	if err := s.reloadTokens(); err != nil {
		s.writeErrorResponse(w, "Internal server error", http.StatusInternalServerError, fmt.Sprintf("Error reloading tokens: %v", err))
		return
	}

	s.writeJSONResponse(w, map[string]string{
		"status":  "ok",
		"message": "Tokens reloaded successfully",
	}, http.StatusOK)
}

// writeJSONResponse writes a JSON response with the given status code
func (s *Server) writeJSONResponse(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Error encoding JSON response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response with the given status code
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Code:    statusCode,
		Details: details,
	}); err != nil {
		s.logger.Error("Error encoding JSON error response", "error", err)
	}
}

// watchTokensFile polls the tokens file and reloads on modification
func (s *Server) watchTokensFile() {
	if s.config.API.TokensFile == "" {
		return
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	var lastModTime time.Time
	if info, err := os.Stat(s.config.API.TokensFile); err == nil {
		lastModTime = info.ModTime()
	}

	for {
		select {
		case <-ticker.C:
			info, err := os.Stat(s.config.API.TokensFile)
			if err != nil {
				s.logger.Error("Error checking tokens file", "file", s.config.API.TokensFile, "error", err)
				continue
			}
			if info.ModTime().After(lastModTime) {
				s.logger.Info("Tokens file changed, reloading", "file", s.config.API.TokensFile)
				if err := s.reloadTokens(); err != nil {
					s.logger.Error("Error reloading tokens", "error", err)
				} else {
					lastModTime = info.ModTime()
				}
			}
		case <-s.stopWatcher:
			return
		}
	}
}

// reloadTokens re-reads the tokens file and swaps the token set
func (s *Server) reloadTokens() error {
	if err := s.config.LoadAuthTokens(); err != nil {
		return err
	}
	s.authProvider.Replace(s.config.API.AuthTokens)
	s.logger.Info("Auth tokens reloaded", "count", len(s.config.API.AuthTokens))
	return nil
}
