package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/akarpov/weatherbot/internal/api"
	"github.com/akarpov/weatherbot/internal/config"
	"github.com/akarpov/weatherbot/internal/logger"
)

// Server is a small operations dashboard on top of the REST API. It shares
// the API auth tokens: a token pasted into the login form becomes the auth
// cookie and is also used for the server-side API calls.
type Server struct {
	config       *config.Config
	logger       *logger.Logger
	httpServer   *http.Server
	authProvider *api.AuthProvider
	templates    *template.Template
	apiURL       string
	apiToken     string
	running      bool
}

func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	if err := cfg.LoadAuthTokens(); err != nil {
		log.Warn("Error loading auth tokens from file", "error", err)
	}

	if len(cfg.API.AuthTokens) == 0 {
		log.Warn("No auth tokens configured - Web UI authentication will be unavailable")
	}

	tmpl, err := template.New("webui").Parse(layoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if _, err := tmpl.New("dashboard").Parse(dashboardTemplate); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if _, err := tmpl.New("spammers").Parse(spammersTemplate); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	var apiToken string
	if len(cfg.API.AuthTokens) > 0 {
		apiToken = cfg.API.AuthTokens[0]
	}

	mux := http.NewServeMux()
	bindAddr := fmt.Sprintf("%s:%d", cfg.WebUI.Host, cfg.WebUI.Port)

	server := &Server{
		config:       cfg,
		logger:       log,
		templates:    tmpl,
		authProvider: api.NewAuthProvider(cfg.API.AuthTokens),
		apiURL:       fmt.Sprintf("http://localhost:%d", cfg.API.Port),
		apiToken:     apiToken,
		httpServer: &http.Server{
			Addr:    bindAddr,
			Handler: mux,
		},
	}

	mux.HandleFunc("/", server.authMiddleware(server.handleDashboard))
	mux.HandleFunc("/spammers", server.authMiddleware(server.handleSpammers))
	mux.HandleFunc("/unblock", server.authMiddleware(server.handleUnblock))
	mux.HandleFunc("/login", server.handleLogin)
	mux.HandleFunc("/logout", server.handleLogout)

	return server, nil
}

func (s *Server) Start() error {
	if s.running {
		return fmt.Errorf("server is already running")
	}

	if !s.config.WebUI.Enabled {
		s.logger.Info("Web UI server is disabled in configuration")
		return nil
	}

	s.running = true
	s.logger.Info("Starting Web UI server", "port", s.config.WebUI.Port)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web UI server error", "error", err)
		}
	}()

	return nil
}

func (s *Server) Stop() error {
	if !s.running {
		return nil
	}

	s.logger.Info("Stopping Web UI server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	s.running = false
	return nil
}

// Handler exposes the route mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("auth_token")
		if err != nil || cookie.Value == "" {
			s.logger.Debug("No auth token cookie, redirecting to login", "path", r.URL.Path)
			http.Redirect(w, r, "/login?redirect="+r.URL.Path, http.StatusSeeOther)
			return
		}

		if !s.authProvider.Authenticate(cookie.Value) {
			http.SetCookie(w, &http.Cookie{
				Name:     "auth_token",
				Value:    "",
				Path:     "/",
				MaxAge:   -1,
				HttpOnly: true,
			})
			http.Redirect(w, r, "/login?redirect="+r.URL.Path, http.StatusSeeOther)
			return
		}

		next(w, r)
	}
}

// handleLogin handles the login page and form submission
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("auth_token"); err == nil && cookie.Value != "" && s.authProvider.Authenticate(cookie.Value) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	redirect := r.URL.Query().Get("redirect")
	if redirect == "" || redirect[0] != '/' {
		redirect = "/"
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		token := r.FormValue("token")
		if s.authProvider.Authenticate(token) {
			http.SetCookie(w, &http.Cookie{
				Name:     "auth_token",
				Value:    token,
				Path:     "/",
				MaxAge:   86400,
				HttpOnly: true,
				SameSite: http.SameSiteStrictMode,
			})
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		s.renderLoginPage(w, "Invalid authentication token", redirect)
		return
	}

	s.renderLoginPage(w, "", redirect)
}

// handleLogout clears the auth cookie
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleDashboard shows API quota usage and the abuse-mitigation overview
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	type result struct {
		name string
		err  error
	}

	var quota api.QuotaResponse
	var spam api.SpamOverviewResponse

	results := make(chan result, 2)
	go func() {
		results <- result{"quota", s.callAPI("/api/v1/quota", &quota)}
	}()
	go func() {
		results <- result{"spam", s.callAPI("/api/v1/spam", &spam)}
	}()

	for range 2 {
		res := <-results
		if res.err != nil {
			s.logger.Error("Error fetching data", "endpoint", res.name, "error", res.err)
			http.Error(w, "Error loading dashboard data", http.StatusInternalServerError)
			return
		}
	}

	resetAt := "not scheduled"
	if quota.ResetAt != "" {
		if t, err := time.Parse(time.RFC3339, quota.ResetAt); err == nil {
			resetAt = t.Format("2006-01-02 15:04 MST")
		} else {
			resetAt = quota.ResetAt
		}
	}

	data := map[string]any{
		"Title":        "Dashboard",
		"Quota":        quota,
		"QuotaPercent": int(quota.Ratio * 100),
		"ResetAt":      resetAt,
		"Spam":         spam,
	}

	if err := s.renderPage(w, "dashboard", data); err != nil {
		s.logger.Error("Error rendering dashboard", "error", err)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
	}
}

type spammerRow struct {
	UserID        int64
	RequestsToday int
	BlockCount    int
	Status        string
	Blocked       bool
}

// handleSpammers lists the heaviest users with per-user unblock actions
func (s *Server) handleSpammers(w http.ResponseWriter, r *http.Request) {
	var spam api.SpamOverviewResponse
	if err := s.callAPI("/api/v1/spam", &spam); err != nil {
		s.logger.Error("Error getting spam overview", "error", err)
		http.Error(w, "Error loading spam data", http.StatusInternalServerError)
		return
	}

	rows := make([]spammerRow, 0, len(spam.Top))
	for _, user := range spam.Top {
		status := "active"
		if user.IsBlocked {
			status = "blocked"
			if t, err := time.Parse(time.RFC3339, user.BlockedUntil); err == nil {
				status = "blocked until " + t.Format("15:04:05")
			}
		}
		rows = append(rows, spammerRow{
			UserID:        user.UserID,
			RequestsToday: user.RequestsToday,
			BlockCount:    user.BlockCount,
			Status:        status,
			Blocked:       user.IsBlocked,
		})
	}

	data := map[string]any{
		"Title":   "Top Requesters",
		"Tracked": spam.TrackedUsers,
		"Blocked": spam.BlockedUsers,
		"Rows":    rows,
	}

	if err := s.renderPage(w, "spammers", data); err != nil {
		s.logger.Error("Error rendering spammers page", "error", err)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
	}
}

// handleUnblock forwards an unblock action to the API and returns to the list
func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	userID, err := strconv.ParseInt(r.FormValue("user_id"), 10, 64)
	if err != nil || userID == 0 {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if err := s.postAPI("/api/v1/spam/unblock", api.UnblockRequest{UserID: userID}); err != nil {
		s.logger.Error("Error unblocking user", "user_id", userID, "error", err)
		http.Error(w, "Error unblocking user", http.StatusInternalServerError)
		return
	}

	s.logger.Info("User unblocked via Web UI", "user_id", userID)
	http.Redirect(w, r, "/spammers", http.StatusSeeOther)
}

func (s *Server) renderPage(w http.ResponseWriter, page string, data map[string]any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, page, data); err != nil {
		return err
	}

	data["Content"] = template.HTML(buf.String())
	buf.Reset()
	if err := s.templates.ExecuteTemplate(&buf, "webui", data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := w.Write(buf.Bytes())
	return err
}

func (s *Server) renderLoginPage(w http.ResponseWriter, errorMsg string, redirect string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	errorHTML := ""
	if errorMsg != "" {
		errorHTML = `<div class="alert alert-danger" role="alert">` + template.HTMLEscapeString(errorMsg) + `</div>`
	}

	loginHTML := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Weather Bot - Login</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.2.3/dist/css/bootstrap.min.css">
</head>
<body class="bg-light d-flex align-items-center min-vh-100">
    <div class="container">
        <div class="row justify-content-center">
            <div class="col-md-6 col-lg-4">
                <div class="card shadow">
                    <div class="card-header bg-primary text-white">
                        <h3 class="card-title text-center mb-0">⛅ Weather Bot Login</h3>
                    </div>
                    <div class="card-body">
                        ` + errorHTML + `
                        <form method="POST" action="/login?redirect=` + template.URLQueryEscaper(redirect) + `">
                            <div class="mb-3">
                                <label for="token" class="form-label">Authentication Token</label>
                                <input type="password" class="form-control" id="token" name="token" placeholder="Enter your API token" required autofocus>
                                <small class="form-text text-muted">Use the same token as configured for API access</small>
                            </div>
                            <div class="d-grid">
                                <button type="submit" class="btn btn-primary">Login</button>
                            </div>
                        </form>
                    </div>
                </div>
            </div>
        </div>
    </div>
</body>
</html>`

	w.Write([]byte(loginHTML))
}

// callAPI performs an authenticated GET against the API and decodes the body
func (s *Server) callAPI(endpoint string, out any) error {
	req, err := http.NewRequest(http.MethodGet, s.apiURL+endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiToken)
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse API response: %w", err)
	}
	return nil
}

// postAPI performs an authenticated POST with a JSON payload
func (s *Server) postAPI(endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiToken)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

const layoutTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Weather Bot - {{.Title}}</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.2.3/dist/css/bootstrap.min.css">
</head>
<body>
    <nav class="navbar navbar-expand-lg navbar-dark bg-dark">
        <div class="container">
            <a class="navbar-brand" href="/">⛅ Weather Bot</a>
            <div class="collapse navbar-collapse">
                <ul class="navbar-nav me-auto">
                    <li class="nav-item"><a class="nav-link" href="/">Dashboard</a></li>
                    <li class="nav-item"><a class="nav-link" href="/spammers">Top Requesters</a></li>
                </ul>
                <div class="d-flex">
                    <a href="/logout" class="btn btn-outline-light btn-sm">Logout</a>
                </div>
            </div>
        </div>
    </nav>

    <div class="container mt-4">
        <h1 class="mb-4">{{.Title}}</h1>
        {{.Content}}
    </div>

    <footer class="footer mt-auto py-3 bg-light">
        <div class="container text-center">
            <span class="text-muted">Weather Bot Operations</span>
        </div>
    </footer>
</body>
</html>`

const dashboardTemplate = `<div class="row">
    <div class="col-md-3 mb-4">
        <div class="card text-center h-100 border-primary">
            <div class="card-header bg-primary text-white">API Calls Today</div>
            <div class="card-body">
                <h2 class="card-title">{{.Quota.Used}} / {{.Quota.Limit}}</h2>
                <p class="card-text">{{.Quota.Remaining}} remaining ({{.QuotaPercent}}% used)</p>
            </div>
        </div>
    </div>

    <div class="col-md-3 mb-4">
        <div class="card text-center h-100 border-info">
            <div class="card-header bg-info text-white">Next Quota Slot</div>
            <div class="card-body">
                <h2 class="card-title">{{.ResetAt}}</h2>
                <p class="card-text">When the oldest call leaves the 24h window</p>
            </div>
        </div>
    </div>

    <div class="col-md-3 mb-4">
        <div class="card text-center h-100 border-success">
            <div class="card-header bg-success text-white">Tracked Users</div>
            <div class="card-body">
                <h2 class="card-title">{{.Spam.TrackedUsers}}</h2>
                <p class="card-text">Users with recent activity</p>
            </div>
        </div>
    </div>

    <div class="col-md-3 mb-4">
        <div class="card text-center h-100 border-warning">
            <div class="card-header bg-warning text-dark">Blocked Users</div>
            <div class="card-body">
                <h2 class="card-title">{{.Spam.BlockedUsers}}</h2>
                <p class="card-text">Currently under a block</p>
            </div>
        </div>
    </div>
</div>

<div class="row mt-2">
    <div class="col-12">
        <div class="card">
            <div class="card-header">Quick Actions</div>
            <div class="card-body">
                <a href="/spammers" class="btn btn-primary">View Top Requesters</a>
            </div>
        </div>
    </div>
</div>`

const spammersTemplate = `<div class="card">
    <div class="card-header">
        Tracked: {{.Tracked}} users, blocked: {{.Blocked}}
    </div>
    <div class="card-body">
        <div class="table-responsive">
            <table class="table table-striped">
                <thead>
                    <tr>
                        <th>User ID</th>
                        <th>Requests Today</th>
                        <th>Block Count</th>
                        <th>Status</th>
                        <th></th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Rows}}
                    <tr>
                        <td>{{.UserID}}</td>
                        <td>{{.RequestsToday}}</td>
                        <td>{{.BlockCount}}</td>
                        <td>{{.Status}}</td>
                        <td>
                            {{if .Blocked}}
                            <form method="POST" action="/unblock">
                                <input type="hidden" name="user_id" value="{{.UserID}}">
                                <button type="submit" class="btn btn-sm btn-outline-danger">Unblock</button>
                            </form>
                            {{end}}
                        </td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
    </div>
</div>`
