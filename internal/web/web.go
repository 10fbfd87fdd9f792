package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"evedemo/internal/app"
	"evedemo/internal/board"
	"evedemo/internal/config"
	appLog "evedemo/internal/log"
)

// Loop is the part of app.Runner the API talks to.
type Loop interface {
	Status() app.Status
	SetBacklight(duty uint8)
}

// TouchInjector fakes a touch; only the simulator provides one.
type TouchInjector interface {
	SetTouchTag(tag uint8)
}

// Server exposes the frame loop state over HTTP.
type Server struct {
	cfg   *config.Config
	loop  Loop
	touch TouchInjector
	mux   *http.ServeMux
}

// NewServer constructs a Server. touch may be nil.
func NewServer(cfg *config.Config, loop Loop, touch TouchInjector) *Server {
	s := &Server{
		cfg:   cfg,
		loop:  loop,
		touch: touch,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the routes, wrapped in basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="EVE demo", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/backlight", s.handleBacklight)
	s.mux.HandleFunc("/api/touch", s.handleTouch)
	s.mux.HandleFunc("/api/boards", s.handleBoards)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// statusResponse is the JSON response shape for /api/status.
type statusResponse struct {
	Board  string     `json:"board"`
	Driver string     `json:"driver"`
	Status app.Status `json:"status"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Board:  s.cfg.Board,
		Driver: s.cfg.Driver,
		Status: s.loop.Status(),
	})
}

type backlightRequest struct {
	Duty *int `json:"duty"`
}

// handleBacklight queues a backlight change.
//
// POST /api/backlight {"duty": 0..128}
func (s *Server) handleBacklight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req backlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Duty == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"duty\": 0..128}")
		return
	}
	if *req.Duty < 0 || *req.Duty > 0x80 {
		writeError(w, http.StatusBadRequest, "duty out of range 0..128")
		return
	}
	s.loop.SetBacklight(uint8(*req.Duty))
	appLog.Info("backlight change queued", "duty", *req.Duty, "remote", r.RemoteAddr)
	w.WriteHeader(http.StatusAccepted)
}

type touchRequest struct {
	Tag *int `json:"tag"`
}

// handleTouch presses (tag != 0) or releases (tag 0) a simulated touch.
//
// POST /api/touch {"tag": 10}
func (s *Server) handleTouch(w http.ResponseWriter, r *http.Request) {
	if s.touch == nil {
		writeError(w, http.StatusNotFound, "touch injection needs the simulator driver")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req touchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tag == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"tag\": 0..255}")
		return
	}
	if *req.Tag < 0 || *req.Tag > 255 {
		writeError(w, http.StatusBadRequest, "tag out of range 0..255")
		return
	}
	s.touch.SetTouchTag(uint8(*req.Tag))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBoards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, board.Names())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
