// Package health exposes the liveness endpoint the container HEALTHCHECK
// probes, and the client side of that probe.
package health

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Status is the /healthz payload.
type Status struct {
	Status    string `json:"status"`
	DBOk      bool   `json:"db_ok"`
	Scheduler bool   `json:"scheduler_running"`
	Jobs      int    `json:"jobs"`
}

// Checker reports the live state of the bot's moving parts.
type Checker interface {
	DBHealthy() bool
	SchedulerRunning() bool
	Jobs() int
}

// Server answers GET /healthz: 200 when the DB pings and the scheduler runs,
// 503 otherwise.
type Server struct {
	checker Checker
	srv     *http.Server
}

func NewServer(addr string, checker Checker) *Server {
	s := &Server{checker: checker}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return s
}

// ListenAndServe blocks like http.Server.ListenAndServe.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Close shuts the listener down.
func (s *Server) Close() error {
	return s.srv.Close()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	st := Status{
		DBOk:      s.checker.DBHealthy(),
		Scheduler: s.checker.SchedulerRunning(),
		Jobs:      s.checker.Jobs(),
	}

	code := http.StatusOK
	st.Status = "ok"
	if !st.DBOk || !st.Scheduler {
		code = http.StatusServiceUnavailable
		st.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(st)
}

// Client probes a running bot. reminderctl health (and the Docker
// HEALTHCHECK through it) exits with this result.
type Client struct {
	BaseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		BaseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Check fetches /healthz. A non-200 answer or unreachable endpoint is an
// error so the caller can exit non-zero.
func (c *Client) Check() (*Status, error) {
	resp, err := c.http.Get(c.BaseURL + "/healthz")
	if err != nil {
		return nil, fmt.Errorf("health endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var st Status
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("bad health payload: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &st, fmt.Errorf("unhealthy: %s", resp.Status)
	}
	return &st, nil
}
