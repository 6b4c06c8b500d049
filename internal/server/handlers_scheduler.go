// Package server — handlers_scheduler.go: запуск задач планировщика
// внешним cron через защищённые секретом эндпоинты.
package server

import (
	"context"
	"net/http"

	"thanks-bot/internal/jobs"
)

// schedulerService — запуск задач планировщика.
type schedulerService interface {
	RunDaily(ctx context.Context) jobs.DailyReport
	RunMonthly(ctx context.Context) error
}

// handleRunDaily — POST /scheduler/run-daily-tasks.
func (s *Server) handleRunDaily(w http.ResponseWriter, r *http.Request) {
	report := s.scheduler.RunDaily(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"counts": report,
	})
}

// handleRunMonthly — POST /scheduler/run-monthly-tasks.
func (s *Server) handleRunMonthly(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.RunMonthly(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
