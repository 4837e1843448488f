package admin

import (
	"encoding/json"
	"net/http"
	"time"
)

// jobJSON is a serializable job snapshot.
type jobJSON struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Schedule   string   `json:"schedule"`
	Compiled   string   `json:"compiled,omitempty"`
	Sinks      []string `json:"sinks,omitempty"`
	OutputMode string   `json:"output_mode"`
	Recipients []string `json:"recipients,omitempty"`
	Background bool     `json:"background"`

	LastRunAt    string `json:"last_run_at,omitempty"`
	LastDuration string `json:"last_duration,omitempty"`
	LastError    string `json:"last_error,omitempty"`
}

// handleHealth reports liveness.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// handleListJobs returns all registered jobs as JSON, with last-run
// data from history when available.
func (s *Server) handleListJobs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs := []jobJSON{}

		for _, j := range s.jobs.Jobs() {
			entry := jobJSON{
				Name:       j.Name(),
				Kind:       j.Kind().String(),
				Schedule:   j.Schedule(),
				Compiled:   j.Compiled(),
				Sinks:      j.Sinks(),
				OutputMode: j.OutputMode().String(),
				Recipients: j.Recipients(),
				Background: j.Background(),
			}

			if s.history != nil {
				if last, err := s.history.Last(r.Context(), j.Name()); err == nil {
					entry.LastRunAt = last.StartedAt.Format(time.RFC3339)
					entry.LastDuration = last.Duration.String()
					entry.LastError = last.Err
				}
			}

			jobs = append(jobs, entry)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jobs)
	}
}
