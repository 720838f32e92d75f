package server

import "net/http"

// setupRoutes configures all HTTP handlers
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/ws", s.corsMiddleware(s.HandleWebSocket)) // job status updates
	s.mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	s.mux.HandleFunc("/api/entries", s.corsMiddleware(s.HandleEntries))            // list/create (GET/POST)
	s.mux.HandleFunc("/api/entries/", s.corsMiddleware(s.HandleEntry))             // entry and sub-resources (GET/DELETE)
	s.mux.HandleFunc("/api/jobs", s.corsMiddleware(s.HandleCreateJob))             // start generation (POST)
	s.mux.HandleFunc("/api/jobs/", s.corsMiddleware(s.HandleJob))                  // status/cancel (GET/DELETE)
	s.mux.HandleFunc("/api/comics/days", s.corsMiddleware(s.HandleComicDays))      // rendered output grouped by day (GET)
	s.mux.HandleFunc("/api/settings", s.corsMiddleware(s.HandleSettings))          // runtime settings (GET/PUT)
	s.mux.HandleFunc("/api/providers/health", s.corsMiddleware(s.HandleProviders)) // text model reachability (GET)
}

// corsMiddleware adds CORS headers using the configured allowed origins.
// The desktop webview and the dev server are the only expected origins.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.Server.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
