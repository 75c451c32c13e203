package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/srujan4705/Code-Battle/internal/executor"
)

// LanguageLister reports the languages the execution service supports.
type LanguageLister interface {
	Runtimes(ctx context.Context) ([]executor.Runtime, error)
}

func handleLanguages(logger *slog.Logger, langs LanguageLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if langs == nil {
			writeError(w, http.StatusBadGateway, "code runner is not configured")
			return
		}
		runtimes, err := langs.Runtimes(r.Context())
		if err != nil {
			logger.Error("fetching runtimes", "error", err)
			writeError(w, http.StatusBadGateway, "code runner unavailable")
			return
		}
		writeJSON(w, http.StatusOK, runtimes)
	}
}
