package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vbonduro/clawmap/internal/domain"
	"github.com/vbonduro/clawmap/internal/identity"
	"github.com/vbonduro/clawmap/internal/service"
	"github.com/vbonduro/clawmap/internal/store"
)

// writeError maps err onto a status code. Validation problems and store
// failures are shown to the user verbatim; anything else is logged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *domain.ValidationError
	var serr *store.Error
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrUnauthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, identity.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, identity.ErrEmailTaken), errors.Is(err, identity.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &serr):
		s.logger.Warn("store error", "op", op, "path", r.URL.Path, "error", err)
		http.Error(w, serr.Message, http.StatusBadGateway)
	default:
		s.logger.Error("request failed", "op", op, "path", r.URL.Path, "error", err)
		http.Error(w, "failed to "+op, http.StatusInternalServerError)
	}
}

// trigger fires a client-side htmx event carrying detail.
func trigger(w http.ResponseWriter, event string, detail any) {
	b, err := json.Marshal(map[string]any{event: detail})
	if err != nil {
		w.Header().Set("HX-Trigger", event)
		return
	}
	w.Header().Set("HX-Trigger", string(b))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// notOwned answers a mutation that matched no row: the id is gone or belongs
// to someone else, and the owner guard cannot tell the two apart.
func notOwned(w http.ResponseWriter, kind string) {
	http.Error(w, kind+" not found or not yours", http.StatusNotFound)
}

type option struct {
	Value string
	Label string
}

func categoryOptions() []option {
	out := make([]option, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		out = append(out, option{Value: string(c), Label: c.Icon() + " " + c.Label()})
	}
	return out
}

func listingTypeOptions() []option {
	out := make([]option, 0, len(domain.ListingTypes()))
	for _, t := range domain.ListingTypes() {
		out = append(out, option{Value: string(t), Label: t.Label()})
	}
	return out
}
