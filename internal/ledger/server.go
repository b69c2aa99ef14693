package ledger

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskmarket/taskmarket/pkg/cerr"
)

type Server struct {
	ledger Ledger
}

func NewServer(l Ledger) *Server {
	return &Server{ledger: l}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/accounts/{account}/balance", s.getBalance)
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	cerr.SetJSONResponse(r.Context(), struct {
		Account  string `json:"account"`
		Free     uint64 `json:"free"`
		Reserved uint64 `json:"reserved"`
	}{
		Account:  account,
		Free:     s.ledger.FreeBalance(account),
		Reserved: s.ledger.ReservedBalance(account),
	})
}
