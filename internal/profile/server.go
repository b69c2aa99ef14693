package profile

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskmarket/taskmarket/pkg/cerr"
)

const accountHeader = "X-Account"

type Server struct {
	service *Service
}

func NewServer(service *Service) *Server {
	return &Server{service: service}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/profiles", func(r chi.Router) {
		r.Post("/", s.createProfile)
		r.Get("/{account}", s.getProfile)
	})
}

type profileResponse struct {
	Profile *Profile `json:"profile"`
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account := r.Header.Get(accountHeader)
	if account == "" {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "missing account header", nil)
		return
	}
	var payload struct {
		Name      string   `json:"name"`
		Interests []string `json:"interests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	p, err := s.service.CreateProfile(ctx, account, payload.Name, payload.Interests)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, &profileResponse{Profile: p})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.service.GetProfile(ctx, chi.URLParam(r, "account"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, &profileResponse{Profile: p})
}
