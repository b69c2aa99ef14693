package organization

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/taskmarket/taskmarket/pkg/cerr"
)

type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/organizations", func(r chi.Router) {
		r.Post("/", s.createOrganization)
		r.Get("/", s.listOrganizations)
		r.Get("/{id}", s.getOrganization)
		r.Delete("/{id}", s.deleteOrganization)
	})
}

type organizationResponse struct {
	Organization *Organization `json:"organization"`
}

func (s *Server) createOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if payload.Name == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "name is required", nil)
		return
	}
	org := &Organization{
		ID:          ulid.Make().String(),
		Name:        payload.Name,
		Description: payload.Description,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, org); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, &organizationResponse{Organization: org})
}

func (s *Server) getOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	org, err := s.repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, &organizationResponse{Organization: org})
}

func (s *Server) listOrganizations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgs, err := s.repo.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, struct {
		Organizations []*Organization `json:"organizations"`
	}{Organizations: orgs})
}

func (s *Server) deleteOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.repo.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, struct{}{})
}
