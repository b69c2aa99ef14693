package task

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskmarket/taskmarket/pkg/cerr"
)

// AccountHeader carries the caller's account id on every mutating request.
const AccountHeader = "X-Account"

type Server struct {
	engine *Engine
}

func NewServer(engine *Engine) *Server {
	return &Server{engine: engine}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", s.createTask)
		r.Get("/", s.listTasks)
		r.Get("/count", s.taskCount)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getTask)
			r.Put("/", s.updateTask)
			r.Delete("/", s.removeTask)
			r.Post("/start", s.startTask)
			r.Post("/complete", s.completeTask)
			r.Post("/accept", s.acceptTask)
			r.Post("/reject", s.rejectTask)
		})
	})
	r.Get("/accounts/{account}/tasks", s.ownedTasks)
}

type taskPayload struct {
	Title         string `json:"title"`
	Specification string `json:"specification"`
	Budget        uint64 `json:"budget"`
	Deadline      int64  `json:"deadline"`
	Attachments   string `json:"attachments,omitempty"`
	Keywords      string `json:"keywords,omitempty"`
	Organization  string `json:"organization,omitempty"`
}

type taskResponse struct {
	Task *Task `json:"task"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := callerAccount(r)
	if !ok {
		return
	}
	var payload taskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	t, err := s.engine.Create(ctx, caller, &CreateRequest{
		Title:         payload.Title,
		Specification: payload.Specification,
		Budget:        payload.Budget,
		Deadline:      payload.Deadline,
		Attachments:   payload.Attachments,
		Keywords:      payload.Keywords,
		Organization:  payload.Organization,
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, &taskResponse{Task: t})
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := callerAccount(r)
	if !ok {
		return
	}
	var payload taskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	t, err := s.engine.Update(ctx, caller, &UpdateRequest{
		ID:            chi.URLParam(r, "id"),
		Title:         payload.Title,
		Specification: payload.Specification,
		Budget:        payload.Budget,
		Deadline:      payload.Deadline,
		Attachments:   payload.Attachments,
		Keywords:      payload.Keywords,
		Organization:  payload.Organization,
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, &taskResponse{Task: t})
}

func (s *Server) removeTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := callerAccount(r)
	if !ok {
		return
	}
	if err := s.engine.Remove(ctx, caller, chi.URLParam(r, "id")); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, struct{}{})
}

func (s *Server) startTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := callerAccount(r)
	if !ok {
		return
	}
	t, err := s.engine.Start(ctx, caller, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, &taskResponse{Task: t})
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := callerAccount(r)
	if !ok {
		return
	}
	t, err := s.engine.Complete(ctx, caller, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, &taskResponse{Task: t})
}

func (s *Server) acceptTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := callerAccount(r)
	if !ok {
		return
	}
	if err := s.engine.Accept(ctx, caller, chi.URLParam(r, "id")); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, struct{}{})
}

func (s *Server) rejectTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := callerAccount(r)
	if !ok {
		return
	}
	var payload struct {
		Feedback string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	t, err := s.engine.Reject(ctx, caller, chi.URLParam(r, "id"), payload.Feedback)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, &taskResponse{Task: t})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.engine.GetTask(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, &taskResponse{Task: t})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tasks, err := s.engine.ListTasks(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, struct {
		Tasks []*Task `json:"tasks"`
	}{Tasks: tasks})
}

func (s *Server) ownedTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids, err := s.engine.TasksOwnedBy(ctx, chi.URLParam(r, "account"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	cerr.SetJSONResponse(ctx, struct {
		TaskIDs []string `json:"task_ids"`
	}{TaskIDs: ids})
}

func (s *Server) taskCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := s.engine.TaskCount(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, struct {
		Count uint64 `json:"count"`
	}{Count: count})
}

func callerAccount(r *http.Request) (string, bool) {
	account := r.Header.Get(AccountHeader)
	if account == "" {
		cerr.SetNewJSONError(r.Context(), cerr.Unauthenticated, "missing account header", nil)
		return "", false
	}
	return account, true
}
