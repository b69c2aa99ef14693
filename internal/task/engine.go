package task

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/taskmarket/taskmarket/internal/chain"
	"github.com/taskmarket/taskmarket/internal/escrow"
	"github.com/taskmarket/taskmarket/internal/eventbus"
	"github.com/taskmarket/taskmarket/internal/ledger"
	"github.com/taskmarket/taskmarket/internal/organization"
	"github.com/taskmarket/taskmarket/internal/profile"
	"github.com/taskmarket/taskmarket/pkg/cerr"
)

// Config bounds record fields and per-account ownership.
type Config struct {
	MaxTasksOwned       int
	MaxTitleLen         int
	MaxSpecificationLen int
	MaxAttachmentsLen   int
	MaxKeywordsLen      int
	MaxFeedbackLen      int
}

func DefaultConfig() Config {
	return Config{
		MaxTasksOwned:       77,
		MaxTitleLen:         256,
		MaxSpecificationLen: 8192,
		MaxAttachmentsLen:   8192,
		MaxKeywordsLen:      1024,
		MaxFeedbackLen:      1024,
	}
}

// Engine is the task lifecycle and escrow state machine. Execution is
// strictly sequential: one mutex serializes every operation. Store mutations
// are staged in a transaction, and any ledger move made before the commit is
// compensated when the commit fails, so a failed operation leaves no
// partial state.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	store    Store
	escrow   *escrow.Accountant
	profiles profile.Registry
	orgs     organization.Registry
	clock    chain.Clock
	rounds   *chain.Counter
	bus      *eventbus.Bus
}

func NewEngine(cfg Config, store Store, esc *escrow.Accountant, profiles profile.Registry, orgs organization.Registry, clock chain.Clock, rounds *chain.Counter, bus *eventbus.Bus) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    store,
		escrow:   esc,
		profiles: profiles,
		orgs:     orgs,
		clock:    clock,
		rounds:   rounds,
		bus:      bus,
	}
}

type CreateRequest struct {
	Title         string
	Specification string
	Budget        uint64
	Deadline      int64 // unix milliseconds, strictly in the future
	Attachments   string
	Keywords      string
	Organization  string
}

type UpdateRequest struct {
	ID            string
	Title         string
	Specification string
	Budget        uint64
	Deadline      int64
	Attachments   string
	Keywords      string
	Organization  string
}

// Create builds a new record owned by caller, reserves its budget, and
// indexes it under caller's ownership list.
func (e *Engine) Create(ctx context.Context, caller string, req *CreateRequest) (*Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateFields(req.Title, req.Specification, req.Attachments, req.Keywords); err != nil {
		return nil, err
	}
	if err := e.validateOrganization(ctx, req.Organization); err != nil {
		return nil, err
	}
	hasProfile, err := e.profiles.HasProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !hasProfile {
		return nil, ErrNoProfile
	}
	if !e.deadlineInFuture(req.Deadline) {
		return nil, ErrIncorrectDeadlineTimestamp
	}
	if !e.escrow.CanFund(caller, req.Budget) {
		return nil, ErrNotEnoughBalance
	}

	tx := Begin(e.store)
	count, err := tx.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == math.MaxUint64 {
		return nil, ErrTaskCountOverflow
	}

	t := &Task{
		Title:         req.Title,
		Specification: req.Specification,
		Initiator:     caller,
		Volunteer:     caller,
		CurrentOwner:  caller,
		Status:        StatusCreated,
		Budget:        req.Budget,
		Deadline:      req.Deadline,
		Attachments:   req.Attachments,
		Keywords:      req.Keywords,
		Organization:  req.Organization,
		CreatedAt:     e.rounds.Current(),
	}
	t.ID = computeID(t)

	// An identical create in the same round derives the same id; refusing the
	// duplicate keeps the counter and ownership index honest.
	if _, exists, err := tx.Get(ctx, t.ID); err != nil {
		return nil, err
	} else if exists {
		return nil, cerr.NewError(cerr.AlreadyExists, "identical task already exists", nil)
	}

	if err := e.addOwned(ctx, tx, caller, t.ID); err != nil {
		return nil, err
	}
	if err := tx.Put(ctx, t); err != nil {
		return nil, err
	}
	if err := tx.SetCount(ctx, count+1); err != nil {
		return nil, err
	}

	if err := e.escrow.Fund(caller, req.Budget); err != nil {
		return nil, mapLedgerErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		e.escrow.Release(caller, req.Budget)
		return nil, err
	}
	e.publish(eventbus.EventTypeTaskCreated, caller, t.ID)
	return t.clone(), nil
}

// Update overwrites the mutable fields of a record still in Created status.
// A budget change resolves the reservation delta before the record is
// written.
func (e *Engine) Update(ctx context.Context, caller string, req *UpdateRequest) (*Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateFields(req.Title, req.Specification, req.Attachments, req.Keywords); err != nil {
		return nil, err
	}
	if err := e.validateOrganization(ctx, req.Organization); err != nil {
		return nil, err
	}

	old, err := e.loadTask(ctx, e.store, req.ID)
	if err != nil {
		return nil, err
	}
	if old.Initiator != caller {
		return nil, ErrOnlyInitiatorUpdatesTask
	}
	if old.Status != StatusCreated {
		return nil, ErrNoPermissionToUpdate
	}
	if !e.deadlineInFuture(req.Deadline) {
		return nil, ErrIncorrectDeadlineTimestamp
	}

	updated := old.clone()
	updated.Title = req.Title
	updated.Specification = req.Specification
	updated.Budget = req.Budget
	updated.Deadline = req.Deadline
	updated.Attachments = req.Attachments
	updated.Keywords = req.Keywords
	updated.Organization = req.Organization
	updated.UpdatedAt = e.rounds.Current()

	tx := Begin(e.store)
	if err := tx.Put(ctx, updated); err != nil {
		return nil, err
	}
	if err := e.escrow.Adjust(caller, old.Budget, req.Budget); err != nil {
		return nil, mapLedgerErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		if rerr := e.escrow.Adjust(caller, req.Budget, old.Budget); rerr != nil {
			return nil, cerr.NewError(cerr.Internal, "server error", errors.Join(err, rerr))
		}
		return nil, err
	}
	e.publish(eventbus.EventTypeTaskUpdated, caller, updated.ID)
	return updated.clone(), nil
}

// Remove deletes a record still in Created status and releases its
// reservation back to the initiator.
func (e *Engine) Remove(ctx context.Context, caller, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.remove(ctx, caller, id); err != nil {
		return err
	}
	e.publish(eventbus.EventTypeTaskRemoved, caller, id)
	return nil
}

// remove is shared by Remove and the deadline sweep; the sweep acts as each
// record's own initiator and emits no event.
func (e *Engine) remove(ctx context.Context, caller, id string) error {
	t, err := e.loadTask(ctx, e.store, id)
	if err != nil {
		return err
	}
	if t.Initiator != caller {
		return ErrNoPermissionToRemove
	}
	if t.Status != StatusCreated {
		return ErrNoPermissionToRemove
	}

	tx := Begin(e.store)
	if err := e.removeOwned(ctx, tx, t.CurrentOwner, id); err != nil {
		return err
	}
	if err := tx.Delete(ctx, id); err != nil {
		return err
	}
	count, err := tx.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		count--
	}
	if err := tx.SetCount(ctx, count); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	e.escrow.Release(t.Initiator, t.Budget)
	return nil
}

// Start assigns the record to a volunteer and moves ownership to them.
func (e *Engine) Start(ctx context.Context, caller, id string) (*Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.loadTask(ctx, e.store, id)
	if err != nil {
		return nil, err
	}
	if t.Initiator == caller {
		return nil, ErrNoPermissionToStart
	}
	if t.Status != StatusCreated {
		return nil, ErrNoPermissionToStart
	}

	tx := Begin(e.store)
	if err := e.removeOwned(ctx, tx, t.CurrentOwner, id); err != nil {
		return nil, err
	}
	if err := e.addOwned(ctx, tx, caller, id); err != nil {
		return nil, err
	}
	updated := t.clone()
	updated.CurrentOwner = caller
	updated.Volunteer = caller
	updated.Status = StatusInProgress
	if err := tx.Put(ctx, updated); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	e.publish(eventbus.EventTypeTaskAssigned, caller, id)
	return updated.clone(), nil
}

// Complete marks an in-progress record finished and hands ownership back to
// the initiator for disposition.
func (e *Engine) Complete(ctx context.Context, caller, id string) (*Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.loadTask(ctx, e.store, id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusInProgress {
		return nil, ErrNoPermissionToComplete
	}
	if t.Volunteer != caller {
		return nil, ErrNoPermissionToComplete
	}

	tx := Begin(e.store)
	if err := e.removeOwned(ctx, tx, caller, id); err != nil {
		return nil, err
	}
	if err := e.addOwned(ctx, tx, t.Initiator, id); err != nil {
		return nil, err
	}
	updated := t.clone()
	updated.CurrentOwner = t.Initiator
	updated.Status = StatusCompleted
	updated.CompletedAt = e.rounds.Current()
	if err := tx.Put(ctx, updated); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	e.publish(eventbus.EventTypeTaskCompleted, caller, id)
	return updated.clone(), nil
}

// Accept pays the escrowed budget out to the volunteer, deletes the record,
// credits reputation to both parties, and adds the task to the volunteer's
// completed work. The record and the funds resolve together: a commit
// failure reverses the payout, and the parties are credited only once the
// deletion is durable.
func (e *Engine) Accept(ctx context.Context, caller, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.loadTask(ctx, e.store, id)
	if err != nil {
		return err
	}
	if t.CurrentOwner != caller {
		return ErrOnlyInitiatorAcceptsTask
	}

	// Both parties must be creditable before any funds move.
	for _, account := range []string{t.Initiator, t.Volunteer} {
		hasProfile, err := e.profiles.HasProfile(ctx, account)
		if err != nil {
			return err
		}
		if !hasProfile {
			return ErrNoProfile
		}
	}

	tx := Begin(e.store)
	if err := e.removeOwned(ctx, tx, t.CurrentOwner, id); err != nil {
		return err
	}
	if err := tx.Delete(ctx, id); err != nil {
		return err
	}
	count, err := tx.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		count--
	}
	if err := tx.SetCount(ctx, count); err != nil {
		return err
	}

	if err := e.escrow.Payout(t.Initiator, t.Volunteer, t.Budget); err != nil {
		return mapLedgerErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		if rerr := e.escrow.RevertPayout(t.Initiator, t.Volunteer, t.Budget); rerr != nil {
			return cerr.NewError(cerr.Internal, "server error", errors.Join(err, rerr))
		}
		return err
	}
	e.publish(eventbus.EventTypeTaskAccepted, caller, id)
	return e.creditParties(ctx, t)
}

func (e *Engine) creditParties(ctx context.Context, t *Task) error {
	if err := e.profiles.AddReputation(ctx, t.Initiator); err != nil {
		return err
	}
	if err := e.profiles.AddReputation(ctx, t.Volunteer); err != nil {
		return err
	}
	return e.profiles.AddToCompletedWork(ctx, t.Volunteer, t.ID)
}

// Reject sends a completed record back to the volunteer with feedback; the
// budget stays reserved against the initiator.
func (e *Engine) Reject(ctx context.Context, caller, id, feedback string) (*Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(feedback) > e.cfg.MaxFeedbackLen {
		return nil, cerr.NewError(cerr.InvalidArgument, "feedback too long", nil)
	}
	t, err := e.loadTask(ctx, e.store, id)
	if err != nil {
		return nil, err
	}
	if t.Initiator != caller {
		return nil, ErrOnlyInitiatorAcceptsTask
	}
	if t.Status != StatusCompleted {
		return nil, ErrOnlyCompletedTaskAreRejected
	}

	tx := Begin(e.store)
	if err := e.removeOwned(ctx, tx, caller, id); err != nil {
		return nil, err
	}
	if err := e.addOwned(ctx, tx, t.Volunteer, id); err != nil {
		return nil, err
	}
	updated := t.clone()
	updated.CurrentOwner = t.Volunteer
	updated.Status = StatusInProgress
	updated.Feedback = feedback
	if err := tx.Put(ctx, updated); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	e.publish(eventbus.EventTypeTaskRejected, caller, id)
	return updated.clone(), nil
}

// BeginRound advances the round counter and runs the deadline sweep before
// any caller operation of the new round. Only records still in Created
// status are retired; expired records that have been started keep their
// escrow locked until a caller acts. That asymmetry is inherited behavior,
// kept on purpose.
func (e *Engine) BeginRound(ctx context.Context) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	round := e.rounds.Increment()
	now := e.clock.Now().UnixMilli()
	ids, err := e.store.IDs(ctx)
	if err != nil {
		return round
	}
	for _, id := range ids {
		t, ok, err := e.store.Get(ctx, id)
		if err != nil || !ok {
			continue
		}
		if t.Deadline < now {
			// Retirement attempts that fail their precondition are
			// swallowed so one stale record cannot block the rest.
			_ = e.remove(ctx, t.Initiator, id)
		}
	}
	return round
}

// GetTask returns a single live record.
func (e *Engine) GetTask(ctx context.Context, id string) (*Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadTask(ctx, e.store, id)
}

// ListTasks returns all live records in id order.
func (e *Engine) ListTasks(ctx context.Context) ([]*Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids, err := e.store.IDs(ctx)
	if err != nil {
		return nil, err
	}
	tasks := make([]*Task, 0, len(ids))
	for _, id := range ids {
		t, ok, err := e.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// TasksOwnedBy returns the ids currently owned by account, in insertion
// order.
func (e *Engine) TasksOwnedBy(ctx context.Context, account string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Owned(ctx, account)
}

// TaskCount returns the number of live records.
func (e *Engine) TaskCount(ctx context.Context) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Count(ctx)
}

func (e *Engine) loadTask(ctx context.Context, s Store, id string) (*Task, error) {
	t, ok, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTaskNotExist
	}
	return t, nil
}

func (e *Engine) addOwned(ctx context.Context, tx *Txn, account, id string) error {
	owned, err := tx.Owned(ctx, account)
	if err != nil {
		return err
	}
	if len(owned) >= e.cfg.MaxTasksOwned {
		return ErrExceedMaxTasksOwned
	}
	return tx.SetOwned(ctx, account, append(owned, id))
}

func (e *Engine) removeOwned(ctx context.Context, tx *Txn, account, id string) error {
	owned, err := tx.Owned(ctx, account)
	if err != nil {
		return err
	}
	for i, ownedID := range owned {
		if ownedID == id {
			return tx.SetOwned(ctx, account, append(owned[:i:i], owned[i+1:]...))
		}
	}
	return cerr.NewError(cerr.Internal, "server error",
		errors.New("ownership index out of sync with record owner"))
}

func (e *Engine) validateFields(title, specification, attachments, keywords string) error {
	switch {
	case len(title) > e.cfg.MaxTitleLen:
		return cerr.NewError(cerr.InvalidArgument, "title too long", nil)
	case len(specification) > e.cfg.MaxSpecificationLen:
		return cerr.NewError(cerr.InvalidArgument, "specification too long", nil)
	case len(attachments) > e.cfg.MaxAttachmentsLen:
		return cerr.NewError(cerr.InvalidArgument, "attachments too long", nil)
	case len(keywords) > e.cfg.MaxKeywordsLen:
		return cerr.NewError(cerr.InvalidArgument, "keywords too long", nil)
	}
	return nil
}

func (e *Engine) validateOrganization(ctx context.Context, orgID string) error {
	if orgID == "" {
		return nil
	}
	exists, err := e.orgs.Exists(ctx, orgID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrInvalidOrganization
	}
	return nil
}

func (e *Engine) deadlineInFuture(deadline int64) bool {
	return e.clock.Now().UnixMilli() < deadline
}

func (e *Engine) publish(eventType eventbus.EventType, account, id string) {
	if e.bus != nil {
		e.bus.PublishNew(eventType, account, id)
	}
}

func mapLedgerErr(err error) error {
	if errors.Is(err, ledger.ErrInsufficientBalance) {
		return ErrNotEnoughBalance
	}
	if errors.Is(err, ledger.ErrKeepAlive) {
		return cerr.NewError(cerr.FailedPrecondition, "transfer would kill sender account", err)
	}
	return err
}
