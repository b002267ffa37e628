// Package service runs every read and write for one user on a single goroutine,
// each inside one SQLite transaction, so a task completion and everything it
// triggers either all land or none do.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cove/internal/engine"
	"cove/internal/storage"
)

var ErrClosed = errors.New("service closed")

// NotFoundError reports a missing task or contract.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

type Options struct {
	UserID string
	Policy engine.ColdStoragePolicy
	Logger *slog.Logger
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

type request struct {
	ctx   context.Context
	fn    func(ctx context.Context, st *storage.Store, now time.Time) error
	reply chan error
}

// Service owns the command queue for one user.
type Service struct {
	db     *sql.DB
	userID string
	policy engine.ColdStoragePolicy
	log    *slog.Logger
	now    func() time.Time

	requests  chan request
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func New(db *sql.DB, opts Options) *Service {
	if opts.UserID == "" {
		opts.UserID = storage.MainUser
	}
	if opts.Policy == (engine.ColdStoragePolicy{}) {
		opts.Policy = engine.DefaultColdStoragePolicy()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Service{
		db:       db,
		userID:   opts.UserID,
		policy:   opts.Policy,
		log:      opts.Logger.With("user", opts.UserID),
		now:      opts.Now,
		requests: make(chan request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// Close stops the queue after the running command finishes. It does not close the DB.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
}

func (s *Service) UserID() string { return s.userID }

func (s *Service) run() {
	defer close(s.done)
	for {
		select {
		case req := <-s.requests:
			now := s.now()
			req.reply <- storage.InTx(req.ctx, s.db, func(st *storage.Store) error {
				return req.fn(req.ctx, st, now)
			})
		case <-s.quit:
			return
		}
	}
}

// exec queues fn and waits for it. Commands run one at a time in arrival order.
func (s *Service) exec(ctx context.Context, fn func(ctx context.Context, st *storage.Store, now time.Time) error) error {
	req := request{ctx: ctx, fn: fn, reply: make(chan error, 1)}
	select {
	case s.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.quit:
		return ErrClosed
	}
	return <-req.reply
}

func (s *Service) ledger(ctx context.Context, st *storage.Store, now time.Time) (*engine.Ledger, error) {
	return st.Ledgers.GetOrCreate(ctx, s.userID, now)
}

func (s *Service) task(ctx context.Context, st *storage.Store, id string) (*engine.Task, error) {
	t, err := st.Tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, NotFoundError{Kind: "task", ID: id}
	}
	return t, nil
}

// owner loads the contract that owns t, or nil when t is in the backlog.
func (s *Service) owner(ctx context.Context, st *storage.Store, t *engine.Task) (*engine.Contract, error) {
	if t.ContractID == nil {
		return nil, nil
	}
	c, err := st.Contracts.Get(ctx, *t.ContractID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NotFoundError{Kind: "contract", ID: *t.ContractID}
	}
	return c, nil
}

// ownedTask returns the contract's copy of task id so mutations reach the contract.
func ownedTask(c *engine.Contract, id string) *engine.Task {
	for _, t := range c.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// today returns the contract for now's calendar day, creating a draft when create is set.
func (s *Service) today(ctx context.Context, st *storage.Store, now time.Time, create bool) (*engine.Contract, error) {
	c, err := st.Contracts.GetByDay(ctx, now)
	if err != nil || c != nil || !create {
		return c, err
	}
	c = engine.NewContract(now, now)
	if err := st.Contracts.Insert(ctx, c); err != nil {
		return nil, err
	}
	s.log.Debug("contract created", "contract", c.ID, "day", engine.DayKey(c.Day))
	return c, nil
}

// saveTask persists t through its owning contract when it has one.
func saveTask(ctx context.Context, st *storage.Store, c *engine.Contract, t *engine.Task) error {
	if c != nil {
		return st.Contracts.Save(ctx, c)
	}
	return st.Tasks.Update(ctx, t)
}

// logRejection logs capacity and state rejections at warn level.
func (s *Service) logRejection(msg string, err error, attrs ...any) {
	var ce engine.CapacityError
	var se engine.StateError
	switch {
	case errors.As(err, &ce), errors.As(err, &se),
		errors.Is(err, engine.ErrTaskOwned), errors.Is(err, engine.ErrTaskNotInContract), errors.Is(err, engine.ErrNotDirective):
		s.log.Warn(msg, append(attrs, "err", err.Error())...)
	}
}
