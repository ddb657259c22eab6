// Package store owns the single in-memory page of catalog records and moves
// it through the fetch lifecycle: idle -> loading -> loaded | failed.
//
// Fetches may overlap. Each one takes a sequence number when it is issued and
// only the most recently issued fetch may settle the state; a response that
// arrives after a newer fetch was issued is dropped, so a slow early request
// can never overwrite a fast later one. Superseded requests are also
// cancelled.
//
// A failed fetch keeps the previous page visible and sets a fixed error
// message; the raw error only goes to the log.
package store

import (
	"book-catalog/internal/core/model"
	"book-catalog/internal/metrics"
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/looplab/fsm"
)

const (
	eventFetch   = "fetch"
	eventSucceed = "succeed"
	eventFail    = "fail"
)

// Lister is the part of the catalog gateway the store needs.
type Lister interface {
	ListRecords(ctx context.Context, q model.QueryParams) (model.ListResult, error)
}

type ListStore struct {
	gateway Lister
	log     *slog.Logger
	metrics *metrics.Recorder

	mu      sync.Mutex
	machine *fsm.FSM
	state   model.ListState
	issued  uint64
	cancel  context.CancelFunc
	subs    map[int]func(model.ListState)
	nextSub int
}

func NewListStore(gateway Lister, logger *slog.Logger, rec *metrics.Recorder) *ListStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ListStore{
		gateway: gateway,
		log:     logger.With("component", "list_store"),
		metrics: rec,
		state:   model.ListState{Status: model.StatusIdle},
		subs:    make(map[int]func(model.ListState)),
	}
	s.machine = fsm.NewFSM(
		string(model.StatusIdle),
		fsm.Events{
			{Name: eventFetch, Src: []string{
				string(model.StatusIdle),
				string(model.StatusLoading),
				string(model.StatusLoaded),
				string(model.StatusFailed),
			}, Dst: string(model.StatusLoading)},
			{Name: eventSucceed, Src: []string{string(model.StatusLoading)}, Dst: string(model.StatusLoaded)},
			{Name: eventFail, Src: []string{string(model.StatusLoading)}, Dst: string(model.StatusFailed)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.log.Debug("list state changed", "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
	return s
}

// State returns a copy of the current list state.
func (s *ListStore) State() model.ListState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive a copy of the state after every change.
// fn runs on the goroutine that caused the change. The returned func
// unsubscribes.
func (s *ListStore) Subscribe(fn func(model.ListState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Fetch loads the page described by params. The store switches to loading
// before the request is sent, even if another fetch is still in flight.
//
// It returns the gateway error when this fetch settled the store as failed,
// and model.ErrStaleResponse when a newer fetch superseded it.
func (s *ListStore) Fetch(ctx context.Context, params model.QueryParams) error {
	params = params.Normalize()

	s.mu.Lock()
	s.issued++
	seq := s.issued
	if s.cancel != nil {
		s.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.fire(ctx, eventFetch)
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(subs, snap)

	res, err := s.gateway.ListRecords(reqCtx, params)
	cancel()

	s.mu.Lock()
	if seq != s.issued {
		s.mu.Unlock()
		s.log.Debug("dropping superseded list response", "seq", seq, "error", err)
		s.metrics.StaleDropped()
		return model.ErrStaleResponse
	}
	s.cancel = nil
	s.state.Seq = seq
	if err != nil {
		s.fire(ctx, eventFail)
		s.state.ErrorMessage = model.FetchFailedMessage
	} else {
		s.fire(ctx, eventSucceed)
		s.state.Records = append([]model.Record(nil), res.Records...)
		s.state.TotalCount = res.TotalCount
		s.state.Params = params
		s.state.ErrorMessage = ""
	}
	snap, subs = s.snapshotLocked()
	s.mu.Unlock()

	s.metrics.FetchSettled(err)
	if err != nil {
		s.log.Error("fetch books failed", "seq", seq, "page", params.Page, "error", err)
	} else {
		s.log.Debug("fetched books", "seq", seq, "page", params.Page, "count", len(res.Records), "total", res.TotalCount)
	}
	s.publish(subs, snap)
	return err
}

// fire runs a lifecycle event and mirrors the machine's state into s.state.
// Caller holds s.mu.
func (s *ListStore) fire(ctx context.Context, event string) {
	// A cancelled caller must not leave the machine half way.
	if err := s.machine.Event(context.WithoutCancel(ctx), event); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			s.log.Error("illegal list transition", "event", event, "state", s.machine.Current(), "error", err)
		}
	}
	s.state.Status = model.ListStatus(s.machine.Current())
}

func (s *ListStore) snapshotLocked() (model.ListState, []func(model.ListState)) {
	subs := make([]func(model.ListState), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	return s.state.Clone(), subs
}

func (s *ListStore) publish(subs []func(model.ListState), st model.ListState) {
	for _, fn := range subs {
		fn(st.Clone())
	}
}
