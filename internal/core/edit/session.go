// Package edit implements the inline edit of a single catalog row.
//
//	idle --begin--> editing --commit--> committing --succeed--> idle
//	                   ^                     |
//	                   +-------fail----------+
//	editing --cancel--> idle
//
// Only one row is editable at a time. Field changes go to a draft copy and a
// commit always sends the whole draft. A failed commit keeps the draft so the
// user can retry or cancel. The session never touches list state; the caller
// refetches after a successful commit.
package edit

import (
	"book-catalog/internal/core/model"
	"book-catalog/internal/metrics"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/looplab/fsm"
)

const (
	eventBegin   = "begin"
	eventCommit  = "commit"
	eventSucceed = "succeed"
	eventFail    = "fail"
	eventCancel  = "cancel"
)

// Updater is the part of the catalog gateway the session needs.
type Updater interface {
	UpdateRecord(ctx context.Context, r model.Record) error
}

type Session struct {
	gateway Updater
	log     *slog.Logger
	metrics *metrics.Recorder

	mu       sync.Mutex
	machine  *fsm.FSM
	activeID int
	draft    *model.Record
}

func NewSession(gateway Updater, logger *slog.Logger, rec *metrics.Recorder) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		gateway: gateway,
		log:     logger.With("component", "edit_session"),
		metrics: rec,
	}
	s.machine = fsm.NewFSM(
		string(model.EditIdle),
		fsm.Events{
			{Name: eventBegin, Src: []string{string(model.EditIdle)}, Dst: string(model.EditEditing)},
			{Name: eventCommit, Src: []string{string(model.EditEditing)}, Dst: string(model.EditCommitting)},
			{Name: eventSucceed, Src: []string{string(model.EditCommitting)}, Dst: string(model.EditIdle)},
			{Name: eventFail, Src: []string{string(model.EditCommitting)}, Dst: string(model.EditEditing)},
			{Name: eventCancel, Src: []string{string(model.EditEditing)}, Dst: string(model.EditIdle)},
		},
		fsm.Callbacks{},
	)
	return s
}

// State returns a copy of the session state; Draft is nil when idle.
func (s *Session) State() model.EditState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// IsEditable reports whether id is the row being edited.
func (s *Session) IsEditable(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft != nil && s.activeID == id
}

// BeginEdit opens r for editing with a draft copy of it. Beginning the row
// that is already open is a no-op; any other row is rejected with
// model.ErrEditInProgress while an edit is open.
func (s *Session) BeginEdit(r model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current() != model.EditIdle {
		if s.activeID == r.ID && s.current() == model.EditEditing {
			return nil
		}
		return fmt.Errorf("begin edit of %d: %w (editing %d)", r.ID, model.ErrEditInProgress, s.activeID)
	}
	if err := s.fire(eventBegin); err != nil {
		return err
	}
	draft := r
	s.activeID = r.ID
	s.draft = &draft
	s.log.Debug("edit started", "id", r.ID)
	return nil
}

// UpdateDraftField changes one field of the draft. The id is not editable.
func (s *Session) UpdateDraftField(f model.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.current() {
	case model.EditIdle:
		return model.ErrNotEditing
	case model.EditCommitting:
		return model.ErrCommitPending
	}
	if err := s.draft.Set(f, value); err != nil {
		return fmt.Errorf("update %q: %w", f, err)
	}
	return nil
}

// Commit sends the full draft to the catalog service. There is no client
// side validation; the service decides. On success the session is idle and
// the committed record is returned. On failure the session is back in
// editing with the draft untouched and the gateway error is returned.
func (s *Session) Commit(ctx context.Context) (model.Record, error) {
	s.mu.Lock()
	switch s.current() {
	case model.EditIdle:
		s.mu.Unlock()
		return model.Record{}, model.ErrNotEditing
	case model.EditCommitting:
		s.mu.Unlock()
		return model.Record{}, model.ErrCommitPending
	}
	if err := s.fire(eventCommit); err != nil {
		s.mu.Unlock()
		return model.Record{}, err
	}
	draft := *s.draft
	s.mu.Unlock()

	err := s.gateway.UpdateRecord(ctx, draft)
	s.metrics.Commit(err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if ferr := s.fire(eventFail); ferr != nil {
			return model.Record{}, errors.Join(err, ferr)
		}
		s.log.Warn("commit failed, keeping draft", "id", draft.ID, "error", err)
		return model.Record{}, fmt.Errorf("commit %d: %w", draft.ID, err)
	}
	if err := s.fire(eventSucceed); err != nil {
		return model.Record{}, err
	}
	s.activeID = 0
	s.draft = nil
	s.log.Info("record updated", "id", draft.ID)
	return draft, nil
}

// Cancel discards the draft without any network call.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.current() {
	case model.EditIdle:
		return nil
	case model.EditCommitting:
		return model.ErrCommitPending
	}
	if err := s.fire(eventCancel); err != nil {
		return err
	}
	s.log.Debug("edit cancelled", "id", s.activeID)
	s.activeID = 0
	s.draft = nil
	return nil
}

func (s *Session) current() model.EditStatus {
	return model.EditStatus(s.machine.Current())
}

func (s *Session) fire(event string) error {
	if err := s.machine.Event(context.Background(), event); err != nil {
		return fmt.Errorf("edit session: %w", err)
	}
	return nil
}

func (s *Session) stateLocked() model.EditState {
	st := model.EditState{Status: s.current(), ActiveID: s.activeID}
	if s.draft != nil {
		d := *s.draft
		st.Draft = &d
	}
	return st
}
