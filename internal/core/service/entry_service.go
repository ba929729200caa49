package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pagekeep/diary/internal/api/metrics"
	"github.com/pagekeep/diary/internal/core/domain"
	"github.com/pagekeep/diary/internal/core/ports"
)

// EntryService is the owner-scoped CRUD layer over diary entries. Every call
// acts as the caller identity; the repository enforces document permissions.
type EntryService struct {
	repo  ports.EntryRepository
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

func NewEntryService(repo ports.EntryRepository, log zerolog.Logger) *EntryService {
	return &EntryService{
		repo:  repo,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Create stores a new entry owned by the caller. All-day entries never keep an
// end timestamp.
func (s *EntryService) Create(ctx context.Context, caller domain.Identity, in ports.CreateEntryInput) (*domain.Entry, error) {
	if caller.Anonymous() {
		return nil, domain.ErrUnauthorized
	}
	if in.StartDateTime == nil || in.IsAllDay == nil {
		s.log.Error().Str("user_id", caller.AccountID).Msg("create entry without start or all-day flag")
		return nil, domain.ErrScheduleMissing
	}
	status, err := domain.ParseEntryStatus(in.Status)
	if err != nil {
		return nil, err
	}

	allDay := *in.IsAllDay
	end := in.EndDateTime
	if allDay {
		end = nil
	}
	if err := domain.ValidateSchedule(*in.StartDateTime, end, allDay); err != nil {
		s.log.Error().Str("user_id", caller.AccountID).Msg("end before start")
		return nil, err
	}

	now := s.now()
	entry := &domain.Entry{
		ID:            s.newID(),
		UserID:        caller.AccountID,
		Title:         strings.TrimSpace(in.Title),
		Content:       in.Content,
		StartDateTime: in.StartDateTime.UTC(),
		EndDateTime:   utcPtr(end),
		IsAllDay:      allDay,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
		Permissions:   domain.OwnerPermissions(caller.AccountID),
	}

	done := observe("create")
	err = s.repo.Create(ctx, entry)
	done(err)
	if err != nil {
		s.logFailure("create", caller, "", err)
		return nil, domain.Transient("create entry", err)
	}

	s.log.Info().Str("entry_id", entry.ID).Str("user_id", caller.AccountID).Msg("entry created")
	return entry, nil
}

// Get returns one of the caller's entries.
func (s *EntryService) Get(ctx context.Context, caller domain.Identity, id string) (*domain.Entry, error) {
	if caller.Anonymous() {
		return nil, domain.ErrUnauthorized
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrIDRequired
	}

	done := observe("get")
	entry, err := s.repo.FindByID(ctx, id, caller.AccountID)
	done(err)
	if err != nil {
		s.logFailure("get", caller, id, err)
		return nil, domain.Transient("get entry "+id, err)
	}
	return entry, nil
}

// List returns the caller's entries, newest start first. No entries is an
// empty slice, not an error.
func (s *EntryService) List(ctx context.Context, caller domain.Identity) ([]*domain.Entry, error) {
	if caller.Anonymous() {
		return nil, domain.ErrUnauthorized
	}

	done := observe("list")
	entries, err := s.repo.ListByOwner(ctx, caller.AccountID)
	done(err)
	if err != nil {
		s.logFailure("list", caller, "", err)
		return nil, domain.Transient("list entries", err)
	}
	if entries == nil {
		entries = []*domain.Entry{}
	}
	return entries, nil
}

// Update applies a partial change. Start/end ordering is checked only when both
// arrive in the same request and the request does not mark the entry all-day.
func (s *EntryService) Update(ctx context.Context, caller domain.Identity, id string, in ports.UpdateEntryInput) (*domain.Entry, error) {
	if caller.Anonymous() {
		return nil, domain.ErrUnauthorized
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrIDRequired
	}
	if in.Empty() {
		return nil, domain.ErrEmptyUpdate
	}

	allDay := in.IsAllDay != nil && *in.IsAllDay
	if in.StartDateTime != nil && in.EndDateTime != nil && !allDay {
		if err := domain.ValidateSchedule(*in.StartDateTime, in.EndDateTime, false); err != nil {
			s.log.Error().Str("entry_id", id).Msg("end before start")
			return nil, err
		}
	}

	patch := ports.EntryPatch{
		Title:         trimmedPtr(in.Title),
		Content:       in.Content,
		StartDateTime: utcPtr(in.StartDateTime),
		EndDateTime:   utcPtr(in.EndDateTime),
		IsAllDay:      in.IsAllDay,
	}
	if in.Status != nil {
		status, err := domain.ParseEntryStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		patch.Status = &status
	}

	switch {
	case allDay:
		patch.EndDateTime = nil
		patch.ClearEnd = true
	case patch.EndDateTime != nil && in.IsAllDay == nil:
		// The stored entry decides whether an end may be kept.
		current, err := s.repo.FindByID(ctx, id, caller.AccountID)
		if err != nil {
			s.logFailure("update", caller, id, err)
			return nil, domain.Transient("update entry "+id, err)
		}
		if current.IsAllDay {
			patch.EndDateTime = nil
			if patch.Empty() {
				return current, nil
			}
		}
	}

	done := observe("update")
	entry, err := s.repo.Update(ctx, id, caller.AccountID, patch, s.now())
	done(err)
	if err != nil {
		s.logFailure("update", caller, id, err)
		return nil, domain.Transient("update entry "+id, err)
	}

	s.log.Info().Str("entry_id", id).Str("user_id", caller.AccountID).Msg("entry updated")
	return entry, nil
}

// Delete removes one of the caller's entries. It reports false together with
// the reason when nothing was deleted.
func (s *EntryService) Delete(ctx context.Context, caller domain.Identity, id string) (bool, error) {
	if caller.Anonymous() {
		return false, domain.ErrUnauthorized
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return false, domain.ErrIDRequired
	}

	done := observe("delete")
	err := s.repo.Delete(ctx, id, caller.AccountID)
	done(err)
	if err != nil {
		s.logFailure("delete", caller, id, err)
		return false, domain.Transient("delete entry "+id, err)
	}

	s.log.Info().Str("entry_id", id).Str("user_id", caller.AccountID).Msg("entry deleted")
	return true, nil
}

// logFailure logs expected outcomes (missing or foreign documents) at warn and
// everything else at error.
func (s *EntryService) logFailure(op string, caller domain.Identity, id string, err error) {
	ev := s.log.Error()
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
		ev = s.log.Warn()
	}
	ev.Err(err).
		Str("op", op).
		Str("entry_id", id).
		Str("user_id", caller.AccountID).
		Str("kind", string(domain.KindOf(err))).
		Msg("entry operation failed")
}

// observe starts a duration measurement for op and returns the func that
// records it along with the outcome.
func observe(op string) func(error) {
	start := time.Now()
	return func(err error) {
		metrics.EntryOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = string(domain.KindOf(err))
		}
		metrics.EntryOperationsTotal.WithLabelValues(op, result).Inc()
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
