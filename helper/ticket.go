package helper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"zipline_manager/constants"
	"zipline_manager/database"
	"zipline_manager/model"
)

var ErrTicketNotFound = errors.New("ticket not found")

// TicketStore keeps every ticket in one JSON document. Each mutation re-reads
// the whole collection, applies the change and writes it back with the revision
// it read. Mutations are serialized in process; a stale revision (another
// process wrote in between) re-runs the mutation on fresh data.
type TicketStore struct {
	docs       database.DocumentStore
	path       string
	clock      clockwork.Clock
	loc        *time.Location
	maxRetries uint64
	newBackOff func() backoff.BackOff

	mu sync.Mutex
}

type TicketStoreOption func(*TicketStore)

func WithClock(clock clockwork.Clock) TicketStoreOption {
	return func(s *TicketStore) { s.clock = clock }
}

func WithLocation(loc *time.Location) TicketStoreOption {
	return func(s *TicketStore) { s.loc = loc }
}

func WithRetryPolicy(maxRetries uint64, newBackOff func() backoff.BackOff) TicketStoreOption {
	return func(s *TicketStore) {
		s.maxRetries = maxRetries
		s.newBackOff = newBackOff
	}
}

func NewTicketStore(docs database.DocumentStore, path string, opts ...TicketStoreOption) *TicketStore {
	s := &TicketStore{
		docs:       docs,
		path:       path,
		clock:      clockwork.NewRealClock(),
		loc:        time.UTC,
		maxRetries: 3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TicketStore) Now() time.Time {
	return s.clock.Now()
}

func (s *TicketStore) load(ctx context.Context) ([]model.Ticket, string, error) {
	doc, err := s.docs.Get(ctx, s.path)
	if errors.Is(err, database.ErrNotFound) {
		return []model.Ticket{}, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading tickets: %w", err)
	}

	tickets := []model.Ticket{}
	if len(bytes.TrimSpace(doc.Content)) > 0 {
		if err := json.Unmarshal(doc.Content, &tickets); err != nil {
			return nil, "", fmt.Errorf("decoding tickets: %w", err)
		}
	}
	return tickets, doc.Revision, nil
}

// mutate applies fn to a fresh copy of the collection and writes the result.
// fn returning a nil slice means nothing changed and nothing is written.
func (s *TicketStore) mutate(ctx context.Context, message string, fn func([]model.Ticket) ([]model.Ticket, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt := 0
	op := func() error {
		attempt++
		tickets, revision, err := s.load(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		updated, err := fn(tickets)
		if err != nil {
			return backoff.Permanent(err)
		}
		if updated == nil {
			return nil
		}

		content, err := json.MarshalIndent(updated, "", "  ")
		if err != nil {
			return backoff.Permanent(fmt.Errorf("encoding tickets: %w", err))
		}
		_, err = s.docs.Put(ctx, s.path, content, revision, message)
		if errors.Is(err, database.ErrConflict) {
			logrus.WithFields(logrus.Fields{
				"path":    s.path,
				"attempt": attempt,
			}).Warn("tickets document changed underneath, retrying")
			return err
		}
		if err != nil {
			return backoff.Permanent(fmt.Errorf("writing tickets: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	return backoff.Retry(op, policy)
}

// CreateTicket creates a single ticket. See CreateTicketsBatch.
func (s *TicketStore) CreateTicket(ctx context.Context, draft model.TicketDraft) (model.Ticket, error) {
	tickets, err := s.CreateTicketsBatch(ctx, []model.TicketDraft{draft})
	if err != nil {
		return model.Ticket{}, err
	}
	return tickets[0], nil
}

// CreateTicketsBatch appends one ticket per draft in a single
// read-modify-write cycle. Durability is best effort: when the write fails
// the error is logged and the tickets are still returned.
func (s *TicketStore) CreateTicketsBatch(ctx context.Context, drafts []model.TicketDraft) ([]model.Ticket, error) {
	if len(drafts) == 0 {
		return []model.Ticket{}, nil
	}

	now := s.clock.Now().UTC()
	created := make([]model.Ticket, 0, len(drafts))
	for _, draft := range drafts {
		season := draft.Season
		if season == "" {
			season = constants.SEASON_UNKNOWN
		}
		created = append(created, model.Ticket{
			ID:            NewTicketID(),
			SessionID:     draft.SessionID,
			Season:        season,
			Price:         draft.Price,
			CustomerEmail: draft.CustomerEmail,
			CustomerName:  draft.CustomerName,
			CreatedAt:     now,
			ValidUntil:    now.AddDate(1, 0, 0),
			Status:        constants.TICKET_ACTIVE,
			IsGift:        draft.IsGift,
		})
	}

	message := fmt.Sprintf("Add %d ticket(s) for %s", len(created), sessionLabel(drafts[0].SessionID))
	err := s.mutate(ctx, message, func(tickets []model.Ticket) ([]model.Ticket, error) {
		taken := make(map[string]bool, len(tickets)+len(created))
		for _, t := range tickets {
			taken[t.ID] = true
		}
		for i := range created {
			for taken[created[i].ID] {
				created[i].ID = NewTicketID()
			}
			taken[created[i].ID] = true
		}
		return append(tickets, created...), nil
	})
	if err != nil {
		ids := make([]string, 0, len(created))
		for _, t := range created {
			ids = append(ids, t.ID)
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"sessionId": drafts[0].SessionID,
			"ticketIds": ids,
		}).Error("tickets could not be persisted, returning them anyway")
	}
	return created, nil
}

type ticketSlot struct {
	season string
	isGift bool
}

// FillSession makes the tickets of sessionID match wanted, one draft per
// admission. Only the drafts not already covered by a stored ticket of the same
// season and gift flag are created, so repeated calls create nothing. The check
// runs inside the write cycle. Returns every ticket of the session and the
// newly created ones.
func (s *TicketStore) FillSession(ctx context.Context, sessionID string, wanted []model.TicketDraft) ([]model.Ticket, []model.Ticket, error) {
	var all, created []model.Ticket
	reachedWrite := false

	err := s.mutate(ctx, fmt.Sprintf("Add tickets for %s", sessionLabel(sessionID)), func(tickets []model.Ticket) ([]model.Ticket, error) {
		now := s.clock.Now().UTC()
		all, created = nil, nil

		have := map[ticketSlot]int{}
		taken := make(map[string]bool, len(tickets))
		for _, t := range tickets {
			taken[t.ID] = true
			if t.SessionID == sessionID {
				all = append(all, t)
				have[ticketSlot{t.Season, t.IsGift}]++
			}
		}

		for _, draft := range wanted {
			if draft.Season == "" {
				draft.Season = constants.SEASON_UNKNOWN
			}
			slot := ticketSlot{draft.Season, draft.IsGift}
			if have[slot] > 0 {
				have[slot]--
				continue
			}
			id := NewTicketID()
			for taken[id] {
				id = NewTicketID()
			}
			taken[id] = true
			created = append(created, model.Ticket{
				ID:            id,
				SessionID:     sessionID,
				Season:        draft.Season,
				Price:         draft.Price,
				CustomerEmail: draft.CustomerEmail,
				CustomerName:  draft.CustomerName,
				CreatedAt:     now,
				ValidUntil:    now.AddDate(1, 0, 0),
				Status:        constants.TICKET_ACTIVE,
				IsGift:        draft.IsGift,
			})
		}
		all = append(all, created...)

		if len(created) == 0 {
			return nil, nil
		}
		reachedWrite = true
		return append(tickets, created...), nil
	})
	if err != nil {
		if !reachedWrite {
			return nil, nil, err
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"sessionId": sessionID,
			"created":   len(created),
		}).Error("session tickets could not be persisted, returning them anyway")
	}
	if all == nil {
		all = []model.Ticket{}
	}
	return all, created, nil
}

func (s *TicketStore) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	tickets, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	id = NormalizeTicketID(id)
	for i := range tickets {
		if tickets[i].ID == id {
			return &tickets[i], nil
		}
	}
	return nil, ErrTicketNotFound
}

func (s *TicketStore) GetTicketsBySession(ctx context.Context, sessionID string) ([]model.Ticket, error) {
	tickets, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	matches := []model.Ticket{}
	for _, t := range tickets {
		if sessionID != "" && t.SessionID == sessionID {
			matches = append(matches, t)
		}
	}
	return matches, nil
}

func (s *TicketStore) GetAllTickets(ctx context.Context) ([]model.Ticket, error) {
	tickets, _, err := s.load(ctx)
	return tickets, err
}

// ValidateTicket marks an active ticket as used. Unknown, used and expired
// tickets come back as a failed result; the error is reserved for storage
// problems. A ticket is never validated twice.
func (s *TicketStore) ValidateTicket(ctx context.Context, id string) (model.ValidationResult, error) {
	id = NormalizeTicketID(id)
	var result model.ValidationResult

	err := s.mutate(ctx, "Validate ticket "+id, func(tickets []model.Ticket) ([]model.Ticket, error) {
		now := s.clock.Now().UTC()
		for i := range tickets {
			if tickets[i].ID != id {
				continue
			}
			ticket := tickets[i]
			if ticket.Status == constants.TICKET_USED {
				result = model.ValidationResult{
					Code:    constants.VALIDATION_ALREADY_USED,
					Message: fmt.Sprintf(constants.TICKET_ALREADY_USED, s.formatLocal(ticket.UsedAt)),
					Ticket:  &ticket,
					UsedAt:  ticket.UsedAt,
				}
				return nil, nil
			}
			if now.After(ticket.ValidUntil) {
				display := ticket.WithEffectiveStatus(now)
				result = model.ValidationResult{
					Code:    constants.VALIDATION_EXPIRED,
					Message: fmt.Sprintf(constants.TICKET_EXPIRED_MSG, s.formatLocal(&ticket.ValidUntil)),
					Ticket:  &display,
				}
				return nil, nil
			}

			ticket.Status = constants.TICKET_USED
			ticket.UsedAt = &now
			tickets[i] = ticket
			result = model.ValidationResult{
				Valid:   true,
				Code:    constants.VALIDATION_VALID,
				Message: constants.TICKET_VALID,
				Ticket:  &ticket,
				UsedAt:  &now,
			}
			return tickets, nil
		}

		result = model.ValidationResult{
			Code:    constants.VALIDATION_NOT_FOUND,
			Message: constants.TICKET_NOT_FOUND,
		}
		return nil, nil
	})
	if err != nil {
		return model.ValidationResult{}, err
	}
	return result, nil
}

func (s *TicketStore) formatLocal(t *time.Time) string {
	if t == nil {
		return "?"
	}
	return t.In(s.loc).Format("02/01/2006 à 15h04")
}

// ComputeStats counts tickets by effective status. SoldToday uses the
// calendar day of now in loc.
func ComputeStats(tickets []model.Ticket, now time.Time, loc *time.Location) model.TicketStats {
	stats := model.TicketStats{Total: len(tickets)}
	today := now.In(loc).Format(constants.DATE_LAYOUT)
	for _, t := range tickets {
		switch t.EffectiveStatus(now) {
		case constants.TICKET_ACTIVE:
			stats.Active++
		case constants.TICKET_USED:
			stats.Used++
		case constants.TICKET_EXPIRED:
			stats.Expired++
		}
		if t.CreatedAt.In(loc).Format(constants.DATE_LAYOUT) == today {
			stats.SoldToday++
		}
		stats.Revenue += t.Price
	}
	return stats
}

// NewTicketID returns a short code such as "ZL-3F9A1C07".
func NewTicketID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ZL-" + strings.ToUpper(raw[:8])
}

func NormalizeTicketID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func sessionLabel(sessionID string) string {
	if sessionID == "" {
		return "manual entry"
	}
	return "session " + sessionID
}
