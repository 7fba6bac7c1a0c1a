// Package memory provides an in-process Store used when no Postgres DSN is
// configured and by tests. Transactions work on a copy of the data that
// replaces the live copy only on commit. Writes outside a transaction wait
// for any open transaction, so a commit never discards them.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

type data struct {
	users     map[string]domain.User
	tickets   map[string]domain.Ticket
	comments  []domain.Comment
	auditLogs []domain.AuditLog
}

func (d *data) clone() *data {
	out := &data{
		users:     make(map[string]domain.User, len(d.users)),
		tickets:   make(map[string]domain.Ticket, len(d.tickets)),
		comments:  append([]domain.Comment(nil), d.comments...),
		auditLogs: append([]domain.AuditLog(nil), d.auditLogs...),
	}
	for k, v := range d.users {
		out.users[k] = v
	}
	for k, v := range d.tickets {
		out.tickets[k] = v
	}
	return out
}

// Store is a mutex-guarded in-memory repository.Store.
type Store struct {
	txMu sync.Mutex // serializes transactions
	mu   sync.RWMutex
	data *data
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{data: &data{
		users:   map[string]domain.User{},
		tickets: map[string]domain.Ticket{},
	}}
}

func (s *Store) Repositories() repository.Repositories {
	return s.bind(&view{mu: &s.mu, writer: liveWriter{s}, data: func() *data { return s.data }})
}

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	working := s.data.clone()
	s.mu.RUnlock()

	var txMu sync.RWMutex
	if err := fn(s.bind(&view{mu: &txMu, writer: &txMu, data: func() *data { return working }})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = working
	s.mu.Unlock()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) bind(v *view) repository.Repositories {
	return repository.Repositories{
		Users:     &userRepo{v},
		Tickets:   &ticketRepo{v},
		Comments:  &commentRepo{v},
		AuditLogs: &auditLogRepo{v},
	}
}

type view struct {
	mu     *sync.RWMutex // guards reads
	writer sync.Locker   // guards writes
	data   func() *data
}

// liveWriter orders writes on committed data after any open transaction.
type liveWriter struct{ s *Store }

func (w liveWriter) Lock() {
	w.s.txMu.Lock()
	w.s.mu.Lock()
}

func (w liveWriter) Unlock() {
	w.s.mu.Unlock()
	w.s.txMu.Unlock()
}

type userRepo struct{ *view }

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	r.writer.Lock()
	defer r.writer.Unlock()
	d := r.data()
	for _, existing := range d.users {
		if existing.Email == user.Email || existing.ID == user.ID {
			return repository.ErrDuplicate
		}
	}
	d.users[user.ID] = *user
	return nil
}

func (r *userRepo) CreateIfAbsent(ctx context.Context, user *domain.User) (bool, error) {
	r.writer.Lock()
	defer r.writer.Unlock()
	d := r.data()
	for _, existing := range d.users {
		if existing.Email == user.Email {
			*user = existing
			return false, nil
		}
	}
	if _, taken := d.users[user.ID]; taken {
		return false, repository.ErrDuplicate
	}
	d.users[user.ID] = *user
	return true, nil
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	r.writer.Lock()
	defer r.writer.Unlock()
	d := r.data()
	existing, ok := d.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = user.Name
	existing.Department = user.Department
	existing.Role = user.Role
	existing.UpdatedAt = user.UpdatedAt
	d.users[user.ID] = existing
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.data().users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.data().users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.User{}
	for _, id := range ids {
		if user, ok := r.data().users[id]; ok {
			result = append(result, user)
		}
	}
	return result, nil
}

func (r *userRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]domain.User, 0, len(r.data().users))
	for _, user := range r.data().users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	if limit <= 0 {
		limit = 50
	}
	return page(users, limit, offset), nil
}

type ticketRepo struct{ *view }

func (r *ticketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.writer.Lock()
	defer r.writer.Unlock()
	d := r.data()
	if _, exists := d.tickets[ticket.ID]; exists {
		return repository.ErrDuplicate
	}
	d.tickets[ticket.ID] = copyTicket(*ticket)
	return nil
}

func (r *ticketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.writer.Lock()
	defer r.writer.Unlock()
	d := r.data()
	existing, ok := d.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Status = ticket.Status
	existing.AssignedTeam = ticket.AssignedTeam
	existing.Priority = ticket.Priority
	existing.SLADueAt = ticket.SLADueAt
	existing.SLAStatus = ticket.SLAStatus
	existing.UpdatedAt = ticket.UpdatedAt
	d.tickets[ticket.ID] = existing
	return nil
}

func (r *ticketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.data().tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyTicket(ticket)
	return &out, nil
}

// GetForUpdate needs no row lock here; transactions are already serialized.
func (r *ticketRepo) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *ticketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Ticket{}
	for _, ticket := range r.data().tickets {
		if matches(ticket, filter) {
			result = append(result, copyTicket(ticket))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	return page(result, limit, filter.Offset), nil
}

func (r *ticketRepo) ListBreachCandidates(ctx context.Context, now time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := []string{}
	for id, ticket := range r.data().tickets {
		if ticket.SLADueAt.Before(now) && ticket.SLAStatus != domain.SLAStatusBreached {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *ticketRepo) MarkBreached(ctx context.Context, ids []string, now time.Time) ([]string, error) {
	r.writer.Lock()
	defer r.writer.Unlock()
	d := r.data()
	changed := []string{}
	for _, id := range ids {
		ticket, ok := d.tickets[id]
		if !ok || ticket.SLAStatus == domain.SLAStatusBreached || !ticket.SLADueAt.Before(now) {
			continue
		}
		ticket.SLAStatus = domain.SLAStatusBreached
		ticket.UpdatedAt = now
		d.tickets[id] = ticket
		changed = append(changed, id)
	}
	return changed, nil
}

type commentRepo struct{ *view }

func (r *commentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	r.writer.Lock()
	defer r.writer.Unlock()
	d := r.data()
	d.comments = append(d.comments, *comment)
	return nil
}

func (r *commentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Comment{}
	for _, comment := range r.data().comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	return result, nil
}

type auditLogRepo struct{ *view }

func (r *auditLogRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	return r.CreateBatch(ctx, []domain.AuditLog{*entry})
}

func (r *auditLogRepo) CreateBatch(ctx context.Context, entries []domain.AuditLog) error {
	r.writer.Lock()
	defer r.writer.Unlock()
	d := r.data()
	d.auditLogs = append(d.auditLogs, entries...)
	return nil
}

func (r *auditLogRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.AuditLog{}
	for _, entry := range r.data().auditLogs {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func matches(ticket domain.Ticket, filter repository.TicketFilter) bool {
	if filter.RequesterID != nil && ticket.RequesterUserID != *filter.RequesterID {
		return false
	}
	if filter.AssignedTeam != nil && ticket.AssignedTeam != *filter.AssignedTeam {
		return false
	}
	if len(filter.Statuses) > 0 && !contains(filter.Statuses, ticket.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !contains(filter.Priorities, ticket.Priority) {
		return false
	}
	if filter.SLAStatus != nil && ticket.SLAStatus != *filter.SLAStatus {
		return false
	}
	if filter.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if term != "" && !strings.Contains(strings.ToLower(ticket.Title), term) &&
			!strings.Contains(strings.ToLower(ticket.Description), term) {
			return false
		}
	}
	return true
}

func contains[T comparable](items []T, v T) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func copyTicket(t domain.Ticket) domain.Ticket {
	t.KnowledgeSuggestions = append([]domain.KnowledgeSuggestion(nil), t.KnowledgeSuggestions...)
	return t
}
