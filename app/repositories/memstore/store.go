// Package memstore keeps every collection in process memory. It backs
// DB_DRIVER=memory and the test suites.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/app/repositories"
)

type data struct {
	users     map[string]models.User
	medicines map[string]models.Medicine
	checkups  map[string]models.Checkup
	leads     map[string]models.Lead
}

func (d *data) clone() *data {
	c := &data{
		users:     make(map[string]models.User, len(d.users)),
		medicines: make(map[string]models.Medicine, len(d.medicines)),
		checkups:  make(map[string]models.Checkup, len(d.checkups)),
		leads:     make(map[string]models.Lead, len(d.leads)),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.medicines {
		c.medicines[k] = v
	}
	for k, v := range d.checkups {
		c.checkups[k] = v
	}
	for k, v := range d.leads {
		c.leads[k] = v
	}
	return c
}

// Store is safe for concurrent use. Transactions are serialised.
type Store struct {
	mu   *sync.Mutex
	d    **data
	inTx bool
	now  func() time.Time
}

var _ repositories.Store = (*Store)(nil)

func New() *Store {
	d := &data{
		users:     map[string]models.User{},
		medicines: map[string]models.Medicine{},
		checkups:  map[string]models.Checkup{},
		leads:     map[string]models.Lead{},
	}
	return &Store{mu: &sync.Mutex{}, d: &d, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) data() *data { return *s.d }

func (s *Store) Users() repositories.UserRepository         { return userRepo{s} }
func (s *Store) Medicines() repositories.MedicineRepository { return medicineRepo{s} }
func (s *Store) Checkups() repositories.CheckupRepository   { return checkupRepo{s} }
func (s *Store) Leads() repositories.LeadRepository         { return leadRepo{s} }

// WithTx holds the store lock for the whole of fn and restores the previous
// state when fn fails.
func (s *Store) WithTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data().clone()
	tx := &Store{mu: s.mu, d: s.d, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.d = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		*s.d = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }

// ─── users ────────────────────────────────────────────────────────────────────

type userRepo struct{ s *Store }

func (r userRepo) List(context.Context) ([]models.User, error) {
	defer r.s.lock()()
	out := make([]models.User, 0, len(r.s.data().users))
	for _, u := range r.s.data().users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (r userRepo) FindByID(_ context.Context, id string) (models.User, error) {
	defer r.s.lock()()
	u, ok := r.s.data().users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return u, nil
}

func (r userRepo) FindByUsername(_ context.Context, username string) (models.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.data().users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (r userRepo) CountByRole(_ context.Context, role string) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, u := range r.s.data().users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (r userRepo) Create(_ context.Context, u *models.User) error {
	defer r.s.lock()()
	for _, existing := range r.s.data().users {
		if existing.Username == u.Username {
			return repositories.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = repositories.NewID()
	}
	now := r.s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.data().users[u.ID] = *u
	return nil
}

func (r userRepo) UpdatePassword(_ context.Context, id, hash string) error {
	defer r.s.lock()()
	u, ok := r.s.data().users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Password = hash
	u.UpdatedAt = r.s.now()
	r.s.data().users[id] = u
	return nil
}

func (r userRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	if _, ok := r.s.data().users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.data().users, id)
	return nil
}

// ─── medicines ────────────────────────────────────────────────────────────────

type medicineRepo struct{ s *Store }

func (r medicineRepo) List(_ context.Context, f models.MedicineFilter) ([]models.Medicine, error) {
	defer r.s.lock()()
	q := strings.ToLower(f.Query)
	out := make([]models.Medicine, 0, len(r.s.data().medicines))
	for _, m := range r.s.data().medicines {
		if q != "" && !strings.Contains(strings.ToLower(m.Name), q) {
			continue
		}
		if f.LowStock && !m.LowStock(f.Below) {
			continue
		}
		out = append(out, copyMedicine(m))
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (r medicineRepo) FindByID(_ context.Context, id string) (models.Medicine, error) {
	defer r.s.lock()()
	m, ok := r.s.data().medicines[id]
	if !ok {
		return models.Medicine{}, repositories.ErrNotFound
	}
	return copyMedicine(m), nil
}

func (r medicineRepo) byName(name string) (models.Medicine, bool) {
	for _, m := range r.s.data().medicines {
		if m.Name == name {
			return m, true
		}
	}
	return models.Medicine{}, false
}

func (r medicineRepo) Create(_ context.Context, m *models.Medicine) error {
	defer r.s.lock()()
	if _, taken := r.byName(m.Name); taken {
		return repositories.ErrDuplicate
	}
	if m.ID == "" {
		m.ID = repositories.NewID()
	}
	now := r.s.now()
	m.CreatedAt, m.UpdatedAt = now, now
	r.s.data().medicines[m.ID] = copyMedicine(*m)
	return nil
}

func (r medicineRepo) Update(_ context.Context, m *models.Medicine) error {
	defer r.s.lock()()
	old, ok := r.s.data().medicines[m.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if other, taken := r.byName(m.Name); taken && other.ID != m.ID {
		return repositories.ErrDuplicate
	}
	m.CreatedAt = old.CreatedAt
	m.UpdatedAt = r.s.now()
	r.s.data().medicines[m.ID] = copyMedicine(*m)
	return nil
}

func (r medicineRepo) UpsertByName(_ context.Context, rows []models.Medicine) (int, error) {
	defer r.s.lock()()
	for _, row := range rows {
		now := r.s.now()
		if existing, ok := r.byName(row.Name); ok {
			row.ID = existing.ID
			row.CreatedAt = existing.CreatedAt
		} else {
			row.ID = repositories.NewID()
			row.CreatedAt = now
		}
		row.UpdatedAt = now
		r.s.data().medicines[row.ID] = copyMedicine(row)
	}
	return len(rows), nil
}

func copyMedicine(m models.Medicine) models.Medicine {
	if m.AdditionalInfo != nil {
		info := make(map[string]string, len(m.AdditionalInfo))
		for k, v := range m.AdditionalInfo {
			info[k] = v
		}
		m.AdditionalInfo = info
	}
	return m
}

// ─── checkups ─────────────────────────────────────────────────────────────────

type checkupRepo struct{ s *Store }

func (r checkupRepo) List(context.Context) ([]models.Checkup, error) {
	defer r.s.lock()()
	out := make([]models.Checkup, 0, len(r.s.data().checkups))
	for _, c := range r.s.data().checkups {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (r checkupRepo) Create(_ context.Context, c *models.Checkup) error {
	defer r.s.lock()()
	if c.ID == "" {
		c.ID = repositories.NewID()
	}
	c.CreatedAt = r.s.now()
	r.s.data().checkups[c.ID] = *c
	return nil
}

// ─── leads ────────────────────────────────────────────────────────────────────

type leadRepo struct{ s *Store }

func (r leadRepo) List(_ context.Context, status string) ([]models.Lead, error) {
	defer r.s.lock()()
	out := make([]models.Lead, 0, len(r.s.data().leads))
	for _, l := range r.s.data().leads {
		if status != "" && l.Status != status {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (r leadRepo) FindByID(_ context.Context, id string) (models.Lead, error) {
	defer r.s.lock()()
	l, ok := r.s.data().leads[id]
	if !ok {
		return models.Lead{}, repositories.ErrNotFound
	}
	return l, nil
}

func (r leadRepo) byKey(key string) (models.Lead, bool) {
	for _, l := range r.s.data().leads {
		if l.ContactKey == key {
			return l, true
		}
	}
	return models.Lead{}, false
}

func (r leadRepo) FindByContactKey(_ context.Context, key string) (models.Lead, error) {
	defer r.s.lock()()
	l, ok := r.byKey(key)
	if !ok {
		return models.Lead{}, repositories.ErrNotFound
	}
	return l, nil
}

func (r leadRepo) Insert(_ context.Context, l *models.Lead) error {
	defer r.s.lock()()
	if _, taken := r.byKey(l.ContactKey); taken {
		return repositories.ErrDuplicate
	}
	if l.ID == "" {
		l.ID = repositories.NewID()
	}
	now := r.s.now()
	l.CreatedAt, l.UpdatedAt = now, now
	r.s.data().leads[l.ID] = *l
	return nil
}

func (r leadRepo) Update(_ context.Context, l *models.Lead) error {
	defer r.s.lock()()
	old, ok := r.s.data().leads[l.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if other, taken := r.byKey(l.ContactKey); taken && other.ID != l.ID {
		return repositories.ErrDuplicate
	}
	l.CreatedAt = old.CreatedAt
	l.UpdatedAt = r.s.now()
	r.s.data().leads[l.ID] = *l
	return nil
}

func (r leadRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	if _, ok := r.s.data().leads[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.data().leads, id)
	return nil
}

// newer orders by creation time descending, then id descending. ObjectIDs
// grow monotonically, so ties keep insertion order reversed.
func newer(ta time.Time, ida string, tb time.Time, idb string) bool {
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return ida > idb
}
