package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	repository "github.com/luiz-cesar-ti/agendamento-obj-v2/internal/database/postgres"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

var baseTime = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

// memStore is an in-memory stand-in for the relational store.
type memStore struct {
	equipment   map[string]*entity.Equipment
	bookings    map[string]*entity.Booking
	allocations []entity.BookingEquipment
	help        *entity.HelpContent
	seq         int

	// failure injection
	failInsertAllocations error
	createNoRow           bool

	lockedDates []string
}

func newMemStore() *memStore {
	return &memStore{
		equipment: make(map[string]*entity.Equipment),
		bookings:  make(map[string]*entity.Booking),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) addEquipment(name string, total int) *entity.Equipment {
	e := &entity.Equipment{
		ID:            s.nextID("eq"),
		Name:          name,
		TotalQuantity: total,
		Category:      "general",
	}
	s.equipment[e.ID] = e
	return e
}

// addBooking inserts a booking directly, bypassing the service.
func (s *memStore) addBooking(date, start, end string, status entity.BookingStatus, items ...entity.BookingEquipment) *entity.Booking {
	b := &entity.Booking{
		ID:          s.nextID("b"),
		FullName:    "Prof. Test",
		Classroom:   "101",
		BookingDate: date,
		StartTime:   entity.ClockTime(start),
		EndTime:     entity.ClockTime(end),
		Status:      status,
		CreatedAt:   baseTime.Add(time.Duration(s.seq) * time.Second),
	}
	s.bookings[b.ID] = b
	for _, item := range items {
		item.ID = s.nextID("be")
		item.BookingID = b.ID
		s.allocations = append(s.allocations, item)
	}
	return b
}

func alloc(e *entity.Equipment, qty int) entity.BookingEquipment {
	return entity.BookingEquipment{EquipmentID: e.ID, Quantity: qty}
}

type memSnapshot struct {
	equipment   map[string]entity.Equipment
	bookings    map[string]entity.Booking
	allocations []entity.BookingEquipment
	help        *entity.HelpContent
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		equipment:   make(map[string]entity.Equipment, len(s.equipment)),
		bookings:    make(map[string]entity.Booking, len(s.bookings)),
		allocations: append([]entity.BookingEquipment(nil), s.allocations...),
	}
	for id, e := range s.equipment {
		snap.equipment[id] = *e
	}
	for id, b := range s.bookings {
		snap.bookings[id] = *b
	}
	if s.help != nil {
		h := *s.help
		snap.help = &h
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.equipment = make(map[string]*entity.Equipment, len(snap.equipment))
	for id, e := range snap.equipment {
		e := e
		s.equipment[id] = &e
	}
	s.bookings = make(map[string]*entity.Booking, len(snap.bookings))
	for id, b := range snap.bookings {
		b := b
		s.bookings[id] = &b
	}
	s.allocations = snap.allocations
	s.help = snap.help
}

func (s *memStore) repos() repository.Repositories {
	return repository.Repositories{
		Equipment: &memEquipmentRepo{s: s},
		Bookings:  &memBookingRepo{s: s},
		Settings:  &memSettingsRepo{s: s},
	}
}

// memTransactor restores the store snapshot when fn fails.
type memTransactor struct {
	s       *memStore
	commits int
}

func (t *memTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	snap := t.s.snapshot()
	if err := fn(ctx, t.s.repos()); err != nil {
		t.s.restore(snap)
		return err
	}
	t.commits++
	return nil
}

type memEquipmentRepo struct{ s *memStore }

func (r *memEquipmentRepo) Create(ctx context.Context, e *entity.Equipment) error {
	e.ID = r.s.nextID("eq")
	e.CreatedAt = baseTime
	e.UpdatedAt = baseTime
	cp := *e
	r.s.equipment[e.ID] = &cp
	return nil
}

func (r *memEquipmentRepo) GetByID(ctx context.Context, id string) (*entity.Equipment, error) {
	e, ok := r.s.equipment[id]
	if !ok {
		return nil, entity.ErrEquipmentNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *memEquipmentRepo) GetAll(ctx context.Context) ([]*entity.Equipment, error) {
	out := make([]*entity.Equipment, 0, len(r.s.equipment))
	for _, e := range r.s.equipment {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memEquipmentRepo) Update(ctx context.Context, e *entity.Equipment) error {
	if _, ok := r.s.equipment[e.ID]; !ok {
		return entity.ErrEquipmentNotFound
	}
	cp := *e
	r.s.equipment[e.ID] = &cp
	return nil
}

func (r *memEquipmentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.s.equipment[id]; !ok {
		return entity.ErrEquipmentNotFound
	}
	for _, a := range r.s.allocations {
		if a.EquipmentID == id {
			return entity.ErrEquipmentInUse
		}
	}
	delete(r.s.equipment, id)
	return nil
}

type memBookingRepo struct{ s *memStore }

func (r *memBookingRepo) withAllocations(b *entity.Booking) *entity.Booking {
	cp := *b
	cp.Equipment = make([]entity.BookingEquipment, 0)
	for _, a := range r.s.allocations {
		if a.BookingID == b.ID {
			if e, ok := r.s.equipment[a.EquipmentID]; ok {
				a.EquipmentName = e.Name
			}
			cp.Equipment = append(cp.Equipment, a)
		}
	}
	return &cp
}

func (r *memBookingRepo) Create(ctx context.Context, b *entity.Booking) error {
	if r.s.createNoRow {
		return entity.ErrWriteNotConfirmed
	}
	b.ID = r.s.nextID("b")
	b.CreatedAt = baseTime.Add(time.Duration(r.s.seq) * time.Second)
	b.UpdatedAt = b.CreatedAt
	cp := *b
	cp.Equipment = nil
	r.s.bookings[b.ID] = &cp
	return nil
}

func (r *memBookingRepo) GetByID(ctx context.Context, id string) (*entity.Booking, error) {
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, entity.ErrBookingNotFound
	}
	return r.withAllocations(b), nil
}

func (r *memBookingRepo) GetWithLock(ctx context.Context, id string) (*entity.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *memBookingRepo) Update(ctx context.Context, b *entity.Booking) error {
	if _, ok := r.s.bookings[b.ID]; !ok {
		return entity.ErrBookingNotFound
	}
	cp := *b
	cp.Equipment = nil
	r.s.bookings[b.ID] = &cp
	return nil
}

func (r *memBookingRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.s.bookings[id]; !ok {
		return entity.ErrBookingNotFound
	}
	delete(r.s.bookings, id)
	return r.DeleteAllocations(ctx, id)
}

func (r *memBookingRepo) List(ctx context.Context, filter entity.BookingFilter) ([]*entity.Booking, error) {
	out := make([]*entity.Booking, 0)
	for _, b := range r.s.bookings {
		if filter.Date != "" && b.BookingDate != filter.Date {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, r.withAllocations(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.Date != "" {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memBookingRepo) InsertAllocations(ctx context.Context, bookingID string, items []entity.BookingEquipment) error {
	if r.s.failInsertAllocations != nil {
		return r.s.failInsertAllocations
	}
	for _, item := range items {
		if _, ok := r.s.equipment[item.EquipmentID]; !ok {
			return entity.ErrEquipmentNotFound
		}
		item.ID = r.s.nextID("be")
		item.BookingID = bookingID
		r.s.allocations = append(r.s.allocations, item)
	}
	return nil
}

func (r *memBookingRepo) DeleteAllocations(ctx context.Context, bookingID string) error {
	kept := r.s.allocations[:0:0]
	for _, a := range r.s.allocations {
		if a.BookingID != bookingID {
			kept = append(kept, a)
		}
	}
	r.s.allocations = kept
	return nil
}

func (r *memBookingRepo) allocationsWhere(match func(b *entity.Booking) bool) []entity.Allocation {
	out := make([]entity.Allocation, 0)
	for _, a := range r.s.allocations {
		b, ok := r.s.bookings[a.BookingID]
		if !ok || !b.Status.IsActive() || !match(b) {
			continue
		}
		out = append(out, entity.Allocation{BookingID: a.BookingID, EquipmentID: a.EquipmentID, Quantity: a.Quantity})
	}
	return out
}

func (r *memBookingRepo) ActiveAllocationsOverlapping(ctx context.Context, date string, start, end entity.ClockTime, excludeBookingID string) ([]entity.Allocation, error) {
	return r.allocationsWhere(func(b *entity.Booking) bool {
		return b.ID != excludeBookingID && b.OverlapsWindow(date, start, end)
	}), nil
}

func (r *memBookingRepo) ActiveAllocationsAt(ctx context.Context, date string, at entity.ClockTime) ([]entity.Allocation, error) {
	return r.allocationsWhere(func(b *entity.Booking) bool {
		return b.BookingDate == date && b.StartTime <= at && at < b.EndTime
	}), nil
}

func (r *memBookingRepo) ExpireStale(ctx context.Context, date string, now entity.ClockTime) (int64, error) {
	var n int64
	for _, b := range r.s.bookings {
		if b.IsStale(date, now) {
			b.Status = entity.BookingStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *memBookingRepo) CountAll(ctx context.Context) (int64, error) {
	return int64(len(r.s.bookings)), nil
}

func (r *memBookingRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	for _, b := range r.s.bookings {
		if b.Status.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r *memBookingRepo) EquipmentTotals(ctx context.Context) ([]entity.EquipmentCount, error) {
	sums := make(map[string]int64)
	for _, a := range r.s.allocations {
		if e, ok := r.s.equipment[a.EquipmentID]; ok {
			sums[e.Name] += int64(a.Quantity)
		}
	}
	out := make([]entity.EquipmentCount, 0, len(sums))
	for name, count := range sums {
		out = append(out, entity.EquipmentCount{Name: name, Count: count})
	}
	return out, nil
}

func (r *memBookingRepo) LockDate(ctx context.Context, date string) error {
	r.s.lockedDates = append(r.s.lockedDates, date)
	return nil
}

type memSettingsRepo struct{ s *memStore }

func (r *memSettingsRepo) GetHelp(ctx context.Context) (*entity.HelpContent, error) {
	if r.s.help == nil {
		return &entity.HelpContent{ID: 1}, nil
	}
	cp := *r.s.help
	return &cp, nil
}

func (r *memSettingsRepo) UpsertHelp(ctx context.Context, h *entity.HelpContent) error {
	h.ID = 1
	h.UpdatedAt = baseTime
	cp := *h
	r.s.help = &cp
	return nil
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

// recordingCache is a map-backed ViewCache that remembers invalidations.
// Like the Redis cache it keys entries by a per-view generation.
type recordingCache struct {
	mu          sync.Mutex
	entries     map[string]interface{}
	generations map[entity.View]int
	invalidated []entity.View
	sets        int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		entries:     make(map[string]interface{}),
		generations: make(map[entity.View]int),
	}
}

func (c *recordingCache) Get(ctx context.Context, view entity.View, key string, dest interface{}) (bool, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	token := fmt.Sprintf("%s|%d|%s", view, c.generations[view], key)
	v, ok := c.entries[token]
	if !ok {
		return false, token, nil
	}
	switch d := dest.(type) {
	case *[]*entity.Equipment:
		*d = v.([]*entity.Equipment)
	case **entity.DashboardStats:
		*d = v.(*entity.DashboardStats)
	case *[]entity.EquipmentAvailability:
		*d = v.([]entity.EquipmentAvailability)
	case **entity.HelpContent:
		*d = v.(*entity.HelpContent)
	default:
		return false, "", nil
	}
	return true, token, nil
}

func (c *recordingCache) Set(ctx context.Context, token string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[token] = value
	c.sets++
	return nil
}

func (c *recordingCache) Invalidate(ctx context.Context, views ...entity.View) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, views...)
	for _, v := range views {
		c.generations[v]++
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := message.(BookingEvent); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type chanNotifier struct {
	messages chan string
}

func (n *chanNotifier) NotifyAdmins(ctx context.Context, text string) error {
	n.messages <- text
	return nil
}

// fixture wires every service over one memStore.
type fixture struct {
	store     *memStore
	tx        *memTransactor
	clock     *fakeClock
	cache     *recordingCache
	events    *recordingPublisher
	bookings  BookingService
	avail     AvailabilityService
	dashboard DashboardService
	equipment EquipmentService
	help      HelpService
}

func newFixture(opts BookingOptions) *fixture {
	store := newMemStore()
	repos := store.repos()
	f := &fixture{
		store:  store,
		tx:     &memTransactor{s: store},
		clock:  &fakeClock{now: baseTime},
		cache:  newRecordingCache(),
		events: &recordingPublisher{},
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	f.bookings = NewBookingService(f.tx, repos.Bookings, f.cache, f.events, nil, f.clock, opts)
	f.avail = NewAvailabilityService(repos.Equipment, repos.Bookings, NewNoopViewCache(), f.clock, time.UTC)
	f.dashboard = NewDashboardService(repos.Bookings, f.cache)
	f.equipment = NewEquipmentService(repos.Equipment, f.cache)
	f.help = NewHelpService(repos.Settings, f.cache)
	return f
}

func enforced() BookingOptions {
	return BookingOptions{EnforceAvailability: true}
}
