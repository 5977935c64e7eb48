package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/HeZaoCha/ParkingManagement/internal/model"
)

// memStore is an in-memory Store used to exercise the coordinator without
// MySQL.  It models the same semantics the production store gets from
// InnoDB: plain reads come from a snapshot taken at Begin, locking
// operations block on (or skip) rows held by other transactions and
// observe the latest committed state, and only Commit publishes a
// transaction's writes.  Row locks are held until Commit or Rollback.
type memStore struct {
	mu     sync.Mutex
	cond   *sync.Cond
	nextID uint64
	locks  map[string]*memTx

	facilities map[uint64]model.Facility
	spaces     map[uint64]model.Space
	records    map[uint64]model.Record
	vehicles   map[uint64]model.Vehicle
	schedules  map[uint64]model.RateSchedule // keyed by facility ID
	vips       map[string]model.VIPVehicle   // keyed by normalized plate
}

func newMemStore() *memStore {
	s := &memStore{
		locks:      make(map[string]*memTx),
		facilities: make(map[uint64]model.Facility),
		spaces:     make(map[uint64]model.Space),
		records:    make(map[uint64]model.Record),
		vehicles:   make(map[uint64]model.Vehicle),
		schedules:  make(map[uint64]model.RateSchedule),
		vips:       make(map[string]model.VIPVehicle),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *memStore) id() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID
}

func spaceKey(id uint64) string  { return "space:" + strconv.FormatUint(id, 10) }
func recordKey(id uint64) string { return "record:" + strconv.FormatUint(id, 10) }
func plateKey(p string) string   { return "plate:" + p }

// acquire blocks until the row is free or already owned by tx, then locks
// it.  Mirrors a plain FOR UPDATE.
func (s *memStore) acquire(tx *memTx, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		owner, held := s.locks[key]
		if !held || owner == tx {
			break
		}
		s.cond.Wait()
	}
	if s.locks[key] != tx {
		s.locks[key] = tx
		tx.held = append(tx.held, key)
	}
}

// tryAcquire locks the row without blocking, reporting whether it could.
// Mirrors FOR UPDATE SKIP LOCKED on a single row.
func (s *memStore) tryAcquire(tx *memTx, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, held := s.locks[key]
	if held && owner != tx {
		return false
	}
	if !held {
		s.locks[key] = tx
		tx.held = append(tx.held, key)
	}
	return true
}

// releaseLocks drops every lock tx holds.  Caller must hold s.mu.
func (s *memStore) releaseLocks(tx *memTx) {
	for _, k := range tx.held {
		delete(s.locks, k)
	}
	tx.held = nil
	s.cond.Broadcast()
}

// seed helpers run outside any transaction; tests call them before the
// coordinator starts.

func (s *memStore) addFacility(name string, rateCents int64, active bool) uint64 {
	id := s.id()
	s.facilities[id] = model.Facility{ID: id, Name: name, HourlyRateCents: rateCents, IsActive: active}
	return id
}

func (s *memStore) addSpace(facilityID uint64, number, class string, occupied, reserved bool) uint64 {
	id := s.id()
	s.spaces[id] = model.Space{
		ID: id, FacilityID: facilityID, SpaceNumber: number,
		SpaceClass: class, IsOccupied: occupied, IsReserved: reserved,
	}
	return id
}

func (s *memStore) setSchedule(facilityID uint64, sched model.RateSchedule) {
	sched.FacilityID = facilityID
	s.schedules[facilityID] = sched
}

func (s *memStore) addVIP(plate string, rate float64, until *time.Time) {
	s.vips[plate] = model.VIPVehicle{
		LicensePlate: plate, DiscountRate: rate,
		ValidFrom: time.Time{}, ValidUntil: until, IsActive: true,
	}
}

func (s *memStore) Begin(ctx context.Context) (Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &memTx{
		store:         s,
		facilities:    cloneMap(s.facilities),
		spaces:        cloneMap(s.spaces),
		records:       cloneMap(s.records),
		vehicles:      cloneMap(s.vehicles),
		schedules:     cloneMap(s.schedules),
		vips:          cloneMap(s.vips),
		dirtySpaces:   make(map[uint64]bool),
		dirtyRecords:  make(map[uint64]bool),
		dirtyVehicles: make(map[uint64]bool),
	}, nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// memTx works on the Begin snapshot.  Locking reads refresh the touched
// rows from committed state; writes stay in the snapshot maps, flagged
// dirty, until Commit copies them back.
type memTx struct {
	store *memStore
	done  bool
	held  []string

	facilities map[uint64]model.Facility
	spaces     map[uint64]model.Space
	records    map[uint64]model.Record
	vehicles   map[uint64]model.Vehicle
	schedules  map[uint64]model.RateSchedule
	vips       map[string]model.VIPVehicle

	dirtySpaces   map[uint64]bool
	dirtyRecords  map[uint64]bool
	dirtyVehicles map[uint64]bool
}

func (t *memTx) Commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if !t.done {
		for id := range t.dirtySpaces {
			t.store.spaces[id] = t.spaces[id]
		}
		for id := range t.dirtyRecords {
			t.store.records[id] = t.records[id]
		}
		for id := range t.dirtyVehicles {
			t.store.vehicles[id] = t.vehicles[id]
		}
		t.store.releaseLocks(t)
		t.done = true
	}
	return nil
}

func (t *memTx) Rollback() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if !t.done {
		t.store.releaseLocks(t)
		t.done = true
	}
	return nil
}

func (t *memTx) writeSpace(sp model.Space) {
	t.spaces[sp.ID] = sp
	t.dirtySpaces[sp.ID] = true
}

func (t *memTx) FacilityByID(ctx context.Context, id uint64) (*model.Facility, error) {
	f, ok := t.facilities[id]
	if !ok {
		return nil, ErrFacilityNotFound
	}
	return &f, nil
}

func (t *memTx) ClaimSpace(ctx context.Context, facilityID, spaceID uint64) (*model.Space, error) {
	if spaceID != 0 {
		if !t.store.tryAcquire(t, spaceKey(spaceID)) {
			return nil, ErrSpaceUnavailable
		}
		t.store.mu.Lock()
		sp, ok := t.store.spaces[spaceID]
		t.store.mu.Unlock()
		if !ok || sp.FacilityID != facilityID || sp.IsOccupied || sp.IsReserved {
			return nil, ErrSpaceUnavailable
		}
		sp.IsOccupied = true
		t.writeSpace(sp)
		return &sp, nil
	}

	// Ascending space-number scan over committed state, skipping rows
	// other transactions hold locked.
	t.store.mu.Lock()
	candidates := make([]model.Space, 0)
	for id, sp := range t.store.spaces {
		if sp.FacilityID != facilityID || sp.IsOccupied || sp.IsReserved {
			continue
		}
		if owner, held := t.store.locks[spaceKey(id)]; held && owner != t {
			continue
		}
		candidates = append(candidates, sp)
	}
	if len(candidates) == 0 {
		t.store.mu.Unlock()
		return nil, ErrNoAvailableSpace
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].SpaceNumber < candidates[j].SpaceNumber })
	sp := candidates[0]
	if t.store.locks[spaceKey(sp.ID)] != t {
		t.store.locks[spaceKey(sp.ID)] = t
		t.held = append(t.held, spaceKey(sp.ID))
	}
	t.store.mu.Unlock()

	sp.IsOccupied = true
	t.writeSpace(sp)
	return &sp, nil
}

func (t *memTx) ReleaseSpace(ctx context.Context, spaceID uint64) error {
	t.store.acquire(t, spaceKey(spaceID))
	sp, ok := t.spaces[spaceID]
	if !ok || !t.dirtySpaces[spaceID] {
		t.store.mu.Lock()
		sp, ok = t.store.spaces[spaceID]
		t.store.mu.Unlock()
	}
	if ok && sp.IsOccupied {
		sp.IsOccupied = false
		t.writeSpace(sp)
	}
	return nil
}

func (t *memTx) SpaceByID(ctx context.Context, id uint64) (*model.Space, error) {
	sp, ok := t.spaces[id]
	if !ok {
		return nil, ErrSpaceUnavailable
	}
	return &sp, nil
}

// committedOpenRecordID finds the open record for a plate in committed
// state.  Caller must not hold s.mu.
func (t *memTx) committedOpenRecordID(plate string) (uint64, bool) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for id, rec := range t.store.records {
		if rec.ExitTime != nil {
			continue
		}
		if veh, ok := t.store.vehicles[rec.VehicleID]; ok && veh.LicensePlate == plate {
			return id, true
		}
	}
	return 0, false
}

func (t *memTx) OpenRecordByPlate(ctx context.Context, plate string, lock bool) (*model.Record, error) {
	if !lock {
		// Snapshot read, like a plain SELECT under repeatable read.
		for _, rec := range t.records {
			if rec.ExitTime != nil {
				continue
			}
			if veh, ok := t.vehicles[rec.VehicleID]; ok && veh.LicensePlate == plate {
				r := rec
				return &r, nil
			}
		}
		return nil, nil
	}

	// Locking read: serialize on the plate, then on the record row, and
	// read whatever is committed once both are held.
	t.store.acquire(t, plateKey(plate))
	id, ok := t.committedOpenRecordID(plate)
	if !ok {
		return nil, nil
	}
	t.store.acquire(t, recordKey(id))
	t.store.mu.Lock()
	rec := t.store.records[id]
	t.store.mu.Unlock()
	if rec.ExitTime != nil {
		return nil, nil
	}
	t.records[id] = rec
	return &rec, nil
}

func (t *memTx) RecordByID(ctx context.Context, id uint64, lock bool) (*model.Record, error) {
	if lock {
		t.store.acquire(t, recordKey(id))
		t.store.mu.Lock()
		rec, ok := t.store.records[id]
		t.store.mu.Unlock()
		if !ok {
			return nil, ErrRecordNotFound
		}
		t.records[id] = rec
		return &rec, nil
	}
	rec, ok := t.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

func (t *memTx) CreateRecord(ctx context.Context, rec *model.Record) error {
	rec.ID = t.store.id()
	t.records[rec.ID] = *rec
	t.dirtyRecords[rec.ID] = true
	return nil
}

func (t *memTx) CloseRecord(ctx context.Context, rec *model.Record) error {
	t.records[rec.ID] = *rec
	t.dirtyRecords[rec.ID] = true
	return nil
}

func (t *memTx) GetOrCreateVehicle(ctx context.Context, plate, vehicleType string) (*model.Vehicle, error) {
	// The plate lock stands in for the row lock on an existing vehicle
	// and for the unique-index serialization on a brand-new one.
	t.store.acquire(t, plateKey(plate))
	t.store.mu.Lock()
	for id, v := range t.store.vehicles {
		if v.LicensePlate == plate {
			t.vehicles[id] = v
			t.store.mu.Unlock()
			veh := v
			return &veh, nil
		}
	}
	t.store.mu.Unlock()

	veh := model.Vehicle{ID: t.store.id(), LicensePlate: plate, VehicleType: vehicleType}
	t.vehicles[veh.ID] = veh
	t.dirtyVehicles[veh.ID] = true
	return &veh, nil
}

func (t *memTx) VehicleByID(ctx context.Context, id uint64) (*model.Vehicle, error) {
	v, ok := t.vehicles[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &v, nil
}

func (t *memTx) ScheduleForFacility(ctx context.Context, facilityID uint64) (*model.RateSchedule, error) {
	s, ok := t.schedules[facilityID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (t *memTx) VIPByPlate(ctx context.Context, plate string, at time.Time) (*model.VIPVehicle, error) {
	v, ok := t.vips[plate]
	if !ok || !v.ValidAt(at) {
		return nil, nil
	}
	return &v, nil
}
