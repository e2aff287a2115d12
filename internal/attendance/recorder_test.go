package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
	"github.com/iliyamo/driving-lesson-scheduler/internal/repository"
)

// fakeStore keeps records keyed the way the SQL upserts are keyed:
// (student, slot) for slot marks, (student, day) for ad-hoc marks.
type fakeStore struct {
	nextID  uint64
	slotKey map[[2]uint64]*model.AttendanceRecord
	dayKey  map[string]*model.AttendanceRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		slotKey: map[[2]uint64]*model.AttendanceRecord{},
		dayKey:  map[string]*model.AttendanceRecord{},
	}
}

func (f *fakeStore) UpsertForSlot(ctx context.Context, studentID, slotID uint64, date, status string, markedBy uint64) (model.AttendanceRecord, error) {
	key := [2]uint64{studentID, slotID}
	if rec, ok := f.slotKey[key]; ok {
		rec.Status = status
		rec.MarkedBy = markedBy
		return *rec, nil
	}
	f.nextID++
	id := slotID
	rec := &model.AttendanceRecord{
		ID: f.nextID, StudentID: studentID, TimeSlotID: &id,
		Status: status, MarkedBy: markedBy, Date: date,
	}
	f.slotKey[key] = rec
	return *rec, nil
}

func (f *fakeStore) UpsertAdHoc(ctx context.Context, studentID uint64, date, status string, markedBy uint64) (model.AttendanceRecord, error) {
	key := fmt.Sprintf("%d|%s", studentID, date)
	if rec, ok := f.dayKey[key]; ok {
		rec.Status = status
		rec.MarkedBy = markedBy
		return *rec, nil
	}
	f.nextID++
	rec := &model.AttendanceRecord{
		ID: f.nextID, StudentID: studentID,
		Status: status, MarkedBy: markedBy, Date: date,
	}
	f.dayKey[key] = rec
	return *rec, nil
}

type fakeSlots map[uint64]model.TimeSlot

func (f fakeSlots) GetByID(ctx context.Context, id uint64) (model.TimeSlot, error) {
	s, ok := f[id]
	if !ok {
		return model.TimeSlot{}, repository.ErrSlotNotFound
	}
	return s, nil
}

type fakeDirectory map[uint64]string

func (f fakeDirectory) GetActiveByRole(ctx context.Context, id uint64, role string) (model.User, error) {
	if f[id] != role {
		return model.User{}, repository.ErrUserNotFound
	}
	return model.User{ID: id, Role: role, IsActive: true}, nil
}

func testRecorder(store Store, slots SlotGetter) *Recorder {
	r := NewRecorder(store, slots, fakeDirectory{1: model.RoleStudent})
	r.now = func() time.Time {
		return time.Date(2026, 9, 7, 14, 30, 0, 0, time.UTC)
	}
	return r
}

func slotID(id uint64) *uint64 { return &id }

func TestMarkForSlot(t *testing.T) {
	store := newFakeStore()
	slots := fakeSlots{5: {ID: 5, Date: "2026-09-10"}}
	r := testRecorder(store, slots)

	rec, err := r.Mark(context.Background(), MarkRequest{
		StudentID: 1, TimeSlotID: slotID(5), Status: model.AttendancePresent, MarkedBy: 9,
	})
	if err != nil {
		t.Fatalf("Mark: %v", err)
	}
	// The mark inherits the slot's day, not today.
	if rec.Date != "2026-09-10" {
		t.Errorf("Date = %s, want 2026-09-10", rec.Date)
	}
	if rec.TimeSlotID == nil || *rec.TimeSlotID != 5 {
		t.Errorf("TimeSlotID = %v, want 5", rec.TimeSlotID)
	}
	if rec.MarkedBy != 9 {
		t.Errorf("MarkedBy = %d, want 9", rec.MarkedBy)
	}
}

func TestMarkForSlotIsUpsert(t *testing.T) {
	store := newFakeStore()
	slots := fakeSlots{5: {ID: 5, Date: "2026-09-10"}}
	r := testRecorder(store, slots)
	ctx := context.Background()

	first, err := r.Mark(ctx, MarkRequest{StudentID: 1, TimeSlotID: slotID(5), Status: model.AttendanceAbsent, MarkedBy: 9})
	if err != nil {
		t.Fatalf("first Mark: %v", err)
	}
	second, err := r.Mark(ctx, MarkRequest{StudentID: 1, TimeSlotID: slotID(5), Status: model.AttendanceLate, MarkedBy: 10})
	if err != nil {
		t.Fatalf("second Mark: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second mark created a new record (id %d vs %d)", second.ID, first.ID)
	}
	if second.Status != model.AttendanceLate || second.MarkedBy != 10 {
		t.Errorf("record = %+v, want status LATE marked by 10", second)
	}
}

func TestMarkAdHocUsesToday(t *testing.T) {
	store := newFakeStore()
	r := testRecorder(store, fakeSlots{})

	rec, err := r.Mark(context.Background(), MarkRequest{
		StudentID: 1, Status: model.AttendancePresent, MarkedBy: 9,
	})
	if err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if rec.Date != "2026-09-07" {
		t.Errorf("Date = %s, want 2026-09-07", rec.Date)
	}
	if rec.TimeSlotID != nil {
		t.Errorf("TimeSlotID = %v, want nil for ad-hoc mark", rec.TimeSlotID)
	}
}

func TestMarkAdHocIsUpsertPerDay(t *testing.T) {
	store := newFakeStore()
	r := testRecorder(store, fakeSlots{})
	ctx := context.Background()

	first, _ := r.Mark(ctx, MarkRequest{StudentID: 1, Status: model.AttendancePresent, MarkedBy: 9})
	second, err := r.Mark(ctx, MarkRequest{StudentID: 1, Status: model.AttendanceAbsent, MarkedBy: 9})
	if err != nil {
		t.Fatalf("second Mark: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("same-day ad-hoc mark created a new record")
	}
	if second.Status != model.AttendanceAbsent {
		t.Errorf("Status = %s, want ABSENT", second.Status)
	}
}

func TestMarkRejectsBadInput(t *testing.T) {
	store := newFakeStore()
	r := testRecorder(store, fakeSlots{})
	ctx := context.Background()

	if _, err := r.Mark(ctx, MarkRequest{StudentID: 1, Status: "PRESNT"}); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bad status: err = %v, want ErrInvalidStatus", err)
	}
	if _, err := r.Mark(ctx, MarkRequest{StudentID: 42, Status: model.AttendancePresent}); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("unknown student: err = %v, want ErrUserNotFound", err)
	}
	if _, err := r.Mark(ctx, MarkRequest{StudentID: 1, TimeSlotID: slotID(99), Status: model.AttendancePresent}); !errors.Is(err, repository.ErrSlotNotFound) {
		t.Errorf("unknown slot: err = %v, want ErrSlotNotFound", err)
	}
	if len(store.slotKey)+len(store.dayKey) != 0 {
		t.Errorf("failed marks stored records")
	}
}
