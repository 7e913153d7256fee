package integration

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/medroute/medroute/internal/domain/booking"
	"github.com/medroute/medroute/internal/domain/identity"
	"github.com/medroute/medroute/internal/platform/db"
	"github.com/medroute/medroute/migrations"
)

func appointment(user, doctor, date, slot string) *booking.Appointment {
	return &booking.Appointment{
		Username:   user,
		Disease:    "Hypertension",
		Department: "Cardiology",
		Doctor:     doctor,
		Date:       date,
		TimeSlot:   slot,
	}
}

func TestPGStore_BookConflict(t *testing.T) {
	store := booking.NewPGStore(schemaPool(t))
	ctx := context.Background()

	first := appointment("alice", "Dr. Mehta", "2026-11-02", "10:00 AM")
	if err := store.Book(ctx, first); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if first.ID == 0 || first.CreatedAt.IsZero() {
		t.Errorf("expected id and created_at to be filled, got %+v", first)
	}

	err := store.Book(ctx, appointment("bob", "Dr. Mehta", "2026-11-02", "10:00 AM"))
	if !errors.Is(err, booking.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := store.Book(ctx, appointment("bob", "Dr. Mehta", "2026-11-02", "11:00 AM")); err != nil {
		t.Fatalf("different slot: %v", err)
	}
}

func TestPGStore_ConcurrentBookingsSameSlot(t *testing.T) {
	store := booking.NewPGStore(schemaPool(t))
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- store.Book(ctx, appointment(fmt.Sprintf("user%d", i), "Dr. Rao", "2026-11-05", "09:00 AM"))
		}(i)
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, booking.ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != n-1 {
		t.Errorf("expected 1 success and %d conflicts, got %d and %d", n-1, ok, conflicts)
	}
}

func TestPGStore_CancelIsOwnerScoped(t *testing.T) {
	store := booking.NewPGStore(schemaPool(t))
	ctx := context.Background()

	a := appointment("alice", "Dr. Mehta", "2026-11-02", "10:00 AM")
	if err := store.Book(ctx, a); err != nil {
		t.Fatal(err)
	}

	removed, err := store.Cancel(ctx, "bob", a.ID)
	if err != nil || removed {
		t.Fatalf("foreign cancel: removed=%v err=%v", removed, err)
	}
	removed, err = store.Cancel(ctx, "alice", a.ID)
	if err != nil || !removed {
		t.Fatalf("owner cancel: removed=%v err=%v", removed, err)
	}
	if err := store.Book(ctx, appointment("bob", "Dr. Mehta", "2026-11-02", "10:00 AM")); err != nil {
		t.Fatalf("rebook freed slot: %v", err)
	}
}

func TestPGStore_ListingAndSlots(t *testing.T) {
	store := booking.NewPGStore(schemaPool(t))
	ctx := context.Background()

	for _, a := range []*booking.Appointment{
		appointment("alice", "Dr. Mehta", "2026-11-01", "02:00 PM"),
		appointment("alice", "Dr. Mehta", "2026-11-03", "10:00 AM"),
		appointment("bob", "Dr. Mehta", "2026-11-03", "09:00 AM"),
	} {
		if err := store.Book(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	mine, err := store.ListByRequester(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 || mine[0].Date != "2026-11-03" {
		t.Errorf("expected alice's two appointments newest first, got %+v", mine)
	}

	page, total, err := store.ListAll(ctx, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("expected page of 2 from 3, got %d of %d", len(page), total)
	}
	// Same date: the later insert comes first.
	if page[0].Username != "bob" || page[1].TimeSlot != "10:00 AM" {
		t.Errorf("unexpected order %+v, %+v", page[0], page[1])
	}

	slots, err := store.BookedSlots(ctx, "Dr. Mehta", "2026-11-03")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"09:00 AM", "10:00 AM"}; !reflect.DeepEqual(slots, want) {
		t.Errorf("slots = %v, want %v", slots, want)
	}
	if slots, _ := store.BookedSlots(ctx, "Dr. Mehta", "2030-01-01"); len(slots) != 0 {
		t.Errorf("expected no slots, got %v", slots)
	}
}

func TestUserRepoPG(t *testing.T) {
	repo := identity.NewUserRepoPG(schemaPool(t))
	ctx := context.Background()

	u := &identity.User{Username: "alice", PasswordHash: "$2a$04$hash", Role: identity.RoleUser}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatal(err)
	}
	if u.ID == 0 {
		t.Error("expected id to be assigned")
	}
	if err := repo.Create(ctx, &identity.User{Username: "alice", PasswordHash: "x", Role: identity.RoleUser}); !errors.Is(err, identity.ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}

	got, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID || got.Role != identity.RoleUser {
		t.Errorf("unexpected user %+v", got)
	}
	if _, err := repo.GetByUsername(ctx, "nobody"); !errors.Is(err, identity.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPGMigrator_Idempotent(t *testing.T) {
	pool := schemaPool(t)
	ctx := context.Background()

	m := db.NewPGMigrator(pool, migrations.Postgres())
	n, err := m.Up(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected no pending migrations, applied %d", n)
	}
	statuses, err := m.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Errorf("migration %d %s not applied", s.Version, s.Name)
		}
	}
	if stats := db.GetPoolStats(pool); !stats.Healthy {
		t.Errorf("expected healthy pool, got %+v", stats)
	}
}
