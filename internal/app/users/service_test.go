package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"pickup-games/internal/apperrors"
	domainusers "pickup-games/internal/domain/users"
	"pickup-games/internal/store"
)

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestService() (*Service, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return NewService(st, nil, func() time.Time { return fixedNow }, 3), st
}

func TestUpsertProfileCreatesThenUpdates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.UpsertProfile(ctx, "u1", domainusers.ProfileUpdate{Name: "  Ana ", SkillLevel: "pro", Age: 30})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Name != "Ana" || u.Version != 1 || !u.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected user %+v", u)
	}

	u, err = svc.UpsertProfile(ctx, "u1", domainusers.ProfileUpdate{Name: "Ana B"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.Name != "Ana B" || u.Version != 2 {
		t.Fatalf("unexpected user after update %+v", u)
	}
}

func TestUpsertProfileKeepsRatings(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	seed := domainusers.User{ID: "u1", Name: "Old"}
	_ = seed.ReceiveRating("g1", "u2", 4, "", fixedNow)
	if _, err := st.SaveUser(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	u, err := svc.UpsertProfile(ctx, "u1", domainusers.ProfileUpdate{Name: "New"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if u.TotalRatings != 1 || u.AverageRating != 4 {
		t.Fatalf("expected rating summary preserved, got %+v", u)
	}
}

func TestUpsertProfileValidates(t *testing.T) {
	svc, _ := newTestService()
	cases := []domainusers.ProfileUpdate{
		{Name: ""},
		{Name: "Ok", Age: -1},
	}
	for _, p := range cases {
		if _, err := svc.UpsertProfile(context.Background(), "u1", p); apperrors.KindOf(err) != apperrors.KindValidation {
			t.Fatalf("expected validation error for %+v, got %v", p, err)
		}
	}
}

func TestGetMissingUser(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Get(context.Background(), "ghost"); !errors.Is(err, domainusers.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestProfileSnapshot(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Profile(ctx, "ghost")
	if err != nil || p.Name != "" {
		t.Fatalf("expected empty snapshot for unknown user, got %+v err=%v", p, err)
	}

	_, _ = svc.UpsertProfile(ctx, "u1", domainusers.ProfileUpdate{Name: "Ana", WhatsApp: "+34"})
	p, err = svc.Profile(ctx, "u1")
	if err != nil || p.Name != "Ana" || p.WhatsApp != "+34" {
		t.Fatalf("unexpected snapshot %+v err=%v", p, err)
	}
}

func TestRecordParticipation(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	if _, err := svc.UpsertProfile(ctx, "u1", domainusers.ProfileUpdate{Name: "Ana"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := svc.RecordParticipation(ctx, "u1", "g1"); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	u, _ := st.GetUser(ctx, "u1")
	if len(u.ActivityHistory) != 1 || u.ActivityHistory[0].GameID != "g1" || u.Version != 2 {
		t.Fatalf("expected one g1 entry written once, got %+v", u)
	}
	if u.Name != "Ana" {
		t.Fatalf("expected profile to survive, got %+v", u)
	}

	if err := svc.RecordParticipation(ctx, "ghost", "g1"); err != nil {
		t.Fatalf("record for unknown user: %v", err)
	}
	if ghost, err := st.GetUser(ctx, "ghost"); err != nil || len(ghost.ActivityHistory) != 1 {
		t.Fatalf("expected unknown user to be created with the entry, got %+v err=%v", ghost, err)
	}
}
