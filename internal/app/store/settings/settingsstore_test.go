package settingsstore_test

import (
	"testing"
	"time"

	settingsstore "github.com/dalemusser/hackhub/internal/app/store/settings"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"github.com/dalemusser/hackhub/internal/testutil"
)

func TestStore_Get_CreatesDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := settingsstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	settings, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if settings.MaxParticipants != models.DefaultMaxParticipants {
		t.Errorf("MaxParticipants: got %d, want %d", settings.MaxParticipants, models.DefaultMaxParticipants)
	}
	if settings.ID.IsZero() {
		t.Error("expected settings ID to be set")
	}
	for _, kind := range models.EmailKinds {
		if settings.EmailQueues[kind].Recipients == nil {
			t.Errorf("expected empty %s queue to exist", kind)
		}
	}

	// Second Get returns the same singleton
	again, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if again.ID != settings.ID {
		t.Error("expected Get to return the same singleton document")
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := settingsstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	open := time.Now().UTC().Truncate(time.Millisecond)
	closeAt := open.Add(48 * time.Hour)
	confirm := open.Add(96 * time.Hour)

	if err := store.Update(ctx, 150, open, closeAt, confirm); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	settings, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if settings.MaxParticipants != 150 {
		t.Errorf("MaxParticipants: got %d, want 150", settings.MaxParticipants)
	}
	if !settings.TimeConfirm.Equal(confirm) {
		t.Errorf("TimeConfirm: got %v, want %v", settings.TimeConfirm, confirm)
	}
}

func TestStore_QueuePush_Deduplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := settingsstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := store.QueuePush(ctx, models.EmailAcceptance, "a@example.com"); err != nil {
			t.Fatalf("QueuePush failed: %v", err)
		}
	}

	stats, err := store.QueueStats(ctx)
	if err != nil {
		t.Fatalf("QueueStats failed: %v", err)
	}
	if stats[models.EmailAcceptance] != 1 {
		t.Errorf("expected 1 queued recipient, got %d", stats[models.EmailAcceptance])
	}
}

func TestStore_QueuePullAll_RemovesFromEveryQueue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := settingsstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, kind := range models.EmailKinds {
		if err := store.QueuePush(ctx, kind, "gone@example.com"); err != nil {
			t.Fatalf("QueuePush(%s) failed: %v", kind, err)
		}
	}
	if err := store.QueuePush(ctx, models.EmailAcceptance, "stays@example.com"); err != nil {
		t.Fatalf("QueuePush failed: %v", err)
	}

	if err := store.QueuePullAll(ctx, "gone@example.com"); err != nil {
		t.Fatalf("QueuePullAll failed: %v", err)
	}

	settings, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	for _, kind := range models.EmailKinds {
		for _, r := range settings.EmailQueues[kind].Recipients {
			if r == "gone@example.com" {
				t.Errorf("expected gone@example.com removed from %s queue", kind)
			}
		}
	}
	if settings.EmailQueues[models.EmailAcceptance].Recipients[0] != "stays@example.com" {
		t.Error("expected other recipients to survive QueuePullAll")
	}
}

func TestStore_QueueDrain(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := settingsstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.QueuePush(ctx, models.EmailWaitlist, "w1@example.com"); err != nil {
		t.Fatalf("QueuePush failed: %v", err)
	}
	if err := store.QueuePush(ctx, models.EmailWaitlist, "w2@example.com"); err != nil {
		t.Fatalf("QueuePush failed: %v", err)
	}

	recipients, err := store.QueueDrain(ctx, models.EmailWaitlist)
	if err != nil {
		t.Fatalf("QueueDrain failed: %v", err)
	}
	if len(recipients) != 2 {
		t.Fatalf("expected 2 drained recipients, got %d", len(recipients))
	}

	settings, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(settings.EmailQueues[models.EmailWaitlist].Recipients) != 0 {
		t.Error("expected waitlist queue to be empty after drain")
	}
	if settings.EmailQueues[models.EmailWaitlist].LastFlushed == nil {
		t.Error("expected last_flushed to be recorded")
	}
}
