package registry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"pgregory.net/rapid"

	"github.com/mcoot/friendapi/internal/dependencies/mocks"
	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/storage/memory"
	"github.com/mcoot/friendapi/internal/testutil"
)

// TestIDsStayUnique drives the registry through random operation sequences
// and checks that ids are unique and storage matches memory after each step
func TestIDsStayUnique(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()

		profiles := make([]model.FriendEntry, 6)
		for i := range profiles {
			profiles[i] = model.FriendEntry{Name: fmt.Sprintf("Player%d", i), ID: uuid.New()}
		}
		res := mocks.NewMockResolver(profiles...)
		store := memory.New()
		reg := New(store, res, mocks.NewMockClock(time.Unix(0, 0)), testutil.NopLogger())

		pick := func(label string) model.FriendEntry {
			return profiles[rapid.IntRange(0, len(profiles)-1).Draw(t, label)]
		}

		t.Repeat(map[string]func(*rapid.T){
			"addByName": func(t *rapid.T) {
				p := pick("profile")
				_, err := reg.AddByName(ctx, p.Name)
				if err != nil {
					t.Fatalf("add by name: %v", err)
				}
			},
			"addByID": func(t *rapid.T) {
				_, err := reg.AddByID(ctx, pick("profile").ID)
				if err != nil {
					t.Fatalf("add by id: %v", err)
				}
			},
			"remove": func(t *rapid.T) {
				_, err := reg.RemoveByID(ctx, pick("profile").ID)
				if err != nil {
					t.Fatalf("remove: %v", err)
				}
			},
			"rename": func(t *rapid.T) {
				p := pick("profile")
				res.Rename(p.ID, rapid.StringMatching(`[A-Za-z0-9_]{3,16}`).Draw(t, "name"))
			},
			"delete upstream": func(t *rapid.T) {
				res.RemoveProfile(pick("profile").ID)
			},
			"reconcile": func(t *rapid.T) {
				if _, err := reg.Reconcile(ctx); err != nil {
					t.Fatalf("reconcile: %v", err)
				}
			},
			"clear": func(t *rapid.T) {
				if _, err := reg.Clear(ctx); err != nil {
					t.Fatalf("clear: %v", err)
				}
			},
			"": func(t *rapid.T) {
				snapshot := reg.Snapshot()
				seen := make(map[uuid.UUID]bool)
				for _, e := range snapshot {
					if seen[e.ID] {
						t.Fatalf("duplicate id %s in %v", e.ID, snapshot)
					}
					seen[e.ID] = true
				}

				stored := store.Entries()
				if store.Saves() > 0 && len(stored) != len(snapshot) {
					t.Fatalf("storage has %d entries, memory has %d", len(stored), len(snapshot))
				}
			},
		})
	})
}
