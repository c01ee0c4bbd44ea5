package transcript

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var storeEpoch = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func confirmed(id int64, role Role, text string, at time.Time) Message {
	return Message{ID: id, SenderRole: role, Text: text, CreatedAt: at}
}

func TestStoreSeedReplacesContent(t *testing.T) {
	s := NewStore()
	s.AppendOptimistic(Message{Text: "stale", Pending: true, LocalID: uuid.New()})

	s.Seed([]Message{
		confirmed(1, RoleUser, "hi", storeEpoch),
		confirmed(2, RoleBot, "hello", storeEpoch.Add(time.Second)),
	}, Cursor{NextBeforeID: 1, HasMore: true})

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if c := s.Cursor(); !c.HasMore || c.NextBeforeID != 1 {
		t.Errorf("Cursor() = %+v, want {1 true}", c)
	}
}

func TestStoreOrderingPreserved(t *testing.T) {
	s := NewStore()
	for i := int64(1); i <= 5; i++ {
		s.AppendConfirmed(confirmed(i, RoleUser, "m", storeEpoch.Add(time.Duration(i)*time.Second)))
	}

	all := s.All()
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.Before(all[i-1].CreatedAt) {
			t.Fatalf("message %d out of order: %v before %v", i, all[i].CreatedAt, all[i-1].CreatedAt)
		}
	}
}

func TestStoreAppendConfirmedDedupesByID(t *testing.T) {
	s := NewStore()
	s.AppendConfirmed(confirmed(7, RoleBot, "answer", storeEpoch))
	s.AppendConfirmed(confirmed(7, RoleBot, "answer", storeEpoch))

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after duplicate append", s.Len())
	}
}

func TestStoreReconcilesPendingEcho(t *testing.T) {
	tests := []struct {
		name    string
		echoAt  time.Time
		wantLen int
	}{
		{"echo inside window", storeEpoch.Add(2 * time.Second), 1},
		{"echo outside window", storeEpoch.Add(ReconcileWindow + time.Second), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.AppendOptimistic(Message{
				SenderRole: RoleUser, Text: "máy in hỏng",
				CreatedAt: storeEpoch, Pending: true, LocalID: uuid.New(),
			})

			s.AppendConfirmed(confirmed(42, RoleUser, "máy in hỏng", tt.echoAt))

			if s.Len() != tt.wantLen {
				t.Fatalf("Len() = %d, want %d", s.Len(), tt.wantLen)
			}
			if tt.wantLen == 1 {
				m := s.All()[0]
				if m.Pending || m.ID != 42 {
					t.Errorf("reconciled message = %+v, want confirmed id 42", m)
				}
			}
		})
	}
}

func TestStoreReconcileIsIdempotent(t *testing.T) {
	s := NewStore()
	s.AppendOptimistic(Message{
		SenderRole: RoleUser, Text: "reset mật khẩu",
		CreatedAt: storeEpoch, Pending: true, LocalID: uuid.New(),
	})

	echo := confirmed(88, RoleUser, "reset mật khẩu", storeEpoch.Add(time.Second))
	s.AppendConfirmed(echo)
	s.AppendConfirmed(echo)
	s.AppendConfirmed(echo)

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after repeated echo", s.Len())
	}
}

func TestStorePrependOlder(t *testing.T) {
	s := NewStore()
	s.Seed([]Message{
		confirmed(50, RoleUser, "q", storeEpoch.Add(50*time.Second)),
		confirmed(51, RoleBot, "a", storeEpoch.Add(51*time.Second)),
	}, Cursor{NextBeforeID: 50, HasMore: true})

	added := s.PrependOlder(&Page{
		Messages: []Message{
			confirmed(40, RoleUser, "older q", storeEpoch.Add(40*time.Second)),
			confirmed(41, RoleBot, "older a", storeEpoch.Add(41*time.Second)),
			confirmed(50, RoleUser, "q", storeEpoch.Add(50*time.Second)), // overlap
		},
		HasMore:      true,
		NextBeforeID: 40,
	})

	if added != 2 {
		t.Fatalf("PrependOlder added %d, want 2", added)
	}
	all := s.All()
	if all[0].ID != 40 || all[len(all)-1].ID != 51 {
		t.Errorf("order after prepend: first=%d last=%d, want 40 and 51", all[0].ID, all[len(all)-1].ID)
	}
	if c := s.Cursor(); c.NextBeforeID != 40 || !c.HasMore {
		t.Errorf("Cursor() = %+v, want {40 true}", c)
	}
}

func TestStorePrependEmptyBatchExhaustsCursor(t *testing.T) {
	s := NewStore()
	s.Seed([]Message{confirmed(10, RoleUser, "q", storeEpoch)}, Cursor{NextBeforeID: 10, HasMore: true})

	if added := s.PrependOlder(&Page{}); added != 0 {
		t.Fatalf("PrependOlder(empty) added %d, want 0", added)
	}
	if c := s.Cursor(); c.HasMore || c.NextBeforeID != 0 {
		t.Errorf("Cursor() = %+v, want exhausted", c)
	}
}

func TestStoreDropPending(t *testing.T) {
	s := NewStore()
	id := uuid.New()
	s.AppendOptimistic(Message{SenderRole: RoleUser, Text: "x", Pending: true, LocalID: id})

	s.DropPending(id)

	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after DropPending", s.Len())
	}
}

func TestStoreAdoptReplyID(t *testing.T) {
	s := NewStore()
	s.AppendConfirmed(Message{SenderRole: RoleBot, Text: "thử cắm lại cáp", CreatedAt: storeEpoch})

	if !s.AdoptReplyID("thử cắm lại cáp", 71) {
		t.Fatal("AdoptReplyID should match the id-less reply")
	}
	if m, ok := s.LastBot(); !ok || m.ID != 71 {
		t.Errorf("LastBot() = %+v %v, want id 71", m, ok)
	}

	// Entries that already carry a server id are left alone.
	if s.AdoptReplyID("thử cắm lại cáp", 99) {
		t.Error("AdoptReplyID must not overwrite an existing id")
	}
}

func TestStoreLastBotSkipsErrors(t *testing.T) {
	s := NewStore()
	s.AppendConfirmed(confirmed(1, RoleBot, "real answer", storeEpoch))
	s.AppendConfirmed(Message{ID: 2, SenderRole: RoleBot, Text: "oops", IsError: true, CreatedAt: storeEpoch.Add(time.Second)})

	m, ok := s.LastBot()
	if !ok || m.ID != 1 {
		t.Errorf("LastBot() = %+v %v, want message 1", m, ok)
	}
}
