package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "budgettracker/internal/errors"
	"budgettracker/internal/ledger"
	"budgettracker/internal/logger"
	"budgettracker/internal/session"
)

func init() {
	logger.Init("test")
}

// mockGateway is a configurable Gateway. Unset functions fail the test.
type mockGateway struct {
	t *testing.T

	listAll func(ctx context.Context) ([]ledger.Transaction, error)
	create  func(ctx context.Context, entry ledger.Entry) (ledger.Transaction, error)
	update  func(ctx context.Context, id ledger.ID, entry ledger.Entry) (ledger.Transaction, error)
	delete  func(ctx context.Context, id ledger.ID) error

	calls int
}

func (m *mockGateway) ListAll(ctx context.Context) ([]ledger.Transaction, error) {
	m.calls++
	if m.listAll == nil {
		m.t.Fatal("unexpected ListAll call")
	}
	return m.listAll(ctx)
}

func (m *mockGateway) Create(ctx context.Context, entry ledger.Entry) (ledger.Transaction, error) {
	m.calls++
	if m.create == nil {
		m.t.Fatal("unexpected Create call")
	}
	return m.create(ctx, entry)
}

func (m *mockGateway) Update(ctx context.Context, id ledger.ID, entry ledger.Entry) (ledger.Transaction, error) {
	m.calls++
	if m.update == nil {
		m.t.Fatal("unexpected Update call")
	}
	return m.update(ctx, id, entry)
}

func (m *mockGateway) Delete(ctx context.Context, id ledger.ID) error {
	m.calls++
	if m.delete == nil {
		m.t.Fatal("unexpected Delete call")
	}
	return m.delete(ctx, id)
}

func newTestStore(t *testing.T, gw *mockGateway) (*Store, *session.Holder) {
	t.Helper()
	gw.t = t
	holder := session.NewHolder(session.NewMemoryStorage())
	if err := holder.SetCredential("token"); err != nil {
		t.Fatalf("SetCredential: %v", err)
	}
	return New(gw, holder), holder
}

func tx(id, typ, category, amount, date string) ledger.Transaction {
	d, err := ledger.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return ledger.Transaction{
		ID: ledger.ID(id),
		Entry: ledger.Entry{
			Type:     ledger.TransactionType(typ),
			Category: category,
			Amount:   decimal.RequireFromString(amount),
			Date:     d,
		},
	}
}

func seeded() []ledger.Transaction {
	return []ledger.Transaction{
		tx("1", "income", "Salary", "1000", "2024-01-31"),
		tx("2", "expense", "Rent", "300", "2024-02-01"),
	}
}

// seed loads items through Refresh.
func seed(t *testing.T, s *Store, gw *mockGateway, items []ledger.Transaction) {
	t.Helper()
	gw.listAll = func(context.Context) ([]ledger.Transaction, error) { return items, nil }
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("seeding store: %v", err)
	}
	gw.listAll = nil
	gw.calls = 0
}

func ids(txs []ledger.Transaction) []ledger.ID {
	out := make([]ledger.ID, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func assertIDs(t *testing.T, got []ledger.Transaction, want ...ledger.ID) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("ids = %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("ids = %v, want %v", g, want)
		}
	}
}

func validDraft() ledger.Draft {
	return ledger.Draft{
		Type:     ledger.TransactionTypeExpense,
		Category: "Food",
		Amount:   "200",
		Date:     "2024-02-05",
	}
}

func TestRefresh_ReplacesCollection(t *testing.T) {
	gw := &mockGateway{}
	s, _ := newTestStore(t, gw)

	var notified [][]ledger.Transaction
	s.Subscribe(func(txs []ledger.Transaction) { notified = append(notified, txs) })

	seed(t, s, gw, seeded())
	assertIDs(t, s.Current(), "1", "2")

	seed(t, s, gw, []ledger.Transaction{tx("9", "expense", "Misc", "5", "2024-03-01")})
	assertIDs(t, s.Current(), "9")

	if len(notified) != 2 {
		t.Errorf("expected 2 notifications, got %d", len(notified))
	}
}

func TestRefresh_FailureKeepsCollection(t *testing.T) {
	gw := &mockGateway{}
	s, holder := newTestStore(t, gw)
	seed(t, s, gw, seeded())

	gw.listAll = func(context.Context) ([]ledger.Transaction, error) {
		return nil, apperrors.ErrNetwork
	}
	err := s.Refresh(context.Background())
	if !errors.Is(err, apperrors.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	assertIDs(t, s.Current(), "1", "2")
	if !holder.IsAuthenticated() {
		t.Error("a network failure must not end the session")
	}
}

func TestAdd(t *testing.T) {
	gw := &mockGateway{}
	s, _ := newTestStore(t, gw)
	seed(t, s, gw, seeded())

	gw.create = func(_ context.Context, entry ledger.Entry) (ledger.Transaction, error) {
		if entry.Category != "Food" || !entry.Amount.Equal(decimal.NewFromInt(200)) || entry.Date.String() != "2024-02-05" {
			t.Errorf("unexpected entry: %+v", entry)
		}
		return ledger.Transaction{ID: "3", Entry: entry}, nil
	}

	created, err := s.Add(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if created.ID != "3" {
		t.Errorf("created id = %q, want the remote id", created.ID)
	}
	assertIDs(t, s.Current(), "1", "2", "3")
}

func TestAdd_InvalidDraftNeverReachesGateway(t *testing.T) {
	tests := []struct {
		name  string
		draft func(d *ledger.Draft)
	}{
		{"empty_category", func(d *ledger.Draft) { d.Category = "  " }},
		{"negative_amount", func(d *ledger.Draft) { d.Amount = "-1" }},
		{"bad_amount", func(d *ledger.Draft) { d.Amount = "ten" }},
		{"bad_type", func(d *ledger.Draft) { d.Type = "transfer" }},
		{"bad_date", func(d *ledger.Draft) { d.Date = "31/01/2024" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &mockGateway{}
			s, _ := newTestStore(t, gw)
			seed(t, s, gw, seeded())

			d := validDraft()
			tt.draft(&d)
			_, err := s.Add(context.Background(), d)
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if gw.calls != 0 {
				t.Errorf("gateway was called %d times", gw.calls)
			}
			assertIDs(t, s.Current(), "1", "2")
		})
	}
}

func TestAdd_RemoteFailureKeepsCollection(t *testing.T) {
	gw := &mockGateway{}
	s, _ := newTestStore(t, gw)
	seed(t, s, gw, seeded())

	gw.create = func(context.Context, ledger.Entry) (ledger.Transaction, error) {
		return ledger.Transaction{}, apperrors.WithMessage(apperrors.ErrValidation, "category is too long")
	}
	if _, err := s.Add(context.Background(), validDraft()); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	assertIDs(t, s.Current(), "1", "2")
}

func TestEdit(t *testing.T) {
	gw := &mockGateway{}
	s, _ := newTestStore(t, gw)
	seed(t, s, gw, seeded())
	before := s.Current()

	gw.update = func(_ context.Context, id ledger.ID, entry ledger.Entry) (ledger.Transaction, error) {
		if id != "2" {
			t.Errorf("update id = %q", id)
		}
		return ledger.Transaction{ID: id, Entry: entry}, nil
	}

	d := validDraft()
	d.Category = "Housing"
	d.Amount = "350"
	if _, err := s.Edit(context.Background(), "2", d); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	after := s.Current()
	assertIDs(t, after, "1", "2")
	if after[1].Category != "Housing" || after[1].Amount.String() != "350" {
		t.Errorf("edited transaction = %+v", after[1])
	}
	if after[0].Category != before[0].Category || !after[0].Amount.Equal(before[0].Amount) {
		t.Errorf("untouched transaction changed: %+v", after[0])
	}
}

func TestEdit_NotLocal(t *testing.T) {
	gw := &mockGateway{}
	s, _ := newTestStore(t, gw)
	seed(t, s, gw, seeded())

	_, err := s.Edit(context.Background(), "missing", validDraft())
	if !errors.Is(err, apperrors.ErrNotLocal) {
		t.Fatalf("expected ErrNotLocal, got %v", err)
	}
	if gw.calls != 0 {
		t.Errorf("gateway was called %d times", gw.calls)
	}
}

func TestEdit_RemoteNotFoundKeepsCollection(t *testing.T) {
	gw := &mockGateway{}
	s, _ := newTestStore(t, gw)
	seed(t, s, gw, seeded())

	gw.update = func(context.Context, ledger.ID, ledger.Entry) (ledger.Transaction, error) {
		return ledger.Transaction{}, apperrors.ErrTransactionNotFound
	}
	_, err := s.Edit(context.Background(), "2", validDraft())
	if !errors.Is(err, apperrors.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	assertIDs(t, s.Current(), "1", "2")
	if s.Current()[1].Category != "Rent" {
		t.Error("failed edit must not change the local entry")
	}
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name         string
		id           ledger.ID
		remoteErr    error
		wantErr      error
		wantIDs      []ledger.ID
		wantNotified bool
	}{
		{"success", "2", nil, nil, []ledger.ID{"1"}, true},
		{"already_gone_remotely", "2", apperrors.ErrTransactionNotFound, nil, []ledger.ID{"1"}, true},
		{"network_failure", "2", apperrors.ErrNetwork, apperrors.ErrNetwork, []ledger.ID{"1", "2"}, false},
		{"not_held_locally", "99", nil, nil, []ledger.ID{"1", "2"}, false},
		{"not_held_anywhere", "99", apperrors.ErrTransactionNotFound, nil, []ledger.ID{"1", "2"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &mockGateway{}
			s, _ := newTestStore(t, gw)
			seed(t, s, gw, seeded())

			notified := 0
			s.Subscribe(func([]ledger.Transaction) { notified++ })

			gw.delete = func(_ context.Context, id ledger.ID) error {
				if id != tt.id {
					t.Errorf("delete id = %q, want %q", id, tt.id)
				}
				return tt.remoteErr
			}

			err := s.Remove(context.Background(), tt.id)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			assertIDs(t, s.Current(), tt.wantIDs...)
			if (notified > 0) != tt.wantNotified {
				t.Errorf("listener called %d times, wantNotified %v", notified, tt.wantNotified)
			}
		})
	}
}

func TestUnauthenticated_EndsSession(t *testing.T) {
	gw := &mockGateway{}
	s, holder := newTestStore(t, gw)
	seed(t, s, gw, seeded())

	gw.create = func(context.Context, ledger.Entry) (ledger.Transaction, error) {
		return ledger.Transaction{}, apperrors.ErrUnauthenticated
	}
	_, err := s.Add(context.Background(), validDraft())
	if !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if holder.IsAuthenticated() {
		t.Error("session should be cleared after an authentication rejection")
	}
	if len(s.Current()) != 0 {
		t.Errorf("collection should be empty after logout, got %d", len(s.Current()))
	}
}

func TestLogout_ClearsCollection(t *testing.T) {
	gw := &mockGateway{}
	s, holder := newTestStore(t, gw)
	seed(t, s, gw, seeded())

	var last []ledger.Transaction
	s.Subscribe(func(txs []ledger.Transaction) { last = txs })

	if err := holder.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(s.Current()) != 0 {
		t.Errorf("expected empty collection, got %d", len(s.Current()))
	}
	if last == nil || len(last) != 0 {
		t.Errorf("listeners should see the empty collection, got %v", last)
	}
}

func TestLateResponseAfterLogoutIsDiscarded(t *testing.T) {
	gw := &mockGateway{}
	s, holder := newTestStore(t, gw)

	gw.listAll = func(context.Context) ([]ledger.Transaction, error) {
		// The user logs out while the request is in flight.
		if err := holder.Clear(); err != nil {
			t.Errorf("Clear: %v", err)
		}
		return seeded(), nil
	}

	err := s.Refresh(context.Background())
	if !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if len(s.Current()) != 0 {
		t.Errorf("late response leaked into the collection: %v", ids(s.Current()))
	}
}

func TestSecondMutationIsRejectedWhileBusy(t *testing.T) {
	gw := &mockGateway{}
	s, _ := newTestStore(t, gw)
	seed(t, s, gw, seeded())

	started := make(chan struct{})
	release := make(chan struct{})
	gw.create = func(_ context.Context, entry ledger.Entry) (ledger.Transaction, error) {
		close(started)
		<-release
		return ledger.Transaction{ID: "3", Entry: entry}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var addErr error
	go func() {
		defer wg.Done()
		_, addErr = s.Add(context.Background(), validDraft())
	}()
	<-started

	if err := s.Remove(context.Background(), "1"); !errors.Is(err, apperrors.ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	// Reads see the last confirmed state while the write is outstanding.
	assertIDs(t, s.Current(), "1", "2")

	close(release)
	wg.Wait()
	if addErr != nil {
		t.Fatalf("Add: %v", addErr)
	}
	assertIDs(t, s.Current(), "1", "2", "3")
}

func TestCurrentReturnsCopy(t *testing.T) {
	gw := &mockGateway{}
	s, _ := newTestStore(t, gw)
	seed(t, s, gw, seeded())

	got := s.Current()
	got[0].Category = "tampered"
	if s.Current()[0].Category != "Salary" {
		t.Error("mutating the returned slice changed the store")
	}
}
