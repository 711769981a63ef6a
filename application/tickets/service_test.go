package tickets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Digiaroficial/digi-reparaciones-app/application/inventory"
	"github.com/Digiaroficial/digi-reparaciones-app/common"
	"github.com/Digiaroficial/digi-reparaciones-app/internal/store"
)

const testOwner = "owner-test"

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) Send(_ context.Context, message string) error {
	f.sent = append(f.sent, message)
	return nil
}

type testEnv struct {
	svc      *Service
	invSvc   *inventory.Service
	db       *gorm.DB
	notifier *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&common.Ticket{}, &common.Item{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	z := zap.NewNop()
	itemHub := store.NewHub[common.Item]()
	itemMirror := store.NewMirror(func(i common.Item) string { return i.ID })
	itemRepo := inventory.NewRepository(db, itemHub, itemMirror, z)
	ledger := inventory.NewLedger(itemMirror, itemRepo)
	invSvc := inventory.NewService(itemRepo, ledger, z)

	ticketHub := store.NewHub[common.Ticket]()
	ticketMirror := store.NewMirror(func(tk common.Ticket) string { return tk.ID })
	repo := NewRepository(db, ticketHub, ticketMirror, z)

	notifier := &fakeNotifier{}
	return &testEnv{
		svc:      NewService(repo, invSvc, notifier, z),
		invSvc:   invSvc,
		db:       db,
		notifier: notifier,
	}
}

func (e *testEnv) mustCreateItem(t *testing.T, nombre string, stock int, costo float64) common.Item {
	t.Helper()
	item, err := e.invSvc.CreateItem(context.Background(), testOwner, inventory.ItemDraft{
		Nombre: nombre,
		Stock:  stock,
		Costo:  costo,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}

func (e *testEnv) itemStock(t *testing.T, id string) int {
	t.Helper()
	item, err := e.invSvc.FindByID(context.Background(), testOwner, id)
	if err != nil {
		t.Fatalf("find item: %v", err)
	}
	return item.Stock
}

func draftFor(item common.Item) TicketDraft {
	d := TicketDraft{
		Cliente:          "Alice",
		Dispositivo:      "iPhone 12",
		Problema:         "Pantalla rota",
		PrecioReparacion: 150,
	}
	if item.ID != "" {
		d.RepuestoID = null.StringFrom(item.ID)
	}
	return d
}

func TestCreateTicketWithPartDecrementsStockAndSnapshotsCost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.mustCreateItem(t, "Pantalla", 3, 45.5)

	ticket, err := env.svc.CreateTicket(ctx, testOwner, draftFor(item))
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	if ticket.ID == "" {
		t.Fatal("ticket has no store-assigned id")
	}
	if ticket.Estado != common.StatusPendiente {
		t.Fatalf("estado = %q, want Pendiente", ticket.Estado)
	}
	if ticket.FechaCreacion.IsZero() {
		t.Fatal("fechaCreacion not set")
	}
	if ticket.CostoRepuesto != 45.5 {
		t.Fatalf("costoRepuesto = %v, want 45.5", ticket.CostoRepuesto)
	}
	if got := env.itemStock(t, item.ID); got != 2 {
		t.Fatalf("stock = %d, want 2", got)
	}
}

func TestCreateTicketWithoutPartHasZeroCost(t *testing.T) {
	env := newTestEnv(t)

	ticket, err := env.svc.CreateTicket(context.Background(), testOwner, draftFor(common.Item{}))
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.CostoRepuesto != 0 {
		t.Fatalf("costoRepuesto = %v, want 0", ticket.CostoRepuesto)
	}
}

func TestCreateTicketRefusesWhenOutOfStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.mustCreateItem(t, "Pantalla", 0, 45.5)

	_, err := env.svc.CreateTicket(ctx, testOwner, draftFor(item))
	if !errors.Is(err, common.ErrInsufficientStock) {
		t.Fatalf("error = %v, want ErrInsufficientStock", err)
	}

	// No ticket written, no stock change.
	set, err := env.svc.List(ctx, testOwner)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("ticket set = %d entries, want 0", len(set))
	}
	if got := env.itemStock(t, item.ID); got != 0 {
		t.Fatalf("stock = %d, want 0", got)
	}
}

func TestCreateTicketRefusesUnknownPart(t *testing.T) {
	env := newTestEnv(t)

	draft := draftFor(common.Item{ID: "no-such-item"})
	_, err := env.svc.CreateTicket(context.Background(), testOwner, draft)
	if !errors.Is(err, common.ErrInsufficientStock) {
		t.Fatalf("error = %v, want ErrInsufficientStock", err)
	}
}

func TestCreateTicketConsumesLastUnitExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.mustCreateItem(t, "Bateria", 1, 20)

	if _, err := env.svc.CreateTicket(ctx, testOwner, draftFor(item)); err != nil {
		t.Fatalf("first CreateTicket: %v", err)
	}
	if got := env.itemStock(t, item.ID); got != 0 {
		t.Fatalf("stock = %d, want 0", got)
	}

	_, err := env.svc.CreateTicket(ctx, testOwner, draftFor(item))
	if !errors.Is(err, common.ErrInsufficientStock) {
		t.Fatalf("second create error = %v, want ErrInsufficientStock", err)
	}
}

func TestPartCostIsASnapshotNotALiveReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.mustCreateItem(t, "Pantalla", 3, 45.5)

	ticket, err := env.svc.CreateTicket(ctx, testOwner, draftFor(item))
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	// Reprice the part behind the workflow's back.
	err = env.db.Model(&common.Item{}).Where("id = ?", item.ID).Update("costo", 99.0).Error
	if err != nil {
		t.Fatalf("reprice item: %v", err)
	}

	set, err := env.svc.SearchByClient(ctx, testOwner, "Alice")
	if err != nil {
		t.Fatalf("SearchByClient: %v", err)
	}
	if len(set) != 1 || set[0].ID != ticket.ID {
		t.Fatalf("search result = %v", set)
	}
	if set[0].CostoRepuesto != 45.5 {
		t.Fatalf("costoRepuesto = %v, want snapshotted 45.5", set[0].CostoRepuesto)
	}
}

func TestUpdateStatusUnconstrainedAndIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ticket, err := env.svc.CreateTicket(ctx, testOwner, draftFor(common.Item{}))
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	// Forward, backward, and repeated transitions are all accepted.
	steps := []common.Status{
		common.StatusEntregado,
		common.StatusPendiente,
		common.StatusEnProgreso,
		common.StatusEnProgreso,
		common.StatusListo,
	}
	for _, st := range steps {
		if err := env.svc.UpdateStatus(ctx, testOwner, ticket.ID, st); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", st, err)
		}
	}

	set, _ := env.svc.List(ctx, testOwner)
	if len(set) != 1 || set[0].Estado != common.StatusListo {
		t.Fatalf("final estado = %v, want Listo", set)
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.UpdateStatus(context.Background(), testOwner, "whatever", common.Status("Perdido"))
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestUpdateStatusVanishedTicket(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.UpdateStatus(context.Background(), testOwner, "no-such-ticket", common.StatusListo)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteTicketDoesNotRestoreStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.mustCreateItem(t, "Pantalla", 2, 45.5)

	ticket, err := env.svc.CreateTicket(ctx, testOwner, draftFor(item))
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if got := env.itemStock(t, item.ID); got != 1 {
		t.Fatalf("stock after create = %d, want 1", got)
	}

	if err := env.svc.DeleteTicket(ctx, testOwner, ticket.ID); err != nil {
		t.Fatalf("DeleteTicket: %v", err)
	}

	set, _ := env.svc.List(ctx, testOwner)
	if len(set) != 0 {
		t.Fatalf("ticket set after delete = %v, want empty", set)
	}
	if got := env.itemStock(t, item.ID); got != 1 {
		t.Fatalf("stock after delete = %d, want still 1", got)
	}
}

func TestSearchByClientExactMatchOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, cliente := range []string{"Alice", "Alice", "Bob"} {
		d := draftFor(common.Item{})
		d.Cliente = cliente
		if _, err := env.svc.CreateTicket(ctx, testOwner, d); err != nil {
			t.Fatalf("CreateTicket(%s): %v", cliente, err)
		}
	}

	got, err := env.svc.SearchByClient(ctx, testOwner, "Alice")
	if err != nil {
		t.Fatalf("SearchByClient: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("matches = %d, want 2", len(got))
	}
	for _, tk := range got {
		if tk.Cliente != "Alice" {
			t.Fatalf("unexpected match for cliente %q", tk.Cliente)
		}
	}

	// Lowercase must not match: exact, case-sensitive.
	got, err = env.svc.SearchByClient(ctx, testOwner, "alice")
	if err != nil {
		t.Fatalf("SearchByClient lowercase: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("lowercase matches = %d, want 0", len(got))
	}
}

func TestSearchByClientEmptyTermIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.CreateTicket(ctx, testOwner, draftFor(common.Item{})); err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	got, err := env.svc.SearchByClient(ctx, testOwner, "")
	if err != nil {
		t.Fatalf("SearchByClient: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("empty term returned %d tickets, want 0", len(got))
	}
}

func TestNotifyComposesAndQueuesMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.mustCreateItem(t, "Pantalla", 1, 45.5)

	ticket, err := env.svc.CreateTicket(ctx, testOwner, draftFor(item))
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	message, err := env.svc.Notify(ctx, testOwner, ticket.ID)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	want := "Hola Alice, tu dispositivo iPhone 12 tiene el siguiente estado: Pendiente. (Repuesto: Pantalla) ID de ticket: " + ticket.ID
	if message != want {
		t.Fatalf("message = %q, want %q", message, want)
	}
	if len(env.notifier.sent) != 1 || env.notifier.sent[0] != want {
		t.Fatalf("queued = %v", env.notifier.sent)
	}
}

func TestCreateTicketPublishesSnapshotToSubscribers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, snapshots, cancel, err := env.svc.Subscribe(ctx, testOwner)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	ticket, err := env.svc.CreateTicket(ctx, testOwner, draftFor(common.Item{}))
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	snap := <-snapshots
	if len(snap) != 1 || snap[0].ID != ticket.ID {
		t.Fatalf("snapshot = %v, want the created ticket", snap)
	}
}

func TestSubscribeDoesNotMissWritesDuringSetup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const writes = 5
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < writes; i++ {
			if _, err := env.svc.CreateTicket(ctx, testOwner, draftFor(common.Item{})); err != nil {
				t.Errorf("CreateTicket: %v", err)
				return
			}
		}
	}()

	initial, snapshots, cancel, err := env.svc.Subscribe(ctx, testOwner)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()
	<-done

	// Every write lands either in the seed or on the feed; none may
	// fall between the seed read and the first delivered snapshot.
	seen := len(initial)
	deadline := time.After(2 * time.Second)
	for seen < writes {
		select {
		case snap := <-snapshots:
			seen = len(snap)
		case <-deadline:
			t.Fatalf("observed %d tickets, want %d", seen, writes)
		}
	}
}

func TestCreateTicketSurvivesSnapshotRefreshFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	fail := false
	err := env.db.Callback().Query().Before("gorm:query").Register("fail_refresh", func(tx *gorm.DB) {
		if fail {
			tx.AddError(errors.New("refresh unavailable"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	fail = true
	ticket, err := env.svc.CreateTicket(ctx, testOwner, draftFor(common.Item{}))
	fail = false
	if err != nil {
		t.Fatalf("CreateTicket with failing refresh: %v", err)
	}
	if ticket.ID == "" {
		t.Fatal("ticket has no store-assigned id")
	}

	// The row committed even though the snapshot refresh did not.
	set, err := env.svc.SearchByClient(ctx, testOwner, "Alice")
	if err != nil {
		t.Fatalf("SearchByClient: %v", err)
	}
	if len(set) != 1 || set[0].ID != ticket.ID {
		t.Fatalf("search result = %v, want the created ticket", set)
	}
}
