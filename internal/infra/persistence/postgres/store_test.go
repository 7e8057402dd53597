package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"pdfcore/internal/infra/persistence/postgres/testutil"
	"pdfcore/pkg/domain"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreEnsuresStateTable(t *testing.T) {
	_, conn := openStub(t)
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS STATE") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got execs: %v", conn.Execs)
	}
}

func TestRunInTransactionPersistsBuckets(t *testing.T) {
	store, conn := openStub(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		a, err := tx.CreateLeaf("a", 0, 1)
		if err != nil {
			return err
		}
		b, err := tx.CreateLeaf("b", 2, 1)
		if err != nil {
			return err
		}
		_, err = tx.CreateProduct("p", []domain.DistributionID{a.ID, b.ID})
		return err
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
	payload, ok := conn.Payload("distributions")
	if !ok {
		t.Fatalf("expected distributions bucket")
	}
	var list []domain.Distribution
	if err := json.Unmarshal(payload, &list); err != nil {
		t.Fatalf("decode bucket: %v", err)
	}
	if len(list) != 3 || list[2].Kind != domain.KindProduct || list[2].Mean != 1 {
		t.Fatalf("unexpected persisted distributions %+v", list)
	}
	if alloc, _ := conn.Payload("allocator"); string(alloc) != `{"next_id":3}` {
		t.Fatalf("unexpected allocator payload %s", alloc)
	}
	if _, ok := conn.Payload("settings"); !ok {
		t.Fatalf("expected settings bucket")
	}
}

func TestNewStoreHydratesFromExistingSnapshot(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.SetPayload("distributions", []byte(`[{"id":4,"name":"seed","mean":1.5,"std_dev":0.5,"parent_ids":[],"kind":"leaf"}]`))
	conn.SetPayload("allocator", []byte(`{"next_id":7}`))
	conn.SetPayload("settings", []byte(`{"show_shading":false,"shading_opacity":0.6,"show_std_markers":true}`))
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	d, ok := store.GetDistribution(4)
	if !ok || d.Mean != 1.5 || d.StdDev != 0.5 {
		t.Fatalf("unexpected hydrated record %+v", d)
	}
	want := domain.DisplaySettings{ShowShading: false, ShadingOpacity: 0.6, ShowStdMarkers: true}
	if !reflect.DeepEqual(store.Settings(), want) {
		t.Fatalf("unexpected settings %+v", store.Settings())
	}
	if store.ExportState().NextID != 7 {
		t.Fatalf("expected allocator restored")
	}
}

func TestNewStoreErrors(t *testing.T) {
	cases := map[string]func(*testutil.StubConn){
		"ping":    func(c *testutil.StubConn) { c.FailPing = true },
		"ddl":     func(c *testutil.StubConn) { c.FailExec = true },
		"query":   func(c *testutil.StubConn) { c.FailTables = map[string]bool{"state": true} },
		"decode":  func(c *testutil.StubConn) { c.SetPayload("distributions", []byte("nope")) },
		"invalid": func(c *testutil.StubConn) { c.SetPayload("distributions", []byte(`[{"id":0,"std_dev":-1,"kind":"leaf"}]`)) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			db, conn := testutil.NewStubDB()
			mutate(conn)
			restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
			defer restore()
			if _, err := NewStore("", nil); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPersistFailureSurfaces(t *testing.T) {
	store, conn := openStub(t)
	conn.FailCommit = true
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateLeaf("a", 0, 1)
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit error, got %v", err)
	}
}

func TestImportStateRollsBackOnPersistFailure(t *testing.T) {
	store, conn := openStub(t)
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateLeaf("keep", 0, 1)
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	conn.FailBegin = true
	if err := store.ImportState(context.Background(), domain.NewSnapshot()); err == nil {
		t.Fatalf("expected import failure")
	}
	if len(store.ListDistributions()) != 1 {
		t.Fatalf("expected previous state restored")
	}
}

func TestPropagatePersists(t *testing.T) {
	store, conn := openStub(t)
	if _, err := store.Propagate(context.Background()); err != nil {
		t.Fatalf("propagate: %v", err)
	}
	if _, ok := conn.Payload("allocator"); !ok {
		t.Fatalf("expected snapshot after propagate")
	}
}
