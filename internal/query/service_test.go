package query_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"northtrade/internal/db"
	"northtrade/internal/migrate"
	"northtrade/internal/query"
	"northtrade/internal/repo"
	"northtrade/internal/seed"
)

func newService(t *testing.T) query.Service {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc := query.New(conn)
	if err := seed.Run(context.Background(), svc.Repo); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return svc
}

func TestOrderStrategiesAgree(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	unopt, unoptMeta, err := svc.OrdersUnoptimized(ctx, 0)
	if err != nil {
		t.Fatalf("unoptimized: %v", err)
	}
	opt, optMeta, err := svc.OrdersOptimized(ctx, 0)
	if err != nil {
		t.Fatalf("optimized: %v", err)
	}

	if len(unopt) != 5 || len(opt) != 5 {
		t.Fatalf("row counts: unoptimized=%d optimized=%d, want 5", len(unopt), len(opt))
	}
	for i := range unopt {
		if unopt[i].OrderID != opt[i].OrderID {
			t.Fatalf("row %d: order ids diverge (%d vs %d)", i, unopt[i].OrderID, opt[i].OrderID)
		}
		if unopt[i].Customer != opt[i].Customer {
			t.Fatalf("row %d: customers diverge (%q vs %q)", i, unopt[i].Customer, opt[i].Customer)
		}
	}

	// The eager strategy resolves everything in exactly two statements;
	// the lazy one pays one per relation per row: 1 listing + 5
	// customers + 4 employees + 4 shippers.
	if optMeta.Queries != 2 {
		t.Fatalf("optimized issued %d queries, want 2", optMeta.Queries)
	}
	if unoptMeta.Queries != 14 {
		t.Fatalf("unoptimized issued %d queries, want 14", unoptMeta.Queries)
	}

	// Line items ride along only with the eager strategy.
	if len(opt[0].Items) != 2 {
		t.Fatalf("order %d has %d items, want 2", opt[0].OrderID, len(opt[0].Items))
	}
	if len(unopt[0].Items) != 0 {
		t.Fatal("lazy strategy should not populate items")
	}
}

func TestOptimizedItemTotals(t *testing.T) {
	svc := newService(t)

	rows, _, err := svc.OrdersOptimized(context.Background(), 0)
	if err != nil {
		t.Fatalf("optimized: %v", err)
	}
	// Order 10249: 9 x 19.00 at 15% discount = 145.35.
	for _, row := range rows {
		if row.OrderID != 10249 {
			continue
		}
		if len(row.Items) != 1 {
			t.Fatalf("order 10249 has %d items, want 1", len(row.Items))
		}
		if got := row.Items[0].TotalPrice; got != "145.35" {
			t.Fatalf("total price = %s, want 145.35", got)
		}
		return
	}
	t.Fatal("order 10249 missing")
}

func TestSearchProducts(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	all, _, err := svc.SearchProducts(ctx, nil, 0)
	if err != nil {
		t.Fatalf("nil term: %v", err)
	}
	if len(all) != 8 {
		t.Fatalf("nil term got %d rows, want the full listing of 8", len(all))
	}

	term := "Cha"
	matched, _, err := svc.SearchProducts(ctx, &term, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matched) != 5 {
		t.Fatalf("got %d rows, want 5", len(matched))
	}
}

func TestIncreasePriceCompounds(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.IncreasePrice(ctx, 1)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Fatalf("increase: %v", err)
		}
	}

	p, err := svc.Repo.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	// 18.00 * 1.10 * 1.10, both landed, no lost update.
	if got := p.UnitPrice.StringFixed(2); got != "21.78" {
		t.Fatalf("unit price = %s, want 21.78", got)
	}
}

func TestIncreasePriceUnknownProduct(t *testing.T) {
	svc := newService(t)

	_, _, err := svc.IncreasePrice(context.Background(), 999)
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestProductValues(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	rows, _, err := svc.ProductValues(ctx, nil, 0)
	if err != nil {
		t.Fatalf("values: %v", err)
	}
	if len(rows) != 8 {
		t.Fatalf("got %d rows, want 8", len(rows))
	}
	for _, row := range rows {
		for _, key := range []string{"product_id", "product_name", "unit_price"} {
			if _, ok := row[key]; !ok {
				t.Fatalf("row missing default column %s: %v", key, row)
			}
		}
		if len(row) != 3 {
			t.Fatalf("row has extra columns: %v", row)
		}
	}

	if _, _, err := svc.ProductValues(ctx, []string{"supplier_id"}, 0); err == nil {
		t.Fatal("unknown column accepted")
	}
}

func TestProductTuples(t *testing.T) {
	svc := newService(t)

	rows, _, err := svc.ProductTuples(context.Background(), []string{"product_name", "unit_price"}, 2)
	if err != nil {
		t.Fatalf("tuples: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0][0] != "Chai" || rows[0][1] != "18.00" {
		t.Fatalf("first tuple = %v, want [Chai 18.00]", rows[0])
	}
}

func TestIndexedAndNonIndexedSearch(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	byName, _, err := svc.SearchIndexed(ctx, "Chai", 0)
	if err != nil {
		t.Fatalf("indexed: %v", err)
	}
	if len(byName) != 1 || byName[0].ProductName != "Chai" {
		t.Fatalf("indexed search got %v", byName)
	}

	byQuantity, _, err := svc.SearchNonIndexed(ctx, "10 boxes x 20 bags", 0)
	if err != nil {
		t.Fatalf("non-indexed: %v", err)
	}
	if len(byQuantity) != 1 || byQuantity[0].ProductName != "Chai" {
		t.Fatalf("non-indexed search got %v", byQuantity)
	}
}

func TestCategoriesDeferred(t *testing.T) {
	svc := newService(t)

	rows, meta, err := svc.CategoriesDeferred(context.Background())
	if err != nil {
		t.Fatalf("deferred: %v", err)
	}
	if len(rows) != 3 || meta.Rows != 3 {
		t.Fatalf("got %d rows (meta %d), want 3", len(rows), meta.Rows)
	}
}
