package repo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"northtrade/internal/db"
	"northtrade/internal/migrate"
	"northtrade/internal/repo"
	"northtrade/internal/seed"
)

func newTestRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	r := repo.Repo{DB: conn}
	if err := seed.Run(context.Background(), r); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return r
}

func TestGetProductPriceRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	p, err := r.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got := p.UnitPrice.StringFixed(2); got != "18.00" {
		t.Fatalf("unit price = %s, want 18.00", got)
	}
	if p.Name != "Chai" {
		t.Fatalf("name = %s, want Chai", p.Name)
	}

	if _, err := r.GetProduct(ctx, 999); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("unknown id: got %v, want ErrNotFound", err)
	}
}

func TestSearchProductsUnion(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	threshold := decimal.NewFromInt(20)

	// "Cha" matches Chai and Chang by name; Aniseed Syrup, Teatime
	// Chocolate Biscuits and Guarana Fantastica by price.
	products, err := r.SearchProducts(ctx, "Cha", threshold, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(products) != 5 {
		t.Fatalf("got %d products, want 5", len(products))
	}
	names := map[string]bool{}
	for _, p := range products {
		names[p.Name] = true
	}
	for _, want := range []string{"Chai", "Chang", "Aniseed Syrup", "Teatime Chocolate Biscuits", "Guarana Fantastica"} {
		if !names[want] {
			t.Fatalf("missing %q in %v", want, names)
		}
	}
	if names["Sir Rodney's Marmalade"] {
		t.Fatal("expensive non-match leaked into the result")
	}

	// Empty term: every name matches the LIKE arm.
	all, err := r.SearchProducts(ctx, "", threshold, 0)
	if err != nil {
		t.Fatalf("search empty: %v", err)
	}
	if len(all) != 8 {
		t.Fatalf("empty term got %d products, want 8", len(all))
	}
}

func TestParseProductColumn(t *testing.T) {
	if _, err := repo.ParseProductColumn("product_name"); err != nil {
		t.Fatalf("known column rejected: %v", err)
	}
	if _, err := repo.ParseProductColumn("supplier_id"); err == nil {
		t.Fatal("unknown column accepted")
	}
}

func TestProjectProducts(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	rows, err := r.ProjectProducts(ctx, []repo.ProductColumn{repo.ColProductName}, 0)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(rows) != 8 {
		t.Fatalf("got %d rows, want 8", len(rows))
	}
	for _, row := range rows {
		if len(row) != 1 {
			t.Fatalf("row has keys %v, want only product_name", row)
		}
		if _, ok := row["product_name"]; !ok {
			t.Fatalf("row missing product_name: %v", row)
		}
	}

	priced, err := r.ProjectProducts(ctx, []repo.ProductColumn{repo.ColProductID, repo.ColUnitPrice}, 1)
	if err != nil {
		t.Fatalf("project priced: %v", err)
	}
	if got := priced[0]["unit_price"]; got != "18.00" {
		t.Fatalf("unit_price = %v (%T), want the string 18.00", got, got)
	}
}

func TestProjectProductTuplesOrder(t *testing.T) {
	r := newTestRepo(t)

	rows, err := r.ProjectProductTuples(context.Background(), []repo.ProductColumn{repo.ColProductName, repo.ColProductID}, 1)
	if err != nil {
		t.Fatalf("project tuples: %v", err)
	}
	if len(rows) != 1 || len(rows[0]) != 2 {
		t.Fatalf("unexpected shape: %v", rows)
	}
	if rows[0][0] != "Chai" {
		t.Fatalf("first position = %v, want Chai", rows[0][0])
	}
	if rows[0][1] != int64(1) {
		t.Fatalf("second position = %v (%T), want 1", rows[0][1], rows[0][1])
	}
}

func TestIncreaseUnitPrice(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	factor := decimal.RequireFromString("1.10")

	if err := r.IncreaseUnitPrice(ctx, 1, factor); err != nil {
		t.Fatalf("increase: %v", err)
	}
	p, err := r.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got := p.UnitPrice.StringFixed(2); got != "19.80" {
		t.Fatalf("unit price = %s, want 19.80", got)
	}

	if err := r.IncreaseUnitPrice(ctx, 999, factor); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("unknown id: got %v, want ErrNotFound", err)
	}
}

func TestListCategoriesDeferred(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	categories, err := r.ListCategoriesDeferred(ctx)
	if err != nil {
		t.Fatalf("list deferred: %v", err)
	}
	if len(categories) != 3 {
		t.Fatalf("got %d categories, want 3", len(categories))
	}
	for _, c := range categories {
		if c.Description != "" {
			t.Fatalf("category %d carries a description: %q", c.ID, c.Description)
		}
		if c.Name == "" {
			t.Fatalf("category %d missing name", c.ID)
		}
	}

	full, err := r.GetCategory(ctx, 1)
	if err != nil {
		t.Fatalf("get category: %v", err)
	}
	if full.Description == "" {
		t.Fatal("full fetch lost the description")
	}
}

func TestOrderDetailsBatch(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	details, err := r.ListOrderDetailsByOrder(ctx, []int{10248, 10250})
	if err != nil {
		t.Fatalf("batch details: %v", err)
	}
	if len(details[10248]) != 2 {
		t.Fatalf("order 10248 has %d details, want 2", len(details[10248]))
	}
	if len(details[10250]) != 2 {
		t.Fatalf("order 10250 has %d details, want 2", len(details[10250]))
	}
	if _, ok := details[10252]; ok {
		t.Fatal("unrequested order leaked into the batch")
	}
}
