// Package query issues the same logical reads under different execution
// strategies and reports timing and query-count metadata for each, for
// instructional comparison.
package query

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"northtrade/internal/db"
	"northtrade/internal/domain"
	"northtrade/internal/repo"
)

// Products cheaper than this match the numeric arm of the dynamic OR
// search.
var searchPriceThreshold = decimal.NewFromInt(20)

// Meta describes one strategy execution. Queries is a delta on the
// connection-wide statement counter, so counts taken under concurrent
// load include neighboring requests; the comparison endpoints are meant
// to be exercised one at a time.
type Meta struct {
	Duration time.Duration
	Queries  int64
	Rows     int
}

type Service struct {
	DB   *db.DB
	Repo repo.Repo
}

func New(conn *db.DB) Service {
	return Service{DB: conn, Repo: repo.Repo{DB: conn}}
}

func (s Service) measure() func(rows int) Meta {
	start := time.Now()
	before := s.DB.Statements()
	return func(rows int) Meta {
		return Meta{
			Duration: time.Since(start),
			Queries:  s.DB.Statements() - before,
			Rows:     rows,
		}
	}
}

// OrderRow is the serialized order with to-one relations flattened to
// display names. Items is populated only by the eager strategy.
type OrderRow struct {
	OrderID     int       `json:"orderID"`
	Customer    string    `json:"customerID"`
	Employee    *string   `json:"employeeID,omitempty"`
	Shipper     *string   `json:"shipperID,omitempty"`
	OrderDate   *string   `json:"orderDate,omitempty"`
	ShippedDate *string   `json:"shippedDate,omitempty"`
	Freight     string    `json:"freight"`
	Items       []ItemRow `json:"items,omitempty"`
}

type ItemRow struct {
	Product    string `json:"product"`
	UnitPrice  string `json:"unitPrice"`
	Quantity   int    `json:"quantity"`
	Discount   string `json:"discount"`
	TotalPrice string `json:"totalPrice"`
}

// OrdersUnoptimized is the deliberately bad path: one fetch for the
// orders, then one explicit fetch per row per to-one relation. Related
// entities are represented as unresolved foreign keys after the initial
// fetch, so the per-row lookups here are what lazy loading hides in an
// ORM. Query count grows linearly with the result set.
func (s Service) OrdersUnoptimized(ctx context.Context, limit int) ([]OrderRow, Meta, error) {
	done := s.measure()
	orders, err := s.Repo.ListOrders(ctx, limit)
	if err != nil {
		return nil, Meta{}, err
	}
	rows := make([]OrderRow, 0, len(orders))
	for _, o := range orders {
		row := OrderRow{
			OrderID:     o.ID,
			OrderDate:   o.OrderDate,
			ShippedDate: o.ShippedDate,
			Freight:     o.Freight.StringFixed(2),
		}
		customer, err := s.Repo.GetCustomer(ctx, o.CustomerID)
		if err != nil {
			return nil, Meta{}, err
		}
		row.Customer = customer.CompanyName
		if o.EmployeeID != nil {
			employee, err := s.Repo.GetEmployee(ctx, *o.EmployeeID)
			if err != nil {
				return nil, Meta{}, err
			}
			row.Employee = &employee.Name
		}
		if o.ShipperID != nil {
			shipper, err := s.Repo.GetShipper(ctx, *o.ShipperID)
			if err != nil {
				return nil, Meta{}, err
			}
			row.Shipper = &shipper.CompanyName
		}
		rows = append(rows, row)
	}
	return rows, done(len(rows)), nil
}

// OrdersOptimized resolves the to-one relations in a single joined
// fetch and all line items in exactly one batched fetch: query count is
// constant in the result-set size.
func (s Service) OrdersOptimized(ctx context.Context, limit int) ([]OrderRow, Meta, error) {
	done := s.measure()
	joined, err := s.Repo.ListOrdersJoined(ctx, limit)
	if err != nil {
		return nil, Meta{}, err
	}
	ids := make([]int, len(joined))
	for i, j := range joined {
		ids[i] = j.ID
	}
	details, err := s.Repo.ListOrderDetailsByOrder(ctx, ids)
	if err != nil {
		return nil, Meta{}, err
	}
	rows := make([]OrderRow, 0, len(joined))
	for _, j := range joined {
		row := OrderRow{
			OrderID:     j.ID,
			Customer:    j.CustomerName,
			Employee:    j.EmployeeName,
			Shipper:     j.ShipperName,
			OrderDate:   j.OrderDate,
			ShippedDate: j.ShippedDate,
			Freight:     j.Freight.StringFixed(2),
		}
		for _, d := range details[j.ID] {
			row.Items = append(row.Items, ItemRow{
				Product:    d.ProductName,
				UnitPrice:  d.UnitPrice.StringFixed(2),
				Quantity:   d.Quantity,
				Discount:   d.Discount.String(),
				TotalPrice: d.TotalPrice().StringFixed(2),
			})
		}
		rows = append(rows, row)
	}
	return rows, done(len(rows)), nil
}

// ProductRow serializes a full product; money stays a fixed-point
// string so it round-trips exactly.
type ProductRow struct {
	ProductID       int    `json:"productID"`
	ProductName     string `json:"productName"`
	QuantityPerUnit string `json:"quantityPerUnit,omitempty"`
	UnitPrice       string `json:"unitPrice"`
	Discontinued    bool   `json:"discontinued"`
	CategoryID      *int   `json:"categoryID,omitempty"`
}

func productRow(p domain.Product) ProductRow {
	return ProductRow{
		ProductID:       p.ID,
		ProductName:     p.Name,
		QuantityPerUnit: p.QuantityPerUnit,
		UnitPrice:       p.UnitPrice.StringFixed(2),
		Discontinued:    p.Discontinued,
		CategoryID:      p.CategoryID,
	}
}

func productRows(products []domain.Product) []ProductRow {
	rows := make([]ProductRow, len(products))
	for i, p := range products {
		rows[i] = productRow(p)
	}
	return rows
}

// ProductLightRow carries only the projected columns. Columns outside
// the projection are simply absent; there is no lazy extension — a
// caller needing more fetches the full row.
type ProductLightRow struct {
	ProductID   int    `json:"productID"`
	ProductName string `json:"productName"`
	UnitPrice   string `json:"unitPrice"`
}

// ProductsProjected restricts the fetch to id/name/price, the only()
// equivalent.
func (s Service) ProductsProjected(ctx context.Context, limit int) ([]ProductLightRow, Meta, error) {
	done := s.measure()
	light, err := s.Repo.ListProductsLight(ctx, limit)
	if err != nil {
		return nil, Meta{}, err
	}
	rows := make([]ProductLightRow, len(light))
	for i, p := range light {
		rows[i] = ProductLightRow{
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.UnitPrice.StringFixed(2),
		}
	}
	return rows, done(len(rows)), nil
}

type CategoryRow struct {
	CategoryID   int    `json:"categoryID"`
	CategoryName string `json:"categoryName"`
}

// CategoriesDeferred fetches every category column except the long
// description, the defer() equivalent.
func (s Service) CategoriesDeferred(ctx context.Context) ([]CategoryRow, Meta, error) {
	done := s.measure()
	categories, err := s.Repo.ListCategoriesDeferred(ctx)
	if err != nil {
		return nil, Meta{}, err
	}
	rows := make([]CategoryRow, len(categories))
	for i, c := range categories {
		rows[i] = CategoryRow{CategoryID: c.ID, CategoryName: c.Name}
	}
	return rows, done(len(rows)), nil
}

// defaultProjection is what the values endpoints return when the
// caller names no columns.
var defaultProjection = []repo.ProductColumn{repo.ColProductID, repo.ColProductName, repo.ColUnitPrice}

func parseColumns(fields []string) ([]repo.ProductColumn, error) {
	if len(fields) == 0 {
		return defaultProjection, nil
	}
	cols := make([]repo.ProductColumn, len(fields))
	for i, f := range fields {
		c, err := repo.ParseProductColumn(f)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return cols, nil
}

// ProductValues bypasses entity materialization: raw mapping rows for
// the requested columns only.
func (s Service) ProductValues(ctx context.Context, fields []string, limit int) ([]map[string]any, Meta, error) {
	cols, err := parseColumns(fields)
	if err != nil {
		return nil, Meta{}, err
	}
	done := s.measure()
	rows, err := s.Repo.ProjectProducts(ctx, cols, limit)
	if err != nil {
		return nil, Meta{}, err
	}
	return rows, done(len(rows)), nil
}

// ProductTuples returns positional rows in the requested column order.
func (s Service) ProductTuples(ctx context.Context, fields []string, limit int) ([][]any, Meta, error) {
	cols, err := parseColumns(fields)
	if err != nil {
		return nil, Meta{}, err
	}
	done := s.measure()
	rows, err := s.Repo.ProjectProductTuples(ctx, cols, limit)
	if err != nil {
		return nil, Meta{}, err
	}
	return rows, done(len(rows)), nil
}

// SearchProducts builds the dynamic OR predicate (name substring OR
// unit price below the fixed threshold) from bound parameters. A nil
// term returns the unfiltered listing.
func (s Service) SearchProducts(ctx context.Context, term *string, limit int) ([]ProductRow, Meta, error) {
	done := s.measure()
	if term == nil {
		products, err := s.Repo.ListProducts(ctx, limit)
		if err != nil {
			return nil, Meta{}, err
		}
		return productRows(products), done(len(products)), nil
	}
	products, err := s.Repo.SearchProducts(ctx, *term, searchPriceThreshold, limit)
	if err != nil {
		return nil, Meta{}, err
	}
	return productRows(products), done(len(products)), nil
}

// IncreasePrice applies the +10% atomically on the database side: two
// concurrent calls both land, compounding to *1.1*1.1.
func (s Service) IncreasePrice(ctx context.Context, id int) (ProductRow, Meta, error) {
	factor := decimal.RequireFromString("1.10")
	done := s.measure()
	if err := s.Repo.IncreaseUnitPrice(ctx, id, factor); err != nil {
		return ProductRow{}, Meta{}, err
	}
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return ProductRow{}, Meta{}, err
	}
	return productRow(p), done(1), nil
}

// SearchIndexed filters on the indexed product_name column.
func (s Service) SearchIndexed(ctx context.Context, term string, limit int) ([]ProductRow, Meta, error) {
	done := s.measure()
	products, err := s.Repo.FilterProductsByName(ctx, term, limit)
	if err != nil {
		return nil, Meta{}, err
	}
	return productRows(products), done(len(products)), nil
}

// SearchNonIndexed filters on quantity_per_unit, which has no index, so
// the same shape of lookup pays for a full table scan.
func (s Service) SearchNonIndexed(ctx context.Context, term string, limit int) ([]ProductRow, Meta, error) {
	done := s.measure()
	products, err := s.Repo.FilterProductsByQuantityPerUnit(ctx, term, limit)
	if err != nil {
		return nil, Meta{}, err
	}
	return productRows(products), done(len(products)), nil
}
