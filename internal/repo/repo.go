package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"northtrade/internal/db"
	"northtrade/internal/domain"
)

type Repo struct {
	DB *db.DB
}

var ErrNotFound = errors.New("not found")

// ProductColumn enumerates the selectable product columns. Projection
// queries are built only from these identifiers, never from caller
// strings, so column selection stays injection-safe by construction.
type ProductColumn string

const (
	ColProductID       ProductColumn = "product_id"
	ColProductName     ProductColumn = "product_name"
	ColUnitPrice       ProductColumn = "unit_price"
	ColQuantityPerUnit ProductColumn = "quantity_per_unit"
	ColDiscontinued    ProductColumn = "discontinued"
)

var productColumnIdents = map[ProductColumn]string{
	ColProductID:       "product_id",
	ColProductName:     "product_name",
	ColUnitPrice:       "unit_price",
	ColQuantityPerUnit: "quantity_per_unit",
	ColDiscontinued:    "discontinued",
}

// ParseProductColumn rejects unknown field names instead of silently
// ignoring them.
func ParseProductColumn(name string) (ProductColumn, error) {
	c := ProductColumn(name)
	if _, ok := productColumnIdents[c]; !ok {
		return "", fmt.Errorf("invalid product column %q", name)
	}
	return c, nil
}

func (c ProductColumn) ident() string {
	return productColumnIdents[c]
}

func selectList(cols []ProductColumn) string {
	idents := make([]string, len(cols))
	for i, c := range cols {
		idents[i] = c.ident()
	}
	return strings.Join(idents, ",")
}

func scanDecimal(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decimal column %q: %w", raw, err)
	}
	return d, nil
}

func scanProduct(scan func(dest ...any) error) (domain.Product, error) {
	var p domain.Product
	var qpu sql.NullString
	var price string
	var categoryID sql.NullInt64
	var discontinued int
	if err := scan(&p.ID, &p.Name, &qpu, &price, &discontinued, &categoryID); err != nil {
		return p, err
	}
	if qpu.Valid {
		p.QuantityPerUnit = qpu.String
	}
	var err error
	if p.UnitPrice, err = scanDecimal(price); err != nil {
		return p, err
	}
	p.Discontinued = discontinued != 0
	if categoryID.Valid {
		id := int(categoryID.Int64)
		p.CategoryID = &id
	}
	return p, nil
}

const productColumns = `product_id,product_name,quantity_per_unit,unit_price,discontinued,category_id`

func (r Repo) GetProduct(ctx context.Context, id int) (domain.Product, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE product_id=?`, id)
	p, err := scanProduct(row.Scan)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

func (r Repo) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY product_id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// ProductLight is the projected id/name/price row.
type ProductLight struct {
	ID        int
	Name      string
	UnitPrice decimal.Decimal
}

func (r Repo) ListProductsLight(ctx context.Context, limit int) ([]ProductLight, error) {
	query := `SELECT product_id,product_name,unit_price FROM products ORDER BY product_id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []ProductLight
	for rows.Next() {
		var p ProductLight
		var price string
		if err := rows.Scan(&p.ID, &p.Name, &price); err != nil {
			return nil, err
		}
		if p.UnitPrice, err = scanDecimal(price); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// ProjectProducts returns one map per row holding exactly the requested
// columns. No relation resolution, no derived attributes.
func (r Repo) ProjectProducts(ctx context.Context, cols []ProductColumn, limit int) ([]map[string]any, error) {
	raw, err := r.projectRaw(ctx, cols, limit)
	if err != nil {
		return nil, err
	}
	res := make([]map[string]any, len(raw))
	for i, tuple := range raw {
		m := make(map[string]any, len(cols))
		for j, c := range cols {
			m[string(c)] = tuple[j]
		}
		res[i] = m
	}
	return res, nil
}

// ProjectProductTuples returns positional rows in the requested column
// order, the values_list equivalent.
func (r Repo) ProjectProductTuples(ctx context.Context, cols []ProductColumn, limit int) ([][]any, error) {
	return r.projectRaw(ctx, cols, limit)
}

func (r Repo) projectRaw(ctx context.Context, cols []ProductColumn, limit int) ([][]any, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("at least one column required")
	}
	query := `SELECT ` + selectList(cols) + ` FROM products ORDER BY product_id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res [][]any
	for rows.Next() {
		dest := make([]any, len(cols))
		holders := make([]any, len(cols))
		for i := range dest {
			holders[i] = &dest[i]
		}
		if err := rows.Scan(holders...); err != nil {
			return nil, err
		}
		for i, c := range cols {
			v, err := normalizeColumn(c, dest[i])
			if err != nil {
				return nil, err
			}
			dest[i] = v
		}
		res = append(res, dest)
	}
	return res, rows.Err()
}

// normalizeColumn converts driver values to the wire representation:
// money stays a fixed-point string, discontinued becomes a bool, byte
// slices become strings.
func normalizeColumn(c ProductColumn, v any) (any, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch c {
	case ColUnitPrice:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unit_price: unexpected type %T", v)
		}
		return s, nil
	case ColDiscontinued:
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("discontinued: unexpected type %T", v)
		}
		return n != 0, nil
	default:
		return v, nil
	}
}

// SearchProducts is the dynamic OR predicate: substring match on the
// name or unit price below the threshold. An empty term matches every
// row (both subconditions are still applied, LIKE '%%' is true for all
// names), so it degenerates to the unfiltered listing.
func (r Repo) SearchProducts(ctx context.Context, term string, priceBelow decimal.Decimal, limit int) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
WHERE product_name LIKE '%' || ? || '%' OR CAST(unit_price AS NUMERIC) < ?
ORDER BY product_id`
	// Bound as REAL: a TEXT parameter would sort above every numeric in
	// SQLite's type ordering and match all rows.
	args := []any{term, priceBelow.InexactFloat64()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// FilterProductsByName filters on the indexed product_name column.
func (r Repo) FilterProductsByName(ctx context.Context, term string, limit int) ([]domain.Product, error) {
	return r.filterProducts(ctx, "product_name=?", term, limit)
}

// FilterProductsByQuantityPerUnit filters on the non-indexed
// quantity_per_unit column (full table scan).
func (r Repo) FilterProductsByQuantityPerUnit(ctx context.Context, term string, limit int) ([]domain.Product, error) {
	return r.filterProducts(ctx, "quantity_per_unit=?", term, limit)
}

func (r Repo) filterProducts(ctx context.Context, clause, term string, limit int) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE ` + clause + ` ORDER BY product_id`
	args := []any{term}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// IncreaseUnitPrice multiplies unit_price by factor in a single
// statement so concurrent increases never lose updates. The result is
// re-fixed to two decimals on write.
func (r Repo) IncreaseUnitPrice(ctx context.Context, id int, factor decimal.Decimal) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE products SET unit_price = printf('%.2f', unit_price * ?) WHERE product_id=?`,
		factor.String(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetCategory(ctx context.Context, id int) (domain.Category, error) {
	var c domain.Category
	var desc sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT category_id,category_name,description FROM categories WHERE category_id=?`, id).
		Scan(&c.ID, &c.Name, &desc)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if desc.Valid {
		c.Description = desc.String
	}
	return c, err
}

func (r Repo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT category_id,category_name,description FROM categories ORDER BY category_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Category
	for rows.Next() {
		var c domain.Category
		var desc sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &desc); err != nil {
			return nil, err
		}
		if desc.Valid {
			c.Description = desc.String
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// ListCategoriesDeferred skips the long description column, the defer()
// equivalent. The returned Category carries an empty Description by
// definition; callers needing it must fetch the full row.
func (r Repo) ListCategoriesDeferred(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT category_id,category_name FROM categories ORDER BY category_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}

func nullableIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func (r Repo) InsertCategory(ctx context.Context, c domain.Category) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO categories(category_id,category_name,description) VALUES (?,?,?)`,
		c.ID, c.Name, nullable(c.Description))
	return err
}

func (r Repo) InsertCustomer(ctx context.Context, c domain.Customer) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO customers(customer_id,company_name,contact_name,contact_title,city,country) VALUES (?,?,?,?,?,?)`,
		c.ID, c.CompanyName, nullable(c.ContactName), nullable(c.ContactTitle), nullable(c.City), nullable(c.Country))
	return err
}

func (r Repo) InsertEmployee(ctx context.Context, e domain.Employee) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO employees(employee_id,employee_name,title,city,country,reports_to) VALUES (?,?,?,?,?,?)`,
		e.ID, e.Name, nullable(e.Title), nullable(e.City), nullable(e.Country), nullableIntPtr(e.ReportsTo))
	return err
}

func (r Repo) InsertShipper(ctx context.Context, s domain.Shipper) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO shippers(shipper_id,company_name) VALUES (?,?)`, s.ID, s.CompanyName)
	return err
}

func (r Repo) InsertProduct(ctx context.Context, p domain.Product) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO products(product_id,product_name,quantity_per_unit,unit_price,discontinued,category_id) VALUES (?,?,?,?,?,?)`,
		p.ID, p.Name, nullable(p.QuantityPerUnit), p.UnitPrice.StringFixed(2), boolToInt(p.Discontinued), nullableIntPtr(p.CategoryID))
	return err
}
