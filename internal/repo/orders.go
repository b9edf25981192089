package repo

import (
	"context"
	"database/sql"
	"strings"

	"northtrade/internal/domain"
)

const orderColumns = `order_id,customer_id,employee_id,shipper_id,order_date,required_date,shipped_date,freight`

func scanOrder(scan func(dest ...any) error) (domain.Order, error) {
	var o domain.Order
	var employeeID, shipperID sql.NullInt64
	var orderDate, requiredDate, shippedDate sql.NullString
	var freight string
	if err := scan(&o.ID, &o.CustomerID, &employeeID, &shipperID, &orderDate, &requiredDate, &shippedDate, &freight); err != nil {
		return o, err
	}
	if employeeID.Valid {
		id := int(employeeID.Int64)
		o.EmployeeID = &id
	}
	if shipperID.Valid {
		id := int(shipperID.Int64)
		o.ShipperID = &id
	}
	if orderDate.Valid {
		o.OrderDate = &orderDate.String
	}
	if requiredDate.Valid {
		o.RequiredDate = &requiredDate.String
	}
	if shippedDate.Valid {
		o.ShippedDate = &shippedDate.String
	}
	var err error
	o.Freight, err = scanDecimal(freight)
	return o, err
}

func (r Repo) GetOrder(ctx context.Context, id int) (domain.Order, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id=?`, id)
	o, err := scanOrder(row.Scan)
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	return o, err
}

// ListOrders fetches only the orders table. Relations stay unresolved;
// the lazy strategy fetches them one call per row afterwards.
func (r Repo) ListOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY order_id`
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
	var res []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

func (r Repo) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	var c domain.Customer
	var contactName, contactTitle, city, country sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT customer_id,company_name,contact_name,contact_title,city,country FROM customers WHERE customer_id=?`, id).
		Scan(&c.ID, &c.CompanyName, &contactName, &contactTitle, &city, &country)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if contactName.Valid {
		c.ContactName = contactName.String
	}
	if contactTitle.Valid {
		c.ContactTitle = contactTitle.String
	}
	if city.Valid {
		c.City = city.String
	}
	if country.Valid {
		c.Country = country.String
	}
	return c, err
}

func (r Repo) GetEmployee(ctx context.Context, id int) (domain.Employee, error) {
	var e domain.Employee
	var title, city, country sql.NullString
	var reportsTo sql.NullInt64
	err := r.DB.QueryRowContext(ctx, `SELECT employee_id,employee_name,title,city,country,reports_to FROM employees WHERE employee_id=?`, id).
		Scan(&e.ID, &e.Name, &title, &city, &country, &reportsTo)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if title.Valid {
		e.Title = title.String
	}
	if city.Valid {
		e.City = city.String
	}
	if country.Valid {
		e.Country = country.String
	}
	if reportsTo.Valid {
		id := int(reportsTo.Int64)
		e.ReportsTo = &id
	}
	return e, err
}

func (r Repo) GetShipper(ctx context.Context, id int) (domain.Shipper, error) {
	var s domain.Shipper
	err := r.DB.QueryRowContext(ctx, `SELECT shipper_id,company_name FROM shippers WHERE shipper_id=?`, id).
		Scan(&s.ID, &s.CompanyName)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

// OrderJoined is an order with its to-one relations resolved inline by
// the joined fetch.
type OrderJoined struct {
	domain.Order
	CustomerName string
	EmployeeName *string
	ShipperName  *string
}

// ListOrdersJoined resolves customer, employee and shipper in a single
// LEFT-JOINed statement, the select_related equivalent.
func (r Repo) ListOrdersJoined(ctx context.Context, limit int) ([]OrderJoined, error) {
	query := `SELECT o.order_id,o.customer_id,o.employee_id,o.shipper_id,o.order_date,o.required_date,o.shipped_date,o.freight,
c.company_name,e.employee_name,s.company_name
FROM orders o
JOIN customers c ON c.customer_id=o.customer_id
LEFT JOIN employees e ON e.employee_id=o.employee_id
LEFT JOIN shippers s ON s.shipper_id=o.shipper_id
ORDER BY o.order_id`
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
	var res []OrderJoined
	for rows.Next() {
		var j OrderJoined
		var employeeID, shipperID sql.NullInt64
		var orderDate, requiredDate, shippedDate sql.NullString
		var freight string
		var employeeName, shipperName sql.NullString
		if err := rows.Scan(&j.ID, &j.CustomerID, &employeeID, &shipperID, &orderDate, &requiredDate, &shippedDate, &freight,
			&j.CustomerName, &employeeName, &shipperName); err != nil {
			return nil, err
		}
		if employeeID.Valid {
			id := int(employeeID.Int64)
			j.EmployeeID = &id
		}
		if shipperID.Valid {
			id := int(shipperID.Int64)
			j.ShipperID = &id
		}
		if orderDate.Valid {
			j.OrderDate = &orderDate.String
		}
		if requiredDate.Valid {
			j.RequiredDate = &requiredDate.String
		}
		if shippedDate.Valid {
			j.ShippedDate = &shippedDate.String
		}
		if j.Freight, err = scanDecimal(freight); err != nil {
			return nil, err
		}
		if employeeName.Valid {
			j.EmployeeName = &employeeName.String
		}
		if shipperName.Valid {
			j.ShipperName = &shipperName.String
		}
		res = append(res, j)
	}
	return res, rows.Err()
}

// DetailJoined is a line item with its product name resolved.
type DetailJoined struct {
	domain.OrderDetail
	ProductName string
}

// ListOrderDetailsByOrder batches all line items for the given orders in
// one statement, the prefetch_related equivalent. The result is keyed by
// order id.
func (r Repo) ListOrderDetailsByOrder(ctx context.Context, orderIDs []int) (map[int][]DetailJoined, error) {
	res := make(map[int][]DetailJoined)
	if len(orderIDs) == 0 {
		return res, nil
	}
	placeholders := strings.Repeat("?,", len(orderIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}
	query := `SELECT d.order_id,d.product_id,d.unit_price,d.quantity,d.discount,p.product_name
FROM order_details d
JOIN products p ON p.product_id=d.product_id
WHERE d.order_id IN (` + placeholders + `)
ORDER BY d.order_id,d.product_id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var d DetailJoined
		var price, discount string
		if err := rows.Scan(&d.OrderID, &d.ProductID, &price, &d.Quantity, &discount, &d.ProductName); err != nil {
			return nil, err
		}
		if d.UnitPrice, err = scanDecimal(price); err != nil {
			return nil, err
		}
		if d.Discount, err = scanDecimal(discount); err != nil {
			return nil, err
		}
		res[d.OrderID] = append(res[d.OrderID], d)
	}
	return res, rows.Err()
}

func (r Repo) InsertOrder(ctx context.Context, o domain.Order) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO orders(order_id,customer_id,employee_id,shipper_id,order_date,required_date,shipped_date,freight) VALUES (?,?,?,?,?,?,?,?)`,
		o.ID, o.CustomerID, nullableIntPtr(o.EmployeeID), nullableIntPtr(o.ShipperID),
		nullableStringPtr(o.OrderDate), nullableStringPtr(o.RequiredDate), nullableStringPtr(o.ShippedDate), o.Freight.StringFixed(2))
	return err
}

func (r Repo) InsertOrderDetail(ctx context.Context, d domain.OrderDetail) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO order_details(order_id,product_id,unit_price,quantity,discount) VALUES (?,?,?,?,?)`,
		d.OrderID, d.ProductID, d.UnitPrice.StringFixed(2), d.Quantity, d.Discount.String())
	return err
}
