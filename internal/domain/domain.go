package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID          int    `json:"categoryID"`
	Name        string `json:"categoryName"`
	Description string `json:"description,omitempty"`
}

type Customer struct {
	ID           string `json:"customerID"`
	CompanyName  string `json:"companyName"`
	ContactName  string `json:"contactName,omitempty"`
	ContactTitle string `json:"contactTitle,omitempty"`
	City         string `json:"city,omitempty"`
	Country      string `json:"country,omitempty"`
}

type Employee struct {
	ID        int    `json:"employeeID"`
	Name      string `json:"employeeName"`
	Title     string `json:"title,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
	ReportsTo *int   `json:"reportsTo,omitempty"`
}

type Shipper struct {
	ID          int    `json:"shipperID"`
	CompanyName string `json:"companyName"`
}

type Product struct {
	ID              int             `json:"productID"`
	Name            string          `json:"productName"`
	QuantityPerUnit string          `json:"quantityPerUnit,omitempty"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Discontinued    bool            `json:"discontinued"`
	CategoryID      *int            `json:"categoryID,omitempty"`
}

// Dates are ISO 8601 date strings; nil means not set (shipped_date stays
// nil until the order is fulfilled).
type Order struct {
	ID           int             `json:"orderID"`
	CustomerID   string          `json:"customerID"`
	EmployeeID   *int            `json:"employeeID,omitempty"`
	ShipperID    *int            `json:"shipperID,omitempty"`
	OrderDate    *string         `json:"orderDate,omitempty"`
	RequiredDate *string         `json:"requiredDate,omitempty"`
	ShippedDate  *string         `json:"shippedDate,omitempty"`
	Freight      decimal.Decimal `json:"freight"`
}

type OrderDetail struct {
	OrderID   int             `json:"orderID"`
	ProductID int             `json:"productID"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Discount  decimal.Decimal `json:"discount"`
}

// TotalPrice is computed on read and never stored.
func (d OrderDetail) TotalPrice() decimal.Decimal {
	qty := decimal.NewFromInt(int64(d.Quantity))
	return d.UnitPrice.Mul(qty).Mul(decimal.NewFromInt(1).Sub(d.Discount))
}
