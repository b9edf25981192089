// Package seed inserts a compact, deterministic sample of the trading
// dataset so the demo endpoints return data without the full import.
package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"northtrade/internal/domain"
	"northtrade/internal/repo"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// Run populates the database once; a second run is a no-op.
func Run(ctx context.Context, r repo.Repo) error {
	var count int
	if err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM products`).Scan(&count); err != nil {
		return fmt.Errorf("seed probe: %w", err)
	}
	if count > 0 {
		return nil
	}

	categories := []domain.Category{
		{ID: 1, Name: "Beverages", Description: "Soft drinks, coffees, teas, beers, and ales"},
		{ID: 2, Name: "Condiments", Description: "Sweet and savory sauces, relishes, spreads, and seasonings"},
		{ID: 3, Name: "Confections", Description: "Desserts, candies, and sweet breads"},
	}
	for _, c := range categories {
		if err := r.InsertCategory(ctx, c); err != nil {
			return fmt.Errorf("seed category %d: %w", c.ID, err)
		}
	}

	customers := []domain.Customer{
		{ID: "ALFKI", CompanyName: "Alfreds Futterkiste", ContactName: "Maria Anders", City: "Berlin", Country: "Germany"},
		{ID: "ANATR", CompanyName: "Ana Trujillo Emparedados", ContactName: "Ana Trujillo", City: "Mexico D.F.", Country: "Mexico"},
		{ID: "BERGS", CompanyName: "Berglunds snabbkop", ContactName: "Christina Berglund", City: "Lulea", Country: "Sweden"},
		{ID: "BLONP", CompanyName: "Blondesddsl pere et fils", ContactName: "Frederique Citeaux", City: "Strasbourg", Country: "France"},
	}
	for _, c := range customers {
		if err := r.InsertCustomer(ctx, c); err != nil {
			return fmt.Errorf("seed customer %s: %w", c.ID, err)
		}
	}

	employees := []domain.Employee{
		{ID: 1, Name: "Nancy Davolio", Title: "Sales Representative", City: "Seattle", Country: "USA"},
		{ID: 2, Name: "Andrew Fuller", Title: "Vice President, Sales", City: "Tacoma", Country: "USA"},
		{ID: 3, Name: "Janet Leverling", Title: "Sales Representative", City: "Kirkland", Country: "USA", ReportsTo: intPtr(2)},
	}
	for _, e := range employees {
		if err := r.InsertEmployee(ctx, e); err != nil {
			return fmt.Errorf("seed employee %d: %w", e.ID, err)
		}
	}

	shippers := []domain.Shipper{
		{ID: 1, CompanyName: "Speedy Express"},
		{ID: 2, CompanyName: "United Package"},
		{ID: 3, CompanyName: "Federal Shipping"},
	}
	for _, s := range shippers {
		if err := r.InsertShipper(ctx, s); err != nil {
			return fmt.Errorf("seed shipper %d: %w", s.ID, err)
		}
	}

	products := []domain.Product{
		{ID: 1, Name: "Chai", QuantityPerUnit: "10 boxes x 20 bags", UnitPrice: price("18.00"), CategoryID: intPtr(1)},
		{ID: 2, Name: "Chang", QuantityPerUnit: "24 - 12 oz bottles", UnitPrice: price("19.00"), CategoryID: intPtr(1)},
		{ID: 3, Name: "Aniseed Syrup", QuantityPerUnit: "12 - 550 ml bottles", UnitPrice: price("10.00"), CategoryID: intPtr(2)},
		{ID: 4, Name: "Chef Anton's Cajun Seasoning", QuantityPerUnit: "48 - 6 oz jars", UnitPrice: price("22.00"), CategoryID: intPtr(2)},
		{ID: 5, Name: "Grandma's Boysenberry Spread", QuantityPerUnit: "12 - 8 oz jars", UnitPrice: price("25.00"), CategoryID: intPtr(2)},
		{ID: 6, Name: "Teatime Chocolate Biscuits", QuantityPerUnit: "10 boxes x 12 pieces", UnitPrice: price("9.20"), CategoryID: intPtr(3)},
		{ID: 7, Name: "Sir Rodney's Marmalade", QuantityPerUnit: "30 gift boxes", UnitPrice: price("81.00"), CategoryID: intPtr(3)},
		{ID: 8, Name: "Guarana Fantastica", QuantityPerUnit: "12 - 355 ml cans", UnitPrice: price("4.50"), Discontinued: true, CategoryID: intPtr(1)},
	}
	for _, p := range products {
		if err := r.InsertProduct(ctx, p); err != nil {
			return fmt.Errorf("seed product %d: %w", p.ID, err)
		}
	}

	orders := []domain.Order{
		{ID: 10248, CustomerID: "ALFKI", EmployeeID: intPtr(1), ShipperID: intPtr(1), OrderDate: strPtr("1996-07-04"), RequiredDate: strPtr("1996-08-01"), ShippedDate: strPtr("1996-07-16"), Freight: price("32.38")},
		{ID: 10249, CustomerID: "ANATR", EmployeeID: intPtr(2), ShipperID: intPtr(2), OrderDate: strPtr("1996-07-05"), RequiredDate: strPtr("1996-08-16"), ShippedDate: strPtr("1996-07-10"), Freight: price("11.61")},
		{ID: 10250, CustomerID: "BERGS", EmployeeID: intPtr(3), ShipperID: intPtr(3), OrderDate: strPtr("1996-07-08"), RequiredDate: strPtr("1996-08-05"), Freight: price("65.83")},
		{ID: 10251, CustomerID: "BLONP", OrderDate: strPtr("1996-07-08"), RequiredDate: strPtr("1996-08-05"), Freight: price("41.34")},
		{ID: 10252, CustomerID: "ALFKI", EmployeeID: intPtr(1), ShipperID: intPtr(2), OrderDate: strPtr("1996-07-09"), RequiredDate: strPtr("1996-08-06"), ShippedDate: strPtr("1996-07-11"), Freight: price("51.30")},
	}
	for _, o := range orders {
		if err := r.InsertOrder(ctx, o); err != nil {
			return fmt.Errorf("seed order %d: %w", o.ID, err)
		}
	}

	details := []domain.OrderDetail{
		{OrderID: 10248, ProductID: 1, UnitPrice: price("18.00"), Quantity: 12, Discount: price("0")},
		{OrderID: 10248, ProductID: 6, UnitPrice: price("9.20"), Quantity: 10, Discount: price("0")},
		{OrderID: 10249, ProductID: 2, UnitPrice: price("19.00"), Quantity: 9, Discount: price("0.15")},
		{OrderID: 10250, ProductID: 4, UnitPrice: price("22.00"), Quantity: 35, Discount: price("0.05")},
		{OrderID: 10250, ProductID: 7, UnitPrice: price("81.00"), Quantity: 15, Discount: price("0")},
		{OrderID: 10251, ProductID: 3, UnitPrice: price("10.00"), Quantity: 6, Discount: price("0.05")},
		{OrderID: 10252, ProductID: 5, UnitPrice: price("25.00"), Quantity: 40, Discount: price("0")},
		{OrderID: 10252, ProductID: 8, UnitPrice: price("4.50"), Quantity: 25, Discount: price("0.1")},
	}
	for _, d := range details {
		if err := r.InsertOrderDetail(ctx, d); err != nil {
			return fmt.Errorf("seed order detail %d/%d: %w", d.OrderID, d.ProductID, err)
		}
	}
	return nil
}
