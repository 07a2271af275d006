package customers

import "strings"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Customer is one row of the customer table
type Customer struct {
	ID              string  `json:"id"`
	Status          Status  `json:"status"`
	Email           string  `json:"email"`
	FullName        string  `json:"fullName"`
	Phone           string  `json:"phone"`
	Address         string  `json:"address"`
	NextBillingDate string  `json:"nextBillingDate"`
	BalanceDue      float64 `json:"balanceDue"`
}

func (c *Customer) IsActive() bool {
	return c.Status == StatusActive
}

// Column is a table header and the key of the field it shows
type Column struct {
	Key    string
	Header string
}

// Columns is the customer table layout. The id is not shown.
func Columns() []Column {
	return []Column{
		{Key: "status", Header: "Status"},
		{Key: "email", Header: "Email"},
		{Key: "fullName", Header: "Full Name"},
		{Key: "phone", Header: "Phone"},
		{Key: "address", Header: "Address"},
		{Key: "nextBillingDate", Header: "Next Billing Date"},
		{Key: "balanceDue", Header: "Balance Due"},
	}
}

// Filter keeps customers whose email or full name contains query, ignoring case
func Filter(list []Customer, query string) []Customer {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}
	out := make([]Customer, 0, len(list))
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.Email), query) || strings.Contains(strings.ToLower(c.FullName), query) {
			out = append(out, c)
		}
	}
	return out
}

// Seed is the starting customer list of a fresh backend
func Seed() []Customer {
	return []Customer{
		{
			ID:              "728ed52f",
			Status:          StatusActive,
			Email:           "m@example.com",
			FullName:        "John Doe",
			Phone:           "123-456-7890",
			Address:         "Nunez de cacerez 14a, Bellavista, Santiago, DOM",
			NextBillingDate: "2025-08-20",
			BalanceDue:      100,
		},
		{
			ID:              "489e1d42",
			Status:          StatusInactive,
			Email:           "example@gmail.com",
			FullName:        "John Doe",
			Phone:           "123-456-7890",
			Address:         "Cerro alto 23b, Donato, Santiago, DOM",
			NextBillingDate: "2025-08-20",
			BalanceDue:      100,
		},
	}
}
