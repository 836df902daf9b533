package accounting

import "time"

// Sale status values used by the accounting backend.
const (
	SaleStatusPaid    = "paid"
	SaleStatusUnpaid  = "unpaid"
	SaleStatusPartial = "partial"
)

// Pagination describes the paging metadata attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Sale represents a sales invoice as returned by the backend.
type Sale struct {
	ID                string    `json:"id"`
	InvoiceNumber     string    `json:"invoice_number"`
	CustomerID        string    `json:"customer_id"`
	CustomerName      string    `json:"customer_name"`
	TotalAmount       float64   `json:"total_amount"`
	PaidAmount        float64   `json:"paid_amount"`
	OutstandingAmount float64   `json:"outstanding_amount"`
	Status            string    `json:"status"`
	DueDate           time.Time `json:"due_date"`
	CreatedAt         time.Time `json:"created_at"`
}

// Payment represents a recorded payment with its embedded sale reference.
type Payment struct {
	ID            string    `json:"id"`
	SaleID        string    `json:"sale_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"`
	CreatedAt     time.Time `json:"created_at"`
}

// Customer represents a customer record.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// SalesResponse is the envelope for GET /api/sales.
type SalesResponse struct {
	Success    bool        `json:"success"`
	Data       []Sale      `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// PaymentsResponse is the envelope for GET /api/payments.
type PaymentsResponse struct {
	Success bool      `json:"success"`
	Data    []Payment `json:"data"`
}

// CustomersResponse is the envelope for GET /api/customers.
type CustomersResponse struct {
	Success    bool        `json:"success"`
	Data       []Customer  `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ErrorResponse is the body the backend returns on failed requests.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
