package domain

type Customer struct {
	BaseEntity
	Name           string         `json:"name"`
	ContactName    string         `json:"contactName"`
	ContactEmail   string         `json:"contactEmail"`
	ContactPhone   string         `json:"contactPhone"`
	Address        string         `json:"address"`
	BusinessNumber string         `json:"businessNumber"`
	Industry       string         `json:"industry"`
	Type           CustomerType   `json:"type"`
	Status         CustomerStatus `json:"status"`
}

func NewCustomer(name string) *Customer {
	return &Customer{Name: name, Type: CustomerSME, Status: CustomerStatusActive}
}
