package domain

import "github.com/shopspring/decimal"

// ClientStatus is the client segment as supplied by the bank.
type ClientStatus string

// Known client segments.
const (
	ClientStatusStudent  ClientStatus = "Студент"
	ClientStatusSalary   ClientStatus = "Зарплатный клиент"
	ClientStatusPremium  ClientStatus = "Премиальный клиент"
	ClientStatusStandard ClientStatus = "Стандартный клиент"
)

// Client is an immutable client profile for one pipeline run.
// Corresponds to the clients table.
type Client struct {
	Code              int64  // unique, stable
	Name              string // display name
	Status            ClientStatus
	Age               int
	City              string
	AvgMonthlyBalance decimal.Decimal // KZT
}

// Validate checks the profile fields the pipeline depends on.
func (c *Client) Validate() error {
	if c.Code <= 0 {
		return &DataIntegrityError{ClientCode: c.Code, Reason: "client code must be positive"}
	}
	if c.Name == "" {
		return &DataIntegrityError{ClientCode: c.Code, Reason: "client name is empty"}
	}
	return nil
}
