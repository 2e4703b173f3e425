// Package ingest reads the bank CSV exports into domain records.
//
// Files:
//   - clients.csv: client_code,name,status,age,city,avg_monthly_balance_KZT
//   - client_<n>_transactions_3m.csv: date,category,amount,currency,client_code,product,...
//   - client_<n>_transfers_3m.csv: date,type,direction,amount,currency,client_code,product,...
//
// Columns are matched by header name; extra columns are ignored.
// Rows that fail to parse are skipped and counted.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// table is a CSV file with a header index.
type table struct {
	r       *csv.Reader
	columns map[string]int
}

func newTable(r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		columns[strings.ToLower(h)] = i
	}
	for _, name := range required {
		if _, ok := columns[strings.ToLower(name)]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return &table{r: cr, columns: columns}, nil
}

// next returns the next row, io.EOF at the end.
func (t *table) next() ([]string, error) {
	return t.r.Read()
}

func (t *table) get(row []string, name string) string {
	i, ok := t.columns[strings.ToLower(name)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadClients parses clients.csv. It returns the parsed profiles and the
// number of skipped rows.
func ReadClients(r io.Reader) ([]*domain.Client, int, error) {
	t, err := newTable(r, "client_code", "name", "avg_monthly_balance_KZT")
	if err != nil {
		return nil, 0, err
	}

	var out []*domain.Client
	skipped := 0
	for {
		row, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		c, err := parseClient(t, row)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, c)
	}
	return out, skipped, nil
}

func parseClient(t *table, row []string) (*domain.Client, error) {
	code, err := strconv.ParseInt(t.get(row, "client_code"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("client_code: %w", err)
	}
	balance, err := decimal.NewFromString(t.get(row, "avg_monthly_balance_KZT"))
	if err != nil {
		return nil, fmt.Errorf("avg_monthly_balance_KZT: %w", err)
	}
	age := 0
	if s := t.get(row, "age"); s != "" {
		if age, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("age: %w", err)
		}
	}

	c := &domain.Client{
		Code:              code,
		Name:              t.get(row, "name"),
		Status:            domain.ClientStatus(t.get(row, "status")),
		Age:               age,
		City:              t.get(row, "city"),
		AvgMonthlyBalance: balance,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadTransactions parses a transactions file. fallbackCode is used for rows
// without a client_code column value, e.g. when it comes from the file name.
func ReadTransactions(r io.Reader, fallbackCode int64) ([]*domain.Transaction, int, error) {
	t, err := newTable(r, "date", "category", "amount")
	if err != nil {
		return nil, 0, err
	}

	var out []*domain.Transaction
	skipped := 0
	for {
		row, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		code, date, amount, err := parseCommon(t, row, fallbackCode)
		if err != nil || t.get(row, "category") == "" {
			skipped++
			continue
		}
		out = append(out, &domain.Transaction{
			ClientCode: code,
			Date:       date,
			Category:   t.get(row, "category"),
			Amount:     amount,
			Currency:   currency(t.get(row, "currency")),
			Product:    t.get(row, "product"),
		})
	}
	return out, skipped, nil
}

// ReadTransfers parses a transfers file.
func ReadTransfers(r io.Reader, fallbackCode int64) ([]*domain.Transfer, int, error) {
	t, err := newTable(r, "date", "type", "direction", "amount")
	if err != nil {
		return nil, 0, err
	}

	var out []*domain.Transfer
	skipped := 0
	for {
		row, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		code, date, amount, err := parseCommon(t, row, fallbackCode)
		if err != nil {
			skipped++
			continue
		}
		direction := strings.ToLower(t.get(row, "direction"))
		if direction != domain.DirectionIn && direction != domain.DirectionOut {
			skipped++
			continue
		}
		typ := t.get(row, "type")
		if typ == "" {
			skipped++
			continue
		}
		out = append(out, &domain.Transfer{
			ClientCode: code,
			Date:       date,
			Type:       domain.TransferType(typ),
			Direction:  direction,
			Amount:     amount,
			Currency:   currency(t.get(row, "currency")),
			Product:    t.get(row, "product"),
		})
	}
	return out, skipped, nil
}

func parseCommon(t *table, row []string, fallbackCode int64) (int64, time.Time, decimal.Decimal, error) {
	code := fallbackCode
	if s := t.get(row, "client_code"); s != "" {
		c, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, time.Time{}, decimal.Zero, fmt.Errorf("client_code: %w", err)
		}
		code = c
	}
	if code <= 0 {
		return 0, time.Time{}, decimal.Zero, fmt.Errorf("client_code missing")
	}

	date, err := parseDate(t.get(row, "date"))
	if err != nil {
		return 0, time.Time{}, decimal.Zero, err
	}
	amount, err := decimal.NewFromString(t.get(row, "amount"))
	if err != nil {
		return 0, time.Time{}, decimal.Zero, fmt.Errorf("amount: %w", err)
	}
	return code, date, amount, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func currency(s string) string {
	if s == "" {
		return domain.CurrencyKZT
	}
	return strings.ToUpper(s)
}
