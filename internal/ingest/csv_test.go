package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-personalization/internal/domain"
)

func TestReadClients(t *testing.T) {
	in := "\ufeffclient_code,name,status,age,city,avg_monthly_balance_KZT\n" +
		"1,Айгерим,Зарплатный клиент,29,Алматы,92643\n" +
		"2,Данияр,Студент,x,Астана,1000\n" + // bad age
		"3,,Студент,20,Астана,1000\n" + // empty name
		"4, Рамазан ,Премиальный клиент,45,Шымкент,2450000.50\n"

	clients, skipped, err := ReadClients(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, clients, 2)

	assert.Equal(t, int64(1), clients[0].Code)
	assert.Equal(t, domain.ClientStatusSalary, clients[0].Status)
	assert.Equal(t, 29, clients[0].Age)
	assert.True(t, clients[0].AvgMonthlyBalance.Equal(decimal.NewFromInt(92643)))

	assert.Equal(t, "Рамазан", clients[1].Name)
	assert.True(t, clients[1].AvgMonthlyBalance.Equal(decimal.RequireFromString("2450000.5")))
}

func TestReadClients_MissingColumn(t *testing.T) {
	_, _, err := ReadClients(strings.NewReader("client_code,name\n1,A\n"))
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestReadTransactions(t *testing.T) {
	in := "client_code,name,product,status,city,date,category,amount,currency\n" +
		"7,Алия,Карта для путешествий,Стандартный клиент,Алматы,2025-06-03 10:15:00,Такси,2500.00,KZT\n" +
		"7,Алия,,Стандартный клиент,Алматы,2025-06-04,Отели,120,usd\n" +
		"7,Алия,,Стандартный клиент,Алматы,not-a-date,Кино,100,KZT\n" +
		"7,Алия,,Стандартный клиент,Алматы,2025-06-05,Кино,abc,KZT\n" +
		",Алия,,Стандартный клиент,Алматы,2025-06-06,Кино,300,\n"

	txs, skipped, err := ReadTransactions(strings.NewReader(in), 7)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, txs, 3)

	assert.Equal(t, time.Date(2025, 6, 3, 10, 15, 0, 0, time.UTC), txs[0].Date)
	assert.Equal(t, "Карта для путешествий", txs[0].Product)
	assert.Equal(t, "USD", txs[1].Currency)
	assert.Equal(t, int64(7), txs[2].ClientCode, "missing client_code falls back to the file's code")
	assert.Equal(t, domain.CurrencyKZT, txs[2].Currency)
}

func TestReadTransfers(t *testing.T) {
	in := "client_code,date,type,direction,amount,currency\n" +
		"5,2025-07-01,salary_in,in,350000,KZT\n" +
		"5,2025-07-02,atm_withdrawal,OUT,20000,KZT\n" +
		"5,2025-07-03,fx_buy,sideways,100,USD\n" +
		"5,2025-07-04,,out,100,KZT\n"

	transfers, skipped, err := ReadTransfers(strings.NewReader(in), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, transfers, 2)

	assert.Equal(t, domain.TransferSalaryIn, transfers[0].Type)
	assert.Equal(t, domain.DirectionIn, transfers[0].Direction)
	assert.Equal(t, domain.DirectionOut, transfers[1].Direction)
}
