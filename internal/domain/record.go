package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyKZT is the local currency unit all features are expressed in.
const CurrencyKZT = "KZT"

// Transaction is a card payment in one spending category.
// Corresponds to the transactions table.
type Transaction struct {
	ClientCode int64
	Date       time.Time
	Category   string
	Amount     decimal.Decimal // positive, in Currency
	Currency   string
	Product    string // card product used, may be empty
}

// TransferType classifies a money movement.
type TransferType string

// Transfer types present in the source data.
const (
	TransferSalaryIn           TransferType = "salary_in"
	TransferStipendIn          TransferType = "stipend_in"
	TransferFamilyIn           TransferType = "family_in"
	TransferCashbackIn         TransferType = "cashback_in"
	TransferRefundIn           TransferType = "refund_in"
	TransferCardIn             TransferType = "card_in"
	TransferP2POut             TransferType = "p2p_out"
	TransferCardOut            TransferType = "card_out"
	TransferATMWithdrawal      TransferType = "atm_withdrawal"
	TransferUtilitiesOut       TransferType = "utilities_out"
	TransferLoanPaymentOut     TransferType = "loan_payment_out"
	TransferCCRepaymentOut     TransferType = "cc_repayment_out"
	TransferInstallmentOut     TransferType = "installment_payment_out"
	TransferFXBuy              TransferType = "fx_buy"
	TransferFXSell             TransferType = "fx_sell"
	TransferInvestOut          TransferType = "invest_out"
	TransferInvestIn           TransferType = "invest_in"
	TransferDepositTopupOut    TransferType = "deposit_topup_out"
	TransferDepositFXTopupOut  TransferType = "deposit_fx_topup_out"
	TransferDepositFXWithdraw  TransferType = "deposit_fx_withdraw_in"
	TransferGoldBuyOut         TransferType = "gold_buy_out"
	TransferGoldSellIn         TransferType = "gold_sell_in"
)

// Transfer directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Transfer is an incoming or outgoing money movement.
// Corresponds to the transfers table.
type Transfer struct {
	ClientCode int64
	Date       time.Time
	Type       TransferType
	Direction  string // "in" | "out"
	Amount     decimal.Decimal
	Currency   string
	Product    string
}
