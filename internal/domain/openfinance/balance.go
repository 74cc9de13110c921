package openfinance

import (
	ofclient "finlink/internal/infrastructure/belvo"
)

const (
	TypeInflow  = "INFLOW"
	TypeOutflow = "OUTFLOW"
)

// Balance is the income/expense summary of one link's transactions.
type Balance struct {
	Incomes      float64                `json:"incomes"`
	Expenses     float64                `json:"expenses"`
	Balance      float64                `json:"balance"`
	Transactions []ofclient.Transaction `json:"transactions"`
}

// Summarize sums INFLOW amounts into incomes and OUTFLOW amounts into
// expenses. Other types are ignored but kept in Transactions. Amounts are
// added as received, without rounding.
func Summarize(transactions []ofclient.Transaction) Balance {
	var incomes, expenses float64
	for _, tx := range transactions {
		switch tx.Type {
		case TypeInflow:
			incomes += tx.Amount
		case TypeOutflow:
			expenses += tx.Amount
		}
	}

	if transactions == nil {
		transactions = []ofclient.Transaction{}
	}

	return Balance{
		Incomes:      incomes,
		Expenses:     expenses,
		Balance:      incomes - expenses,
		Transactions: transactions,
	}
}
