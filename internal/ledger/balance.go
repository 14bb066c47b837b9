package ledger

import (
	"math"

	"debttracker/internal/core"
)

// TotalBalance folds the transaction sequence into the wallet balance:
// income, salary and repayments add; expenses and loans subtract.
//
// Split transactions are deliberately left out. Their cash effect is carried
// only by the friend debts they create, and the payer's own outlay is never
// booked against the balance.
func TotalBalance(txs []core.Transaction) core.Money {
	var total core.Money
	for _, tx := range txs {
		total = total.Add(cashDelta(tx.Kind, tx.Amount))
	}
	return total
}

// TotalOwedToOwner sums positive friend balances. Negative balances from
// over-repayment stay on the friend record but are not netted here. The sum
// saturates at the largest representable amount.
func TotalOwedToOwner(friends []core.Friend) core.Money {
	var total core.Money
	for _, f := range friends {
		if !f.Balance.IsPositive() {
			continue
		}
		sum, ok := total.AddChecked(f.Balance)
		if !ok {
			return core.Money{Cents: math.MaxInt64}
		}
		total = sum
	}
	return total
}
