package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Summary is the headline state of a ledger: wallet balance and the total
// friends currently owe the owner.
type Summary struct {
	TotalBalance     Money
	TotalOwedToOwner Money
	FriendCount      int
	TransactionCount int
}
