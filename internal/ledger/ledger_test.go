package ledger

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"debttracker/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() core.ID {
		n++
		return core.ID(fmt.Sprintf("id-%d", n))
	})
}

func money(major int64) core.Money {
	return core.Money{Cents: major * 100}
}

var day = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func TestLedger_EndToEnd(t *testing.T) {
	l := New(sequentialIDs())

	_, err := l.Record(RecordRequest{Kind: core.Expense, Amount: money(12000), Description: "Rent", At: day})
	require.NoError(t, err)

	a, err := l.AddFriend("A")
	require.NoError(t, err)
	assert.True(t, a.Balance.IsZero())

	_, err = l.Record(RecordRequest{Kind: core.Lend, Amount: money(2000), Description: "Lend to A", FriendID: a.ID, At: day})
	require.NoError(t, err)
	got, err := l.Friend(a.ID)
	require.NoError(t, err)
	assert.Equal(t, money(2000), got.Balance)

	_, err = l.Record(RecordRequest{Kind: core.Repayment, Amount: money(1000), Description: "A returned", FriendID: a.ID, At: day})
	require.NoError(t, err)
	got, _ = l.Friend(a.ID)
	assert.Equal(t, money(1000), got.Balance)

	summary := l.Summary()
	assert.Equal(t, money(-13000), summary.TotalBalance)
	assert.Equal(t, money(1000), summary.TotalOwedToOwner)
	assert.Equal(t, 3, summary.TransactionCount)
	assert.Equal(t, 1, summary.FriendCount)

	txs := l.Transactions()
	require.Len(t, txs, 3)
	assert.Equal(t, "A returned", txs[0].Description, "newest transaction must be first")
	assert.Equal(t, "Rent", txs[2].Description)
}

func TestTotalBalance_IsDeterministic(t *testing.T) {
	friend := core.ID("f")
	txs := []core.Transaction{
		{Kind: core.Income, Amount: money(100)},
		{Kind: core.Salary, Amount: money(5000)},
		{Kind: core.Repayment, Amount: money(30), FriendID: &friend},
		{Kind: core.Expense, Amount: money(70)},
		{Kind: core.Lend, Amount: money(200), FriendID: &friend},
		{Kind: core.Split, Amount: money(900), Split: &core.SplitDetails{TotalParticipants: 3}},
	}
	first := TotalBalance(txs)
	second := TotalBalance(txs)
	assert.Equal(t, first, second)
	assert.Equal(t, money(100+5000+30-70-200), first)
}

// A split paid by the owner does not move the wallet balance; only the
// friends' debts change. This mirrors existing stored ledgers and is kept
// until the owner's share is meant to be booked as an expense.
func TestSplit_DoesNotTouchBalance(t *testing.T) {
	l := New(sequentialIDs())
	f, _ := l.AddFriend("F")

	_, err := l.Record(RecordRequest{Kind: core.Split, Amount: money(900), Description: "Dinner",
		SplitFriendIDs: []core.ID{f.ID}, IncludeSelf: true, At: day})
	require.NoError(t, err)

	assert.True(t, l.Balance().IsZero(), "split must not change total balance")
	got, _ := l.Friend(f.ID)
	assert.Equal(t, money(450), got.Balance)
}

func TestLendRepayment_AreInverses(t *testing.T) {
	l := New()
	f, _ := l.AddFriend("F")
	_, err := l.Record(RecordRequest{Kind: core.Lend, Amount: money(50), Description: "seed", FriendID: f.ID})
	require.NoError(t, err)
	before, _ := l.Friend(f.ID)

	amount := core.Money{Cents: 12345}
	_, err = l.Record(RecordRequest{Kind: core.Lend, Amount: amount, Description: "loan", FriendID: f.ID})
	require.NoError(t, err)
	mid, _ := l.Friend(f.ID)
	assert.Equal(t, before.Balance.Add(amount), mid.Balance)

	_, err = l.Record(RecordRequest{Kind: core.Repayment, Amount: amount, Description: "back", FriendID: f.ID})
	require.NoError(t, err)
	after, _ := l.Friend(f.ID)
	assert.Equal(t, before.Balance, after.Balance)
}

func TestSplit_DistributesEvenly(t *testing.T) {
	tests := []struct {
		name        string
		amount      core.Money
		friends     int
		includeSelf bool
		perPerson   int64
	}{
		{"friends only", money(900), 3, false, 30000},
		{"with owner", money(900), 2, true, 30000},
		{"remainder dropped", core.Money{Cents: 1000}, 3, false, 333},
		{"owner and one friend", core.Money{Cents: 1001}, 1, true, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(sequentialIDs())
			var ids []core.ID
			for i := 0; i < tt.friends; i++ {
				f, err := l.AddFriend(fmt.Sprintf("friend %d", i))
				require.NoError(t, err)
				ids = append(ids, f.ID)
			}

			tx, err := l.Record(RecordRequest{Kind: core.Split, Amount: tt.amount, Description: "Bill",
				SplitFriendIDs: ids, IncludeSelf: tt.includeSelf})
			require.NoError(t, err)
			require.NotNil(t, tx.Split)

			participants := tt.friends
			if tt.includeSelf {
				participants++
			}
			assert.Equal(t, participants, tx.Split.TotalParticipants)
			assert.Equal(t, tt.perPerson, tx.Split.AmountPerPerson.Cents)
			assert.Equal(t, ids, tx.Split.InvolvedFriendIDs)
			assert.Equal(t, tt.includeSelf, tx.Split.IncludedSelf)
			assert.Nil(t, tx.FriendID)

			var sum int64
			for _, f := range l.Friends() {
				assert.Equal(t, tt.perPerson, f.Balance.Cents)
				sum += f.Balance.Cents
			}
			if !tt.includeSelf {
				// truncation loses at most one cent per participant
				assert.InDelta(t, tt.amount.Cents, sum, float64(participants))
			}
		})
	}
}

func TestSplit_DuplicateFriendCountsOnce(t *testing.T) {
	l := New()
	f, _ := l.AddFriend("F")
	tx, err := l.Record(RecordRequest{Kind: core.Split, Amount: money(100), Description: "x",
		SplitFriendIDs: []core.ID{f.ID, f.ID}, IncludeSelf: true})
	require.NoError(t, err)
	assert.Equal(t, 2, tx.Split.TotalParticipants)
	got, _ := l.Friend(f.ID)
	assert.Equal(t, money(50), got.Balance)
}

func TestSettleDebt(t *testing.T) {
	l := New(sequentialIDs())
	f, _ := l.AddFriend("Rahul")
	_, err := l.Record(RecordRequest{Kind: core.Lend, Amount: core.Money{Cents: 123456}, Description: "loan", FriendID: f.ID})
	require.NoError(t, err)
	count := len(l.Transactions())

	tx, err := l.SettleDebt(f.ID, day)
	require.NoError(t, err)

	got, _ := l.Friend(f.ID)
	assert.True(t, got.Balance.IsZero())
	assert.Len(t, l.Transactions(), count+1)
	assert.Equal(t, core.Repayment, tx.Kind)
	assert.Equal(t, core.Money{Cents: 123456}, tx.Amount)
	assert.Equal(t, "Full Settlement from Rahul", tx.Description)
	require.NotNil(t, tx.FriendID)
	assert.Equal(t, f.ID, *tx.FriendID)
	assert.Equal(t, day, tx.Date)
	assert.True(t, l.Balance().IsZero(), "loan and settlement cancel out")

	_, err = l.SettleDebt(f.ID, day)
	assert.ErrorIs(t, err, core.ErrNothingToSettle)
	assert.Len(t, l.Transactions(), count+1)
}

func TestSettleDebtAmount_AllowsOverRepayment(t *testing.T) {
	l := New()
	f, _ := l.AddFriend("F")
	_, err := l.Record(RecordRequest{Kind: core.Lend, Amount: money(10), Description: "loan", FriendID: f.ID})
	require.NoError(t, err)

	_, err = l.SettleDebtAmount(f.ID, money(15), day)
	require.NoError(t, err)
	got, _ := l.Friend(f.ID)
	assert.Equal(t, money(-5), got.Balance)
	assert.True(t, TotalOwedToOwner(l.Friends()).IsZero(), "negative balances are not owed")
}

func TestRecord_RejectedInputsDoNotMutate(t *testing.T) {
	l := New(sequentialIDs())
	f, _ := l.AddFriend("F")
	_, err := l.Record(RecordRequest{Kind: core.Lend, Amount: money(40), Description: "seed", FriendID: f.ID})
	require.NoError(t, err)

	txsBefore := l.Transactions()
	friendsBefore := l.Friends()
	balanceBefore := l.Balance()

	tests := []struct {
		name string
		req  RecordRequest
		want error
	}{
		{"zero amount", RecordRequest{Kind: core.Expense, Amount: core.Money{}, Description: "x"}, core.ErrInvalidAmount},
		{"negative amount", RecordRequest{Kind: core.Expense, Amount: money(-5), Description: "x"}, core.ErrInvalidAmount},
		{"empty description", RecordRequest{Kind: core.Expense, Amount: money(5), Description: ""}, core.ErrEmptyDescription},
		{"blank description", RecordRequest{Kind: core.Income, Amount: money(5), Description: "  "}, core.ErrEmptyDescription},
		{"unknown kind", RecordRequest{Kind: "gift", Amount: money(5), Description: "x"}, core.ErrUnknownKind},
		{"lend without friend", RecordRequest{Kind: core.Lend, Amount: money(5), Description: "x"}, core.ErrMissingCounterparty},
		{"repayment from unknown friend", RecordRequest{Kind: core.Repayment, Amount: money(5), Description: "x", FriendID: "nope"}, core.ErrNotFound},
		{"split without participants", RecordRequest{Kind: core.Split, Amount: money(5), Description: "x"}, core.ErrNoParticipants},
		{"split with unknown friend", RecordRequest{Kind: core.Split, Amount: money(5), Description: "x",
			SplitFriendIDs: []core.ID{f.ID, "ghost"}}, core.ErrNotFound},
		{"empty description wins over amount", RecordRequest{Kind: core.Lend, Amount: money(0), Description: ""}, core.ErrEmptyDescription},
		{"amount above maximum", RecordRequest{Kind: core.Income, Amount: core.MaxAmount.Add(core.Money{Cents: 1}), Description: "x"}, core.ErrAmountTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Record(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, core.IsValidation(err))

			assert.Equal(t, txsBefore, l.Transactions())
			assert.Equal(t, friendsBefore, l.Friends())
			assert.Equal(t, balanceBefore, l.Balance())
		})
	}
}

func TestRecord_LongDescriptions(t *testing.T) {
	l := New()
	for _, desc := range []string{
		strings.Repeat("a", 201),
		strings.Repeat("कि", 70),
		strings.Repeat("groceries ", 500),
	} {
		tx, err := l.Record(RecordRequest{Kind: core.Expense, Amount: money(5), Description: desc})
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSpace(desc), tx.Description)
	}
	assert.Len(t, l.Transactions(), 3)
}

func TestRecord_BalanceOverflowRejected(t *testing.T) {
	near := core.Money{Cents: math.MaxInt64 - 10}
	snap := core.EmptySnapshot()
	snap.Friends = []core.Friend{{ID: "rich", Name: "Rich", Balance: near}}
	snap.Transactions = []core.Transaction{{ID: "old", Date: day, Description: "Windfall", Amount: near, Kind: core.Income}}
	l := FromSnapshot(snap)
	require.Equal(t, near, l.Balance())

	txsBefore := l.Transactions()
	friendsBefore := l.Friends()

	tests := []struct {
		name string
		req  RecordRequest
	}{
		{"income", RecordRequest{Kind: core.Income, Amount: money(1), Description: "Bonus"}},
		{"repayment", RecordRequest{Kind: core.Repayment, Amount: money(1), Description: "Back", FriendID: "rich"}},
		{"split share", RecordRequest{Kind: core.Split, Amount: money(2), Description: "Dinner",
			SplitFriendIDs: []core.ID{"rich"}, IncludeSelf: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Record(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrBalanceOverflow)
			assert.True(t, core.IsValidation(err))
			assert.Equal(t, txsBefore, l.Transactions())
			assert.Equal(t, friendsBefore, l.Friends())
			assert.Equal(t, near, l.Balance())
		})
	}

	// two maximal incomes on a fresh ledger stay exact
	fresh := New()
	for i := 0; i < 2; i++ {
		_, err := fresh.Record(RecordRequest{Kind: core.Income, Amount: core.MaxAmount, Description: "Big"})
		require.NoError(t, err)
	}
	assert.Equal(t, core.Money{Cents: 2 * core.MaxAmount.Cents}, fresh.Balance())
}

func TestTotalOwedToOwner_Saturates(t *testing.T) {
	friends := []core.Friend{
		{ID: "a", Balance: core.Money{Cents: math.MaxInt64 - 1}},
		{ID: "b", Balance: core.Money{Cents: 5}},
	}
	assert.Equal(t, core.Money{Cents: math.MaxInt64}, TotalOwedToOwner(friends))
}

func TestRecord_IgnoresCounterpartyForCashKinds(t *testing.T) {
	l := New()
	f, _ := l.AddFriend("F")
	tx, err := l.Record(RecordRequest{Kind: core.Expense, Amount: money(5), Description: "Coffee", FriendID: f.ID})
	require.NoError(t, err)
	assert.Nil(t, tx.FriendID)
	assert.NoError(t, tx.Validate())
	got, _ := l.Friend(f.ID)
	assert.True(t, got.Balance.IsZero())
}

func TestAddFriend(t *testing.T) {
	l := New(sequentialIDs())
	_, err := l.AddFriend("   ")
	assert.ErrorIs(t, err, core.ErrEmptyName)
	assert.Empty(t, l.Friends())

	f, err := l.AddFriend("  Rahul ")
	require.NoError(t, err)
	assert.Equal(t, "Rahul", f.Name)

	found, ok := l.FindFriend(f.ID)
	require.True(t, ok)
	assert.Equal(t, f, *found)

	_, ok = l.FindFriend("missing")
	assert.False(t, ok)
	_, err = l.Friend("missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFromSnapshot_RoundTrip(t *testing.T) {
	l := New(sequentialIDs())
	f, _ := l.AddFriend("F")
	_, err := l.Record(RecordRequest{Kind: core.Lend, Amount: money(20), Description: "loan", FriendID: f.ID, At: day})
	require.NoError(t, err)
	_, err = l.Record(RecordRequest{Kind: core.Income, Amount: money(100), Description: "gift", At: day})
	require.NoError(t, err)

	restored := FromSnapshot(l.Snapshot())
	assert.Equal(t, l.Transactions(), restored.Transactions())
	assert.Equal(t, l.Friends(), restored.Friends())
	assert.Equal(t, l.Balance(), restored.Balance())

	_, err = restored.Record(RecordRequest{Kind: core.Repayment, Amount: money(20), Description: "back", FriendID: f.ID})
	require.NoError(t, err)
	got, _ := restored.Friend(f.ID)
	assert.True(t, got.Balance.IsZero())
}

func TestFromSnapshot_DefaultsSalaryDay(t *testing.T) {
	l := FromSnapshot(core.Snapshot{})
	assert.Equal(t, 1, l.Settings().SalaryDay)
	snap := l.Snapshot()
	assert.NotNil(t, snap.Transactions)
	assert.NotNil(t, snap.Friends)
}
