package ledger

import (
	"fmt"
	"strings"
	"time"

	"debttracker/internal/core"
)

// RecordRequest is a candidate transaction as entered by the owner.
//
// FriendID is read for lend and repayment only. SplitFriendIDs and
// IncludeSelf are read for split only. A zero At means "now".
type RecordRequest struct {
	Kind           core.Kind
	Amount         core.Money
	Description    string
	FriendID       core.ID
	SplitFriendIDs []core.ID
	IncludeSelf    bool
	At             time.Time
}

// Record validates req, applies its debt side effects and prepends the
// resulting transaction. On error nothing has changed.
//
//	income, salary, expense: no friend effect
//	lend:      counterparty balance += amount
//	repayment: counterparty balance -= amount
//	split:     each selected friend's balance += amount / participants
func (l *Ledger) Record(req RecordRequest) (core.Transaction, error) {
	desc := strings.TrimSpace(req.Description)
	if err := core.ValidateDescription(desc); err != nil {
		return core.Transaction{}, err
	}
	if err := req.Amount.Validate(); err != nil {
		return core.Transaction{}, &core.ValidationError{Field: "amount", Err: err}
	}
	if !req.Kind.Valid() {
		return core.Transaction{}, &core.ValidationError{Field: "type", Err: core.ErrUnknownKind}
	}
	if _, ok := l.balance.AddChecked(cashDelta(req.Kind, req.Amount)); !ok {
		return core.Transaction{}, &core.ValidationError{Field: "amount", Err: core.ErrBalanceOverflow}
	}

	tx := core.Transaction{
		ID:          l.newID(),
		Date:        timestamp(req.At),
		Description: desc,
		Amount:      req.Amount,
		Kind:        req.Kind,
	}

	switch req.Kind {
	case core.Lend, core.Repayment:
		friend, err := l.counterparty(req.FriendID)
		if err != nil {
			return core.Transaction{}, err
		}
		tx.FriendID = friend.ID.Ptr()
		delta := req.Amount
		if req.Kind == core.Repayment {
			delta = delta.Neg()
		}
		if _, ok := friend.Balance.AddChecked(delta); !ok {
			return core.Transaction{}, &core.ValidationError{Field: "amount", Err: core.ErrBalanceOverflow}
		}
		l.adjustDebt(friend, delta)

	case core.Split:
		details, participants, err := l.planSplit(req)
		if err != nil {
			return core.Transaction{}, err
		}
		for _, f := range participants {
			if _, ok := f.Balance.AddChecked(details.AmountPerPerson); !ok {
				return core.Transaction{}, &core.ValidationError{Field: "amount", Err: core.ErrBalanceOverflow}
			}
		}
		tx.Split = details
		for _, f := range participants {
			l.adjustDebt(f, details.AmountPerPerson)
		}
	}

	l.Append(tx)
	return tx, nil
}

func (l *Ledger) counterparty(id core.ID) (*core.Friend, error) {
	if id == "" {
		return nil, &core.ValidationError{Field: "friendId", Err: core.ErrMissingCounterparty}
	}
	f, ok := l.FindFriend(id)
	if !ok {
		return nil, &core.NotFoundError{Entity: "friend", ID: id}
	}
	return f, nil
}

// planSplit resolves the selected friends without touching any balance, so a
// bad id late in the list cannot leave earlier friends half-updated.
func (l *Ledger) planSplit(req RecordRequest) (*core.SplitDetails, []*core.Friend, error) {
	seen := make(map[core.ID]bool, len(req.SplitFriendIDs))
	ids := make([]core.ID, 0, len(req.SplitFriendIDs))
	friends := make([]*core.Friend, 0, len(req.SplitFriendIDs))
	for _, id := range req.SplitFriendIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		f, ok := l.FindFriend(id)
		if !ok {
			return nil, nil, &core.NotFoundError{Entity: "friend", ID: id}
		}
		ids = append(ids, id)
		friends = append(friends, f)
	}

	total := len(ids)
	if req.IncludeSelf {
		total++
	}
	if total == 0 {
		return nil, nil, &core.ValidationError{Field: "splitDetails", Err: core.ErrNoParticipants}
	}

	return &core.SplitDetails{
		TotalParticipants: total,
		AmountPerPerson:   req.Amount.DivTrunc(total),
		InvolvedFriendIDs: ids,
		IncludedSelf:      req.IncludeSelf,
	}, friends, nil
}

// SettleDebt records a repayment for the friend's full outstanding balance,
// driving it to zero.
func (l *Ledger) SettleDebt(friendID core.ID, at time.Time) (core.Transaction, error) {
	f, err := l.counterparty(friendID)
	if err != nil {
		return core.Transaction{}, err
	}
	if !f.Balance.IsPositive() {
		return core.Transaction{}, &core.ValidationError{Field: "balance", Err: core.ErrNothingToSettle}
	}
	return l.SettleDebtAmount(friendID, f.Balance, at)
}

// SettleDebtAmount records a settlement repayment of an explicit amount. It
// does not cap the amount at the outstanding balance.
func (l *Ledger) SettleDebtAmount(friendID core.ID, amount core.Money, at time.Time) (core.Transaction, error) {
	f, err := l.counterparty(friendID)
	if err != nil {
		return core.Transaction{}, err
	}
	return l.Record(RecordRequest{
		Kind:        core.Repayment,
		Amount:      amount,
		Description: fmt.Sprintf("Full Settlement from %s", f.Name),
		FriendID:    friendID,
		At:          at,
	})
}

// cashDelta is the signed effect of a transaction on the wallet balance.
func cashDelta(kind core.Kind, amount core.Money) core.Money {
	switch kind.CashSign() {
	case 1:
		return amount
	case -1:
		return amount.Neg()
	default:
		return core.Money{}
	}
}

func timestamp(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at
}
