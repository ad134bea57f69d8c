package draws

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutInput is everything the prize split depends on.
type PayoutInput struct {
	Revenue           int
	PrizeShare        decimal.Decimal
	InPersonWinners   int
	InPersonPrizePool int
	WinningBetIDs     []uuid.UUID
}

// Payout is the prize split of one game. Winnings maps each winning digital
// bet to its amount; in-person winners each receive ShareAmount out of band.
type Payout struct {
	DigitalPool    int
	PrizePool      int
	Shares         int
	ShareAmount    int
	Remainder      int
	RemainderBetID *uuid.UUID
	Winnings       map[uuid.UUID]int
}

// DigitalTotal sums the winnings credited to digital bets.
func (p Payout) DigitalTotal() int {
	total := 0
	for _, amount := range p.Winnings {
		total += amount
	}
	return total
}

// ComputePayout splits floor(revenue*share) plus the in-person pool evenly
// across every winner. The indivisible remainder goes to the winning bet with
// the lexicographically smallest id. With no winners nothing is distributed.
func ComputePayout(in PayoutInput) Payout {
	digitalPool := decimal.NewFromInt(int64(in.Revenue)).Mul(in.PrizeShare).Floor().IntPart()
	inPersonPool := in.InPersonPrizePool
	if inPersonPool < 0 {
		inPersonPool = 0
	}
	inPersonWinners := in.InPersonWinners
	if inPersonWinners < 0 {
		inPersonWinners = 0
	}

	out := Payout{
		DigitalPool: int(digitalPool),
		PrizePool:   int(digitalPool) + inPersonPool,
		Shares:      len(in.WinningBetIDs) + inPersonWinners,
		Winnings:    make(map[uuid.UUID]int, len(in.WinningBetIDs)),
	}
	if out.Shares == 0 {
		return out
	}

	out.ShareAmount = out.PrizePool / out.Shares
	out.Remainder = out.PrizePool - out.ShareAmount*out.Shares
	for _, id := range in.WinningBetIDs {
		out.Winnings[id] = out.ShareAmount
	}
	if len(in.WinningBetIDs) > 0 {
		ids := make([]uuid.UUID, len(in.WinningBetIDs))
		copy(ids, in.WinningBetIDs)
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
		first := ids[0]
		out.RemainderBetID = &first
		out.Winnings[first] += out.Remainder
	}
	return out
}
