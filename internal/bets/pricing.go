package bets

import (
	"errors"
	"fmt"
	"sort"

	pkgerrors "github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/errors"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/types"
)

// PriceSchedule maps a selection size to the price of one weekly bet.
type PriceSchedule map[int]int

// NewPriceSchedule copies the configured schedule.
func NewPriceSchedule(raw map[int]int) (PriceSchedule, error) {
	if len(raw) == 0 {
		return nil, errors.New("price schedule is empty")
	}
	schedule := make(PriceSchedule, len(raw))
	for count, price := range raw {
		if price <= 0 {
			return nil, fmt.Errorf("price for %d numbers must be positive", count)
		}
		schedule[count] = price
	}
	return schedule, nil
}

// PriceFor returns the price of a selection with count numbers.
func (p PriceSchedule) PriceFor(count int) (int, bool) {
	price, ok := p[count]
	return price, ok
}

// Entries lists the schedule ordered by selection size.
func (p PriceSchedule) Entries() [][2]int {
	counts := make([]int, 0, len(p))
	for count := range p {
		counts = append(counts, count)
	}
	sort.Ints(counts)
	entries := make([][2]int, 0, len(counts))
	for _, count := range counts {
		entries = append(entries, [2]int{count, p[count]})
	}
	return entries
}

// Validate canonicalises the numbers and checks the quoted price against the
// schedule.
func (p PriceSchedule) Validate(numbers []int, price int) (types.Selection, error) {
	selection, err := types.NewSelection(numbers)
	if err != nil {
		return types.Selection{}, pkgerrors.Wrap(pkgerrors.CodeInvalidSelection, err, err.Error())
	}
	expected, ok := p.PriceFor(selection.Count())
	if !ok {
		return types.Selection{}, pkgerrors.New(pkgerrors.CodeInvalidSelection, fmt.Sprintf("no price for %d numbers", selection.Count()))
	}
	if price != expected {
		return types.Selection{}, pkgerrors.New(pkgerrors.CodeInvalidSelection, fmt.Sprintf("price for %d numbers is %d", selection.Count(), expected)).
			WithDetails(map[string]any{"count": selection.Count(), "expectedPrice": expected, "price": price})
	}
	return selection, nil
}
