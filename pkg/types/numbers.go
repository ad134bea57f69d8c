package types

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	MinNumber          = 1
	MaxNumber          = 16
	MinSelectionSize   = 5
	MaxSelectionSize   = 8
	WinningNumberCount = 3
)

var (
	ErrSelectionSize      = errors.New("selection size out of range")
	ErrNumberOutOfRange   = errors.New("number out of range")
	ErrDuplicateNumber    = errors.New("duplicate number")
	ErrWinningNumberCount = errors.New("winning numbers must contain exactly three numbers")
	ErrMalformedNumbers   = errors.New("malformed number list")
)

// Selection is a player's canonical set of 5..8 distinct numbers, sorted ascending.
type Selection struct {
	numbers []int
}

// NewSelection validates and canonicalizes raw numbers.
func NewSelection(numbers []int) (Selection, error) {
	if len(numbers) < MinSelectionSize || len(numbers) > MaxSelectionSize {
		return Selection{}, fmt.Errorf("%w: got %d, want %d..%d", ErrSelectionSize, len(numbers), MinSelectionSize, MaxSelectionSize)
	}
	sorted, err := canonicalize(numbers)
	if err != nil {
		return Selection{}, err
	}
	return Selection{numbers: sorted}, nil
}

// ParseSelection reads the comma-joined form persisted on bets.
func ParseSelection(csv string) (Selection, error) {
	numbers, err := splitNumbers(csv)
	if err != nil {
		return Selection{}, err
	}
	return NewSelection(numbers)
}

func (s Selection) Numbers() []int {
	out := make([]int, len(s.numbers))
	copy(out, s.numbers)
	return out
}

func (s Selection) Count() int {
	return len(s.numbers)
}

func (s Selection) Contains(n int) bool {
	idx := sort.SearchInts(s.numbers, n)
	return idx < len(s.numbers) && s.numbers[idx] == n
}

// String returns the canonical comma-joined form, e.g. "1,3,5,7,9".
func (s Selection) String() string {
	return joinNumbers(s.numbers)
}

// WinningNumbers is the canonical set of exactly three drawn numbers.
type WinningNumbers struct {
	numbers []int
}

// ParseWinningNumbers parses "n1,n2,n3" in any order, tolerating whitespace.
func ParseWinningNumbers(csv string) (WinningNumbers, error) {
	numbers, err := splitNumbers(csv)
	if err != nil {
		return WinningNumbers{}, err
	}
	if len(numbers) != WinningNumberCount {
		return WinningNumbers{}, fmt.Errorf("%w: got %d", ErrWinningNumberCount, len(numbers))
	}
	sorted, err := canonicalize(numbers)
	if err != nil {
		return WinningNumbers{}, err
	}
	return WinningNumbers{numbers: sorted}, nil
}

func (w WinningNumbers) Numbers() []int {
	out := make([]int, len(w.numbers))
	copy(out, w.numbers)
	return out
}

func (w WinningNumbers) String() string {
	return joinNumbers(w.numbers)
}

// IsGuessedBy reports whether every winning number is present in the selection.
func (w WinningNumbers) IsGuessedBy(selection Selection) bool {
	if len(w.numbers) == 0 {
		return false
	}
	for _, n := range w.numbers {
		if !selection.Contains(n) {
			return false
		}
	}
	return true
}

func canonicalize(numbers []int) ([]int, error) {
	seen := make(map[int]struct{}, len(numbers))
	out := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if n < MinNumber || n > MaxNumber {
			return nil, fmt.Errorf("%w: %d not in %d..%d", ErrNumberOutOfRange, n, MinNumber, MaxNumber)
		}
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateNumber, n)
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

func splitNumbers(csv string) ([]int, error) {
	trimmed := strings.TrimSpace(csv)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedNumbers)
	}
	parts := strings.Split(trimmed, ",")
	numbers := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedNumbers, part)
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

func joinNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
