package types

import (
	"errors"
	"testing"
)

func TestNewSelectionCanonicalizes(t *testing.T) {
	sel, err := NewSelection([]int{11, 3, 7, 1, 5})
	if err != nil {
		t.Fatalf("NewSelection: %v", err)
	}
	if sel.String() != "1,3,5,7,11" {
		t.Fatalf("unexpected canonical form %q", sel.String())
	}
	if sel.Count() != 5 {
		t.Fatalf("expected count 5, got %d", sel.Count())
	}
}

func TestNewSelectionRejectsInvalidInput(t *testing.T) {
	cases := map[string]struct {
		numbers []int
		want    error
	}{
		"too few":       {numbers: []int{1, 2, 3, 4}, want: ErrSelectionSize},
		"too many":      {numbers: []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, want: ErrSelectionSize},
		"zero":          {numbers: []int{0, 2, 3, 4, 5}, want: ErrNumberOutOfRange},
		"seventeen":     {numbers: []int{1, 2, 3, 4, 17}, want: ErrNumberOutOfRange},
		"duplicate":     {numbers: []int{1, 2, 3, 3, 5}, want: ErrDuplicateNumber},
		"empty":         {numbers: nil, want: ErrSelectionSize},
		"negative":      {numbers: []int{-1, 2, 3, 4, 5}, want: ErrNumberOutOfRange},
		"eight dup max": {numbers: []int{16, 16, 1, 2, 3, 4, 5, 6}, want: ErrDuplicateNumber},
	}
	for name, tc := range cases {
		if _, err := NewSelection(tc.numbers); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", name, tc.want, err)
		}
	}
}

func TestParseSelectionRoundTripsCanonicalForm(t *testing.T) {
	sel, err := ParseSelection("16, 2,9,4,1,8")
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	if sel.String() != "1,2,4,8,9,16" {
		t.Fatalf("unexpected canonical form %q", sel.String())
	}
	if _, err := ParseSelection("1,2,x,4,5"); !errors.Is(err, ErrMalformedNumbers) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestParseWinningNumbers(t *testing.T) {
	w, err := ParseWinningNumbers(" 11,3 , 7")
	if err != nil {
		t.Fatalf("ParseWinningNumbers: %v", err)
	}
	if w.String() != "3,7,11" {
		t.Fatalf("unexpected canonical form %q", w.String())
	}

	invalid := map[string]error{
		"":         ErrMalformedNumbers,
		"1,2":      ErrWinningNumberCount,
		"1,2,3,4":  ErrWinningNumberCount,
		"1,1,2":    ErrDuplicateNumber,
		"0,5,6":    ErrNumberOutOfRange,
		"5,6,17":   ErrNumberOutOfRange,
		"a,b,c":    ErrMalformedNumbers,
		"1,,2":     ErrMalformedNumbers,
		"1;2;3":    ErrMalformedNumbers,
		"3,7,11,":  ErrMalformedNumbers,
		" , , ":    ErrMalformedNumbers,
		"2.5,3,4":  ErrMalformedNumbers,
		"16,15,16": ErrDuplicateNumber,
	}
	for input, want := range invalid {
		if _, err := ParseWinningNumbers(input); !errors.Is(err, want) {
			t.Fatalf("%q: expected %v, got %v", input, want, err)
		}
	}
}

func TestIsGuessedBy(t *testing.T) {
	w, err := ParseWinningNumbers("3,7,11")
	if err != nil {
		t.Fatalf("ParseWinningNumbers: %v", err)
	}

	six, _ := NewSelection([]int{1, 3, 5, 7, 9, 11})
	if !w.IsGuessedBy(six) {
		t.Fatalf("expected {1,3,5,7,9,11} to guess 3,7,11")
	}
	five, _ := NewSelection([]int{1, 3, 5, 7, 9})
	if w.IsGuessedBy(five) {
		t.Fatalf("expected {1,3,5,7,9} to miss 11")
	}
	if (WinningNumbers{}).IsGuessedBy(six) {
		t.Fatalf("empty winning numbers guess nothing")
	}
}

func TestIsGuessedByIsMonotonic(t *testing.T) {
	w, err := ParseWinningNumbers("2,9,16")
	if err != nil {
		t.Fatalf("ParseWinningNumbers: %v", err)
	}
	base := []int{2, 9, 16, 4, 5}
	sel, err := NewSelection(base)
	if err != nil {
		t.Fatalf("NewSelection: %v", err)
	}
	if !w.IsGuessedBy(sel) {
		t.Fatalf("expected base selection to guess")
	}
	for extra := MinNumber; extra <= MaxNumber; extra++ {
		if sel.Contains(extra) {
			continue
		}
		superset, err := NewSelection(append(sel.Numbers(), extra))
		if err != nil {
			t.Fatalf("NewSelection superset: %v", err)
		}
		if !w.IsGuessedBy(superset) {
			t.Fatalf("superset %s should still guess %s", superset, w)
		}
	}
}
