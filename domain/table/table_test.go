package table

import (
	"errors"
	"math"
	"testing"
	"time"

	"datalens/domain/core"
)

func TestNewTable_RejectsDuplicateNames(t *testing.T) {
	_, err := NewTable([]Column{
		NewNumberColumn("x", []float64{1}),
		NewNumberColumn("x", []float64{2}),
	})
	if !errors.Is(err, core.ErrDuplicateColumn) {
		t.Errorf("expected ErrDuplicateColumn, got %v", err)
	}
}

func TestNewTable_RejectsEmptyNameAndUnknownKind(t *testing.T) {
	if _, err := NewTable([]Column{NewNumberColumn("", []float64{1})}); !core.IsValidationError(err) {
		t.Errorf("expected validation error for empty name, got %v", err)
	}
	if _, err := NewTable([]Column{{Name: "x", Kind: "complex"}}); !errors.Is(err, core.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestColumn_Lookup(t *testing.T) {
	tbl, err := NewTable([]Column{
		NewNumberColumn("a", []float64{1, 2}),
		NewTextColumn("b", []string{"x", "y"}),
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	col, err := tbl.Column("a")
	if err != nil {
		t.Fatalf("Column failed: %v", err)
	}
	if col.Kind != KindNumber || col.Len() != 2 {
		t.Errorf("column a: kind=%q len=%d, want number/2", col.Kind, col.Len())
	}

	if _, err := tbl.Column("z"); !errors.Is(err, core.ErrColumnNotFound) {
		t.Errorf("expected ErrColumnNotFound, got %v", err)
	}
}

func TestNumeric_Guards(t *testing.T) {
	if _, err := NewTextColumn("t", []string{"a"}).Numeric(); !errors.Is(err, core.ErrNonNumeric) {
		t.Errorf("expected ErrNonNumeric, got %v", err)
	}
	if _, err := NewNumberColumn("e", nil).Numeric(); !errors.Is(err, core.ErrEmptyColumn) {
		t.Errorf("expected ErrEmptyColumn, got %v", err)
	}
	if _, err := NewNumberColumn("nan", []float64{1, math.NaN()}).Numeric(); !errors.Is(err, core.ErrNonFiniteValue) {
		t.Errorf("expected ErrNonFiniteValue, got %v", err)
	}
	if _, err := NewNumberColumn("inf", []float64{math.Inf(-1)}).Numeric(); !errors.Is(err, core.ErrNonFiniteValue) {
		t.Errorf("expected ErrNonFiniteValue, got %v", err)
	}

	got, err := NewNumberColumn("ok", []float64{1, 2, 3}).Numeric()
	if err != nil {
		t.Fatalf("Numeric failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestNumericColumns_DeclarationOrder(t *testing.T) {
	tbl, err := NewTable([]Column{
		NewTextColumn("name", []string{"a"}),
		NewNumberColumn("second", []float64{2}),
		NewBooleanColumn("flag", []bool{true}),
		NewNumberColumn("first", []float64{1}),
		NewDateColumn("when", []time.Time{time.Now()}),
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	numeric := tbl.NumericColumns()
	if len(numeric) != 2 {
		t.Fatalf("numeric columns = %d, want 2", len(numeric))
	}
	if numeric[0].Name != "second" || numeric[1].Name != "first" {
		t.Errorf("order = %s, %s; want declaration order second, first", numeric[0].Name, numeric[1].Name)
	}
}

func TestEqualLength(t *testing.T) {
	a := NewNumberColumn("a", []float64{1, 2, 3})
	b := NewNumberColumn("b", []float64{1, 2})

	if err := EqualLength(a, a); err != nil {
		t.Errorf("equal lengths should pass, got %v", err)
	}
	if err := EqualLength(a, b); !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
	if err := EqualLength(); err != nil {
		t.Errorf("no columns should pass, got %v", err)
	}
}

func TestNumericPair(t *testing.T) {
	x := NewNumberColumn("x", []float64{1, 2, 3})
	y := NewNumberColumn("y", []float64{4, 5, 6})

	xs, ys, err := NumericPair(x, y)
	if err != nil {
		t.Fatalf("NumericPair failed: %v", err)
	}
	if len(xs) != 3 || len(ys) != 3 {
		t.Errorf("lengths = %d/%d, want 3/3", len(xs), len(ys))
	}

	if _, _, err := NumericPair(x, NewNumberColumn("short", []float64{1})); !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
	if _, _, err := NumericPair(x, NewTextColumn("t", []string{"a", "b", "c"})); !errors.Is(err, core.ErrNonNumeric) {
		t.Errorf("expected ErrNonNumeric, got %v", err)
	}
}
