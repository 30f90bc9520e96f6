package query

import (
	"errors"
	"reflect"
	"testing"

	"github.com/supplylens/supplylens/internal/domain"
)

func TestRenderScalarFilters(t *testing.T) {
	t.Run("EqualsPresent", func(t *testing.T) {
		sql, args := Render("SELECT * FROM t WHERE 1=1", Equals("industry", "SemiConductor"))
		want := "SELECT * FROM t WHERE 1=1 AND industry = ?"
		if sql != want {
			t.Errorf("expected %q, got %q", want, sql)
		}
		if !reflect.DeepEqual(args, []any{"SemiConductor"}) {
			t.Errorf("unexpected args: %v", args)
		}
	})

	t.Run("EqualsAbsent", func(t *testing.T) {
		sql, args := Render("SELECT * FROM t WHERE 1=1", Equals("industry", ""))
		if sql != "SELECT * FROM t WHERE 1=1" {
			t.Errorf("absent filter must render nothing, got %q", sql)
		}
		if len(args) != 0 {
			t.Errorf("expected no args, got %v", args)
		}
	})

	t.Run("RangeBounds", func(t *testing.T) {
		sql, args := Render("SELECT * FROM t WHERE 1=1",
			GTE("total_value", 100.0),
			LTE("total_value", 500.0),
		)
		want := "SELECT * FROM t WHERE 1=1 AND total_value >= ? AND total_value <= ?"
		if sql != want {
			t.Errorf("expected %q, got %q", want, sql)
		}
		if !reflect.DeepEqual(args, []any{100.0, 500.0}) {
			t.Errorf("unexpected args: %v", args)
		}
	})
}

func TestRenderInSet(t *testing.T) {
	t.Run("Membership", func(t *testing.T) {
		sql, args := Render("SELECT * FROM t WHERE 1=1", InSet("country_code", []string{"US", "DE"}))
		want := "SELECT * FROM t WHERE 1=1 AND country_code IN (?, ?)"
		if sql != want {
			t.Errorf("expected %q, got %q", want, sql)
		}
		if !reflect.DeepEqual(args, []any{"US", "DE"}) {
			t.Errorf("unexpected args: %v", args)
		}
	})

	t.Run("EmptyListMeansAbsent", func(t *testing.T) {
		sql, args := Render("SELECT * FROM t WHERE 1=1", InSet("country_code", nil))
		if sql != "SELECT * FROM t WHERE 1=1" || len(args) != 0 {
			t.Errorf("empty set must behave as absent, got %q %v", sql, args)
		}
	})

	t.Run("OrInSetBindsTwice", func(t *testing.T) {
		sql, args := Render("SELECT * FROM t WHERE 1=1",
			OrInSet("origin_country", "destination_country", []string{"CN", "JP"}))
		want := "SELECT * FROM t WHERE 1=1 AND (origin_country IN (?, ?) OR destination_country IN (?, ?))"
		if sql != want {
			t.Errorf("expected %q, got %q", want, sql)
		}
		if !reflect.DeepEqual(args, []any{"CN", "JP", "CN", "JP"}) {
			t.Errorf("value set must bind once per side, got %v", args)
		}
	})
}

func TestYearMonthBounds(t *testing.T) {
	t.Run("From", func(t *testing.T) {
		c, err := YearMonthFrom("year", "month", "2023-06")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sql, args := Render("SELECT * FROM t WHERE 1=1", c)
		want := "SELECT * FROM t WHERE 1=1 AND (year > ? OR (year = ? AND month >= ?))"
		if sql != want {
			t.Errorf("expected %q, got %q", want, sql)
		}
		if !reflect.DeepEqual(args, []any{2023, 2023, 6}) {
			t.Errorf("unexpected args: %v", args)
		}
	})

	t.Run("To", func(t *testing.T) {
		c, err := YearMonthTo("year", "month", "2023-06")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sql, args := Render("SELECT * FROM t WHERE 1=1", c)
		want := "SELECT * FROM t WHERE 1=1 AND (year < ? OR (year = ? AND month <= ?))"
		if sql != want {
			t.Errorf("expected %q, got %q", want, sql)
		}
		if !reflect.DeepEqual(args, []any{2023, 2023, 6}) {
			t.Errorf("unexpected args: %v", args)
		}
	})

	t.Run("MissingSeparator", func(t *testing.T) {
		if _, err := YearMonthFrom("year", "month", "202306"); !errors.Is(err, domain.ErrInvalidYearMonth) {
			t.Errorf("expected ErrInvalidYearMonth, got %v", err)
		}
	})

	t.Run("NonNumeric", func(t *testing.T) {
		if _, err := YearMonthTo("year", "month", "2023-xx"); !errors.Is(err, domain.ErrInvalidYearMonth) {
			t.Errorf("expected ErrInvalidYearMonth, got %v", err)
		}
	})
}

func TestHSCodePriority(t *testing.T) {
	t.Run("FullCodeWins", func(t *testing.T) {
		c := HSCode("hs_code", []string{"854231"}, []string{"99"}, []string{"01"})
		sql, args := Render("SELECT * FROM t WHERE 1=1", c)
		want := "SELECT * FROM t WHERE 1=1 AND hs_code IN (?)"
		if sql != want {
			t.Errorf("full code must win over prefix/suffix, got %q", sql)
		}
		if !reflect.DeepEqual(args, []any{"854231"}) {
			t.Errorf("unexpected args: %v", args)
		}
	})

	t.Run("PrefixSuffixCrossProduct", func(t *testing.T) {
		c := HSCode("hs_code", nil, []string{"42", "54"}, []string{"04", "07"})
		sql, args := Render("SELECT * FROM t WHERE 1=1", c)
		want := "SELECT * FROM t WHERE 1=1 AND hs_code IN (?, ?, ?, ?)"
		if sql != want {
			t.Errorf("expected cross-product membership, got %q", sql)
		}
		if !reflect.DeepEqual(args, []any{"4204", "4207", "5404", "5407"}) {
			t.Errorf("unexpected combinations: %v", args)
		}
	})

	t.Run("PrefixOnly", func(t *testing.T) {
		c := HSCode("hs_code", nil, []string{"42"}, nil)
		sql, _ := Render("SELECT * FROM t WHERE 1=1", c)
		want := "SELECT * FROM t WHERE 1=1 AND substr(hs_code, 1, 2) IN (?)"
		if sql != want {
			t.Errorf("expected chapter prefix match, got %q", sql)
		}
	})

	t.Run("SuffixOnly", func(t *testing.T) {
		c := HSCode("hs_code", nil, nil, []string{"07"})
		sql, _ := Render("SELECT * FROM t WHERE 1=1", c)
		want := "SELECT * FROM t WHERE 1=1 AND substr(hs_code, length(hs_code) - 1, 2) IN (?)"
		if sql != want {
			t.Errorf("expected suffix match, got %q", sql)
		}
	})

	t.Run("AllAbsent", func(t *testing.T) {
		c := HSCode("hs_code", nil, nil, nil)
		sql, args := Render("SELECT * FROM t WHERE 1=1", c)
		if sql != "SELECT * FROM t WHERE 1=1" || len(args) != 0 {
			t.Errorf("absent filter must render nothing, got %q %v", sql, args)
		}
	})
}

func TestCategoryInSet(t *testing.T) {
	c := CategoryInSet("m.hs_codes", []string{"equipment"})
	sql, args := Render("SELECT m.* FROM monthly_company_flows m WHERE 1=1", c)

	want := "SELECT m.* FROM monthly_company_flows m WHERE 1=1" +
		" AND EXISTS (SELECT 1 FROM hs_code_categories h" +
		" WHERE h.category_id IN (?)" +
		" AND ',' || replace(m.hs_codes, ' ', '') || ',' LIKE '%,' || h.hs_code || '%')"
	if sql != want {
		t.Errorf("expected %q, got %q", want, sql)
	}
	if !reflect.DeepEqual(args, []any{"equipment"}) {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestRenderComposesInOrder(t *testing.T) {
	from, _ := YearMonthFrom("year", "month", "2023-01")
	to, _ := YearMonthTo("year", "month", "2023-12")
	sql, args := Render("SELECT * FROM country_monthly_trade_stats WHERE 1=1",
		InSet("hs_code", []string{"854231"}),
		Equals("industry", "SemiConductor"),
		from,
		to,
	)

	want := "SELECT * FROM country_monthly_trade_stats WHERE 1=1" +
		" AND hs_code IN (?)" +
		" AND industry = ?" +
		" AND (year > ? OR (year = ? AND month >= ?))" +
		" AND (year < ? OR (year = ? AND month <= ?))"
	if sql != want {
		t.Errorf("expected %q, got %q", want, sql)
	}
	if len(args) != 8 {
		t.Errorf("expected 8 bound values, got %d: %v", len(args), args)
	}
}
