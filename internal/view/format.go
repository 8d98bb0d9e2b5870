// Package view turns recommendations into display-ready fields. Everything
// here is pure except Expander.
package view

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/soyeahso/sumai/internal/domain"
)

// Missing is shown for absent values.
const Missing = "-"

// normalize renders a weakly typed value: numbers go through withUnit,
// pre-formatted text passes through unchanged.
func normalize(v domain.Value, withUnit func(float64) string) string {
	switch v.Kind() {
	case domain.ValueNumeric:
		n, _ := v.Number()
		return withUnit(n)
	case domain.ValueText:
		return v.String()
	default:
		return Missing
	}
}

func plain(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Price formats a price given in units of 10,000 yen.
func Price(v domain.Value) string {
	return normalize(v, func(n float64) string { return humanize.Commaf(n) + "万円" })
}

// Area formats a floor area in square meters.
func Area(v domain.Value) string {
	return normalize(v, func(n float64) string { return plain(n) + "㎡" })
}

// Age formats a building age in years.
func Age(v domain.Value) string {
	return normalize(v, func(n float64) string { return "築" + plain(n) + "年" })
}

// WalkTime formats the walk to the nearest station in minutes.
func WalkTime(v domain.Value) string {
	return normalize(v, func(n float64) string { return "徒歩" + plain(n) + "分" })
}

// Count formats a property count with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}
