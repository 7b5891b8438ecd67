package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cometsur/checkin-sync/internal/core/domain"
)

// Summary aggregates the roster for the dashboards.
type Summary struct {
	Attendees int                            `json:"attendees"`
	PerSlot   [domain.SlotCount]int          `json:"per_slot"`
	ByLevel   map[domain.AttendanceLevel]int `json:"by_level"`

	Revenue             decimal.Decimal            `json:"revenue"`
	RevenueByPayment    map[string]decimal.Decimal `json:"revenue_by_payment"`
	RevenueByCategory   map[string]decimal.Decimal `json:"revenue_by_category"`
	RevenueByUniversity map[string]decimal.Decimal `json:"revenue_by_university"`

	ByCategory   map[string]int `json:"by_category"`
	ByUniversity map[string]int `json:"by_university"`
	ByProfession map[string]int `json:"by_profession"`
}

// Summarize computes attendance and revenue totals. Import amounts that do
// not parse count as zero.
func Summarize(entries []domain.RosterEntry) Summary {
	s := Summary{
		Attendees:           len(entries),
		ByLevel:             make(map[domain.AttendanceLevel]int),
		Revenue:             decimal.Zero,
		RevenueByPayment:    make(map[string]decimal.Decimal),
		RevenueByCategory:   make(map[string]decimal.Decimal),
		RevenueByUniversity: make(map[string]decimal.Decimal),
		ByCategory:          make(map[string]int),
		ByUniversity:        make(map[string]int),
		ByProfession:        make(map[string]int),
	}

	for _, e := range entries {
		for i, v := range e.Attendance {
			if v != 0 {
				s.PerSlot[i]++
			}
		}
		s.ByLevel[e.Attendance.Level()]++

		amount := ParseAmount(e.ImportAmount)
		s.Revenue = s.Revenue.Add(amount)
		addAmount(s.RevenueByPayment, e.PaymentMethod, amount)
		addAmount(s.RevenueByCategory, e.Category, amount)
		addAmount(s.RevenueByUniversity, e.University, amount)

		s.ByCategory[label(e.Category)]++
		s.ByUniversity[label(e.University)]++
		if e.Profession != "" {
			s.ByProfession[e.Profession]++
		}
	}
	return s
}

// ParseAmount reads an import amount, returning zero for blank or malformed
// input.
func ParseAmount(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func addAmount(m map[string]decimal.Decimal, key string, amount decimal.Decimal) {
	key = label(key)
	m[key] = m[key].Add(amount)
}

func label(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
