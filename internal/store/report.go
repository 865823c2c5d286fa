package store

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ewhitmore/campuspay/internal/model"
)

// ReportStore answers the dashboard and report queries. Amounts are
// stored as text, so sums run in Go over the scanned rows rather than
// in SQL.
type ReportStore struct {
	db *sql.DB
}

func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

// sumColumn totals a decimal text column selected by query.
func (s *ReportStore) sumColumn(query string, args ...any) (decimal.Decimal, int, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return decimal.Zero, 0, err
	}
	defer rows.Close()

	total := decimal.Zero
	count := 0
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, 0, err
		}
		d, err := parseDecimal(raw)
		if err != nil {
			return decimal.Zero, 0, err
		}
		total = total.Add(d)
		count++
	}
	return total, count, rows.Err()
}

// UserStats builds the dashboard summary for one user.
func (s *ReportStore) UserStats(userID int64) (*model.UserStats, error) {
	stats := &model.UserStats{UserID: userID}

	err := s.db.QueryRow(`SELECT name FROM users WHERE id = ?`, userID).Scan(&stats.Name)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var balance sql.NullString
	err = s.db.QueryRow(`SELECT balance FROM wallets WHERE user_id = ?`, userID).Scan(&balance)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	if balance.Valid {
		if stats.WalletBalance, err = parseDecimal(balance.String); err != nil {
			return nil, err
		}
	}

	deposited, _, err := s.sumColumn(
		`SELECT t.amount FROM wallet_transactions t
		 JOIN wallets w ON w.id = t.wallet_id
		 WHERE w.user_id = ? AND t.type = 'credit' AND t.status = 'completed'`, userID)
	if err != nil {
		return nil, fmt.Errorf("sum deposits: %w", err)
	}
	stats.TotalDeposited = deposited

	spent, _, err := s.sumColumn(
		`SELECT t.amount FROM wallet_transactions t
		 JOIN wallets w ON w.id = t.wallet_id
		 WHERE w.user_id = ? AND t.type = 'debit' AND t.status = 'completed'`, userID)
	if err != nil {
		return nil, fmt.Errorf("sum spending: %w", err)
	}
	stats.TotalSpent = spent

	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM tokens WHERE user_id = ? AND status = 'active'`, userID,
	).Scan(&stats.ActiveTokens); err != nil {
		return nil, fmt.Errorf("count active tokens: %w", err)
	}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM tokens WHERE user_id = ? AND status = 'used'`, userID,
	).Scan(&stats.UsedTokens); err != nil {
		return nil, fmt.Errorf("count used tokens: %w", err)
	}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM event_participants WHERE user_id = ?`, userID,
	).Scan(&stats.EventsJoined); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	return stats, nil
}

// SpendingByCategory breaks a user's non-cancelled orders down by meal
// category, largest total first.
func (s *ReportStore) SpendingByCategory(userID int64, from, to time.Time) ([]model.CategorySpend, error) {
	rows, err := s.db.Query(
		`SELECT m.category, t.total_amount FROM tokens t
		 JOIN meals m ON m.id = t.meal_id
		 WHERE t.user_id = ? AND t.status != 'cancelled' AND t.created_at >= ? AND t.created_at < ?`,
		userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query spending: %w", err)
	}
	defer rows.Close()

	byCategory := map[string]*model.CategorySpend{}
	for rows.Next() {
		var category, raw string
		if err := rows.Scan(&category, &raw); err != nil {
			return nil, fmt.Errorf("scan spending: %w", err)
		}
		amount, err := parseDecimal(raw)
		if err != nil {
			return nil, err
		}
		c, ok := byCategory[category]
		if !ok {
			c = &model.CategorySpend{Category: category}
			byCategory[category] = c
		}
		c.Orders++
		c.Total = c.Total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.CategorySpend, 0, len(byCategory))
	for _, c := range byCategory {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	return out, nil
}

// DailyTotals returns per-day order counts and totals across all
// non-cancelled tokens in [from, to), oldest day first.
func (s *ReportStore) DailyTotals(from, to time.Time) ([]model.DailyTotal, error) {
	rows, err := s.db.Query(
		`SELECT date(created_at), total_amount FROM tokens
		 WHERE status != 'cancelled' AND created_at >= ? AND created_at < ?`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer rows.Close()

	byDay := map[string]*model.DailyTotal{}
	for rows.Next() {
		var day, raw string
		if err := rows.Scan(&day, &raw); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		amount, err := parseDecimal(raw)
		if err != nil {
			return nil, err
		}
		d, ok := byDay[day]
		if !ok {
			d = &model.DailyTotal{Day: day}
			byDay[day] = d
		}
		d.Orders++
		d.Total = d.Total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.DailyTotal, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// VendorSummary totals a vendor's token sales, with the top meals by
// quantity sold.
func (s *ReportStore) VendorSummary(vendorID int64) (*model.VendorSummary, error) {
	summary := &model.VendorSummary{VendorID: vendorID}

	err := s.db.QueryRow(`SELECT business_name FROM vendors WHERE id = ?`, vendorID).Scan(&summary.BusinessName)
	if err != nil {
		return nil, fmt.Errorf("get vendor: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT t.status, t.quantity, t.total_amount, m.id, m.name FROM tokens t
		 JOIN meals m ON m.id = t.meal_id
		 WHERE m.vendor_id = ? AND t.status != 'cancelled'`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("query vendor tokens: %w", err)
	}
	defer rows.Close()

	byMeal := map[int64]*model.MealSales{}
	for rows.Next() {
		var status, raw, name string
		var quantity int
		var mealID int64
		if err := rows.Scan(&status, &quantity, &raw, &mealID, &name); err != nil {
			return nil, fmt.Errorf("scan vendor token: %w", err)
		}
		amount, err := parseDecimal(raw)
		if err != nil {
			return nil, err
		}

		summary.TokensIssued++
		if status == string(model.TokenUsed) {
			summary.TokensRedeemed++
		}
		summary.Revenue = summary.Revenue.Add(amount)

		ms, ok := byMeal[mealID]
		if !ok {
			ms = &model.MealSales{MealID: mealID, Name: name}
			byMeal[mealID] = ms
		}
		ms.Quantity += quantity
		ms.Total = ms.Total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, ms := range byMeal {
		summary.TopMeals = append(summary.TopMeals, *ms)
	}
	sort.Slice(summary.TopMeals, func(i, j int) bool {
		return summary.TopMeals[i].Quantity > summary.TopMeals[j].Quantity
	})
	if len(summary.TopMeals) > 5 {
		summary.TopMeals = summary.TopMeals[:5]
	}
	return summary, nil
}
