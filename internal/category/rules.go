// Package category infers a transaction category from free text.
//
// Inference is an ordered list of keyword rules evaluated first-match-wins.
// Loan rules come first because lend/borrow transactions get an auxiliary
// ledger record downstream regardless of the other words in the text.
package category

import (
	"regexp"
	"strings"

	"finflow/internal/core"
)

// Taxonomy.
const (
	Lend          = "Lend"
	Borrow        = "Borrow"
	Salary        = "Salary"
	Bonus         = "Bonus"
	Gift          = "Gift"
	Food          = "Food"
	Fuel          = "Fuel"
	Transport     = "Transport"
	Housing       = "Housing"
	Bills         = "Bills"
	Shopping      = "Shopping"
	Health        = "Health"
	Education     = "Education"
	Entertainment = "Entertainment"
	Investment    = "Investment"
	Other         = core.DefaultCategory
)

// Rule maps a pattern to a category.
type Rule struct {
	Name     string
	Category string
	Pattern  *regexp.Regexp
}

// Matches reports whether the rule applies to already normalized text.
func (r Rule) Matches(normalized string) bool {
	return r.Pattern.MatchString(normalized)
}

// Keywords compiles a case-insensitive pattern matching any of the given
// words or phrases as whole words. Go's \b is ASCII-only, so word edges are
// expressed as "not a letter" to keep Vietnamese diacritics intact.
func Keywords(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(core.NormalizeText(w))
	}
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:` + strings.Join(quoted, "|") + `)(?:$|[^\p{L}])`)
}

// DefaultRules returns the built-in rule list in precedence order.
func DefaultRules() []Rule {
	return []Rule{
		// Loans first: "cho vay" must be checked before the bare "vay".
		{Name: "lend", Category: Lend, Pattern: Keywords("cho vay", "cho mượn", "cho muon", "lend", "lent", "loan to")},
		{Name: "borrow", Category: Borrow, Pattern: Keywords("vay", "mượn", "muon", "borrow", "borrowed")},

		{Name: "salary", Category: Salary, Pattern: Keywords("lương", "luong", "salary", "payroll", "paycheck")},
		{Name: "bonus", Category: Bonus, Pattern: Keywords("thưởng", "thuong", "bonus")},
		{Name: "gift", Category: Gift, Pattern: Keywords("quà", "lì xì", "li xi", "mừng", "được tặng", "gift")},
		{Name: "fuel", Category: Fuel, Pattern: Keywords("xăng", "xang", "đổ xăng", "fuel", "petrol", "gas")},
		{Name: "food", Category: Food, Pattern: Keywords(
			"ăn", "ăn sáng", "ăn trưa", "ăn tối", "an sang", "an trua", "an toi",
			"cafe", "cà phê", "ca phe", "coffee", "trà sữa", "tra sua", "cơm",
			"phở", "bún", "bánh mì", "banh mi", "nhà hàng", "nha hang",
			"food", "breakfast", "lunch", "dinner", "restaurant", "snack", "đi chợ", "di cho", "grocery",
		)},
		{Name: "transport", Category: Transport, Pattern: Keywords(
			"grab", "taxi", "xe ôm", "xe om", "gửi xe", "gui xe", "vé xe", "ve xe", "bus", "xe buýt",
			"uber", "parking", "metro", "train", "flight", "vé máy bay",
		)},
		{Name: "housing", Category: Housing, Pattern: Keywords("tiền nhà", "tien nha", "thuê nhà", "thue nha", "rent", "mortgage")},
		{Name: "bills", Category: Bills, Pattern: Keywords(
			"tiền điện", "tien dien", "tiền nước", "tien nuoc", "điện", "nước", "internet", "wifi",
			"hóa đơn", "hoa don", "điện thoại", "dien thoai", "bill", "electricity", "water",
		)},
		{Name: "shopping", Category: Shopping, Pattern: Keywords(
			"mua", "quần áo", "quan ao", "giày", "shopee", "lazada", "tiki", "shopping", "clothes", "shoes",
		)},
		{Name: "health", Category: Health, Pattern: Keywords(
			"thuốc", "thuoc", "bệnh viện", "benh vien", "khám", "kham", "nha khoa", "pharmacy", "doctor", "hospital", "medicine",
		)},
		{Name: "education", Category: Education, Pattern: Keywords(
			"học phí", "hoc phi", "sách", "sach", "khóa học", "khoa hoc", "tuition", "course", "book", "books",
		)},
		{Name: "entertainment", Category: Entertainment, Pattern: Keywords(
			"phim", "xem phim", "karaoke", "du lịch", "du lich", "game", "netflix", "spotify", "cinema", "movie", "travel",
		)},
		{Name: "investment", Category: Investment, Pattern: Keywords(
			"đầu tư", "dau tu", "chứng khoán", "chung khoan", "tiết kiệm", "tiet kiem", "stock", "stocks", "crypto", "savings",
		)},
	}
}

// Classifier evaluates rules in order.
type Classifier struct {
	rules []Rule
}

// NewClassifier returns a classifier over rules; nil selects DefaultRules.
func NewClassifier(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Infer returns the category of the first matching rule, or Other.
// It is pure and total.
func (c *Classifier) Infer(text string) string {
	if rule, ok := c.Match(text); ok {
		return rule.Category
	}
	return Other
}

// Match returns the first rule matching text.
func (c *Classifier) Match(text string) (Rule, bool) {
	normalized := core.NormalizeText(text)
	for _, r := range c.rules {
		if r.Matches(normalized) {
			return r, true
		}
	}
	return Rule{}, false
}

// Rules returns a copy of the rule list in precedence order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// IsLoan reports whether category is handled by the loan ledger.
func IsLoan(category string) bool {
	return category == Lend || category == Borrow
}

// LoanDirection maps a loan category to its ledger direction.
func LoanDirection(category string) (core.LoanDirection, bool) {
	switch category {
	case Lend:
		return core.Lend, true
	case Borrow:
		return core.Borrow, true
	}
	return "", false
}
