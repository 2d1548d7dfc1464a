package dedup

import (
	"strings"

	"finflow/internal/core"
)

type groupKey struct {
	category string
	date     core.Date
	txType   core.TransactionType
	currency string
	// position keeps every default-category draft in its own group.
	position int
}

// Group sums drafts sharing category, date, type and currency.
//
// Drafts in the default category are never merged with each other. Output
// keeps first-seen order and every merged draft gets a fresh hash.
func Group(drafts []core.TransactionDraft) []core.TransactionDraft {
	if len(drafts) < 2 {
		return rehash(drafts)
	}

	index := make(map[groupKey]int, len(drafts))
	out := make([]core.TransactionDraft, 0, len(drafts))

	for pos, d := range drafts {
		key := groupKey{
			category: d.Category,
			date:     d.Date,
			txType:   d.Type,
			currency: d.Amount.Currency,
		}
		if d.Category == core.DefaultCategory {
			key.position = pos + 1
		}

		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, d)
			continue
		}

		merged := &out[i]
		merged.Amount.Value += d.Amount.Value
		if d.Description != "" && !strings.EqualFold(merged.Description, d.Description) {
			merged.Description = merged.Description + ", " + d.Description
		}
	}

	return rehash(out)
}

func rehash(drafts []core.TransactionDraft) []core.TransactionDraft {
	out := make([]core.TransactionDraft, len(drafts))
	for i, d := range drafts {
		d.DedupHash = HashDraft(d)
		out[i] = d
	}
	return out
}
