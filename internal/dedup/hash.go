// Package dedup merges sibling drafts from one utterance and suppresses rapid
// resubmission of an identical confirmed draft.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"finflow/internal/core"
)

// Hash fingerprints a transaction by amount, date, category and description.
// Text parts are compared case-insensitively with collapsed whitespace.
func Hash(amount int64, date core.Date, category, description string) string {
	key := strings.Join([]string{
		strconv.FormatInt(amount, 10),
		date.Key(),
		core.NormalizeText(category),
		core.CollapseSpaces(core.NormalizeText(description)),
	}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

// HashDraft computes the dedup hash of a draft.
func HashDraft(d core.TransactionDraft) string {
	return Hash(d.Amount.Value, d.Date, d.Category, d.Description)
}
