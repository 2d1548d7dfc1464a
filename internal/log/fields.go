package log

import "finflow/internal/core"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldCurrency    = "currency"
	FieldCategory    = "category"
	FieldType        = "type"
	FieldDate        = "date"
	FieldHash        = "dedup_hash"
	FieldWallet      = "wallet"
	FieldUsedPct     = "used_pct"
	FieldStreak      = "streak"
	FieldCoins       = "coins"
	FieldSource      = "source"
	FieldTransaction = "transaction_id"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentParser   = "parser"
	ComponentLedger   = "ledger"
	ComponentBudget   = "budget"
	ComponentNotify   = "notify"
	ComponentStreak   = "streak"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentCache    = "cache"
	ComponentBackend  = "backend"
	ComponentNotifier = "notifier"
	ComponentHTTP     = "http"
)

// Operations defines standard operation names
const (
	OpParse      = "parse"
	OpConfirm    = "confirm"
	OpImport     = "import"
	OpNotify     = "notify"
	OpRecord     = "record_activity"
	OpRedeem     = "redeem"
	OpProgress   = "progress"
	OpSaveBudget = "save_budget"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeDuplicate     = "duplicate_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithDraft adds the identifying fields of a draft.
func (f LogFields) WithDraft(d core.TransactionDraft) LogFields {
	f[FieldDescription] = d.Description
	f[FieldAmount] = d.Amount.Value
	f[FieldCurrency] = d.Amount.Currency
	f[FieldCategory] = d.Category
	f[FieldType] = string(d.Type)
	f[FieldDate] = d.Date.Key()
	f[FieldHash] = d.DedupHash
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
