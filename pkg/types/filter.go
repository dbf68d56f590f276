package types

// Filter operators accepted by the search compiler.
const (
	OpEQ      = "="
	OpNEQ     = "!="
	OpLT      = "<"
	OpGT      = ">"
	OpLTE     = "<="
	OpGTE     = ">="
	OpLike    = "LIKE"
	OpIn      = "IN"
	OpBetween = "BETWEEN"
	OpNull    = "NULL"
	OpNotNull = "NOT NULL"
)

// validOperators is the set of recognized filter operators.
var validOperators = map[string]bool{
	OpEQ:      true,
	OpNEQ:     true,
	OpLT:      true,
	OpGT:      true,
	OpLTE:     true,
	OpGTE:     true,
	OpLike:    true,
	OpIn:      true,
	OpBetween: true,
	OpNull:    true,
	OpNotNull: true,
}

// IsValidOperator reports whether op is a recognized filter operator.
func IsValidOperator(op string) bool {
	return validOperators[op]
}

// Combination logic for AdvancedSearch.
const (
	LogicAnd = "AND"
	LogicOr  = "OR"
)

// Filter maps attribute names to filter entries. An entry is either a
// literal value (implicit "=", with nil meaning "unset or explicitly
// null") or a Condition.
type Filter map[string]any

// Condition is an explicit filter entry.
//
// Value carries the operand for the comparison operators and LIKE, and the
// candidate list (a slice) for IN. BETWEEN ignores Value and uses Min/Max.
// NULL and NOT NULL take no operand. CaseSensitive and FullText only apply
// to LIKE.
type Condition struct {
	Value         any
	Operator      string
	Min           any
	Max           any
	CaseSensitive bool
	FullText      bool
}
