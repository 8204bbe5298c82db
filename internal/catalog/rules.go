package catalog

// Rule pairs a predicate with the value it yields.
type Rule[T any] struct {
	Match func(Item) bool
	Value T
}

// RuleTable is an ordered list of rules with a guaranteed terminal default.
// Evaluation order is declaration order; the first matching rule wins.
type RuleTable[T any] struct {
	rules    []Rule[T]
	fallback T
}

// NewRuleTable builds a rule table over the given rules and default.
func NewRuleTable[T any](fallback T, rules ...Rule[T]) RuleTable[T] {
	return RuleTable[T]{rules: rules, fallback: fallback}
}

// Resolve returns the first matching rule's value, or the default. A nil
// Match predicate matches everything.
func (rt RuleTable[T]) Resolve(item Item) T {
	for _, r := range rt.rules {
		if r.Match == nil || r.Match(item) {
			return r.Value
		}
	}
	return rt.fallback
}

// Len returns the number of rules, excluding the default.
func (rt RuleTable[T]) Len() int {
	return len(rt.rules)
}
