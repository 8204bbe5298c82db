// Package catalog provides the static product datasets the demo pipeline
// runs against: product categories, their keyword and mock-candidate rule
// tables, and the demo test cases.
//
// Category lookups follow an ordered rule table: rules are evaluated in
// declaration order, the first matching rule wins, and a terminal default
// applies when none match. The data itself ships as an embedded YAML file
// and is compiled into rule tables at load time, keeping the lookup logic
// data-driven and testable.
package catalog
