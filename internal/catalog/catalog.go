package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed data/catalog.yaml
var rawCatalog []byte

// Category is one product category with compiled lookup tables.
type Category struct {
	spec      CategorySpec
	keywords  RuleTable[[]string]
	mockData  RuleTable[[]Candidate]
	testCases []Item
}

// ID returns the category identifier.
func (c *Category) ID() string { return c.spec.ID }

// Name returns the display name.
func (c *Category) Name() string { return c.spec.Name }

// Spec returns the serialized configuration this category was built from.
func (c *Category) Spec() CategorySpec { return c.spec }

// Keywords resolves the search keywords for an item, first matching rule
// wins, category default otherwise.
func (c *Category) Keywords(item Item) []string {
	return c.keywords.Resolve(item)
}

// Candidates resolves the mock search results for an item.
func (c *Category) Candidates(item Item) []Candidate {
	return c.mockData.Resolve(item)
}

// TestCases returns the demo test cases belonging to this category.
func (c *Category) TestCases() []Item {
	out := make([]Item, len(c.testCases))
	copy(out, c.testCases)
	return out
}

// Catalog holds every category and test case, loaded once at startup.
type Catalog struct {
	categories []*Category
	byID       map[string]*Category
	testCases  []Item
}

type document struct {
	Categories []CategorySpec `yaml:"categories"`
	TestCases  []Item         `yaml:"testCases"`
}

// Load parses the embedded dataset and compiles the rule tables.
func Load() (*Catalog, error) {
	return load(rawCatalog)
}

// MustLoad is Load for startup paths where a broken embedded dataset is a
// programming error.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(fmt.Sprintf("catalog: %v", err))
	}
	return c
}

func load(raw []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog data: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("catalog data has no categories")
	}

	cat := &Catalog{
		byID:      make(map[string]*Category, len(doc.Categories)),
		testCases: doc.TestCases,
	}

	for _, spec := range doc.Categories {
		if spec.ID == "" {
			return nil, fmt.Errorf("category %q has no id", spec.Name)
		}
		if _, dup := cat.byID[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate category id %q", spec.ID)
		}

		c := &Category{
			spec:     spec,
			keywords: compileKeywordRules(spec),
			mockData: compileCandidateRules(spec),
		}
		for _, tc := range doc.TestCases {
			if tc.CategoryID == spec.ID {
				c.testCases = append(c.testCases, tc)
			}
		}

		cat.categories = append(cat.categories, c)
		cat.byID[spec.ID] = c
	}

	for _, tc := range doc.TestCases {
		if _, ok := cat.byID[tc.CategoryID]; !ok {
			return nil, fmt.Errorf("test case %s references unknown category %q", tc.ID, tc.CategoryID)
		}
	}

	return cat, nil
}

func compileKeywordRules(spec CategorySpec) RuleTable[[]string] {
	rules := make([]Rule[[]string], 0, len(spec.KeywordRules))
	for _, r := range spec.KeywordRules {
		rules = append(rules, Rule[[]string]{
			Match: titleContains(r.TitleContains),
			Value: r.Keywords,
		})
	}
	return NewRuleTable(spec.DefaultKeywords, rules...)
}

func compileCandidateRules(spec CategorySpec) RuleTable[[]Candidate] {
	rules := make([]Rule[[]Candidate], 0, len(spec.CandidateRules))
	for _, r := range spec.CandidateRules {
		rules = append(rules, Rule[[]Candidate]{
			Match: titleContains(r.TitleContains),
			Value: r.Candidates,
		})
	}
	return NewRuleTable(spec.DefaultCandidates, rules...)
}

// titleContains compiles a case-insensitive substring predicate. An empty
// needle matches everything.
func titleContains(needle string) func(Item) bool {
	if needle == "" {
		return nil
	}
	lowered := strings.ToLower(needle)
	return func(item Item) bool {
		return strings.Contains(strings.ToLower(item.Title), lowered)
	}
}

// Categories returns all categories in declaration order.
func (c *Catalog) Categories() []*Category {
	out := make([]*Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// CategoryByID looks up a category; absence is not an error.
func (c *Catalog) CategoryByID(categoryID string) (*Category, bool) {
	cat, ok := c.byID[categoryID]
	return cat, ok
}

// TestCases returns demo test cases, optionally filtered by category ID.
func (c *Catalog) TestCases(categoryID string) []Item {
	if categoryID == "" {
		out := make([]Item, len(c.testCases))
		copy(out, c.testCases)
		return out
	}
	var out []Item
	for _, tc := range c.testCases {
		if tc.CategoryID == categoryID {
			out = append(out, tc)
		}
	}
	return out
}

// Specs returns the serialized category configurations, optionally
// filtered by ID, for the catalog read API.
func (c *Catalog) Specs(categoryID string) []CategorySpec {
	var out []CategorySpec
	for _, cat := range c.categories {
		if categoryID == "" || cat.spec.ID == categoryID {
			out = append(out, cat.spec)
		}
	}
	return out
}
