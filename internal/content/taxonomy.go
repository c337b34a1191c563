package content

import "sort"

// Taxonomy maps a grouping term (tag or category) to its posts.
// Terms are denormalized keys across posts; no referential integrity is
// enforced beyond the grouping itself.
type Taxonomy map[string][]*Post

// Taxonomies are the two grouping dimensions the site renders index pages for.
type Taxonomies struct {
	Tags       Taxonomy
	Categories Taxonomy
}

// CollectTaxonomies groups posts by tag and category. Post order inside a
// term follows the input order (already date-descending after Load).
func CollectTaxonomies(posts []*Post) Taxonomies {
	tx := Taxonomies{Tags: Taxonomy{}, Categories: Taxonomy{}}
	for _, p := range posts {
		for _, tag := range p.Meta.Tags {
			tx.Tags[tag] = append(tx.Tags[tag], p)
		}
		for _, cat := range p.Meta.Categories {
			tx.Categories[cat] = append(tx.Categories[cat], p)
		}
	}
	return tx
}

// Terms returns the taxonomy's terms sorted alphabetically.
func (t Taxonomy) Terms() []string {
	terms := make([]string, 0, len(t))
	for term := range t {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}
