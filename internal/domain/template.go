package domain

import "time"

// Check types with built-in fallback templates.
const (
	CheckTypeProperty = "property_check"
	CheckTypeHome     = "home_check"
)

// Template is a published inspection definition. Templates are never edited in
// place; a new version replaces the active one.
type Template struct {
	ID        int64
	CheckType string
	Name      string
	Version   int
	Active    bool
	Sections  []Section
	CreatedAt time.Time
}

type Section struct {
	ID        int64
	Key       string
	Name      string
	SortOrder int
	Items     []Item
}

// Item is a single checklist entry. ID is stable for every session that
// references the same template version.
type Item struct {
	ID        string
	Label     string
	Required  bool
	Kind      ItemKind
	SortOrder int
}

// FindItem returns the item with the given ID and the section that owns it.
func (t *Template) FindItem(itemID string) (*Item, *Section) {
	for si := range t.Sections {
		sec := &t.Sections[si]
		for ii := range sec.Items {
			if sec.Items[ii].ID == itemID {
				return &sec.Items[ii], sec
			}
		}
	}
	return nil, nil
}

// ItemCount returns the number of items across all sections.
func (t *Template) ItemCount() int {
	n := 0
	for _, sec := range t.Sections {
		n += len(sec.Items)
	}
	return n
}

// SeedStates returns a fresh state map with every item uncompleted.
func (t *Template) SeedStates() ItemStates {
	states := make(ItemStates, t.ItemCount())
	for _, sec := range t.Sections {
		for _, item := range sec.Items {
			states[item.ID] = ItemState{PhotoRefs: []string{}}
		}
	}
	return states
}
