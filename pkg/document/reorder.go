package document

// ReorderCategories rebuilds d.Categories in the order given by orderedIDs,
// typically the id order produced by a finished drag gesture.
//
// Unknown and repeated ids are ignored. Categories that exist but are not
// mentioned are not dropped: this is not a plain rebuild from the id list.
// They keep their relative order after the listed ones, so a stale or
// partial id list never loses data. An empty list, or one that matches no category,
// leaves the document untouched. It reports whether the order was applied.
func ReorderCategories(d *Document, orderedIDs []string) bool {
	if d == nil || len(orderedIDs) == 0 {
		return false
	}
	byID := make(map[string]*Category, len(d.Categories))
	for _, c := range d.Categories {
		byID[c.ID] = c
	}

	next := make([]*Category, 0, len(d.Categories))
	used := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		c, ok := byID[id]
		if !ok || used[id] {
			continue
		}
		used[id] = true
		next = append(next, c)
	}
	if len(next) == 0 {
		return false
	}
	for _, c := range d.Categories {
		if !used[c.ID] {
			next = append(next, c)
		}
	}
	d.Categories = next
	return true
}

// ReorderItems applies orderedIDs to the items of one category. It follows
// the same rules as ReorderCategories.
//
// Items dragged in from another category must already have been moved into
// the destination (see MoveItem); ids that are not in the category are
// ignored.
func ReorderItems(d *Document, categoryID string, orderedIDs []string) bool {
	if len(orderedIDs) == 0 {
		return false
	}
	c, _ := d.FindCategory(categoryID)
	if c == nil {
		return false
	}
	byID := make(map[string]*Item, len(c.Items))
	for _, it := range c.Items {
		byID[it.ID] = it
	}

	next := make([]*Item, 0, len(c.Items))
	used := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		it, ok := byID[id]
		if !ok || used[id] {
			continue
		}
		used[id] = true
		next = append(next, it)
	}
	if len(next) == 0 {
		return false
	}
	for _, it := range c.Items {
		if !used[it.ID] {
			next = append(next, it)
		}
	}
	c.Items = next
	return true
}

// MoveItem transfers ownership of an item from one category to another,
// inserting it at index in the destination (out-of-range indexes append).
// Moving within the same category repositions the item. It reports whether
// the item was moved.
func MoveItem(d *Document, itemID, fromCategoryID, toCategoryID string, index int) bool {
	from, _ := d.FindCategory(fromCategoryID)
	to, _ := d.FindCategory(toCategoryID)
	if from == nil || to == nil {
		return false
	}
	it, idx := from.FindItem(itemID)
	if it == nil {
		return false
	}
	from.Items = append(from.Items[:idx], from.Items[idx+1:]...)

	if index < 0 || index > len(to.Items) {
		index = len(to.Items)
	}
	to.Items = append(to.Items, nil)
	copy(to.Items[index+1:], to.Items[index:])
	to.Items[index] = it
	return true
}

// CategoryIDs returns the ids of all categories in display order.
func (d *Document) CategoryIDs() []string {
	ids := make([]string, 0, len(d.Categories))
	for _, c := range d.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// ItemIDs returns the ids of the category's items in display order.
func (c *Category) ItemIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ID)
	}
	return ids
}
