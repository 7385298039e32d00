package core

// Reconcile builds the list for an identity from the current catalog and
// the identity's previously persisted snapshot, if any.
//
// With a prior snapshot, each catalog product takes the selection of the
// first prior record with the same name; catalog products with no such
// record start unselected and prior records missing from the catalog are
// dropped. Observations carry over verbatim. Without one, the result is an
// unselected clone of the catalog and created is true: the caller must
// persist it.
//
// Reconciling the result again against the same catalog returns an equal
// snapshot.
func Reconcile(catalog Catalog, prior *Snapshot) (snap Snapshot, created bool) {
	products := catalog.Clone()

	if prior == nil {
		return Snapshot{Products: products}, true
	}

	byName := make(map[string]Product, len(prior.Products))
	for _, p := range prior.Products {
		if _, dup := byName[p.Name]; !dup {
			byName[p.Name] = p
		}
	}

	for i := range products {
		old, ok := byName[products[i].Name]
		if !ok {
			continue
		}
		products[i].Checked = old.Checked
		products[i].Quantity = old.Quantity
		products[i].normalize()
	}

	return Snapshot{Products: products, Observations: prior.Observations}, false
}
