// Package core implements the shopping list model: the master catalog, the
// per-identity lists derived from it, and the text formats used to move
// lists in and out.
//
// This package has no transport dependencies. Web handlers, the CLI and the
// terminal UI all drive the same [Service].
//
// # Catalog
//
// [ParseCatalog] reads delimited rows of (aisle, product). The header row is
// discarded, rows without a product are dropped and blank aisles become the
// default aisle. [Service.ImportCatalog] installs the result as the master
// catalog; a failed import leaves the previous catalog in place.
//
// # Lists
//
// Each identity has one list, opened through [Service.Open]. Opening
// reconciles the persisted list against the current catalog with
// [Reconcile]: selections carry over by product name, new products start
// unselected and products no longer in the catalog disappear. Every
// mutation through Service is saved immediately; a failed save is reported
// as [Outcome.Warning] and the change stays in memory.
//
// Quantity and selection move together: a product is checked exactly when
// its quantity is between 1 and [MaxQuantity].
//
// # Capabilities
//
// Identities named in [Options.Admins] hold every [Capability]. Saving the
// list of an identity with [CapEditMaster] also rewrites the master catalog.
//
// # Text snapshots
//
// [EncodeSnapshotText] writes the checked products grouped by aisle, and
// [Session.ImportText] reads that format back, matching entries to products
// by name and aisle. Entries without an aisle heading fall back to name-only
// matching: exact, then containment, then closest length.
package core
