// Package catalog describes the product boundary the cart depends on.
//
// The storefront does not manage products; it only reads stock and display
// attributes. Reader is implemented in memory here and by the MongoDB and
// PostgreSQL stores under pkg/storage.
package catalog
