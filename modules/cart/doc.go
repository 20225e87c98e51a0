// Package cart exposes the shopping cart endpoints:
//
//	GET    /                 list lines with availability, length and total
//	POST   /{id}             add one unit of product id
//	PATCH  /{id}             change line id by {"delta": n}
//	POST   /{id}/increase    delta +1
//	POST   /{id}/decrease    delta -1
//	DELETE /{id}             remove line id
//	DELETE /                 remove the line ids given as a JSON array
package cart
