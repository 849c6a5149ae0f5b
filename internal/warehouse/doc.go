// Package warehouse moves frames in and out of a PostgreSQL warehouse.
//
// Connections are configured explicitly from config.WarehouseConfig. Loads
// run in a single transaction and move data with COPY.
package warehouse
