// Package migrations holds the SQL schema history. Importing it registers
// every migration with pkg/migration.
package migrations
