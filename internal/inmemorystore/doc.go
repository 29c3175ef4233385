// Package inmemorystore provides a thread-safe, in-memory implementation of
// store.Mirror. It keeps the same ordering and error contract as the SQL
// backends and is used where a database file is not wanted, such as tests of
// the commands that edit a mirror.
package inmemorystore
