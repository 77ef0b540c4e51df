// Package usage tracks how often each document is viewed or used to create
// something, and keeps a bounded log of recommendation queries.
//
// The ledger is persisted through a Store. FileStore keeps the whole ledger
// in one JSON file guarded by an advisory lock; SQLiteStore keeps it in the
// shared SQLite database. Both apply each mutation as one atomic
// read-modify-write cycle.
package usage
