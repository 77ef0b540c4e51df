// Package fileutil provides the file primitives shared by the persisted
// stores: an advisory inter-process lock and an atomic whole-file write.
//
// A store update takes the lock, reloads the file, mutates it, and writes
// it back atomically, so concurrent ctxkit invocations never lose updates
// and readers never observe a half-written file.
package fileutil
