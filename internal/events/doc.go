// Package events carries review outcomes from the study service to whoever
// wants them.
//
// The study service emits a ReviewEvent for every judged answer without
// knowing which handlers are registered. The server registers a LogHandler;
// tests register their own.
package events
