// Package events publishes catalog change notifications to NATS.
//
// Every catalog mutation produces one event on a per-book subject:
//
//	catalog.books.{id}.created
//	catalog.books.{id}.deleted
//
// Subscribers can watch a single book (catalog.books.42.*) or the whole
// catalog (catalog.books.>). Publishing is best-effort: a broker outage
// is logged and never fails the mutation that triggered the event.
package events

import "time"

// Event types carried in the envelope.
const (
	TypeBookCreated = "book.created"
	TypeBookDeleted = "book.deleted"
)

// Subject templates. The single placeholder is the numeric book ID.
// subjectAll matches every catalog event for watchers.
const (
	subjectCreated = "catalog.books.%d.created"
	subjectDeleted = "catalog.books.%d.deleted"
	subjectAll     = "catalog.books.>"
)

// Book is the catalog snapshot carried by created events.
type Book struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category,omitempty"`
}

// Event is the JSON envelope published for every catalog mutation.
//
// Created events carry the full book snapshot; deleted events carry only
// the ID. EventID is a fresh UUID per event so subscribers can
// deduplicate across reconnects.
type Event struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	BookID    int       `json:"book_id"`
	Book      *Book     `json:"book,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
