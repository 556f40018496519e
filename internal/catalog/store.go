package catalog

import (
	"strings"
	"sync"
)

// Book is a single catalog record. Title and author are never empty or
// whitespace-only at rest; category is optional and stored lowercased,
// empty string meaning "none".
type Book struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category,omitempty"`
}

// Store owns the book collection. All methods are safe for concurrent
// use; create and delete are atomic with respect to each other, so two
// concurrent creates never share an identifier.
type Store struct {
	mu     sync.Mutex
	books  map[int]Book
	order  []int
	nextID int
}

// NewStore creates an empty catalog store.
func NewStore() *Store {
	return &Store{
		books: make(map[int]Book),
	}
}

// Create validates, normalizes and stores a new book, returning the
// stored record. Title and author must be non-empty after trimming;
// otherwise a *ValidationError naming every offending field is returned
// and the catalog is left untouched. Category is optional and normalized
// to trimmed lowercase.
func (s *Store) Create(title, author, category string) (Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)

	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if author == "" {
		missing = append(missing, "author")
	}
	if len(missing) > 0 {
		return Book{}, NewValidationError(missing...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Monotonic counter: deleted identifiers are never reissued.
	s.nextID++
	book := Book{
		ID:       s.nextID,
		Title:    title,
		Author:   author,
		Category: NormalizeCategory(category),
	}
	s.books[book.ID] = book
	s.order = append(s.order, book.ID)

	return book, nil
}

// GetByID returns the book with the given identifier, or a
// *NotFoundError if no such record exists.
func (s *Store) GetByID(id int) (Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[id]
	if !ok {
		return Book{}, &NotFoundError{ID: id}
	}
	return book, nil
}

// DeleteByID removes the book with the given identifier irreversibly.
// Returns a *NotFoundError if the record is absent, including when it
// was already deleted.
func (s *Store) DeleteByID(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return &NotFoundError{ID: id}
	}
	delete(s.books, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListAll returns every book in insertion order. The result is a copy
// and is never nil.
func (s *Store) ListAll() []Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Search returns the books matching every provided filter, in insertion
// order. Author and title match by case-insensitive substring; category
// matches by case-insensitive equality after normalization. Empty
// filters are treated as absent, and with no filters at all Search
// behaves like ListAll. No match yields an empty slice, not an error.
func (s *Store) Search(author, title, category string) []Book {
	author = strings.ToLower(author)
	title = strings.ToLower(title)
	category = NormalizeCategory(category)

	s.mu.Lock()
	defer s.mu.Unlock()

	if author == "" && title == "" && category == "" {
		return s.snapshotLocked()
	}

	results := make([]Book, 0)
	for _, id := range s.order {
		book := s.books[id]
		if author != "" && !strings.Contains(strings.ToLower(book.Author), author) {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(book.Title), title) {
			continue
		}
		if category != "" && book.Category != category {
			continue
		}
		results = append(results, book)
	}
	return results
}

// Count returns the number of records currently stored.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.books)
}

// NormalizeCategory trims and lowercases a category value. An empty or
// whitespace-only input normalizes to "", meaning no category.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// snapshotLocked copies the collection in insertion order.
// Callers must hold s.mu.
func (s *Store) snapshotLocked() []Book {
	books := make([]Book, 0, len(s.order))
	for _, id := range s.order {
		books = append(books, s.books[id])
	}
	return books
}
