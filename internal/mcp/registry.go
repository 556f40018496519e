package mcp

import "github.com/google/jsonschema-go/jsonschema"

// Tool names. These are stable semantic identifiers; renaming one is a
// breaking change for every connected client.
const (
	ToolCreateBook  = "create_book"
	ToolGetBook     = "get_book"
	ToolDeleteBook  = "delete_book"
	ToolListBooks   = "list_books"
	ToolSearchBooks = "search_books"
)

// Descriptor describes one tool: identity, schemas, and the behavior
// hints surfaced during discovery.
type Descriptor struct {
	Name         string
	Description  string
	InputSchema  *jsonschema.Schema
	OutputSchema *jsonschema.Schema

	// ReadOnly marks pure reads, Destructive marks irreversible
	// writes, Idempotent marks calls safe to repeat with the same
	// arguments.
	ReadOnly    bool
	Destructive bool
	Idempotent  bool
}

// Registry is the fixed table of catalog tools. It is built once and
// never mutated afterwards, so reads need no locking.
type Registry struct {
	order  []Descriptor
	byName map[string]int
}

// NewRegistry builds the tool table in its canonical order.
func NewRegistry() *Registry {
	descriptors := []Descriptor{
		{
			Name:         ToolCreateBook,
			Description:  "Add a new book to the catalog. Title and author are required; category is optional and stored lowercased.",
			InputSchema:  createBookInput(),
			OutputSchema: createBookOutput(),
		},
		{
			Name:         ToolGetBook,
			Description:  "Fetch a single book by its numeric identifier.",
			InputSchema:  bookIDInput("Identifier of the book to fetch"),
			OutputSchema: bookSchema(),
			ReadOnly:     true,
		},
		{
			Name:         ToolDeleteBook,
			Description:  "Remove a book from the catalog. Removed identifiers are never reused.",
			InputSchema:  bookIDInput("Identifier of the book to remove"),
			OutputSchema: deleteBookOutput(),
			Destructive:  true,
			Idempotent:   true,
		},
		{
			Name:         ToolListBooks,
			Description:  "List every book in the catalog in insertion order.",
			InputSchema:  emptyInput(),
			OutputSchema: bookListOutput(),
			ReadOnly:     true,
		},
		{
			Name:         ToolSearchBooks,
			Description:  "Search the catalog by author, title and category. A book must match every provided filter; with no filters every book is returned.",
			InputSchema:  searchBooksInput(),
			OutputSchema: bookListOutput(),
			ReadOnly:     true,
		},
	}

	byName := make(map[string]int, len(descriptors))
	for i, d := range descriptors {
		byName[d.Name] = i
	}

	return &Registry{order: descriptors, byName: byName}
}

// List returns every descriptor in registration order. The slice is a
// copy; callers may not reach the table through it.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.order[i], true
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}
