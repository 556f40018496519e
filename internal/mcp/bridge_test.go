package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/shelfd/internal/catalog"
	"github.com/fyrsmithlabs/shelfd/internal/logging"
)

// fakePublisher records catalog change notifications.
type fakePublisher struct {
	created []catalog.Book
	deleted []int
}

func (f *fakePublisher) BookCreated(_ context.Context, book catalog.Book) {
	f.created = append(f.created, book)
}

func (f *fakePublisher) BookDeleted(_ context.Context, id int) {
	f.deleted = append(f.deleted, id)
}

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	bridge, err := NewBridge(catalog.NewStore(), logging.NewNop(), nil)
	require.NoError(t, err)
	return bridge
}

func callTool(t *testing.T, b *Bridge, name string, args any) *Outcome {
	t.Helper()
	var raw json.RawMessage
	if args != nil {
		data, err := json.Marshal(args)
		require.NoError(t, err)
		raw = data
	}
	return b.CallTool(context.Background(), name, raw)
}

// TestNewBridge_RequiresStore verifies constructor validation.
func TestNewBridge_RequiresStore(t *testing.T) {
	_, err := NewBridge(nil, logging.NewNop(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store is required")

	// A nil logger is acceptable.
	bridge, err := NewBridge(catalog.NewStore(), nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, bridge.Registry())
}

// TestBridge_CreateBook tests the success envelope of create_book.
func TestBridge_CreateBook(t *testing.T) {
	bridge := newTestBridge(t)

	outcome := callTool(t, bridge, ToolCreateBook, map[string]any{
		"title":    "  The Go Programming Language  ",
		"author":   "Donovan",
		"category": "Programming",
	})

	require.False(t, outcome.IsError())
	assert.Equal(t, createResult{ID: 1, Message: "Book added successfully"}, outcome.Structured)
	assert.Equal(t, "Added book 1: The Go Programming Language by Donovan", outcome.Summary)
	assert.Equal(t, 1, bridge.store.Count())

	// Sequential calls keep assigning increasing identifiers.
	second := callTool(t, bridge, ToolCreateBook, map[string]any{
		"title":  "Dune",
		"author": "Frank Herbert",
	})
	require.False(t, second.IsError())
	assert.Equal(t, createResult{ID: 2, Message: "Book added successfully"}, second.Structured)
}

// TestBridge_CreateBook_ValidationError verifies blank fields are
// rejected by the store and surface with the validation_error kind.
func TestBridge_CreateBook_ValidationError(t *testing.T) {
	bridge := newTestBridge(t)

	outcome := callTool(t, bridge, ToolCreateBook, map[string]any{
		"title":  "   ",
		"author": "Frank Herbert",
	})

	require.True(t, outcome.IsError())
	assert.Equal(t, KindValidation, outcome.Err.Kind)
	assert.Equal(t, "validation failed: title must not be empty", outcome.Err.Message)
	assert.Equal(t, 0, bridge.store.Count())

	both := callTool(t, bridge, ToolCreateBook, map[string]any{
		"title":  " ",
		"author": "\t",
	})
	require.True(t, both.IsError())
	assert.Equal(t, "validation failed: title, author must not be empty", both.Err.Message)
}

// TestBridge_GetBook tests lookup and the not_found translation.
func TestBridge_GetBook(t *testing.T) {
	bridge := newTestBridge(t)
	created := callTool(t, bridge, ToolCreateBook, map[string]any{
		"title":    "Dune",
		"author":   "Frank Herbert",
		"category": "Fiction",
	})
	require.False(t, created.IsError())

	t.Run("found", func(t *testing.T) {
		outcome := callTool(t, bridge, ToolGetBook, map[string]any{"id": 1})
		require.False(t, outcome.IsError())
		assert.Equal(t, catalog.Book{ID: 1, Title: "Dune", Author: "Frank Herbert", Category: "fiction"}, outcome.Structured)
		assert.Equal(t, "Book 1: Dune by Frank Herbert [fiction]", outcome.Summary)
	})

	t.Run("not found", func(t *testing.T) {
		outcome := callTool(t, bridge, ToolGetBook, map[string]any{"id": 99})
		require.True(t, outcome.IsError())
		assert.Equal(t, KindNotFound, outcome.Err.Kind)
		assert.Equal(t, "book 99 not found", outcome.Err.Message)
	})
}

// TestBridge_DeleteBook tests removal and repeat-delete behavior.
func TestBridge_DeleteBook(t *testing.T) {
	bridge := newTestBridge(t)
	callTool(t, bridge, ToolCreateBook, map[string]any{"title": "Dune", "author": "Frank Herbert"})

	outcome := callTool(t, bridge, ToolDeleteBook, map[string]any{"id": 1})
	require.False(t, outcome.IsError())
	assert.Equal(t, deleteResult{ID: 1, Message: "Book deleted successfully"}, outcome.Structured)
	assert.Equal(t, "Deleted book 1", outcome.Summary)
	assert.Equal(t, 0, bridge.store.Count())

	// The identifier is gone for good; a repeat delete reports
	// not_found.
	repeat := callTool(t, bridge, ToolDeleteBook, map[string]any{"id": 1})
	require.True(t, repeat.IsError())
	assert.Equal(t, KindNotFound, repeat.Err.Kind)
}

// TestBridge_ListBooks tests the list envelope on an empty and a
// populated catalog.
func TestBridge_ListBooks(t *testing.T) {
	bridge := newTestBridge(t)

	empty := callTool(t, bridge, ToolListBooks, nil)
	require.False(t, empty.IsError())
	result, ok := empty.Structured.(bookListResult)
	require.True(t, ok)
	assert.NotNil(t, result.Books)
	assert.Empty(t, result.Books)
	assert.Equal(t, 0, result.Count)
	assert.Equal(t, "Catalog holds 0 book(s)", empty.Summary)

	callTool(t, bridge, ToolCreateBook, map[string]any{"title": "Dune", "author": "Frank Herbert"})
	callTool(t, bridge, ToolCreateBook, map[string]any{"title": "Emma", "author": "Jane Austen"})

	populated := callTool(t, bridge, ToolListBooks, nil)
	require.False(t, populated.IsError())
	result, ok = populated.Structured.(bookListResult)
	require.True(t, ok)
	require.Equal(t, 2, result.Count)
	assert.Equal(t, "Dune", result.Books[0].Title)
	assert.Equal(t, "Emma", result.Books[1].Title)
}

// TestBridge_SearchBooks tests filter conjunction and the no-filter
// case.
func TestBridge_SearchBooks(t *testing.T) {
	bridge := newTestBridge(t)
	callTool(t, bridge, ToolCreateBook, map[string]any{"title": "Clean Code", "author": "Robert Martin", "category": "Programming"})
	callTool(t, bridge, ToolCreateBook, map[string]any{"title": "Clean Architecture", "author": "Robert Martin", "category": "Programming"})
	callTool(t, bridge, ToolCreateBook, map[string]any{"title": "Dune", "author": "Frank Herbert", "category": "Fiction"})

	t.Run("all filters must match", func(t *testing.T) {
		outcome := callTool(t, bridge, ToolSearchBooks, map[string]any{
			"author": "MARTIN",
			"title":  "architecture",
		})
		require.False(t, outcome.IsError())
		result := outcome.Structured.(bookListResult)
		require.Equal(t, 1, result.Count)
		assert.Equal(t, "Clean Architecture", result.Books[0].Title)
		assert.Equal(t, "Found 1 book(s)", outcome.Summary)
	})

	t.Run("no filters returns everything", func(t *testing.T) {
		outcome := callTool(t, bridge, ToolSearchBooks, map[string]any{})
		require.False(t, outcome.IsError())
		assert.Equal(t, 3, outcome.Structured.(bookListResult).Count)
	})

	t.Run("no match is an empty result, not an error", func(t *testing.T) {
		outcome := callTool(t, bridge, ToolSearchBooks, map[string]any{"author": "tolkien"})
		require.False(t, outcome.IsError())
		result := outcome.Structured.(bookListResult)
		assert.NotNil(t, result.Books)
		assert.Equal(t, 0, result.Count)
	})
}

// TestBridge_UnknownTool verifies the unknown_tool envelope.
func TestBridge_UnknownTool(t *testing.T) {
	bridge := newTestBridge(t)

	outcome := callTool(t, bridge, "publish_book", map[string]any{"id": 1})
	require.True(t, outcome.IsError())
	assert.Equal(t, KindUnknownTool, outcome.Err.Kind)
	assert.Equal(t, `unknown tool "publish_book"`, outcome.Err.Message)
}

// TestBridge_InvalidArguments verifies schema violations are rejected
// before dispatch, listing every offending field.
func TestBridge_InvalidArguments(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		raw     string
		message string
	}{
		{
			name:    "missing both required fields",
			tool:    ToolCreateBook,
			raw:     `{}`,
			message: "invalid arguments: title is required; author is required",
		},
		{
			name:    "wrong types listed together",
			tool:    ToolCreateBook,
			raw:     `{"title": 1, "author": true}`,
			message: "invalid arguments: author must be a string; title must be a string",
		},
		{
			name:    "missing and mistyped fields listed together",
			tool:    ToolCreateBook,
			raw:     `{"author": 7}`,
			message: "invalid arguments: title is required; author must be a string",
		},
		{
			name:    "id must be an integer",
			tool:    ToolGetBook,
			raw:     `{"id": "first"}`,
			message: "invalid arguments: id must be an integer",
		},
		{
			name:    "fractional id rejected",
			tool:    ToolGetBook,
			raw:     `{"id": 3.5}`,
			message: "invalid arguments: id must be an integer",
		},
		{
			name:    "id below minimum",
			tool:    ToolDeleteBook,
			raw:     `{"id": 0}`,
			message: "invalid arguments: id must be at least 1",
		},
		{
			name:    "id missing",
			tool:    ToolGetBook,
			raw:     ``,
			message: "invalid arguments: id is required",
		},
		{
			name:    "arguments not an object",
			tool:    ToolCreateBook,
			raw:     `[1, 2]`,
			message: "invalid arguments: arguments must be a JSON object",
		},
		{
			name:    "malformed JSON",
			tool:    ToolCreateBook,
			raw:     `{"title":`,
			message: "invalid arguments: arguments must be a JSON object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := newTestBridge(t)
			outcome := bridge.CallTool(context.Background(), tt.tool, json.RawMessage(tt.raw))
			require.True(t, outcome.IsError())
			assert.Equal(t, KindInvalidArguments, outcome.Err.Kind)
			assert.Equal(t, tt.message, outcome.Err.Message)
			assert.Equal(t, 0, bridge.store.Count())
		})
	}
}

// TestBridge_IgnoresUndeclaredFields verifies permissive handling of
// extra argument fields.
func TestBridge_IgnoresUndeclaredFields(t *testing.T) {
	bridge := newTestBridge(t)

	outcome := callTool(t, bridge, ToolCreateBook, map[string]any{
		"title":  "Dune",
		"author": "Frank Herbert",
		"isbn":   "978-0441172719",
	})
	require.False(t, outcome.IsError())
	assert.Equal(t, 1, bridge.store.Count())
}

// TestBridge_ErrorEnvelope verifies the shape shared by every failure
// outcome.
func TestBridge_ErrorEnvelope(t *testing.T) {
	bridge := newTestBridge(t)

	outcome := callTool(t, bridge, ToolGetBook, map[string]any{"id": 7})
	require.True(t, outcome.IsError())
	assert.Equal(t, outcome.Err.Message, outcome.Summary)

	structured, ok := outcome.Structured.(map[string]any)
	require.True(t, ok)
	assert.Same(t, outcome.Err, structured["error"])

	// The envelope serializes with kind and message only.
	data, err := json.Marshal(outcome.Structured)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": {"kind": "not_found", "message": "book 7 not found"}}`, string(data))
}

// TestBridge_PublishesChangeEvents verifies mutations notify the
// publisher and reads do not.
func TestBridge_PublishesChangeEvents(t *testing.T) {
	publisher := &fakePublisher{}
	bridge, err := NewBridge(catalog.NewStore(), logging.NewNop(), publisher)
	require.NoError(t, err)

	callTool(t, bridge, ToolCreateBook, map[string]any{"title": "Dune", "author": "Frank Herbert"})
	require.Len(t, publisher.created, 1)
	assert.Equal(t, catalog.Book{ID: 1, Title: "Dune", Author: "Frank Herbert"}, publisher.created[0])

	callTool(t, bridge, ToolGetBook, map[string]any{"id": 1})
	callTool(t, bridge, ToolListBooks, nil)
	assert.Len(t, publisher.created, 1)
	assert.Empty(t, publisher.deleted)

	callTool(t, bridge, ToolDeleteBook, map[string]any{"id": 1})
	assert.Equal(t, []int{1}, publisher.deleted)

	// Failed mutations publish nothing.
	callTool(t, bridge, ToolCreateBook, map[string]any{"title": "  ", "author": "X"})
	callTool(t, bridge, ToolDeleteBook, map[string]any{"id": 1})
	assert.Len(t, publisher.created, 1)
	assert.Len(t, publisher.deleted, 1)
}
