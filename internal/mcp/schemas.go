package mcp

import "github.com/google/jsonschema-go/jsonschema"

// Schemas are written out by hand rather than derived from Go types;
// they are the wire contract for tool arguments and results. Each
// constructor returns a fresh value, structurally identical on every
// call.

func createBookInput() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"title": {
				Type:        "string",
				Description: "Book title, must not be blank",
			},
			"author": {
				Type:        "string",
				Description: "Book author, must not be blank",
			},
			"category": {
				Type:        "string",
				Description: "Optional category, stored lowercased",
			},
		},
		Required: []string{"title", "author"},
	}
}

func bookIDInput(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"id": {
				Type:        "integer",
				Description: description,
				Minimum:     float64Ptr(1),
			},
		},
		Required: []string{"id"},
	}
}

func searchBooksInput() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"author": {
				Type:        "string",
				Description: "Case-insensitive substring match on author",
			},
			"title": {
				Type:        "string",
				Description: "Case-insensitive substring match on title",
			},
			"category": {
				Type:        "string",
				Description: "Case-insensitive exact match on category",
			},
		},
	}
}

func emptyInput() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}

// bookSchema describes a single catalog record as it appears in every
// result that carries book data.
func bookSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"id": {
				Type:        "integer",
				Description: "Catalog identifier, positive and never reused",
			},
			"title": {
				Type:        "string",
				Description: "Book title",
			},
			"author": {
				Type:        "string",
				Description: "Book author",
			},
			"category": {
				Type:        "string",
				Description: "Normalized category, omitted when unset",
			},
		},
		Required: []string{"id", "title", "author"},
	}
}

func createBookOutput() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"id": {
				Type:        "integer",
				Description: "Identifier assigned to the new book",
			},
			"message": {
				Type: "string",
			},
		},
		Required: []string{"id", "message"},
	}
}

func deleteBookOutput() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"id": {
				Type:        "integer",
				Description: "Identifier of the removed book",
			},
			"message": {
				Type: "string",
			},
		},
		Required: []string{"id", "message"},
	}
}

func bookListOutput() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"books": {
				Type:  "array",
				Items: bookSchema(),
			},
			"count": {
				Type:        "integer",
				Description: "Number of books returned",
			},
		},
		Required: []string{"books", "count"},
	}
}

func float64Ptr(v float64) *float64 {
	return &v
}
