package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/shelfd/internal/catalog"
	"github.com/fyrsmithlabs/shelfd/internal/logging"
)

// Outcome is the transport-neutral result of one tool call. Summary is
// a single human-readable line; Structured matches the operation's
// output schema on success, or wraps Err in an {"error": ...} object on
// failure.
type Outcome struct {
	Summary    string
	Structured any
	Err        *ToolError
}

// IsError reports whether the call failed.
func (o *Outcome) IsError() bool {
	return o.Err != nil
}

// Text renders the outcome for text-only consumers: the summary line,
// then the structured payload as indented JSON. Both transports use
// this, so a tool reads identically over stdio and HTTP.
func (o *Outcome) Text() string {
	text := o.Summary
	if o.Structured != nil {
		if data, err := json.MarshalIndent(o.Structured, "", "  "); err == nil {
			text += "\n\n" + string(data)
		}
	}
	return text
}

// Bridge connects the tool surface to the catalog store. Every
// transport funnels through CallTool, so validation, dispatch, metrics
// and event publishing happen exactly once per call no matter how the
// call arrived.
type Bridge struct {
	store     *catalog.Store
	registry  *Registry
	logger    *logging.Logger
	metrics   *Metrics
	publisher catalog.Publisher
}

// NewBridge creates a bridge over the given store. The publisher is
// optional; nil disables change events.
func NewBridge(store *catalog.Store, logger *logging.Logger, publisher catalog.Publisher) (*Bridge, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Bridge{
		store:     store,
		registry:  NewRegistry(),
		logger:    logger.Named("mcp"),
		metrics:   NewMetrics(logger),
		publisher: publisher,
	}, nil
}

// Registry exposes the tool table for discovery surfaces.
func (b *Bridge) Registry() *Registry {
	return b.registry
}

// ListTools returns every tool descriptor in registration order.
func (b *Bridge) ListTools() []Descriptor {
	return b.registry.List()
}

// CallTool runs one tool call through validation, dispatch and error
// translation. Failures come back as error outcomes, never as raw
// store errors.
func (b *Bridge) CallTool(ctx context.Context, name string, args json.RawMessage) *Outcome {
	op, ok := b.registry.Get(name)
	if !ok {
		// Unknown names stay off the instruments so the tool label
		// set stays bounded.
		b.logger.Warn(ctx, "unknown tool requested", zap.String("tool", name))
		return errorOutcome(NewUnknownToolError(name))
	}

	start := time.Now()
	b.metrics.IncrementActive(ctx, name)
	defer b.metrics.DecrementActive(ctx, name)

	decoded, problems := decodeArguments(op.InputSchema, args)
	if len(problems) > 0 {
		toolErr := NewInvalidArgumentsError(problems)
		b.metrics.RecordInvocation(ctx, name, time.Since(start), toolErr)
		return errorOutcome(toolErr)
	}

	outcome, err := b.dispatch(ctx, name, decoded)
	b.metrics.RecordInvocation(ctx, name, time.Since(start), err)
	if err != nil {
		toolErr := translateStoreError(err)
		if toolErr.Kind == KindInternal {
			b.logger.Error(ctx, "tool dispatch failed", zap.String("tool", name), zap.Error(err))
		}
		return errorOutcome(toolErr)
	}
	return outcome
}

func (b *Bridge) dispatch(ctx context.Context, name string, args map[string]any) (*Outcome, error) {
	switch name {
	case ToolCreateBook:
		return b.createBook(ctx, args)
	case ToolGetBook:
		return b.getBook(ctx, args)
	case ToolDeleteBook:
		return b.deleteBook(ctx, args)
	case ToolListBooks:
		return b.listBooks(ctx)
	case ToolSearchBooks:
		return b.searchBooks(ctx, args)
	}
	return nil, fmt.Errorf("tool %q registered without a handler", name)
}

// Structured result payloads. Shapes mirror the output schemas in
// schemas.go.
type createResult struct {
	ID      int    `json:"id"`
	Message string `json:"message"`
}

type deleteResult struct {
	ID      int    `json:"id"`
	Message string `json:"message"`
}

type bookListResult struct {
	Books []catalog.Book `json:"books"`
	Count int            `json:"count"`
}

func (b *Bridge) createBook(ctx context.Context, args map[string]any) (*Outcome, error) {
	book, err := b.store.Create(stringArg(args, "title"), stringArg(args, "author"), stringArg(args, "category"))
	if err != nil {
		return nil, err
	}

	b.logger.Info(ctx, "book created", zap.Int("id", book.ID), zap.String("title", book.Title))
	if b.publisher != nil {
		b.publisher.BookCreated(ctx, book)
	}

	return &Outcome{
		Summary:    fmt.Sprintf("Added book %d: %s by %s", book.ID, book.Title, book.Author),
		Structured: createResult{ID: book.ID, Message: "Book added successfully"},
	}, nil
}

func (b *Bridge) getBook(ctx context.Context, args map[string]any) (*Outcome, error) {
	book, err := b.store.GetByID(intArg(args, "id"))
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("Book %d: %s by %s", book.ID, book.Title, book.Author)
	if book.Category != "" {
		summary += fmt.Sprintf(" [%s]", book.Category)
	}
	return &Outcome{Summary: summary, Structured: book}, nil
}

func (b *Bridge) deleteBook(ctx context.Context, args map[string]any) (*Outcome, error) {
	id := intArg(args, "id")
	if err := b.store.DeleteByID(id); err != nil {
		return nil, err
	}

	b.logger.Info(ctx, "book deleted", zap.Int("id", id))
	if b.publisher != nil {
		b.publisher.BookDeleted(ctx, id)
	}

	return &Outcome{
		Summary:    fmt.Sprintf("Deleted book %d", id),
		Structured: deleteResult{ID: id, Message: "Book deleted successfully"},
	}, nil
}

func (b *Bridge) listBooks(ctx context.Context) (*Outcome, error) {
	books := b.store.ListAll()
	return &Outcome{
		Summary:    fmt.Sprintf("Catalog holds %d book(s)", len(books)),
		Structured: bookListResult{Books: books, Count: len(books)},
	}, nil
}

func (b *Bridge) searchBooks(ctx context.Context, args map[string]any) (*Outcome, error) {
	books := b.store.Search(stringArg(args, "author"), stringArg(args, "title"), stringArg(args, "category"))
	return &Outcome{
		Summary:    fmt.Sprintf("Found %d book(s)", len(books)),
		Structured: bookListResult{Books: books, Count: len(books)},
	}, nil
}

// decodeArguments checks raw against the declared input schema and
// returns the decoded argument object. Every violation lands in
// problems; a call with any problems never reaches the store. Fields
// the schema does not declare are ignored.
func decodeArguments(schema *jsonschema.Schema, raw json.RawMessage) (map[string]any, []string) {
	args := map[string]any{}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed != "" && trimmed != "null" {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, []string{"arguments must be a JSON object"}
		}
	}

	var problems []string
	for _, name := range schema.Required {
		if _, ok := args[name]; !ok {
			problems = append(problems, fmt.Sprintf("%s is required", name))
		}
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value, ok := args[name]
		if !ok {
			continue
		}
		problems = append(problems, checkArgument(name, schema.Properties[name], value)...)
	}

	return args, problems
}

func checkArgument(name string, prop *jsonschema.Schema, value any) []string {
	switch prop.Type {
	case "string":
		if _, ok := value.(string); !ok {
			return []string{fmt.Sprintf("%s must be a string", name)}
		}
	case "integer":
		n, ok := value.(float64)
		if !ok || n != math.Trunc(n) {
			return []string{fmt.Sprintf("%s must be an integer", name)}
		}
		if prop.Minimum != nil && n < *prop.Minimum {
			return []string{fmt.Sprintf("%s must be at least %d", name, int(*prop.Minimum))}
		}
	}
	return nil
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]any, name string) int {
	n, _ := args[name].(float64)
	return int(n)
}

func errorOutcome(toolErr *ToolError) *Outcome {
	return &Outcome{
		Summary:    toolErr.Message,
		Structured: map[string]any{"error": toolErr},
		Err:        toolErr,
	}
}

// translateStoreError maps catalog failures onto the wire taxonomy.
// Anything unrecognized crosses as a generic internal_error; the
// original text stays in the server log only.
func translateStoreError(err error) *ToolError {
	var validationErr *catalog.ValidationError
	if errors.As(err, &validationErr) {
		return &ToolError{Kind: KindValidation, Message: validationErr.Error()}
	}
	var notFoundErr *catalog.NotFoundError
	if errors.As(err, &notFoundErr) {
		return &ToolError{Kind: KindNotFound, Message: notFoundErr.Error()}
	}
	return &ToolError{Kind: KindInternal, Message: "internal error"}
}
