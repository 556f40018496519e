package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/shelfd/internal/catalog"
)

// BookRequest is the request body for POST /api/v1/books.
type BookRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category"`
}

// CreateBookResponse is the response body for POST /api/v1/books.
type CreateBookResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// DeleteBookResponse is the response body for DELETE /api/v1/books/id/:id.
type DeleteBookResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// BookListResponse is the response body for the list and search
// endpoints. Books is never null; an empty catalog yields [].
type BookListResponse struct {
	Books []catalog.Book `json:"books"`
	Count int            `json:"count"`
}

// handleCreateBook adds a book to the catalog.
func (s *Server) handleCreateBook(c echo.Context) error {
	ctx := c.Request().Context()

	var req BookRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(ctx, "invalid create request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	book, err := s.store.Create(req.Title, req.Author, req.Category)
	if err != nil {
		return httpError(err)
	}

	s.logger.Info(ctx, "book created",
		zap.Int("id", book.ID),
		zap.String("title", book.Title),
	)
	if s.publisher != nil {
		s.publisher.BookCreated(ctx, book)
	}

	return c.JSON(http.StatusCreated, CreateBookResponse{
		Message: "Book added successfully",
		ID:      book.ID,
	})
}

// handleGetBook returns a single book by identifier.
func (s *Server) handleGetBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}

	book, err := s.store.GetByID(id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// handleDeleteBook removes a book from the catalog.
func (s *Server) handleDeleteBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}

	if err := s.store.DeleteByID(id); err != nil {
		return httpError(err)
	}

	ctx := c.Request().Context()
	s.logger.Info(ctx, "book deleted", zap.Int("id", id))
	if s.publisher != nil {
		s.publisher.BookDeleted(ctx, id)
	}

	return c.JSON(http.StatusOK, DeleteBookResponse{
		Message: "Book deleted successfully",
		ID:      id,
	})
}

// handleListBooks returns every book in insertion order.
func (s *Server) handleListBooks(c echo.Context) error {
	books := s.store.ListAll()
	return c.JSON(http.StatusOK, BookListResponse{Books: books, Count: len(books)})
}

// handleSearchBooks returns the books matching every provided query
// filter. With no filters at all it behaves like the list endpoint.
func (s *Server) handleSearchBooks(c echo.Context) error {
	books := s.store.Search(
		c.QueryParam("author"),
		c.QueryParam("title"),
		c.QueryParam("category"),
	)
	return c.JSON(http.StatusOK, BookListResponse{Books: books, Count: len(books)})
}

// bookID parses the :id path parameter.
func bookID(c echo.Context) (int, error) {
	raw := c.Param("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid book id: %q", raw))
	}
	return id, nil
}

// httpError maps catalog failures onto HTTP status codes. The error
// text crosses as-is for validation and not-found; anything else stays
// in the server log.
func httpError(err error) error {
	if catalog.IsValidation(err) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if catalog.IsNotFound(err) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
