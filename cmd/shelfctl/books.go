package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	// book command flags
	addCategory    string
	searchAuthor   string
	searchTitle    string
	searchCategory string
	jsonOutput     bool
)

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(searchCmd)

	addCmd.Flags().StringVar(&addCategory, "category", "", "Book category (stored lowercase)")
	addCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	getCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	deleteCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	searchCmd.Flags().StringVar(&searchAuthor, "author", "", "Filter by author substring")
	searchCmd.Flags().StringVar(&searchTitle, "title", "", "Filter by title substring")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "Filter by exact category")
	searchCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
}

var addCmd = &cobra.Command{
	Use:   "add <title> <author>",
	Short: "Add a book to the catalog",
	Long: `Add a book to the catalog.

Title and author are required and must not be blank. The category is
optional and is stored lowercase.

Examples:
  # Add a book
  shelfctl add "Dune" "Frank Herbert"

  # Add a book with a category
  shelfctl add "Dune" "Frank Herbert" --category fiction

  # Output as JSON
  shelfctl add "Dune" "Frank Herbert" --json`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a book by ID",
	Long: `Get a single book by its numeric ID.

Examples:
  # Get book 1
  shelfctl get 1

  # Output as JSON
  shelfctl get 1 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all books in the catalog",
	Long: `List every book in the catalog in insertion order.

Examples:
  # List all books
  shelfctl list

  # Output as JSON
  shelfctl list --json`,
	RunE: runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a book by ID",
	Long: `Delete a single book by its numeric ID.

Examples:
  # Delete book 1
  shelfctl delete 1

  # Output as JSON
  shelfctl delete 1 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the catalog",
	Long: `Search the catalog by author, title, and category.

Author and title match as case-insensitive substrings; category matches
exactly after lowercasing. Multiple filters must all match. With no
filters the whole catalog is returned.

Examples:
  # Search by author
  shelfctl search --author herbert

  # Combine filters
  shelfctl search --author herbert --category fiction

  # Output as JSON
  shelfctl search --title dune --json`,
	RunE: runSearch,
}

// Book matches internal/catalog/store.go Book
type Book struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category,omitempty"`
}

// BookRequest matches internal/http/books.go BookRequest
type BookRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category"`
}

// CreateBookResponse matches internal/http/books.go CreateBookResponse
type CreateBookResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// DeleteBookResponse matches internal/http/books.go DeleteBookResponse
type DeleteBookResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// BookListResponse matches internal/http/books.go BookListResponse
type BookListResponse struct {
	Books []Book `json:"books"`
	Count int    `json:"count"`
}

// runAdd handles the add command
func runAdd(cmd *cobra.Command, args []string) error {
	createResp, err := addBook(args[0], args[1], addCategory)
	if err != nil {
		return fmt.Errorf("failed to add book: %w", err)
	}

	if jsonOutput {
		return printJSON(createResp)
	}

	fmt.Printf("%s\n", createResp.Message)
	fmt.Printf("ID: %d\n", createResp.ID)

	return nil
}

// runGet handles the get command
func runGet(cmd *cobra.Command, args []string) error {
	id, err := parseBookID(args[0])
	if err != nil {
		return err
	}

	book, err := fetchBook(id)
	if err != nil {
		return fmt.Errorf("failed to get book: %w", err)
	}

	if jsonOutput {
		return printJSON(book)
	}

	fmt.Printf("ID: %d\n", book.ID)
	fmt.Printf("Title: %s\n", book.Title)
	fmt.Printf("Author: %s\n", book.Author)
	if book.Category != "" {
		fmt.Printf("Category: %s\n", book.Category)
	}

	return nil
}

// runList handles the list command
func runList(cmd *cobra.Command, args []string) error {
	list, err := fetchBooks()
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}

	if jsonOutput {
		return printJSON(list)
	}

	if len(list.Books) == 0 {
		fmt.Println("No books in the catalog")
		return nil
	}

	printBookTable(list.Books)
	return nil
}

// runDelete handles the delete command
func runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseBookID(args[0])
	if err != nil {
		return err
	}

	delResp, err := deleteBook(id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	if jsonOutput {
		return printJSON(delResp)
	}

	fmt.Printf("%s\n", delResp.Message)
	fmt.Printf("ID: %d\n", delResp.ID)

	return nil
}

// runSearch handles the search command
func runSearch(cmd *cobra.Command, args []string) error {
	list, err := searchBooks(searchAuthor, searchTitle, searchCategory)
	if err != nil {
		return fmt.Errorf("failed to search books: %w", err)
	}

	if jsonOutput {
		return printJSON(list)
	}

	if len(list.Books) == 0 {
		fmt.Println("No books matched")
		return nil
	}

	printBookTable(list.Books)
	return nil
}

// addBook posts a new book to the server
func addBook(title, author, category string) (*CreateBookResponse, error) {
	reqBody := BookRequest{
		Title:    title,
		Author:   author,
		Category: category,
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/books", serverURL)
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: requestTimeout,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, responseError(resp)
	}

	var createResp CreateBookResponse
	if err := json.NewDecoder(resp.Body).Decode(&createResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &createResp, nil
}

// fetchBook gets a single book by ID
func fetchBook(id int) (*Book, error) {
	url := fmt.Sprintf("%s/api/v1/books/id/%d", serverURL, id)

	client := &http.Client{
		Timeout: requestTimeout,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var book Book
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &book, nil
}

// fetchBooks gets the whole catalog
func fetchBooks() (*BookListResponse, error) {
	return fetchBookList(fmt.Sprintf("%s/api/v1/books", serverURL))
}

// searchBooks queries the catalog with the given filters
func searchBooks(author, title, category string) (*BookListResponse, error) {
	query := url.Values{}
	if author != "" {
		query.Set("author", author)
	}
	if title != "" {
		query.Set("title", title)
	}
	if category != "" {
		query.Set("category", category)
	}

	searchURL := fmt.Sprintf("%s/api/v1/books/search", serverURL)
	if len(query) > 0 {
		searchURL += "?" + query.Encode()
	}

	return fetchBookList(searchURL)
}

// fetchBookList gets a book list from the given URL
func fetchBookList(url string) (*BookListResponse, error) {
	client := &http.Client{
		Timeout: requestTimeout,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var list BookListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &list, nil
}

// deleteBook removes a single book by ID
func deleteBook(id int) (*DeleteBookResponse, error) {
	url := fmt.Sprintf("%s/api/v1/books/id/%d", serverURL, id)

	httpReq, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{
		Timeout: requestTimeout,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var delResp DeleteBookResponse
	if err := json.NewDecoder(resp.Body).Decode(&delResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &delResp, nil
}

// Helper functions

// responseError turns a non-2xx response into an error carrying the body,
// which holds the server's JSON message for validation and not-found cases.
func responseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, err)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
}

func parseBookID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid book id: %q", raw)
	}
	return id, nil
}

func printBookTable(books []Book) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tCATEGORY")
	for _, b := range books {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			b.ID,
			truncate(b.Title, 40),
			truncate(b.Author, 30),
			b.Category,
		)
	}
	w.Flush()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
