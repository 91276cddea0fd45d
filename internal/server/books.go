// file: internal/server/books.go
// version: 1.0.0
// guid: 7c9e1a3b-5d7f-4a9c-8e1b-5d7f9a1c3e6b

package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jdfalk/bookshelf/internal/models"
	"github.com/jdfalk/bookshelf/internal/server/middleware"
)

type createBookRequest struct {
	ISBN   string `json:"isbn" binding:"required"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

func (s *Server) apiInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "bookshelf",
		"version": s.cfg.Version,
		"endpoints": []string{
			"GET /health",
			"GET /metrics",
			"GET /books",
			"POST /books",
			"GET /books/:isbn",
			"DELETE /books/:isbn",
			"GET /events",
		},
	})
}

func (s *Server) healthCheck(c *gin.Context) {
	s.mu.Lock()
	count := s.store.Len()
	s.mu.Unlock()

	resp := gin.H{
		"status":        "ok",
		"book_count":    count,
		"event_clients": s.events.GetClientCount(),
		"version":       s.cfg.Version,
		"timestamp":     time.Now().Unix(),
	}
	if s.olStore != nil {
		records, err := s.olStore.Count()
		if err != nil {
			log.Printf("[WARN] Health: counting lookup cache records: %v", err)
		} else {
			resp["lookup_cache_records"] = records
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listBooks(c *gin.Context) {
	s.mu.Lock()
	books := s.store.ListBooks()
	s.mu.Unlock()

	RespondWithList(c, books, len(books))
}

func (s *Server) createBook(c *gin.Context) {
	op := NewOperationLogger("createBook", c.Request.Method, c.Request.URL.Path, middleware.GetRequestID(c))

	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		op.LogError(HandleBindError(c, err), err)
		return
	}
	op.SetResourceID(models.NormalizeISBN(req.ISBN))
	op.LogStart()

	s.mu.Lock()
	book, err := s.store.AddBook(c.Request.Context(), req.ISBN, req.Title, req.Author)
	s.mu.Unlock()
	if err != nil {
		op.LogError(RespondWithLibraryError(c, err, req.ISBN), err)
		return
	}

	s.events.SendBookAdded(book)
	c.Header("Location", "/books/"+book.ISBN)
	c.JSON(http.StatusCreated, book)
	op.LogSuccess(http.StatusCreated)
}

func (s *Server) getBook(c *gin.Context) {
	isbn := c.Param("isbn")

	s.mu.Lock()
	book, err := s.store.GetBook(isbn)
	s.mu.Unlock()
	if err != nil {
		RespondWithLibraryError(c, err, isbn)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Server) deleteBook(c *gin.Context) {
	isbn := c.Param("isbn")
	op := NewOperationLogger("deleteBook", c.Request.Method, c.Request.URL.Path, middleware.GetRequestID(c))
	op.SetResourceID(isbn)
	op.LogStart()

	s.mu.Lock()
	book, err := s.store.RemoveBook(isbn)
	s.mu.Unlock()
	if err != nil {
		op.LogError(RespondWithLibraryError(c, err, isbn), err)
		return
	}
	s.events.SendBookRemoved(book)
	c.JSON(http.StatusOK, book)
	op.LogSuccess(http.StatusOK)
}
