// Package mockserver serves a local stand-in for the Readwise v2 API backed
// by an in-memory store. It accepts a single configured token, or any
// token when none is configured.
package mockserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/rwclient/readwise"
)

const (
	DefaultPageSize = 100
	maxPageSize     = 1000
	shutdownTimeout = 5 * time.Second
)

// ErrorResponse mirrors the error body Readwise sends
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type Server struct {
	Store    *Store
	Token    string
	PageSize int
	Log      logrus.FieldLogger
}

func New(token string, log logrus.FieldLogger) *Server {
	if log == nil {
		quiet := logrus.New()
		quiet.Out = io.Discard
		log = quiet
	}
	return &Server{
		Store:    NewStore(),
		Token:    token,
		PageSize: DefaultPageSize,
		Log:      log,
	}
}

// NewRouter builds the gin engine serving /api/v2
func (s *Server) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	router.GET("/health", s.health)

	api := router.Group("/api/v2", s.requireToken())
	api.GET("/auth", s.auth)

	api.GET("/books", s.listBooks)
	api.GET("/books/:id", s.getBook)

	api.GET("/highlights", s.listHighlights)
	api.POST("/highlights", s.createHighlights)
	api.GET("/highlights/:id", s.getHighlight)
	api.PATCH("/highlights/:id", s.updateHighlight)
	api.DELETE("/highlights/:id", s.deleteHighlight)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "Not found."})
	})
	return router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.WithField("addr", addr).Info("Mock Readwise server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.Log.Info("Mock Readwise server stopped")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("mock request")
	}
}

func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Detail: "Authentication credentials were not provided."})
			return
		}
		token, ok := strings.CutPrefix(header, "Token ")
		if !ok || token == "" || (s.Token != "" && token != s.Token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Detail: "Invalid token."})
			return
		}
		c.Next()
	}
}

func (s *Server) auth(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (s *Server) listBooks(c *gin.Context) {
	page, size, ok := s.pageParams(c)
	if !ok {
		return
	}
	books, total, err := s.Store.Books(page, size)
	if err != nil {
		respondInvalidPage(c)
		return
	}
	c.JSON(http.StatusOK, readwise.Page[readwise.Book]{
		Count:    int64(total),
		Next:     pageURL(c, page+1, page*size < total),
		Previous: pageURL(c, page-1, page > 1),
		Results:  books,
	})
}

func (s *Server) getBook(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	book, err := s.Store.Book(id)
	if err != nil {
		respondNotFound(c)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Server) listHighlights(c *gin.Context) {
	page, size, ok := s.pageParams(c)
	if !ok {
		return
	}

	var bookID *int64
	if raw := c.Query("book_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid book_id."})
			return
		}
		bookID = &id
	}

	highlights, total, err := s.Store.Highlights(page, size, bookID)
	if err != nil {
		respondInvalidPage(c)
		return
	}
	c.JSON(http.StatusOK, readwise.Page[readwise.Highlight]{
		Count:    int64(total),
		Next:     pageURL(c, page+1, page*size < total),
		Previous: pageURL(c, page-1, page > 1),
		Results:  highlights,
	})
}

func (s *Server) getHighlight(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	h, err := s.Store.Highlight(id)
	if err != nil {
		respondNotFound(c)
		return
	}
	c.JSON(http.StatusOK, h)
}

type createRequest struct {
	Highlights []readwise.Fields `json:"highlights"`
}

func (s *Server) createHighlights(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Malformed request body."})
		return
	}
	if req.Highlights == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "highlights is required."})
		return
	}

	created, err := s.Store.Create(req.Highlights)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, created)
}

func (s *Server) updateHighlight(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var fields readwise.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Malformed request body."})
		return
	}

	h, err := s.Store.Update(id, fields)
	switch {
	case errors.Is(err, ErrNotFound):
		respondNotFound(c)
	case err != nil:
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
	default:
		c.JSON(http.StatusOK, h)
	}
}

func (s *Server) deleteHighlight(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.Store.Delete(id); err != nil {
		respondNotFound(c)
		return
	}
	c.Status(http.StatusNoContent)
}

// pageParams reads ?page= and ?page_size=, writing a 404 for pages that
// are not positive integers
func (s *Server) pageParams(c *gin.Context) (int, int, bool) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			respondInvalidPage(c)
			return 0, 0, false
		}
		page = p
	}

	size := s.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if raw := c.Query("page_size"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil && p > 0 {
			size = min(p, maxPageSize)
		}
	}
	return page, size, true
}

// pageURL builds the absolute link to another page of the current listing
func pageURL(c *gin.Context, page int, exists bool) *string {
	if !exists {
		return nil
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	query := c.Request.URL.Query()
	query.Set("page", strconv.Itoa(page))
	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: query.Encode(),
	}
	link := u.String()
	return &link
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondNotFound(c)
		return 0, false
	}
	return id, true
}

func respondNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Detail: "Not found."})
}

func respondInvalidPage(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Detail: "Invalid page."})
}
