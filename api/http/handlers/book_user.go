package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/library/api/http/presenter"
	"github.com/artem13815/library/pkg/catalog"
	"github.com/artem13815/library/pkg/lending"
	"github.com/artem13815/library/pkg/security/jwt"
)

// BookUserHandler serves public browsing and the lending routes of signed-in users.
type BookUserHandler struct {
	catalog catalog.UseCase
	lending lending.UseCase
}

func NewBookUserHandler(c catalog.UseCase, l lending.UseCase) *BookUserHandler {
	return &BookUserHandler{catalog: c, lending: l}
}

type bookRequest struct {
	ISBN string `json:"isbn"`
}

type issueResponse struct {
	UserID     string    `json:"user_id"`
	BookID     string    `json:"book_id"`
	BorrowDate time.Time `json:"borrow_date"`
}

// All lists the catalog page by page.
// @Summary List books
// @Tags    books
// @Produce json
// @Param   page      query int false "page (from 1)"
// @Param   page_size query int false "page size (1..100, default 5)"
// @Success 200 {array} catalog.Book
// @Router  /book/user/all [get]
func (h *BookUserHandler) All(c *fiber.Ctx) error {
	page, size := parsePage(c, catalog.DefaultListPageSize)
	books, err := h.catalog.List(c.Context(), page, size)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to list books")
	}
	return presenter.JSON(c, http.StatusOK, books)
}

// Search matches title, author or ISBN exactly.
// @Summary Search books
// @Tags    books
// @Produce json
// @Param   query     query string false "title, author or isbn"
// @Param   page      query int false "page (from 1)"
// @Param   page_size query int false "page size (1..100, default 10)"
// @Success 200 {array} catalog.Book
// @Router  /book/user/search [get]
func (h *BookUserHandler) Search(c *fiber.Ctx) error {
	page, size := parsePage(c, catalog.DefaultSearchPageSize)
	books, err := h.catalog.Search(c.Context(), c.Query("query"), page, size)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to search books")
	}
	return presenter.JSON(c, http.StatusOK, books)
}

// Personalize recommends books by authors the caller borrowed before.
// @Summary Recommendations
// @Tags    books
// @Produce json
// @Security BearerAuth
// @Success 200 {array} catalog.Book
// @Router  /book/user/personalize [get]
func (h *BookUserHandler) Personalize(c *fiber.Ctx) error {
	user, ok := jwt.CurrentUser(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "Could not validate credentials")
	}
	books, err := h.lending.Recommend(c.Context(), user.Email)
	if err != nil {
		return lendingError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, books)
}

// Borrow issues a copy to the caller.
// @Summary Borrow book
// @Tags    books
// @Accept  json
// @Produce json
// @Param   input body bookRequest true "isbn"
// @Security BearerAuth
// @Success 201 {object} issueResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Router  /book/user/borrow [post]
func (h *BookUserHandler) Borrow(c *fiber.Ctx) error {
	user, ok := jwt.CurrentUser(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "Could not validate credentials")
	}
	isbn, err := parseISBN(c)
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, err.Error())
	}
	loan, err := h.lending.Borrow(c.Context(), user.Email, isbn)
	if err != nil {
		return lendingError(c, err)
	}
	return presenter.JSON(c, http.StatusCreated, issueResponse{
		UserID:     loan.UserEmail,
		BookID:     loan.ISBN,
		BorrowDate: loan.BorrowDate,
	})
}

// Return closes the caller's loan.
// @Summary Return book
// @Tags    books
// @Accept  json
// @Produce json
// @Param   input body bookRequest true "isbn"
// @Security BearerAuth
// @Success 200 {object} presenter.MessageResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Router  /book/user/return [post]
func (h *BookUserHandler) Return(c *fiber.Ctx) error {
	user, ok := jwt.CurrentUser(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "Could not validate credentials")
	}
	isbn, err := parseISBN(c)
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, err.Error())
	}
	msg, err := h.lending.Return(c.Context(), user.Email, isbn)
	if err != nil {
		return lendingError(c, err)
	}
	return presenter.Message(c, http.StatusOK, msg)
}

func parseISBN(c *fiber.Ctx) (string, error) {
	var req bookRequest
	if err := c.BodyParser(&req); err != nil {
		return "", errors.New("invalid JSON payload")
	}
	isbn := strings.TrimSpace(req.ISBN)
	if isbn == "" {
		return "", errors.New("isbn is required")
	}
	return isbn, nil
}

func lendingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, lending.ErrLimitExceeded):
		return presenter.Error(c, http.StatusConflict, "You have reached your maximum issue limit")
	case errors.Is(err, lending.ErrNotFound):
		return presenter.Error(c, http.StatusNotFound, "Sorry the book is not available at the time. Please come later.")
	case errors.Is(err, lending.ErrAlreadyIssued):
		return presenter.Error(c, http.StatusConflict, "You have already issued the book. Same book not allowed")
	case errors.Is(err, lending.ErrAlreadyReturned):
		return presenter.Error(c, http.StatusConflict, "You have already returned the book")
	default:
		return presenter.Error(c, http.StatusInternalServerError, "Failed to process the request")
	}
}
