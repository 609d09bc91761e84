package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/library/api/http/presenter"
	"github.com/artem13815/library/pkg/catalog"
)

// BookAdminHandler serves catalog maintenance routes.
type BookAdminHandler struct {
	uc catalog.UseCase
}

func NewBookAdminHandler(uc catalog.UseCase) *BookAdminHandler { return &BookAdminHandler{uc: uc} }

type bookDTO struct {
	ISBN          string `json:"isbn"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedYear int    `json:"published_year"`
	Quantity      int    `json:"quantity"`
}

func (d bookDTO) toBook() catalog.Book {
	return catalog.Book{
		ISBN:          d.ISBN,
		Title:         d.Title,
		Author:        d.Author,
		PublishedYear: d.PublishedYear,
		Quantity:      d.Quantity,
	}
}

// Add inserts the books whose ISBN is not in the catalog yet.
// @Summary Add books in bulk
// @Tags    admin
// @Accept  json
// @Produce json
// @Param   input body []bookDTO true "books"
// @Security BearerAuth
// @Success 201 {object} map[string]any
// @Failure 409 {object} presenter.ErrorResponse
// @Router  /book/admin/add [post]
func (h *BookAdminHandler) Add(c *fiber.Ctx) error {
	var req []bookDTO
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	books := make([]catalog.Book, 0, len(req))
	for _, d := range req {
		books = append(books, d.toBook())
	}
	n, err := h.uc.AddMany(c.Context(), books)
	if err != nil {
		return catalogError(c, err, "All Books already exist")
	}
	return presenter.JSON(c, http.StatusCreated, fiber.Map{
		"message":     "Books added successfully",
		"added_books": n,
	})
}

// Create adds a single book.
// @Summary Create book
// @Tags    admin
// @Accept  json
// @Produce json
// @Param   input body bookDTO true "book"
// @Security BearerAuth
// @Success 201 {object} presenter.MessageResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Router  /book/admin/create [post]
func (h *BookAdminHandler) Create(c *fiber.Ctx) error {
	var req bookDTO
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	if _, err := h.uc.Create(c.Context(), req.toBook()); err != nil {
		return catalogError(c, err, "Book already exist")
	}
	return presenter.Message(c, http.StatusCreated, "Book added successfully")
}

// Update replaces the fields of the book with the given ISBN.
// @Summary Update book
// @Tags    admin
// @Accept  json
// @Produce json
// @Param   input body bookDTO true "book"
// @Security BearerAuth
// @Success 200 {object} presenter.MessageResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /book/admin/update [put]
func (h *BookAdminHandler) Update(c *fiber.Ctx) error {
	var req bookDTO
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	if err := h.uc.Update(c.Context(), req.toBook()); err != nil {
		return catalogError(c, err, "Book already exist")
	}
	return presenter.Message(c, http.StatusOK, "Book updated successfully")
}

// Delete removes by ISBN, else every book by author, else every book by title.
// @Summary Delete books
// @Tags    admin
// @Accept  json
// @Produce json
// @Param   input body bookDTO true "criteria"
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /book/admin/delete [delete]
func (h *BookAdminHandler) Delete(c *fiber.Ctx) error {
	var req bookDTO
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	n, err := h.uc.Delete(c.Context(), catalog.DeleteCriteria{ISBN: req.ISBN, Author: req.Author, Title: req.Title})
	if err != nil {
		return catalogError(c, err, "")
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{
		"message": "Books deleted successfully",
		"deleted": n,
	})
}

func catalogError(c *fiber.Ctx, err error, conflictMessage string) error {
	var verr catalog.ErrValidation
	switch {
	case errors.As(err, &verr):
		return presenter.Error(c, http.StatusBadRequest, verr.Error())
	case errors.Is(err, catalog.ErrDuplicateBook):
		return presenter.Error(c, http.StatusConflict, conflictMessage)
	case errors.Is(err, catalog.ErrNotFound):
		return presenter.Error(c, http.StatusNotFound, "Book not found")
	default:
		return presenter.Error(c, http.StatusInternalServerError, "failed to change catalog")
	}
}
