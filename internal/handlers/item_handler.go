package handlers

import (
	"errors"

	"portfolio/internal/auth"
	"portfolio/internal/httperr"
	"portfolio/internal/middleware"
	"portfolio/internal/models"
	"portfolio/internal/repositories"
	"portfolio/internal/services"
	"portfolio/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ItemHandler handles HTTP requests for items.
type ItemHandler struct {
	service  *services.ItemService
	validate *validation.Validator
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(service *services.ItemService, validate *validation.Validator) *ItemHandler {
	return &ItemHandler{
		service:  service,
		validate: validate,
	}
}

// RegisterRoutes registers the item routes behind authRequired.
func (h *ItemHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	itemRoutes := router.Group("/items", authRequired)
	itemRoutes.Get("/", h.HandleListItems)
	itemRoutes.Post("/", middleware.WithIdentity(h.HandleCreateItem))
	itemRoutes.Get("/:id", h.HandleGetItem)
	itemRoutes.Patch("/:id", middleware.WithIdentity(h.HandleUpdateItem))
	itemRoutes.Delete("/:id", middleware.WithIdentity(h.HandleDeleteItem))
}

// CreateItemRequest is the body of POST /items. Price accepts a JSON number
// or a numeric string and must fit the decimal(12,2) column.
type CreateItemRequest struct {
	Name  string             `json:"name" validate:"required,min=1,max=120"`
	Price *validation.Number `json:"price" validate:"required,coercible,dgt=0,dlt=10000000000,dscale=2"`
}

// UpdateItemRequest is the body of PATCH /items/:id.
type UpdateItemRequest struct {
	Name  *string            `json:"name" validate:"omitempty,min=1,max=120"`
	Price *validation.Number `json:"price" validate:"omitempty,coercible,dgt=0,dlt=10000000000,dscale=2"`
}

func (r UpdateItemRequest) patch() models.ItemPatch {
	var p models.ItemPatch
	p.Name = r.Name
	if r.Price != nil {
		price := r.Price.Value
		p.Price = &price
	}
	return p
}

// HandleListItems retrieves all items.
func (h *ItemHandler) HandleListItems(c *fiber.Ctx) error {
	items, err := h.service.ListItems(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// HandleGetItem retrieves a single item by its ID.
func (h *ItemHandler) HandleGetItem(c *fiber.Ctx) error {
	item, err := h.service.GetItem(c.UserContext(), c.Params("id"))
	if errors.Is(err, repositories.ErrNotFound) {
		return httperr.ErrNotFound
	}
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// HandleCreateItem creates an item owned by the caller.
func (h *ItemHandler) HandleCreateItem(c *fiber.Ctx, id auth.Identity) error {
	var req CreateItemRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return err
	}

	item, err := h.service.CreateItem(c.UserContext(), id.Subject, services.CreateItemInput{
		Name:  req.Name,
		Price: req.Price.Value,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleUpdateItem applies a partial update. An unknown ID surfaces as the
// store's RecordNotFound error.
func (h *ItemHandler) HandleUpdateItem(c *fiber.Ctx, id auth.Identity) error {
	var req UpdateItemRequest
	if err := h.validate.Bind(c, &req); err != nil {
		return err
	}

	item, err := h.service.UpdateItem(c.UserContext(), id.Subject, c.Params("id"), req.patch())
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// HandleDeleteItem removes an item. Deleting an unknown ID still succeeds.
func (h *ItemHandler) HandleDeleteItem(c *fiber.Ctx, id auth.Identity) error {
	if err := h.service.DeleteItem(c.UserContext(), id.Subject, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
