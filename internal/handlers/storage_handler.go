package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/storage"
)

type StorageHandler struct {
	objects storage.ObjectReader
}

func NewStorageHandler(objects storage.ObjectReader) *StorageHandler {
	return &StorageHandler{objects: objects}
}

// Serve streams a stored image by key
func (h *StorageHandler) Serve(c *fiber.Ctx) error {
	key := strings.TrimLeft(c.Params("*"), "/")
	if key == "" || strings.Contains(key, "..") {
		return fail(c, fiber.StatusNotFound, "File not found.")
	}

	body, contentType, err := h.objects.Open(c.UserContext(), key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return fail(c, fiber.StatusNotFound, "File not found.")
	}
	if err != nil {
		return handleError(c, err, "File")
	}

	if contentType != "" {
		c.Set(fiber.HeaderContentType, contentType)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.SendStream(body)
}
