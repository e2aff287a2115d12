package handler

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
)

// DirectorySearcher performs fuzzy name lookup over the identity
// directory.  Satisfied by *repository.UserRepo.
type DirectorySearcher interface {
	SearchByName(ctx context.Context, name, role string, limit int) ([]model.User, error)
}

// DirectoryHandler exposes the name-search collaborator.  Booking and
// attendance reference people strictly by id; this endpoint is how the
// UI turns a typed name into candidate ids.
type DirectoryHandler struct {
	Users DirectorySearcher
}

// NewDirectoryHandler constructs a DirectoryHandler.
func NewDirectoryHandler(users DirectorySearcher) *DirectoryHandler {
	if users == nil {
		panic("nil directory passed to NewDirectoryHandler")
	}
	return &DirectoryHandler{Users: users}
}

// Search handles GET /v1/directory/search?name=&role=.  The name is
// matched as a case-insensitive substring and may return any number of
// candidates; the caller picks an id from the result.
func (h *DirectoryHandler) Search(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	role := strings.ToUpper(strings.TrimSpace(c.QueryParam("role")))
	switch role {
	case "", model.RoleStudent, model.RoleInstructor, model.RoleReceptionist, model.RoleAdmin:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	users, err := h.Users.SearchByName(c.Request().Context(), name, role, 20)
	if err != nil {
		log.Printf("directory: search failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}
