package contact

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectolinq"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/repositories/contact"
	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// Register registers contact routes
func Register(g *echo.Group) {
	g.GET("", ListContacts)
	g.GET("/:id", GetContact)
	g.POST("/batch", BatchUpsertContacts)
	g.DELETE("/:id", DeleteContact)
}

// ListContacts lists contacts for the tenant, paged
func ListContacts(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	ctx, repo, err := ectoinject.GetContext[*contact.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	contacts, total, err := repo.List(ctx, tenantID, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.ContactListResponse{
		Items:      contacts,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// GetContact gets a contact by ID
func GetContact(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*contact.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := repo.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// BatchUpsertContacts creates or replaces a batch of contact snapshots
func BatchUpsertContacts(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	req, err := utils.BindRequest[models.BatchUpsertContactsRequest](c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*contact.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	contacts := ectolinq.Map(req.Contacts, func(r models.CreateContactRequest) models.Contact {
		return r.ToContact()
	})

	upserted, err := repo.UpsertBatch(ctx, tenantID, contacts)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, upserted)
}

// DeleteContact soft-deletes a contact
func DeleteContact(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*contact.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.SoftDelete(ctx, tenantID, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
