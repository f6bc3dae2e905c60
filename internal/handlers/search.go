package handlers

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/dkotenko/eshop/internal/query"
	"github.com/dkotenko/eshop/internal/respond"
	"github.com/dkotenko/eshop/internal/service/search"
)

type SearchHandler struct {
	ES    *elasticsearch.Client
	Index string
}

func (h *SearchHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]string{"q": "q is required"})
	}

	parsed := query.Parse(c.QueryParams(), query.Allow{})
	from := (parsed.Page - 1) * parsed.Limit

	total, products, err := search.Search(c.Request().Context(), h.ES, h.Index, q, from, parsed.Limit)
	if err != nil {
		return err
	}

	results := len(products)
	return c.JSON(http.StatusOK, respond.Envelope{
		Status:           "success",
		Results:          &results,
		PaginationResult: paginationPtr(respond.NewPagination(parsed.Page, parsed.Limit, total)),
		Data:             products,
	})
}

func paginationPtr(p respond.Pagination) *respond.Pagination { return &p }
