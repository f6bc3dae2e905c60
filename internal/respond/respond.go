package respond

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the shape every endpoint answers with.
type Envelope struct {
	Status           string      `json:"status"`
	Results          *int        `json:"results,omitempty"`
	PaginationResult *Pagination `json:"paginationResult,omitempty"`
	Data             interface{} `json:"data,omitempty"`
	Errors           interface{} `json:"errors,omitempty"`
}

type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	Limit         int  `json:"limit"`
	NumberOfPages int  `json:"numberOfPages"`
	Next          *int `json:"next,omitempty"`
	Prev          *int `json:"prev,omitempty"`
}

// NewPagination derives page metadata from a total row count.
func NewPagination(page, limit int, total int64) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	p := Pagination{CurrentPage: page, Limit: limit, NumberOfPages: pages}
	if page < pages {
		next := page + 1
		p.Next = &next
	}
	if page > 1 {
		prev := page - 1
		p.Prev = &prev
	}
	return p
}

func Success(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, Envelope{Status: "success", Data: data})
}

func List(c echo.Context, data interface{}, results int, p Pagination) error {
	return c.JSON(http.StatusOK, Envelope{
		Status:           "success",
		Results:          &results,
		PaginationResult: &p,
		Data:             data,
	})
}

func Error(c echo.Context, code int, errs interface{}) error {
	return c.JSON(code, Envelope{Status: "error", Errors: errs})
}
