package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core"
)

var orderingParam = "ordering"

// Ordering binds the `ordering` query param, e.g. `?ordering=-createdAt,hours`.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// saveFormFile stores the optional file of a multipart form field and returns its URL.
// It returns an empty URL when the request has no such file.
func saveFormFile(ctx echo.Context, files core.FileStore, field string) (string, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", errors.Wrap(err, "reading form file")
	}
	return files.Save(field, fh)
}

// discardFormFile removes a file saved by saveFormFile once the request it came with has failed.
func discardFormFile(ctx echo.Context, files core.FileStore, url string) {
	if url == "" {
		return
	}
	if err := files.Remove(url); err != nil {
		ctx.Logger().Warn(err)
	}
}

