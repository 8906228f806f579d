package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/content"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindUpload extracts the "file" part of a multipart form. A missing file is
// not an error here; handlers that require one let the domain reject it.
// The returned closer must be called once the upload has been consumed.
func bindUpload(ctx echo.Context) (*content.Upload, func(), error) {
	noop := func() {}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return nil, noop, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, errors.Wrap(err, "opening uploaded file")
	}
	up := &content.Upload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Content:  f,
	}
	return up, func() { _ = f.Close() }, nil
}
