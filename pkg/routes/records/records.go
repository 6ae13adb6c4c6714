package records

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Counter counts the records in the patient store
type Counter interface {
	TotalRecords(ctx context.Context) (int64, error)
}

// Register registers record routes
func Register(g *echo.Group) {
	g.GET("/total", GetTotal)
}

// TotalResponse is the response of the total endpoint
type TotalResponse struct {
	TotalRecords int64 `json:"total_records"`
}

func GetTotal(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "records_handler.Total")
	defer span.End()

	ctx, counter, err := ectoinject.GetContext[Counter](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	n, err := counter.TotalRecords(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TotalResponse{TotalRecords: n})
}
