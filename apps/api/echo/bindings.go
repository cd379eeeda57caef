package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/koda-tec/sistema-escolar/core"
)

var (
	courseIDParam = "courseId"
	dateParam     = "date"
)

// attendanceQuery selects the roll call of one course on one day (today by default).
type attendanceQuery struct {
	CourseID string
	Date     string
}

func (q *attendanceQuery) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	q.CourseID = strings.TrimSpace(data.Get(courseIDParam))
	q.Date = strings.TrimSpace(data.Get(dateParam))
	if q.Date == "" {
		q.Date = time.Now().UTC().Format(core.DateLayout)
	}
}
