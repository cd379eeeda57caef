package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/attendance"
	"github.com/koda-tec/sistema-escolar/core/notification"
)

// displayDateLayout is how dates read in notifications.
const displayDateLayout = "02/01/2006"

type (
	attendanceApi struct {
		svc    *attendance.Service
		notify *notification.Service
		logger core.Logger
	}

	absenceReport struct {
		Absences int `json:"absences"`
		Notified int `json:"notifiedCount"`
		Reached  int `json:"totalRecipients"`
		Failed   int `json:"failed"` // absences whose recipients could not be resolved
	}

	attendanceResponse struct {
		Records       []attendance.Record `json:"records"`
		Notifications absenceReport       `json:"notifications"`
	}
)

func registerAttendanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *attendance.Service,
	notify *notification.Service,
	logger core.Logger,
) {
	api := attendanceApi{svc: svc, notify: notify, logger: logger}

	ag := g.Group("/attendance", jwt, roleMiddleware(RoleDirector, RoleStaff))
	ag.POST("", api.record)
	ag.GET("", api.query)
}

// Handlers

func (api *attendanceApi) record(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data attendance.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	records, absences, err := api.svc.Record(ctx.Request().Context(), claims.SchoolID, claims.Subject, data)
	if err != nil {
		return err
	}

	// records are saved: notification failures never fail the request
	report := absenceReport{Absences: len(absences)}
	for _, abs := range absences {
		summary, err := api.notify.Notify(ctx.Request().Context(), absenceEvent(claims.SchoolID, abs))
		if err != nil {
			report.Failed++
			api.logger.Warn(fmt.Sprintf("notifying absence of %s: %v", abs.StudentID, err), err, claims.Identity())
			continue
		}
		report.Notified += summary.Notified
		report.Reached += summary.TotalRecipients
	}
	return ctx.JSON(http.StatusCreated, attendanceResponse{Records: records, Notifications: report})
}

func (api *attendanceApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var q attendanceQuery
	q.Bind(ctx)
	if q.CourseID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: courseIDParam, Error: "this field is required"})
	}
	records, err := api.svc.List(ctx.Request().Context(), claims.SchoolID, q.CourseID, q.Date)
	if err != nil {
		return err
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func absenceEvent(schoolID string, abs attendance.Absence) notification.Event {
	return notification.Event{
		Kind:     notification.KindAttendanceAbsence,
		SchoolID: schoolID,
		Scope:    notification.Scope{Kind: notification.ScopeStudent, ID: abs.StudentID},
		Data: map[string]string{
			"student": abs.StudentName,
			"course":  abs.CourseName,
			"date":    abs.Date.Format(displayDateLayout),
		},
	}
}
