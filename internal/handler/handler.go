package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"geoattend/internal/attendance"
	"geoattend/internal/auth"
	"geoattend/internal/course"
	"geoattend/internal/geo"
	"geoattend/internal/ledger"
	"geoattend/internal/logger"
	"geoattend/internal/metrics"
	"geoattend/internal/qr"
	"geoattend/internal/queue"
	"geoattend/internal/roster"
)

const publishTimeout = 2 * time.Second

// Deps are the collaborators of Handler. Events and Roster may be nil.
type Deps struct {
	Engine   *attendance.Engine
	Issuer   *qr.Issuer
	Courses  course.Directory
	Ledger   ledger.Ledger
	Roster   roster.Tracker
	Events   queue.Queue
	Location *time.Location
	Now      func() time.Time
}

type Handler struct {
	engine  *attendance.Engine
	issuer  *qr.Issuer
	courses course.Directory
	ledger  ledger.Ledger
	roster  roster.Tracker
	events  queue.Queue
	loc     *time.Location
	now     func() time.Time
}

func New(d Deps) *Handler {
	h := &Handler{
		engine:  d.Engine,
		issuer:  d.Issuer,
		courses: d.Courses,
		ledger:  d.Ledger,
		roster:  d.Roster,
		events:  d.Events,
		loc:     d.Location,
		now:     d.Now,
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Mount registers the API on a group that already runs auth.Authenticate.
func (h *Handler) Mount(api *gin.RouterGroup) {
	student := auth.RequireRole(auth.RoleStudent)
	lecturer := auth.RequireRole(auth.RoleLecturer)

	api.POST("/attendance/mark", student, h.MarkAttendance)
	api.GET("/attendance/me", student, h.MyAttendance)
	api.POST("/attendance/generate-qr", lecturer, h.GenerateQR)

	api.GET("/courses/timetable", h.Timetable)
	api.GET("/courses/lecturer", lecturer, h.LecturerCourses)
	api.GET("/courses/:courseId/attendance", lecturer, h.CourseAttendance)
	api.GET("/courses/:courseId/present", lecturer, h.PresentCount)
}

// ---------- Attendance ----------

type markRequest struct {
	QRCodeData       string   `json:"qrCodeData"`
	StudentLat       *float64 `json:"studentLat"`
	StudentLng       *float64 `json:"studentLng"`
	DeviceIdentifier string   `json:"deviceIdentifier"`
}

// MarkAttendance redeems a scanned QR token for the authenticated student.
func (h *Handler) MarkAttendance(c *gin.Context) {
	start := time.Now()
	principal, _ := auth.Principal(c)

	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rej := bindRejection(err)
		metrics.ObserveVerify(string(rej.Reason), time.Since(start))
		h.writeRejection(c, principal.Subject, rej)
		return
	}

	var pos *geo.Point
	if req.StudentLat != nil && req.StudentLng != nil {
		pos = &geo.Point{Lat: *req.StudentLat, Lng: *req.StudentLng}
	}

	rec, err := h.engine.Verify(c.Request.Context(), attendance.Request{
		Token:     req.QRCodeData,
		StudentID: principal.Subject,
		Position:  pos,
		DeviceID:  req.DeviceIdentifier,
		Now:       h.now(),
	})
	elapsed := time.Since(start)

	if err != nil {
		reason := attendance.ReasonOf(err)
		if reason == "" {
			reason = attendance.ReasonStorageUnavailable
		}
		metrics.ObserveVerify(string(reason), elapsed)
		h.writeRejection(c, principal.Subject, err)
		return
	}
	metrics.ObserveVerify("accepted", elapsed)
	logger.Info().
		Str("record_id", rec.ID).
		Str("course_id", rec.CourseID).
		Str("student_id", rec.StudentID).
		Str("day", rec.Day).
		Msg("attendance marked")

	h.publish(c.Request.Context(), rec)
	c.JSON(http.StatusCreated, gin.H{"message": "Attendance marked successfully.", "record": rec})
}

func (h *Handler) writeRejection(c *gin.Context, studentID string, err error) {
	var rej *attendance.Rejection
	if !errors.As(err, &rej) {
		rej = &attendance.Rejection{Reason: attendance.ReasonStorageUnavailable, Err: err}
	}

	status := http.StatusBadRequest
	switch rej.Reason {
	case attendance.ReasonCourseNotFound:
		status = http.StatusNotFound
	case attendance.ReasonAlreadyMarked, attendance.ReasonDeviceAlreadyUsed:
		status = http.StatusConflict
	case attendance.ReasonStorageUnavailable:
		status = http.StatusServiceUnavailable
	}

	if rej.Retryable() {
		logger.Error().Err(rej.Unwrap()).Str("student_id", studentID).Msg("attendance verification failed")
	} else {
		logger.Info().Str("reason", string(rej.Reason)).Str("student_id", studentID).Msg("attendance rejected")
	}

	body := gin.H{"message": rej.Error(), "reason": rej.Reason}
	if rej.Reason == attendance.ReasonTooFar {
		body["distance"] = rej.Distance
	}
	c.JSON(status, body)
}

// bindRejection classifies a body that does not decode into markRequest.
// A qrCodeData of the wrong JSON type is a malformed token.
func bindRejection(err error) *attendance.Rejection {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field == "qrCodeData" {
		return &attendance.Rejection{Reason: attendance.ReasonInvalidToken, Err: err}
	}
	return &attendance.Rejection{Reason: attendance.ReasonInvalidRequest, Detail: "malformed body", Err: err}
}

// publish queues the live-roster event. Failures never fail the check-in.
func (h *Handler) publish(ctx context.Context, rec ledger.Record) {
	if h.events == nil {
		return
	}
	msg, err := roster.MarkedMessage(rec)
	if err == nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		err = h.events.Publish(pubCtx, msg)
		cancel()
	}
	if err != nil {
		metrics.PublishFailures.Inc()
		logger.Warn().Err(err).Str("record_id", rec.ID).Msg("queue publish failed")
	}
}

// MyAttendance lists the authenticated student's records, newest first.
func (h *Handler) MyAttendance(c *gin.Context) {
	principal, _ := auth.Principal(c)
	limit, offset := paging(c)
	records, err := h.ledger.List(c.Request.Context(), ledger.Filter{StudentID: principal.Subject, Limit: limit, Offset: offset})
	if err != nil {
		h.serverError(c, err, "list student attendance")
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": nonNil(records)})
}

type generateQRRequest struct {
	CourseID string `json:"courseId" binding:"required"`
}

// GenerateQR returns the token a lecturer displays as a QR code.
func (h *Handler) GenerateQR(c *gin.Context) {
	var req generateQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "courseId is required."})
		return
	}
	principal, _ := auth.Principal(c)

	tok, err := h.issuer.IssueAs(c.Request.Context(), req.CourseID, principal.Subject)
	switch {
	case err == nil:
		metrics.TokensIssued.Inc()
		c.JSON(http.StatusOK, gin.H{"qrCodeData": tok})
	case errors.Is(err, qr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Course not found."})
	case errors.Is(err, qr.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"message": "You do not teach this course."})
	default:
		h.serverError(c, err, "issue qr token")
	}
}

// ---------- Courses ----------

// Timetable lists every course.
func (h *Handler) Timetable(c *gin.Context) {
	courses, err := h.courses.List(c.Request.Context())
	if err != nil {
		h.serverError(c, err, "list courses")
		return
	}
	c.JSON(http.StatusOK, nonNil(courses))
}

// LecturerCourses lists the courses taught by the authenticated lecturer.
func (h *Handler) LecturerCourses(c *gin.Context) {
	principal, _ := auth.Principal(c)
	courses, err := h.courses.ListByLecturer(c.Request.Context(), principal.Subject)
	if err != nil {
		h.serverError(c, err, "list lecturer courses")
		return
	}
	c.JSON(http.StatusOK, nonNil(courses))
}

// CourseAttendance lists a day's records for a course the lecturer owns.
func (h *Handler) CourseAttendance(c *gin.Context) {
	crs, ok := h.ownedCourse(c)
	if !ok {
		return
	}
	day, ok := h.dayParam(c)
	if !ok {
		return
	}
	limit, offset := paging(c)
	records, err := h.ledger.List(c.Request.Context(), ledger.Filter{CourseID: crs.CourseID, Day: day.Key(), Limit: limit, Offset: offset})
	if err != nil {
		h.serverError(c, err, "list course attendance")
		return
	}
	c.JSON(http.StatusOK, gin.H{"courseId": crs.CourseID, "day": day.Key(), "records": nonNil(records)})
}

// PresentCount returns the live number of students marked present.
func (h *Handler) PresentCount(c *gin.Context) {
	if h.roster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Live roster not configured."})
		return
	}
	crs, ok := h.ownedCourse(c)
	if !ok {
		return
	}
	day, ok := h.dayParam(c)
	if !ok {
		return
	}
	n, err := h.roster.Count(c.Request.Context(), crs.CourseID, day.Key())
	if err != nil {
		h.serverError(c, err, "count present students")
		return
	}
	c.JSON(http.StatusOK, gin.H{"courseId": crs.CourseID, "day": day.Key(), "present": n})
}

func (h *Handler) ownedCourse(c *gin.Context) (course.Course, bool) {
	principal, _ := auth.Principal(c)
	crs, err := h.courses.FindByCourseID(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Course not found."})
		} else {
			h.serverError(c, err, "resolve course")
		}
		return course.Course{}, false
	}
	if crs.LecturerID != principal.Subject {
		c.JSON(http.StatusForbidden, gin.H{"message": "You do not teach this course."})
		return course.Course{}, false
	}
	return crs, true
}

func (h *Handler) dayParam(c *gin.Context) (ledger.Day, bool) {
	v := c.Query("day")
	if v == "" {
		return ledger.DayOf(h.now(), h.loc), true
	}
	day, err := ledger.ParseDay(v, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "day must be YYYY-MM-DD."})
		return ledger.Day{}, false
	}
	return day, true
}

func (h *Handler) serverError(c *gin.Context, err error, op string) {
	logger.Error().Err(err).Str("op", op).Msg("request failed")
	c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Server error"})
}

func paging(c *gin.Context) (limit, offset int) {
	limit, offset = 50, 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	return limit, offset
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
