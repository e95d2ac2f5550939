package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"

	"rollcall/internal/attendance"
	"rollcall/internal/creds"
	"rollcall/internal/roster"
)

// Handler wires the HTTP surface to the domain services.
type Handler struct {
	roster     *roster.Service
	attendance *attendance.Service
	creds      *creds.Store
}

// New creates a handler.
func New(r *roster.Service, a *attendance.Service, c *creds.Store) *Handler {
	return &Handler{roster: r, attendance: a, creds: c}
}

// RegisterRoutes mounts the API under g.
func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.GET("/session", h.Session)

	g.GET("/students", h.ListStudents)
	g.POST("/students", h.AddStudent)
	g.PUT("/students/:id", h.UpdateStudent)
	g.DELETE("/students/:id", h.DeleteStudent)

	g.POST("/attendance", h.RecordAttendance)
	g.POST("/attendance/finalize", h.FinalizeAttendance)
	g.GET("/reports/monthly", h.MonthlyReport)
}

// ---------- Credentials ----------

type loginRequest struct {
	APIKey   string `json:"api_key" binding:"required"`
	DeviceID string `json:"device_id" binding:"required"`
	Remember bool   `json:"remember"`
}

// Login stores the SMS gateway credential pair, last write wins.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "api_key and device_id are required"})
		return
	}
	pair := creds.Credentials{APIKey: strings.TrimSpace(req.APIKey), DeviceID: strings.TrimSpace(req.DeviceID)}
	if pair.APIKey == "" || pair.DeviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "api_key and device_id are required"})
		return
	}
	if err := h.creds.Save(c.Request.Context(), pair, req.Remember); err != nil {
		log.Printf("credential save failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged in"})
}

// Logout clears the remembered credential pair.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.creds.ClearCache(c.Request.Context()); err != nil {
		log.Printf("credential cache clear failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear session"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Session reports the remembered pair so the UI can skip the login page.
func (h *Handler) Session(c *gin.Context) {
	pair, ok, err := h.creds.Cached(c.Request.Context())
	if err != nil {
		log.Printf("credential cache read failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read session"})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"logged_in": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged_in": true, "api_key": pair.APIKey, "device_id": pair.DeviceID})
}

// ---------- Roster ----------

type studentRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.roster.List(c.Request.Context())
	if err != nil {
		log.Printf("list students failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load students"})
		return
	}
	if students == nil {
		students = []roster.Student{}
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) AddStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.roster.Add(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		h.rosterError(c, err, "failed to add student")
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) UpdateStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.roster.Update(c.Request.Context(), c.Param("id"), req.Name, req.Phone)
	if err != nil {
		h.rosterError(c, err, "failed to update student")
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	if err := h.roster.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.rosterError(c, err, "failed to delete student")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) rosterError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, roster.ErrNameRequired), errors.Is(err, roster.ErrPhoneRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, roster.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("%s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// ---------- Attendance ----------

type recordRequest struct {
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
	Date      string `json:"date"`
}

// RecordAttendance inserts one attendance row.
func (h *Handler) RecordAttendance(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.attendance.RecordOne(c.Request.Context(), req.StudentID, attendance.Status(req.Status), req.Date)
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrStudentRequired),
			errors.Is(err, attendance.ErrInvalidStatus),
			errors.Is(err, attendance.ErrInvalidDate),
			isConstraintViolation(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("record attendance failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record attendance"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attendance recorded", "record": rec})
}

type finalizeRequest struct {
	Marks map[string]attendance.Status `json:"marks"`
}

// FinalizeAttendance persists the day's decisions and queues absence
// notifications.
func (h *Handler) FinalizeAttendance(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.attendance.Finalize(c.Request.Context(), req.Marks)
	if err != nil {
		if errors.Is(err, attendance.ErrNothingToRecord) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("finalize failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store attendance"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// MonthlyReport renders the present/absent lists for a month label,
// defaulting to the current month.
func (h *Handler) MonthlyReport(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		month = time.Now().Month().String()
	}
	report, err := h.attendance.MonthlyReport(c.Request.Context(), month)
	if err != nil {
		log.Printf("monthly report failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	// class 23 covers integrity constraint violations
	return errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23")
}
