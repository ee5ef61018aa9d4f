package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/middleware"
	"github.com/BruksfildServices01/barber-agenda/internal/timezone"
)

const codeForbidden = "forbidden"

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	reader audit.Reader
	loc    *time.Location
}

func NewAuditLogsHandler(reader audit.Reader, tz string) *AuditLogsHandler {
	return &AuditLogsHandler{reader: reader, loc: timezone.Location(tz)}
}

// List is restricted to admins. from/to are YYYY-MM-DD days in the
// business timezone, both inclusive.
func (h *AuditLogsHandler) List(c *gin.Context) {
	if c.GetString(middleware.ContextUserRole) != RoleAdmin {
		httperr.Write(c, http.StatusForbidden, codeForbidden, "Admin role required")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(audit.DefaultLimit)))
	if limit <= 0 || limit > audit.MaxLimit {
		limit = audit.DefaultLimit
	}

	q := audit.Query{
		Action: c.Query("action"),
		Entity: c.Query("entity"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	// --------------------------------------------------
	// Optional date range
	// --------------------------------------------------

	if s := c.Query("from"); s != "" {
		from, err := timezone.ParseDate(s, h.loc)
		if err != nil {
			badRequest(c, "from must be formatted as YYYY-MM-DD")
			return
		}
		ms := from.UnixMilli()
		q.From = &ms
	}

	if s := c.Query("to"); s != "" {
		to, err := timezone.ParseDate(s, h.loc)
		if err != nil {
			badRequest(c, "to must be formatted as YYYY-MM-DD")
			return
		}
		ms := to.AddDate(0, 0, 1).UnixMilli() - 1
		q.To = &ms
	}

	logs, total, err := h.reader.ListAuditLogs(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":  page,
		"limit": limit,
		"total": total,
		"logs":  logs,
	})
}
