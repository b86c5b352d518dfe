// Operational HTTP handlers.
//
// This file exposes the unauthenticated service and database diagnostics:
//   - GET /                  (service identity)
//   - GET /health            (liveness)
//   - GET /db/health         (connection ping, table presence, row/index counts)
//   - GET /db/tables         (live column layout per table)
//   - GET /db/verify-schema  (expected vs actual columns per table)
//
// The /db/* endpoints introspect the live schema through the GORM migrator,
// so they report what the database actually contains rather than what the
// models declare. /db/health returns 503 when the connection fails or an
// expected table is missing; deployment probes key off that.
package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// expectedTables lists every table the application schema owns, in migration
// order. The diagnostics endpoints verify presence and column layout against
// this set.
var expectedTables = []string{
	"users",
	"conversations",
	"messages",
	"goals",
	"goal_check_ins",
	"message_feedback",
	"turn_receipts",
}

// expectedColumns maps each owned table to the columns the models declare.
var expectedColumns = map[string][]string{
	"users":            {"id", "email", "hashed_password", "user_name", "created_at"},
	"conversations":    {"id", "user_id", "session_id", "title", "created_at", "updated_at"},
	"messages":         {"id", "conversation_id", "role", "content", "keywords", "created_at"},
	"goals":            {"id", "user_id", "title", "description", "target_date", "status", "streak_count", "created_at", "updated_at"},
	"goal_check_ins":   {"id", "goal_id", "check_in_date", "progress_note", "completed"},
	"message_feedback": {"id", "message_id", "user_id", "value", "created_at"},
	"turn_receipts":    {"id", "user_id", "session_id", "key", "user_message_id", "assistant_message_id", "status", "created_at", "expires_at"},
}

// Root godoc
// @ID          root
// @Summary     Service identity
// @Description Returns the service name, version, and a short description.
// @Tags        Health
// @Produce     json
//
// @Success     200  {object}  map[string]any
// @Router      / [get]
func (h *Handlers) Root(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"service":     "Alari User Backend",
		"version":     h.version,
		"status":      "running",
		"description": "User authentication and data management",
	})
}

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Description Returns 200 as long as the process serves requests.
// @Tags        Health
// @Produce     json
//
// @Success     200  {object}  map[string]any
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"status": "healthy"})
}

// DBHealth godoc
// @ID          dbHealth
// @Summary     Database health
// @Description Verifies the database connection, expected-table presence, per-table row counts, and per-table index counts.
// @Tags        Health
// @Produce     json
//
// @Success     200  {object}  map[string]any
// @Failure     503  {object}  map[string]any  "Connection failed or tables missing"
// @Router      /db/health [get]
func (h *Handlers) DBHealth(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{}
	healthy := true

	// Check 1: connection round-trip.
	start := time.Now()
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		checks["connection"] = gin.H{"status": "error", "message": err.Error()}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC(),
			"checks":    checks,
			"error":     err.Error(),
		})
		return
	}
	checks["connection"] = gin.H{
		"status":           "ok",
		"response_time_ms": roundMillis(time.Since(start)),
	}

	// Check 2: expected tables exist.
	existing, err := h.db.WithContext(ctx).Migrator().GetTables()
	existing = filterInternal(existing)
	if err != nil {
		checks["tables"] = gin.H{"status": "error", "message": err.Error()}
		healthy = false
	} else {
		present := make(map[string]bool, len(existing))
		for _, t := range existing {
			present[t] = true
		}
		var missing []string
		for _, t := range expectedTables {
			if !present[t] {
				missing = append(missing, t)
			}
		}
		if len(missing) > 0 {
			checks["tables"] = gin.H{
				"status":          "error",
				"message":         fmt.Sprintf("Missing tables: %v", missing),
				"existing_tables": existing,
			}
			healthy = false
		} else {
			checks["tables"] = gin.H{
				"status": "ok",
				"count":  len(existing),
				"tables": existing,
			}
		}

		// Check 3: row counts per expected table.
		rowCounts := gin.H{}
		for _, t := range expectedTables {
			if !present[t] {
				continue
			}
			var n int64
			if err := h.db.WithContext(ctx).Table(t).Count(&n).Error; err == nil {
				rowCounts[t] = n
			}
		}
		checks["table_stats"] = gin.H{"status": "ok", "row_counts": rowCounts}

		// Check 4: index counts per expected table.
		indexCounts := gin.H{}
		for _, t := range expectedTables {
			if !present[t] {
				continue
			}
			if idx, err := h.db.WithContext(ctx).Migrator().GetIndexes(t); err == nil {
				indexCounts[t] = len(idx)
			}
		}
		checks["indexes"] = gin.H{"status": "ok", "index_counts": indexCounts}
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

// DBTables godoc
// @ID          dbTables
// @Summary     Database tables
// @Description Lists every table with its live column layout (name, type, nullability, default).
// @Tags        Health
// @Produce     json
//
// @Success     200  {object}  map[string]any
// @Failure     500  {object}  handlers.ErrorResponse  "Introspection failed"
// @Router      /db/tables [get]
func (h *Handlers) DBTables(c *gin.Context) {
	ctx := c.Request.Context()

	tables, err := h.db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list tables")
		return
	}
	tables = filterInternal(tables)

	tableInfo := gin.H{}
	for _, t := range tables {
		cts, err := h.db.WithContext(ctx).Migrator().ColumnTypes(t)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not inspect table "+t)
			return
		}
		cols := make([]gin.H, 0, len(cts))
		for _, ct := range cts {
			nullable, _ := ct.Nullable()
			var def any
			if d, has := ct.DefaultValue(); has && d != "" {
				def = d
			}
			cols = append(cols, gin.H{
				"name":     ct.Name(),
				"type":     strings.ToUpper(ct.DatabaseTypeName()),
				"nullable": nullable,
				"default":  def,
			})
		}
		tableInfo[t] = gin.H{"columns": cols, "column_count": len(cols)}
	}

	ok(c, http.StatusOK, gin.H{
		"total_tables": len(tables),
		"tables":       tableInfo,
	})
}

// VerifySchema godoc
// @ID          verifySchema
// @Summary     Verify database schema
// @Description Compares the live schema against the columns the models declare, reporting missing and unexpected columns per table.
// @Tags        Health
// @Produce     json
//
// @Success     200  {object}  map[string]any
// @Failure     500  {object}  handlers.ErrorResponse  "Introspection failed"
// @Router      /db/verify-schema [get]
func (h *Handlers) VerifySchema(c *gin.Context) {
	ctx := c.Request.Context()
	migrator := h.db.WithContext(ctx).Migrator()

	results := gin.H{}
	allValid := true

	for _, table := range expectedTables {
		expected := expectedColumns[table]

		if !migrator.HasTable(table) {
			results[table] = gin.H{"exists": false, "status": "missing"}
			allValid = false
			continue
		}

		cts, err := migrator.ColumnTypes(table)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not inspect table "+table)
			return
		}
		actual := make([]string, 0, len(cts))
		actualSet := make(map[string]bool, len(cts))
		for _, ct := range cts {
			actual = append(actual, ct.Name())
			actualSet[ct.Name()] = true
		}

		expectedSet := make(map[string]bool, len(expected))
		missing := []string{}
		for _, col := range expected {
			expectedSet[col] = true
			if !actualSet[col] {
				missing = append(missing, col)
			}
		}
		extra := []string{}
		for _, col := range actual {
			if !expectedSet[col] {
				extra = append(extra, col)
			}
		}

		status := "valid"
		if len(missing) > 0 || len(extra) > 0 {
			status = "invalid"
			allValid = false
		}
		results[table] = gin.H{
			"exists":          true,
			"status":          status,
			"missing_columns": missing,
			"extra_columns":   extra,
			"all_columns":     actual,
		}
	}

	ok(c, http.StatusOK, gin.H{
		"schema_valid": allValid,
		"tables":       results,
	})
}

// roundMillis converts a duration to milliseconds rounded to two decimals.
func roundMillis(d time.Duration) float64 {
	ms := float64(d.Nanoseconds()) / 1e6
	return math.Round(ms*100) / 100
}

// filterInternal drops driver-internal tables (sqlite_sequence and friends)
// from introspection results so diagnostics only report application tables.
func filterInternal(tables []string) []string {
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		if strings.HasPrefix(t, "sqlite_") {
			continue
		}
		out = append(out, t)
	}
	return out
}
