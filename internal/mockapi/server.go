// Package mockapi serves the finance REST contract from fixtures so the
// dashboard can run without a real backend.
package mockapi

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"moneyflow/internal/core"
	"moneyflow/internal/log"
	"moneyflow/internal/ports"
	"moneyflow/internal/sources/memory"
)

//go:embed fixtures/*.json
var fixturesFS embed.FS

const errNoFixture = "no fixture for this endpoint"

// Fixtures returns the embedded fixture files rooted at their directory.
func Fixtures() fs.FS {
	sub, err := fs.Sub(fixturesFS, "fixtures")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewFixtureSource returns a fresh in-memory source seeded from the
// embedded fixtures.
func NewFixtureSource() (*memory.Store, error) {
	return memory.NewFromFS(Fixtures())
}

type Options struct {
	AllowedOrigins []string
	Logger         *log.Logger
}

type handler struct {
	source ports.Source
	logger *log.Logger
}

// NewRouter exposes source under /api.
func NewRouter(source ports.Source, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	logger := opts.Logger.WithComponent(log.ComponentMock)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(opts.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	}
	router.Use(cors.New(corsConfig))

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Mock request",
			log.FieldMethod, c.Request.Method,
			log.FieldPath, c.Request.URL.Path,
			log.FieldStatusCode, c.Writer.Status(),
			log.FieldDuration, time.Since(start).Milliseconds())
	})

	h := &handler{source: source, logger: logger}

	api := router.Group("/api")
	{
		api.GET("/categories", h.listCategories)
		api.POST("/categories", h.createCategory)
		api.PUT("/categories/:id", h.updateCategory)
		api.DELETE("/categories/:id", h.deleteCategory)

		api.GET("/transactions", h.listTransactions)
		api.POST("/transactions", h.createTransaction)
		api.PUT("/transactions/:id", h.updateTransaction)
		api.DELETE("/transactions/:id", h.deleteTransaction)

		api.GET("/recurring-expenses", h.listRecurring)
		api.POST("/recurring-expenses", h.createRecurring)
		api.DELETE("/recurring-expenses/:id", h.deleteRecurring)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": errNoFixture})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}

func (h *handler) listCategories(c *gin.Context) {
	out, err := h.source.ListCategories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) createCategory(c *gin.Context) {
	var in core.Category
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.source.CreateCategory(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *handler) updateCategory(c *gin.Context) {
	var in core.Category
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.ID = c.Param("id")
	out, err := h.source.UpdateCategory(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) deleteCategory(c *gin.Context) {
	if err := h.source.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listTransactions(c *gin.Context) {
	out, err := h.source.ListTransactions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) createTransaction(c *gin.Context) {
	var in core.Transaction
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.source.CreateTransaction(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *handler) updateTransaction(c *gin.Context) {
	var in core.Transaction
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.ID = c.Param("id")
	out, err := h.source.UpdateTransaction(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) deleteTransaction(c *gin.Context) {
	if err := h.source.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listRecurring(c *gin.Context) {
	month := c.Query("month")
	if _, ok := core.ParseMonthKey(month); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be YYYY-MM"})
		return
	}
	out, err := h.source.ListRecurringExpensesForMonth(c.Request.Context(), month)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) createRecurring(c *gin.Context) {
	var in core.RecurringExpense
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.source.CreateRecurringExpense(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *handler) deleteRecurring(c *gin.Context) {
	if err := h.source.DeleteRecurringExpense(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case core.IsValidation(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.ErrorContext(c.Request.Context(), "Mock source failed",
			log.FieldPath, c.Request.URL.Path,
			log.FieldError, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
