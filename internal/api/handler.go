package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/export"
	"github.com/manav03panchal/timeblock/internal/logging"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/output"
	"github.com/manav03panchal/timeblock/internal/parser"
)

// BlockStore is the part of the block store the API serves.
type BlockStore interface {
	List() []*model.TimeBlock
	Find(ref string) (*model.TimeBlock, error)
	Create(ctx context.Context, label string, t model.TimeOfDay, days model.WeekdaySet) (*model.TimeBlock, error)
	Edit(ctx context.Context, id, label string, t model.TimeOfDay, days model.WeekdaySet) (*model.TimeBlock, error)
	Delete(ctx context.Context, id string) error
}

// maxAgendaDays bounds the agenda window.
const maxAgendaDays = 62

// BlockRequest is the body of create and edit requests.
type BlockRequest struct {
	Label string   `json:"label"`
	Time  string   `json:"time"`
	Days  []string `json:"days"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Blocks int    `json:"blocks"`
	Time   string `json:"time"`
}

// BlockHandler serves block endpoints.
type BlockHandler struct {
	store    BlockStore
	logger   *slog.Logger
	now      func() time.Time
	calendar string
}

// NewBlockHandler creates a new BlockHandler.
func NewBlockHandler(store BlockStore, logger *slog.Logger) *BlockHandler {
	return &BlockHandler{
		store:    store,
		logger:   logger,
		now:      time.Now,
		calendar: export.DefaultCalendarOptions().Name,
	}
}

// Health reports liveness and the number of blocks.
func (h *BlockHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
		Blocks: len(h.store.List()),
		Time:   h.now().Format(time.RFC3339),
	})
}

// List returns every block.
func (h *BlockHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, output.NewBlocksResponse(h.store.List(), h.now()))
}

// Get returns one block by id or unique id prefix.
func (h *BlockHandler) Get(c echo.Context) error {
	b, err := h.store.Find(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, output.NewBlockOutput(b, h.now()))
}

// Create arms and stores a new block. A block that was armed but could not
// be saved is still returned, with a warning.
func (h *BlockHandler) Create(c echo.Context) error {
	label, t, days, err := h.bind(c)
	if err != nil {
		return err
	}

	b, err := h.store.Create(c.Request().Context(), label, t, days)
	return h.respondBlock(c, "created", http.StatusCreated, b, err)
}

// Edit replaces a block with a new one.
func (h *BlockHandler) Edit(c echo.Context) error {
	existing, err := h.store.Find(c.Param("id"))
	if err != nil {
		return err
	}
	label, t, days, err := h.bind(c)
	if err != nil {
		return err
	}

	b, err := h.store.Edit(c.Request().Context(), existing.ID, label, t, days)
	return h.respondBlock(c, "updated", http.StatusOK, b, err)
}

// Delete disarms and removes a block.
func (h *BlockHandler) Delete(c echo.Context) error {
	b, err := h.store.Find(c.Param("id"))
	if err != nil {
		return err
	}
	if err := h.store.Delete(c.Request().Context(), b.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Agenda lists occurrences in the next ?days= days (default 7).
func (h *BlockHandler) Agenda(c echo.Context) error {
	days := 7
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxAgendaDays {
			return errors.NewUserErrorWithField("days", v, "invalid agenda range",
				"Use a whole number of days between 1 and 62.")
		}
		days = n
	}

	from := h.now()
	to := from.AddDate(0, 0, days)
	entries, err := export.Upcoming(h.store.List(), from, to)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []export.Entry{}
	}
	return c.JSON(http.StatusOK, output.AgendaResponse{
		From:    from.Format(time.RFC3339),
		To:      to.Format(time.RFC3339),
		Entries: entries,
	})
}

// Calendar serves every block as an iCalendar feed.
func (h *BlockHandler) Calendar(c echo.Context) error {
	opts := export.DefaultCalendarOptions()
	opts.Name = h.calendar

	c.Response().Header().Set(echo.HeaderContentType, "text/calendar; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return export.WriteCalendar(c.Response(), h.store.List(), h.now(), opts)
}

func (h *BlockHandler) bind(c echo.Context) (string, model.TimeOfDay, model.WeekdaySet, error) {
	var req BlockRequest
	if err := c.Bind(&req); err != nil {
		return "", model.TimeOfDay{}, 0, errors.NewUserError("malformed request body",
			`Send JSON like {"label":"Stand-up","time":"09:30","days":["Mon","Wed"]}.`)
	}

	t, err := parser.ParseClockInput(req.Time, h.now())
	if err != nil {
		return "", model.TimeOfDay{}, 0, err
	}
	days, err := parser.ParseWeekdays(strings.Join(req.Days, ","))
	if err != nil {
		return "", model.TimeOfDay{}, 0, err
	}
	return strings.TrimSpace(req.Label), t, days, nil
}

func (h *BlockHandler) respondBlock(c echo.Context, status string, code int, b *model.TimeBlock, err error) error {
	if err != nil && (b == nil || !errors.IsStorageError(err)) {
		return err
	}
	resp := output.BlockResponse{Status: status, Block: output.NewBlockOutput(b, h.now())}
	if err != nil {
		h.logger.Warn("block changed but not saved", "status", status, logging.KeyError, err)
		resp.Warning = "reminders are armed but the change was not saved: " + err.Error()
	}
	return c.JSON(code, resp)
}
