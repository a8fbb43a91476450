package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mondaychat/monday/internal/services"
)

// Summarize compacts a batch of entries plus an optional prior summary
// into a new rolling summary. An entirely empty input is a client
// error; no LLM call is made for it.
func Summarize(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			SID         string            `json:"sid"`
			Items       []json.RawMessage `json:"items"`
			PrevSummary string            `json:"prev_summary"`
			Lang        string            `json:"lang"`
			MaxChars    int               `json:"max_chars"`
		}
		if err := c.BodyParser(&req); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid request body")
		}

		summary, err := svc.Summary.Summarize(c.Context(), services.SummarizeRequest{
			SID:         req.SID,
			Items:       req.Items,
			PrevSummary: req.PrevSummary,
			Lang:        req.Lang,
			MaxChars:    req.MaxChars,
		})
		if err != nil {
			if errors.Is(err, services.ErrNothingToSummarize) {
				return jsonError(c, fiber.StatusBadRequest, err.Error())
			}
			return jsonError(c, fiber.StatusInternalServerError, err.Error())
		}

		return c.JSON(fiber.Map{
			"ok":      true,
			"summary": summary,
		})
	}
}
