// Package web provides the HTTP API of the web monitor.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/dukex/webmonitor/pkg/auth"
	"github.com/dukex/webmonitor/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/xeipuuv/gojsonschema"
)

type APIHandlers struct {
	websites      *services.Websites
	schedule      *services.Schedule
	screenshots   *services.Screenshots
	runs          *services.Runs
	authenticator *auth.Authenticator
	validator     *validator.Validate
	scheduleBody  *gojsonschema.Schema
	scheduleEntry *gojsonschema.Schema
}

func NewAPIHandlers(
	websites *services.Websites,
	schedule *services.Schedule,
	screenshots *services.Screenshots,
	runs *services.Runs,
	authenticator *auth.Authenticator,
	validator *validator.Validate,
) *APIHandlers {
	scheduleBody, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(scheduleBodySchema))
	if err != nil {
		panic(err)
	}

	scheduleEntry, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(scheduleEntrySchema()))
	if err != nil {
		panic(err)
	}

	return &APIHandlers{
		websites:      websites,
		schedule:      schedule,
		screenshots:   screenshots,
		runs:          runs,
		authenticator: authenticator,
		validator:     validator,
		scheduleBody:  scheduleBody,
		scheduleEntry: scheduleEntry,
	}
}

func (h *APIHandlers) Login(c fiber.Ctx) error {
	var req LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return unauthorized(c, "Invalid password")
	}

	token, err := h.authenticator.Login(c.Context(), req.Password)

	switch {
	case errors.Is(err, auth.ErrTooManyAttempts):
		return tooManyRequests(c, "Too many login attempts, try again later")
	case errors.Is(err, auth.ErrInvalidPassword):
		return unauthorized(c, "Invalid password")
	case err != nil:
		return internalError(c, err)
	}

	return c.JSON(LoginResponse{Success: true, Token: token})
}

func (h *APIHandlers) AuthStatus(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"authenticated": h.authenticator.Authenticated(c.Context(), c.Get(AuthTokenHeader)),
	})
}

func (h *APIHandlers) Logout(c fiber.Ctx) error {
	err := h.authenticator.Logout(c.Context(), c.Get(AuthTokenHeader))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.websites.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "ok"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"triggers":  len(h.schedule.Triggers()),
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetWebsites(c fiber.Ctx) error {
	websites, err := h.websites.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(websites)
}

func (h *APIHandlers) AddWebsite(c fiber.Ctx) error {
	var req WebsiteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	websites, err := h.websites.Add(c.Context(), req.URL)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(WebsitesResponse{Message: "Website added", Websites: websites})
}

func (h *APIHandlers) ReplaceWebsites(c fiber.Ctx) error {
	var req ReplaceWebsitesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	websites, err := h.websites.Replace(c.Context(), req.Websites)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(WebsitesResponse{Message: "Websites replaced", Websites: websites})
}

// DeleteWebsite reads the URL from the JSON body, falling back to the url query parameter.
func (h *APIHandlers) DeleteWebsite(c fiber.Ctx) error {
	var req WebsiteRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if req.URL == "" {
		req.URL = c.Query("url")
	}

	websites, err := h.websites.Remove(c.Context(), req.URL)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(WebsitesResponse{Message: "Website removed", Websites: websites})
}

func (h *APIHandlers) GetScreenshotFolders(c fiber.Ctx) error {
	folders, err := h.screenshots.Folders(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(folders)
}

func (h *APIHandlers) GetScreenshots(c fiber.Ctx) error {
	artifacts, err := h.screenshots.List(c.Context(), c.Params("folder"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(artifacts)
}

func (h *APIHandlers) StartRun(c fiber.Ctx) error {
	response, err := h.runs.Start(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(response)
}

func (h *APIHandlers) GetLastRun(c fiber.Ctx) error {
	return c.JSON(h.runs.Status())
}

func (h *APIHandlers) GetSchedule(c fiber.Ctx) error {
	schedule, err := h.schedule.Get(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(schedule)
}

func (h *APIHandlers) UpdateSchedule(c fiber.Ctx) error {
	result, err := h.scheduleBody.Validate(gojsonschema.NewBytesLoader(c.Body()))
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if !result.Valid() {
		return badRequest(c, "Schedule must be an object")
	}

	var raw map[string]any
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	dropped := h.droppedScheduleKeys(raw)

	response, err := h.schedule.Update(c.Context(), raw)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ScheduleResponse{
		Message:                "Schedule updated",
		Dropped:                dropped,
		UpdateScheduleResponse: *response,
	})
}

// droppedScheduleKeys returns the keys of raw whose entry fails scheduleEntry.
func (h *APIHandlers) droppedScheduleKeys(raw map[string]any) []string {
	var dropped []string

	for key, value := range raw {
		result, err := h.scheduleEntry.Validate(gojsonschema.NewGoLoader(map[string]any{
			"weekday": key,
			"time":    value,
		}))
		if err != nil || !result.Valid() {
			dropped = append(dropped, key)
		}
	}

	sort.Strings(dropped)

	return dropped
}

func (h *APIHandlers) GetTriggers(c fiber.Ctx) error {
	return c.JSON(h.schedule.Triggers())
}
