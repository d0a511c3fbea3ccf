// Package suggestions provides the REST handlers for browsing suggestions
// and editing their package and maintainer sets.
package suggestions

import (
	"strconv"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/gofiber/fiber/v2"

	"github.com/tweag/nix-security-tracker/database"
	"github.com/tweag/nix-security-tracker/internal/services"
	"github.com/tweag/nix-security-tracker/model"
	"github.com/tweag/nix-security-tracker/util"
)

// SuggestionView is the API shape of a suggestion with its cached summary.
// Payload is nil for suggestions whose cache was skipped or not built yet.
type SuggestionView struct {
	Key       string                   `json:"key"`
	CveID     string                   `json:"cve_id"`
	Status    model.SuggestionStatus   `json:"status"`
	CreatedAt string                   `json:"created_at"`
	UpdatedAt string                   `json:"updated_at"`
	Payload   *model.SuggestionPayload `json:"payload,omitempty"`
}

const listQuery = `
	FOR s IN suggestion
		FILTER @status == null OR s.status == @status
		SORT s.created_at DESC
		LIMIT @limit
		LET c = DOCUMENT('cached_suggestion', s._key)
		RETURN {
			key: s._key,
			cve_id: s.cve_id,
			status: s.status,
			created_at: s.created_at,
			updated_at: s.updated_at,
			payload: c == null ? null : c.payload
		}
`

const getQuery = `
	FOR s IN suggestion
		FILTER s.cve_id == @cveID
		LIMIT 1
		LET c = DOCUMENT('cached_suggestion', s._key)
		RETURN {
			key: s._key,
			cve_id: s.cve_id,
			status: s.status,
			created_at: s.created_at,
			updated_at: s.updated_at,
			payload: c == null ? null : c.payload
		}
`

// ListSuggestions returns suggestions newest-first, filtered by status.
// Defaults to pending, ?status=all lists every triage state.
func ListSuggestions(db database.DBConnection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 100)
		if limit < 1 || limit > 1000 {
			limit = 100
		}
		var status interface{} = string(model.SuggestionPending)
		if q := c.Query("status"); util.IsNotEmpty(q) {
			if q == "all" {
				status = nil
			} else {
				status = q
			}
		}

		cursor, err := db.Database.Query(c.Context(), listQuery, &arangodb.QueryOptions{
			BindVars: map[string]interface{}{
				"status": status,
				"limit":  limit,
			},
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		defer cursor.Close()

		views := []SuggestionView{}
		for cursor.HasMore() {
			var view SuggestionView
			if _, err := cursor.ReadDocument(c.Context(), &view); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
			}
			views = append(views, view)
		}
		return c.JSON(views)
	}
}

// GetSuggestion returns one suggestion by CVE id.
func GetSuggestion(db database.DBConnection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cveID := c.Params("cveid")

		cursor, err := db.Database.Query(c.Context(), getQuery, &arangodb.QueryOptions{
			BindVars: map[string]interface{}{
				"cveID": cveID,
			},
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		defer cursor.Close()

		if !cursor.HasMore() {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no suggestion for " + cveID})
		}
		var view SuggestionView
		if _, err := cursor.ReadDocument(c.Context(), &view); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(view)
	}
}

// IgnorePackage records a remove edit for a package attribute.
func IgnorePackage(svc *services.EditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("key")
		attribute := c.Params("attribute")
		if err := svc.IgnorePackage(c.Context(), key, attribute); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// RestorePackage drops the remove edit of a package attribute.
func RestorePackage(svc *services.EditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("key")
		attribute := c.Params("attribute")
		if err := svc.RestorePackage(c.Context(), key, attribute); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// AddMaintainer records an add edit for a maintainer.
func AddMaintainer(svc *services.EditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("key")
		var maintainer model.Maintainer
		if err := c.BodyParser(&maintainer); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := svc.AddMaintainer(c.Context(), key, maintainer); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// IgnoreMaintainer removes a maintainer from the suggestion.
func IgnoreMaintainer(svc *services.EditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("key")
		githubID, err := strconv.ParseInt(c.Params("githubid"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid github id"})
		}
		if err := svc.IgnoreMaintainer(c.Context(), key, githubID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// RestoreMaintainer drops the remove edit of a maintainer.
func RestoreMaintainer(svc *services.EditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("key")
		githubID, err := strconv.ParseInt(c.Params("githubid"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid github id"})
		}
		if err := svc.RestoreMaintainer(c.Context(), key, githubID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true})
	}
}
