package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/solrise/questforge/questforge/database/repositories"
	"github.com/solrise/questforge/questforge/progression"
	"github.com/solrise/questforge/questforge/utils"
)

// WebApp bundles everything the HTTP layer needs.
type WebApp struct {
	Engine        *progression.Service
	DefaultUserID int64
	Version       string
	Commit        string
}

func HealthCheck(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, fiber.Map{
			"status":  "healthy",
			"version": app.Version,
			"commit":  app.Commit,
		}, "Health check successful")
	}
}

// UserStatus returns the progression summary for a user.
func UserStatus(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := int64(c.QueryInt("user_id", int(app.DefaultUserID)))

		status, err := app.Engine.UserStatus(c.Context(), userID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return utils.SendNotFound(c, "User not found")
			}
			slog.Error("Failed to fetch user status", slog.Any("error", err))
			return utils.SendInternalServerError(c, "Failed to fetch user status")
		}

		return utils.SendJSON(c, fiber.StatusOK, status)
	}
}

func UserCreate(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := app.Engine.CreateUser(c.Context())
		if err != nil {
			slog.Error("Failed to create user", slog.Any("error", err))
			return utils.SendInternalServerError(c, "Failed to create user")
		}

		slog.Info("User created", slog.Int64("user_id", user.ID))
		return utils.SendCreated(c, user, "User created successfully")
	}
}

// UserHistory lists the user's completed quests, newest date first.
func UserHistory(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := int64(c.QueryInt("user_id", int(app.DefaultUserID)))

		history, err := app.Engine.History(c.Context(), userID)
		if err != nil {
			slog.Error("Failed to fetch completion history", slog.Any("error", err))
			return utils.SendInternalServerError(c, "Failed to fetch completion history")
		}

		return utils.SendJSON(c, fiber.StatusOK, history)
	}
}

// QuestsToday lists today's outstanding quests for a user.
func QuestsToday(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := int64(c.QueryInt("user_id", int(app.DefaultUserID)))
		skip := c.QueryInt("skip", 0)
		limit := c.QueryInt("limit", 100)

		quests, err := app.Engine.TodayQuests(c.Context(), userID, skip, limit)
		if err != nil {
			slog.Error("Failed to fetch today's quests", slog.Any("error", err))
			return utils.SendInternalServerError(c, "Failed to fetch quests")
		}

		return utils.SendJSON(c, fiber.StatusOK, quests)
	}
}

// QuestsAll is the admin listing of every quest, newest first.
func QuestsAll(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		skip := c.QueryInt("skip", 0)
		limit := c.QueryInt("limit", 100)

		quests, err := app.Engine.AllQuests(c.Context(), skip, limit)
		if err != nil {
			slog.Error("Failed to fetch quests", slog.Any("error", err))
			return utils.SendInternalServerError(c, "Failed to fetch quests")
		}

		return utils.SendJSON(c, fiber.StatusOK, quests)
	}
}

func QuestCreate(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input progression.QuestInput
		if err := c.BodyParser(&input); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", map[string]string{
				"error": err.Error(),
			})
		}

		quest, err := app.Engine.CreateQuest(c.Context(), input)
		if err != nil {
			if errors.Is(err, progression.ErrInvalidInput) {
				return utils.SendBadRequest(c, err.Error(), nil)
			}
			slog.Error("Failed to create quest", slog.Any("error", err))
			return utils.SendInternalServerError(c, "Failed to create quest")
		}

		slog.Info("Quest created",
			slog.Int64("quest_id", quest.ID),
			slog.String("name", quest.Name))
		return utils.SendCreated(c, quest, "Quest created successfully")
	}
}

func QuestDelete(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		questID, err := c.ParamsInt("id")
		if err != nil {
			return utils.SendBadRequest(c, "Invalid quest id", nil)
		}

		if err := app.Engine.DeleteQuest(c.Context(), int64(questID)); err != nil {
			if repositories.IsNotFound(err) {
				return utils.SendNotFound(c, "Quest not found")
			}
			slog.Error("Failed to delete quest", slog.Any("error", err))
			return utils.SendInternalServerError(c, "Failed to delete quest")
		}

		return utils.SendSuccess(c, nil, "Quest deleted successfully")
	}
}

// QuestsAssignToday triggers the daily assignment run for a user.
func QuestsAssignToday(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := int64(c.QueryInt("user_id", int(app.DefaultUserID)))

		res, err := app.Engine.AssignDailyQuests(c.Context(), userID)
		if err != nil {
			slog.Error("Failed to assign daily quests", slog.Any("error", err))
			return utils.SendInternalServerError(c, "Failed to assign daily quests")
		}

		if res.AlreadyAssigned {
			return utils.SendSuccess(c, nil, "Quests already assigned for today.")
		}
		return utils.SendSuccess(c, fiber.Map{"assigned_count": res.AssignedCount},
			fmt.Sprintf("Assigned %d quests for today.", res.AssignedCount))
	}
}

// QuestAssignManually adds a single quest to today's set.
func QuestAssignManually(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		questID, err := c.ParamsInt("id")
		if err != nil {
			return utils.SendBadRequest(c, "Invalid quest id", nil)
		}
		userID := int64(c.QueryInt("user_id", int(app.DefaultUserID)))

		res, err := app.Engine.AssignQuest(c.Context(), userID, int64(questID))
		if err != nil {
			if repositories.IsNotFound(err) {
				return utils.SendNotFound(c, "Quest not found")
			}
			slog.Error("Failed to assign quest", slog.Any("error", err))
			return utils.SendInternalServerError(c, "Failed to assign quest")
		}

		if res.AlreadyAssigned {
			return utils.SendSuccess(c, nil, "Quest is already assigned for today.")
		}
		return utils.SendSuccess(c, nil, "Quest assigned to today's tasks.")
	}
}

// QuestComplete records a completion. Business-rule outcomes (not assigned,
// already completed) come back as informational 200s, not errors.
func QuestComplete(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		questID, err := c.ParamsInt("id")
		if err != nil {
			return utils.SendBadRequest(c, "Invalid quest id", nil)
		}
		userID := int64(c.QueryInt("user_id", int(app.DefaultUserID)))

		res, err := app.Engine.CompleteQuest(c.Context(), userID, int64(questID))
		if err != nil {
			switch {
			case errors.Is(err, progression.ErrNotAssigned):
				return utils.SendSuccess(c, nil, "Quest not assigned for today.")
			case errors.Is(err, progression.ErrAlreadyCompleted):
				return utils.SendSuccess(c, nil, "Quest already completed today.")
			case repositories.IsNotFound(err):
				return utils.SendNotFound(c, "User or Quest not found")
			default:
				slog.Error("Failed to complete quest", slog.Any("error", err))
				return utils.SendInternalServerError(c, "Failed to complete quest")
			}
		}

		return utils.SendSuccess(c, fiber.Map{
			"exp_gained": res.ExpGained,
			"level":      res.Level,
			"exp":        res.Exp,
		}, fmt.Sprintf("Quest completed! +%d EXP", res.ExpGained))
	}
}
