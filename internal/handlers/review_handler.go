package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"dealdesk/internal/database"
	"dealdesk/internal/models"
)

type CreateReviewRequest struct {
	DealID     uint   `json:"deal_id" validate:"required"`
	RevieweeID uint   `json:"reviewee_id" validate:"required"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment"`
}

// CreateReview attaches a review to a completed deal. Reviews are the only
// mutation allowed on a completed deal.
func CreateReview(c *fiber.Ctx) error {
	req := new(CreateReviewRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Rating < 1 || req.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Rating must be between 1 and 5",
		})
	}

	userID := c.Locals("user_id").(uint)
	username := c.Locals("username").(string)

	var deal models.Deal
	if err := database.DB.First(&deal, req.DealID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Deal not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	if !deal.IsParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only deal participants can leave a review",
		})
	}
	if !deal.IsCompleted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Reviews can only be left on completed deals",
		})
	}

	var existing models.Review
	if err := database.DB.Where("deal_id = ? AND reviewer_id = ?", req.DealID, userID).
		First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "You have already reviewed this deal",
		})
	}

	review := models.Review{
		DealID:           req.DealID,
		ReviewerID:       userID,
		ReviewerUsername: username,
		RevieweeID:       req.RevieweeID,
		Rating:           req.Rating,
		Comment:          req.Comment,
	}
	if err := database.DB.Create(&review).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create review",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Review submitted successfully",
		"review":  review,
	})
}

// GetUserReviews lists reviews received by a user.
func GetUserReviews(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	var reviews []models.Review
	if err := database.DB.Where("reviewee_id = ?", userID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve reviews",
		})
	}

	return c.JSON(fiber.Map{
		"reviews": reviews,
		"count":   len(reviews),
	})
}
