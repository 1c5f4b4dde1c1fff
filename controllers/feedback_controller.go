package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/moviecatalog/dto"
	"github.com/princinho/moviecatalog/middleware"
	"github.com/princinho/moviecatalog/services"
)

type Feedback interface {
	Submit(ctx context.Context, movieID, userID string, rating float64, review string) (*services.FeedbackResult, error)
	Update(ctx context.Context, movieID, userID string, rating float64, review string) (*services.FeedbackResult, error)
	List(ctx context.Context, movieID, viewerID string) (*services.FeedbackListing, error)
}

func feedbackResponse(message string, res *services.FeedbackResult) gin.H {
	return gin.H{
		"message":         message,
		"feedback":        res.Feedback,
		"overall_ratings": res.Summary.Average,
		"rating_count":    res.Summary.Count,
	}
}

func SubmitFeedback(feedback Feedback) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.FeedbackDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			bindError(c, err)
			return
		}

		res, err := feedback.Submit(c.Request.Context(), c.Param("id"), middleware.UserID(c), *body.UserRating, body.UserReview)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, feedbackResponse("Feedback submitted successfully", res))
	}
}

func UpdateFeedback(feedback Feedback) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.FeedbackDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			bindError(c, err)
			return
		}

		res, err := feedback.Update(c.Request.Context(), c.Param("id"), middleware.UserID(c), *body.UserRating, body.UserReview)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, feedbackResponse("Feedback updated successfully", res))
	}
}

// ListFeedback returns the caller's own review under user_reviews ({} when
// anonymous or absent) and every review under public_reviews.
func ListFeedback(feedback Feedback) gin.HandlerFunc {
	return func(c *gin.Context) {
		listing, err := feedback.List(c.Request.Context(), c.Param("id"), middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}

		own := gin.H{}
		if listing.Own != nil {
			own = gin.H{"userRating": listing.Own.Rating, "userReview": listing.Own.Review}
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"user_reviews":   own,
			"public_reviews": listing.Public,
		}})
	}
}
