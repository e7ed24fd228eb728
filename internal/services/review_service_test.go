// internal/services/review_service_test.go
package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/ShriviCTO/shrivi/internal/apperrors"
	"github.com/ShriviCTO/shrivi/internal/models"
	"github.com/ShriviCTO/shrivi/internal/utils"
)

type ReviewServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	svc     *ReviewService
	product *models.Product
}

func (s *ReviewServiceTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	s.svc = NewReviewService(s.db)

	inventory := NewInventoryService(s.db, newTestStorage(s.T()), nil, newTestConfig())
	s.product = createTestProduct(s.T(), inventory, "Groundnut Oil")
}

func TestReviewServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReviewServiceTestSuite))
}

func (s *ReviewServiceTestSuite) submitRating(rating int) *models.Review {
	user := createTestUser(s.T(), s.db,
		fmt.Sprintf("customer-%s@example.com", uuid.New().String()[:8]), models.RoleCustomer)
	review, err := s.svc.SubmitReview(s.product.ID, user.ID, &SubmitReviewRequest{Rating: &rating})
	s.Require().NoError(err)
	return review
}

func (s *ReviewServiceTestSuite) productRating() float64 {
	var product models.Product
	s.Require().NoError(s.db.First(&product, "id = ?", s.product.ID).Error)
	return product.AverageRating
}

func (s *ReviewServiceTestSuite) TestAverageConvergesOverSubmissions() {
	for _, rating := range []int{5, 4, 5, 3, 5} {
		s.submitRating(rating)
	}
	s.InDelta(4.4, s.productRating(), 0.0001)
}

func (s *ReviewServiceTestSuite) TestAverageConvergesUnderConcurrentSubmissions() {
	ratings := []int{5, 4, 5, 3, 5}
	users := make([]*models.User, len(ratings))
	for i := range ratings {
		users[i] = createTestUser(s.T(), s.db,
			fmt.Sprintf("customer-%s@example.com", uuid.New().String()[:8]), models.RoleCustomer)
	}

	// Each submission recomputes the aggregate inside its own transaction
	// with the product row held, so interleaved writers cannot settle on a
	// stale average.
	var wg sync.WaitGroup
	errs := make([]error, len(ratings))
	for i, rating := range ratings {
		wg.Add(1)
		go func(i, rating int) {
			defer wg.Done()
			r := rating
			_, errs[i] = s.svc.SubmitReview(s.product.ID, users[i].ID, &SubmitReviewRequest{Rating: &r})
		}(i, rating)
	}
	wg.Wait()

	for _, err := range errs {
		s.Require().NoError(err)
	}
	s.InDelta(4.4, s.productRating(), 0.0001)
}

func (s *ReviewServiceTestSuite) TestAverageAfterDeletion() {
	var toDelete *models.Review
	for _, rating := range []int{5, 4, 5, 3, 5} {
		review := s.submitRating(rating)
		if rating == 3 {
			toDelete = review
		}
	}

	s.Require().NoError(s.svc.DeleteReview(toDelete.ID, toDelete.UserID, models.RoleCustomer))
	s.InDelta(4.75, s.productRating(), 0.0001)
}

func (s *ReviewServiceTestSuite) TestCommentOnlyReviewDoesNotMoveAverage() {
	s.submitRating(4)

	user := createTestUser(s.T(), s.db, "commenter@example.com", models.RoleCustomer)
	_, err := s.svc.SubmitReview(s.product.ID, user.ID, &SubmitReviewRequest{
		Comment: "Arrived quickly, smells great.",
	})
	s.Require().NoError(err)

	s.InDelta(4.0, s.productRating(), 0.0001)
}

func (s *ReviewServiceTestSuite) TestNoRatedReviewsMeansZero() {
	review := s.submitRating(5)
	s.Require().NoError(s.svc.DeleteReview(review.ID, review.UserID, models.RoleCustomer))
	s.Zero(s.productRating())
}

func (s *ReviewServiceTestSuite) TestEmptyReviewRejected() {
	user := createTestUser(s.T(), s.db, "empty@example.com", models.RoleCustomer)
	_, err := s.svc.SubmitReview(s.product.ID, user.ID, &SubmitReviewRequest{})
	s.True(apperrors.IsKind(err, apperrors.KindValidation))
}

func (s *ReviewServiceTestSuite) TestRatingBounds() {
	user := createTestUser(s.T(), s.db, "bounds@example.com", models.RoleCustomer)
	six := 6
	_, err := s.svc.SubmitReview(s.product.ID, user.ID, &SubmitReviewRequest{Rating: &six})
	s.True(apperrors.IsKind(err, apperrors.KindValidation))
}

func (s *ReviewServiceTestSuite) TestUpdateMovesAverage() {
	review := s.submitRating(2)

	five := 5
	updated, err := s.svc.UpdateReview(review.ID, review.UserID, &UpdateReviewRequest{Rating: &five})
	s.Require().NoError(err)
	s.Require().NotNil(updated.Rating)
	s.Equal(5, *updated.Rating)
	s.InDelta(5.0, s.productRating(), 0.0001)
}

func (s *ReviewServiceTestSuite) TestOnlyAuthorCanUpdate() {
	review := s.submitRating(4)
	other := createTestUser(s.T(), s.db, "other@example.com", models.RoleCustomer)

	one := 1
	_, err := s.svc.UpdateReview(review.ID, other.ID, &UpdateReviewRequest{Rating: &one})
	s.True(apperrors.IsKind(err, apperrors.KindForbidden))
}

func (s *ReviewServiceTestSuite) TestFounderCanDeleteAnyReview() {
	review := s.submitRating(4)
	founder := createTestUser(s.T(), s.db, "founder@shrivi.in", models.RoleFounder)

	s.NoError(s.svc.DeleteReview(review.ID, founder.ID, models.RoleFounder))
}

func (s *ReviewServiceTestSuite) TestCustomerCannotDeleteOthersReview() {
	review := s.submitRating(4)
	other := createTestUser(s.T(), s.db, "other@example.com", models.RoleCustomer)

	err := s.svc.DeleteReview(review.ID, other.ID, models.RoleCustomer)
	s.True(apperrors.IsKind(err, apperrors.KindForbidden))
}

func (s *ReviewServiceTestSuite) TestSubmitToUnknownProduct() {
	user := createTestUser(s.T(), s.db, "ghost@example.com", models.RoleCustomer)
	four := 4
	_, err := s.svc.SubmitReview(uuid.New(), user.ID, &SubmitReviewRequest{Rating: &four})
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *ReviewServiceTestSuite) TestListReviewsUnknownProduct() {
	_, _, err := s.svc.ListProductReviews(uuid.New(), utils.PaginationParams{Page: 1, Limit: 20})
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *ReviewServiceTestSuite) TestListReviewsNewestFirst() {
	s.submitRating(3)
	s.submitRating(5)

	reviews, total, err := s.svc.ListProductReviews(s.product.ID, utils.PaginationParams{Page: 1, Limit: 20})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(reviews, 2)
}
