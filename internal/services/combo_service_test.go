// internal/services/combo_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/ShriviCTO/shrivi/internal/apperrors"
	"github.com/ShriviCTO/shrivi/internal/models"
	"github.com/ShriviCTO/shrivi/internal/utils"
)

type ComboServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	svc     *ComboService
	variant models.Variant
}

func (s *ComboServiceTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	s.svc = NewComboService(s.db)

	inventory := NewInventoryService(s.db, newTestStorage(s.T()), nil, newTestConfig())
	product := createTestProduct(s.T(), inventory, "Groundnut Oil")
	s.variant = product.Variants[0]
}

func TestComboServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ComboServiceTestSuite))
}

func (s *ComboServiceTestSuite) validComboRequest() *CreateComboRequest {
	return &CreateComboRequest{
		Name:        "Kitchen Starter",
		Description: "Two bottles of our most popular oil.",
		Price:       850,
		Items: []ComboItemInput{
			{VariantID: s.variant.ID, Quantity: 2},
		},
		Metadata: map[string]interface{}{"season": "festival"},
	}
}

func (s *ComboServiceTestSuite) createCombo(name string) *models.Combo {
	req := s.validComboRequest()
	req.Name = name
	combo, err := s.svc.CreateCombo(req)
	s.Require().NoError(err)
	return combo
}

func (s *ComboServiceTestSuite) TestCreateCombo() {
	combo, err := s.svc.CreateCombo(s.validComboRequest())
	s.Require().NoError(err)

	s.Equal(models.ComboStatusActive, combo.Status)
	s.Require().Len(combo.Items, 1)
	s.Equal(2, combo.Items[0].Quantity)
	s.Equal("festival", combo.Metadata["season"])
}

func (s *ComboServiceTestSuite) TestCreateComboUnknownVariant() {
	req := s.validComboRequest()
	req.Items = append(req.Items, ComboItemInput{VariantID: uuid.New(), Quantity: 1})

	_, err := s.svc.CreateCombo(req)
	s.Require().Error(err)
	s.True(apperrors.IsKind(err, apperrors.KindValidation))

	appErr := apperrors.AsError(err)
	s.Require().NotNil(appErr)
	s.Require().Len(appErr.Fields(), 1)
	s.Equal("items[1].variant_id", appErr.Fields()[0].Field)

	var count int64
	s.db.Model(&models.Combo{}).Count(&count)
	s.Zero(count)
}

func (s *ComboServiceTestSuite) TestCreateComboZeroQuantity() {
	req := s.validComboRequest()
	req.Items[0].Quantity = 0

	_, err := s.svc.CreateCombo(req)
	s.True(apperrors.IsKind(err, apperrors.KindValidation))
}

func (s *ComboServiceTestSuite) TestUpdateComboReplacesItems() {
	combo, err := s.svc.CreateCombo(s.validComboRequest())
	s.Require().NoError(err)

	updated, err := s.svc.UpdateCombo(combo.ID, &UpdateComboRequest{
		Items: []ComboItemInput{{VariantID: s.variant.ID, Quantity: 5}},
	})
	s.Require().NoError(err)
	s.Require().Len(updated.Items, 1)
	s.Equal(5, updated.Items[0].Quantity)
}

func (s *ComboServiceTestSuite) TestUpdateComboCannotSetDeletedStatus() {
	combo := s.createCombo("Starter Pack")

	_, err := s.svc.UpdateCombo(combo.ID, &UpdateComboRequest{Status: models.ComboStatusDeleted})
	s.Require().True(apperrors.IsKind(err, apperrors.KindValidation))

	got, err := s.svc.GetCombo(combo.ID)
	s.Require().NoError(err)
	s.NotEqual(models.ComboStatusDeleted, got.Status)
}

func (s *ComboServiceTestSuite) TestDeleteComboHidesIt() {
	combo, err := s.svc.CreateCombo(s.validComboRequest())
	s.Require().NoError(err)

	s.Require().NoError(s.svc.DeleteCombo(combo.ID))

	_, err = s.svc.GetCombo(combo.ID)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))

	combos, total, err := s.svc.ListCombos(utils.PaginationParams{Page: 1, Limit: 20}, nil)
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(combos)
}

func (s *ComboServiceTestSuite) TestComboDiscountHistory() {
	combo, err := s.svc.CreateCombo(s.validComboRequest())
	s.Require().NoError(err)
	admin := createTestUser(s.T(), s.db, "founder@shrivi.in", models.RoleFounder)

	start := time.Now()
	first := 10.0
	_, err = s.svc.SetComboDiscount(combo.ID, admin.ID, &DiscountRequest{
		Percentage: &first, StartDate: start, EndDate: start.Add(72 * time.Hour),
	})
	s.Require().NoError(err)

	second := 30.0
	updated, err := s.svc.SetComboDiscount(combo.ID, admin.ID, &DiscountRequest{
		Percentage: &second, StartDate: start, EndDate: start.Add(72 * time.Hour),
	})
	s.Require().NoError(err)

	s.Equal(30.0, *updated.Discount.Percentage)
	s.Require().Len(updated.DiscountHistory, 1)
	s.Equal(10.0, updated.DiscountHistory[0].Percentage)
}

func (s *ComboServiceTestSuite) TestComboLifecycleIndependentOfProduct() {
	combo, err := s.svc.CreateCombo(s.validComboRequest())
	s.Require().NoError(err)

	// Archiving the underlying product does not touch the combo.
	s.Require().NoError(
		s.db.Model(&models.Product{}).Where("id = ?", s.variant.ProductID).
			Update("status", models.ProductStatusArchived).Error)

	fetched, err := s.svc.GetCombo(combo.ID)
	s.Require().NoError(err)
	s.Equal(models.ComboStatusActive, fetched.Status)
}
