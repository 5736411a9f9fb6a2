package services

import (
	"context"
	"strings"

	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateCategoryInput struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description" validate:"max=1000"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}

type UpdateCategoryInput struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	DisplayOrder *int    `json:"display_order" validate:"omitempty,gte=0"`
	Active       *bool   `json:"active"`
}

type CreateProductInput struct {
	CategoryID      uint            `json:"category_id" validate:"required"`
	Name            string          `json:"name" validate:"required,max=255"`
	Description     string          `json:"description" validate:"max=2000"`
	Price           decimal.Decimal `json:"price"`
	Type            string          `json:"type" validate:"required,oneof=food drink"`
	Featured        bool            `json:"featured"`
	PrepTimeMinutes int             `json:"prep_time_minutes" validate:"gte=0,lte=600"`
}

type UpdateProductInput struct {
	CategoryID      *uint            `json:"category_id"`
	Name            *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description     *string          `json:"description" validate:"omitempty,max=2000"`
	Price           *decimal.Decimal `json:"price"`
	Type            *string          `json:"type" validate:"omitempty,oneof=food drink"`
	Featured        *bool            `json:"featured"`
	PrepTimeMinutes *int             `json:"prep_time_minutes" validate:"omitempty,gte=0,lte=600"`
	Active          *bool            `json:"active"`
}

// MenuSection is one category of the public menu with its products.
type MenuSection struct {
	models.Category
	Products []models.Product `json:"products"`
}

type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListCategories returns the active categories sorted by display order.
func (s *CatalogService) ListCategories(ctx context.Context, tenantID uint) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("display_order asc, id asc").
		Find(&categories).Error
	if err != nil {
		return nil, utils.StorageError(err)
	}
	return categories, nil
}

func findTenantCategory(tx *gorm.DB, tenantID, categoryID uint) (*models.Category, error) {
	var category models.Category
	if err := tx.First(&category, categoryID).Error; err != nil {
		return nil, dbError(err, utils.ErrCategoryNotFound)
	}
	if category.TenantID != tenantID {
		return nil, utils.ErrForbidden
	}
	return &category, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, tenantID uint, in CreateCategoryInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	category := models.Category{
		TenantID:     tenantID,
		Name:         in.Name,
		Description:  in.Description,
		DisplayOrder: in.DisplayOrder,
		Active:       true,
	}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, utils.StorageError(err)
	}
	return &category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, tenantID, categoryID uint, in UpdateCategoryInput) (*models.Category, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	category, err := findTenantCategory(db, tenantID, categoryID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		category.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		category.Description = *in.Description
	}
	if in.DisplayOrder != nil {
		category.DisplayOrder = *in.DisplayOrder
	}
	if in.Active != nil {
		category.Active = *in.Active
	}
	if err := db.Save(category).Error; err != nil {
		return nil, utils.StorageError(err)
	}
	return category, nil
}

// DeactivateCategory hides the category; its products stay but drop off the menu.
func (s *CatalogService) DeactivateCategory(ctx context.Context, tenantID, categoryID uint) error {
	inactive := false
	_, err := s.UpdateCategory(ctx, tenantID, categoryID, UpdateCategoryInput{Active: &inactive})
	return err
}

// ListProducts returns the active products of active categories. A non-zero
// categoryID narrows the result to that category.
func (s *CatalogService) ListProducts(ctx context.Context, tenantID, categoryID uint) ([]models.Product, error) {
	q := s.db.WithContext(ctx).
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("categories.tenant_id = ? AND categories.active = ? AND products.active = ?", tenantID, true, true)
	if categoryID != 0 {
		q = q.Where("products.category_id = ?", categoryID)
	}

	var products []models.Product
	if err := q.Order("categories.display_order asc, products.name asc, products.id asc").Find(&products).Error; err != nil {
		return nil, utils.StorageError(err)
	}
	return products, nil
}

func findTenantProduct(tx *gorm.DB, tenantID, productID uint) (*models.Product, error) {
	var product models.Product
	if err := tx.Preload("Category").First(&product, productID).Error; err != nil {
		return nil, dbError(err, utils.ErrProductNotFound)
	}
	if product.Category == nil || product.Category.TenantID != tenantID {
		return nil, utils.ErrForbidden
	}
	return &product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, tenantID, productID uint) (*models.Product, error) {
	return findTenantProduct(s.db.WithContext(ctx), tenantID, productID)
}

func (s *CatalogService) CreateProduct(ctx context.Context, tenantID uint, in CreateProductInput) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !validPrice(in.Price) {
		return nil, utils.InvalidField("price", "must be greater than 0 with at most 2 decimals")
	}

	db := s.db.WithContext(ctx)
	if _, err := findTenantCategory(db, tenantID, in.CategoryID); err != nil {
		return nil, err
	}

	product := models.Product{
		CategoryID:      in.CategoryID,
		Name:            in.Name,
		Description:     in.Description,
		Price:           in.Price,
		Type:            in.Type,
		Featured:        in.Featured,
		PrepTimeMinutes: in.PrepTimeMinutes,
		Active:          true,
	}
	if err := db.Create(&product).Error; err != nil {
		return nil, utils.StorageError(err)
	}
	return &product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, tenantID, productID uint, in UpdateProductInput) (*models.Product, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Price != nil && !validPrice(*in.Price) {
		return nil, utils.InvalidField("price", "must be greater than 0 with at most 2 decimals")
	}

	db := s.db.WithContext(ctx)
	product, err := findTenantProduct(db, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if in.CategoryID != nil && *in.CategoryID != product.CategoryID {
		if _, err := findTenantCategory(db, tenantID, *in.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *in.CategoryID
	}
	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Type != nil {
		product.Type = *in.Type
	}
	if in.Featured != nil {
		product.Featured = *in.Featured
	}
	if in.PrepTimeMinutes != nil {
		product.PrepTimeMinutes = *in.PrepTimeMinutes
	}
	if in.Active != nil {
		product.Active = *in.Active
	}

	product.Category = nil
	if err := db.Save(product).Error; err != nil {
		return nil, utils.StorageError(err)
	}
	return product, nil
}

func (s *CatalogService) DeactivateProduct(ctx context.Context, tenantID, productID uint) error {
	inactive := false
	_, err := s.UpdateProduct(ctx, tenantID, productID, UpdateProductInput{Active: &inactive})
	return err
}

// PublicMenu groups the active catalog by category for the QR menu page.
func (s *CatalogService) PublicMenu(ctx context.Context, tenantID uint) ([]MenuSection, error) {
	categories, err := s.ListCategories(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	products, err := s.ListProducts(ctx, tenantID, 0)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[uint][]models.Product, len(categories))
	for _, p := range products {
		byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
	}

	sections := make([]MenuSection, 0, len(categories))
	for _, c := range categories {
		items := byCategory[c.ID]
		if items == nil {
			items = []models.Product{}
		}
		sections = append(sections, MenuSection{Category: c, Products: items})
	}
	return sections, nil
}
