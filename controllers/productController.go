package controllers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"billing-backend/database"
	"billing-backend/ledger"
	"billing-backend/middlewares"
	"billing-backend/models"
	"billing-backend/utils"
)

type ProductCreateDTO struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	SKU         *string         `json:"sku" validate:"omitempty,max=64"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
	TaxRate     decimal.Decimal `json:"tax_rate" validate:"gte=0"`
	Active      *bool           `json:"active"`
}

type ProductUpdateDTO struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	SKU         *string          `json:"sku" validate:"omitempty,max=64"`
	UnitPrice   *decimal.Decimal `json:"unit_price" validate:"omitempty,gte=0"`
	TaxRate     *decimal.Decimal `json:"tax_rate" validate:"omitempty,gte=0"`
	Active      *bool            `json:"active"`
}

func GetProducts(c *fiber.Ctx) error {
	db, err := requestDB(c)
	if err != nil {
		return err
	}
	page := pageFromQuery(c)

	q := db.Model(&models.Product{})
	if v := c.Query("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid active filter")
		}
		q = q.Where("active = ?", active)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return err
	}
	var products []models.Product
	q = q.Order("name").Order("id").Limit(page.Limit)
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	if err := q.Find(&products).Error; err != nil {
		return err
	}
	c.Set(TotalCountHeader, strconv.FormatInt(total, 10))
	return c.JSON(products)
}

func GetProduct(c *fiber.Ctx) error {
	db, err := requestDB(c)
	if err != nil {
		return err
	}
	var product models.Product
	if err := db.Where("id = ?", c.Params("id")).First(&product).Error; err != nil {
		return database.Translate(err, "product")
	}
	return c.JSON(product)
}

func CreateProduct(c *fiber.Ctx) error {
	var dto ProductCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	db, err := requestDB(c)
	if err != nil {
		return err
	}
	product := models.Product{
		Name:        dto.Name,
		Description: dto.Description,
		SKU:         dto.SKU,
		UnitPrice:   dto.UnitPrice,
		TaxRate:     dto.TaxRate,
		Active:      dto.Active == nil || *dto.Active,
	}
	if err := ledger.ValidateProduct(&product); err != nil {
		return err
	}
	if err := db.Create(&product).Error; err != nil {
		return database.Translate(err, "sku")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func UpdateProduct(c *fiber.Ctx) error {
	var dto ProductUpdateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	db, err := requestDB(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	var product models.Product
	if err := db.Where("id = ?", id).First(&product).Error; err != nil {
		return database.Translate(err, "product")
	}
	next := product
	if dto.UnitPrice != nil {
		next.UnitPrice = *dto.UnitPrice
	}
	if dto.TaxRate != nil {
		next.TaxRate = *dto.TaxRate
	}
	if err := ledger.ValidateProduct(&next); err != nil {
		return err
	}
	if updates := utils.UpdatesFromPtrDTO(&dto, nil); len(updates) > 0 {
		if err := db.Model(&product).Updates(updates).Error; err != nil {
			return database.Translate(err, "sku")
		}
	}
	if err := db.Where("id = ?", id).First(&product).Error; err != nil {
		return database.Translate(err, "product")
	}
	return c.JSON(product)
}

func DeleteProduct(c *fiber.Ctx) error {
	db, err := requestDB(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	var product models.Product
	if err := db.Where("id = ?", id).First(&product).Error; err != nil {
		return database.Translate(err, "product")
	}

	var refs int64
	if err := db.Model(&models.InvoiceItem{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: product is used on invoices", ledger.ErrConflict)
	}
	if err := db.Delete(&product).Error; err != nil {
		return database.Translate(err, "product")
	}
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}
