package controllers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"billing-backend/database"
	"billing-backend/ledger"
	"billing-backend/middlewares"
	"billing-backend/models"
	"billing-backend/utils"
)

type CustomerCreateDTO struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Company string `json:"company" validate:"max=255"`
	Phone   string `json:"phone" validate:"max=64"`
	Address string `json:"address"`
	City    string `json:"city" validate:"max=128"`
	Country string `json:"country" validate:"max=128"`
	Zip     string `json:"zip" validate:"max=32"`
}

type CustomerUpdateDTO struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email   *string `json:"email" validate:"omitempty,email,max=255"`
	Company *string `json:"company" validate:"omitempty,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=64"`
	Address *string `json:"address"`
	City    *string `json:"city" validate:"omitempty,max=128"`
	Country *string `json:"country" validate:"omitempty,max=128"`
	Zip     *string `json:"zip" validate:"omitempty,max=32"`
}

func GetCustomers(c *fiber.Ctx) error {
	db, err := requestDB(c)
	if err != nil {
		return err
	}
	page := pageFromQuery(c)

	var total int64
	if err := db.Model(&models.Customer{}).Count(&total).Error; err != nil {
		return err
	}
	var customers []models.Customer
	q := db.Order("created_at desc, id desc").Limit(page.Limit)
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	if err := q.Find(&customers).Error; err != nil {
		return err
	}
	c.Set(TotalCountHeader, strconv.FormatInt(total, 10))
	return c.JSON(customers)
}

func GetCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	db, err := requestDB(c)
	if err != nil {
		return err
	}
	var customer models.Customer
	if err := db.First(&customer, id).Error; err != nil {
		return database.Translate(err, "customer")
	}
	return c.JSON(customer)
}

func CreateCustomer(c *fiber.Ctx) error {
	var dto CustomerCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	db, err := requestDB(c)
	if err != nil {
		return err
	}
	customer := models.Customer{
		Name:    dto.Name,
		Email:   dto.Email,
		Company: dto.Company,
		Phone:   dto.Phone,
		Address: dto.Address,
		City:    dto.City,
		Country: dto.Country,
		Zip:     dto.Zip,
	}
	if err := db.Create(&customer).Error; err != nil {
		return database.Translate(err, "email")
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

func UpdateCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var dto CustomerUpdateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	db, err := requestDB(c)
	if err != nil {
		return err
	}
	var customer models.Customer
	if err := db.First(&customer, id).Error; err != nil {
		return database.Translate(err, "customer")
	}
	if updates := utils.UpdatesFromPtrDTO(&dto, nil); len(updates) > 0 {
		if err := db.Model(&customer).Updates(updates).Error; err != nil {
			return database.Translate(err, "email")
		}
	}
	if err := db.First(&customer, id).Error; err != nil {
		return database.Translate(err, "customer")
	}
	return c.JSON(customer)
}

func DeleteCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	db, err := requestDB(c)
	if err != nil {
		return err
	}
	var customer models.Customer
	if err := db.First(&customer, id).Error; err != nil {
		return database.Translate(err, "customer")
	}

	// A customer stays while any invoice or payment points at it.
	var invoices, payments int64
	if err := db.Model(&models.Invoice{}).Where("customer_id = ?", id).Count(&invoices).Error; err != nil {
		return err
	}
	if err := db.Model(&models.Payment{}).Where("customer_id = ?", id).Count(&payments).Error; err != nil {
		return err
	}
	switch {
	case invoices > 0:
		return fmt.Errorf("%w: customer has invoices", ledger.ErrConflict)
	case payments > 0:
		return fmt.Errorf("%w: customer has payments", ledger.ErrConflict)
	}
	if err := db.Delete(&customer).Error; err != nil {
		return database.Translate(err, "customer")
	}
	return c.JSON(fiber.Map{"message": "Customer deleted successfully"})
}
