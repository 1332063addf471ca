package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"billing-backend/ledger"
	"billing-backend/middlewares"
	"billing-backend/models"
	"billing-backend/utils"
)

type PaymentCreateDTO struct {
	InvoiceID     uint                 `json:"invoice_id" validate:"required"`
	CustomerID    uint                 `json:"customer_id"`
	Amount        decimal.Decimal      `json:"amount" validate:"gte=0"`
	Method        models.PaymentMethod `json:"payment_method" validate:"required,oneof=cash credit_card debit_card bank_transfer check other"`
	TransactionID string               `json:"transaction_id" validate:"max=128"`
	PaymentDate   *time.Time           `json:"payment_date"`
	Status        models.PaymentStatus `json:"status" validate:"omitempty,oneof=completed pending failed refunded"`
	Notes         string               `json:"notes"`
}

func GetPayments(c *fiber.Ctx) error {
	svc, err := ledgerService(c)
	if err != nil {
		return err
	}
	payments, err := svc.ListPayments(c.UserContext(), pageFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(payments)
}

func GetPayment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, err := ledgerService(c)
	if err != nil {
		return err
	}
	p, err := svc.GetPayment(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func GetInvoicePayments(c *fiber.Ctx) error {
	id, err := paramID(c, "invoiceId")
	if err != nil {
		return err
	}
	svc, err := ledgerService(c)
	if err != nil {
		return err
	}
	payments, err := svc.ListPaymentsByInvoice(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(payments)
}

func CreatePayment(c *fiber.Ctx) error {
	var dto PaymentCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	svc, err := ledgerService(c)
	if err != nil {
		return err
	}
	p, err := svc.RecordPayment(c.UserContext(), ledger.NewPayment{
		InvoiceID:     dto.InvoiceID,
		CustomerID:    dto.CustomerID,
		Amount:        dto.Amount,
		Method:        dto.Method,
		TransactionID: dto.TransactionID,
		PaymentDate:   dto.PaymentDate,
		Status:        dto.Status,
		Notes:         dto.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func DeletePayment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, err := ledgerService(c)
	if err != nil {
		return err
	}
	if err := svc.DeletePayment(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Payment deleted successfully"})
}
