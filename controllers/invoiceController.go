package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"billing-backend/ledger"
	"billing-backend/middlewares"
	"billing-backend/models"
	"billing-backend/pdf"
	"billing-backend/utils"
)

// LineItemDTO is one invoice line as clients send it. Amounts are derived.
type LineItemDTO struct {
	ProductID   *string         `json:"product_id" validate:"omitempty,uuid"`
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gte=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
	TaxRate     decimal.Decimal `json:"tax_rate" validate:"gte=0"`
}

// InvoiceCreateDTO carries no number, totals or status; the ledger assigns them.
type InvoiceCreateDTO struct {
	CustomerID uint            `json:"customer_id" validate:"required"`
	Items      []LineItemDTO   `json:"items" validate:"dive"`
	Discount   decimal.Decimal `json:"discount" validate:"gte=0"`
	IssueDate  *time.Time      `json:"issue_date"`
	DueDate    *time.Time      `json:"due_date" validate:"required"`
	Notes      string          `json:"notes"`
	Terms      string          `json:"terms"`
}

// InvoiceUpdateDTO changes only the fields present. A present items array
// replaces every line.
type InvoiceUpdateDTO struct {
	CustomerID *uint                 `json:"customer_id" validate:"omitempty,gt=0"`
	Items      []LineItemDTO         `json:"items" validate:"omitempty,dive"`
	Discount   *decimal.Decimal      `json:"discount" validate:"omitempty,gte=0"`
	IssueDate  *time.Time            `json:"issue_date"`
	DueDate    *time.Time            `json:"due_date"`
	Notes      *string               `json:"notes"`
	Terms      *string               `json:"terms"`
	Status     *models.InvoiceStatus `json:"status" validate:"omitempty,oneof=draft sent paid overdue cancelled"`
	Version    *int                  `json:"version" validate:"omitempty,gt=0"`
}

func toItems(in []LineItemDTO) []models.InvoiceItem {
	items := make([]models.InvoiceItem, 0, len(in))
	for i := range in {
		utils.NormalizeDTO(&in[i])
		items = append(items, models.InvoiceItem{
			ProductID:   in[i].ProductID,
			Description: in[i].Description,
			Quantity:    in[i].Quantity,
			UnitPrice:   in[i].UnitPrice,
			TaxRate:     in[i].TaxRate,
		})
	}
	return items
}

func GetInvoices(c *fiber.Ctx) error {
	svc, err := ledgerService(c)
	if err != nil {
		return err
	}
	invoices, total, err := svc.ListInvoices(c.UserContext(), pageFromQuery(c))
	if err != nil {
		return err
	}
	c.Set(TotalCountHeader, strconv.FormatInt(total, 10))
	return c.JSON(invoices)
}

func GetInvoice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, err := ledgerService(c)
	if err != nil {
		return err
	}
	inv, err := svc.GetInvoice(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func CreateInvoice(c *fiber.Ctx) error {
	var dto InvoiceCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	svc, err := ledgerService(c)
	if err != nil {
		return err
	}
	in := ledger.NewInvoice{
		CustomerID: dto.CustomerID,
		Items:      toItems(dto.Items),
		Discount:   dto.Discount,
		DueDate:    *dto.DueDate,
		Notes:      dto.Notes,
		Terms:      dto.Terms,
	}
	if dto.IssueDate != nil {
		in.IssueDate = *dto.IssueDate
	}
	inv, err := svc.CreateInvoice(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

func UpdateInvoice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var dto InvoiceUpdateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	svc, err := ledgerService(c)
	if err != nil {
		return err
	}
	upd := ledger.InvoiceUpdate{
		CustomerID: dto.CustomerID,
		Discount:   dto.Discount,
		IssueDate:  dto.IssueDate,
		DueDate:    dto.DueDate,
		Notes:      dto.Notes,
		Terms:      dto.Terms,
		Status:     dto.Status,
		Version:    dto.Version,
	}
	if dto.Items != nil {
		items := toItems(dto.Items)
		upd.Items = &items
	}
	inv, err := svc.UpdateInvoice(c.UserContext(), id, upd)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func MarkInvoicePaid(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, err := ledgerService(c)
	if err != nil {
		return err
	}
	inv, err := svc.MarkPaid(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func GetInvoicePDF(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, err := ledgerService(c)
	if err != nil {
		return err
	}
	inv, err := svc.GetInvoice(c.UserContext(), id)
	if err != nil {
		return err
	}
	data, err := pdf.Render(inv)
	if err != nil {
		return err
	}
	c.Attachment(pdf.Filename(inv))
	return c.Send(data)
}

func DeleteInvoice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, err := ledgerService(c)
	if err != nil {
		return err
	}
	if err := svc.DeleteInvoice(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Invoice deleted successfully"})
}
