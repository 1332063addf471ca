package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"billing-backend/database"
	"billing-backend/ledger"
	"billing-backend/utils"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// TotalCountHeader carries the unpaged row count on list endpoints.
const TotalCountHeader = "X-Total-Count"

func requestDB(c *fiber.Ctx) (*gorm.DB, error) {
	db, err := database.GetDB(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "database unavailable")
	}
	return db, nil
}

func ledgerService(c *fiber.Ctx) (*ledger.Service, error) {
	db, err := requestDB(c)
	if err != nil {
		return nil, err
	}
	return ledger.NewService(database.NewStore(db)), nil
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

func pageFromQuery(c *fiber.Ctx) ledger.Page {
	return ledger.Page{
		Limit:  utils.ParseIntBounded(c.Query("limit"), defaultPageSize, maxPageSize),
		Offset: utils.ParseIntDefault(c.Query("offset"), 0),
	}
}
