package admin

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// GET /history/export
// The order history as a spreadsheet, one row per order.
func ExportHistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := placedOrders(0)
		if err != nil {
			zap.S().Errorw("export order history failed", "error", err)
			return fiber.ErrInternalServerError
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Sheet1"
		headers := []string{"Order", "Date", "Customer", "Status", "Cashier", "Items", "Total"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for row, order := range orders {
			cashier := ""
			if order.Cashier != nil {
				cashier = order.Cashier.FullName()
			}
			items := 0
			for _, line := range order.Lines {
				items += line.Quantity
			}

			values := []interface{}{
				order.ID,
				order.CreatedAt.Format("2006-01-02 15:04"),
				order.User.FullName(),
				string(order.Status),
				cashier,
				items,
				order.Total.InexactFloat64(),
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				f.SetCellValue(sheet, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			zap.S().Errorw("write spreadsheet failed", "error", err)
			return fiber.ErrInternalServerError
		}

		filename := fmt.Sprintf("BitBites_Orders_%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
		return c.Send(buf.Bytes())
	}
}
