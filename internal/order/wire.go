package order

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/Podzilla/order/internal/order/controller"
	"github.com/Podzilla/order/internal/order/repository"
	"github.com/Podzilla/order/internal/order/service"
)

func NewModule(db *sql.DB, logger *zap.Logger) *controller.OrderController {
	itemRepo := repository.NewMySQLOrderItemRepository(db)
	orderRepo := repository.NewMySQLOrderRepository(db, itemRepo)

	orderSvc := service.NewOrderService(orderRepo, logger)

	return controller.NewOrderController(orderSvc, logger)
}
