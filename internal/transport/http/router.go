package http

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// NewRouter собирает gin router со всеми маршрутами сервиса заказов.
func NewRouter(handler *Handler, logger *log.Entry) *gin.Engine {
	if logger == nil {
		logger = log.WithField("component", "http")
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logger(logger))

	authorized := router.Group("/", Identity())
	{
		authorized.POST("/orders", handler.placeOrder)
		authorized.POST("/orders/checkout", handler.checkout)
		authorized.GET("/orders", handler.listMyOrders)
		authorized.GET("/orders/:id", handler.getOrder)
		authorized.GET("/orders/:id/timeline", handler.getTimeline)
		authorized.POST("/orders/:id/status", handler.transitionStatus)
		authorized.POST("/orders/:id/cancel", handler.cancelOrder)
		authorized.GET("/shops/:id/orders", handler.listShopOrders)
	}

	return router
}
