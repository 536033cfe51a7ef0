package http

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler, jwtSecret string) {
	api := router.Group("/api/v1")

	stocks := api.Group("/stocks")
	{
		stocks.GET("/market-indices", handler.GetMarketIndices)
		stocks.GET("/trending", handler.GetTrendingStocks)
		stocks.GET("/stock/:symbol", handler.GetStock)
		stocks.GET("/search", handler.SearchStocks)
	}

	authed := api.Group("/stocks", AuthMiddleware(jwtSecret))
	{
		authed.GET("/portfolio/:userId", handler.GetPortfolio)
		authed.GET("/holdings", handler.GetHoldings)
		authed.POST("/transaction", handler.ExecuteTransaction)
		authed.GET("/max-sell/:symbol", handler.GetMaxSell)
		authed.GET("/transactions", handler.ListTransactions)
	}

	router.GET("/health", handler.Health)
}
