package handlers

import (
	"supplier-service/internal/api/middleware"
	"supplier-service/internal/core/auth"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes monta as rotas /api/v1 e o health check.
func RegisterRoutes(router *gin.Engine, authService auth.Service, sessions Sessions) {
	authHandler := NewAuthHandler(authService, sessions)
	supplierHandler := NewSupplierHandler(sessions)
	ledgerHandler := NewLedgerHandler(sessions)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": "supplier-service"})
	})

	public := router.Group("/api/v1")
	{
		public.POST("/login", authHandler.Login)
	}

	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.Auth(authService))
	{
		apiV1.POST("/session/reload", authHandler.Reload)

		apiV1.GET("/ids/supplier", supplierHandler.HandleSupplierID)
		apiV1.GET("/ids/product", supplierHandler.HandleProductID)

		apiV1.GET("/suppliers", supplierHandler.HandleList)
		apiV1.GET("/suppliers/combined", supplierHandler.HandleCombined)
		apiV1.GET("/suppliers/combined.csv", supplierHandler.HandleCombinedCSV)
		apiV1.GET("/suppliers/export", supplierHandler.HandleExport)
		apiV1.POST("/suppliers/import", supplierHandler.HandleImport)
		apiV1.POST("/suppliers/save", supplierHandler.HandleSave)
		apiV1.GET("/suppliers/:name", supplierHandler.HandleGet)
		apiV1.POST("/suppliers", supplierHandler.HandleCreate)
		apiV1.PUT("/suppliers/:name", supplierHandler.HandleUpdate)
		apiV1.DELETE("/suppliers/:name", supplierHandler.HandleDelete)

		apiV1.GET("/ledger", ledgerHandler.HandleList)
		apiV1.GET("/ledger/years", ledgerHandler.HandleYears)
		apiV1.GET("/ledger/summary", ledgerHandler.HandleSummary)
		apiV1.GET("/ledger/export", ledgerHandler.HandleExport)
		apiV1.POST("/ledger/payments", ledgerHandler.HandleRegisterPayment)
		apiV1.POST("/ledger/save", ledgerHandler.HandleSave)
		apiV1.PUT("/ledger/:year/:month", ledgerHandler.HandleReplacePeriod)
	}
}
