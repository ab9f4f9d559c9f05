package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/invoicedesk/internal/accounting"
	"github.com/smallbiznis/invoicedesk/internal/auth"
	authoauth "github.com/smallbiznis/invoicedesk/internal/auth/oauth"
	"github.com/smallbiznis/invoicedesk/internal/auth/session"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	credentialdomain "github.com/smallbiznis/invoicedesk/internal/credential/domain"
	credentialrepository "github.com/smallbiznis/invoicedesk/internal/credential/repository"
	"github.com/smallbiznis/invoicedesk/internal/customer"
	customerdomain "github.com/smallbiznis/invoicedesk/internal/customer/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	obslogger "github.com/smallbiznis/invoicedesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/invoicedesk/internal/observability/tracing"
	"github.com/smallbiznis/invoicedesk/internal/providers"
	"github.com/smallbiznis/invoicedesk/internal/reference"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	clock.Module,
	credentialrepository.Module,
	auth.Module,
	accounting.Module,
	reference.Module,
	providers.Module,
	invoice.Module,
	customer.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)

func NewEngine(httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	oauthsvc    authoauth.Service
	sessions    *session.Manager
	store       credentialdomain.Store
	registry    *reference.Registry
	invoiceSvc  invoicedomain.Service
	customerSvc customerdomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	OAuthsvc    authoauth.Service
	Sessions    *session.Manager
	Store       credentialdomain.Store
	Registry    *reference.Registry
	InvoiceSvc  invoicedomain.Service
	CustomerSvc customerdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		oauthsvc:    p.OAuthsvc,
		sessions:    p.Sessions,
		store:       p.Store,
		registry:    p.Registry,
		invoiceSvc:  p.InvoiceSvc,
		customerSvc: p.CustomerSvc,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	r := s.engine.Group("", obsmetrics.RouteGroup("auth"), s.Session())

	r.GET("/login", s.Login)
	r.GET("/oauth/callback", s.OAuthCallback)
	r.GET("/redirect", s.OAuthCallback)
	r.GET("/auth/status", s.AuthStatus)
	r.POST("/logout", s.Logout)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("", obsmetrics.RouteGroup("api"), s.Session(), s.AuthRequired())

	api.GET("/reference/:resource", s.GetReference)
	api.POST("/customers", s.CreateCustomer)

	invoices := api.Group("/invoices")
	{
		invoices.GET("", s.ListInvoices)
		invoices.POST("", s.CreateInvoice)
		invoices.GET("/new", s.NewInvoiceForm)
		invoices.GET("/summary", s.InvoiceSummary)
		invoices.POST("/totals", s.ComputeInvoiceTotals)
		invoices.POST("/preview", s.PreviewInvoice)
		invoices.GET("/:id", s.GetInvoiceByID)
		invoices.PUT("/:id", s.UpdateInvoice)
		invoices.GET("/:id/form", s.EditInvoiceForm)
		invoices.GET("/:id/receipt", s.InvoiceReceipt)
		invoices.GET("/:id/receipt.pdf", s.InvoiceReceiptPDF)
	}
}
