package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	perioddomain "github.com/smallbiznis/pamdes/internal/billingperiod/domain"
	bundledomain "github.com/smallbiznis/pamdes/internal/bundle/domain"
	collectordomain "github.com/smallbiznis/pamdes/internal/collector/domain"
	"github.com/smallbiznis/pamdes/internal/config"
	customerdomain "github.com/smallbiznis/pamdes/internal/customer/domain"
	ledgerdomain "github.com/smallbiznis/pamdes/internal/ledger/domain"
	obslogger "github.com/smallbiznis/pamdes/internal/observability/logger"
	"github.com/smallbiznis/pamdes/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/pamdes/internal/payment/domain"
	reportdomain "github.com/smallbiznis/pamdes/internal/report/domain"
	tariffdomain "github.com/smallbiznis/pamdes/internal/tariff/domain"
	villagedomain "github.com/smallbiznis/pamdes/internal/village/domain"
	usagedomain "github.com/smallbiznis/pamdes/internal/waterusage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           cfg.LogLevel == "debug",
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(tracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config) *gin.Engine {
	return NewEngine(cfg)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
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
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	villageSvc   villagedomain.Service
	customerSvc  customerdomain.Service
	collectorSvc collectordomain.Service
	periodSvc    perioddomain.Service
	usageSvc     usagedomain.Service
	tariffSvc    tariffdomain.Service
	billSvc      billdomain.Service
	bundleSvc    bundledomain.Service
	paymentSvc   paymentdomain.Service
	ledgerSvc    ledgerdomain.Service
	reportSvc    reportdomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	VillageSvc   villagedomain.Service
	CustomerSvc  customerdomain.Service
	CollectorSvc collectordomain.Service
	PeriodSvc    perioddomain.Service
	UsageSvc     usagedomain.Service
	TariffSvc    tariffdomain.Service
	BillSvc      billdomain.Service
	BundleSvc    bundledomain.Service
	PaymentSvc   paymentdomain.Service
	LedgerSvc    ledgerdomain.Service
	ReportSvc    reportdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http"),
		villageSvc:   p.VillageSvc,
		customerSvc:  p.CustomerSvc,
		collectorSvc: p.CollectorSvc,
		periodSvc:    p.PeriodSvc,
		usageSvc:     p.UsageSvc,
		tariffSvc:    p.TariffSvc,
		billSvc:      p.BillSvc,
		bundleSvc:    p.BundleSvc,
		paymentSvc:   p.PaymentSvc,
		ledgerSvc:    p.LedgerSvc,
		reportSvc:    p.ReportSvc,
	}
	svc.registerAPIRoutes()
	svc.registerFallback()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(ActorContext())

	api.POST("/villages", s.CreateVillage)
	api.GET("/villages", s.ListVillages)

	village := api.Group("/villages/:village_id")
	village.Use(s.VillageContext())
	{
		village.GET("", s.GetVillage)
		village.PATCH("/settings", s.UpdateVillageSettings)

		village.POST("/customers", s.CreateCustomer)
		village.GET("/customers", s.ListCustomers)
		village.GET("/customers/code/:code", s.GetCustomerByCode)

		village.POST("/collectors", s.CreateCollector)
		village.GET("/collectors", s.ListCollectors)

		village.POST("/periods", s.CreatePeriod)
		village.GET("/periods", s.ListPeriods)

		village.GET("/tariffs", s.ListTariffs)
		village.POST("/tariffs", s.CreateTariffRange)
		village.DELETE("/tariffs", s.DeactivateTariffSchedule)
		village.GET("/tariffs/validate", s.ValidateTariffSchedule)
		village.POST("/tariffs/calculate", s.CalculateBill)

		village.GET("/ledger/balances/:account", s.GetLedgerBalance)

		village.GET("/reports/collection", s.CollectionSummary)
		village.GET("/reports/outstanding", s.OutstandingReport)
		village.GET("/reports/trend", s.TrendReport)
		village.GET("/reports/collectors", s.CollectorTotalsReport)
	}

	api.GET("/tariffs", s.ListTariffs)
	api.POST("/tariffs", s.CreateTariffRange)
	api.GET("/tariffs/:id", s.GetTariff)
	api.PATCH("/tariffs/:id", s.UpdateTariffRange)
	api.GET("/tariffs/:id/editable", s.GetTariffEditableFields)

	api.GET("/customers/:id", s.GetCustomer)
	api.PATCH("/customers/:id/status", s.SetCustomerStatus)
	api.GET("/customers/:id/bills", s.ListCustomerBills)

	api.DELETE("/collectors/:id", s.DeactivateCollector)

	api.GET("/periods/:id", s.GetPeriod)
	api.POST("/periods/:id/activate", s.ActivatePeriod)
	api.POST("/periods/:id/complete", s.CompletePeriod)
	api.POST("/periods/:id/deactivate", s.DeactivatePeriod)
	api.GET("/periods/:id/readings", s.ListPeriodReadings)
	api.POST("/periods/:id/bills", s.GenerateBillsForPeriod)

	api.POST("/readings", s.RecordReading)
	api.GET("/readings/:id", s.GetReading)
	api.PATCH("/readings/:id", s.UpdateReadingFinalMeter)

	api.POST("/bills", s.GenerateBill)
	api.GET("/bills/:id", s.GetBill)
	api.POST("/bills/:id/pay", s.PayBill)
	api.GET("/bills/:id/payments", s.ListBillPayments)
	api.POST("/bills/overdue", s.UpdateOverdueBills)

	api.POST("/bundles", s.CreateBundle)
	api.POST("/bundles/expire", s.ExpireBundles)
	api.GET("/bundles/:id", s.GetBundle)
	api.GET("/bundles/:id/presentation", s.GetBundlePresentation)
	api.POST("/bundles/:id/settle", s.SettleBundle)
	api.POST("/bundles/:id/fail", s.FailBundle)

	api.GET("/payments/:id", s.GetPayment)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
