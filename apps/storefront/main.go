package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminservice "supplyhub/apps/admin/service"
	catalogservice "supplyhub/apps/catalog/service"
	customerservice "supplyhub/apps/customer/service"
	messageservice "supplyhub/apps/message/service"
	orderservice "supplyhub/apps/order/service"
	quoteservice "supplyhub/apps/quote/service"
	"supplyhub/apps/storefront/handler"
	"supplyhub/apps/storefront/middleware"
	"supplyhub/apps/storefront/store/gormstore"
	"supplyhub/apps/storefront/store/memstore"
	userservice "supplyhub/apps/user/service"
	"supplyhub/pkg/config"
	"supplyhub/pkg/database"
	"supplyhub/pkg/discovery"
	"supplyhub/pkg/jwt"
	"supplyhub/pkg/logger"
	"supplyhub/pkg/metrics"
	"supplyhub/pkg/notify"
	"supplyhub/pkg/sequence"
	"supplyhub/pkg/tracer"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	c, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logg := logger.New(c.Log, c.Service.Name)

	// 1. 初始化 Tracer
	shutdownTracer, err := tracer.InitTracer(c.Service.Name, c.Tracing)
	if err != nil {
		fatal(logg, "init tracer", err)
	}

	// 2. 存储
	repos, err := openStore(c, logg)
	if err != nil {
		fatal(logg, "open store", err)
	}

	// 3. 订单号生成器, 通知, 限流
	numbers := newSequence(c.Redis, logg)
	events, closeEvents := newPublisher(c.RabbitMQ, logg)
	limiter, err := middleware.NewRateLimiter(c.Sentinel)
	if err != nil {
		fatal(logg, "init sentinel", err)
	}
	tokens := jwt.NewManager(c.JWT.Secret, c.JWT.TTL, c.JWT.Issuer)

	svc := handler.Services{
		Categories: catalogservice.NewCategoryService(repos.categories, logg),
		Brands:     catalogservice.NewBrandService(repos.brands, repos.products, logg),
		Products:   catalogservice.NewProductService(repos.products, repos.categories, repos.brands, c.Catalog.LowStockThreshold, logg),
		Orders:     orderservice.NewOrderService(repos.orders, repos.customers, repos.products, numbers, events, logg),
		Quotes:     quoteservice.NewQuoteService(repos.quotes, repos.orders, repos.products, numbers, events, logg),
		Customers:  customerservice.NewCustomerService(repos.customers, logg),
		Messages:   messageservice.NewMessageService(repos.messages, events, logg),
		Auth:       userservice.NewAuthService(repos.users, repos.customers, tokens, events, logg),
		Dashboard:  adminservice.NewDashboardService(repos.stats, repos.users, logg),
	}
	if err := svc.Auth.EnsureAdmin(context.Background(), c.Auth.AdminEmail, c.Auth.AdminPassword); err != nil {
		fatal(logg, "bootstrap admin", err)
	}

	// 4. 启动 Gin
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(c.Service.Name), middleware.RequestLogger(logg), metrics.Middleware())
	handler.New(svc, handler.Options{
		Tokens:       tokens,
		Limiter:      limiter,
		Accounts:     repos.users,
		CookieSecure: c.Auth.CookieSecure,
		Ready:        repos.ping,
	}).Register(r)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.Service.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logg.Info("storefront listening", "addr", srv.Addr, "storage", c.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logg, "serve http", err)
		}
	}()

	// 5. 注册到 Consul
	var reg *discovery.Registration
	if c.Consul.Enabled {
		if reg, err = discovery.RegisterService(c.Service.Name, c.Service.Port, c.Consul.Address, "/healthz"); err != nil {
			fatal(logg, "register service", err)
		}
	}

	ctx, stopSweep := context.WithCancel(context.Background())
	go sweepQuotes(ctx, svc.Quotes, c.Quotes.SweepInterval, logg)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logg.Info("shutting down")

	stopSweep()
	if reg != nil {
		if err := reg.Deregister(); err != nil {
			logg.Warn("consul deregister failed", "error", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("http shutdown", "error", err)
	}
	if err := closeEvents(); err != nil {
		logg.Warn("close publisher", "error", err)
	}
	if err := repos.close(); err != nil {
		logg.Warn("close store", "error", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logg.Warn("tracer shutdown", "error", err)
	}
}

func fatal(logg *slog.Logger, msg string, err error) {
	logg.Error(msg, "error", err)
	os.Exit(1)
}

// userStore serves both sign-in and the back-office user list.
type userStore interface {
	userservice.UserRepository
	adminservice.UserDirectory
}

type repositories struct {
	categories catalogservice.CategoryRepository
	brands     catalogservice.BrandRepository
	products   catalogservice.ProductRepository
	customers  customerservice.CustomerRepository
	orders     orderservice.OrderRepository
	quotes     quoteservice.QuoteRepository
	messages   messageservice.MessageRepository
	users      userStore
	stats      adminservice.StatsRepository
	ping       func(ctx context.Context) error
	close      func() error
}

func openStore(c *config.Config, logg *slog.Logger) (*repositories, error) {
	if c.Storage.Driver == "memory" {
		logg.Warn("using in-memory storage, data is lost on restart")
		st := memstore.New()
		return &repositories{
			categories: st.Categories(),
			brands:     st.Brands(),
			products:   st.Products(),
			customers:  st.Customers(),
			orders:     st.Orders(),
			quotes:     st.Quotes(),
			messages:   st.Messages(),
			users:      st.Users(),
			stats:      st,
			close:      func() error { return nil },
		}, nil
	}

	db, err := database.InitMySQL(c.Mysql, c.Log.SQL)
	if err != nil {
		return nil, err
	}
	if err := gormstore.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	st := gormstore.New(db)
	return &repositories{
		categories: st.Categories(),
		brands:     st.Brands(),
		products:   st.Products(),
		customers:  st.Customers(),
		orders:     st.Orders(),
		quotes:     st.Quotes(),
		messages:   st.Messages(),
		users:      st.Users(),
		stats:      st.Stats(),
		ping:       sqlDB.PingContext,
		close:      sqlDB.Close,
	}, nil
}

// newSequence counts order and quote numbers in Redis and falls back to
// random suffixes when Redis is absent or failing.
func newSequence(cfg config.RedisConfig, logg *slog.Logger) sequence.Generator {
	random := sequence.NewRandomGenerator()
	if cfg.Address == "" {
		return random
	}
	rdb, err := database.InitRedis(cfg)
	if err != nil {
		logg.Warn("redis unavailable, using random document numbers", "error", err)
		return random
	}
	return sequence.Fallback{
		Primary:   sequence.NewRedisGenerator(rdb),
		Secondary: random,
		OnError: func(err error) {
			logg.Warn("redis sequence failed, using random document number", "error", err)
		},
	}
}

func newPublisher(cfg config.RabbitMQConfig, logg *slog.Logger) (notify.Publisher, func() error) {
	if cfg.URL == "" {
		return notify.NewLogPublisher(logg), func() error { return nil }
	}
	p, err := notify.DialRabbit(cfg.URL, cfg.Exchange)
	if err != nil {
		logg.Warn("rabbitmq unavailable, logging notifications instead", "error", err)
		return notify.NewLogPublisher(logg), func() error { return nil }
	}
	return p, p.Close
}

// sweepQuotes 定时将过期报价标记为 expired.
func sweepQuotes(ctx context.Context, quotes *quoteservice.QuoteService, every time.Duration, logg *slog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := quotes.ExpireStale(ctx)
			if err != nil {
				logg.Warn("quote expiry sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logg.Info("quotes expired", "count", n)
			}
		}
	}
}
