package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"scorekeeper/client"
	"scorekeeper/config"
	"scorekeeper/controller"
	"scorekeeper/cron"
	"scorekeeper/docs"
	"scorekeeper/repository"
	"scorekeeper/service"
	"scorekeeper/utils"

	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

var (
	autoMigrate bool

	rootCmd = &cobra.Command{
		Use:          "scorekeeper",
		Short:        "Contest workflow, scoring and award resolution for barbershop conventions",
		SilenceUsage: true,
		RunE:         serve,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background job consumer",
		RunE:  serve,
	}
)

// @title           Scorekeeper API
// @version         1.0
// @description     Contest workflow, scoring and award resolution for barbershop conventions.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "create missing tables from the models before serving")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd, resortCmd, seedAwardsCmd, tokenCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	t := time.Now()
	cfg := config.Env()
	if err := cfg.Validate(); err != nil {
		return err
	}
	db, err := config.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if autoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate models: %w", err)
		}
	}

	reportWriter, err := config.GetWriter(cfg.ReportTopic)
	if err != nil {
		return err
	}
	defer utils.Closer(reportWriter)()
	notificationWriter, err := config.GetWriter(cfg.NotificationTopic)
	if err != nil {
		return err
	}
	defer utils.Closer(notificationWriter)()
	jobWriter, err := config.GetWriter(cfg.JobTopic)
	if err != nil {
		return err
	}
	defer utils.Closer(jobWriter)()

	feed := controller.NewFeedHub()
	channels := []client.NamedNotifier{
		{Name: "kafka", Notifier: client.NewKafkaNotifier(notificationWriter)},
		{Name: "feed", Notifier: feed},
	}
	if cfg.DiscordBotToken != "" {
		discord, err := client.NewDiscordNotifier(cfg.DiscordBotToken, cfg.DiscordChannelID)
		if err != nil {
			return err
		}
		channels = append(channels, client.NamedNotifier{Name: "discord", Notifier: discord})
	}
	dispatcher := service.NewDispatcher(client.NewKafkaReportRequester(reportWriter), client.NewMultiNotifier(channels...))

	appearances := service.NewAppearanceService(db, dispatcher, cfg.VarianceTolerance)
	entities := service.NewEntityService(db)
	recurring := cron.NewRecurringJobService(db, appearances, entities)
	if err := recurring.InitializeJobs(); err != nil {
		slog.Error("failed to restore recurring jobs", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	startJobConsumer(ctx, cfg, appearances, entities)

	r := gin.New()
	r.Use(gin.Recovery())
	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}
	addLogger(r)
	addMetrics(r)
	addDocs(r)
	setCors(r)
	controller.SetRoutes(r, &controller.Dependencies{
		DB:          db,
		Dispatcher:  dispatcher,
		Jobs:        client.NewKafkaJobQueue(jobWriter),
		Recurring:   recurring,
		Appearances: appearances,
		Entities:    entities,
		Feed:        feed,
		Cache:       persistence.NewInMemoryStore(60 * time.Second),
	})
	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", "error", err)
		}
	}()
	slog.Info("server started", "address", cfg.ServerAddress, "startup", time.Since(t))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	dispatcher.Wait()
	return nil
}

// startJobConsumer runs the queued job worker. The API keeps serving when the broker is down.
func startJobConsumer(ctx context.Context, cfg *config.Config, appearances *service.AppearanceService, entities *service.EntityService) {
	reader, err := config.GetReader(cfg.JobTopic, cfg.JobConsumerGroup)
	if err != nil {
		slog.Error("job consumer disabled", "topic", cfg.JobTopic, "error", err)
		return
	}
	consumer := cron.NewJobConsumer(reader, appearances, entities)
	go func() {
		defer utils.Closer(reader)()
		if err := consumer.Run(ctx); err != nil {
			slog.Error("job consumer stopped", "error", err)
		}
	}()
}

func addLogger(r *gin.Engine) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/metrics"},
		Skip: func(c *gin.Context) bool {
			return strings.HasSuffix(c.Request.URL.Path, "/ws")
		},
	}))
}

func addMetrics(r *gin.Engine) {
	p := ginprometheus.NewPrometheus("gin")
	re := regexp.MustCompile(`\d+`)
	actionRe := regexp.MustCompile(`/(build|open|close|start|finish|confirm|review|verify|publish|invite|submit|approve|withdraw|include|exclude|activate|deactivate)$`)
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		url := strings.Split(c.Request.URL.String(), "?")[0]
		url = re.ReplaceAllString(url, "?")
		url = actionRe.ReplaceAllString(url, "/:action")
		return strings.TrimPrefix(url, "/api")
	}
	p.MetricsPath = "/api/metrics"
	p.Use(r)
}

func addDocs(r *gin.Engine) {
	docs.SwaggerInfo.BasePath = "/api"
	r.GET("/api/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

func setCors(r *gin.Engine) {
	corsConfigGetOptions := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	corsConfigOtherMethods := cors.Config{
		AllowOrigins: []string{
			"http://localhost",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	r.Use(func(c *gin.Context) {
		if c.Request.Method == "OPTIONS" {
			// Check the Access-Control-Request-Method header to determine the actual method being preflighted
			requestedMethod := c.GetHeader("Access-Control-Request-Method")
			if requestedMethod == "GET" || requestedMethod == "OPTIONS" {
				cors.New(corsConfigGetOptions)(c)
			} else {
				cors.New(corsConfigOtherMethods)(c)
			}
			c.AbortWithStatus(204)
			return
		}

		if c.Request.Method == "GET" {
			cors.New(corsConfigGetOptions)(c)
		} else {
			cors.New(corsConfigOtherMethods)(c)
		}
	})
}
