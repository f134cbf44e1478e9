package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campushub/booking-core/internal/api"
	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/booking"
	"github.com/campushub/booking-core/internal/clock"
	"github.com/campushub/booking-core/internal/events"
	"github.com/campushub/booking-core/internal/message"
	"github.com/campushub/booking-core/internal/resource"
	"github.com/campushub/booking-core/internal/review"
	"github.com/campushub/booking-core/internal/user"
)

// Config holds the dependencies and settings required to start the application.
// A nil DBPool selects the in-memory stores; a nil Redis client selects the
// process-local resource locker.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Redis        *redis.Client
	LockTTL      time.Duration
	Publisher    events.Publisher
	Logger       *zerolog.Logger
	Clock        clock.Clock

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	AutoConfirm    bool
	SweepInterval  time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router      *gin.Engine
	JWTManager  *auth.JWTManager
	UserService user.Service
	Sweeper     *booking.Sweeper
	Bus         *events.Bus
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	bus := events.NewBus()
	var publisher events.Publisher = bus
	if cfg.Publisher != nil {
		publisher = events.Fanout{bus, cfg.Publisher}
	}

	var locker booking.Locker = booking.NewLocalLocker()
	if cfg.Redis != nil {
		locker = booking.NewRedisLocker(cfg.Redis, cfg.LockTTL)
	}

	// Storage
	var (
		userRepo     user.Repository
		resRepo      resource.Repository
		bookingStore booking.Store
		reviewStore  review.Store
		messageStore message.Store
	)
	if cfg.DBPool != nil {
		userRepo = user.NewPgxRepository(cfg.DBPool)
		resRepo = resource.NewPgxRepository(cfg.DBPool)
		bookingStore = booking.NewPgxRepository(cfg.DBPool)
		reviewStore = review.NewPgxRepository(cfg.DBPool)
		messageStore = message.NewPgxRepository(cfg.DBPool)
	} else {
		logger.Warn().Msg("no database configured, using in-memory stores")
		userRepo = user.NewMemoryRepository()
		resRepo = resource.NewMemoryRepository()
		bookingStore = booking.NewMemoryStore()
		reviewStore = review.NewMemoryStore()
		messageStore = message.NewMemoryStore()
	}

	// User Module
	userService := user.NewService(userRepo, passwordHasher, clk, logger)

	// Resource Module
	resService := resource.NewService(resRepo)
	catalog := resource.NewCatalog(resRepo)

	// Booking Module
	bookingService := booking.NewService(bookingStore, catalog, locker, clk,
		booking.WithEvents(publisher),
		booking.WithLogger(logger),
		booking.WithAutoConfirm(cfg.AutoConfirm),
	)
	sweeper := booking.NewSweeper(bookingStore, bookingService, clk, cfg.SweepInterval, logger)

	// Review Module
	reviewService := review.NewService(reviewStore, catalog, logger)
	gate := review.NewGate(reviewStore, logger)

	// Message Module
	messageService := message.NewService(messageStore, user.NewDirectory(userRepo), clk, publisher, logger)

	// API Router Config
	routerParams := api.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		Logger:          logger,
		RateLimitRPS:    cfg.RateLimitRPS,
		RateLimitBurst:  cfg.RateLimitBurst,
		UserService:     userService,
		ResourceService: resService,
		BookingService:  bookingService,
		ReviewService:   reviewService,
		ModerationGate:  gate,
		MessageService:  messageService,
		JWTManager:      jwtManager,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:      router,
		JWTManager:  jwtManager,
		UserService: userService,
		Sweeper:     sweeper,
		Bus:         bus,
	}
}
