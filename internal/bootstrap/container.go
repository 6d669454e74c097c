package bootstrap

import (
	"context"
	"log"
	"time"

	"taxii-services/internal/config"
	"taxii-services/internal/controller"
	"taxii-services/internal/pkg/logger"
	"taxii-services/internal/repository/memory"
	"taxii-services/internal/repository/unitofwork"
	"taxii-services/internal/service"
	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/headers"
	"taxii-services/pkg/taxii/messages"
	"taxii-services/pkg/taxii/query"
	"taxii-services/pkg/volume"
	"taxii-services/pkg/xmldoc"

	pktNats "taxii-services/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	TaxiiController controller.ITaxiiController

	// Background Services (Exposed for main.go to run)
	ConsumerService   service.IConsumerService
	SweeperService    service.IResultSetSweeperService
	EventAuditService service.IEventAuditService // nil without NATS

	RepositoryFactory unitofwork.RepositoryFactory
	Logger            logger.ILogger

	closers []func()
}

// NewContainer wires the application. db may be nil when cfg selects the
// memory store.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)

	var uowFactory unitofwork.RepositoryFactory
	if cfg.Database.Driver == config.StoreDriverMemory || db == nil {
		uowFactory = memory.NewRepositoryFactory(memory.NewStore(cfg.Taxii.ResultSetTTL))
		log.Printf("[INFO] Using in-memory store")
	} else {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	}

	c := &Container{RepositoryFactory: uowFactory, Logger: sysLogger}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	// NATS (optional)
	var external service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			external = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}

		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			c.EventAuditService = service.NewEventAuditService(natsSub, auditLogger)
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// Redis (optional)
	var counter volume.Counter
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if _, err := rdb.Ping(pingCtx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		cancel()
		counter = volume.NewRedisCounter(rdb, cfg.Taxii.VolumeCounterTTL)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// 4. Domain
	registry, err := service.LoadBindingRegistry(context.Background(), uowFactory)
	if err != nil {
		log.Printf("[WARN] %v. Using built-in bindings only", err)
		registry = binding.DefaultRegistry()
	}
	evaluator := query.NewEvaluator()
	compiler := xmldoc.NewCompiler(query.Namespaces)
	catalog := service.NewServiceCatalogService(uowFactory, cfg.Taxii.ServiceCacheTTL)

	// 5. Services
	publisherService := service.NewPublisherService(service.EventsTopic, pubSub, external, sysLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, service.EventsTopic, counter, sysLogger)
	c.SweeperService = service.NewResultSetSweeperService(uowFactory, sysLogger)

	inboxService := service.NewInboxService(uowFactory, registry, publisherService, sysLogger, auditLogger)
	pollService := service.NewPollService(
		uowFactory,
		registry,
		evaluator,
		compiler,
		service.ThresholdPolicy{Threshold: cfg.Taxii.PollAsyncThreshold, Wait: cfg.Taxii.PollEstimatedWait},
		cfg.Taxii.ResultSetTTL,
		sysLogger,
	)
	fulfillmentService := service.NewFulfillmentService(uowFactory, sysLogger)
	discoveryService := service.NewDiscoveryService(catalog, evaluator, cfg.App.BaseURL)
	collectionService := service.NewCollectionService(uowFactory, catalog, counter, cfg.App.BaseURL, sysLogger)
	subscriptionService := service.NewSubscriptionService(uowFactory, catalog, registry, evaluator, publisherService, cfg.App.BaseURL, sysLogger)

	dispatcher := service.NewDispatcher(
		inboxService,
		pollService,
		fulfillmentService,
		discoveryService,
		collectionService,
		subscriptionService,
	)

	// 6. Controllers
	c.TaxiiController = controller.NewTaxiiController(
		headers.NewTAXII11Validator(),
		messages.NewXML11Codec(),
		catalog,
		dispatcher,
		controller.AuthConfig{Required: cfg.Auth.Required, JwtSecret: cfg.Auth.JwtSecret},
		sysLogger,
	)

	return c
}

// Close releases bus and cache connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
