package services

import (
	"context"
	"fmt"
	"yeshivashop_server/database"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
)

type ServiceManager struct {
	CacheService        *CacheService
	SessionService      *SessionService
	ProfileService      *ProfileService
	CartService         *CartService
	CheckoutService     *CheckoutService
	NotificationService *NotificationService
	EmailService        *EmailService
	CatalogService      *CatalogService
	AdminService        *AdminService
	OrderService        *OrderService
	StorageService      *StorageService
	HealthService       *HealthService
}

func NewServiceManager(logger *gecho.Logger, cfg *structs.Config, db *database.DB) (*ServiceManager, error) {
	cacheService := NewCacheService(logger, cfg)
	sessionService := NewSessionService(logger, cfg, cacheService)

	profileService, err := NewProfileService(logger, cfg, db, cacheService)
	if err != nil {
		return nil, fmt.Errorf("profile service: %w", err)
	}

	orderStore := NewOrderStore(db)
	emailService := NewEmailService(logger, cfg)
	notificationService := NewNotificationService(logger, cfg.Notification, orderStore, emailService)
	catalogService := NewCatalogService(logger, cfg, db, cacheService)

	objectStore, err := NewS3Store(context.Background(), cfg.Storage)
	if err != nil {
		logger.Warn("Object storage unavailable, image uploads disabled", gecho.Field("error", err))
		objectStore = nil
	}

	return &ServiceManager{
		CacheService:        cacheService,
		SessionService:      sessionService,
		ProfileService:      profileService,
		CartService:         NewCartService(logger, NewCartStore(db)),
		CheckoutService:     NewCheckoutService(logger, cfg, orderStore, notificationService),
		NotificationService: notificationService,
		EmailService:        emailService,
		CatalogService:      catalogService,
		AdminService:        NewAdminService(logger, db, catalogService, profileService),
		OrderService:        NewOrderService(logger, db),
		StorageService:      NewStorageService(logger, cfg.Storage, objectStore),
		HealthService:       NewHealthService(logger, db, cacheService),
	}, nil
}
