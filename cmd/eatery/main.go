package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Anilparajuli4/eatery-go/internal/api"
	"github.com/Anilparajuli4/eatery-go/internal/cart"
	"github.com/Anilparajuli4/eatery-go/internal/catalog"
	"github.com/Anilparajuli4/eatery-go/internal/localstore"
	"github.com/Anilparajuli4/eatery-go/internal/notify"
	"github.com/Anilparajuli4/eatery-go/internal/ordersync"
	"github.com/Anilparajuli4/eatery-go/internal/push"
	"github.com/Anilparajuli4/eatery-go/internal/session"
	"github.com/redis/go-redis/v9"
)

// eatery is the headless host: it restores the locally persisted state,
// warms the catalog cache and tracks order updates on the console until
// interrupted. Interactive surfaces embed the internal packages directly.
func main() {
	// Configuration
	apiBaseURL := getEnv("EATERY_API_URL", "http://localhost:4000/api")
	pushURL := getEnv("EATERY_PUSH_URL", "ws://localhost:4000/ws")
	dbPath := getEnv("EATERY_DB_PATH", "eatery.db")
	redisAddr := getEnv("EATERY_REDIS_ADDR", "")

	ctx := context.Background()

	// Local persisted state (cart, favorites, known order ids, session)
	local, err := localstore.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	log.Printf("Local store open at %s", dbPath)

	notifier := notify.NewService()
	sess := session.NewService(local)
	client := api.NewClient(apiBaseURL, sess.Token)

	// Catalog cache: redis when configured, in-process otherwise
	var pageCache catalog.PageCache
	if redisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: getEnv("EATERY_REDIS_PASSWORD", ""),
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Redis connection failed: ", err)
		}
		log.Printf("Redis ping succeeded")
		pageCache = catalog.NewRedisCache(redisClient)
	} else {
		pageCache = catalog.NewMemoryCache()
	}
	menu := catalog.NewService(client, pageCache)

	if counts, err := menu.Categories(ctx); err != nil {
		log.Printf("Catalog warm-up failed: %v", err)
	} else {
		log.Printf("Catalog ready, %d categories", len(counts))
	}

	cartStore := cart.NewStore(local, notifier)
	if n := cartStore.ItemCount(); n > 0 {
		log.Printf("Restored cart: %d items, total %s, ready in ~%d min",
			n, cartStore.TotalDisplay(), cartStore.EstimatedReadyTime())
	}

	// Live order tracking
	known := ordersync.NewKnownOrders(local)
	channel := push.NewChannel(pushURL)
	feed := ordersync.NewFeed(client, sess, channel, known)
	if err := feed.Enter(ctx); err != nil {
		log.Printf("Order tracking unavailable: %v", err)
	} else {
		log.Printf("Tracking %d orders", len(feed.Orders()))
	}

	// Surface toasts on the console
	go func() {
		for t := range notifier.Toasts() {
			log.Printf("[%s] %s", t.Level, t.Message)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	feed.Leave()
	if err := channel.Close(); err != nil {
		log.Printf("push channel close error: %v", err)
	}
	if err := local.Close(); err != nil {
		log.Printf("local store close error: %v", err)
	}
	log.Println("Stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
