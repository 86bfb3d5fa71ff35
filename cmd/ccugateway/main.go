package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"ccugateway/config"
	"ccugateway/engine"
	"ccugateway/gateway"
	"ccugateway/messaging"
	"ccugateway/registry"
	"ccugateway/statecache"
	"ccugateway/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "ccugateway.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("ccugateway", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Registry catalog; a configured path that cannot load is fatal.
	reg, err := registry.Load(cfg.Registry.CatalogPath)
	if err != nil {
		log.Fatalf("load registry: %v", err)
	}
	log.Printf("ccugateway: registry loaded (%d modules)", len(reg.Modules()))

	bus := engine.NewEventBus()

	// Optional Kafka analytics fan-out.
	exporter := messaging.NewExporter(&cfg.Export)
	if exporter != nil {
		log.Printf("ccugateway: kafka export enabled (%s)", cfg.Export.Topic)
		defer exporter.Close()
	}

	// MQTT client and gateway. The gateway is handed to the client after
	// construction; the client replays retained messages on every connect
	// and the gateway's merge rules make that safe.
	client := messaging.NewClient(&cfg.Broker, reg.AllSubscriptions())
	gw := gateway.New(cfg, reg, client, exporter, bus)
	client.SetGateway(gw)
	client.SetConnectionListener(func(connected bool, detail string) {
		t := engine.EventBrokerConnected
		if !connected {
			t = engine.EventBrokerDisconnected
		}
		bus.Emit(engine.Event{Type: t, Payload: engine.ConnectionEvent{Detail: detail}})
	})

	if err := client.Connect(); err != nil {
		// The paho retry loop keeps dialing in the background; state
		// rebuilds from retained messages once the broker appears.
		log.Printf("ccugateway: broker not reachable yet (%v)", err)
	}
	defer client.Close()

	// Optional Redis snapshot mirror.
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("ccugateway: redis not available (%v), running without mirror", err)
		} else {
			log.Printf("ccugateway: redis connected (%s)", cfg.Redis.Address)
			mirror := statecache.NewMirror(statecache.NewStore(redisClient), gw, bus)
			mirror.Start()
			defer mirror.Stop()
		}
		cancel()
		defer redisClient.Close()
	}

	// Operator poll surface.
	handler, stopWeb := www.NewRouter(gw, bus)
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		log.Printf("ccugateway: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("ccugateway: ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("ccugateway: shutting down...")
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("ccugateway: stopped")
}
