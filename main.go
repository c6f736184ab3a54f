package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/notdezzi/freedomtalk/config"
	"github.com/notdezzi/freedomtalk/logger"
	"github.com/notdezzi/freedomtalk/middleware"
	"github.com/notdezzi/freedomtalk/module/user"
	"github.com/notdezzi/freedomtalk/service/bridge"
	"github.com/notdezzi/freedomtalk/service/chat"
	"github.com/notdezzi/freedomtalk/service/storage"
	redisx "github.com/notdezzi/freedomtalk/service/storage/redis"
	"github.com/notdezzi/freedomtalk/tools/ids"
	"github.com/notdezzi/freedomtalk/tools/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}
	ids.SetNodeID(cfg.NodeID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := redisx.Init(redisx.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}); err != nil {
		logger.Errorf("redis: %v", err)
		os.Exit(1)
	}
	defer func() { _ = redisx.Close() }()

	store, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Errorf("mongo: %v", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close(context.Background()) }()

	var br bridge.Bridge
	switch cfg.Broker {
	case "nats":
		br, err = bridge.NewNatsBridge(bridge.NatsConfig{
			Servers: cfg.NatsServers,
			Name:    cfg.GatewayID,
		})
		if err != nil {
			logger.Errorf("nats: %v", err)
			os.Exit(1)
		}
	default:
		br = bridge.NewRedisBridge(redisx.Client())
	}
	defer func() { _ = br.Close() }()

	jwtOpts := security.Options{Secret: []byte(cfg.JWTSecret), Alg: "HS256", TTL: cfg.JWTTTL}
	verifier := chat.NewJWTVerifier(jwtOpts)

	srv := chat.NewServer(chat.Options{
		GatewayID:     cfg.GatewayID,
		Verifier:      verifier,
		Store:         store,
		Bridge:        br,
		PresenceKeys:  storage.NewPresenceKeys(redisx.Client(), cfg.PresenceTTL),
		PresenceTopic: cfg.PresenceTopic,
		AuthFailMode:  cfg.AuthFailMode,
	})

	// standing subscription first, so no presence window is missed after
	// the listener opens
	unsubscribe, err := srv.Start(context.Background())
	if err != nil {
		logger.Errorf("bridge subscribe: %v", err)
		os.Exit(1)
	}
	defer unsubscribe()

	users := user.NewHandler(store, jwtOpts)

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/ws", srv.HandleWS)
	r.POST("/login", users.Login)
	r.GET("/me", middleware.Auth(verifier), users.Me)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "gateway": cfg.GatewayID})
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		logger.Infof("[http] listening on %s gateway=%s broker=%s", cfg.HTTPAddr, cfg.GatewayID, cfg.Broker)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	srv.Shutdown()
}
