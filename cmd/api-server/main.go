package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/hivoco/flipbook-api/internal/apperr"
	"github.com/hivoco/flipbook-api/internal/assets"
	"github.com/hivoco/flipbook-api/internal/auth"
	"github.com/hivoco/flipbook-api/internal/brochure"
	"github.com/hivoco/flipbook-api/internal/contact"
	"github.com/hivoco/flipbook-api/internal/httpx"
	"github.com/hivoco/flipbook-api/internal/live"
	"github.com/hivoco/flipbook-api/internal/medialink"
	"github.com/hivoco/flipbook-api/internal/objectstore"
	"github.com/hivoco/flipbook-api/internal/store"
	"github.com/hivoco/flipbook-api/internal/tts"
	"github.com/hivoco/flipbook-api/pkg/database"
	"github.com/hivoco/flipbook-api/pkg/logging"
	"github.com/hivoco/flipbook-api/pkg/utils"
)

type stores struct {
	brochures  store.Brochures
	mediaLinks store.MediaLinks
	desc       string
	close      func()
}

func main() {
	cfg, err := utils.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	log := logging.Component("api")

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := openStores(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.close()

	reg := prometheus.DefaultRegisterer
	objects, memObjects, err := openObjects(cfg, reg)
	if err != nil {
		log.Fatalf("object store: %v", err)
	}

	contacts := contact.Default()
	if cfg.ContactsFile != "" {
		contacts, err = contact.LoadFile(cfg.ContactsFile)
		if err != nil {
			log.Fatalf("contacts: %v", err)
		}
	}

	hub := live.NewHub(0, logging.Component("live"))

	tokens := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}
	guard := auth.Middleware(tokens, logging.Component("auth"))
	if guard == nil {
		log.Warn("FLIPBOOK_AUTH_JWT_SECRET not set, write routes are open")
	}

	var speech tts.Provider = tts.NewElevenLabs(cfg.TTS.APIKey, cfg.TTS.BaseURL, cfg.TTS.Timeout)
	if cfg.TTS.APIKey == "" {
		log.Warn("no ElevenLabs API key, using silent mock audio")
		speech = tts.Mock{}
	}

	brochureSvc := brochure.NewService(brochure.Deps{
		Brochures:   st.brochures,
		MediaLinks:  st.mediaLinks,
		Objects:     objects,
		Contacts:    contacts,
		Events:      hub,
		Log:         logging.Component("brochure"),
		FanoutLimit: cfg.FanoutLimit,
		PresignTTL:  cfg.ObjectStore.PresignTTL,
	})
	linkSvc := medialink.NewService(medialink.Deps{
		Brochures:   st.brochures,
		MediaLinks:  st.mediaLinks,
		Objects:     objects,
		Events:      hub,
		Log:         logging.Component("medialink"),
		FanoutLimit: cfg.FanoutLimit,
	})
	ttsSvc := tts.NewService(speech, objects, hub, logging.Component("tts"))
	assetSvc := assets.NewService(objects, logging.Component("assets"))

	imageLimits := httpx.UploadLimits{MaxFiles: cfg.Uploads.MaxImageFiles, MaxFileSize: cfg.Uploads.MaxImageBytes}
	mediaLimits := httpx.UploadLimits{MaxFiles: cfg.Uploads.MaxMediaFiles, MaxFileSize: cfg.Uploads.MaxMediaBytes}

	metrics, err := httpx.NewMetrics(reg)
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	router := gin.New()
	_ = router.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	router.Use(
		gin.Recovery(),
		httpx.RequestID(),
		httpx.Logger(logging.Component("http")),
		metrics.Middleware(),
		httpx.DevMode(cfg.IsDevelopment()),
		cors.New(corsConfig(cfg.HTTP.CORSOrigins)),
	)

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API is working")
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": st.desc})
	})
	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := st.brochures.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":       "not_ready",
				"store_error":  err.Error(),
				"live_rooms":   stats.Rooms,
				"live_clients": stats.Clients,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":       "ready",
			"store":        "ok",
			"live_rooms":   stats.Rooms,
			"live_clients": stats.Clients,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/live/brochures/:name", live.WSHandler(hub))

	if memObjects != nil {
		router.GET("/objects/*key", serveMemoryObject(memObjects))
	}

	brochures := router.Group("/brochure")
	brochure.NewHandler(brochureSvc, imageLimits, guard).RegisterRoutes(brochures)
	tts.NewHandler(ttsSvc, guard).RegisterRoutes(brochures)
	assets.NewHandler(assetSvc, mediaLimits, cfg.FanoutLimit, guard).RegisterRoutes(brochures)

	medialink.NewHandler(linkSvc, imageLimits, guard).RegisterRoutes(router.Group("/link"))

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTP.Addr).WithField("store", st.desc).Info("HTTP API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Errorf("server error: %v", err)
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http shutdown error: %v", err)
	}
	log.Info("server stopped")
}

func openStores(cfg *utils.Config) (*stores, error) {
	switch strings.ToLower(cfg.Store.Backend) {
	case "sqlite":
		dbCfg := database.Config{Path: cfg.Store.SQLitePath}
		if err := database.EnsureDataDir(dbCfg); err != nil {
			return nil, err
		}
		db := database.MustOpen(dbCfg)
		if err := database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &stores{
			brochures:  store.NewSQLiteBrochures(db),
			mediaLinks: store.NewSQLiteMediaLinks(db),
			desc:       "sqlite:" + dbCfg.Path,
			close:      func() { _ = db.Close() },
		}, nil

	case "mongo", "":
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		client, db, err := database.OpenMongo(ctx, database.MongoConfig{
			URI:      cfg.Store.MongoURI,
			Database: cfg.Store.MongoDatabase,
		})
		if err != nil {
			return nil, err
		}
		return &stores{
			brochures:  store.NewMongoBrochures(db),
			mediaLinks: store.NewMongoMediaLinks(db),
			desc:       "mongo:" + cfg.Store.MongoDatabase,
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(ctx)
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// openObjects returns the instrumented gateway and, for the memory
// backend, the underlying store so the server can serve its objects.
func openObjects(cfg *utils.Config, reg prometheus.Registerer) (objectstore.Gateway, *objectstore.MemoryGateway, error) {
	var (
		inner objectstore.Gateway
		mem   *objectstore.MemoryGateway
	)

	oc := cfg.ObjectStore
	switch strings.ToLower(oc.Backend) {
	case "memory":
		base := oc.PublicBaseURL
		if base == "" {
			base = "http://localhost" + cfg.HTTP.Addr + "/objects"
		}
		mem = objectstore.NewMemoryGateway(base)
		inner = mem
	case "s3", "minio", "":
		g, err := objectstore.NewMinioGateway(objectstore.MinioConfig{
			Endpoint:      oc.Endpoint,
			Region:        oc.Region,
			Bucket:        oc.Bucket,
			AccessKey:     oc.AccessKey,
			SecretKey:     oc.SecretKey,
			UseSSL:        oc.UseSSL,
			PublicBaseURL: oc.PublicBaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := g.Ping(ctx); err != nil {
			logging.Component("api").WithError(err).Warn("object store bucket check failed")
		}
		inner = g
	default:
		return nil, nil, fmt.Errorf("unknown object store backend %q", oc.Backend)
	}

	instrumented, err := objectstore.NewInstrumented(inner, reg)
	if err != nil {
		return nil, nil, err
	}
	return instrumented, mem, nil
}

func serveMemoryObject(g *objectstore.MemoryGateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		data, ct, ok := g.Get(key)
		if !ok {
			httpx.Fail(c, apperr.NotFound("Object not found"))
			return
		}
		c.Data(http.StatusOK, ct, data)
	}
}

func corsConfig(origins []string) cors.Config {
	cc := cors.DefaultConfig()
	cc.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cc.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", httpx.RequestIDHeader}
	cc.ExposeHeaders = []string{httpx.RequestIDHeader}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cc
}
