package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tabweave/tabweave/cmd/tabweaved/handlers"
	"github.com/tabweave/tabweave/pkg/artifact"
	artlocal "github.com/tabweave/tabweave/pkg/artifact/local"
	arts3 "github.com/tabweave/tabweave/pkg/artifact/s3"
	kcs "github.com/tabweave/tabweave/pkg/configs/server"
	kpool "github.com/tabweave/tabweave/pkg/conn/db/postgres/pool"
	"github.com/tabweave/tabweave/pkg/domain"
	dspostgres "github.com/tabweave/tabweave/pkg/domain/dataset/db/postgres"
	"github.com/tabweave/tabweave/pkg/domain/pipeline"
	"github.com/tabweave/tabweave/pkg/domain/run"
	"github.com/tabweave/tabweave/pkg/domain/schema"
	"github.com/tabweave/tabweave/pkg/hook"
	"github.com/tabweave/tabweave/pkg/utils/echoutil"
	"github.com/tabweave/tabweave/pkg/utils/filewatch"
)

func main() {

	configPath := flag.String("config-path", "", "server config path")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	// set log
	echoutil.SetLevel(e, *loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	// read configfile
	conf, err := kcs.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}

	declared, err := schema.Load(conf.Schema())
	if err != nil {
		log.Fatalf("can not read schema declaration: %s", err)
	}

	ctx := context.Background()

	pool, err := kpool.Connect(ctx, conf.Dataset().URI())
	if err != nil {
		log.Fatalf("can not connect to dataset database: %s", err)
	}
	defer pool.Close()
	source := dspostgres.New(pool)

	store, err := getStore(ctx, conf.Artifacts())
	if err != nil {
		log.Fatalf("can not open artifact store: %s", err)
	}

	registry := run.NewRegistry(store)
	cache := run.NewCache(registry)

	if !conf.Artifacts().IsS3() {
		// runs written from outside this process (another replica,
		// manual cleanup) also outdate the cache.
		modified, err := filewatch.Modified(ctx, artlocal.RunsRoot(conf.Artifacts().Root()))
		if err != nil {
			log.Fatalf("can not watch artifact store: %s", err)
		}
		go func() {
			for range modified {
				cache.Invalidate()
			}
		}()
	}

	tracker, err := getTracker(conf.Tracker())
	if err != nil {
		log.Fatalf("can not set experiment tracker: %s", err)
	}

	training := &pipeline.Training{
		Source:     source,
		Collection: conf.Dataset().Collection(),
		Schema:     declared,
		Store:      store,
		Train:      conf.Training().Train(),
		TestRatio:  conf.Training().TestRatio(),
		Tracker:    tracker,
	}
	prediction := &pipeline.Prediction{Store: store, Latest: cache}

	// handlers
	e.POST("/api/train/", handlers.TrainHandler(training, cache.Invalidate))
	e.POST("/api/predict/", handlers.PredictHandler(prediction))
	e.GET("/api/runs/", handlers.FindRunHandler(registry))
	e.GET("/api/runs/:runId/", handlers.GetRunHandler(registry))

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	cert, key := *pcert, *pkey
	if cert != "" && key != "" {
		e.Logger.Fatal(e.StartTLS(fmt.Sprintf(":%d", conf.Port()), cert, key))
	} else {
		e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", conf.Port())))
	}
}

func getStore(ctx context.Context, conf *kcs.ArtifactsConfig) (artifact.Store, error) {
	if conf.IsS3() {
		return arts3.New(ctx, conf.Bucket(), conf.Prefix())
	}
	return artlocal.New(conf.Root())
}

func getTracker(conf *kcs.TrackerConfig) (hook.Hook[domain.Run], error) {
	if conf == nil {
		return hook.None[domain.Run]{}, nil
	}

	web := hook.Web[domain.Run]{}
	if before := conf.BeforeURL(); before != "" {
		u, err := url.Parse(before)
		if err != nil {
			return nil, err
		}
		web.BeforeURL = []*url.URL{u}
	}
	if after := conf.AfterURL(); after != "" {
		u, err := url.Parse(after)
		if err != nil {
			return nil, err
		}
		web.AfterURL = []*url.URL{u}
	}
	return web, nil
}
