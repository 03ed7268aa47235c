// Package bootstrap assembles a supervised application: config
// validation, logger initialization, the service registry, the
// optional admin server, and signal-driven graceful shutdown.
//
//	var cfg AppConfig
//	config.LoadConfig("supervisor", &cfg)
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.Registry.Register(service.Description{ID: "db", Instance: db})
//	app.Run(context.Background())
package bootstrap
