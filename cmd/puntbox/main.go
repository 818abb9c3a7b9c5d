package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/jkaberg/puntbox/box"
	"github.com/jkaberg/puntbox/config"
	"github.com/jkaberg/puntbox/http"
	dlog "github.com/jkaberg/puntbox/log"
	"github.com/jkaberg/puntbox/server"
	"github.com/jkaberg/puntbox/torrent"
	"github.com/jkaberg/puntbox/torrent/store"
	"github.com/jkaberg/puntbox/torrent/watchers"
)

const (
	debugFlag  = "debug"
	portFlag   = "http-port"
	ipFlag     = "http-ip"
	maxLogSize = "log-max-size"
)

func main() {
	app := &cli.App{
		Name:      "puntbox",
		Usage:     "Publish everything dropped into a directory as a seeded torrent.",
		ArgsUsage: "<box>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    debugFlag,
				EnvVars: []string{"PUNTBOX_DEBUG"},
				Usage:   "Log at debug level.",
			},
			&cli.IntFlag{
				Name:    portFlag,
				Value:   0,
				EnvVars: []string{"PUNTBOX_HTTP_PORT"},
				Usage:   "HTTP port for the read-only status API. Disabled when 0.",
			},
			&cli.StringFlag{
				Name:    ipFlag,
				Value:   "127.0.0.1",
				EnvVars: []string{"PUNTBOX_HTTP_IP"},
				Usage:   "Address the status API listens on.",
			},
			&cli.IntFlag{
				Name:    maxLogSize,
				Value:   1,
				EnvVars: []string{"PUNTBOX_LOG_MAX_SIZE"},
				Usage:   "Size in megabytes after which the log file is rotated.",
			},
		},

		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("exactly one box path is required", 2)
			}

			err := load(c.Args().First(), c.Bool(debugFlag), c.Int(maxLogSize), &config.HTTPGlobal{
				Port: c.Int(portFlag),
				IP:   c.String(ipFlag),
			})

			// stop program execution on errors to avoid flashing consoles
			if err != nil && runtime.GOOS == "windows" {
				log.Error().Err(err).Msg("problem running puntbox")
				fmt.Print("Press 'Enter' to continue...")
				bufio.NewReader(os.Stdin).ReadBytes('\n')
			}

			return err
		},

		HideHelpCommand: true,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("problem running puntbox")
	}
}

func load(boxPath string, debug bool, logSize int, httpConf *config.HTTPGlobal) error {
	layout, err := box.New(boxPath)
	if err != nil {
		return err
	}

	created, err := layout.Init()
	if err != nil {
		return fmt.Errorf("error creating box: %w", err)
	}
	if created {
		printWelcome(os.Stdout, layout)
	}

	dlog.Load(config.AddLogDefaults(&config.Log{
		Debug:   debug,
		MaxSize: logSize,
		Path:    layout.InternalDir(),
	}))

	items, err := store.NewDB(layout.DBDir())
	if err != nil {
		return fmt.Errorf("error starting item database: %w", err)
	}
	defer func() {
		log.Info().Msg("closing item database...")
		if err := items.Close(); err != nil {
			log.Warn().Err(err).Msg("problem closing item database")
		}
	}()

	fs := afero.NewOsFs()
	svc := torrent.NewService(torrent.Deps{
		Layout: layout,
		Fs:     fs,
		Items:  items,
	})
	svc.LoadConfig()

	bw, err := watchers.NewBoxWatcher(layout.Root)
	if err != nil {
		return fmt.Errorf("error creating box watcher: %w", err)
	}
	if err := bw.Start(); err != nil {
		return fmt.Errorf("error watching box: %w", err)
	}
	defer func() {
		log.Info().Msg("closing box watcher...")
		if err := bw.Close(); err != nil {
			log.Warn().Err(err).Msg("problem closing box watcher")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if httpConf.Port != 0 {
		go func() {
			err := server.StartServers(ctx, &http.Sources{
				Service:      svc,
				Items:        items,
				Fs:           fs,
				RegistryPath: layout.RegistryPath(),
				BoxPath:      layout.Root,
				LogPath:      filepath.Join(layout.InternalDir(), dlog.FileName),
			}, httpConf)
			if err != nil {
				log.Error().Err(err).Msg("error initializing HTTP server")
			}
		}()
	}

	log.Info().Str("box", layout.Root).Msg("watching box")
	if err := svc.Run(ctx, bw.Events(), bw.Errors()); err != nil {
		return fmt.Errorf("stopped on unhandled error: %w", err)
	}

	log.Info().Msg("exiting")
	return nil
}

func printWelcome(w io.Writer, l *box.Layout) {
	fmt.Fprintln(w, "Puntbox initialized!")
	fmt.Fprintf(w, "Box: %s\n", l.Root)
	fmt.Fprintf(w, "Edit %s to set your tracker and transmission url.\n", l.ConfigPath())
	fmt.Fprintf(w, "Magnet links of everything you drop in the box will be written to %s\n", l.RegistryPath())
}
