package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/Giulio2002/chainkv"
)

type metadata struct {
	datadir string
	backend chainkv.Backend
	log     *zap.Logger
	w       io.Writer
}

func main() {
	app := cli.NewApp()
	app.Name = "chainkv"
	app.Usage = "inspect a chain database"
	app.Version = chainkv.Version()

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "datadir, d",
			Value:  "",
			Usage:  "database `DIR`",
			EnvVar: "CHAINKV_DATADIR",
		},
		cli.StringFlag{
			Name:   "backend, b",
			Value:  string(chainkv.BackendMDBX),
			Usage:  "storage `ENGINE`",
			EnvVar: "CHAINKV_BACKEND",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "development logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "init",
			Usage:  "create the database and its tables",
			Action: runInit,
		},
		{
			Name:   "stat",
			Usage:  "print the number of entries of every table",
			Action: runStat,
		},
		{
			Name:   "tables",
			Usage:  "list the tables and their kinds",
			Action: runTables,
		},
		{
			Name:      "header",
			Usage:     "print a block header as JSON",
			ArgsUsage: "NUMBER",
			Action:    runHeader,
		},
		{
			Name:      "env",
			Usage:     "print the execution environment of a block as JSON",
			ArgsUsage: "NUMBER|0xHASH",
			Action:    runEnv,
		},
		{
			Name:      "dump",
			Usage:     "print the raw entries of a table in hex",
			ArgsUsage: "TABLE",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "limit, l",
					Value: 20,
					Usage: "stop after `N` entries, 0 for all",
				},
			},
			Action: runDump,
		},
	}

	app.Before = func(c *cli.Context) error {
		backend := chainkv.Backend(c.GlobalString("backend"))
		if !supported(backend) {
			return fmt.Errorf("backend %q is not one of %v", backend, chainkv.Backends())
		}

		var (
			log *zap.Logger
			err error
		)
		if c.GlobalBool("verbose") {
			log, err = zap.NewDevelopment()
		} else {
			log, err = zap.NewProduction()
		}
		if err != nil {
			return err
		}

		c.App.Metadata["config"] = &metadata{
			datadir: c.GlobalString("datadir"),
			backend: backend,
			log:     log,
			w:       c.App.Writer,
		}
		return nil
	}

	app.After = func(c *cli.Context) error {
		if m, ok := c.App.Metadata["config"].(*metadata); ok {
			_ = m.log.Sync()
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func supported(b chainkv.Backend) bool {
	for _, have := range chainkv.Backends() {
		if have == b {
			return true
		}
	}
	return false
}
