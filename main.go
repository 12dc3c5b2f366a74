package main

import (
	"log"
	"os"

	"github.com/dtnitsch/spotistats/internal/pipeline"
	"github.com/dtnitsch/spotistats/models"
	"github.com/urfave/cli/v2"
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "db",
			Value: models.DefaultDB,
			Usage: "SQLite database file",
		},
		&cli.StringFlag{
			Name:  "table",
			Value: models.DefaultTable,
			Usage: "Table the songs are written to and read from (replaced on every run)",
		},
		&cli.StringFlag{
			Name:  "export-dir",
			Usage: "Also write each chart's data to <dir>/<chart>.yaml",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: "text",
			Usage: "Summary format: text, yaml or json",
		},
		&cli.BoolFlag{
			Name:  "no-charts",
			Usage: "Skip drawing charts in the terminal",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only log errors",
		},
	}
}

func runFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.StringFlag{
			Name:  "url",
			Value: models.DefaultURL,
			Usage: "Page holding the most-streamed songs table",
		},
		&cli.IntFlag{
			Name:  "preview",
			Value: 3,
			Usage: "Number of normalized rows to print before saving",
		},
	)
}

func main() {
	app := &cli.App{
		Name:   "spotistats",
		Usage:  "Scrape the most-streamed Spotify songs table, store it in SQLite and chart it",
		Flags:  runFlags(),
		Action: pipeline.RunAction,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Fetch, normalize, save, reload and chart (default)",
				Flags:  runFlags(),
				Action: pipeline.RunAction,
			},
			{
				Name:   "charts",
				Usage:  "Chart a table saved by a previous run",
				Flags:  commonFlags(),
				Action: pipeline.ChartsAction,
			},
			{
				Name:  "show",
				Usage: "Print rows of a table saved by a previous run",
				Flags: append(commonFlags(), &cli.IntFlag{
					Name:  "limit",
					Value: 10,
					Usage: "Number of rows to print",
				}),
				Action: pipeline.ShowAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
