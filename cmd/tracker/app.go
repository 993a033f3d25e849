package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cryptotracker/config"
	"cryptotracker/internal/collector"
	"cryptotracker/internal/market"
	"cryptotracker/internal/report"
	"cryptotracker/internal/scheduler"
	"cryptotracker/internal/sink/excel"
	"cryptotracker/internal/sink/export"
	"cryptotracker/internal/sink/sheets"
	"cryptotracker/internal/stats"
	"cryptotracker/logger"
	"cryptotracker/pkg/coingecko"
	"cryptotracker/pkg/storage/postgres"

	"go.uber.org/zap"
)

type app struct {
	cfg *config.Config
	log *zap.Logger

	params  config.ParameterGetter
	closers []func() error
}

// withApp loads the config, builds the logger and runs fn, releasing every
// resource fn acquired through the app afterwards.
func withApp(configPath string, fn func(*app) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	a := &app{cfg: cfg, log: log}
	defer a.close()

	if err := fn(a); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error("tracker failed", zap.Error(err))
		}
		return err
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("failed to release resource", zap.Error(err))
		}
	}
}

func (a *app) parameterStore(ctx context.Context) (config.ParameterGetter, error) {
	if a.params != nil {
		return a.params, nil
	}
	store, err := config.NewParameterStore(ctx)
	if err != nil {
		return nil, err
	}
	a.params = store
	return store, nil
}

func (a *app) run(ctx context.Context) error {
	c, err := a.collector(ctx)
	if err != nil {
		return err
	}

	s := scheduler.New(a.cfg.Schedule.Interval, a.cfg.Schedule.Align, a.log)
	a.log.Info("starting tracker", zap.Duration("interval", s.Interval), zap.Bool("align", s.Align))
	if err := s.Run(ctx, c.RunOnce); err != nil {
		return err
	}
	a.log.Info("tracker stopped")
	return nil
}

func (a *app) once(ctx context.Context) error {
	c, err := a.collector(ctx)
	if err != nil {
		return err
	}
	return c.RunOnce(ctx)
}

// collector wires the fetcher and every enabled sink, in write order:
// excel, sheets, postgres, export, report.
func (a *app) collector(ctx context.Context) (*collector.Collector, error) {
	mc := a.cfg.Market
	params := coingecko.DefaultMarketsParams()
	params.VsCurrency = mc.VsCurrency
	params.PerPage = mc.PageSize

	client := coingecko.NewRESTClient(mc.BaseURL, mc.Timeout, mc.RequestsPerMin).WithParams(params)
	a.closers = append(a.closers, client.Close)

	var sinks []collector.Sink

	if a.cfg.Excel.Enabled {
		sinks = append(sinks, excel.NewWriter(a.cfg.Excel.Path, a.cfg.Excel.SheetName, a.log))
	}

	if a.cfg.Sheets.Enabled {
		w, err := a.sheetsWriter(ctx)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, w)
	}

	if a.cfg.Postgres.Enabled {
		var store config.ParameterGetter
		if a.cfg.Env == "prod" {
			s, err := a.parameterStore(ctx)
			if err != nil {
				return nil, err
			}
			store = s
		}
		db, err := postgres.InitializeAndMigrate(ctx, a.cfg.Postgres, a.cfg.Env, store, true)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		sinks = append(sinks, db)
	}

	if a.cfg.Export.Format != "" {
		s, err := export.NewSink(a.cfg.Export.Dir, a.cfg.Export.Format, a.log)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if a.cfg.Report.Enabled {
		sinks = append(sinks, report.Sink{Generator: a.reportGenerator()})
	}

	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = s.Name()
	}
	a.log.Info("collector ready", zap.String("base_url", mc.BaseURL), zap.Strings("sinks", names))

	return collector.New(client, a.log, sinks...), nil
}

func (a *app) sheetsWriter(ctx context.Context) (*sheets.Writer, error) {
	sc := a.cfg.Sheets

	var store sheets.ParameterGetter
	if sc.CredentialsParameter != "" {
		s, err := a.parameterStore(ctx)
		if err != nil {
			return nil, err
		}
		store = s
	}

	creds, err := sheets.Credentials(ctx, sc.CredentialsPath, sc.CredentialsParameter, store)
	if err != nil {
		return nil, err
	}
	ws, err := sheets.Open(ctx, creds, sc.SpreadsheetID, sc.SpreadsheetName)
	if err != nil {
		return nil, err
	}
	a.log.Info("google sheet opened", zap.String("id", ws.ID()), zap.String("worksheet", ws.Title()))
	return sheets.NewWriter(ws, a.log), nil
}

func (a *app) reportGenerator() *report.Generator {
	return report.NewGenerator(a.cfg.Report.Path, a.cfg.Report.TopN, a.log)
}

// analyze prints the statistics of the stored spreadsheet without fetching.
func (a *app) analyze(w io.Writer) error {
	table, err := excel.Read(a.cfg.Excel.Path)
	if err != nil {
		return fmt.Errorf("error reading excel file: %w", err)
	}

	s, err := stats.Summarize(table, a.cfg.Report.TopN)
	if errors.Is(err, market.ErrNoData) {
		_, err = fmt.Fprintln(w, "No data available in the Excel file.")
		return err
	}
	if err != nil {
		return err
	}
	return stats.WriteText(w, s)
}

// report renders the PDF from the stored spreadsheet. An empty sheet only
// logs, matching the scheduled report sink.
func (a *app) report() error {
	table, err := excel.Read(a.cfg.Excel.Path)
	if err != nil {
		return fmt.Errorf("error reading excel file: %w", err)
	}
	if err := a.reportGenerator().Generate(table); err != nil && !errors.Is(err, market.ErrNoData) {
		return err
	}
	return nil
}
