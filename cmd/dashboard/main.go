package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/JasChiang/ai-video-writer-sub000/internal/app"
	"github.com/JasChiang/ai-video-writer-sub000/internal/config"
	"github.com/JasChiang/ai-video-writer-sub000/internal/constants"
	"github.com/JasChiang/ai-video-writer-sub000/internal/dashboard"
	"github.com/JasChiang/ai-video-writer-sub000/internal/domain"
	"github.com/JasChiang/ai-video-writer-sub000/internal/util"
	"go.uber.org/zap"
)

func main() {
	preset := flag.String("preset", "30d", "quick range preset: 7d, 30d, 90d, this_month, last_month")
	start := flag.String("start", "", "explicit range start (YYYY-MM-DD), overrides -preset with -end")
	end := flag.String("end", "", "explicit range end (YYYY-MM-DD)")
	metric := flag.String("metric", "views", "ranking metric: views, avg_view_percentage, shares, comments")
	refresh := flag.Bool("refresh", false, "discard cached state and re-query the primary source")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Analytics dashboard starting...",
		zap.String("channel", cfg.Channel.ID),
		zap.String("log_level", cfg.Logging.Level),
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		os.Exit(1)
	}
	defer container.Close()

	params, err := fetchParams(cfg, *preset, *start, *end, *metric)
	if err != nil {
		logger.Error("Invalid arguments", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.FetchConfig.Timeout)
	defer cancel()

	svc := container.Dashboard

	if cached, err := svc.Hydrate(ctx); err == nil && cached != nil {
		logger.Info("Previous results available",
			zap.String("range", cached.QueryRange.String()),
			zap.Time("computed_at", cached.Timestamp))
	}

	var snap *domain.DashboardSnapshot
	if *refresh {
		snap, err = svc.Refresh(ctx, params)
	} else {
		snap, err = svc.FetchDashboardData(ctx, params)
	}
	if err != nil {
		logger.Error("Dashboard fetch failed", zap.Error(err))
		os.Exit(1)
	}

	printSummary(snap)
}

func fetchParams(cfg *config.Config, preset, start, end, metric string) (dashboard.FetchParams, error) {
	params := dashboard.FetchParams{RankingMetric: domain.Metric(metric)}

	if start != "" || end != "" {
		loc := util.LoadReportingZone(cfg.Channel.Timezone)
		s, err := util.ParseDate(start, loc)
		if err != nil {
			return params, fmt.Errorf("invalid -start: %w", err)
		}
		e, err := util.ParseDate(end, loc)
		if err != nil {
			return params, fmt.Errorf("invalid -end: %w", err)
		}
		if e.Before(s) {
			return params, fmt.Errorf("-end is before -start")
		}
		params.Range = domain.DateRange{Start: s, End: e}
		return params, nil
	}

	params.QuickRange = domain.QuickRange(preset)
	return params, nil
}

func printSummary(snap *domain.DashboardSnapshot) {
	fmt.Printf("Channel:   %s\n", snap.ChannelID)
	fmt.Printf("Range:     %s\n", snap.QueryRange.String())
	fmt.Printf("Source:    %s\n", snap.Source)

	agg := snap.Aggregate
	estimated := ""
	if agg.Estimated {
		estimated = " (estimated)"
	}
	fmt.Printf("Views:     %d%s\n", agg.Views, estimated)
	fmt.Printf("Watch min: %d%s\n", agg.EstimatedWatchMinutes, estimated)
	fmt.Printf("Net subs:  %+d\n", agg.NetSubscribers())

	if cmp, ok := snap.Comparisons[domain.MetricViews]; ok && !cmp.PreviousMissing {
		fmt.Printf("Views vs previous period: %+.2f%%\n", cmp.ChangeFromPreviousPercent)
	}
	if cmp, ok := snap.Comparisons[domain.MetricViews]; ok && !cmp.YearAgoMissing {
		fmt.Printf("Views vs year ago:        %+.2f%%\n", cmp.ChangeFromYearAgoPercent)
	}

	if top := snap.TopVideos[domain.MetricViews]; len(top) > 0 {
		fmt.Println("\nTop videos by views:")
		for i, v := range top {
			fmt.Printf("  %2d. %s (%d views)\n", i+1, v.Title, v.Views)
		}
	}

	if len(snap.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range snap.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
}
