package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/target/mmk-ui-client/internal/api"
	"github.com/target/mmk-ui-client/internal/apiclient"
)

type historyOptions struct {
	Page     int
	PageSize int
	All      bool
}

type uploadOptions struct {
	File  string
	To    string
	Quiet bool
}

func runHealth(cmdCtx *commandContext, _ []string) error {
	return withRuntime(cmdCtx, func(rt *runtime) error {
		var (
			metrics  api.HealthMetrics
			schedule []api.ScheduleItem
		)
		g, gctx := errgroup.WithContext(cmdCtx.Ctx)
		g.Go(func() error {
			var err error
			metrics, err = rt.Health.TodayMetrics(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			schedule, err = rt.Health.TodaySchedule(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return fmt.Errorf("load dashboard: %w", err)
		}

		tw := tabwriter.NewWriter(cmdCtx.Out, 0, 0, 2, ' ', 0)
		if err := writef(tw, "Steps:\t%d\nHeart rate:\t%d bpm\nSleep:\t%.1f h\nWater:\t%d ml\nCalories:\t%d kcal\n",
			metrics.Steps, metrics.HeartRate, metrics.SleepHours, metrics.WaterML, metrics.Calories); err != nil {
			return fmt.Errorf("print metrics: %w", err)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if err := writef(cmdCtx.Out, "\nSchedule (%d items)\n", len(schedule)); err != nil {
			return fmt.Errorf("print schedule header: %w", err)
		}
		return printSchedule(cmdCtx, schedule)
	})
}

func printSchedule(cmdCtx *commandContext, items []api.ScheduleItem) error {
	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 0, 2, ' ', 0)
	for _, item := range items {
		mark := " "
		if item.Completed {
			mark = "x"
		}
		if err := writef(tw, "[%s]\t%s\t%s\t%s\t%s\n", mark, item.ID, item.Time, item.Title, item.Category); err != nil {
			return fmt.Errorf("print schedule item: %w", err)
		}
	}
	return tw.Flush()
}

func parseHistoryFlags(cmdCtx *commandContext, args []string) (historyOptions, error) {
	fs := flag.NewFlagSet("schedule-history", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Err)

	var opts historyOptions
	fs.IntVar(&opts.Page, "page", 1, "Page number (1-based)")
	fs.IntVar(&opts.PageSize, "page-size", 20, "Items per page")
	fs.BoolVar(&opts.All, "all", false, "Follow every page starting at --page")
	if err := fs.Parse(args); err != nil {
		return historyOptions{}, err
	}
	if opts.Page < 1 {
		return historyOptions{}, errors.New("--page must be >= 1")
	}
	if opts.PageSize < 1 || opts.PageSize > 200 {
		return historyOptions{}, errors.New("--page-size must be between 1 and 200")
	}
	return opts, nil
}

func runScheduleHistory(cmdCtx *commandContext, args []string) error {
	opts, err := parseHistoryFlags(cmdCtx, args)
	if err != nil {
		return err
	}

	return withRuntime(cmdCtx, func(rt *runtime) error {
		params := api.PageParams{Page: opts.Page, PageSize: opts.PageSize}
		for {
			page, err := rt.Health.ScheduleHistory(cmdCtx.Ctx, params)
			if err != nil {
				return fmt.Errorf("load schedule history: %w", err)
			}
			if err := writef(cmdCtx.Out, "Page %d/%d (%d total)\n", page.Page, page.Pages(), page.Total); err != nil {
				return fmt.Errorf("print page header: %w", err)
			}
			if err := printSchedule(cmdCtx, page.List); err != nil {
				return err
			}
			if !opts.All || !page.HasNext() {
				return nil
			}
			params.Page++
		}
	})
}

func runComplete(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("complete", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Err)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: complete <schedule-id>")
	}

	return withRuntime(cmdCtx, func(rt *runtime) error {
		if err := rt.Health.CompleteSchedule(cmdCtx.Ctx, fs.Arg(0)); err != nil {
			return err
		}
		return writef(cmdCtx.Out, "Completed %s\n", strings.TrimSpace(fs.Arg(0)))
	})
}

func parseUploadFlags(cmdCtx *commandContext, args []string) (uploadOptions, error) {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Err)

	var opts uploadOptions
	fs.StringVar(&opts.File, "file", "", "Path of the file to upload (required)")
	fs.StringVar(&opts.To, "to", "", "API path to post to, relative to API_BASE_URL (required)")
	fs.BoolVar(&opts.Quiet, "quiet", false, "Do not print progress")
	if err := fs.Parse(args); err != nil {
		return uploadOptions{}, err
	}
	if strings.TrimSpace(opts.File) == "" || strings.TrimSpace(opts.To) == "" {
		return uploadOptions{}, errors.New("--file and --to are required")
	}
	return opts, nil
}

func runUpload(cmdCtx *commandContext, args []string) error {
	opts, err := parseUploadFlags(cmdCtx, args)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.File)
	if err != nil {
		return fmt.Errorf("open upload file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat upload file: %w", err)
	}

	var progress apiclient.ProgressFunc
	if !opts.Quiet {
		progress = func(percent int) {
			_ = writef(cmdCtx.Err, "\ruploading %s: %3d%%", filepath.Base(opts.File), percent)
		}
	}

	return withRuntime(cmdCtx, func(rt *runtime) error {
		raw, err := rt.Client.Upload(cmdCtx.Ctx, opts.To, apiclient.UploadFile{
			Name:   filepath.Base(opts.File),
			Reader: f,
			Size:   info.Size(),
		}, progress, apiclient.RequestConfig{})
		if !opts.Quiet {
			_ = writeln(cmdCtx.Err, "")
		}
		if err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		return printRawJSON(cmdCtx, raw)
	})
}

func printRawJSON(cmdCtx *commandContext, raw json.RawMessage) error {
	if len(raw) == 0 {
		return writeln(cmdCtx.Out, "null")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return writeln(cmdCtx.Out, string(raw))
	}
	enc := json.NewEncoder(cmdCtx.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
