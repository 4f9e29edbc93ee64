package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
)

func runRoutes(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("routes", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Err)
	all := fs.Bool("all", false, "Include hidden routes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withRuntime(cmdCtx, func(rt *runtime) error {
		routes := rt.Routes.Visible()
		if *all {
			routes = rt.Routes.Routes()
		}

		tw := tabwriter.NewWriter(cmdCtx.Out, 0, 0, 2, ' ', 0)
		if err := writef(tw, "NAME\tPATH\tTITLE\tAUTH\tHIDDEN\n"); err != nil {
			return fmt.Errorf("print routes header: %w", err)
		}
		for _, r := range routes {
			if err := writef(tw, "%s\t%s\t%s\t%t\t%t\n",
				r.Name, r.Path, r.Meta.Title, r.Meta.NeedsAuth(), r.Meta.Hidden); err != nil {
				return fmt.Errorf("print route: %w", err)
			}
		}
		return tw.Flush()
	})
}

func runNavigate(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("navigate", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Err)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: navigate <path>")
	}
	target := strings.TrimSpace(fs.Arg(0))

	return withRuntime(cmdCtx, func(rt *runtime) error {
		res, err := rt.Navigator.Navigate(cmdCtx.Ctx, target)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmdCtx.Out, 0, 0, 2, ' ', 0)
		rows := [][2]string{
			{"Requested", res.Requested},
			{"Decision", res.Decision.Outcome.String()},
			{"Route", res.Route.Name},
			{"Path", res.FullPath},
			{"Title", res.Title},
		}
		for _, row := range rows {
			if err := writef(tw, "%s:\t%s\n", row[0], row[1]); err != nil {
				return fmt.Errorf("print navigation: %w", err)
			}
		}
		return tw.Flush()
	})
}
