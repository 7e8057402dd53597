package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pdfcore/internal/core"
	"pdfcore/internal/sampler"
	"pdfcore/pkg/domain"
)

func parseID(s string) (core.DistributionID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid distribution id %q", s)
	}
	return core.DistributionID(v), nil
}

func parseIDs(args []string) ([]core.DistributionID, error) {
	ids := make([]core.DistributionID, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (a *app) newCmd() *cobra.Command {
	var empty, force bool
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a session seeded with a standard normal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if a.file != "" && !force {
				if err := a.load(ctx, true); err != nil {
					return err
				}
				if len(a.svc.List()) > 0 {
					return fmt.Errorf("session file %s already exists; use --force to replace it", a.file)
				}
			}
			if !empty {
				if _, err := a.svc.EnsureDefault(ctx); err != nil {
					return err
				}
			}
			if err := a.save(ctx); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "created session with %d distribution(s)\n", len(a.svc.List()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&empty, "empty", false, "do not seed the default distribution")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing session file")
	return cmd
}

func (a *app) inspectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List distributions and display settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx, false); err != nil {
				return err
			}
			if asJSON {
				data, err := a.svc.SaveSession(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.stdout, string(data))
				return err
			}
			return a.printSession()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the session document")
	return cmd
}

func (a *app) printSession() error {
	list := a.svc.List()
	byID := make(map[core.DistributionID]core.Distribution, len(list))
	for _, d := range list {
		byID[d.ID] = d
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tMEAN\tSTD\tPARENTS")
	for _, d := range list {
		kind := string(d.Kind)
		if d.IsProduct() && len(domain.MissingParents(byID, d)) > 0 {
			kind += " (stale)"
		}
		parents := make([]string, len(d.ParentIDs))
		for i, pid := range d.ParentIDs {
			parents[i] = pid.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.6g\t%.6g\t%s\n", d.ID, d.Name, kind, d.Mean, d.StdDev, strings.Join(parents, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	s := a.svc.Settings()
	_, err := fmt.Fprintf(a.stdout, "shading=%t opacity=%.2f std_markers=%t\n", s.ShowShading, s.ShadingOpacity, s.ShowStdMarkers)
	return err
}

func (a *app) leafCmd() *cobra.Command {
	var mean, std float64
	cmd := &cobra.Command{
		Use:   "leaf [name]",
		Short: "Add a distribution with the given mean and standard deviation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return a.edit(cmd.Context(), func(ctx context.Context) (core.Result, error) {
				d, res, err := a.svc.CreateLeaf(ctx, name, mean, std)
				if err == nil {
					fmt.Fprintf(a.stdout, "%s %s\n", d.ID, d.Name)
				}
				return res, err
			})
		},
	}
	cmd.Flags().Float64Var(&mean, "mean", 0, "mean")
	cmd.Flags().Float64Var(&std, "std", 1, "standard deviation, positive")
	return cmd
}

func (a *app) multiplyCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "multiply ID ID [ID...]",
		Short: "Add the normalized product of the given distributions",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return a.edit(cmd.Context(), func(ctx context.Context) (core.Result, error) {
				d, res, err := a.svc.CreateProductFromSelection(ctx, name, core.NewSelection(ids...))
				if err == nil {
					fmt.Fprintf(a.stdout, "%s %s mean=%.6g std=%.6g\n", d.ID, d.Name, d.Mean, d.StdDev)
				}
				return res, err
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "product name")
	return cmd
}

func (a *app) setCmd() *cobra.Command {
	var mean, std float64
	cmd := &cobra.Command{
		Use:   "set ID",
		Short: "Change a leaf's parameters; products that depend on it follow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.edit(cmd.Context(), func(ctx context.Context) (core.Result, error) {
				current, ok := a.svc.Get(id)
				if !ok {
					return core.Result{}, fmt.Errorf("distribution %s not found", id)
				}
				m, s := current.Mean, current.StdDev
				if cmd.Flags().Changed("mean") {
					m = mean
				}
				if cmd.Flags().Changed("std") {
					s = std
				}
				_, res, err := a.svc.SetLeafParameters(ctx, id, m, s)
				if err == nil {
					for _, pid := range a.svc.LastPropagation().Recomputed {
						if p, ok := a.svc.Get(pid); ok {
							fmt.Fprintf(a.stdout, "recomputed %s %s mean=%.6g std=%.6g\n", p.ID, p.Name, p.Mean, p.StdDev)
						}
					}
				}
				return res, err
			})
		},
	}
	cmd.Flags().Float64Var(&mean, "mean", 0, "new mean")
	cmd.Flags().Float64Var(&std, "std", 0, "new standard deviation")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove one distribution; products built from it keep their last values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.edit(cmd.Context(), func(ctx context.Context) (core.Result, error) {
				byID := make(map[core.DistributionID]core.Distribution)
				for _, d := range a.svc.List() {
					byID[d.ID] = d
				}
				res, err := a.svc.DeleteDistribution(ctx, id)
				if err == nil {
					for _, pid := range domain.Dependents(byID, id) {
						fmt.Fprintf(a.stdout, "frozen %s %s\n", pid, byID[pid].Name)
					}
				}
				return res, err
			})
		},
	}
}

func (a *app) settingsCmd() *cobra.Command {
	var shading, markers bool
	var opacity float64
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Change the display settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.edit(cmd.Context(), func(ctx context.Context) (core.Result, error) {
				_, res, err := a.svc.UpdateSettings(ctx, func(s *core.DisplaySettings) error {
					if cmd.Flags().Changed("shading") {
						s.ShowShading = shading
					}
					if cmd.Flags().Changed("opacity") {
						s.ShadingOpacity = opacity
					}
					if cmd.Flags().Changed("markers") {
						s.ShowStdMarkers = markers
					}
					return nil
				})
				return res, err
			})
		},
	}
	cmd.Flags().BoolVar(&shading, "shading", true, "fill the area under each curve")
	cmd.Flags().Float64Var(&opacity, "opacity", 0.3, "shading opacity in [0,1]")
	cmd.Flags().BoolVar(&markers, "markers", true, "draw standard deviation markers")
	return cmd
}

// view resolves the plotting window: explicit bounds win, then the auto fit,
// then the default view.
func (a *app) view(cmd *cobra.Command, lo, hi float64) sampler.View {
	view := sampler.DefaultView
	if bounds, ok := a.svc.AutoFit(); ok {
		view = bounds.View
	}
	if cmd.Flags().Changed("min") {
		view.Min = lo
	}
	if cmd.Flags().Changed("max") {
		view.Max = hi
	}
	return view
}
