package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/utils/ptr"

	v1alpha1 "github.com/scholarship-analytics/enrollment-planner/api/v1alpha1"
)

func newForecastCmd(opts *globalOptions) *cobra.Command {
	var (
		req               v1alpha1.ForecastRequest
		marketingSpend    float64
		scholarshipEvents float64
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast enrollment for one month",
		Example: `  planner forecast
  planner forecast --mode manual --marketing-spend 750000000 --scholarship-events 20 --target 2026-02`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("marketing-spend") {
				req.MarketingSpend = ptr.To(marketingSpend)
			}
			if cmd.Flags().Changed("scholarship-events") {
				req.ScholarshipEvents = ptr.To(scholarshipEvents)
			}

			svc, _ := opts.newService(nil, nil)
			resp, err := svc.Forecast(queryContext(cmd.Context(), "forecast"), req)
			if err != nil {
				return err
			}
			if err := opts.print(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if resp.Error != "" {
				return fmt.Errorf("forecast failed: %s", resp.Error)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Mode, "mode", "auto", "scenario source: auto (historical averages) or manual")
	f.StringVar(&req.Target, "target", "", "forecast month YYYY-MM (default: current month)")
	f.Float64Var(&marketingSpend, "marketing-spend", 0, "manual marketing spend (default 500000000)")
	f.Float64Var(&scholarshipEvents, "scholarship-events", 0, "manual scholarship events (default 15)")
	f.BoolVar(&req.IncludeSeries, "series", false, "include the historical and forecast chart series")
	return cmd
}

func newCapacityCmd(opts *globalOptions) *cobra.Command {
	var (
		req             v1alpha1.CapacityRequest
		activeStudents  int
		hoursPerStudent float64
		hoursPerTutor   float64
		useForecast     bool
	)

	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Size the tutor team for a student count",
		Long: `capacity computes tutors needed, the fair maximum students per tutor and
the realized average load. The student count is --active-students when set,
else this month's forecast with --forecast, else the last historical month.`,
		Example: `  planner capacity --active-students 120
  planner capacity --forecast --profile evening --hours-per-tutor 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("active-students") {
				req.ActiveStudents = ptr.To(activeStudents)
			}
			if flags.Changed("hours-per-student") {
				req.HoursPerStudent = ptr.To(hoursPerStudent)
			}
			if flags.Changed("hours-per-tutor") {
				req.HoursPerTutor = ptr.To(hoursPerTutor)
			}

			ctx := queryContext(cmd.Context(), "capacity")
			svc, _ := opts.newService(nil, nil)
			if useForecast && req.ActiveStudents == nil {
				fc, err := svc.Forecast(ctx, v1alpha1.ForecastRequest{})
				if err != nil {
					return err
				}
				if fc.Error != "" {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(),
						"warning: forecast failed (%s); sizing for the last historical month\n", fc.Error)
				} else {
					req.PredictedStudents = ptr.To(fc.PredictedStudents)
				}
			}

			resp, err := svc.Capacity(ctx, req)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), resp)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Profile, "profile", "", "capacity profile (default: default)")
	f.IntVar(&activeStudents, "active-students", 0, "student count to size for")
	f.Float64Var(&hoursPerStudent, "hours-per-student", 0, "weekly tutoring hours per student (default: profile default)")
	f.Float64Var(&hoursPerTutor, "hours-per-tutor", 0, "weekly hours per tutor (default: profile default)")
	f.StringVar(&req.Rounding, "rounding", "", "tutor rounding: ceiling or legacy (default: profile, then config)")
	f.BoolVar(&useForecast, "forecast", false, "size for this month's auto forecast")
	return cmd
}

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var summaryOnly bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the cleaned enrollment history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _ := opts.newService(nil, nil)
			resp, err := svc.History(queryContext(cmd.Context(), "history"))
			if err != nil {
				return err
			}
			if summaryOnly {
				return opts.print(cmd.OutOrStdout(), resp.Summary)
			}
			return opts.print(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "print only the summary")
	return cmd
}

func newProfilesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the effective capacity profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _ := opts.newService(nil, nil)
			return opts.print(cmd.OutOrStdout(), svc.Profiles())
		},
	}
}
