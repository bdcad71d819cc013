package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"icu-monitor/internal/export"
	"icu-monitor/internal/feed"
	"icu-monitor/internal/models"
)

func watchCmd(opts *options) *cobra.Command {
	var (
		ack      bool
		once     bool
		pageSize int
		search   string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream the live roster with alarms and focus cycling",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if _, err := a.requireUser(cmd.Context()); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			f, updates, err := a.startFeed(ctx, !once)
			if err != nil {
				return err
			}
			defer f.Close()

			cycler := feed.NewCycler(interval)
			cycler.SetSearch(search)
			ticks := make(chan struct{}, 1)
			done := make(chan struct{})
			go func() {
				defer close(done)
				cycler.Run(ctx, func(int) { notify(ticks) })
			}()
			defer func() { <-done }()
			defer stop()

			var roster []models.RosterPatient
			draw := func() {
				cycler.SetCount(len(roster))
				renderWatch(a.out, watchView{
					Roster:    roster,
					Alarms:    f.Alarms(),
					Focus:     cycler.Focus(),
					Visible:   cycler.Visible(pageSize),
					Locked:    cycler.Locked(),
					Connected: f.Connected(),
				})
				fmt.Fprintln(a.out)
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-updates:
					roster = filterRoster(f.Roster(), search)
					draw()
					if ack {
						for _, al := range f.Alarms() {
							f.Acknowledge(al.ID)
						}
					}
					if once {
						return nil
					}
				case <-ticks:
					draw()
				}
			}
		},
	}
	fl := cmd.Flags()
	fl.BoolVar(&ack, "ack", false, "acknowledge alarms once they have been shown")
	fl.BoolVar(&once, "once", false, "print the first roster and exit")
	fl.IntVar(&pageSize, "page", 10, "patients listed per screen")
	fl.StringVar(&search, "search", "", "filter by name, room or id (pauses cycling)")
	fl.DurationVar(&interval, "interval", feed.DefaultCycleInterval, "focus cycling interval")
	return cmd
}

// startFeed 连接 /ws 并按当前角色过滤；updates 在每次成功应用消息后收到通知
func (a *app) startFeed(ctx context.Context, reconnect bool) (*feed.Feed, <-chan struct{}, error) {
	url, err := wsURL(a.opts.server)
	if err != nil {
		return nil, nil, err
	}
	f := feed.New(feed.Options{URL: url, Reconnect: reconnect, Logger: a.logger})
	f.SetRole(a.roles.RolePtr())
	updates := make(chan struct{}, 1)
	f.OnUpdate(func() { notify(updates) })
	if err := f.Start(ctx); err != nil {
		return nil, nil, err
	}
	return f, updates, nil
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func exportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export rosters to Excel",
	}

	var (
		out     string
		timeout time.Duration
	)
	roster := &cobra.Command{
		Use:   "roster",
		Short: "Save one frame of the live roster as a workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if _, err := a.requireUser(cmd.Context()); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			f, updates, err := a.startFeed(ctx, false)
			if err != nil {
				return err
			}
			defer f.Close()

			select {
			case <-ctx.Done():
				return fmt.Errorf("no roster received within %s", timeout)
			case <-updates:
			}
			data, err := export.LiveRoster(f.Roster())
			if err != nil {
				return err
			}
			return writeFile(a, out, data)
		},
	}
	roster.Flags().StringVarP(&out, "out", "o", "roster.xlsx", "output file")
	roster.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "wait this long for the first frame")

	var (
		patientsOut string
		hospitalID  string
	)
	patients := &cobra.Command{
		Use:   "patients",
		Short: "Download the hospital patient roster workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			u, err := a.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			if hospitalID == "" {
				hospitalID = u.HospitalID
			}
			data, err := a.client.ExportPatients(cmd.Context(), hospitalID)
			if err != nil {
				return err
			}
			if patientsOut == "" {
				patientsOut = hospitalID + "_patients.xlsx"
			}
			return writeFile(a, patientsOut, data)
		},
	}
	patients.Flags().StringVarP(&patientsOut, "out", "o", "", "output file (default <hospital>_patients.xlsx)")
	patients.Flags().StringVar(&hospitalID, "hospital", "", "hospital id (default: your hospital)")

	cmd.AddCommand(roster, patients)
	return cmd
}

func writeFile(a *app, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(a.out, "Wrote %d bytes to %s\n", len(data), path)
	return nil
}
