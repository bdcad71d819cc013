package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"icu-monitor/internal/models"
)

func patientsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "Patient records",
	}

	var hospitalID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List hospital patients, active first",
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
			patients, err := a.client.PatientsByHospital(cmd.Context(), hospitalID)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCODE\tNAME\tROOM\tBED\tSTATUS")
			for _, p := range patients {
				status := "discharged"
				if p.IsActive {
					status = "active"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.PatientCode, p.FullName(), deref(p.RoomNumber), deref(p.BedNumber), status)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&hospitalID, "hospital", "", "hospital id (default: your hospital)")
	cmd.AddCommand(list)
	return cmd
}

func admitCmd(opts *options) *cobra.Command {
	var (
		req    models.QuickAdmitRequest
		assign bool
		room   string
	)
	cmd := &cobra.Command{
		Use:   "admit",
		Short: "Quick-admit a patient, optionally auto-assigning a monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.FirstName == "" || req.LastName == "" {
				return errors.New("--first and --last are required")
			}
			a, err := opts.newApp(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if _, err := a.requireRoute(cmd.Context(), "/admin"); err != nil {
				return err
			}
			resp, err := a.client.QuickAdmit(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s (patient %s)\n", resp.Message, resp.PatientID)
			if !assign {
				return nil
			}
			res, err := a.client.AssignMonitorAuto(cmd.Context(), models.AutoAssignRequest{
				PatientID:     resp.PatientID,
				PreferredRoom: room,
			})
			if err != nil {
				return fmt.Errorf("assign monitor: %w", err)
			}
			fmt.Fprintf(a.out, "Monitor %s assigned in %s\n", res.AssignedMonitor, res.Room)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.FirstName, "first", "", "first name")
	f.StringVar(&req.LastName, "last", "", "last name")
	f.StringVar(&req.Urgency, "urgency", "", "emergency, high, medium (default) or low")
	f.StringVar(&req.Department, "department", "", "department (default cardiology_icu)")
	f.BoolVar(&assign, "assign", false, "auto-assign a free monitor after admission")
	f.StringVar(&room, "room", "", "preferred room for --assign, e.g. ICU-101")
	return cmd
}

func monitorsCmd(opts *options) *cobra.Command {
	var exportPath string
	cmd := &cobra.Command{
		Use:   "monitors",
		Short: "Monitor inventory and free monitors (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if _, err := a.requireRoute(cmd.Context(), "/admin"); err != nil {
				return err
			}
			ctx := cmd.Context()
			inv, err := a.client.MonitorInventory(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "total %d  assigned %d  free %d  maintenance %d  critical %d\n",
				inv.TotalMonitors, inv.ActiveAssigned, inv.FreeAvailable, inv.Maintenance, inv.Critical)

			free, err := a.client.UnassignedMonitors(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DEVICE\tROOM\tBED\tTYPE")
			for _, m := range free.AvailableMonitors {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.DeviceID, m.Room, m.Bed, m.Type)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if exportPath == "" {
				return nil
			}
			data, err := a.client.ExportInventory(ctx)
			if err != nil {
				return err
			}
			return writeFile(a, exportPath, data)
		},
	}
	cmd.Flags().StringVar(&exportPath, "export", "", "also save the inventory workbook to this path")
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
