package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"icu-monitor/internal/feed"
)

// loadNotes 文件不存在时为空
func loadNotes(path string) (*feed.NoteBook, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return feed.NewNoteBook(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read notes: %w", err)
	}
	var notes []feed.Note
	if err := yaml.Unmarshal(raw, &notes); err != nil {
		return nil, fmt.Errorf("parse notes: %w", err)
	}
	return feed.NewNoteBook(notes...), nil
}

func saveNotes(path string, book *feed.NoteBook) error {
	raw, err := yaml.Marshal(book.All())
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create notes dir: %w", err)
	}
	return os.WriteFile(path, raw, 0o600)
}

func noteCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Doctor notes kept on this machine",
	}

	var doctor string
	add := &cobra.Command{
		Use:   "add <patient-id> <text...>",
		Short: "Add a note for a patient",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if doctor == "" {
				u, err := a.requireRoute(cmd.Context(), "/doctor")
				if err != nil {
					return err
				}
				doctor = u.DisplayName
			}
			book, err := loadNotes(a.notesPath())
			if err != nil {
				return err
			}
			n, err := book.Add(args[0], doctor, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if err := saveNotes(a.notesPath(), book); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Saved %s\n", n.ID)
			return nil
		},
	}
	add.Flags().StringVar(&doctor, "doctor", "", "doctor name (default: current user)")

	list := &cobra.Command{
		Use:   "list <patient-id>",
		Short: "Show notes for a patient, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			book, err := loadNotes(a.notesPath())
			if err != nil {
				return err
			}
			for _, n := range book.ForPatient(args[0]) {
				fmt.Fprintf(a.out, "%s  %s: %s\n", n.Timestamp.Local().Format("2006-01-02 15:04"), n.DoctorName, n.Note)
			}
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}
