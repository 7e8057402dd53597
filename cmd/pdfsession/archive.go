package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) archiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Store and retrieve named sessions (PDFCORE_ARCHIVE_DRIVER)",
	}
	cmd.AddCommand(a.archivePutCmd(), a.archiveGetCmd(), a.archiveListCmd(), a.archiveRmCmd())
	return cmd
}

func (a *app) archivePutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put NAME",
		Short: "Save the current session under NAME, replacing any earlier copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx, false); err != nil {
				return err
			}
			if _, err := a.openArchive(ctx); err != nil {
				return err
			}
			entry, err := a.svc.ArchiveSession(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "archived %s (%d bytes, %d distributions)\n", entry.Name, entry.Size, entry.Distributions)
			return nil
		},
	}
}

func (a *app) archiveGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Replace the current session with the archived one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.openArchive(ctx); err != nil {
				return err
			}
			if err := a.svc.RestoreSession(ctx, args[0], nil); err != nil {
				return err
			}
			if err := a.save(ctx); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "restored %s (%d distributions)\n", args[0], len(a.svc.List()))
			return nil
		},
	}
}

func (a *app) archiveListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := a.openArchive(ctx); err != nil {
				return err
			}
			entries, err := a.svc.ListArchivedSessions(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tDISTRIBUTIONS\tSAVED")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", e.Name, e.Size, e.Distributions, e.SavedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}

func (a *app) archiveRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME",
		Short: "Delete an archived session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.openArchive(ctx); err != nil {
				return err
			}
			removed, err := a.svc.DeleteArchivedSession(ctx, args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("archived session %s not found", args[0])
			}
			fmt.Fprintf(a.stdout, "removed %s\n", args[0])
			return nil
		},
	}
}
