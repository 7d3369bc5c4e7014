package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kukshaus/family-planner/backup"
	"github.com/kukshaus/family-planner/docdb"
	"github.com/kukshaus/family-planner/family"
)

func (a *app) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo family when the store is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ok, err := a.repo.Initialize()
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(cmd.OutOrStdout(), "demo data loaded")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "store already has users, nothing to do")
			}
			return nil
		},
	}
}

func (a *app) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show document counts per collection and today's tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			counts, err := a.repo.CollectionCounts()
			if err != nil {
				return err
			}
			tasks, err := a.repo.Stats(a.now().UTC().Format(family.DateLayout))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COLLECTION\tDOCUMENTS")
			total := 0
			for _, name := range family.Collections {
				fmt.Fprintf(tw, "%s\t%d\n", name, counts[name])
				total += counts[name]
			}
			persisted, err := a.repo.DB().Collections()
			if err != nil {
				return err
			}
			for _, name := range persisted {
				if _, listed := counts[name]; listed {
					continue
				}
				n, err := a.repo.DB().Count(name, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s (unlisted)\t%d\n", name, n)
				total += n
			}
			fmt.Fprintf(tw, "total\t%d\n", total)
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\ntasks: %d pending, %d in progress, %d completed, %d due today\n",
				tasks.Pending, tasks.InProgress, tasks.Completed, tasks.Today)
			return nil
		},
	}
}

// parseWhere turns key=value pairs into a filter. Values are read as JSON
// when they parse, so points=20 matches a number and title=Walk a string.
func parseWhere(pairs []string) (docdb.Filter, error) {
	filter := docdb.Filter{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid filter %q, want key=value", p)
		}
		var val any
		if err := json.Unmarshal([]byte(v), &val); err != nil {
			val = v
		}
		filter[k] = val
	}
	return filter, nil
}

func (a *app) listCommand() *cobra.Command {
	var where []string
	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "Print the documents of a collection as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseWhere(where)
			if err != nil {
				return err
			}
			docs, err := a.repo.DB().FindAll(args[0], filter)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), docs)
		},
	}
	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "equality filter key=value (repeatable)")
	return cmd
}

func (a *app) exportCommand() *cobra.Command {
	var (
		dir   string
		name  string
		useS3 bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup of every collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := a.target(useS3, dir)
			if err != nil {
				return err
			}
			snap, err := a.repo.DB().ExportDatabase()
			if err != nil {
				return err
			}
			if name == "" {
				name = backup.FileName(a.now())
			}
			if err := target.Save(cmd.Context(), name, snap); err != nil {
				return err
			}
			a.log.Info("backup written", zap.String("name", name), zap.Bool("s3", useS3))
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d collections to %s\n", len(snap), name)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "backup directory (default BACKUP_DIR)")
	cmd.Flags().StringVar(&name, "name", "", "backup name (default family-planner-backup-<date>.json)")
	cmd.Flags().BoolVar(&useS3, "s3", false, "write to the configured S3 bucket")
	cmd.MarkFlagsMutuallyExclusive("dir", "s3")
	return cmd
}

func (a *app) importCommand() *cobra.Command {
	var (
		dir   string
		useS3 bool
	)
	cmd := &cobra.Command{
		Use:   "import <name>",
		Short: "Restore collections from a backup",
		Long: "Restore collections from a backup. Each collection in the backup " +
			"replaces the stored one; collections missing from the backup are left alone.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := a.target(useS3, dir)
			if err != nil {
				return err
			}
			snap, err := target.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.repo.DB().ImportDatabase(snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "backup directory (default BACKUP_DIR)")
	cmd.Flags().BoolVar(&useS3, "s3", false, "read from the configured S3 bucket")
	cmd.MarkFlagsMutuallyExclusive("dir", "s3")
	return cmd
}

func (a *app) clearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [collection]",
		Short: "Empty one collection, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := a.repo.DB().ClearCollection(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", args[0])
				return nil
			}
			if err := a.repo.DB().ClearDatabase(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared all collections")
			return nil
		},
	}
}

func (a *app) resetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear every collection and load the demo family again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.repo.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "store reset to demo data")
			return nil
		},
	}
}
