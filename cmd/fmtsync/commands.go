package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/config"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/format"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/release"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/resolve"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/version"
)

func newResolveCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the formatter executable, installing it if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			wd, err := workDir(dir)
			if err != nil {
				return err
			}
			svc, err := a.buildService(ctx)
			if err != nil {
				return err
			}
			bin, err := svc.Activate(ctx, wd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printBinary(out, bin)
			fmt.Fprintf(out, "storage:   %s\n", svc.manager.StorageDir())
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "workdir", "", "directory relative configured paths are resolved against")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare the resolved formatter against the configured and latest versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			wd, err := workDir(dir)
			if err != nil {
				return err
			}
			svc, err := a.buildService(ctx)
			if err != nil {
				return err
			}
			bin, report, err := svc.Check(ctx, wd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printBinary(out, bin)
			fmt.Fprintf(out, "desired:   %s\n", report.Desired)
			switch {
			case report.Mismatch != nil:
				fmt.Fprintf(out, "status:    mismatch (installed %s, configured %s)\n",
					version.Format(report.Mismatch.Installed), report.Mismatch.Desired)
			case report.Update != nil:
				fmt.Fprintf(out, "status:    update available (%s)\n", report.Update.Version())
			case report.LatestErr != nil:
				fmt.Fprintf(out, "status:    unknown (%v)\n", report.LatestErr)
			default:
				fmt.Fprintln(out, "status:    up to date")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "workdir", "", "directory relative configured paths are resolved against")
	return cmd
}

func newInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install [version]",
		Short: "Install a formatter release into private storage",
		Long: `Install downloads the given release (or the configured version when none is
given) and makes it the active formatter. Use "latest" for the newest release.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.buildService(ctx)
			if err != nil {
				return err
			}

			v := svc.Settings().DesiredVersion()
			if len(args) == 1 {
				v = args[0]
			}
			bin, err := svc.InstallVersion(ctx, v)
			if err != nil {
				return err
			}
			printBinary(cmd.OutOrStdout(), bin)
			return nil
		},
	}
}

func newReinstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reinstall",
		Short: "Reinstall the configured formatter version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.buildService(ctx)
			if err != nil {
				return err
			}
			bin, err := svc.Reinstall(ctx)
			if err != nil {
				return err
			}
			printBinary(cmd.OutOrStdout(), bin)
			return nil
		},
	}
}

func newReleasesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "releases",
		Short: "List the available formatter releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.buildService(ctx)
			if err != nil {
				return err
			}
			rels, err := svc.Releases(ctx)
			if err != nil {
				return err
			}
			if len(rels) == 0 {
				return release.ErrNoReleaseFound
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Releases of %s:\n", svc.client.Repository())
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, rel := range rels {
				fmt.Fprintf(w, "%s\t%d assets\t%s\n", rel.TagName, len(rel.Assets), rel.HTMLURL)
			}
			return w.Flush()
		},
	}
}

func newFormatCmd(a *app) *cobra.Command {
	var (
		dir        string
		secondary  bool
		write      bool
		rangeStart int
		rangeEnd   int
	)
	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Format a file, or standard input, with the resolved formatter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			file := ""
			if len(args) == 1 && args[0] != "-" {
				file = args[0]
			}
			if write && file == "" {
				return errors.New("--write needs a file argument")
			}
			if dir == "" && file != "" {
				dir = filepath.Dir(file)
			}
			wd, err := workDir(dir)
			if err != nil {
				return err
			}

			var input []byte
			if file != "" {
				input, err = os.ReadFile(file)
			} else {
				input, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			svc, err := a.buildService(ctx)
			if err != nil {
				return err
			}
			if _, err := svc.Activate(ctx, wd); err != nil {
				return err
			}

			variant := resolve.VariantStandard
			if secondary {
				variant = resolve.VariantSecondary
			}
			opts := format.Options{
				WorkDir: wd,
				Range:   format.Range{Start: rangeStart, End: rangeEnd},
			}
			formatted, err := svc.Format(ctx, variant, string(input), opts)
			if err != nil {
				return err
			}

			if write {
				info, err := os.Stat(file)
				if err != nil {
					return err
				}
				return os.WriteFile(file, []byte(formatted), info.Mode().Perm())
			}
			_, err = io.WriteString(cmd.OutOrStdout(), formatted)
			return err
		},
	}
	cmd.Flags().StringVar(&dir, "workdir", "", "directory the formatter runs in (default: the file's directory)")
	cmd.Flags().BoolVar(&secondary, "secondary", false, "use the secondary formatter variant")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the file")
	cmd.Flags().IntVar(&rangeStart, "range-start", 0, "byte offset where formatting starts")
	cmd.Flags().IntVar(&rangeEnd, "range-end", 0, "byte offset where formatting ends")
	return cmd
}

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			content, err := config.NewGenerator().Generate(config.Defaults())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return fmt.Errorf("write settings: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing settings file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fmtsync version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", cmd.Root().Name(), Version)
		},
	}
}

func printBinary(w io.Writer, bin *resolve.Binary) {
	fmt.Fprintf(w, "mode:      %s\n", bin.Mode)
	fmt.Fprintf(w, "standard:  %s\n", bin.Standard)
	fmt.Fprintf(w, "secondary: %s\n", bin.Secondary)
	fmt.Fprintf(w, "version:   %s\n", version.Format(bin.Version))
}
