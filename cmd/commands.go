package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/config"
	"catalog-sync/internal/export"
	"catalog-sync/internal/history"
	"catalog-sync/internal/status"
	"catalog-sync/internal/syncdata"
	"catalog-sync/internal/util"
	"catalog-sync/internal/watch"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init <catalog-root>",
	Short: "Write a config template into the catalog root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot(args[0])
		if err != nil {
			return err
		}
		path, err := config.WriteTemplate(root)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Created %s\n", path)
		fmt.Println("💡 Put secrets in a .env file next to it and reference them as ${NAME}")
		return history.AddPath(root)
	},
}

var importList bool

var importCmd = &cobra.Command{
	Use:   "import <catalog-root>",
	Short: "Scan the catalog and report products and warnings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot(args[0])
		if err != nil {
			return err
		}
		s := newSession(root, consoleSink())
		defer s.close()
		if _, err := s.load(); err != nil {
			return err
		}
		if importList {
			return s.show()
		}
		return nil
	},
}

var (
	exportURLPrefix string
	exportXLSX      bool
)

var exportCmd = &cobra.Command{
	Use:   "export <catalog-root>",
	Short: "Write products.csv and categories.txt next to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot(args[0])
		if err != nil {
			return err
		}
		cfg, err := config.LoadOrEmpty(root)
		if err != nil {
			return err
		}
		if exportURLPrefix != "" {
			cfg.URLPrefix = exportURLPrefix
		}
		if err := config.ValidateForExport(cfg); err != nil {
			return err
		}
		s := newSession(root, consoleSink())
		defer s.close()
		if _, err := s.load(); err != nil {
			return err
		}
		if err := s.saveCSV(cfg.URLPrefix); err != nil {
			return err
		}
		if exportXLSX {
			return s.saveXLSX(cfg.URLPrefix)
		}
		return nil
	},
}

var stageCmd = &cobra.Command{
	Use:   "stage <catalog-root>",
	Short: "Copy every product image to images/<sku>.jpg next to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot(args[0])
		if err != nil {
			return err
		}
		s := newSession(root, consoleSink())
		defer s.close()
		if _, err := s.load(); err != nil {
			return err
		}
		rep, err := s.saveImages()
		if err != nil {
			return err
		}
		if len(rep.Failed) > 0 {
			return fmt.Errorf("%d image(s) could not be staged", len(rep.Failed))
		}
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <catalog-root>",
	Short: "Upload staged images the remote server does not have yet",
	Long: `Lists the remote image directory and uploads the staged files missing there.
Ctrl-C stops the upload after the file being sent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot(args[0])
		if err != nil {
			return err
		}
		cfg, err := config.Load(root)
		if err != nil {
			return err
		}
		opts, err := uploadOptions(export.Paths(root), cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var bar *progressbar.ProgressBar
		u := syncdata.NewUploader(consoleSink())
		u.Progress = func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("Uploading"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			_ = bar.Set(done)
		}

		out := u.Run(ctx, opts)
		if bar != nil {
			_ = bar.Finish()
		}
		switch out.State {
		case syncdata.Completed:
			fmt.Printf("✅ %d file(s) uploaded\n", len(out.Uploaded))
		case syncdata.Cancelled:
			fmt.Printf("⏹ Stopped after %d of %d file(s)\n", len(out.Uploaded), out.Pending)
		default:
			return out.Err
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <catalog-root>",
	Short: "Re-import the catalog whenever its folder tree changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot(args[0])
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		p := status.NewPrinter(consoleSink())
		last := ""
		w := watch.New(root, func(cat *catalog.Catalog, err error) {
			if err != nil {
				p.Error("%v", err)
				return
			}
			fp := cat.Fingerprint()
			if fp == last {
				return
			}
			last = fp
			catalog.Report(p, cat)
			_ = history.RecordImport(cat.Root, len(cat.Products), fp)
		})
		fmt.Printf("👀 Watching %s (Ctrl-C to stop)\n", root)
		return w.Run(ctx)
	},
}

var historyRemove string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently used catalog folders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyRemove != "" {
			if err := history.RemovePath(historyRemove); err != nil {
				return err
			}
			fmt.Printf("Removed from history: %s\n", historyRemove)
			return nil
		}
		paths := history.GetAllPaths()
		if len(paths) == 0 {
			fmt.Println("No recent catalogs found.")
			return nil
		}
		for _, p := range paths {
			e, _ := history.Lookup(p)
			if e.Fingerprint != "" {
				util.Default.Printf("%s  (%d products, %s)\n", p, e.Products, e.LastAccess.Format("2006-01-02 15:04"))
			} else {
				util.Default.Println(p)
			}
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVarP(&importList, "list", "l", false, "print every product")
	exportCmd.Flags().BoolVar(&exportXLSX, "xlsx", false, "also write products.xlsx")
	exportCmd.Flags().StringVar(&exportURLPrefix, "url-prefix", "", "prefix for the Images column (overrides url_prefix)")
	historyCmd.Flags().StringVar(&historyRemove, "remove", "", "forget a catalog folder")
}
