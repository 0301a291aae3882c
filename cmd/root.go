package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catalog-sync/internal/config"
	"catalog-sync/internal/history"
	"catalog-sync/internal/status"
	"catalog-sync/internal/util"

	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	menuLoad     = "Load products"
	menuShow     = "Show products"
	menuSaveCSV  = "Save CSV"
	menuSaveImgs = "Save images"
	menuUpload   = "Upload images"
	menuStop     = "Stop upload"
	menuExit     = "Exit"
	typePath     = "Type a path"
)

var rootCmd = &cobra.Command{
	Use:   "catalog-sync [catalog-root]",
	Short: "Product catalog export and image sync tool",
	Long: `Turns a folder tree of product photos into products.csv and categories.txt,
stages the images under <sku>.jpg names and uploads the ones the remote server is missing.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var root string
		if len(args) == 1 {
			root = args[0]
		} else {
			picked, ok := pickCatalogRoot()
			if !ok {
				return nil
			}
			root = picked
		}
		root, err := resolveRoot(root)
		if err != nil {
			return err
		}
		if err := history.AddPath(root); err != nil {
			log.Warn().Err(err).Msg("history update failed")
		}
		fmt.Printf("Catalog: %s\n", root)
		runMenu(cmd.Context(), root)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
}

// consoleSink prints status lines on stdout and mirrors them into the log file.
func consoleSink() status.Sink {
	return status.WithLog(status.NewConsole(util.Default, status.StdoutIsTerminal()), log.Logger)
}

// resolveRoot makes root absolute and checks it is a directory.
func resolveRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", errors.New("catalog root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("catalog root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("catalog root %s is not a directory", abs)
	}
	return abs, nil
}

// runPrompt gives promptui the terminal; status lines from a running upload
// are held back until it returns.
func runPrompt(run func() error) error {
	util.Default.Suspend()
	defer util.Default.Resume()
	return run()
}

// pickCatalogRoot offers recently used roots, or lets the user type one.
func pickCatalogRoot() (string, bool) {
	if removed, err := history.Prune(); err == nil && len(removed) > 0 {
		fmt.Printf("Forgot %d missing catalog folder(s).\n", len(removed))
	}
	paths := history.GetAllPaths()
	if len(paths) == 0 {
		return promptPath()
	}

	prompt := promptui.SelectWithAdd{
		Label:    "Recent catalogs (type to add a path)",
		Items:    paths,
		AddLabel: typePath,
	}
	var idx int
	var result string
	err := runPrompt(func() error {
		var err error
		idx, result, err = prompt.Run()
		return err
	})
	if err != nil {
		fmt.Printf("Prompt failed %v\n", err)
		return "", false
	}
	if idx == -1 {
		if matches := history.SearchPaths(result); len(matches) == 1 {
			return matches[0], true
		}
	}
	return result, true
}

func promptPath() (string, bool) {
	prompt := promptui.Prompt{
		Label: "Catalog folder",
		Validate: func(in string) error {
			_, err := resolveRoot(in)
			return err
		},
	}
	var result string
	err := runPrompt(func() error {
		var err error
		result, err = prompt.Run()
		return err
	})
	if err != nil {
		fmt.Printf("Prompt failed %v\n", err)
		return "", false
	}
	return result, true
}

func runMenu(ctx context.Context, root string) {
	s := newSession(root, consoleSink())
	defer s.close()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("⏹ Cancelled")
			return
		default:
		}

		uploadItem := menuUpload
		if s.uploading() {
			uploadItem = menuStop
		}
		prompt := promptui.Select{
			Label: "Select an option",
			Items: []string{menuLoad, menuShow, menuSaveCSV, menuSaveImgs, uploadItem, menuExit},
			Size:  6,
		}
		var result string
		err := runPrompt(func() error {
			var err error
			_, result, err = prompt.Run()
			return err
		})
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return
			}
			fmt.Printf("Prompt failed %v\n", err)
			return
		}

		switch result {
		case menuLoad:
			s.load()
		case menuShow:
			s.show()
		case menuSaveCSV:
			cfg := loadConfigOrWarn(root)
			prefix := cfg.URLPrefix
			if strings.TrimSpace(prefix) == "" {
				var ok bool
				if prefix, ok = promptValue("URL prefix", "", false); !ok {
					continue
				}
			}
			s.saveCSV(prefix)
		case menuSaveImgs:
			s.saveImages()
		case menuUpload:
			cfg := loadConfigOrWarn(root)
			if !completeRemote(cfg) {
				continue
			}
			s.startUpload(ctx, cfg)
		case menuStop:
			if s.stopUpload() {
				fmt.Println("Stopping after the current file...")
			}
		case menuExit:
			fmt.Println("Exiting...")
			return
		}
	}
}

func loadConfigOrWarn(root string) *config.Config {
	cfg, err := config.LoadOrEmpty(root)
	if err != nil {
		fmt.Printf("⚠️  %v\n", err)
		return &config.Config{}
	}
	return cfg
}

// completeRemote asks for whatever remote settings the config leaves empty.
func completeRemote(cfg *config.Config) bool {
	r := &cfg.Remote
	fields := []struct {
		label string
		dest  *string
		mask  bool
	}{
		{"Server URL", &r.URL, false},
		{"User", &r.User, false},
		{"Password", &r.Password, true},
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.dest) != "" {
			continue
		}
		v, ok := promptValue(f.label, "", f.mask)
		if !ok {
			return false
		}
		*f.dest = v
	}
	return true
}

func promptValue(label, def string, mask bool) (string, bool) {
	prompt := promptui.Prompt{Label: label, Default: def}
	if mask {
		prompt.Mask = '*'
	}
	var result string
	err := runPrompt(func() error {
		var err error
		result, err = prompt.Run()
		return err
	})
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(result), true
}

// ExecuteContext allows running the root command with a supplied context for cancellation.
func ExecuteContext(ctx context.Context) error {
	rootCmd.SetContext(ctx)
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("❌ %v\n", err)
		return err
	}
	return nil
}
