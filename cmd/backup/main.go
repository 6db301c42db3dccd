package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sundaytable/internal/config"
	"sundaytable/internal/database"
	"sundaytable/internal/service"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "backup",
		Short: "Export and import the dinner planner database",
		Long: `Export the rotation config and every dinner to a JSON or YAML file,
or restore them from one. Database settings come from the same environment
variables as the server (.env is loaded when present).`,
		SilenceUsage: true,
	}
	root.AddCommand(newExportCommand(), newImportCommand())
	return root
}

func newExportCommand() *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveFormat(format, output)
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("backup_%s.%s", time.Now().Format("20060102_150405"), f)
			}
			return withBackupService(cmd.Context(), func(backups *service.BackupService) error {
				return runExport(cmd.Context(), backups, output, f)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default: backup_YYYYMMDD_HHMMSS.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default: from the file extension, else json)")
	return cmd
}

func newImportCommand() *cobra.Command {
	var input, format string
	var clear, yes bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Restore a backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveFormat(format, input)
			if err != nil {
				return err
			}
			if _, err := os.Stat(input); err != nil {
				return fmt.Errorf("input file: %w", err)
			}
			if clear && !yes && !confirmClear(cmd.InOrStdin(), cmd.OutOrStdout()) {
				log.Println("Import cancelled")
				return nil
			}
			return withBackupService(cmd.Context(), func(backups *service.BackupService) error {
				return runImport(cmd.Context(), backups, input, f, clear)
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input file path (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default: from the file extension, else json)")
	cmd.Flags().BoolVar(&clear, "clear", false, "delete existing data before import (destructive)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt for --clear")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func resolveFormat(flagValue, path string) (service.Format, error) {
	if flagValue != "" {
		return service.ParseFormat(flagValue)
	}
	return service.FormatForPath(path), nil
}

func confirmClear(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "WARNING: This will delete all existing data. Type 'yes' to confirm: ")
	answer, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}

func withBackupService(ctx context.Context, fn func(*service.BackupService) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return fn(service.NewBackupService(db))
}

func runExport(ctx context.Context, backups *service.BackupService, outputPath string, format service.Format) error {
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	log.Printf("Exporting database to: %s", outputPath)
	if err := backups.ExportToWriter(ctx, file, format); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if info, err := file.Stat(); err == nil {
		log.Printf("Export complete! File size: %.1f KB", float64(info.Size())/1024)
	}
	return nil
}

func runImport(ctx context.Context, backups *service.BackupService, inputPath string, format service.Format, clear bool) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	log.Printf("Importing database from: %s", inputPath)
	if _, err := backups.ImportFromReader(ctx, file, format, clear); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return nil
}
