// cmd/client/cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"hydrosync/cmd/client/cmd/types"
	"hydrosync/internal/app/client"
	"hydrosync/internal/app/client/config"
	"hydrosync/internal/utils/logger"
)

var (
	cfgFile    string
	cfg        *config.Config
	log        *slog.Logger
	app        *client.App
	debug      bool
	jsonOutput bool
	yamlOutput bool
	serverURL  string
)

var rootCmd = &cobra.Command{
	Use:   "hydrosync",
	Short: "Hydrosync - учет выпитой воды с умной бутылкой",
	Long: `Hydrosync подключается к умной бутылке по Bluetooth, записывает глотки
и ручные записи о напитках локально и синхронизирует их с сервером.

Все записи сначала сохраняются на устройстве; синхронизация догоняет
изменения, когда сервер доступен.`,
	PersistentPreRunE: setupApp,
	PersistentPostRun: shutdownApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	if jsonOutput && yamlOutput {
		return fmt.Errorf("флаги --json и --yaml взаимоисключающие")
	}

	// Загружаем конфигурацию
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Переопределяем настройки из флагов командной строки
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}

	log = logger.NewCLI(debug, cfg.LogFile)

	// Создаем приложение
	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}
	if _, readOnly := cmd.Annotations[types.ReadOnlyAnnotation]; !readOnly {
		if err := app.RequireWritable(); err != nil {
			app.Shutdown()
			app = nil
			return err
		}
	}

	format := types.FormatText
	switch {
	case jsonOutput:
		format = types.FormatJSON
	case yamlOutput:
		format = types.FormatYAML
	}

	cmd.SetContext(types.WithApp(cmd.Context(), app, types.NewPrinter(format, cmd.OutOrStdout())))
	return nil
}

func shutdownApp(_ *cobra.Command, _ []string) {
	if app != nil {
		app.Shutdown()
	}
}

func init() {
	// Глобальные флаги
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл (YAML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "вывод в формате JSON")
	rootCmd.PersistentFlags().BoolVar(&yamlOutput, "yaml", false, "вывод в формате YAML")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера Hydrosync (host:port)")

	// Команды будут добавлены в init() соответствующих файлов
}
