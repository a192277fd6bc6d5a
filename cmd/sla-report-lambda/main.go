package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/billtrust/sla-monitor-report-lambda/internal/app"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/config"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

func main() {
	// 1. Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализируем logger
	log := logger.New(cfg.LogLevel)
	log.Info("Starting SLA report lambda", "environment", cfg.Environment)

	// 3. Собираем зависимости один раз на холодный старт
	application, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("Failed to initialize report engine", err)
		os.Exit(1)
	}
	defer application.Close()

	// 4. Каждая пачка SQS обрабатывается Handle, частичные ошибки уходят в BatchItemFailures
	lambda.Start(application.Queue.Handle)
}
