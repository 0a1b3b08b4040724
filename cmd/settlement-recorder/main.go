package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"property-brokerage-system/internal/adapters/storage/clickhouse"
	"property-brokerage-system/internal/config"
	"property-brokerage-system/internal/core/domain"
	"property-brokerage-system/internal/observability"
)

// The recorder tails the lifecycle stream and appends every settlement to
// the ClickHouse commission ledger. The ledger is derived data, so replaying
// a settled event is harmless.
func main() {
	fallbackLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fallbackLogger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.App.Env)
	logger.Info("Settlement recorder starting", "env", cfg.App.Env, "topic", cfg.Kafka.Topic)

	ledger, err := clickhouse.NewLedger(cfg.ClickHouse.Addr)
	if err != nil {
		logger.Error("Failed to connect to ClickHouse", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Warn("Failed to close ClickHouse connection", "error", err)
		}
	}()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(cfg.Kafka.BootstrapServers, ",")...),
		kgo.ConsumerGroup("settlement-recorder"),
		kgo.ConsumeTopics(cfg.Kafka.Topic),
		// Offsets are committed only after the batch landed in ClickHouse.
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		logger.Error("Failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Settlement recorder running")

	for {
		fetches := consumer.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			break
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			logger.Error("Kafka fetch error", "topic", topic, "partition", partition, "error", err)
		})

		fetches.EachRecord(func(record *kgo.Record) {
			var ev domain.LifecycleEvent
			if err := json.Unmarshal(record.Value, &ev); err != nil {
				logger.Error("Failed to parse lifecycle event, skipping", "error", err,
					"offset", record.Offset, "partition", record.Partition)
				return
			}
			if ev.Type != domain.PropertySettled {
				return
			}

			rec := settlementFromEvent(ev)
			if err := ledger.RecordSettlement(ctx, rec); err != nil {
				logger.Error("Failed to record settlement", "error", err, "property_id", ev.PropertyID)
				return
			}
			logger.Info("Settlement recorded",
				"property_id", rec.PropertyID,
				"final_price", rec.FinalPrice,
				"commission", rec.Total,
			)
		})

		if err := consumer.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Failed to commit offsets", "error", err)
		}
	}

	logger.Info("Settlement recorder stopped")
}

func settlementFromEvent(ev domain.LifecycleEvent) clickhouse.SettlementRecord {
	rec := clickhouse.SettlementRecord{
		PropertyID: ev.PropertyID,
		Status:     string(ev.Status),
		Purpose:    string(ev.Purpose),
		SettledAt:  ev.OccurredAt,
	}
	if rec.SettledAt.IsZero() {
		rec.SettledAt = time.Now()
	}
	if ev.OrderID != nil {
		rec.OrderID = *ev.OrderID
	}
	if ev.BrokerID != nil {
		rec.BrokerID = *ev.BrokerID
	} else {
		rec.BrokerID = uuid.Nil
	}
	if ev.FinalPrice != nil {
		rec.FinalPrice = *ev.FinalPrice
	}
	if ev.Commission != nil {
		rec.SellerShare = ev.Commission.SellerShare
		rec.BuyerShare = ev.Commission.BuyerShare
		rec.Total = ev.Commission.Total
	}
	return rec
}
