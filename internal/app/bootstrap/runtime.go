// Package bootstrap builds the optional infrastructure the API server runs
// on. Every builder degrades to an in-process fallback when its backing
// service is not configured.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/idseva-booking/internal/config"
	"github.com/wolfman30/idseva-booking/internal/notify"
	"github.com/wolfman30/idseva-booking/internal/storage"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildEmailSender picks the provider named by EMAIL_PROVIDER. A provider
// missing its credentials falls back to the logging stub.
func BuildEmailSender(awsCfg *aws.Config, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			logger.Info("email provider configured", "provider", "sendgrid")
			return sender
		}
		logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty; using stub")
	case "ses":
		if awsCfg != nil && cfg.SESFromEmail != "" {
			logger.Info("email provider configured", "provider", "ses")
			return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
				FromEmail: cfg.SESFromEmail,
				FromName:  cfg.SESFromName,
			}, logger)
		}
		logger.Warn("ses selected but AWS config or SES_FROM_EMAIL missing; using stub")
	}
	return notify.NewStubEmailSender(logger)
}

// BuildFaceStore returns an S3-backed face image store. Without AWS config
// or a bucket the store is disabled and registrations keep no image.
func BuildFaceStore(awsCfg *aws.Config, cfg *appconfig.Config, logger *logging.Logger) *storage.FaceStore {
	if awsCfg == nil || strings.TrimSpace(cfg.FaceBucket) == "" {
		return storage.NewFaceStore(nil, "", "", logger)
	}
	client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
		// LocalStack and MinIO only serve path-style URLs.
		o.UsePathStyle = cfg.AWSEndpointOverride != ""
	})
	return storage.NewFaceStore(client, cfg.FaceBucket, cfg.FacePublicBaseURL, logger)
}
