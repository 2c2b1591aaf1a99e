package main

import (
	"context"
	"os"
	"time"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/snappy-gold/appraisal-api/internal/appraise"
	"github.com/snappy-gold/appraisal-api/internal/lead"
	"github.com/snappy-gold/appraisal-api/internal/pricing"
	"github.com/snappy-gold/appraisal-api/internal/store"
	"github.com/snappy-gold/appraisal-api/pkg/anthropic"
	"github.com/snappy-gold/appraisal-api/pkg/metals"
	notionpkg "github.com/snappy-gold/appraisal-api/pkg/notion"
	sfpkg "github.com/snappy-gold/appraisal-api/pkg/salesforce"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "appraisal.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		var poolCfg *store.PoolConfig
		if cfg.Store.Pool != nil {
			poolCfg = &store.PoolConfig{
				MaxConns: cfg.Store.Pool.MaxConns,
				MinConns: cfg.Store.Pool.MinConns,
			}
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolCfg)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initSpotCache wires the metals client into the day-keyed price cache.
func initSpotCache() *pricing.Cache {
	var opts []metals.Option
	if cfg.Metals.BaseURL != "" {
		opts = append(opts, metals.WithBaseURL(cfg.Metals.BaseURL))
	}
	src := metals.NewClient(cfg.Metals.Key, opts...)

	cacheOpts := []pricing.CacheOption{
		pricing.WithFallback(cfg.Metals.FallbackGold, cfg.Metals.FallbackSilver),
	}
	if cfg.Metals.TimeoutSecs > 0 {
		cacheOpts = append(cacheOpts, pricing.WithTimeout(time.Duration(cfg.Metals.TimeoutSecs)*time.Second))
	}
	return pricing.NewCache(src, cacheOpts...)
}

func initAppraisalService(spots *pricing.Cache) (*appraise.Service, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (SNAPPY_ANTHROPIC_KEY)")
	}
	llm := anthropic.NewClient(cfg.Anthropic.Key)
	client := appraise.NewClient(llm,
		appraise.WithModel(cfg.Anthropic.Model),
		appraise.WithMaxTokens(cfg.Anthropic.MaxTokens),
	)
	return appraise.NewService(spots, client), nil
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (SNAPPY_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := gosf.Init(gosf.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf), nil
}

// initRelay assembles the lead relay from whichever sinks are configured.
// Unconfigured sinks are simply absent; the relay tolerates an empty set.
func initRelay() (*lead.Relay, error) {
	var sinks []lead.Sink

	if cfg.Lead.WebhookURL != "" {
		sinks = append(sinks, lead.NewWebhookSink(cfg.Lead.WebhookURL))
	}
	if cfg.Notion.Token != "" && cfg.Notion.LeadDB != "" {
		nc := notionpkg.NewClient(cfg.Notion.Token)
		sinks = append(sinks, lead.NewNotionSink(nc, cfg.Notion.LeadDB))
	}
	if cfg.Salesforce.ClientID != "" {
		sc, err := initSalesforce()
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, lead.NewSalesforceSink(sc, cfg.Salesforce.Object))
	}

	var opts []lead.RelayOption
	if cfg.Lead.DeliverTimeoutSecs > 0 {
		opts = append(opts, lead.WithDeliverTimeout(time.Duration(cfg.Lead.DeliverTimeoutSecs)*time.Second))
	}
	return lead.NewRelay(sinks, opts...), nil
}
