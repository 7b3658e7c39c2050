package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Redis         RedisConfig         `yaml:"redis"`
	ClickHouse    ClickHouseConfig    `yaml:"clickhouse"`
	Firestore     FirestoreConfig     `yaml:"firestore"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Search        SearchConfig        `yaml:"search"`
	Query         QueryConfig         `yaml:"query"`
	Rerank        RerankConfig        `yaml:"rerank"`
	Personalize   PersonalizeConfig   `yaml:"personalize"`
	Profile       ProfileConfig       `yaml:"profile"`
	Vector        VectorConfig        `yaml:"vector"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type ElasticsearchConfig struct {
	Addresses      []string      `yaml:"addresses"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	MaxRetries     int           `yaml:"max_retries"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Index          string        `yaml:"index"`
}

type RedisConfig struct {
	Addresses    []string       `yaml:"addresses"`
	Password     string         `yaml:"password"`
	DB           int            `yaml:"db"`
	PoolSize     int            `yaml:"pool_size"`
	MinIdleConns int            `yaml:"min_idle_conns"`
	DialTimeout  time.Duration  `yaml:"dial_timeout"`
	ReadTimeout  time.Duration  `yaml:"read_timeout"`
	WriteTimeout time.Duration  `yaml:"write_timeout"`
	TTL          CacheTTLConfig `yaml:"ttl"`
}

type CacheTTLConfig struct {
	SearchResults time.Duration `yaml:"search_results"`
	StaleFallback time.Duration `yaml:"stale_fallback"`
}

type ClickHouseConfig struct {
	Addresses    []string      `yaml:"addresses"`
	Database     string        `yaml:"database"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
}

type FirestoreConfig struct {
	ProjectID       string        `yaml:"project_id"`
	CredentialsFile string        `yaml:"credentials_file"`
	Collection      string        `yaml:"collection"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	MaxBatchSize    int           `yaml:"max_batch_size"`
}

type KafkaConfig struct {
	Brokers           []string      `yaml:"brokers"`
	TopicInteractions string        `yaml:"topic_interactions"`
	TopicDLQ          string        `yaml:"topic_dlq"`
	ConsumerGroup     string        `yaml:"consumer_group"`
	BatchSize         int           `yaml:"batch_size"`
	BatchTimeout      time.Duration `yaml:"batch_timeout"`
	MaxRetries        int           `yaml:"max_retries"`
}

type SearchConfig struct {
	DefaultPageSize int                  `yaml:"default_page_size"`
	MaxPageSize     int                  `yaml:"max_page_size"`
	CandidateDepth  int                  `yaml:"candidate_depth"`
	QueryTimeout    time.Duration        `yaml:"query_timeout"`
	CircuitBreaker  CircuitBreakerConfig `yaml:"circuit_breaker"`
	Retry           RetryConfig          `yaml:"retry"`
	SlowQuery       SlowQueryConfig      `yaml:"slow_query"`
}

type CircuitBreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

type SlowQueryConfig struct {
	WarningThreshold  time.Duration `yaml:"warning_threshold"`
	CriticalThreshold time.Duration `yaml:"critical_threshold"`
}

// SynonymEntry maps one canonical term to its variants. Entries are ordered:
// expansion walks them in declaration order so output is reproducible.
type SynonymEntry struct {
	Term     string   `yaml:"term"`
	Synonyms []string `yaml:"synonyms"`
}

// PriceKeywordGroup binds a price hint to its trigger keywords. Groups are
// ordered; the first group with a matching keyword wins.
type PriceKeywordGroup struct {
	Hint     string   `yaml:"hint"`
	Keywords []string `yaml:"keywords"`
}

// QueryConfig holds the heuristic keyword tables for entity extraction.
// These are deployment configuration, not invariants of the design.
type QueryConfig struct {
	DefaultIntent string              `yaml:"default_intent"`
	Synonyms      []SynonymEntry      `yaml:"synonyms"`
	DietaryTags   []string            `yaml:"dietary_tags"`
	PriceGroups   []PriceKeywordGroup `yaml:"price_groups"`
	SpellMaxEdits int                 `yaml:"spell_max_edits"`
}

type RerankConfig struct {
	VeganBoost       float64 `yaml:"vegan_boost"`
	DiversityPenalty float64 `yaml:"diversity_penalty"`
}

// PersonalizeConfig weights the profile signals blended into the base
// retrieval score before business rules run.
type PersonalizeConfig struct {
	CuisineWeight float64 `yaml:"cuisine_weight"`
	PriceWeight   float64 `yaml:"price_weight"`
	BiasWeight    float64 `yaml:"bias_weight"`
}

type ProfileConfig struct {
	RebuildInterval time.Duration `yaml:"rebuild_interval"`
	RebuildDebounce time.Duration `yaml:"rebuild_debounce"`
}

type VectorConfig struct {
	Backend    string `yaml:"backend"` // "elasticsearch", "memory", or "" for fallback order
	Dimensions int    `yaml:"dimensions"`
}

type ObservabilityConfig struct {
	MetricsPort     int    `yaml:"metrics_port"`
	TracingEndpoint string `yaml:"tracing_endpoint"`
	LogLevel        string `yaml:"log_level"`
	ServiceName     string `yaml:"service_name"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Elasticsearch: ElasticsearchConfig{
			Addresses:      []string{"http://localhost:9200"},
			MaxRetries:     3,
			RequestTimeout: 150 * time.Millisecond,
			Index:          "dishes",
		},
		Redis: RedisConfig{
			Addresses:    []string{"localhost:6379"},
			PoolSize:     100,
			MinIdleConns: 10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  1 * time.Second,
			WriteTimeout: 1 * time.Second,
			TTL: CacheTTLConfig{
				SearchResults: 2 * time.Minute,
				StaleFallback: 1 * time.Hour,
			},
		},
		ClickHouse: ClickHouseConfig{
			Addresses:    []string{"localhost:9000"},
			Database:     "dish_search",
			DialTimeout:  5 * time.Second,
			QueryTimeout: 2 * time.Second,
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Firestore: FirestoreConfig{
			Collection:     "dishes",
			RequestTimeout: 2 * time.Second,
			MaxBatchSize:   100,
		},
		Kafka: KafkaConfig{
			Brokers:           []string{"localhost:9092"},
			TopicInteractions: "interactions.events",
			TopicDLQ:          "interactions.events.dlq",
			ConsumerGroup:     "profile-builder",
			BatchSize:         1000,
			BatchTimeout:      1 * time.Second,
			MaxRetries:        3,
		},
		Search: SearchConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			CandidateDepth:  200,
			QueryTimeout:    200 * time.Millisecond,
			CircuitBreaker: CircuitBreakerConfig{
				MaxRequests:      100,
				Interval:         30 * time.Second,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
			Retry: RetryConfig{
				MaxAttempts: 2,
				InitialWait: 50 * time.Millisecond,
				MaxWait:     500 * time.Millisecond,
				Multiplier:  2.0,
			},
			SlowQuery: SlowQueryConfig{
				WarningThreshold:  200 * time.Millisecond,
				CriticalThreshold: 500 * time.Millisecond,
			},
		},
		Query: QueryConfig{
			DefaultIntent: "product_search",
			Synonyms: []SynonymEntry{
				{Term: "vegan", Synonyms: []string{"plant based", "plant-based"}},
				{Term: "vegetarian", Synonyms: []string{"veggie"}},
				{Term: "cheap", Synonyms: []string{"budget", "affordable"}},
				{Term: "expensive", Synonyms: []string{"premium", "fancy"}},
			},
			DietaryTags: []string{"vegan", "vegetarian", "gluten free", "gluten-free"},
			PriceGroups: []PriceKeywordGroup{
				{Hint: "cheap", Keywords: []string{"cheap", "budget", "affordable", "low"}},
				{Hint: "expensive", Keywords: []string{"expensive", "premium", "fancy", "high"}},
				{Hint: "medium", Keywords: []string{"medium", "mid"}},
			},
			SpellMaxEdits: 2,
		},
		Rerank: RerankConfig{
			VeganBoost:       0.2,
			DiversityPenalty: 0.1,
		},
		Personalize: PersonalizeConfig{
			CuisineWeight: 0.3,
			PriceWeight:   0.1,
			BiasWeight:    0.05,
		},
		Profile: ProfileConfig{
			RebuildInterval: 15 * time.Minute,
			RebuildDebounce: 30 * time.Second,
		},
		Vector: VectorConfig{
			Backend:    "",
			Dimensions: 256,
		},
		Observability: ObservabilityConfig{
			MetricsPort: 9090,
			LogLevel:    "info",
			ServiceName: "dish-search",
		},
	}
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if len(c.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("at least one elasticsearch address required")
	}
	if len(c.Redis.Addresses) == 0 {
		return fmt.Errorf("at least one redis address required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("at least one kafka broker required")
	}
	if c.Search.DefaultPageSize <= 0 {
		return fmt.Errorf("default page size must be positive")
	}
	if c.Search.MaxPageSize <= 0 || c.Search.MaxPageSize > 1000 {
		return fmt.Errorf("max page size must be between 1 and 1000")
	}
	if c.Rerank.VeganBoost < 0 {
		return fmt.Errorf("vegan boost must be non-negative")
	}
	if c.Rerank.DiversityPenalty < 0 {
		return fmt.Errorf("diversity penalty must be non-negative")
	}
	if c.Query.DefaultIntent == "" {
		return fmt.Errorf("default intent label required")
	}
	seenHints := make(map[string]bool)
	for _, g := range c.Query.PriceGroups {
		switch g.Hint {
		case "cheap", "medium", "expensive":
		default:
			return fmt.Errorf("unknown price hint %q in price groups", g.Hint)
		}
		if seenHints[g.Hint] {
			return fmt.Errorf("duplicate price hint %q in price groups", g.Hint)
		}
		seenHints[g.Hint] = true
	}
	if c.Vector.Dimensions <= 0 {
		return fmt.Errorf("vector dimensions must be positive")
	}
	return nil
}
