// Package config defines lexidex's recognized configuration keys, their
// defaults, and the clamping rules applied to out-of-range numerics.
//
// Structure mirrors the teacher's config.go: a struct-of-structs with yaml
// tags, a DefaultConfig constructor, and a Normalize pass that clamps
// rather than rejects.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// StorageConfig groups storage.* keys.
type StorageConfig struct {
	Path             string `yaml:"path" json:"path"`
	ExternalContent  bool   `yaml:"external_content" json:"external_content"`
}

// FieldConfig is the per-field {boost, store, index} tuple from
// indexer.fields.
type FieldConfig struct {
	Boost float64 `yaml:"boost" json:"boost"`
	Store bool    `yaml:"store" json:"store"`
	Index bool    `yaml:"index" json:"index"`
}

// AnalyzerConfig groups analyzer.* keys (spec §4.1 enumeration).
type AnalyzerConfig struct {
	MinWordLength      int      `yaml:"min_word_length" json:"min_word_length"`
	MaxWordLength      int      `yaml:"max_word_length" json:"max_word_length"`
	RemoveNumbers      bool     `yaml:"remove_numbers" json:"remove_numbers"`
	Lowercase          bool     `yaml:"lowercase" json:"lowercase"`
	StripHTML          bool     `yaml:"strip_html" json:"strip_html"`
	StripPunctuation   bool     `yaml:"strip_punctuation" json:"strip_punctuation"`
	ExpandContractions bool     `yaml:"expand_contractions" json:"expand_contractions"`
	DisableStopWords   bool     `yaml:"disable_stop_words" json:"disable_stop_words"`
	CustomStopWords    []string `yaml:"custom_stop_words" json:"custom_stop_words"`
}

// IndexerConfig groups indexer.* keys.
type IndexerConfig struct {
	BatchSize     int                    `yaml:"batch_size" json:"batch_size"`
	AutoFlush     bool                   `yaml:"auto_flush" json:"auto_flush"`
	ChunkSize     int                    `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap  int                    `yaml:"chunk_overlap" json:"chunk_overlap"`
	Fields        map[string]FieldConfig `yaml:"fields" json:"fields"`
}

// SearchConfig groups search.* keys.
type SearchConfig struct {
	MinScore               float64 `yaml:"min_score" json:"min_score"`
	HighlightTag           string  `yaml:"highlight_tag" json:"highlight_tag"`
	HighlightTagClose      string  `yaml:"highlight_tag_close" json:"highlight_tag_close"`
	SnippetLength          int     `yaml:"snippet_length" json:"snippet_length"`
	MaxResults             int     `yaml:"max_results" json:"max_results"`
	EnableFuzzy            bool    `yaml:"enable_fuzzy" json:"enable_fuzzy"`
	EnableSuggestions      bool    `yaml:"enable_suggestions" json:"enable_suggestions"`
	FuzzyAlgorithm         string  `yaml:"fuzzy_algorithm" json:"fuzzy_algorithm"`
	FuzzyCorrectionMode    bool    `yaml:"fuzzy_correction_mode" json:"fuzzy_correction_mode"`
	CorrectionThreshold    float64 `yaml:"correction_threshold" json:"correction_threshold"`
	FuzzyScorePenalty      float64 `yaml:"fuzzy_score_penalty" json:"fuzzy_score_penalty"`
	FuzzyLastTokenOnly     bool    `yaml:"fuzzy_last_token_only" json:"fuzzy_last_token_only"`
	PrefixLastToken        bool    `yaml:"prefix_last_token" json:"prefix_last_token"`
	TrigramSize            int     `yaml:"trigram_size" json:"trigram_size"`
	TrigramThreshold        float64 `yaml:"trigram_threshold" json:"trigram_threshold"`
	JaroWinklerThreshold    float64 `yaml:"jaro_winkler_threshold" json:"jaro_winkler_threshold"`
	JaroWinklerPrefixScale  float64 `yaml:"jaro_winkler_prefix_scale" json:"jaro_winkler_prefix_scale"`
	LevenshteinThreshold    int     `yaml:"levenshtein_threshold" json:"levenshtein_threshold"`
	MinTermFrequency        int     `yaml:"min_term_frequency" json:"min_term_frequency"`
	MaxIndexedTerms          int     `yaml:"max_indexed_terms" json:"max_indexed_terms"`
	MaxFuzzyVariations       int     `yaml:"max_fuzzy_variations" json:"max_fuzzy_variations"`
	IndexedTermsCacheTTLSecs int     `yaml:"indexed_terms_cache_ttl" json:"indexed_terms_cache_ttl"`
	CacheTTLSecs             int     `yaml:"cache_ttl" json:"cache_ttl"`
}

// CacheConfig groups cache.* keys.
type CacheConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	TTL     int  `yaml:"ttl" json:"ttl"`
	MaxSize int  `yaml:"max_size" json:"max_size"`
}

// Config is the root configuration object accepted by the Facade.
type Config struct {
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Analyzer AnalyzerConfig `yaml:"analyzer" json:"analyzer"`
	Indexer  IndexerConfig  `yaml:"indexer" json:"indexer"`
	Search   SearchConfig   `yaml:"search" json:"search"`
	Cache    CacheConfig    `yaml:"cache" json:"cache"`
}

// DefaultConfig returns a Config populated with every default named in
// spec.md, already normalized.
func DefaultConfig() Config {
	cfg := Config{
		Storage: StorageConfig{
			Path:            "lexidex.db",
			ExternalContent: true,
		},
		Analyzer: AnalyzerConfig{
			MinWordLength:      2,
			MaxWordLength:      50,
			RemoveNumbers:      false,
			Lowercase:          true,
			StripHTML:          true,
			StripPunctuation:   true,
			ExpandContractions: true,
			DisableStopWords:   false,
		},
		Indexer: IndexerConfig{
			BatchSize:    100,
			AutoFlush:    true,
			ChunkSize:    1000,
			ChunkOverlap: 100,
			Fields: map[string]FieldConfig{
				"content": {Boost: 1.0, Store: true, Index: true},
			},
		},
		Search: SearchConfig{
			MinScore:                 0,
			HighlightTag:             "<mark>",
			HighlightTagClose:        "</mark>",
			SnippetLength:            200,
			MaxResults:               1000,
			EnableFuzzy:              true,
			EnableSuggestions:        true,
			FuzzyAlgorithm:           "trigram",
			FuzzyCorrectionMode:      true,
			CorrectionThreshold:      0.6,
			FuzzyScorePenalty:        0.3,
			FuzzyLastTokenOnly:       false,
			PrefixLastToken:          false,
			TrigramSize:              3,
			TrigramThreshold:         0.35,
			JaroWinklerThreshold:     0.85,
			JaroWinklerPrefixScale:   0.1,
			LevenshteinThreshold:     2,
			MinTermFrequency:         1,
			MaxIndexedTerms:          10000,
			MaxFuzzyVariations:       10,
			IndexedTermsCacheTTLSecs: 300,
			CacheTTLSecs:             60,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     60,
			MaxSize: 1000,
		},
	}
	cfg.Normalize()
	return cfg
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Normalize clamps every numeric field to its documented valid range in
// place, per spec §6 ("Numeric fields outside valid ranges clamp to
// nearest valid").
func (c *Config) Normalize() {
	c.Analyzer.MinWordLength = clampInt(c.Analyzer.MinWordLength, 0, 100)
	c.Analyzer.MaxWordLength = clampInt(c.Analyzer.MaxWordLength, c.Analyzer.MinWordLength, 1000)

	c.Indexer.BatchSize = clampInt(c.Indexer.BatchSize, 1, 100000)
	c.Indexer.ChunkSize = clampInt(c.Indexer.ChunkSize, 100, 1<<20)
	c.Indexer.ChunkOverlap = clampInt(c.Indexer.ChunkOverlap, 0, c.Indexer.ChunkSize/2)
	for name, fc := range c.Indexer.Fields {
		fc.Boost = clampFloat(fc.Boost, 0, 1000)
		c.Indexer.Fields[name] = fc
	}

	c.Search.MinScore = clampFloat(c.Search.MinScore, 0, 1e12)
	c.Search.SnippetLength = clampInt(c.Search.SnippetLength, 10, 10000)
	c.Search.MaxResults = clampInt(c.Search.MaxResults, 1, 100000)
	c.Search.CorrectionThreshold = clampFloat(c.Search.CorrectionThreshold, 0, 1)
	c.Search.FuzzyScorePenalty = clampFloat(c.Search.FuzzyScorePenalty, 0, 1)
	c.Search.TrigramSize = clampInt(c.Search.TrigramSize, 2, 5)
	c.Search.TrigramThreshold = clampFloat(c.Search.TrigramThreshold, 0, 1)
	c.Search.JaroWinklerThreshold = clampFloat(c.Search.JaroWinklerThreshold, 0, 1)
	c.Search.JaroWinklerPrefixScale = clampFloat(c.Search.JaroWinklerPrefixScale, 0, 0.25)
	c.Search.LevenshteinThreshold = clampInt(c.Search.LevenshteinThreshold, 0, 20)
	c.Search.MinTermFrequency = clampInt(c.Search.MinTermFrequency, 1, 1000)
	c.Search.MaxIndexedTerms = clampInt(c.Search.MaxIndexedTerms, 100, 1000000)
	c.Search.MaxFuzzyVariations = clampInt(c.Search.MaxFuzzyVariations, 1, 1000)
	c.Search.IndexedTermsCacheTTLSecs = clampInt(c.Search.IndexedTermsCacheTTLSecs, 0, 86400)
	c.Search.CacheTTLSecs = clampInt(c.Search.CacheTTLSecs, 0, 86400)

	c.Cache.TTL = clampInt(c.Cache.TTL, 0, 86400)
	c.Cache.MaxSize = clampInt(c.Cache.MaxSize, 1, 1000000)
}

// LoadConfig reads a YAML config file, overlaying it onto DefaultConfig and
// normalizing the result. Missing keys keep their default values; unknown
// keys are ignored by yaml.v3's default unmarshal behavior.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	cfg.Normalize()
	return cfg, nil
}
