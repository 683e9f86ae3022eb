package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Paths     PathsConfig
	UniProt   UniProtConfig
	KEGG      KEGGConfig
	Retry     RetryConfig
	Redis     RedisConfig
	SQLite    SQLiteConfig
	Neo4j     Neo4jConfig
	Dashboard DashboardConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

// PathsConfig holds every file the pipeline reads or writes. Defaults mirror the
// directory layout the stages have always used.
type PathsConfig struct {
	RawInput           string
	Filtered           string
	Sequences          string
	Pathways           string
	Acetylation        string
	NodeTable          string
	AcetylationPathway string
	StringInteractions string
	StringMapping      string
	StringAnnotations  string
	StringActions      string
}

type UniProtConfig struct {
	BaseURL    string
	TimeoutSec int
}

type KEGGConfig struct {
	BaseURL    string
	Organism   string
	TimeoutSec int
}

type RetryConfig struct {
	MaxAttempts    int
	InitialDelayMS int
	MaxDelayMS     int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLHours int
}

type SQLiteConfig struct {
	Enabled bool
	Path    string
}

type Neo4jConfig struct {
	Enabled  bool
	URI      string
	Username string
	Password string
	Database string
}

type DashboardConfig struct {
	ScoreCutoff       float64
	PageSize          int
	Source            string
	SessionIdleMin    int
	NeutralColor      string
	PositiveColor     string
	NegativeColor     string
	SelectedEdgeColor string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/paces")

	viper.SetEnvPrefix("PACES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8050)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("logging.outputPath", "stdout")

	viper.SetDefault("paths.rawInput", "Preprocessing/Input/acetylome.tsv")
	viper.SetDefault("paths.filtered", "Preprocessing/Output/filteredData.tsv")
	viper.SetDefault("paths.sequences", "Preprocessing/Output/filteredDataSeq.fasta")
	viper.SetDefault("paths.pathways", "Preprocessing/Output/pathways.tsv")
	viper.SetDefault("paths.acetylation", "Preprocessing/Output/acetylation.tsv")
	viper.SetDefault("paths.nodeTable", "Preprocessing/Output/nodeDf.tsv")
	viper.SetDefault("paths.acetylationPathway", "Preprocessing/Output/ackegg.tsv")
	viper.SetDefault("paths.stringInteractions", "Preprocessing/String_man/string_interactions.tsv")
	viper.SetDefault("paths.stringMapping", "Preprocessing/String_man/string_mapping.tsv")
	viper.SetDefault("paths.stringAnnotations", "Preprocessing/String_man/string_protein_annotations.tsv")
	viper.SetDefault("paths.stringActions", "Preprocessing/287.protein.actions.v11.0.txt.gz")

	viper.SetDefault("uniprot.baseURL", "https://rest.uniprot.org/uniprotkb")
	viper.SetDefault("uniprot.timeoutSec", 30)

	viper.SetDefault("kegg.baseURL", "https://rest.kegg.jp")
	viper.SetDefault("kegg.organism", "pae")
	viper.SetDefault("kegg.timeoutSec", 30)

	viper.SetDefault("retry.maxAttempts", 4)
	viper.SetDefault("retry.initialDelayMS", 500)
	viper.SetDefault("retry.maxDelayMS", 8000)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlHours", 168)

	viper.SetDefault("sqlite.enabled", false)
	viper.SetDefault("sqlite.path", "./data/paces.db")

	viper.SetDefault("neo4j.enabled", false)
	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("neo4j.username", "neo4j")
	viper.SetDefault("neo4j.password", "password")
	viper.SetDefault("neo4j.database", "neo4j")

	viper.SetDefault("dashboard.scoreCutoff", 0.7)
	viper.SetDefault("dashboard.pageSize", 25)
	viper.SetDefault("dashboard.source", "tsv")
	viper.SetDefault("dashboard.sessionIdleMin", 60)
	viper.SetDefault("dashboard.neutralColor", "#6c6f74")
	viper.SetDefault("dashboard.positiveColor", "#7bb526")
	viper.SetDefault("dashboard.negativeColor", "#f32c22")
	viper.SetDefault("dashboard.selectedEdgeColor", "#3c6975")
}
