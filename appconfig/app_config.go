package appconfig

import (
	"github.com/SaiNageswarS/go-api-boot/config"
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	AnthropicModel   string `env:"ANTHROPIC-MODEL" ini:"anthropic_model"`
	OllamaEmbedModel string `env:"OLLAMA-EMBED-MODEL" ini:"ollama_embed_model"`

	QdrantURL    string `env:"QDRANT-URL" ini:"qdrant_url"`
	QdrantAPIKey string `env:"QDRANT-API-KEY" ini:"qdrant_api_key"`
	MongoURI     string `env:"MONGO-URI" ini:"mongo_uri"`

	DocsDir string `env:"DOCS-DIR" ini:"docs_dir"`

	ChunkSize        int     `ini:"chunk_size"`
	ChunkOverlap     int     `ini:"chunk_overlap"`
	MaxResults       int     `ini:"max_results"`
	MaxHistory       int     `ini:"max_history"`
	CatalogThreshold float64 `ini:"catalog_threshold"`
	HTTPPort         string  `ini:"http_port"`
}
