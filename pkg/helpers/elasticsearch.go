package helpers

import (
	"github.com/elastic/go-elasticsearch/v8"
)

// NewESClient builds an Elasticsearch client for audit indexing.
func NewESClient(addrs []string, user, pass string) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{Addresses: addrs}
	if user != "" {
		cfg.Username = user
		cfg.Password = pass
	}
	return elasticsearch.NewClient(cfg)
}
