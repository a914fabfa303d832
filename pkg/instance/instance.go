package instance

import (
	"os"

	"github.com/DarkRecklessness/ShopService/pkg/env"
)

// ID identifies this process in logs and broker consumer tags. It prefers
// SHOP_INSTANCE_ID, then the hostname.
func ID() string {
	if id, ok := env.Lookup("SHOP_INSTANCE_ID"); ok {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
