// Package rss bundles a feed-watching trigger with a matching content
// provider. One feed definition drives both: the trigger fires when unseen
// entries appear and its payload tells the provider which entries to fetch,
// so a summary covers exactly the entries that caused the run.
package rss

import (
	"net/http"
	"time"

	"github.com/aristath/briefd/internal/capability"
)

// Name is the pack name; the registry resolves its pieces as "rss.content"
// and "rss.trigger".
const Name = "rss"

// Register adds the pack's capabilities to the registry.
func Register(reg *capability.Registry) error {
	err := reg.RegisterPack(Name, capability.KindContent, func(params map[string]any) (any, error) {
		return newProvider(params)
	})
	if err != nil {
		return err
	}
	return reg.RegisterPack(Name, capability.KindTrigger, func(params map[string]any) (any, error) {
		return newTrigger(params)
	})
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}
