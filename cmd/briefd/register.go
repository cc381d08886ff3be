package main

import (
	"github.com/aristath/briefd/internal/action"
	"github.com/aristath/briefd/internal/capability"
	"github.com/aristath/briefd/internal/content"
	"github.com/aristath/briefd/internal/llm"
	"github.com/aristath/briefd/internal/notify"
	"github.com/aristath/briefd/internal/packs/rss"
	"github.com/aristath/briefd/internal/trigger"
)

// registerBuiltins wires every built-in capability into the registry. The
// closures adapt each package's concrete constructor to the registry's
// any-returning contract.
func registerBuiltins(reg *capability.Registry) error {
	builtins := []struct {
		kind capability.Kind
		name string
		ctor capability.Constructor
	}{
		{capability.KindContent, "rss", func(p map[string]any) (any, error) { return content.NewRSSContent(p) }},
		{capability.KindContent, "static", func(p map[string]any) (any, error) { return content.NewStatic(p) }},
		{capability.KindContent, "news", func(p map[string]any) (any, error) { return content.NewNews(p) }},
		{capability.KindContent, "weather", func(p map[string]any) (any, error) { return content.NewWeather(p) }},
		{capability.KindContent, "rates", func(p map[string]any) (any, error) { return content.NewRates(p) }},

		{capability.KindLLM, "openai", func(p map[string]any) (any, error) { return llm.NewOpenAI(p) }},
		{capability.KindLLM, "azure", func(p map[string]any) (any, error) { return llm.NewAzure(p) }},
		{capability.KindLLM, "anthropic", func(p map[string]any) (any, error) { return llm.NewAnthropic(p) }},
		{capability.KindLLM, "gemini", func(p map[string]any) (any, error) { return llm.NewGemini(p) }},
		{capability.KindLLM, "ollama", func(p map[string]any) (any, error) { return llm.NewOllama(p) }},

		{capability.KindNotifier, "telegram", func(p map[string]any) (any, error) { return notify.NewTelegram(p) }},
		{capability.KindNotifier, "slack", func(p map[string]any) (any, error) { return notify.NewSlack(p) }},
		{capability.KindNotifier, "discord", func(p map[string]any) (any, error) { return notify.NewDiscord(p) }},
		{capability.KindNotifier, "email", func(p map[string]any) (any, error) { return notify.NewEmail(p) }},
		{capability.KindNotifier, "bark", func(p map[string]any) (any, error) { return notify.NewBark(p) }},
		{capability.KindNotifier, "desktop", func(p map[string]any) (any, error) { return notify.NewDesktop(p) }},
		{capability.KindNotifier, "stdout", func(p map[string]any) (any, error) { return notify.NewStdout(p) }},

		{capability.KindAction, "filter", func(p map[string]any) (any, error) { return action.NewFilter(p) }},
		{capability.KindAction, "format", func(p map[string]any) (any, error) { return action.NewFormat(p) }},
		{capability.KindAction, "sentiment", func(p map[string]any) (any, error) { return action.NewSentiment(p) }},
		{capability.KindAction, "truncate", func(p map[string]any) (any, error) { return action.NewTruncate(p) }},

		{capability.KindTrigger, "interval", func(p map[string]any) (any, error) { return trigger.NewInterval(p) }},
		{capability.KindTrigger, "file", func(p map[string]any) (any, error) { return trigger.NewFileWatch(p) }},
	}

	for _, b := range builtins {
		if err := reg.Register(b.kind, b.name, b.ctor); err != nil {
			return err
		}
	}

	// The desktop notifier shells out to notify-send; fail its loads early
	// on hosts without it.
	if err := reg.RegisterCheck(capability.KindNotifier, "desktop", notify.DesktopAvailable); err != nil {
		return err
	}

	return rss.Register(reg)
}
