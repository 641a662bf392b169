package channels

import (
	"github.com/KouCha61ue/MIndCore/internal/access"
	"github.com/KouCha61ue/MIndCore/internal/dispatch"
	"github.com/KouCha61ue/MIndCore/internal/gateway"
	"github.com/KouCha61ue/MIndCore/internal/llm"
	"github.com/KouCha61ue/MIndCore/internal/metrics"
	"github.com/KouCha61ue/MIndCore/internal/session"
)

// Deps are shared by every transport's relay.
type Deps struct {
	Provider llm.Provider
	Gateway  gateway.Config
	Messages dispatch.Messages
	Metrics  *metrics.Manager // optional
	// CountTokens, when set, estimates tokens for generation metrics.
	CountTokens gateway.TokenCounter
}

// Relay is the per-transport pipeline: access registry, session store,
// generation gateway and dispatcher. Platforms never share a relay, so their
// identifiers cannot collide.
type Relay struct {
	Name       string
	Registry   *access.Registry
	Sessions   *session.Store
	Gateway    *gateway.Gateway
	Dispatcher *dispatch.Dispatcher
}

// NewRelay wires a relay that answers through out.
func NewRelay(name string, out dispatch.Outbound, allowed []string, deps Deps) *Relay {
	registry := access.NewRegistry(allowed)
	sessions := session.NewProviderStore(deps.Provider)
	gw := gateway.New(sessions, deps.Provider.Name(), deps.Gateway, deps.Metrics)
	if deps.CountTokens != nil {
		gw.CountTokens(deps.CountTokens)
	}

	return &Relay{
		Name:     name,
		Registry: registry,
		Sessions: sessions,
		Gateway:  gw,
		Dispatcher: dispatch.New(dispatch.Options{
			Registry: registry,
			Sessions: sessions,
			Gateway:  gw,
			Outbound: out,
			Messages: deps.Messages,
			Metrics:  deps.Metrics,
		}),
	}
}
