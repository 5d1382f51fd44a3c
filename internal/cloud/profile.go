package cloud

import "context"

// Profile is a resolved display profile for log entries and rankings.
type Profile struct {
	DisplayName string
	Country     string
}

// ResolveFunc is one strategy in the profile resolution chain. Returning
// (nil, nil) means "no answer here, try the next resolver".
type ResolveFunc func(ctx context.Context, userID string) (*Profile, error)

// ProfileChain composes resolvers, first non-nil result wins. Resolver
// errors are skipped, not propagated: profile resolution must never
// block an XP award.
type ProfileChain struct {
	resolvers []ResolveFunc
}

func NewProfileChain(resolvers ...ResolveFunc) *ProfileChain {
	return &ProfileChain{resolvers: resolvers}
}

// Resolve walks the chain. Returns nil when no resolver has an answer.
func (c *ProfileChain) Resolve(ctx context.Context, userID string) *Profile {
	for _, r := range c.resolvers {
		p, err := r(ctx, userID)
		if err != nil {
			continue
		}
		if p != nil {
			return p
		}
	}
	return nil
}

// FromUserDoc resolves from the remote user document.
func FromUserDoc(store Store) ResolveFunc {
	return func(ctx context.Context, userID string) (*Profile, error) {
		doc, err := store.UserDoc(ctx, userID)
		if err != nil || doc == nil {
			return nil, err
		}
		if doc.DisplayName == "" && doc.Country == "" {
			return nil, nil
		}
		return &Profile{DisplayName: doc.DisplayName, Country: doc.Country}, nil
	}
}
