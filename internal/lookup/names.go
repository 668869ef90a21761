package lookup

import (
	"context"
	"fmt"
	"slices"

	"github.com/sells-group/lead-enrich/internal/cache"
	"github.com/sells-group/lead-enrich/pkg/perplexity"
)

const (
	nameMaxTokens  = 100
	ownerMaxTokens = 200
)

// NameQuery describes a business whose public name is wanted.
type NameQuery struct {
	LLCName string
	Address string
	City    string
	State   string
	Website string
}

// OwnerQuery describes a restaurant whose owner is wanted.
type OwnerQuery struct {
	RestaurantName string
	LLCName        string
	Address        string
	City           string
	State          string
}

// NameResolver asks a web-grounded model for restaurant names and owners.
type NameResolver struct {
	client perplexity.Client
	svc    *service
}

// NewNameResolver returns a NameResolver. A nil client disables it.
func NewNameResolver(client perplexity.Client, opts Options) *NameResolver {
	return &NameResolver{client: client, svc: newService(ServicePerplexity, opts)}
}

// ResolveName returns the public-facing name for q, or "".
func (n *NameResolver) ResolveName(ctx context.Context, q NameQuery) string {
	if n == nil || n.client == nil || q.LLCName == "" {
		return ""
	}

	key := cache.NewKey("perplexity_name", q.LLCName, q.Address, q.City, q.State)
	name, _ := call(ctx, n.svc, key, "resolve_name", func(ctx context.Context) (string, bool, error) {
		reply, err := n.ask(ctx, namePrompt(q), nameMaxTokens)
		if err != nil {
			return "", false, err
		}
		name := cleanName(reply)
		return name, name != "", nil
	})
	return name
}

// FindOwners returns at most one probable owner name for q.
func (n *NameResolver) FindOwners(ctx context.Context, q OwnerQuery) []string {
	if n == nil || n.client == nil || (q.RestaurantName == "" && q.LLCName == "") {
		return nil
	}

	key := cache.NewKey("perplexity_owners", q.RestaurantName, q.LLCName, q.City, q.State)
	owners, _ := call(ctx, n.svc, key, "find_owners", func(ctx context.Context) ([]string, bool, error) {
		reply, err := n.ask(ctx, ownerPrompt(q), ownerMaxTokens)
		if err != nil {
			return nil, false, err
		}
		if owner := cleanOwner(reply); owner != "" {
			return []string{owner}, true, nil
		}
		return nil, false, nil
	})
	// Shared with concurrent callers of the same key.
	return slices.Clone(owners)
}

func (n *NameResolver) ask(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := n.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages:  []perplexity.Message{{Role: "user", Content: prompt}},
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return "", err
	}
	n.svc.metrics.Tokens(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return resp.Content(), nil
}

func namePrompt(q NameQuery) string {
	website := q.Website
	if website == "" {
		website = "Unknown"
	}
	return fmt.Sprintf(`What is the actual restaurant name (DBA) for this business?

LLC: %s
Address: %s, %s, %s
Website: %s

Reply with ONLY the restaurant name (1-5 words max). No explanations, no punctuation, no quotes. Example: "FIG" or "The Belmont". If unknown, reply "UNKNOWN".`,
		q.LLCName, q.Address, q.City, q.State, website)
}

func ownerPrompt(q OwnerQuery) string {
	return fmt.Sprintf(`Who is the primary owner of this restaurant?

Restaurant: %s
LLC: %s
Location: %s, %s, %s

Reply with ONLY the owner's full name (first and last). One name only - the main owner/founder. No titles, no explanations. If unknown, reply "UNKNOWN".`,
		q.RestaurantName, q.LLCName, q.Address, q.City, q.State)
}
