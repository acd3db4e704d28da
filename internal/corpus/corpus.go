package corpus

import (
	"strings"

	"github.com/xaenox/member-qa/internal/models"
)

// Corpus is the full set of fetched messages plus a per-user index. It is
// built once at startup and never mutated afterwards, so concurrent readers
// need no locking.
type Corpus struct {
	messages []models.Message
	byUser   map[string][]models.Message
	users    []string // canonical names in first-seen order
}

// Build deduplicates records by id (first occurrence wins) and groups them
// by trimmed user name, preserving arrival order throughout. Grouping is
// exact-string; fuzzy name matching belongs to the resolver.
func Build(records []models.Message) *Corpus {
	c := &Corpus{byUser: make(map[string][]models.Message)}
	seen := make(map[string]struct{}, len(records))
	for _, m := range records {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}

		m.UserName = strings.TrimSpace(m.UserName)
		if _, known := c.byUser[m.UserName]; !known {
			c.users = append(c.users, m.UserName)
		}
		c.messages = append(c.messages, m)
		c.byUser[m.UserName] = append(c.byUser[m.UserName], m)
	}
	return c
}

// Messages returns all messages in arrival order.
func (c *Corpus) Messages() []models.Message { return c.messages }

// Users returns the canonical user names in first-seen order.
func (c *Corpus) Users() []string { return c.users }

// ByUser returns one user's messages in arrival order, nil when the name is
// unknown.
func (c *Corpus) ByUser(name string) []models.Message { return c.byUser[name] }

func (c *Corpus) Len() int { return len(c.messages) }

func (c *Corpus) MessagesPerUser() map[string]int {
	counts := make(map[string]int, len(c.byUser))
	for name, msgs := range c.byUser {
		counts[name] = len(msgs)
	}
	return counts
}
