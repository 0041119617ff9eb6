// Command example is a spec binary describing a small in-memory inventory.
// Run it with `go run ./apps/example --format documentation`.
package main

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	. "github.com/onsi/gomega"

	"github.com/abdul-hamid-achik/itspec"
)

type Item struct {
	SKU   string   `json:"sku"`
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags,omitempty"`
}

var ErrOutOfStock = errors.New("out of stock")

type Inventory struct {
	mu    sync.Mutex
	items map[string]*Item
}

func NewInventory() *Inventory {
	return &Inventory{items: make(map[string]*Item)}
}

func (inv *Inventory) Add(it Item) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if cur, ok := inv.items[it.SKU]; ok {
		cur.Count += it.Count
		return
	}
	inv.items[it.SKU] = &it
}

func (inv *Inventory) Take(sku string, n int) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	it, ok := inv.items[sku]
	if !ok || it.Count < n {
		return ErrOutOfStock
	}
	it.Count -= n
	return nil
}

// Restock adds n units after a delay, then calls done.
func (inv *Inventory) Restock(sku string, n int, delay time.Duration, done func()) {
	time.AfterFunc(delay, func() {
		inv.Add(Item{SKU: sku, Count: n})
		done()
	})
}

func (inv *Inventory) JSON() []byte {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	items := make([]*Item, 0, len(inv.items))
	for _, it := range inv.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	data, _ := json.Marshal(map[string]any{"items": items, "total": len(items)})
	return data
}

const itemSchema = `{
  "type": "object",
  "required": ["items", "total"],
  "properties": {
    "total": {"type": "integer"},
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["sku", "name", "count"],
        "properties": {"count": {"type": "integer", "minimum": 0}}
      }
    }
  }
}`

func main() {
	itspec.Describe("Inventory", func(g *itspec.Group) {
		g.Subject(func(c *itspec.Context) any {
			inv := NewInventory()
			inv.Add(Item{SKU: "A-1", Name: "anvil", Count: 3, Tags: []string{"heavy"}})
			return inv
		})
		g.Fixture("sku", func(c *itspec.Context) any { return "A-1" })

		inventory := func(c *itspec.Context) *Inventory {
			return itspec.Fetch[*Inventory](c, itspec.SubjectName)
		}

		g.Before(func(c *itspec.Context) {
			c.Logger().Debug("preparing example", "example", c.Example().FullDescription())
		})

		g.It("takes stock it has", func(c *itspec.Context) {
			c.Assert().NoError(inventory(c).Take(itspec.Fetch[string](c, "sku"), 2))
			c.Assert().JSONPath(inventory(c).JSON(), "items.0.count", 2)
		})

		g.It("refuses to oversell", func(c *itspec.Context) {
			c.Assert().Expect(inventory(c).Take("A-1", 10)).To(MatchError(ErrOutOfStock))
		})

		g.It("reports a valid document", func(c *itspec.Context) {
			doc := inventory(c).JSON()
			c.ExpectAssertions(3)
			c.Assert().MatchesSchema(doc, itemSchema)
			c.Assert().JSONHas(doc, "items.0.tags")
			c.Assert().JSONLen(doc, "items", 1)
		})

		g.Context("for an unknown item", func(g *itspec.Group) {
			g.Fixture("sku", func(c *itspec.Context) any { return "Z-9" })

			g.It("is out of stock", func(c *itspec.Context) {
				c.Assert().ErrorIs(inventory(c).Take(itspec.Fetch[string](c, "sku"), 1), ErrOutOfStock)
			})
		})

		g.Context("when restocking", func(g *itspec.Group) {
			g.ItAsync("eventually has more", func(c *itspec.Context, done itspec.Done) {
				inv := inventory(c)
				restocked := make(chan struct{})
				inv.Restock("A-1", 5, 20*time.Millisecond, func() { close(restocked) })
				c.Go(func() {
					<-restocked
					c.Assert().NoError(inv.Take("A-1", 8))
					done(nil)
				})
			}).TimeoutAfter(time.Second)
		})

		g.Pending("tracks reservations")
	})

	itspec.Main()
}
