// Package navigation maps UI routes to the permission nodes that guard them.
// The UI hides menu entries and blocks navigation using the same table, so
// both decisions come from the policy engine.
package navigation

import (
	"net/url"
	"path"
	"strings"

	"fleet-backend/internal/policy"
)

// Item is one UI route.
type Item struct {
	Section string      `json:"section"`
	Label   string      `json:"label"`
	Path    string      `json:"path"`
	Node    policy.Node `json:"node"`
}

// menu is in display order. Paths are unique.
var menu = []Item{
	{"Fleet", "Mixers", "/mixers", policy.MixersView},
	{"Fleet", "Tractors", "/tractors", policy.TractorsView},
	{"Fleet", "Trailers", "/trailers", policy.TrailersView},
	{"Fleet", "Equipment", "/equipment", policy.EquipmentView},
	{"People", "Operators", "/operators", policy.OperatorsView},
	{"Sites", "Plants", "/plants", policy.PlantsView},
	{"Sites", "Regions", "/regions", policy.RegionsView},
	{"Insight", "Reports", "/reports", policy.ReportsView},
	{"Communication", "Messages", "/messages", policy.MessagingView},
	{"Administration", "Users", "/users", policy.UsersView},
	{"Administration", "Settings", "/settings", policy.SettingsView},
	{"Account", "My Account", "/account", policy.AccountView},
}

// Menu returns a copy of the full route table.
func Menu() []Item {
	return append([]Item(nil), menu...)
}

// Visible returns the items whose node is in perms, in display order.
func Visible(perms policy.Set) []Item {
	out := make([]Item, 0, len(menu))
	for _, it := range menu {
		if perms.Has(it.Node) {
			out = append(out, it)
		}
	}
	return out
}

// Lookup finds the route guarding route: the registered item whose path is
// the longest prefix of route on a segment boundary. Routes that still hold
// a ".." segment after decoding match nothing.
func Lookup(route string) (Item, bool) {
	route, ok := normalize(route)
	if !ok {
		return Item{}, false
	}
	var best Item
	found := false
	for _, it := range menu {
		if route == it.Path || strings.HasPrefix(route, it.Path+"/") {
			if !found || len(it.Path) > len(best.Path) {
				best, found = it, true
			}
		}
	}
	return best, found
}

// Allowed is the route guard: true only for a registered route whose node
// is in perms. Unregistered paths are denied.
func Allowed(route string, perms policy.Set) bool {
	it, ok := Lookup(route)
	return ok && perms.Has(it.Node)
}

// maxUnescape bounds how many layers of percent-encoding are peeled off.
const maxUnescape = 3

func normalize(route string) (string, bool) {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	for i := 0; strings.Contains(route, "%"); i++ {
		if i == maxUnescape {
			return "", false
		}
		decoded, err := url.PathUnescape(route)
		if err != nil || decoded == route {
			return "", false
		}
		route = decoded
	}
	for _, seg := range strings.Split(route, "/") {
		if seg == ".." {
			return "", false
		}
	}
	return path.Clean("/" + route), true
}
