package policy

import "strings"

// Node is a permission node in dotted "<resource>.<action>" form.
// Nodes are compared case-sensitively.
type Node string

const (
	MixersView      Node = "mixers.view"
	MixersManage    Node = "mixers.manage"
	TractorsView    Node = "tractors.view"
	TractorsManage  Node = "tractors.manage"
	TrailersView    Node = "trailers.view"
	TrailersManage  Node = "trailers.manage"
	EquipmentView   Node = "equipment.view"
	EquipmentManage Node = "equipment.manage"
	OperatorsView   Node = "operators.view"
	OperatorsManage Node = "operators.manage"
	PlantsView      Node = "plants.view"
	PlantsManage    Node = "plants.manage"
	RegionsView     Node = "regions.view"
	RegionsManage   Node = "regions.manage"
	ReportsView     Node = "reports.view"
	SettingsView    Node = "settings.view"
	SettingsManage  Node = "settings.manage"
	MessagingView   Node = "messaging.view"
	MessagingManage Node = "messaging.manage"
	UsersView       Node = "users.view"
	UsersManage     Node = "users.manage"
	AccountView     Node = "account.view"
	AccountManage   Node = "account.manage"
)

// catalogue is the complete list of valid nodes, in display order.
// Adding a node here without granting it anywhere leaves it denied for
// every role except the full-access one.
var catalogue = []Node{
	MixersView, MixersManage,
	TractorsView, TractorsManage,
	TrailersView, TrailersManage,
	EquipmentView, EquipmentManage,
	OperatorsView, OperatorsManage,
	PlantsView, PlantsManage,
	RegionsView, RegionsManage,
	ReportsView,
	SettingsView, SettingsManage,
	MessagingView, MessagingManage,
	UsersView, UsersManage,
	AccountView, AccountManage,
}

// Resource returns the part of the node before the dot.
func (n Node) Resource() string {
	resource, _, _ := strings.Cut(string(n), ".")
	return resource
}

// Action returns the part of the node after the dot.
func (n Node) Action() string {
	_, action, _ := strings.Cut(string(n), ".")
	return action
}

// Valid reports whether n has exactly one dot separating a non-empty
// resource and action made of lowercase letters, digits and underscores.
func (n Node) Valid() bool {
	resource, action, ok := strings.Cut(string(n), ".")
	if !ok {
		return false
	}
	return validSegment(resource) && validSegment(action)
}

func validSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}
