package policy

// grants is the shipped role to node table. RoleIT is absent on purpose:
// its grant set is the whole catalogue and New derives it.
//
// Every capability must be listed by name; there is no wildcard.
var grants = map[Role][]Node{
	RoleGeneralManager: {
		MixersView, MixersManage,
		TractorsView, TractorsManage,
		TrailersView, TrailersManage,
		EquipmentView, EquipmentManage,
		OperatorsView, OperatorsManage,
		PlantsView, PlantsManage,
		RegionsView, RegionsManage,
		ReportsView,
		SettingsView,
		MessagingView, MessagingManage,
		UsersView,
		AccountView, AccountManage,
	},
	RoleDistrictManager: {
		MixersView, MixersManage,
		TractorsView,
		TrailersView,
		EquipmentView,
		OperatorsView, OperatorsManage,
		PlantsView, PlantsManage,
		RegionsView,
		ReportsView,
		MessagingView, MessagingManage,
		AccountView, AccountManage,
	},
	RolePlantManager: {
		MixersView, MixersManage,
		EquipmentView,
		OperatorsView, OperatorsManage,
		PlantsView,
		MessagingView, MessagingManage,
		AccountView, AccountManage,
	},
	RoleCementDispatcher: {
		TractorsView,
		TrailersView,
		OperatorsView,
		MessagingView, MessagingManage,
		AccountView, AccountManage,
	},
	RoleCementDispatchManager: {
		TractorsView, TractorsManage,
		TrailersView, TrailersManage,
		OperatorsView, OperatorsManage,
		ReportsView,
		MessagingView, MessagingManage,
		AccountView, AccountManage,
	},
	RoleReadyMixInstructor: {
		MixersView,
		OperatorsView,
		MessagingView, MessagingManage,
		AccountView, AccountManage,
	},
	RoleDispatchManager: {
		MixersView,
		TractorsView,
		TrailersView,
		OperatorsView,
		PlantsView,
		ReportsView,
		MessagingView, MessagingManage,
		AccountView, AccountManage,
	},
	RoleUser: {
		MessagingView,
		AccountView, AccountManage,
	},
	RoleGuest: {
		AccountView, AccountManage,
	},
}
