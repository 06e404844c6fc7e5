package shared

// Permissions declared for RBAC. Roles are seeded with subsets of these;
// see scripts/seed for the grants per role.
const (
	// Repair order permissions.
	PermRepairView     = "repair.view"
	PermRepairCreate   = "repair.create"
	PermRepairClaim    = "repair.claim"
	PermRepairPropose  = "repair.propose"
	PermRepairDecide   = "repair.decide"
	PermRepairSchedule = "repair.schedule"
	PermRepairComplete = "repair.complete"
	PermRepairCancel   = "repair.cancel"

	// Billing permissions.
	PermBillingView    = "billing.view"
	PermBillingInvoice = "billing.invoice"
	PermBillingPay     = "billing.pay"

	// Master data permissions.
	PermMasterDataView = "masterdata.view"
	PermMasterDataEdit = "masterdata.edit"

	// Core platform permissions.
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"
)

// RepairScopes lists all permissions related to the repair workflow.
func RepairScopes() []string {
	return []string{
		PermRepairView,
		PermRepairCreate,
		PermRepairClaim,
		PermRepairPropose,
		PermRepairDecide,
		PermRepairSchedule,
		PermRepairComplete,
		PermRepairCancel,
	}
}

// BillingScopes lists all permissions related to invoicing and payments.
func BillingScopes() []string {
	return []string{
		PermBillingView,
		PermBillingInvoice,
		PermBillingPay,
	}
}

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermMasterDataView,
		PermMasterDataEdit,
		PermUsersView,
		PermUsersEdit,
	}
}
