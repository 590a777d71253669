package rbac

import "sort"

// Capability names one permission flag.
type Capability string

// Capabilities understood by the dashboard.
const (
	ViewUsers           Capability = "view_users"
	ManageUsers         Capability = "manage_users"
	BanUsers            Capability = "ban_users"
	DeleteUsers         Capability = "delete_users"
	GrantAdmin          Capability = "grant_admin"
	AdjustBalances      Capability = "adjust_balances"
	ExportUserData      Capability = "export_user_data"
	ImpersonateUsers    Capability = "impersonate_users"
	ViewDeals           Capability = "view_deals"
	ManageDeals         Capability = "manage_deals"
	AdjustDealAmounts   Capability = "adjust_deal_amounts"
	ForceReleaseEscrow  Capability = "force_release_escrow"
	DeleteDeals         Capability = "delete_deals"
	ViewGigs            Capability = "view_gigs"
	ManageGigs          Capability = "manage_gigs"
	ModerateContent     Capability = "moderate_content"
	ManageVerifications Capability = "manage_verifications"
	ManageSupport       Capability = "manage_support"
	ViewAnalytics       Capability = "view_analytics"
	ExportReports       Capability = "export_reports"
	ManageRewards       Capability = "manage_rewards"
	CreateRewards       Capability = "create_rewards"
	SystemSettings      Capability = "system_settings"
	APIManagement       Capability = "api_management"
	FeatureFlags        Capability = "feature_flags"
)

// AllCapabilities lists every capability in display order.
func AllCapabilities() []Capability {
	return []Capability{
		ViewUsers, ManageUsers, BanUsers, DeleteUsers, GrantAdmin,
		AdjustBalances, ExportUserData, ImpersonateUsers,
		ViewDeals, ManageDeals, AdjustDealAmounts, ForceReleaseEscrow, DeleteDeals,
		ViewGigs, ManageGigs, ModerateContent,
		ManageVerifications, ManageSupport,
		ViewAnalytics, ExportReports,
		ManageRewards, CreateRewards,
		SystemSettings, APIManagement, FeatureFlags,
	}
}

// PermissionSet is the fixed record of capability flags for a role.
type PermissionSet struct {
	ViewUsers           bool `json:"view_users"`
	ManageUsers         bool `json:"manage_users"`
	BanUsers            bool `json:"ban_users"`
	DeleteUsers         bool `json:"delete_users"`
	GrantAdmin          bool `json:"grant_admin"`
	AdjustBalances      bool `json:"adjust_balances"`
	ExportUserData      bool `json:"export_user_data"`
	ImpersonateUsers    bool `json:"impersonate_users"`
	ViewDeals           bool `json:"view_deals"`
	ManageDeals         bool `json:"manage_deals"`
	AdjustDealAmounts   bool `json:"adjust_deal_amounts"`
	ForceReleaseEscrow  bool `json:"force_release_escrow"`
	DeleteDeals         bool `json:"delete_deals"`
	ViewGigs            bool `json:"view_gigs"`
	ManageGigs          bool `json:"manage_gigs"`
	ModerateContent     bool `json:"moderate_content"`
	ManageVerifications bool `json:"manage_verifications"`
	ManageSupport       bool `json:"manage_support"`
	ViewAnalytics       bool `json:"view_analytics"`
	ExportReports       bool `json:"export_reports"`
	ManageRewards       bool `json:"manage_rewards"`
	CreateRewards       bool `json:"create_rewards"`
	SystemSettings      bool `json:"system_settings"`
	APIManagement       bool `json:"api_management"`
	FeatureFlags        bool `json:"feature_flags"`
}

var superAdminPermissions = PermissionSet{
	ViewUsers:           true,
	ManageUsers:         true,
	BanUsers:            true,
	DeleteUsers:         true,
	GrantAdmin:          true,
	AdjustBalances:      true,
	ExportUserData:      true,
	ImpersonateUsers:    true,
	ViewDeals:           true,
	ManageDeals:         true,
	AdjustDealAmounts:   true,
	ForceReleaseEscrow:  true,
	DeleteDeals:         true,
	ViewGigs:            true,
	ManageGigs:          true,
	ModerateContent:     true,
	ManageVerifications: true,
	ManageSupport:       true,
	ViewAnalytics:       true,
	ExportReports:       true,
	ManageRewards:       true,
	CreateRewards:       true,
	SystemSettings:      true,
	APIManagement:       true,
	FeatureFlags:        true,
}

// Destructive and system level capabilities stay off for regular admins.
var adminPermissions = PermissionSet{
	ViewUsers:           true,
	ManageUsers:         true,
	ViewDeals:           true,
	ManageDeals:         true,
	ViewGigs:            true,
	ManageGigs:          true,
	ModerateContent:     true,
	ManageVerifications: true,
	ManageSupport:       true,
	ViewAnalytics:       true,
	ManageRewards:       true,
}

// PermissionsFor returns the permission set of a role.
func PermissionsFor(role Role) PermissionSet {
	switch role {
	case RoleSuperAdmin:
		return superAdminPermissions
	default:
		return adminPermissions
	}
}

// Has reports whether the capability is granted. Unknown capabilities are
// never granted.
func (p PermissionSet) Has(c Capability) bool {
	switch c {
	case ViewUsers:
		return p.ViewUsers
	case ManageUsers:
		return p.ManageUsers
	case BanUsers:
		return p.BanUsers
	case DeleteUsers:
		return p.DeleteUsers
	case GrantAdmin:
		return p.GrantAdmin
	case AdjustBalances:
		return p.AdjustBalances
	case ExportUserData:
		return p.ExportUserData
	case ImpersonateUsers:
		return p.ImpersonateUsers
	case ViewDeals:
		return p.ViewDeals
	case ManageDeals:
		return p.ManageDeals
	case AdjustDealAmounts:
		return p.AdjustDealAmounts
	case ForceReleaseEscrow:
		return p.ForceReleaseEscrow
	case DeleteDeals:
		return p.DeleteDeals
	case ViewGigs:
		return p.ViewGigs
	case ManageGigs:
		return p.ManageGigs
	case ModerateContent:
		return p.ModerateContent
	case ManageVerifications:
		return p.ManageVerifications
	case ManageSupport:
		return p.ManageSupport
	case ViewAnalytics:
		return p.ViewAnalytics
	case ExportReports:
		return p.ExportReports
	case ManageRewards:
		return p.ManageRewards
	case CreateRewards:
		return p.CreateRewards
	case SystemSettings:
		return p.SystemSettings
	case APIManagement:
		return p.APIManagement
	case FeatureFlags:
		return p.FeatureFlags
	default:
		return false
	}
}

// Granted returns the sorted names of every granted capability.
func (p PermissionSet) Granted() []string {
	out := make([]string, 0, len(AllCapabilities()))
	for _, c := range AllCapabilities() {
		if p.Has(c) {
			out = append(out, string(c))
		}
	}
	sort.Strings(out)
	return out
}

// CapabilityRow pairs a capability with its state, used by the security page.
type CapabilityRow struct {
	Capability Capability
	Admin      bool
	SuperAdmin bool
	Granted    bool
}

// Matrix returns one row per capability for the given role.
func Matrix(role Role) []CapabilityRow {
	current := PermissionsFor(role)
	admin := PermissionsFor(RoleAdmin)
	super := PermissionsFor(RoleSuperAdmin)
	rows := make([]CapabilityRow, 0, len(AllCapabilities()))
	for _, c := range AllCapabilities() {
		rows = append(rows, CapabilityRow{
			Capability: c,
			Admin:      admin.Has(c),
			SuperAdmin: super.Has(c),
			Granted:    current.Has(c),
		})
	}
	return rows
}
