package auth

// Permission tags. ADMIN short-circuits every check.
const (
	PermAdmin = "ADMIN"

	PermCreateClient = "CREATE_CLIENT"

	PermEditAllClients = "EDIT_ALL_CLIENTS"
	PermEditOwnClient  = "EDIT_OWN_CLIENT"

	PermDeleteAllClients = "DELETE_ALL_CLIENTS"
	PermDeleteOwnClient  = "DELETE_OWN_CLIENT"

	PermHideAllClients = "HIDE_ALL_CLIENTS"
	PermHideOwnClient  = "HIDE_OWN_CLIENT"

	PermViewHiddenAllClients = "VIEW_HIDDEN_ALL_CLIENTS"
	PermViewHiddenOwnClient  = "VIEW_HIDDEN_OWN_CLIENT"

	PermSuggestEdits = "SUGGEST_EDITS"

	PermEditAddons     = "EDIT_ADDONS"
	PermEditCities     = "EDIT_CITIES"
	PermEditAgreements = "EDIT_AGREEMENTS"
)

type PermissionInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

var catalogue = []PermissionInfo{
	{PermAdmin, "Full access to every operation"},
	{PermCreateClient, "Create contractors"},
	{PermEditAllClients, "Edit any contractor"},
	{PermEditOwnClient, "Edit contractors the user manages or created"},
	{PermDeleteAllClients, "Delete any contractor"},
	{PermDeleteOwnClient, "Delete contractors the user manages or created"},
	{PermHideAllClients, "Hide or unhide any contractor"},
	{PermHideOwnClient, "Hide or unhide contractors the user manages or created"},
	{PermViewHiddenAllClients, "See every hidden contractor"},
	{PermViewHiddenOwnClient, "See hidden contractors the user manages or created"},
	{PermSuggestEdits, "Propose contractor changes for review"},
	{PermEditAddons, "Manage the add-on catalogue"},
	{PermEditCities, "Manage cities"},
	{PermEditAgreements, "Manage agreement types"},
}

// Catalogue returns every permission the application knows about.
func Catalogue() []PermissionInfo {
	out := make([]PermissionInfo, len(catalogue))
	copy(out, catalogue)
	return out
}

func IsKnownPermission(name string) bool {
	for _, p := range catalogue {
		if p.Name == name {
			return true
		}
	}
	return false
}

// UnknownPermissions returns the names that are not in the catalogue.
func UnknownPermissions(names []string) []string {
	var unknown []string
	for _, n := range names {
		if !IsKnownPermission(n) {
			unknown = append(unknown, n)
		}
	}
	return unknown
}
