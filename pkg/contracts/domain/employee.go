package domain

// Employee is one validated row of the HR roster
type Employee struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	OrgID       string   `json:"org_id"`
	OrgName     string   `json:"org_name,omitempty"`
	UnitID      string   `json:"unit_id"` // department within the organization
	UnitName    string   `json:"unit_name,omitempty"`
	CompanyID   string   `json:"company_id"`
	CompanyName string   `json:"company_name,omitempty"`
	Manager     string   `json:"manager,omitempty"` // head of department
	Row         int      `json:"row"`
}

// DisplayName returns the employee name, falling back to the identifier
func (e Employee) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}
