package service

// Actor authenticated caller, built from bearer token claims
type Actor struct {
	AccountID int64
	Username  string
	IsStaff   bool
	AgentID   *int64
}

// IsAgent reports whether the caller has an agent profile
func (a Actor) IsAgent() bool {
	return a.AgentID != nil
}

// seesAllCases staff and agents work the shared queue
func (a Actor) seesAllCases() bool {
	return a.IsStaff || a.IsAgent()
}
