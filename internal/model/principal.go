package model

// Principal is the authenticated caller of a request.
type Principal struct {
	ProfileID int64
	Type      ProfileType
}

func NewPrincipal(p *Profile) Principal {
	return Principal{ProfileID: p.ID, Type: p.Type}
}

func (p Principal) IsClient() bool {
	return p.Type == ProfileTypeClient
}

func (p Principal) IsContractor() bool {
	return p.Type == ProfileTypeContractor
}
